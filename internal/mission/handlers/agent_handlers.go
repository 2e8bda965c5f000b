package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/missionctl/missionctl/internal/common/logger"
	"github.com/missionctl/missionctl/internal/mission/models"
	"github.com/missionctl/missionctl/internal/mission/service"
	v1 "github.com/missionctl/missionctl/pkg/api/v1"
	ws "github.com/missionctl/missionctl/pkg/websocket"
)

type AgentHandlers struct {
	service *service.Service
	logger  *logger.Logger
}

func NewAgentHandlers(svc *service.Service, log *logger.Logger) *AgentHandlers {
	return &AgentHandlers{
		service: svc,
		logger:  log.WithFields(zap.String("component", "agent_handlers")),
	}
}

func RegisterAgentRoutes(router *gin.Engine, dispatcher *ws.Dispatcher, svc *service.Service, log *logger.Logger) {
	handlers := NewAgentHandlers(svc, log)
	handlers.registerHTTP(router)
	handlers.registerWS(dispatcher)
}

func (h *AgentHandlers) registerHTTP(router *gin.Engine) {
	api := router.Group("/api/v1")
	api.GET("/agents", h.httpListAgents)
	api.POST("/agents", h.httpCreateAgent)
	api.GET("/agents/:id", h.httpGetAgent)
	api.PATCH("/agents/:id", h.httpUpdateAgent)
}

func (h *AgentHandlers) registerWS(dispatcher *ws.Dispatcher) {
	dispatcher.RegisterFunc(ws.ActionAgentList, h.wsListAgents)
}

// HTTP handlers

func (h *AgentHandlers) httpListAgents(c *gin.Context) {
	agents, err := h.service.ListAgents(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, listAgentsResponse(agents))
}

func (h *AgentHandlers) httpCreateAgent(c *gin.Context) {
	var body v1.CreateAgentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	agent, err := h.service.CreateAgent(c.Request.Context(), &body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, agent.ToAPI())
}

func (h *AgentHandlers) httpGetAgent(c *gin.Context) {
	agent, err := h.service.GetAgent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, agent.ToAPI())
}

func (h *AgentHandlers) httpUpdateAgent(c *gin.Context) {
	var body v1.UpdateAgentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	agent, err := h.service.UpdateAgent(c.Request.Context(), c.Param("id"), &body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, agent.ToAPI())
}

// WebSocket handlers

func (h *AgentHandlers) wsListAgents(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	agents, err := h.service.ListAgents(ctx)
	if err != nil {
		return wsServiceError(msg, h.logger, err)
	}
	return ws.NewResponse(msg.ID, msg.Action, listAgentsResponse(agents))
}

func listAgentsResponse(agents []*models.Agent) v1.ListAgentsResponse {
	apiAgents := make([]v1.Agent, 0, len(agents))
	for _, agent := range agents {
		apiAgents = append(apiAgents, *agent.ToAPI())
	}
	return v1.ListAgentsResponse{Agents: apiAgents, Total: len(apiAgents)}
}
