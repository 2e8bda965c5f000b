package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/missionctl/missionctl/internal/common/logger"
	"github.com/missionctl/missionctl/internal/mission/models"
	"github.com/missionctl/missionctl/internal/mission/service"
	v1 "github.com/missionctl/missionctl/pkg/api/v1"
	ws "github.com/missionctl/missionctl/pkg/websocket"
)

// defaultActivityLimit caps the activity feed page when the client
// does not ask for a specific size.
const defaultActivityLimit = 50

// RecordHandlers serves the activity feed and the document store.
type RecordHandlers struct {
	service *service.Service
	logger  *logger.Logger
}

func NewRecordHandlers(svc *service.Service, log *logger.Logger) *RecordHandlers {
	return &RecordHandlers{
		service: svc,
		logger:  log.WithFields(zap.String("component", "record_handlers")),
	}
}

func RegisterRecordRoutes(router *gin.Engine, dispatcher *ws.Dispatcher, svc *service.Service, log *logger.Logger) {
	handlers := NewRecordHandlers(svc, log)
	handlers.registerHTTP(router)
	handlers.registerWS(dispatcher)
}

func (h *RecordHandlers) registerHTTP(router *gin.Engine) {
	api := router.Group("/api/v1")
	api.GET("/activities", h.httpListActivities)
	api.GET("/documents", h.httpListDocuments)
	api.POST("/documents", h.httpCreateDocument)
	api.GET("/documents/:id", h.httpGetDocument)
}

func (h *RecordHandlers) registerWS(dispatcher *ws.Dispatcher) {
	dispatcher.RegisterFunc(ws.ActionActivityList, h.wsListActivities)
}

// HTTP handlers

func (h *RecordHandlers) httpListActivities(c *gin.Context) {
	limit := defaultActivityLimit
	if l := c.Query("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil {
			limit = parsed
		}
	}

	activities, err := h.service.ListActivities(c.Request.Context(), limit, c.Query("task_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, listActivitiesResponse(activities))
}

func (h *RecordHandlers) httpListDocuments(c *gin.Context) {
	documents, err := h.service.ListDocuments(c.Request.Context(), c.Query("task_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	apiDocs := make([]v1.Document, 0, len(documents))
	for _, doc := range documents {
		apiDocs = append(apiDocs, *doc.ToAPI())
	}
	c.JSON(http.StatusOK, v1.ListDocumentsResponse{Documents: apiDocs, Total: len(apiDocs)})
}

func (h *RecordHandlers) httpCreateDocument(c *gin.Context) {
	var body v1.CreateDocumentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	doc, err := h.service.CreateDocument(c.Request.Context(), &body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, doc.ToAPI())
}

func (h *RecordHandlers) httpGetDocument(c *gin.Context) {
	doc, err := h.service.GetDocument(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, doc.ToAPI())
}

// WebSocket handlers

type wsListActivitiesRequest struct {
	Limit  int    `json:"limit,omitempty"`
	TaskID string `json:"task_id,omitempty"`
}

func (h *RecordHandlers) wsListActivities(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req wsListActivitiesRequest
	if err := msg.ParsePayload(&req); err != nil {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "Invalid payload: "+err.Error(), nil)
	}
	if req.Limit == 0 {
		req.Limit = defaultActivityLimit
	}
	activities, err := h.service.ListActivities(ctx, req.Limit, req.TaskID)
	if err != nil {
		return wsServiceError(msg, h.logger, err)
	}
	return ws.NewResponse(msg.ID, msg.Action, listActivitiesResponse(activities))
}

func listActivitiesResponse(activities []*models.Activity) v1.ListActivitiesResponse {
	apiActivities := make([]v1.Activity, 0, len(activities))
	for _, activity := range activities {
		apiActivities = append(apiActivities, *activity.ToAPI())
	}
	return v1.ListActivitiesResponse{Activities: apiActivities, Total: len(apiActivities)}
}
