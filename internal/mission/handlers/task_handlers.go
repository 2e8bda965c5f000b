// Package handlers exposes the mission REST and WebSocket API. Each
// resource gets a handler struct registered against the gin router and
// the WS dispatcher during startup.
package handlers

import (
	"context"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/missionctl/missionctl/internal/common/logger"
	"github.com/missionctl/missionctl/internal/mission/models"
	"github.com/missionctl/missionctl/internal/mission/service"
	"github.com/missionctl/missionctl/internal/orchestrator/executor"
	v1 "github.com/missionctl/missionctl/pkg/api/v1"
	ws "github.com/missionctl/missionctl/pkg/websocket"
)

// TaskExecutor is the slice of the executor the task handlers need.
type TaskExecutor interface {
	ExecuteTask(ctx context.Context, taskID, agentID string) (*executor.Result, error)
	ExecuteTaskBackground(ctx context.Context, taskID, agentID string) error
	StopTask(ctx context.Context, taskID string) bool
	RunningTasks() []string
	ActiveCount() int
	Limit() int
}

type TaskHandlers struct {
	service  *service.Service
	executor TaskExecutor
	logger   *logger.Logger
}

func NewTaskHandlers(svc *service.Service, exec TaskExecutor, log *logger.Logger) *TaskHandlers {
	return &TaskHandlers{
		service:  svc,
		executor: exec,
		logger:   log.WithFields(zap.String("component", "task_handlers")),
	}
}

func RegisterTaskRoutes(router *gin.Engine, dispatcher *ws.Dispatcher, svc *service.Service, exec TaskExecutor, log *logger.Logger) {
	handlers := NewTaskHandlers(svc, exec, log)
	handlers.registerHTTP(router)
	handlers.registerWS(dispatcher)
}

func (h *TaskHandlers) registerHTTP(router *gin.Engine) {
	api := router.Group("/api/v1")
	api.GET("/tasks", h.httpListTasks)
	api.POST("/tasks", h.httpCreateTask)
	api.GET("/tasks/:id", h.httpGetTask)
	api.PATCH("/tasks/:id", h.httpUpdateTask)
	api.PATCH("/tasks/:id/status", h.httpUpdateTaskStatus)
	api.POST("/tasks/:id/execute", h.httpExecuteTask)
	api.POST("/tasks/:id/stop", h.httpStopTask)
	api.GET("/executions", h.httpListExecutions)
}

func (h *TaskHandlers) registerWS(dispatcher *ws.Dispatcher) {
	dispatcher.RegisterFunc(ws.ActionTaskList, h.wsListTasks)
	dispatcher.RegisterFunc(ws.ActionTaskGet, h.wsGetTask)
	dispatcher.RegisterFunc(ws.ActionExecutionList, h.wsListExecutions)
}

// HTTP handlers

func (h *TaskHandlers) httpListTasks(c *gin.Context) {
	tasks, err := h.service.ListTasks(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, listTasksResponse(tasks))
}

func (h *TaskHandlers) httpCreateTask(c *gin.Context) {
	var body v1.CreateTaskRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task, err := h.service.CreateTask(c.Request.Context(), &body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, task.ToAPI())
}

func (h *TaskHandlers) httpGetTask(c *gin.Context) {
	task, err := h.service.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, task.ToAPI())
}

func (h *TaskHandlers) httpUpdateTask(c *gin.Context) {
	var body v1.UpdateTaskRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task, err := h.service.UpdateTask(c.Request.Context(), c.Param("id"), &body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, task.ToAPI())
}

func (h *TaskHandlers) httpUpdateTaskStatus(c *gin.Context) {
	var body v1.UpdateTaskStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task, err := h.service.UpdateTaskStatus(c.Request.Context(), c.Param("id"), body.Status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, task.ToAPI())
}

func (h *TaskHandlers) httpExecuteTask(c *gin.Context) {
	taskID := c.Param("id")

	var body v1.ExecuteTaskRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if body.Background {
		if err := h.executor.ExecuteTaskBackground(c.Request.Context(), taskID, body.AgentID); err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusAccepted, v1.ExecutionStartedResponse{
			TaskID:  taskID,
			AgentID: body.AgentID,
			Status:  "started",
		})
		return
	}

	result, err := h.executor.ExecuteTask(c.Request.Context(), taskID, body.AgentID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, v1.ExecutionResult{
		TaskID:  taskID,
		AgentID: body.AgentID,
		Status:  result.Status,
		Output:  result.Output,
		Error:   result.Error,
	})
}

func (h *TaskHandlers) httpStopTask(c *gin.Context) {
	taskID := c.Param("id")
	stopped := h.executor.StopTask(c.Request.Context(), taskID)
	c.JSON(http.StatusOK, v1.StopTaskResponse{TaskID: taskID, Stopped: stopped})
}

func (h *TaskHandlers) httpListExecutions(c *gin.Context) {
	c.JSON(http.StatusOK, h.runningTasks())
}

func (h *TaskHandlers) runningTasks() v1.RunningTasksResponse {
	ids := h.executor.RunningTasks()
	sort.Strings(ids)
	return v1.RunningTasksResponse{
		TaskIDs: ids,
		Count:   len(ids),
		Limit:   h.executor.Limit(),
	}
}

func listTasksResponse(tasks []*models.Task) v1.ListTasksResponse {
	apiTasks := make([]v1.Task, 0, len(tasks))
	for _, task := range tasks {
		apiTasks = append(apiTasks, *task.ToAPI())
	}
	return v1.ListTasksResponse{Tasks: apiTasks, Total: len(apiTasks)}
}

// WebSocket handlers

type wsListTasksRequest struct {
	Status string `json:"status,omitempty"`
}

func (h *TaskHandlers) wsListTasks(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	var req wsListTasksRequest
	if err := msg.ParsePayload(&req); err != nil {
		return ws.NewError(msg.ID, msg.Action, ws.ErrorCodeBadRequest, "Invalid payload: "+err.Error(), nil)
	}
	tasks, err := h.service.ListTasks(ctx, req.Status)
	if err != nil {
		return wsServiceError(msg, h.logger, err)
	}
	return ws.NewResponse(msg.ID, msg.Action, listTasksResponse(tasks))
}

func (h *TaskHandlers) wsGetTask(ctx context.Context, msg *ws.Message) (*ws.Message, error) {
	return wsHandleIDRequest(ctx, msg, h.logger, func(ctx context.Context, id string) (any, error) {
		task, err := h.service.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}
		return task.ToAPI(), nil
	})
}

func (h *TaskHandlers) wsListExecutions(_ context.Context, msg *ws.Message) (*ws.Message, error) {
	return ws.NewResponse(msg.ID, msg.Action, h.runningTasks())
}
