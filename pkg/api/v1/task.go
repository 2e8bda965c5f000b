package v1

import "time"

// TaskStatus represents the lifecycle status of a task
type TaskStatus string

const (
	TaskStatusTODO       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
	TaskStatusBlocked    TaskStatus = "BLOCKED"
)

// TaskPriority represents how urgent a task is
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Task represents a mission task
type Task struct {
	ID              string                 `json:"id"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	Status          TaskStatus             `json:"status"`
	Priority        TaskPriority           `json:"priority"`
	AssignedAgentID *string                `json:"assigned_agent_id,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
	StartedAt       *time.Time             `json:"started_at,omitempty"`
	CompletedAt     *time.Time             `json:"completed_at,omitempty"`
}

// CreateTaskRequest for creating a new task
type CreateTaskRequest struct {
	Title           string                 `json:"title" binding:"required,max=500"`
	Description     string                 `json:"description"`
	Priority        TaskPriority           `json:"priority,omitempty" binding:"omitempty,oneof=low medium high"`
	AssignedAgentID *string                `json:"assigned_agent_id,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// UpdateTaskRequest for updating an existing task
type UpdateTaskRequest struct {
	Title           *string                `json:"title,omitempty" binding:"omitempty,max=500"`
	Description     *string                `json:"description,omitempty"`
	Priority        *TaskPriority          `json:"priority,omitempty" binding:"omitempty,oneof=low medium high"`
	AssignedAgentID *string                `json:"assigned_agent_id,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
}

// UpdateTaskStatusRequest for changing task status
type UpdateTaskStatusRequest struct {
	Status TaskStatus `json:"status" binding:"required,oneof=TODO IN_PROGRESS DONE BLOCKED"`
}

// ExecuteTaskRequest for starting task execution with an agent
type ExecuteTaskRequest struct {
	AgentID string `json:"agent_id" binding:"required"`
	// Background schedules execution and returns immediately; progress
	// arrives over the event stream instead of the response body.
	Background bool `json:"background,omitempty"`
}

// ExecutionResult is the outcome of a completed (foreground) execution
type ExecutionResult struct {
	TaskID  string  `json:"task_id"`
	AgentID string  `json:"agent_id"`
	Status  string  `json:"status"` // completed | error | stopped
	Output  string  `json:"output"`
	Error   *string `json:"error"`
}

// ExecutionStartedResponse acknowledges a background execution
type ExecutionStartedResponse struct {
	TaskID  string `json:"task_id"`
	AgentID string `json:"agent_id"`
	Status  string `json:"status"` // always "started"
}

// StopTaskRequest for stopping a running execution
type StopTaskRequest struct {
	// Reserved for future options; stop always waits for finalization.
}

// StopTaskResponse reports whether a running execution was stopped
type StopTaskResponse struct {
	TaskID  string `json:"task_id"`
	Stopped bool   `json:"stopped"`
}

// RunningTasksResponse lists task IDs with active execution sessions
type RunningTasksResponse struct {
	TaskIDs []string `json:"task_ids"`
	Count   int      `json:"count"`
	Limit   int      `json:"limit"`
}

// ListTasksResponse wraps a task collection
type ListTasksResponse struct {
	Tasks []Task `json:"tasks"`
	Total int    `json:"total"`
}
