// Package events defines the subjects and payloads used on the missionctl event bus.
package events

import "time"

// Event types for task execution
const (
	TaskStarted   = "mission.task.started"
	TaskOutput    = "mission.task.output" // Base subject for streamed output chunks
	TaskCompleted = "mission.task.completed"
)

// Event types for activities
const (
	ActivityCreated = "mission.activity.created"
)

// Event types for documents
const (
	DocumentCreated = "mission.document.created"
)

// BuildTaskOutputSubject creates a task output subject for a specific task
func BuildTaskOutputSubject(taskID string) string {
	return TaskOutput + "." + taskID
}

// BuildTaskOutputWildcardSubject creates a wildcard subscription for all task output events
func BuildTaskOutputWildcardSubject() string {
	return TaskOutput + ".*"
}

// TaskStartedData is the payload published on TaskStarted.
type TaskStartedData struct {
	TaskID    string    `json:"task_id"`
	AgentID   string    `json:"agent_id"`
	AgentName string    `json:"agent_name"`
	TaskTitle string    `json:"task_title"`
	Timestamp time.Time `json:"timestamp"`
}

// TaskOutputData is the payload published per streamed chunk on TaskOutput.
// OutputType is one of message, tool_use, tool_result.
type TaskOutputData struct {
	TaskID     string    `json:"task_id"`
	Content    string    `json:"content"`
	OutputType string    `json:"output_type"`
	Timestamp  time.Time `json:"timestamp"`
}

// TaskCompletedData is the payload published once per execution on TaskCompleted.
// Status is one of completed, error, stopped. Error is nil unless Status is error.
type TaskCompletedData struct {
	TaskID    string    `json:"task_id"`
	AgentID   string    `json:"agent_id"`
	Status    string    `json:"status"`
	Error     *string   `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// ActivityCreatedData is the payload published on ActivityCreated.
// Activity carries the full activity record that was persisted.
type ActivityCreatedData struct {
	Activity interface{} `json:"activity"`
}

// DocumentCreatedData is the payload published on DocumentCreated.
type DocumentCreatedData struct {
	DocumentID string    `json:"document_id"`
	TaskID     string    `json:"task_id,omitempty"`
	AgentID    string    `json:"agent_id,omitempty"`
	Title      string    `json:"title"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
}
