package v1

import "time"

// ActivityType categorizes entries in the activity feed
type ActivityType string

const (
	ActivityTaskUpdated     ActivityType = "TASK_UPDATED"
	ActivityTaskCompleted   ActivityType = "TASK_COMPLETED"
	ActivityDocumentCreated ActivityType = "DOCUMENT_CREATED"
)

// Activity represents one append-only entry in the activity feed
type Activity struct {
	ID        string       `json:"id"`
	Type      ActivityType `json:"type"`
	Message   string       `json:"message"`
	AgentID   *string      `json:"agent_id,omitempty"`
	TaskID    *string      `json:"task_id,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// ListActivitiesResponse wraps an activity feed page
type ListActivitiesResponse struct {
	Activities []Activity `json:"activities"`
	Total      int        `json:"total"`
}
