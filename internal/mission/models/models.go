// Package models defines the mission domain entities persisted by the stores.
package models

import (
	"time"

	"github.com/google/uuid"

	v1 "github.com/missionctl/missionctl/pkg/api/v1"
)

// Task represents a task in the database
type Task struct {
	ID              string                 `json:"id"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	Status          v1.TaskStatus          `json:"status"`
	Priority        v1.TaskPriority        `json:"priority"`
	AssignedAgentID *string                `json:"assigned_agent_id,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
	StartedAt       *time.Time             `json:"started_at,omitempty"`
	CompletedAt     *time.Time             `json:"completed_at,omitempty"`
}

// NewTask creates a task with defaults applied
func NewTask(title, description string, priority v1.TaskPriority) *Task {
	if priority == "" {
		priority = v1.TaskPriorityMedium
	}
	now := time.Now().UTC()
	return &Task{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		Status:      v1.TaskStatusTODO,
		Priority:    priority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// ToAPI converts internal Task to API type
func (t *Task) ToAPI() *v1.Task {
	return &v1.Task{
		ID:              t.ID,
		Title:           t.Title,
		Description:     t.Description,
		Status:          t.Status,
		Priority:        t.Priority,
		AssignedAgentID: t.AssignedAgentID,
		Metadata:        t.Metadata,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		StartedAt:       t.StartedAt,
		CompletedAt:     t.CompletedAt,
	}
}

// Agent represents an AI agent in the database
type Agent struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Role          string         `json:"role"`
	Description   string         `json:"description,omitempty"`
	Specialties   []string       `json:"specialties,omitempty"`
	Backend       string         `json:"backend"`
	Status        v1.AgentStatus `json:"status"`
	CurrentTaskID *string        `json:"current_task_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// NewAgent creates an agent with defaults applied
func NewAgent(name, role string) *Agent {
	now := time.Now().UTC()
	return &Agent{
		ID:        uuid.New().String(),
		Name:      name,
		Role:      role,
		Status:    v1.AgentStatusIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ToAPI converts internal Agent to API type
func (a *Agent) ToAPI() *v1.Agent {
	return &v1.Agent{
		ID:            a.ID,
		Name:          a.Name,
		Role:          a.Role,
		Description:   a.Description,
		Specialties:   a.Specialties,
		Backend:       a.Backend,
		Status:        a.Status,
		CurrentTaskID: a.CurrentTaskID,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// ListActivitiesOptions narrows the activity feed query.
// A zero Limit returns the full feed; a non-empty TaskID restricts
// the feed to entries linked to that task.
type ListActivitiesOptions struct {
	Limit  int
	TaskID string
}

// Activity represents an append-only activity feed entry
type Activity struct {
	ID        string          `json:"id"`
	Type      v1.ActivityType `json:"type"`
	Message   string          `json:"message"`
	AgentID   *string         `json:"agent_id,omitempty"`
	TaskID    *string         `json:"task_id,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewActivity creates an activity entry stamped with the current time
func NewActivity(activityType v1.ActivityType, message string, agentID, taskID *string) *Activity {
	return &Activity{
		ID:        uuid.New().String(),
		Type:      activityType,
		Message:   message,
		AgentID:   agentID,
		TaskID:    taskID,
		CreatedAt: time.Now().UTC(),
	}
}

// ToAPI converts internal Activity to API type
func (a *Activity) ToAPI() *v1.Activity {
	return &v1.Activity{
		ID:        a.ID,
		Type:      a.Type,
		Message:   a.Message,
		AgentID:   a.AgentID,
		TaskID:    a.TaskID,
		CreatedAt: a.CreatedAt,
	}
}

// Document represents a stored document, such as a task deliverable
type Document struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Content       string          `json:"content"`
	Type          v1.DocumentType `json:"type"`
	AuthorAgentID *string         `json:"author_agent_id,omitempty"`
	TaskID        *string         `json:"task_id,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// NewDocument creates a document with defaults applied
func NewDocument(title, content string, docType v1.DocumentType) *Document {
	if docType == "" {
		docType = v1.DocumentTypeNote
	}
	now := time.Now().UTC()
	return &Document{
		ID:        uuid.New().String(),
		Title:     title,
		Content:   content,
		Type:      docType,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ToAPI converts internal Document to API type
func (d *Document) ToAPI() *v1.Document {
	return &v1.Document{
		ID:            d.ID,
		Title:         d.Title,
		Content:       d.Content,
		Type:          d.Type,
		AuthorAgentID: d.AuthorAgentID,
		TaskID:        d.TaskID,
		Tags:          d.Tags,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}
