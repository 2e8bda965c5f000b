package v1

import "time"

// AgentStatus represents whether an agent is available for work
type AgentStatus string

const (
	AgentStatusIdle   AgentStatus = "IDLE"
	AgentStatusActive AgentStatus = "ACTIVE"
)

// Agent represents an AI agent that can execute tasks
type Agent struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Role          string      `json:"role"`
	Description   string      `json:"description,omitempty"`
	Specialties   []string    `json:"specialties,omitempty"`
	Backend       string      `json:"backend"`
	Status        AgentStatus `json:"status"`
	CurrentTaskID *string     `json:"current_task_id,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// CreateAgentRequest for registering a new agent
type CreateAgentRequest struct {
	Name        string   `json:"name" binding:"required,max=200"`
	Role        string   `json:"role" binding:"required,max=200"`
	Description string   `json:"description,omitempty"`
	Specialties []string `json:"specialties,omitempty"`
	Backend     string   `json:"backend,omitempty"`
}

// UpdateAgentRequest for updating an existing agent
type UpdateAgentRequest struct {
	Name        *string  `json:"name,omitempty" binding:"omitempty,max=200"`
	Role        *string  `json:"role,omitempty" binding:"omitempty,max=200"`
	Description *string  `json:"description,omitempty"`
	Specialties []string `json:"specialties,omitempty"`
	Backend     *string  `json:"backend,omitempty"`
}

// ListAgentsResponse wraps an agent collection
type ListAgentsResponse struct {
	Agents []Agent `json:"agents"`
	Total  int     `json:"total"`
}
