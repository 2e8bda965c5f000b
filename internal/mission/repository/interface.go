package repository

import (
	"context"

	"github.com/missionctl/missionctl/internal/mission/models"
	v1 "github.com/missionctl/missionctl/pkg/api/v1"
)

// Repository defines the interface for mission storage operations
type Repository interface {
	// Task operations
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, id string) error
	ListTasks(ctx context.Context) ([]*models.Task, error)
	ListTasksByStatus(ctx context.Context, status v1.TaskStatus) ([]*models.Task, error)
	UpdateTaskStatus(ctx context.Context, id string, status v1.TaskStatus, agentID *string) error

	// Agent operations
	CreateAgent(ctx context.Context, agent *models.Agent) error
	GetAgent(ctx context.Context, id string) (*models.Agent, error)
	GetAgentByName(ctx context.Context, name string) (*models.Agent, error)
	UpdateAgent(ctx context.Context, agent *models.Agent) error
	DeleteAgent(ctx context.Context, id string) error
	ListAgents(ctx context.Context) ([]*models.Agent, error)
	SetAgentStatus(ctx context.Context, id string, status v1.AgentStatus, currentTaskID *string) error

	// Activity operations
	CreateActivity(ctx context.Context, activity *models.Activity) error
	ListActivities(ctx context.Context, opts models.ListActivitiesOptions) ([]*models.Activity, error)

	// Document operations
	CreateDocument(ctx context.Context, document *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	UpdateDocument(ctx context.Context, document *models.Document) error
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context) ([]*models.Document, error)
	ListDocumentsByTask(ctx context.Context, taskID string) ([]*models.Document, error)

	// Close closes the repository (for database connections)
	Close() error
}
