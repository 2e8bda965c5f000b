package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/missionctl/missionctl/internal/mission/models"
	v1 "github.com/missionctl/missionctl/pkg/api/v1"
)

// MemoryRepository provides in-memory mission storage operations
type MemoryRepository struct {
	tasks      map[string]*models.Task
	agents     map[string]*models.Agent
	activities map[string]*models.Activity
	documents  map[string]*models.Document
	mu         sync.RWMutex
}

// Ensure MemoryRepository implements Repository interface
var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates a new in-memory mission repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tasks:      make(map[string]*models.Task),
		agents:     make(map[string]*models.Agent),
		activities: make(map[string]*models.Activity),
		documents:  make(map[string]*models.Document),
	}
}

// Close is a no-op for in-memory repository
func (r *MemoryRepository) Close() error {
	return nil
}

// Task operations

// CreateTask creates a new task
func (r *MemoryRepository) CreateTask(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	r.tasks[task.ID] = task
	return nil
}

// GetTask retrieves a task by ID
func (r *MemoryRepository) GetTask(ctx context.Context, id string) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task not found: %s", id)
	}
	return task, nil
}

// UpdateTask updates an existing task
func (r *MemoryRepository) UpdateTask(ctx context.Context, task *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[task.ID]; !ok {
		return fmt.Errorf("task not found: %s", task.ID)
	}
	task.UpdatedAt = time.Now().UTC()
	r.tasks[task.ID] = task
	return nil
}

// DeleteTask deletes a task by ID
func (r *MemoryRepository) DeleteTask(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return fmt.Errorf("task not found: %s", id)
	}
	delete(r.tasks, id)
	return nil
}

// ListTasks returns all tasks, newest first
func (r *MemoryRepository) ListTasks(ctx context.Context) ([]*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		result = append(result, task)
	}
	sortTasksNewestFirst(result)
	return result, nil
}

// ListTasksByStatus returns all tasks with the given status, newest first
func (r *MemoryRepository) ListTasksByStatus(ctx context.Context, status v1.TaskStatus) ([]*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Task
	for _, task := range r.tasks {
		if task.Status == status {
			result = append(result, task)
		}
	}
	sortTasksNewestFirst(result)
	return result, nil
}

// UpdateTaskStatus updates the status of a task. A non-nil agentID also
// updates the task's agent assignment; nil leaves the assignment untouched.
func (r *MemoryRepository) UpdateTaskStatus(ctx context.Context, id string, status v1.TaskStatus, agentID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return fmt.Errorf("task not found: %s", id)
	}

	now := time.Now().UTC()
	task.Status = status
	if agentID != nil {
		task.AssignedAgentID = agentID
	}
	switch status {
	case v1.TaskStatusInProgress:
		task.StartedAt = &now
	case v1.TaskStatusDone:
		task.CompletedAt = &now
	}
	task.UpdatedAt = now
	return nil
}

// Agent operations

// CreateAgent creates a new agent
func (r *MemoryRepository) CreateAgent(ctx context.Context, agent *models.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if agent.ID == "" {
		agent.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	agent.CreatedAt = now
	agent.UpdatedAt = now

	r.agents[agent.ID] = agent
	return nil
}

// GetAgent retrieves an agent by ID
func (r *MemoryRepository) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	agent, ok := r.agents[id]
	if !ok {
		return nil, fmt.Errorf("agent not found: %s", id)
	}
	return agent, nil
}

// GetAgentByName retrieves an agent by its unique name
func (r *MemoryRepository) GetAgentByName(ctx context.Context, name string) (*models.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, agent := range r.agents {
		if agent.Name == name {
			return agent, nil
		}
	}
	return nil, fmt.Errorf("agent not found: %s", name)
}

// UpdateAgent updates an existing agent
func (r *MemoryRepository) UpdateAgent(ctx context.Context, agent *models.Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.agents[agent.ID]; !ok {
		return fmt.Errorf("agent not found: %s", agent.ID)
	}
	agent.UpdatedAt = time.Now().UTC()
	r.agents[agent.ID] = agent
	return nil
}

// DeleteAgent deletes an agent by ID
func (r *MemoryRepository) DeleteAgent(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.agents[id]; !ok {
		return fmt.Errorf("agent not found: %s", id)
	}
	delete(r.agents, id)
	return nil
}

// ListAgents returns all agents in creation order
func (r *MemoryRepository) ListAgents(ctx context.Context) ([]*models.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Agent, 0, len(r.agents))
	for _, agent := range r.agents {
		result = append(result, agent)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// SetAgentStatus updates an agent's status and current task reference.
// A nil currentTaskID clears the reference.
func (r *MemoryRepository) SetAgentStatus(ctx context.Context, id string, status v1.AgentStatus, currentTaskID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	agent, ok := r.agents[id]
	if !ok {
		return fmt.Errorf("agent not found: %s", id)
	}
	agent.Status = status
	agent.CurrentTaskID = currentTaskID
	agent.UpdatedAt = time.Now().UTC()
	return nil
}

// Activity operations

// CreateActivity appends an activity feed entry
func (r *MemoryRepository) CreateActivity(ctx context.Context, activity *models.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}

	r.activities[activity.ID] = activity
	return nil
}

// ListActivities returns activity feed entries, newest first
func (r *MemoryRepository) ListActivities(ctx context.Context, opts models.ListActivitiesOptions) ([]*models.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Activity
	for _, activity := range r.activities {
		if opts.TaskID != "" && (activity.TaskID == nil || *activity.TaskID != opts.TaskID) {
			continue
		}
		result = append(result, activity)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if opts.Limit > 0 && len(result) > opts.Limit {
		result = result[:opts.Limit]
	}
	return result, nil
}

// Document operations

// CreateDocument creates a new document
func (r *MemoryRepository) CreateDocument(ctx context.Context, document *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if document.ID == "" {
		document.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	document.CreatedAt = now
	document.UpdatedAt = now

	r.documents[document.ID] = document
	return nil
}

// GetDocument retrieves a document by ID
func (r *MemoryRepository) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	document, ok := r.documents[id]
	if !ok {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	return document, nil
}

// UpdateDocument updates an existing document
func (r *MemoryRepository) UpdateDocument(ctx context.Context, document *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.documents[document.ID]; !ok {
		return fmt.Errorf("document not found: %s", document.ID)
	}
	document.UpdatedAt = time.Now().UTC()
	r.documents[document.ID] = document
	return nil
}

// DeleteDocument deletes a document by ID
func (r *MemoryRepository) DeleteDocument(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.documents[id]; !ok {
		return fmt.Errorf("document not found: %s", id)
	}
	delete(r.documents, id)
	return nil
}

// ListDocuments returns all documents, newest first
func (r *MemoryRepository) ListDocuments(ctx context.Context) ([]*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.Document, 0, len(r.documents))
	for _, document := range r.documents {
		result = append(result, document)
	}
	sortDocumentsNewestFirst(result)
	return result, nil
}

// ListDocumentsByTask returns all documents linked to a task, newest first
func (r *MemoryRepository) ListDocumentsByTask(ctx context.Context, taskID string) ([]*models.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Document
	for _, document := range r.documents {
		if document.TaskID != nil && *document.TaskID == taskID {
			result = append(result, document)
		}
	}
	sortDocumentsNewestFirst(result)
	return result, nil
}

func sortTasksNewestFirst(tasks []*models.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID > tasks[j].ID
		}
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}

func sortDocumentsNewestFirst(documents []*models.Document) {
	sort.Slice(documents, func(i, j int) bool {
		if documents[i].CreatedAt.Equal(documents[j].CreatedAt) {
			return documents[i].ID > documents[j].ID
		}
		return documents[i].CreatedAt.After(documents[j].CreatedAt)
	})
}
