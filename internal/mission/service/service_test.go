package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/missionctl/missionctl/internal/common/errors"
	"github.com/missionctl/missionctl/internal/common/logger"
	"github.com/missionctl/missionctl/internal/events"
	"github.com/missionctl/missionctl/internal/events/bus"
	"github.com/missionctl/missionctl/internal/mission/repository"
	v1 "github.com/missionctl/missionctl/pkg/api/v1"
)

func newTestService(t *testing.T) (*Service, repository.Repository, *bus.MemoryEventBus) {
	t.Helper()
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      "error",
		Format:     "console",
		OutputPath: "stdout",
	})
	require.NoError(t, err)

	repo := repository.NewMemoryRepository()
	memBus := bus.NewMemoryEventBus(log)
	return NewService(repo, memBus, log), repo, memBus
}

// collectEvents gathers events for a subject. The memory bus dispatches
// inline, so the slice is current as soon as the triggering call returns.
func collectEvents(t *testing.T, memBus *bus.MemoryEventBus, subject string) *[]*bus.Event {
	t.Helper()
	collected := &[]*bus.Event{}
	_, err := memBus.Subscribe(subject, func(ctx context.Context, e *bus.Event) error {
		*collected = append(*collected, e)
		return nil
	})
	require.NoError(t, err)
	return collected
}

func TestCreateTaskAppliesDefaults(t *testing.T) {
	svc, _, memBus := newTestService(t)
	activityEvents := collectEvents(t, memBus, events.ActivityCreated)

	task, err := svc.CreateTask(context.Background(), &v1.CreateTaskRequest{
		Title:       "Chart the coastline",
		Description: "Fly the survey route and log landmarks",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, v1.TaskStatusTODO, task.Status)
	assert.Equal(t, v1.TaskPriorityMedium, task.Priority)
	assert.Nil(t, task.AssignedAgentID)

	require.Len(t, *activityEvents, 1)
	payload, ok := (*activityEvents)[0].Data.(events.ActivityCreatedData)
	require.True(t, ok)
	activity, ok := payload.Activity.(*v1.Activity)
	require.True(t, ok)
	assert.Equal(t, v1.ActivityTaskUpdated, activity.Type)
	assert.Equal(t, "Task created: 'Chart the coastline'", activity.Message)
	require.NotNil(t, activity.TaskID)
	assert.Equal(t, task.ID, *activity.TaskID)
}

func TestCreateTaskCarriesAssignmentAndMetadata(t *testing.T) {
	svc, _, _ := newTestService(t)

	agentID := "0c7ff6e0-55a4-4f66-9b2e-6ec1e34d53a1"
	task, err := svc.CreateTask(context.Background(), &v1.CreateTaskRequest{
		Title:           "Draft the report",
		Priority:        v1.TaskPriorityHigh,
		AssignedAgentID: &agentID,
		Metadata:        map[string]interface{}{"origin": "mcp"},
	})
	require.NoError(t, err)

	assert.Equal(t, v1.TaskPriorityHigh, task.Priority)
	require.NotNil(t, task.AssignedAgentID)
	assert.Equal(t, agentID, *task.AssignedAgentID)
	assert.Equal(t, "mcp", task.Metadata["origin"])
}

func TestGetTaskNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.GetTask(context.Background(), "8c9a7c93-36a4-4b94-9b2e-000000000000")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListTasksFiltersByStatus(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateTask(ctx, &v1.CreateTaskRequest{Title: "one"})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, &v1.CreateTaskRequest{Title: "two"})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateTaskStatus(ctx, first.ID, v1.TaskStatusDone, nil))

	all, err := svc.ListTasks(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	done, err := svc.ListTasks(ctx, "DONE")
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, first.ID, done[0].ID)

	_, err = svc.ListTasks(ctx, "SHIPPED")
	require.Error(t, err)
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestUpdateTaskPartial(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, &v1.CreateTaskRequest{
		Title:       "Original title",
		Description: "Original description",
	})
	require.NoError(t, err)

	newTitle := "Renamed"
	updated, err := svc.UpdateTask(ctx, task.ID, &v1.UpdateTaskRequest{Title: &newTitle})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "Original description", updated.Description)
	assert.Equal(t, v1.TaskPriorityMedium, updated.Priority)

	_, err = svc.UpdateTask(ctx, "bceac2fe-6a9d-42c4-a0bd-111111111111", &v1.UpdateTaskRequest{Title: &newTitle})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestUpdateTaskStatusKeepsAssignment(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	agentID := "59d5c5ae-15c6-4a3e-8f5a-7a81e37a1c22"
	task, err := svc.CreateTask(ctx, &v1.CreateTaskRequest{
		Title:           "Assigned work",
		AssignedAgentID: &agentID,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateTaskStatus(ctx, task.ID, v1.TaskStatusDone)
	require.NoError(t, err)

	assert.Equal(t, v1.TaskStatusDone, updated.Status)
	require.NotNil(t, updated.AssignedAgentID)
	assert.Equal(t, agentID, *updated.AssignedAgentID)
	assert.NotNil(t, updated.CompletedAt)

	_, err = svc.UpdateTaskStatus(ctx, "00000000-0000-0000-0000-000000000000", v1.TaskStatusDone)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCreateAndUpdateAgent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	agent, err := svc.CreateAgent(ctx, &v1.CreateAgentRequest{
		Name:        "Scout",
		Role:        "researcher",
		Description: "Finds things",
		Specialties: []string{"search", "summaries"},
		Backend:     "scripted",
	})
	require.NoError(t, err)

	assert.Equal(t, v1.AgentStatusIdle, agent.Status)
	assert.Equal(t, "scripted", agent.Backend)
	assert.Equal(t, []string{"search", "summaries"}, agent.Specialties)

	newRole := "analyst"
	updated, err := svc.UpdateAgent(ctx, agent.ID, &v1.UpdateAgentRequest{Role: &newRole})
	require.NoError(t, err)
	assert.Equal(t, "analyst", updated.Role)
	assert.Equal(t, "Scout", updated.Name)

	_, err = svc.GetAgent(ctx, "11111111-2222-3333-4444-555555555555")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListActivities(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateTask(ctx, &v1.CreateTaskRequest{Title: "first"})
	require.NoError(t, err)
	_, err = svc.CreateTask(ctx, &v1.CreateTaskRequest{Title: "second"})
	require.NoError(t, err)

	all, err := svc.ListActivities(ctx, 0, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Task created: 'second'", all[0].Message)

	limited, err := svc.ListActivities(ctx, 1, "")
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	scoped, err := svc.ListActivities(ctx, 0, first.ID)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "Task created: 'first'", scoped[0].Message)

	_, err = svc.ListActivities(ctx, -1, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestCreateDocumentPublishesEvent(t *testing.T) {
	svc, _, memBus := newTestService(t)
	documentEvents := collectEvents(t, memBus, events.DocumentCreated)
	ctx := context.Background()

	taskID := "e3b1c64a-9d27-4c21-8a47-3e4dbb8f2c11"
	doc, err := svc.CreateDocument(ctx, &v1.CreateDocumentRequest{
		Title:   "Field notes",
		Content: "Observations from the survey",
		TaskID:  &taskID,
		Tags:    []string{"notes"},
	})
	require.NoError(t, err)

	assert.Equal(t, v1.DocumentTypeNote, doc.Type)

	require.Len(t, *documentEvents, 1)
	payload, ok := (*documentEvents)[0].Data.(events.DocumentCreatedData)
	require.True(t, ok)
	assert.Equal(t, doc.ID, payload.DocumentID)
	assert.Equal(t, taskID, payload.TaskID)
	assert.Equal(t, "Field notes", payload.Title)
}

func TestListDocumentsScopedToTask(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	taskID := "b6b1f3e8-8a3f-4f0a-93d4-60a1f2d9c4aa"
	_, err := svc.CreateDocument(ctx, &v1.CreateDocumentRequest{
		Title: "Scoped", Content: "x", TaskID: &taskID,
	})
	require.NoError(t, err)
	_, err = svc.CreateDocument(ctx, &v1.CreateDocumentRequest{
		Title: "Unscoped", Content: "y",
	})
	require.NoError(t, err)

	all, err := svc.ListDocuments(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := svc.ListDocuments(ctx, taskID)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "Scoped", scoped[0].Title)

	fetched, err := svc.GetDocument(ctx, scoped[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Scoped", fetched.Title)

	_, err = svc.GetDocument(ctx, "ffffffff-ffff-ffff-ffff-ffffffffffff")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
