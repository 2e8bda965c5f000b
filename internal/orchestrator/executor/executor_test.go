package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/missionctl/missionctl/internal/agent/runtime"
	apperrors "github.com/missionctl/missionctl/internal/common/errors"
	"github.com/missionctl/missionctl/internal/common/logger"
	"github.com/missionctl/missionctl/internal/events"
	"github.com/missionctl/missionctl/internal/events/bus"
	"github.com/missionctl/missionctl/internal/mission/models"
	"github.com/missionctl/missionctl/internal/mission/repository"
	v1 "github.com/missionctl/missionctl/pkg/api/v1"
)

// captureBus records every published event for assertions.
type captureBus struct {
	mu     sync.Mutex
	events []capturedEvent
}

type capturedEvent struct {
	subject string
	event   *bus.Event
}

func (b *captureBus) Publish(ctx context.Context, subject string, event *bus.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, capturedEvent{subject: subject, event: event})
	return nil
}

func (b *captureBus) ofType(eventType string) []*bus.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var matched []*bus.Event
	for _, c := range b.events {
		if c.event.Type == eventType {
			matched = append(matched, c.event)
		}
	}
	return matched
}

func (b *captureBus) outputEvents(taskID string) []events.TaskOutputData {
	b.mu.Lock()
	defer b.mu.Unlock()
	subject := events.BuildTaskOutputSubject(taskID)
	var payloads []events.TaskOutputData
	for _, c := range b.events {
		if c.subject != subject {
			continue
		}
		if data, ok := c.event.Data.(events.TaskOutputData); ok {
			payloads = append(payloads, data)
		}
	}
	return payloads
}

func (b *captureBus) size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// stubRunnerProvider hands out scripted runners, or a fixed runner or
// construction error when set.
type stubRunnerProvider struct {
	script []runtime.Chunk
	delay  time.Duration
	runner runtime.Runner
	err    error
}

func (p *stubRunnerProvider) RunnerFor(backend string) (runtime.Runner, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.runner != nil {
		return p.runner, nil
	}
	return runtime.NewScriptedRunner(p.script, p.delay), nil
}

// faultRunner yields a single pull fault and closes the stream.
type faultRunner struct {
	err error
}

func (r *faultRunner) Run(ctx context.Context, prompt string) (<-chan runtime.StreamItem, error) {
	out := make(chan runtime.StreamItem, 1)
	out <- runtime.StreamItem{Err: r.err}
	close(out)
	return out, nil
}

func (r *faultRunner) Stop(ctx context.Context) error { return nil }

// startFailRunner fails when the stream is started.
type startFailRunner struct {
	err error
}

func (r *startFailRunner) Run(ctx context.Context, prompt string) (<-chan runtime.StreamItem, error) {
	return nil, r.err
}

func (r *startFailRunner) Stop(ctx context.Context) error { return nil }

func newTestExecutor(t *testing.T, provider RunnerProvider, cfg Config) (*Executor, repository.Repository, *captureBus) {
	t.Helper()
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      "error",
		Format:     "console",
		OutputPath: "stdout",
	})
	require.NoError(t, err)
	repo := repository.NewMemoryRepository()
	eventBus := &captureBus{}
	return New(repo, provider, eventBus, log, cfg), repo, eventBus
}

func seedTaskAndAgent(t *testing.T, repo repository.Repository) (*models.Task, *models.Agent) {
	t.Helper()
	ctx := context.Background()

	agent := models.NewAgent("Scout", "researcher")
	agent.Backend = "scripted"
	require.NoError(t, repo.CreateAgent(ctx, agent))

	task := models.NewTask("Summarize findings", "Collect and condense the notes", v1.TaskPriorityMedium)
	require.NoError(t, repo.CreateTask(ctx, task))
	return task, agent
}

func TestExecuteTaskCompletes(t *testing.T) {
	provider := &stubRunnerProvider{script: []runtime.Chunk{
		{Type: runtime.ChunkTypeMessage, Content: "a"},
		{Type: runtime.ChunkTypeMessage, Content: "b"},
		{Type: runtime.ChunkTypeDone},
	}}
	exec, repo, eventBus := newTestExecutor(t, provider, Config{})
	task, agent := seedTaskAndAgent(t, repo)
	ctx := context.Background()

	result, err := exec.ExecuteTask(ctx, task.ID, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, "ab", result.Output)
	assert.Nil(t, result.Error)

	stored, err := repo.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, v1.TaskStatusDone, stored.Status)
	require.NotNil(t, stored.AssignedAgentID)
	assert.Equal(t, agent.ID, *stored.AssignedAgentID)
	assert.NotNil(t, stored.StartedAt)
	assert.NotNil(t, stored.CompletedAt)

	storedAgent, err := repo.GetAgent(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, v1.AgentStatusIdle, storedAgent.Status)
	assert.Nil(t, storedAgent.CurrentTaskID)

	started := eventBus.ofType(events.TaskStarted)
	require.Len(t, started, 1)
	startData, ok := started[0].Data.(events.TaskStartedData)
	require.True(t, ok)
	assert.Equal(t, task.ID, startData.TaskID)
	assert.Equal(t, "Scout", startData.AgentName)
	assert.Equal(t, task.Title, startData.TaskTitle)

	outputs := eventBus.outputEvents(task.ID)
	require.Len(t, outputs, 2)
	assert.Equal(t, "a", outputs[0].Content)
	assert.Equal(t, "message", outputs[0].OutputType)
	assert.Equal(t, "b", outputs[1].Content)

	completed := eventBus.ofType(events.TaskCompleted)
	require.Len(t, completed, 1)
	doneData, ok := completed[0].Data.(events.TaskCompletedData)
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, doneData.Status)
	assert.Nil(t, doneData.Error)

	docs, err := repo.ListDocumentsByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Deliverable: Summarize findings", docs[0].Title)
	assert.Equal(t, "ab", docs[0].Content)
	assert.Equal(t, v1.DocumentTypeDeliverable, docs[0].Type)
	require.NotNil(t, docs[0].AuthorAgentID)
	assert.Equal(t, agent.ID, *docs[0].AuthorAgentID)
	assert.Equal(t, []string{"auto-generated", "task-output"}, docs[0].Tags)

	activities, err := repo.ListActivities(ctx, models.ListActivitiesOptions{TaskID: task.ID})
	require.NoError(t, err)
	require.Len(t, activities, 3)
	messages := make([]string, 0, len(activities))
	for _, a := range activities {
		messages = append(messages, a.Message)
	}
	assert.Contains(t, messages, "Scout started working on 'Summarize findings'")
	assert.Contains(t, messages, "Scout completed 'Summarize findings'")
	assert.Contains(t, messages, "Deliverable saved for 'Summarize findings'")
}

func TestExecuteTaskErrorChunk(t *testing.T) {
	provider := &stubRunnerProvider{script: []runtime.Chunk{
		{Type: runtime.ChunkTypeMessage, Content: "x"},
		{Type: runtime.ChunkTypeError, Content: "boom at /home/user/secret key=sk-123"},
	}}
	exec, repo, eventBus := newTestExecutor(t, provider, Config{})
	task, agent := seedTaskAndAgent(t, repo)
	ctx := context.Background()

	result, err := exec.ExecuteTask(ctx, task.ID, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusError, result.Status)
	assert.Equal(t, "x", result.Output)
	require.NotNil(t, result.Error)
	assert.Contains(t, *result.Error, "[path]")
	assert.Contains(t, *result.Error, "key=[redacted]")
	assert.NotContains(t, *result.Error, "sk-123")
	assert.NotContains(t, *result.Error, "/home/user")

	stored, err := repo.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, v1.TaskStatusBlocked, stored.Status)

	docs, err := repo.ListDocumentsByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)

	completed := eventBus.ofType(events.TaskCompleted)
	require.Len(t, completed, 1)
	doneData, ok := completed[0].Data.(events.TaskCompletedData)
	require.True(t, ok)
	assert.Equal(t, StatusError, doneData.Status)
	require.NotNil(t, doneData.Error)
	assert.NotContains(t, *doneData.Error, "sk-123")

	activities, err := repo.ListActivities(ctx, models.ListActivitiesOptions{TaskID: task.ID})
	require.NoError(t, err)
	var sawErrorActivity bool
	for _, a := range activities {
		if strings.Contains(a.Message, "encountered an error on 'Summarize findings'") {
			sawErrorActivity = true
		}
	}
	assert.True(t, sawErrorActivity)
}

func TestExecuteTaskWhitespaceOutputSkipsDeliverable(t *testing.T) {
	provider := &stubRunnerProvider{script: []runtime.Chunk{
		{Type: runtime.ChunkTypeMessage, Content: "   \n  "},
		{Type: runtime.ChunkTypeDone},
	}}
	exec, repo, _ := newTestExecutor(t, provider, Config{})
	task, agent := seedTaskAndAgent(t, repo)
	ctx := context.Background()

	result, err := exec.ExecuteTask(ctx, task.ID, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)

	docs, err := repo.ListDocumentsByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestExecuteTaskStreamExhaustionCompletes(t *testing.T) {
	provider := &stubRunnerProvider{script: []runtime.Chunk{
		{Type: runtime.ChunkTypeMessage, Content: "partial work"},
	}}
	exec, repo, _ := newTestExecutor(t, provider, Config{})
	task, agent := seedTaskAndAgent(t, repo)

	result, err := exec.ExecuteTask(context.Background(), task.ID, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)
	assert.Equal(t, "partial work", result.Output)

	stored, err := repo.GetTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Equal(t, v1.TaskStatusDone, stored.Status)
}

func TestExecuteTaskToolChunks(t *testing.T) {
	longResult := strings.Repeat("r", 300)
	provider := &stubRunnerProvider{script: []runtime.Chunk{
		{Type: runtime.ChunkTypeToolUse, Metadata: map[string]string{"name": "search"}},
		{Type: runtime.ChunkTypeToolUse},
		{Type: runtime.ChunkTypeToolResult, Content: longResult},
		{Type: runtime.ChunkTypeDone},
	}}
	exec, repo, eventBus := newTestExecutor(t, provider, Config{})
	task, agent := seedTaskAndAgent(t, repo)

	result, err := exec.ExecuteTask(context.Background(), task.ID, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)
	// Tool chunks never reach the accumulated output.
	assert.Equal(t, "", result.Output)

	outputs := eventBus.outputEvents(task.ID)
	require.Len(t, outputs, 3)
	assert.Equal(t, "Using tool: search", outputs[0].Content)
	assert.Equal(t, "tool_use", outputs[0].OutputType)
	assert.Equal(t, "Using tool: unknown", outputs[1].Content)
	assert.Equal(t, "Tool result: "+strings.Repeat("r", 200), outputs[2].Content)
	assert.Equal(t, "tool_result", outputs[2].OutputType)

	docs, err := repo.ListDocumentsByTask(context.Background(), task.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestExecuteTaskNotFound(t *testing.T) {
	provider := &stubRunnerProvider{script: []runtime.Chunk{{Type: runtime.ChunkTypeDone}}}
	exec, repo, eventBus := newTestExecutor(t, provider, Config{})
	_, agent := seedTaskAndAgent(t, repo)
	ctx := context.Background()

	_, err := exec.ExecuteTask(ctx, "11111111-1111-1111-1111-111111111111", agent.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))

	task := models.NewTask("Orphan", "", v1.TaskPriorityLow)
	require.NoError(t, repo.CreateTask(ctx, task))
	_, err = exec.ExecuteTask(ctx, task.ID, "22222222-2222-2222-2222-222222222222")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))

	// Admission failures touch nothing.
	stored, err := repo.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, v1.TaskStatusTODO, stored.Status)
	assert.Zero(t, eventBus.size())
}

func TestDuplicateExecutionRejected(t *testing.T) {
	provider := &stubRunnerProvider{
		script: []runtime.Chunk{{Type: runtime.ChunkTypeMessage, Content: "slow"}},
		delay:  time.Hour,
	}
	exec, repo, eventBus := newTestExecutor(t, provider, Config{})
	task, agent := seedTaskAndAgent(t, repo)
	ctx := context.Background()

	require.NoError(t, exec.ExecuteTaskBackground(ctx, task.ID, agent.ID))
	assert.True(t, exec.IsTaskRunning(task.ID))

	_, err := exec.ExecuteTask(ctx, task.ID, agent.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	assert.Equal(t, 1, exec.ActiveCount())

	require.True(t, exec.StopTask(ctx, task.ID))
	assert.False(t, exec.IsTaskRunning(task.ID))

	completed := eventBus.ofType(events.TaskCompleted)
	require.Len(t, completed, 1)
	doneData, ok := completed[0].Data.(events.TaskCompletedData)
	require.True(t, ok)
	assert.Equal(t, StatusStopped, doneData.Status)
	assert.Nil(t, doneData.Error)
}

func TestCapacityLimitRejectsSixthTask(t *testing.T) {
	provider := &stubRunnerProvider{
		script: []runtime.Chunk{{Type: runtime.ChunkTypeMessage, Content: "slow"}},
		delay:  time.Hour,
	}
	exec, repo, _ := newTestExecutor(t, provider, Config{})
	_, agent := seedTaskAndAgent(t, repo)
	ctx := context.Background()

	var taskIDs []string
	for i := 0; i < DefaultMaxConcurrentTasks; i++ {
		task := models.NewTask(fmt.Sprintf("Task %d", i), "", v1.TaskPriorityMedium)
		require.NoError(t, repo.CreateTask(ctx, task))
		require.NoError(t, exec.ExecuteTaskBackground(ctx, task.ID, agent.ID))
		taskIDs = append(taskIDs, task.ID)
	}
	assert.Equal(t, DefaultMaxConcurrentTasks, exec.ActiveCount())
	assert.False(t, exec.CanExecute())

	extra := models.NewTask("One too many", "", v1.TaskPriorityMedium)
	require.NoError(t, repo.CreateTask(ctx, extra))
	_, err := exec.ExecuteTask(ctx, extra.ID, agent.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCapacityExceeded(err))

	// The rejected task never left TODO.
	stored, err := repo.GetTask(ctx, extra.ID)
	require.NoError(t, err)
	assert.Equal(t, v1.TaskStatusTODO, stored.Status)

	for _, id := range taskIDs {
		require.True(t, exec.StopTask(ctx, id))
	}
	assert.Equal(t, 0, exec.ActiveCount())
	assert.True(t, exec.CanExecute())
}

func TestStopTask(t *testing.T) {
	script := make([]runtime.Chunk, 0, 101)
	for i := 0; i < 100; i++ {
		script = append(script, runtime.Chunk{Type: runtime.ChunkTypeMessage, Content: "tick"})
	}
	script = append(script, runtime.Chunk{Type: runtime.ChunkTypeDone})
	provider := &stubRunnerProvider{script: script, delay: 20 * time.Millisecond}
	exec, repo, eventBus := newTestExecutor(t, provider, Config{})
	task, agent := seedTaskAndAgent(t, repo)
	ctx := context.Background()

	require.NoError(t, exec.ExecuteTaskBackground(ctx, task.ID, agent.ID))
	require.Eventually(t, func() bool {
		return len(eventBus.outputEvents(task.ID)) > 0
	}, 2*time.Second, 5*time.Millisecond)

	require.True(t, exec.StopTask(ctx, task.ID))
	assert.False(t, exec.IsTaskRunning(task.ID))

	// Stop returned only after finalization, so the event log is final.
	outputs := eventBus.outputEvents(task.ID)
	assert.Less(t, len(outputs), len(script))

	completed := eventBus.ofType(events.TaskCompleted)
	require.Len(t, completed, 1)
	doneData, ok := completed[0].Data.(events.TaskCompletedData)
	require.True(t, ok)
	assert.Equal(t, StatusStopped, doneData.Status)

	stored, err := repo.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, v1.TaskStatusBlocked, stored.Status)

	storedAgent, err := repo.GetAgent(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, v1.AgentStatusIdle, storedAgent.Status)

	activities, err := repo.ListActivities(ctx, models.ListActivitiesOptions{TaskID: task.ID})
	require.NoError(t, err)
	var sawStoppedActivity bool
	for _, a := range activities {
		if a.Message == "Execution stopped for 'Summarize findings'" {
			sawStoppedActivity = true
		}
	}
	assert.True(t, sawStoppedActivity)
}

func TestStopTaskUnknownReturnsFalse(t *testing.T) {
	provider := &stubRunnerProvider{script: []runtime.Chunk{{Type: runtime.ChunkTypeDone}}}
	exec, _, eventBus := newTestExecutor(t, provider, Config{})

	assert.False(t, exec.StopTask(context.Background(), "33333333-3333-3333-3333-333333333333"))
	assert.Zero(t, eventBus.size())
}

func TestRunnerConstructionFailureFinalizes(t *testing.T) {
	provider := &stubRunnerProvider{err: errors.New("unknown agent backend: teleporter")}
	exec, repo, eventBus := newTestExecutor(t, provider, Config{})
	task, agent := seedTaskAndAgent(t, repo)
	ctx := context.Background()

	result, err := exec.ExecuteTask(ctx, task.ID, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusError, result.Status)
	require.NotNil(t, result.Error)

	stored, err := repo.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, v1.TaskStatusBlocked, stored.Status)

	assert.False(t, exec.IsTaskRunning(task.ID))
	completed := eventBus.ofType(events.TaskCompleted)
	require.Len(t, completed, 1)
	// The runner never existed, so the run produced no start event.
	assert.Empty(t, eventBus.ofType(events.TaskStarted))
}

func TestStreamFaultFinalizesAsError(t *testing.T) {
	provider := &stubRunnerProvider{
		runner: &faultRunner{err: errors.New("stream broke at /var/run/agent token: abc123")},
	}
	exec, repo, eventBus := newTestExecutor(t, provider, Config{})
	task, agent := seedTaskAndAgent(t, repo)
	ctx := context.Background()

	result, err := exec.ExecuteTask(ctx, task.ID, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusError, result.Status)
	require.NotNil(t, result.Error)
	assert.Contains(t, *result.Error, "[path]")
	assert.Contains(t, *result.Error, "token=[redacted]")
	assert.NotContains(t, *result.Error, "abc123")

	stored, err := repo.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, v1.TaskStatusBlocked, stored.Status)

	completed := eventBus.ofType(events.TaskCompleted)
	require.Len(t, completed, 1)
}

func TestRunStartFailureFinalizesAsError(t *testing.T) {
	provider := &stubRunnerProvider{
		runner: &startFailRunner{err: errors.New("daemon unreachable")},
	}
	exec, repo, eventBus := newTestExecutor(t, provider, Config{})
	task, agent := seedTaskAndAgent(t, repo)
	ctx := context.Background()

	result, err := exec.ExecuteTask(ctx, task.ID, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusError, result.Status)

	// The start path already ran before the stream failed to open.
	assert.Len(t, eventBus.ofType(events.TaskStarted), 1)
	assert.Len(t, eventBus.ofType(events.TaskCompleted), 1)

	stored, err := repo.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, v1.TaskStatusBlocked, stored.Status)
}

func TestDeliverableSaveFailureKeepsStatuses(t *testing.T) {
	provider := &stubRunnerProvider{script: []runtime.Chunk{
		{Type: runtime.ChunkTypeMessage, Content: "the findings"},
		{Type: runtime.ChunkTypeDone},
	}}
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "console", OutputPath: "stdout"})
	require.NoError(t, err)
	repo := repository.NewMemoryRepository()
	eventBus := &captureBus{}
	exec := New(&failingDocStore{Repository: repo}, provider, eventBus, log, Config{})
	task, agent := seedTaskAndAgent(t, repo)
	ctx := context.Background()

	result, err := exec.ExecuteTask(ctx, task.ID, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)

	// The task stays DONE even though the deliverable never persisted.
	stored, err := repo.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, v1.TaskStatusDone, stored.Status)

	docs, err := repo.ListDocumentsByTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)

	activities, err := repo.ListActivities(ctx, models.ListActivitiesOptions{TaskID: task.ID})
	require.NoError(t, err)
	for _, a := range activities {
		assert.NotEqual(t, v1.ActivityDocumentCreated, a.Type)
	}
	assert.Empty(t, eventBus.ofType(events.DocumentCreated))
}

// failingDocStore fails every document write.
type failingDocStore struct {
	repository.Repository
}

func (s *failingDocStore) CreateDocument(ctx context.Context, document *models.Document) error {
	return errors.New("disk full")
}

func TestExecuteTaskBackgroundFinalizes(t *testing.T) {
	provider := &stubRunnerProvider{script: []runtime.Chunk{
		{Type: runtime.ChunkTypeMessage, Content: "done deal"},
		{Type: runtime.ChunkTypeDone},
	}}
	exec, repo, eventBus := newTestExecutor(t, provider, Config{})
	task, agent := seedTaskAndAgent(t, repo)
	ctx := context.Background()

	require.NoError(t, exec.ExecuteTaskBackground(ctx, task.ID, agent.ID))
	require.Eventually(t, func() bool {
		return !exec.IsTaskRunning(task.ID)
	}, 2*time.Second, 5*time.Millisecond)

	stored, err := repo.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, v1.TaskStatusDone, stored.Status)

	docs, err := repo.ListDocumentsByTask(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "done deal", docs[0].Content)

	require.Len(t, eventBus.ofType(events.TaskCompleted), 1)
}

func TestRunningTaskQueries(t *testing.T) {
	provider := &stubRunnerProvider{
		script: []runtime.Chunk{{Type: runtime.ChunkTypeMessage, Content: "slow"}},
		delay:  time.Hour,
	}
	exec, repo, _ := newTestExecutor(t, provider, Config{MaxConcurrentTasks: 2})
	task, agent := seedTaskAndAgent(t, repo)
	ctx := context.Background()

	assert.False(t, exec.IsTaskRunning(task.ID))
	assert.Empty(t, exec.RunningTasks())
	assert.True(t, exec.CanExecute())

	require.NoError(t, exec.ExecuteTaskBackground(ctx, task.ID, agent.ID))
	assert.True(t, exec.IsTaskRunning(task.ID))
	assert.Equal(t, []string{task.ID}, exec.RunningTasks())
	assert.Equal(t, 1, exec.ActiveCount())
	assert.True(t, exec.CanExecute())

	require.True(t, exec.StopTask(ctx, task.ID))
	assert.Empty(t, exec.RunningTasks())
}
