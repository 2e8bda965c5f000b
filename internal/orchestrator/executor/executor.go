// Package executor admits and runs agent-driven task executions. Each
// admitted task gets one session that streams chunks from an agent
// runner, and every session resolves through one finalization pass no
// matter how it ends.
package executor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/missionctl/missionctl/internal/agent/runtime"
	apperrors "github.com/missionctl/missionctl/internal/common/errors"
	"github.com/missionctl/missionctl/internal/common/logger"
	"github.com/missionctl/missionctl/internal/events/bus"
	"github.com/missionctl/missionctl/internal/mission/models"
	v1 "github.com/missionctl/missionctl/pkg/api/v1"
)

// DefaultMaxConcurrentTasks caps parallel executions when no limit is
// configured.
const DefaultMaxConcurrentTasks = 5

// Terminal execution statuses reported in results and completion events.
const (
	StatusCompleted = "completed"
	StatusError     = "error"
	StatusStopped   = "stopped"
)

// Result is the outcome of one finished execution.
type Result struct {
	Status string  `json:"status"`
	Output string  `json:"output"`
	Error  *string `json:"error"`
}

// Store is the slice of the entity store the executor uses.
type Store interface {
	GetTask(ctx context.Context, id string) (*models.Task, error)
	GetAgent(ctx context.Context, id string) (*models.Agent, error)
	UpdateTaskStatus(ctx context.Context, id string, status v1.TaskStatus, agentID *string) error
	SetAgentStatus(ctx context.Context, id string, status v1.AgentStatus, currentTaskID *string) error
	CreateActivity(ctx context.Context, activity *models.Activity) error
	CreateDocument(ctx context.Context, document *models.Document) error
}

// RunnerProvider builds one backend runner per execution.
type RunnerProvider interface {
	RunnerFor(backend string) (runtime.Runner, error)
}

// EventPublisher is the slice of the event bus the executor uses.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, event *bus.Event) error
}

// session tracks one in-flight execution. Owned exclusively by the
// executor; nothing outside this package reads or mutates it.
type session struct {
	taskID  string
	agentID string

	ctx    context.Context
	cancel context.CancelFunc

	// stopRequested is monotonic: once set it stays set until the
	// session is destroyed. Checked at every chunk boundary.
	stopRequested atomic.Bool

	mu     sync.Mutex
	runner runtime.Runner

	output strings.Builder

	// done closes after finalization so stop callers can wait on it.
	done chan struct{}
}

func (s *session) setRunner(r runtime.Runner) {
	s.mu.Lock()
	s.runner = r
	s.mu.Unlock()
}

func (s *session) currentRunner() runtime.Runner {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runner
}

// Executor runs tasks on agent backends under a fixed concurrency cap.
type Executor struct {
	store   Store
	runners RunnerProvider
	bus     EventPublisher
	logger  *logger.Logger

	maxConcurrent int

	mu       sync.RWMutex
	sessions map[string]*session
}

// Config holds executor limits.
type Config struct {
	MaxConcurrentTasks int
}

// New creates an executor. A zero or negative limit falls back to
// DefaultMaxConcurrentTasks.
func New(store Store, runners RunnerProvider, eventBus EventPublisher, log *logger.Logger, cfg Config) *Executor {
	limit := cfg.MaxConcurrentTasks
	if limit <= 0 {
		limit = DefaultMaxConcurrentTasks
	}
	return &Executor{
		store:         store,
		runners:       runners,
		bus:           eventBus,
		logger:        log.WithFields(zap.String("component", "executor")),
		maxConcurrent: limit,
		sessions:      make(map[string]*session),
	}
}

// ExecuteTask runs a task to completion on the given agent and returns
// the final result. Admission failures return an error before any state
// is touched; after admission, faults resolve into the result instead.
func (e *Executor) ExecuteTask(ctx context.Context, taskID, agentID string) (*Result, error) {
	sess, task, agent, err := e.admit(ctx, taskID, agentID)
	if err != nil {
		return nil, err
	}
	return e.run(sess, task, agent), nil
}

// ExecuteTaskBackground admits the task synchronously and runs it in a
// background goroutine. Outcomes surface through events only.
func (e *Executor) ExecuteTaskBackground(ctx context.Context, taskID, agentID string) error {
	sess, task, agent, err := e.admit(ctx, taskID, agentID)
	if err != nil {
		return err
	}
	go e.run(sess, task, agent)
	return nil
}

// admit performs the capacity, lookup and duplicate checks in that order
// and registers the session. The duplicate check and the registration
// share one critical section so two callers cannot both claim the same
// task, and the capacity cap is re-verified there before the slot is
// taken.
func (e *Executor) admit(ctx context.Context, taskID, agentID string) (*session, *models.Task, *models.Agent, error) {
	e.mu.RLock()
	active := len(e.sessions)
	e.mu.RUnlock()
	if active >= e.maxConcurrent {
		e.logger.Warn("execution rejected: capacity reached",
			zap.String("task_id", taskID),
			zap.Int("limit", e.maxConcurrent))
		return nil, nil, nil, apperrors.CapacityExceeded(e.maxConcurrent)
	}

	task, err := e.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, nil, nil, apperrors.NotFound("task", taskID)
	}
	agent, err := e.store.GetAgent(ctx, agentID)
	if err != nil {
		return nil, nil, nil, apperrors.NotFound("agent", agentID)
	}

	// The session context detaches from the caller: an abandoned HTTP
	// request must not kill a running task. StopTask is the only
	// cancellation path.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sess := &session{
		taskID:  taskID,
		agentID: agentID,
		ctx:     runCtx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	e.mu.Lock()
	if _, exists := e.sessions[taskID]; exists {
		e.mu.Unlock()
		cancel()
		return nil, nil, nil, apperrors.Conflict(fmt.Sprintf("task %s is already running", taskID))
	}
	if len(e.sessions) >= e.maxConcurrent {
		e.mu.Unlock()
		cancel()
		return nil, nil, nil, apperrors.CapacityExceeded(e.maxConcurrent)
	}
	e.sessions[taskID] = sess
	e.mu.Unlock()

	e.logger.Info("task execution admitted",
		zap.String("task_id", taskID),
		zap.String("agent_id", agentID),
		zap.String("agent_name", agent.Name),
		zap.String("task_title", task.Title))

	return sess, task, agent, nil
}

// StopTask requests cancellation of a running execution and waits for
// its finalization. Returns false when no session exists for the task.
func (e *Executor) StopTask(ctx context.Context, taskID string) bool {
	e.mu.RLock()
	sess, ok := e.sessions[taskID]
	e.mu.RUnlock()
	if !ok {
		return false
	}

	sess.stopRequested.Store(true)

	if runner := sess.currentRunner(); runner != nil {
		if err := runner.Stop(ctx); err != nil {
			e.logger.Warn("failed to stop agent runner",
				zap.String("task_id", taskID),
				zap.Error(err))
		}
	}
	sess.cancel()

	<-sess.done
	e.logger.Info("task execution stopped", zap.String("task_id", taskID))
	return true
}

// IsTaskRunning reports whether the task has an active session.
func (e *Executor) IsTaskRunning(taskID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.sessions[taskID]
	return ok
}

// RunningTasks returns the IDs of all active sessions.
func (e *Executor) RunningTasks() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.sessions))
	for id := range e.sessions {
		ids = append(ids, id)
	}
	return ids
}

// ActiveCount returns the number of active sessions.
func (e *Executor) ActiveCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.sessions)
}

// CanExecute reports whether a new execution would pass the capacity
// check right now.
func (e *Executor) CanExecute() bool {
	return e.ActiveCount() < e.maxConcurrent
}

// Limit returns the maximum number of concurrent executions.
func (e *Executor) Limit() int {
	return e.maxConcurrent
}
