package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/missionctl/missionctl/internal/agent/runtime"
	"github.com/missionctl/missionctl/internal/events"
	"github.com/missionctl/missionctl/internal/events/bus"
	"github.com/missionctl/missionctl/internal/mission/models"
	v1 "github.com/missionctl/missionctl/pkg/api/v1"
)

// toolResultPreviewLength caps how much of a tool result is echoed into
// output events.
const toolResultPreviewLength = 200

// eventSource tags every event published by this package.
const eventSource = "executor"

// run drives one admitted session to finalization and returns the
// result. It never returns an error: every fault past admission resolves
// into a terminal status.
func (e *Executor) run(sess *session, task *models.Task, agent *models.Agent) *Result {
	start := time.Now()
	runningTasks.Inc()

	status, errText := e.stream(sess, task, agent)
	result := e.finalize(sess, task, agent, status, errText)

	close(sess.done)

	runningTasks.Dec()
	tasksTotal.WithLabelValues(result.Status).Inc()
	taskDuration.Observe(time.Since(start).Seconds())

	return result
}

// stream performs the start transitions and consumes the runner's chunk
// stream. It returns the terminal status and the captured error text,
// already sanitized.
func (e *Executor) stream(sess *session, task *models.Task, agent *models.Agent) (string, string) {
	// Store and bus updates must survive a mid-run stop, so they use a
	// context detached from the session's cancellation.
	ctx := context.WithoutCancel(sess.ctx)

	runner, err := e.runners.RunnerFor(agent.Backend)
	if err != nil {
		e.logger.Error("failed to build agent runner",
			zap.String("task_id", sess.taskID),
			zap.String("backend", agent.Backend),
			zap.Error(err))
		return StatusError, SanitizeError(err.Error())
	}
	sess.setRunner(runner)

	if err := e.store.UpdateTaskStatus(ctx, sess.taskID, v1.TaskStatusInProgress, &sess.agentID); err != nil {
		e.logger.Error("failed to mark task in progress",
			zap.String("task_id", sess.taskID),
			zap.Error(err))
	}
	if err := e.store.SetAgentStatus(ctx, sess.agentID, v1.AgentStatusActive, &sess.taskID); err != nil {
		e.logger.Error("failed to mark agent active",
			zap.String("agent_id", sess.agentID),
			zap.Error(err))
	}

	e.publish(ctx, events.TaskStarted, events.TaskStarted, events.TaskStartedData{
		TaskID:    sess.taskID,
		AgentID:   sess.agentID,
		AgentName: agent.Name,
		TaskTitle: task.Title,
		Timestamp: time.Now().UTC(),
	})
	e.recordActivity(ctx, v1.ActivityTaskUpdated,
		fmt.Sprintf("%s started working on '%s'", agent.Name, task.Title),
		&sess.agentID, &sess.taskID)

	stream, err := runner.Run(sess.ctx, buildTaskPrompt(task, agent))
	if err != nil {
		e.logger.Error("failed to start agent runner",
			zap.String("task_id", sess.taskID),
			zap.String("backend", agent.Backend),
			zap.Error(err))
		return StatusError, SanitizeError(err.Error())
	}

	return e.consume(ctx, sess, stream)
}

// consume classifies chunks until the stream ends or a terminal chunk
// arrives. The stop flag is checked before each chunk, so a chunk that
// arrives after a stop request is never processed.
func (e *Executor) consume(ctx context.Context, sess *session, stream <-chan runtime.StreamItem) (string, string) {
	for item := range stream {
		if sess.stopRequested.Load() {
			return StatusStopped, ""
		}

		if item.Err != nil {
			e.logger.Error("agent stream failed",
				zap.String("task_id", sess.taskID),
				zap.Error(item.Err))
			return StatusError, SanitizeError(item.Err.Error())
		}

		chunk := item.Chunk
		switch chunk.Type {
		case runtime.ChunkTypeMessage:
			if chunk.Content == "" {
				continue
			}
			sess.output.WriteString(chunk.Content)
			e.publishOutput(ctx, sess.taskID, chunk.Content, string(chunk.Type))
		case runtime.ChunkTypeToolUse:
			e.publishOutput(ctx, sess.taskID, fmt.Sprintf("Using tool: %s", chunk.ToolName()), string(chunk.Type))
		case runtime.ChunkTypeToolResult:
			preview := truncateRunes(chunk.Content, toolResultPreviewLength)
			e.publishOutput(ctx, sess.taskID, fmt.Sprintf("Tool result: %s", preview), string(chunk.Type))
		case runtime.ChunkTypeError:
			return StatusError, SanitizeError(chunk.Content)
		case runtime.ChunkTypeDone:
			return StatusCompleted, ""
		}
	}

	// The stream closed without a done chunk: either the runner was
	// stopped or the backend simply ran out of output.
	if sess.stopRequested.Load() {
		return StatusStopped, ""
	}
	return StatusCompleted, ""
}

// finalize resolves the session exactly once: deregister it, persist the
// terminal statuses, publish the completion event, record the outcome
// activity and save the deliverable for completed runs.
func (e *Executor) finalize(sess *session, task *models.Task, agent *models.Agent, status, errText string) *Result {
	ctx := context.WithoutCancel(sess.ctx)

	// Deregister first so the capacity slot frees even if a store call
	// below fails.
	e.mu.Lock()
	delete(e.sessions, sess.taskID)
	e.mu.Unlock()
	sess.cancel()

	output := sess.output.String()

	taskStatus := v1.TaskStatusBlocked
	if status == StatusCompleted {
		taskStatus = v1.TaskStatusDone
	}
	if err := e.store.UpdateTaskStatus(ctx, sess.taskID, taskStatus, &sess.agentID); err != nil {
		e.logger.Error("failed to update final task status",
			zap.String("task_id", sess.taskID),
			zap.String("status", string(taskStatus)),
			zap.Error(err))
	}
	if err := e.store.SetAgentStatus(ctx, sess.agentID, v1.AgentStatusIdle, nil); err != nil {
		e.logger.Error("failed to release agent",
			zap.String("agent_id", sess.agentID),
			zap.Error(err))
	}

	var errPtr *string
	if errText != "" {
		errPtr = &errText
	}
	e.publish(ctx, events.TaskCompleted, events.TaskCompleted, events.TaskCompletedData{
		TaskID:    sess.taskID,
		AgentID:   sess.agentID,
		Status:    status,
		Error:     errPtr,
		Timestamp: time.Now().UTC(),
	})

	switch status {
	case StatusCompleted:
		e.recordActivity(ctx, v1.ActivityTaskCompleted,
			fmt.Sprintf("%s completed '%s'", agent.Name, task.Title),
			&sess.agentID, &sess.taskID)
		e.saveDeliverable(ctx, sess, task, agent)
	case StatusError:
		e.recordActivity(ctx, v1.ActivityTaskUpdated,
			fmt.Sprintf("%s encountered an error on '%s': %s", agent.Name, task.Title, errText),
			&sess.agentID, &sess.taskID)
	case StatusStopped:
		e.recordActivity(ctx, v1.ActivityTaskUpdated,
			fmt.Sprintf("Execution stopped for '%s'", task.Title),
			&sess.agentID, &sess.taskID)
	}

	e.logger.Info("task execution finished",
		zap.String("task_id", sess.taskID),
		zap.String("status", status))

	return &Result{Status: status, Output: output, Error: errPtr}
}

// saveDeliverable persists the accumulated output as a deliverable
// document. Runs only for completed tasks whose trimmed output is
// non-empty; a save failure does not roll back the finalized statuses.
func (e *Executor) saveDeliverable(ctx context.Context, sess *session, task *models.Task, agent *models.Agent) {
	output := sess.output.String()
	if strings.TrimSpace(output) == "" {
		return
	}

	doc := models.NewDocument(fmt.Sprintf("Deliverable: %s", task.Title), output, v1.DocumentTypeDeliverable)
	doc.AuthorAgentID = &sess.agentID
	doc.TaskID = &sess.taskID
	doc.Tags = []string{"auto-generated", "task-output"}

	if err := e.store.CreateDocument(ctx, doc); err != nil {
		e.logger.Error("failed to save deliverable",
			zap.String("task_id", sess.taskID),
			zap.Error(err))
		return
	}

	e.logger.Info("deliverable saved",
		zap.String("task_id", sess.taskID),
		zap.String("document_id", doc.ID),
		zap.Int("length", len(output)))

	e.recordActivity(ctx, v1.ActivityDocumentCreated,
		fmt.Sprintf("Deliverable saved for '%s'", task.Title),
		&sess.agentID, &sess.taskID)

	e.publish(ctx, events.DocumentCreated, events.DocumentCreated, events.DocumentCreatedData{
		DocumentID: doc.ID,
		TaskID:     sess.taskID,
		AgentID:    sess.agentID,
		Title:      doc.Title,
		Type:       string(doc.Type),
		Timestamp:  time.Now().UTC(),
	})
}

// publishOutput emits one task_output event on the task's own subject.
func (e *Executor) publishOutput(ctx context.Context, taskID, content, outputType string) {
	outputChunks.WithLabelValues(outputType).Inc()
	e.publish(ctx, events.TaskOutput, events.BuildTaskOutputSubject(taskID), events.TaskOutputData{
		TaskID:     taskID,
		Content:    content,
		OutputType: outputType,
		Timestamp:  time.Now().UTC(),
	})
}

// publish sends an event to the bus; failures are logged, never fatal.
func (e *Executor) publish(ctx context.Context, eventType, subject string, data interface{}) {
	event := bus.NewEvent(eventType, eventSource, data)
	if err := e.bus.Publish(ctx, subject, event); err != nil {
		e.logger.Warn("failed to publish event",
			zap.String("subject", subject),
			zap.Error(err))
	}
}

// recordActivity persists an activity entry and announces it on the bus.
func (e *Executor) recordActivity(ctx context.Context, activityType v1.ActivityType, message string, agentID, taskID *string) {
	activity := models.NewActivity(activityType, message, agentID, taskID)
	if err := e.store.CreateActivity(ctx, activity); err != nil {
		e.logger.Warn("failed to record activity",
			zap.String("type", string(activityType)),
			zap.Error(err))
		return
	}
	e.publish(ctx, events.ActivityCreated, events.ActivityCreated, events.ActivityCreatedData{
		Activity: activity.ToAPI(),
	})
}
