package websocket

import (
	"context"

	"go.uber.org/zap"

	"github.com/missionctl/missionctl/internal/common/logger"
	"github.com/missionctl/missionctl/internal/events"
	"github.com/missionctl/missionctl/internal/events/bus"
	ws "github.com/missionctl/missionctl/pkg/websocket"
)

// TaskEventBroadcaster bridges the event bus to the WebSocket hub. Lifecycle
// events go to every client; streamed output goes only to clients subscribed
// to that task.
type TaskEventBroadcaster struct {
	hub           *Hub
	subscriptions []bus.Subscription
	logger        *logger.Logger
}

// RegisterTaskNotifications subscribes the hub to mission events. The
// broadcaster unsubscribes itself when ctx is cancelled.
func RegisterTaskNotifications(ctx context.Context, eventBus bus.EventBus, hub *Hub, log *logger.Logger) *TaskEventBroadcaster {
	b := &TaskEventBroadcaster{
		hub:    hub,
		logger: log.WithFields(zap.String("component", "ws_broadcaster")),
	}
	if eventBus == nil {
		return b
	}

	b.subscribeBroadcast(eventBus, events.TaskStarted, ws.ActionTaskStarted)
	b.subscribeBroadcast(eventBus, events.TaskCompleted, ws.ActionTaskCompleted)
	b.subscribeBroadcast(eventBus, events.ActivityCreated, ws.ActionActivityCreated)
	b.subscribeBroadcast(eventBus, events.DocumentCreated, ws.ActionDocumentCreated)
	b.subscribeTaskOutput(eventBus)

	go func() {
		<-ctx.Done()
		b.Close()
	}()

	return b
}

// Close unsubscribes all event bus subscriptions
func (b *TaskEventBroadcaster) Close() {
	for _, sub := range b.subscriptions {
		if sub != nil && sub.IsValid() {
			_ = sub.Unsubscribe()
		}
	}
	b.subscriptions = nil
}

func (b *TaskEventBroadcaster) subscribeBroadcast(eventBus bus.EventBus, subject, action string) {
	sub, err := eventBus.Subscribe(subject, func(ctx context.Context, event *bus.Event) error {
		msg, err := ws.NewNotification(action, event.Data)
		if err != nil {
			b.logger.Error("failed to build websocket notification", zap.String("action", action), zap.Error(err))
			return nil
		}
		b.hub.Broadcast(msg)
		return nil
	})
	if err != nil {
		b.logger.Error("failed to subscribe to events", zap.String("subject", subject), zap.Error(err))
		return
	}
	b.subscriptions = append(b.subscriptions, sub)
}

func (b *TaskEventBroadcaster) subscribeTaskOutput(eventBus bus.EventBus) {
	subject := events.BuildTaskOutputWildcardSubject()
	sub, err := eventBus.Subscribe(subject, func(ctx context.Context, event *bus.Event) error {
		taskID := extractTaskID(event.Data)
		if taskID == "" {
			b.logger.Warn("task output event without task_id", zap.String("event_id", event.ID))
			return nil
		}
		msg, err := ws.NewNotification(ws.ActionTaskOutput, event.Data)
		if err != nil {
			b.logger.Error("failed to build websocket notification", zap.String("action", ws.ActionTaskOutput), zap.Error(err))
			return nil
		}
		b.hub.BroadcastToTask(taskID, msg)
		return nil
	})
	if err != nil {
		b.logger.Error("failed to subscribe to events", zap.String("subject", subject), zap.Error(err))
		return
	}
	b.subscriptions = append(b.subscriptions, sub)
}

// extractTaskID pulls the task ID out of an output event payload. The
// in-process bus delivers the typed struct; a broker roundtrip delivers a
// decoded map.
func extractTaskID(data interface{}) string {
	switch d := data.(type) {
	case events.TaskOutputData:
		return d.TaskID
	case *events.TaskOutputData:
		return d.TaskID
	case map[string]interface{}:
		taskID, _ := d["task_id"].(string)
		return taskID
	}
	return ""
}
