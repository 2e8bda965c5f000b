// Package service provides mission business logic over the store: tasks,
// agents, the activity feed and documents. Execution itself lives in the
// executor; this layer serves the REST and WebSocket surfaces.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/missionctl/missionctl/internal/common/logger"
	"github.com/missionctl/missionctl/internal/events"
	"github.com/missionctl/missionctl/internal/events/bus"
	"github.com/missionctl/missionctl/internal/mission/models"
	"github.com/missionctl/missionctl/internal/mission/repository"
	v1 "github.com/missionctl/missionctl/pkg/api/v1"
)

const eventSource = "mission-service"

// Service provides mission business logic
type Service struct {
	repo     repository.Repository
	eventBus bus.EventBus
	logger   *logger.Logger
}

// NewService creates a new mission service
func NewService(repo repository.Repository, eventBus bus.EventBus, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		eventBus: eventBus,
		logger:   log.WithFields(zap.String("component", "mission_service")),
	}
}

// recordActivity persists a feed entry and announces it on the bus. A store
// failure is logged and suppresses the event so the feed and the stream stay
// consistent.
func (s *Service) recordActivity(ctx context.Context, activityType v1.ActivityType, message string, agentID, taskID *string) {
	activity := models.NewActivity(activityType, message, agentID, taskID)
	if err := s.repo.CreateActivity(ctx, activity); err != nil {
		s.logger.Warn("failed to record activity",
			zap.String("type", string(activityType)),
			zap.Error(err))
		return
	}

	if s.eventBus == nil {
		return
	}
	event := bus.NewEvent(events.ActivityCreated, eventSource, events.ActivityCreatedData{
		Activity: activity.ToAPI(),
	})
	if err := s.eventBus.Publish(ctx, events.ActivityCreated, event); err != nil {
		s.logger.Warn("failed to publish activity event", zap.Error(err))
	}
}
