package service

import (
	"context"

	"go.uber.org/zap"

	apperrors "github.com/missionctl/missionctl/internal/common/errors"
	"github.com/missionctl/missionctl/internal/events"
	"github.com/missionctl/missionctl/internal/events/bus"
	"github.com/missionctl/missionctl/internal/mission/models"
	v1 "github.com/missionctl/missionctl/pkg/api/v1"
)

// ListActivities returns feed entries newest first. A zero limit returns the
// whole feed; taskID narrows the feed to one task.
func (s *Service) ListActivities(ctx context.Context, limit int, taskID string) ([]*models.Activity, error) {
	if limit < 0 {
		return nil, apperrors.BadRequest("limit must not be negative")
	}

	activities, err := s.repo.ListActivities(ctx, models.ListActivitiesOptions{
		Limit:  limit,
		TaskID: taskID,
	})
	if err != nil {
		return nil, apperrors.InternalError("failed to list activities", err)
	}
	return activities, nil
}

// CreateDocument stores a document and announces it on the bus
func (s *Service) CreateDocument(ctx context.Context, req *v1.CreateDocumentRequest) (*models.Document, error) {
	document := models.NewDocument(req.Title, req.Content, req.Type)
	document.TaskID = req.TaskID
	document.Tags = req.Tags

	if err := s.repo.CreateDocument(ctx, document); err != nil {
		s.logger.Error("failed to create document", zap.Error(err))
		return nil, apperrors.InternalError("failed to create document", err)
	}

	if s.eventBus != nil {
		data := events.DocumentCreatedData{
			DocumentID: document.ID,
			Title:      document.Title,
			Type:       string(document.Type),
			Timestamp:  document.CreatedAt,
		}
		if document.TaskID != nil {
			data.TaskID = *document.TaskID
		}
		event := bus.NewEvent(events.DocumentCreated, eventSource, data)
		if err := s.eventBus.Publish(ctx, events.DocumentCreated, event); err != nil {
			s.logger.Warn("failed to publish document event", zap.Error(err))
		}
	}

	s.logger.Info("document created",
		zap.String("document_id", document.ID),
		zap.String("title", document.Title))

	return document, nil
}

// GetDocument returns a document by ID
func (s *Service) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	document, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("document", id)
	}
	return document, nil
}

// ListDocuments returns documents newest first, optionally scoped to a task
func (s *Service) ListDocuments(ctx context.Context, taskID string) ([]*models.Document, error) {
	var (
		documents []*models.Document
		err       error
	)
	if taskID == "" {
		documents, err = s.repo.ListDocuments(ctx)
	} else {
		documents, err = s.repo.ListDocumentsByTask(ctx, taskID)
	}
	if err != nil {
		return nil, apperrors.InternalError("failed to list documents", err)
	}
	return documents, nil
}
