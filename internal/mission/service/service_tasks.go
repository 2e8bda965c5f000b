package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	apperrors "github.com/missionctl/missionctl/internal/common/errors"
	"github.com/missionctl/missionctl/internal/mission/models"
	v1 "github.com/missionctl/missionctl/pkg/api/v1"
)

// CreateTask creates a new task and records it in the activity feed
func (s *Service) CreateTask(ctx context.Context, req *v1.CreateTaskRequest) (*models.Task, error) {
	task := models.NewTask(req.Title, req.Description, req.Priority)
	task.AssignedAgentID = req.AssignedAgentID
	task.Metadata = req.Metadata

	if err := s.repo.CreateTask(ctx, task); err != nil {
		s.logger.Error("failed to create task", zap.Error(err))
		return nil, apperrors.InternalError("failed to create task", err)
	}

	s.recordActivity(ctx, v1.ActivityTaskUpdated,
		fmt.Sprintf("Task created: '%s'", task.Title), nil, &task.ID)
	s.logger.Info("task created",
		zap.String("task_id", task.ID),
		zap.String("title", task.Title))

	return task, nil
}

// GetTask returns a task by ID
func (s *Service) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("task", id)
	}
	return task, nil
}

// ListTasks returns tasks newest first, optionally filtered by status
func (s *Service) ListTasks(ctx context.Context, status string) ([]*models.Task, error) {
	if status == "" {
		tasks, err := s.repo.ListTasks(ctx)
		if err != nil {
			return nil, apperrors.InternalError("failed to list tasks", err)
		}
		return tasks, nil
	}

	taskStatus := v1.TaskStatus(status)
	switch taskStatus {
	case v1.TaskStatusTODO, v1.TaskStatusInProgress, v1.TaskStatusDone, v1.TaskStatusBlocked:
	default:
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid task status %q", status))
	}

	tasks, err := s.repo.ListTasksByStatus(ctx, taskStatus)
	if err != nil {
		return nil, apperrors.InternalError("failed to list tasks", err)
	}
	return tasks, nil
}

// UpdateTask applies a partial update to a task
func (s *Service) UpdateTask(ctx context.Context, id string, req *v1.UpdateTaskRequest) (*models.Task, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("task", id)
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.AssignedAgentID != nil {
		task.AssignedAgentID = req.AssignedAgentID
	}
	if req.Metadata != nil {
		task.Metadata = req.Metadata
	}

	if err := s.repo.UpdateTask(ctx, task); err != nil {
		s.logger.Error("failed to update task", zap.String("task_id", id), zap.Error(err))
		return nil, apperrors.InternalError("failed to update task", err)
	}
	return task, nil
}

// UpdateTaskStatus changes only the task's status, leaving the agent
// assignment untouched
func (s *Service) UpdateTaskStatus(ctx context.Context, id string, status v1.TaskStatus) (*models.Task, error) {
	if _, err := s.repo.GetTask(ctx, id); err != nil {
		return nil, apperrors.NotFound("task", id)
	}

	if err := s.repo.UpdateTaskStatus(ctx, id, status, nil); err != nil {
		s.logger.Error("failed to update task status", zap.String("task_id", id), zap.Error(err))
		return nil, apperrors.InternalError("failed to update task status", err)
	}

	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("task", id)
	}
	return task, nil
}
