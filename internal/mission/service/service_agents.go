package service

import (
	"context"

	"go.uber.org/zap"

	apperrors "github.com/missionctl/missionctl/internal/common/errors"
	"github.com/missionctl/missionctl/internal/mission/models"
	v1 "github.com/missionctl/missionctl/pkg/api/v1"
)

// CreateAgent registers a new agent
func (s *Service) CreateAgent(ctx context.Context, req *v1.CreateAgentRequest) (*models.Agent, error) {
	agent := models.NewAgent(req.Name, req.Role)
	agent.Description = req.Description
	agent.Specialties = req.Specialties
	agent.Backend = req.Backend

	if err := s.repo.CreateAgent(ctx, agent); err != nil {
		s.logger.Error("failed to create agent", zap.Error(err))
		return nil, apperrors.InternalError("failed to create agent", err)
	}

	s.logger.Info("agent registered",
		zap.String("agent_id", agent.ID),
		zap.String("name", agent.Name),
		zap.String("role", agent.Role))

	return agent, nil
}

// GetAgent returns an agent by ID
func (s *Service) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	agent, err := s.repo.GetAgent(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("agent", id)
	}
	return agent, nil
}

// ListAgents returns all registered agents
func (s *Service) ListAgents(ctx context.Context) ([]*models.Agent, error) {
	agents, err := s.repo.ListAgents(ctx)
	if err != nil {
		return nil, apperrors.InternalError("failed to list agents", err)
	}
	return agents, nil
}

// UpdateAgent applies a partial update to an agent
func (s *Service) UpdateAgent(ctx context.Context, id string, req *v1.UpdateAgentRequest) (*models.Agent, error) {
	agent, err := s.repo.GetAgent(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("agent", id)
	}

	if req.Name != nil {
		agent.Name = *req.Name
	}
	if req.Role != nil {
		agent.Role = *req.Role
	}
	if req.Description != nil {
		agent.Description = *req.Description
	}
	if req.Specialties != nil {
		agent.Specialties = req.Specialties
	}
	if req.Backend != nil {
		agent.Backend = *req.Backend
	}

	if err := s.repo.UpdateAgent(ctx, agent); err != nil {
		s.logger.Error("failed to update agent", zap.String("agent_id", id), zap.Error(err))
		return nil, apperrors.InternalError("failed to update agent", err)
	}
	return agent, nil
}
