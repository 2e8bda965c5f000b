package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/missionctl/missionctl/internal/mission/models"
	v1 "github.com/missionctl/missionctl/pkg/api/v1"
)

// CreateAgent creates a new agent
func (r *Repository) CreateAgent(ctx context.Context, agent *models.Agent) error {
	if agent.ID == "" {
		agent.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	agent.CreatedAt = now
	agent.UpdatedAt = now

	specialties, err := json.Marshal(agent.Specialties)
	if err != nil {
		specialties = []byte("[]")
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO agents (id, name, role, description, specialties, backend, status, current_task_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), agent.ID, agent.Name, agent.Role, agent.Description, string(specialties), agent.Backend, agent.Status, agent.CurrentTaskID, agent.CreatedAt, agent.UpdatedAt)

	return err
}

// GetAgent retrieves an agent by ID
func (r *Repository) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	agent, err := r.queryAgent(ctx, `WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("agent not found: %s", id)
	}
	return agent, err
}

// GetAgentByName retrieves an agent by its unique name
func (r *Repository) GetAgentByName(ctx context.Context, name string) (*models.Agent, error) {
	agent, err := r.queryAgent(ctx, `WHERE name = ?`, name)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("agent not found: %s", name)
	}
	return agent, err
}

func (r *Repository) queryAgent(ctx context.Context, where string, arg interface{}) (*models.Agent, error) {
	agent := &models.Agent{}
	var specialties string
	var currentTaskID sql.NullString
	err := r.ro.QueryRowContext(ctx, r.ro.Rebind(`
		SELECT id, name, role, description, specialties, backend, status, current_task_id, created_at, updated_at
		FROM agents `+where), arg).Scan(&agent.ID, &agent.Name, &agent.Role, &agent.Description, &specialties, &agent.Backend, &agent.Status, &currentTaskID, &agent.CreatedAt, &agent.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if currentTaskID.Valid && currentTaskID.String != "" {
		agent.CurrentTaskID = &currentTaskID.String
	}
	_ = json.Unmarshal([]byte(specialties), &agent.Specialties)
	return agent, nil
}

// UpdateAgent updates an existing agent
func (r *Repository) UpdateAgent(ctx context.Context, agent *models.Agent) error {
	agent.UpdatedAt = time.Now().UTC()

	specialties, err := json.Marshal(agent.Specialties)
	if err != nil {
		specialties = []byte("[]")
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE agents SET name = ?, role = ?, description = ?, specialties = ?, backend = ?, status = ?, current_task_id = ?, updated_at = ?
		WHERE id = ?
	`), agent.Name, agent.Role, agent.Description, string(specialties), agent.Backend, agent.Status, agent.CurrentTaskID, agent.UpdatedAt, agent.ID)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("agent not found: %s", agent.ID)
	}
	return nil
}

// DeleteAgent deletes an agent by ID
func (r *Repository) DeleteAgent(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM agents WHERE id = ?`), id)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("agent not found: %s", id)
	}
	return nil
}

// ListAgents returns all agents in creation order
func (r *Repository) ListAgents(ctx context.Context) ([]*models.Agent, error) {
	rows, err := r.ro.QueryContext(ctx, `
		SELECT id, name, role, description, specialties, backend, status, current_task_id, created_at, updated_at
		FROM agents ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []*models.Agent
	for rows.Next() {
		agent := &models.Agent{}
		var specialties string
		var currentTaskID sql.NullString
		err := rows.Scan(
			&agent.ID,
			&agent.Name,
			&agent.Role,
			&agent.Description,
			&specialties,
			&agent.Backend,
			&agent.Status,
			&currentTaskID,
			&agent.CreatedAt,
			&agent.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if currentTaskID.Valid && currentTaskID.String != "" {
			agent.CurrentTaskID = &currentTaskID.String
		}
		_ = json.Unmarshal([]byte(specialties), &agent.Specialties)
		result = append(result, agent)
	}
	return result, rows.Err()
}

// SetAgentStatus updates an agent's status and current task reference.
// A nil currentTaskID clears the reference.
func (r *Repository) SetAgentStatus(ctx context.Context, id string, status v1.AgentStatus, currentTaskID *string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE agents SET status = ?, current_task_id = ?, updated_at = ? WHERE id = ?
	`), status, currentTaskID, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("agent not found: %s", id)
	}
	return nil
}
