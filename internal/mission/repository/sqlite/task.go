package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/missionctl/missionctl/internal/mission/models"
	"github.com/missionctl/missionctl/internal/tracing"
	v1 "github.com/missionctl/missionctl/pkg/api/v1"
)

// CreateTask creates a new task
func (r *Repository) CreateTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	metadata, err := json.Marshal(task.Metadata)
	if err != nil {
		metadata = []byte("{}")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO tasks (id, title, description, status, priority, assigned_agent_id, metadata, created_at, updated_at, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), task.ID, task.Title, task.Description, task.Status, task.Priority, task.AssignedAgentID, string(metadata), task.CreatedAt, task.UpdatedAt, task.StartedAt, task.CompletedAt)
	if err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("failed to rollback task insert: %w", rollbackErr)
		}
		return err
	}

	return tx.Commit()
}

// GetTask retrieves a task by ID
func (r *Repository) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task := &models.Task{}
	var metadata string
	var assignedAgentID sql.NullString
	var startedAt, completedAt sql.NullTime
	err := r.ro.QueryRowContext(ctx, r.ro.Rebind(`
		SELECT id, title, description, status, priority, assigned_agent_id, metadata, created_at, updated_at, started_at, completed_at
		FROM tasks WHERE id = ?
	`), id).Scan(&task.ID, &task.Title, &task.Description, &task.Status, &task.Priority, &assignedAgentID, &metadata, &task.CreatedAt, &task.UpdatedAt, &startedAt, &completedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("task not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	if assignedAgentID.Valid && assignedAgentID.String != "" {
		task.AssignedAgentID = &assignedAgentID.String
	}
	if startedAt.Valid {
		task.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		task.CompletedAt = &completedAt.Time
	}
	_ = json.Unmarshal([]byte(metadata), &task.Metadata)
	return task, nil
}

// UpdateTask updates an existing task
func (r *Repository) UpdateTask(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()

	metadata, err := json.Marshal(task.Metadata)
	if err != nil {
		metadata = []byte("{}")
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, assigned_agent_id = ?, metadata = ?, updated_at = ?, started_at = ?, completed_at = ?
		WHERE id = ?
	`), task.Title, task.Description, task.Status, task.Priority, task.AssignedAgentID, string(metadata), task.UpdatedAt, task.StartedAt, task.CompletedAt, task.ID)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task not found: %s", task.ID)
	}
	return nil
}

// DeleteTask deletes a task by ID
func (r *Repository) DeleteTask(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM tasks WHERE id = ?`), id)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task not found: %s", id)
	}
	return nil
}

// ListTasks returns all tasks, newest first
func (r *Repository) ListTasks(ctx context.Context) ([]*models.Task, error) {
	ctx, span := tracing.Tracer("missionctl-db").Start(ctx, "db.ListTasks")
	defer span.End()
	rows, err := r.ro.QueryContext(ctx, `
		SELECT id, title, description, status, priority, assigned_agent_id, metadata, created_at, updated_at, started_at, completed_at
		FROM tasks
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return r.scanTasks(rows)
}

// ListTasksByStatus returns all tasks with the given status, newest first
func (r *Repository) ListTasksByStatus(ctx context.Context, status v1.TaskStatus) ([]*models.Task, error) {
	rows, err := r.ro.QueryContext(ctx, r.ro.Rebind(`
		SELECT id, title, description, status, priority, assigned_agent_id, metadata, created_at, updated_at, started_at, completed_at
		FROM tasks
		WHERE status = ? ORDER BY created_at DESC
	`), status)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return r.scanTasks(rows)
}

// UpdateTaskStatus updates the status of a task. A non-nil agentID also
// updates the agent assignment; nil leaves it untouched. Start and
// completion timestamps are stamped on the matching transitions.
func (r *Repository) UpdateTaskStatus(ctx context.Context, id string, status v1.TaskStatus, agentID *string) error {
	now := time.Now().UTC()
	query := `UPDATE tasks SET status = ?, updated_at = ?`
	args := []interface{}{status, now}
	if agentID != nil {
		query += `, assigned_agent_id = ?`
		args = append(args, *agentID)
	}
	switch status {
	case v1.TaskStatusInProgress:
		query += `, started_at = ?`
		args = append(args, now)
	case v1.TaskStatusDone:
		query += `, completed_at = ?`
		args = append(args, now)
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("task not found: %s", id)
	}
	return nil
}

// scanTasks is a helper to scan task rows
func (r *Repository) scanTasks(rows *sql.Rows) ([]*models.Task, error) {
	var result []*models.Task
	for rows.Next() {
		task := &models.Task{}
		var metadata string
		var assignedAgentID sql.NullString
		var startedAt, completedAt sql.NullTime
		err := rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.Status,
			&task.Priority,
			&assignedAgentID,
			&metadata,
			&task.CreatedAt,
			&task.UpdatedAt,
			&startedAt,
			&completedAt,
		)
		if err != nil {
			return nil, err
		}
		if assignedAgentID.Valid && assignedAgentID.String != "" {
			task.AssignedAgentID = &assignedAgentID.String
		}
		if startedAt.Valid {
			task.StartedAt = &startedAt.Time
		}
		if completedAt.Valid {
			task.CompletedAt = &completedAt.Time
		}
		_ = json.Unmarshal([]byte(metadata), &task.Metadata)
		result = append(result, task)
	}
	return result, rows.Err()
}
