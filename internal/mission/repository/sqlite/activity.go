package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/missionctl/missionctl/internal/mission/models"
	"github.com/missionctl/missionctl/internal/tracing"
)

// CreateActivity appends an activity feed entry
func (r *Repository) CreateActivity(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO activities (id, type, message, agent_id, task_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`), activity.ID, activity.Type, activity.Message, activity.AgentID, activity.TaskID, activity.CreatedAt)

	return err
}

// ListActivities returns activity feed entries, newest first
func (r *Repository) ListActivities(ctx context.Context, opts models.ListActivitiesOptions) ([]*models.Activity, error) {
	ctx, span := tracing.Tracer("missionctl-db").Start(ctx, "db.ListActivities")
	defer span.End()

	query := `
		SELECT id, type, message, agent_id, task_id, created_at
		FROM activities`
	var args []interface{}
	if opts.TaskID != "" {
		query += ` WHERE task_id = ?`
		args = append(args, opts.TaskID)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := r.ro.QueryContext(ctx, r.ro.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var result []*models.Activity
	for rows.Next() {
		activity := &models.Activity{}
		var agentID, taskID sql.NullString
		err := rows.Scan(
			&activity.ID,
			&activity.Type,
			&activity.Message,
			&agentID,
			&taskID,
			&activity.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		if agentID.Valid && agentID.String != "" {
			activity.AgentID = &agentID.String
		}
		if taskID.Valid && taskID.String != "" {
			activity.TaskID = &taskID.String
		}
		result = append(result, activity)
	}
	return result, rows.Err()
}
