package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/missionctl/missionctl/internal/mission/models"
)

// CreateDocument creates a new document
func (r *Repository) CreateDocument(ctx context.Context, document *models.Document) error {
	if document.ID == "" {
		document.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	document.CreatedAt = now
	document.UpdatedAt = now

	tags, err := json.Marshal(document.Tags)
	if err != nil {
		tags = []byte("[]")
	}

	_, err = r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO documents (id, title, content, type, author_agent_id, task_id, tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), document.ID, document.Title, document.Content, document.Type, document.AuthorAgentID, document.TaskID, string(tags), document.CreatedAt, document.UpdatedAt)

	return err
}

// GetDocument retrieves a document by ID
func (r *Repository) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	document := &models.Document{}
	var tags string
	var authorAgentID, taskID sql.NullString
	err := r.ro.QueryRowContext(ctx, r.ro.Rebind(`
		SELECT id, title, content, type, author_agent_id, task_id, tags, created_at, updated_at
		FROM documents WHERE id = ?
	`), id).Scan(&document.ID, &document.Title, &document.Content, &document.Type, &authorAgentID, &taskID, &tags, &document.CreatedAt, &document.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	if authorAgentID.Valid && authorAgentID.String != "" {
		document.AuthorAgentID = &authorAgentID.String
	}
	if taskID.Valid && taskID.String != "" {
		document.TaskID = &taskID.String
	}
	_ = json.Unmarshal([]byte(tags), &document.Tags)
	return document, nil
}

// UpdateDocument updates an existing document
func (r *Repository) UpdateDocument(ctx context.Context, document *models.Document) error {
	document.UpdatedAt = time.Now().UTC()

	tags, err := json.Marshal(document.Tags)
	if err != nil {
		tags = []byte("[]")
	}

	result, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE documents SET title = ?, content = ?, type = ?, author_agent_id = ?, task_id = ?, tags = ?, updated_at = ?
		WHERE id = ?
	`), document.Title, document.Content, document.Type, document.AuthorAgentID, document.TaskID, string(tags), document.UpdatedAt, document.ID)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("document not found: %s", document.ID)
	}
	return nil
}

// DeleteDocument deletes a document by ID
func (r *Repository) DeleteDocument(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM documents WHERE id = ?`), id)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("document not found: %s", id)
	}
	return nil
}

// ListDocuments returns all documents, newest first
func (r *Repository) ListDocuments(ctx context.Context) ([]*models.Document, error) {
	rows, err := r.ro.QueryContext(ctx, `
		SELECT id, title, content, type, author_agent_id, task_id, tags, created_at, updated_at
		FROM documents ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return r.scanDocuments(rows)
}

// ListDocumentsByTask returns all documents linked to a task, newest first
func (r *Repository) ListDocumentsByTask(ctx context.Context, taskID string) ([]*models.Document, error) {
	rows, err := r.ro.QueryContext(ctx, r.ro.Rebind(`
		SELECT id, title, content, type, author_agent_id, task_id, tags, created_at, updated_at
		FROM documents WHERE task_id = ? ORDER BY created_at DESC, id DESC
	`), taskID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return r.scanDocuments(rows)
}

func (r *Repository) scanDocuments(rows *sql.Rows) ([]*models.Document, error) {
	var result []*models.Document
	for rows.Next() {
		document := &models.Document{}
		var tags string
		var authorAgentID, taskID sql.NullString
		err := rows.Scan(
			&document.ID,
			&document.Title,
			&document.Content,
			&document.Type,
			&authorAgentID,
			&taskID,
			&tags,
			&document.CreatedAt,
			&document.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if authorAgentID.Valid && authorAgentID.String != "" {
			document.AuthorAgentID = &authorAgentID.String
		}
		if taskID.Valid && taskID.String != "" {
			document.TaskID = &taskID.String
		}
		_ = json.Unmarshal([]byte(tags), &document.Tags)
		result = append(result, document)
	}
	return result, rows.Err()
}
