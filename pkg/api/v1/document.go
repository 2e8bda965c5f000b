package v1

import "time"

// DocumentType categorizes stored documents
type DocumentType string

const (
	DocumentTypeDeliverable DocumentType = "DELIVERABLE"
	DocumentTypeNote        DocumentType = "NOTE"
)

// Document represents a stored document, such as a task deliverable
type Document struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Content       string       `json:"content"`
	Type          DocumentType `json:"type"`
	AuthorAgentID *string      `json:"author_agent_id,omitempty"`
	TaskID        *string      `json:"task_id,omitempty"`
	Tags          []string     `json:"tags,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// CreateDocumentRequest for saving a document directly
type CreateDocumentRequest struct {
	Title   string       `json:"title" binding:"required,max=500"`
	Content string       `json:"content" binding:"required"`
	Type    DocumentType `json:"type,omitempty" binding:"omitempty,oneof=DELIVERABLE NOTE"`
	TaskID  *string      `json:"task_id,omitempty"`
	Tags    []string     `json:"tags,omitempty"`
}

// ListDocumentsResponse wraps a document collection
type ListDocumentsResponse struct {
	Documents []Document `json:"documents"`
	Total     int        `json:"total"`
}
