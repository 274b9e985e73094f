package documents

import "context"

// Repo defines persistence operations for documents.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, documentID string) (Document, error)

	// UpdateResult records the worker outcome on the document.
	UpdateResult(ctx context.Context, documentID, status, detectedType string) error

	Delete(ctx context.Context, documentID string) error
}
