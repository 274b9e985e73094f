package extractions

import "context"

// Repo defines persistence operations for extractions.
type Repo interface {
	Create(ctx context.Context, extraction Extraction) error
	GetLatestByDocument(ctx context.Context, documentID string) (Extraction, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}
