package audit

import "context"

// Repo defines persistence for audit entries.
type Repo interface {
	Append(ctx context.Context, entry Entry) error
	ListByEntity(ctx context.Context, entity, entityID string) ([]Entry, error)
}
