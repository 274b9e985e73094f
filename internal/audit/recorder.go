package audit

import (
	"context"

	"cleardoc-backend/internal/shared/telemetry"
)

// Recorder writes audit entries best-effort. A failed audit write never
// fails the operation being audited.
type Recorder struct {
	Repo Repo
}

// Record appends an entry, logging and swallowing any error.
func (r *Recorder) Record(ctx context.Context, action, entity, entityID, userIdentifier string, meta map[string]any) {
	if r == nil || r.Repo == nil {
		return
	}
	entry := Entry{
		Action:         action,
		Entity:         entity,
		EntityID:       entityID,
		UserIdentifier: userIdentifier,
		Meta:           meta,
	}
	if err := r.Repo.Append(ctx, entry); err != nil {
		telemetry.Error("audit append failed", map[string]any{
			"action":    action,
			"entity":    entity,
			"entity_id": entityID,
			"error":     err.Error(),
		})
	}
}
