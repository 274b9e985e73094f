package audit

import (
	"context"
	"database/sql"
	"encoding/json"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Append inserts an audit entry.
func (r *PGRepo) Append(ctx context.Context, entry Entry) error {
	const query = `
INSERT INTO audit_logs (action, entity, entity_id, user_identifier, meta, created_at)
VALUES ($1, $2, $3, NULLIF($4, ''), $5, now())`

	var meta []byte
	if entry.Meta != nil {
		encoded, err := json.Marshal(entry.Meta)
		if err != nil {
			return err
		}
		meta = encoded
	}

	_, err := r.DB.ExecContext(ctx, query, entry.Action, entry.Entity, entry.EntityID, entry.UserIdentifier, meta)
	return err
}

// ListByEntity returns entries for an entity, oldest first.
func (r *PGRepo) ListByEntity(ctx context.Context, entity, entityID string) ([]Entry, error) {
	const query = `
SELECT id, action, entity, entity_id, COALESCE(user_identifier, ''), meta, created_at
FROM audit_logs
WHERE entity = $1 AND entity_id = $2
ORDER BY id`

	rows, err := r.DB.QueryContext(ctx, query, entity, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var meta []byte
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.Entity, &entry.EntityID, &entry.UserIdentifier, &meta, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &entry.Meta); err != nil {
				return nil, err
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

var _ Repo = (*PGRepo)(nil)
