package documents

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (id, session_id, filename, mime, size_bytes, storage_path, status, created_at, expires_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $8)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.SessionID,
		doc.Filename,
		doc.Mime,
		doc.SizeBytes,
		doc.StoragePath,
		doc.Status,
		doc.CreatedAt,
		doc.ExpiresAt,
	)
	return err
}

// GetByID fetches a document by ID.
func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	const query = `
SELECT id, session_id, filename, mime, size_bytes, storage_path, status, COALESCE(detected_type, ''), created_at, expires_at, updated_at
FROM documents
WHERE id = $1`

	var doc Document
	err := r.DB.QueryRowContext(ctx, query, documentID).Scan(
		&doc.ID,
		&doc.SessionID,
		&doc.Filename,
		&doc.Mime,
		&doc.SizeBytes,
		&doc.StoragePath,
		&doc.Status,
		&doc.DetectedType,
		&doc.CreatedAt,
		&doc.ExpiresAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// UpdateResult records the worker outcome on the document.
func (r *PGRepo) UpdateResult(ctx context.Context, documentID, status, detectedType string) error {
	const query = `
UPDATE documents SET status = $1, detected_type = NULLIF($2, ''), updated_at = now()
WHERE id = $3`

	res, err := r.DB.ExecContext(ctx, query, status, detectedType, documentID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the document row.
func (r *PGRepo) Delete(ctx context.Context, documentID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, documentID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
