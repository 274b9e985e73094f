package extractions

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new extraction row.
func (r *PGRepo) Create(ctx context.Context, extraction Extraction) error {
	const query = `
INSERT INTO extractions (id, document_id, provider, confidence_overall, fields, insights, warnings, created_at)
VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, '[]'::jsonb), now())`

	var warnings any
	if len(extraction.Warnings) > 0 {
		warnings = []byte(extraction.Warnings)
	}

	_, err := r.DB.ExecContext(
		ctx,
		query,
		extraction.ID,
		extraction.DocumentID,
		extraction.Provider,
		extraction.ConfidenceOverall,
		[]byte(extraction.Fields),
		[]byte(extraction.Insights),
		warnings,
	)
	return err
}

// GetLatestByDocument returns the most recent extraction for a document.
func (r *PGRepo) GetLatestByDocument(ctx context.Context, documentID string) (Extraction, error) {
	const query = `
SELECT id, document_id, provider, confidence_overall, fields, insights, warnings, created_at
FROM extractions
WHERE document_id = $1
ORDER BY created_at DESC, id DESC
LIMIT 1`

	var extraction Extraction
	var fields, insights, warnings []byte
	err := r.DB.QueryRowContext(ctx, query, documentID).Scan(
		&extraction.ID,
		&extraction.DocumentID,
		&extraction.Provider,
		&extraction.ConfidenceOverall,
		&fields,
		&insights,
		&warnings,
		&extraction.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Extraction{}, ErrNotFound
		}
		return Extraction{}, err
	}
	extraction.Fields = fields
	extraction.Insights = insights
	extraction.Warnings = warnings
	return extraction, nil
}

// DeleteByDocument removes all extraction rows for a document.
func (r *PGRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM extractions WHERE document_id = $1`, documentID)
	return err
}

var _ Repo = (*PGRepo)(nil)
