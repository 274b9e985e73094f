package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const jobColumns = `id, document_id, kind, status, COALESCE(error, ''), result, attempts, next_run_at, created_at, updated_at`

// GetOrCreateForDocument serializes per-document via FOR UPDATE on the
// document row, then reuses any live job or inserts a queued one. The
// partial unique index on (document_id, kind) backstops concurrent inserts.
func (r *PGRepo) GetOrCreateForDocument(ctx context.Context, job Job) (Job, bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return Job{}, false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT id FROM documents WHERE id = $1 FOR UPDATE`, job.DocumentID); err != nil {
		return Job{}, false, err
	}

	existing, err := scanJob(tx.QueryRowContext(ctx, `
SELECT `+jobColumns+`
FROM jobs
WHERE document_id = $1 AND kind = $2 AND status IN ($3, $4)
LIMIT 1`, job.DocumentID, job.Kind, StatusQueued, StatusRunning))
	if err == nil {
		if err := tx.Commit(); err != nil {
			return Job{}, false, err
		}
		return existing, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Job{}, false, err
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
INSERT INTO jobs (id, document_id, kind, status, attempts, next_run_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, 0, $5, $5, $5)`,
		job.ID, job.DocumentID, job.Kind, StatusQueued, now); err != nil {
		return Job{}, false, err
	}
	if err := tx.Commit(); err != nil {
		return Job{}, false, err
	}

	job.Status = StatusQueued
	job.Attempts = 0
	job.NextRunAt = now
	job.CreatedAt = now
	job.UpdatedAt = now
	return job, true, nil
}

// GetLatestByDocument returns the most recent job of the kind for a document.
func (r *PGRepo) GetLatestByDocument(ctx context.Context, documentID, kind string) (Job, error) {
	job, err := scanJob(r.DB.QueryRowContext(ctx, `
SELECT `+jobColumns+`
FROM jobs
WHERE document_id = $1 AND kind = $2
ORDER BY created_at DESC
LIMIT 1`, documentID, kind))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Job{}, ErrNotFound
		}
		return Job{}, err
	}
	return job, nil
}

// ClaimQueued flips queued, runnable jobs to running in one statement.
// SKIP LOCKED keeps concurrent dispatchers from claiming the same rows.
func (r *PGRepo) ClaimQueued(ctx context.Context, limit int, now time.Time) ([]Job, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := r.DB.QueryContext(ctx, `
UPDATE jobs
SET status = $1, attempts = attempts + 1, updated_at = now()
WHERE id IN (
    SELECT id FROM jobs
    WHERE status = $2 AND next_run_at <= $3
    ORDER BY created_at
    LIMIT $4
    FOR UPDATE SKIP LOCKED
)
RETURNING `+jobColumns, StatusRunning, StatusQueued, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claimed []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		claimed = append(claimed, job)
	}
	return claimed, rows.Err()
}

// MarkDone records success and the job result.
func (r *PGRepo) MarkDone(ctx context.Context, jobID string, result json.RawMessage) error {
	res, err := r.DB.ExecContext(ctx, `
UPDATE jobs SET status = $1, result = $2, error = NULL, updated_at = now()
WHERE id = $3`, StatusDone, []byte(result), jobID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// MarkError records a terminal failure with the message captured verbatim.
func (r *PGRepo) MarkError(ctx context.Context, jobID, message string) error {
	res, err := r.DB.ExecContext(ctx, `
UPDATE jobs SET status = $1, error = $2, updated_at = now()
WHERE id = $3`, StatusError, message, jobID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Requeue returns a running job to the queue for a later attempt.
func (r *PGRepo) Requeue(ctx context.Context, jobID, message string, nextRunAt time.Time) error {
	res, err := r.DB.ExecContext(ctx, `
UPDATE jobs SET status = $1, error = $2, next_run_at = $3, updated_at = now()
WHERE id = $4`, StatusQueued, message, nextRunAt, jobID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ReclaimStale requeues running jobs that have not been touched since cutoff.
func (r *PGRepo) ReclaimStale(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.DB.ExecContext(ctx, `
UPDATE jobs SET status = $1, error = 'reclaimed from stale worker', next_run_at = now(), updated_at = now()
WHERE status = $2 AND updated_at < $3`, StatusQueued, StatusRunning, cutoff)
	if err != nil {
		return 0, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// DeleteByDocument removes all jobs for a document.
func (r *PGRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM jobs WHERE document_id = $1`, documentID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (Job, error) {
	var job Job
	var result []byte
	if err := row.Scan(
		&job.ID,
		&job.DocumentID,
		&job.Kind,
		&job.Status,
		&job.Error,
		&result,
		&job.Attempts,
		&job.NextRunAt,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return Job{}, err
	}
	job.Result = result
	return job, nil
}

func requireRow(res sql.Result) error {
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
