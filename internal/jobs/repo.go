package jobs

import (
	"context"
	"encoding/json"
	"time"
)

// Repo defines persistence operations for jobs.
type Repo interface {
	// GetOrCreateForDocument returns the live job for (document, kind) or
	// creates a queued one. The second return reports whether a row was
	// created. Terminal jobs do not block re-admission.
	GetOrCreateForDocument(ctx context.Context, job Job) (Job, bool, error)

	// GetLatestByDocument returns the most recent job of the kind for the
	// document, regardless of status.
	GetLatestByDocument(ctx context.Context, documentID, kind string) (Job, error)

	// ClaimQueued atomically flips up to limit runnable queued jobs to
	// running and returns them, oldest first. Claiming increments the
	// attempt counter.
	ClaimQueued(ctx context.Context, limit int, now time.Time) ([]Job, error)

	MarkDone(ctx context.Context, jobID string, result json.RawMessage) error
	MarkError(ctx context.Context, jobID, message string) error

	// Requeue returns a running job to the queue with a message and a
	// not-before time.
	Requeue(ctx context.Context, jobID, message string, nextRunAt time.Time) error

	// ReclaimStale requeues running jobs last touched before cutoff and
	// returns how many were reclaimed.
	ReclaimStale(ctx context.Context, cutoff time.Time) (int, error)

	DeleteByDocument(ctx context.Context, documentID string) error
}
