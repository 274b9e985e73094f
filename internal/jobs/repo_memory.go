package jobs

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo. Claim semantics match
// the Postgres repo: a job is handed to exactly one caller.
type MemoryRepo struct {
	mu   sync.Mutex
	data map[string]*Job // jobID -> job
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string]*Job)}
}

func (r *MemoryRepo) GetOrCreateForDocument(ctx context.Context, job Job) (Job, bool, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.data {
		if existing.DocumentID == job.DocumentID && existing.Kind == job.Kind &&
			(existing.Status == StatusQueued || existing.Status == StatusRunning) {
			return *existing, false, nil
		}
	}

	now := time.Now().UTC()
	job.Status = StatusQueued
	job.Attempts = 0
	job.NextRunAt = now
	job.CreatedAt = now
	job.UpdatedAt = now
	stored := job
	r.data[job.ID] = &stored
	return job, true, nil
}

func (r *MemoryRepo) GetLatestByDocument(ctx context.Context, documentID, kind string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *Job
	for _, job := range r.data {
		if job.DocumentID != documentID || job.Kind != kind {
			continue
		}
		if latest == nil || job.CreatedAt.After(latest.CreatedAt) {
			latest = job
		}
	}
	if latest == nil {
		return Job{}, ErrNotFound
	}
	return *latest, nil
}

func (r *MemoryRepo) ClaimQueued(ctx context.Context, limit int, now time.Time) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var runnable []*Job
	for _, job := range r.data {
		if job.Status == StatusQueued && !job.NextRunAt.After(now) {
			runnable = append(runnable, job)
		}
	}
	sort.Slice(runnable, func(i, j int) bool {
		return runnable[i].CreatedAt.Before(runnable[j].CreatedAt)
	})
	if len(runnable) > limit {
		runnable = runnable[:limit]
	}

	claimed := make([]Job, 0, len(runnable))
	for _, job := range runnable {
		job.Status = StatusRunning
		job.Attempts++
		job.UpdatedAt = now
		claimed = append(claimed, *job)
	}
	return claimed, nil
}

func (r *MemoryRepo) MarkDone(ctx context.Context, jobID string, result json.RawMessage) error {
	return r.update(ctx, jobID, func(job *Job) {
		job.Status = StatusDone
		job.Result = result
		job.Error = ""
	})
}

func (r *MemoryRepo) MarkError(ctx context.Context, jobID, message string) error {
	return r.update(ctx, jobID, func(job *Job) {
		job.Status = StatusError
		job.Error = message
	})
}

func (r *MemoryRepo) Requeue(ctx context.Context, jobID, message string, nextRunAt time.Time) error {
	return r.update(ctx, jobID, func(job *Job) {
		job.Status = StatusQueued
		job.Error = message
		job.NextRunAt = nextRunAt
	})
}

func (r *MemoryRepo) ReclaimStale(ctx context.Context, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, job := range r.data {
		if job.Status == StatusRunning && job.UpdatedAt.Before(cutoff) {
			job.Status = StatusQueued
			job.Error = "reclaimed from stale worker"
			job.NextRunAt = time.Now().UTC()
			job.UpdatedAt = time.Now().UTC()
			count++
		}
	}
	return count, nil
}

func (r *MemoryRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, job := range r.data {
		if job.DocumentID == documentID {
			delete(r.data, id)
		}
	}
	return nil
}

func (r *MemoryRepo) update(ctx context.Context, jobID string, apply func(*Job)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.data[jobID]
	if !ok {
		return ErrNotFound
	}
	apply(job)
	job.UpdatedAt = time.Now().UTC()
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
