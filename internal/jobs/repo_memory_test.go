package jobs

import (
	"context"
	"testing"
	"time"
)

func TestMemoryClaimHandsJobToOneCaller(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	job, created, err := repo.GetOrCreateForDocument(ctx, Job{ID: "job-1", DocumentID: "doc-1", Kind: KindParse})
	if err != nil || !created {
		t.Fatalf("GetOrCreateForDocument: created=%v err=%v", created, err)
	}

	first, err := repo.ClaimQueued(ctx, 10, time.Now().UTC())
	if err != nil {
		t.Fatalf("ClaimQueued: %v", err)
	}
	if len(first) != 1 || first[0].ID != job.ID || first[0].Attempts != 1 {
		t.Fatalf("unexpected first claim: %+v", first)
	}

	second, err := repo.ClaimQueued(ctx, 10, time.Now().UTC())
	if err != nil {
		t.Fatalf("ClaimQueued: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("running job must not be claimed twice: %+v", second)
	}
}

func TestMemoryClaimRespectsNextRunAt(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	if _, _, err := repo.GetOrCreateForDocument(ctx, Job{ID: "job-1", DocumentID: "doc-1", Kind: KindParse}); err != nil {
		t.Fatalf("GetOrCreateForDocument: %v", err)
	}
	if err := repo.Requeue(ctx, "job-1", "backoff", time.Now().UTC().Add(time.Minute)); err != nil {
		t.Fatalf("Requeue: %v", err)
	}

	claimed, err := repo.ClaimQueued(ctx, 10, time.Now().UTC())
	if err != nil {
		t.Fatalf("ClaimQueued: %v", err)
	}
	if len(claimed) != 0 {
		t.Fatalf("backed-off job must wait, got %+v", claimed)
	}

	claimed, err = repo.ClaimQueued(ctx, 10, time.Now().UTC().Add(2*time.Minute))
	if err != nil {
		t.Fatalf("ClaimQueued: %v", err)
	}
	if len(claimed) != 1 {
		t.Fatalf("expected claim after backoff, got %+v", claimed)
	}
}

func TestMemoryReclaimStale(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	if _, _, err := repo.GetOrCreateForDocument(ctx, Job{ID: "job-1", DocumentID: "doc-1", Kind: KindParse}); err != nil {
		t.Fatalf("GetOrCreateForDocument: %v", err)
	}
	if _, err := repo.ClaimQueued(ctx, 1, time.Now().UTC()); err != nil {
		t.Fatalf("ClaimQueued: %v", err)
	}

	// A fresh running job is not stale.
	count, err := repo.ReclaimStale(ctx, time.Now().UTC().Add(-StaleRunningAfter))
	if err != nil {
		t.Fatalf("ReclaimStale: %v", err)
	}
	if count != 0 {
		t.Fatalf("fresh running job reclaimed: %d", count)
	}

	count, err = repo.ReclaimStale(ctx, time.Now().UTC().Add(time.Second))
	if err != nil {
		t.Fatalf("ReclaimStale: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one reclaimed job, got %d", count)
	}

	job, err := repo.GetLatestByDocument(ctx, "doc-1", KindParse)
	if err != nil {
		t.Fatalf("GetLatestByDocument: %v", err)
	}
	if job.Status != StatusQueued {
		t.Fatalf("reclaimed job must be queued, got %q", job.Status)
	}
}

func TestGetOrCreateReusesLiveJob(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	first, created, err := repo.GetOrCreateForDocument(ctx, Job{ID: "job-1", DocumentID: "doc-1", Kind: KindParse})
	if err != nil || !created {
		t.Fatalf("first: created=%v err=%v", created, err)
	}
	second, created, err := repo.GetOrCreateForDocument(ctx, Job{ID: "job-2", DocumentID: "doc-1", Kind: KindParse})
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if created || second.ID != first.ID {
		t.Fatalf("expected live job reuse, got created=%v id=%s", created, second.ID)
	}

	// A terminal job does not block a new one.
	if err := repo.MarkError(ctx, first.ID, "boom"); err != nil {
		t.Fatalf("MarkError: %v", err)
	}
	third, created, err := repo.GetOrCreateForDocument(ctx, Job{ID: "job-3", DocumentID: "doc-1", Kind: KindParse})
	if err != nil || !created || third.ID != "job-3" {
		t.Fatalf("expected fresh job after terminal, got created=%v id=%s err=%v", created, third.ID, err)
	}
}
