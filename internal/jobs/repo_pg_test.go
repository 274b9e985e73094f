package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoClaimQueuedIncrementsAttempts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	columns := []string{"id", "document_id", "kind", "status", "error", "result", "attempts", "next_run_at", "created_at", "updated_at"}
	rows := sqlmock.NewRows(columns).
		AddRow("job-1", "doc-1", KindParse, StatusRunning, "", nil, 1, now, now.Add(-time.Minute), now).
		AddRow("job-2", "doc-2", KindParse, StatusRunning, "", nil, 2, now, now.Add(-30*time.Second), now)

	mock.ExpectQuery("UPDATE jobs").
		WithArgs(StatusRunning, StatusQueued, now, 5).
		WillReturnRows(rows)

	claimed, err := repo.ClaimQueued(context.Background(), 5, now)
	if err != nil {
		t.Fatalf("ClaimQueued: %v", err)
	}
	if len(claimed) != 2 {
		t.Fatalf("expected 2 claimed jobs, got %d", len(claimed))
	}
	if claimed[0].ID != "job-1" || claimed[0].Status != StatusRunning || claimed[0].Attempts != 1 {
		t.Fatalf("unexpected first claim: %+v", claimed[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetOrCreateReusesLiveJob(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec("SELECT id FROM documents").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	columns := []string{"id", "document_id", "kind", "status", "error", "result", "attempts", "next_run_at", "created_at", "updated_at"}
	mock.ExpectQuery("FROM jobs").
		WithArgs("doc-1", KindParse, StatusQueued, StatusRunning).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("job-live", "doc-1", KindParse, StatusQueued, "", nil, 0, now, now, now))
	mock.ExpectCommit()

	job, created, err := repo.GetOrCreateForDocument(context.Background(), Job{ID: "job-new", DocumentID: "doc-1", Kind: KindParse})
	if err != nil {
		t.Fatalf("GetOrCreateForDocument: %v", err)
	}
	if created {
		t.Fatalf("expected existing job to be reused")
	}
	if job.ID != "job-live" {
		t.Fatalf("expected job-live, got %q", job.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoMarkErrorMissingJob(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE jobs").
		WithArgs(StatusError, "boom", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.MarkError(context.Background(), "missing", "boom"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestBackoffForDoublesPerAttempt(t *testing.T) {
	cases := map[int]time.Duration{
		1: 30 * time.Second,
		2: 60 * time.Second,
		3: 120 * time.Second,
	}
	for attempts, want := range cases {
		if got := BackoffFor(attempts); got != want {
			t.Fatalf("BackoffFor(%d) = %s, want %s", attempts, got, want)
		}
	}
}
