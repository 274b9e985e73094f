package documents

import (
	"context"
	"errors"
	"testing"

	"cleardoc-backend/internal/audit"
	blobmemory "cleardoc-backend/internal/blob/memory"
	"cleardoc-backend/internal/extractions"
	"cleardoc-backend/internal/jobs"
)

func newTestService() (*Service, *blobmemory.Gateway, *audit.MemoryRepo) {
	gateway := blobmemory.New()
	auditRepo := audit.NewMemoryRepo()
	svc := &Service{
		Repo:        NewMemoryRepo(),
		Jobs:        jobs.NewMemoryRepo(),
		Extractions: extractions.NewMemoryRepo(),
		Blob:        gateway,
		Audit:       &audit.Recorder{Repo: auditRepo},
	}
	return svc, gateway, auditRepo
}

func TestIssueUploadCompensatesFailedHandle(t *testing.T) {
	svc, gateway, auditRepo := newTestService()
	gateway.FailIssue = errors.New("presign unavailable")

	doc, _, err := svc.IssueUpload(context.Background(), "session-1", "bill.png", "image/png", 1024)
	if err == nil {
		t.Fatalf("expected handle failure to surface")
	}
	if doc.ID != "" {
		t.Fatalf("expected zero document on failure")
	}

	// No orphan rows may survive a failed issuance.
	repo := svc.Repo.(*MemoryRepo)
	repo.mu.RLock()
	remaining := len(repo.data)
	repo.mu.RUnlock()
	if remaining != 0 {
		t.Fatalf("expected no surviving rows, found %d", remaining)
	}

	// The compensation itself is audited.
	entries := auditRepo.AllEntries()
	found := false
	for _, entry := range entries {
		if entry.Action == audit.ActionUploadCompensated {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s audit entry, got %+v", audit.ActionUploadCompensated, entries)
	}
}

func TestIssueUploadDerivesPathFromDocumentID(t *testing.T) {
	svc, _, _ := newTestService()

	doc, _, err := svc.IssueUpload(context.Background(), "session-1", "bill.png", "image/png", 1024)
	if err != nil {
		t.Fatalf("IssueUpload: %v", err)
	}
	if want := "anon/" + doc.ID + "/original.png"; doc.StoragePath != want {
		t.Fatalf("expected storage path %q, got %q", want, doc.StoragePath)
	}
}

func TestIssueUploadValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name     string
		filename string
		mime     string
		size     int64
		want     error
	}{
		{"traversal filename", "../secret.png", "image/png", 100, ErrInvalidInput},
		{"unsupported mime", "doc.txt", "text/plain", 100, ErrUnsupportedType},
		{"zero size", "a.png", "image/png", 0, ErrInvalidInput},
		{"oversized", "a.png", "image/png", maxUploadSize + 1, ErrTooLarge},
	}
	for _, tc := range cases {
		if _, _, err := svc.IssueUpload(ctx, "session-1", tc.filename, tc.mime, tc.size); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestDeleteRemovesJobsAndExtractions(t *testing.T) {
	svc, gateway, _ := newTestService()
	ctx := context.Background()

	doc, _, err := svc.IssueUpload(ctx, "session-1", "bill.png", "image/png", 1024)
	if err != nil {
		t.Fatalf("IssueUpload: %v", err)
	}
	gateway.Put(doc.StoragePath, []byte("bytes"))

	if _, _, err := svc.AdmitJob(ctx, doc.ID, "session-1"); err != nil {
		t.Fatalf("AdmitJob: %v", err)
	}
	if err := svc.Extractions.Create(ctx, extractionFor(doc.ID)); err != nil {
		t.Fatalf("seed extraction: %v", err)
	}

	if err := svc.Delete(ctx, doc.ID, "session-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := svc.Repo.GetByID(ctx, doc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected document gone, got %v", err)
	}
	if _, err := svc.Jobs.GetLatestByDocument(ctx, doc.ID, jobs.KindParse); !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("expected jobs gone, got %v", err)
	}
	if _, err := svc.Extractions.GetLatestByDocument(ctx, doc.ID); !errors.Is(err, extractions.ErrNotFound) {
		t.Fatalf("expected extractions gone, got %v", err)
	}
	if _, err := gateway.Download(ctx, doc.StoragePath); err == nil {
		t.Fatalf("expected blob gone")
	}
}

func TestGetStatusProjectsJobAndExtraction(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	doc, _, err := svc.IssueUpload(ctx, "session-1", "bill.png", "image/png", 1024)
	if err != nil {
		t.Fatalf("IssueUpload: %v", err)
	}

	status, err := svc.GetStatus(ctx, doc.ID, "session-1")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.Job != nil || status.ExtractionID != "" {
		t.Fatalf("expected bare status before admission, got %+v", status)
	}

	job, _, err := svc.AdmitJob(ctx, doc.ID, "session-1")
	if err != nil {
		t.Fatalf("AdmitJob: %v", err)
	}
	if err := svc.Extractions.Create(ctx, extractionFor(doc.ID)); err != nil {
		t.Fatalf("seed extraction: %v", err)
	}

	status, err = svc.GetStatus(ctx, doc.ID, "session-1")
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.Job == nil || status.Job.ID != job.ID {
		t.Fatalf("expected job in projection, got %+v", status.Job)
	}
	if status.ExtractionID == "" {
		t.Fatalf("expected extraction id in projection")
	}
}

func extractionFor(documentID string) extractions.Extraction {
	return extractions.Extraction{
		ID:                "ext-" + documentID,
		DocumentID:        documentID,
		Provider:          "openai",
		ConfidenceOverall: 0.95,
		Fields:            []byte(`{}`),
		Insights:          []byte(`{}`),
	}
}
