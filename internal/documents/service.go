package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cleardoc-backend/internal/audit"
	"cleardoc-backend/internal/blob"
	"cleardoc-backend/internal/extractions"
	"cleardoc-backend/internal/jobs"
	"cleardoc-backend/internal/shared/telemetry"
	"cleardoc-backend/internal/shared/util"
)

// Notifier hints the dispatcher that new work exists. Delivery is
// best-effort; the periodic poll picks up anything missed.
type Notifier interface {
	Wake()
}

// Service contains business logic for documents.
type Service struct {
	Repo        Repo
	Jobs        jobs.Repo
	Extractions extractions.Repo
	Blob        blob.Gateway
	Audit       *audit.Recorder
	Notify      Notifier
}

// IssueUpload reserves a document row and returns a pre-authorized upload
// handle. If the handle cannot be issued the row is compensated away so no
// orphan metadata survives.
func (s *Service) IssueUpload(ctx context.Context, sessionID, filename, mime string, sizeBytes int64) (Document, blob.UploadHandle, error) {
	if sessionID == "" {
		return Document{}, blob.UploadHandle{}, ErrInvalidInput
	}
	sanitized, err := util.SanitizeFileName(filename)
	if err != nil {
		return Document{}, blob.UploadHandle{}, ErrInvalidInput
	}
	ext, ok := allowedMimes[mime]
	if !ok {
		return Document{}, blob.UploadHandle{}, ErrUnsupportedType
	}
	if sizeBytes <= 0 {
		return Document{}, blob.UploadHandle{}, ErrInvalidInput
	}
	if sizeBytes > maxUploadSize {
		return Document{}, blob.UploadHandle{}, ErrTooLarge
	}

	now := time.Now().UTC()
	documentID := uuid.NewString()
	doc := Document{
		ID:          documentID,
		SessionID:   sessionID,
		Filename:    sanitized,
		Mime:        mime,
		SizeBytes:   sizeBytes,
		StoragePath: fmt.Sprintf("anon/%s/original%s", documentID, ext),
		Status:      StatusQueued,
		CreatedAt:   now,
		ExpiresAt:   now.Add(retention),
		UpdatedAt:   now,
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, blob.UploadHandle{}, err
	}

	handle, err := s.Blob.IssueUploadHandle(ctx, doc.StoragePath, mime, sizeBytes)
	if err != nil {
		// Compensate: the row must not outlive a failed handle issuance.
		if delErr := s.Repo.Delete(ctx, doc.ID); delErr != nil {
			telemetry.Error("upload compensation failed", map[string]any{
				"document_id": doc.ID,
				"error":       delErr.Error(),
			})
		}
		s.Audit.Record(ctx, audit.ActionUploadCompensated, "document", doc.ID, util.HashSessionKey(sessionID), map[string]any{
			"reason": err.Error(),
		})
		return Document{}, blob.UploadHandle{}, err
	}

	s.Audit.Record(ctx, audit.ActionDocumentCreated, "document", doc.ID, util.HashSessionKey(sessionID), map[string]any{
		"filename":  doc.Filename,
		"mime":      doc.Mime,
		"sizeBytes": doc.SizeBytes,
	})
	return doc, handle, nil
}

// AdmitJob enqueues processing for the document. Admission is idempotent:
// while a parse job is queued or running, repeated calls return it.
func (s *Service) AdmitJob(ctx context.Context, documentID, sessionID string) (jobs.Job, bool, error) {
	doc, err := s.authorize(ctx, documentID, sessionID)
	if err != nil {
		return jobs.Job{}, false, err
	}

	job, created, err := s.Jobs.GetOrCreateForDocument(ctx, jobs.Job{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		Kind:       jobs.KindParse,
	})
	if err != nil {
		return jobs.Job{}, false, err
	}

	if created {
		s.Audit.Record(ctx, audit.ActionJobEnqueued, "job", job.ID, util.HashSessionKey(sessionID), map[string]any{
			"documentId": doc.ID,
		})
		if s.Notify != nil {
			s.Notify.Wake()
		}
	}
	return job, created, nil
}

// JobView is the job portion of the status projection.
type JobView struct {
	ID        string
	Status    string
	Error     string
	Attempts  int
	UpdatedAt time.Time
}

// Status is the polling projection for a document.
type Status struct {
	DocumentID   string
	Filename     string
	Status       string
	DetectedType string
	CreatedAt    time.Time
	ExpiresAt    time.Time
	Job          *JobView
	ExtractionID string
}

// GetStatus returns the combined document, job, and extraction state.
func (s *Service) GetStatus(ctx context.Context, documentID, sessionID string) (Status, error) {
	doc, err := s.authorize(ctx, documentID, sessionID)
	if err != nil {
		return Status{}, err
	}

	status := Status{
		DocumentID:   doc.ID,
		Filename:     doc.Filename,
		Status:       doc.Status,
		DetectedType: doc.DetectedType,
		CreatedAt:    doc.CreatedAt,
		ExpiresAt:    doc.ExpiresAt,
	}

	job, err := s.Jobs.GetLatestByDocument(ctx, doc.ID, jobs.KindParse)
	if err == nil {
		status.Job = &JobView{
			ID:        job.ID,
			Status:    job.Status,
			Error:     job.Error,
			Attempts:  job.Attempts,
			UpdatedAt: job.UpdatedAt,
		}
	} else if !errors.Is(err, jobs.ErrNotFound) {
		return Status{}, err
	}

	extraction, err := s.Extractions.GetLatestByDocument(ctx, doc.ID)
	if err == nil {
		status.ExtractionID = extraction.ID
	} else if !errors.Is(err, extractions.ErrNotFound) {
		return Status{}, err
	}

	return status, nil
}

// GetExtraction returns the latest extraction for the document.
func (s *Service) GetExtraction(ctx context.Context, documentID, sessionID string) (extractions.Extraction, error) {
	doc, err := s.authorize(ctx, documentID, sessionID)
	if err != nil {
		return extractions.Extraction{}, err
	}
	return s.Extractions.GetLatestByDocument(ctx, doc.ID)
}

// Delete removes the document and everything derived from it. The blob
// delete is best-effort; metadata removal is what revokes access.
func (s *Service) Delete(ctx context.Context, documentID, sessionID string) error {
	doc, err := s.authorize(ctx, documentID, sessionID)
	if err != nil {
		return err
	}

	if err := s.Blob.Delete(ctx, doc.StoragePath); err != nil {
		telemetry.Error("blob delete failed", map[string]any{
			"document_id":  doc.ID,
			"storage_path": doc.StoragePath,
			"error":        err.Error(),
		})
	}

	if err := s.Extractions.DeleteByDocument(ctx, doc.ID); err != nil {
		return err
	}
	if err := s.Jobs.DeleteByDocument(ctx, doc.ID); err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, doc.ID); err != nil {
		return err
	}

	s.Audit.Record(ctx, audit.ActionDocumentDeleted, "document", doc.ID, util.HashSessionKey(sessionID), nil)
	return nil
}

func (s *Service) authorize(ctx context.Context, documentID, sessionID string) (Document, error) {
	if documentID == "" || sessionID == "" {
		return Document{}, ErrInvalidInput
	}
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return Document{}, err
	}
	if doc.SessionID != sessionID {
		return Document{}, ErrSessionMismatch
	}
	return doc, nil
}
