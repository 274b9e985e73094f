package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cleardoc-backend/internal/audit"
	"cleardoc-backend/internal/blob"
	"cleardoc-backend/internal/documents"
	"cleardoc-backend/internal/extract"
	"cleardoc-backend/internal/extractions"
	"cleardoc-backend/internal/jobs"
	"cleardoc-backend/internal/llm"
	"cleardoc-backend/internal/shared/metrics"
	"cleardoc-backend/internal/shared/telemetry"

	"github.com/google/uuid"
)

const (
	defaultBatchSize = 5
	downloadTimeout  = 30 * time.Second
)

// Service claims queued jobs and runs the extraction pipeline on each.
// Both the worker loop and the HTTP trigger endpoint share it.
type Service struct {
	Jobs        jobs.Repo
	Docs        documents.Repo
	Extractions extractions.Repo
	Blob        blob.Gateway
	Engine      *extract.Engine
	Audit       *audit.Recorder
	Provider    string
	Batch       int
}

// JobResult reports the outcome of one processed job.
type JobResult struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// CycleResult summarizes one dispatch cycle.
type CycleResult struct {
	Processed int         `json:"processed"`
	Reclaimed int         `json:"reclaimed"`
	Results   []JobResult `json:"results"`
}

// RunCycle reclaims stale work, claims a batch, and processes it
// sequentially. A failing job never aborts the rest of the batch.
func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	result := CycleResult{Results: []JobResult{}}

	reclaimed, err := s.Jobs.ReclaimStale(ctx, time.Now().UTC().Add(-jobs.StaleRunningAfter))
	if err != nil {
		return result, fmt.Errorf("reclaim stale jobs: %w", err)
	}
	result.Reclaimed = reclaimed
	for i := 0; i < reclaimed; i++ {
		metrics.IncJobReclaimed()
	}

	batch := s.Batch
	if batch <= 0 {
		batch = defaultBatchSize
	}

	claimed, err := s.Jobs.ClaimQueued(ctx, batch, time.Now().UTC())
	if err != nil {
		return result, fmt.Errorf("claim jobs: %w", err)
	}

	for _, job := range claimed {
		metrics.IncJobClaimed()
		started := time.Now()

		jobErr := s.processJob(ctx, job)
		metrics.ObserveJobDurationMs(float64(time.Since(started).Milliseconds()))
		result.Processed++

		if jobErr == nil {
			metrics.IncJobCompleted()
			result.Results = append(result.Results, JobResult{JobID: job.ID, Status: "success"})
			continue
		}
		result.Results = append(result.Results, JobResult{JobID: job.ID, Status: "error", Error: jobErr.Error()})
		s.fail(ctx, job, jobErr)
	}

	return result, nil
}

func (s *Service) processJob(ctx context.Context, job jobs.Job) error {
	telemetry.Info("processing job", map[string]any{
		"job_id":      job.ID,
		"document_id": job.DocumentID,
		"attempt":     job.Attempts,
	})

	doc, err := s.Docs.GetByID(ctx, job.DocumentID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			return &jobFailure{code: jobs.ErrorCodeInternal, err: errors.New("Document not found")}
		}
		return &jobFailure{code: jobs.ErrorCodeStorage, retryable: true, err: err}
	}

	downloadCtx, cancel := context.WithTimeout(ctx, downloadTimeout)
	data, err := s.Blob.Download(downloadCtx, doc.StoragePath)
	cancel()
	if err != nil {
		return &jobFailure{code: jobs.ErrorCodeDownload, retryable: true, err: err}
	}

	var warnings []string
	if doc.SizeBytes > 0 && int64(len(data)) != doc.SizeBytes {
		warning := fmt.Sprintf("size mismatch: declared %d bytes, downloaded %d", doc.SizeBytes, len(data))
		warnings = append(warnings, warning)
		telemetry.Info("document size mismatch", map[string]any{
			"document_id": doc.ID,
			"declared":    doc.SizeBytes,
			"downloaded":  len(data),
		})
	}

	extracted, err := s.Engine.Run(ctx, doc.Mime, data)
	if err != nil {
		return classifyEngineError(err)
	}

	insights, err := json.Marshal(extracted.Insights)
	if err != nil {
		return &jobFailure{code: jobs.ErrorCodeInternal, err: err}
	}
	var warningsJSON json.RawMessage
	if len(warnings) > 0 {
		encoded, err := json.Marshal(warnings)
		if err != nil {
			return &jobFailure{code: jobs.ErrorCodeInternal, err: err}
		}
		warningsJSON = encoded
	}

	extraction := extractions.Extraction{
		ID:                uuid.NewString(),
		DocumentID:        doc.ID,
		Provider:          s.Provider,
		ConfidenceOverall: extract.ConfidenceOverall,
		Fields:            extracted.Fields,
		Insights:          insights,
		Warnings:          warningsJSON,
	}

	// The extraction row lands before the job flips to done. A crash in
	// between leaves a running job that stale reclaim will retry; the
	// duplicate row is harmless because readers take the latest.
	if err := s.Extractions.Create(ctx, extraction); err != nil {
		return &jobFailure{code: jobs.ErrorCodeStorage, retryable: true, err: fmt.Errorf("save extraction: %w", err)}
	}

	if err := s.Docs.UpdateResult(ctx, doc.ID, documents.StatusSucceeded, extracted.DocumentType); err != nil {
		return &jobFailure{code: jobs.ErrorCodeStorage, retryable: true, err: fmt.Errorf("update document: %w", err)}
	}

	jobResult, err := json.Marshal(map[string]string{"extractionId": extraction.ID})
	if err != nil {
		return &jobFailure{code: jobs.ErrorCodeInternal, err: err}
	}
	if err := s.Jobs.MarkDone(ctx, job.ID, jobResult); err != nil {
		return &jobFailure{code: jobs.ErrorCodeStorage, retryable: true, err: fmt.Errorf("mark job done: %w", err)}
	}

	s.Audit.Record(ctx, audit.ActionJobCompleted, "job", job.ID, "", map[string]any{
		"documentId":   doc.ID,
		"documentType": extracted.DocumentType,
		"extractionId": extraction.ID,
	})

	telemetry.Info("job completed", map[string]any{
		"job_id":        job.ID,
		"document_id":   doc.ID,
		"document_type": extracted.DocumentType,
	})
	return nil
}

// fail applies the retry policy. Retryable failures go back to the queue
// with exponential backoff until the attempt budget runs out; everything
// else is terminal. The document row is left untouched either way.
func (s *Service) fail(ctx context.Context, job jobs.Job, jobErr error) {
	var failure *jobFailure
	if !errors.As(jobErr, &failure) {
		failure = &jobFailure{code: jobs.ErrorCodeInternal, err: jobErr}
	}
	message := failure.code + ": " + failure.err.Error()

	if failure.retryable && job.Attempts < jobs.MaxAttempts {
		nextRun := time.Now().UTC().Add(jobs.BackoffFor(job.Attempts))
		if err := s.Jobs.Requeue(ctx, job.ID, message, nextRun); err != nil {
			telemetry.Error("requeue failed", map[string]any{"job_id": job.ID, "error": err.Error()})
			return
		}
		metrics.IncJobRequeued()
		s.Audit.Record(ctx, audit.ActionJobRequeued, "job", job.ID, "", map[string]any{
			"documentId": job.DocumentID,
			"attempt":    job.Attempts,
			"nextRunAt":  nextRun,
			"error":      message,
		})
		return
	}

	if err := s.Jobs.MarkError(ctx, job.ID, message); err != nil {
		telemetry.Error("mark error failed", map[string]any{"job_id": job.ID, "error": err.Error()})
		return
	}
	metrics.IncJobFailed()
	s.Audit.Record(ctx, audit.ActionJobFailed, "job", job.ID, "", map[string]any{
		"documentId": job.DocumentID,
		"attempt":    job.Attempts,
		"error":      message,
	})
	telemetry.Error("job failed", map[string]any{
		"job_id":      job.ID,
		"document_id": job.DocumentID,
		"error":       message,
	})
}

type jobFailure struct {
	code      string
	retryable bool
	err       error
}

func (f *jobFailure) Error() string { return f.err.Error() }
func (f *jobFailure) Unwrap() error { return f.err }

func classifyEngineError(err error) error {
	var validation *extract.ValidationError
	if errors.As(err, &validation) {
		return &jobFailure{code: jobs.ErrorCodeExtraction, err: err}
	}
	var transport *llm.TransportError
	if errors.As(err, &transport) {
		return &jobFailure{code: jobs.ErrorCodeExtraction, retryable: true, err: err}
	}
	var download *blob.DownloadError
	if errors.As(err, &download) {
		return &jobFailure{code: jobs.ErrorCodeDownload, retryable: true, err: err}
	}
	return &jobFailure{code: jobs.ErrorCodeExtraction, err: err}
}
