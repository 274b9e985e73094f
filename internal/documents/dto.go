package documents

import (
	"encoding/json"
	"time"

	"cleardoc-backend/internal/blob"
	"cleardoc-backend/internal/extractions"
)

type uploadTokenRequest struct {
	Filename  string `json:"filename"`
	Mime      string `json:"mime"`
	SizeBytes int64  `json:"sizeBytes"`
}

type uploadHandleResponse struct {
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers,omitempty"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

type uploadTokenResponse struct {
	DocumentID   string               `json:"documentId"`
	SessionToken string               `json:"sessionToken"`
	Path         string               `json:"path"`
	ExpiresAt    time.Time            `json:"expiresAt"`
	Upload       uploadHandleResponse `json:"upload"`
}

func toUploadTokenResponse(doc Document, sessionToken string, handle blob.UploadHandle) uploadTokenResponse {
	return uploadTokenResponse{
		DocumentID:   doc.ID,
		SessionToken: sessionToken,
		Path:         doc.StoragePath,
		ExpiresAt:    doc.ExpiresAt,
		Upload: uploadHandleResponse{
			URL:       handle.URL,
			Method:    handle.Method,
			Headers:   handle.Headers,
			ExpiresAt: handle.ExpiresAt,
		},
	}
}

type jobResponse struct {
	JobID     string    `json:"jobId"`
	Status    string    `json:"status"`
	Created   bool      `json:"created"`
	CreatedAt time.Time `json:"createdAt"`
}

type jobStatusResponse struct {
	JobID     string    `json:"jobId"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Attempts  int       `json:"attempts"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type statusResponse struct {
	DocumentID   string             `json:"documentId"`
	Filename     string             `json:"filename"`
	Status       string             `json:"status"`
	DetectedType string             `json:"detectedType,omitempty"`
	CreatedAt    time.Time          `json:"createdAt"`
	ExpiresAt    time.Time          `json:"expiresAt"`
	Job          *jobStatusResponse `json:"job"`
	ExtractionID string             `json:"extractionId,omitempty"`
}

func toStatusResponse(status Status) statusResponse {
	resp := statusResponse{
		DocumentID:   status.DocumentID,
		Filename:     status.Filename,
		Status:       status.Status,
		DetectedType: status.DetectedType,
		CreatedAt:    status.CreatedAt,
		ExpiresAt:    status.ExpiresAt,
		ExtractionID: status.ExtractionID,
	}
	if status.Job != nil {
		resp.Job = &jobStatusResponse{
			JobID:     status.Job.ID,
			Status:    status.Job.Status,
			Error:     status.Job.Error,
			Attempts:  status.Job.Attempts,
			UpdatedAt: status.Job.UpdatedAt,
		}
	}
	return resp
}

type extractionResponse struct {
	ExtractionID      string          `json:"extractionId"`
	DocumentID        string          `json:"documentId"`
	Provider          string          `json:"provider"`
	ConfidenceOverall float64         `json:"confidenceOverall"`
	Fields            json.RawMessage `json:"fields"`
	Insights          json.RawMessage `json:"insights"`
	Warnings          json.RawMessage `json:"warnings,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

func toExtractionResponse(extraction extractions.Extraction) extractionResponse {
	return extractionResponse{
		ExtractionID:      extraction.ID,
		DocumentID:        extraction.DocumentID,
		Provider:          extraction.Provider,
		ConfidenceOverall: extraction.ConfidenceOverall,
		Fields:            extraction.Fields,
		Insights:          extraction.Insights,
		Warnings:          extraction.Warnings,
		CreatedAt:         extraction.CreatedAt,
	}
}
