package audit

import "time"

// Entry is a single append-only audit record.
type Entry struct {
	ID             int64
	Action         string
	Entity         string
	EntityID       string
	UserIdentifier string
	Meta           map[string]any
	CreatedAt      time.Time
}

// Action names recorded by the service.
const (
	ActionDocumentCreated   = "document_created"
	ActionDocumentDeleted   = "document_deleted"
	ActionUploadCompensated = "upload_compensated"
	ActionJobEnqueued       = "job_enqueued"
	ActionJobCompleted      = "job_completed"
	ActionJobFailed         = "job_failed"
	ActionJobRequeued       = "job_requeued"
	ActionQuestionAsked     = "question_asked"
)
