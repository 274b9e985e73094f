package documents

import "time"

// Document represents an anonymously uploaded document. Ownership is proven
// only by presenting the session token recorded at creation.
type Document struct {
	ID           string
	SessionID    string
	Filename     string
	Mime         string
	SizeBytes    int64
	StoragePath  string
	Status       string
	DetectedType string
	CreatedAt    time.Time
	ExpiresAt    time.Time
	UpdatedAt    time.Time
}

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
)

const (
	maxUploadSize = 30 << 20 // 30MB
	retention     = 7 * 24 * time.Hour
)

var allowedMimes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"image/gif":       ".gif",
	"application/pdf": ".pdf",
}
