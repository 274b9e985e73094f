package blob

import (
	"context"
	"fmt"
	"time"
)

// UploadHandle is a short-lived, pre-authorized destination for a single
// client-side upload. The server never proxies file bytes.
type UploadHandle struct {
	URL       string
	Method    string
	Headers   map[string]string
	ExpiresAt time.Time
}

// Gateway defines the contract between the service and the object store.
type Gateway interface {
	// IssueUploadHandle returns a handle that allows exactly one PUT of the
	// object at storagePath. The handle must reject overwrites of an
	// existing object.
	IssueUploadHandle(ctx context.Context, storagePath, contentType string, sizeBytes int64) (UploadHandle, error)

	// Download fetches the full object bytes at storagePath.
	Download(ctx context.Context, storagePath string) ([]byte, error)

	// Delete removes the object at storagePath. Deleting a missing object
	// is not an error.
	Delete(ctx context.Context, storagePath string) error
}

// DownloadError marks a failed object fetch. Downloads are transient by
// nature, so the dispatcher treats these as retryable.
type DownloadError struct {
	Path string
	Err  error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.Path, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }
