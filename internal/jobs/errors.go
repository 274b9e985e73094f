package jobs

import "errors"

var ErrNotFound = errors.New("job not found")

// Error codes recorded on failed jobs.
const (
	ErrorCodeDownload   = "DOWNLOAD_ERROR"
	ErrorCodeExtraction = "EXTRACTION_ERROR"
	ErrorCodeStorage    = "STORAGE_ERROR"
	ErrorCodeInternal   = "INTERNAL_ERROR"
)
