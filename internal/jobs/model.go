package jobs

import (
	"encoding/json"
	"time"
)

// Job is one unit of background work against a document.
type Job struct {
	ID         string
	DocumentID string
	Kind       string
	Status     string
	Error      string
	Result     json.RawMessage
	Attempts   int
	NextRunAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

const (
	KindParse = "parse"

	StatusQueued  = "queued"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusError   = "error"
)

// Retry policy for transient failures. Attempts are counted on claim, so
// attempt n backs off 30s * 2^(n-1) before the next run.
const (
	MaxAttempts      = 3
	RetryBackoffBase = 30 * time.Second

	// Running jobs older than this are presumed abandoned by a crashed
	// worker and returned to the queue.
	StaleRunningAfter = 10 * time.Minute
)

// BackoffFor returns the delay before the next attempt.
func BackoffFor(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	return RetryBackoffBase << (attempts - 1)
}
