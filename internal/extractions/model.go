package extractions

import (
	"encoding/json"
	"time"
)

// Extraction is one structured analysis of a document. Rows are append-only;
// reprocessing inserts a new row and readers take the latest.
type Extraction struct {
	ID                string
	DocumentID        string
	Provider          string
	ConfidenceOverall float64
	Fields            json.RawMessage
	Insights          json.RawMessage
	Warnings          json.RawMessage
	CreatedAt         time.Time
}
