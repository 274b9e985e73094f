package extract

import (
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const insightsSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": [
    "documentType",
    "summary",
    "keyPoints",
    "criticalDates",
    "financialDetails",
    "importantClauses",
    "redFlags",
    "plainEnglish"
  ],
  "properties": {
    "documentType": {"type": "string", "minLength": 1},
    "summary": {"type": "string", "minLength": 1},
    "keyPoints": {
      "type": "array",
      "minItems": 3,
      "maxItems": 5,
      "items": {"type": "string", "minLength": 1}
    },
    "criticalDates": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["date", "description"],
        "properties": {
          "date": {"type": "string"},
          "description": {"type": "string"}
        }
      }
    },
    "financialDetails": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["label", "value"],
        "properties": {
          "label": {"type": "string"},
          "value": {"type": "string"},
          "note": {"type": "string"}
        }
      }
    },
    "importantClauses": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["title", "description", "significance"],
        "properties": {
          "title": {"type": "string"},
          "description": {"type": "string"},
          "significance": {"type": "string"}
        }
      }
    },
    "redFlags": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["issue", "explanation", "severity"],
        "properties": {
          "issue": {"type": "string"},
          "explanation": {"type": "string"},
          "severity": {"type": "string", "enum": ["low", "medium", "high"]}
        }
      }
    },
    "plainEnglish": {"type": "string", "minLength": 1}
  }
}`

var insightsSchema = jsonschema.MustCompileString("insights.schema.json", insightsSchemaJSON)

// ValidationError marks model output that fails the insights schema. These
// are deterministic given the output, so the dispatcher never retries them.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("extraction output invalid: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func validateInsights(doc any) error {
	if err := insightsSchema.Validate(doc); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}
