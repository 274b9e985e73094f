package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cleardoc-backend/internal/llm"
)

const (
	detectMaxTokens  = 50
	extractMaxTokens = 4000

	// Confidence is not reported per-field by the provider; a fixed overall
	// value is recorded with every extraction.
	ConfidenceOverall = 0.95

	unknownDocumentType = "Unknown Document"
)

// Insights is the projection stored alongside the full field set.
type Insights struct {
	RedFlags  json.RawMessage `json:"redFlags"`
	KeyPoints json.RawMessage `json:"keyPoints"`
}

// Result is the outcome of a successful extraction run.
type Result struct {
	DocumentType string
	Fields       json.RawMessage
	Insights     Insights
	Warnings     []string
}

// Engine runs the two-pass extraction: detect the document type, then
// extract structured fields with a type-specific prompt. The engine holds
// no state between runs.
type Engine struct {
	vision llm.Vision
}

func NewEngine(vision llm.Vision) *Engine {
	return &Engine{vision: vision}
}

// Run analyzes a single document image and returns validated structured output.
func (e *Engine) Run(ctx context.Context, mimeType string, data []byte) (Result, error) {
	imageMIME := normalizeImageMIME(mimeType)

	detected, err := e.vision.CompleteVision(ctx, llm.VisionInput{
		Prompt:    detectionPrompt,
		ImageMIME: imageMIME,
		ImageData: data,
		MaxTokens: detectMaxTokens,
	})
	if err != nil {
		return Result{}, fmt.Errorf("detect document type: %w", err)
	}

	documentType := strings.TrimSpace(detected)
	if documentType == "" {
		documentType = unknownDocumentType
	}

	raw, err := e.vision.CompleteVision(ctx, llm.VisionInput{
		Prompt:    extractionPrompt(documentType),
		ImageMIME: imageMIME,
		ImageData: data,
		MaxTokens: extractMaxTokens,
		ForceJSON: true,
	})
	if err != nil {
		return Result{}, fmt.Errorf("extract fields: %w", err)
	}

	cleaned := stripCodeFences(raw)

	var doc any
	if err := json.Unmarshal([]byte(cleaned), &doc); err != nil {
		return Result{}, &ValidationError{Err: fmt.Errorf("parse output json: %w", err)}
	}
	if err := validateInsights(doc); err != nil {
		return Result{}, err
	}

	var fields struct {
		RedFlags  json.RawMessage `json:"redFlags"`
		KeyPoints json.RawMessage `json:"keyPoints"`
	}
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return Result{}, &ValidationError{Err: err}
	}

	result := Result{
		DocumentType: documentType,
		Fields:       json.RawMessage(cleaned),
		Insights: Insights{
			RedFlags:  orEmptyArray(fields.RedFlags),
			KeyPoints: orEmptyArray(fields.KeyPoints),
		},
	}
	return result, nil
}

// stripCodeFences removes a surrounding markdown code fence if present.
// Models occasionally wrap JSON in one despite the response format hint.
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func normalizeImageMIME(mimeType string) string {
	lower := strings.ToLower(mimeType)
	switch {
	case strings.Contains(lower, "png"):
		return "image/png"
	case strings.Contains(lower, "gif"):
		return "image/gif"
	case strings.Contains(lower, "webp"):
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

func orEmptyArray(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" {
		return json.RawMessage("[]")
	}
	return raw
}
