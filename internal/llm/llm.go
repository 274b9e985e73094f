package llm

import (
	"context"
	"errors"
	"fmt"
)

// VisionInput is a single-image prompt sent to a multimodal model.
type VisionInput struct {
	Prompt    string
	ImageMIME string
	ImageData []byte
	MaxTokens int
	ForceJSON bool
}

// Turn is one prior exchange in a conversation.
type Turn struct {
	Role    string
	Content string
}

// ChatInput is a plain text completion request.
type ChatInput struct {
	System      string
	History     []Turn
	User        string
	MaxTokens   int
	Temperature float32
}

// Vision abstracts multimodal providers for document extraction.
type Vision interface {
	CompleteVision(ctx context.Context, input VisionInput) (string, error)
}

// Chat abstracts text completion for document Q&A.
type Chat interface {
	Complete(ctx context.Context, input ChatInput) (string, error)
}

// ErrNotConfigured is returned by the placeholder client.
var ErrNotConfigured = errors.New("llm provider not configured")

// Placeholder is a stub implementation until provider wiring is added.
type Placeholder struct{}

func (Placeholder) CompleteVision(ctx context.Context, input VisionInput) (string, error) {
	_ = ctx
	_ = input
	return "", ErrNotConfigured
}

func (Placeholder) Complete(ctx context.Context, input ChatInput) (string, error) {
	_ = ctx
	_ = input
	return "", ErrNotConfigured
}

// TransportError marks provider failures that are worth retrying
// (timeouts, connection errors, 429/5xx). Malformed model output is not
// a transport error.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("llm transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
