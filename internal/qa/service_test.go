package qa

import (
	"context"
	"errors"
	"strings"
	"testing"

	"cleardoc-backend/internal/audit"
	"cleardoc-backend/internal/documents"
	"cleardoc-backend/internal/extractions"
	"cleardoc-backend/internal/llm"
)

type fakeChat struct {
	answer string
	err    error
	last   llm.ChatInput
}

func (c *fakeChat) Complete(ctx context.Context, input llm.ChatInput) (string, error) {
	c.last = input
	if c.err != nil {
		return "", c.err
	}
	return c.answer, nil
}

func newQAService(chat llm.Chat) (*Service, *audit.MemoryRepo) {
	auditRepo := audit.NewMemoryRepo()
	svc := &Service{
		Docs:        documents.NewMemoryRepo(),
		Extractions: extractions.NewMemoryRepo(),
		Chat:        chat,
		Audit:       &audit.Recorder{Repo: auditRepo},
	}
	return svc, auditRepo
}

func seedDocument(t *testing.T, svc *Service, detectedType string, withExtraction bool) documents.Document {
	t.Helper()
	ctx := context.Background()
	doc := documents.Document{
		ID:           "doc-1",
		SessionID:    "session-1",
		Filename:     "card.png",
		Mime:         "image/png",
		Status:       documents.StatusSucceeded,
		DetectedType: detectedType,
	}
	if err := svc.Docs.Create(ctx, doc); err != nil {
		t.Fatalf("create doc: %v", err)
	}
	if withExtraction {
		err := svc.Extractions.Create(ctx, extractions.Extraction{
			ID:         "ext-1",
			DocumentID: doc.ID,
			Provider:   "openai",
			Fields:     []byte(`{"memberName":"Jane Roe"}`),
			Insights:   []byte(`{}`),
		})
		if err != nil {
			t.Fatalf("create extraction: %v", err)
		}
	}
	return doc
}

func TestAskGroundsAnswerInExtraction(t *testing.T) {
	chat := &fakeChat{answer: "The member name is Jane Roe."}
	svc, auditRepo := newQAService(chat)
	doc := seedDocument(t, svc, "Insurance Card", true)

	history := []Turn{
		{Role: "user", Content: "What is this?"},
		{Role: "assistant", Content: "An insurance card."},
	}
	answer, updated, err := svc.Ask(context.Background(), doc.ID, "session-1", "Who is the member?", history)
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer != chat.answer {
		t.Fatalf("unexpected answer %q", answer)
	}

	if !strings.Contains(chat.last.System, "Document Type: Insurance Card") {
		t.Fatalf("system prompt missing detected type: %q", chat.last.System)
	}
	if !strings.Contains(chat.last.System, `"memberName":"Jane Roe"`) {
		t.Fatalf("system prompt missing extracted fields: %q", chat.last.System)
	}
	if len(chat.last.History) != 2 || chat.last.User != "Who is the member?" {
		t.Fatalf("unexpected chat input: %+v", chat.last)
	}

	if len(updated) != 4 {
		t.Fatalf("expected history of 4 turns, got %d", len(updated))
	}
	if updated[2].Role != "user" || updated[3].Role != "assistant" || updated[3].Content != answer {
		t.Fatalf("history not extended with latest exchange: %+v", updated)
	}

	asked := false
	for _, entry := range auditRepo.AllEntries() {
		if entry.Action == audit.ActionQuestionAsked && entry.EntityID == doc.ID {
			asked = true
			if entry.UserIdentifier == "session-1" {
				t.Fatalf("raw session token must not be audited")
			}
		}
	}
	if !asked {
		t.Fatalf("expected question_asked audit entry")
	}
}

func TestAskFallsBackToUnknownType(t *testing.T) {
	chat := &fakeChat{answer: "ok"}
	svc, _ := newQAService(chat)
	doc := seedDocument(t, svc, "", true)

	if _, _, err := svc.Ask(context.Background(), doc.ID, "session-1", "What is this?", nil); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if !strings.Contains(chat.last.System, "Document Type: Unknown") {
		t.Fatalf("expected Unknown fallback, got %q", chat.last.System)
	}
}

func TestAskBeforeExtractionNotReady(t *testing.T) {
	svc, _ := newQAService(&fakeChat{answer: "ok"})
	doc := seedDocument(t, svc, "Insurance Card", false)

	if _, _, err := svc.Ask(context.Background(), doc.ID, "session-1", "Anything?", nil); !errors.Is(err, ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
}

func TestAskRejectsWrongSessionAndEmptyQuestion(t *testing.T) {
	svc, _ := newQAService(&fakeChat{answer: "ok"})
	doc := seedDocument(t, svc, "Insurance Card", true)
	ctx := context.Background()

	if _, _, err := svc.Ask(ctx, doc.ID, "someone-else", "Anything?", nil); !errors.Is(err, documents.ErrSessionMismatch) {
		t.Fatalf("expected session mismatch, got %v", err)
	}
	if _, _, err := svc.Ask(ctx, doc.ID, "session-1", "   ", nil); !errors.Is(err, documents.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestAskSurfacesChatFailure(t *testing.T) {
	transport := &llm.TransportError{Err: errors.New("provider status 503")}
	svc, _ := newQAService(&fakeChat{err: transport})
	doc := seedDocument(t, svc, "Insurance Card", true)

	_, _, err := svc.Ask(context.Background(), doc.ID, "session-1", "Anything?", nil)
	var gotTransport *llm.TransportError
	if !errors.As(err, &gotTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
