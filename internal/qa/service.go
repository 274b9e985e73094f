package qa

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cleardoc-backend/internal/audit"
	"cleardoc-backend/internal/documents"
	"cleardoc-backend/internal/extractions"
	"cleardoc-backend/internal/llm"
	"cleardoc-backend/internal/shared/util"
)

const (
	answerMaxTokens   = 500
	answerTemperature = 0.7
)

// ErrNotReady is returned when the document has no extraction to ground
// answers in yet.
var ErrNotReady = errors.New("extraction not available yet")

// Turn is one prior exchange, carried by the client between requests.
// Conversations are not persisted server-side.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Service answers questions about a document, grounded strictly in its
// stored extraction.
type Service struct {
	Docs        documents.Repo
	Extractions extractions.Repo
	Chat        llm.Chat
	Audit       *audit.Recorder
}

// Ask answers a question about the document and returns the updated
// conversation history.
func (s *Service) Ask(ctx context.Context, documentID, sessionID, question string, history []Turn) (string, []Turn, error) {
	if strings.TrimSpace(question) == "" {
		return "", nil, documents.ErrInvalidInput
	}

	doc, err := s.Docs.GetByID(ctx, documentID)
	if err != nil {
		return "", nil, err
	}
	if doc.SessionID != sessionID {
		return "", nil, documents.ErrSessionMismatch
	}

	extraction, err := s.Extractions.GetLatestByDocument(ctx, doc.ID)
	if err != nil {
		if errors.Is(err, extractions.ErrNotFound) {
			return "", nil, ErrNotReady
		}
		return "", nil, err
	}

	detectedType := doc.DetectedType
	if detectedType == "" {
		detectedType = "Unknown"
	}

	system := fmt.Sprintf(`You are a helpful assistant answering questions about a document. Here is the extracted information from the document:

Document Type: %s
Filename: %s

Extracted Data:
%s

Answer questions based on this information. Be concise, accurate, and helpful. If the information isn't in the extraction, say so clearly.`,
		detectedType, doc.Filename, string(extraction.Fields))

	turns := make([]llm.Turn, 0, len(history))
	for _, turn := range history {
		turns = append(turns, llm.Turn{Role: turn.Role, Content: turn.Content})
	}

	answer, err := s.Chat.Complete(ctx, llm.ChatInput{
		System:      system,
		History:     turns,
		User:        question,
		MaxTokens:   answerMaxTokens,
		Temperature: answerTemperature,
	})
	if err != nil {
		return "", nil, err
	}

	s.Audit.Record(ctx, audit.ActionQuestionAsked, "document", doc.ID, util.HashSessionKey(sessionID), nil)

	updated := append(append([]Turn{}, history...),
		Turn{Role: "user", Content: question},
		Turn{Role: "assistant", Content: answer},
	)
	return answer, updated, nil
}
