package qa

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cleardoc-backend/internal/documents"
	"cleardoc-backend/internal/shared/server/respond"
)

const sessionHeader = "X-Session-Token"

// Handler wires the Q&A endpoint to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches Q&A routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents/:id/ask", h.ask)
}

type askRequest struct {
	Question string `json:"question"`
	History  []Turn `json:"conversationHistory"`
}

type askResponse struct {
	Answer  string `json:"answer"`
	History []Turn `json:"conversationHistory"`
}

func (h *Handler) ask(c *gin.Context) {
	sessionToken := strings.TrimSpace(c.GetHeader(sessionHeader))
	if sessionToken == "" {
		respond.Error(c, http.StatusUnauthorized, "session_required", "session token is required", nil)
		return
	}

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	documentID := c.Param("id")
	c.Set("documentId", documentID)

	answer, history, err := h.Svc.Ask(c.Request.Context(), documentID, sessionToken, req.Question, req.History)
	if err != nil {
		switch {
		case errors.Is(err, documents.ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
		case errors.Is(err, documents.ErrSessionMismatch):
			respond.Error(c, http.StatusForbidden, "forbidden", "session does not own this document", nil)
		case errors.Is(err, documents.ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "question is required", nil)
		case errors.Is(err, ErrNotReady):
			respond.Error(c, http.StatusConflict, "not_ready", "document has not been processed yet", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to answer question", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, askResponse{Answer: answer, History: history})
}
