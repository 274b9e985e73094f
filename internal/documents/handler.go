package documents

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"cleardoc-backend/internal/extractions"
	"cleardoc-backend/internal/shared/server/respond"
)

const sessionHeader = "X-Session-Token"

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc     *Service
	limiter *pollLimiter
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{
		Svc:     svc,
		limiter: newPollLimiter(pollLimitWindow, nil),
	}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/uploads/token", h.issueUpload)
	rg.POST("/documents/:id/job", h.admitJob)
	rg.GET("/documents/:id/status", h.status)
	rg.GET("/documents/:id/extraction", h.extraction)
	rg.DELETE("/documents/:id", h.delete)
}

func (h *Handler) issueUpload(c *gin.Context) {
	var req uploadTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	req.Filename = strings.TrimSpace(req.Filename)
	req.Mime = strings.TrimSpace(req.Mime)
	if req.Filename == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "filename is required", nil)
		return
	}
	if req.Mime == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "mime is required", nil)
		return
	}

	sessionToken := sessionFrom(c)
	if sessionToken == "" {
		token, err := NewSessionToken()
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start session", nil)
			return
		}
		sessionToken = token
	}

	doc, handle, err := h.Svc.IssueUpload(c.Request.Context(), sessionToken, req.Filename, req.Mime, req.SizeBytes)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedType):
			respond.Error(c, http.StatusBadRequest, "validation_error", "unsupported file type", nil)
		case errors.Is(err, ErrTooLarge):
			respond.Error(c, http.StatusBadRequest, "validation_error", "file exceeds the 30MB limit", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid upload request", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to issue upload", nil)
		}
		return
	}

	c.Set("documentId", doc.ID)
	respond.JSON(c, http.StatusCreated, toUploadTokenResponse(doc, sessionToken, handle))
}

func (h *Handler) admitJob(c *gin.Context) {
	sessionToken := sessionFrom(c)
	if sessionToken == "" {
		respond.Error(c, http.StatusUnauthorized, "session_required", "session token is required", nil)
		return
	}

	documentID := c.Param("id")
	c.Set("documentId", documentID)

	job, created, err := h.Svc.AdmitJob(c.Request.Context(), documentID, sessionToken)
	if err != nil {
		h.respondOwnershipError(c, err, "failed to enqueue job")
		return
	}

	c.Set("jobId", job.ID)
	status := http.StatusOK
	if created {
		status = http.StatusAccepted
	}
	respond.JSON(c, status, jobResponse{JobID: job.ID, Status: job.Status, Created: created, CreatedAt: job.CreatedAt})
}

func (h *Handler) status(c *gin.Context) {
	sessionToken := sessionFrom(c)
	if sessionToken == "" {
		respond.Error(c, http.StatusUnauthorized, "session_required", "session token is required", nil)
		return
	}

	documentID := c.Param("id")
	c.Set("documentId", documentID)

	if !h.limiter.Allow(c.ClientIP(), documentID) {
		c.Header("Retry-After", strconv.Itoa(h.limiter.RetryAfterSeconds()))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "polling too frequently", nil)
		return
	}

	status, err := h.Svc.GetStatus(c.Request.Context(), documentID, sessionToken)
	if err != nil {
		h.respondOwnershipError(c, err, "failed to fetch status")
		return
	}

	if status.Job != nil {
		c.Set("statusTransition", status.Status+"/"+status.Job.Status)
	}
	respond.JSON(c, http.StatusOK, toStatusResponse(status))
}

func (h *Handler) extraction(c *gin.Context) {
	sessionToken := sessionFrom(c)
	if sessionToken == "" {
		respond.Error(c, http.StatusUnauthorized, "session_required", "session token is required", nil)
		return
	}

	documentID := c.Param("id")
	c.Set("documentId", documentID)

	extraction, err := h.Svc.GetExtraction(c.Request.Context(), documentID, sessionToken)
	if err != nil {
		if errors.Is(err, extractions.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "no extraction available yet", nil)
			return
		}
		h.respondOwnershipError(c, err, "failed to fetch extraction")
		return
	}

	respond.JSON(c, http.StatusOK, toExtractionResponse(extraction))
}

func (h *Handler) delete(c *gin.Context) {
	sessionToken := sessionFrom(c)
	if sessionToken == "" {
		respond.Error(c, http.StatusUnauthorized, "session_required", "session token is required", nil)
		return
	}

	documentID := c.Param("id")
	c.Set("documentId", documentID)

	if err := h.Svc.Delete(c.Request.Context(), documentID, sessionToken); err != nil {
		h.respondOwnershipError(c, err, "failed to delete document")
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) respondOwnershipError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrSessionMismatch):
		respond.Error(c, http.StatusForbidden, "forbidden", "session does not own this document", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", fallback, nil)
	}
}

func sessionFrom(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(sessionHeader))
}
