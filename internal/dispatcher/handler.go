package dispatcher

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cleardoc-backend/internal/shared/server/respond"
)

// Handler exposes the manual dispatch trigger. The endpoint exists so a
// scheduler or an operator can force a cycle without shelling into the
// worker.
type Handler struct {
	Svc   *Service
	Token string
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service, token string) *Handler {
	return &Handler{Svc: svc, Token: strings.TrimSpace(token)}
}

// RegisterRoutes attaches dispatcher routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/internal/jobs/run", h.run)
}

func (h *Handler) run(c *gin.Context) {
	if h.Token == "" {
		respond.Error(c, http.StatusServiceUnavailable, "not_configured", "dispatch trigger is not configured", nil)
		return
	}
	if bearerToken(c) != h.Token {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "invalid dispatch token", nil)
		return
	}

	result, err := h.Svc.RunCycle(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "dispatch cycle failed", nil)
		return
	}
	respond.JSON(c, http.StatusOK, result)
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
