package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cleardoc-backend/internal/dispatcher"
	"cleardoc-backend/internal/documents"
	"cleardoc-backend/internal/qa"
	"cleardoc-backend/internal/shared/config"
	"cleardoc-backend/internal/shared/metrics"
	"cleardoc-backend/internal/shared/server/middleware"
	"cleardoc-backend/internal/shared/server/respond"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config           config.Config
	DocumentsHandler *documents.Handler
	DispatchHandler  *dispatcher.Handler
	QAHandler        *qa.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(uploadRateLimit()),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})

	if deps.DocumentsHandler != nil {
		deps.DocumentsHandler.RegisterRoutes(api)
	}
	if deps.QAHandler != nil {
		deps.QAHandler.RegisterRoutes(api)
	}
	if deps.DispatchHandler != nil {
		deps.DispatchHandler.RegisterRoutes(api)
	}

	return r
}

// uploadRateLimit throttles upload-handle issuance per client IP. Status
// polling has its own per-document limiter in the documents handler.
func uploadRateLimit() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		DefaultGroup: "DEFAULT",
		GroupFor: func(c *gin.Context) string {
			if c.Request.Method == http.MethodPost && c.FullPath() == "/api/v1/uploads/token" {
				return "UPLOADS"
			}
			return "DEFAULT"
		},
		Rules: map[string]middleware.RateLimitRule{
			"UPLOADS": {Rate: 1, Burst: 5},
		},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
