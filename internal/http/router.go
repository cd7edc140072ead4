package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/fulltheme-backend/internal/http/handlers"
	httpMW "github.com/yungbote/fulltheme-backend/internal/http/middleware"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	AuthMiddleware *httpMW.AuthMiddleware

	AICodingHandler   *httpH.AICodingHandler
	CodeReviewHandler *httpH.CodeReviewHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	protected := r.Group("/api")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// AI coding
		if cfg.AICodingHandler != nil {
			protected.POST("/ai/initial-coding", cfg.AICodingHandler.InitialCoding)
			protected.POST("/ai/deductive-coding", cfg.AICodingHandler.DeductiveCoding)
			protected.POST("/ai/generate-themes", cfg.AICodingHandler.GenerateThemes)
			protected.GET("/ai/rate-limit/:provider", cfg.AICodingHandler.RateLimitStatus)
		}

		// Code review
		if cfg.CodeReviewHandler != nil {
			protected.GET("/code-review/codebooks/:id/assignments", cfg.CodeReviewHandler.ListCodebookAssignments)
			protected.POST("/code-review/assignments/update-status", cfg.CodeReviewHandler.UpdateStatus)
			protected.POST("/code-review/assignments/bulk-update", cfg.CodeReviewHandler.BulkUpdate)
			protected.GET("/code-review/projects/:id/ai-codebooks", cfg.CodeReviewHandler.ListProjectAICodebooks)
		}
	}

	return r
}
