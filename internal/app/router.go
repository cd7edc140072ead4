package app

import (
	server "github.com/yungbote/fulltheme-backend/internal/http"
	httpMW "github.com/yungbote/fulltheme-backend/internal/http/middleware"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, h Handlers) *server.Server {
	log.Info("Wiring router...")
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return server.NewServer(server.RouterConfig{
		Log:               log,
		ServiceName:       serviceName,
		CORSOrigins:       cfg.Server.CORSOrigins,
		AuthMiddleware:    httpMW.NewAuthMiddleware(log, cfg.JWTSecret),
		AICodingHandler:   h.AICoding,
		CodeReviewHandler: h.CodeReview,
		HealthHandler:     h.Health,
	})
}
