package app

import (
	"gorm.io/gorm"

	httpH "github.com/yungbote/fulltheme-backend/internal/http/handlers"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
)

type Handlers struct {
	AICoding   *httpH.AICodingHandler
	CodeReview *httpH.CodeReviewHandler
	Health     *httpH.HealthHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, s Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		AICoding:   httpH.NewAICodingHandler(log, s.AICoding),
		CodeReview: httpH.NewCodeReviewHandler(log, s.Review),
		Health:     httpH.NewHealthHandler(db),
	}
}
