package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/fulltheme-backend/internal/chunker"
	"github.com/yungbote/fulltheme-backend/internal/data/txn"
	"github.com/yungbote/fulltheme-backend/internal/modules/coding"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
	"github.com/yungbote/fulltheme-backend/internal/services"
)

type Services struct {
	Access    services.AccessService
	Codebook  services.CodebookService
	Committer services.CodeCommitter
	Review    services.ReviewService
	AICoding  services.AICodingService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c Clients) (Services, error) {
	log.Info("Wiring services...")
	splitter, err := chunker.NewSplitter(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return Services{}, fmt.Errorf("init splitter: %w", err)
	}
	runner := txn.NewGormRunner(db)

	var s Services
	s.Access = services.NewAccessService(db, log, r.Project, r.Document, r.Codebook)
	s.Codebook = services.NewCodebookService(db, log, r.Codebook)
	s.Committer = services.NewCodeCommitter(db, log, runner, r.Code, r.CodeAssignment)
	s.Review = services.NewReviewService(db, log, runner, s.Access, s.Codebook, r.Codebook, r.Code, r.CodeAssignment)
	s.AICoding = services.NewAICodingService(db, log,
		services.AICodingConfig{RefineConcurrency: cfg.LLM.RefineConcurrency},
		runner,
		c.LLM,
		coding.NewEngine(log, splitter),
		s.Access, s.Codebook, s.Committer,
		r.Project, r.Code, r.Theme,
	)
	return s, nil
}
