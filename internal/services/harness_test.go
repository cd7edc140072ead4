package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/fulltheme-backend/internal/chunker"
	"github.com/yungbote/fulltheme-backend/internal/data/repos"
	"github.com/yungbote/fulltheme-backend/internal/data/repos/testutil"
	"github.com/yungbote/fulltheme-backend/internal/data/txn"
	"github.com/yungbote/fulltheme-backend/internal/llm"
	"github.com/yungbote/fulltheme-backend/internal/llm/llmtest"
	"github.com/yungbote/fulltheme-backend/internal/modules/coding"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
	"github.com/yungbote/fulltheme-backend/internal/ratelimit"
)

type fakeSource struct {
	coder   *llmtest.Coder
	limiter *ratelimit.Limiter
}

func (f *fakeSource) Coder(provider, model string) (llm.Coder, error) { return f.coder, nil }
func (f *fakeSource) Resolve(provider, model string) (string, string) {
	if provider == "" {
		provider = llm.DefaultProvider
	}
	return provider, model
}
func (f *fakeSource) Limiter() *ratelimit.Limiter { return f.limiter }

type harness struct {
	ctx context.Context
	db  *gorm.DB
	log *logger.Logger

	projects    repos.ProjectRepo
	documents   repos.DocumentRepo
	codebooks   repos.CodebookRepo
	codes       repos.CodeRepo
	assignments repos.CodeAssignmentRepo
	themes      repos.ThemeRepo

	runner      txn.Runner
	access      AccessService
	codebookSvc CodebookService
	committer   CodeCommitter
	review      ReviewService
	ai          AICodingService

	coder   *llmtest.Coder
	limiter *ratelimit.Limiter
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	h := &harness{
		ctx:         context.Background(),
		db:          db,
		log:         log,
		projects:    repos.NewProjectRepo(db, log),
		documents:   repos.NewDocumentRepo(db, log),
		codebooks:   repos.NewCodebookRepo(db, log),
		codes:       repos.NewCodeRepo(db, log),
		assignments: repos.NewCodeAssignmentRepo(db, log),
		themes:      repos.NewThemeRepo(db, log),
		runner:      txn.NewGormRunner(db),
		coder:       &llmtest.Coder{},
		limiter:     ratelimit.New(log, ratelimit.Config{MaxAttempts: 1}),
	}
	h.access = NewAccessService(db, log, h.projects, h.documents, h.codebooks)
	h.codebookSvc = NewCodebookService(db, log, h.codebooks)
	h.committer = NewCodeCommitter(db, log, h.runner, h.codes, h.assignments)
	h.review = NewReviewService(db, log, h.runner, h.access, h.codebookSvc, h.codebooks, h.codes, h.assignments)

	splitter, err := chunker.NewSplitter(chunker.DefaultSize, chunker.DefaultOverlap)
	if err != nil {
		t.Fatalf("splitter: %v", err)
	}
	h.ai = NewAICodingService(db, log, AICodingConfig{RefineConcurrency: 2}, h.runner,
		&fakeSource{coder: h.coder, limiter: h.limiter},
		coding.NewEngine(log, splitter),
		h.access, h.codebookSvc, h.committer,
		h.projects, h.codes, h.themes,
	)
	return h
}

func (h *harness) codesNamed(t *testing.T, projectID uuid.UUID, name string) int64 {
	t.Helper()
	var n int64
	if err := h.db.Table("code").Where("project_id = ? AND name = ?", projectID, name).Count(&n).Error; err != nil {
		t.Fatalf("count codes: %v", err)
	}
	return n
}
