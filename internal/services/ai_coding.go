package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/yungbote/fulltheme-backend/internal/data/repos"
	"github.com/yungbote/fulltheme-backend/internal/data/txn"
	types "github.com/yungbote/fulltheme-backend/internal/domain"
	"github.com/yungbote/fulltheme-backend/internal/llm"
	"github.com/yungbote/fulltheme-backend/internal/modules/coding"
	"github.com/yungbote/fulltheme-backend/internal/platform/dbctx"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
	"github.com/yungbote/fulltheme-backend/internal/ratelimit"
)

// CodingOptions selects the model and optional stages for one run.
type CodingOptions struct {
	Provider       string `json:"provider,omitempty"`
	Model          string `json:"model,omitempty"`
	SkipRefinement bool   `json:"skip_refinement,omitempty"`
	SkipGrouping   bool   `json:"skip_grouping,omitempty"`
}

type AssignmentResult struct {
	AssignmentID     uuid.UUID `json:"assignment_id"`
	DocumentID       uuid.UUID `json:"document_id"`
	CodeID           uuid.UUID `json:"code_id"`
	CodeName         string    `json:"code_name"`
	CodeDescription  string    `json:"code_description"`
	CodeColor        string    `json:"code_color"`
	GroupName        string    `json:"group_name,omitempty"`
	StartChar        int       `json:"start_char"`
	EndChar          int       `json:"end_char"`
	Quote            string    `json:"quote"`
	TextSnapshot     string    `json:"text_snapshot"`
	Confidence       int       `json:"confidence"`
	Status           string    `json:"status"`
	RefinedStatus    string    `json:"refined_status"`
	OriginalCodeName string    `json:"original_code_name,omitempty"`
}

type CodingResult struct {
	AISessionCodebook *types.Codebook    `json:"ai_session_codebook"`
	Results           []AssignmentResult `json:"results"`
	Summary           coding.Summary     `json:"summary"`
}

type ThemeResult struct {
	Theme            *types.Theme `json:"theme"`
	Reasoning        string       `json:"reasoning"`
	RelatedCodes     []string     `json:"related_codes"`
	SourceCodebookID uuid.UUID    `json:"source_codebook_id"`
}

// AICodingService is the caller-facing pipeline API.
type AICodingService interface {
	GenerateCode(ctx context.Context, userID uuid.UUID, documentIDs []uuid.UUID, opts CodingOptions) (*CodingResult, error)
	DeductiveCoding(ctx context.Context, userID uuid.UUID, documentIDs []uuid.UUID, codebookID uuid.UUID, opts CodingOptions) (*CodingResult, error)
	GenerateThemes(ctx context.Context, userID uuid.UUID, codebookID uuid.UUID, opts CodingOptions) ([]ThemeResult, error)
	ProviderStatus(ctx context.Context, provider string) ratelimit.Status
}

// CoderSource resolves provider and model names into rate-limited coders.
// *llm.Registry is the production implementation.
type CoderSource interface {
	Coder(provider, model string) (llm.Coder, error)
	Resolve(provider, model string) (string, string)
	Limiter() *ratelimit.Limiter
}

type AICodingConfig struct {
	RefineConcurrency int
}

type aiCodingService struct {
	db          *gorm.DB
	log         *logger.Logger
	cfg         AICodingConfig
	runner      txn.Runner
	llm         CoderSource
	engine      *coding.Engine
	access      AccessService
	codebookSvc CodebookService
	committer   CodeCommitter
	projects    repos.ProjectRepo
	codes       repos.CodeRepo
	themes      repos.ThemeRepo
	tracer      trace.Tracer
}

func NewAICodingService(
	db *gorm.DB,
	baseLog *logger.Logger,
	cfg AICodingConfig,
	runner txn.Runner,
	llmRegistry CoderSource,
	engine *coding.Engine,
	access AccessService,
	codebookSvc CodebookService,
	committer CodeCommitter,
	projects repos.ProjectRepo,
	codes repos.CodeRepo,
	themes repos.ThemeRepo,
) AICodingService {
	if cfg.RefineConcurrency < 1 {
		cfg.RefineConcurrency = 1
	}
	return &aiCodingService{
		db:          db,
		log:         baseLog.With("service", "AICodingService"),
		cfg:         cfg,
		runner:      runner,
		llm:         llmRegistry,
		engine:      engine,
		access:      access,
		codebookSvc: codebookSvc,
		committer:   committer,
		projects:    projects,
		codes:       codes,
		themes:      themes,
		tracer:      otel.Tracer("fulltheme/services"),
	}
}

func (s *aiCodingService) ProviderStatus(ctx context.Context, provider string) ratelimit.Status {
	provider, _ = s.llm.Resolve(provider, "")
	return s.llm.Limiter().SharedStatus(ctx, provider)
}

func (s *aiCodingService) coder(opts CodingOptions) (llm.Coder, error) {
	c, err := s.llm.Coder(opts.Provider, opts.Model)
	if err != nil {
		return nil, invalid("invalid_provider", "%v", err)
	}
	return c, nil
}

// loadDocuments access-checks every id in order and requires them to share a
// project. The first failing document aborts the call.
func (s *aiCodingService) loadDocuments(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]coding.Document, *types.Project, error) {
	ids = dedupeIDs(ids)
	if len(ids) == 0 {
		return nil, nil, invalid("invalid_request", "document_ids required")
	}
	docs := make([]coding.Document, 0, len(ids))
	var projectID uuid.UUID
	for _, id := range ids {
		doc, err := s.access.RequireDocument(ctx, nil, id, userID)
		if err != nil {
			return nil, nil, err
		}
		if projectID == uuid.Nil {
			projectID = doc.ProjectID
		} else if doc.ProjectID != projectID {
			return nil, nil, invalid("mixed_projects", "document %s belongs to a different project", id)
		}
		docs = append(docs, coding.Document{ID: doc.ID, Name: doc.Name, Content: doc.Content})
	}
	project, err := s.projects.GetByID(ctx, nil, projectID)
	if err != nil {
		return nil, nil, err
	}
	if project == nil {
		return nil, nil, notFound("project_not_found", "project %s", projectID)
	}
	return docs, project, nil
}

func toExisting(codes []*types.Code) []coding.ExistingCode {
	out := make([]coding.ExistingCode, 0, len(codes))
	for _, c := range codes {
		out = append(out, coding.ExistingCode{Name: c.Name, Description: c.Description, Color: c.Color})
	}
	return out
}

func (s *aiCodingService) GenerateCode(ctx context.Context, userID uuid.UUID, documentIDs []uuid.UUID, opts CodingOptions) (*CodingResult, error) {
	ctx, span := s.tracer.Start(ctx, "ai_coding.generate_code")
	defer span.End()

	coder, err := s.coder(opts)
	if err != nil {
		return nil, err
	}
	docs, project, err := s.loadDocuments(ctx, userID, documentIDs)
	if err != nil {
		return nil, err
	}
	existing, err := s.codes.ListByProject(ctx, nil, project.ID)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.Inductive(ctx, coding.Run{
		ProjectID:       project.ID,
		Documents:       docs,
		ResearchContext: coding.FormatResearchContext(project.ResearchDetails),
		ExistingCodes:   toExisting(existing),
		Coder:           coder,
	})
	if err != nil {
		return nil, err
	}
	if empty(res) {
		return emptyResult(res.Summary), nil
	}

	if !opts.SkipRefinement {
		if st := s.llm.Limiter().SharedStatus(ctx, coder.Provider()); st.Healthy {
			stats := s.engine.ApplyRefinements(res.Registry, s.engine.Refine(ctx, coder, res.Registry, s.cfg.RefineConcurrency))
			res.Summary.CodesModified = stats.Modified
			res.Summary.CodesDeleted = stats.Deleted
		} else {
			s.log.Info("Provider backing off, skipping refinement", "provider", coder.Provider(), "delay", st.CurrentDelay)
			res.Summary.Errors = append(res.Summary.Errors, fmt.Sprintf("refinement skipped: provider %s is backing off", coder.Provider()))
		}
	}
	if !opts.SkipGrouping {
		g := s.engine.Group(ctx, coder, res.Registry)
		res.Summary.CodesGrouped = g.Grouped
		if g.Err != nil {
			res.Summary.Errors = append(res.Summary.Errors, fmt.Sprintf("grouping failed: %v", g.Err))
		}
	}
	res.Summary.Totals(res.Registry)

	out, err := s.persist(ctx, userID, project.ID, types.SessionInitialCoding, res)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("coding.assignments", len(out.Results)))
	return out, nil
}

func (s *aiCodingService) DeductiveCoding(ctx context.Context, userID uuid.UUID, documentIDs []uuid.UUID, codebookID uuid.UUID, opts CodingOptions) (*CodingResult, error) {
	ctx, span := s.tracer.Start(ctx, "ai_coding.deductive_coding")
	defer span.End()

	coder, err := s.coder(opts)
	if err != nil {
		return nil, err
	}
	cb, err := s.access.RequireCodebook(ctx, nil, codebookID, userID)
	if err != nil {
		return nil, err
	}
	codes, err := s.codes.ListByCodebook(ctx, nil, cb.ID)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return nil, invalid("empty_codebook", "codebook %s has no codes", cb.ID)
	}
	docs, project, err := s.loadDocuments(ctx, userID, documentIDs)
	if err != nil {
		return nil, err
	}
	if project.ID != cb.ProjectID {
		return nil, invalid("mixed_projects", "codebook %s belongs to a different project", cb.ID)
	}

	res, err := s.engine.Deductive(ctx, coding.Run{
		ProjectID:       project.ID,
		Documents:       docs,
		ResearchContext: coding.FormatResearchContext(project.ResearchDetails),
		ExistingCodes:   toExisting(codes),
		Coder:           coder,
	})
	if err != nil {
		return nil, err
	}
	if empty(res) {
		return emptyResult(res.Summary), nil
	}
	return s.persist(ctx, userID, project.ID, types.SessionDeductiveCoding, res)
}

func empty(res *coding.Result) bool {
	return res.Summary.TotalAssignments == 0 && len(res.Summary.Errors) > 0
}

func emptyResult(sum coding.Summary) *CodingResult {
	return &CodingResult{Results: []AssignmentResult{}, Summary: sum}
}

// persist creates the session codebook and commits the registry in one
// transaction. A connection failure is reported in the summary, not as an
// error, so callers can offer a retry.
func (s *aiCodingService) persist(ctx context.Context, userID, projectID uuid.UUID, sessionType string, res *coding.Result) (*CodingResult, error) {
	out := &CodingResult{Results: []AssignmentResult{}, Summary: res.Summary}
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		cb, err := s.codebookSvc.CreateSession(dbc.Ctx, dbc.Tx, userID, projectID, sessionType)
		if err != nil {
			return err
		}
		committed, err := s.committer.Commit(dbc.Ctx, dbc.Tx, CommitInput{
			UserID:    userID,
			ProjectID: projectID,
			Codebook:  cb,
			Registry:  res.Registry,
		})
		if err != nil {
			return err
		}
		out.AISessionCodebook = cb
		out.Results = buildResults(committed)
		for _, name := range committed.DroppedCodes {
			out.Summary.Errors = append(out.Summary.Errors, fmt.Sprintf("code %q could not be saved", name))
		}
		return nil
	})
	if err != nil {
		if txn.IsConnectionError(err) && !errors.Is(err, context.Canceled) {
			s.log.Error("Database connection failed while saving coding run", "error", err)
			out.AISessionCodebook = nil
			out.Results = []AssignmentResult{}
			out.Summary.ConnectionError = true
			out.Summary.Errors = append(out.Summary.Errors, "connection_error: "+err.Error())
			return out, nil
		}
		return nil, err
	}
	out.Summary.TotalAssignments = len(out.Results)
	return out, nil
}

func buildResults(c *CommitResult) []AssignmentResult {
	out := make([]AssignmentResult, 0, len(c.Assignments))
	for _, a := range c.Assignments {
		r := AssignmentResult{
			AssignmentID:     a.Row.ID,
			DocumentID:       a.Row.DocumentID,
			CodeID:           a.Code.ID,
			CodeName:         a.Code.Name,
			CodeDescription:  a.Code.Description,
			CodeColor:        a.Code.Color,
			StartChar:        a.Row.StartChar,
			EndChar:          a.Row.EndChar,
			Quote:            a.Record.Quote,
			TextSnapshot:     a.Row.TextSnapshot,
			Confidence:       a.Row.Confidence,
			Status:           string(a.Row.Status),
			RefinedStatus:    a.Record.RefinedStatus.String(),
			OriginalCodeName: a.Record.OriginalCodeName,
		}
		if a.Code.GroupName != nil {
			r.GroupName = *a.Code.GroupName
		}
		out = append(out, r)
	}
	return out
}
