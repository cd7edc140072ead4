package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/fulltheme-backend/internal/data/repos"
	"github.com/yungbote/fulltheme-backend/internal/data/txn"
	types "github.com/yungbote/fulltheme-backend/internal/domain"
	"github.com/yungbote/fulltheme-backend/internal/domain/coding"
	"github.com/yungbote/fulltheme-backend/internal/platform/dbctx"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
)

// CodeMove records an accepted AI code landing in the user's default codebook.
type CodeMove struct {
	AssignmentID   uuid.UUID `json:"assignment_id"`
	CodeID         uuid.UUID `json:"code_id"`
	CodeName       string    `json:"code_name"`
	FromCodebookID uuid.UUID `json:"from_codebook_id"`
	ToCodebookID   uuid.UUID `json:"to_codebook_id"`
	// Merged is set when the assignment was repointed to a same-named code
	// already in the default codebook instead of moving its own code.
	Merged         bool      `json:"merged"`
	OriginalCodeID uuid.UUID `json:"original_code_id"`
}

type ReviewResult struct {
	UpdatedCount        int        `json:"updated_count"`
	Status              string     `json:"status"`
	CodesMovedToDefault []CodeMove `json:"codes_moved_to_default"`
}

type ReviewDetail struct {
	AssignmentID uuid.UUID `json:"assignment_id"`
	Status       string    `json:"status"`
	CodeID       uuid.UUID `json:"code_id"`
}

type BulkReviewResult struct {
	TotalUpdated        int            `json:"total_updated"`
	AcceptedCount       int            `json:"accepted_count"`
	RejectedCount       int            `json:"rejected_count"`
	CodesMovedToDefault []CodeMove     `json:"codes_moved_to_default"`
	Details             []ReviewDetail `json:"details"`
}

type CodebookAssignments struct {
	Codebook       *types.Codebook         `json:"codebook"`
	Assignments    []*repos.AssignmentView `json:"assignments"`
	Total          int64                   `json:"total"`
	Pending        int64                   `json:"pending"`
	Accepted       int64                   `json:"accepted"`
	Rejected       int64                   `json:"rejected"`
	ReviewComplete bool                    `json:"review_complete"`
}

type ReviewService interface {
	Review(ctx context.Context, userID uuid.UUID, assignmentIDs []uuid.UUID, status string) (*ReviewResult, error)
	BulkReview(ctx context.Context, userID uuid.UUID, acceptedIDs, rejectedIDs []uuid.UUID) (*BulkReviewResult, error)
	ListCodebookAssignments(ctx context.Context, userID, codebookID uuid.UUID, status string) (*CodebookAssignments, error)
	ListProjectAICodebooks(ctx context.Context, userID, projectID uuid.UUID) ([]*types.Codebook, error)
}

type reviewService struct {
	db          *gorm.DB
	log         *logger.Logger
	runner      txn.Runner
	access      AccessService
	codebookSvc CodebookService
	codebooks   repos.CodebookRepo
	codes       repos.CodeRepo
	assignments repos.CodeAssignmentRepo
}

func NewReviewService(
	db *gorm.DB,
	baseLog *logger.Logger,
	runner txn.Runner,
	access AccessService,
	codebookSvc CodebookService,
	codebooks repos.CodebookRepo,
	codes repos.CodeRepo,
	assignments repos.CodeAssignmentRepo,
) ReviewService {
	return &reviewService{
		db:          db,
		log:         baseLog.With("service", "ReviewService"),
		runner:      runner,
		access:      access,
		codebookSvc: codebookSvc,
		codebooks:   codebooks,
		codes:       codes,
		assignments: assignments,
	}
}

func (s *reviewService) Review(ctx context.Context, userID uuid.UUID, assignmentIDs []uuid.UUID, status string) (*ReviewResult, error) {
	st, err := coding.ParseAssignmentStatus(strings.TrimSpace(status))
	if err != nil {
		return nil, invalid("invalid_status", "%v", err)
	}
	ids := dedupeIDs(assignmentIDs)
	if len(ids) == 0 {
		return nil, invalid("invalid_request", "assignment_ids required")
	}

	out := &ReviewResult{Status: string(st), CodesMovedToDefault: []CodeMove{}}
	err = s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		rows, err := s.loadOwned(dbc.Ctx, dbc.Tx, ids, userID)
		if err != nil {
			return err
		}
		for _, row := range rows {
			move, err := s.apply(dbc.Ctx, dbc.Tx, userID, row, st)
			if err != nil {
				return err
			}
			if move != nil {
				out.CodesMovedToDefault = append(out.CodesMovedToDefault, *move)
			}
			out.UpdatedCount++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Reviewed assignments", "user_id", userID, "status", st, "updated", out.UpdatedCount, "moved", len(out.CodesMovedToDefault))
	return out, nil
}

func (s *reviewService) BulkReview(ctx context.Context, userID uuid.UUID, acceptedIDs, rejectedIDs []uuid.UUID) (*BulkReviewResult, error) {
	accepted := dedupeIDs(acceptedIDs)
	rejected := dedupeIDs(rejectedIDs)
	if len(accepted) == 0 && len(rejected) == 0 {
		return nil, invalid("invalid_request", "no assignment ids provided")
	}
	inAccepted := make(map[uuid.UUID]bool, len(accepted))
	for _, id := range accepted {
		inAccepted[id] = true
	}
	var overlap []string
	for _, id := range rejected {
		if inAccepted[id] {
			overlap = append(overlap, id.String())
		}
	}
	if len(overlap) > 0 {
		return nil, invalid("overlapping_ids", "assignments both accepted and rejected: [%s]", strings.Join(overlap, ", "))
	}

	out := &BulkReviewResult{CodesMovedToDefault: []CodeMove{}, Details: []ReviewDetail{}}
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		all := append(append([]uuid.UUID{}, accepted...), rejected...)
		rows, err := s.loadOwned(dbc.Ctx, dbc.Tx, all, userID)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]*types.CodeAssignment, len(rows))
		for _, r := range rows {
			byID[r.ID] = r
		}
		run := func(ids []uuid.UUID, st types.AssignmentStatus, count *int) error {
			for _, id := range ids {
				row := byID[id]
				move, err := s.apply(dbc.Ctx, dbc.Tx, userID, row, st)
				if err != nil {
					return err
				}
				if move != nil {
					out.CodesMovedToDefault = append(out.CodesMovedToDefault, *move)
				}
				out.Details = append(out.Details, ReviewDetail{AssignmentID: id, Status: string(st), CodeID: row.CodeID})
				*count++
				out.TotalUpdated++
			}
			return nil
		}
		if err := run(accepted, types.AssignmentAccepted, &out.AcceptedCount); err != nil {
			return err
		}
		return run(rejected, types.AssignmentRejected, &out.RejectedCount)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Bulk reviewed assignments",
		"user_id", userID,
		"accepted", out.AcceptedCount,
		"rejected", out.RejectedCount,
		"moved", len(out.CodesMovedToDefault),
	)
	return out, nil
}

// loadOwned returns the rows for ids created by userID, failing when any id
// is missing or belongs to someone else.
func (s *reviewService) loadOwned(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, userID uuid.UUID) ([]*types.CodeAssignment, error) {
	rows, err := s.assignments.GetByIDsForCreator(ctx, tx, ids, userID)
	if err != nil {
		return nil, err
	}
	if len(rows) == len(ids) {
		return rows, nil
	}
	found := make(map[uuid.UUID]bool, len(rows))
	for _, r := range rows {
		found[r.ID] = true
	}
	var missing []string
	for _, id := range ids {
		if !found[id] {
			missing = append(missing, id.String())
		}
	}
	sort.Strings(missing)
	return nil, notFound("assignments_not_found", "Assignments not found or access denied: [%s]", strings.Join(missing, ", "))
}

// apply sets row's status. Accepting an assignment whose code sits in an
// open AI codebook moves the code into the user's default codebook, or
// repoints the assignment when a same-named code is already there.
func (s *reviewService) apply(ctx context.Context, tx *gorm.DB, userID uuid.UUID, row *types.CodeAssignment, st types.AssignmentStatus) (*CodeMove, error) {
	if err := s.assignments.UpdateFields(ctx, tx, row.ID, map[string]interface{}{"status": st}); err != nil {
		return nil, fmt.Errorf("update assignment %s: %w", row.ID, err)
	}
	row.Status = st
	if st != types.AssignmentAccepted {
		return nil, nil
	}

	code, err := s.codes.GetByID(ctx, tx, row.CodeID)
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, notFound("code_not_found", "code %s", row.CodeID)
	}
	source, err := s.codebooks.GetByID(ctx, tx, code.CodebookID)
	if err != nil {
		return nil, err
	}
	if source == nil || !source.IsAIGenerated || source.Finalized {
		return nil, nil
	}

	def, err := s.codebookSvc.GetOrCreateDefault(ctx, tx, userID, code.ProjectID)
	if err != nil {
		return nil, err
	}
	move := &CodeMove{
		AssignmentID:   row.ID,
		CodeName:       code.Name,
		FromCodebookID: source.ID,
		ToCodebookID:   def.ID,
		OriginalCodeID: code.ID,
	}

	twin, err := s.codes.FindInCodebookByName(ctx, tx, def.ID, code.Name)
	if err != nil {
		return nil, err
	}
	if twin != nil && twin.ID != code.ID {
		if err := s.assignments.UpdateFields(ctx, tx, row.ID, map[string]interface{}{"code_id": twin.ID}); err != nil {
			return nil, fmt.Errorf("repoint assignment %s: %w", row.ID, err)
		}
		row.CodeID = twin.ID
		move.CodeID = twin.ID
		move.Merged = true
		return move, nil
	}
	if def.Finalized {
		s.log.Warn("Default codebook finalized, leaving accepted code in place", "code_id", code.ID, "codebook_id", def.ID)
		return nil, nil
	}
	if err := s.codes.UpdateFields(ctx, tx, code.ID, map[string]interface{}{"codebook_id": def.ID}); err != nil {
		return nil, fmt.Errorf("move code %s: %w", code.ID, err)
	}
	move.CodeID = code.ID
	return move, nil
}

func (s *reviewService) ListCodebookAssignments(ctx context.Context, userID, codebookID uuid.UUID, status string) (*CodebookAssignments, error) {
	cb, err := s.access.RequireCodebook(ctx, nil, codebookID, userID)
	if err != nil {
		return nil, err
	}
	var filter *types.AssignmentStatus
	if status = strings.TrimSpace(status); status != "" {
		st, err := coding.ParseAssignmentStatus(status)
		if err != nil {
			return nil, invalid("invalid_status", "%v", err)
		}
		filter = &st
	}
	rows, err := s.assignments.ListByCodebook(ctx, nil, cb.ID, filter)
	if err != nil {
		return nil, err
	}
	counts, err := s.assignments.CountByCodebook(ctx, nil, cb.ID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*repos.AssignmentView{}
	}
	return &CodebookAssignments{
		Codebook:       cb,
		Assignments:    rows,
		Total:          counts.Total,
		Pending:        counts.Pending,
		Accepted:       counts.Accepted,
		Rejected:       counts.Rejected,
		ReviewComplete: counts.Total > 0 && counts.Pending == 0,
	}, nil
}

func (s *reviewService) ListProjectAICodebooks(ctx context.Context, userID, projectID uuid.UUID) ([]*types.Codebook, error) {
	if _, err := s.access.RequireProject(ctx, nil, projectID, userID); err != nil {
		return nil, err
	}
	out, err := s.codebooks.ListAIByProject(ctx, nil, projectID, userID)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*types.Codebook{}
	}
	return out, nil
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
