package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/fulltheme-backend/internal/data/repos"
	"github.com/yungbote/fulltheme-backend/internal/data/txn"
	types "github.com/yungbote/fulltheme-backend/internal/domain"
	"github.com/yungbote/fulltheme-backend/internal/modules/coding"
	"github.com/yungbote/fulltheme-backend/internal/platform/dbctx"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
)

const assignmentBatchSize = 500

type CommitInput struct {
	UserID    uuid.UUID
	ProjectID uuid.UUID
	// Codebook receives codes that do not exist in the project yet.
	Codebook *types.Codebook
	Registry *coding.Registry
}

// CommittedAssignment pairs a persisted row with the record it came from.
type CommittedAssignment struct {
	Row    *types.CodeAssignment
	Record *coding.AssignmentRecord
	Code   *types.Code
}

type CommitResult struct {
	// Codes maps each surviving in-memory name to its persisted row.
	Codes              map[string]*types.Code
	Assignments        []CommittedAssignment
	CodesInserted      int
	CodesReused        int
	DroppedCodes       []string
	DroppedAssignments int
}

// CodeCommitter writes a run's final registry to the database.
type CodeCommitter interface {
	// Commit upserts codes by (project, name) and bulk-inserts assignments.
	// With a nil tx it opens its own transaction; either everything lands or
	// nothing does.
	Commit(ctx context.Context, tx *gorm.DB, in CommitInput) (*CommitResult, error)
}

type codeCommitter struct {
	db          *gorm.DB
	log         *logger.Logger
	runner      txn.Runner
	codes       repos.CodeRepo
	assignments repos.CodeAssignmentRepo
}

func NewCodeCommitter(
	db *gorm.DB,
	baseLog *logger.Logger,
	runner txn.Runner,
	codes repos.CodeRepo,
	assignments repos.CodeAssignmentRepo,
) CodeCommitter {
	return &codeCommitter{
		db:          db,
		log:         baseLog.With("service", "CodeCommitter"),
		runner:      runner,
		codes:       codes,
		assignments: assignments,
	}
}

func (s *codeCommitter) Commit(ctx context.Context, tx *gorm.DB, in CommitInput) (*CommitResult, error) {
	if in.Registry == nil {
		return nil, invalid("invalid_commit", "registry required")
	}
	if in.Codebook == nil {
		return nil, invalid("invalid_commit", "target codebook required")
	}
	if in.Codebook.Finalized {
		return nil, finalized("codebook %s", in.Codebook.ID)
	}
	if tx != nil {
		return s.commit(ctx, tx, in)
	}
	var out *CommitResult
	err := s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		res, err := s.commit(dbc.Ctx, dbc.Tx, in)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *codeCommitter) commit(ctx context.Context, tx *gorm.DB, in CommitInput) (*CommitResult, error) {
	res := &CommitResult{Codes: map[string]*types.Code{}}

	for _, rec := range in.Registry.LiveCodes() {
		code, inserted, err := s.upsertCode(ctx, tx, in, rec)
		if err != nil {
			return nil, err
		}
		if code == nil {
			res.DroppedCodes = append(res.DroppedCodes, rec.Name)
			continue
		}
		if inserted {
			res.CodesInserted++
		} else {
			res.CodesReused++
		}
		res.Codes[rec.Name] = code
	}

	records := in.Registry.Assignments()
	rows := make([]*types.CodeAssignment, 0, len(records))
	pending := make([]CommittedAssignment, 0, len(records))
	for _, rec := range records {
		code, ok := res.Codes[rec.CodeName]
		if !ok {
			res.DroppedAssignments++
			continue
		}
		// Ids are assigned here so results need no re-query after the batch insert.
		row := &types.CodeAssignment{
			ID:           uuid.New(),
			DocumentID:   rec.DocumentID,
			CodeID:       code.ID,
			StartChar:    rec.StartChar,
			EndChar:      rec.EndChar,
			TextSnapshot: rec.TextSnapshot,
			CreatedBy:    in.UserID,
			Confidence:   rec.Confidence,
			Status:       types.AssignmentPending,
		}
		if err := row.Validate(); err != nil {
			s.log.Warn("Skipping invalid assignment", "code", rec.CodeName, "document_id", rec.DocumentID, "error", err)
			res.DroppedAssignments++
			continue
		}
		rows = append(rows, row)
		pending = append(pending, CommittedAssignment{Row: row, Record: rec, Code: code})
	}

	if _, err := s.assignments.CreateInBatches(ctx, tx, rows, assignmentBatchSize); err != nil {
		return nil, fmt.Errorf("insert assignments: %w", err)
	}

	res.Assignments = pending

	if len(res.DroppedCodes) > 0 {
		s.log.Error("Codes dropped during commit", "codes", res.DroppedCodes, "assignments", res.DroppedAssignments)
	}
	s.log.Info("Committed coding run",
		"codebook_id", in.Codebook.ID,
		"codes_inserted", res.CodesInserted,
		"codes_reused", res.CodesReused,
		"assignments", len(res.Assignments),
	)
	return res, nil
}

// upsertCode returns the project's code named rec.Name, inserting it under the
// session codebook when absent. A nil code means the insert failed and no row
// could be found afterwards.
func (s *codeCommitter) upsertCode(ctx context.Context, tx *gorm.DB, in CommitInput, rec *coding.CodeRecord) (*types.Code, bool, error) {
	existing, err := s.codes.GetByProjectAndName(ctx, tx, in.ProjectID, rec.Name)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	row := &types.Code{
		Name:            rec.Name,
		Description:     rec.Description,
		Color:           rec.Color,
		ProjectID:       in.ProjectID,
		CodebookID:      in.Codebook.ID,
		CreatedBy:       in.UserID,
		IsAutoGenerated: rec.IsAutoGenerated,
	}
	if rec.GroupName != "" {
		g := rec.GroupName
		row.GroupName = &g
	}
	insertErr := txn.Savepoint(ctx, tx, func(sp *gorm.DB) error {
		_, err := s.codes.Create(ctx, sp, []*types.Code{row})
		return err
	})
	if insertErr == nil {
		return row, true, nil
	}
	if txn.IsConnectionError(insertErr) {
		return nil, false, insertErr
	}

	s.log.Warn("Code insert failed, re-reading", "code", rec.Name, "project_id", in.ProjectID, "error", insertErr)
	existing, err = s.codes.GetByProjectAndName(ctx, tx, in.ProjectID, rec.Name)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		s.log.Error("Code insert failed and no existing row, dropping", "code", rec.Name, "error", insertErr)
		return nil, false, nil
	}
	return existing, false, nil
}
