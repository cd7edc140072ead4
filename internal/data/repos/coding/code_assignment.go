package coding

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/fulltheme-backend/internal/domain"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
)

// AssignmentView is an assignment joined with its code's name.
type AssignmentView struct {
	types.CodeAssignment
	CodeName string `json:"code_name"`
}

type StatusCounts struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Accepted int64 `json:"accepted"`
	Rejected int64 `json:"rejected"`
}

type CodeAssignmentRepo interface {
	CreateInBatches(ctx context.Context, tx *gorm.DB, rows []*types.CodeAssignment, batchSize int) ([]*types.CodeAssignment, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.CodeAssignment, error)
	GetByIDsForCreator(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, userID uuid.UUID) ([]*types.CodeAssignment, error)
	ListByCodebook(ctx context.Context, tx *gorm.DB, codebookID uuid.UUID, status *types.AssignmentStatus) ([]*AssignmentView, error)
	CountByCodebook(ctx context.Context, tx *gorm.DB, codebookID uuid.UUID) (StatusCounts, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type codeAssignmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCodeAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) CodeAssignmentRepo {
	return &codeAssignmentRepo{db: db, log: baseLog.With("repo", "CodeAssignmentRepo")}
}

func (r *codeAssignmentRepo) CreateInBatches(ctx context.Context, tx *gorm.DB, rows []*types.CodeAssignment, batchSize int) ([]*types.CodeAssignment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.CodeAssignment{}, nil
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	if err := t.WithContext(ctx).CreateInBatches(&rows, batchSize).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *codeAssignmentRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.CodeAssignment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.CodeAssignment
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *codeAssignmentRepo) GetByIDsForCreator(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, userID uuid.UUID) ([]*types.CodeAssignment, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.CodeAssignment
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("id IN ? AND created_by = ?", ids, userID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *codeAssignmentRepo) ListByCodebook(ctx context.Context, tx *gorm.DB, codebookID uuid.UUID, status *types.AssignmentStatus) ([]*AssignmentView, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	q := t.WithContext(ctx).
		Table("code_assignment").
		Select("code_assignment.*, code.name AS code_name").
		Joins("JOIN code ON code.id = code_assignment.code_id").
		Where("code.codebook_id = ?", codebookID)
	if status != nil {
		q = q.Where("code_assignment.status = ?", *status)
	}
	var out []*AssignmentView
	if err := q.Order("code_assignment.created_at ASC").Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *codeAssignmentRepo) CountByCodebook(ctx context.Context, tx *gorm.DB, codebookID uuid.UUID) (StatusCounts, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var rows []struct {
		Status string
		N      int64
	}
	err := t.WithContext(ctx).
		Table("code_assignment").
		Select("code_assignment.status AS status, COUNT(*) AS n").
		Joins("JOIN code ON code.id = code_assignment.code_id").
		Where("code.codebook_id = ?", codebookID).
		Group("code_assignment.status").
		Scan(&rows).Error
	if err != nil {
		return StatusCounts{}, err
	}
	var out StatusCounts
	for _, row := range rows {
		out.Total += row.N
		switch types.AssignmentStatus(row.Status) {
		case types.AssignmentPending:
			out.Pending = row.N
		case types.AssignmentAccepted:
			out.Accepted = row.N
		case types.AssignmentRejected:
			out.Rejected = row.N
		}
	}
	return out, nil
}

func (r *codeAssignmentRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	return t.WithContext(ctx).Model(&types.CodeAssignment{}).Where("id = ?", id).Updates(updates).Error
}
