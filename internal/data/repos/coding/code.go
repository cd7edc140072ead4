package coding

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/fulltheme-backend/internal/domain"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
)

type CodeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rows []*types.Code) ([]*types.Code, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Code, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Code, error)
	GetByProjectAndName(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, name string) (*types.Code, error)
	// FindInCodebookByName matches the exact name. Case counts, as it does for
	// project-level uniqueness.
	FindInCodebookByName(ctx context.Context, tx *gorm.DB, codebookID uuid.UUID, name string) (*types.Code, error)
	ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.Code, error)
	ListByCodebook(ctx context.Context, tx *gorm.DB, codebookID uuid.UUID) ([]*types.Code, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type codeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCodeRepo(db *gorm.DB, baseLog *logger.Logger) CodeRepo {
	return &codeRepo{db: db, log: baseLog.With("repo", "CodeRepo")}
}

func (r *codeRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Code) ([]*types.Code, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.Code{}, nil
	}
	if err := t.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *codeRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Code, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Code
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *codeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Code, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(ctx, tx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *codeRepo) GetByProjectAndName(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, name string) (*types.Code, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var row types.Code
	err := t.WithContext(ctx).Where("project_id = ? AND name = ?", projectID, name).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *codeRepo) FindInCodebookByName(ctx context.Context, tx *gorm.DB, codebookID uuid.UUID, name string) (*types.Code, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var row types.Code
	err := t.WithContext(ctx).
		Where("codebook_id = ? AND name = ?", codebookID, name).
		Order("created_at ASC").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *codeRepo) ListByProject(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.Code, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Code
	if err := t.WithContext(ctx).Where("project_id = ?", projectID).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *codeRepo) ListByCodebook(ctx context.Context, tx *gorm.DB, codebookID uuid.UUID) ([]*types.Code, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Code
	if err := t.WithContext(ctx).Where("codebook_id = ?", codebookID).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *codeRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
	return t.WithContext(ctx).Model(&types.Code{}).Where("id = ?", id).Updates(updates).Error
}
