package coding

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/fulltheme-backend/internal/domain"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
)

type CodebookRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Codebook) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Codebook, error)
	GetDefault(ctx context.Context, tx *gorm.DB, userID, projectID uuid.UUID) (*types.Codebook, error)
	ListNamesWithPrefix(ctx context.Context, tx *gorm.DB, userID, projectID uuid.UUID, prefix string) ([]string, error)
	ListAIByProject(ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID) ([]*types.Codebook, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type codebookRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCodebookRepo(db *gorm.DB, baseLog *logger.Logger) CodebookRepo {
	return &codebookRepo{db: db, log: baseLog.With("repo", "CodebookRepo")}
}

func (r *codebookRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Codebook) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *codebookRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Codebook, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Codebook
	err := t.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *codebookRepo) GetDefault(ctx context.Context, tx *gorm.DB, userID, projectID uuid.UUID) (*types.Codebook, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var row types.Codebook
	err := t.WithContext(ctx).
		Where("user_id = ? AND project_id = ? AND is_ai_generated = ?", userID, projectID, false).
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

func (r *codebookRepo) ListNamesWithPrefix(ctx context.Context, tx *gorm.DB, userID, projectID uuid.UUID, prefix string) ([]string, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var names []string
	err := t.WithContext(ctx).
		Model(&types.Codebook{}).
		Where("user_id = ? AND project_id = ? AND name LIKE ?", userID, projectID, prefix+"%").
		Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

func (r *codebookRepo) ListAIByProject(ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID) ([]*types.Codebook, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*types.Codebook
	err := t.WithContext(ctx).
		Where("project_id = ? AND user_id = ? AND is_ai_generated = ?", projectID, userID, true).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *codebookRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
	return t.WithContext(ctx).Model(&types.Codebook{}).Where("id = ?", id).Updates(updates).Error
}
