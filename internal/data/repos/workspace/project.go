package workspace

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/fulltheme-backend/internal/domain"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
)

type ProjectRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Project) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Project, error)
	// IsMember reports whether userID owns or collaborates on the project.
	IsMember(ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID) (bool, error)
	AddCollaborator(ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID, role string) error
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{db: db, log: baseLog.With("repo", "ProjectRepo")}
}

func (r *projectRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Project) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return t.WithContext(ctx).Create(row).Error
}

func (r *projectRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Project, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Project
	err := t.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *projectRepo) IsMember(ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if projectID == uuid.Nil || userID == uuid.Nil {
		return false, nil
	}
	var owners int64
	if err := t.WithContext(ctx).Model(&types.Project{}).
		Where("id = ? AND owner_id = ?", projectID, userID).
		Count(&owners).Error; err != nil {
		return false, err
	}
	if owners > 0 {
		return true, nil
	}
	var collaborators int64
	if err := t.WithContext(ctx).Model(&types.ProjectCollaborator{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&collaborators).Error; err != nil {
		return false, err
	}
	return collaborators > 0, nil
}

func (r *projectRepo) AddCollaborator(ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID, role string) error {
	t := tx
	if t == nil {
		t = r.db
	}
	if role == "" {
		role = "editor"
	}
	return t.WithContext(ctx).Create(&types.ProjectCollaborator{ProjectID: projectID, UserID: userID, Role: role}).Error
}
