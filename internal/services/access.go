package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/fulltheme-backend/internal/data/repos"
	types "github.com/yungbote/fulltheme-backend/internal/domain"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
)

// AccessService answers read-permission questions. Project owners and
// collaborators may read a project, its documents and its codebooks; a
// codebook's owner may always read it.
type AccessService interface {
	RequireProject(ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID) (*types.Project, error)
	RequireDocument(ctx context.Context, tx *gorm.DB, documentID, userID uuid.UUID) (*types.Document, error)
	RequireCodebook(ctx context.Context, tx *gorm.DB, codebookID, userID uuid.UUID) (*types.Codebook, error)
}

type accessService struct {
	db        *gorm.DB
	log       *logger.Logger
	projects  repos.ProjectRepo
	documents repos.DocumentRepo
	codebooks repos.CodebookRepo
}

func NewAccessService(
	db *gorm.DB,
	baseLog *logger.Logger,
	projects repos.ProjectRepo,
	documents repos.DocumentRepo,
	codebooks repos.CodebookRepo,
) AccessService {
	return &accessService{
		db:        db,
		log:       baseLog.With("service", "AccessService"),
		projects:  projects,
		documents: documents,
		codebooks: codebooks,
	}
}

func (s *accessService) RequireProject(ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID) (*types.Project, error) {
	project, err := s.projects.GetByID(ctx, tx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, notFound("project_not_found", "project %s", projectID)
	}
	ok, err := s.projects.IsMember(ctx, tx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, accessDenied("project_access_denied", "project %s", projectID)
	}
	return project, nil
}

func (s *accessService) RequireDocument(ctx context.Context, tx *gorm.DB, documentID, userID uuid.UUID) (*types.Document, error) {
	doc, err := s.documents.GetByID(ctx, tx, documentID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, notFound("document_not_found", "document %s", documentID)
	}
	ok, err := s.projects.IsMember(ctx, tx, doc.ProjectID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.log.Warn("Document access denied", "document_id", documentID, "user_id", userID)
		return nil, accessDenied("document_access_denied", "document %s", documentID)
	}
	return doc, nil
}

func (s *accessService) RequireCodebook(ctx context.Context, tx *gorm.DB, codebookID, userID uuid.UUID) (*types.Codebook, error) {
	cb, err := s.codebooks.GetByID(ctx, tx, codebookID)
	if err != nil {
		return nil, err
	}
	if cb == nil {
		return nil, notFound("codebook_not_found", "codebook %s", codebookID)
	}
	if cb.UserID == userID {
		return cb, nil
	}
	ok, err := s.projects.IsMember(ctx, tx, cb.ProjectID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, accessDenied("codebook_access_denied", "codebook %s", codebookID)
	}
	return cb, nil
}
