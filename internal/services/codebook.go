package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/yungbote/fulltheme-backend/internal/data/repos"
	"github.com/yungbote/fulltheme-backend/internal/data/txn"
	types "github.com/yungbote/fulltheme-backend/internal/domain"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
)

const sessionCreateAttempts = 5

type CodebookService interface {
	// GetOrCreateDefault returns the user's single non-AI codebook for the
	// project, creating it on first use. Losing a creation race re-reads the
	// winner's row.
	GetOrCreateDefault(ctx context.Context, tx *gorm.DB, userID, projectID uuid.UUID) (*types.Codebook, error)
	// CreateSession creates the next "{sessionType}_{n}" AI codebook, n being
	// the smallest unused positive number for (user, project).
	CreateSession(ctx context.Context, tx *gorm.DB, userID, projectID uuid.UUID, sessionType string) (*types.Codebook, error)
}

type codebookService struct {
	db        *gorm.DB
	log       *logger.Logger
	codebooks repos.CodebookRepo
	sf        singleflight.Group
}

func NewCodebookService(db *gorm.DB, baseLog *logger.Logger, codebooks repos.CodebookRepo) CodebookService {
	return &codebookService{
		db:        db,
		log:       baseLog.With("service", "CodebookService"),
		codebooks: codebooks,
	}
}

func (s *codebookService) GetOrCreateDefault(ctx context.Context, tx *gorm.DB, userID, projectID uuid.UUID) (*types.Codebook, error) {
	if tx != nil {
		return s.getOrCreateDefault(ctx, tx, userID, projectID)
	}
	// Outside a transaction concurrent callers in this process share one attempt.
	v, err, _ := s.sf.Do(userID.String()+"|"+projectID.String(), func() (interface{}, error) {
		return s.getOrCreateDefault(ctx, s.db, userID, projectID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*types.Codebook), nil
}

func (s *codebookService) getOrCreateDefault(ctx context.Context, tx *gorm.DB, userID, projectID uuid.UUID) (*types.Codebook, error) {
	cb, err := s.codebooks.GetDefault(ctx, tx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if cb != nil {
		return cb, nil
	}

	row := &types.Codebook{
		Name:          types.DefaultCodebookName,
		Description:   types.DefaultCodebookDescription,
		UserID:        userID,
		ProjectID:     projectID,
		IsAIGenerated: false,
	}
	err = txn.Savepoint(ctx, tx, func(sp *gorm.DB) error {
		return s.codebooks.Create(ctx, sp, row)
	})
	if err == nil {
		s.log.Info("Created default codebook", "codebook_id", row.ID, "project_id", projectID, "user_id", userID)
		return row, nil
	}
	if !txn.IsUniqueViolation(err) {
		return nil, fmt.Errorf("create default codebook: %w", err)
	}

	s.log.Debug("Default codebook created concurrently, re-reading", "project_id", projectID, "user_id", userID)
	cb, err = s.codebooks.GetDefault(ctx, tx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if cb == nil {
		return nil, errors.New("default codebook conflict but no row found")
	}
	return cb, nil
}

func (s *codebookService) CreateSession(ctx context.Context, tx *gorm.DB, userID, projectID uuid.UUID, sessionType string) (*types.Codebook, error) {
	t := tx
	if t == nil {
		t = s.db
	}
	sessionType = strings.TrimSpace(sessionType)
	if sessionType == "" {
		return nil, invalid("invalid_session_type", "session type required")
	}
	prefix := sessionType + "_"

	var lastErr error
	for attempt := 0; attempt < sessionCreateAttempts; attempt++ {
		names, err := s.codebooks.ListNamesWithPrefix(ctx, t, userID, projectID, prefix)
		if err != nil {
			return nil, err
		}
		n := nextSessionNumber(names, prefix)
		row := &types.Codebook{
			Name:          prefix + strconv.Itoa(n),
			Description:   fmt.Sprintf("Codebook for %s codes - Session %d", humanizeSession(sessionType), n),
			UserID:        userID,
			ProjectID:     projectID,
			IsAIGenerated: true,
		}
		err = txn.Savepoint(ctx, t, func(sp *gorm.DB) error {
			return s.codebooks.Create(ctx, sp, row)
		})
		if err == nil {
			return row, nil
		}
		if !txn.IsUniqueViolation(err) {
			return nil, fmt.Errorf("create session codebook: %w", err)
		}
		lastErr = err
		s.log.Debug("Session codebook name taken, retrying", "name", row.Name, "attempt", attempt+1)
	}
	return nil, fmt.Errorf("create session codebook after %d attempts: %w", sessionCreateAttempts, lastErr)
}

// nextSessionNumber returns the smallest n >= 1 such that prefix+n is not in
// names. Names whose suffix is not a positive integer are ignored.
func nextSessionNumber(names []string, prefix string) int {
	used := map[int]bool{}
	for _, name := range names {
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(name, prefix))
		if err != nil || n < 1 {
			continue
		}
		used[n] = true
	}
	n := 1
	for used[n] {
		n++
	}
	return n
}

func humanizeSession(sessionType string) string {
	return strings.ReplaceAll(strings.ToLower(sessionType), "_", " ")
}
