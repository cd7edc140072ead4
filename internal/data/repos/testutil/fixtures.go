package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	types "github.com/yungbote/fulltheme-backend/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, research string) *types.Project {
	tb.Helper()
	p := &types.Project{
		ID:      uuid.New(),
		Name:    "project",
		OwnerID: ownerID,
	}
	if research != "" {
		p.ResearchDetails = datatypes.JSON([]byte(research))
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

func SeedCollaborator(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID) {
	tb.Helper()
	row := &types.ProjectCollaborator{ProjectID: projectID, UserID: userID, Role: "editor"}
	if err := tx.WithContext(ctx).Create(row).Error; err != nil {
		tb.Fatalf("seed collaborator: %v", err)
	}
}

func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID, content string) *types.Document {
	tb.Helper()
	d := &types.Document{
		ID:         uuid.New(),
		Name:       "interview.txt",
		Content:    content,
		ProjectID:  projectID,
		UploadedBy: userID,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed document: %v", err)
	}
	return d
}

func SeedCodebook(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID, userID uuid.UUID, name string, aiGenerated bool) *types.Codebook {
	tb.Helper()
	cb := &types.Codebook{
		ID:            uuid.New(),
		Name:          name,
		ProjectID:     projectID,
		UserID:        userID,
		IsAIGenerated: aiGenerated,
	}
	if err := tx.WithContext(ctx).Create(cb).Error; err != nil {
		tb.Fatalf("seed codebook: %v", err)
	}
	return cb
}

func SeedCode(tb testing.TB, ctx context.Context, tx *gorm.DB, cb *types.Codebook, name string) *types.Code {
	tb.Helper()
	c := &types.Code{
		ID:          uuid.New(),
		Name:        name,
		Description: name + " description",
		ProjectID:   cb.ProjectID,
		CodebookID:  cb.ID,
		CreatedBy:   cb.UserID,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed code: %v", err)
	}
	return c
}

func SeedAssignment(tb testing.TB, ctx context.Context, tx *gorm.DB, code *types.Code, docID, userID uuid.UUID, start, end int) *types.CodeAssignment {
	tb.Helper()
	a := &types.CodeAssignment{
		ID:         uuid.New(),
		DocumentID: docID,
		CodeID:     code.ID,
		StartChar:  start,
		EndChar:    end,
		CreatedBy:  userID,
		Confidence: 80,
		Status:     types.AssignmentPending,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed assignment: %v", err)
	}
	return a
}
