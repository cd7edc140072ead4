package workspace

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/fulltheme-backend/internal/data/repos/testutil"
	types "github.com/yungbote/fulltheme-backend/internal/domain"
)

func TestProjectRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewProjectRepo(db, testutil.Logger(t))

	owner, collaborator, stranger := uuid.New(), uuid.New(), uuid.New()
	p := &types.Project{Name: "Study", OwnerID: owner}
	if err := repo.Create(ctx, tx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.AddCollaborator(ctx, tx, p.ID, collaborator, ""); err != nil {
		t.Fatalf("AddCollaborator: %v", err)
	}
	for _, tc := range []struct {
		user uuid.UUID
		want bool
	}{{owner, true}, {collaborator, true}, {stranger, false}} {
		ok, err := repo.IsMember(ctx, tx, p.ID, tc.user)
		if err != nil || ok != tc.want {
			t.Fatalf("IsMember(%s): ok=%v err=%v want=%v", tc.user, ok, err, tc.want)
		}
	}
	if got, err := repo.GetByID(ctx, tx, p.ID); err != nil || got == nil || got.Name != "Study" {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
}

func TestDocumentAndThemeRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	docs := NewDocumentRepo(db, testutil.Logger(t))
	themes := NewThemeRepo(db, testutil.Logger(t))

	owner := uuid.New()
	p := testutil.SeedProject(t, ctx, tx, owner, "")
	rows, err := docs.Create(ctx, tx, []*types.Document{{Name: "a.txt", Content: "alpha", ProjectID: p.ID, UploadedBy: owner}})
	if err != nil || len(rows) != 1 {
		t.Fatalf("Create: err=%v len=%d", err, len(rows))
	}
	if got, err := docs.GetByID(ctx, tx, rows[0].ID); err != nil || got == nil || got.Content != "alpha" {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if got, err := docs.GetByID(ctx, tx, uuid.New()); err != nil || got != nil {
		t.Fatalf("GetByID(missing): got=%v err=%v", got, err)
	}

	th := &types.Theme{Name: "Belonging", ProjectID: p.ID, CreatedBy: owner, RelatedCodes: []string{"Empathy"}}
	if err := themes.Create(ctx, tx, th); err != nil {
		t.Fatalf("Theme Create: %v", err)
	}
	list, err := themes.ListByProject(ctx, tx, p.ID)
	if err != nil || len(list) != 1 || len(list[0].RelatedCodes) != 1 {
		t.Fatalf("ListByProject: err=%v list=%v", err, list)
	}
}
