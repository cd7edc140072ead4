package coding

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/yungbote/fulltheme-backend/internal/data/repos/testutil"
	types "github.com/yungbote/fulltheme-backend/internal/domain"
)

func TestCodebookRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewCodebookRepo(db, testutil.Logger(t))

	userID := uuid.New()
	project := testutil.SeedProject(t, ctx, tx, userID, "")

	def := &types.Codebook{Name: types.DefaultCodebookName, UserID: userID, ProjectID: project.ID}
	if err := repo.Create(ctx, tx, def); err != nil {
		t.Fatalf("Create(default): %v", err)
	}
	if def.ID == uuid.Nil {
		t.Fatalf("Create: expected generated id")
	}
	dup := &types.Codebook{Name: "Another", UserID: userID, ProjectID: project.ID}
	if err := repo.Create(ctx, tx.SavePoint("dup"), dup); err == nil {
		t.Fatalf("Create: expected unique violation for second default codebook")
	}
	tx.RollbackTo("dup")

	for _, name := range []string{"AI_initial_coding_1", "AI_initial_coding_3"} {
		cb := &types.Codebook{Name: name, UserID: userID, ProjectID: project.ID, IsAIGenerated: true}
		if err := repo.Create(ctx, tx, cb); err != nil {
			t.Fatalf("Create(%s): %v", name, err)
		}
	}

	if got, err := repo.GetDefault(ctx, tx, userID, project.ID); err != nil || got == nil || got.ID != def.ID {
		t.Fatalf("GetDefault: got=%v err=%v", got, err)
	}
	if got, err := repo.GetDefault(ctx, tx, uuid.New(), project.ID); err != nil || got != nil {
		t.Fatalf("GetDefault(other user): got=%v err=%v", got, err)
	}
	if names, err := repo.ListNamesWithPrefix(ctx, tx, userID, project.ID, "AI_initial_coding_"); err != nil || len(names) != 2 {
		t.Fatalf("ListNamesWithPrefix: names=%v err=%v", names, err)
	}
	if rows, err := repo.ListAIByProject(ctx, tx, project.ID, userID); err != nil || len(rows) != 2 {
		t.Fatalf("ListAIByProject: err=%v len=%d", err, len(rows))
	}
	if err := repo.UpdateFields(ctx, tx, def.ID, map[string]interface{}{"finalized": true}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if got, err := repo.GetByID(ctx, tx, def.ID); err != nil || got == nil || !got.Finalized {
		t.Fatalf("GetByID after update: got=%v err=%v", got, err)
	}
	if got, err := repo.GetByID(ctx, tx, uuid.New()); err != nil || got != nil {
		t.Fatalf("GetByID(missing): got=%v err=%v", got, err)
	}
}

func TestCodeRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewCodeRepo(db, testutil.Logger(t))

	userID := uuid.New()
	project := testutil.SeedProject(t, ctx, tx, userID, "")
	cb := testutil.SeedCodebook(t, ctx, tx, project.ID, userID, "Default Codebook", false)

	rows, err := repo.Create(ctx, tx, []*types.Code{
		{Name: "Empathy", ProjectID: project.ID, CodebookID: cb.ID, CreatedBy: userID},
		{Name: "Trust", ProjectID: project.ID, CodebookID: cb.ID, CreatedBy: userID, Color: "#000000"},
	})
	if err != nil || len(rows) != 2 {
		t.Fatalf("Create: err=%v len=%d", err, len(rows))
	}
	if rows[0].Color != types.DefaultCodeColor {
		t.Fatalf("Create: expected default color, got %q", rows[0].Color)
	}

	if got, err := repo.GetByProjectAndName(ctx, tx, project.ID, "Empathy"); err != nil || got == nil || got.ID != rows[0].ID {
		t.Fatalf("GetByProjectAndName: got=%v err=%v", got, err)
	}
	if got, err := repo.GetByProjectAndName(ctx, tx, project.ID, "empathy"); err != nil || got != nil {
		t.Fatalf("GetByProjectAndName is exact: got=%v err=%v", got, err)
	}
	if got, err := repo.FindInCodebookByName(ctx, tx, cb.ID, "  Empathy "); err != nil || got == nil || got.ID != rows[0].ID {
		t.Fatalf("FindInCodebookByName: got=%v err=%v", got, err)
	}
	if got, err := repo.FindInCodebookByName(ctx, tx, cb.ID, "empathy"); err != nil || got != nil {
		t.Fatalf("FindInCodebookByName is case-sensitive: got=%v err=%v", got, err)
	}
	if list, err := repo.ListByProject(ctx, tx, project.ID); err != nil || len(list) != 2 || list[0].Name != "Empathy" {
		t.Fatalf("ListByProject: err=%v list=%v", err, list)
	}
	if list, err := repo.ListByCodebook(ctx, tx, cb.ID); err != nil || len(list) != 2 {
		t.Fatalf("ListByCodebook: err=%v len=%d", err, len(list))
	}
	other := uuid.New()
	if err := repo.UpdateFields(ctx, tx, rows[1].ID, map[string]interface{}{"codebook_id": other}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if got, err := repo.GetByID(ctx, tx, rows[1].ID); err != nil || got.CodebookID != other {
		t.Fatalf("GetByID after move: got=%v err=%v", got, err)
	}

	sp := tx.SavePoint("dup")
	if _, err := repo.Create(ctx, sp, []*types.Code{{Name: "Empathy", ProjectID: project.ID, CodebookID: cb.ID, CreatedBy: userID}}); err == nil {
		t.Fatalf("Create: expected unique violation on (project, name)")
	}
	tx.RollbackTo("dup")
}

func TestCodeAssignmentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	repo := NewCodeAssignmentRepo(db, testutil.Logger(t))

	userID := uuid.New()
	project := testutil.SeedProject(t, ctx, tx, userID, "")
	doc := testutil.SeedDocument(t, ctx, tx, project.ID, userID, "some interview text")
	cb := testutil.SeedCodebook(t, ctx, tx, project.ID, userID, "AI_initial_coding_1", true)
	code := testutil.SeedCode(t, ctx, tx, cb, "Empathy")

	rows, err := repo.CreateInBatches(ctx, tx, []*types.CodeAssignment{
		{DocumentID: doc.ID, CodeID: code.ID, StartChar: 0, EndChar: 4, CreatedBy: userID, Confidence: 90},
		{DocumentID: doc.ID, CodeID: code.ID, StartChar: 5, EndChar: 14, CreatedBy: userID, Confidence: 70},
	}, 1)
	if err != nil || len(rows) != 2 {
		t.Fatalf("CreateInBatches: err=%v len=%d", err, len(rows))
	}
	if rows[0].ID == uuid.Nil || rows[0].Status != types.AssignmentPending {
		t.Fatalf("CreateInBatches: expected id and pending status, got %+v", rows[0])
	}
	if _, err := repo.CreateInBatches(ctx, tx.SavePoint("bad"), []*types.CodeAssignment{
		{DocumentID: doc.ID, CodeID: code.ID, StartChar: 4, EndChar: 4, CreatedBy: userID},
	}, 10); err == nil {
		t.Fatalf("CreateInBatches: expected invalid range error")
	}
	tx.RollbackTo("bad")

	if got, err := repo.GetByIDsForCreator(ctx, tx, []uuid.UUID{rows[0].ID, rows[1].ID}, uuid.New()); err != nil || len(got) != 0 {
		t.Fatalf("GetByIDsForCreator(other): err=%v len=%d", err, len(got))
	}
	if got, err := repo.GetByIDsForCreator(ctx, tx, []uuid.UUID{rows[0].ID, rows[1].ID}, userID); err != nil || len(got) != 2 {
		t.Fatalf("GetByIDsForCreator: err=%v len=%d", err, len(got))
	}

	if err := repo.UpdateFields(ctx, tx, rows[0].ID, map[string]interface{}{"status": types.AssignmentAccepted}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	accepted := types.AssignmentAccepted
	if views, err := repo.ListByCodebook(ctx, tx, cb.ID, &accepted); err != nil || len(views) != 1 || views[0].CodeName != "Empathy" {
		t.Fatalf("ListByCodebook(accepted): err=%v views=%v", err, views)
	}
	if views, err := repo.ListByCodebook(ctx, tx, cb.ID, nil); err != nil || len(views) != 2 {
		t.Fatalf("ListByCodebook(all): err=%v len=%d", err, len(views))
	}
	counts, err := repo.CountByCodebook(ctx, tx, cb.ID)
	if err != nil {
		t.Fatalf("CountByCodebook: %v", err)
	}
	if counts.Total != 2 || counts.Accepted != 1 || counts.Pending != 1 || counts.Rejected != 0 {
		t.Fatalf("CountByCodebook: %+v", counts)
	}
}
