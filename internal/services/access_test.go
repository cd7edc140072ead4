package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/fulltheme-backend/internal/data/repos/testutil"
	"github.com/yungbote/fulltheme-backend/internal/platform/apierr"
)

func TestAccessOwnerAndCollaborator(t *testing.T) {
	h := newHarness(t)
	owner, collaborator, stranger := uuid.New(), uuid.New(), uuid.New()
	project := testutil.SeedProject(t, h.ctx, h.db, owner, "")
	testutil.SeedCollaborator(t, h.ctx, h.db, project.ID, collaborator)
	doc := testutil.SeedDocument(t, h.ctx, h.db, project.ID, owner, "text")
	cb := testutil.SeedCodebook(t, h.ctx, h.db, project.ID, owner, "Mine", false)

	for _, user := range []uuid.UUID{owner, collaborator} {
		_, err := h.access.RequireProject(h.ctx, nil, project.ID, user)
		require.NoError(t, err)
		_, err = h.access.RequireDocument(h.ctx, nil, doc.ID, user)
		require.NoError(t, err)
		_, err = h.access.RequireCodebook(h.ctx, nil, cb.ID, user)
		require.NoError(t, err)
	}

	_, err := h.access.RequireDocument(h.ctx, nil, doc.ID, stranger)
	require.ErrorIs(t, err, ErrAccessDenied)
	ae, ok := apierr.From(err)
	require.True(t, ok)
	assert.Equal(t, "document_access_denied", ae.Code)

	_, err = h.access.RequireCodebook(h.ctx, nil, cb.ID, stranger)
	require.ErrorIs(t, err, ErrAccessDenied)

	_, err = h.access.RequireDocument(h.ctx, nil, uuid.New(), owner)
	require.ErrorIs(t, err, ErrNotFound)
}
