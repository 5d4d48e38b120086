package governance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndListActiveSuggestions(t *testing.T) {
	h := newHarness(t, Rules{})
	ids := h.addUsers(t, 20) // threshold 1
	ctx := context.Background()

	s1, err := h.engine.CreateSuggestion(ctx, ids[0], "Promoted one", "gets promoted")
	require.NoError(t, err)
	s2, err := h.engine.CreateSuggestion(ctx, ids[1], "Still open", "stays a suggestion")
	require.NoError(t, err)

	_, err = h.engine.CastVote(ctx, ids[2], Target{Kind: KindSuggestion, ID: s1.ID}, ChoiceSupport)
	require.NoError(t, err)
	require.NoError(t, h.engine.MaybePromote(ctx, s1.ID))

	active, err := h.engine.ListActiveSuggestions(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, s2.ID, active[0].ID)
}

func TestDeleteSuggestionAuthorization(t *testing.T) {
	h := newHarness(t, Rules{LeaderCount: 1})
	ids := h.addUsers(t, 5)
	ctx := context.Background()

	s, err := h.engine.CreateSuggestion(ctx, ids[0], "Contested", "")
	require.NoError(t, err)

	// A random member may not delete someone else's suggestion.
	err = h.engine.DeleteSuggestion(ctx, ids[1], s.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	// An elected admin may.
	voteAdmin(t, h, ids[0], ids[1])
	require.NoError(t, h.engine.DeleteSuggestion(ctx, ids[1], s.ID))

	got, err := h.suggs.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDeleteSuggestionByAuthor(t *testing.T) {
	h := newHarness(t, Rules{})
	ids := h.addUsers(t, 5)
	ctx := context.Background()

	s, err := h.engine.CreateSuggestion(ctx, ids[0], "Mine to remove", "")
	require.NoError(t, err)
	require.NoError(t, h.engine.DeleteSuggestion(ctx, ids[0], s.ID))
}

func TestDeleteSuggestionNotFound(t *testing.T) {
	h := newHarness(t, Rules{})
	ids := h.addUsers(t, 2)
	err := h.engine.DeleteSuggestion(context.Background(), ids[0], "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
