package governance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agora/internal/domain"
)

func TestTwoThirds(t *testing.T) {
	cases := map[int]int{
		0: 0, 1: 1, 2: 2, 3: 2, 4: 3, 5: 4, 6: 4, 9: 6, 10: 7,
	}
	for total, want := range cases {
		assert.Equal(t, want, twoThirds(total), "total=%d", total)
	}
}

func castReferendumVotes(t *testing.T, h *harness, id string, yes, no int) {
	t.Helper()
	ctx := context.Background()
	n := 1
	for i := 0; i < yes; i, n = i+1, n+1 {
		_, err := h.engine.CastVote(ctx, fmtUserID(n), Target{Kind: KindReferendum, ID: id}, ChoiceYes)
		require.NoError(t, err)
	}
	for i := 0; i < no; i, n = i+1, n+1 {
		_, err := h.engine.CastVote(ctx, fmtUserID(n), Target{Kind: KindReferendum, ID: id}, ChoiceNo)
		require.NoError(t, err)
	}
}

func TestResolvePasses(t *testing.T) {
	h := newHarness(t, Rules{})
	h.addUsers(t, 10)
	h.addReferendum(t, "r1", "Two yes one no")
	castReferendumVotes(t, h, "r1", 2, 1) // bar = ceil(2*3/3) = 2

	require.NoError(t, h.engine.Resolve(context.Background(), "r1"))

	r, err := h.refs.FindByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPassed, r.Status)
	require.NotNil(t, r.EndedAt)
	assert.Len(t, h.mail.bySubject("Referendum Approved"), 1)
}

func TestResolveFails(t *testing.T) {
	h := newHarness(t, Rules{})
	h.addUsers(t, 10)
	h.addReferendum(t, "r1", "One yes two no")
	castReferendumVotes(t, h, "r1", 1, 2)

	require.NoError(t, h.engine.Resolve(context.Background(), "r1"))

	r, err := h.refs.FindByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, r.Status)
	// Only passed referenda notify.
	assert.Empty(t, h.mail.bySubject("Referendum Approved"))
}

func TestResolveNoMajorityStaysActive(t *testing.T) {
	h := newHarness(t, Rules{})
	h.addUsers(t, 10)
	h.addReferendum(t, "r1", "Split vote")
	castReferendumVotes(t, h, "r1", 1, 1) // bar = 2, neither side reaches it

	require.NoError(t, h.engine.Resolve(context.Background(), "r1"))

	r, err := h.refs.FindByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, r.Status)
	assert.Nil(t, r.EndedAt)
}

func TestResolveZeroTurnoutNeverResolves(t *testing.T) {
	h := newHarness(t, Rules{})
	h.addUsers(t, 10)
	h.addReferendum(t, "r1", "Nobody voted")

	require.NoError(t, h.engine.Resolve(context.Background(), "r1"))

	r, err := h.refs.FindByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, r.Status)
}

func TestSweepActiveHonorsMinAge(t *testing.T) {
	h := newHarness(t, Rules{})
	h.addUsers(t, 10)
	h.addReferendum(t, "r1", "Too young to resolve")
	castReferendumVotes(t, h, "r1", 3, 0)
	ctx := context.Background()

	// Under 24h the sweep leaves it alone even with a unanimous result.
	h.clock.Advance(23 * time.Hour)
	h.engine.SweepActive(ctx)
	r, err := h.refs.FindByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, r.Status)

	h.clock.Advance(2 * time.Hour)
	h.engine.SweepActive(ctx)
	r, err = h.refs.FindByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPassed, r.Status)
}

func TestSweepActivePurgesAfterRetention(t *testing.T) {
	h := newHarness(t, Rules{})
	h.addUsers(t, 10)
	h.addReferendum(t, "r1", "Deadlocked forever")
	castReferendumVotes(t, h, "r1", 1, 1)
	ctx := context.Background()

	h.clock.Advance(14*24*time.Hour + time.Minute)
	h.engine.SweepActive(ctx)

	r, err := h.refs.FindByID(ctx, "r1")
	require.NoError(t, err)
	assert.Nil(t, r, "aged-out referendum is hard-deleted")
	votes, err := h.votes.ListByReferendum(ctx, "r1")
	require.NoError(t, err)
	assert.Empty(t, votes, "its votes go with it")
}

func TestPurgeStillResolvesLateMajority(t *testing.T) {
	h := newHarness(t, Rules{})
	h.addUsers(t, 10)
	h.addReferendum(t, "r1", "Late landslide")
	castReferendumVotes(t, h, "r1", 3, 0)
	ctx := context.Background()

	// Past the retention horizon, but a majority exists: resolve, not purge.
	h.clock.Advance(15 * 24 * time.Hour)
	h.engine.SweepActive(ctx)

	r, err := h.refs.FindByID(ctx, "r1")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, domain.StatusPassed, r.Status)
}

func TestResolveNotifiesOncePerReferendum(t *testing.T) {
	h := newHarness(t, Rules{})
	h.addUsers(t, 10)
	h.addReferendum(t, "r1", "Announce once")
	castReferendumVotes(t, h, "r1", 3, 0)
	ctx := context.Background()

	h.clock.Advance(25 * time.Hour)
	h.engine.SweepActive(ctx)
	require.NoError(t, h.engine.Resolve(ctx, "r1"))
	h.engine.SweepActive(ctx)

	assert.Len(t, h.mail.bySubject("Referendum Approved"), 1)
}

func TestSweepSuggestionsHealsMissedPromotion(t *testing.T) {
	h := newHarness(t, Rules{})
	ids := h.addUsers(t, 20) // threshold 1
	h.addSuggestion(t, "s1", ids[0], "Missed at vote time")
	ctx := context.Background()

	// Vote lands without the promotion hook running (direct store write).
	require.NoError(t, h.votes.Insert(ctx, &domain.Vote{
		ID: "v1", VoterID: ids[1], SuggestionID: "s1", Choice: string(ChoiceSupport), CreatedAt: h.clock.Now(),
	}))

	h.engine.SweepSuggestions(ctx)

	r, err := h.refs.FindByTitle(ctx, "Missed at vote time")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, domain.StatusActive, r.Status)
}
