package governance

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCastVoteToggleOnSuggestion(t *testing.T) {
	h := newHarness(t, Rules{})
	h.addUsers(t, 30)
	h.addSuggestion(t, "s1", "u01", "New stage lights")
	ctx := context.Background()

	res, err := h.engine.CastVote(ctx, "u02", Target{Kind: KindSuggestion, ID: "s1"}, ChoiceSupport)
	require.NoError(t, err)
	assert.Equal(t, AppliedInserted, res.Applied)

	tally, err := h.engine.Tally(ctx, Target{Kind: KindSuggestion, ID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, 1, tally.Counts[ChoiceSupport])

	// Same choice again removes the vote.
	res, err = h.engine.CastVote(ctx, "u02", Target{Kind: KindSuggestion, ID: "s1"}, ChoiceSupport)
	require.NoError(t, err)
	assert.Equal(t, AppliedRemoved, res.Applied)

	tally, err = h.engine.Tally(ctx, Target{Kind: KindSuggestion, ID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, 0, tally.Counts[ChoiceSupport])
}

func TestCastVoteSwitchOnReferendum(t *testing.T) {
	h := newHarness(t, Rules{})
	h.addUsers(t, 10)
	h.addReferendum(t, "r1", "Buy a new PA")
	ctx := context.Background()

	res, err := h.engine.CastVote(ctx, "u03", Target{Kind: KindReferendum, ID: "r1"}, ChoiceYes)
	require.NoError(t, err)
	assert.Equal(t, AppliedInserted, res.Applied)

	res, err = h.engine.CastVote(ctx, "u03", Target{Kind: KindReferendum, ID: "r1"}, ChoiceNo)
	require.NoError(t, err)
	assert.Equal(t, AppliedSwitched, res.Applied)

	tally, err := h.engine.Tally(ctx, Target{Kind: KindReferendum, ID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, 0, tally.Counts[ChoiceYes])
	assert.Equal(t, 1, tally.Counts[ChoiceNo])
}

func TestCastVoteRejectsWrongChoicePerKind(t *testing.T) {
	h := newHarness(t, Rules{})
	h.addUsers(t, 10)
	h.addSuggestion(t, "s1", "u01", "Repaint the hall")
	h.addReferendum(t, "r1", "Repaint the hall now")
	ctx := context.Background()

	_, err := h.engine.CastVote(ctx, "u02", Target{Kind: KindSuggestion, ID: "s1"}, ChoiceYes)
	assert.ErrorIs(t, err, ErrInvalidVote)

	_, err = h.engine.CastVote(ctx, "u02", Target{Kind: KindReferendum, ID: "r1"}, ChoiceSupport)
	assert.ErrorIs(t, err, ErrInvalidVote)

	_, err = h.engine.CastVote(ctx, "u02", Target{Kind: "banana", ID: "s1"}, ChoiceSupport)
	assert.ErrorIs(t, err, ErrInvalidVote)
}

func TestCastVoteUnknownTarget(t *testing.T) {
	h := newHarness(t, Rules{})
	h.addUsers(t, 5)
	ctx := context.Background()

	_, err := h.engine.CastVote(ctx, "u01", Target{Kind: KindSuggestion, ID: "nope"}, ChoiceSupport)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = h.engine.CastVote(ctx, "u01", Target{Kind: KindReferendum, ID: "nope"}, ChoiceYes)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCastVoteOnResolvedReferendumRejected(t *testing.T) {
	h := newHarness(t, Rules{})
	h.addUsers(t, 5)
	r := h.addReferendum(t, "r1", "Past decision")
	require.NoError(t, h.refs.SetStatus(context.Background(), r.ID, "passed", h.clock.Now()))

	_, err := h.engine.CastVote(context.Background(), "u01", Target{Kind: KindReferendum, ID: "r1"}, ChoiceYes)
	assert.ErrorIs(t, err, ErrInvalidVote)
}

func TestAdminVoteSelfVoteRejected(t *testing.T) {
	h := newHarness(t, Rules{})
	h.addUsers(t, 5)

	_, err := h.engine.CastVote(context.Background(), "u01", Target{Kind: KindAdmin, ID: "u01"}, "")
	assert.ErrorIs(t, err, ErrInvalidVote)

	counts, err := h.adminVotes.CountByCandidate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestAdminVoteReplaceAndToggle(t *testing.T) {
	h := newHarness(t, Rules{})
	h.addUsers(t, 5)
	ctx := context.Background()

	res, err := h.engine.CastVote(ctx, "u01", Target{Kind: KindAdmin, ID: "u02"}, "")
	require.NoError(t, err)
	assert.Equal(t, AppliedInserted, res.Applied)

	// Voting another candidate moves the single ballot.
	res, err = h.engine.CastVote(ctx, "u01", Target{Kind: KindAdmin, ID: "u03"}, "")
	require.NoError(t, err)
	assert.Equal(t, AppliedSwitched, res.Applied)

	counts, err := h.adminVotes.CountByCandidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"u03": 1}, counts)

	// Repeating the sitting choice withdraws it.
	res, err = h.engine.CastVote(ctx, "u01", Target{Kind: KindAdmin, ID: "u03"}, "")
	require.NoError(t, err)
	assert.Equal(t, AppliedRemoved, res.Applied)

	counts, err = h.adminVotes.CountByCandidate(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestCastVoteAcrossMultipleTargets(t *testing.T) {
	h := newHarness(t, Rules{})
	h.addUsers(t, 30)
	h.addSuggestion(t, "s1", "u01", "First idea")
	h.addSuggestion(t, "s2", "u01", "Second idea")
	h.addReferendum(t, "r1", "First ballot")
	h.addReferendum(t, "r2", "Second ballot")
	ctx := context.Background()

	// One voter holds a live vote on every target at once; per-target
	// uniqueness must not bleed across targets.
	for _, tgt := range []Target{
		{Kind: KindSuggestion, ID: "s1"},
		{Kind: KindSuggestion, ID: "s2"},
	} {
		res, err := h.engine.CastVote(ctx, "u02", tgt, ChoiceSupport)
		require.NoError(t, err)
		assert.Equal(t, AppliedInserted, res.Applied)
	}
	for _, tgt := range []Target{
		{Kind: KindReferendum, ID: "r1"},
		{Kind: KindReferendum, ID: "r2"},
	} {
		res, err := h.engine.CastVote(ctx, "u02", tgt, ChoiceYes)
		require.NoError(t, err)
		assert.Equal(t, AppliedInserted, res.Applied)
	}

	for _, id := range []string{"s1", "s2"} {
		tally, err := h.engine.Tally(ctx, Target{Kind: KindSuggestion, ID: id})
		require.NoError(t, err)
		assert.Equal(t, 1, tally.Counts[ChoiceSupport], "suggestion %s", id)
	}
	for _, id := range []string{"r1", "r2"} {
		tally, err := h.engine.Tally(ctx, Target{Kind: KindReferendum, ID: id})
		require.NoError(t, err)
		assert.Equal(t, 1, tally.Counts[ChoiceYes], "referendum %s", id)
	}
}

func TestAdminVoteConcurrentSwitching(t *testing.T) {
	h := newHarness(t, Rules{})
	h.addUsers(t, 5)
	ctx := context.Background()

	// One voter hammering switches between two candidates must serialize on
	// the voter, never surface a store error, and leave at most one ballot.
	const n = 40
	errs := make(chan error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		candidate := "u02"
		if i%2 == 1 {
			candidate = "u03"
		}
		go func(candidate string) {
			defer wg.Done()
			_, err := h.engine.CastVote(ctx, "u01", Target{Kind: KindAdmin, ID: candidate}, "")
			errs <- err
		}(candidate)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	counts, err := h.adminVotes.CountByCandidate(ctx)
	require.NoError(t, err)
	total := 0
	for _, c := range counts {
		total += c
	}
	assert.LessOrEqual(t, total, 1)
}

func TestCastVoteConcurrentDoubleSubmit(t *testing.T) {
	h := newHarness(t, Rules{})
	h.addUsers(t, 10)
	h.addReferendum(t, "r1", "Concurrent ballot")
	ctx := context.Background()

	// Many goroutines toggling the same (voter, target) pair must leave at
	// most one ledger row.
	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, _ = h.engine.CastVote(ctx, "u01", Target{Kind: KindReferendum, ID: "r1"}, ChoiceYes)
		}()
	}
	wg.Wait()

	votes, err := h.votes.ListByReferendum(ctx, "r1")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(votes), 1)
}
