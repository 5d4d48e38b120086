package governance

import (
	"context"
	"fmt"
	"sort"

	"agora/internal/domain"
)

// Tally aggregates the ledger for one target: a count per choice plus the
// display names of the voters behind it, sorted for stable output. Read only.
func (e *Engine) Tally(ctx context.Context, target Target) (TallyResult, error) {
	var votes []domain.Vote
	switch target.Kind {
	case KindSuggestion:
		s, err := e.repos.Suggestions.FindByID(ctx, target.ID)
		if err != nil {
			return TallyResult{}, err
		}
		if s == nil {
			return TallyResult{}, fmt.Errorf("suggestion %s: %w", target.ID, ErrNotFound)
		}
		if votes, err = e.repos.Votes.ListBySuggestion(ctx, target.ID); err != nil {
			return TallyResult{}, err
		}
	case KindReferendum:
		r, err := e.repos.Referenda.FindByID(ctx, target.ID)
		if err != nil {
			return TallyResult{}, err
		}
		if r == nil {
			return TallyResult{}, fmt.Errorf("referendum %s: %w", target.ID, ErrNotFound)
		}
		if votes, err = e.repos.Votes.ListByReferendum(ctx, target.ID); err != nil {
			return TallyResult{}, err
		}
	default:
		return TallyResult{}, fmt.Errorf("%w: no tally for kind %q", ErrInvalidVote, target.Kind)
	}

	res := TallyResult{
		Counts: make(map[Choice]int),
		Voters: make(map[Choice][]string),
	}
	for _, v := range votes {
		c := Choice(v.Choice)
		res.Counts[c]++
		name := v.VoterID
		if u, err := e.repos.Users.FindByID(ctx, v.VoterID); err == nil && u != nil {
			name = u.Name
		}
		res.Voters[c] = append(res.Voters[c], name)
	}
	for c := range res.Voters {
		sort.Strings(res.Voters[c])
	}
	return res, nil
}

// ReferendumSummary is a referendum row with its current yes/no totals, the
// shape the listing endpoints serve.
type ReferendumSummary struct {
	domain.Referendum
	Yes int `json:"yes"`
	No  int `json:"no"`
}

// ListReferenda returns every referendum, newest first per the store order,
// each with its current counts.
func (e *Engine) ListReferenda(ctx context.Context) ([]ReferendumSummary, error) {
	rows, err := e.repos.Referenda.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ReferendumSummary, 0, len(rows))
	for _, r := range rows {
		yes, no, err := e.referendumCounts(ctx, r.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, ReferendumSummary{Referendum: r, Yes: yes, No: no})
	}
	return out, nil
}

// referendumCounts is the resolver's cheap path: just yes/no totals.
func (e *Engine) referendumCounts(ctx context.Context, referendumID string) (yes, no int, err error) {
	votes, err := e.repos.Votes.ListByReferendum(ctx, referendumID)
	if err != nil {
		return 0, 0, err
	}
	for _, v := range votes {
		switch Choice(v.Choice) {
		case ChoiceYes:
			yes++
		case ChoiceNo:
			no++
		}
	}
	return yes, no, nil
}
