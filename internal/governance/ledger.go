package governance

import (
	"context"
	"fmt"

	"agora/internal/domain"
	"agora/pkg/utils"
)

// CastVote applies the toggle semantics: casting the voter's current choice
// again removes it, a different choice replaces it (delete then insert, never
// update in place), anything else inserts. At most one row per (voter,target)
// survives any interleaving; see castLock.
func (e *Engine) CastVote(ctx context.Context, voterID string, target Target, choice Choice) (CastResult, error) {
	if voterID == "" {
		return CastResult{}, fmt.Errorf("%w: missing voter", ErrInvalidVote)
	}
	switch target.Kind {
	case KindAdmin:
		return e.castAdminVote(ctx, voterID, target.ID)
	case KindSuggestion:
		if choice != ChoiceSupport {
			return CastResult{}, fmt.Errorf("%w: %q is not a suggestion choice", ErrInvalidVote, choice)
		}
	case KindReferendum:
		if choice != ChoiceYes && choice != ChoiceNo {
			return CastResult{}, fmt.Errorf("%w: %q is not a referendum choice", ErrInvalidVote, choice)
		}
	default:
		return CastResult{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidVote, target.Kind)
	}

	suggestionID, referendumID := "", ""
	if target.Kind == KindSuggestion {
		if s, err := e.repos.Suggestions.FindByID(ctx, target.ID); err != nil {
			return CastResult{}, err
		} else if s == nil {
			return CastResult{}, fmt.Errorf("suggestion %s: %w", target.ID, ErrNotFound)
		}
		suggestionID = target.ID
	} else {
		r, err := e.repos.Referenda.FindByID(ctx, target.ID)
		if err != nil {
			return CastResult{}, err
		}
		if r == nil {
			return CastResult{}, fmt.Errorf("referendum %s: %w", target.ID, ErrNotFound)
		}
		if r.Status != domain.StatusActive {
			return CastResult{}, fmt.Errorf("%w: referendum %s already %s", ErrInvalidVote, r.ID, r.Status)
		}
		referendumID = target.ID
	}

	mu := e.castLock(target.Kind, target.ID, voterID)
	mu.Lock()
	defer mu.Unlock()

	cur, err := e.repos.Votes.FindByVoter(ctx, voterID, suggestionID, referendumID)
	if err != nil {
		return CastResult{}, err
	}

	switch {
	case cur == nil:
		v := &domain.Vote{
			ID:           utils.NewID(),
			VoterID:      voterID,
			SuggestionID: suggestionID,
			ReferendumID: referendumID,
			Choice:       string(choice),
			CreatedAt:    e.now(),
		}
		if err := e.repos.Votes.Insert(ctx, v); err != nil {
			return CastResult{}, err
		}
		return CastResult{Applied: AppliedInserted}, nil

	case cur.Choice == string(choice):
		if err := e.repos.Votes.Delete(ctx, cur.ID); err != nil {
			return CastResult{}, err
		}
		return CastResult{Applied: AppliedRemoved}, nil

	default:
		if err := e.repos.Votes.Delete(ctx, cur.ID); err != nil {
			return CastResult{}, err
		}
		v := &domain.Vote{
			ID:           utils.NewID(),
			VoterID:      voterID,
			SuggestionID: suggestionID,
			ReferendumID: referendumID,
			Choice:       string(choice),
			CreatedAt:    e.now(),
		}
		if err := e.repos.Votes.Insert(ctx, v); err != nil {
			return CastResult{}, err
		}
		return CastResult{Applied: AppliedSwitched}, nil
	}
}

// castAdminVote handles the one-per-voter election ledger. Re-voting the
// sitting choice removes it, voting someone else replaces it.
func (e *Engine) castAdminVote(ctx context.Context, voterID, candidateID string) (CastResult, error) {
	if candidateID == voterID {
		return CastResult{}, fmt.Errorf("%w: cannot vote for yourself", ErrInvalidVote)
	}
	if u, err := e.repos.Users.FindByID(ctx, candidateID); err != nil {
		return CastResult{}, err
	} else if u == nil {
		return CastResult{}, fmt.Errorf("candidate %s: %w", candidateID, ErrNotFound)
	}

	// The admin ledger holds one ballot per voter, so the voter is the
	// contended resource: lock by voter alone, or two casts switching between
	// different candidates would race past FindByVoter.
	mu := e.castLock(KindAdmin, "", voterID)
	mu.Lock()
	defer mu.Unlock()

	cur, err := e.repos.AdminVotes.FindByVoter(ctx, voterID)
	if err != nil {
		return CastResult{}, err
	}

	res := CastResult{Applied: AppliedInserted}
	if cur != nil {
		if err := e.repos.AdminVotes.DeleteByVoter(ctx, voterID); err != nil {
			return CastResult{}, err
		}
		if cur.CandidateID == candidateID {
			res.Applied = AppliedRemoved
			e.checkLeaders(ctx)
			return res, nil
		}
		res.Applied = AppliedSwitched
	}
	v := &domain.AdminVote{
		ID:          utils.NewID(),
		VoterID:     voterID,
		CandidateID: candidateID,
		CreatedAt:   e.now(),
	}
	if err := e.repos.AdminVotes.Insert(ctx, v); err != nil {
		return CastResult{}, err
	}
	e.checkLeaders(ctx)
	return res, nil
}
