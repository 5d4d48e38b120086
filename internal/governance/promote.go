package governance

import (
	"context"
	"fmt"
	"math"

	"agora/internal/domain"
	"agora/pkg/utils"

	"go.uber.org/zap"
)

// PromotionThreshold returns the support-vote count a suggestion needs before
// it becomes a referendum: max(1, ceil(N * ratio)) for N registered users.
func PromotionThreshold(totalUsers int64, ratio float64) int {
	req := int(math.Ceil(float64(totalUsers) * ratio))
	if req < 1 {
		req = 1
	}
	return req
}

// MaybePromote promotes the suggestion into a referendum once its support
// count reaches the community threshold. Safe to call on every vote and on
// every sweep: an existing referendum with the same title means the promotion
// already happened and the call is a silent no-op.
func (e *Engine) MaybePromote(ctx context.Context, suggestionID string) error {
	s, err := e.repos.Suggestions.FindByID(ctx, suggestionID)
	if err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("suggestion %s: %w", suggestionID, ErrNotFound)
	}

	total, err := e.repos.Users.Count(ctx)
	if err != nil {
		return err
	}
	votes, err := e.repos.Votes.ListBySuggestion(ctx, suggestionID)
	if err != nil {
		return err
	}
	support := 0
	for _, v := range votes {
		if Choice(v.Choice) == ChoiceSupport {
			support++
		}
	}

	required := PromotionThreshold(total, e.rules.PromoteRatio)
	if support < required {
		return nil
	}

	// Title is the promotion idempotency key; the suggestion link on the
	// referendum is informational.
	if existing, err := e.repos.Referenda.FindByTitle(ctx, s.Title); err != nil {
		return err
	} else if existing != nil {
		return nil
	}

	r := &domain.Referendum{
		ID:           utils.NewID(),
		SuggestionID: s.ID,
		Title:        s.Title,
		Description:  s.Description,
		Status:       domain.StatusActive,
		CreatedAt:    e.now(),
	}
	if err := e.repos.Referenda.Create(ctx, r); err != nil {
		// A concurrent promotion may win the unique title index; treat that
		// as the no-op it is.
		if utils.IsDuplicateKey(err) {
			return nil
		}
		return err
	}

	e.log.Info("suggestion promoted to referendum",
		zap.String("suggestion_id", s.ID),
		zap.String("referendum_id", r.ID),
		zap.Int("support", support),
		zap.Int("required", required),
	)

	e.notifyAll(ctx,
		"New Referendum Approved",
		fmt.Sprintf("A suggestion has reached the required quorum and is now up for a referendum:\n\n%s\n\n%s\n\nLog in to cast your vote.", r.Title, r.Description),
	)
	if err := e.rt.Broadcast(ctx, TopicReferenda, map[string]any{"id": r.ID, "event": "created"}); err != nil {
		e.log.Warn("broadcast referendum created", zap.Error(err))
	}
	return nil
}
