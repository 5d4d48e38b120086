package governance

import (
	"context"
	"fmt"

	"agora/internal/domain"

	"go.uber.org/zap"
)

// twoThirds is the supermajority bar for a referendum with the given number
// of votes cast: ceil(2*total/3), computed in integers so small counts round
// the same way everywhere.
func twoThirds(total int) int {
	if total <= 0 {
		return 0
	}
	return (2*total + 2) / 3
}

// Resolve applies the two-thirds rule to one referendum immediately, without
// the sweep's minimum-age gate. Called after every referendum vote.
func (e *Engine) Resolve(ctx context.Context, referendumID string) error {
	r, err := e.repos.Referenda.FindByID(ctx, referendumID)
	if err != nil {
		return err
	}
	if r == nil {
		return fmt.Errorf("referendum %s: %w", referendumID, ErrNotFound)
	}
	return e.resolveOne(ctx, r)
}

// resolveOne moves an active referendum to passed/failed if a side holds a
// two-thirds majority. Already-resolved referenda and zero-turnout referenda
// are steady states, not errors.
func (e *Engine) resolveOne(ctx context.Context, r *domain.Referendum) error {
	if r.Status != domain.StatusActive {
		return nil
	}
	yes, no, err := e.referendumCounts(ctx, r.ID)
	if err != nil {
		return err
	}
	total := yes + no
	if total == 0 {
		return nil
	}

	bar := twoThirds(total)
	var status string
	switch {
	case yes >= bar:
		status = domain.StatusPassed
	case no >= bar:
		status = domain.StatusFailed
	default:
		return nil
	}

	endedAt := e.now()
	if err := e.repos.Referenda.SetStatus(ctx, r.ID, status, endedAt); err != nil {
		return err
	}
	e.log.Info("referendum resolved",
		zap.String("referendum_id", r.ID),
		zap.String("status", status),
		zap.Int("yes", yes),
		zap.Int("no", no),
	)

	if status == domain.StatusPassed && e.gate.ShouldNotify(KindReferendumPassed, r.ID) {
		e.gate.RecordNotified(KindReferendumPassed, r.ID)
		e.notifyAll(ctx,
			"Referendum Approved",
			fmt.Sprintf("A referendum has been approved with a two-thirds majority:\n\n%s\n\n%s\n\nYes votes: %d\nNo votes: %d", r.Title, r.Description, yes, no),
		)
	}
	if err := e.rt.Broadcast(ctx, TopicReferenda, map[string]any{"id": r.ID, "event": status}); err != nil {
		e.log.Warn("broadcast referendum resolved", zap.Error(err))
	}
	return nil
}

// SweepActive is the hourly time-triggered pass: re-evaluate every active
// referendum that is at least MinAge old, and purge the ones that sat past
// the retention horizon without ever reaching a majority. A failure on one
// item never aborts the rest.
func (e *Engine) SweepActive(ctx context.Context) {
	active, err := e.repos.Referenda.ListByStatus(ctx, domain.StatusActive)
	if err != nil {
		e.log.Error("list active referenda", zap.Error(err))
		return
	}
	now := e.now()
	for i := range active {
		r := &active[i]
		age := now.Sub(r.CreatedAt)
		switch {
		case age >= e.rules.PurgeAfter:
			if err := e.purgeReferendum(ctx, r); err != nil {
				e.log.Warn("purge referendum", zap.String("referendum_id", r.ID), zap.Error(err))
			}
		case age >= e.rules.MinAge:
			if err := e.resolveOne(ctx, r); err != nil {
				e.log.Warn("resolve referendum", zap.String("referendum_id", r.ID), zap.Error(err))
			}
		}
	}
}

// purgeReferendum ages out an unresolved referendum: if a majority showed up
// at the last minute it still resolves, otherwise the referendum and its
// votes are hard-deleted. Zero-turnout referenda only ever leave this way.
func (e *Engine) purgeReferendum(ctx context.Context, r *domain.Referendum) error {
	if err := e.resolveOne(ctx, r); err != nil {
		return err
	}
	cur, err := e.repos.Referenda.FindByID(ctx, r.ID)
	if err != nil {
		return err
	}
	if cur == nil || cur.Status != domain.StatusActive {
		return nil
	}
	if err := e.repos.Votes.DeleteByReferendum(ctx, r.ID); err != nil {
		return err
	}
	if err := e.repos.Referenda.Delete(ctx, r.ID); err != nil {
		return err
	}
	e.log.Info("aged out unresolved referendum", zap.String("referendum_id", r.ID), zap.String("title", r.Title))
	if err := e.rt.Broadcast(ctx, TopicReferenda, map[string]any{"id": r.ID, "event": "purged"}); err != nil {
		e.log.Warn("broadcast referendum purged", zap.Error(err))
	}
	return nil
}

// SweepSuggestions re-runs the promotion rule over every live suggestion so a
// promotion missed at vote time (crash, store hiccup) heals on the next pass.
func (e *Engine) SweepSuggestions(ctx context.Context) {
	suggestions, err := e.repos.Suggestions.List(ctx)
	if err != nil {
		e.log.Error("list suggestions", zap.Error(err))
		return
	}
	for _, s := range suggestions {
		if err := e.MaybePromote(ctx, s.ID); err != nil {
			e.log.Warn("sweep promote", zap.String("suggestion_id", s.ID), zap.Error(err))
		}
	}
}
