package governance

import (
	"context"
	"fmt"

	"agora/internal/domain"
	"agora/pkg/utils"

	"go.uber.org/zap"
)

// CreateSuggestion records a new community suggestion and announces it.
func (e *Engine) CreateSuggestion(ctx context.Context, authorID, title, description string) (*domain.Suggestion, error) {
	s := &domain.Suggestion{
		ID:          utils.NewID(),
		AuthorID:    authorID,
		Title:       title,
		Description: description,
		CreatedAt:   e.now(),
	}
	if err := e.repos.Suggestions.Create(ctx, s); err != nil {
		return nil, err
	}
	if err := e.rt.Broadcast(ctx, TopicSuggestions, map[string]any{"id": s.ID, "event": "created"}); err != nil {
		e.log.Warn("broadcast suggestion created", zap.Error(err))
	}
	return s, nil
}

// ListActiveSuggestions returns suggestions that have not been promoted yet.
// Promotion is a soft transition: the row may still exist, so the listing
// filters by title against the referenda table.
func (e *Engine) ListActiveSuggestions(ctx context.Context) ([]domain.Suggestion, error) {
	all, err := e.repos.Suggestions.List(ctx)
	if err != nil {
		return nil, err
	}
	referenda, err := e.repos.Referenda.List(ctx)
	if err != nil {
		return nil, err
	}
	promoted := make(map[string]struct{}, len(referenda))
	for _, r := range referenda {
		promoted[r.Title] = struct{}{}
	}
	active := make([]domain.Suggestion, 0, len(all))
	for _, s := range all {
		if _, ok := promoted[s.Title]; !ok {
			active = append(active, s)
		}
	}
	return active, nil
}

// DeleteSuggestion removes a suggestion. Only the author or a sitting admin
// may delete.
func (e *Engine) DeleteSuggestion(ctx context.Context, callerID, suggestionID string) error {
	s, err := e.repos.Suggestions.FindByID(ctx, suggestionID)
	if err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("suggestion %s: %w", suggestionID, ErrNotFound)
	}
	if s.AuthorID != callerID {
		admin, err := e.IsElectedAdmin(ctx, callerID)
		if err != nil {
			return err
		}
		if !admin {
			return fmt.Errorf("delete suggestion %s: %w", suggestionID, ErrForbidden)
		}
	}
	if err := e.repos.Suggestions.Delete(ctx, suggestionID); err != nil {
		return err
	}
	if err := e.rt.Broadcast(ctx, TopicSuggestions, map[string]any{"id": suggestionID, "event": "deleted"}); err != nil {
		e.log.Warn("broadcast suggestion deleted", zap.Error(err))
	}
	return nil
}
