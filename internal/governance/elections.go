package governance

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Candidate is one row of the election leaderboard.
type Candidate struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Votes  int    `json:"votes"`
}

// Leaderboard ranks all registered users by admin-vote count, most votes
// first, name as tie-break so the ordering is deterministic. The first
// Rules.LeaderCount entries are the sitting admins.
func (e *Engine) Leaderboard(ctx context.Context) ([]Candidate, error) {
	users, err := e.repos.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := e.repos.AdminVotes.CountByCandidate(ctx)
	if err != nil {
		return nil, err
	}
	board := make([]Candidate, 0, len(users))
	for _, u := range users {
		board = append(board, Candidate{UserID: u.ID, Name: u.Name, Votes: counts[u.ID]})
	}
	sort.Slice(board, func(i, j int) bool {
		if board[i].Votes != board[j].Votes {
			return board[i].Votes > board[j].Votes
		}
		return board[i].Name < board[j].Name
	})
	return board, nil
}

// Leaders returns the current sitting admins.
func (e *Engine) Leaders(ctx context.Context) ([]Candidate, error) {
	board, err := e.Leaderboard(ctx)
	if err != nil {
		return nil, err
	}
	if len(board) > e.rules.LeaderCount {
		board = board[:e.rules.LeaderCount]
	}
	return board, nil
}

// IsElectedAdmin reports whether the user currently holds one of the admin
// seats. Moderation endpoints gate on this.
func (e *Engine) IsElectedAdmin(ctx context.Context, userID string) (bool, error) {
	leaders, err := e.Leaders(ctx)
	if err != nil {
		return false, err
	}
	for _, l := range leaders {
		if l.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// leadersKey is the gate identity for a leadership composition: the sorted
// set of leader ids.
func leadersKey(leaders []Candidate) string {
	ids := make([]string, 0, len(leaders))
	for _, l := range leaders {
		ids = append(ids, l.UserID)
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// checkLeaders runs after every admin-vote mutation: recompute the top seats,
// ask the gate whether this composition is news, and if so mail everyone and
// broadcast. Leadership can flap, so the gate's cooldown window does the
// flap suppression.
func (e *Engine) checkLeaders(ctx context.Context) {
	leaders, err := e.Leaders(ctx)
	if err != nil {
		e.log.Warn("compute leaders", zap.Error(err))
		return
	}
	if len(leaders) == 0 {
		return
	}
	key := leadersKey(leaders)
	if e.gate.ShouldNotify(KindAdminLeaders, key) {
		e.gate.RecordNotified(KindAdminLeaders, key)
		names := make([]string, 0, len(leaders))
		for _, l := range leaders {
			names = append(names, fmt.Sprintf("%s (%d votes)", l.Name, l.Votes))
		}
		e.notifyAll(ctx,
			"Admin Leadership Changed",
			"The community admin seats have changed:\n\n"+strings.Join(names, "\n")+"\n\nLog in to see the full election standings.",
		)
	}
	if err := e.rt.Broadcast(ctx, TopicElections, map[string]any{"event": "updated"}); err != nil {
		e.log.Warn("broadcast elections", zap.Error(err))
	}
}
