package governance

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"go.uber.org/zap"

	"agora/internal/domain"
)

// Rules carries the community-decided constants. Zero values fall back to the
// defaults below via Normalize.
type Rules struct {
	// PromoteRatio is the share of registered users whose support promotes a
	// suggestion into a referendum (required = max(1, ceil(N*PromoteRatio))).
	PromoteRatio float64
	// MinAge is how old a referendum must be before the sweep may resolve it.
	MinAge time.Duration
	// PurgeAfter is the retention horizon: active referenda older than this
	// that never reached a majority are hard-deleted.
	PurgeAfter time.Duration
	// LeaderCount is how many top candidates sit as admins.
	LeaderCount int
	// LeaderCooldown suppresses repeat leadership notifications for the same
	// leader set.
	LeaderCooldown time.Duration
}

func (r Rules) Normalize() Rules {
	if r.PromoteRatio <= 0 {
		r.PromoteRatio = 0.05
	}
	if r.MinAge <= 0 {
		r.MinAge = 24 * time.Hour
	}
	if r.PurgeAfter <= 0 {
		r.PurgeAfter = 14 * 24 * time.Hour
	}
	if r.LeaderCount <= 0 {
		r.LeaderCount = 3
	}
	if r.LeaderCooldown <= 0 {
		r.LeaderCooldown = 5 * time.Minute
	}
	return r
}

type Repos struct {
	Users       domain.UserRepository
	Suggestions domain.SuggestionRepository
	Referenda   domain.ReferendumRepository
	Votes       domain.VoteRepository
	AdminVotes  domain.AdminVoteRepository
}

// castShards bounds the cast lock table for the whole process lifetime.
// Distinct keys may share a shard; that only costs a little extra contention.
const castShards = 256

// Engine implements the vote ledger, tally, promotion and resolution rules.
// All state lives in the store; the engine itself only holds the sharded
// cast locks and the injected notification gate.
type Engine struct {
	repos Repos
	rules Rules
	gate  *Gate
	mail  Sender
	rt    Broadcaster
	log   *zap.Logger
	now   func() time.Time

	casts [castShards]sync.Mutex
}

func NewEngine(repos Repos, rules Rules, gate *Gate, mail Sender, rt Broadcaster, log *zap.Logger) *Engine {
	return &Engine{
		repos: repos,
		rules: rules.Normalize(),
		gate:  gate,
		mail:  mail,
		rt:    rt,
		log:   log,
		now:   time.Now,
	}
}

// WithClock replaces the engine clock. Test hook.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// castLock serializes casts per (kind, target, voter) so a racing double
// submit cannot leave two ledger rows.
func (e *Engine) castLock(kind Kind, targetID, voterID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(string(kind) + "\x00" + targetID + "\x00" + voterID))
	return &e.casts[h.Sum32()%castShards]
}

// notifyAll mails every registered user. Failures are logged, never surfaced.
func (e *Engine) notifyAll(ctx context.Context, subject, body string) {
	emails, err := e.repos.Users.AllEmails(ctx)
	if err != nil {
		e.log.Warn("collect recipient emails", zap.Error(err))
		return
	}
	if len(emails) == 0 {
		return
	}
	if err := e.mail.Send(emails, subject, body); err != nil {
		e.log.Warn("send notification", zap.String("subject", subject), zap.Error(err))
	}
}
