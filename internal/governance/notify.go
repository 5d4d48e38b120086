package governance

import (
	"sync"
	"time"
)

// NotifyKind namespaces the gate's dedup keys.
type NotifyKind string

const (
	// KindReferendumPassed entries never expire: passing is terminal, so one
	// notification per referendum id, ever.
	KindReferendumPassed NotifyKind = "referendum-passed"
	// KindAdminLeaders entries expire after the configured cooldown; the key
	// is the sorted leader-id set, so any composition change is a fresh key
	// and notifies immediately.
	KindAdminLeaders NotifyKind = "admin-leaders"
)

// Gate is the process-local notification dedup memory. It is shared by every
// request and both sweep timers, so all access goes through the mutex. Lost
// on restart by design: it only suppresses redundant mail.
type Gate struct {
	mu       sync.Mutex
	sent     map[NotifyKind]map[string]time.Time
	cooldown map[NotifyKind]time.Duration
	now      func() time.Time
}

// NewGate builds a gate. cooldowns maps a kind to its expiry window; kinds
// without an entry (or with 0) dedup forever.
func NewGate(cooldowns map[NotifyKind]time.Duration) *Gate {
	cd := make(map[NotifyKind]time.Duration, len(cooldowns))
	for k, v := range cooldowns {
		cd[k] = v
	}
	return &Gate{
		sent:     make(map[NotifyKind]map[string]time.Time),
		cooldown: cd,
		now:      time.Now,
	}
}

// WithClock replaces the gate clock. Test hook.
func (g *Gate) WithClock(now func() time.Time) *Gate {
	g.now = now
	return g
}

// ShouldNotify reports whether a notification for (kind, key) is due: true if
// the key was never recorded, or if its cooldown window has elapsed.
func (g *Gate) ShouldNotify(kind NotifyKind, key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	at, ok := g.sent[kind][key]
	if !ok {
		return true
	}
	ttl := g.cooldown[kind]
	if ttl <= 0 {
		return false
	}
	return g.now().Sub(at) >= ttl
}

// RecordNotified marks (kind, key) as notified at the current time.
func (g *Gate) RecordNotified(kind NotifyKind, key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.sent[kind]
	if !ok {
		m = make(map[string]time.Time)
		g.sent[kind] = m
	}
	m[key] = g.now()
}
