package governance

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"agora/internal/domain"
)

// In-memory repositories. Each fake guards its map with a mutex so the
// concurrency tests exercise the engine locks against a safe store.

type fakeUsers struct {
	mu   sync.Mutex
	rows map[string]*domain.User
}

func newFakeUsers() *fakeUsers { return &fakeUsers{rows: map[string]*domain.User{}} }

func (f *fakeUsers) Create(_ context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *u
	f.rows[u.ID] = &cp
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) FindByVerifyToken(_ context.Context, token string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.rows {
		if u.VerifyToken == token {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeUsers) MarkVerified(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.rows[id]; ok {
		u.EmailVerified = true
	}
	return nil
}

func (f *fakeUsers) Count(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.rows)), nil
}

func (f *fakeUsers) List(_ context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.User, 0, len(f.rows))
	for _, u := range f.rows {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeUsers) AllEmails(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.rows))
	for _, u := range f.rows {
		out = append(out, u.Email)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeUsers) SoftDelete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

type fakeSuggestions struct {
	mu   sync.Mutex
	rows map[string]*domain.Suggestion
}

func newFakeSuggestions() *fakeSuggestions {
	return &fakeSuggestions{rows: map[string]*domain.Suggestion{}}
}

func (f *fakeSuggestions) Create(_ context.Context, s *domain.Suggestion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *s
	f.rows[s.ID] = &cp
	return nil
}

func (f *fakeSuggestions) FindByID(_ context.Context, id string) (*domain.Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSuggestions) List(_ context.Context) ([]domain.Suggestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Suggestion, 0, len(f.rows))
	for _, s := range f.rows {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeSuggestions) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

type fakeReferenda struct {
	mu   sync.Mutex
	rows map[string]*domain.Referendum
}

func newFakeReferenda() *fakeReferenda {
	return &fakeReferenda{rows: map[string]*domain.Referendum{}}
}

func (f *fakeReferenda) Create(_ context.Context, r *domain.Referendum) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.Title == r.Title {
			return errDuplicateTitle
		}
	}
	cp := *r
	f.rows[r.ID] = &cp
	return nil
}

func (f *fakeReferenda) FindByID(_ context.Context, id string) (*domain.Referendum, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReferenda) FindByTitle(_ context.Context, title string) (*domain.Referendum, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.Title == title {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeReferenda) List(_ context.Context) ([]domain.Referendum, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Referendum, 0, len(f.rows))
	for _, r := range f.rows {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeReferenda) ListByStatus(_ context.Context, status string) ([]domain.Referendum, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Referendum{}
	for _, r := range f.rows {
		if r.Status == status {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeReferenda) SetStatus(_ context.Context, id, status string, endedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id]
	if !ok || r.Status != domain.StatusActive {
		return nil
	}
	r.Status = status
	t := endedAt
	r.EndedAt = &t
	return nil
}

func (f *fakeReferenda) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

type fakeVotes struct {
	mu   sync.Mutex
	rows map[string]*domain.Vote
}

func newFakeVotes() *fakeVotes { return &fakeVotes{rows: map[string]*domain.Vote{}} }

func (f *fakeVotes) Insert(_ context.Context, v *domain.Vote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.VoterID == v.VoterID && row.SuggestionID == v.SuggestionID && row.ReferendumID == v.ReferendumID {
			return errDuplicateVote
		}
	}
	cp := *v
	f.rows[v.ID] = &cp
	return nil
}

func (f *fakeVotes) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	return nil
}

func (f *fakeVotes) FindByVoter(_ context.Context, voterID, suggestionID, referendumID string) (*domain.Vote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.rows {
		if v.VoterID == voterID && v.SuggestionID == suggestionID && v.ReferendumID == referendumID {
			cp := *v
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeVotes) ListBySuggestion(_ context.Context, suggestionID string) ([]domain.Vote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Vote{}
	for _, v := range f.rows {
		if v.SuggestionID == suggestionID && v.SuggestionID != "" {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (f *fakeVotes) ListByReferendum(_ context.Context, referendumID string) ([]domain.Vote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Vote{}
	for _, v := range f.rows {
		if v.ReferendumID == referendumID && v.ReferendumID != "" {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (f *fakeVotes) DeleteByReferendum(_ context.Context, referendumID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, v := range f.rows {
		if v.ReferendumID == referendumID {
			delete(f.rows, id)
		}
	}
	return nil
}

type fakeAdminVotes struct {
	mu   sync.Mutex
	rows map[string]*domain.AdminVote
}

func newFakeAdminVotes() *fakeAdminVotes {
	return &fakeAdminVotes{rows: map[string]*domain.AdminVote{}}
}

func (f *fakeAdminVotes) Insert(_ context.Context, v *domain.AdminVote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.VoterID == v.VoterID {
			return errDuplicateVote
		}
	}
	cp := *v
	f.rows[v.ID] = &cp
	return nil
}

func (f *fakeAdminVotes) DeleteByVoter(_ context.Context, voterID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, v := range f.rows {
		if v.VoterID == voterID {
			delete(f.rows, id)
		}
	}
	return nil
}

func (f *fakeAdminVotes) FindByVoter(_ context.Context, voterID string) (*domain.AdminVote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.rows {
		if v.VoterID == voterID {
			cp := *v
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAdminVotes) CountByCandidate(_ context.Context) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]int{}
	for _, v := range f.rows {
		out[v.CandidateID]++
	}
	return out, nil
}

var (
	errDuplicateTitle = &dupErr{"duplicate key: uq title"}
	errDuplicateVote  = &dupErr{"duplicate key: uq vote"}
)

type dupErr struct{ s string }

func (e *dupErr) Error() string { return e.s }

// capturingSender records every outbound mail.
type capturingSender struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	To      []string
	Subject string
	Body    string
}

func (s *capturingSender) Send(to []string, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (s *capturingSender) bySubject(subject string) []sentMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []sentMail
	for _, m := range s.sent {
		if strings.HasPrefix(m.Subject, subject) {
			out = append(out, m)
		}
	}
	return out
}

// capturingBroadcaster records published events per topic.
type capturingBroadcaster struct {
	mu     sync.Mutex
	events map[string][]any
}

func newCapturingBroadcaster() *capturingBroadcaster {
	return &capturingBroadcaster{events: map[string][]any{}}
}

func (b *capturingBroadcaster) Broadcast(_ context.Context, topic string, payload any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events[topic] = append(b.events[topic], payload)
	return nil
}

func (b *capturingBroadcaster) count(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events[topic])
}

// harness wires an engine over the fakes with a controllable clock.
type harness struct {
	engine     *Engine
	users      *fakeUsers
	suggs      *fakeSuggestions
	refs       *fakeReferenda
	votes      *fakeVotes
	adminVotes *fakeAdminVotes
	mail       *capturingSender
	rt         *capturingBroadcaster
	gate       *Gate
	clock      *fakeClock
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newHarness(t *testing.T, rules Rules) *harness {
	t.Helper()
	h := &harness{
		users:      newFakeUsers(),
		suggs:      newFakeSuggestions(),
		refs:       newFakeReferenda(),
		votes:      newFakeVotes(),
		adminVotes: newFakeAdminVotes(),
		mail:       &capturingSender{},
		rt:         newCapturingBroadcaster(),
		clock:      &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	rules = rules.Normalize()
	h.gate = NewGate(map[NotifyKind]time.Duration{
		KindAdminLeaders: rules.LeaderCooldown,
	}).WithClock(h.clock.Now)
	h.engine = NewEngine(Repos{
		Users:       h.users,
		Suggestions: h.suggs,
		Referenda:   h.refs,
		Votes:       h.votes,
		AdminVotes:  h.adminVotes,
	}, rules, h.gate, h.mail, h.rt, zap.NewNop()).WithClock(h.clock.Now)
	return h
}

// addUsers registers n verified members named u01..un.
func (h *harness) addUsers(t *testing.T, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		id := fmtUserID(i)
		_ = h.users.Create(context.Background(), &domain.User{
			ID:            id,
			Name:          id,
			Email:         id + "@example.org",
			EmailVerified: true,
		})
		ids = append(ids, id)
	}
	return ids
}

func fmtUserID(i int) string {
	const digits = "0123456789"
	return "u" + string(digits[(i/10)%10]) + string(digits[i%10])
}

func (h *harness) addSuggestion(t *testing.T, id, author, title string) *domain.Suggestion {
	t.Helper()
	s := &domain.Suggestion{ID: id, AuthorID: author, Title: title, CreatedAt: h.clock.Now()}
	_ = h.suggs.Create(context.Background(), s)
	return s
}

func (h *harness) addReferendum(t *testing.T, id, title string) *domain.Referendum {
	t.Helper()
	r := &domain.Referendum{ID: id, Title: title, Status: domain.StatusActive, CreatedAt: h.clock.Now()}
	_ = h.refs.Create(context.Background(), r)
	return r
}
