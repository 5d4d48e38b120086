package domain

import (
	"context"
	"time"
)

// Referendum statuses. Transitions are one-way: active referenda either pass,
// fail, or age out and get purged.
const (
	StatusActive = "active"
	StatusPassed = "passed"
	StatusFailed = "failed"
)

type Suggestion struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	AuthorID    string    `gorm:"size:36;index;not null" json:"authorId"`
	Title       string    `gorm:"size:191;index;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (Suggestion) TableName() string { return "suggestions" }

type Referendum struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	SuggestionID string     `gorm:"size:36;index" json:"suggestionId"`
	Title        string     `gorm:"uniqueIndex;size:191;not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	Status       string     `gorm:"size:16;index;not null;default:active" json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	EndedAt      *time.Time `json:"endedAt"`
}

func (Referendum) TableName() string { return "referenda" }

// Vote is the suggestion/referendum ledger. Exactly one of SuggestionID or
// ReferendumID is set, the other stays the empty string. The single composite
// unique index spans both target columns, so the empty sibling never collides
// across different targets and the one-row-per-(voter,target) invariant the
// engine enforces gets a schema backstop.
type Vote struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	VoterID      string    `gorm:"size:36;not null;uniqueIndex:uq_vote_target" json:"voterId"`
	SuggestionID string    `gorm:"size:36;index;uniqueIndex:uq_vote_target" json:"suggestionId"`
	ReferendumID string    `gorm:"size:36;index;uniqueIndex:uq_vote_target" json:"referendumId"`
	Choice       string    `gorm:"size:16;not null" json:"choice"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (Vote) TableName() string { return "votes" }

// AdminVote is the structurally separate election ledger: one row per voter.
type AdminVote struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	VoterID     string    `gorm:"size:36;uniqueIndex;not null" json:"voterId"`
	CandidateID string    `gorm:"size:36;index;not null" json:"candidateId"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (AdminVote) TableName() string { return "admin_votes" }

type SuggestionRepository interface {
	Create(ctx context.Context, s *Suggestion) error
	FindByID(ctx context.Context, id string) (*Suggestion, error)
	List(ctx context.Context) ([]Suggestion, error)
	Delete(ctx context.Context, id string) error
}

type ReferendumRepository interface {
	Create(ctx context.Context, r *Referendum) error
	FindByID(ctx context.Context, id string) (*Referendum, error)
	FindByTitle(ctx context.Context, title string) (*Referendum, error)
	List(ctx context.Context) ([]Referendum, error)
	ListByStatus(ctx context.Context, status string) ([]Referendum, error)
	SetStatus(ctx context.Context, id, status string, endedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

type VoteRepository interface {
	Insert(ctx context.Context, v *Vote) error
	Delete(ctx context.Context, id string) error
	// FindByVoter returns the voter's current vote for the target, nil if none.
	FindByVoter(ctx context.Context, voterID, suggestionID, referendumID string) (*Vote, error)
	ListBySuggestion(ctx context.Context, suggestionID string) ([]Vote, error)
	ListByReferendum(ctx context.Context, referendumID string) ([]Vote, error)
	DeleteByReferendum(ctx context.Context, referendumID string) error
}

type AdminVoteRepository interface {
	Insert(ctx context.Context, v *AdminVote) error
	DeleteByVoter(ctx context.Context, voterID string) error
	FindByVoter(ctx context.Context, voterID string) (*AdminVote, error)
	CountByCandidate(ctx context.Context) (map[string]int, error)
}
