package governance

import "context"

// Kind selects which ledger a vote lands in.
type Kind string

const (
	KindSuggestion Kind = "suggestion"
	KindReferendum Kind = "referendum"
	KindAdmin      Kind = "admin"
)

// Choice values per kind. Suggestions only take support votes; referenda take
// yes/no; admin ballots carry the candidate id instead of a choice.
type Choice string

const (
	ChoiceSupport Choice = "support"
	ChoiceYes     Choice = "yes"
	ChoiceNo      Choice = "no"
)

// Target identifies what is being voted on. For admin votes ID is the
// candidate's user id.
type Target struct {
	Kind Kind
	ID   string
}

// Applied tells the caller what a cast actually did to the ledger.
type Applied string

const (
	AppliedInserted Applied = "inserted"
	AppliedSwitched Applied = "switched"
	AppliedRemoved  Applied = "removed"
)

type CastResult struct {
	Applied Applied `json:"applied"`
}

// TallyResult aggregates one target's ledger. Voter name lists are sorted
// lexicographically so output is stable.
type TallyResult struct {
	Counts map[Choice]int      `json:"counts"`
	Voters map[Choice][]string `json:"voters"`
}

// Sender delivers outbound notifications. Fire and forget: the engine logs
// failures and never retries or rolls back on them.
type Sender interface {
	Send(to []string, subject, body string) error
}

// Broadcaster fans a payload out to subscribers of a topic, at most once,
// best effort.
type Broadcaster interface {
	Broadcast(ctx context.Context, topic string, payload any) error
}

// Broadcast topics the engine publishes on.
const (
	TopicReferenda   = "referenda"
	TopicSuggestions = "suggestions"
	TopicElections   = "elections"
)
