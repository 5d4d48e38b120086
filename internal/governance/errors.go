package governance

import "errors"

var (
	// ErrInvalidVote covers self-votes in admin elections and choices that do
	// not exist for the target kind. Rejected before any write.
	ErrInvalidVote = errors.New("invalid vote")

	// ErrNotFound means the vote target (or its voter) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the caller is not allowed to touch the entity.
	ErrForbidden = errors.New("forbidden")
)
