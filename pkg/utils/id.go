package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a 32-char hex id (uuid v4 without dashes).
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// IsDuplicateKey reports whether err looks like a unique-constraint violation,
// without tying to one driver's error type.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
