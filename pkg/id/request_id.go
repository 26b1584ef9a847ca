package id

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)

// NewRequestID returns a random UUIDv4 for the X-Request-Id header.
func NewRequestID() string { return uuid.NewString() }

// Valid accepts a canonical UUID (v1-v5) or 32 lowercase hex characters.
func Valid(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if reHex32.MatchString(s) {
		return true
	}
	u, err := uuid.Parse(s)
	if err != nil || len(s) != 36 {
		return false
	}
	v := u.Version()
	return v >= 1 && v <= 5 && u.Variant() == uuid.RFC4122
}
