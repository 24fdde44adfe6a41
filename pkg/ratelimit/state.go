// Package ratelimit paces requests to the search service.
// It combines a token bucket for steady pacing with a cooldown that honors the
// Retry-After header of 429 Too Many Requests responses.
package ratelimit

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Defaults for cooldown handling.
const (
	// DefaultCooldown applies when a 429 response carries no usable Retry-After.
	DefaultCooldown = 1 * time.Second

	// MaxCooldown caps the pause taken from a Retry-After header.
	MaxCooldown = 60 * time.Second
)

// State represents the current limiter state.
type State struct {
	// RequestsPerSecond is the steady request rate; 0 means unlimited.
	RequestsPerSecond float64

	// Burst is the number of requests allowed at once.
	Burst int

	// CooldownUntil is when requests may resume after a 429; zero if none.
	CooldownUntil time.Time
}

// CoolingDown reports whether requests are currently paused.
func (s State) CoolingDown() bool {
	return time.Now().Before(s.CooldownUntil)
}

// TimeUntilResume returns the remaining cooldown, or 0 if none.
func (s State) TimeUntilResume() time.Duration {
	d := time.Until(s.CooldownUntil)
	if d < 0 {
		return 0
	}
	return d
}

// ParseRetryAfter reads a Retry-After header given in seconds or as an HTTP date.
// It returns false when the header is absent or malformed.
func ParseRetryAfter(headers http.Header, now time.Time) (time.Duration, bool) {
	value := strings.TrimSpace(headers.Get("Retry-After"))
	if value == "" {
		return 0, false
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}

	if at, err := http.ParseTime(value); err == nil {
		d := at.Sub(now)
		if d < 0 {
			d = 0
		}
		return d, true
	}

	return 0, false
}
