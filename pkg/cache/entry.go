package cache

import (
	"time"
)

// Entry is a cached search response body.
type Entry struct {
	// Data is the raw response body in the search service's wire format.
	Data []byte `json:"data"`

	// Expires is when the entry becomes stale.
	Expires time.Time `json:"expires"`

	// CachedAt is when the entry was stored.
	CachedAt time.Time `json:"cached_at"`
}

// NewEntry creates an entry for data that expires at the given time.
func NewEntry(data []byte, expires time.Time) *Entry {
	return &Entry{
		Data:     data,
		Expires:  expires,
		CachedAt: time.Now(),
	}
}

// IsExpired returns true if the entry has expired.
func (e *Entry) IsExpired() bool {
	return !time.Now().Before(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *Entry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
