package cache

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTTL is the fallback TTL when the response carries no caching headers.
	DefaultTTL = 5 * time.Minute
)

// ExpiresFromHeaders derives an entry's expiry from response headers.
//
// Cache-Control takes precedence over Expires. "no-store" and "no-cache"
// yield an expiry of now, so the response is not stored. When neither header
// is usable, the entry lives for fallback (DefaultTTL if fallback <= 0).
func ExpiresFromHeaders(headers http.Header, fallback time.Duration) time.Time {
	now := time.Now()
	if fallback <= 0 {
		fallback = DefaultTTL
	}

	if cc := headers.Get("Cache-Control"); cc != "" {
		for _, directive := range strings.Split(cc, ",") {
			directive = strings.ToLower(strings.TrimSpace(directive))
			switch {
			case directive == "no-store" || directive == "no-cache":
				return now
			case strings.HasPrefix(directive, "max-age="):
				secs, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age="))
				if err == nil && secs >= 0 {
					return now.Add(time.Duration(secs) * time.Second)
				}
			}
		}
	}

	expiresStr := headers.Get("Expires")
	if expiresStr == "" {
		return now.Add(fallback)
	}

	expires, err := http.ParseTime(expiresStr)
	if err != nil {
		return now.Add(fallback)
	}

	if expires.Before(now) {
		return now
	}

	return expires
}
