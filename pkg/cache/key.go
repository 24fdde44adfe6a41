package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/Sternrassler/movie-search-client/pkg/query"
)

// Key identifies a cached search response.
type Key struct {
	// Endpoint is the resource path (e.g., "/api/movies")
	Endpoint string

	// QueryParams are the request's query parameters
	QueryParams url.Values
}

// KeyFor returns the cache key of a search request.
func KeyFor(req query.Request) Key {
	return Key{
		Endpoint:    req.Path,
		QueryParams: req.Values(),
	}
}

// String generates a deterministic key string. Parameters are sorted so that
// requests differing only in parameter order share an entry.
//
// Example:
//
//	api/movies:size=12:title=matrix
func (k Key) String() string {
	parts := make([]string, 0, len(k.QueryParams)+1)

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			// Escaped so that a ':' inside a title cannot collide with the separator.
			parts = append(parts, fmt.Sprintf("%s=%s", key, url.QueryEscape(k.QueryParams.Get(key))))
		}
	}

	return strings.Join(parts, ":")
}
