package cache

import (
	"context"
	"errors"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Store is a search response cache.
type Store interface {
	// Get returns the entry for key, or ErrCacheMiss if it is absent or expired.
	Get(ctx context.Context, key Key) (*Entry, error)

	// Set stores an entry until its Expires time. Expired entries are not stored.
	Set(ctx context.Context, key Key, entry *Entry) error

	// Delete removes an entry.
	Delete(ctx context.Context, key Key) error

	// Close releases resources held by the store.
	Close() error
}
