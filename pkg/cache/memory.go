package cache

import (
	"context"
	"fmt"
	"sync"
)

// DefaultMemoryEntries bounds a MemoryStore created with a non-positive limit.
const DefaultMemoryEntries = 256

// MemoryStore is an in-process Store. When full, expired entries are purged
// first and then the oldest entry is evicted.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]*Entry
	maxEntries int
}

// NewMemoryStore creates a store holding at most maxEntries entries.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = DefaultMemoryEntries
	}
	return &MemoryStore{
		entries:    make(map[string]*Entry),
		maxEntries: maxEntries,
	}
}

// Get returns a copy of the entry for key.
func (s *MemoryStore) Get(_ context.Context, key Key) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key.String()
	entry, ok := s.entries[k]
	if !ok || entry.IsExpired() {
		delete(s.entries, k)
		CacheMisses.WithLabelValues(layerMemory).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(layerMemory).Inc()
	cp := *entry
	return &cp, nil
}

// Set stores a copy of entry.
func (s *MemoryStore) Set(_ context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}
	if entry.TTL() <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key.String()
	if _, exists := s.entries[k]; !exists && len(s.entries) >= s.maxEntries {
		s.evictLocked()
	}

	cp := *entry
	s.entries[k] = &cp
	return nil
}

// Delete removes an entry.
func (s *MemoryStore) Delete(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key.String())
	return nil
}

// Len returns the number of stored entries, including expired ones not yet purged.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Close drops all entries.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*Entry)
	return nil
}

func (s *MemoryStore) evictLocked() {
	var oldestKey string
	var oldest *Entry
	for k, e := range s.entries {
		if e.IsExpired() {
			delete(s.entries, k)
			continue
		}
		if oldest == nil || e.CachedAt.Before(oldest.CachedAt) {
			oldestKey, oldest = k, e
		}
	}
	if len(s.entries) >= s.maxEntries && oldest != nil {
		delete(s.entries, oldestKey)
	}
}
