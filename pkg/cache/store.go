package cache

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache.
	ErrCacheMiss = errors.New("cache miss")
)

// Store is an in-memory response cache. Safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewStore creates an empty response cache.
func NewStore() *Store {
	return &Store{
		entries: make(map[string]*Entry),
	}
}

// Get retrieves a cache entry by key. Stale entries are returned too;
// the caller decides between serving, revalidating, and discarding via
// Entry.IsExpired and ShouldRevalidate. The store never mutates a
// stored entry, so the returned pointer may be read without a lock.
func (s *Store) Get(key Key) (*Entry, error) {
	s.mu.RLock()
	entry, ok := s.entries[key.String()]
	s.mu.RUnlock()

	if !ok {
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.Inc()
	return entry, nil
}

// Set stores a cache entry.
func (s *Store) Set(key Key, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	s.mu.Lock()
	s.entries[key.String()] = entry
	size := len(s.entries)
	s.mu.Unlock()

	CacheEntries.Set(float64(size))
	return nil
}

// Delete removes a cache entry.
func (s *Store) Delete(key Key) {
	s.mu.Lock()
	delete(s.entries, key.String())
	size := len(s.entries)
	s.mu.Unlock()

	CacheEntries.Set(float64(size))
}

// UpdateTTL moves an existing entry's expiry, typically after a 304
// revalidation delivered a fresh Expires header. The stored entry is
// replaced rather than mutated: callers may still hold the pointer
// returned by Get and read it without a lock.
func (s *Store) UpdateTTL(key Key, newExpires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key.String()]
	if !ok {
		return ErrCacheMiss
	}

	refreshed := *entry
	refreshed.Expires = newExpires
	s.entries[key.String()] = &refreshed
	return nil
}

// Prune drops every stale entry that carries no validator and can
// therefore never be revalidated.
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for k, entry := range s.entries {
		if entry.IsExpired() && !ShouldRevalidate(entry) {
			delete(s.entries, k)
			dropped++
		}
	}

	CacheEntries.Set(float64(len(s.entries)))
	return dropped
}

// Len reports the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
