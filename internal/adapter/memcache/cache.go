// Package memcache implements the cache port in-process using
// dgraph-io/ristretto. Entries live for the process lifetime at most.
package memcache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/Strob0t/LensForge/internal/port/cache"
)

// Store wraps a ristretto cache of analysis entries.
type Store struct {
	c *ristretto.Cache[string, cache.Entry]
}

// New creates an in-process store holding at most maxEntries entries.
func New(maxEntries int64) (*Store, error) {
	if maxEntries < 1 {
		maxEntries = 1
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, cache.Entry]{
		NumCounters: maxEntries * 10, // ~10x expected items
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Store{c: c}, nil
}

// Get retrieves a live entry. Expired entries behave as a miss and are
// removed.
func (s *Store) Get(_ context.Context, fingerprint string) (cache.Entry, bool, error) {
	entry, found := s.c.Get(fingerprint)
	if !found {
		return cache.Entry{}, false, nil
	}
	if entry.Expired(time.Now()) {
		s.c.Del(fingerprint)
		return cache.Entry{}, false, nil
	}
	return entry, true, nil
}

// Set stores an entry, overwriting any existing one for the fingerprint.
// The write is synchronous: a following Get observes it.
func (s *Store) Set(_ context.Context, entry cache.Entry) error {
	s.c.SetWithTTL(entry.Fingerprint, entry, 1, entry.TTL)
	s.c.Wait()
	return nil
}

// Delete removes an entry.
func (s *Store) Delete(_ context.Context, fingerprint string) error {
	s.c.Del(fingerprint)
	return nil
}

// Purge drops every entry. The clear is synchronous.
func (s *Store) Purge(_ context.Context) error {
	s.c.Clear()
	s.c.Wait()
	return nil
}

// Close shuts down the cache and releases resources.
func (s *Store) Close() {
	s.c.Close()
}
