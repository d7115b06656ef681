// Package tiered composes a fast in-process cache (L1) with a durable
// on-disk cache (L2) behind the single cache port.
package tiered

import (
	"context"
	"time"

	"github.com/Strob0t/LensForge/internal/port/cache"
)

// Store checks L1 first, then L2, backfilling L1 on an L2 hit. Set and
// Delete operate on both levels. The backfilled L1 entry keeps the L2
// entry's creation time so the TTL clock never restarts on promotion.
type Store struct {
	l1 cache.Store
	l2 cache.Store
}

// New creates a tiered store with the given L1 and L2 backends.
func New(l1, l2 cache.Store) *Store {
	return &Store{l1: l1, l2: l2}
}

// Get checks L1, then L2. On an L2 hit the entry is promoted into L1.
func (s *Store) Get(ctx context.Context, fingerprint string) (cache.Entry, bool, error) {
	entry, found, err := s.l1.Get(ctx, fingerprint)
	if err != nil {
		return cache.Entry{}, false, err
	}
	if found {
		return entry, true, nil
	}

	entry, found, err = s.l2.Get(ctx, fingerprint)
	if err != nil {
		return cache.Entry{}, false, err
	}
	if !found {
		return cache.Entry{}, false, nil
	}

	if entry.Remaining(time.Now()) > 0 || entry.TTL <= 0 {
		_ = s.l1.Set(ctx, entry)
	}
	return entry, true, nil
}

// Set writes to both levels; the durable level decides success.
func (s *Store) Set(ctx context.Context, entry cache.Entry) error {
	if err := s.l1.Set(ctx, entry); err != nil {
		return err
	}
	return s.l2.Set(ctx, entry)
}

// Delete removes the fingerprint from both levels.
func (s *Store) Delete(ctx context.Context, fingerprint string) error {
	if err := s.l1.Delete(ctx, fingerprint); err != nil {
		return err
	}
	return s.l2.Delete(ctx, fingerprint)
}

// Purge clears both levels.
func (s *Store) Purge(ctx context.Context) error {
	if err := s.l1.Purge(ctx); err != nil {
		return err
	}
	return s.l2.Purge(ctx)
}
