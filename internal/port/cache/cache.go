// Package cache defines the port interface for the analysis result cache.
package cache

import (
	"context"
	"time"

	"github.com/Strob0t/LensForge/internal/domain/analysis"
)

// Entry is one cached analysis result, keyed by request fingerprint.
// Entries are never mutated after creation; expired entries are removed,
// not edited.
type Entry struct {
	Fingerprint string          `json:"fingerprint"`
	Result      analysis.Result `json:"result"`
	CreatedAt   time.Time       `json:"created_at"`
	TTL         time.Duration   `json:"ttl_ns"`
}

// Expired reports whether the entry's TTL has elapsed. TTL <= 0 entries
// never expire (callers disable caching before Set instead).
func (e Entry) Expired(now time.Time) bool {
	return e.TTL > 0 && now.Sub(e.CreatedAt) > e.TTL
}

// Remaining returns the entry's remaining lifetime, or 0 when it never
// expires or has already expired.
func (e Entry) Remaining(now time.Time) time.Duration {
	if e.TTL <= 0 {
		return 0
	}
	if left := e.TTL - now.Sub(e.CreatedAt); left > 0 {
		return left
	}
	return 0
}

// Store is the port interface implemented by every cache backend.
// All implementations share the same semantics: Get on an expired entry
// behaves as a miss and removes the entry, Set overwrites any existing
// entry for the fingerprint, and all methods are safe for concurrent use.
type Store interface {
	Get(ctx context.Context, fingerprint string) (Entry, bool, error)
	Set(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, fingerprint string) error
	// Purge removes every entry in the store.
	Purge(ctx context.Context) error
}

// Stats summarizes cache effectiveness over some window of lookups.
type Stats struct {
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}
