package service

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Gate bounds concurrent provider calls with a weighted semaphore.
// Cache hits never pass through the gate, so a saturated provider does
// not slow down cached work.
type Gate struct {
	sem *semaphore.Weighted
}

// NewGate creates a Gate that admits at most limit concurrent calls.
func NewGate(limit int) *Gate {
	if limit < 1 {
		limit = 1
	}
	return &Gate{sem: semaphore.NewWeighted(int64(limit))}
}

// Run acquires a slot, runs fn, and releases the slot.
// Blocks if all slots are busy. Returns ctx.Err() if the context is
// cancelled while waiting for a slot. A nil Gate runs fn directly.
func (g *Gate) Run(ctx context.Context, fn func() error) error {
	if g == nil || g.sem == nil {
		return fn()
	}
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.sem.Release(1)
	return fn()
}
