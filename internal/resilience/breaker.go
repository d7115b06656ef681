// Package resilience provides reliability patterns for provider calls.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned when the breaker is shedding calls.
var ErrOpen = errors.New("circuit breaker open")

type state int

const (
	closed state = iota
	open
	probing
)

// Breaker sheds provider calls after a run of consecutive failures.
// While open it rejects immediately; after the cooldown a single probe
// call is let through, and its outcome closes or re-opens the circuit.
type Breaker struct {
	mu        sync.Mutex
	state     state
	failures  int
	threshold int
	cooldown  time.Duration
	openedAt  time.Time
	clock     func() time.Time
}

// NewBreaker returns a Breaker that opens after threshold consecutive
// failures and stays open for cooldown before probing.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	if threshold < 1 {
		threshold = 1
	}
	return &Breaker{threshold: threshold, cooldown: cooldown, clock: time.Now}
}

// Execute runs fn unless the circuit is open, recording the outcome.
// A nil Breaker runs fn directly.
func (b *Breaker) Execute(fn func() error) error {
	if b == nil {
		return fn()
	}
	if !b.admit() {
		return ErrOpen
	}

	err := fn()
	b.record(err)
	return err
}

func (b *Breaker) admit() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == open {
		if b.clock().Sub(b.openedAt) < b.cooldown {
			return false
		}
		b.state = probing
	}
	return true
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0
		b.state = closed
		return
	}

	b.failures++
	if b.state == probing || b.failures >= b.threshold {
		b.state = open
		b.openedAt = b.clock()
	}
}
