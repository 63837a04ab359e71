package wizz

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned while the breaker rejects calls.
var ErrCircuitOpen = errors.New("availability circuit breaker is open")

type breakerState string

const (
	stateClosed   breakerState = "closed"
	stateOpen     breakerState = "open"
	stateHalfOpen breakerState = "half-open"
)

// breaker opens after threshold consecutive failures and lets a single
// trial call through after resetTimeout.
type breaker struct {
	mu           sync.Mutex
	state        breakerState
	failures     int
	trial        bool
	threshold    int
	resetTimeout time.Duration
	openedAt     time.Time
	now          func() time.Time
	onChange     func(breakerState)
}

func newBreaker(threshold int, resetTimeout time.Duration) *breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = time.Minute
	}
	return &breaker{
		state:        stateClosed,
		threshold:    threshold,
		resetTimeout: resetTimeout,
		now:          time.Now,
	}
}

func (b *breaker) execute(fn func() error) error {
	if !b.allow() {
		return ErrCircuitOpen
	}
	err := fn()
	switch {
	case err == nil:
		b.success()
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		// cancelled by the caller, not an upstream failure
		b.release()
	default:
		b.failure()
	}
	return err
}

func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case stateOpen:
		if b.now().Sub(b.openedAt) > b.resetTimeout {
			b.transition(stateHalfOpen)
			b.trial = true
			return true
		}
		return false
	case stateHalfOpen:
		if b.trial {
			return false
		}
		b.trial = true
		return true
	default:
		return true
	}
}

func (b *breaker) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trial = false
}

func (b *breaker) failure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.trial = false
	if b.state == stateHalfOpen || b.failures >= b.threshold {
		b.transition(stateOpen)
	}
}

func (b *breaker) success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.trial = false
	b.transition(stateClosed)
}

// caller holds mu
func (b *breaker) transition(s breakerState) {
	if b.state == s {
		return
	}
	b.state = s
	if s == stateOpen {
		b.openedAt = b.now()
	}
	if b.onChange != nil {
		b.onChange(s)
	}
}

func (b *breaker) current() breakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
