// Package breaker wraps sony/gobreaker with the Closed/Open/HalfOpen
// contract the request pipeline needs: configurable consecutive-failure
// and success thresholds, a reset timeout, and an event feed metric
// observers subscribe to.
package breaker

import (
	"context"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker"

	"github.com/mexoms/perpunify/pkg/xerrors"
)

// Event is one of the state transitions or outcomes a Breaker emits.
type Event string

const (
	EventOpen     Event = "open"
	EventHalfOpen Event = "halfOpen"
	EventClose    Event = "close"
	EventSuccess  Event = "success"
	EventFailure  Event = "failure"
)

// Config configures a Breaker.
type Config struct {
	Name string
	// FailureThreshold is the number of consecutive failures in Closed
	// state that trips the breaker to Open.
	FailureThreshold uint32
	// SuccessThreshold is the number of consecutive probe successes in
	// HalfOpen required to return to Closed.
	SuccessThreshold uint32
	// ResetTimeout is how long the breaker stays Open before allowing a
	// HalfOpen probe.
	ResetTimeout time.Duration
}

// Breaker is a named circuit breaker with an event feed.
type Breaker struct {
	name string
	cb   *gobreaker.CircuitBreaker

	mu        sync.RWMutex
	listeners []chan Event
}

// New constructs a Breaker from cfg, defaulting FailureThreshold to 3,
// SuccessThreshold to 1, and ResetTimeout to 60s when unset.
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = 1
	}
	if cfg.ResetTimeout == 0 {
		cfg.ResetTimeout = 60 * time.Second
	}

	b := &Breaker{name: cfg.Name}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.SuccessThreshold,
		Timeout:     cfg.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			b.emit(stateToEvent(to))
		},
	}
	b.cb = gobreaker.NewCircuitBreaker(settings)
	return b
}

func stateToEvent(s gobreaker.State) Event {
	switch s {
	case gobreaker.StateOpen:
		return EventOpen
	case gobreaker.StateHalfOpen:
		return EventHalfOpen
	default:
		return EventClose
	}
}

func (b *Breaker) emit(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.listeners {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe returns a channel that receives every event this breaker
// emits. The channel is buffered; slow consumers drop events rather than
// block the breaker.
func (b *Breaker) Subscribe() <-chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.listeners = append(b.listeners, ch)
	b.mu.Unlock()
	return ch
}

// Execute runs fn through the breaker. If the breaker is Open, fn is
// never called and an xerrors.CircuitOpen error is returned immediately.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		b.emit(EventFailure)
		return nil, xerrors.New(xerrors.CircuitOpen, b.name, "circuit breaker open")
	}
	if err != nil {
		b.emit(EventFailure)
		return result, err
	}
	b.emit(EventSuccess)
	return result, nil
}

// State returns the breaker's current state as one of "closed", "open",
// "half-open".
func (b *Breaker) State() string {
	switch b.cb.State() {
	case gobreaker.StateOpen:
		return "open"
	case gobreaker.StateHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

// Destroy closes every subscriber channel, releasing listeners. gobreaker
// has no internal timer to cancel directly; HalfOpen transition is
// evaluated lazily on the next Execute call, so there is nothing else to
// tear down.
func (b *Breaker) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.listeners {
		close(ch)
	}
	b.listeners = nil
}
