// Package ratelimit implements the weighted token bucket every venue
// driver gates its outbound requests through, grounded on the continuous-
// refill bucket in the Polymarket driver and generalized with per-endpoint
// weights and a strict FIFO wait queue per the venue's documented limits.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Config configures a Bucket.
type Config struct {
	// MaxTokens is the bucket's capacity and the default refill amount.
	MaxTokens float64
	// Window is the refill period; every Window that elapses, RefillRate
	// tokens are added back, up to MaxTokens.
	Window time.Duration
	// RefillRate is tokens added per Window. Defaults to MaxTokens.
	RefillRate float64
	// Weights maps an endpoint name to its token cost. Endpoints absent
	// from the map cost 1.
	Weights map[string]float64
}

type waiter struct {
	weight  float64
	ready   chan struct{}
	aborted chan struct{}
}

// Bucket is a weighted token bucket with continuous windowed refill and a
// strict FIFO wait queue: a waiter at the head of the queue blocks every
// waiter behind it, even if a later, cheaper waiter would already fit.
type Bucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	window     time.Duration
	refillRate float64
	weights    map[string]float64
	lastRefill time.Time

	queue    []*waiter
	wake     chan struct{}
	done     chan struct{}
	closeOne sync.Once
}

// New constructs a Bucket from cfg and starts its background queue
// processor. Callers must call Destroy() when finished to release it.
func New(cfg Config) *Bucket {
	refillRate := cfg.RefillRate
	if refillRate <= 0 {
		refillRate = cfg.MaxTokens
	}
	b := &Bucket{
		tokens:     cfg.MaxTokens,
		maxTokens:  cfg.MaxTokens,
		window:     cfg.Window,
		refillRate: refillRate,
		weights:    cfg.Weights,
		lastRefill: time.Now(),
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	go b.processQueue()
	return b
}

func (b *Bucket) costFor(endpoint string, weight float64) float64 {
	if weight > 0 {
		return weight
	}
	if w, ok := b.weights[endpoint]; ok {
		return w
	}
	return 1
}

// refillLocked recomputes tokens per spec: elapsed = now - lastRefill; if
// elapsed >= window, credit floor(elapsed/window)*refillRate tokens
// (capped at maxTokens) and advance lastRefill by whole windows only,
// preserving the sub-window remainder.
func (b *Bucket) refillLocked(now time.Time) {
	elapsed := now.Sub(b.lastRefill)
	if b.window <= 0 || elapsed < b.window {
		return
	}
	periods := elapsed / b.window
	b.tokens += float64(periods) * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
	b.lastRefill = now.Add(-(elapsed - periods*b.window))
}

// Acquire blocks until weight (or Weights[endpoint] or 1) tokens are
// available, consumes them, and returns. Returns ctx.Err() if ctx is
// canceled first, or ErrClosed if Destroy() was called while waiting.
func (b *Bucket) Acquire(ctx context.Context, endpoint string, weight float64) error {
	cost := b.costFor(endpoint, weight)

	b.mu.Lock()
	b.refillLocked(time.Now())
	if len(b.queue) == 0 && b.tokens >= cost {
		b.tokens -= cost
		b.mu.Unlock()
		return nil
	}
	w := &waiter{weight: cost, ready: make(chan struct{}), aborted: make(chan struct{})}
	b.queue = append(b.queue, w)
	b.mu.Unlock()
	b.nudge()

	select {
	case <-w.ready:
		return nil
	case <-w.aborted:
		return ErrClosed
	case <-ctx.Done():
		b.abandon(w)
		return ctx.Err()
	}
}

// abandon removes w from the queue if it is still waiting (it may have
// already been released by the processor in a benign race).
func (b *Bucket) abandon(w *waiter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, q := range b.queue {
		if q == w {
			b.queue = append(b.queue[:i], b.queue[i+1:]...)
			return
		}
	}
}

// TryAcquire attempts a non-blocking acquire, returning false immediately
// if insufficient tokens are available or waiters are already queued
// (strict FIFO: a non-blocking caller must not cut the line).
func (b *Bucket) TryAcquire(endpoint string, weight float64) bool {
	cost := b.costFor(endpoint, weight)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked(time.Now())
	if len(b.queue) == 0 && b.tokens >= cost {
		b.tokens -= cost
		return true
	}
	return false
}

// AvailableTokens returns the current token count after applying any
// refill owed since the last access.
func (b *Bucket) AvailableTokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked(time.Now())
	return b.tokens
}

// TimeUntilRefill returns the duration until the next refill tick.
func (b *Bucket) TimeUntilRefill() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.window <= 0 {
		return 0
	}
	elapsed := time.Since(b.lastRefill)
	remainder := b.window - elapsed%b.window
	return remainder
}

// Reset restores the bucket to full capacity and clears lastRefill, but
// does not affect already-queued waiters beyond making their wait
// shorter on the next processor tick.
func (b *Bucket) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = b.maxTokens
	b.lastRefill = time.Now()
}

// Destroy stops the background processor and releases every queued
// waiter with ErrClosed. Safe to call more than once.
func (b *Bucket) Destroy() {
	b.closeOne.Do(func() {
		close(b.done)
		b.mu.Lock()
		queued := b.queue
		b.queue = nil
		b.mu.Unlock()
		for _, w := range queued {
			close(w.aborted)
		}
	})
}

func (b *Bucket) nudge() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// processQueue polls at most every 100ms per spec, releasing the head
// waiter as soon as its cost fits, and stops only once the head no
// longer fits (strict FIFO: a cheaper waiter further back never cuts in
// front of a still-blocked head).
func (b *Bucket) processQueue() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-b.wake:
			b.drain()
		case <-ticker.C:
			b.drain()
		}
	}
}

func (b *Bucket) drain() {
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.mu.Unlock()
			return
		}
		b.refillLocked(time.Now())
		head := b.queue[0]
		if b.tokens < head.weight {
			b.mu.Unlock()
			return
		}
		b.tokens -= head.weight
		b.queue = b.queue[1:]
		b.mu.Unlock()
		close(head.ready)
	}
}
