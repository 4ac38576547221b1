// Package metrics defines the push-style observer contract the HTTP
// pipeline (requests, results, rate-limit hits) and the WebSocket runtime
// (reconnects, dropped events) emit signals to. The breaker methods are
// part of the contract, but no component in this module calls them.
// Grounded on the Prometheus registry shape in the
// cryptorun example repo and the teacher's NATS client, generalized
// behind one observer interface that defaults to a no-op when no
// concrete observer is installed.
package metrics

import (
	"time"

	"github.com/mexoms/perpunify/pkg/xerrors"
)

// BreakerState mirrors breaker.Event as integers for the
// circuit_breaker_state gauge: Closed=0, HalfOpen=1, Open=2.
type BreakerState int

const (
	BreakerClosed   BreakerState = 0
	BreakerHalfOpen BreakerState = 1
	BreakerOpen     BreakerState = 2
)

// Observer is the full emission contract of spec.md §4.10. Every method
// is fire-and-forget; a driver never blocks on or checks the result of
// a metrics call.
type Observer interface {
	RecordRequest(venueID, endpoint string)
	RecordSuccess(venueID, endpoint string, latency time.Duration)
	RecordFailure(venueID, endpoint string, latency time.Duration, kind xerrors.Kind)
	RecordRateLimitHit(venueID, endpoint string)

	RecordBreakerState(venueID string, state BreakerState)
	RecordBreakerTransition(venueID, from, to string)
	RecordBreakerSuccess(venueID string)
	RecordBreakerFailure(venueID string)

	RecordWSReconnect(venueID string)
	RecordWSDroppedEvent(venueID, channel string)
}

// NoopObserver discards every signal. Used whenever a driver is
// constructed without an explicit Observer.
type NoopObserver struct{}

func (NoopObserver) RecordRequest(string, string)                             {}
func (NoopObserver) RecordSuccess(string, string, time.Duration)               {}
func (NoopObserver) RecordFailure(string, string, time.Duration, xerrors.Kind) {}
func (NoopObserver) RecordRateLimitHit(string, string)                        {}
func (NoopObserver) RecordBreakerState(string, BreakerState)                  {}
func (NoopObserver) RecordBreakerTransition(string, string, string)           {}
func (NoopObserver) RecordBreakerSuccess(string)                              {}
func (NoopObserver) RecordBreakerFailure(string)                              {}
func (NoopObserver) RecordWSReconnect(string)                                 {}
func (NoopObserver) RecordWSDroppedEvent(string, string)                      {}

var _ Observer = NoopObserver{}
