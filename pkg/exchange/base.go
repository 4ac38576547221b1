package exchange

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mexoms/perpunify/pkg/breaker"
	"github.com/mexoms/perpunify/pkg/httpclient"
	"github.com/mexoms/perpunify/pkg/metrics"
	"github.com/mexoms/perpunify/pkg/normalize"
	"github.com/mexoms/perpunify/pkg/ratelimit"
	"github.com/mexoms/perpunify/pkg/signing"
)

// BaseDriver composes the machinery every venue driver needs: logger,
// market cache, rate limiter, circuit breaker, HTTP pipeline, metrics,
// signer, and normalizer. Concrete drivers embed *BaseDriver and add
// venue-specific wire calls on top, mirroring the teacher's
// BaseExchange composition (internal/exchange/base.go) generalized from
// a single hardcoded RateLimiter field to the full shared pipeline.
type BaseDriver struct {
	venueID     string
	displayName string
	caps        Capabilities

	log        *logrus.Entry
	normalizer normalize.Normalizer
	limiter    *ratelimit.Bucket
	cb         *breaker.Breaker
	http       *httpclient.Client
	signer     signing.Signer
	obs        metrics.Observer

	markets *marketCache

	mu        sync.RWMutex
	connected bool

	metricsMu sync.Mutex
	reqCount  map[string]int64
	errCount  map[string]int64
}

// NewBaseDriver wires the shared pipeline from cfg. Concrete driver
// constructors call this first, then build their own wire-format
// request builders on top.
func NewBaseDriver(cfg Config, caps Capabilities) *BaseDriver {
	cfg = cfg.withDefaults()

	cb := breaker.New(cfg.Breaker)
	limiter := ratelimit.New(cfg.RateLimit)
	httpCli := httpclient.New(httpclient.Config{
		VenueID:  cfg.VenueID,
		BaseURL:  cfg.BaseURL,
		Timeout:  cfg.HTTPTimeout,
		Breaker:  cb,
		Observer: cfg.Observer,
		Logger:   cfg.Logger,
	})

	return &BaseDriver{
		venueID:     cfg.VenueID,
		displayName: cfg.DisplayName,
		caps:        caps,
		log:         cfg.Logger,
		normalizer:  cfg.Normalizer,
		limiter:     limiter,
		cb:          cb,
		http:        httpCli,
		signer:      cfg.Signer,
		obs:         cfg.Observer,
		markets:     newMarketCache(cfg.MarketCacheTTL),
		reqCount:    make(map[string]int64),
		errCount:    make(map[string]int64),
	}
}

func (b *BaseDriver) ID() string                 { return b.venueID }
func (b *BaseDriver) DisplayName() string        { return b.displayName }
func (b *BaseDriver) Capabilities() Capabilities { return b.caps }

// IsConnected reports whether Initialize has been called since the last
// Disconnect.
func (b *BaseDriver) IsConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

// MarkConnected flips the connected flag. Idempotent: calling it twice
// in a row has the same effect as once.
func (b *BaseDriver) MarkConnected(connected bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = connected
}

// Disconnect releases the driver's owned resources: the rate limiter's
// background processor and the circuit breaker's subscriber channels,
// and invalidates the market cache. Safe to call more than once.
func (b *BaseDriver) Disconnect() {
	b.mu.Lock()
	wasConnected := b.connected
	b.connected = false
	b.mu.Unlock()
	if !wasConnected {
		return
	}
	b.limiter.Destroy()
	b.cb.Destroy()
	b.markets.Invalidate()
}

func (b *BaseDriver) Logger() *logrus.Entry          { return b.log }
func (b *BaseDriver) Normalizer() normalize.Normalizer { return b.normalizer }
func (b *BaseDriver) Limiter() *ratelimit.Bucket      { return b.limiter }
func (b *BaseDriver) Breaker() *breaker.Breaker       { return b.cb }
func (b *BaseDriver) HTTP() *httpclient.Client        { return b.http }
func (b *BaseDriver) Signer() signing.Signer          { return b.signer }
func (b *BaseDriver) Observer() metrics.Observer      { return b.obs }
func (b *BaseDriver) MarketCache() *marketCache       { return b.markets }

// recordRequest/recordError feed the in-memory counters GetMetrics
// reports; the push-style Observer is the primary metrics surface, this
// is the driver's own pull-style accessor per spec.md §4.8's
// getMetrics()/resetMetrics().
func (b *BaseDriver) recordRequest(endpoint string) {
	b.metricsMu.Lock()
	defer b.metricsMu.Unlock()
	b.reqCount[endpoint]++
}

func (b *BaseDriver) recordError(endpoint string) {
	b.metricsMu.Lock()
	defer b.metricsMu.Unlock()
	b.errCount[endpoint]++
}

// RecordRequest and RecordError are the public entry points a concrete
// driver (living in its own package) calls around each wire call to feed
// GetMetrics' pull-style snapshot.
func (b *BaseDriver) RecordRequest(endpoint string) { b.recordRequest(endpoint) }
func (b *BaseDriver) RecordError(endpoint string)   { b.recordError(endpoint) }

// DriverMetrics is the pull-style snapshot spec.md §4.8's getMetrics()
// returns.
type DriverMetrics struct {
	RequestsByEndpoint map[string]int64
	ErrorsByEndpoint   map[string]int64
	SnapshotAt         time.Time
}

func (b *BaseDriver) GetMetrics() DriverMetrics {
	b.metricsMu.Lock()
	defer b.metricsMu.Unlock()
	reqs := make(map[string]int64, len(b.reqCount))
	for k, v := range b.reqCount {
		reqs[k] = v
	}
	errs := make(map[string]int64, len(b.errCount))
	for k, v := range b.errCount {
		errs[k] = v
	}
	return DriverMetrics{RequestsByEndpoint: reqs, ErrorsByEndpoint: errs, SnapshotAt: time.Now()}
}

func (b *BaseDriver) ResetMetrics() {
	b.metricsMu.Lock()
	defer b.metricsMu.Unlock()
	b.reqCount = make(map[string]int64)
	b.errCount = make(map[string]int64)
}

// CircuitBreakerMetrics is the pull-style snapshot spec.md §4.8's
// getCircuitBreakerMetrics() returns.
type CircuitBreakerMetrics struct {
	State string
}

func (b *BaseDriver) GetCircuitBreakerMetrics() CircuitBreakerMetrics {
	return CircuitBreakerMetrics{State: b.cb.State()}
}
