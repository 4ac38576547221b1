package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mexoms/perpunify/pkg/xerrors"
)

// PrometheusObserver registers and updates the counters/histograms/
// gauges named in spec.md §4.10. It deliberately does not expose an
// HTTP handler: only the emission contract is in scope, not a metrics
// endpoint.
type PrometheusObserver struct {
	requestsTotal       *prometheus.CounterVec
	requestLatencyMs    *prometheus.HistogramVec
	requestErrorsTotal  *prometheus.CounterVec
	rateLimitHitsTotal  *prometheus.CounterVec
	breakerState        *prometheus.GaugeVec
	breakerTransitions  *prometheus.CounterVec
	breakerSuccessTotal *prometheus.CounterVec
	breakerFailureTotal *prometheus.CounterVec
	wsReconnectsTotal   *prometheus.CounterVec
	wsDroppedEvents     *prometheus.CounterVec
}

// NewPrometheusObserver constructs an observer and registers its
// collectors against reg. Pass prometheus.NewRegistry() for an isolated
// registry, or nil to use the default global registry.
func NewPrometheusObserver(reg prometheus.Registerer) *PrometheusObserver {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "perpunify_requests_total", Help: "Total HTTP requests issued, by endpoint and status.",
		}, []string{"venue", "endpoint", "status"}),
		requestLatencyMs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "perpunify_request_latency_ms", Help: "Request latency in milliseconds, by endpoint.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 14),
		}, []string{"venue", "endpoint"}),
		requestErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "perpunify_request_errors_total", Help: "Total request failures, by endpoint and error kind.",
		}, []string{"venue", "endpoint", "kind"}),
		rateLimitHitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "perpunify_rate_limit_hits_total", Help: "Total rate-limit rejections.",
		}, []string{"venue", "endpoint"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "perpunify_circuit_breaker_state", Help: "Circuit breaker state: Closed=0, HalfOpen=1, Open=2.",
		}, []string{"venue"}),
		breakerTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "perpunify_circuit_breaker_transitions_total", Help: "Circuit breaker state transitions.",
		}, []string{"venue", "from", "to"}),
		breakerSuccessTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "perpunify_circuit_breaker_success_total", Help: "Successful calls observed by the circuit breaker.",
		}, []string{"venue"}),
		breakerFailureTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "perpunify_circuit_breaker_failure_total", Help: "Failed calls observed by the circuit breaker.",
		}, []string{"venue"}),
		wsReconnectsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "perpunify_ws_reconnects_total", Help: "Total WebSocket reconnect attempts.",
		}, []string{"venue"}),
		wsDroppedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "perpunify_ws_dropped_events_total", Help: "Total WebSocket events dropped by backpressure, by channel.",
		}, []string{"venue", "channel"}),
	}
	reg.MustRegister(
		o.requestsTotal, o.requestLatencyMs, o.requestErrorsTotal, o.rateLimitHitsTotal,
		o.breakerState, o.breakerTransitions, o.breakerSuccessTotal, o.breakerFailureTotal,
		o.wsReconnectsTotal, o.wsDroppedEvents,
	)
	return o
}

func (o *PrometheusObserver) RecordRequest(venueID, endpoint string) {
	o.requestsTotal.WithLabelValues(venueID, endpoint, "attempted").Inc()
}

func (o *PrometheusObserver) RecordSuccess(venueID, endpoint string, latency time.Duration) {
	o.requestsTotal.WithLabelValues(venueID, endpoint, "success").Inc()
	o.requestLatencyMs.WithLabelValues(venueID, endpoint).Observe(float64(latency.Milliseconds()))
}

func (o *PrometheusObserver) RecordFailure(venueID, endpoint string, latency time.Duration, kind xerrors.Kind) {
	o.requestsTotal.WithLabelValues(venueID, endpoint, "failure").Inc()
	o.requestLatencyMs.WithLabelValues(venueID, endpoint).Observe(float64(latency.Milliseconds()))
	o.requestErrorsTotal.WithLabelValues(venueID, endpoint, string(kind)).Inc()
}

func (o *PrometheusObserver) RecordRateLimitHit(venueID, endpoint string) {
	o.rateLimitHitsTotal.WithLabelValues(venueID, endpoint).Inc()
}

func (o *PrometheusObserver) RecordBreakerState(venueID string, state BreakerState) {
	o.breakerState.WithLabelValues(venueID).Set(float64(state))
}

func (o *PrometheusObserver) RecordBreakerTransition(venueID, from, to string) {
	o.breakerTransitions.WithLabelValues(venueID, from, to).Inc()
}

func (o *PrometheusObserver) RecordBreakerSuccess(venueID string) {
	o.breakerSuccessTotal.WithLabelValues(venueID).Inc()
}

func (o *PrometheusObserver) RecordBreakerFailure(venueID string) {
	o.breakerFailureTotal.WithLabelValues(venueID).Inc()
}

func (o *PrometheusObserver) RecordWSReconnect(venueID string) {
	o.wsReconnectsTotal.WithLabelValues(venueID).Inc()
}

func (o *PrometheusObserver) RecordWSDroppedEvent(venueID, channel string) {
	o.wsDroppedEvents.WithLabelValues(venueID, channel).Inc()
}

var _ Observer = (*PrometheusObserver)(nil)
