package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mexoms/perpunify/pkg/xerrors"
)

func TestNoopObserverDoesNotPanic(t *testing.T) {
	var o Observer = NoopObserver{}
	assert.NotPanics(t, func() {
		o.RecordRequest("binance", "/order")
		o.RecordSuccess("binance", "/order", time.Millisecond)
		o.RecordFailure("binance", "/order", time.Millisecond, xerrors.Timeout)
		o.RecordRateLimitHit("binance", "/order")
		o.RecordBreakerState("binance", BreakerOpen)
		o.RecordBreakerTransition("binance", "closed", "open")
		o.RecordBreakerSuccess("binance")
		o.RecordBreakerFailure("binance")
		o.RecordWSReconnect("binance")
		o.RecordWSDroppedEvent("binance", "trades")
	})
}

func TestPrometheusObserverRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := NewPrometheusObserver(reg)
	require.NotNil(t, o)

	o.RecordRequest("binance", "/order")
	o.RecordSuccess("binance", "/order", 42*time.Millisecond)
	o.RecordFailure("binance", "/order", 10*time.Millisecond, xerrors.Timeout)
	o.RecordRateLimitHit("binance", "/order")
	o.RecordBreakerState("binance", BreakerHalfOpen)
	o.RecordBreakerTransition("binance", "closed", "open")
	o.RecordBreakerSuccess("binance")
	o.RecordBreakerFailure("binance")
	o.RecordWSReconnect("binance")
	o.RecordWSDroppedEvent("binance", "trades")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"perpunify_requests_total",
		"perpunify_request_latency_ms",
		"perpunify_request_errors_total",
		"perpunify_rate_limit_hits_total",
		"perpunify_circuit_breaker_state",
		"perpunify_circuit_breaker_transitions_total",
		"perpunify_circuit_breaker_success_total",
		"perpunify_circuit_breaker_failure_total",
		"perpunify_ws_reconnects_total",
		"perpunify_ws_dropped_events_total",
	} {
		assert.True(t, names[want], "expected metric family %s to be registered", want)
	}
}

func TestPrometheusObserverBreakerStateValue(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := NewPrometheusObserver(reg)
	o.RecordBreakerState("bybit", BreakerOpen)

	families, err := reg.Gather()
	require.NoError(t, err)

	var found *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "perpunify_circuit_breaker_state" {
			found = f
		}
	}
	require.NotNil(t, found)
	require.Len(t, found.Metric, 1)
	assert.Equal(t, float64(BreakerOpen), found.Metric[0].GetGauge().GetValue())
}

func TestNewPrometheusObserverDefaultsToGlobalRegistererWhenNil(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = NewPrometheusObserver(nil)
	})
}
