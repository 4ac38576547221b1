package exchange

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunHealthCheckAllReachableIsHealthy(t *testing.T) {
	ok := func(context.Context) ProbeResult { return ProbeResult{Reachable: true, Latency: time.Millisecond} }
	h := RunHealthCheck(context.Background(), ok, ok, ok, ok)
	assert.Equal(t, HealthHealthy, h.Status)
	assert.NotNil(t, h.WebSocket)
	assert.NotNil(t, h.Auth)
	assert.NotNil(t, h.RateLimit)
}

func TestRunHealthCheckAPIUnreachableIsUnhealthy(t *testing.T) {
	down := func(context.Context) ProbeResult { return ProbeResult{Reachable: false, Error: "timeout"} }
	h := RunHealthCheck(context.Background(), down, nil, nil, nil)
	assert.Equal(t, HealthUnhealthy, h.Status)
	assert.Nil(t, h.WebSocket)
}

func TestRunHealthCheckOptionalProbeFailureDegrades(t *testing.T) {
	ok := func(context.Context) ProbeResult { return ProbeResult{Reachable: true} }
	down := func(context.Context) ProbeResult { return ProbeResult{Reachable: false, Error: "ws closed"} }
	h := RunHealthCheck(context.Background(), ok, down, nil, nil)
	assert.Equal(t, HealthDegraded, h.Status)
}

func TestRunHealthCheckNilOptionalProbesAreSkipped(t *testing.T) {
	ok := func(context.Context) ProbeResult { return ProbeResult{Reachable: true} }
	h := RunHealthCheck(context.Background(), ok, nil, nil, nil)
	assert.Equal(t, HealthHealthy, h.Status)
	assert.Nil(t, h.WebSocket)
	assert.Nil(t, h.Auth)
	assert.Nil(t, h.RateLimit)
}
