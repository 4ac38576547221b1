package exchange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mexoms/perpunify/pkg/ratelimit"
	"github.com/mexoms/perpunify/pkg/types"
)

func testConfig(venueID string) Config {
	return Config{
		VenueID:     venueID,
		DisplayName: venueID,
		BaseURL:     "https://example.invalid",
		RateLimit:   ratelimit.Config{MaxTokens: 10, Window: time.Second, RefillRate: 10},
	}
}

func TestNewBaseDriverInitialState(t *testing.T) {
	d := NewBaseDriver(testConfig("testvenue"), Capabilities{CapFetchMarkets: true})
	assert.Equal(t, "testvenue", d.ID())
	assert.False(t, d.IsConnected())
	assert.True(t, d.Capabilities().Supports(CapFetchMarkets))
	d.Disconnect()
}

func TestDisconnectIsIdempotent(t *testing.T) {
	d := NewBaseDriver(testConfig("testvenue"), Capabilities{})
	d.MarkConnected(true)
	require.True(t, d.IsConnected())

	assert.NotPanics(t, func() {
		d.Disconnect()
		d.Disconnect()
		d.Disconnect()
	})
	assert.False(t, d.IsConnected())
}

func TestDisconnectInvalidatesMarketCache(t *testing.T) {
	d := NewBaseDriver(testConfig("testvenue"), Capabilities{})
	d.MarkConnected(true)
	d.MarketCache().Set([]types.Market{{Symbol: types.Symbol{Base: "BTC", Quote: "USDT"}}}, func(m types.Market) string {
		return m.Symbol.String()
	})
	_, fresh := d.MarketCache().Get()
	require.True(t, fresh)

	d.Disconnect()
	_, freshAfter := d.MarketCache().Get()
	assert.False(t, freshAfter)
}

func TestMetricsRoundTrip(t *testing.T) {
	d := NewBaseDriver(testConfig("testvenue"), Capabilities{})
	defer d.Disconnect()

	d.recordRequest("/ticker")
	d.recordRequest("/ticker")
	d.recordError("/ticker")

	m := d.GetMetrics()
	assert.Equal(t, int64(2), m.RequestsByEndpoint["/ticker"])
	assert.Equal(t, int64(1), m.ErrorsByEndpoint["/ticker"])
	assert.WithinDuration(t, time.Now(), m.SnapshotAt, time.Second)

	d.ResetMetrics()
	m2 := d.GetMetrics()
	assert.Empty(t, m2.RequestsByEndpoint)
}

func TestCircuitBreakerMetricsReflectsBreakerState(t *testing.T) {
	d := NewBaseDriver(testConfig("testvenue"), Capabilities{})
	defer d.Disconnect()
	assert.Equal(t, "closed", d.GetCircuitBreakerMetrics().State)
}
