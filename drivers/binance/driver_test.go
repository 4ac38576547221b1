package binance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mexoms/perpunify/pkg/exchange"
	"github.com/mexoms/perpunify/pkg/ratelimit"
	"github.com/mexoms/perpunify/pkg/types"
)

func newTestDriver(t *testing.T, handler http.HandlerFunc) *Driver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	d := New(Config{
		APIKey:    "test-key",
		SecretKey: "test-secret",
		cfg: exchange.Config{
			RateLimit: ratelimit.Config{MaxTokens: 100, Window: time.Second, RefillRate: 100},
		},
	})
	d.sdk.BaseURL = srv.URL
	t.Cleanup(func() { _ = d.Disconnect(context.Background()) })
	return d
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestFetchFundingRateHistoryMapsWireShape(t *testing.T) {
	d := newTestDriver(t, func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "fundingRate")
		writeJSON(w, []map[string]any{
			{"symbol": "BTCUSDT", "fundingRate": "0.0001", "fundingTime": 1700000000000, "markPrice": "50000"},
		})
	})

	rates, err := d.FetchFundingRateHistory(context.Background(), types.Symbol{Base: "BTC", Quote: "USDT"}, 1)
	require.NoError(t, err)
	require.Len(t, rates, 1)
	assert.True(t, rates[0].FundingRate.Equal(parseDecimal("0.0001")))
}

func TestSymbolConversionRoundTrips(t *testing.T) {
	d := newTestDriver(t, func(w http.ResponseWriter, r *http.Request) {})
	sym := types.Symbol{Base: "BTC", Quote: "USDT", Settle: "USDT"}
	venue := d.SymbolToVenue(sym)
	assert.Equal(t, "BTCUSDT", venue)
	assert.Equal(t, sym.String(), d.SymbolFromVenue(venue).String())
}

func TestFetchTradesReturnsNotSupported(t *testing.T) {
	d := newTestDriver(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not make a request")
	})
	_, err := d.FetchTrades(context.Background(), types.Symbol{Base: "BTC", Quote: "USDT"}, 10)
	assert.Error(t, err)
}

func TestEditOrderReturnsNotSupported(t *testing.T) {
	d := newTestDriver(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not make a request")
	})
	_, err := d.EditOrder(context.Background(), types.Symbol{Base: "BTC", Quote: "USDT"}, "1", types.OrderRequest{})
	assert.Error(t, err)
}

func TestCapabilitiesReflectEmulatedBatchSupport(t *testing.T) {
	d := newTestDriver(t, func(w http.ResponseWriter, r *http.Request) {})
	assert.Equal(t, exchange.Emulated, d.Capabilities()[exchange.CapCreateBatchOrders])
	assert.True(t, d.Capabilities().Supports(exchange.CapCreateOrder))
	assert.False(t, d.Capabilities().Supports(exchange.CapFetchTrades))
}

func TestCapabilitiesReflectWiredStreaming(t *testing.T) {
	d := newTestDriver(t, func(w http.ResponseWriter, r *http.Request) {})
	assert.True(t, d.Capabilities().Supports(exchange.CapWatchOrderBook))
	assert.True(t, d.Capabilities().Supports(exchange.CapWatchPositions))
	assert.True(t, d.Capabilities().Supports(exchange.CapWatchMyTrades))
}

func TestDecodeMarketStreamChannelExtractsStreamField(t *testing.T) {
	raw := []byte(`{"stream":"btcusdt@aggTrade","data":{"e":"aggTrade"}}`)
	channel, ok := decodeMarketStreamChannel(raw)
	require.True(t, ok)
	assert.Equal(t, "btcusdt@aggTrade", channel)
}

func TestDecodeMarketStreamChannelRejectsUnrelatedFrame(t *testing.T) {
	_, ok := decodeMarketStreamChannel([]byte(`{"result":null,"id":1}`))
	assert.False(t, ok)
}

func TestDecodeUserStreamChannelExtractsEventField(t *testing.T) {
	raw := []byte(`{"e":"ACCOUNT_UPDATE","T":1700000000000}`)
	channel, ok := decodeUserStreamChannel(raw)
	require.True(t, ok)
	assert.Equal(t, "ACCOUNT_UPDATE", channel)
}

func TestMarketSubscribeBuilderProducesSubscribeFrame(t *testing.T) {
	d := newTestDriver(t, func(w http.ResponseWriter, r *http.Request) {})
	msg, err := d.marketSubscribeBuilder("btcusdt@depth20@100ms")()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"method":"SUBSCRIBE"`)
	assert.Contains(t, string(msg), "btcusdt@depth20@100ms")
}
