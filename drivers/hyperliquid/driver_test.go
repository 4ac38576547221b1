package hyperliquid

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

// a throwaway funded test key, never used on a live chain.
const testPrivateKey = "0x0123456789012345678901234567890123456789012345678901234567890abc"

func newTestDriver(t *testing.T, handler http.HandlerFunc) *Driver {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	d, err := New(Config{
		PrivateKeyHex: testPrivateKey,
		cfg: exchange.Config{
			BaseURL:   srv.URL,
			RateLimit: ratelimit.Config{MaxTokens: 100, Window: time.Second, RefillRate: 100},
		},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Disconnect(context.Background()) })
	return d
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func metaFixture() metaResponse {
	return metaResponse{Universe: []assetMeta{
		{Name: "BTC", SzDecimals: 3, MaxLeverage: 50},
		{Name: "ETH", SzDecimals: 2, MaxLeverage: 25},
	}}
}

func TestFetchMarketsBuildsAssetIndex(t *testing.T) {
	d := newTestDriver(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/info", r.URL.Path)
		writeJSON(w, metaFixture())
	})

	markets, err := d.FetchMarkets(context.Background())
	require.NoError(t, err)
	require.Len(t, markets, 2)

	idx, ok := d.assetIndex("ETH")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestFetchMarketsIsCached(t *testing.T) {
	calls := 0
	d := newTestDriver(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		writeJSON(w, metaFixture())
	})

	_, err := d.FetchMarkets(context.Background())
	require.NoError(t, err)
	_, err = d.FetchMarkets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestFetchOrderBookMapsLevels(t *testing.T) {
	d := newTestDriver(t, func(w http.ResponseWriter, r *http.Request) {
		var req infoRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "l2Book", req.Type)
		writeJSON(w, l2BookResponse{
			Coin: "BTC",
			Levels: [][]bookLevel{
				{{Px: "50000", Sz: "1.5"}},
				{{Px: "50010", Sz: "2.0"}},
			},
			Time: 1700000000000,
		})
	})

	ob, err := d.FetchOrderBook(context.Background(), types.Symbol{Base: "BTC", Quote: "USD"}, 0)
	require.NoError(t, err)
	require.Len(t, ob.Bids, 1)
	require.Len(t, ob.Asks, 1)
	assert.True(t, ob.Bids[0].Price.Equal(parseDecimal("50000")))
}

func TestCreateOrderSignsWithEIP712(t *testing.T) {
	d := newTestDriver(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/info":
			writeJSON(w, metaFixture())
		case "/exchange":
			var req exchangeRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.NotEmpty(t, req.Signature.R)
			require.NotEmpty(t, req.Signature.S)
			writeJSON(w, exchangeResponse{
				Status: "ok",
				Response: exchangeRespBody{
					Type: "order",
					Data: struct {
						Statuses []orderStatusWire `json:"statuses"`
					}{Statuses: []orderStatusWire{{Resting: &struct {
						OID int64 `json:"oid"`
					}{OID: 42}}}},
				},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	_, err := d.FetchMarkets(context.Background())
	require.NoError(t, err)

	price := parseDecimal("50000")
	order, err := d.CreateOrder(context.Background(), types.OrderRequest{
		Symbol: types.Symbol{Base: "BTC", Quote: "USD"},
		Side:   types.SideBuy,
		Type:   types.OrderTypeLimit,
		Amount: parseDecimal("0.01"),
		Price:  &price,
	})
	require.NoError(t, err)
	assert.Equal(t, "42", order.ID)
	assert.Equal(t, types.OrderStatusOpen, order.Status)
}

func TestFetchTradesReturnsNotSupported(t *testing.T) {
	d := newTestDriver(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not make a request")
	})
	_, err := d.FetchTrades(context.Background(), types.Symbol{Base: "BTC", Quote: "USD"}, 10)
	assert.Error(t, err)
}

func TestFetchOrderReturnsNotSupported(t *testing.T) {
	d := newTestDriver(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not make a request")
	})
	_, err := d.FetchOrder(context.Background(), types.Symbol{Base: "BTC", Quote: "USD"}, "1")
	assert.Error(t, err)
}

func TestCapabilitiesReflectEmulatedCancelAll(t *testing.T) {
	d := newTestDriver(t, func(w http.ResponseWriter, r *http.Request) {})
	assert.Equal(t, exchange.Emulated, d.Capabilities()[exchange.CapCancelAllOrders])
	assert.True(t, d.Capabilities().Supports(exchange.CapCreateBatchOrders))
	assert.False(t, d.Capabilities().Supports(exchange.CapFetchOrder))
}

func TestWatchMethodsReturnNotSupported(t *testing.T) {
	d := newTestDriver(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not make a request")
	})
	sym := types.Symbol{Base: "BTC", Quote: "USD"}

	assert.False(t, d.Capabilities().Supports(exchange.CapWatchOrderBook))

	_, err := d.WatchOrderBook(context.Background(), sym)
	assert.Error(t, err)
	_, err = d.WatchTrades(context.Background(), sym)
	assert.Error(t, err)
	_, err = d.WatchTicker(context.Background(), sym)
	assert.Error(t, err)
	_, err = d.WatchOHLCV(context.Background(), sym, "1m")
	assert.Error(t, err)
	_, err = d.WatchFundingRate(context.Background(), sym)
	assert.Error(t, err)
	_, err = d.WatchPositions(context.Background())
	assert.Error(t, err)
	_, err = d.WatchOrders(context.Background())
	assert.Error(t, err)
	_, err = d.WatchBalance(context.Background())
	assert.Error(t, err)
	_, err = d.WatchMyTrades(context.Background())
	assert.Error(t, err)
}

func TestSymbolConversionRoundTrips(t *testing.T) {
	d := newTestDriver(t, func(w http.ResponseWriter, r *http.Request) {})
	sym := types.Symbol{Base: "BTC", Quote: "USD", Settle: "USD"}
	venue := d.SymbolToVenue(sym)
	assert.Equal(t, sym.String(), d.SymbolFromVenue(venue).String())
}
