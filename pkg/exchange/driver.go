package exchange

import (
	"context"

	"github.com/mexoms/perpunify/pkg/stream"
	"github.com/mexoms/perpunify/pkg/types"
)

// Driver is the uniform contract every venue adapter implements, per
// spec.md §4.8. Market-data, trading, account, and symbol-conversion
// methods are synchronous request/response; streaming methods return a
// subscription handle from pkg/stream.
type Driver interface {
	ID() string
	DisplayName() string
	Capabilities() Capabilities

	Initialize(ctx context.Context) error
	Disconnect(ctx context.Context) error

	FetchMarkets(ctx context.Context) ([]types.Market, error)
	FetchTicker(ctx context.Context, symbol types.Symbol) (types.Ticker, error)
	FetchTickers(ctx context.Context, symbols []types.Symbol) (map[string]types.Ticker, error)
	FetchOrderBook(ctx context.Context, symbol types.Symbol, depth int) (types.OrderBook, error)
	FetchTrades(ctx context.Context, symbol types.Symbol, limit int) ([]types.Trade, error)
	FetchOHLCV(ctx context.Context, symbol types.Symbol, interval string, limit int) ([]types.OHLCV, error)
	FetchFundingRate(ctx context.Context, symbol types.Symbol) (types.FundingRate, error)
	FetchFundingRateHistory(ctx context.Context, symbol types.Symbol, limit int) ([]types.FundingRate, error)

	CreateOrder(ctx context.Context, req types.OrderRequest) (types.Order, error)
	CancelOrder(ctx context.Context, symbol types.Symbol, orderID string) (types.Order, error)
	CancelAllOrders(ctx context.Context, symbol types.Symbol) ([]types.Order, error)
	CreateBatchOrders(ctx context.Context, reqs []types.OrderRequest) (BatchResult, error)
	CancelBatchOrders(ctx context.Context, symbol types.Symbol, orderIDs []string) (BatchResult, error)
	EditOrder(ctx context.Context, symbol types.Symbol, orderID string, req types.OrderRequest) (types.Order, error)

	FetchPositions(ctx context.Context) ([]types.Position, error)
	FetchBalance(ctx context.Context) (types.Balance, error)
	FetchOpenOrders(ctx context.Context, symbol types.Symbol) ([]types.Order, error)
	FetchOrder(ctx context.Context, symbol types.Symbol, orderID string) (types.Order, error)
	FetchOrderHistory(ctx context.Context, symbol types.Symbol, limit int) ([]types.Order, error)
	FetchMyTrades(ctx context.Context, symbol types.Symbol, limit int) ([]types.Trade, error)
	SetLeverage(ctx context.Context, symbol types.Symbol, leverage int) error
	SetMarginMode(ctx context.Context, symbol types.Symbol, mode types.MarginMode) error

	SymbolToVenue(sym types.Symbol) string
	SymbolFromVenue(venueSymbol string) types.Symbol

	// Streaming methods, per spec.md §4.8/§4.9: each returns a lazy,
	// finite-or-infinite, non-restartable subscription backed by
	// pkg/stream's registry. A driver that cannot offer a given stream
	// returns NotSupported rather than nil, mirroring the unary
	// unsupported-capability convention.
	WatchOrderBook(ctx context.Context, symbol types.Symbol) (*stream.Subscription, error)
	WatchTrades(ctx context.Context, symbol types.Symbol) (*stream.Subscription, error)
	WatchTicker(ctx context.Context, symbol types.Symbol) (*stream.Subscription, error)
	WatchOHLCV(ctx context.Context, symbol types.Symbol, interval string) (*stream.Subscription, error)
	WatchFundingRate(ctx context.Context, symbol types.Symbol) (*stream.Subscription, error)
	WatchPositions(ctx context.Context) (*stream.Subscription, error)
	WatchOrders(ctx context.Context) (*stream.Subscription, error)
	WatchBalance(ctx context.Context) (*stream.Subscription, error)
	WatchMyTrades(ctx context.Context) (*stream.Subscription, error)

	HealthCheck(ctx context.Context) Health

	GetMetrics() DriverMetrics
	GetCircuitBreakerMetrics() CircuitBreakerMetrics
	ResetMetrics()
}

// BatchResult is the shared shape of emulated/native batch operations:
// the subset that succeeded plus the errors of the subset that failed.
type BatchResult struct {
	Orders []types.Order
	Errors []error
}
