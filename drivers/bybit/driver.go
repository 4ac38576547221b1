// Package bybit implements exchange.Driver for Bybit's v5 unified
// perpetual API, proving the framework's HMAC-SHA256 header-style signer
// family end-to-end. Grounded on the teacher's services/bybit/client.go
// and services/bybit/futures.go, generalized from that package's raw
// net/http client onto the shared pkg/httpclient pipeline so Bybit gets
// the same retry/breaker/metrics treatment as every other driver.
package bybit

import (
	"context"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mexoms/perpunify/pkg/exchange"
	"github.com/mexoms/perpunify/pkg/httpclient"
	"github.com/mexoms/perpunify/pkg/normalize"
	"github.com/mexoms/perpunify/pkg/signing"
	"github.com/mexoms/perpunify/pkg/stream"
	"github.com/mexoms/perpunify/pkg/types"
	"github.com/mexoms/perpunify/pkg/xerrors"
)

const categoryLinear = "linear"

var capabilities = exchange.Capabilities{
	exchange.CapFetchMarkets:     true,
	exchange.CapFetchTicker:      true,
	exchange.CapFetchTickers:     exchange.Emulated,
	exchange.CapFetchOrderBook:   true,
	exchange.CapFetchTrades:      false,
	exchange.CapFetchOHLCV:       true,
	exchange.CapFetchFundingRate: true,
	exchange.CapFetchFundingRateHistory: true,

	exchange.CapCreateOrder:       true,
	exchange.CapCancelOrder:       true,
	exchange.CapCancelAllOrders:   exchange.Emulated,
	exchange.CapCreateBatchOrders: exchange.Emulated,
	exchange.CapCancelBatchOrders: exchange.Emulated,
	exchange.CapEditOrder:         false,

	exchange.CapFetchPositions:    true,
	exchange.CapFetchBalance:      true,
	exchange.CapFetchOpenOrders:   true,
	exchange.CapFetchOrder:        true,
	exchange.CapFetchOrderHistory: true,
	exchange.CapFetchMyTrades:     true,
	exchange.CapSetLeverage:       true,
	exchange.CapSetMarginMode:     true,

	// Streaming is not wired for this driver yet: pkg/stream.Runtime is
	// only exercised end-to-end by drivers/binance so far. Advertising
	// these as unsupported keeps Capabilities().Supports honest rather
	// than promising a method that only returns NotSupported.
	exchange.CapWatchOrderBook: false,
	exchange.CapWatchTrades:    false,
	exchange.CapWatchTicker:    false,
	exchange.CapWatchPositions: false,
	exchange.CapWatchOrders:    false,
	exchange.CapWatchBalance:   false,
}

// Driver is the Bybit v5 linear-perpetual venue adapter.
type Driver struct {
	*exchange.BaseDriver
}

// Config is the construction input. BaseURL defaults per TestNet when
// left empty; cfg carries the rest of the shared pipeline knobs
// (rate limit, breaker, observer, logger) and is only overridden where
// Bybit needs something specific (signer, normalizer, venue id).
type Config struct {
	APIKey    string
	SecretKey string
	TestNet   bool
	cfg       exchange.Config
}

// New constructs a Driver wired to Bybit's v5 REST API.
func New(c Config) *Driver {
	cfg := c.cfg
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.bybit.com/v5"
		if c.TestNet {
			cfg.BaseURL = "https://api-testnet.bybit.com/v5"
		}
	}
	cfg.VenueID = "bybit"
	cfg.DisplayName = "Bybit"
	cfg.TestNet = c.TestNet
	cfg.Signer = signing.NewHMACQuerySigner("bybit", c.APIKey, c.SecretKey, 5000, "X-BAPI-SIGN")
	cfg.Normalizer = normalize.For("bybit")

	return &Driver{BaseDriver: exchange.NewBaseDriver(cfg, capabilities)}
}

func (d *Driver) Initialize(ctx context.Context) error {
	if _, err := d.FetchMarkets(ctx); err != nil {
		return err
	}
	d.MarkConnected(true)
	return nil
}

func (d *Driver) Disconnect(ctx context.Context) error {
	d.BaseDriver.Disconnect()
	return nil
}

func (d *Driver) SymbolToVenue(sym types.Symbol) string   { return d.Normalizer().FromCanonical(sym) }
func (d *Driver) SymbolFromVenue(venueSymbol string) types.Symbol {
	sym, err := d.Normalizer().ToCanonical(venueSymbol)
	if err != nil {
		return types.Symbol{}
	}
	return sym
}

// do signs (when authenticated) and executes req through the shared
// HTTP pipeline, acquiring a rate-limit token first so a rejected
// request never bypasses the limiter.
func (d *Driver) do(ctx context.Context, method, path, endpoint string, params map[string]string, authenticated bool, result any) error {
	if err := d.Limiter().Acquire(ctx, endpoint, 1); err != nil {
		return xerrors.Wrap(xerrors.RateLimit, d.ID(), "rate limit acquire failed", err)
	}
	d.RecordRequest(endpoint)

	req := httpclient.Request{Method: method, Path: path, Endpoint: endpoint, QueryParams: map[string]string{}, Result: result}

	if authenticated {
		signed, err := d.Signer().Sign(signing.Request{
			Method:    method,
			Path:      path,
			Params:    params,
			Timestamp: time.Now().Unix(),
		})
		if err != nil {
			d.RecordError(endpoint)
			return err
		}
		req.Headers = signed.Headers
		if method == "GET" || method == "DELETE" {
			req.QueryParams = signed.Params
		} else {
			req.Body = signed.Params
		}
	} else {
		if method == "GET" || method == "DELETE" {
			req.QueryParams = params
		} else {
			req.Body = params
		}
	}

	if err := d.HTTP().Do(ctx, req); err != nil {
		d.RecordError(endpoint)
		return err
	}
	return nil
}

func (d *Driver) FetchMarkets(ctx context.Context) ([]types.Market, error) {
	if cached, ok := d.MarketCache().Get(); ok {
		return cached, nil
	}

	var resp envelope[instrumentsResult]
	if err := d.do(ctx, "GET", "/market/instruments-info", "fetchMarkets", map[string]string{"category": categoryLinear}, false, &resp); err != nil {
		return nil, err
	}

	markets := make([]types.Market, 0, len(resp.Result.List))
	for _, inst := range resp.Result.List {
		if inst.Status != "Trading" {
			continue
		}
		sym := d.SymbolFromVenue(inst.Symbol)
		markets = append(markets, types.Market{
			ID:              inst.Symbol,
			Symbol:          sym,
			Base:            inst.BaseCoin,
			Quote:           inst.QuoteCoin,
			Settle:          inst.SettleCoin,
			Active:          true,
			MinAmount:       parseDecimal(inst.LotSizeFilter.MinQty),
			PriceTickSize:   parseDecimal(inst.PriceFilter.TickSize),
			AmountStepSize:  parseDecimal(inst.LotSizeFilter.QtyStep),
			PricePrecision:  decimalPlaces(inst.PriceFilter.TickSize),
			AmountPrecision: decimalPlaces(inst.LotSizeFilter.QtyStep),
			MaxLeverage:     parseDecimal(inst.LeverageFilter.MaxLeverage),
		})
	}

	d.MarketCache().Set(markets, func(m types.Market) string { return m.ID })
	return markets, nil
}

func (d *Driver) FetchTicker(ctx context.Context, symbol types.Symbol) (types.Ticker, error) {
	var resp envelope[tickersResult]
	venueSym := d.SymbolToVenue(symbol)
	if err := d.do(ctx, "GET", "/market/tickers", "fetchTicker", map[string]string{"category": categoryLinear, "symbol": venueSym}, false, &resp); err != nil {
		return types.Ticker{}, err
	}
	if len(resp.Result.List) == 0 {
		return types.Ticker{}, xerrors.New(xerrors.InvalidSymbol, d.ID(), "no ticker for "+venueSym)
	}
	return toTicker(symbol, resp.Result.List[0]), nil
}

func (d *Driver) FetchTickers(ctx context.Context, symbols []types.Symbol) (map[string]types.Ticker, error) {
	return exchange.EmulatedFetchTickers(ctx, symbols, d.FetchTicker), nil
}

func (d *Driver) FetchOrderBook(ctx context.Context, symbol types.Symbol, depth int) (types.OrderBook, error) {
	if depth <= 0 {
		depth = 50
	}
	var resp envelope[orderBookWire]
	venueSym := d.SymbolToVenue(symbol)
	params := map[string]string{"category": categoryLinear, "symbol": venueSym, "limit": strconv.Itoa(depth)}
	if err := d.do(ctx, "GET", "/market/orderbook", "fetchOrderBook", params, false, &resp); err != nil {
		return types.OrderBook{}, err
	}

	book := types.OrderBook{Symbol: symbol, Venue: d.ID(), Timestamp: resp.Result.Ts}
	for _, lvl := range resp.Result.Bids {
		book.Bids = append(book.Bids, toPriceLevel(lvl))
	}
	for _, lvl := range resp.Result.Asks {
		book.Asks = append(book.Asks, toPriceLevel(lvl))
	}
	return book, nil
}

func (d *Driver) FetchTrades(ctx context.Context, symbol types.Symbol, limit int) ([]types.Trade, error) {
	return nil, exchange.RequireCapability(d.ID(), d.Capabilities(), exchange.CapFetchTrades)
}

func (d *Driver) FetchOHLCV(ctx context.Context, symbol types.Symbol, interval string, limit int) ([]types.OHLCV, error) {
	if limit <= 0 {
		limit = 200
	}
	var resp envelope[klineResult]
	venueSym := d.SymbolToVenue(symbol)
	params := map[string]string{"category": categoryLinear, "symbol": venueSym, "interval": interval, "limit": strconv.Itoa(limit)}
	if err := d.do(ctx, "GET", "/market/kline", "fetchOHLCV", params, false, &resp); err != nil {
		return nil, err
	}

	out := make([]types.OHLCV, 0, len(resp.Result.List))
	for _, row := range resp.Result.List {
		if len(row) < 6 {
			continue
		}
		ts, _ := strconv.ParseInt(row[0], 10, 64)
		out = append(out, types.OHLCV{
			Timestamp: ts,
			Open:      parseDecimal(row[1]),
			High:      parseDecimal(row[2]),
			Low:       parseDecimal(row[3]),
			Close:     parseDecimal(row[4]),
			Volume:    parseDecimal(row[5]),
		})
	}
	return out, nil
}

func (d *Driver) FetchFundingRate(ctx context.Context, symbol types.Symbol) (types.FundingRate, error) {
	hist, err := d.FetchFundingRateHistory(ctx, symbol, 1)
	if err != nil {
		return types.FundingRate{}, err
	}
	if len(hist) == 0 {
		return types.FundingRate{}, xerrors.New(xerrors.InvalidSymbol, d.ID(), "no funding rate for "+symbol.String())
	}
	return hist[0], nil
}

func (d *Driver) FetchFundingRateHistory(ctx context.Context, symbol types.Symbol, limit int) ([]types.FundingRate, error) {
	if limit <= 0 {
		limit = 1
	}
	var resp envelope[fundingHistoryResult]
	venueSym := d.SymbolToVenue(symbol)
	params := map[string]string{"category": categoryLinear, "symbol": venueSym, "limit": strconv.Itoa(limit)}
	if err := d.do(ctx, "GET", "/market/funding/history", "fetchFundingRateHistory", params, false, &resp); err != nil {
		return nil, err
	}

	out := make([]types.FundingRate, 0, len(resp.Result.List))
	for _, f := range resp.Result.List {
		ts, _ := strconv.ParseInt(f.FundingRateTimestamp, 10, 64)
		out = append(out, types.FundingRate{
			Symbol:           symbol,
			FundingRate:      parseDecimal(f.FundingRate),
			FundingTimestamp: ts,
		})
	}
	return out, nil
}

func (d *Driver) CreateOrder(ctx context.Context, req types.OrderRequest) (types.Order, error) {
	if err := exchange.ValidateOrderRequest(d.ID(), req); err != nil {
		return types.Order{}, err
	}

	venueSym := d.SymbolToVenue(req.Symbol)
	params := map[string]string{
		"category":    categoryLinear,
		"symbol":      venueSym,
		"side":        sideToVenue(req.Side),
		"orderType":   orderTypeToVenue(req.Type),
		"qty":         req.Amount.String(),
		"reduceOnly":  strconv.FormatBool(req.ReduceOnly),
		"orderLinkId": req.ClientOrderID,
	}
	if req.Price != nil {
		params["price"] = req.Price.String()
	}
	if req.TimeInForce != "" {
		params["timeInForce"] = string(req.TimeInForce)
	}
	if req.PostOnly {
		params["timeInForce"] = "PostOnly"
	}

	var resp envelope[orderCreateResult]
	if err := d.do(ctx, "POST", "/order/create", "createOrder", params, true, &resp); err != nil {
		return types.Order{}, err
	}

	return types.Order{
		ID:            resp.Result.OrderID,
		Symbol:        req.Symbol,
		Type:          req.Type,
		Side:          req.Side,
		Amount:        req.Amount,
		Price:         req.Price,
		Status:        types.OrderStatusOpen,
		Remaining:     req.Amount,
		ClientOrderID: req.ClientOrderID,
		Timestamp:     time.Now().UnixMilli(),
	}, nil
}

func (d *Driver) CancelOrder(ctx context.Context, symbol types.Symbol, orderID string) (types.Order, error) {
	venueSym := d.SymbolToVenue(symbol)
	params := map[string]string{"category": categoryLinear, "symbol": venueSym, "orderId": orderID}
	if err := d.do(ctx, "POST", "/order/cancel", "cancelOrder", params, true, nil); err != nil {
		return types.Order{}, err
	}
	return d.FetchOrder(ctx, symbol, orderID)
}

func (d *Driver) CancelAllOrders(ctx context.Context, symbol types.Symbol) ([]types.Order, error) {
	open, err := d.FetchOpenOrders(ctx, symbol)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(open))
	for i, o := range open {
		ids[i] = o.ID
	}
	result, err := exchange.EmulatedCancelBatchOrders(ctx, d.ID(), symbol, ids, d.CancelOrder)
	return result.Orders, err
}

func (d *Driver) CreateBatchOrders(ctx context.Context, reqs []types.OrderRequest) (exchange.BatchResult, error) {
	return exchange.EmulatedCreateBatchOrders(ctx, d.ID(), reqs, d.CreateOrder)
}

func (d *Driver) CancelBatchOrders(ctx context.Context, symbol types.Symbol, orderIDs []string) (exchange.BatchResult, error) {
	return exchange.EmulatedCancelBatchOrders(ctx, d.ID(), symbol, orderIDs, d.CancelOrder)
}

func (d *Driver) EditOrder(ctx context.Context, symbol types.Symbol, orderID string, req types.OrderRequest) (types.Order, error) {
	return types.Order{}, exchange.RequireCapability(d.ID(), d.Capabilities(), exchange.CapEditOrder)
}

func (d *Driver) FetchPositions(ctx context.Context) ([]types.Position, error) {
	var resp envelope[positionListResult]
	params := map[string]string{"category": categoryLinear, "settleCoin": "USDT"}
	if err := d.do(ctx, "GET", "/position/list", "fetchPositions", params, true, &resp); err != nil {
		return nil, err
	}

	out := make([]types.Position, 0, len(resp.Result.List))
	for _, p := range resp.Result.List {
		size := parseDecimal(p.Size)
		if size.IsZero() {
			continue
		}
		marginMode := types.MarginCross
		if p.TradeMode == 1 {
			marginMode = types.MarginIsolated
		}
		ts, _ := strconv.ParseInt(p.UpdatedTime, 10, 64)
		out = append(out, types.Position{
			Symbol:           d.SymbolFromVenue(p.Symbol),
			Side:             positionSideFromVenue(p.Side),
			Size:             size,
			EntryPrice:       parseDecimal(p.AvgPrice),
			MarkPrice:        parseDecimal(p.MarkPrice),
			LiquidationPrice: parseDecimal(p.LiqPrice),
			UnrealizedPnl:    parseDecimal(p.UnrealisedPnl),
			RealizedPnl:      parseDecimal(p.CumRealisedPnl),
			Leverage:         parseDecimal(p.Leverage),
			MarginMode:       marginMode,
			Margin:           parseDecimal(p.PositionIM),
			Timestamp:        ts,
		})
	}
	return out, nil
}

func (d *Driver) FetchBalance(ctx context.Context) (types.Balance, error) {
	var resp envelope[walletBalanceResult]
	params := map[string]string{"accountType": "UNIFIED"}
	if err := d.do(ctx, "GET", "/account/wallet-balance", "fetchBalance", params, true, &resp); err != nil {
		return types.Balance{}, err
	}
	if len(resp.Result.List) == 0 || len(resp.Result.List[0].Coin) == 0 {
		return types.Balance{}, xerrors.New(xerrors.Unknown, d.ID(), "no balance data returned")
	}
	for _, c := range resp.Result.List[0].Coin {
		if c.Coin != "USDT" {
			continue
		}
		free := parseDecimal(c.Free)
		locked := parseDecimal(c.Locked)
		return types.Balance{Currency: "USDT", Total: free.Add(locked), Free: free, Used: locked}, nil
	}
	return types.Balance{}, xerrors.New(xerrors.Unknown, d.ID(), "no USDT balance entry")
}

func (d *Driver) FetchOpenOrders(ctx context.Context, symbol types.Symbol) ([]types.Order, error) {
	var resp envelope[orderListResult]
	params := map[string]string{"category": categoryLinear}
	if symbol.Base != "" {
		params["symbol"] = d.SymbolToVenue(symbol)
	}
	if err := d.do(ctx, "GET", "/order/realtime", "fetchOpenOrders", params, true, &resp); err != nil {
		return nil, err
	}
	return toOrders(d, resp.Result.List), nil
}

func (d *Driver) FetchOrder(ctx context.Context, symbol types.Symbol, orderID string) (types.Order, error) {
	var resp envelope[orderListResult]
	params := map[string]string{"category": categoryLinear, "symbol": d.SymbolToVenue(symbol), "orderId": orderID}
	if err := d.do(ctx, "GET", "/order/realtime", "fetchOrder", params, true, &resp); err != nil {
		return types.Order{}, err
	}
	if len(resp.Result.List) == 0 {
		return types.Order{}, xerrors.New(xerrors.OrderNotFound, d.ID(), "order "+orderID+" not found")
	}
	return toOrder(d, resp.Result.List[0]), nil
}

func (d *Driver) FetchOrderHistory(ctx context.Context, symbol types.Symbol, limit int) ([]types.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	var resp envelope[orderListResult]
	params := map[string]string{"category": categoryLinear, "symbol": d.SymbolToVenue(symbol), "limit": strconv.Itoa(limit)}
	if err := d.do(ctx, "GET", "/order/history", "fetchOrderHistory", params, true, &resp); err != nil {
		return nil, err
	}
	return toOrders(d, resp.Result.List), nil
}

func (d *Driver) FetchMyTrades(ctx context.Context, symbol types.Symbol, limit int) ([]types.Trade, error) {
	if limit <= 0 {
		limit = 50
	}
	var resp envelope[executionListResult]
	params := map[string]string{"category": categoryLinear, "symbol": d.SymbolToVenue(symbol), "limit": strconv.Itoa(limit)}
	if err := d.do(ctx, "GET", "/execution/list", "fetchMyTrades", params, true, &resp); err != nil {
		return nil, err
	}

	out := make([]types.Trade, 0, len(resp.Result.List))
	for _, e := range resp.Result.List {
		ts, _ := strconv.ParseInt(e.ExecTime, 10, 64)
		out = append(out, types.Trade{
			ID:        e.ExecID,
			Symbol:    symbol,
			Side:      sideFromVenue(e.Side),
			Price:     parseDecimal(e.ExecPrice),
			Amount:    parseDecimal(e.ExecQty),
			Cost:      parseDecimal(e.ExecValue),
			Timestamp: ts,
		})
	}
	return out, nil
}

func (d *Driver) SetLeverage(ctx context.Context, symbol types.Symbol, leverage int) error {
	params := map[string]string{
		"category":     categoryLinear,
		"symbol":       d.SymbolToVenue(symbol),
		"buyLeverage":  strconv.Itoa(leverage),
		"sellLeverage": strconv.Itoa(leverage),
	}
	return d.do(ctx, "POST", "/position/set-leverage", "setLeverage", params, true, nil)
}

func (d *Driver) SetMarginMode(ctx context.Context, symbol types.Symbol, mode types.MarginMode) error {
	tradeMode := "0"
	if mode == types.MarginIsolated {
		tradeMode = "1"
	}
	params := map[string]string{
		"category":  categoryLinear,
		"symbol":    d.SymbolToVenue(symbol),
		"tradeMode": tradeMode,
		"buyLeverage":  "10",
		"sellLeverage": "10",
	}
	return d.do(ctx, "POST", "/position/switch-isolated", "setMarginMode", params, true, nil)
}

// Streaming is deferred for this driver: pkg/stream.Runtime is wired
// end-to-end only by drivers/binance so far (see DESIGN.md). Every
// Watch* method here returns NotSupported, matching the capability map
// above rather than advertising a stream no caller can open.
func (d *Driver) WatchOrderBook(ctx context.Context, symbol types.Symbol) (*stream.Subscription, error) {
	return nil, exchange.RequireCapability(d.ID(), d.Capabilities(), exchange.CapWatchOrderBook)
}

func (d *Driver) WatchTrades(ctx context.Context, symbol types.Symbol) (*stream.Subscription, error) {
	return nil, exchange.RequireCapability(d.ID(), d.Capabilities(), exchange.CapWatchTrades)
}

func (d *Driver) WatchTicker(ctx context.Context, symbol types.Symbol) (*stream.Subscription, error) {
	return nil, exchange.RequireCapability(d.ID(), d.Capabilities(), exchange.CapWatchTicker)
}

func (d *Driver) WatchOHLCV(ctx context.Context, symbol types.Symbol, interval string) (*stream.Subscription, error) {
	return nil, exchange.RequireCapability(d.ID(), d.Capabilities(), exchange.CapWatchOHLCV)
}

func (d *Driver) WatchFundingRate(ctx context.Context, symbol types.Symbol) (*stream.Subscription, error) {
	return nil, exchange.RequireCapability(d.ID(), d.Capabilities(), exchange.CapWatchFundingRate)
}

func (d *Driver) WatchPositions(ctx context.Context) (*stream.Subscription, error) {
	return nil, exchange.RequireCapability(d.ID(), d.Capabilities(), exchange.CapWatchPositions)
}

func (d *Driver) WatchOrders(ctx context.Context) (*stream.Subscription, error) {
	return nil, exchange.RequireCapability(d.ID(), d.Capabilities(), exchange.CapWatchOrders)
}

func (d *Driver) WatchBalance(ctx context.Context) (*stream.Subscription, error) {
	return nil, exchange.RequireCapability(d.ID(), d.Capabilities(), exchange.CapWatchBalance)
}

func (d *Driver) WatchMyTrades(ctx context.Context) (*stream.Subscription, error) {
	return nil, exchange.RequireCapability(d.ID(), d.Capabilities(), exchange.CapWatchMyTrades)
}

func (d *Driver) HealthCheck(ctx context.Context) exchange.Health {
	api := func(ctx context.Context) exchange.ProbeResult {
		start := time.Now()
		_, err := d.FetchMarkets(ctx)
		return exchange.ProbeResult{Reachable: err == nil, Latency: time.Since(start), Error: errString(err)}
	}
	auth := func(ctx context.Context) exchange.ProbeResult {
		start := time.Now()
		_, err := d.FetchBalance(ctx)
		return exchange.ProbeResult{Reachable: err == nil, Latency: time.Since(start), Error: errString(err)}
	}
	return exchange.RunHealthCheck(ctx, api, nil, auth, nil)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func toTicker(sym types.Symbol, t tickerWire) types.Ticker {
	last := parseDecimal(t.LastPrice)
	prev := parseDecimal(t.PrevPrice24h)
	change := last.Sub(prev)
	var pct decimal.Decimal
	if !prev.IsZero() {
		pct = change.Div(prev).Mul(decimal.NewFromInt(100))
	}
	return types.Ticker{
		Symbol:      sym,
		Last:        last,
		Bid:         parseDecimal(t.Bid1Price),
		Ask:         parseDecimal(t.Ask1Price),
		High:        parseDecimal(t.HighPrice24h),
		Low:         parseDecimal(t.LowPrice24h),
		Open:        prev,
		Close:       last,
		Change:      change,
		Percentage:  pct,
		BaseVolume:  parseDecimal(t.Volume24h),
		QuoteVolume: parseDecimal(t.Turnover24h),
	}
}

func toPriceLevel(lvl []string) types.PriceLevel {
	if len(lvl) < 2 {
		return types.PriceLevel{}
	}
	return types.PriceLevel{Price: parseDecimal(lvl[0]), Size: parseDecimal(lvl[1])}
}

func toOrders(d *Driver, wire []orderWire) []types.Order {
	out := make([]types.Order, 0, len(wire))
	for _, o := range wire {
		out = append(out, toOrder(d, o))
	}
	return out
}

func toOrder(d *Driver, o orderWire) types.Order {
	amount := parseDecimal(o.Qty)
	filled := parseDecimal(o.CumExecQty)
	remaining := amount.Sub(filled)
	var avgPrice *decimal.Decimal
	if o.AvgPrice != "" && o.AvgPrice != "0" {
		p := parseDecimal(o.AvgPrice)
		avgPrice = &p
	}
	var price *decimal.Decimal
	if o.Price != "" {
		p := parseDecimal(o.Price)
		price = &p
	}
	ts, _ := strconv.ParseInt(o.CreatedTime, 10, 64)
	return types.Order{
		ID:            o.OrderID,
		Symbol:        d.SymbolFromVenue(o.Symbol),
		Type:          orderTypeFromVenue(o.OrderType),
		Side:          sideFromVenue(o.Side),
		Amount:        amount,
		Price:         price,
		Status:        orderStatusFromVenue(o.OrderStatus),
		Filled:        filled,
		Remaining:     remaining,
		AveragePrice:  avgPrice,
		Cost:          parseDecimal(o.CumExecValue),
		ReduceOnly:    o.ReduceOnly,
		ClientOrderID: o.OrderLinkID,
		Timestamp:     ts,
	}
}

func sideToVenue(s types.Side) string {
	if s == types.SideBuy {
		return "Buy"
	}
	return "Sell"
}

func sideFromVenue(s string) types.Side {
	if s == "Buy" {
		return types.SideBuy
	}
	return types.SideSell
}

func positionSideFromVenue(s string) types.PositionSide {
	if s == "Sell" {
		return types.PositionShort
	}
	return types.PositionLong
}

func orderTypeToVenue(t types.OrderType) string {
	switch t {
	case types.OrderTypeMarket, types.OrderTypeStopMarket:
		return "Market"
	default:
		return "Limit"
	}
}

func orderTypeFromVenue(t string) types.OrderType {
	if t == "Market" {
		return types.OrderTypeMarket
	}
	return types.OrderTypeLimit
}

func orderStatusFromVenue(s string) types.OrderStatus {
	switch s {
	case "New", "Untriggered":
		return types.OrderStatusOpen
	case "PartiallyFilled":
		return types.OrderStatusPartiallyFilled
	case "Filled":
		return types.OrderStatusFilled
	case "Cancelled", "PartiallyFilledCanceled":
		return types.OrderStatusCanceled
	case "Rejected":
		return types.OrderStatusRejected
	case "Deactivated":
		return types.OrderStatusExpired
	default:
		return types.OrderStatusOpen
	}
}

func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalPlaces(step string) int32 {
	d := parseDecimal(step)
	return int32(d.Exponent() * -1)
}

var _ exchange.Driver = (*Driver)(nil)
