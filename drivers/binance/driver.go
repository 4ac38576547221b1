// Package binance implements exchange.Driver for Binance USDT-M futures,
// proving the framework around a retained third-party wire client
// instead of the shared pkg/httpclient pipeline: github.com/adshao/go-binance/v2/futures
// already signs, retries, and decodes its own requests, so this driver
// wraps its service calls with the shared rate limiter and circuit
// breaker rather than re-deriving the transport. Grounded on the
// teacher's services/binance/futures/client.go and position.go.
package binance

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"

	"github.com/mexoms/perpunify/pkg/exchange"
	"github.com/mexoms/perpunify/pkg/normalize"
	"github.com/mexoms/perpunify/pkg/signing"
	"github.com/mexoms/perpunify/pkg/stream"
	"github.com/mexoms/perpunify/pkg/types"
	"github.com/mexoms/perpunify/pkg/xerrors"
)

var capabilities = exchange.Capabilities{
	exchange.CapFetchMarkets:            true,
	exchange.CapFetchTicker:             true,
	exchange.CapFetchTickers:            exchange.Emulated,
	exchange.CapFetchOrderBook:          true,
	exchange.CapFetchTrades:             false,
	exchange.CapFetchOHLCV:              true,
	exchange.CapFetchFundingRate:        true,
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

	// Wired end-to-end to pkg/stream.Runtime: see ensureMarketStream and
	// ensureUserStream below.
	exchange.CapWatchOrderBook:   true,
	exchange.CapWatchTrades:      true,
	exchange.CapWatchTicker:      true,
	exchange.CapWatchPositions:   true,
	exchange.CapWatchOrders:      true,
	exchange.CapWatchBalance:     true,
	exchange.CapWatchFundingRate: true,
	exchange.CapWatchOHLCV:       true,
	exchange.CapWatchMyTrades:    true,
}

// marketStreamURL/marketStreamURLTestnet are the combined-stream endpoints
// futures.WsKlineServe and friends dial internally; watch* wires its own
// Runtime against the same endpoints instead of the SDK's helper functions
// so every stream shares one multiplexed socket and the pkg/stream
// reconnect/resubscribe policy.
const (
	marketStreamURL        = "wss://fstream.binance.com/stream"
	marketStreamURLTestnet = "wss://stream.binancefuture.com/stream"
	userStreamURL          = "wss://fstream.binance.com/ws/"
	userStreamURLTestnet   = "wss://stream.binancefuture.com/ws/"
)

// Driver is the Binance USDT-M futures venue adapter.
type Driver struct {
	*exchange.BaseDriver
	sdk     *futures.Client
	testNet bool

	reqID atomic.Int64

	streamMu     sync.Mutex
	marketStream *stream.Runtime
	userStream   *stream.Runtime
}

// Config is the construction input.
type Config struct {
	APIKey    string
	SecretKey string
	TestNet   bool
	cfg       exchange.Config
}

// New constructs a Driver wrapping the go-binance futures SDK client.
func New(c Config) *Driver {
	if c.TestNet {
		futures.UseTestnet = true
	}
	sdk := futures.NewClient(c.APIKey, c.SecretKey)

	cfg := c.cfg
	cfg.VenueID = "binance"
	cfg.DisplayName = "Binance"
	cfg.TestNet = c.TestNet
	// The SDK signs its own requests; this signer only feeds
	// HasCredentials()/Headers() for callers inspecting driver auth state
	// uniformly across venues, it is never invoked on the wire path.
	cfg.Signer = signing.NewHMACQuerySigner("binance", c.APIKey, c.SecretKey, 5000, "")
	cfg.Normalizer = normalize.For("binance")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://fapi.binance.com"
	}

	return &Driver{BaseDriver: exchange.NewBaseDriver(cfg, capabilities), sdk: sdk, testNet: c.TestNet}
}

func (d *Driver) Initialize(ctx context.Context) error {
	if err := d.gate(ctx, "ping", func(ctx context.Context) error {
		return d.sdk.NewPingService().Do(ctx)
	}); err != nil {
		return err
	}
	d.MarkConnected(true)
	return nil
}

func (d *Driver) Disconnect(ctx context.Context) error {
	d.streamMu.Lock()
	if d.marketStream != nil {
		d.marketStream.Disconnect()
	}
	if d.userStream != nil {
		d.userStream.Disconnect()
	}
	d.streamMu.Unlock()

	d.BaseDriver.Disconnect()
	return nil
}

func (d *Driver) SymbolToVenue(sym types.Symbol) string { return d.Normalizer().FromCanonical(sym) }
func (d *Driver) SymbolFromVenue(venueSymbol string) types.Symbol {
	sym, err := d.Normalizer().ToCanonical(venueSymbol)
	if err != nil {
		return types.Symbol{}
	}
	return sym
}

// gate acquires a rate-limit token, runs fn through the breaker, and
// records request/error counters, so every SDK call gets the same
// pipeline treatment a shared-httpclient driver gets for free.
func (d *Driver) gate(ctx context.Context, endpoint string, fn func(ctx context.Context) error) error {
	if err := d.Limiter().Acquire(ctx, endpoint, 1); err != nil {
		return xerrors.Wrap(xerrors.RateLimit, d.ID(), "rate limit acquire failed", err)
	}
	d.RecordRequest(endpoint)

	_, err := d.Breaker().Execute(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	if err != nil {
		d.RecordError(endpoint)
		return classifyError(d.ID(), err)
	}
	return nil
}

func classifyError(venueID string, err error) error {
	if xe, ok := xerrors.As(err); ok {
		if xe.Kind == xerrors.CircuitOpen {
			return xerrors.Wrap(xerrors.ExchangeUnavailable, venueID, "circuit breaker open", xe)
		}
		return xe
	}
	return xerrors.Wrap(xerrors.Network, venueID, "binance sdk call failed", err)
}

func (d *Driver) FetchMarkets(ctx context.Context) ([]types.Market, error) {
	if cached, ok := d.MarketCache().Get(); ok {
		return cached, nil
	}

	var info *futures.ExchangeInfo
	err := d.gate(ctx, "fetchMarkets", func(ctx context.Context) error {
		var err error
		info, err = d.sdk.NewExchangeInfoService().Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	markets := make([]types.Market, 0, len(info.Symbols))
	for _, s := range info.Symbols {
		if s.Status != "TRADING" || s.ContractType != "PERPETUAL" {
			continue
		}
		lot := s.LotSizeFilter()
		price := s.PriceFilter()
		market := types.Market{
			ID:              s.Symbol,
			Symbol:          d.SymbolFromVenue(s.Symbol),
			Base:            s.BaseAsset,
			Quote:           s.QuoteAsset,
			Settle:          s.QuoteAsset,
			Active:          true,
			PricePrecision:  int32(s.PricePrecision),
			AmountPrecision: int32(s.QuantityPrecision),
		}
		if lot != nil {
			market.MinAmount = parseDecimal(lot.MinQuantity)
			market.AmountStepSize = parseDecimal(lot.StepSize)
		}
		if price != nil {
			market.PriceTickSize = parseDecimal(price.TickSize)
		}
		markets = append(markets, market)
	}

	d.MarketCache().Set(markets, func(m types.Market) string { return m.ID })
	return markets, nil
}

func (d *Driver) FetchTicker(ctx context.Context, symbol types.Symbol) (types.Ticker, error) {
	venueSym := d.SymbolToVenue(symbol)
	var stats []*futures.PriceChangeStats
	err := d.gate(ctx, "fetchTicker", func(ctx context.Context) error {
		var err error
		stats, err = d.sdk.NewListPriceChangeStatsService().Symbol(venueSym).Do(ctx)
		return err
	})
	if err != nil {
		return types.Ticker{}, err
	}
	if len(stats) == 0 {
		return types.Ticker{}, xerrors.New(xerrors.InvalidSymbol, d.ID(), "no ticker for "+venueSym)
	}
	s := stats[0]
	return types.Ticker{
		Symbol:      symbol,
		Last:        parseDecimal(s.LastPrice),
		High:        parseDecimal(s.HighPrice),
		Low:         parseDecimal(s.LowPrice),
		Open:        parseDecimal(s.OpenPrice),
		Close:       parseDecimal(s.LastPrice),
		Change:      parseDecimal(s.PriceChange),
		Percentage:  parseDecimal(s.PriceChangePercent),
		BaseVolume:  parseDecimal(s.Volume),
		QuoteVolume: parseDecimal(s.QuoteVolume),
		Timestamp:   s.CloseTime,
	}, nil
}

func (d *Driver) FetchTickers(ctx context.Context, symbols []types.Symbol) (map[string]types.Ticker, error) {
	return exchange.EmulatedFetchTickers(ctx, symbols, d.FetchTicker), nil
}

func (d *Driver) FetchOrderBook(ctx context.Context, symbol types.Symbol, depth int) (types.OrderBook, error) {
	if depth <= 0 {
		depth = 50
	}
	venueSym := d.SymbolToVenue(symbol)
	var resp *futures.DepthResponse
	err := d.gate(ctx, "fetchOrderBook", func(ctx context.Context) error {
		var err error
		resp, err = d.sdk.NewDepthService().Symbol(venueSym).Limit(depth).Do(ctx)
		return err
	})
	if err != nil {
		return types.OrderBook{}, err
	}

	book := types.OrderBook{Symbol: symbol, Venue: d.ID(), Timestamp: resp.TradeTime}
	for _, b := range resp.Bids {
		book.Bids = append(book.Bids, types.PriceLevel{Price: parseDecimal(b.Price), Size: parseDecimal(b.Quantity)})
	}
	for _, a := range resp.Asks {
		book.Asks = append(book.Asks, types.PriceLevel{Price: parseDecimal(a.Price), Size: parseDecimal(a.Quantity)})
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
	venueSym := d.SymbolToVenue(symbol)
	var klines []*futures.Kline
	err := d.gate(ctx, "fetchOHLCV", func(ctx context.Context) error {
		var err error
		klines, err = d.sdk.NewKlinesService().Symbol(venueSym).Interval(interval).Limit(limit).Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]types.OHLCV, 0, len(klines))
	for _, k := range klines {
		out = append(out, types.OHLCV{
			Timestamp: k.OpenTime,
			Open:      parseDecimal(k.Open),
			High:      parseDecimal(k.High),
			Low:       parseDecimal(k.Low),
			Close:     parseDecimal(k.Close),
			Volume:    parseDecimal(k.Volume),
		})
	}
	return out, nil
}

func (d *Driver) FetchFundingRate(ctx context.Context, symbol types.Symbol) (types.FundingRate, error) {
	venueSym := d.SymbolToVenue(symbol)
	var premium []*futures.PremiumIndex
	err := d.gate(ctx, "fetchFundingRate", func(ctx context.Context) error {
		var err error
		premium, err = d.sdk.NewPremiumIndexService().Symbol(venueSym).Do(ctx)
		return err
	})
	if err != nil {
		return types.FundingRate{}, err
	}
	if len(premium) == 0 {
		return types.FundingRate{}, xerrors.New(xerrors.InvalidSymbol, d.ID(), "no premium index for "+venueSym)
	}
	p := premium[0]
	return types.FundingRate{
		Symbol:               symbol,
		FundingRate:          parseDecimal(p.LastFundingRate),
		NextFundingTimestamp: p.NextFundingTime,
		MarkPrice:            parseDecimal(p.MarkPrice),
		IndexPrice:           parseDecimal(p.IndexPrice),
	}, nil
}

func (d *Driver) FetchFundingRateHistory(ctx context.Context, symbol types.Symbol, limit int) ([]types.FundingRate, error) {
	if limit <= 0 {
		limit = 1
	}
	venueSym := d.SymbolToVenue(symbol)
	var rates []*futures.FundingRate
	err := d.gate(ctx, "fetchFundingRateHistory", func(ctx context.Context) error {
		var err error
		rates, err = d.sdk.NewFundingRateService().Symbol(venueSym).Limit(limit).Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]types.FundingRate, 0, len(rates))
	for _, r := range rates {
		out = append(out, types.FundingRate{
			Symbol:           symbol,
			FundingRate:      parseDecimal(r.FundingRate),
			FundingTimestamp: r.FundingTime,
			MarkPrice:        parseDecimal(r.MarkPrice),
		})
	}
	return out, nil
}

func (d *Driver) CreateOrder(ctx context.Context, req types.OrderRequest) (types.Order, error) {
	if err := exchange.ValidateOrderRequest(d.ID(), req); err != nil {
		return types.Order{}, err
	}

	venueSym := d.SymbolToVenue(req.Symbol)
	svc := d.sdk.NewCreateOrderService().
		Symbol(venueSym).
		Side(sideToVenue(req.Side)).
		Type(orderTypeToVenue(req.Type)).
		Quantity(req.Amount.String())

	if req.Type == types.OrderTypeLimit || req.Type == types.OrderTypeStopLimit {
		tif := futures.TimeInForceTypeGTC
		if req.PostOnly {
			tif = futures.TimeInForceTypeGTX
		} else if req.TimeInForce != "" {
			tif = futures.TimeInForceType(req.TimeInForce)
		}
		svc = svc.TimeInForce(tif)
		if req.Price != nil {
			svc = svc.Price(req.Price.String())
		}
	}
	if req.StopPrice != nil {
		svc = svc.StopPrice(req.StopPrice.String())
	}
	if req.ReduceOnly {
		svc = svc.ReduceOnly(true)
	}
	if req.ClientOrderID != "" {
		svc = svc.NewClientOrderID(req.ClientOrderID)
	}

	var res *futures.CreateOrderResponse
	err := d.gate(ctx, "createOrder", func(ctx context.Context) error {
		var err error
		res, err = svc.Do(ctx)
		return err
	})
	if err != nil {
		return types.Order{}, err
	}

	return types.Order{
		ID:            strconv.FormatInt(res.OrderID, 10),
		Symbol:        req.Symbol,
		Type:          req.Type,
		Side:          req.Side,
		Amount:        parseDecimal(res.OrigQuantity),
		Price:         req.Price,
		Status:        orderStatusFromVenue(string(res.Status)),
		Filled:        parseDecimal(res.ExecutedQuantity),
		ReduceOnly:    req.ReduceOnly,
		ClientOrderID: res.ClientOrderID,
		Timestamp:     res.UpdateTime,
	}, nil
}

func (d *Driver) CancelOrder(ctx context.Context, symbol types.Symbol, orderID string) (types.Order, error) {
	venueSym := d.SymbolToVenue(symbol)
	svc := d.sdk.NewCancelOrderService().Symbol(venueSym)
	if id, err := strconv.ParseInt(orderID, 10, 64); err == nil {
		svc = svc.OrderID(id)
	} else {
		svc = svc.OrigClientOrderID(orderID)
	}

	var res *futures.CancelOrderResponse
	err := d.gate(ctx, "cancelOrder", func(ctx context.Context) error {
		var err error
		res, err = svc.Do(ctx)
		return err
	})
	if err != nil {
		return types.Order{}, err
	}

	return types.Order{
		ID:           strconv.FormatInt(res.OrderID, 10),
		Symbol:       symbol,
		Status:       orderStatusFromVenue(string(res.Status)),
		Amount:       parseDecimal(res.OrigQuantity),
		Filled:       parseDecimal(res.ExecutedQuantity),
		Timestamp:    res.UpdateTime,
		ClientOrderID: res.ClientOrderID,
	}, nil
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
	var risks []*futures.PositionRisk
	err := d.gate(ctx, "fetchPositions", func(ctx context.Context) error {
		var err error
		risks, err = d.sdk.NewGetPositionRiskService().Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]types.Position, 0, len(risks))
	for _, r := range risks {
		amt := parseDecimal(r.PositionAmt)
		if amt.IsZero() {
			continue
		}
		side := types.PositionLong
		if amt.IsNegative() {
			side = types.PositionShort
		}
		marginMode := types.MarginCross
		if r.MarginType == "isolated" {
			marginMode = types.MarginIsolated
		}
		out = append(out, types.Position{
			Symbol:           d.SymbolFromVenue(r.Symbol),
			Side:             side,
			Size:             amt.Abs(),
			EntryPrice:       parseDecimal(r.EntryPrice),
			MarkPrice:        parseDecimal(r.MarkPrice),
			LiquidationPrice: parseDecimal(r.LiquidationPrice),
			UnrealizedPnl:    parseDecimal(r.UnRealizedProfit),
			Leverage:         decimal.NewFromInt(int64(mustAtoi(r.Leverage))),
			MarginMode:       marginMode,
			Margin:           parseDecimal(r.IsolatedMargin),
			Timestamp:        time.Now().UnixMilli(),
		})
	}
	return out, nil
}

func (d *Driver) FetchBalance(ctx context.Context) (types.Balance, error) {
	var account *futures.Account
	err := d.gate(ctx, "fetchBalance", func(ctx context.Context) error {
		var err error
		account, err = d.sdk.NewGetAccountService().Do(ctx)
		return err
	})
	if err != nil {
		return types.Balance{}, err
	}
	for _, a := range account.Assets {
		if a.Asset != "USDT" {
			continue
		}
		free := parseDecimal(a.AvailableBalance)
		total := parseDecimal(a.WalletBalance)
		return types.Balance{Currency: "USDT", Total: total, Free: free, Used: total.Sub(free)}, nil
	}
	return types.Balance{}, xerrors.New(xerrors.Unknown, d.ID(), "no USDT asset entry")
}

func (d *Driver) FetchOpenOrders(ctx context.Context, symbol types.Symbol) ([]types.Order, error) {
	svc := d.sdk.NewListOpenOrdersService()
	if symbol.Base != "" {
		svc = svc.Symbol(d.SymbolToVenue(symbol))
	}
	var orders []*futures.Order
	err := d.gate(ctx, "fetchOpenOrders", func(ctx context.Context) error {
		var err error
		orders, err = svc.Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toOrders(d, orders), nil
}

func (d *Driver) FetchOrder(ctx context.Context, symbol types.Symbol, orderID string) (types.Order, error) {
	venueSym := d.SymbolToVenue(symbol)
	svc := d.sdk.NewGetOrderService().Symbol(venueSym)
	if id, err := strconv.ParseInt(orderID, 10, 64); err == nil {
		svc = svc.OrderID(id)
	} else {
		svc = svc.OrigClientOrderID(orderID)
	}

	var order *futures.Order
	err := d.gate(ctx, "fetchOrder", func(ctx context.Context) error {
		var err error
		order, err = svc.Do(ctx)
		return err
	})
	if err != nil {
		return types.Order{}, err
	}
	return toOrder(d, order), nil
}

func (d *Driver) FetchOrderHistory(ctx context.Context, symbol types.Symbol, limit int) ([]types.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	venueSym := d.SymbolToVenue(symbol)
	var orders []*futures.Order
	err := d.gate(ctx, "fetchOrderHistory", func(ctx context.Context) error {
		var err error
		orders, err = d.sdk.NewListOrdersService().Symbol(venueSym).Limit(limit).Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return toOrders(d, orders), nil
}

func (d *Driver) FetchMyTrades(ctx context.Context, symbol types.Symbol, limit int) ([]types.Trade, error) {
	if limit <= 0 {
		limit = 50
	}
	venueSym := d.SymbolToVenue(symbol)
	var trades []*futures.AccountTrade
	err := d.gate(ctx, "fetchMyTrades", func(ctx context.Context) error {
		var err error
		trades, err = d.sdk.NewAccountTradeListService().Symbol(venueSym).Limit(limit).Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := make([]types.Trade, 0, len(trades))
	for _, t := range trades {
		out = append(out, types.Trade{
			ID:        strconv.FormatInt(t.ID, 10),
			Symbol:    symbol,
			Side:      sideFromVenue(string(t.Side)),
			Price:     parseDecimal(t.Price),
			Amount:    parseDecimal(t.Quantity),
			Cost:      parseDecimal(t.Quantity).Mul(parseDecimal(t.Price)),
			Timestamp: t.Time,
		})
	}
	return out, nil
}

func (d *Driver) SetLeverage(ctx context.Context, symbol types.Symbol, leverage int) error {
	venueSym := d.SymbolToVenue(symbol)
	return d.gate(ctx, "setLeverage", func(ctx context.Context) error {
		_, err := d.sdk.NewChangeLeverageService().Symbol(venueSym).Leverage(leverage).Do(ctx)
		return err
	})
}

func (d *Driver) SetMarginMode(ctx context.Context, symbol types.Symbol, mode types.MarginMode) error {
	venueSym := d.SymbolToVenue(symbol)
	marginType := futures.MarginTypeCrossed
	if mode == types.MarginIsolated {
		marginType = futures.MarginTypeIsolated
	}
	return d.gate(ctx, "setMarginMode", func(ctx context.Context) error {
		return d.sdk.NewChangeMarginTypeService().Symbol(venueSym).MarginType(marginType).Do(ctx)
	})
}

// ensureMarketStream lazily connects the shared combined market-data
// stream (wss://fstream.binance.com/stream), so the first WatchX call
// pays the dial cost and every later one just joins the registry.
// Grounded on the teacher's BinanceWSOrderManager connect-once pattern
// (services/binance/ws_order_manager.go), generalized from the SDK's
// per-call futures.WsXServe helpers to one multiplexed Runtime.
func (d *Driver) ensureMarketStream(ctx context.Context) (*stream.Runtime, error) {
	d.streamMu.Lock()
	defer d.streamMu.Unlock()

	if d.marketStream != nil && d.marketStream.IsConnected() {
		return d.marketStream, nil
	}

	url := marketStreamURL
	if d.testNet {
		url = marketStreamURLTestnet
	}
	rt := stream.New(stream.Config{
		VenueID: d.ID(),
		Conn:    stream.ConnConfig{URL: url},
		Decoder: decodeMarketStreamChannel,
	})
	if err := rt.Connect(ctx); err != nil {
		return nil, xerrors.Wrap(xerrors.WebSocketDisconnected, d.ID(), "market stream connect failed", err)
	}
	d.marketStream = rt
	return rt, nil
}

// ensureUserStream lazily obtains a listenKey and connects the user-data
// stream, which pushes ACCOUNT_UPDATE/ORDER_TRADE_UPDATE events without
// an explicit subscribe frame once connected.
func (d *Driver) ensureUserStream(ctx context.Context) (*stream.Runtime, error) {
	d.streamMu.Lock()
	defer d.streamMu.Unlock()

	if d.userStream != nil && d.userStream.IsConnected() {
		return d.userStream, nil
	}

	var listenKey string
	err := d.gate(ctx, "startUserStream", func(ctx context.Context) error {
		var err error
		listenKey, err = d.sdk.NewStartUserStreamService().Do(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	base := userStreamURL
	if d.testNet {
		base = userStreamURLTestnet
	}
	rt := stream.New(stream.Config{
		VenueID: d.ID(),
		Conn:    stream.ConnConfig{URL: base + listenKey},
		Decoder: decodeUserStreamChannel,
	})
	if err := rt.Connect(ctx); err != nil {
		return nil, xerrors.Wrap(xerrors.WebSocketDisconnected, d.ID(), "user stream connect failed", err)
	}
	d.userStream = rt
	return rt, nil
}

// marketSubscribeBuilder sends the JSON-RPC-style SUBSCRIBE frame the
// combined stream endpoint expects.
func (d *Driver) marketSubscribeBuilder(channel string) stream.SubscriptionBuilder {
	return func() ([]byte, error) {
		id := d.reqID.Add(1)
		return []byte(fmt.Sprintf(`{"method":"SUBSCRIBE","params":["%s"],"id":%d}`, channel, id)), nil
	}
}

// userSubscribeBuilder sends a harmless LIST_SUBSCRIPTIONS frame: the
// listenKey stream auto-pushes account/order events on connect, there is
// nothing to subscribe to, but Subscribe requires a non-nil builder.
func (d *Driver) userSubscribeBuilder() stream.SubscriptionBuilder {
	return func() ([]byte, error) {
		id := d.reqID.Add(1)
		return []byte(fmt.Sprintf(`{"method":"LIST_SUBSCRIPTIONS","id":%d}`, id)), nil
	}
}

// decodeMarketStreamChannel extracts the "stream" envelope field the
// combined market-data endpoint wraps every push message in.
func decodeMarketStreamChannel(raw []byte) (string, bool) {
	const key = `"stream":"`
	i := strings.Index(string(raw), key)
	if i < 0 {
		return "", false
	}
	rest := raw[i+len(key):]
	j := strings.IndexByte(string(rest), '"')
	if j < 0 {
		return "", false
	}
	return string(rest[:j]), true
}

// decodeUserStreamChannel routes by the event's "e" field so
// WatchPositions/WatchBalance (ACCOUNT_UPDATE) and
// WatchOrders/WatchMyTrades (ORDER_TRADE_UPDATE) each get their own
// channel off the same socket.
func decodeUserStreamChannel(raw []byte) (string, bool) {
	const key = `"e":"`
	i := strings.Index(string(raw), key)
	if i < 0 {
		return "", false
	}
	rest := raw[i+len(key):]
	j := strings.IndexByte(string(rest), '"')
	if j < 0 {
		return "", false
	}
	return string(rest[:j]), true
}

func (d *Driver) watchMarket(ctx context.Context, channel string) (*stream.Subscription, error) {
	rt, err := d.ensureMarketStream(ctx)
	if err != nil {
		return nil, err
	}
	return rt.Subscribe(channel, d.marketSubscribeBuilder(channel), false, 0)
}

func (d *Driver) watchUser(ctx context.Context, channel string) (*stream.Subscription, error) {
	rt, err := d.ensureUserStream(ctx)
	if err != nil {
		return nil, err
	}
	return rt.Subscribe(channel, d.userSubscribeBuilder(), true, 0)
}

func (d *Driver) WatchOrderBook(ctx context.Context, symbol types.Symbol) (*stream.Subscription, error) {
	venueSym := strings.ToLower(d.SymbolToVenue(symbol))
	return d.watchMarket(ctx, venueSym+"@depth20@100ms")
}

func (d *Driver) WatchTrades(ctx context.Context, symbol types.Symbol) (*stream.Subscription, error) {
	venueSym := strings.ToLower(d.SymbolToVenue(symbol))
	return d.watchMarket(ctx, venueSym+"@aggTrade")
}

func (d *Driver) WatchTicker(ctx context.Context, symbol types.Symbol) (*stream.Subscription, error) {
	venueSym := strings.ToLower(d.SymbolToVenue(symbol))
	return d.watchMarket(ctx, venueSym+"@ticker")
}

func (d *Driver) WatchOHLCV(ctx context.Context, symbol types.Symbol, interval string) (*stream.Subscription, error) {
	venueSym := strings.ToLower(d.SymbolToVenue(symbol))
	return d.watchMarket(ctx, venueSym+"@kline_"+interval)
}

func (d *Driver) WatchFundingRate(ctx context.Context, symbol types.Symbol) (*stream.Subscription, error) {
	venueSym := strings.ToLower(d.SymbolToVenue(symbol))
	return d.watchMarket(ctx, venueSym+"@markPrice")
}

func (d *Driver) WatchPositions(ctx context.Context) (*stream.Subscription, error) {
	return d.watchUser(ctx, "ACCOUNT_UPDATE")
}

func (d *Driver) WatchBalance(ctx context.Context) (*stream.Subscription, error) {
	return d.watchUser(ctx, "ACCOUNT_UPDATE")
}

func (d *Driver) WatchOrders(ctx context.Context) (*stream.Subscription, error) {
	return d.watchUser(ctx, "ORDER_TRADE_UPDATE")
}

func (d *Driver) WatchMyTrades(ctx context.Context) (*stream.Subscription, error) {
	return d.watchUser(ctx, "ORDER_TRADE_UPDATE")
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

func toOrders(d *Driver, wire []*futures.Order) []types.Order {
	out := make([]types.Order, 0, len(wire))
	for _, o := range wire {
		out = append(out, toOrder(d, o))
	}
	return out
}

func toOrder(d *Driver, o *futures.Order) types.Order {
	amount := parseDecimal(o.OrigQuantity)
	filled := parseDecimal(o.ExecutedQuantity)
	var price *decimal.Decimal
	if o.Price != "" {
		p := parseDecimal(o.Price)
		price = &p
	}
	var avgPrice *decimal.Decimal
	if o.AvgPrice != "" && o.AvgPrice != "0" {
		p := parseDecimal(o.AvgPrice)
		avgPrice = &p
	}
	return types.Order{
		ID:            strconv.FormatInt(o.OrderID, 10),
		Symbol:        d.SymbolFromVenue(o.Symbol),
		Type:          orderTypeFromVenue(string(o.Type)),
		Side:          sideFromVenue(string(o.Side)),
		Amount:        amount,
		Price:         price,
		Status:        orderStatusFromVenue(string(o.Status)),
		Filled:        filled,
		Remaining:     amount.Sub(filled),
		AveragePrice:  avgPrice,
		Cost:          parseDecimal(o.CumQuote),
		ReduceOnly:    o.ReduceOnly,
		ClientOrderID: o.ClientOrderID,
		Timestamp:     o.UpdateTime,
	}
}

func sideToVenue(s types.Side) futures.SideType {
	if s == types.SideBuy {
		return futures.SideTypeBuy
	}
	return futures.SideTypeSell
}

func sideFromVenue(s string) types.Side {
	if s == string(futures.SideTypeBuy) {
		return types.SideBuy
	}
	return types.SideSell
}

func orderTypeToVenue(t types.OrderType) futures.OrderType {
	switch t {
	case types.OrderTypeMarket:
		return futures.OrderTypeMarket
	case types.OrderTypeStopMarket:
		return futures.OrderTypeStopMarket
	case types.OrderTypeStopLimit:
		return futures.OrderTypeStop
	default:
		return futures.OrderTypeLimit
	}
}

func orderTypeFromVenue(t string) types.OrderType {
	switch t {
	case string(futures.OrderTypeMarket):
		return types.OrderTypeMarket
	case string(futures.OrderTypeStopMarket):
		return types.OrderTypeStopMarket
	case string(futures.OrderTypeStop):
		return types.OrderTypeStopLimit
	default:
		return types.OrderTypeLimit
	}
}

func orderStatusFromVenue(s string) types.OrderStatus {
	switch futures.OrderStatusType(s) {
	case futures.OrderStatusTypeNew:
		return types.OrderStatusOpen
	case futures.OrderStatusTypePartiallyFilled:
		return types.OrderStatusPartiallyFilled
	case futures.OrderStatusTypeFilled:
		return types.OrderStatusFilled
	case futures.OrderStatusTypeCanceled:
		return types.OrderStatusCanceled
	case futures.OrderStatusTypeRejected:
		return types.OrderStatusRejected
	case futures.OrderStatusTypeExpired:
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

func mustAtoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

var _ exchange.Driver = (*Driver)(nil)
