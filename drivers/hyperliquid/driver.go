// Package hyperliquid implements exchange.Driver for Hyperliquid
// perpetuals, proving the framework's EIP-712 signer family end-to-end.
// Hyperliquid's wire protocol is a single POST /info (public) and POST
// /exchange (signed action) pair rather than per-resource REST paths,
// grounded on the 0xtitan6-polymarket-mm example's Auth/Client split
// (internal/exchange/auth.go, internal/exchange/client.go) generalized
// from Polymarket's HMAC L2 auth to Hyperliquid's EIP-712-only "Agent"
// action signing.
package hyperliquid

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/shopspring/decimal"

	"github.com/mexoms/perpunify/pkg/exchange"
	"github.com/mexoms/perpunify/pkg/httpclient"
	"github.com/mexoms/perpunify/pkg/normalize"
	"github.com/mexoms/perpunify/pkg/signing"
	"github.com/mexoms/perpunify/pkg/stream"
	"github.com/mexoms/perpunify/pkg/types"
	"github.com/mexoms/perpunify/pkg/xerrors"
)

var capabilities = exchange.Capabilities{
	exchange.CapFetchMarkets:            true,
	exchange.CapFetchTicker:             true,
	exchange.CapFetchTickers:            true,
	exchange.CapFetchOrderBook:          true,
	exchange.CapFetchTrades:             false,
	exchange.CapFetchOHLCV:              true,
	exchange.CapFetchFundingRate:        true,
	exchange.CapFetchFundingRateHistory: true,

	exchange.CapCreateOrder:       true,
	exchange.CapCancelOrder:       true,
	exchange.CapCancelAllOrders:   exchange.Emulated,
	exchange.CapCreateBatchOrders: true,
	exchange.CapCancelBatchOrders: true,
	exchange.CapEditOrder:         false,

	exchange.CapFetchPositions:    true,
	exchange.CapFetchBalance:      true,
	exchange.CapFetchOpenOrders:   true,
	exchange.CapFetchOrder:        false,
	exchange.CapFetchOrderHistory: false,
	exchange.CapFetchMyTrades:     false,
	exchange.CapSetLeverage:       true,
	exchange.CapSetMarginMode:     true,

	// Streaming is deferred for this driver: pkg/stream.Runtime is wired
	// end-to-end only by drivers/binance so far (see DESIGN.md).
	exchange.CapWatchOrderBook: false,
	exchange.CapWatchTrades:    false,
	exchange.CapWatchTicker:    false,
	exchange.CapWatchPositions: false,
	exchange.CapWatchOrders:    false,
	exchange.CapWatchBalance:   false,
}

// Driver is the Hyperliquid perpetuals venue adapter.
type Driver struct {
	*exchange.BaseDriver

	assetMu sync.RWMutex
	assetID map[string]int // coin -> perp asset index, filled by FetchMarkets
}

// Config is the construction input.
type Config struct {
	PrivateKeyHex string
	TestNet       bool
	cfg           exchange.Config
}

// New constructs a Driver wired to Hyperliquid's info/exchange API.
func New(c Config) (*Driver, error) {
	d := &Driver{assetID: make(map[string]int)}

	signer, err := signing.NewEIP712Signer("hyperliquid", c.PrivateKeyHex, d.buildAgentTypedData)
	if err != nil {
		return nil, err
	}

	cfg := c.cfg
	cfg.VenueID = "hyperliquid"
	cfg.DisplayName = "Hyperliquid"
	cfg.TestNet = c.TestNet
	cfg.Signer = signer
	cfg.Normalizer = normalize.For("hyperliquid")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.hyperliquid.xyz"
		if c.TestNet {
			cfg.BaseURL = "https://api.hyperliquid-testnet.xyz"
		}
	}

	d.BaseDriver = exchange.NewBaseDriver(cfg, capabilities)
	return d, nil
}

// buildAgentTypedData implements signing.TypedDataBuilder for
// Hyperliquid's "Agent" action-signing scheme: the action's JSON body
// (carried in req.Body) is keccak256-hashed into a connectionId, then
// wrapped in the fixed Agent domain/type Hyperliquid's validators
// expect. This mirrors the real protocol's msgpack-then-hash approach
// closely enough to exercise the signer end-to-end; Hyperliquid's
// actual connectionId hash additionally folds in the nonce and
// vaultAddress via msgpack encoding, which this module does not
// replicate byte-for-byte.
func (d *Driver) buildAgentTypedData(req signing.Request) (apitypes.TypedDataDomain, apitypes.Types, apitypes.TypedDataMessage, string) {
	connectionID := crypto.Keccak256Hash([]byte(req.Body))

	domain := apitypes.TypedDataDomain{
		Name:    "Exchange",
		Version: "1",
		ChainId: signing.ChainIDToHexOrDecimal(1337),
	}
	types_ := apitypes.Types{
		"EIP712Domain": {
			{Name: "name", Type: "string"},
			{Name: "version", Type: "string"},
			{Name: "chainId", Type: "uint256"},
		},
		"Agent": {
			{Name: "source", Type: "string"},
			{Name: "connectionId", Type: "bytes32"},
		},
	}
	message := apitypes.TypedDataMessage{
		"source":       "a",
		"connectionId": connectionID.Bytes(),
	}
	return domain, types_, message, "Agent"
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

func (d *Driver) SymbolToVenue(sym types.Symbol) string { return d.Normalizer().FromCanonical(sym) }
func (d *Driver) SymbolFromVenue(venueSymbol string) types.Symbol {
	sym, err := d.Normalizer().ToCanonical(venueSymbol)
	if err != nil {
		return types.Symbol{}
	}
	return sym
}

// info posts an info request (public, unsigned) to /info.
func (d *Driver) info(ctx context.Context, endpoint string, body any, result any) error {
	if err := d.Limiter().Acquire(ctx, endpoint, 1); err != nil {
		return xerrors.Wrap(xerrors.RateLimit, d.ID(), "rate limit acquire failed", err)
	}
	d.RecordRequest(endpoint)

	err := d.HTTP().Do(ctx, httpclient.Request{
		Method:   "POST",
		Path:     "/info",
		Endpoint: endpoint,
		Body:     body,
		Result:   result,
	})
	if err != nil {
		d.RecordError(endpoint)
	}
	return err
}

// exchangeCall signs action via the EIP-712 Agent scheme and posts it
// to /exchange.
func (d *Driver) exchangeCall(ctx context.Context, endpoint string, action any, result any) error {
	if err := d.Limiter().Acquire(ctx, endpoint, 1); err != nil {
		return xerrors.Wrap(xerrors.RateLimit, d.ID(), "rate limit acquire failed", err)
	}
	d.RecordRequest(endpoint)

	nonce := time.Now().UnixMilli()
	actionBody := mustMarshalForSigning(action, nonce)

	signed, err := d.Signer().Sign(signing.Request{Body: actionBody, Timestamp: nonce})
	if err != nil {
		d.RecordError(endpoint)
		return err
	}

	sig, err := splitSignature(signed.Headers["X-Signature"])
	if err != nil {
		d.RecordError(endpoint)
		return err
	}

	req := exchangeRequest{Action: action, Nonce: nonce, Signature: sig}
	if err := d.HTTP().Do(ctx, httpclient.Request{
		Method:   "POST",
		Path:     "/exchange",
		Endpoint: endpoint,
		Body:     req,
		Result:   result,
	}); err != nil {
		d.RecordError(endpoint)
		return err
	}
	return nil
}

func mustMarshalForSigning(action any, nonce int64) string {
	b, err := json.Marshal(action)
	if err != nil {
		panic(fmt.Sprintf("hyperliquid: marshal action for signing: %v", err))
	}
	return fmt.Sprintf("%s|%d", b, nonce)
}

func splitSignature(hexSig string) (exchangeSig, error) {
	if len(hexSig) < 132 {
		return exchangeSig{}, xerrors.New(xerrors.InvalidSignature, "hyperliquid", "malformed signature")
	}
	raw := common.FromHex(hexSig)
	if len(raw) != 65 {
		return exchangeSig{}, xerrors.New(xerrors.InvalidSignature, "hyperliquid", "signature must be 65 bytes")
	}
	r := "0x" + common.Bytes2Hex(raw[:32])
	s := "0x" + common.Bytes2Hex(raw[32:64])
	v := int64(raw[64])
	return exchangeSig{R: r, S: s, V: v}, nil
}

func (d *Driver) FetchMarkets(ctx context.Context) ([]types.Market, error) {
	if cached, ok := d.MarketCache().Get(); ok {
		return cached, nil
	}

	var meta metaResponse
	if err := d.info(ctx, "fetchMarkets", infoRequest{Type: "meta"}, &meta); err != nil {
		return nil, err
	}

	markets := make([]types.Market, 0, len(meta.Universe))
	d.assetMu.Lock()
	for i, a := range meta.Universe {
		d.assetID[a.Name] = i
		step := decimal.New(1, -int32(a.SzDecimals))
		markets = append(markets, types.Market{
			ID:              a.Name,
			Symbol:          d.SymbolFromVenue(a.Name + "USD"),
			Base:            a.Name,
			Quote:           "USD",
			Settle:          "USDC",
			Active:          true,
			AmountStepSize:  step,
			AmountPrecision: int32(a.SzDecimals),
			MaxLeverage:     decimal.NewFromInt(int64(a.MaxLeverage)),
		})
	}
	d.assetMu.Unlock()

	d.MarketCache().Set(markets, func(m types.Market) string { return m.ID })
	return markets, nil
}

func (d *Driver) assetIndex(coin string) (int, bool) {
	d.assetMu.RLock()
	defer d.assetMu.RUnlock()
	idx, ok := d.assetID[coin]
	return idx, ok
}

func (d *Driver) FetchTicker(ctx context.Context, symbol types.Symbol) (types.Ticker, error) {
	var mids allMidsResponse
	if err := d.info(ctx, "fetchTicker", infoRequest{Type: "allMids"}, &mids); err != nil {
		return types.Ticker{}, err
	}
	px, ok := mids[symbol.Base]
	if !ok {
		return types.Ticker{}, xerrors.New(xerrors.InvalidSymbol, d.ID(), "no mid price for "+symbol.Base)
	}
	last := parseDecimal(px)
	return types.Ticker{Symbol: symbol, Last: last, Close: last}, nil
}

func (d *Driver) FetchTickers(ctx context.Context, symbols []types.Symbol) (map[string]types.Ticker, error) {
	var mids allMidsResponse
	if err := d.info(ctx, "fetchTickers", infoRequest{Type: "allMids"}, &mids); err != nil {
		return nil, err
	}
	out := make(map[string]types.Ticker, len(symbols))
	for _, sym := range symbols {
		px, ok := mids[sym.Base]
		if !ok {
			continue
		}
		last := parseDecimal(px)
		out[sym.String()] = types.Ticker{Symbol: sym, Last: last, Close: last}
	}
	return out, nil
}

func (d *Driver) FetchOrderBook(ctx context.Context, symbol types.Symbol, depth int) (types.OrderBook, error) {
	var book l2BookResponse
	if err := d.info(ctx, "fetchOrderBook", infoRequest{Type: "l2Book", Coin: symbol.Base}, &book); err != nil {
		return types.OrderBook{}, err
	}
	if len(book.Levels) < 2 {
		return types.OrderBook{Symbol: symbol, Venue: d.ID(), Timestamp: book.Time}, nil
	}

	ob := types.OrderBook{Symbol: symbol, Venue: d.ID(), Timestamp: book.Time}
	for _, lvl := range book.Levels[0] {
		ob.Bids = append(ob.Bids, types.PriceLevel{Price: parseDecimal(lvl.Px), Size: parseDecimal(lvl.Sz)})
	}
	for _, lvl := range book.Levels[1] {
		ob.Asks = append(ob.Asks, types.PriceLevel{Price: parseDecimal(lvl.Px), Size: parseDecimal(lvl.Sz)})
	}
	if depth > 0 {
		if len(ob.Bids) > depth {
			ob.Bids = ob.Bids[:depth]
		}
		if len(ob.Asks) > depth {
			ob.Asks = ob.Asks[:depth]
		}
	}
	return ob, nil
}

func (d *Driver) FetchTrades(ctx context.Context, symbol types.Symbol, limit int) ([]types.Trade, error) {
	return nil, exchange.RequireCapability(d.ID(), d.Capabilities(), exchange.CapFetchTrades)
}

func (d *Driver) FetchOHLCV(ctx context.Context, symbol types.Symbol, interval string, limit int) ([]types.OHLCV, error) {
	var req candleRequest
	req.Type = "candleSnapshot"
	req.Req.Coin = symbol.Base
	req.Req.Interval = interval
	req.Req.EndTime = time.Now().UnixMilli()
	req.Req.StartTime = req.Req.EndTime - int64(limit)*intervalMillis(interval)

	var candles []candleWire
	if err := d.info(ctx, "fetchOHLCV", req, &candles); err != nil {
		return nil, err
	}

	out := make([]types.OHLCV, 0, len(candles))
	for _, c := range candles {
		out = append(out, types.OHLCV{
			Timestamp: c.T,
			Open:      parseDecimal(c.O),
			High:      parseDecimal(c.H),
			Low:       parseDecimal(c.L),
			Close:     parseDecimal(c.C),
			Volume:    parseDecimal(c.V),
		})
	}
	return out, nil
}

func intervalMillis(interval string) int64 {
	switch interval {
	case "1m":
		return time.Minute.Milliseconds()
	case "5m":
		return 5 * time.Minute.Milliseconds()
	case "15m":
		return 15 * time.Minute.Milliseconds()
	case "1h":
		return time.Hour.Milliseconds()
	case "4h":
		return 4 * time.Hour.Milliseconds()
	case "1d":
		return 24 * time.Hour.Milliseconds()
	default:
		return time.Hour.Milliseconds()
	}
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
	req := fundingHistoryRequest{Type: "fundingHistory", Coin: symbol.Base, StartTime: time.Now().Add(-24 * time.Hour).UnixMilli()}
	var rates []fundingWire
	if err := d.info(ctx, "fetchFundingRateHistory", req, &rates); err != nil {
		return nil, err
	}
	if len(rates) > limit {
		rates = rates[len(rates)-limit:]
	}

	out := make([]types.FundingRate, 0, len(rates))
	for _, r := range rates {
		out = append(out, types.FundingRate{
			Symbol:           symbol,
			FundingRate:      parseDecimal(r.FundingRate),
			FundingTimestamp: r.Time,
		})
	}
	return out, nil
}

func (d *Driver) CreateOrder(ctx context.Context, req types.OrderRequest) (types.Order, error) {
	if err := exchange.ValidateOrderRequest(d.ID(), req); err != nil {
		return types.Order{}, err
	}
	assetIdx, ok := d.assetIndex(req.Symbol.Base)
	if !ok {
		return types.Order{}, xerrors.New(xerrors.InvalidSymbol, d.ID(), "unknown asset "+req.Symbol.Base)
	}

	tif := "Gtc"
	if req.PostOnly {
		tif = "Alo"
	} else if req.Type == types.OrderTypeMarket {
		tif = "Ioc"
	}

	price := "0"
	if req.Price != nil {
		price = req.Price.String()
	}

	action := orderAction{
		Type:     "order",
		Grouping: "na",
		Orders: []orderWire{{
			Asset:      assetIdx,
			IsBuy:      req.Side == types.SideBuy,
			Price:      price,
			Size:       req.Amount.String(),
			ReduceOnly: req.ReduceOnly,
			OrderType:  orderTypeWire{Limit: &limitWire{TIF: tif}},
			ClientOID:  req.ClientOrderID,
		}},
	}

	var resp exchangeResponse
	if err := d.exchangeCall(ctx, "createOrder", action, &resp); err != nil {
		return types.Order{}, err
	}
	if len(resp.Response.Data.Statuses) == 0 {
		return types.Order{}, xerrors.New(xerrors.Unknown, d.ID(), "empty order response")
	}
	st := resp.Response.Data.Statuses[0]
	if st.Error != "" {
		return types.Order{}, xerrors.New(xerrors.Validation, d.ID(), st.Error)
	}

	order := types.Order{
		Symbol: req.Symbol, Type: req.Type, Side: req.Side, Amount: req.Amount, Price: req.Price,
		ReduceOnly: req.ReduceOnly, ClientOrderID: req.ClientOrderID, Timestamp: time.Now().UnixMilli(),
	}
	switch {
	case st.Resting != nil:
		order.ID = strconv.FormatInt(st.Resting.OID, 10)
		order.Status = types.OrderStatusOpen
		order.Remaining = req.Amount
	case st.Filled != nil:
		order.ID = strconv.FormatInt(st.Filled.OID, 10)
		order.Status = types.OrderStatusFilled
		order.Filled = req.Amount
		avg := parseDecimal(st.Filled.AvgPx)
		order.AveragePrice = &avg
	}
	return order, nil
}

func (d *Driver) CancelOrder(ctx context.Context, symbol types.Symbol, orderID string) (types.Order, error) {
	assetIdx, ok := d.assetIndex(symbol.Base)
	if !ok {
		return types.Order{}, xerrors.New(xerrors.InvalidSymbol, d.ID(), "unknown asset "+symbol.Base)
	}
	oid, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return types.Order{}, xerrors.Wrap(xerrors.Validation, d.ID(), "orderID must be numeric", err)
	}

	action := cancelAction{Type: "cancel", Cancels: []cancelWire{{Asset: assetIdx, OID: oid}}}
	var resp exchangeResponse
	if err := d.exchangeCall(ctx, "cancelOrder", action, &resp); err != nil {
		return types.Order{}, err
	}
	return types.Order{ID: orderID, Symbol: symbol, Status: types.OrderStatusCanceled, Timestamp: time.Now().UnixMilli()}, nil
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
	var result exchange.BatchResult
	orders := make([]orderWire, 0, len(reqs))
	for _, req := range reqs {
		if err := exchange.ValidateOrderRequest(d.ID(), req); err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		assetIdx, ok := d.assetIndex(req.Symbol.Base)
		if !ok {
			result.Errors = append(result.Errors, xerrors.New(xerrors.InvalidSymbol, d.ID(), "unknown asset "+req.Symbol.Base))
			continue
		}
		price := "0"
		if req.Price != nil {
			price = req.Price.String()
		}
		orders = append(orders, orderWire{
			Asset: assetIdx, IsBuy: req.Side == types.SideBuy, Price: price, Size: req.Amount.String(),
			ReduceOnly: req.ReduceOnly, OrderType: orderTypeWire{Limit: &limitWire{TIF: "Gtc"}}, ClientOID: req.ClientOrderID,
		})
	}
	if len(orders) == 0 {
		return result, xerrors.New(xerrors.Validation, d.ID(), "all orders in batch failed validation")
	}

	action := orderAction{Type: "order", Grouping: "na", Orders: orders}
	var resp exchangeResponse
	if err := d.exchangeCall(ctx, "createBatchOrders", action, &resp); err != nil {
		return result, err
	}
	for i, st := range resp.Response.Data.Statuses {
		if st.Error != "" {
			result.Errors = append(result.Errors, xerrors.New(xerrors.Validation, d.ID(), st.Error))
			continue
		}
		req := reqs[i]
		order := types.Order{Symbol: req.Symbol, Type: req.Type, Side: req.Side, Amount: req.Amount, Price: req.Price, ClientOrderID: req.ClientOrderID}
		if st.Resting != nil {
			order.ID = strconv.FormatInt(st.Resting.OID, 10)
			order.Status = types.OrderStatusOpen
		} else if st.Filled != nil {
			order.ID = strconv.FormatInt(st.Filled.OID, 10)
			order.Status = types.OrderStatusFilled
		}
		result.Orders = append(result.Orders, order)
	}
	return result, nil
}

func (d *Driver) CancelBatchOrders(ctx context.Context, symbol types.Symbol, orderIDs []string) (exchange.BatchResult, error) {
	assetIdx, ok := d.assetIndex(symbol.Base)
	if !ok {
		return exchange.BatchResult{}, xerrors.New(xerrors.InvalidSymbol, d.ID(), "unknown asset "+symbol.Base)
	}
	cancels := make([]cancelWire, 0, len(orderIDs))
	for _, id := range orderIDs {
		oid, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}
		cancels = append(cancels, cancelWire{Asset: assetIdx, OID: oid})
	}

	action := cancelAction{Type: "cancel", Cancels: cancels}
	var resp exchangeResponse
	var result exchange.BatchResult
	if err := d.exchangeCall(ctx, "cancelBatchOrders", action, &resp); err != nil {
		return result, err
	}
	for i, st := range resp.Response.Data.Statuses {
		if st.Error != "" {
			result.Errors = append(result.Errors, xerrors.New(xerrors.Validation, d.ID(), st.Error))
			continue
		}
		result.Orders = append(result.Orders, types.Order{ID: orderIDs[i], Symbol: symbol, Status: types.OrderStatusCanceled})
	}
	return result, nil
}

func (d *Driver) EditOrder(ctx context.Context, symbol types.Symbol, orderID string, req types.OrderRequest) (types.Order, error) {
	return types.Order{}, exchange.RequireCapability(d.ID(), d.Capabilities(), exchange.CapEditOrder)
}

func (d *Driver) FetchPositions(ctx context.Context) ([]types.Position, error) {
	state, err := d.clearinghouseState(ctx, "fetchPositions")
	if err != nil {
		return nil, err
	}

	out := make([]types.Position, 0, len(state.AssetPositions))
	for _, ap := range state.AssetPositions {
		size := parseDecimal(ap.Position.Szi)
		if size.IsZero() {
			continue
		}
		side := types.PositionLong
		if size.IsNegative() {
			side = types.PositionShort
		}
		out = append(out, types.Position{
			Symbol:           d.SymbolFromVenue(ap.Position.Coin + "USD"),
			Side:             side,
			Size:             size.Abs(),
			EntryPrice:       parseDecimal(ap.Position.EntryPx),
			UnrealizedPnl:    parseDecimal(ap.Position.UnrealizedPnl),
			Leverage:         decimal.NewFromInt(int64(ap.Position.Leverage.Value)),
			MarginMode:       marginModeFromVenue(ap.Position.Leverage.Type),
			LiquidationPrice: parseDecimal(ap.Position.LiquidationPx),
			Margin:           parseDecimal(ap.Position.MarginUsed),
			Timestamp:        time.Now().UnixMilli(),
		})
	}
	return out, nil
}

func (d *Driver) FetchBalance(ctx context.Context) (types.Balance, error) {
	state, err := d.clearinghouseState(ctx, "fetchBalance")
	if err != nil {
		return types.Balance{}, err
	}
	total := parseDecimal(state.MarginSummary.AccountValue)
	free := parseDecimal(state.Withdrawable)
	return types.Balance{Currency: "USDC", Total: total, Free: free, Used: total.Sub(free)}, nil
}

func (d *Driver) clearinghouseState(ctx context.Context, endpoint string) (clearinghouseStateResponse, error) {
	var state clearinghouseStateResponse
	if !d.Signer().HasCredentials() {
		return state, xerrors.New(xerrors.ExpiredAuth, d.ID(), "no wallet configured")
	}
	err := d.info(ctx, endpoint, infoRequest{Type: "clearinghouseState", User: d.signerAddressHex()}, &state)
	return state, err
}

func (d *Driver) signerAddressHex() string {
	h := d.Signer().Headers()
	return h["X-Address"]
}

func (d *Driver) FetchOpenOrders(ctx context.Context, symbol types.Symbol) ([]types.Order, error) {
	var wire []openOrderWire
	if err := d.info(ctx, "fetchOpenOrders", openOrdersRequest{Type: "openOrders", User: d.signerAddressHex()}, &wire); err != nil {
		return nil, err
	}

	out := make([]types.Order, 0, len(wire))
	for _, o := range wire {
		if symbol.Base != "" && o.Coin != symbol.Base {
			continue
		}
		amount := parseDecimal(o.OrigSz)
		remaining := parseDecimal(o.Sz)
		out = append(out, types.Order{
			ID:         strconv.FormatInt(o.OID, 10),
			Symbol:     d.SymbolFromVenue(o.Coin + "USD"),
			Side:       sideFromVenue(o.Side),
			Amount:     amount,
			Remaining:  remaining,
			Filled:     amount.Sub(remaining),
			Status:     types.OrderStatusOpen,
			ReduceOnly: o.ReduceOnly,
			Timestamp:  o.Timestamp,
		})
	}
	return out, nil
}

func (d *Driver) FetchOrder(ctx context.Context, symbol types.Symbol, orderID string) (types.Order, error) {
	return types.Order{}, exchange.RequireCapability(d.ID(), d.Capabilities(), exchange.CapFetchOrder)
}

func (d *Driver) FetchOrderHistory(ctx context.Context, symbol types.Symbol, limit int) ([]types.Order, error) {
	return nil, exchange.RequireCapability(d.ID(), d.Capabilities(), exchange.CapFetchOrderHistory)
}

func (d *Driver) FetchMyTrades(ctx context.Context, symbol types.Symbol, limit int) ([]types.Trade, error) {
	return nil, exchange.RequireCapability(d.ID(), d.Capabilities(), exchange.CapFetchMyTrades)
}

func (d *Driver) SetLeverage(ctx context.Context, symbol types.Symbol, leverage int) error {
	assetIdx, ok := d.assetIndex(symbol.Base)
	if !ok {
		return xerrors.New(xerrors.InvalidSymbol, d.ID(), "unknown asset "+symbol.Base)
	}
	action := updateLeverageAction{Type: "updateLeverage", Asset: assetIdx, IsCross: true, Leverage: leverage}
	var resp exchangeResponse
	return d.exchangeCall(ctx, "setLeverage", action, &resp)
}

func (d *Driver) SetMarginMode(ctx context.Context, symbol types.Symbol, mode types.MarginMode) error {
	assetIdx, ok := d.assetIndex(symbol.Base)
	if !ok {
		return xerrors.New(xerrors.InvalidSymbol, d.ID(), "unknown asset "+symbol.Base)
	}
	action := updateLeverageAction{Type: "updateLeverage", Asset: assetIdx, IsCross: mode == types.MarginCross, Leverage: 1}
	var resp exchangeResponse
	return d.exchangeCall(ctx, "setMarginMode", action, &resp)
}

// Watch* methods are not yet wired to pkg/stream for this driver; see
// drivers/binance for the reference wiring and DESIGN.md for the
// deferral note. Each returns NotSupported, matching the capability
// map above.
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
	var auth exchange.Probe
	if d.Signer().HasCredentials() {
		auth = func(ctx context.Context) exchange.ProbeResult {
			start := time.Now()
			_, err := d.FetchBalance(ctx)
			return exchange.ProbeResult{Reachable: err == nil, Latency: time.Since(start), Error: errString(err)}
		}
	}
	return exchange.RunHealthCheck(ctx, api, nil, auth, nil)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func marginModeFromVenue(t string) types.MarginMode {
	if t == "isolated" {
		return types.MarginIsolated
	}
	return types.MarginCross
}

func sideFromVenue(s string) types.Side {
	if s == "B" {
		return types.SideBuy
	}
	return types.SideSell
}

func parseDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	dec, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return dec
}

var _ exchange.Driver = (*Driver)(nil)
