package exchange

// Capability names the closed set of flags spec.md §4.8.1 defines. Every
// driver method gated behind a capability must throw NotSupported when its
// flag is false.
type Capability string

const (
	CapFetchMarkets           Capability = "fetchMarkets"
	CapFetchTicker            Capability = "fetchTicker"
	CapFetchTickers           Capability = "fetchTickers"
	CapFetchOrderBook         Capability = "fetchOrderBook"
	CapFetchTrades            Capability = "fetchTrades"
	CapFetchOHLCV             Capability = "fetchOHLCV"
	CapFetchFundingRate       Capability = "fetchFundingRate"
	CapFetchFundingRateHistory Capability = "fetchFundingRateHistory"

	CapCreateOrder      Capability = "createOrder"
	CapCancelOrder      Capability = "cancelOrder"
	CapCancelAllOrders  Capability = "cancelAllOrders"
	CapCreateBatchOrders Capability = "createBatchOrders"
	CapCancelBatchOrders Capability = "cancelBatchOrders"
	CapEditOrder        Capability = "editOrder"

	CapFetchPositions   Capability = "fetchPositions"
	CapFetchBalance     Capability = "fetchBalance"
	CapFetchOpenOrders  Capability = "fetchOpenOrders"
	CapFetchOrder       Capability = "fetchOrder"
	CapFetchOrderHistory Capability = "fetchOrderHistory"
	CapFetchMyTrades    Capability = "fetchMyTrades"
	CapSetLeverage      Capability = "setLeverage"
	CapSetMarginMode    Capability = "setMarginMode"

	CapWatchOrderBook   Capability = "watchOrderBook"
	CapWatchTrades      Capability = "watchTrades"
	CapWatchTicker      Capability = "watchTicker"
	CapWatchPositions   Capability = "watchPositions"
	CapWatchOrders      Capability = "watchOrders"
	CapWatchBalance     Capability = "watchBalance"
	CapWatchFundingRate Capability = "watchFundingRate"
	CapWatchOHLCV       Capability = "watchOHLCV"
	CapWatchMyTrades    Capability = "watchMyTrades"
)

// Emulated marks a capability as framework-provided rather than
// venue-native (e.g. cancelBatchOrders emulated via sequential cancelOrder
// calls).
const Emulated = "emulated"

// Capabilities is the `has` map: each entry is false, true, or "emulated".
type Capabilities map[Capability]any

// Supports reports whether cap is usable at all (native or emulated).
func (c Capabilities) Supports(cap Capability) bool {
	v, ok := c[cap]
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == Emulated
	default:
		return false
	}
}

// IsEmulated reports whether cap is provided by the shared convenience
// layer rather than the driver itself.
func (c Capabilities) IsEmulated(cap Capability) bool {
	v, ok := c[cap].(string)
	return ok && v == Emulated
}
