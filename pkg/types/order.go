package types

import (
	"github.com/shopspring/decimal"

	"github.com/mexoms/perpunify/pkg/xerrors"
)

// OrderType is the set of order types a venue may support. Venues that
// do not support a given type reject it with xerrors.NotSupported at the
// driver layer, not here.
type OrderType string

const (
	OrderTypeMarket     OrderType = "market"
	OrderTypeLimit      OrderType = "limit"
	OrderTypeStopMarket OrderType = "stopMarket"
	OrderTypeStopLimit  OrderType = "stopLimit"
)

// TimeInForce is the order's time-in-force instruction.
type TimeInForce string

const (
	TimeInForceGTC TimeInForce = "GTC"
	TimeInForceIOC TimeInForce = "IOC"
	TimeInForceFOK TimeInForce = "FOK"
	TimeInForcePO  TimeInForce = "PO"
)

// OrderStatus is the closed set of lifecycle states an Order may occupy.
type OrderStatus string

const (
	OrderStatusOpen            OrderStatus = "open"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusPartiallyFilled OrderStatus = "partiallyFilled"
	OrderStatusCanceled        OrderStatus = "canceled"
	OrderStatusRejected        OrderStatus = "rejected"
	OrderStatusExpired         OrderStatus = "expired"
)

// terminalStatuses are the statuses an order can never transition out of.
var terminalStatuses = map[OrderStatus]bool{
	OrderStatusFilled:   true,
	OrderStatusCanceled: true,
	OrderStatusRejected: true,
	OrderStatusExpired:  true,
}

// IsTerminal reports whether this status is one an order never leaves.
func (s OrderStatus) IsTerminal() bool { return terminalStatuses[s] }

// OrderRequest is the caller-supplied intent to create an order. Validate
// runs every pre-call check spec'd for createOrder before the request
// ever reaches the rate limiter, so rejected requests never consume a
// rate-limit token.
type OrderRequest struct {
	Symbol        Symbol
	Type          OrderType
	Side          Side
	Amount        decimal.Decimal
	Price         *decimal.Decimal
	StopPrice     *decimal.Decimal
	TimeInForce   TimeInForce
	ReduceOnly    bool
	PostOnly      bool
	ClientOrderID string
}

// requiresPrice is the set of order types for which Price must be set
// and positive.
var requiresPrice = map[OrderType]bool{
	OrderTypeLimit:     true,
	OrderTypeStopLimit: true,
}

// requiresStopPrice is the set of order types for which StopPrice must
// be set and positive.
var requiresStopPrice = map[OrderType]bool{
	OrderTypeStopMarket: true,
	OrderTypeStopLimit:  true,
}

// Validate enforces the request invariants: amount > 0; price > 0 when
// the order type requires one; stopPrice > 0 when the type is a stop
// type; postOnly implies timeInForce is PO or unset. venueID is used only to tag
// the resulting error.
func (r OrderRequest) Validate(venueID string) error {
	if r.Side != SideBuy && r.Side != SideSell {
		return xerrors.New(xerrors.InvalidOrder, venueID, "side must be buy or sell")
	}
	if !r.Amount.IsPositive() {
		return xerrors.New(xerrors.InvalidOrder, venueID, "amount must be > 0")
	}
	if requiresPrice[r.Type] {
		if r.Price == nil || !r.Price.IsPositive() {
			return xerrors.New(xerrors.InvalidOrder, venueID, "price must be > 0 for type "+string(r.Type))
		}
	}
	if requiresStopPrice[r.Type] {
		if r.StopPrice == nil || !r.StopPrice.IsPositive() {
			return xerrors.New(xerrors.InvalidOrder, venueID, "stopPrice must be > 0 for type "+string(r.Type))
		}
	}
	if r.PostOnly && r.TimeInForce != "" && r.TimeInForce != TimeInForcePO {
		return xerrors.New(xerrors.InvalidOrder, venueID, "postOnly requires timeInForce=PO")
	}
	return nil
}

// Order is the canonical, normalized representation of an order as
// reported back by a venue.
type Order struct {
	ID            string
	Symbol        Symbol
	Type          OrderType
	Side          Side
	Amount        decimal.Decimal
	Price         *decimal.Decimal
	Status        OrderStatus
	Filled        decimal.Decimal
	Remaining     decimal.Decimal
	AveragePrice  *decimal.Decimal
	Cost          decimal.Decimal
	ReduceOnly    bool
	PostOnly      bool
	ClientOrderID string
	Timestamp     int64
	Raw           any
}

// Valid reports whether the order's fill invariants hold: filled +
// remaining == amount, and status=filled implies remaining=0.
func (o Order) Valid() bool {
	if !o.Filled.Add(o.Remaining).Equal(o.Amount) {
		return false
	}
	if o.Status == OrderStatusFilled && !o.Remaining.IsZero() {
		return false
	}
	return true
}

// CanTransitionTo reports whether moving from o.Status to next is a
// legal transition: terminal states never leave, and the only non-terminal
// path is open -> partiallyFilled -> filled.
func (o Order) CanTransitionTo(next OrderStatus) bool {
	if o.Status.IsTerminal() {
		return false
	}
	switch o.Status {
	case OrderStatusOpen:
		return next == OrderStatusPartiallyFilled || next == OrderStatusFilled ||
			next == OrderStatusCanceled || next == OrderStatusRejected || next == OrderStatusExpired
	case OrderStatusPartiallyFilled:
		return next == OrderStatusFilled || next == OrderStatusCanceled || next == OrderStatusExpired
	default:
		return false
	}
}
