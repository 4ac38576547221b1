// Package xerrors implements the closed error taxonomy shared by every
// venue driver: a tagged Kind plus provenance (venue, code, correlation id,
// cause) and the classification predicates the HTTP pipeline and callers
// key decisions off instead of string matching.
package xerrors

// Kind is the closed set of error variants a venue driver may surface.
type Kind string

const (
	Network                Kind = "network"
	Timeout                Kind = "timeout"
	RateLimit              Kind = "rate_limit"
	ExchangeUnavailable    Kind = "exchange_unavailable"
	WebSocketDisconnected  Kind = "websocket_disconnected"
	InvalidSignature       Kind = "invalid_signature"
	ExpiredAuth            Kind = "expired_auth"
	InsufficientPermissions Kind = "insufficient_permissions"
	Validation             Kind = "validation"
	InvalidSymbol          Kind = "invalid_symbol"
	InvalidParameter       Kind = "invalid_parameter"
	InsufficientMargin     Kind = "insufficient_margin"
	InsufficientBalance    Kind = "insufficient_balance"
	OrderNotFound          Kind = "order_not_found"
	OrderRejected          Kind = "order_rejected"
	InvalidOrder           Kind = "invalid_order"
	MinimumOrderSize       Kind = "minimum_order_size"
	PositionNotFound       Kind = "position_not_found"
	TransactionFailed      Kind = "transaction_failed"
	SlippageExceeded       Kind = "slippage_exceeded"
	Liquidation            Kind = "liquidation"
	NotSupported           Kind = "not_supported"
	NotImplemented         Kind = "not_implemented"
	CircuitOpen            Kind = "circuit_open"
	Unknown                Kind = "unknown"
)

var retryableKinds = map[Kind]bool{
	Network:               true,
	Timeout:               true,
	RateLimit:             true,
	ExchangeUnavailable:   true,
	WebSocketDisconnected: true,
}

var authKinds = map[Kind]bool{
	InvalidSignature:        true,
	ExpiredAuth:              true,
	InsufficientPermissions: true,
}

var validationKinds = map[Kind]bool{
	Validation:       true,
	InvalidSymbol:    true,
	InvalidParameter: true,
	InvalidOrder:     true,
	MinimumOrderSize: true,
}

var orderKinds = map[Kind]bool{
	OrderNotFound:    true,
	OrderRejected:    true,
	InvalidOrder:     true,
	MinimumOrderSize: true,
}

var tradingKinds = map[Kind]bool{
	InsufficientMargin:  true,
	InsufficientBalance: true,
	OrderNotFound:       true,
	OrderRejected:       true,
	InvalidOrder:        true,
	MinimumOrderSize:    true,
	PositionNotFound:    true,
	TransactionFailed:   true,
	SlippageExceeded:    true,
	Liquidation:         true,
}

// IsRetryable reports whether an error of this kind is safe to retry.
// HTTP status codes 408/429/5xx are folded into Network/RateLimit/
// ExchangeUnavailable by the venue mapper before this predicate is
// consulted, per spec.md §4.2.
func (k Kind) IsRetryable() bool { return retryableKinds[k] }

// IsAuth reports whether this kind denotes an authentication failure.
func (k Kind) IsAuth() bool { return authKinds[k] }

// IsValidation reports whether this kind denotes a local validation failure.
func (k Kind) IsValidation() bool { return validationKinds[k] }

// IsOrder reports whether this kind is order-lifecycle related.
func (k Kind) IsOrder() bool { return orderKinds[k] }

// IsTrading reports whether this kind arose from a trading operation.
func (k Kind) IsTrading() bool { return tradingKinds[k] }
