package xerrors

import "fmt"

// Error is the single error type every component boundary in this module
// returns. No untyped error ever crosses a driver/framework boundary —
// venue mappers, the HTTP pipeline, the signer, and the WebSocket runtime
// all wrap failures into one of these before returning them to the caller.
type Error struct {
	Kind          Kind
	Message       string
	VenueCode     string
	VenueID       string
	CorrelationID string
	Cause         error

	// RetryAfter carries the venue-reported backoff hint for RateLimit.
	RetryAfter int64
	// Required/Available carry InsufficientBalance's operands.
	Required, Available string
	// Reason carries OrderRejected's venue-supplied reason string.
	Reason string
	// Min/Requested carry MinimumOrderSize's operands.
	Min, Requested string
	// TxHash carries TransactionFailed's on-chain transaction hash, if any.
	TxHash string
	// Expected/Actual carry SlippageExceeded's operands.
	Expected, Actual string
}

func (e *Error) Error() string {
	if e.VenueID != "" {
		return fmt.Sprintf("%s [%s]: %s", e.VenueID, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// WithCorrelationID returns a copy of e with the correlation id attached,
// used by the HTTP pipeline to stamp every error with the id of the
// attempt that produced it (spec.md §4.5 step 1, §8 property 5).
func (e *Error) WithCorrelationID(id string) *Error {
	cp := *e
	cp.CorrelationID = id
	return &cp
}

// New constructs a bare Error of the given kind.
func New(kind Kind, venueID, message string) *Error {
	return &Error{Kind: kind, VenueID: venueID, Message: message}
}

// Wrap constructs an Error of the given kind preserving cause as the
// underlying error, per spec.md §7 "classify at the edge, preserve the
// cause."
func Wrap(kind Kind, venueID, message string, cause error) *Error {
	return &Error{Kind: kind, VenueID: venueID, Message: message, Cause: cause}
}

// As reports whether err (or any error in its Unwrap chain) is an *Error,
// returning it if so. Thin helper over the standard errors.As pattern so
// callers don't need to import both packages for the common case.
func As(err error) (*Error, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// IsRetryable reports whether err is a retryable *Error (see Kind.IsRetryable).
func IsRetryable(err error) bool {
	e, ok := As(err)
	return ok && e.Kind.IsRetryable()
}

// IsAuth reports whether err is an authentication *Error.
func IsAuth(err error) bool {
	e, ok := As(err)
	return ok && e.Kind.IsAuth()
}

// IsValidation reports whether err is a validation *Error.
func IsValidation(err error) bool {
	e, ok := As(err)
	return ok && e.Kind.IsValidation()
}

// IsOrder reports whether err is an order-lifecycle *Error.
func IsOrder(err error) bool {
	e, ok := As(err)
	return ok && e.Kind.IsOrder()
}

// IsTrading reports whether err arose from a trading operation.
func IsTrading(err error) bool {
	e, ok := As(err)
	return ok && e.Kind.IsTrading()
}

// InsufficientBalanceErr builds the InsufficientBalance variant with its
// required/available operands.
func InsufficientBalanceErr(venueID, required, available string) *Error {
	return &Error{
		Kind:      InsufficientBalance,
		VenueID:   venueID,
		Message:   fmt.Sprintf("insufficient balance: required %s, available %s", required, available),
		Required:  required,
		Available: available,
	}
}

// MinimumOrderSizeErr builds the MinimumOrderSize variant.
func MinimumOrderSizeErr(venueID, min, requested string) *Error {
	return &Error{
		Kind:      MinimumOrderSize,
		VenueID:   venueID,
		Message:   fmt.Sprintf("order size %s below minimum %s", requested, min),
		Min:       min,
		Requested: requested,
	}
}

// OrderRejectedErr builds the OrderRejected variant.
func OrderRejectedErr(venueID, reason string) *Error {
	return &Error{Kind: OrderRejected, VenueID: venueID, Message: reason, Reason: reason}
}

// SlippageExceededErr builds the SlippageExceeded variant.
func SlippageExceededErr(venueID, expected, actual string) *Error {
	return &Error{
		Kind:     SlippageExceeded,
		VenueID:  venueID,
		Message:  fmt.Sprintf("slippage exceeded: expected %s, got %s", expected, actual),
		Expected: expected,
		Actual:   actual,
	}
}

// RateLimitErr builds the RateLimit variant with an optional retry-after hint.
func RateLimitErr(venueID string, retryAfter int64) *Error {
	return &Error{Kind: RateLimit, VenueID: venueID, Message: "rate limit exceeded", RetryAfter: retryAfter}
}

// TransactionFailedErr builds the TransactionFailed variant.
func TransactionFailedErr(venueID, txHash string, cause error) *Error {
	return &Error{Kind: TransactionFailed, VenueID: venueID, Message: "transaction failed", TxHash: txHash, Cause: cause}
}
