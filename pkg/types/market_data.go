package types

import "github.com/shopspring/decimal"

// Side is a trade or order direction.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Trade is a single executed trade as reported by a venue's public feed
// or trade history endpoint.
type Trade struct {
	ID        string
	Symbol    Symbol
	Side      Side
	Price     decimal.Decimal
	Amount    decimal.Decimal
	Cost      decimal.Decimal
	Timestamp int64
	Raw       any
}

// CostWithinTolerance reports whether Cost ≈ Price·Amount within the
// given relative tolerance, accommodating venue-specific rounding.
func (t Trade) CostWithinTolerance(tolerance decimal.Decimal) bool {
	expected := t.Price.Mul(t.Amount)
	diff := t.Cost.Sub(expected).Abs()
	if expected.IsZero() {
		return diff.IsZero()
	}
	return diff.Div(expected).LessThanOrEqual(tolerance)
}

// Ticker is a normalized 24h market summary for a symbol.
type Ticker struct {
	Symbol      Symbol
	Last        decimal.Decimal
	Bid         decimal.Decimal
	Ask         decimal.Decimal
	High        decimal.Decimal
	Low         decimal.Decimal
	Open        decimal.Decimal
	Close       decimal.Decimal
	Change      decimal.Decimal
	Percentage  decimal.Decimal
	BaseVolume  decimal.Decimal
	QuoteVolume decimal.Decimal
	Timestamp   int64
	Raw         any
}

// FundingRate is a perpetual contract's current and upcoming funding
// state.
type FundingRate struct {
	Symbol               Symbol
	FundingRate          decimal.Decimal
	FundingTimestamp     int64
	NextFundingTimestamp int64
	MarkPrice            decimal.Decimal
	IndexPrice           decimal.Decimal
	FundingIntervalHours int
}

// OHLCV is a single candlestick.
type OHLCV struct {
	Timestamp int64
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}
