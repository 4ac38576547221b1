package types

import "github.com/shopspring/decimal"

// PositionSide is long or short; a flat position (size==0) is excluded
// from listings per the data model invariant.
type PositionSide string

const (
	PositionLong  PositionSide = "long"
	PositionShort PositionSide = "short"
)

// MarginMode is the margin allocation mode for a position.
type MarginMode string

const (
	MarginCross    MarginMode = "cross"
	MarginIsolated MarginMode = "isolated"
)

// Position is a normalized open position on a perpetual market.
type Position struct {
	Symbol           Symbol
	Side             PositionSide
	Size             decimal.Decimal
	EntryPrice       decimal.Decimal
	MarkPrice        decimal.Decimal
	LiquidationPrice decimal.Decimal
	UnrealizedPnl    decimal.Decimal
	RealizedPnl      decimal.Decimal
	Leverage         decimal.Decimal
	MarginMode       MarginMode
	Margin           decimal.Decimal
	Timestamp        int64
}

// IsClosed reports whether this position has zero size and should be
// excluded from position listings.
func (p Position) IsClosed() bool { return p.Size.IsZero() }

// Balance is a single currency's free/used/total accounting.
type Balance struct {
	Currency string
	Total    decimal.Decimal
	Free     decimal.Decimal
	Used     decimal.Decimal
	Raw      any
}

// Valid reports whether the balance's free + used == total invariant
// holds.
func (b Balance) Valid() bool {
	return b.Free.Add(b.Used).Equal(b.Total)
}
