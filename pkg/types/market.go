package types

import "github.com/shopspring/decimal"

// Market describes a tradable instrument as reported by a venue, with
// normalized precision/step metadata used for client-side order validation.
type Market struct {
	ID                   string
	Symbol               Symbol
	Base                 string
	Quote                string
	Settle               string
	Active               bool
	MinAmount            decimal.Decimal
	PricePrecision       int32
	AmountPrecision      int32
	PriceTickSize        decimal.Decimal
	AmountStepSize       decimal.Decimal
	MakerFee             decimal.Decimal
	TakerFee             decimal.Decimal
	MaxLeverage          decimal.Decimal
	FundingIntervalHours int
	Raw                  any
}

// IsPerpetual reports whether this market carries a settle asset, i.e.
// it is a perpetual future rather than a spot market.
func (m Market) IsPerpetual() bool { return m.Settle != "" }

// Valid reports whether the market's precision/step invariants hold:
// precisions are non-negative and tick/step sizes are strictly positive.
func (m Market) Valid() bool {
	if m.PricePrecision < 0 || m.AmountPrecision < 0 {
		return false
	}
	if !m.PriceTickSize.IsPositive() || !m.AmountStepSize.IsPositive() {
		return false
	}
	return true
}
