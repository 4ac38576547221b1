package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarketValidRejectsNonPositiveStep(t *testing.T) {
	m := Market{PricePrecision: 2, AmountPrecision: 3, PriceTickSize: dec("0"), AmountStepSize: dec("0.001")}
	assert.False(t, m.Valid())

	m.PriceTickSize = dec("0.01")
	assert.True(t, m.Valid())
}

func TestMarketIsPerpetualWhenSettleSet(t *testing.T) {
	m := Market{Settle: "USDT"}
	assert.True(t, m.IsPerpetual())

	m.Settle = ""
	assert.False(t, m.IsPerpetual())
}
