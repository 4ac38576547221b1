package exchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapabilitiesSupports(t *testing.T) {
	caps := Capabilities{
		CapFetchMarkets:      true,
		CapCancelBatchOrders: Emulated,
		CapSetLeverage:       false,
	}
	assert.True(t, caps.Supports(CapFetchMarkets))
	assert.True(t, caps.Supports(CapCancelBatchOrders))
	assert.False(t, caps.Supports(CapSetLeverage))
	assert.False(t, caps.Supports(CapEditOrder), "unlisted capability must be unsupported")
}

func TestCapabilitiesIsEmulated(t *testing.T) {
	caps := Capabilities{
		CapCancelBatchOrders: Emulated,
		CapFetchMarkets:      true,
	}
	assert.True(t, caps.IsEmulated(CapCancelBatchOrders))
	assert.False(t, caps.IsEmulated(CapFetchMarkets))
	assert.False(t, caps.IsEmulated(CapWatchTrades))
}
