package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func lvl(price, size string) PriceLevel {
	return PriceLevel{Price: decimal.RequireFromString(price), Size: decimal.RequireFromString(size)}
}

func TestOrderBookValidOrdering(t *testing.T) {
	ob := OrderBook{
		Bids: []PriceLevel{lvl("100", "1"), lvl("99", "2"), lvl("98", "3")},
		Asks: []PriceLevel{lvl("101", "1"), lvl("102", "2")},
	}
	assert.True(t, ob.Valid())
}

func TestOrderBookInvalidDuplicatePrice(t *testing.T) {
	ob := OrderBook{
		Bids: []PriceLevel{lvl("100", "1"), lvl("100", "2")},
	}
	assert.False(t, ob.Valid())
}

func TestOrderBookInvalidUnsortedAsks(t *testing.T) {
	ob := OrderBook{
		Asks: []PriceLevel{lvl("101", "1"), lvl("100", "2")},
	}
	assert.False(t, ob.Valid())
}

func TestOrderBookBestBidAsk(t *testing.T) {
	ob := OrderBook{
		Bids: []PriceLevel{lvl("100", "1")},
		Asks: []PriceLevel{lvl("101", "1")},
	}
	bid, ok := ob.BestBid()
	assert.True(t, ok)
	assert.True(t, bid.Price.Equal(decimal.RequireFromString("100")))

	ask, ok := ob.BestAsk()
	assert.True(t, ok)
	assert.True(t, ask.Price.Equal(decimal.RequireFromString("101")))
}

func TestOrderBookEmptySidesHaveNoBest(t *testing.T) {
	var ob OrderBook
	_, ok := ob.BestBid()
	assert.False(t, ok)
	_, ok = ob.BestAsk()
	assert.False(t, ok)
}
