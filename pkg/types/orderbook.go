package types

import "github.com/shopspring/decimal"

// PriceLevel is a single [price, size] entry in an order book side.
type PriceLevel struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// OrderBook is a normalized snapshot of one venue's book for a symbol.
// Bids are sorted descending by price, asks ascending; within a side no
// two levels share a price (Valid checks both).
type OrderBook struct {
	Symbol    Symbol
	Timestamp int64
	Bids      []PriceLevel
	Asks      []PriceLevel
	Venue     string
}

// BestBid returns the highest bid level, or a zero level and false if the
// book has no bids.
func (ob OrderBook) BestBid() (PriceLevel, bool) {
	if len(ob.Bids) == 0 {
		return PriceLevel{}, false
	}
	return ob.Bids[0], true
}

// BestAsk returns the lowest ask level, or a zero level and false if the
// book has no asks.
func (ob OrderBook) BestAsk() (PriceLevel, bool) {
	if len(ob.Asks) == 0 {
		return PriceLevel{}, false
	}
	return ob.Asks[0], true
}

// Valid reports whether the book's ordering and uniqueness invariants
// hold: bids strictly descending, asks strictly ascending, no duplicate
// price within either side.
func (ob OrderBook) Valid() bool {
	return sideOrdered(ob.Bids, true) && sideOrdered(ob.Asks, false)
}

func sideOrdered(levels []PriceLevel, descending bool) bool {
	for i := 1; i < len(levels); i++ {
		cmp := levels[i-1].Price.Cmp(levels[i].Price)
		if descending && cmp <= 0 {
			return false
		}
		if !descending && cmp >= 0 {
			return false
		}
	}
	return true
}
