package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mexoms/perpunify/pkg/xerrors"
)

func TestParseSymbolSpot(t *testing.T) {
	s, err := ParseSymbol("binance", "btc/usdt")
	require.NoError(t, err)
	assert.Equal(t, "BTC", s.Base)
	assert.Equal(t, "USDT", s.Quote)
	assert.Empty(t, s.Settle)
	assert.False(t, s.IsPerpetual())
	assert.Equal(t, "BTC/USDT", s.String())
}

func TestParseSymbolPerpetual(t *testing.T) {
	s, err := ParseSymbol("hyperliquid", "ETH/USDC:USDC")
	require.NoError(t, err)
	assert.True(t, s.IsPerpetual())
	assert.Equal(t, "ETH/USDC:USDC", s.String())
}

func TestParseSymbolMalformed(t *testing.T) {
	_, err := ParseSymbol("bybit", "BTCUSDT")
	require.Error(t, err)
	xe, ok := xerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, xerrors.InvalidSymbol, xe.Kind)
}

func TestParseSymbolEmptySettle(t *testing.T) {
	_, err := ParseSymbol("okx", "BTC/USDT:")
	require.Error(t, err)
}

func TestSymbolEqualIgnoresCase(t *testing.T) {
	a, _ := ParseSymbol("v", "btc/usdt")
	b, _ := ParseSymbol("v", "BTC/USDT")
	assert.True(t, a.Equal(b))
}

func TestSplitConcatenatedSymbolSuffixPriority(t *testing.T) {
	base, quote, ok := SplitConcatenatedSymbol("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, "BTC", base)
	assert.Equal(t, "USDT", quote)

	// BUSD must not be mistaken for a trailing USD match.
	base, quote, ok = SplitConcatenatedSymbol("XBUSD")
	require.True(t, ok)
	assert.Equal(t, "X", base)
	assert.Equal(t, "BUSD", quote)
}

func TestSplitConcatenatedSymbolUnknownQuote(t *testing.T) {
	_, _, ok := SplitConcatenatedSymbol("ZZZ")
	assert.False(t, ok)
}
