package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mexoms/perpunify/pkg/xerrors"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestOrderRequestValidateRejectsZeroAmount(t *testing.T) {
	req := OrderRequest{Type: OrderTypeMarket, Side: SideBuy, Amount: dec("0")}
	err := req.Validate("binance")
	require.Error(t, err)
	xe, _ := xerrors.As(err)
	assert.Equal(t, xerrors.InvalidOrder, xe.Kind)
}

func TestOrderRequestValidateRequiresPriceForLimit(t *testing.T) {
	req := OrderRequest{Type: OrderTypeLimit, Side: SideBuy, Amount: dec("1")}
	require.Error(t, req.Validate("binance"))

	price := dec("50000")
	req.Price = &price
	require.NoError(t, req.Validate("binance"))
}

func TestOrderRequestValidatePostOnlyRequiresPO(t *testing.T) {
	price := dec("100")
	req := OrderRequest{
		Type: OrderTypeLimit, Side: SideBuy, Amount: dec("1"), Price: &price,
		PostOnly: true, TimeInForce: TimeInForceGTC,
	}
	require.Error(t, req.Validate("binance"))

	req.TimeInForce = TimeInForcePO
	require.NoError(t, req.Validate("binance"))
}

func TestOrderRequestValidateStopMarketRequiresStopPrice(t *testing.T) {
	req := OrderRequest{Type: OrderTypeStopMarket, Side: SideSell, Amount: dec("1")}
	require.Error(t, req.Validate("bybit"))
	stop := dec("49000")
	req.StopPrice = &stop
	require.NoError(t, req.Validate("bybit"))
}

func TestOrderValidFillInvariant(t *testing.T) {
	o := Order{Amount: dec("1"), Filled: dec("0.4"), Remaining: dec("0.6"), Status: OrderStatusPartiallyFilled}
	assert.True(t, o.Valid())

	o.Filled = dec("1")
	o.Remaining = dec("0")
	o.Status = OrderStatusFilled
	assert.True(t, o.Valid())
}

func TestOrderInvalidWhenFillsDontSumToAmount(t *testing.T) {
	o := Order{Amount: dec("1"), Filled: dec("0.4"), Remaining: dec("0.4")}
	assert.False(t, o.Valid())
}

func TestOrderInvalidFilledStatusWithRemainder(t *testing.T) {
	o := Order{Amount: dec("1"), Filled: dec("0.4"), Remaining: dec("0.6"), Status: OrderStatusFilled}
	assert.False(t, o.Valid())
}

func TestOrderStatusTransitions(t *testing.T) {
	open := Order{Status: OrderStatusOpen}
	assert.True(t, open.CanTransitionTo(OrderStatusPartiallyFilled))
	assert.True(t, open.CanTransitionTo(OrderStatusFilled))
	assert.True(t, open.CanTransitionTo(OrderStatusCanceled))

	partial := Order{Status: OrderStatusPartiallyFilled}
	assert.True(t, partial.CanTransitionTo(OrderStatusFilled))
	assert.False(t, partial.CanTransitionTo(OrderStatusOpen))

	terminal := Order{Status: OrderStatusFilled}
	assert.False(t, terminal.CanTransitionTo(OrderStatusOpen))
	assert.False(t, terminal.CanTransitionTo(OrderStatusCanceled))
}
