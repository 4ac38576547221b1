package exchange

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mexoms/perpunify/pkg/types"
	"github.com/mexoms/perpunify/pkg/xerrors"
)

func TestEmulatedCreateBatchOrdersPartialSuccess(t *testing.T) {
	reqs := []types.OrderRequest{{ClientOrderID: "a"}, {ClientOrderID: "b"}, {ClientOrderID: "c"}}
	create := func(_ context.Context, req types.OrderRequest) (types.Order, error) {
		if req.ClientOrderID == "b" {
			return types.Order{}, errors.New("rejected")
		}
		return types.Order{ClientOrderID: req.ClientOrderID}, nil
	}

	result, err := EmulatedCreateBatchOrders(context.Background(), "binance", reqs, create)
	require.NoError(t, err, "partial success must not return an error")
	assert.Len(t, result.Orders, 2)
	assert.Len(t, result.Errors, 1)
}

func TestEmulatedCreateBatchOrdersAllFail(t *testing.T) {
	reqs := []types.OrderRequest{{ClientOrderID: "a"}, {ClientOrderID: "b"}}
	create := func(_ context.Context, req types.OrderRequest) (types.Order, error) {
		return types.Order{}, errors.New("rejected: " + req.ClientOrderID)
	}

	result, err := EmulatedCreateBatchOrders(context.Background(), "binance", reqs, create)
	require.Error(t, err)
	assert.Empty(t, result.Orders)
	assert.Len(t, result.Errors, 2)
	xe, ok := xerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, xerrors.Validation, xe.Kind)
}

func TestEmulatedCancelBatchOrdersPartialSuccess(t *testing.T) {
	ids := []string{"1", "2"}
	cancel := func(_ context.Context, _ types.Symbol, orderID string) (types.Order, error) {
		if orderID == "2" {
			return types.Order{}, errors.New("not found")
		}
		return types.Order{ID: orderID, Status: types.OrderStatusCanceled}, nil
	}
	result, err := EmulatedCancelBatchOrders(context.Background(), "bybit", types.Symbol{}, ids, cancel)
	require.NoError(t, err)
	assert.Len(t, result.Orders, 1)
	assert.Len(t, result.Errors, 1)
}

func TestEmulatedFetchTickersIgnoresIndividualFailures(t *testing.T) {
	symbols := []types.Symbol{
		{Base: "BTC", Quote: "USDT", Settle: "USDT"},
		{Base: "ETH", Quote: "USDT", Settle: "USDT"},
	}
	fetchOne := func(_ context.Context, sym types.Symbol) (types.Ticker, error) {
		if sym.Base == "ETH" {
			return types.Ticker{}, errors.New("no data")
		}
		return types.Ticker{Symbol: sym}, nil
	}
	tickers := EmulatedFetchTickers(context.Background(), symbols, fetchOne)
	assert.Len(t, tickers, 1)
	_, ok := tickers["BTC/USDT:USDT"]
	assert.True(t, ok)
}

func TestEmulatedFetchStatus(t *testing.T) {
	ok := EmulatedFetchStatus(context.Background(), func(context.Context) ([]types.Market, error) {
		return []types.Market{{}}, nil
	})
	assert.True(t, ok.OK)

	bad := EmulatedFetchStatus(context.Background(), func(context.Context) ([]types.Market, error) {
		return nil, errors.New("venue down")
	})
	assert.False(t, bad.OK)
	assert.Equal(t, "venue down", bad.Message)
}
