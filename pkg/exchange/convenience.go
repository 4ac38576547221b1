package exchange

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/mexoms/perpunify/pkg/types"
	"github.com/mexoms/perpunify/pkg/xerrors"
)

// CreateOrderFn and CancelOrderFn let the shared convenience layer drive
// a driver's single-order primitives without importing the driver
// package itself.
type CreateOrderFn func(ctx context.Context, req types.OrderRequest) (types.Order, error)
type CancelOrderFn func(ctx context.Context, symbol types.Symbol, orderID string) (types.Order, error)

// EmulatedCreateBatchOrders iterates reqs sequentially, calling create
// for each. Per spec.md §4.8.2: if any order succeeds, the successful
// subset is returned alongside the per-item errors; only when every
// request fails does this return an aggregate Validation error wrapping
// the first underlying failure. Partial failure logs but never panics
// or aborts the remaining requests.
func EmulatedCreateBatchOrders(ctx context.Context, venueID string, reqs []types.OrderRequest, create CreateOrderFn) (BatchResult, error) {
	result := BatchResult{}
	var agg *multierror.Error

	for _, req := range reqs {
		order, err := create(ctx, req)
		if err != nil {
			result.Errors = append(result.Errors, err)
			agg = multierror.Append(agg, err)
			continue
		}
		result.Orders = append(result.Orders, order)
	}

	if len(result.Orders) == 0 && len(reqs) > 0 {
		return result, xerrors.Wrap(xerrors.Validation, venueID, "all orders in batch failed", agg.Errors[0])
	}
	if agg != nil {
		logrus.WithField("venue", venueID).WithError(agg).Warnf("batch create: %d of %d orders failed", len(result.Errors), len(reqs))
	}
	return result, nil
}

// EmulatedCancelBatchOrders mirrors EmulatedCreateBatchOrders for
// cancellation: sequential cancelOrder calls, partial failure tolerated.
func EmulatedCancelBatchOrders(ctx context.Context, venueID string, symbol types.Symbol, orderIDs []string, cancel CancelOrderFn) (BatchResult, error) {
	result := BatchResult{}
	var agg *multierror.Error

	for _, id := range orderIDs {
		order, err := cancel(ctx, symbol, id)
		if err != nil {
			result.Errors = append(result.Errors, err)
			agg = multierror.Append(agg, err)
			continue
		}
		result.Orders = append(result.Orders, order)
	}

	if len(result.Orders) == 0 && len(orderIDs) > 0 {
		return result, xerrors.Wrap(xerrors.Validation, venueID, "all cancellations in batch failed", agg.Errors[0])
	}
	return result, nil
}

// FetchTickerFn fetches a single ticker, used by the fetchTickers
// emulation for venues lacking a bulk endpoint.
type FetchTickerFn func(ctx context.Context, symbol types.Symbol) (types.Ticker, error)

// EmulatedFetchTickers fetches one ticker per symbol in symbols,
// ignoring individual failures, per spec.md §4.8.2. It does not fetch
// the market list itself: an empty symbols slice yields an empty map.
func EmulatedFetchTickers(ctx context.Context, symbols []types.Symbol, fetchOne FetchTickerFn) map[string]types.Ticker {
	out := make(map[string]types.Ticker, len(symbols))
	for _, sym := range symbols {
		t, err := fetchOne(ctx, sym)
		if err != nil {
			continue
		}
		out[sym.String()] = t
	}
	return out
}

// Status is the shape fetchStatus returns.
type Status struct {
	OK      bool
	Message string
}

// FetchMarketsFn is the probe EmulatedFetchStatus calls.
type FetchMarketsFn func(ctx context.Context) ([]types.Market, error)

// EmulatedFetchStatus probes fetchMarkets and maps success/error to
// ok/error(message), per spec.md §4.8.2.
func EmulatedFetchStatus(ctx context.Context, fetchMarkets FetchMarketsFn) Status {
	_, err := fetchMarkets(ctx)
	if err != nil {
		return Status{OK: false, Message: err.Error()}
	}
	return Status{OK: true}
}
