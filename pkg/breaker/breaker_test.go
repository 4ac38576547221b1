package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mexoms/perpunify/pkg/xerrors"
)

func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	b := New(Config{Name: "test", FailureThreshold: 2, ResetTimeout: time.Hour})
	defer b.Destroy()

	fail := func(ctx context.Context) (any, error) { return nil, errors.New("boom") }

	_, err := b.Execute(context.Background(), fail)
	require.Error(t, err)
	assert.Equal(t, "closed", b.State())

	_, err = b.Execute(context.Background(), fail)
	require.Error(t, err)
	assert.Equal(t, "open", b.State())
}

func TestBreakerRejectsFastWhenOpen(t *testing.T) {
	b := New(Config{Name: "test", FailureThreshold: 1, ResetTimeout: time.Hour})
	defer b.Destroy()

	fail := func(ctx context.Context) (any, error) { return nil, errors.New("boom") }
	_, err := b.Execute(context.Background(), fail)
	require.Error(t, err)
	require.Equal(t, "open", b.State())

	called := false
	_, err = b.Execute(context.Background(), func(ctx context.Context) (any, error) {
		called = true
		return nil, nil
	})
	require.Error(t, err)
	assert.False(t, called)
	xe, ok := xerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, xerrors.CircuitOpen, xe.Kind)
}

func TestBreakerHalfOpenRecoversToClosed(t *testing.T) {
	b := New(Config{Name: "test", FailureThreshold: 1, SuccessThreshold: 1, ResetTimeout: 20 * time.Millisecond})
	defer b.Destroy()

	fail := func(ctx context.Context) (any, error) { return nil, errors.New("boom") }
	_, _ = b.Execute(context.Background(), fail)
	require.Equal(t, "open", b.State())

	time.Sleep(30 * time.Millisecond)

	ok := func(ctx context.Context) (any, error) { return "ok", nil }
	_, err := b.Execute(context.Background(), ok)
	require.NoError(t, err)
	assert.Equal(t, "closed", b.State())
}

func TestBreakerEmitsEvents(t *testing.T) {
	b := New(Config{Name: "test", FailureThreshold: 1, ResetTimeout: time.Hour})
	defer b.Destroy()
	events := b.Subscribe()

	fail := func(ctx context.Context) (any, error) { return nil, errors.New("boom") }
	_, _ = b.Execute(context.Background(), fail)

	select {
	case ev := <-events:
		assert.Equal(t, EventOpen, ev)
	case <-time.After(time.Second):
		t.Fatal("expected an open event")
	}
}

func TestBreakerSuccessClosedStaysClosed(t *testing.T) {
	b := New(Config{Name: "test", FailureThreshold: 3, ResetTimeout: time.Hour})
	defer b.Destroy()

	ok := func(ctx context.Context) (any, error) { return "ok", nil }
	result, err := b.Execute(context.Background(), ok)
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, "closed", b.State())
}
