package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mexoms/perpunify/pkg/xerrors"
)

func TestTokenSessionRefreshesWhenEmpty(t *testing.T) {
	calls := 0
	s := NewTokenSession("venue", time.Second, func(ctx context.Context) (string, time.Time, error) {
		calls++
		return "tok-1", time.Now().Add(time.Hour), nil
	})
	tok, err := s.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, 1, calls)
}

func TestTokenSessionReusesUnexpiredToken(t *testing.T) {
	calls := 0
	s := NewTokenSession("venue", time.Second, func(ctx context.Context) (string, time.Time, error) {
		calls++
		return "tok", time.Now().Add(time.Hour), nil
	})
	_, _ = s.Current(context.Background())
	_, _ = s.Current(context.Background())
	assert.Equal(t, 1, calls)
}

func TestTokenSessionRefreshesNearExpiry(t *testing.T) {
	calls := 0
	s := NewTokenSession("venue", 50*time.Millisecond, func(ctx context.Context) (string, time.Time, error) {
		calls++
		return "tok", time.Now().Add(40 * time.Millisecond), nil
	})
	_, _ = s.Current(context.Background())
	_, _ = s.Current(context.Background())
	assert.Equal(t, 2, calls, "token is already within refreshBuffer of expiry, so every call refreshes")
}

func TestTokenSessionSetBypassesRefresher(t *testing.T) {
	s := NewTokenSession("venue", time.Second, nil)
	s.Set("manual-token", time.Now().Add(time.Hour))
	tok, err := s.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "manual-token", tok)
}

func TestTokenSessionResetForcesRefresh(t *testing.T) {
	calls := 0
	s := NewTokenSession("venue", time.Second, func(ctx context.Context) (string, time.Time, error) {
		calls++
		return "tok", time.Now().Add(time.Hour), nil
	})
	_, _ = s.Current(context.Background())
	s.Reset()
	_, _ = s.Current(context.Background())
	assert.Equal(t, 2, calls)
}

func TestTokenSessionNoRefresherFailsWithExpiredAuth(t *testing.T) {
	s := NewTokenSession("venue", time.Second, nil)
	_, err := s.Current(context.Background())
	require.Error(t, err)
	xe, ok := xerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, xerrors.ExpiredAuth, xe.Kind)
}
