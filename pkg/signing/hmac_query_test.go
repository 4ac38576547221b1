package signing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mexoms/perpunify/pkg/xerrors"
)

func TestHMACQuerySignerBinanceStyleAppendsSignatureParam(t *testing.T) {
	s := NewHMACQuerySigner("binance", "key", "secret", 0, "")
	require.True(t, s.HasCredentials())

	req := Request{Params: map[string]string{"symbol": "BTCUSDT"}, Timestamp: time.Now().Unix()}
	signed, err := s.Sign(req)
	require.NoError(t, err)
	assert.NotEmpty(t, signed.Params["signature"])
	assert.Equal(t, "5000", signed.Params["recvWindow"])
}

func TestHMACQuerySignerBybitStylePlacesSignatureInHeader(t *testing.T) {
	s := NewHMACQuerySigner("bybit", "key", "secret", 5000, "X-BAPI-SIGN")
	req := Request{Params: map[string]string{"qty": "1"}, Timestamp: 1234567890}
	signed, err := s.Sign(req)
	require.NoError(t, err)
	assert.NotEmpty(t, signed.Headers["X-BAPI-SIGN"])
	assert.Equal(t, "key", signed.Headers["X-BAPI-API-KEY"])
	assert.Empty(t, signed.Params["signature"])
}

func TestHMACQuerySignerDeterministic(t *testing.T) {
	s := NewHMACQuerySigner("binance", "key", "secret", 5000, "")
	req := Request{Params: map[string]string{"a": "1", "b": "2"}, Timestamp: 100}
	s1, err := s.Sign(req)
	require.NoError(t, err)
	s2, err := s.Sign(req)
	require.NoError(t, err)
	assert.Equal(t, s1.Params["signature"], s2.Params["signature"])
}

func TestHMACQuerySignerMissingCredentials(t *testing.T) {
	s := NewHMACQuerySigner("binance", "", "", 0, "")
	_, err := s.Sign(Request{})
	require.Error(t, err)
	xe, ok := xerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, xerrors.InvalidSignature, xe.Kind)
}

func TestHMACQuerySignerSignatureNeverContainsSecret(t *testing.T) {
	s := NewHMACQuerySigner("binance", "key", "super-secret-value", 0, "")
	signed, err := s.Sign(Request{Params: map[string]string{"x": "1"}, Timestamp: 1})
	require.NoError(t, err)
	assert.NotContains(t, signed.Params["signature"], "super-secret-value")
}
