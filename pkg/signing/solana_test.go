package signing

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mexoms/perpunify/pkg/xerrors"
)

func TestSolanaSignerSignVerifies(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	keypairB64 := base64.StdEncoding.EncodeToString(priv)

	s, err := NewSolanaSigner("solana-venue", "pubkeyref", keypairB64)
	require.NoError(t, err)
	require.True(t, s.HasCredentials())

	req := Request{Method: "POST", Path: "/orders", Timestamp: 50, Window: 1000}
	signed, err := s.Sign(req)
	require.NoError(t, err)

	sig, err := base64.StdEncoding.DecodeString(signed.Headers["X-Signature"])
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(pub, canonicalMethodPathTSWindowBody(req), sig))
}

func TestSolanaSignerRejectsWrongLength(t *testing.T) {
	_, err := NewSolanaSigner("solana-venue", "pub", base64.StdEncoding.EncodeToString([]byte("tooshort")))
	require.Error(t, err)
	xe, ok := xerrors.As(err)
	require.True(t, ok)
	assert.Equal(t, xerrors.InvalidSignature, xe.Kind)
}

func TestSolanaSignerMissingKeypair(t *testing.T) {
	s, err := NewSolanaSigner("solana-venue", "pub", "")
	require.NoError(t, err)
	_, err = s.Sign(Request{})
	require.Error(t, err)
}
