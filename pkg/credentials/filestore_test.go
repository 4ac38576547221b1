package credentials

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSourceStoreAndGetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.enc")
	fs, err := NewFileSource(path, "correct horse battery staple")
	require.NoError(t, err)

	err = fs.Store(Key{
		Venue:      "binance",
		Market:     "futures",
		APIKey:     "abcdefgh12345678",
		SecretKey:  "supersecret",
		Passphrase: "pass123",
		Extra:      map[string]string{"subaccount": "1"},
	})
	require.NoError(t, err)

	got, err := fs.Get("binance", "futures")
	require.NoError(t, err)
	assert.Equal(t, "abcdefgh12345678", got.APIKey)
	assert.Equal(t, "supersecret", got.SecretKey)
	assert.Equal(t, "pass123", got.Passphrase)
	assert.Equal(t, "1", got.Extra["subaccount"])
	assert.False(t, got.CreatedAt.IsZero())
	assert.WithinDuration(t, time.Now().Add(rotationWindow), got.RotationDue, time.Minute)
}

func TestFileSourceGetMissingKeyErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.enc")
	fs, err := NewFileSource(path, "pw")
	require.NoError(t, err)

	_, err = fs.Get("bybit", "")
	assert.Error(t, err)
}

func TestFileSourceListMasksSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.enc")
	fs, err := NewFileSource(path, "pw")
	require.NoError(t, err)

	require.NoError(t, fs.Store(Key{Venue: "okx", Market: "swap", APIKey: "abcdefgh12345678", SecretKey: "s3cr3t", Passphrase: "p"}))

	keys, err := fs.List()
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "abcdefgh...", keys[0].APIKey)
	assert.Equal(t, "***", keys[0].SecretKey)
	assert.Equal(t, "***", keys[0].Passphrase)
}

func TestFileSourceDeleteRemovesKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.enc")
	fs, err := NewFileSource(path, "pw")
	require.NoError(t, err)

	require.NoError(t, fs.Store(Key{Venue: "hyperliquid", APIKey: "k", SecretKey: "s"}))
	require.NoError(t, fs.Delete("hyperliquid", ""))

	_, err = fs.Get("hyperliquid", "")
	assert.Error(t, err)
}

func TestFileSourcePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.enc")
	fs1, err := NewFileSource(path, "pw")
	require.NoError(t, err)
	require.NoError(t, fs1.Store(Key{Venue: "binance", APIKey: "k", SecretKey: "s"}))

	fs2, err := NewFileSource(path, "pw")
	require.NoError(t, err)
	got, err := fs2.Get("binance", "")
	require.NoError(t, err)
	assert.Equal(t, "k", got.APIKey)
}

func TestFileSourceWrongPasswordFailsDecrypt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.enc")
	fs1, err := NewFileSource(path, "correct password")
	require.NoError(t, err)
	require.NoError(t, fs1.Store(Key{Venue: "binance", APIKey: "k", SecretKey: "s"}))

	fs2, err := NewFileSource(path, "wrong password")
	require.NoError(t, err)
	_, err = fs2.Get("binance", "")
	assert.Error(t, err)
}

func TestKeyNeedsRotation(t *testing.T) {
	now := time.Now()
	assert.True(t, Key{RotationDue: now.Add(-time.Hour)}.NeedsRotation(now))
	assert.False(t, Key{RotationDue: now.Add(time.Hour)}.NeedsRotation(now))
	assert.False(t, Key{}.NeedsRotation(now))
}
