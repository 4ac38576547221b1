package signing

import (
	"crypto/ed25519"
	"encoding/base64"
	"strconv"

	"github.com/mexoms/perpunify/pkg/xerrors"
)

// canonicalMethodPathTSWindowBody builds METHOD||PATH||timestamp||window||body,
// the canonical message shared by the Ed25519 method-path-ts-window-body
// scheme and the Solana signer.
func canonicalMethodPathTSWindowBody(req Request) []byte {
	msg := req.Method + req.Path + strconv.FormatInt(req.Timestamp, 10) + strconv.FormatInt(req.Window, 10) + req.Body
	return []byte(msg)
}

// Ed25519CanonicalSigner implements the Ed25519-over-method-path-ts-window-body
// scheme.
type Ed25519CanonicalSigner struct {
	VenueID    string
	APIKey     string
	PrivateKey ed25519.PrivateKey
}

// NewEd25519CanonicalSigner parses a private key supplied as hex or
// base64, auto-detected.
func NewEd25519CanonicalSigner(venueID, apiKey, privateKeyRaw string) (*Ed25519CanonicalSigner, error) {
	if privateKeyRaw == "" {
		return &Ed25519CanonicalSigner{VenueID: venueID, APIKey: apiKey}, nil
	}
	seed, err := decodeKeyAuto(privateKeyRaw)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.InvalidSignature, venueID, "decode ed25519 key", err)
	}
	var key ed25519.PrivateKey
	switch len(seed) {
	case ed25519.SeedSize:
		key = ed25519.NewKeyFromSeed(seed)
	case ed25519.PrivateKeySize:
		key = ed25519.PrivateKey(seed)
	default:
		return nil, xerrors.New(xerrors.InvalidSignature, venueID, "ed25519 key has unexpected length")
	}
	return &Ed25519CanonicalSigner{VenueID: venueID, APIKey: apiKey, PrivateKey: key}, nil
}

func (s *Ed25519CanonicalSigner) HasCredentials() bool {
	return len(s.PrivateKey) == ed25519.PrivateKeySize
}

func (s *Ed25519CanonicalSigner) Headers() map[string]string {
	return map[string]string{"X-API-Key": s.APIKey}
}

func (s *Ed25519CanonicalSigner) Refresh() error { return nil }

func (s *Ed25519CanonicalSigner) Sign(req Request) (Signed, error) {
	if !s.HasCredentials() {
		return Signed{}, xerrors.New(xerrors.InvalidSignature, s.VenueID, "missing ed25519 private key")
	}
	sig, err := signEd25519(s.PrivateKey, canonicalMethodPathTSWindowBody(req), s.VenueID)
	if err != nil {
		return Signed{}, err
	}
	return Signed{
		Request: req,
		Headers: map[string]string{
			"X-Signature": base64.StdEncoding.EncodeToString(sig),
			"X-API-Key":   s.APIKey,
		},
	}, nil
}
