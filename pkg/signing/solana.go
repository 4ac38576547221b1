package signing

import (
	"crypto/ed25519"
	"encoding/base64"

	"github.com/mexoms/perpunify/pkg/xerrors"
)

// SolanaSigner implements the Solana Ed25519 scheme: canonical message
// is identical to the method-path-ts-window-body scheme, signed with a
// Solana keypair (an Ed25519 key, identical primitive to the generic
// Ed25519-canonical signer — kept as a distinct type since Solana wallets
// are conventionally supplied as a 64-byte keypair rather than a 32-byte
// seed or PKCS8 key).
type SolanaSigner struct {
	VenueID    string
	PublicKey  string // base58 or base64, venue-dependent presentation only
	PrivateKey ed25519.PrivateKey
}

// NewSolanaSigner parses a 64-byte Solana keypair supplied as base64 or
// hex, auto-detected.
func NewSolanaSigner(venueID, publicKey, keypairRaw string) (*SolanaSigner, error) {
	if keypairRaw == "" {
		return &SolanaSigner{VenueID: venueID, PublicKey: publicKey}, nil
	}
	raw, err := decodeKeyAuto(keypairRaw)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.InvalidSignature, venueID, "decode solana keypair", err)
	}
	if len(raw) != ed25519.PrivateKeySize {
		return nil, xerrors.New(xerrors.InvalidSignature, venueID, "solana keypair must be 64 bytes")
	}
	return &SolanaSigner{VenueID: venueID, PublicKey: publicKey, PrivateKey: ed25519.PrivateKey(raw)}, nil
}

func (s *SolanaSigner) HasCredentials() bool { return len(s.PrivateKey) == ed25519.PrivateKeySize }

func (s *SolanaSigner) Headers() map[string]string {
	return map[string]string{"X-Public-Key": s.PublicKey}
}

func (s *SolanaSigner) Refresh() error { return nil }

func (s *SolanaSigner) Sign(req Request) (Signed, error) {
	if !s.HasCredentials() {
		return Signed{}, xerrors.New(xerrors.InvalidSignature, s.VenueID, "missing solana keypair")
	}
	sig, err := signEd25519(s.PrivateKey, canonicalMethodPathTSWindowBody(req), s.VenueID)
	if err != nil {
		return Signed{}, err
	}
	return Signed{
		Request: req,
		Headers: map[string]string{
			"X-Signature":  base64.StdEncoding.EncodeToString(sig),
			"X-Public-Key": s.PublicKey,
		},
	}, nil
}
