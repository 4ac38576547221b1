package signing

import (
	"encoding/hex"
	"strconv"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"golang.org/x/crypto/sha3"

	"github.com/mexoms/perpunify/pkg/xerrors"
)

// ECDSASHA3Signer implements the ECDSA-over-SHA3-256 scheme: canonical =
// timestamp||METHOD||basePath||sortedParamsAsQueryString, hashed with
// SHA3-256 and signed with a secp256k1 key (kept independent of
// go-ethereum's wrapper so this signer carries no EVM-specific coupling).
// Signature is returned as hex 0x{r64}{s64}.
type ECDSASHA3Signer struct {
	VenueID    string
	APIKey     string
	PrivateKey *secp256k1.PrivateKey
}

// NewECDSASHA3Signer parses a private key supplied as hex (with or
// without "0x") or base64, auto-detected.
func NewECDSASHA3Signer(venueID, apiKey, privateKeyRaw string) (*ECDSASHA3Signer, error) {
	if privateKeyRaw == "" {
		return &ECDSASHA3Signer{VenueID: venueID, APIKey: apiKey}, nil
	}
	raw, err := decodeKeyAuto(privateKeyRaw)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.InvalidSignature, venueID, "decode secp256k1 key", err)
	}
	if len(raw) != 32 {
		return nil, xerrors.New(xerrors.InvalidSignature, venueID, "secp256k1 key must be 32 bytes")
	}
	key := secp256k1.PrivKeyFromBytes(raw)
	return &ECDSASHA3Signer{VenueID: venueID, APIKey: apiKey, PrivateKey: key}, nil
}

func (s *ECDSASHA3Signer) HasCredentials() bool { return s.PrivateKey != nil }

func (s *ECDSASHA3Signer) Headers() map[string]string {
	return map[string]string{"X-API-Key": s.APIKey}
}

func (s *ECDSASHA3Signer) Refresh() error { return nil }

func (s *ECDSASHA3Signer) Sign(req Request) (Signed, error) {
	if !s.HasCredentials() {
		return Signed{}, xerrors.New(xerrors.InvalidSignature, s.VenueID, "missing secp256k1 private key")
	}

	canonical := strconv.FormatInt(req.Timestamp, 10) + req.Method + req.Path + sortedQueryString(req.Params)
	digest := sha3.Sum256([]byte(canonical))

	rsHex, err := signSecp256k1Hex(s.PrivateKey, digest[:], s.VenueID)
	if err != nil {
		return Signed{}, err
	}

	return Signed{
		Request: req,
		Headers: map[string]string{
			"X-Signature": rsHex,
			"X-API-Key":   s.APIKey,
		},
	}, nil
}

// signSecp256k1Hex signs digest and renders the (r, s) pair as hex
// "0x{r64}{s64}". Recovers from a panic inside the primitive (only
// reachable via a malformed key) and reports it as InvalidSignature.
func signSecp256k1Hex(key *secp256k1.PrivateKey, digest []byte, venueID string) (hexSig string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = xerrors.New(xerrors.InvalidSignature, venueID, "ecdsa signature primitive failed")
		}
	}()
	sig := ecdsa.Sign(key, digest)
	r := sig.R()
	sVal := sig.S()
	rBytes := r.Bytes()
	sBytes := sVal.Bytes()
	return "0x" + hex.EncodeToString(rBytes[:]) + hex.EncodeToString(sBytes[:]), nil
}
