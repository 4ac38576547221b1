package signing

import (
	"crypto/ed25519"
	"encoding/base64"
	"sort"
	"strconv"
	"strings"

	"github.com/mexoms/perpunify/pkg/xerrors"
)

// Ed25519AlphabetizedSigner implements the Ed25519-over-alphabetized-params
// scheme: canonical = all body params union {instruction?, timestamp,
// window}, keys sorted ascending, joined "k=v&…", UTF-8 encoded, signed
// with Ed25519 and base64-encoded.
type Ed25519AlphabetizedSigner struct {
	VenueID    string
	APIKey     string
	PrivateKey ed25519.PrivateKey
}

// NewEd25519AlphabetizedSigner parses a private key supplied as hex
// (with or without "0x") or base64, auto-detected.
func NewEd25519AlphabetizedSigner(venueID, apiKey, privateKeyRaw string) (*Ed25519AlphabetizedSigner, error) {
	if privateKeyRaw == "" {
		return &Ed25519AlphabetizedSigner{VenueID: venueID, APIKey: apiKey}, nil
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
	return &Ed25519AlphabetizedSigner{VenueID: venueID, APIKey: apiKey, PrivateKey: key}, nil
}

func (s *Ed25519AlphabetizedSigner) HasCredentials() bool { return len(s.PrivateKey) == ed25519.PrivateKeySize }

func (s *Ed25519AlphabetizedSigner) Headers() map[string]string {
	return map[string]string{"X-API-Key": s.APIKey}
}

func (s *Ed25519AlphabetizedSigner) Refresh() error { return nil }

func (s *Ed25519AlphabetizedSigner) Sign(req Request) (Signed, error) {
	if !s.HasCredentials() {
		return Signed{}, xerrors.New(xerrors.InvalidSignature, s.VenueID, "missing ed25519 private key")
	}

	fields := cloneParams(req.Params)
	if req.Instruction != "" {
		fields["instruction"] = req.Instruction
	}
	fields["timestamp"] = strconv.FormatInt(req.Timestamp, 10)
	fields["window"] = strconv.FormatInt(req.Window, 10)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+fields[k])
	}
	message := strings.Join(parts, "&")

	sig, err := signEd25519(s.PrivateKey, []byte(message), s.VenueID)
	if err != nil {
		return Signed{}, err
	}

	out := req
	signed := Signed{Request: out, Headers: map[string]string{
		"X-Signature": base64.StdEncoding.EncodeToString(sig),
		"X-API-Key":   s.APIKey,
	}}
	return signed, nil
}

// signEd25519 recovers from a panic inside the signature primitive (a
// malformed key is the only way ed25519.Sign can fail) and reports it as
// InvalidSignature rather than propagating a runtime panic.
func signEd25519(key ed25519.PrivateKey, message []byte, venueID string) (sig []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			sig = nil
			err = xerrors.New(xerrors.InvalidSignature, venueID, "ed25519 signature primitive failed")
		}
	}()
	return ed25519.Sign(key, message), nil
}
