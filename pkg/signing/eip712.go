package signing

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/mexoms/perpunify/pkg/xerrors"
)

// TypedDataBuilder produces the per-action (Order, Cancel, StreamAuth,
// Agent) EIP-712 domain/types/message for a request. Each venue supplies
// its own, since the verifying contract and field layout differ by
// action and product.
type TypedDataBuilder func(req Request) (domain apitypes.TypedDataDomain, types apitypes.Types, message apitypes.TypedDataMessage, primaryType string)

// EIP712Signer implements the EIP-712 typed-data scheme: the canonical
// message is a typed-data struct (Domain, Types, Value) specific to the
// action being signed; the signature is a 65-byte secp256k1 signature.
type EIP712Signer struct {
	VenueID    string
	PrivateKey *ecdsa.PrivateKey
	Address    common.Address
	Builder    TypedDataBuilder
}

// NewEIP712Signer constructs a signer from a hex-encoded ECDSA private
// key (with or without a leading "0x").
func NewEIP712Signer(venueID, privateKeyHex string, builder TypedDataBuilder) (*EIP712Signer, error) {
	if privateKeyHex == "" {
		return &EIP712Signer{VenueID: venueID, Builder: builder}, nil
	}
	key, err := crypto.HexToECDSA(trimHexPrefix(privateKeyHex))
	if err != nil {
		return nil, xerrors.Wrap(xerrors.InvalidSignature, venueID, "parse ecdsa private key", err)
	}
	return &EIP712Signer{
		VenueID:    venueID,
		PrivateKey: key,
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		Builder:    builder,
	}, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[:2] == "0x" {
		return s[2:]
	}
	return s
}

func (s *EIP712Signer) HasCredentials() bool { return s.PrivateKey != nil }

func (s *EIP712Signer) Headers() map[string]string {
	if s.PrivateKey == nil {
		return nil
	}
	return map[string]string{"X-Address": s.Address.Hex()}
}

func (s *EIP712Signer) Refresh() error { return nil }

func (s *EIP712Signer) Sign(req Request) (Signed, error) {
	if !s.HasCredentials() {
		return Signed{}, xerrors.New(xerrors.InvalidSignature, s.VenueID, "missing ecdsa private key")
	}
	if s.Builder == nil {
		return Signed{}, xerrors.New(xerrors.InvalidSignature, s.VenueID, "no typed-data builder configured")
	}

	domain, types, message, primaryType := s.Builder(req)
	typedData := apitypes.TypedData{Types: types, PrimaryType: primaryType, Domain: domain, Message: message}

	hash, _, err := apitypes.TypedDataAndHash(typedData)
	if err != nil {
		return Signed{}, xerrors.Wrap(xerrors.InvalidSignature, s.VenueID, "typed data hash", err)
	}

	sig, err := signTypedDataHash(s.PrivateKey, hash, s.VenueID)
	if err != nil {
		return Signed{}, err
	}

	return Signed{
		Request: req,
		Headers: map[string]string{
			"X-Signature": "0x" + common.Bytes2Hex(sig),
			"X-Address":   s.Address.Hex(),
		},
	}, nil
}

// signTypedDataHash signs hash and normalizes the recovery byte to
// 27/28, recovering from any panic inside the primitive and reporting
// it as InvalidSignature.
func signTypedDataHash(key *ecdsa.PrivateKey, hash []byte, venueID string) (sig []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			sig = nil
			err = xerrors.New(xerrors.InvalidSignature, venueID, "ecdsa signature primitive failed")
		}
	}()
	sig, err = crypto.Sign(hash, key)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.InvalidSignature, venueID, "sign typed data", err)
	}
	if sig[64] < 27 {
		sig[64] += 27
	}
	return sig, nil
}

// ChainIDToHexOrDecimal converts a chain id to the type apitypes.TypedDataDomain
// expects, a thin convenience so venue builders don't each import ethmath.
func ChainIDToHexOrDecimal(chainID int64) *ethmath.HexOrDecimal256 {
	return (*ethmath.HexOrDecimal256)(big.NewInt(chainID))
}
