package signing

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/pbkdf2"

	"github.com/mexoms/perpunify/pkg/xerrors"
)

// CosmosAddress derives a Cosmos SDK secp256k1 address from a BIP-39
// mnemonic along HD path m/44'/118'/0'/0/0, bech32-encoded with the
// given chain prefix. This is a read-only path: transaction signing for
// Cosmos chains is out of scope and delegated to an external
// collaborator, per the venue's own signing stack.
//
// No BIP-39/bech32 library was found anywhere in this module's
// dependency corpus, so both the seed derivation and the bech32
// encoding are implemented directly against their published algorithms
// rather than pulled in as an unvetted new dependency.
func CosmosAddress(venueID, mnemonic, passphrase, chainPrefix string) (string, error) {
	seed := pbkdf2.Key([]byte(mnemonic), []byte("mnemonic"+passphrase), 2048, 64, sha512.New)

	master, chainCode, err := hmacMasterKey(seed)
	if err != nil {
		return "", xerrors.Wrap(xerrors.InvalidSignature, venueID, "derive master key", err)
	}

	// m/44'/118'/0'/0/0 — Cosmos SDK's standard coin type 118, account 0.
	path := []uint32{hardened(44), hardened(118), hardened(0), 0, 0}
	privKey, _, err := derivePath(master, chainCode, path)
	if err != nil {
		return "", xerrors.Wrap(xerrors.InvalidSignature, venueID, "derive hd path", err)
	}

	pub := secp256k1.PrivKeyFromBytes(privKey).PubKey().SerializeCompressed()
	hash := addressHash(pub)

	addr, err := bech32Encode(chainPrefix, hash)
	if err != nil {
		return "", xerrors.Wrap(xerrors.InvalidSignature, venueID, "bech32 encode", err)
	}
	return addr, nil
}

func hardened(i uint32) uint32 { return i + 0x80000000 }

func hmacMasterKey(seed []byte) (key, chainCode []byte, err error) {
	mac := hmac.New(sha512.New, []byte("Bitcoin seed"))
	if _, err := mac.Write(seed); err != nil {
		return nil, nil, err
	}
	sum := mac.Sum(nil)
	return sum[:32], sum[32:], nil
}

// derivePath walks a BIP-32 HD derivation path using secp256k1, hardened
// indices included (index >= 0x80000000).
func derivePath(key, chainCode []byte, path []uint32) (privKey, finalChainCode []byte, err error) {
	curKey, curChain := key, chainCode
	for _, idx := range path {
		curKey, curChain, err = deriveChild(curKey, curChain, idx)
		if err != nil {
			return nil, nil, err
		}
	}
	return curKey, curChain, nil
}

func deriveChild(parentKey, parentChainCode []byte, index uint32) (childKey, childChainCode []byte, err error) {
	var data []byte
	if index >= 0x80000000 {
		data = append([]byte{0x00}, parentKey...)
	} else {
		pub := secp256k1.PrivKeyFromBytes(parentKey).PubKey().SerializeCompressed()
		data = pub
	}
	idxBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(idxBytes, index)
	data = append(data, idxBytes...)

	mac := hmac.New(sha512.New, parentChainCode)
	if _, err := mac.Write(data); err != nil {
		return nil, nil, err
	}
	sum := mac.Sum(nil)
	il, ir := sum[:32], sum[32:]

	ilScalar := new(secp256k1.ModNScalar)
	if overflow := ilScalar.SetByteSlice(il); overflow {
		return nil, nil, xerrors.New(xerrors.InvalidSignature, "", "derived scalar overflow")
	}
	parentScalar := new(secp256k1.ModNScalar)
	parentScalar.SetByteSlice(parentKey)
	ilScalar.Add(parentScalar)

	childBytes := ilScalar.Bytes()
	return childBytes[:], ir, nil
}
