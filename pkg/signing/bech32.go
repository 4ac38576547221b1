package signing

import (
	"crypto/sha256"
	"strings"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // required by the Cosmos SDK address algorithm
)

// addressHash is the Cosmos SDK account address algorithm:
// RIPEMD-160(SHA-256(compressed public key)).
func addressHash(pub []byte) []byte {
	sha := sha256.Sum256(pub)
	r := ripemd160.New()
	r.Write(sha[:])
	return r.Sum(nil)
}

const bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"

// bech32Encode implements BIP-173 bech32 encoding. No bech32 library was
// found anywhere in this module's dependency corpus, so this is
// implemented directly against the published algorithm.
func bech32Encode(hrp string, data []byte) (string, error) {
	values := convertBits(data, 8, 5, true)
	checksum := bech32Checksum(hrp, values)
	combined := append(values, checksum...)

	var sb strings.Builder
	sb.WriteString(hrp)
	sb.WriteByte('1')
	for _, v := range combined {
		sb.WriteByte(bech32Charset[v])
	}
	return sb.String(), nil
}

func convertBits(data []byte, fromBits, toBits uint, pad bool) []byte {
	var acc uint32
	var bits uint
	maxv := uint32(1)<<toBits - 1
	var ret []byte
	for _, b := range data {
		acc = (acc << fromBits) | uint32(b)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			ret = append(ret, byte((acc>>bits)&maxv))
		}
	}
	if pad && bits > 0 {
		ret = append(ret, byte((acc<<(toBits-bits))&maxv))
	}
	return ret
}

func bech32Polymod(values []byte) uint32 {
	gen := []uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}
	chk := uint32(1)
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i := 0; i < 5; i++ {
			if (top>>uint(i))&1 == 1 {
				chk ^= gen[i]
			}
		}
	}
	return chk
}

func bech32HRPExpand(hrp string) []byte {
	ret := make([]byte, 0, len(hrp)*2+1)
	for _, c := range hrp {
		ret = append(ret, byte(c)>>5)
	}
	ret = append(ret, 0)
	for _, c := range hrp {
		ret = append(ret, byte(c)&31)
	}
	return ret
}

func bech32Checksum(hrp string, data []byte) []byte {
	values := append(bech32HRPExpand(hrp), data...)
	values = append(values, []byte{0, 0, 0, 0, 0, 0}...)
	mod := bech32Polymod(values) ^ 1
	ret := make([]byte, 6)
	for i := 0; i < 6; i++ {
		ret[i] = byte((mod >> uint(5*(5-i))) & 31)
	}
	return ret
}
