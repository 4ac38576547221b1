package signing

import "encoding/base64"
import "encoding/hex"

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(s)
}

// decodeBase64 tries every base64 variant venues are observed to use for
// secret material, mirroring the multi-decoder fallback the Polymarket
// driver uses for its HMAC secret.
func decodeBase64(s string) ([]byte, error) {
	variants := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var lastErr error
	for _, enc := range variants {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		} else {
			lastErr = err
		}
	}
	return nil, lastErr
}
