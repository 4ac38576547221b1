package signing

import (
	"sort"
	"strings"
)

// sortedQueryString joins params sorted ascending by key as "k=v&k=v…",
// the canonical form every query-string-based scheme signs over.
func sortedQueryString(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, "&")
}

// decodeKeyAuto decodes a private key supplied as hex (with or without a
// leading "0x") or base64, auto-detecting the encoding by attempting hex
// first since key material never legitimately decodes as both.
func decodeKeyAuto(raw string) ([]byte, error) {
	trimmed := strings.TrimPrefix(raw, "0x")
	if b, err := decodeHex(trimmed); err == nil {
		return b, nil
	}
	return decodeBase64(raw)
}
