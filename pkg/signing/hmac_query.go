package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/mexoms/perpunify/pkg/xerrors"
)

// HMACQuerySigner implements the HMAC-SHA256 query-string scheme used by
// Binance- and Bybit-style venues: canonical = params sorted by key
// joined "k=v&…", with timestamp and recvWindow appended, HMAC-SHA256'd
// with the API secret and hex-encoded.
type HMACQuerySigner struct {
	VenueID       string
	APIKey        string
	Secret        string
	RecvWindowMs  int64
	// HeaderName, when set, places the signature in this header
	// (bybit-style: X-BAPI-SIGN) instead of as a query param (binance-style).
	HeaderName string
}

// NewHMACQuerySigner constructs a signer, defaulting RecvWindowMs to 5000.
func NewHMACQuerySigner(venueID, apiKey, secret string, recvWindowMs int64, headerName string) *HMACQuerySigner {
	if recvWindowMs <= 0 {
		recvWindowMs = 5000
	}
	return &HMACQuerySigner{VenueID: venueID, APIKey: apiKey, Secret: secret, RecvWindowMs: recvWindowMs, HeaderName: headerName}
}

func (s *HMACQuerySigner) HasCredentials() bool { return s.APIKey != "" && s.Secret != "" }

func (s *HMACQuerySigner) Headers() map[string]string {
	return map[string]string{"X-API-Key": s.APIKey}
}

func (s *HMACQuerySigner) Refresh() error { return nil }

func (s *HMACQuerySigner) Sign(req Request) (Signed, error) {
	if !s.HasCredentials() {
		return Signed{}, xerrors.New(xerrors.InvalidSignature, s.VenueID, "missing api key or secret")
	}

	params := cloneParams(req.Params)
	ts := strconv.FormatInt(req.Timestamp, 10)
	window := strconv.FormatInt(s.RecvWindowMs, 10)
	canonical := sortedQueryString(params)
	if canonical != "" {
		canonical += "&"
	}
	canonical += "timestamp=" + ts + "&recvWindow=" + window
	params["timestamp"] = ts
	params["recvWindow"] = window

	mac := hmac.New(sha256.New, []byte(s.Secret))
	if _, err := mac.Write([]byte(canonical)); err != nil {
		return Signed{}, xerrors.Wrap(xerrors.InvalidSignature, s.VenueID, "hmac write failed", err)
	}
	sig := hex.EncodeToString(mac.Sum(nil))

	out := req
	out.Params = params

	signed := Signed{Request: out, Headers: map[string]string{}}
	if s.HeaderName != "" {
		// bybit-style: timestamp + apiKey + recvWindow + canonical body/query go in the header scheme.
		headerMAC := hmac.New(sha256.New, []byte(s.Secret))
		headerMsg := ts + s.APIKey + window + canonical
		headerMAC.Write([]byte(headerMsg))
		signed.Headers[s.HeaderName] = hex.EncodeToString(headerMAC.Sum(nil))
		signed.Headers["X-BAPI-API-KEY"] = s.APIKey
		signed.Headers["X-BAPI-TIMESTAMP"] = ts
		signed.Headers["X-BAPI-RECV-WINDOW"] = window
	} else {
		signed.Request.Params["signature"] = sig
	}
	return signed, nil
}

func cloneParams(p map[string]string) map[string]string {
	out := make(map[string]string, len(p)+2)
	for k, v := range p {
		out[k] = v
	}
	return out
}
