// Package signing implements the uniform Signer contract and the seven
// concrete signing schemes venue drivers compose it from. Every scheme
// is constant-time at the signature primitive, fails with
// xerrors.InvalidSignature on any internal error, and never logs or
// returns secret material.
package signing

// Request is the uniform pre-signature shape every scheme consumes.
type Request struct {
	Method      string
	Path        string
	Body        string            // compact JSON, or empty
	Params      map[string]string // query/body params folded into the canonical message
	Instruction string            // optional venue-defined instruction tag
	Timestamp   int64             // unix seconds unless a scheme says otherwise
	Window      int64             // recv window / signature validity window, in ms
}

// Signed is req plus whatever the scheme produced: headers to attach,
// and optionally a rewritten body/params (some schemes inline the
// signature into the query string or body rather than a header).
type Signed struct {
	Request
	Headers map[string]string
}

// Signer is the contract every signing scheme implements.
type Signer interface {
	// Sign computes the scheme's canonical message, signs it, and
	// returns req augmented with the signature material.
	Sign(req Request) (Signed, error)
	// Headers returns static headers this signer always attaches
	// (api key, passphrase, …), independent of any particular request.
	Headers() map[string]string
	// HasCredentials reports whether this signer has what it needs to
	// sign a request right now.
	HasCredentials() bool
	// Refresh re-derives or renews any short-lived material (tokens,
	// derived keys). A no-op for schemes with none.
	Refresh() error
}
