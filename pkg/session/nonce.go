// Package session implements the two nonce/session variants a signer
// holds across its lifetime: a monotonic integer nonce for request
// ordering, and an auth-token session for bearer/WebSocket auth.
// Grounded on the teacher's atomic request-id counter in its WebSocket
// order manager, generalized to the full next/set/rollback/reset/sync
// contract.
package session

import "sync"

// Nonce is a 64-bit monotonic counter serialized so that two concurrent
// signers can never observe the same value from Next.
type Nonce struct {
	mu      sync.Mutex
	current int64
}

// NewNonce constructs a Nonce starting at the given value (Next will
// return this value on its first call).
func NewNonce(start int64) *Nonce {
	return &Nonce{current: start}
}

// Next returns the current value and atomically increments it.
func (n *Nonce) Next() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	v := n.current
	n.current++
	return v
}

// Current returns the next value that Next would hand out, without
// consuming it.
func (n *Nonce) Current() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Set synchronizes the nonce with an externally-authoritative value,
// e.g. one reported by the venue after a desync.
func (n *Nonce) Set(value int64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = value
}

// Rollback decrements the nonce by one, used when a signed message using
// the most recently issued value is known not to have been submitted.
func (n *Nonce) Rollback() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current--
}

// Reset returns the nonce to zero.
func (n *Nonce) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = 0
}

// SyncFromServer is Set under another name, matching the shared
// {next, current, set, rollback, reset, syncFromServer} interface the
// auth-token session variant also implements.
func (n *Nonce) SyncFromServer(serverValue int64) {
	n.Set(serverValue)
}
