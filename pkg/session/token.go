package session

import (
	"context"
	"sync"
	"time"

	"github.com/mexoms/perpunify/pkg/xerrors"
)

// TokenRefresher fetches a fresh bearer token from the venue (a login
// call, a WS auth handshake, etc).
type TokenRefresher func(ctx context.Context) (token string, expiresAt time.Time, err error)

// TokenSession holds a (token, expiresAt) pair for bearer/WebSocket
// auth, refreshing it transparently once the remaining validity window
// drops below refreshBuffer. Grounded on the teacher's TTL-bounded
// session cache, generalized to a single proactively-refreshed value
// rather than a multi-user session table.
type TokenSession struct {
	mu            sync.Mutex
	token         string
	expiresAt     time.Time
	refreshBuffer time.Duration
	refresher     TokenRefresher
	venueID       string
}

// NewTokenSession constructs a TokenSession. refreshBuffer defaults to
// 30s when non-positive.
func NewTokenSession(venueID string, refreshBuffer time.Duration, refresher TokenRefresher) *TokenSession {
	if refreshBuffer <= 0 {
		refreshBuffer = 30 * time.Second
	}
	return &TokenSession{venueID: venueID, refreshBuffer: refreshBuffer, refresher: refresher}
}

// Current returns the current token, refreshing it first if now is
// within refreshBuffer of expiry (or no token has been fetched yet).
func (s *TokenSession) Current(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.expiresAt.Add(-s.refreshBuffer)) {
		return s.token, nil
	}
	if s.refresher == nil {
		return "", xerrors.New(xerrors.ExpiredAuth, s.venueID, "token expired and no refresher configured")
	}
	token, expiresAt, err := s.refresher(ctx)
	if err != nil {
		return "", xerrors.Wrap(xerrors.ExpiredAuth, s.venueID, "refresh token", err)
	}
	s.token = token
	s.expiresAt = expiresAt
	return s.token, nil
}

// Set installs a token and expiry directly, bypassing the refresher —
// used when the venue returns a fresh token as a side effect of some
// other call (e.g. an order response carrying a renewed session token).
func (s *TokenSession) Set(token string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.expiresAt = expiresAt
}

// Reset invalidates the current token, forcing the next Current call to
// refresh.
func (s *TokenSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiresAt = time.Time{}
}
