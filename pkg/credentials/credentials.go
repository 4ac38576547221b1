// Package credentials loads venue API keys and secret material from a
// Vault-backed store or an encrypted local file, feeding exchange.Config
// and signer key material without ever logging secret values.
package credentials

import "time"

// Key is a venue's decrypted credential set. Passphrase and Extra are
// populated only for venues that need them (Passphrase for OKX-style
// venues, Extra for anything else a signer requires, e.g. a Cosmos
// mnemonic or an Ed25519 seed).
type Key struct {
	Venue      string
	Market     string
	APIKey     string
	SecretKey  string
	Passphrase string
	Extra      map[string]string

	CreatedAt   time.Time
	UpdatedAt   time.Time
	RotationDue time.Time
}

// rotationWindow is how long a stored key is considered fresh before
// NeedsRotation reports true, matching the teacher keystore's policy.
const rotationWindow = 30 * 24 * time.Hour

// NeedsRotation reports whether k is past its rotation-due timestamp.
func (k Key) NeedsRotation(now time.Time) bool {
	return !k.RotationDue.IsZero() && now.After(k.RotationDue)
}

// Source loads and stores venue credentials. Both the Vault-backed and
// encrypted-local-file implementations satisfy it.
type Source interface {
	Get(venue, market string) (Key, error)
	Store(key Key) error
	List() ([]Key, error)
	Delete(venue, market string) error
}

func keyID(venue, market string) string {
	if market == "" {
		return venue
	}
	return venue + "_" + market
}
