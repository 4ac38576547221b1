package credentials

import (
	"fmt"
	"time"

	vault "github.com/hashicorp/vault/api"

	"github.com/mexoms/perpunify/pkg/xerrors"
)

// VaultConfig configures the Vault-backed credential source. Address and
// Token default from VAULT_ADDR/VAULT_TOKEN when empty, matching the
// teacher's client.
type VaultConfig struct {
	Address   string
	Token     string
	MountPath string // KV v2 mount, defaults to "secret"
}

func (c VaultConfig) withDefaults() VaultConfig {
	if c.MountPath == "" {
		c.MountPath = "secret"
	}
	return c
}

// VaultSource loads and stores venue credentials in a Vault KV v2 mount,
// grounded on the teacher's pkg/vault.Client and
// internal/keymanager.VaultClient, trimmed to token auth and a single
// mount path (no AppRole, audit log, or emergency break-glass path —
// those are operational concerns outside this library).
type VaultSource struct {
	client    *vault.Client
	mountPath string
}

// NewVaultSource dials Vault and verifies it is unsealed before
// returning, matching the teacher's fail-fast construction.
func NewVaultSource(cfg VaultConfig) (*VaultSource, error) {
	cfg = cfg.withDefaults()

	vc := vault.DefaultConfig()
	if cfg.Address != "" {
		vc.Address = cfg.Address
	}
	client, err := vault.NewClient(vc)
	if err != nil {
		return nil, fmt.Errorf("credentials: create vault client: %w", err)
	}
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}

	health, err := client.Sys().Health()
	if err != nil {
		return nil, fmt.Errorf("credentials: vault health check: %w", err)
	}
	if health.Sealed {
		return nil, fmt.Errorf("credentials: vault is sealed")
	}

	return &VaultSource{client: client, mountPath: cfg.MountPath}, nil
}

func (s *VaultSource) path(venue, market string) string {
	return fmt.Sprintf("%s/data/perpunify/%s", s.mountPath, keyID(venue, market))
}

func (s *VaultSource) metadataPath(venue, market string) string {
	return fmt.Sprintf("%s/metadata/perpunify/%s", s.mountPath, keyID(venue, market))
}

// Get loads and decodes a venue's credentials from Vault.
func (s *VaultSource) Get(venue, market string) (Key, error) {
	secret, err := s.client.Logical().Read(s.path(venue, market))
	if err != nil {
		return Key{}, xerrors.Wrap(xerrors.Network, venue, "vault read failed", err)
	}
	if secret == nil || secret.Data == nil {
		return Key{}, xerrors.New(xerrors.ExpiredAuth, venue, "no credentials stored")
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return Key{}, xerrors.New(xerrors.ExpiredAuth, venue, "malformed vault secret")
	}
	return decodeSecret(venue, market, data), nil
}

// Store writes key's fields to Vault, stamping CreatedAt/UpdatedAt/
// RotationDue the way the local keystore does.
func (s *VaultSource) Store(key Key) error {
	now := time.Now()
	if key.CreatedAt.IsZero() {
		key.CreatedAt = now
	}
	key.UpdatedAt = now
	key.RotationDue = now.Add(rotationWindow)

	payload := map[string]interface{}{
		"data": encodeSecret(key),
	}
	if _, err := s.client.Logical().Write(s.path(key.Venue, key.Market), payload); err != nil {
		return xerrors.Wrap(xerrors.Network, key.Venue, "vault write failed", err)
	}
	return nil
}

// List returns every stored credential's metadata without secret values
// (API key, secret key, and passphrase are masked).
func (s *VaultSource) List() ([]Key, error) {
	secret, err := s.client.Logical().List(fmt.Sprintf("%s/metadata/perpunify", s.mountPath))
	if err != nil {
		return nil, xerrors.Wrap(xerrors.Network, "", "vault list failed", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, nil
	}
	rawKeys, _ := secret.Data["keys"].([]interface{})

	keys := make([]Key, 0, len(rawKeys))
	for _, rk := range rawKeys {
		id, _ := rk.(string)
		read, err := s.client.Logical().Read(fmt.Sprintf("%s/data/perpunify/%s", s.mountPath, id))
		if err != nil || read == nil || read.Data == nil {
			continue
		}
		data, _ := read.Data["data"].(map[string]interface{})
		k := decodeSecret("", "", data)
		k.APIKey = mask(k.APIKey)
		k.SecretKey = "***"
		if k.Passphrase != "" {
			k.Passphrase = "***"
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// Delete removes a venue's credentials (and their metadata/version
// history) from Vault.
func (s *VaultSource) Delete(venue, market string) error {
	if _, err := s.client.Logical().Delete(s.metadataPath(venue, market)); err != nil {
		return xerrors.Wrap(xerrors.Network, venue, "vault delete failed", err)
	}
	return nil
}

func encodeSecret(key Key) map[string]interface{} {
	data := map[string]interface{}{
		"venue":      key.Venue,
		"market":     key.Market,
		"api_key":    key.APIKey,
		"secret_key": key.SecretKey,
	}
	if key.Passphrase != "" {
		data["passphrase"] = key.Passphrase
	}
	for k, v := range key.Extra {
		data["extra_"+k] = v
	}
	return data
}

func decodeSecret(venue, market string, data map[string]interface{}) Key {
	k := Key{Venue: venue, Market: market}
	if v, ok := data["venue"].(string); ok {
		k.Venue = v
	}
	if v, ok := data["market"].(string); ok {
		k.Market = v
	}
	if v, ok := data["api_key"].(string); ok {
		k.APIKey = v
	}
	if v, ok := data["secret_key"].(string); ok {
		k.SecretKey = v
	}
	if v, ok := data["passphrase"].(string); ok {
		k.Passphrase = v
	}
	for dk, dv := range data {
		if s, ok := dv.(string); ok && len(dk) > 6 && dk[:6] == "extra_" {
			if k.Extra == nil {
				k.Extra = make(map[string]string)
			}
			k.Extra[dk[6:]] = s
		}
	}
	return k
}

func mask(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:8] + "..."
}
