package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"github.com/mexoms/perpunify/pkg/xerrors"
)

// FileSource is an AES-GCM-encrypted, PBKDF2-derived-key credential
// store for environments without Vault, grounded on the teacher's
// pkg/security.KeyStore. The on-disk format is unchanged: a random salt
// file alongside an encrypted JSON blob, written atomically via a
// rename.
type FileSource struct {
	mu       sync.RWMutex
	filePath string
	password []byte
	salt     []byte
}

// NewFileSource opens (or creates) the keystore file at path, deriving
// its encryption key from password via PBKDF2-SHA256 with a persisted
// random salt.
func NewFileSource(path, password string) (*FileSource, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("credentials: create keystore dir: %w", err)
	}

	fs := &FileSource{filePath: path}

	saltFile := path + ".salt"
	salt, err := os.ReadFile(saltFile)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("credentials: read salt: %w", err)
		}
		salt = make([]byte, 32)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("credentials: generate salt: %w", err)
		}
		if err := os.WriteFile(saltFile, salt, 0o600); err != nil {
			return nil, fmt.Errorf("credentials: write salt: %w", err)
		}
	}
	fs.salt = salt
	fs.password = pbkdf2.Key([]byte(password), fs.salt, 100_000, 32, sha256.New)
	return fs, nil
}

// Get decrypts and returns venue's credentials.
func (fs *FileSource) Get(venue, market string) (Key, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	keys, err := fs.loadKeys()
	if err != nil {
		return Key{}, err
	}
	k, ok := keys[keyID(venue, market)]
	if !ok {
		return Key{}, xerrors.New(xerrors.ExpiredAuth, venue, "no credentials stored")
	}
	return k, nil
}

// Store encrypts and persists key, stamping CreatedAt/UpdatedAt/
// RotationDue.
func (fs *FileSource) Store(key Key) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	keys, err := fs.loadKeys()
	if err != nil {
		return err
	}

	now := time.Now()
	if key.CreatedAt.IsZero() {
		key.CreatedAt = now
	}
	key.UpdatedAt = now
	key.RotationDue = now.Add(rotationWindow)
	keys[keyID(key.Venue, key.Market)] = key

	return fs.saveKeys(keys)
}

// List returns every stored credential with secret values masked.
func (fs *FileSource) List() ([]Key, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	keys, err := fs.loadKeys()
	if err != nil {
		return nil, err
	}
	out := make([]Key, 0, len(keys))
	for _, k := range keys {
		k.APIKey = mask(k.APIKey)
		k.SecretKey = "***"
		if k.Passphrase != "" {
			k.Passphrase = "***"
		}
		out = append(out, k)
	}
	return out, nil
}

// Delete removes venue's credentials from the keystore.
func (fs *FileSource) Delete(venue, market string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	keys, err := fs.loadKeys()
	if err != nil {
		return err
	}
	delete(keys, keyID(venue, market))
	return fs.saveKeys(keys)
}

func (fs *FileSource) loadKeys() (map[string]Key, error) {
	data, err := os.ReadFile(fs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]Key), nil
		}
		return nil, fmt.Errorf("credentials: read keystore: %w", err)
	}

	decrypted, err := fs.decrypt(data)
	if err != nil {
		return nil, fmt.Errorf("credentials: decrypt keystore: %w", err)
	}
	var keys map[string]Key
	if err := json.Unmarshal(decrypted, &keys); err != nil {
		return nil, fmt.Errorf("credentials: unmarshal keystore: %w", err)
	}
	return keys, nil
}

func (fs *FileSource) saveKeys(keys map[string]Key) error {
	data, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("credentials: marshal keystore: %w", err)
	}
	encrypted, err := fs.encrypt(data)
	if err != nil {
		return fmt.Errorf("credentials: encrypt keystore: %w", err)
	}

	tmp := fs.filePath + ".tmp"
	if err := os.WriteFile(tmp, encrypted, 0o600); err != nil {
		return fmt.Errorf("credentials: write keystore: %w", err)
	}
	return os.Rename(tmp, fs.filePath)
}

func (fs *FileSource) encrypt(data []byte) ([]byte, error) {
	block, err := aes.NewCipher(fs.password)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	ciphertext := gcm.Seal(nonce, nonce, data, nil)
	return []byte(base64.StdEncoding.EncodeToString(ciphertext)), nil
}

func (fs *FileSource) decrypt(data []byte) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(string(data))
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(fs.password)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
