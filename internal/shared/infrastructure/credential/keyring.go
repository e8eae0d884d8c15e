package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

// KeyringConfig selects where the session token is stored.
type KeyringConfig struct {
	Service string
	Key     string
	FileDir string
}

// Keyring stores the session token in the OS keychain, falling back to an
// encrypted file when no system backend is available.
type Keyring struct {
	ring keyring.Keyring
	key  string
}

func OpenKeyring(cfg KeyringConfig) (*Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: cfg.Service,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  cfg.FileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt(cfg.Service + "-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewKeyring(ring, cfg.Key), nil
}

// NewKeyring wraps an already opened keyring.
func NewKeyring(ring keyring.Keyring, key string) *Keyring {
	return &Keyring{ring: ring, key: key}
}

func (k *Keyring) Token() (string, error) {
	item, err := k.ring.Get(k.key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoCredential
	}
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", k.key, err)
	}
	return Static(item.Data).Token()
}

func (k *Keyring) Save(token string) error {
	err := k.ring.Set(keyring.Item{
		Key:   k.key,
		Data:  []byte(token),
		Label: "portal notification token",
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", k.key, err)
	}
	return nil
}

func (k *Keyring) Delete() error {
	err := k.ring.Remove(k.key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", k.key, err)
	}
	return nil
}
