package keystore

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

// KeyringStore implements SecretStore on top of an opened keyring.
// Every platform backend (Keychain, Secret Service, WinCred, ...) goes through it.
type KeyringStore struct {
	ring keyring.Keyring
}

// NewKeyringStore wraps an already opened keyring.
func NewKeyringStore(ring keyring.Keyring) *KeyringStore {
	return &KeyringStore{ring: ring}
}

// openKeyringStore opens a keyring restricted to the given backends.
func openKeyringStore(cfg keyring.Config) (*KeyringStore, error) {
	ring, err := keyring.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	return NewKeyringStore(ring), nil
}

// FetchSecret returns the secret stored for account.
//
// The underlying keyring error is not wrapped; some backends echo item
// contents in their diagnostics.
func (k *KeyringStore) FetchSecret(account Account) (string, error) {
	if account == "" {
		return "", ErrConfiguration
	}
	item, err := k.ring.Get(string(account))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", ErrKeyNotFound
		}
		return "", ErrKeychainAccess
	}
	if len(item.Data) == 0 {
		return "", ErrKeyNotFound
	}
	return string(item.Data), nil
}

// ListAccounts returns all accounts stored under the service namespace.
func (k *KeyringStore) ListAccounts() ([]Account, error) {
	keys, err := k.ring.Keys()
	if err != nil {
		return nil, ErrKeychainAccess
	}
	result := make([]Account, len(keys))
	for i, key := range keys {
		result[i] = Account(key)
	}
	return result, nil
}
