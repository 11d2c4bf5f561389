//go:build darwin
// +build darwin

package keystore

import (
	"github.com/99designs/keyring"
)

func init() {
	RegisterSecretStore("darwin", NewKeychainStore)
}

// NewKeychainStore creates a macOS Keychain secret store.
// An empty Config.KeychainName uses the login keychain, which is unlocked while
// the user is logged in and avoids extra password prompts.
func NewKeychainStore(cfg Config) (SecretStore, error) {
	return openKeyringStore(keyring.Config{
		ServiceName:              cfg.serviceName(),
		AllowedBackends:          []keyring.BackendType{keyring.KeychainBackend},
		KeychainName:             cfg.KeychainName,
		KeychainTrustApplication: true,
	})
}
