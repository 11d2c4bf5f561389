//go:build windows
// +build windows

package keystore

import (
	"github.com/99designs/keyring"
)

func init() {
	RegisterSecretStore("windows", NewWindowsStore)
}

// NewWindowsStore creates a Windows Credential Manager secret store.
func NewWindowsStore(cfg Config) (SecretStore, error) {
	return openKeyringStore(keyring.Config{
		ServiceName:     cfg.serviceName(),
		AllowedBackends: []keyring.BackendType{keyring.WinCredBackend},
		WinCredPrefix:   cfg.serviceName(),
	})
}
