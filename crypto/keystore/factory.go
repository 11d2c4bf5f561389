package keystore

import (
	"fmt"
	"runtime"
	"strings"
)

// NewSecretStore creates a platform-specific secret store.
// Uses the registry to find the appropriate factory for the current platform.
func NewSecretStore(cfg Config) (SecretStore, error) {
	factory, err := GetSecretStoreFactory(runtime.GOOS)
	if err != nil {
		return nil, fmt.Errorf("%w: unsupported platform %s (supported: %s)",
			ErrConfiguration, runtime.GOOS, strings.Join(registeredPlatforms(), ", "))
	}
	return factory(cfg)
}
