package keystore

import (
	"fmt"
	"sort"
	"sync"
)

// SecretStoreFactory opens the secret store of one platform.
type SecretStoreFactory func(cfg Config) (SecretStore, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]SecretStoreFactory)
)

// RegisterSecretStore registers the factory for a runtime.GOOS value.
// Platform backends call it from init.
func RegisterSecretStore(platform string, factory SecretStoreFactory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[platform] = factory
}

// GetSecretStoreFactory returns the factory registered for platform.
func GetSecretStoreFactory(platform string) (SecretStoreFactory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	factory, ok := registry[platform]
	if !ok {
		return nil, fmt.Errorf("no secret store for platform %s", platform)
	}
	return factory, nil
}

// registeredPlatforms returns the registered platform identifiers, sorted.
func registeredPlatforms() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	platforms := make([]string, 0, len(registry))
	for platform := range registry {
		platforms = append(platforms, platform)
	}
	sort.Strings(platforms)
	return platforms
}
