//go:build linux
// +build linux

package keystore

import (
	"github.com/99designs/keyring"
)

func init() {
	RegisterSecretStore("linux", NewLinuxKeyringStore)
}

// NewLinuxKeyringStore creates a Linux secret store backed by libsecret,
// KWallet, the kernel keyring or pass, in that order of preference.
// Setting Config.FileDir adds the encrypted file backend as a last resort.
func NewLinuxKeyringStore(cfg Config) (SecretStore, error) {
	backends := []keyring.BackendType{
		keyring.SecretServiceBackend,
		keyring.KWalletBackend,
		keyring.KeyCtlBackend,
		keyring.PassBackend,
	}
	ringCfg := keyring.Config{
		ServiceName:             cfg.serviceName(),
		LibSecretCollectionName: "login",
		KWalletAppID:            cfg.serviceName(),
		KWalletFolder:           cfg.serviceName(),
		KeyCtlScope:             "user",
	}
	if cfg.FileDir != "" {
		backends = append(backends, keyring.FileBackend)
		ringCfg.FileDir = cfg.FileDir
		ringCfg.FilePasswordFunc = keyring.FixedStringPrompt(cfg.FilePassword)
	}
	ringCfg.AllowedBackends = backends
	return openKeyringStore(ringCfg)
}
