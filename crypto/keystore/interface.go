package keystore

// Account names one secret in the credential store.
//
// Accounts are opaque: the keystore does not validate them against any
// allow-list. One account maps to exactly one bech32-encoded private key.
type Account string

// SecretStore is the interface for reading nostr secrets from an OS credential store.
//
// Implementations must never include stored secret material in returned errors.
// Failures are reported through the sentinel errors in this package so that
// callers can classify them with errors.Is.
type SecretStore interface {
	// FetchSecret returns the bech32-encoded secret stored for account, verbatim.
	// Returns ErrKeychainAccess if the store cannot be reached or denies access,
	// and ErrKeyNotFound if no non-empty secret is stored for the account.
	FetchSecret(account Account) (string, error)
	// ListAccounts returns all accounts that have a secret in the store.
	ListAccounts() ([]Account, error)
}

// Config selects and configures the credential store backend.
type Config struct {
	// ServiceName is the fixed namespace secrets are stored under.
	// Defaults to DefaultServiceName.
	ServiceName string
	// KeychainName selects a macOS keychain. Empty means the login keychain.
	KeychainName string
	// FileDir enables the encrypted file backend on Linux when set.
	FileDir string
	// FilePassword unlocks the encrypted file backend.
	FilePassword string
}

// DefaultServiceName is the credential store namespace used when Config.ServiceName is empty.
const DefaultServiceName = "nostrhost"

func (c Config) serviceName() string {
	if c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}
