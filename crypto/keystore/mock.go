package keystore

import (
	"sort"
	"sync"
)

// MemoryStore is an in-memory implementation of SecretStore for testing.
// It counts fetches per account so callers can assert how often the store is hit.
// This is exported so it can be used by tests in other packages.
type MemoryStore struct {
	mu      sync.Mutex
	secrets map[Account]string
	fetches map[Account]int
	// Err, when set, is returned by every FetchSecret call.
	Err error
}

// NewMemoryStore creates an in-memory store holding the given secrets.
func NewMemoryStore(secrets map[Account]string) *MemoryStore {
	m := &MemoryStore{
		secrets: make(map[Account]string, len(secrets)),
		fetches: make(map[Account]int),
	}
	for account, secret := range secrets {
		m.secrets[account] = secret
	}
	return m
}

// Put stores secret under account.
func (m *MemoryStore) Put(account Account, secret string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[account] = secret
}

func (m *MemoryStore) FetchSecret(account Account) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches[account]++
	if m.Err != nil {
		return "", m.Err
	}
	if account == "" {
		return "", ErrConfiguration
	}
	secret, ok := m.secrets[account]
	if !ok || secret == "" {
		return "", ErrKeyNotFound
	}
	return secret, nil
}

func (m *MemoryStore) ListAccounts() ([]Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	accounts := make([]Account, 0, len(m.secrets))
	for account := range m.secrets {
		accounts = append(accounts, account)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i] < accounts[j] })
	return accounts, nil
}

// Fetches returns how many times FetchSecret was called for account.
func (m *MemoryStore) Fetches(account Account) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches[account]
}
