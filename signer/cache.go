package signer

import (
	"github.com/joncooperworks/nostrhost/crypto"
	"github.com/joncooperworks/nostrhost/crypto/keystore"
	"github.com/puzpuzpuz/xsync/v3"
)

// PublicKeyCache maps accounts to their derived public keys for the lifetime
// of the process.
//
// Entries are created once and never evicted or updated: an account's secret
// is assumed immutable once provisioned. Two concurrent misses for the same
// account may both derive the key; derivation is deterministic, so the second
// store is a no-op in effect.
type PublicKeyCache struct {
	keys *xsync.MapOf[keystore.Account, [crypto.PublicKeySize]byte]
}

// NewPublicKeyCache creates an empty cache.
func NewPublicKeyCache() *PublicKeyCache {
	return &PublicKeyCache{
		keys: xsync.NewMapOf[keystore.Account, [crypto.PublicKeySize]byte](),
	}
}

// Get returns the cached key for account, calling derive on a miss.
// A failed derivation is not cached.
func (c *PublicKeyCache) Get(account keystore.Account, derive func() ([crypto.PublicKeySize]byte, error)) ([crypto.PublicKeySize]byte, error) {
	if pub, ok := c.keys.Load(account); ok {
		return pub, nil
	}
	pub, err := derive()
	if err != nil {
		return pub, err
	}
	c.keys.Store(account, pub)
	return pub, nil
}

// size returns the number of cached accounts.
func (c *PublicKeyCache) size() int {
	return c.keys.Size()
}
