// Package signer performs nostr operations on behalf of keystore accounts.
// It coordinates between the keystore and crypto packages: secrets are fetched
// and decoded per operation, used once, and zeroized before returning.
//
// This package does not perform any logging. Errors are sentinel kinds from
// the keystore and crypto packages and never carry key material.
package signer

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/joncooperworks/nostrhost/crypto"
	"github.com/joncooperworks/nostrhost/crypto/keystore"
)

// Signer answers public key, signing and NIP-04 requests for any account in
// its secret store.
type Signer struct {
	store keystore.SecretStore
	cache *PublicKeyCache
}

// New creates a Signer reading secrets from store. A nil cache gets a fresh one.
func New(store keystore.SecretStore, cache *PublicKeyCache) (*Signer, error) {
	if store == nil {
		return nil, errors.New("secret store cannot be nil")
	}
	if cache == nil {
		cache = NewPublicKeyCache()
	}
	return &Signer{store: store, cache: cache}, nil
}

// withPrivateKey fetches and decodes the account's key, calls fn, and zeroizes
// the key afterwards. The key never outlives fn.
func (s *Signer) withPrivateKey(ctx context.Context, account keystore.Account, fn func(sk []byte) error) error {
	if account == "" {
		return keystore.ErrConfiguration
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	secret, err := s.store.FetchSecret(account)
	if err != nil {
		return err
	}
	sk, err := keystore.DecodePrivateKey(secret)
	if err != nil {
		return err
	}
	defer keystore.Zeroize(sk)

	return fn(sk)
}

// PublicKey returns the account's x-only public key, deriving and caching it
// on first use. The secret store is consulted at most once per account.
func (s *Signer) PublicKey(ctx context.Context, account keystore.Account) ([crypto.PublicKeySize]byte, error) {
	if account == "" {
		return [crypto.PublicKeySize]byte{}, keystore.ErrConfiguration
	}
	return s.cache.Get(account, func() ([crypto.PublicKeySize]byte, error) {
		var pub [crypto.PublicKeySize]byte
		err := s.withPrivateKey(ctx, account, func(sk []byte) error {
			var err error
			pub, err = crypto.DerivePublicKey(sk)
			return err
		})
		return pub, err
	})
}

// GetPublicKey returns the account's public key hex encoded.
func (s *Signer) GetPublicKey(ctx context.Context, account keystore.Account) (string, error) {
	pub, err := s.PublicKey(ctx, account)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(pub[:]), nil
}

// SignEvent signs evt in place.
//
//  1. Fills evt.PubKey from the account if it is empty
//  2. Computes evt.ID if it is empty; a supplied id is trusted as-is
//  3. Signs the id with the account's key and sets evt.Sig
func (s *Signer) SignEvent(ctx context.Context, account keystore.Account, evt *crypto.Event) error {
	if evt == nil {
		return errors.New("event cannot be nil")
	}
	if err := evt.Validate(); err != nil {
		return err
	}
	evt.NormalizeTags()

	if evt.PubKey == "" {
		pub, err := s.GetPublicKey(ctx, account)
		if err != nil {
			return err
		}
		evt.PubKey = pub
	}

	if evt.ID == "" {
		id, err := evt.ComputeID()
		if err != nil {
			return err
		}
		evt.ID = hex.EncodeToString(id[:])
	}

	id, err := hex.DecodeString(evt.ID)
	if err != nil {
		return fmt.Errorf("%w: invalid event id", crypto.ErrInternalCrypto)
	}

	return s.withPrivateKey(ctx, account, func(sk []byte) error {
		sig, err := crypto.Sign(sk, id)
		if err != nil {
			return err
		}
		evt.Sig = hex.EncodeToString(sig[:])
		return nil
	})
}

// Encrypt encrypts plaintext for the peer public key (hex) with NIP-04.
func (s *Signer) Encrypt(ctx context.Context, account keystore.Account, peerPubKey, plaintext string) (string, error) {
	var envelope string
	err := s.withSharedSecret(ctx, account, peerPubKey, func(key [32]byte) error {
		var err error
		envelope, err = crypto.EncryptNIP04(key, plaintext)
		return err
	})
	return envelope, err
}

// Decrypt decrypts a NIP-04 envelope sent by the peer public key (hex).
func (s *Signer) Decrypt(ctx context.Context, account keystore.Account, peerPubKey, envelope string) (string, error) {
	var plaintext string
	err := s.withSharedSecret(ctx, account, peerPubKey, func(key [32]byte) error {
		var err error
		plaintext, err = crypto.DecryptNIP04(key, envelope)
		return err
	})
	return plaintext, err
}

func (s *Signer) withSharedSecret(ctx context.Context, account keystore.Account, peerPubKey string, fn func(key [32]byte) error) error {
	peer, err := crypto.DecodePublicKey(peerPubKey)
	if err != nil {
		return fmt.Errorf("%w: peer public key %v", crypto.ErrInternalCrypto, err)
	}

	return s.withPrivateKey(ctx, account, func(sk []byte) error {
		key, err := crypto.SharedSecret(sk, peer)
		if err != nil {
			return err
		}
		defer keystore.Zeroize(key[:])
		return fn(key)
	})
}
