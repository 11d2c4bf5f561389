// Package crypto implements the nostr cryptographic primitives used by the host:
// BIP-340 Schnorr keys and signatures over secp256k1 (NIP-01), the NIP-04
// shared secret and AES-256-CBC envelope, and canonical event ids.
//
// Functions in this package take raw private key bytes and never retain them.
// Errors never include key material.
package crypto

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

const (
	// PrivateKeySize is the size of a secp256k1 private key.
	PrivateKeySize = 32
	// PublicKeySize is the size of an x-only public key.
	PublicKeySize = 32
	// SignatureSize is the size of a BIP-340 signature.
	SignatureSize = 64
	// HashSize is the size of the message hashes that are signed.
	HashSize = 32
)

var (
	// ErrInternalCrypto is returned for any failure inside key derivation,
	// signing, key agreement or encryption that has no more specific kind.
	ErrInternalCrypto = errors.New("cryptographic operation failed")
	// ErrMalformedEnvelope is returned when a NIP-04 envelope cannot be parsed.
	ErrMalformedEnvelope = errors.New("malformed envelope")
)

// privateKey parses raw key bytes. The returned key must be zeroed by the caller.
func privateKey(sk []byte) (*btcec.PrivateKey, error) {
	if len(sk) != PrivateKeySize {
		return nil, fmt.Errorf("%w: private key must be %d bytes", ErrInternalCrypto, PrivateKeySize)
	}
	priv, _ := btcec.PrivKeyFromBytes(sk)
	if priv.Key.IsZero() {
		priv.Zero()
		return nil, fmt.Errorf("%w: private key is zero", ErrInternalCrypto)
	}
	return priv, nil
}

// DerivePublicKey returns the x-only public key for a private key.
func DerivePublicKey(sk []byte) ([PublicKeySize]byte, error) {
	var pub [PublicKeySize]byte

	priv, err := privateKey(sk)
	if err != nil {
		return pub, err
	}
	defer priv.Zero()

	copy(pub[:], schnorr.SerializePubKey(priv.PubKey()))
	return pub, nil
}

// Sign creates a BIP-340 Schnorr signature over a 32-byte hash.
//
// The signature is verified against the derived public key before it is
// returned, so a faulty signature is reported as ErrInternalCrypto instead of
// being handed to a relay.
func Sign(sk []byte, hash []byte) ([SignatureSize]byte, error) {
	var out [SignatureSize]byte

	if len(hash) != HashSize {
		return out, fmt.Errorf("%w: hash must be %d bytes", ErrInternalCrypto, HashSize)
	}

	priv, err := privateKey(sk)
	if err != nil {
		return out, err
	}
	defer priv.Zero()

	sig, err := schnorr.Sign(priv, hash)
	if err != nil {
		return out, fmt.Errorf("%w: signing failed", ErrInternalCrypto)
	}
	if !sig.Verify(hash, priv.PubKey()) {
		return out, fmt.Errorf("%w: signature self-check failed", ErrInternalCrypto)
	}

	copy(out[:], sig.Serialize())
	return out, nil
}

// Verify checks a BIP-340 signature over hash against an x-only public key.
func Verify(pub []byte, hash []byte, sig []byte) error {
	if len(pub) != PublicKeySize {
		return fmt.Errorf("%w: public key must be %d bytes", ErrInternalCrypto, PublicKeySize)
	}
	if len(sig) != SignatureSize {
		return fmt.Errorf("%w: signature must be %d bytes", ErrInternalCrypto, SignatureSize)
	}

	pubKey, err := schnorr.ParsePubKey(pub)
	if err != nil {
		return fmt.Errorf("%w: invalid public key", ErrInternalCrypto)
	}
	parsed, err := schnorr.ParseSignature(sig)
	if err != nil {
		return fmt.Errorf("%w: invalid signature encoding", ErrInternalCrypto)
	}
	if !parsed.Verify(hash, pubKey) {
		return errors.New("signature verification failed")
	}
	return nil
}
