package keystore

import (
	"github.com/btcsuite/btcd/btcutil/bech32"
	secp256k1 "github.com/decred/dcrd/dcrec/secp256k1/v4"
)

const (
	// EncodedSecretLength is the length of a bech32 nsec string encoding 32 bytes.
	EncodedSecretLength = 63
	// PrivateKeySize is the size of a decoded private key.
	PrivateKeySize = 32

	secretKeyPrefix = "nsec"
)

// DecodePrivateKey decodes a bech32 nsec string into raw private key bytes.
//
// The length is checked before any decoding so that truncated or padded
// secrets fail fast with ErrInvalidKeyLength. Checksum, charset and prefix
// failures return ErrKeyDecode. The bech32 library's errors are dropped
// because they quote offending characters of the input.
//
// The caller owns the returned slice and should Zeroize it after use.
func DecodePrivateKey(encoded string) ([]byte, error) {
	if len(encoded) != EncodedSecretLength {
		return nil, ErrInvalidKeyLength
	}

	hrp, words, err := bech32.DecodeNoLimit(encoded)
	if err != nil {
		return nil, ErrKeyDecode
	}
	if hrp != secretKeyPrefix {
		return nil, ErrKeyDecode
	}

	key, err := bech32.ConvertBits(words, 5, 8, false)
	if err != nil {
		return nil, ErrKeyDecode
	}
	if len(key) != PrivateKeySize {
		zeroize(key)
		return nil, ErrInvalidKeyLength
	}

	// Reject scalars outside [1, n-1]; they have no public key.
	var scalar secp256k1.ModNScalar
	overflow := scalar.SetByteSlice(key)
	zero := scalar.IsZero()
	scalar.Zero()
	if overflow || zero {
		zeroize(key)
		return nil, ErrKeyDecode
	}

	return key, nil
}

// encodePrivateKey encodes raw private key bytes as a bech32 nsec string.
// It is the inverse of DecodePrivateKey; the host never encodes secrets.
func encodePrivateKey(key []byte) (string, error) {
	if len(key) != PrivateKeySize {
		return "", ErrInvalidKeyLength
	}
	words, err := bech32.ConvertBits(key, 8, 5, true)
	if err != nil {
		return "", ErrKeyDecode
	}
	encoded, err := bech32.Encode(secretKeyPrefix, words)
	if err != nil {
		return "", ErrKeyDecode
	}
	return encoded, nil
}
