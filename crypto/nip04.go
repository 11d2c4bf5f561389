package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
)

// envelopeSeparator joins ciphertext and IV in a NIP-04 envelope.
const envelopeSeparator = "?iv="

// EncryptNIP04 encrypts plaintext under a NIP-04 shared secret.
//
// Wire format: base64(AES-256-CBC(PKCS#7(plaintext))) + "?iv=" + base64(iv)
//
// A fresh random 16-byte IV is drawn for every call. NIP-04 carries no MAC:
// the envelope is confidential but not authenticated.
func EncryptNIP04(key [32]byte, plaintext string) (string, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return "", fmt.Errorf("%w: failed to create cipher", ErrInternalCrypto)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("%w: failed to generate IV", ErrInternalCrypto)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	zeroize(padded)

	return base64.StdEncoding.EncodeToString(ciphertext) + envelopeSeparator + base64.StdEncoding.EncodeToString(iv), nil
}

// DecryptNIP04 decrypts a NIP-04 envelope produced by EncryptNIP04.
//
// Returns ErrMalformedEnvelope if the envelope is missing a part, is not valid
// base64, or has an IV or ciphertext of the wrong size. A padding failure,
// which usually means the wrong key, returns ErrInternalCrypto.
func DecryptNIP04(key [32]byte, envelope string) (string, error) {
	ctPart, ivPart, found := strings.Cut(envelope, envelopeSeparator)
	if !found || ctPart == "" || ivPart == "" {
		return "", ErrMalformedEnvelope
	}

	ciphertext, err := base64.StdEncoding.DecodeString(ctPart)
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext is not base64", ErrMalformedEnvelope)
	}
	iv, err := base64.StdEncoding.DecodeString(ivPart)
	if err != nil {
		return "", fmt.Errorf("%w: iv is not base64", ErrMalformedEnvelope)
	}
	if len(iv) != aes.BlockSize {
		return "", fmt.Errorf("%w: iv must be %d bytes", ErrMalformedEnvelope, aes.BlockSize)
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext is not a whole number of blocks", ErrMalformedEnvelope)
	}

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return "", fmt.Errorf("%w: failed to create cipher", ErrInternalCrypto)
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	plaintext, err := pkcs7Unpad(padded, aes.BlockSize)
	if err != nil {
		zeroize(padded)
		return "", err
	}
	result := string(plaintext)
	zeroize(padded)
	return result, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+n)
	copy(out, data)
	copy(out[len(data):], bytes.Repeat([]byte{byte(n)}, n))
	return out
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("%w: invalid padding", ErrInternalCrypto)
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("%w: invalid padding", ErrInternalCrypto)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("%w: invalid padding", ErrInternalCrypto)
		}
	}
	return data[:len(data)-n], nil
}
