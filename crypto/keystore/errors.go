package keystore

import "errors"

// Error kinds reported by the keystore.
//
// None of these ever carry text from the underlying store or the secret itself.
var (
	// ErrConfiguration is returned when a request names no account.
	ErrConfiguration = errors.New("no account configured")
	// ErrKeychainAccess is returned when the credential store is unreachable or denies access.
	ErrKeychainAccess = errors.New("credential store access failed")
	// ErrKeyNotFound is returned when no secret is stored for an account.
	ErrKeyNotFound = errors.New("secret not found")
	// ErrInvalidKeyLength is returned when a secret does not have the canonical length.
	ErrInvalidKeyLength = errors.New("invalid key length")
	// ErrKeyDecode is returned when a secret is not a valid nsec encoding.
	ErrKeyDecode = errors.New("failed to decode key")
)
