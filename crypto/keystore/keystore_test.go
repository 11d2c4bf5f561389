package keystore

import (
	"encoding/hex"
	"errors"
	"runtime"
	"sort"
	"strings"
	"testing"

	"github.com/99designs/keyring"
)

// NIP-19 test vector.
const (
	testNsec   = "nsec1vl029mgpspedva04g90vltkh6fvh240zqtv9k0t9af8935ke9laqsnlfe5"
	testSecHex = "67dea2ed018072d675f5415ecfaed7d2597555e202d85b3d65ea4e58d2d92ffa"
	testNpub   = "npub10elfcs4fr0l0r8af98jlmgdh9c8tcxjvz9qkw038js35mp4dma8qzvjptg"
)

func TestDecodePrivateKey(t *testing.T) {
	key, err := DecodePrivateKey(testNsec)
	if err != nil {
		t.Fatalf("DecodePrivateKey() error = %v", err)
	}
	if got := hex.EncodeToString(key); got != testSecHex {
		t.Errorf("DecodePrivateKey() = %s, want %s", got, testSecHex)
	}
}

func TestDecodePrivateKey_LengthGuard(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"one short", testNsec[:62]},
		{"one long", testNsec + "q"},
		{"hex key", testSecHex},
		{"garbage of wrong length", "not a key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePrivateKey(tt.input)
			if !errors.Is(err, ErrInvalidKeyLength) {
				t.Errorf("DecodePrivateKey() error = %v, want ErrInvalidKeyLength", err)
			}
		})
	}
}

func TestDecodePrivateKey_DecodeErrors(t *testing.T) {
	badChecksum := testNsec[:62] + "q"
	if badChecksum == testNsec {
		badChecksum = testNsec[:62] + "p"
	}

	zero, err := encodePrivateKey(make([]byte, PrivateKeySize))
	if err != nil {
		t.Fatalf("encodePrivateKey() error = %v", err)
	}

	tests := []struct {
		name  string
		input string
	}{
		{"bad checksum", badChecksum},
		{"invalid charset", "nsec1" + strings.Repeat("b", 58)},
		{"public key prefix", testNpub},
		{"zero scalar", zero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.input) != EncodedSecretLength {
				t.Fatalf("test input has length %d, want %d", len(tt.input), EncodedSecretLength)
			}
			_, err := DecodePrivateKey(tt.input)
			if !errors.Is(err, ErrKeyDecode) {
				t.Errorf("DecodePrivateKey() error = %v, want ErrKeyDecode", err)
			}
			if err != nil && strings.Contains(err.Error(), tt.input) {
				t.Errorf("DecodePrivateKey() error %q leaks its input", err)
			}
		})
	}
}

func TestEncodePrivateKey_Roundtrip(t *testing.T) {
	key, _ := hex.DecodeString(testSecHex)

	encoded, err := encodePrivateKey(key)
	if err != nil {
		t.Fatalf("encodePrivateKey() error = %v", err)
	}
	if encoded != testNsec {
		t.Errorf("encodePrivateKey() = %s, want %s", encoded, testNsec)
	}

	if _, err := encodePrivateKey(key[:31]); !errors.Is(err, ErrInvalidKeyLength) {
		t.Errorf("encodePrivateKey() with 31 bytes error = %v, want ErrInvalidKeyLength", err)
	}
}

// failingKeyring is a keyring whose backend is unreachable.
type failingKeyring struct{}

func (failingKeyring) Get(string) (keyring.Item, error) {
	return keyring.Item{}, errors.New("dbus: connection refused while reading " + testNsec)
}
func (failingKeyring) GetMetadata(string) (keyring.Metadata, error) {
	return keyring.Metadata{}, errors.New("unreachable")
}
func (failingKeyring) Set(keyring.Item) error  { return errors.New("unreachable") }
func (failingKeyring) Remove(string) error     { return errors.New("unreachable") }
func (failingKeyring) Keys() ([]string, error) { return nil, errors.New("unreachable") }

func TestKeyringStore_FetchSecret(t *testing.T) {
	ring := keyring.NewArrayKeyring([]keyring.Item{
		{Key: "default", Data: []byte(testNsec)},
		{Key: "empty", Data: []byte{}},
	})
	store := NewKeyringStore(ring)

	tests := []struct {
		name    string
		account Account
		want    string
		wantErr error
	}{
		{"stored secret", "default", testNsec, nil},
		{"missing account", "alice", "", ErrKeyNotFound},
		{"empty secret", "empty", "", ErrKeyNotFound},
		{"no account", "", "", ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.FetchSecret(tt.account)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("FetchSecret() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FetchSecret() = %q, want %q", got, tt.want)
			}
		})
	}

	// A second fetch must still see the stored secret.
	if got, err := store.FetchSecret("default"); err != nil || got != testNsec {
		t.Errorf("second FetchSecret() = %q, %v", got, err)
	}
}

func TestKeyringStore_AccessFailureDoesNotLeak(t *testing.T) {
	store := NewKeyringStore(failingKeyring{})

	_, err := store.FetchSecret("default")
	if !errors.Is(err, ErrKeychainAccess) {
		t.Fatalf("FetchSecret() error = %v, want ErrKeychainAccess", err)
	}
	if strings.Contains(err.Error(), testNsec) {
		t.Errorf("FetchSecret() error %q leaks backend diagnostics", err)
	}

	if _, err := store.ListAccounts(); !errors.Is(err, ErrKeychainAccess) {
		t.Errorf("ListAccounts() error = %v, want ErrKeychainAccess", err)
	}
}

func TestKeyringStore_ListAccounts(t *testing.T) {
	ring := keyring.NewArrayKeyring([]keyring.Item{
		{Key: "default", Data: []byte(testNsec)},
		{Key: "work", Data: []byte(testNsec)},
	})
	store := NewKeyringStore(ring)

	accounts, err := store.ListAccounts()
	if err != nil {
		t.Fatalf("ListAccounts() error = %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("ListAccounts() returned %d accounts, want 2", len(accounts))
	}
	seen := map[Account]bool{}
	for _, a := range accounts {
		seen[a] = true
	}
	if !seen["default"] || !seen["work"] {
		t.Errorf("ListAccounts() = %v, want default and work", accounts)
	}
}

func TestMemoryStore_CountsFetches(t *testing.T) {
	store := NewMemoryStore(map[Account]string{"default": testNsec})

	for i := 0; i < 3; i++ {
		if _, err := store.FetchSecret("default"); err != nil {
			t.Fatalf("FetchSecret() error = %v", err)
		}
	}
	if got := store.Fetches("default"); got != 3 {
		t.Errorf("Fetches() = %d, want 3", got)
	}

	store.Err = ErrKeychainAccess
	if _, err := store.FetchSecret("default"); !errors.Is(err, ErrKeychainAccess) {
		t.Errorf("FetchSecret() error = %v, want ErrKeychainAccess", err)
	}
}

func TestRegistry(t *testing.T) {
	RegisterSecretStore("test-platform", func(cfg Config) (SecretStore, error) {
		return NewMemoryStore(map[Account]string{Account(cfg.serviceName()): testNsec}), nil
	})

	factory, err := GetSecretStoreFactory("test-platform")
	if err != nil {
		t.Fatalf("GetSecretStoreFactory() error = %v", err)
	}
	store, err := factory(Config{})
	if err != nil {
		t.Fatalf("factory() error = %v", err)
	}
	if _, err := store.FetchSecret(DefaultServiceName); err != nil {
		t.Errorf("FetchSecret() error = %v, want default service name applied", err)
	}

	if _, err := GetSecretStoreFactory("plan9-unregistered"); err == nil {
		t.Error("GetSecretStoreFactory() for unregistered platform error = nil, want error")
	}

	platforms := registeredPlatforms()
	found := false
	for _, p := range platforms {
		if p == "test-platform" {
			found = true
		}
	}
	if !found {
		t.Errorf("registeredPlatforms() = %v, want test-platform", platforms)
	}
	if !sort.StringsAreSorted(platforms) {
		t.Errorf("registeredPlatforms() = %v, want sorted", platforms)
	}

	switch runtime.GOOS {
	case "darwin", "linux", "windows":
		if _, err := GetSecretStoreFactory(runtime.GOOS); err != nil {
			t.Errorf("no factory registered for %s: %v", runtime.GOOS, err)
		}
	}
}

func TestZeroize(t *testing.T) {
	key, _ := hex.DecodeString(testSecHex)
	Zeroize(key)
	for i, b := range key {
		if b != 0 {
			t.Errorf("byte at index %d should be 0, got %d", i, b)
		}
	}
	Zeroize(nil)
}
