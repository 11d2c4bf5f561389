package crypto

import (
	"bytes"
	"testing"
)

func TestZeroize(t *testing.T) {
	secret := make([]byte, HashSize)
	for i := range secret {
		secret[i] = byte(i + 1)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{"shared secret", secret},
		{"padded plaintext", pkcs7Pad([]byte("hello"), 16)},
		{"empty", []byte{}},
		{"nil", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := len(tt.data)
			zeroize(tt.data)

			if len(tt.data) != n {
				t.Fatalf("zeroize() changed length to %d, want %d", len(tt.data), n)
			}
			if !bytes.Equal(tt.data, make([]byte, n)) {
				t.Errorf("zeroize() left %x, want all zero", tt.data)
			}
		})
	}
}
