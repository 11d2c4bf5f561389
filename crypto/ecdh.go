package crypto

import (
	"fmt"

	secp256k1 "github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// SharedSecret computes the NIP-04 shared secret between a private key and a
// peer's x-only public key.
//
// The peer key is lifted to a compressed point with the even-parity prefix
// 0x02, and the shared secret is the x-coordinate of the ECDH point.
func SharedSecret(sk []byte, peerPub []byte) ([32]byte, error) {
	var shared [32]byte

	if len(peerPub) != PublicKeySize {
		return shared, fmt.Errorf("%w: public key must be %d bytes", ErrInternalCrypto, PublicKeySize)
	}

	priv, err := privateKey(sk)
	if err != nil {
		return shared, err
	}
	defer priv.Zero()

	compressed := make([]byte, 0, 1+PublicKeySize)
	compressed = append(compressed, secp256k1.PubKeyFormatCompressedEven)
	compressed = append(compressed, peerPub...)
	pub, err := secp256k1.ParsePubKey(compressed)
	if err != nil {
		return shared, fmt.Errorf("%w: invalid public key", ErrInternalCrypto)
	}

	x := secp256k1.GenerateSharedSecret(priv, pub)
	copy(shared[:], x)
	zeroize(x)
	return shared, nil
}
