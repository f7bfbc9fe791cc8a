package crypto

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"math/big"

	tedwards "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards"
	jubjub "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"golang.org/x/crypto/blake2s"
)

const (
	NoteKeySize   = 32
	NoteNonceSize = 12
)

func NewKey() (*jubjub.PrivateKey, error) {
	return jubjub.GenerateKey(crand.Reader)
}

func PubFromBytes(bz []byte) (*jubjub.PublicKey, error) {
	pub := new(jubjub.PublicKey)
	if _, err := pub.SetBytes(bz); err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	return pub, nil
}

// ECDHEComputeSharedSecret computes BLAKE2s(x(privateKey * otherPublicKey)).
func ECDHEComputeSharedSecret(privateKey *jubjub.PrivateKey, otherPublicKey *jubjub.PublicKey) ([]byte, error) {
	if !otherPublicKey.A.IsOnCurve() {
		return nil, errors.New("other public key is not on curve")
	}

	// the scalar sits after the compressed public key in the serialized private key
	scalarBytes := privateKey.Bytes()
	scalar := new(big.Int).SetBytes(scalarBytes[32:64])

	var shared tedwards.PointAffine
	shared.ScalarMultiplication(&otherPublicKey.A, scalar)
	if !shared.IsOnCurve() {
		return nil, errors.New("computed shared secret is not on curve")
	}

	hasher, err := blake2s.New256(nil)
	if err != nil {
		return nil, err
	}
	ax := shared.X.Bytes()
	hasher.Write(ax[:])
	return hasher.Sum(nil), nil
}

// SaplingKDF expands a 32-byte shared secret into outputLen bytes with
// BLAKE2s in counter mode, personalised as in Sapling's PRF^expand.
func SaplingKDF(sharedSecret []byte, outputLen int) ([]byte, error) {
	if len(sharedSecret) != 32 {
		return nil, fmt.Errorf("sharedSecret must be 32 bytes")
	}

	personalization := []byte("Zcash_ExpandSeed")

	var keyStream []byte
	var counter byte = 1
	for len(keyStream) < outputLen {
		h, err := blake2s.New256(personalization)
		if err != nil {
			return nil, fmt.Errorf("failed to create blake2s hash: %w", err)
		}
		h.Write(sharedSecret)
		h.Write([]byte{counter})
		keyStream = append(keyStream, h.Sum(nil)...)

		counter++
		if counter == 0 {
			return nil, errors.New("KDF counter overflow")
		}
	}
	return keyStream[:outputLen], nil
}

// NoteKey derives the symmetric key and nonce protecting one note.
func NoteKey(privateKey *jubjub.PrivateKey, otherPublicKey *jubjub.PublicKey) (key, nonce []byte, err error) {
	shared, err := ECDHEComputeSharedSecret(privateKey, otherPublicKey)
	if err != nil {
		return nil, nil, err
	}
	stream, err := SaplingKDF(shared, NoteKeySize+NoteNonceSize)
	if err != nil {
		return nil, nil, err
	}
	return stream[:NoteKeySize], stream[NoteKeySize:], nil
}
