package crypto

import (
	"crypto/cipher"
	"fmt"

	jubjub "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"golang.org/x/crypto/chacha20poly1305"
)

// EncryptNote seals plaintext with ChaCha20-Poly1305. additionalData is
// authenticated but not encrypted; callers pass the ephemeral public key.
func EncryptNote(key, nonce, plaintext, additionalData []byte) ([]byte, error) {
	aead, err := newAEAD(key, nonce)
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, nonce, plaintext, additionalData), nil
}

// DecryptNote fails when the key is wrong or the ciphertext or
// additionalData was altered.
func DecryptNote(key, nonce, ciphertext, additionalData []byte) ([]byte, error) {
	aead, err := newAEAD(key, nonce)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt note: %w", err)
	}
	return plaintext, nil
}

func newAEAD(key, nonce []byte) (cipher.AEAD, error) {
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("invalid key size: must be %d bytes", chacha20poly1305.KeySize)
	}
	if len(nonce) != chacha20poly1305.NonceSize {
		return nil, fmt.Errorf("invalid nonce size: must be %d bytes", chacha20poly1305.NonceSize)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create ChaCha20-Poly1305 AEAD: %w", err)
	}
	return aead, nil
}

// SealTo encrypts plaintext for the holder of recipient's private key
// under a fresh ephemeral key. It returns the ephemeral public key.
func SealTo(recipient *jubjub.PublicKey, plaintext []byte) (ephemeralPub, ciphertext []byte, err error) {
	eph, err := NewKey()
	if err != nil {
		return nil, nil, err
	}
	key, nonce, err := NoteKey(eph, recipient)
	if err != nil {
		return nil, nil, err
	}
	ephemeralPub = eph.PublicKey.Bytes()
	ciphertext, err = EncryptNote(key, nonce, plaintext, ephemeralPub)
	if err != nil {
		return nil, nil, err
	}
	return ephemeralPub, ciphertext, nil
}

func OpenFrom(prv *jubjub.PrivateKey, ephemeralPub, ciphertext []byte) ([]byte, error) {
	eph, err := PubFromBytes(ephemeralPub)
	if err != nil {
		return nil, err
	}
	key, nonce, err := NoteKey(prv, eph)
	if err != nil {
		return nil, err
	}
	return DecryptNote(key, nonce, ciphertext, ephemeralPub)
}
