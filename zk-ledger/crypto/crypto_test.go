package crypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestECDHESharedSecret(t *testing.T) {
	alice, err := NewKey()
	require.NoError(t, err)
	bob, err := NewKey()
	require.NoError(t, err)
	require.True(t, alice.PublicKey.A.IsOnCurve())

	ssAlice, err := ECDHEComputeSharedSecret(alice, &bob.PublicKey)
	require.NoError(t, err)
	ssBob, err := ECDHEComputeSharedSecret(bob, &alice.PublicKey)
	require.NoError(t, err)
	require.Equal(t, ssAlice, ssBob, "shared secrets do not match")

	kA, err := SaplingKDF(ssAlice, NoteKeySize+NoteNonceSize)
	require.NoError(t, err)
	kB, err := SaplingKDF(ssBob, NoteKeySize+NoteNonceSize)
	require.NoError(t, err)
	require.Equal(t, kA, kB)
	require.Len(t, kA, 44)

	_, err = SaplingKDF(ssAlice[:31], 32)
	require.Error(t, err)
}

func TestEncryptDecryptNote(t *testing.T) {
	key := make([]byte, NoteKeySize)
	nonce := make([]byte, NoteNonceSize)
	key[0], nonce[0] = 1, 2

	ct, err := EncryptNote(key, nonce, []byte("secret note"), []byte("epk"))
	require.NoError(t, err)

	pt, err := DecryptNote(key, nonce, ct, []byte("epk"))
	require.NoError(t, err)
	require.Equal(t, []byte("secret note"), pt)

	_, err = DecryptNote(key, nonce, ct, []byte("other"))
	require.Error(t, err)

	_, err = EncryptNote(key[:31], nonce, []byte("x"), nil)
	require.Error(t, err)
	_, err = EncryptNote(key, nonce[:11], []byte("x"), nil)
	require.Error(t, err)
}

func TestSealToOpenFrom(t *testing.T) {
	recipient, err := NewKey()
	require.NoError(t, err)
	stranger, err := NewKey()
	require.NoError(t, err)

	epk, ct, err := SealTo(&recipient.PublicKey, []byte("hello"))
	require.NoError(t, err)

	pt, err := OpenFrom(recipient, epk, ct)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), pt)

	_, err = OpenFrom(stranger, epk, ct)
	require.Error(t, err)
}
