package types

import (
	"github.com/kysee/zkledger/utils"
)

const (
	TagNfPk = "zkl/nf-pk"
	TagNf   = "zkl/nf"
)

// NullifierSecret is the spending key of a note. The zero value is the
// well-known secret of public notes that anybody may spend.
type NullifierSecret [32]byte

var PublicNullifierSecret NullifierSecret

func RandNullifierSecret() NullifierSecret {
	return NullifierSecret(utils.RandWord())
}

func (sk NullifierSecret) Commit() NullifierCommitment {
	return CommitNullifierSecret(sk)
}

// NullifierCommitment (nf_pk) is the public key notes are addressed to.
type NullifierCommitment [32]byte

func CommitNullifierSecret(sk NullifierSecret) NullifierCommitment {
	return NullifierCommitment(utils.NewHasher(TagNfPk).WriteWord(sk).Sum())
}

type Nullifier [32]byte

func NullifierFromBytes(b []byte) (Nullifier, error) {
	var nf Nullifier
	if err := checkLen("nullifier", b, len(nf)); err != nil {
		return nf, err
	}
	copy(nf[:], b)
	return nf, utils.CheckDigest(nf)
}

// DeriveNullifier is stable for a given (secret, nonce) and reveals
// nothing linking it to the note commitment.
func DeriveNullifier(sk NullifierSecret, nonce Nonce) Nullifier {
	return Nullifier(utils.NewHasher(TagNf).WriteWord(sk).WriteWord(nonce).Sum())
}
