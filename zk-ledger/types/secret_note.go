package types

import (
	"fmt"

	jubjub "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/kysee/zkledger/zk-ledger/crypto"
)

const SecretNoteVersion = 1

// SecretNote is the plaintext a payer sends to the recipient so they can
// open and later spend an output. The recipient already knows its own
// nf_pk and reads the zone from the published Output.
type SecretNote struct {
	Version    byte
	Value      uint64
	Unit       Unit
	Constraint [32]byte
	Nonce      Nonce
	Memo       []byte
}

func NewSecretNote(o *OutputWitness, memo []byte) *SecretNote {
	return &SecretNote{
		Version:    SecretNoteVersion,
		Value:      o.Note.Value,
		Unit:       o.Note.Unit,
		Constraint: o.Note.Constraint,
		Nonce:      o.Nonce,
		Memo:       memo,
	}
}

// Witness rebuilds the output opening for owner in zone.
func (sn *SecretNote) Witness(owner NullifierCommitment, zone ZoneID) OutputWitness {
	return OutputWitness{
		Note:  Note{Value: sn.Value, Unit: sn.Unit, Constraint: sn.Constraint},
		NfPk:  owner,
		Nonce: sn.Nonce,
		Zone:  zone,
	}
}

// EncryptedNote travels next to its Output.
type EncryptedNote struct {
	EphemeralPub []byte
	Ciphertext   []byte
}

func EncryptSecretNote(sn *SecretNote, to *jubjub.PublicKey) (*EncryptedNote, error) {
	bz, err := rlp.EncodeToBytes(sn)
	if err != nil {
		return nil, fmt.Errorf("failed to RLP encode SecretNote: %w", err)
	}
	epk, ct, err := crypto.SealTo(to, bz)
	if err != nil {
		return nil, err
	}
	return &EncryptedNote{EphemeralPub: epk, Ciphertext: ct}, nil
}

func DecryptSecretNote(enc *EncryptedNote, prv *jubjub.PrivateKey) (*SecretNote, error) {
	bz, err := crypto.OpenFrom(prv, enc.EphemeralPub, enc.Ciphertext)
	if err != nil {
		return nil, err
	}
	sn := new(SecretNote)
	if err := rlp.DecodeBytes(bz, sn); err != nil {
		return nil, fmt.Errorf("failed to RLP decode SecretNote: %w", err)
	}
	if sn.Version != SecretNoteVersion {
		return nil, fmt.Errorf("unsupported secret note version: %d", sn.Version)
	}
	return sn, nil
}
