package types

import (
	"github.com/kysee/zkledger/utils"
)

const (
	TagUnit   = "zkl/unit"
	TagNoteCm = "zkl/note-cm"
)

// Unit identifies a fungible asset. Notes of equal Unit are interchangeable.
type Unit [32]byte

func DeriveUnit(label string) Unit {
	return Unit(utils.NewHasher(TagUnit).WriteBytes([]byte(label)).Sum())
}

type ZoneID [32]byte

func ZoneIDFromBytes(b []byte) (ZoneID, error) {
	var z ZoneID
	if err := checkLen("zone id", b, len(z)); err != nil {
		return z, err
	}
	copy(z[:], b)
	return z, nil
}

// Nonce makes otherwise identical outputs commit and nullify differently.
type Nonce [32]byte

func RandNonce() Nonce {
	return Nonce(utils.RandWord())
}

// Note is an immutable amount of one unit. Constraint binds an extra
// spending condition (for example a predicate hash) into the commitment.
type Note struct {
	Value      uint64
	Unit       Unit
	Constraint [32]byte
}

func NewNote(value uint64, unit Unit) Note {
	return Note{Value: value, Unit: unit}
}

type NoteCommitment [32]byte

func NoteCommitmentFromBytes(b []byte) (NoteCommitment, error) {
	var c NoteCommitment
	if err := checkLen("note commitment", b, len(c)); err != nil {
		return c, err
	}
	copy(c[:], b)
	return c, utils.CheckDigest(c)
}

// CommitNote binds a note to its owner, its nonce and the zone it lives in.
func CommitNote(note Note, nfPk NullifierCommitment, nonce Nonce, zone ZoneID) NoteCommitment {
	return NoteCommitment(utils.NewHasher(TagNoteCm).
		WriteUint64(note.Value).
		WriteWord(note.Unit).
		WriteWord(note.Constraint).
		WriteDigest(nfPk).
		WriteWord(nonce).
		WriteWord(zone).
		Sum())
}
