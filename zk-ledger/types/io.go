package types

import "github.com/kysee/zkledger/utils"

// OutputWitness is the private opening of a newly created note.
type OutputWitness struct {
	Note  Note
	NfPk  NullifierCommitment
	Nonce Nonce
	Zone  ZoneID
}

func NewOutput(note Note, owner NullifierCommitment, zone ZoneID) OutputWitness {
	return OutputWitness{Note: note, NfPk: owner, Nonce: RandNonce(), Zone: zone}
}

// PublicOutput creates a note spendable with PublicNullifierSecret.
func PublicOutput(note Note, nonce Nonce, zone ZoneID) OutputWitness {
	return OutputWitness{Note: note, NfPk: PublicNullifierSecret.Commit(), Nonce: nonce, Zone: zone}
}

func (o *OutputWitness) Commitment() NoteCommitment {
	return CommitNote(o.Note, o.NfPk, o.Nonce, o.Zone)
}

func (o *OutputWitness) Commit() Output {
	return Output{Zone: o.Zone, NoteComm: o.Commitment()}
}

// Output is the public form of a new note.
type Output struct {
	Zone     ZoneID
	NoteComm NoteCommitment
}

// Bytes is the canonical Zone‖NoteComm encoding hashed into ptx roots.
func (o Output) Bytes() []byte {
	b := make([]byte, 0, 64)
	b = append(b, o.Zone[:]...)
	return append(b, o.NoteComm[:]...)
}

func OutputFromBytes(b []byte) (Output, error) {
	var o Output
	if err := checkLen("output", b, 64); err != nil {
		return o, err
	}
	copy(o.Zone[:], b[:32])
	copy(o.NoteComm[:], b[32:])
	return o, utils.CheckDigest(o.NoteComm)
}

// InputWitness is everything the owner needs to spend a note.
type InputWitness struct {
	Note  Note
	NfSk  NullifierSecret
	Nonce Nonce
	Zone  ZoneID
}

// InputFor turns a received output into a spendable input.
func InputFor(o OutputWitness, sk NullifierSecret) InputWitness {
	return InputWitness{Note: o.Note, NfSk: sk, Nonce: o.Nonce, Zone: o.Zone}
}

func (i *InputWitness) Nullifier() Nullifier {
	return DeriveNullifier(i.NfSk, i.Nonce)
}

// Commitment recomputes the commitment of the note being spent.
func (i *InputWitness) Commitment() NoteCommitment {
	return CommitNote(i.Note, i.NfSk.Commit(), i.Nonce, i.Zone)
}

func (i *InputWitness) Commit() Input {
	return Input{Zone: i.Zone, Nullifier: i.Nullifier()}
}

// Input is the public form of a spent note.
type Input struct {
	Zone      ZoneID
	Nullifier Nullifier
}

func (i Input) Bytes() []byte {
	b := make([]byte, 0, 64)
	b = append(b, i.Zone[:]...)
	return append(b, i.Nullifier[:]...)
}

func InputFromBytes(b []byte) (Input, error) {
	var i Input
	if err := checkLen("input", b, 64); err != nil {
		return i, err
	}
	copy(i.Zone[:], b[:32])
	copy(i.Nullifier[:], b[32:])
	return i, utils.CheckDigest(i.Nullifier)
}
