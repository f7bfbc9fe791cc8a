// Package proof is the boundary to the proof system.
//
// A Prover turns a program, a private witness and the receipts it depends
// on into a Receipt whose Journal is the program's public output. A
// Verifier checks a receipt in isolation; receipts that rely on other
// receipts list their digests as Assumptions, and a Graph resolves those
// obligations. Provers and verifiers are always passed in explicitly.
package proof

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/blake2s"
)

var (
	ErrVerification      = errors.New("proof verification failed")
	ErrUnknownProgram    = errors.New("unknown program")
	ErrProgramMismatch   = errors.New("program mismatch")
	ErrMissingAssumption = errors.New("missing assumption")
	ErrCycle             = errors.New("assumption cycle")
	ErrJournalMismatch   = errors.New("journal does not match statement")
)

type ProgramID [32]byte

// NewProgramID derives a program id from a versioned name.
func NewProgramID(name string) ProgramID {
	return ProgramID(blake2s.Sum256([]byte(name)))
}

func (id ProgramID) String() string {
	return fmt.Sprintf("%x", id[:4])
}

type Digest [32]byte

type Receipt struct {
	Program     ProgramID
	Journal     []byte
	Seal        []byte
	Assumptions []Digest
}

type receiptClaim struct {
	Program     ProgramID
	Journal     []byte
	Assumptions []Digest
}

// Digest commits to everything but the seal.
func (r *Receipt) Digest() Digest {
	bz, err := rlp.EncodeToBytes(&receiptClaim{Program: r.Program, Journal: r.Journal, Assumptions: r.Assumptions})
	if err != nil {
		// fixed-shape struct, never fails
		panic(err)
	}
	return Digest(blake2s.Sum256(bz))
}

type Prover interface {
	Prove(ctx context.Context, program ProgramID, witness []byte, assumptions ...*Receipt) (*Receipt, error)
}

// Verifier checks the seal of a single receipt. It does not resolve
// assumptions.
type Verifier interface {
	Verify(ctx context.Context, r *Receipt, expected ProgramID) error
}

// Proof pairs a receipt with the typed statement its journal encodes.
type Proof[S any] struct {
	Statement S
	Receipt   *Receipt
}

// Prove runs program on witness and decodes the journal as S.
func Prove[S any](ctx context.Context, p Prover, program ProgramID, witness any, assumptions ...*Receipt) (*Proof[S], error) {
	bz, err := rlp.EncodeToBytes(witness)
	if err != nil {
		return nil, fmt.Errorf("encode witness: %w", err)
	}
	r, err := p.Prove(ctx, program, bz, assumptions...)
	if err != nil {
		return nil, err
	}
	return FromReceipt[S](r)
}

func FromReceipt[S any](r *Receipt) (*Proof[S], error) {
	pr := &Proof[S]{Receipt: r}
	if err := rlp.DecodeBytes(r.Journal, &pr.Statement); err != nil {
		return nil, fmt.Errorf("decode journal: %w", err)
	}
	return pr, nil
}

// Verify checks the seal and that the journal is exactly the encoding of
// the statement.
func (p *Proof[S]) Verify(ctx context.Context, v Verifier, program ProgramID) error {
	if err := v.Verify(ctx, p.Receipt, program); err != nil {
		return err
	}
	bz, err := rlp.EncodeToBytes(&p.Statement)
	if err != nil {
		return fmt.Errorf("encode statement: %w", err)
	}
	if string(bz) != string(p.Receipt.Journal) {
		return ErrJournalMismatch
	}
	return nil
}
