package circuits

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/backend/plonk"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/constraint/solver"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/scs"
	"github.com/consensys/gnark/test/unsafekzg"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/kysee/zkledger/utils"
	"github.com/kysee/zkledger/zk-ledger/merkle"
	"github.com/kysee/zkledger/zk-ledger/proof"
	"github.com/kysee/zkledger/zk-ledger/types"
	"github.com/rs/zerolog"
)

const SpendStatementVersion uint8 = 1

// SpendProgramID names the spend circuit of a given depth.
func SpendProgramID(depth int) proof.ProgramID {
	return proof.NewProgramID(fmt.Sprintf("zkl/spend/depth-%d/v1", depth))
}

type SpendWitness struct {
	Input types.InputWitness
	Proof merkle.MMRProof
	Peak  [32]byte
}

// SpendStatement: somebody holding the secret of a note under Peak in
// Zone has revealed its Nullifier.
type SpendStatement struct {
	Version   uint8
	Zone      types.ZoneID
	Nullifier types.Nullifier
	Peak      [32]byte
}

// PlonkBackend proves and verifies SpendCircuit with PLONK over BN254.
// It implements proof.Prover and proof.Verifier for SpendProgramID(depth).
type PlonkBackend struct {
	depth   int
	program proof.ProgramID
	ccs     constraint.ConstraintSystem
	pk      plonk.ProvingKey
	vk      plonk.VerifyingKey
	log     zerolog.Logger
}

// NewPlonkBackend compiles the spend circuit and runs a PLONK setup.
// The SRS comes from unsafekzg and is only fit for testing.
func NewPlonkBackend(depth int, log zerolog.Logger) (*PlonkBackend, error) {
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), scs.NewBuilder, NewSpendCircuit(depth))
	if err != nil {
		return nil, fmt.Errorf("compile spend circuit: %w", err)
	}

	// TODO: load a ceremony SRS instead of unsafekzg for production keys
	srs, srsLagrange, err := unsafekzg.NewSRS(ccs)
	if err != nil {
		return nil, err
	}
	pk, vk, err := plonk.Setup(ccs, srs, srsLagrange)
	if err != nil {
		return nil, err
	}
	log.Info().Int("depth", depth).Int("constraints", ccs.GetNbConstraints()).Msg("spend circuit ready")

	return &PlonkBackend{
		depth:   depth,
		program: SpendProgramID(depth),
		ccs:     ccs,
		pk:      pk,
		vk:      vk,
		log:     log,
	}, nil
}

func (b *PlonkBackend) Program() proof.ProgramID {
	return b.program
}

func (b *PlonkBackend) Depth() int {
	return b.depth
}

// ExportSolidity writes a Solidity verifier for the spend circuit.
func (b *PlonkBackend) ExportSolidity(w io.Writer) error {
	return b.vk.ExportSolidity(w)
}

func (b *PlonkBackend) Prove(ctx context.Context, program proof.ProgramID, witness []byte, assumptions ...*proof.Receipt) (*proof.Receipt, error) {
	if program != b.program {
		return nil, fmt.Errorf("%w: %s", proof.ErrUnknownProgram, program)
	}
	if len(assumptions) > 0 {
		return nil, fmt.Errorf("spend proofs take no assumptions")
	}
	var w SpendWitness
	if err := rlp.DecodeBytes(witness, &w); err != nil {
		return nil, fmt.Errorf("decode spend witness: %w", err)
	}
	if len(w.Proof.Path) != b.depth {
		return nil, types.Violation(types.PathMismatch, "path of %d for depth %d", len(w.Proof.Path), b.depth)
	}
	if err := utils.CheckDigest(w.Peak); err != nil {
		return nil, fmt.Errorf("peak: %w", err)
	}
	// a false statement is reported natively; the prover only fails on
	// statements that hold
	cm := w.Input.Commitment()
	root, err := merkle.PathRoot(merkle.Leaf(cm[:]), w.Proof.Path)
	if err != nil {
		return nil, err
	}
	if root != w.Peak {
		return nil, types.Violation(types.PathMismatch, "note %x is not under peak %x", cm[:4], w.Peak[:4])
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wtn, err := frontend.NewWitness(AssignSpend(w.Input, w.Proof, w.Peak), ecc.BN254.ScalarField())
	if err != nil {
		return nil, err
	}
	prf, err := plonk.Prove(b.ccs, b.pk, wtn,
		backend.WithSolverOptions(solver.WithLogger(b.log)),
	)
	if err != nil {
		return nil, fmt.Errorf("plonk prove: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var seal bytes.Buffer
	if _, err := prf.WriteTo(&seal); err != nil {
		return nil, err
	}
	journal, err := rlp.EncodeToBytes(&SpendStatement{
		Version:   SpendStatementVersion,
		Zone:      w.Input.Zone,
		Nullifier: w.Input.Nullifier(),
		Peak:      w.Peak,
	})
	if err != nil {
		return nil, err
	}
	return &proof.Receipt{Program: program, Journal: journal, Seal: seal.Bytes()}, nil
}

func (b *PlonkBackend) Verify(ctx context.Context, r *proof.Receipt, expected proof.ProgramID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.Program != expected || expected != b.program {
		return fmt.Errorf("%w: expected(%s), got(%s)", proof.ErrProgramMismatch, expected, r.Program)
	}
	var st SpendStatement
	if err := rlp.DecodeBytes(r.Journal, &st); err != nil {
		return fmt.Errorf("%w: journal: %v", proof.ErrVerification, err)
	}
	// the circuit sees Nullifier and Peak mod r; only one encoding is valid
	if err := utils.CheckDigest(st.Nullifier, st.Peak); err != nil {
		return fmt.Errorf("%w: journal: %v", proof.ErrVerification, err)
	}

	prf := plonk.NewProof(ecc.BN254)
	if _, err := prf.ReadFrom(bytes.NewReader(r.Seal)); err != nil {
		return fmt.Errorf("%w: seal: %v", proof.ErrVerification, err)
	}
	pub, err := frontend.NewWitness(AssignPublic(b.depth, st.Zone, st.Nullifier, st.Peak), ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return err
	}
	if err := plonk.Verify(prf, b.vk, pub); err != nil {
		return fmt.Errorf("%w: %v", proof.ErrVerification, err)
	}
	return nil
}
