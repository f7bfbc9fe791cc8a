package zone

import (
	"fmt"

	"github.com/kysee/zkledger/utils"
	"github.com/kysee/zkledger/zk-ledger/merkle"
	"github.com/kysee/zkledger/zk-ledger/ptx"
	"github.com/kysee/zkledger/zk-ledger/types"
)

// Spend is an input together with the inclusion proof of the note it
// consumes, taken against the zone's ledger before the update.
type Spend struct {
	Input types.InputWitness
	Proof merkle.MMRProof
}

// TxWitness is the part of one bundle that touches a single zone.
type TxWitness struct {
	Bundle  ptx.BundleID
	Spends  []Spend
	Outputs []types.Output
}

// Slice is the public view of a TxWitness.
type Slice struct {
	Inputs  []types.Input
	Outputs []types.Output
}

func (tx *TxWitness) Slice() Slice {
	s := Slice{Outputs: append([]types.Output(nil), tx.Outputs...)}
	for _, sp := range tx.Spends {
		s.Inputs = append(s.Inputs, sp.Input.Commit())
	}
	return s
}

func (tx *TxWitness) Summary() TxSummary {
	sum := TxSummary{Bundle: tx.Bundle}
	for _, sp := range tx.Spends {
		sum.Nullifiers = append(sum.Nullifiers, sp.Input.Nullifier())
	}
	for _, o := range tx.Outputs {
		sum.Commitments = append(sum.Commitments, o.NoteComm)
	}
	return sum
}

// CommitmentProver hands out inclusion proofs for note commitments.
type CommitmentProver interface {
	ProveCommitment(cm types.NoteCommitment) (merkle.MMRProof, error)
}

// Route extracts the slice of a bundle that belongs to zone. Inputs are
// proven through prover.
func Route(bw *ptx.BundleWitness, zone types.ZoneID, prover CommitmentProver) (*TxWitness, error) {
	b, err := bw.Commit()
	if err != nil {
		return nil, err
	}
	tx := &TxWitness{Bundle: b.ID()}
	for _, p := range bw.Partials {
		for _, in := range p.Inputs {
			if in.Zone != zone {
				continue
			}
			proof, err := prover.ProveCommitment(in.Commitment())
			if err != nil {
				return nil, err
			}
			tx.Spends = append(tx.Spends, Spend{Input: in, Proof: proof})
		}
		for _, o := range p.Outputs {
			if o.Zone == zone {
				tx.Outputs = append(tx.Outputs, o.Commit())
			}
		}
	}
	return tx, nil
}

// Apply runs txs against the zone state old whose ledger is lw. It never
// modifies lw; the returned ledger is a new copy.
//
// Every spent note must be included in lw, every nullifier must be fresh
// (also within the update) and every input and output must belong to the
// zone.
func Apply(old State, lw *LedgerState, txs []TxWitness, reg *Registry) (State, *LedgerState, error) {
	if root := lw.Root(); root != old.Ledger {
		return State{}, nil, types.Violation(types.LedgerMismatch, "witness root %x, state %x", root[:4], old.Ledger[:4])
	}
	stf, err := reg.Lookup(old.Stf)
	if err != nil {
		return State{}, nil, err
	}

	next := lw.Clone()
	state := old.State
	for i := range txs {
		tx := &txs[i]
		for j, sp := range tx.Spends {
			in := sp.Input
			if in.Zone != old.ID {
				return State{}, nil, types.Violation(types.ZoneMismatch, "tx %d input %d", i, j)
			}
			nf := in.Nullifier()
			if next.HasNullifier(nf) {
				return State{}, nil, types.Violation(types.NullifierSpent, "tx %d input %d nf %x", i, j, nf[:4])
			}
			if !lw.HasCommitment(in.Commitment(), sp.Proof) {
				return State{}, nil, types.Violation(types.PathMismatch, "tx %d input %d", i, j)
			}
			next.AddNullifier(nf)
		}
		for j, o := range tx.Outputs {
			if o.Zone != old.ID {
				return State{}, nil, types.Violation(types.ZoneMismatch, "tx %d output %d", i, j)
			}
			if err := utils.CheckDigest(o.NoteComm); err != nil {
				return State{}, nil, fmt.Errorf("tx %d output %d: %w", i, j, err)
			}
			next.AddCommitment(o.NoteComm)
		}
		if state, err = stf.Transition(state, tx.Summary()); err != nil {
			return State{}, nil, err
		}
	}

	return State{Stf: old.Stf, State: state, Ledger: next.Root(), ID: old.ID}, next, nil
}

// VerifyUpdate accepts u when it is well formed, lw opens u.Old.Ledger
// and replaying txs reproduces u.New exactly.
func VerifyUpdate(u Update, lw *LedgerState, txs []TxWitness, reg *Registry) error {
	if !u.WellFormed() {
		return types.Violation(types.ZoneMismatch, "update from %x to %x", u.Old.ID[:4], u.New.ID[:4])
	}
	if u.Old.Stf != u.New.Stf {
		return types.Violation(types.StateMismatch, "state transition changed")
	}
	got, _, err := Apply(u.Old, lw, txs, reg)
	if err != nil {
		return err
	}
	if got.Ledger != u.New.Ledger {
		return types.Violation(types.LedgerMismatch, "new ledger root")
	}
	if got != u.New {
		return types.Violation(types.StateMismatch, "new state")
	}
	return nil
}
