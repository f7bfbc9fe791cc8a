// Package programs holds the native guest programs whose receipts make up
// a transaction's proof: one per partial transaction, one per bundle
// (assuming its partial transactions) and one per zone update (assuming
// the bundles it applies).
package programs

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/kysee/zkledger/zk-ledger/merkle"
	"github.com/kysee/zkledger/zk-ledger/proof"
	"github.com/kysee/zkledger/zk-ledger/ptx"
	"github.com/kysee/zkledger/zk-ledger/types"
	"github.com/kysee/zkledger/zk-ledger/zone"
)

type PtxProgram struct{}

func (PtxProgram) ID() proof.ProgramID { return PtxProgramID }

func (PtxProgram) Run(_ context.Context, witness []byte, _ proof.Env) ([]byte, error) {
	var w PtxWitness
	if err := rlp.DecodeBytes(witness, &w); err != nil {
		return nil, fmt.Errorf("decode ptx witness: %w", err)
	}
	if w.Ptx == nil || len(w.Contexts) != len(w.Ptx.Inputs) {
		return nil, fmt.Errorf("ptx witness: %w: one context per input", types.ErrBadLength)
	}

	cmRoots := make([][32]byte, len(w.Contexts))
	for i, c := range w.Contexts {
		cm := w.Ptx.Inputs[i].Commitment()
		if !merkle.VerifyPeakProof(c.Count, c.Peaks, merkle.Leaf(cm[:]), c.Proof) {
			return nil, types.Violation(types.PathMismatch, "input %d", i)
		}
		cmRoots[i] = merkle.MMRRoot(c.Count, c.Peaks)
	}

	p := w.Ptx.Commit()
	return rlp.EncodeToBytes(&PtxStatement{
		Version: StatementVersion,
		Root:    p.Root(),
		Inputs:  p.Inputs,
		Outputs: p.Outputs,
		Balance: p.Balance,
		CmRoots: cmRoots,
	})
}

type BundleProgram struct{}

func (BundleProgram) ID() proof.ProgramID { return BundleProgramID }

func (BundleProgram) Run(_ context.Context, witness []byte, env proof.Env) ([]byte, error) {
	var w BundleWitness
	if err := rlp.DecodeBytes(witness, &w); err != nil {
		return nil, fmt.Errorf("decode bundle witness: %w", err)
	}
	if w.Bundle == nil {
		return nil, fmt.Errorf("bundle witness: %w", types.ErrBadLength)
	}
	b, err := w.Bundle.Commit()
	if err != nil {
		return nil, err
	}

	proven := make(map[ptx.Root]struct{})
	for _, j := range env.Assumptions(PtxProgramID) {
		var s PtxStatement
		if err := rlp.DecodeBytes(j, &s); err != nil {
			return nil, fmt.Errorf("decode ptx statement: %w", err)
		}
		proven[s.Root] = struct{}{}
	}

	st := &BundleStatement{
		Version:     StatementVersion,
		ID:          b.ID(),
		Roots:       b.Roots(),
		BlindingSum: b.BlindingSum.Bytes(),
	}
	for i, root := range st.Roots {
		if _, ok := proven[root]; !ok {
			return nil, types.Violation(types.MissingAssumption, "ptx %d", i)
		}
		st.Inputs = append(st.Inputs, b.Partials[i].Inputs...)
		st.Outputs = append(st.Outputs, b.Partials[i].Outputs...)
	}
	if st.Balance, err = b.Balance(); err != nil {
		return nil, err
	}
	return rlp.EncodeToBytes(st)
}

// ZoneProgram replays a zone update. Every applied transaction must
// belong to a proven bundle and match that bundle's slice for the zone.
type ZoneProgram struct {
	Registry *zone.Registry
}

func (ZoneProgram) ID() proof.ProgramID { return ZoneProgramID }

func (p ZoneProgram) Run(_ context.Context, witness []byte, env proof.Env) ([]byte, error) {
	var w ZoneWitness
	if err := rlp.DecodeBytes(witness, &w); err != nil {
		return nil, fmt.Errorf("decode zone witness: %w", err)
	}
	if w.Ledger == nil {
		return nil, fmt.Errorf("zone witness: %w", types.ErrBadLength)
	}

	bundles := make(map[ptx.BundleID]*BundleStatement)
	for _, j := range env.Assumptions(BundleProgramID) {
		s := new(BundleStatement)
		if err := rlp.DecodeBytes(j, s); err != nil {
			return nil, fmt.Errorf("decode bundle statement: %w", err)
		}
		bundles[s.ID] = s
	}

	ids, err := checkSlices(w.Old.ID, w.Txs, bundles)
	if err != nil {
		return nil, err
	}

	next, _, err := zone.Apply(w.Old, w.Ledger, w.Txs, p.Registry)
	if err != nil {
		return nil, err
	}
	return rlp.EncodeToBytes(&ZoneStatement{
		Version: StatementVersion,
		Update:  zone.Update{Old: w.Old, New: next},
		Bundles: ids,
	})
}

func (s *BundleStatement) slice(id types.ZoneID) zone.Slice {
	var out zone.Slice
	for _, in := range s.Inputs {
		if in.Zone == id {
			out.Inputs = append(out.Inputs, in)
		}
	}
	for _, o := range s.Outputs {
		if o.Zone == id {
			out.Outputs = append(out.Outputs, o)
		}
	}
	return out
}
