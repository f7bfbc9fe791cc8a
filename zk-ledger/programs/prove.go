package programs

import (
	"context"
	"fmt"

	"github.com/kysee/zkledger/zk-ledger/proof"
	"github.com/kysee/zkledger/zk-ledger/ptx"
	"github.com/kysee/zkledger/zk-ledger/types"
	"github.com/kysee/zkledger/zk-ledger/zone"
	"github.com/rs/zerolog"
)

// ContextFor proves cm against the current accumulator of ls.
func ContextFor(ls *zone.LedgerState, cm types.NoteCommitment) (InputContext, error) {
	p, err := ls.ProveCommitment(cm)
	if err != nil {
		return InputContext{}, err
	}
	return InputContext{Count: ls.CommitmentCount(), Peaks: ls.Peaks(), Proof: p}, nil
}

// BundleProof is the proof tree of one bundle.
type BundleProof struct {
	Partials []*proof.Proof[PtxStatement]
	Bundle   *proof.Proof[BundleStatement]
}

// ProveBundle proves every partial transaction of bw and then the bundle
// on top of them. contexts[i] holds the input contexts of bw.Partials[i].
func ProveBundle(ctx context.Context, p proof.Prover, bw *ptx.BundleWitness, contexts [][]InputContext) (*BundleProof, error) {
	if len(contexts) != len(bw.Partials) {
		return nil, fmt.Errorf("contexts: %w: one list per partial tx", types.ErrBadLength)
	}
	out := &BundleProof{}
	receipts := make([]*proof.Receipt, len(bw.Partials))
	for i, pw := range bw.Partials {
		pp, err := proof.Prove[PtxStatement](ctx, p, PtxProgramID, &PtxWitness{Ptx: pw, Contexts: contexts[i]})
		if err != nil {
			return nil, fmt.Errorf("ptx %d: %w", i, err)
		}
		out.Partials = append(out.Partials, pp)
		receipts[i] = pp.Receipt
	}
	bp, err := proof.Prove[BundleStatement](ctx, p, BundleProgramID, &BundleWitness{Bundle: bw}, receipts...)
	if err != nil {
		return nil, err
	}
	out.Bundle = bp
	return out, nil
}

// Receipts lists the ptx receipts followed by the bundle receipt, the
// evidence a zone ledger takes with a submission.
func (bp *BundleProof) Receipts() []*proof.Receipt {
	out := make([]*proof.Receipt, 0, len(bp.Partials)+1)
	for _, p := range bp.Partials {
		out = append(out, p.Receipt)
	}
	return append(out, bp.Bundle.Receipt)
}

// AddTo registers the proof tree in g.
func (bp *BundleProof) AddTo(g *proof.Graph) {
	for _, p := range bp.Partials {
		g.Add(p.Receipt, PtxProgramID)
	}
	g.Add(bp.Bundle.Receipt, BundleProgramID)
}

func ProveZone(ctx context.Context, p proof.Prover, w *ZoneWitness, bundles ...*proof.Receipt) (*proof.Proof[ZoneStatement], error) {
	return proof.Prove[ZoneStatement](ctx, p, ZoneProgramID, w, bundles...)
}

// NewLocalProver returns a local prover running every program.
func NewLocalProver(key []byte, reg *zone.Registry, log zerolog.Logger) (*proof.LocalProver, error) {
	return proof.NewLocalProver(key, log, PtxProgram{}, BundleProgram{}, ZoneProgram{Registry: reg})
}
