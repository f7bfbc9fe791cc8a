package programs

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/kysee/zkledger/zk-ledger/proof"
	"github.com/kysee/zkledger/zk-ledger/ptx"
	"github.com/kysee/zkledger/zk-ledger/types"
	"github.com/kysee/zkledger/zk-ledger/zone"
)

// ReceiptVerifier accepts a zone submission when every tx is the slice of
// a bundle proven by the attached receipts. Bundle receipts must come
// with the ptx receipts they assume.
type ReceiptVerifier struct {
	Verifier proof.Verifier
	// Limit bounds parallel receipt checks; <= 0 means no limit.
	Limit int
}

var _ zone.BundleVerifier = ReceiptVerifier{}

func (v ReceiptVerifier) VerifyBundles(ctx context.Context, id types.ZoneID, txs []zone.TxWitness, receipts []*proof.Receipt) error {
	g := proof.NewGraph()
	bundles := make(map[ptx.BundleID]*BundleStatement)
	for i, r := range receipts {
		switch r.Program {
		case PtxProgramID:
			g.Add(r, PtxProgramID)
		case BundleProgramID:
			g.Add(r, BundleProgramID)
			s := new(BundleStatement)
			if err := rlp.DecodeBytes(r.Journal, s); err != nil {
				return fmt.Errorf("receipt %d: decode bundle statement: %w", i, err)
			}
			bundles[s.ID] = s
		default:
			return fmt.Errorf("receipt %d: %w: %s", i, proof.ErrUnknownProgram, r.Program)
		}
	}
	if err := g.Verify(ctx, v.Verifier, v.Limit); err != nil {
		return err
	}
	_, err := checkSlices(id, txs, bundles)
	return err
}

// checkSlices matches every tx against its proven bundle and returns the
// bundle ids in tx order.
func checkSlices(id types.ZoneID, txs []zone.TxWitness, bundles map[ptx.BundleID]*BundleStatement) ([]ptx.BundleID, error) {
	ids := make([]ptx.BundleID, len(txs))
	for i := range txs {
		tx := &txs[i]
		s, ok := bundles[tx.Bundle]
		if !ok {
			return nil, types.Violation(types.MissingAssumption, "bundle %x", tx.Bundle[:4])
		}
		if !tx.Slice().Equal(s.slice(id)) {
			return nil, types.Violation(types.SliceMismatch, "bundle %x", tx.Bundle[:4])
		}
		ids[i] = tx.Bundle
	}
	return ids, nil
}
