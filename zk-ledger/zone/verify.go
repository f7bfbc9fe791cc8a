package zone

import (
	"context"
	"errors"
	"sync"

	"github.com/kysee/zkledger/zk-ledger/proof"
	"github.com/kysee/zkledger/zk-ledger/ptx"
	"github.com/kysee/zkledger/zk-ledger/types"
)

var (
	ErrNoBundleVerifier = errors.New("ledger has no bundle verifier")
	ErrIssuanceDisabled = errors.New("issuance is disabled for this ledger")
)

// BundleVerifier vouches for a submission before it touches the ledger:
// every tx must be the slice for zone of a balanced bundle whose partial
// transactions are proven. receipts is whatever evidence the submitter
// attached.
type BundleVerifier interface {
	VerifyBundles(ctx context.Context, zone types.ZoneID, txs []TxWitness, receipts []*proof.Receipt) error
}

// OpenBundles verifies bundles whose witnesses were handed to the
// operator. Committing a witness recomputes every balance commitment from
// the notes, so a bundle in the set is balanced by construction.
// Receipts are ignored.
type OpenBundles struct {
	mu      sync.RWMutex
	bundles map[ptx.BundleID]*ptx.Bundle
}

func NewOpenBundles() *OpenBundles {
	return &OpenBundles{bundles: make(map[ptx.BundleID]*ptx.Bundle)}
}

// Add commits bw and keeps the public bundle. An unbalanced witness is
// refused with BalanceNotZero.
func (o *OpenBundles) Add(bw *ptx.BundleWitness) (*ptx.Bundle, error) {
	b, err := bw.Commit()
	if err != nil {
		return nil, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.bundles[b.ID()] = b
	return b, nil
}

func (o *OpenBundles) VerifyBundles(ctx context.Context, zone types.ZoneID, txs []TxWitness, _ []*proof.Receipt) error {
	o.mu.RLock()
	defer o.mu.RUnlock()
	for i := range txs {
		if err := ctx.Err(); err != nil {
			return err
		}
		tx := &txs[i]
		b, ok := o.bundles[tx.Bundle]
		if !ok {
			return types.Violation(types.MissingAssumption, "tx %d bundle %x", i, tx.Bundle[:4])
		}
		if !b.IsBalanced() {
			return types.Violation(types.BalanceNotZero, "tx %d bundle %x", i, tx.Bundle[:4])
		}
		if !tx.Slice().Equal(SliceOf(b, zone)) {
			return types.Violation(types.SliceMismatch, "tx %d bundle %x", i, tx.Bundle[:4])
		}
	}
	return nil
}
