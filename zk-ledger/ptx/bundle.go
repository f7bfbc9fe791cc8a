package ptx

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/kysee/zkledger/utils"
	"github.com/kysee/zkledger/zk-ledger/balance"
	"github.com/kysee/zkledger/zk-ledger/types"
)

const TagBundle = "zkl/bundle"

type BundleID [32]byte

// BundleWitness groups partial transactions that must be accepted
// together. Individual members may be unbalanced.
type BundleWitness struct {
	Partials []*PartialTxWitness
}

func (bw *BundleWitness) Balance() *balance.Witness {
	ws := make([]*balance.Witness, len(bw.Partials))
	for i, p := range bw.Partials {
		ws[i] = p.Balance()
	}
	var zero fr.Element
	return balance.Combine(ws, zero)
}

func (bw *BundleWitness) IsZero() bool {
	return bw.Balance().IsZero()
}

// Commit publishes the bundle. It fails with BalanceNotZero when the
// members do not net to zero in every unit.
func (bw *BundleWitness) Commit() (*Bundle, error) {
	bal := bw.Balance()
	if !bal.IsZero() {
		return nil, types.Violation(types.BalanceNotZero, "bundle of %d partial txs", len(bw.Partials))
	}
	b := &Bundle{Partials: make([]*PartialTx, len(bw.Partials)), BlindingSum: bal.Blinding}
	for i, p := range bw.Partials {
		b.Partials[i] = p.Commit()
	}
	return b, nil
}

// Bundle is the public form of a balanced bundle. BlindingSum opens the
// summed balance commitment to zero without revealing member values.
type Bundle struct {
	Partials    []*PartialTx
	BlindingSum fr.Element
}

func (b *Bundle) Roots() []Root {
	roots := make([]Root, len(b.Partials))
	for i, p := range b.Partials {
		roots[i] = p.Root()
	}
	return roots
}

func (b *Bundle) ID() BundleID {
	return ComputeBundleID(b.Roots())
}

func ComputeBundleID(roots []Root) BundleID {
	h := utils.NewHasher(TagBundle).WriteUint64(uint64(len(roots)))
	for _, r := range roots {
		h.WriteDigest(r)
	}
	return BundleID(h.Sum())
}

func (b *Bundle) Balance() (balance.Balance, error) {
	bs := make([]balance.Balance, len(b.Partials))
	for i, p := range b.Partials {
		bs[i] = p.Balance
	}
	return balance.Sum(bs...)
}

// IsBalanced checks the public balance equation.
func (b *Bundle) IsBalanced() bool {
	bal, err := b.Balance()
	if err != nil {
		return false
	}
	return bal.OpensToZero(b.BlindingSum)
}

// Zones lists the distinct zones touched by the bundle in first-seen order.
func (b *Bundle) Zones() []types.ZoneID {
	seen := make(map[types.ZoneID]struct{})
	var zones []types.ZoneID
	add := func(z types.ZoneID) {
		if _, ok := seen[z]; !ok {
			seen[z] = struct{}{}
			zones = append(zones, z)
		}
	}
	for _, p := range b.Partials {
		for _, in := range p.Inputs {
			add(in.Zone)
		}
		for _, o := range p.Outputs {
			add(o.Zone)
		}
	}
	return zones
}
