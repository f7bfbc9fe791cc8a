package ptx

import (
	"testing"

	"github.com/kysee/zkledger/zk-ledger/merkle"
	"github.com/kysee/zkledger/zk-ledger/types"
	"github.com/stretchr/testify/require"
)

var (
	nmo   = types.DeriveUnit("NMO")
	zoneA = types.ZoneID{0xa}
	zoneB = types.ZoneID{0xb}
)

func input(value uint64, zone types.ZoneID) types.InputWitness {
	sk := types.RandNullifierSecret()
	return types.InputFor(types.NewOutput(types.NewNote(value, nmo), sk.Commit(), zone), sk)
}

func output(value uint64, zone types.ZoneID) types.OutputWitness {
	return types.NewOutput(types.NewNote(value, nmo), types.RandNullifierSecret().Commit(), zone)
}

func TestSplitBalanced(t *testing.T) {
	w := NewWitness(
		[]types.InputWitness{input(10, zoneA)},
		[]types.OutputWitness{output(8, zoneA), output(2, zoneA)},
	)
	require.True(t, w.Balance().IsZero())

	b, err := (&BundleWitness{Partials: []*PartialTxWitness{w}}).Commit()
	require.NoError(t, err)
	require.True(t, b.IsBalanced())
}

func TestOverspendRejected(t *testing.T) {
	w := NewWitness(
		[]types.InputWitness{input(9, zoneA)},
		[]types.OutputWitness{output(8, zoneA), output(2, zoneA)},
	)
	require.False(t, w.Balance().IsZero())

	_, err := (&BundleWitness{Partials: []*PartialTxWitness{w}}).Commit()
	require.Error(t, err)
	require.True(t, types.IsViolation(err, types.BalanceNotZero))
}

func TestBundleAtomicity(t *testing.T) {
	// each half is unbalanced, together they net to zero
	spend := NewWitness([]types.InputWitness{input(10, zoneA)}, nil)
	receive := NewWitness(nil, []types.OutputWitness{output(10, zoneB)})
	require.False(t, spend.Balance().IsZero())
	require.False(t, receive.Balance().IsZero())

	bw := &BundleWitness{Partials: []*PartialTxWitness{spend, receive}}
	require.True(t, bw.IsZero())
	b, err := bw.Commit()
	require.NoError(t, err)
	require.True(t, b.IsBalanced())
	require.ElementsMatch(t, []types.ZoneID{zoneA, zoneB}, b.Zones())

	_, err = (&BundleWitness{Partials: []*PartialTxWitness{spend}}).Commit()
	require.True(t, types.IsViolation(err, types.BalanceNotZero))

	// tampering with the public blinding breaks the public equation
	b.BlindingSum.SetOne()
	require.False(t, b.IsBalanced())
}

func TestRootBindsOrder(t *testing.T) {
	o1, o2 := output(1, zoneA), output(2, zoneA)
	in := input(3, zoneA)

	a := &PartialTxWitness{Inputs: []types.InputWitness{in}, Outputs: []types.OutputWitness{o1, o2}}
	b := &PartialTxWitness{Inputs: []types.InputWitness{in}, Outputs: []types.OutputWitness{o2, o1}}

	require.NotEqual(t, a.Commit().Root(), b.Commit().Root())
	// balance accounting ignores order
	require.Equal(t, a.Commit().Balance, b.Commit().Balance)
}

func TestPaths(t *testing.T) {
	w := NewWitness(
		[]types.InputWitness{input(4, zoneA), input(6, zoneA), input(1, zoneA)},
		[]types.OutputWitness{output(11, zoneA)},
	)
	p := w.Commit()
	root := p.Root()

	for i, in := range p.Inputs {
		path, err := p.InputPath(i)
		require.NoError(t, err)
		got, err := merkle.PathRoot(merkle.Leaf(in.Bytes()), path)
		require.NoError(t, err)
		require.Equal(t, [32]byte(root), got)
	}
	path, err := p.OutputPath(0)
	require.NoError(t, err)
	got, err := merkle.PathRoot(merkle.Leaf(p.Outputs[0].Bytes()), path)
	require.NoError(t, err)
	require.Equal(t, [32]byte(root), got)

	_, err = p.InputPath(3)
	require.Error(t, err)
}

func TestBundleID(t *testing.T) {
	a := NewWitness([]types.InputWitness{input(1, zoneA)}, []types.OutputWitness{output(1, zoneA)})
	b := NewWitness([]types.InputWitness{input(2, zoneA)}, []types.OutputWitness{output(2, zoneA)})

	ab, err := (&BundleWitness{Partials: []*PartialTxWitness{a, b}}).Commit()
	require.NoError(t, err)
	ba, err := (&BundleWitness{Partials: []*PartialTxWitness{b, a}}).Commit()
	require.NoError(t, err)

	require.Equal(t, ab.ID(), ComputeBundleID(ab.Roots()))
	require.NotEqual(t, ab.ID(), ba.ID())
}

func TestNewTransfer(t *testing.T) {
	self := types.RandNullifierSecret()
	to := types.RandNullifierSecret().Commit()
	ins := []types.InputWitness{input(7, zoneA), input(5, zoneA)}

	w, err := NewTransfer(ins, []Payment{{To: to, Zone: zoneB, Amount: 9}}, self.Commit())
	require.NoError(t, err)
	require.Len(t, w.Outputs, 2)
	require.Equal(t, uint64(9), w.Outputs[0].Note.Value)
	require.Equal(t, zoneB, w.Outputs[0].Zone)
	require.Equal(t, uint64(3), w.Outputs[1].Note.Value)
	require.Equal(t, zoneA, w.Outputs[1].Zone)
	require.True(t, w.Balance().IsZero())

	exact, err := NewTransfer(ins, []Payment{{To: to, Zone: zoneA, Amount: 12}}, self.Commit())
	require.NoError(t, err)
	require.Len(t, exact.Outputs, 1)

	_, err = NewTransfer(ins, []Payment{{To: to, Zone: zoneA, Amount: 13}}, self.Commit())
	require.ErrorIs(t, err, ErrInsufficientValue)

	_, err = NewTransfer(nil, nil, self.Commit())
	require.ErrorIs(t, err, ErrNoInputs)

	other := ins[1]
	other.Note.Unit = types.DeriveUnit("ETH")
	_, err = NewTransfer([]types.InputWitness{ins[0], other}, nil, self.Commit())
	require.ErrorIs(t, err, ErrMixedUnits)
}
