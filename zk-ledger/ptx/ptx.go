package ptx

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/kysee/zkledger/zk-ledger/balance"
	"github.com/kysee/zkledger/zk-ledger/merkle"
	"github.com/kysee/zkledger/zk-ledger/types"
)

// Root identifies a partial transaction. It commits to the ordered input
// and output lists.
type Root [32]byte

// PartialTxWitness is the private form of a partial transaction: the
// notes it spends, the notes it creates and the blinding of its balance.
type PartialTxWitness struct {
	Inputs          []types.InputWitness
	Outputs         []types.OutputWitness
	BalanceBlinding fr.Element
}

func NewWitness(inputs []types.InputWitness, outputs []types.OutputWitness) *PartialTxWitness {
	return &PartialTxWitness{Inputs: inputs, Outputs: outputs, BalanceBlinding: balance.RandomBlinding()}
}

// Balance accounts inputs as negative and outputs as positive.
func (w *PartialTxWitness) Balance() *balance.Witness {
	b := balance.NewWitness(w.BalanceBlinding)
	for _, in := range w.Inputs {
		b.InsertNegative(in.Note.Unit, in.Note.Value)
	}
	for _, out := range w.Outputs {
		b.InsertPositive(out.Note.Unit, out.Note.Value)
	}
	return b
}

func (w *PartialTxWitness) Commit() *PartialTx {
	p := &PartialTx{
		Inputs:  make([]types.Input, len(w.Inputs)),
		Outputs: make([]types.Output, len(w.Outputs)),
		Balance: w.Balance().Commit(),
	}
	for i := range w.Inputs {
		p.Inputs[i] = w.Inputs[i].Commit()
	}
	for i := range w.Outputs {
		p.Outputs[i] = w.Outputs[i].Commit()
	}
	return p
}

// PartialTx is the public form of a partial transaction.
type PartialTx struct {
	Inputs  []types.Input
	Outputs []types.Output
	Balance balance.Balance
}

func (p *PartialTx) inputLeaves() [][]byte {
	leaves := make([][]byte, len(p.Inputs))
	for i, in := range p.Inputs {
		leaves[i] = in.Bytes()
	}
	return leaves
}

func (p *PartialTx) outputLeaves() [][]byte {
	leaves := make([][]byte, len(p.Outputs))
	for i, out := range p.Outputs {
		leaves[i] = out.Bytes()
	}
	return leaves
}

func (p *PartialTx) InputRoot() [32]byte {
	return merkle.Root(p.inputLeaves())
}

func (p *PartialTx) OutputRoot() [32]byte {
	return merkle.Root(p.outputLeaves())
}

func (p *PartialTx) Root() Root {
	return Root(merkle.Node(p.InputRoot(), p.OutputRoot()))
}

// InputPath proves Inputs[i] under the ptx root. The last step pairs the
// input root with the output root.
func (p *PartialTx) InputPath(i int) (merkle.Path, error) {
	path, err := merkle.PathFor(p.inputLeaves(), i)
	if err != nil {
		return nil, fmt.Errorf("input path: %w", err)
	}
	return append(path, merkle.PathNode{Sibling: p.OutputRoot(), Left: false}), nil
}

func (p *PartialTx) OutputPath(i int) (merkle.Path, error) {
	path, err := merkle.PathFor(p.outputLeaves(), i)
	if err != nil {
		return nil, fmt.Errorf("output path: %w", err)
	}
	return append(path, merkle.PathNode{Sibling: p.InputRoot(), Left: true}), nil
}

// ZoneInputs returns the inputs that spend notes in zone, in order.
func (p *PartialTx) ZoneInputs(zone types.ZoneID) []types.Input {
	var out []types.Input
	for _, in := range p.Inputs {
		if in.Zone == zone {
			out = append(out, in)
		}
	}
	return out
}

func (p *PartialTx) ZoneOutputs(zone types.ZoneID) []types.Output {
	var out []types.Output
	for _, o := range p.Outputs {
		if o.Zone == zone {
			out = append(out, o)
		}
	}
	return out
}
