package ptx

import (
	"errors"
	"fmt"

	"github.com/kysee/zkledger/zk-ledger/types"
)

var (
	ErrNoInputs          = errors.New("no inputs")
	ErrMixedUnits        = errors.New("inputs of different units")
	ErrInsufficientValue = errors.New("insufficient value")
)

// Payment describes one recipient of a transfer.
type Payment struct {
	To     types.NullifierCommitment
	Zone   types.ZoneID
	Amount uint64
}

// NewTransfer spends inputs into the payments and returns the remainder
// to change in the zone of the first input. The result is balanced on
// its own. Change outputs of zero value are omitted.
func NewTransfer(inputs []types.InputWitness, payments []Payment, change types.NullifierCommitment) (*PartialTxWitness, error) {
	if len(inputs) == 0 {
		return nil, ErrNoInputs
	}
	unit := inputs[0].Note.Unit
	var total uint64
	for _, in := range inputs {
		if in.Note.Unit != unit {
			return nil, ErrMixedUnits
		}
		if total+in.Note.Value < total {
			return nil, fmt.Errorf("input value overflows")
		}
		total += in.Note.Value
	}

	outputs := make([]types.OutputWitness, 0, len(payments)+1)
	var paid uint64
	for _, p := range payments {
		if paid+p.Amount < paid {
			return nil, fmt.Errorf("payment value overflows")
		}
		paid += p.Amount
		outputs = append(outputs, types.NewOutput(types.NewNote(p.Amount, unit), p.To, p.Zone))
	}
	if paid > total {
		return nil, fmt.Errorf("%w: have(%d), need(%d)", ErrInsufficientValue, total, paid)
	}
	if rest := total - paid; rest > 0 {
		outputs = append(outputs, types.NewOutput(types.NewNote(rest, unit), change, inputs[0].Zone))
	}
	return NewWitness(inputs, outputs), nil
}
