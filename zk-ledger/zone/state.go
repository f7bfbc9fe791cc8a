package zone

import (
	"github.com/kysee/zkledger/zk-ledger/types"
)

// State is the public commitment to one zone at one point in time.
type State struct {
	Stf    StfID
	State  [32]byte
	Ledger [32]byte
	ID     types.ZoneID
}

// Update moves a zone from Old to New.
type Update struct {
	Old State
	New State
}

// WellFormed requires both sides of the update to name the same zone.
func (u Update) WellFormed() bool {
	return u.Old.ID == u.New.ID
}

// Genesis returns the state of an empty zone.
func Genesis(id types.ZoneID, stf StfID) State {
	return State{Stf: stf, Ledger: NewLedgerState().Root(), ID: id}
}
