package programs

import (
	"github.com/kysee/zkledger/zk-ledger/balance"
	"github.com/kysee/zkledger/zk-ledger/merkle"
	"github.com/kysee/zkledger/zk-ledger/proof"
	"github.com/kysee/zkledger/zk-ledger/ptx"
	"github.com/kysee/zkledger/zk-ledger/types"
	"github.com/kysee/zkledger/zk-ledger/zone"
)

// StatementVersion is bumped whenever a statement layout changes. Field
// order is part of the encoding.
const StatementVersion uint8 = 1

var (
	PtxProgramID    = proof.NewProgramID("zkl/ptx/v1")
	BundleProgramID = proof.NewProgramID("zkl/bundle/v1")
	ZoneProgramID   = proof.NewProgramID("zkl/zone/v1")
)

// InputContext proves that an input's note is in the commitment
// accumulator of its zone, given that accumulator's peaks.
type InputContext struct {
	Count uint64
	Peaks [][32]byte
	Proof merkle.MMRProof
}

type PtxWitness struct {
	Ptx      *ptx.PartialTxWitness
	Contexts []InputContext
}

// PtxStatement: the partial transaction Root spends notes included in
// the accumulators CmRoots (one per input) and commits to Balance.
type PtxStatement struct {
	Version uint8
	Root    ptx.Root
	Inputs  []types.Input
	Outputs []types.Output
	Balance balance.Balance
	CmRoots [][32]byte
}

type BundleWitness struct {
	Bundle *ptx.BundleWitness
}

// BundleStatement: the bundle ID is balanced, and lists its inputs and
// outputs in bundle order so zones can check their slice.
type BundleStatement struct {
	Version     uint8
	ID          ptx.BundleID
	Roots       []ptx.Root
	Inputs      []types.Input
	Outputs     []types.Output
	Balance     balance.Balance
	BlindingSum [32]byte
}

type ZoneWitness struct {
	Old    zone.State
	Ledger *zone.LedgerState
	Txs    []zone.TxWitness
}

// ZoneStatement: applying the listed bundles moves the zone along Update.
type ZoneStatement struct {
	Version uint8
	Update  zone.Update
	Bundles []ptx.BundleID
}
