package zone

import (
	"sync"

	"github.com/kysee/zkledger/utils"
	"github.com/kysee/zkledger/zk-ledger/ptx"
	"github.com/kysee/zkledger/zk-ledger/types"
)

const (
	TagStfID     = "zkl/stf-id"
	TagHashChain = "zkl/stf-hash-chain"
)

// StfID names the state transition function a zone runs.
type StfID [32]byte

func DeriveStfID(name string) StfID {
	return StfID(utils.NewHasher(TagStfID).WriteBytes([]byte(name)).Sum())
}

// TxSummary is what a state transition sees of one applied transaction.
type TxSummary struct {
	Bundle      ptx.BundleID
	Nullifiers  []types.Nullifier
	Commitments []types.NoteCommitment
}

// StateTransition evolves the application state of a zone alongside its
// ledger. It must be deterministic.
type StateTransition interface {
	ID() StfID
	Transition(prev [32]byte, tx TxSummary) ([32]byte, error)
}

var HashChainID = DeriveStfID("hash-chain/v1")

// HashChain folds every applied transaction into a running hash.
type HashChain struct{}

func (HashChain) ID() StfID { return HashChainID }

func (HashChain) Transition(prev [32]byte, tx TxSummary) ([32]byte, error) {
	h := utils.NewHasher(TagHashChain).WriteDigest(prev).WriteDigest(tx.Bundle)
	h.WriteUint64(uint64(len(tx.Nullifiers)))
	for _, nf := range tx.Nullifiers {
		h.WriteDigest(nf)
	}
	h.WriteUint64(uint64(len(tx.Commitments)))
	for _, cm := range tx.Commitments {
		h.WriteDigest(cm)
	}
	if err := h.Err(); err != nil {
		return [32]byte{}, err
	}
	return h.Sum(), nil
}

// Registry resolves StfIDs. It is passed to validators explicitly.
type Registry struct {
	mu   sync.RWMutex
	stfs map[StfID]StateTransition
}

func NewRegistry(stfs ...StateTransition) *Registry {
	r := &Registry{stfs: make(map[StfID]StateTransition)}
	for _, s := range stfs {
		r.Register(s)
	}
	return r
}

func DefaultRegistry() *Registry {
	return NewRegistry(HashChain{})
}

func (r *Registry) Register(s StateTransition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stfs[s.ID()] = s
}

func (r *Registry) Lookup(id StfID) (StateTransition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.stfs[id]
	if !ok {
		return nil, types.Violation(types.UnknownStf, "%x", id[:4])
	}
	return s, nil
}
