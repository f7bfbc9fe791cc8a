package zone

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/google/btree"
	"github.com/kysee/zkledger/utils"
	"github.com/kysee/zkledger/zk-ledger/merkle"
	"github.com/kysee/zkledger/zk-ledger/types"
)

const (
	TagLedger = "zkl/ledger"

	defaultTreeDegree = 32
)

// NullifierSet is the ordered set of spent nullifiers of a zone.
type NullifierSet struct {
	tree *btree.BTreeG[types.Nullifier]
}

func lessNullifier(a, b types.Nullifier) bool {
	return bytes.Compare(a[:], b[:]) < 0
}

func NewNullifierSet() *NullifierSet {
	return &NullifierSet{tree: btree.NewG(defaultTreeDegree, lessNullifier)}
}

func (s *NullifierSet) Has(nf types.Nullifier) bool {
	return s.tree.Has(nf)
}

// Insert reports false when nf was already present.
func (s *NullifierSet) Insert(nf types.Nullifier) bool {
	_, replaced := s.tree.ReplaceOrInsert(nf)
	return !replaced
}

func (s *NullifierSet) Len() int {
	return s.tree.Len()
}

// List returns the nullifiers in ascending order.
func (s *NullifierSet) List() []types.Nullifier {
	out := make([]types.Nullifier, 0, s.tree.Len())
	s.tree.Ascend(func(nf types.Nullifier) bool {
		out = append(out, nf)
		return true
	})
	return out
}

// Root is the Merkle root over the sorted nullifiers.
func (s *NullifierSet) Root() [32]byte {
	list := s.List()
	leaves := make([][]byte, len(list))
	for i := range list {
		leaves[i] = list[i][:]
	}
	return merkle.Root(leaves)
}

func (s *NullifierSet) Clone() *NullifierSet {
	return &NullifierSet{tree: s.tree.Clone()}
}

// LedgerState holds the note commitment accumulator and the nullifier
// set of a zone. State.Ledger commits to it through Root.
type LedgerState struct {
	commitments *merkle.MMR
	nullifiers  *NullifierSet

	cms   []types.NoteCommitment
	index map[types.NoteCommitment]uint64
}

func NewLedgerState() *LedgerState {
	return &LedgerState{
		commitments: merkle.NewMMR(),
		nullifiers:  NewNullifierSet(),
		index:       make(map[types.NoteCommitment]uint64),
	}
}

func (l *LedgerState) Root() [32]byte {
	return utils.NewHasher(TagLedger).
		WriteDigest(l.commitments.Root()).
		WriteDigest(l.nullifiers.Root()).
		Sum()
}

func (l *LedgerState) CommitmentRoot() [32]byte {
	return l.commitments.Root()
}

func (l *LedgerState) CommitmentCount() uint64 {
	return l.commitments.Count()
}

func (l *LedgerState) Peaks() [][32]byte {
	return l.commitments.Peaks()
}

// AddCommitment appends cm to the accumulator and returns its index.
func (l *LedgerState) AddCommitment(cm types.NoteCommitment) uint64 {
	idx := l.commitments.Append(cm[:])
	l.cms = append(l.cms, cm)
	if _, ok := l.index[cm]; !ok {
		l.index[cm] = idx
	}
	return idx
}

func (l *LedgerState) ProveCommitment(cm types.NoteCommitment) (merkle.MMRProof, error) {
	idx, ok := l.index[cm]
	if !ok {
		return merkle.MMRProof{}, fmt.Errorf("unknown note commitment %x", cm[:4])
	}
	return l.commitments.Prove(idx)
}

// HasCommitment checks an inclusion proof against the current peaks.
func (l *LedgerState) HasCommitment(cm types.NoteCommitment, proof merkle.MMRProof) bool {
	return l.commitments.VerifyProof(cm[:], proof)
}

func (l *LedgerState) HasNullifier(nf types.Nullifier) bool {
	return l.nullifiers.Has(nf)
}

// AddNullifier reports false when nf was already spent.
func (l *LedgerState) AddNullifier(nf types.Nullifier) bool {
	return l.nullifiers.Insert(nf)
}

func (l *LedgerState) NullifierCount() int {
	return l.nullifiers.Len()
}

func (l *LedgerState) Clone() *LedgerState {
	c := &LedgerState{
		commitments: l.commitments.Clone(),
		nullifiers:  l.nullifiers.Clone(),
		cms:         append([]types.NoteCommitment(nil), l.cms...),
		index:       make(map[types.NoteCommitment]uint64, len(l.index)),
	}
	for k, v := range l.index {
		c.index[k] = v
	}
	return c
}

type ledgerStateRLP struct {
	Commitments []types.NoteCommitment
	Nullifiers  []types.Nullifier
}

// EncodeRLP implements rlp.Encoder. The accumulator is carried as its
// ordered commitments and rebuilt on decode.
func (l *LedgerState) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, ledgerStateRLP{Commitments: l.cms, Nullifiers: l.nullifiers.List()})
}

// DecodeRLP implements rlp.Decoder.
func (l *LedgerState) DecodeRLP(s *rlp.Stream) error {
	var dec ledgerStateRLP
	if err := s.Decode(&dec); err != nil {
		return err
	}
	*l = *NewLedgerState()
	for _, cm := range dec.Commitments {
		l.AddCommitment(cm)
	}
	for _, nf := range dec.Nullifiers {
		if !l.AddNullifier(nf) {
			return fmt.Errorf("duplicate nullifier %x", nf[:4])
		}
	}
	return nil
}
