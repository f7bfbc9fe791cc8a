package merkle

import (
	"fmt"
	"math/bits"

	"github.com/kysee/zkledger/utils"
)

const TagMMRRoot = "zkl/mmr-root"

// MMR is an append-only Merkle mountain range. levels[h] holds every
// complete subtree of height h in leaf order; the peaks are the last
// node of each level whose bit is set in the leaf count.
type MMR struct {
	levels [][][32]byte
}

func NewMMR() *MMR {
	return &MMR{}
}

// MMRProof proves a leaf against the peak covering it.
type MMRProof struct {
	Index uint64
	Path  Path
}

func (m *MMR) Count() uint64 {
	if len(m.levels) == 0 {
		return 0
	}
	return uint64(len(m.levels[0]))
}

// Append adds data as a new leaf and returns its index.
func (m *MMR) Append(data []byte) uint64 {
	return m.AppendLeaf(Leaf(data))
}

// AppendLeaf adds an already hashed leaf.
func (m *MMR) AppendLeaf(leaf [32]byte) uint64 {
	idx := m.Count()
	cur := leaf
	for h := 0; ; h++ {
		if h == len(m.levels) {
			m.levels = append(m.levels, nil)
		}
		m.levels[h] = append(m.levels[h], cur)
		n := len(m.levels[h])
		if n%2 == 1 {
			return idx
		}
		cur = Node(m.levels[h][n-2], m.levels[h][n-1])
	}
}

// Peaks lists the peak hashes from the highest (leftmost) to the lowest.
func (m *MMR) Peaks() [][32]byte {
	count := m.Count()
	var peaks [][32]byte
	for h := len(m.levels) - 1; h >= 0; h-- {
		if count&(1<<uint(h)) != 0 {
			peaks = append(peaks, m.levels[h][len(m.levels[h])-1])
		}
	}
	return peaks
}

func (m *MMR) Root() [32]byte {
	return MMRRoot(m.Count(), m.Peaks())
}

// MMRRoot bags peaks right to left and binds the leaf count.
func MMRRoot(count uint64, peaks [][32]byte) [32]byte {
	var bag [32]byte
	for i := len(peaks) - 1; i >= 0; i-- {
		if i == len(peaks)-1 {
			bag = peaks[i]
		} else {
			bag = Node(peaks[i], bag)
		}
	}
	return utils.NewHasher(TagMMRRoot).WriteUint64(count).WriteDigest(bag).Sum()
}

// peakFor locates the peak covering idx: its height, its position in
// Peaks() and the index of its first leaf.
func peakFor(count, idx uint64) (height, pos int, start uint64, ok bool) {
	if idx >= count {
		return 0, 0, 0, false
	}
	for h := bits.Len64(count) - 1; h >= 0; h-- {
		size := uint64(1) << uint(h)
		if count&size == 0 {
			continue
		}
		if idx < start+size {
			return h, pos, start, true
		}
		start += size
		pos++
	}
	return 0, 0, 0, false
}

// Prove returns the path from leaf idx to its peak, O(log n).
func (m *MMR) Prove(idx uint64) (MMRProof, error) {
	height, _, _, ok := peakFor(m.Count(), idx)
	if !ok {
		return MMRProof{}, fmt.Errorf("leaf index out of range: %d/%d", idx, m.Count())
	}
	proof := MMRProof{Index: idx}
	pos := idx
	for h := 0; h < height; h++ {
		if pos%2 == 0 {
			proof.Path = append(proof.Path, PathNode{Sibling: m.levels[h][pos+1], Left: false})
		} else {
			proof.Path = append(proof.Path, PathNode{Sibling: m.levels[h][pos-1], Left: true})
		}
		pos /= 2
	}
	return proof, nil
}

func (m *MMR) VerifyProof(data []byte, proof MMRProof) bool {
	return VerifyPeakProof(m.Count(), m.Peaks(), Leaf(data), proof)
}

// VerifyPeakProof checks proof for leaf against the peaks of an MMR with
// count leaves. The path shape must match the position of the leaf.
func VerifyPeakProof(count uint64, peaks [][32]byte, leaf [32]byte, proof MMRProof) bool {
	height, pos, start, ok := peakFor(count, proof.Index)
	if !ok || pos >= len(peaks) || len(proof.Path) != height {
		return false
	}
	offset := proof.Index - start
	for h, p := range proof.Path {
		if p.Left != (offset>>uint(h)&1 == 1) {
			return false
		}
	}
	if utils.CheckDigest(peaks[pos]) != nil {
		return false
	}
	root, err := PathRoot(leaf, proof.Path)
	return err == nil && root == peaks[pos]
}

// Peak returns the peak hash covering idx.
func (m *MMR) Peak(idx uint64) ([32]byte, bool) {
	_, pos, _, ok := peakFor(m.Count(), idx)
	if !ok {
		return [32]byte{}, false
	}
	return m.Peaks()[pos], true
}

// Leaves returns the leaf hashes in append order.
func (m *MMR) Leaves() [][32]byte {
	if len(m.levels) == 0 {
		return nil
	}
	return append([][32]byte(nil), m.levels[0]...)
}

func (m *MMR) Clone() *MMR {
	c := &MMR{levels: make([][][32]byte, len(m.levels))}
	for h, l := range m.levels {
		c.levels[h] = append([][32]byte(nil), l...)
	}
	return c
}
