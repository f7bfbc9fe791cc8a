package merkle

import (
	"fmt"

	"github.com/kysee/zkledger/utils"
)

const (
	TagLeaf = "zkl/merkle-leaf"
	TagNode = "zkl/merkle-node"
)

// Leaf and Node hash under different tags, so a leaf can never be
// confused with an interior node.
func Leaf(data []byte) [32]byte {
	return utils.NewHasher(TagLeaf).WriteBytes(data).Sum()
}

// Node expects canonical children. Hashes produced here always are;
// untrusted siblings go through PathRoot, which checks them.
func Node(left, right [32]byte) [32]byte {
	return utils.NewHasher(TagNode).WriteDigest(left).WriteDigest(right).Sum()
}

// PaddingLeaf fills a level up to the next power of two.
var PaddingLeaf = Leaf(nil)

// PathNode is one step of an inclusion path. Left reports that Sibling
// is the left child at that level.
type PathNode struct {
	Sibling [32]byte
	Left    bool
}

type Path []PathNode

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func leafLevel(leaves [][]byte) [][32]byte {
	n := nextPow2(len(leaves))
	level := make([][32]byte, n)
	for i := range level {
		if i < len(leaves) {
			level[i] = Leaf(leaves[i])
		} else {
			level[i] = PaddingLeaf
		}
	}
	return level
}

func parentLevel(level [][32]byte) [][32]byte {
	up := make([][32]byte, len(level)/2)
	for i := range up {
		up[i] = Node(level[2*i], level[2*i+1])
	}
	return up
}

// Root hashes leaves into a balanced tree, padding with PaddingLeaf.
// An empty list has the root of a single padding leaf.
func Root(leaves [][]byte) [32]byte {
	level := leafLevel(leaves)
	for len(level) > 1 {
		level = parentLevel(level)
	}
	return level[0]
}

// PathFor returns the inclusion path of leaves[idx]. Its length is
// log2 of the padded leaf count.
func PathFor(leaves [][]byte, idx int) (Path, error) {
	if idx < 0 || idx >= len(leaves) {
		return nil, fmt.Errorf("leaf index out of range: %d/%d", idx, len(leaves))
	}
	level := leafLevel(leaves)
	var path Path
	for len(level) > 1 {
		if idx%2 == 0 {
			path = append(path, PathNode{Sibling: level[idx+1], Left: false})
		} else {
			path = append(path, PathNode{Sibling: level[idx-1], Left: true})
		}
		level = parentLevel(level)
		idx /= 2
	}
	return path, nil
}

// PathRoot folds a leaf hash up through path. Every hash on the way must
// be a canonical field element, otherwise two encodings of the same
// element would fold to one root.
func PathRoot(leaf [32]byte, path Path) ([32]byte, error) {
	if err := utils.CheckDigest(leaf); err != nil {
		return [32]byte{}, fmt.Errorf("leaf: %w", err)
	}
	cur := leaf
	for i, p := range path {
		if err := utils.CheckDigest(p.Sibling); err != nil {
			return [32]byte{}, fmt.Errorf("sibling %d: %w", i, err)
		}
		if p.Left {
			cur = Node(p.Sibling, cur)
		} else {
			cur = Node(cur, p.Sibling)
		}
	}
	return cur, nil
}

// Verify checks that data is included under root.
func Verify(root [32]byte, data []byte, path Path) bool {
	got, err := PathRoot(Leaf(data), path)
	return err == nil && got == root
}
