package merkle

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/kysee/zkledger/utils"
	"github.com/stretchr/testify/require"
)

// alias returns d+r, another 32-byte encoding of the element d.
func alias(d [32]byte) [32]byte {
	v := new(big.Int).SetBytes(d[:])
	v.Add(v, fr.Modulus())
	var out [32]byte
	v.FillBytes(out[:])
	return out
}

func makeLeaves(n int) [][]byte {
	leaves := make([][]byte, n)
	for i := range leaves {
		leaves[i] = []byte(fmt.Sprintf("leaf-%d", i))
	}
	return leaves
}

func TestRoundTrip(t *testing.T) {
	for _, n := range []int{1, 2, 3, 5, 8, 17, 64} {
		leaves := makeLeaves(n)
		root := Root(leaves)

		wantLen := 0
		for 1<<wantLen < n {
			wantLen++
		}

		for i := range leaves {
			path, err := PathFor(leaves, i)
			require.NoError(t, err)
			require.Len(t, path, wantLen, "n=%d", n)
			got, err := PathRoot(Leaf(leaves[i]), path)
			require.NoError(t, err)
			require.Equal(t, root, got, "n=%d i=%d", n, i)
			require.True(t, Verify(root, leaves[i], path))
		}
	}
}

func TestSingleLeaf(t *testing.T) {
	leaves := makeLeaves(1)
	path, err := PathFor(leaves, 0)
	require.NoError(t, err)
	require.Empty(t, path)
	require.Equal(t, Leaf(leaves[0]), Root(leaves))
}

func TestTamperedPath(t *testing.T) {
	leaves := makeLeaves(17)
	root := Root(leaves)
	path, err := PathFor(leaves, 5)
	require.NoError(t, err)

	for i := range path {
		bad := append(Path(nil), path...)
		bad[i].Sibling[0] ^= 1
		require.False(t, Verify(root, leaves[5], bad))

		flipped := append(Path(nil), path...)
		flipped[i].Left = !flipped[i].Left
		require.False(t, Verify(root, leaves[5], flipped))
	}
	require.False(t, Verify(root, leaves[6], path))
}

func TestLeafNodeSeparation(t *testing.T) {
	a, b := Leaf([]byte("a")), Leaf([]byte("b"))
	n := Node(a, b)
	require.NotEqual(t, n, Node(b, a))

	var raw []byte
	raw = append(raw, a[:]...)
	raw = append(raw, b[:]...)
	require.NotEqual(t, n, Leaf(raw))
}

func TestPathForOutOfRange(t *testing.T) {
	_, err := PathFor(makeLeaves(3), 3)
	require.Error(t, err)
	_, err = PathFor(nil, 0)
	require.Error(t, err)
}

func TestMMRProofs(t *testing.T) {
	m := NewMMR()
	leaves := makeLeaves(37)
	for i, l := range leaves {
		require.Equal(t, uint64(i), m.Append(l))

		// every leaf so far stays provable against the current peaks
		for j := 0; j <= i; j++ {
			p, err := m.Prove(uint64(j))
			require.NoError(t, err)
			require.True(t, m.VerifyProof(leaves[j], p), "count=%d leaf=%d", i+1, j)
		}
	}
	require.Len(t, m.Peaks(), 3) // 37 = 32 + 4 + 1

	_, err := m.Prove(37)
	require.Error(t, err)
}

func TestMMRRejectsWrongProof(t *testing.T) {
	m := NewMMR()
	leaves := makeLeaves(11)
	for _, l := range leaves {
		m.Append(l)
	}
	p, err := m.Prove(6)
	require.NoError(t, err)

	require.False(t, m.VerifyProof(leaves[5], p))

	moved := p
	moved.Index = 7
	require.False(t, m.VerifyProof(leaves[6], moved))

	short := MMRProof{Index: 6, Path: p.Path[:len(p.Path)-1]}
	require.False(t, m.VerifyProof(leaves[6], short))
}

func TestMMRRoot(t *testing.T) {
	a, b := NewMMR(), NewMMR()
	require.Equal(t, a.Root(), b.Root())

	a.Append([]byte("x"))
	require.NotEqual(t, a.Root(), b.Root())

	c := a.Clone()
	c.Append([]byte("y"))
	require.Equal(t, uint64(1), a.Count())
	require.Equal(t, uint64(2), c.Count())
	require.NotEqual(t, a.Root(), c.Root())

	b.Append([]byte("x"))
	require.Equal(t, a.Root(), b.Root())

	// a complete mountain has the balanced tree root as its only peak
	d := NewMMR()
	leaves := makeLeaves(8)
	for _, l := range leaves {
		d.Append(l)
	}
	require.Equal(t, [][32]byte{Root(leaves)}, d.Peaks())
	require.Equal(t, MMRRoot(8, d.Peaks()), d.Root())
}

func TestNonCanonicalSibling(t *testing.T) {
	leaves := makeLeaves(8)
	root := Root(leaves)
	path, err := PathFor(leaves, 3)
	require.NoError(t, err)
	require.True(t, Verify(root, leaves[3], path))

	for i := range path {
		bad := append(Path(nil), path...)
		bad[i].Sibling = alias(bad[i].Sibling)
		_, err := PathRoot(Leaf(leaves[3]), bad)
		require.ErrorIs(t, err, utils.ErrNonCanonical)
		require.False(t, Verify(root, leaves[3], bad))
	}

	_, err = PathRoot(alias(Leaf(leaves[3])), path)
	require.ErrorIs(t, err, utils.ErrNonCanonical)
}

func TestMMRRejectsNonCanonicalProof(t *testing.T) {
	m := NewMMR()
	for _, l := range makeLeaves(6) {
		m.Append(l)
	}
	leaf := Leaf([]byte("leaf-1"))
	proof, err := m.Prove(1)
	require.NoError(t, err)
	require.True(t, VerifyPeakProof(m.Count(), m.Peaks(), leaf, proof))

	bad := MMRProof{Index: proof.Index, Path: append(Path(nil), proof.Path...)}
	bad.Path[0].Sibling = alias(bad.Path[0].Sibling)
	require.False(t, VerifyPeakProof(m.Count(), m.Peaks(), leaf, bad))

	peaks := m.Peaks()
	peaks[0] = alias(peaks[0])
	require.False(t, VerifyPeakProof(m.Count(), peaks, leaf, proof))
}
