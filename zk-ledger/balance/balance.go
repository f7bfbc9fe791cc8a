// Package balance implements homomorphic value commitments.
//
// A balance commits to the per-unit net value of a set of notes:
//
//	C = Σ (pos_u - neg_u)·H_u + r·G
//
// where H_u is the hash-to-curve of unit u and G is the BN254 G1
// generator. Commitments add, so a bundle is balanced exactly when the
// sum of its members' commitments opens to zero under the sum of their
// blindings.
package balance

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/holiman/uint256"
	"github.com/kysee/zkledger/zk-ledger/types"
)

var unitDST = []byte("ZKL-V01-CS02-with-BN254G1_XMD:SHA-256_SVDW_RO_UNIT_")

// UnitPoint returns the value generator H_u of unit.
func UnitPoint(unit types.Unit) bn254.G1Affine {
	p, err := bn254.HashToG1(unit[:], unitDST)
	if err != nil {
		// only fails on an oversized DST
		panic(err)
	}
	return p
}

func blindingBase() bn254.G1Affine {
	_, _, g, _ := bn254.Generators()
	return g
}

func RandomBlinding() fr.Element {
	var r fr.Element
	if _, err := r.SetRandom(); err != nil {
		panic(err)
	}
	return r
}

type UnitBalance struct {
	Unit types.Unit
	Pos  *uint256.Int
	Neg  *uint256.Int
}

// Witness is the private opening of a Balance.
type Witness struct {
	Units    []UnitBalance
	Blinding fr.Element
}

func NewWitness(blinding fr.Element) *Witness {
	return &Witness{Blinding: blinding}
}

func (w *Witness) entry(unit types.Unit) *UnitBalance {
	for i := range w.Units {
		if w.Units[i].Unit == unit {
			return &w.Units[i]
		}
	}
	w.Units = append(w.Units, UnitBalance{Unit: unit, Pos: uint256.NewInt(0), Neg: uint256.NewInt(0)})
	return &w.Units[len(w.Units)-1]
}

func (w *Witness) InsertPositive(unit types.Unit, value uint64) {
	e := w.entry(unit)
	e.Pos.Add(e.Pos, uint256.NewInt(value))
}

func (w *Witness) InsertNegative(unit types.Unit, value uint64) {
	e := w.entry(unit)
	e.Neg.Add(e.Neg, uint256.NewInt(value))
}

// Combine sums per-unit values and blindings of ws, then adds extra to
// the blinding.
func Combine(ws []*Witness, extra fr.Element) *Witness {
	out := NewWitness(extra)
	for _, w := range ws {
		for _, u := range w.Units {
			e := out.entry(u.Unit)
			e.Pos.Add(e.Pos, u.Pos)
			e.Neg.Add(e.Neg, u.Neg)
		}
		out.Blinding.Add(&out.Blinding, &w.Blinding)
	}
	return out
}

// IsZero holds when every unit nets to zero and the commitment opens to
// zero under the witness blinding.
func (w *Witness) IsZero() bool {
	for _, u := range w.Units {
		if !u.Pos.Eq(u.Neg) {
			return false
		}
	}
	return w.Commit().OpensToZero(w.Blinding)
}

// Net returns pos - neg for unit in the scalar field.
func (w *Witness) Net(unit types.Unit) fr.Element {
	var pos, neg fr.Element
	for _, u := range w.Units {
		if u.Unit == unit {
			b := u.Pos.Bytes32()
			pos.SetBytes(b[:])
			b = u.Neg.Bytes32()
			neg.SetBytes(b[:])
		}
	}
	var net fr.Element
	net.Sub(&pos, &neg)
	return net
}

func (w *Witness) Commit() Balance {
	var acc bn254.G1Jac
	for _, u := range w.Units {
		net := w.Net(u.Unit)
		if net.IsZero() {
			continue
		}
		h := UnitPoint(u.Unit)
		var term bn254.G1Affine
		term.ScalarMultiplication(&h, net.BigInt(new(big.Int)))
		acc.AddMixed(&term)
	}
	acc.AddMixed(blind(w.Blinding))

	var p bn254.G1Affine
	p.FromJacobian(&acc)
	return Balance(p.Bytes())
}

func blind(r fr.Element) *bn254.G1Affine {
	g := blindingBase()
	var p bn254.G1Affine
	p.ScalarMultiplication(&g, r.BigInt(new(big.Int)))
	return &p
}

// Balance is a compressed G1 point.
type Balance [bn254.SizeOfG1AffineCompressed]byte

func (b Balance) Point() (bn254.G1Affine, error) {
	var p bn254.G1Affine
	if _, err := p.SetBytes(b[:]); err != nil {
		return p, fmt.Errorf("invalid balance commitment: %w", err)
	}
	return p, nil
}

func (b Balance) Add(o Balance) (Balance, error) {
	return Sum(b, o)
}

func Sum(bs ...Balance) (Balance, error) {
	var acc bn254.G1Jac
	for _, b := range bs {
		p, err := b.Point()
		if err != nil {
			return Balance{}, err
		}
		acc.AddMixed(&p)
	}
	var p bn254.G1Affine
	p.FromJacobian(&acc)
	return Balance(p.Bytes()), nil
}

// OpensToZero reports whether b commits to zero value in every unit
// under blinding.
func (b Balance) OpensToZero(blinding fr.Element) bool {
	p, err := b.Point()
	if err != nil {
		return false
	}
	return p.Equal(blind(blinding))
}
