package circuits

import (
	"math/big"

	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
	"github.com/kysee/zkledger/utils"
	"github.com/kysee/zkledger/zk-ledger/merkle"
	"github.com/kysee/zkledger/zk-ledger/types"
)

// SpendCircuit proves that the prover can spend a note committed in a
// zone's accumulator: the public nullifier is derived from the secret that
// owns the note, and the note's leaf folds up to the public peak.
//
// Every 32-byte word enters as two 128-bit limbs, as in utils.Hasher.
type SpendCircuit struct {
	SkHi, SkLo                 frontend.Variable
	Value                      frontend.Variable
	UnitHi, UnitLo             frontend.Variable
	ConstraintHi, ConstraintLo frontend.Variable
	NonceHi, NonceLo           frontend.Variable

	Siblings []frontend.Variable
	// Lefts[i] is 1 when Siblings[i] is the left child
	Lefts []frontend.Variable

	ZoneHi    frontend.Variable `gnark:",public"`
	ZoneLo    frontend.Variable `gnark:",public"`
	Nullifier frontend.Variable `gnark:",public"`
	Peak      frontend.Variable `gnark:",public"`
}

// NewSpendCircuit allocates a circuit for peaks of height depth.
func NewSpendCircuit(depth int) *SpendCircuit {
	return &SpendCircuit{
		Siblings: make([]frontend.Variable, depth),
		Lefts:    make([]frontend.Variable, depth),
	}
}

var (
	tagNfPk   = utils.TagBigInt(types.TagNfPk)
	tagNf     = utils.TagBigInt(types.TagNf)
	tagNoteCm = utils.TagBigInt(types.TagNoteCm)
	tagLeaf   = utils.TagBigInt(merkle.TagLeaf)
	tagNode   = utils.TagBigInt(merkle.TagNode)
)

func (c *SpendCircuit) Define(api frontend.API) error {
	hasher, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	hash := func(vs ...frontend.Variable) frontend.Variable {
		hasher.Reset()
		hasher.Write(vs...)
		return hasher.Sum()
	}

	for _, limb := range []frontend.Variable{c.SkHi, c.SkLo, c.UnitHi, c.UnitLo, c.ConstraintHi, c.ConstraintLo, c.NonceHi, c.NonceLo, c.ZoneHi, c.ZoneLo} {
		_ = api.ToBinary(limb, 128)
	}
	_ = api.ToBinary(c.Value, 64)

	nf := hash(tagNf, c.SkHi, c.SkLo, c.NonceHi, c.NonceLo)
	api.AssertIsEqual(c.Nullifier, nf)

	nfPk := hash(tagNfPk, c.SkHi, c.SkLo)
	cm := hash(tagNoteCm,
		c.Value,
		c.UnitHi, c.UnitLo,
		c.ConstraintHi, c.ConstraintLo,
		nfPk,
		c.NonceHi, c.NonceLo,
		c.ZoneHi, c.ZoneLo,
	)

	// the accumulator stores Leaf(cm) over the 32 big-endian bytes of cm
	bits := api.ToBinary(cm)
	cmLo := api.FromBinary(bits[:128]...)
	cmHi := api.FromBinary(bits[128:]...)
	cur := hash(tagLeaf, 32, cmHi, cmLo)

	for i := range c.Siblings {
		api.AssertIsBoolean(c.Lefts[i])
		left := api.Select(c.Lefts[i], c.Siblings[i], cur)
		right := api.Select(c.Lefts[i], cur, c.Siblings[i])
		cur = hash(tagNode, left, right)
	}
	api.AssertIsEqual(c.Peak, cur)
	return nil
}

func digestVar(d [32]byte) *big.Int {
	return new(big.Int).SetBytes(d[:])
}

// AssignSpend fills a full witness for spending in through proof.
func AssignSpend(in types.InputWitness, proof merkle.MMRProof, peak [32]byte) *SpendCircuit {
	c := NewSpendCircuit(len(proof.Path))
	c.SkHi, c.SkLo = utils.WordLimbs(in.NfSk)
	c.Value = in.Note.Value
	c.UnitHi, c.UnitLo = utils.WordLimbs(in.Note.Unit)
	c.ConstraintHi, c.ConstraintLo = utils.WordLimbs(in.Note.Constraint)
	c.NonceHi, c.NonceLo = utils.WordLimbs(in.Nonce)
	for i, p := range proof.Path {
		c.Siblings[i] = digestVar(p.Sibling)
		if p.Left {
			c.Lefts[i] = 1
		} else {
			c.Lefts[i] = 0
		}
	}
	c.assignPublic(in.Zone, in.Nullifier(), peak)
	return c
}

// AssignPublic fills only the public part, for verification.
func AssignPublic(depth int, zone types.ZoneID, nf types.Nullifier, peak [32]byte) *SpendCircuit {
	c := NewSpendCircuit(depth)
	c.assignPublic(zone, nf, peak)
	return c
}

func (c *SpendCircuit) assignPublic(zone types.ZoneID, nf types.Nullifier, peak [32]byte) {
	c.ZoneHi, c.ZoneLo = utils.WordLimbs(zone)
	c.Nullifier = digestVar(nf)
	c.Peak = digestVar(peak)
}
