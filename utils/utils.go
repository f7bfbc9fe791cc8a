package utils

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"hash"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	_ "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	gnark_hash "github.com/consensys/gnark-crypto/hash"
)

// ErrNonCanonical reports a 32-byte digest that is not the canonical
// encoding of a BN254 scalar, i.e. not below the modulus.
var ErrNonCanonical = errors.New("non-canonical field element")

// LimbSize is the width of the halves a 32-byte word is split into before
// it is absorbed. Each limb is always a canonical field element.
const LimbSize = 16

func MiMCHasher() hash.Hash {
	return gnark_hash.MIMC_BN254.New()
}

// Hasher absorbs typed values into MiMC over the BN254 scalar field.
// Every value becomes one or more field elements, so the same computation
// can be replayed inside a circuit with std/hash/mimc.
//
// Digests are never reduced: a non-canonical one is skipped and recorded,
// and Err reports it.
type Hasher struct {
	h   hash.Hash
	err error
}

// NewHasher starts a hash domain-separated by tag.
func NewHasher(tag string) *Hasher {
	h := &Hasher{h: MiMCHasher()}
	h.WriteElement(TagElement(tag))
	return h
}

// TagElement maps a short ASCII tag to the field element used as its
// domain separator. Tags longer than 31 bytes are reduced modulo r.
func TagElement(tag string) fr.Element {
	var e fr.Element
	e.SetBytes([]byte(tag))
	return e
}

// TagBigInt is TagElement in the form circuits use for constants.
func TagBigInt(tag string) *big.Int {
	e := TagElement(tag)
	return e.BigInt(new(big.Int))
}

func (h *Hasher) WriteElement(e fr.Element) *Hasher {
	b := e.Bytes()
	if _, err := h.h.Write(b[:]); err != nil {
		// canonical elements are always accepted
		panic(err)
	}
	return h
}

func (h *Hasher) WriteUint64(v uint64) *Hasher {
	var e fr.Element
	e.SetUint64(v)
	return h.WriteElement(e)
}

// WriteDigest absorbs a value that is itself a field element, such as the
// output of another Sum. Values at or above the modulus are rejected.
func (h *Hasher) WriteDigest(d [32]byte) *Hasher {
	e, err := DigestElement(d)
	if err != nil {
		if h.err == nil {
			h.err = err
		}
		return h
	}
	return h.WriteElement(e)
}

// Err returns the first digest WriteDigest refused.
func (h *Hasher) Err() error {
	return h.err
}

// DigestElement decodes d as a canonical field element.
func DigestElement(d [32]byte) (fr.Element, error) {
	var e fr.Element
	if err := e.SetBytesCanonical(d[:]); err != nil {
		return e, fmt.Errorf("%w: %x", ErrNonCanonical, d[:4])
	}
	return e, nil
}

// CheckDigest fails unless every d is canonical.
func CheckDigest(ds ...[32]byte) error {
	for _, d := range ds {
		if _, err := DigestElement(d); err != nil {
			return err
		}
	}
	return nil
}

// WriteWord absorbs an arbitrary 32-byte word as two 128-bit limbs,
// high half first.
func (h *Hasher) WriteWord(w [32]byte) *Hasher {
	hi, lo := SplitWord(w)
	return h.WriteElement(hi).WriteElement(lo)
}

// WriteBytes absorbs the length followed by the data in 16-byte limbs.
// The last limb is right-padded with zeros.
func (h *Hasher) WriteBytes(b []byte) *Hasher {
	h.WriteUint64(uint64(len(b)))
	for i := 0; i < len(b); i += LimbSize {
		var limb [LimbSize]byte
		copy(limb[:], b[i:min(i+LimbSize, len(b))])
		var e fr.Element
		e.SetBytes(limb[:])
		h.WriteElement(e)
	}
	return h
}

func (h *Hasher) Sum() [32]byte {
	var out [32]byte
	copy(out[:], h.h.Sum(nil))
	return out
}

// SplitWord returns the high and low 128-bit halves of w.
func SplitWord(w [32]byte) (hi, lo fr.Element) {
	hi.SetBytes(w[:LimbSize])
	lo.SetBytes(w[LimbSize:])
	return
}

// WordLimbs is SplitWord for circuit assignments.
func WordLimbs(w [32]byte) (hi, lo *big.Int) {
	return new(big.Int).SetBytes(w[:LimbSize]), new(big.Int).SetBytes(w[LimbSize:])
}

// RandBytes panics when the system entropy source fails: an all-zero
// secret is the public nullifier sentinel.
func RandBytes(n int) []byte {
	rbz, err := readRand(crand.Reader, n)
	if err != nil {
		panic(err)
	}
	return rbz
}

func readRand(r io.Reader, n int) ([]byte, error) {
	rbz := make([]byte, n)
	if _, err := io.ReadFull(r, rbz); err != nil {
		return nil, fmt.Errorf("read randomness: %w", err)
	}
	return rbz, nil
}

func RandWord() [32]byte {
	var w [32]byte
	copy(w[:], RandBytes(32))
	return w
}
