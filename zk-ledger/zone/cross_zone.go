package zone

import (
	"bytes"
	"sort"

	"github.com/kysee/zkledger/zk-ledger/ptx"
	"github.com/kysee/zkledger/zk-ledger/types"
)

// CrossZoneBundle names a bundle and every zone it touches. The bundle is
// accepted only if each listed zone applies exactly its slice.
type CrossZoneBundle struct {
	ID    ptx.BundleID
	Zones []types.ZoneID
}

func NewCrossZoneBundle(b *ptx.Bundle) *CrossZoneBundle {
	zones := b.Zones()
	sort.Slice(zones, func(i, j int) bool { return bytes.Compare(zones[i][:], zones[j][:]) < 0 })
	return &CrossZoneBundle{ID: b.ID(), Zones: zones}
}

// SliceOf selects the inputs and outputs of b in zone, in bundle order.
func SliceOf(b *ptx.Bundle, zone types.ZoneID) Slice {
	var s Slice
	for _, p := range b.Partials {
		s.Inputs = append(s.Inputs, p.ZoneInputs(zone)...)
		s.Outputs = append(s.Outputs, p.ZoneOutputs(zone)...)
	}
	return s
}

// SliceFor finds the slice a zone applied for bundle id.
func SliceFor(txs []TxWitness, id ptx.BundleID) (Slice, bool) {
	for i := range txs {
		if txs[i].Bundle == id {
			return txs[i].Slice(), true
		}
	}
	return Slice{}, false
}

func (s Slice) Equal(o Slice) bool {
	if len(s.Inputs) != len(o.Inputs) || len(s.Outputs) != len(o.Outputs) {
		return false
	}
	for i := range s.Inputs {
		if s.Inputs[i] != o.Inputs[i] {
			return false
		}
	}
	for i := range s.Outputs {
		if s.Outputs[i] != o.Outputs[i] {
			return false
		}
	}
	return true
}

// Verify checks b against the slices each zone reports to have applied.
// Slices must cover exactly the listed zones.
func (c *CrossZoneBundle) Verify(b *ptx.Bundle, slices map[types.ZoneID]Slice) error {
	if b.ID() != c.ID {
		return types.Violation(types.SliceMismatch, "bundle id")
	}
	listed := make(map[types.ZoneID]struct{}, len(c.Zones))
	for _, z := range c.Zones {
		if _, dup := listed[z]; dup {
			return types.Violation(types.ZoneMismatch, "zone %x listed twice", z[:4])
		}
		listed[z] = struct{}{}
	}
	for _, z := range b.Zones() {
		if _, ok := listed[z]; !ok {
			return types.Violation(types.ZoneMismatch, "zone %x not listed", z[:4])
		}
	}
	for z := range slices {
		if _, ok := listed[z]; !ok {
			return types.Violation(types.ZoneMismatch, "slice for unlisted zone %x", z[:4])
		}
	}
	for _, z := range c.Zones {
		got, ok := slices[z]
		if !ok {
			return types.Violation(types.SliceMismatch, "zone %x did not apply the bundle", z[:4])
		}
		if !got.Equal(SliceOf(b, z)) {
			return types.Violation(types.SliceMismatch, "zone %x", z[:4])
		}
	}
	return nil
}
