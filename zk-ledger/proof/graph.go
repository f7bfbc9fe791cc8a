package proof

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

type obligation struct {
	receipt  *Receipt
	expected ProgramID
}

// Graph is a DAG of verification obligations. Each receipt must verify
// as its expected program and every assumption it lists must be another
// receipt of the graph.
type Graph struct {
	nodes map[Digest]obligation
	order []Digest
}

func NewGraph() *Graph {
	return &Graph{nodes: make(map[Digest]obligation)}
}

// Add registers r, expected to be a receipt of program. Adding the same
// receipt twice is a no-op.
func (g *Graph) Add(r *Receipt, program ProgramID) Digest {
	d := r.Digest()
	if _, ok := g.nodes[d]; !ok {
		g.nodes[d] = obligation{receipt: r, expected: program}
		g.order = append(g.order, d)
	}
	return d
}

func (g *Graph) Len() int {
	return len(g.nodes)
}

// levels groups the nodes so that every node comes after all of its
// assumptions.
func (g *Graph) levels() ([][]Digest, error) {
	pending := make(map[Digest]int, len(g.nodes))
	dependents := make(map[Digest][]Digest)
	for _, d := range g.order {
		for _, a := range g.nodes[d].receipt.Assumptions {
			if _, ok := g.nodes[a]; !ok {
				return nil, fmt.Errorf("%w: %x required by %x", ErrMissingAssumption, a[:4], d[:4])
			}
			pending[d]++
			dependents[a] = append(dependents[a], d)
		}
	}

	var levels [][]Digest
	var ready []Digest
	for _, d := range g.order {
		if pending[d] == 0 {
			ready = append(ready, d)
		}
	}
	done := 0
	for len(ready) > 0 {
		levels = append(levels, ready)
		done += len(ready)
		var next []Digest
		for _, d := range ready {
			for _, dep := range dependents[d] {
				pending[dep]--
				if pending[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		ready = next
	}
	if done != len(g.nodes) {
		return nil, ErrCycle
	}
	return levels, nil
}

// Verify checks every obligation with v. Assumptions are verified before
// the receipts that depend on them and independent receipts run in
// parallel, at most limit at a time (limit <= 0 means no limit).
func (g *Graph) Verify(ctx context.Context, v Verifier, limit int) error {
	levels, err := g.levels()
	if err != nil {
		return err
	}
	for _, level := range levels {
		eg, ctx := errgroup.WithContext(ctx)
		if limit > 0 {
			eg.SetLimit(limit)
		}
		for _, d := range level {
			ob := g.nodes[d]
			eg.Go(func() error {
				if err := v.Verify(ctx, ob.receipt, ob.expected); err != nil {
					return fmt.Errorf("receipt %x: %w", d[:4], err)
				}
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}
	}
	return nil
}
