package zone

import (
	"context"
	"fmt"
	"sync"

	"github.com/kysee/zkledger/zk-ledger/merkle"
	"github.com/kysee/zkledger/zk-ledger/proof"
	"github.com/kysee/zkledger/zk-ledger/ptx"
	"github.com/kysee/zkledger/zk-ledger/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Ledger is the in-memory authority of one zone. Submissions are
// serialized; each one is staged on a copy and committed only when the
// whole update applies.
type Ledger struct {
	mu      sync.RWMutex
	state   State
	ledger  *LedgerState
	applied map[ptx.BundleID]struct{}

	reg        *Registry
	verifier   BundleVerifier
	issuance   bool
	log        zerolog.Logger
	registerer prometheus.Registerer
	metrics    *metrics
}

type Option func(*Ledger)

func WithLogger(log zerolog.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

func WithRegistry(reg *Registry) Option {
	return func(l *Ledger) { l.reg = reg }
}

func WithMetrics(registerer prometheus.Registerer) Option {
	return func(l *Ledger) { l.registerer = registerer }
}

// WithBundleVerifier sets what Submit checks transactions against.
// Without one, Submit refuses everything.
func WithBundleVerifier(v BundleVerifier) Option {
	return func(l *Ledger) { l.verifier = v }
}

// WithIssuance enables Mint.
func WithIssuance() Option {
	return func(l *Ledger) { l.issuance = true }
}

func NewLedger(id types.ZoneID, stf StfID, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		state:   Genesis(id, stf),
		ledger:  NewLedgerState(),
		applied: make(map[ptx.BundleID]struct{}),
		reg:     DefaultRegistry(),
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if _, err := l.reg.Lookup(stf); err != nil {
		return nil, err
	}
	m, err := newMetrics(l.registerer, id)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	l.metrics = m
	l.log = l.log.With().Hex("zone", id[:4]).Logger()
	return l, nil
}

func (l *Ledger) ID() types.ZoneID {
	return l.state.ID
}

func (l *Ledger) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Snapshot returns the current state with a private copy of its ledger.
func (l *Ledger) Snapshot() (State, *LedgerState) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state, l.ledger.Clone()
}

func (l *Ledger) ProveCommitment(cm types.NoteCommitment) (merkle.MMRProof, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ledger.ProveCommitment(cm)
}

func (l *Ledger) HasNullifier(nf types.Nullifier) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ledger.HasNullifier(nf)
}

// Submit applies txs atomically once the bundle verifier accepts them.
// Of two submissions spending the same note, at most one is accepted,
// and a bundle is applied at most once.
func (l *Ledger) Submit(ctx context.Context, txs []TxWitness, receipts ...*proof.Receipt) (Update, *LedgerState, error) {
	if l.verifier == nil {
		return Update{}, nil, ErrNoBundleVerifier
	}
	if err := l.verifier.VerifyBundles(ctx, l.ID(), txs, receipts); err != nil {
		l.metrics.reject(err)
		l.log.Warn().Err(err).Int("txs", len(txs)).Msg("bundles rejected")
		return Update{}, nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	seen := make(map[ptx.BundleID]struct{}, len(txs))
	for i := range txs {
		id := txs[i].Bundle
		_, dup := seen[id]
		if _, done := l.applied[id]; done || dup {
			err := types.Violation(types.BundleReplayed, "tx %d bundle %x", i, id[:4])
			l.metrics.reject(err)
			return Update{}, nil, err
		}
		seen[id] = struct{}{}
	}
	u, old, err := l.apply(ctx, txs)
	if err != nil {
		return Update{}, nil, err
	}
	for id := range seen {
		l.applied[id] = struct{}{}
	}
	return u, old, nil
}

// Mint creates outputs backed by no bundle. It is the only way value
// enters a zone and needs WithIssuance.
func (l *Ledger) Mint(ctx context.Context, outputs []types.Output) (Update, *LedgerState, error) {
	if !l.issuance {
		return Update{}, nil, ErrIssuanceDisabled
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log.Info().Int("outputs", len(outputs)).Msg("mint")
	return l.apply(ctx, []TxWitness{{Outputs: outputs}})
}

// apply runs under l.mu.
func (l *Ledger) apply(ctx context.Context, txs []TxWitness) (Update, *LedgerState, error) {
	if err := ctx.Err(); err != nil {
		return Update{}, nil, err
	}

	old, oldLedger := l.state, l.ledger
	next, nextLedger, err := Apply(old, oldLedger, txs, l.reg)
	if err != nil {
		l.metrics.reject(err)
		l.log.Warn().Err(err).Int("txs", len(txs)).Msg("update rejected")
		return Update{}, nil, err
	}

	l.state, l.ledger = next, nextLedger
	l.metrics.accepted.Inc()
	l.metrics.nullifiers.Set(float64(nextLedger.NullifierCount()))
	l.metrics.commitments.Set(float64(nextLedger.CommitmentCount()))
	l.log.Debug().
		Int("txs", len(txs)).
		Hex("ledger", next.Ledger[:8]).
		Msg("update accepted")

	// the caller gets the pre-update ledger as the witness of the update
	return Update{Old: old, New: next}, oldLedger, nil
}

// ValidateBundles checks the public balance equation of independent
// bundles in parallel. limit <= 0 means no limit.
func ValidateBundles(ctx context.Context, bundles []*ptx.Bundle, limit int) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, b := range bundles {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !b.IsBalanced() {
				return types.Violation(types.BalanceNotZero, "bundle %d", i)
			}
			return nil
		})
	}
	return g.Wait()
}
