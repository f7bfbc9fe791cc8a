package proof

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/kysee/zkledger/zk-ledger/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var (
	squareID = NewProgramID("test/square/v1")
	sumID    = NewProgramID("test/sum/v1")
)

type squareStatement struct {
	X, Y uint64
}

// square proves Y = X*X and refuses zero.
type square struct{}

func (square) ID() ProgramID { return squareID }

func (square) Run(_ context.Context, witness []byte, _ Env) ([]byte, error) {
	var x uint64
	if err := rlp.DecodeBytes(witness, &x); err != nil {
		return nil, err
	}
	if x == 0 {
		return nil, types.Violation(types.StateMismatch, "zero")
	}
	return rlp.EncodeToBytes(&squareStatement{X: x, Y: x * x})
}

type sumStatement struct {
	Total uint64
}

// sum adds up the Y of every square receipt it is given.
type sum struct{}

func (sum) ID() ProgramID { return sumID }

func (sum) Run(_ context.Context, _ []byte, env Env) ([]byte, error) {
	var total uint64
	for _, j := range env.Assumptions(squareID) {
		var s squareStatement
		if err := rlp.DecodeBytes(j, &s); err != nil {
			return nil, err
		}
		total += s.Y
	}
	return rlp.EncodeToBytes(&sumStatement{Total: total})
}

func setup(t *testing.T) (*LocalProver, *LocalVerifier) {
	key := make([]byte, 32)
	key[0] = 7
	p, err := NewLocalProver(key, zerolog.Nop(), square{}, sum{})
	require.NoError(t, err)
	return p, NewLocalVerifier(key)
}

func TestProveVerify(t *testing.T) {
	p, v := setup(t)
	ctx := context.Background()

	pr, err := Prove[squareStatement](ctx, p, squareID, uint64(3))
	require.NoError(t, err)
	require.Equal(t, squareStatement{X: 3, Y: 9}, pr.Statement)
	require.NoError(t, pr.Verify(ctx, v, squareID))

	require.ErrorIs(t, pr.Verify(ctx, v, sumID), ErrProgramMismatch)

	pr.Statement.Y = 10
	require.ErrorIs(t, pr.Verify(ctx, v, squareID), ErrJournalMismatch)

	pr.Receipt.Seal[0] ^= 1
	require.ErrorIs(t, pr.Verify(ctx, v, squareID), ErrVerification)

	other := NewLocalVerifier(make([]byte, 32))
	pr2, err := Prove[squareStatement](ctx, p, squareID, uint64(4))
	require.NoError(t, err)
	require.ErrorIs(t, pr2.Verify(ctx, other, squareID), ErrVerification)
}

func TestProveFailures(t *testing.T) {
	p, _ := setup(t)
	ctx := context.Background()

	_, err := Prove[squareStatement](ctx, p, NewProgramID("nope"), uint64(1))
	require.ErrorIs(t, err, ErrUnknownProgram)

	// a false statement is distinguishable from infrastructure errors
	_, err = Prove[squareStatement](ctx, p, squareID, uint64(0))
	require.True(t, types.IsViolation(err, types.StateMismatch))

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Prove[squareStatement](cctx, p, squareID, uint64(2))
	require.ErrorIs(t, err, context.Canceled)

	_, err = NewLocalProver([]byte("short"), zerolog.Nop())
	require.Error(t, err)
}

func TestGraph(t *testing.T) {
	p, v := setup(t)
	ctx := context.Background()

	a, err := Prove[squareStatement](ctx, p, squareID, uint64(2))
	require.NoError(t, err)
	b, err := Prove[squareStatement](ctx, p, squareID, uint64(3))
	require.NoError(t, err)
	s, err := Prove[sumStatement](ctx, p, sumID, uint64(0), a.Receipt, b.Receipt)
	require.NoError(t, err)
	require.Equal(t, uint64(13), s.Statement.Total)
	require.Len(t, s.Receipt.Assumptions, 2)

	g := NewGraph()
	g.Add(s.Receipt, sumID)
	g.Add(a.Receipt, squareID)
	require.ErrorIs(t, g.Verify(ctx, v, 0), ErrMissingAssumption)

	g.Add(b.Receipt, squareID)
	g.Add(b.Receipt, squareID)
	require.Equal(t, 3, g.Len())
	require.NoError(t, g.Verify(ctx, v, 2))

	// a bad leaf fails the whole graph
	bad := *a.Receipt
	bad.Seal = append([]byte(nil), a.Receipt.Seal...)
	bad.Seal[0] ^= 1
	g2 := NewGraph()
	g2.Add(&bad, squareID)
	require.ErrorIs(t, g2.Verify(ctx, v, 0), ErrVerification)

	// a receipt checked against the wrong program
	g3 := NewGraph()
	g3.Add(a.Receipt, sumID)
	require.ErrorIs(t, g3.Verify(ctx, v, 0), ErrProgramMismatch)
}

type countingVerifier struct {
	inner Verifier
	calls atomic.Int32
}

func (c *countingVerifier) Verify(ctx context.Context, r *Receipt, expected ProgramID) error {
	c.calls.Add(1)
	return c.inner.Verify(ctx, r, expected)
}

func TestCachingVerifier(t *testing.T) {
	p, v := setup(t)
	ctx := context.Background()
	counting := &countingVerifier{inner: v}
	cv, err := NewCachingVerifier(counting, 16)
	require.NoError(t, err)

	pr, err := Prove[squareStatement](ctx, p, squareID, uint64(5))
	require.NoError(t, err)

	require.NoError(t, cv.Verify(ctx, pr.Receipt, squareID))
	require.NoError(t, cv.Verify(ctx, pr.Receipt, squareID))
	require.Equal(t, int32(1), counting.calls.Load())
	require.Equal(t, 1, cv.Len())

	// the cache is keyed on the expected program too
	require.True(t, errors.Is(cv.Verify(ctx, pr.Receipt, sumID), ErrProgramMismatch))

	forged := *pr.Receipt
	forged.Seal = make([]byte, len(pr.Receipt.Seal))
	require.ErrorIs(t, cv.Verify(ctx, &forged, squareID), ErrVerification)
	require.ErrorIs(t, cv.Verify(ctx, &forged, squareID), ErrVerification)
	require.Equal(t, int32(4), counting.calls.Load())
}
