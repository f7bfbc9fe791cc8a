package zk_ledger

import (
	"context"
	"io"
	"testing"

	"github.com/kysee/zkledger/zk-ledger/config"
	"github.com/kysee/zkledger/zk-ledger/log"
	"github.com/kysee/zkledger/zk-ledger/programs"
	"github.com/kysee/zkledger/zk-ledger/proof"
	"github.com/kysee/zkledger/zk-ledger/ptx"
	"github.com/kysee/zkledger/zk-ledger/types"
	"github.com/kysee/zkledger/zk-ledger/zone"
	"github.com/stretchr/testify/require"
)

var (
	nmo   = types.DeriveUnit("NMO")
	zoneA = types.ZoneID{0xa}
	key   = []byte("0123456789abcdef0123456789abcdef")
)

func newWallet(t *testing.T) *Wallet {
	l, err := log.New("error", io.Discard)
	require.NoError(t, err)
	w, err := NewWallet(l)
	require.NoError(t, err)
	return w
}

// fund mints value to w.
func fund(t *testing.T, l *zone.Ledger, w *Wallet, value uint64) {
	out := types.NewOutput(types.NewNote(value, nmo), w.Address.NfPk, l.ID())
	enc, err := types.EncryptSecretNote(types.NewSecretNote(&out, nil), w.Address.EncPub)
	require.NoError(t, err)

	_, _, err = l.Mint(context.Background(), []types.Output{out.Commit()})
	require.NoError(t, err)
	_, err = w.Receive(out.Commit(), enc)
	require.NoError(t, err)
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()

	l, err := log.New(cfg.LogLevel, io.Discard)
	require.NoError(t, err)
	reg := zone.DefaultRegistry()
	prover, err := programs.NewLocalProver(key, reg, log.Component(l, "prover"))
	require.NoError(t, err)
	verifier, err := proof.NewCachingVerifier(proof.NewLocalVerifier(key), cfg.ProofCacheSize)
	require.NoError(t, err)
	ledger, err := zone.NewLedger(zoneA, zone.HashChainID,
		zone.WithRegistry(reg),
		zone.WithLogger(log.Component(l, "zone")),
		zone.WithBundleVerifier(programs.ReceiptVerifier{Verifier: verifier, Limit: cfg.VerifyParallelism}),
		zone.WithIssuance(),
	)
	require.NoError(t, err)

	sender, receiver := newWallet(t), newWallet(t)
	fund(t, ledger, sender, 10)

	addr, err := types.ParseAddress(receiver.Address.String())
	require.NoError(t, err)
	tr, err := sender.Transfer(addr, zoneA, nmo, 8, []byte("rent"))
	require.NoError(t, err)
	require.Len(t, tr.Ptx.Outputs, 2)

	// prove the transfer as a one-ptx bundle and apply it
	bw := &ptx.BundleWitness{Partials: []*ptx.PartialTxWitness{tr.Ptx}}
	_, ls := ledger.Snapshot()
	c, err := programs.ContextFor(ls, tr.Ptx.Inputs[0].Commitment())
	require.NoError(t, err)
	bp, err := programs.ProveBundle(ctx, prover, bw, [][]programs.InputContext{{c}})
	require.NoError(t, err)

	old, ls := ledger.Snapshot()
	tx, err := zone.Route(bw, zoneA, ledger)
	require.NoError(t, err)
	zp, err := programs.ProveZone(ctx, prover, &programs.ZoneWitness{Old: old, Ledger: ls, Txs: []zone.TxWitness{*tx}}, bp.Bundle.Receipt)
	require.NoError(t, err)
	u, _, err := ledger.Submit(ctx, []zone.TxWitness{*tx}, bp.Receipts()...)
	require.NoError(t, err)
	require.Equal(t, u, zp.Statement.Update)

	g := proof.NewGraph()
	bp.AddTo(g)
	g.Add(zp.Receipt, programs.ZoneProgramID)
	require.NoError(t, g.Verify(ctx, verifier, cfg.VerifyParallelism))
	require.Equal(t, 3, verifier.Len())

	// both sides pick up their notes from the published outputs
	outs := bp.Bundle.Statement.Outputs
	_, err = receiver.Receive(outs[0], tr.Notes[0])
	require.NoError(t, err)
	_, err = sender.Receive(outs[0], tr.Notes[0])
	require.Error(t, err)
	_, err = sender.Receive(outs[1], tr.Notes[1])
	require.NoError(t, err)
	sender.MarkSpent(tr.Ptx.Inputs)

	require.Equal(t, uint64(8), receiver.Balance(nmo).Uint64())
	require.Equal(t, uint64(2), sender.Balance(nmo).Uint64())
	require.Equal(t, 1, sender.NotesCount())
	require.True(t, ledger.HasNullifier(tr.Ptx.Inputs[0].Nullifier()))

	// the receiver can spend what it got
	back, err := receiver.Transfer(sender.Address, zoneA, nmo, 8, nil)
	require.NoError(t, err)
	require.Len(t, back.Ptx.Outputs, 1)
}

func TestTransferInsufficient(t *testing.T) {
	reg := zone.DefaultRegistry()
	ledger, err := zone.NewLedger(zoneA, zone.HashChainID, zone.WithRegistry(reg), zone.WithIssuance())
	require.NoError(t, err)

	w := newWallet(t)
	fund(t, ledger, w, 9)
	_, err = w.Transfer(newWallet(t).Address, zoneA, nmo, 10, nil)
	require.ErrorIs(t, err, ErrNotEnoughNotes)

	_, err = w.Transfer(newWallet(t).Address, zoneA, types.DeriveUnit("OTHER"), 1, nil)
	require.ErrorIs(t, err, ErrNotEnoughNotes)
}

func TestReceiveRejectsForeignOutput(t *testing.T) {
	w, other := newWallet(t), newWallet(t)
	out := types.NewOutput(types.NewNote(5, nmo), other.Address.NfPk, zoneA)
	enc, err := types.EncryptSecretNote(types.NewSecretNote(&out, nil), w.Address.EncPub)
	require.NoError(t, err)

	// readable by w, but owned by other
	_, err = w.Receive(out.Commit(), enc)
	require.ErrorIs(t, err, ErrNotMine)
	require.Zero(t, w.NotesCount())
}
