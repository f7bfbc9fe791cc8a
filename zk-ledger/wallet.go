package zk_ledger

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	jubjub "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/holiman/uint256"
	"github.com/kysee/zkledger/zk-ledger/crypto"
	"github.com/kysee/zkledger/zk-ledger/ptx"
	"github.com/kysee/zkledger/zk-ledger/types"
	"github.com/rs/zerolog"
)

var (
	ErrNotMine         = errors.New("secret note does not open the output")
	ErrNotEnoughNotes  = errors.New("not enough notes")
	ErrAlreadyReceived = errors.New("note already received")
)

// Wallet owns one nullifier secret and one encryption key and keeps the
// openings of the notes paid to them.
type Wallet struct {
	Address types.Address

	nfSk   types.NullifierSecret
	encKey *jubjub.PrivateKey
	log    zerolog.Logger

	mtx   sync.Mutex
	notes []types.OutputWitness
}

func NewWallet(log zerolog.Logger) (*Wallet, error) {
	encKey, err := crypto.NewKey()
	if err != nil {
		return nil, err
	}
	nfSk := types.RandNullifierSecret()
	return &Wallet{
		Address: types.Address{NfPk: nfSk.Commit(), EncPub: &encKey.PublicKey},
		nfSk:    nfSk,
		encKey:  encKey,
		log:     log,
	}, nil
}

// Receive decrypts enc and keeps the opening if it commits to out.
func (w *Wallet) Receive(out types.Output, enc *types.EncryptedNote) (types.OutputWitness, error) {
	sn, err := types.DecryptSecretNote(enc, w.encKey)
	if err != nil {
		return types.OutputWitness{}, err
	}
	ow := sn.Witness(w.Address.NfPk, out.Zone)
	if ow.Commitment() != out.NoteComm {
		return types.OutputWitness{}, ErrNotMine
	}

	w.mtx.Lock()
	defer w.mtx.Unlock()
	for _, n := range w.notes {
		if n.Commitment() == out.NoteComm {
			return types.OutputWitness{}, ErrAlreadyReceived
		}
	}
	w.notes = append(w.notes, ow)
	w.log.Debug().Uint64("value", ow.Note.Value).Hex("cm", out.NoteComm[:4]).Msg("received note")
	return ow, nil
}

func (w *Wallet) NotesCount() int {
	w.mtx.Lock()
	defer w.mtx.Unlock()
	return len(w.notes)
}

func (w *Wallet) Balance(unit types.Unit) *uint256.Int {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	ret := uint256.NewInt(0)
	for _, n := range w.notes {
		if n.Note.Unit == unit {
			ret.Add(ret, uint256.NewInt(n.Note.Value))
		}
	}
	return ret
}

// Transfer is an unsubmitted payment: a balanced partial transaction and,
// for each of its outputs, the secret note for whoever owns it.
type Transfer struct {
	Ptx   *ptx.PartialTxWitness
	Notes []*types.EncryptedNote
}

// Transfer spends the smallest set of notes, largest first, that covers
// amount of unit and pays it to the address in zone. Change comes back to
// the wallet. The spent notes stay in the wallet until MarkSpent.
func (w *Wallet) Transfer(to types.Address, zone types.ZoneID, unit types.Unit, amount uint64, memo []byte) (*Transfer, error) {
	inputs, err := w.selectNotes(unit, amount)
	if err != nil {
		return nil, err
	}
	pw, err := ptx.NewTransfer(inputs, []ptx.Payment{{To: to.NfPk, Zone: zone, Amount: amount}}, w.Address.NfPk)
	if err != nil {
		return nil, err
	}

	t := &Transfer{Ptx: pw}
	for i := range pw.Outputs {
		o := &pw.Outputs[i]
		rcpt := to.EncPub
		if i > 0 {
			rcpt = w.Address.EncPub
		}
		var m []byte
		if i == 0 {
			m = memo
		}
		enc, err := types.EncryptSecretNote(types.NewSecretNote(o, m), rcpt)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		t.Notes = append(t.Notes, enc)
	}
	w.log.Info().Str("to", to.String()).Uint64("amount", amount).Int("inputs", len(inputs)).Msg("transfer built")
	return t, nil
}

func (w *Wallet) selectNotes(unit types.Unit, amount uint64) ([]types.InputWitness, error) {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	var cands []types.OutputWitness
	for _, n := range w.notes {
		if n.Note.Unit == unit {
			cands = append(cands, n)
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].Note.Value > cands[j].Note.Value })

	var (
		inputs []types.InputWitness
		sum    = uint256.NewInt(0)
		need   = uint256.NewInt(amount)
	)
	for _, c := range cands {
		if sum.Cmp(need) >= 0 {
			break
		}
		inputs = append(inputs, types.InputFor(c, w.nfSk))
		sum.Add(sum, uint256.NewInt(c.Note.Value))
	}
	if sum.Cmp(need) < 0 || len(inputs) == 0 {
		return nil, fmt.Errorf("%w: have(%s), need(%d)", ErrNotEnoughNotes, sum.Dec(), amount)
	}
	return inputs, nil
}

// MarkSpent drops the notes consumed by inputs.
func (w *Wallet) MarkSpent(inputs []types.InputWitness) {
	spent := make(map[types.NoteCommitment]struct{}, len(inputs))
	for i := range inputs {
		spent[inputs[i].Commitment()] = struct{}{}
	}

	w.mtx.Lock()
	defer w.mtx.Unlock()
	kept := w.notes[:0]
	for _, n := range w.notes {
		if _, ok := spent[n.Commitment()]; !ok {
			kept = append(kept, n)
		}
	}
	w.notes = kept
}
