package proof

import (
	"context"
	"crypto/hmac"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2s"
)

// Env gives a running program access to the journals of the receipts it
// was proven with.
type Env interface {
	Assumptions(program ProgramID) [][]byte
}

// Program is the native form of a guest program.
type Program interface {
	ID() ProgramID
	Run(ctx context.Context, witness []byte, env Env) (journal []byte, err error)
}

type env map[ProgramID][][]byte

func (e env) Assumptions(program ProgramID) [][]byte {
	return e[program]
}

// LocalProver executes registered programs in process and seals their
// output with a keyed BLAKE2s MAC. It stands in for a zkVM in tests and
// single-operator deployments; it gives no zero-knowledge.
type LocalProver struct {
	key []byte
	log zerolog.Logger

	mu       sync.RWMutex
	programs map[ProgramID]Program
}

func NewLocalProver(key []byte, log zerolog.Logger, programs ...Program) (*LocalProver, error) {
	if len(key) != blake2s.Size {
		return nil, fmt.Errorf("seal key must be %d bytes", blake2s.Size)
	}
	p := &LocalProver{key: key, log: log, programs: make(map[ProgramID]Program)}
	for _, prog := range programs {
		p.Register(prog)
	}
	return p, nil
}

func (p *LocalProver) Register(prog Program) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.programs[prog.ID()] = prog
}

func (p *LocalProver) Prove(ctx context.Context, program ProgramID, witness []byte, assumptions ...*Receipt) (*Receipt, error) {
	p.mu.RLock()
	prog, ok := p.programs[program]
	p.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProgram, program)
	}

	e := make(env)
	digests := make([]Digest, len(assumptions))
	for i, a := range assumptions {
		e[a.Program] = append(e[a.Program], a.Journal)
		digests[i] = a.Digest()
	}

	journal, err := prog.Run(ctx, witness, e)
	if err != nil {
		p.log.Debug().Err(err).Str("program", program.String()).Msg("program failed")
		return nil, fmt.Errorf("program %s: %w", program, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r := &Receipt{Program: program, Journal: journal, Assumptions: digests}
	r.Seal = seal(p.key, r.Digest())
	p.log.Debug().
		Str("program", program.String()).
		Int("journal", len(journal)).
		Int("assumptions", len(digests)).
		Msg("receipt sealed")
	return r, nil
}

func seal(key []byte, d Digest) []byte {
	mac, err := blake2s.New256(key)
	if err != nil {
		panic(err)
	}
	mac.Write(d[:])
	return mac.Sum(nil)
}

type LocalVerifier struct {
	key []byte
}

func NewLocalVerifier(key []byte) *LocalVerifier {
	return &LocalVerifier{key: key}
}

func (v *LocalVerifier) Verify(ctx context.Context, r *Receipt, expected ProgramID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.Program != expected {
		return fmt.Errorf("%w: expected(%s), got(%s)", ErrProgramMismatch, expected, r.Program)
	}
	if !hmac.Equal(r.Seal, seal(v.key, r.Digest())) {
		return ErrVerification
	}
	return nil
}
