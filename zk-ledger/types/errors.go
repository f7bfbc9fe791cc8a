package types

import (
	"errors"
	"fmt"
)

var (
	ErrBadLength = errors.New("bad length")
)

type ViolationKind uint8

const (
	ZoneMismatch ViolationKind = iota + 1
	BalanceNotZero
	PathMismatch
	NullifierSpent
	LedgerMismatch
	StateMismatch
	SliceMismatch
	UnknownStf
	MissingAssumption
	BundleReplayed
)

func (k ViolationKind) String() string {
	switch k {
	case ZoneMismatch:
		return "zone mismatch"
	case BalanceNotZero:
		return "balance not zero"
	case PathMismatch:
		return "path mismatch"
	case NullifierSpent:
		return "nullifier spent"
	case LedgerMismatch:
		return "ledger mismatch"
	case StateMismatch:
		return "state mismatch"
	case SliceMismatch:
		return "slice mismatch"
	case UnknownStf:
		return "unknown state transition"
	case MissingAssumption:
		return "missing assumption"
	case BundleReplayed:
		return "bundle replayed"
	default:
		return fmt.Sprintf("violation(%d)", uint8(k))
	}
}

// InvariantViolation reports that a statement about notes, balances or
// ledger state does not hold. It is never retried.
type InvariantViolation struct {
	Kind   ViolationKind
	Detail string
}

func Violation(kind ViolationKind, format string, args ...any) *InvariantViolation {
	return &InvariantViolation{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

func (e *InvariantViolation) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Detail
}

// Is matches any InvariantViolation of the same kind.
func (e *InvariantViolation) Is(target error) bool {
	t, ok := target.(*InvariantViolation)
	return ok && t.Kind == e.Kind
}

// IsViolation reports whether err carries an InvariantViolation of kind.
func IsViolation(err error, kind ViolationKind) bool {
	var v *InvariantViolation
	return errors.As(err, &v) && v.Kind == kind
}

func checkLen(name string, b []byte, n int) error {
	if len(b) != n {
		return fmt.Errorf("%s: %w: expected(%d), got(%d)", name, ErrBadLength, n, len(b))
	}
	return nil
}
