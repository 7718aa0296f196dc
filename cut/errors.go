package cut

import (
	"errors"
	"fmt"

	"github.com/chazu/weaver/il"
)

var (
	ErrInvalidCut         = errors.New("cut: endpoint cut needs entry or exit")
	ErrNilEditor          = errors.New("cut: nil editor")
	ErrNilInstruction     = errors.New("cut: nil instruction")
	ErrEndpoint           = errors.New("cut: operation needs a cut at an instruction")
	ErrStaleCut           = errors.New("cut: instruction is no longer in the method body")
	ErrDanglingReference  = errors.New("cut: reference would be left dangling")
	ErrUnsupportedOperand = errors.New("cut: unsupported operand type")
	ErrNoBranchTarget     = errors.New("cut: endpoint cut is not a branch target")
)

// RefKind names what kind of reference could not be redirected.
type RefKind string

const (
	RefOperand RefKind = "operand"
	RefSwitch  RefKind = "switch"
)

// RedirectError reports a reference that would need a nil replacement.
// Handler is nil for operand and switch references.
type RedirectError struct {
	Kind        RefKind
	Bound       il.Bound // valid when Handler != nil
	Handler     *il.ExceptionHandler
	Referrer    *il.Instruction // instruction holding the operand
	Instruction *il.Instruction // instruction being unlinked
}

func (e *RedirectError) Error() string {
	if e.Handler != nil {
		return fmt.Sprintf("cut: %s handler %s points at %s with no instruction to inherit it",
			e.Handler.Type, e.Bound, e.Instruction.OpCode)
	}
	return fmt.Sprintf("cut: %s of %s targets %s with no successor to inherit it",
		e.Kind, e.Referrer.OpCode, e.Instruction.OpCode)
}

// Unwrap lets errors.Is match ErrDanglingReference.
func (e *RedirectError) Unwrap() error {
	return ErrDanglingReference
}
