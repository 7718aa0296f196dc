package cut

import (
	"fmt"
	"math"

	"github.com/chazu/weaver/il"
	"github.com/chazu/weaver/meta"
)

// Emit creates an operand-less instruction. The instruction is not linked.
func (c Cut) Emit(op il.OpCode) (*il.Instruction, error) {
	return il.Create(op)
}

// EmitOperand creates an instruction for op with operand, choosing the
// factory by the operand's dynamic type. Type, method and field references
// are imported into the editor's module first. A Cut operand becomes a
// branch to its pinned instruction.
func (c Cut) EmitOperand(op il.OpCode, operand any) (*il.Instruction, error) {
	switch v := operand.(type) {
	case nil:
		return il.Create(op)
	case Cut:
		return emitBranch(op, v)
	case *Cut:
		if v == nil {
			return nil, il.ErrNilOperand
		}
		return emitBranch(op, *v)

	case *meta.TypeRef:
		if v == nil {
			return nil, il.ErrNilOperand
		}
		return il.CreateType(op, c.importer().ImportType(v))
	case *meta.MethodRef:
		if v == nil {
			return nil, il.ErrNilOperand
		}
		return il.CreateMethod(op, c.importer().ImportMethod(v))
	case *meta.FieldRef:
		if v == nil {
			return nil, il.ErrNilOperand
		}
		return il.CreateField(op, c.importer().ImportField(v))
	case *meta.CallSite:
		return il.CreateCallSite(op, v)

	case string:
		return il.CreateString(op, v)
	case int8:
		return il.CreateInt8(op, v)
	case uint8:
		return il.CreateUint8(op, v)
	case int16:
		return il.CreateInt16(op, v)
	case uint16:
		return il.CreateUint16(op, v)
	case int32:
		return il.CreateInt32(op, v)
	case int:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return nil, fmt.Errorf("%w: int %d does not fit in 32 bits", il.ErrOperandMismatch, v)
		}
		return il.CreateInt32(op, int32(v))
	case int64:
		return il.CreateInt64(op, v)
	case float32:
		return il.CreateFloat32(op, v)
	case float64:
		return il.CreateFloat64(op, v)

	case *il.Instruction:
		return il.CreateBranch(op, v)
	case []*il.Instruction:
		return il.CreateSwitch(op, v)
	case *il.Variable:
		return il.CreateVariable(op, v)
	case *il.Parameter:
		return il.CreateParameter(op, v)
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedOperand, operand)
}

// WriteOp emits op with at most one operand and writes it at c.
func (c Cut) WriteOp(op il.OpCode, operand ...any) (Cut, error) {
	var (
		x   *il.Instruction
		err error
	)
	switch len(operand) {
	case 0:
		x, err = c.Emit(op)
	case 1:
		x, err = c.EmitOperand(op, operand[0])
	default:
		return c, fmt.Errorf("cut: %s takes at most one operand, got %d", op, len(operand))
	}
	if err != nil {
		return c, err
	}
	return c.Write(x)
}

func emitBranch(op il.OpCode, target Cut) (*il.Instruction, error) {
	if target.IsEndpoint() {
		return nil, ErrNoBranchTarget
	}
	if target.ref == nil {
		return nil, ErrInvalidCut
	}
	return il.CreateBranch(op, target.ref)
}

func (c Cut) importer() meta.Importer {
	if c.editor == nil {
		return passThrough{}
	}
	return c.editor.ts
}

// passThrough is the importer of a cut with no editor.
type passThrough struct{}

func (passThrough) ImportType(t *meta.TypeRef) *meta.TypeRef       { return t }
func (passThrough) ImportMethod(m *meta.MethodRef) *meta.MethodRef { return m }
func (passThrough) ImportField(f *meta.FieldRef) *meta.FieldRef    { return f }
