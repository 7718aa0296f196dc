package il

import (
	"errors"
	"fmt"

	"github.com/chazu/weaver/meta"
)

var (
	ErrUnknownOpCode   = errors.New("il: unknown opcode")
	ErrOperandMismatch = errors.New("il: operand does not match opcode")
	ErrNilOperand      = errors.New("il: nil operand")
	ErrAlreadyLinked   = errors.New("il: instruction already belongs to a list")
	ErrNotInList       = errors.New("il: instruction not in list")
)

// ---------------------------------------------------------------------------
// Instruction
// ---------------------------------------------------------------------------

// Instruction is an opcode plus at most one operand. Instructions have
// identity: branch targets, switch tables and exception-handler bounds hold
// *Instruction pointers, never indices.
//
// Operand holds one of: nil, int8, uint8, int16, uint16, int32, int64,
// float32, float64, string, *meta.TypeRef, *meta.MethodRef, *meta.FieldRef,
// *meta.CallSite, *Instruction, []*Instruction, *Variable or *Parameter.
type Instruction struct {
	OpCode  OpCode
	Operand any
	Offset  int // byte offset, valid after MethodBody.ComputeOffsets

	list       *InstructionList
	next, prev *Instruction
}

// Next returns the following instruction, or nil at the end of the list.
func (i *Instruction) Next() *Instruction {
	return i.next
}

// Previous returns the preceding instruction, or nil at the start of the list.
func (i *Instruction) Previous() *Instruction {
	return i.prev
}

// Linked reports whether i currently belongs to an instruction list.
func (i *Instruction) Linked() bool {
	return i.list != nil
}

// Size returns the encoded size in bytes of opcode plus operand.
func (i *Instruction) Size() int {
	size := i.OpCode.Size()
	ot := i.OpCode.OperandType()
	size += ot.Size()
	if ot == InlineSwitch {
		if targets, ok := i.Operand.([]*Instruction); ok {
			size += 4 * len(targets)
		}
	}
	return size
}

// Validate checks that the operand's Go type and value fit the opcode.
func (i *Instruction) Validate() error {
	if !i.OpCode.Known() {
		return fmt.Errorf("%w: 0x%04X", ErrUnknownOpCode, uint16(i.OpCode))
	}
	return checkOperand(i.OpCode, i.Operand)
}

// Variable is a local variable slot of a method body.
type Variable struct {
	Index int
	Name  string
	Type  *meta.TypeRef
}

// String returns the variable name, or V_<index>.
func (v *Variable) String() string {
	if v.Name != "" {
		return v.Name
	}
	return fmt.Sprintf("V_%d", v.Index)
}

// Parameter is a method parameter slot. Index 0 is the first declared
// parameter; instance methods address `this` separately.
type Parameter struct {
	Index int
	Name  string
	Type  *meta.TypeRef
}

// String returns the parameter name, or A_<index>.
func (p *Parameter) String() string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("A_%d", p.Index)
}

// ---------------------------------------------------------------------------
// Factory: one constructor per operand shape
// ---------------------------------------------------------------------------

// Create returns an instruction without operand.
func Create(op OpCode) (*Instruction, error) {
	return build(op, nil)
}

// CreateInt8 returns an instruction with a signed byte operand.
func CreateInt8(op OpCode, v int8) (*Instruction, error) { return build(op, v) }

// CreateUint8 returns an instruction with an unsigned byte operand.
func CreateUint8(op OpCode, v uint8) (*Instruction, error) { return build(op, v) }

// CreateInt16 returns an instruction with a 16-bit operand.
func CreateInt16(op OpCode, v int16) (*Instruction, error) { return build(op, v) }

// CreateUint16 returns an instruction with an unsigned 16-bit operand.
func CreateUint16(op OpCode, v uint16) (*Instruction, error) { return build(op, v) }

// CreateInt32 returns an instruction with a 32-bit operand.
func CreateInt32(op OpCode, v int32) (*Instruction, error) { return build(op, v) }

// CreateInt64 returns an instruction with a 64-bit operand.
func CreateInt64(op OpCode, v int64) (*Instruction, error) { return build(op, v) }

// CreateFloat32 returns an instruction with a single-precision operand.
func CreateFloat32(op OpCode, v float32) (*Instruction, error) { return build(op, v) }

// CreateFloat64 returns an instruction with a double-precision operand.
func CreateFloat64(op OpCode, v float64) (*Instruction, error) { return build(op, v) }

// CreateString returns an instruction with a string literal operand.
func CreateString(op OpCode, v string) (*Instruction, error) { return build(op, v) }

// CreateType returns an instruction with a type operand.
func CreateType(op OpCode, t *meta.TypeRef) (*Instruction, error) { return build(op, t) }

// CreateMethod returns an instruction with a method operand.
func CreateMethod(op OpCode, m *meta.MethodRef) (*Instruction, error) { return build(op, m) }

// CreateField returns an instruction with a field operand.
func CreateField(op OpCode, f *meta.FieldRef) (*Instruction, error) { return build(op, f) }

// CreateCallSite returns an instruction with a standalone signature operand.
func CreateCallSite(op OpCode, cs *meta.CallSite) (*Instruction, error) { return build(op, cs) }

// CreateBranch returns a branch to target.
func CreateBranch(op OpCode, target *Instruction) (*Instruction, error) { return build(op, target) }

// CreateSwitch returns a switch over targets. The slice is kept, not copied.
func CreateSwitch(op OpCode, targets []*Instruction) (*Instruction, error) {
	return build(op, targets)
}

// CreateVariable returns an instruction addressing a local variable.
func CreateVariable(op OpCode, v *Variable) (*Instruction, error) { return build(op, v) }

// CreateParameter returns an instruction addressing a parameter.
func CreateParameter(op OpCode, p *Parameter) (*Instruction, error) { return build(op, p) }

// MustCreate is like Create but panics on error. For fixtures and tables.
func MustCreate(op OpCode) *Instruction {
	i, err := Create(op)
	if err != nil {
		panic(err)
	}
	return i
}

func build(op OpCode, operand any) (*Instruction, error) {
	i := &Instruction{OpCode: op, Operand: operand}
	if err := i.Validate(); err != nil {
		return nil, err
	}
	return i, nil
}

// checkOperand reports whether operand's shape is legal for op.
func checkOperand(op OpCode, operand any) error {
	ot := op.OperandType()
	ok := false

	switch v := operand.(type) {
	case nil:
		ok = ot == InlineNone
	case int8, uint8:
		ok = ot == ShortInlineI
	case int16, uint16, int32:
		ok = ot == InlineI
	case int64:
		ok = ot == InlineI8
	case float32:
		ok = ot == ShortInlineR
	case float64:
		ok = ot == InlineR
	case string:
		ok = ot == InlineString
	case *meta.TypeRef:
		if v == nil {
			return nilOperand(op, operand)
		}
		ok = ot == InlineType || ot == InlineTok
	case *meta.MethodRef:
		if v == nil {
			return nilOperand(op, operand)
		}
		ok = ot == InlineMethod || ot == InlineTok
	case *meta.FieldRef:
		if v == nil {
			return nilOperand(op, operand)
		}
		ok = ot == InlineField || ot == InlineTok
	case *meta.CallSite:
		if v == nil {
			return nilOperand(op, operand)
		}
		ok = ot == InlineSig
	case *Instruction:
		if v == nil {
			return nilOperand(op, operand)
		}
		ok = ot == InlineBrTarget || ot == ShortInlineBrTarget
	case []*Instruction:
		for _, t := range v {
			if t == nil {
				return nilOperand(op, operand)
			}
		}
		ok = ot == InlineSwitch
	case *Variable:
		if v == nil {
			return nilOperand(op, operand)
		}
		ok = ot == InlineVar || ot == ShortInlineVar
	case *Parameter:
		if v == nil {
			return nilOperand(op, operand)
		}
		ok = ot == InlineArg || ot == ShortInlineArg
	}

	if !ok {
		if operand == nil {
			return fmt.Errorf("%w: %s requires a %s operand", ErrOperandMismatch, op, ot)
		}
		return fmt.Errorf("%w: %s (%s) cannot take %T", ErrOperandMismatch, op, ot, operand)
	}
	return nil
}

func nilOperand(op OpCode, operand any) error {
	return fmt.Errorf("%w: %s given nil %T", ErrNilOperand, op, operand)
}
