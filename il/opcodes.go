package il

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Opcode definitions
// ---------------------------------------------------------------------------

// OpCode identifies an instruction. One-byte opcodes use their byte value;
// two-byte opcodes are 0xFE00 | second byte.
type OpCode uint16

// Base instructions
const (
	OpNop     OpCode = 0x00
	OpBreak   OpCode = 0x01
	OpLdarg0  OpCode = 0x02
	OpLdarg1  OpCode = 0x03
	OpLdarg2  OpCode = 0x04
	OpLdarg3  OpCode = 0x05
	OpLdloc0  OpCode = 0x06
	OpLdloc1  OpCode = 0x07
	OpLdloc2  OpCode = 0x08
	OpLdloc3  OpCode = 0x09
	OpStloc0  OpCode = 0x0A
	OpStloc1  OpCode = 0x0B
	OpStloc2  OpCode = 0x0C
	OpStloc3  OpCode = 0x0D
	OpLdargS  OpCode = 0x0E
	OpLdargaS OpCode = 0x0F
	OpStargS  OpCode = 0x10
	OpLdlocS  OpCode = 0x11
	OpLdlocaS OpCode = 0x12
	OpStlocS  OpCode = 0x13
	OpLdnull  OpCode = 0x14
	OpDup     OpCode = 0x25
	OpPop     OpCode = 0x26
	OpRet     OpCode = 0x2A
)

// Constants
const (
	OpLdcI4M1 OpCode = 0x15
	OpLdcI40  OpCode = 0x16
	OpLdcI41  OpCode = 0x17
	OpLdcI42  OpCode = 0x18
	OpLdcI43  OpCode = 0x19
	OpLdcI44  OpCode = 0x1A
	OpLdcI45  OpCode = 0x1B
	OpLdcI46  OpCode = 0x1C
	OpLdcI47  OpCode = 0x1D
	OpLdcI48  OpCode = 0x1E
	OpLdcI4S  OpCode = 0x1F // int8 operand
	OpLdcI4   OpCode = 0x20 // int32 operand
	OpLdcI8   OpCode = 0x21 // int64 operand
	OpLdcR4   OpCode = 0x22 // float32 operand
	OpLdcR8   OpCode = 0x23 // float64 operand
	OpLdstr   OpCode = 0x72
)

// Calls
const (
	OpJmp      OpCode = 0x27
	OpCall     OpCode = 0x28
	OpCalli    OpCode = 0x29
	OpCallvirt OpCode = 0x6F
	OpNewobj   OpCode = 0x73
	OpLdftn    OpCode = 0xFE06
)

// Control flow
const (
	OpBrS      OpCode = 0x2B
	OpBrfalseS OpCode = 0x2C
	OpBrtrueS  OpCode = 0x2D
	OpBeqS     OpCode = 0x2E
	OpBgeS     OpCode = 0x2F
	OpBgtS     OpCode = 0x30
	OpBleS     OpCode = 0x31
	OpBltS     OpCode = 0x32
	OpBneUnS   OpCode = 0x33
	OpBr       OpCode = 0x38
	OpBrfalse  OpCode = 0x39
	OpBrtrue   OpCode = 0x3A
	OpBeq      OpCode = 0x3B
	OpBge      OpCode = 0x3C
	OpBgt      OpCode = 0x3D
	OpBle      OpCode = 0x3E
	OpBlt      OpCode = 0x3F
	OpBneUn    OpCode = 0x40
	OpSwitch   OpCode = 0x45
	OpLeave    OpCode = 0xDD
	OpLeaveS   OpCode = 0xDE
)

// Arithmetic and comparison
const (
	OpAdd    OpCode = 0x58
	OpSub    OpCode = 0x59
	OpMul    OpCode = 0x5A
	OpDiv    OpCode = 0x5B
	OpRem    OpCode = 0x5D
	OpAnd    OpCode = 0x5F
	OpOr     OpCode = 0x60
	OpXor    OpCode = 0x61
	OpNeg    OpCode = 0x65
	OpNot    OpCode = 0x66
	OpConvI4 OpCode = 0x69
	OpConvI8 OpCode = 0x6A
	OpCeq    OpCode = 0xFE01
	OpCgt    OpCode = 0xFE02
	OpClt    OpCode = 0xFE04
)

// Objects, fields and arrays
const (
	OpLdobj     OpCode = 0x71
	OpCastclass OpCode = 0x74
	OpIsinst    OpCode = 0x75
	OpUnbox     OpCode = 0x79
	OpLdfld     OpCode = 0x7B
	OpLdflda    OpCode = 0x7C
	OpStfld     OpCode = 0x7D
	OpLdsfld    OpCode = 0x7E
	OpLdsflda   OpCode = 0x7F
	OpStsfld    OpCode = 0x80
	OpBox       OpCode = 0x8C
	OpNewarr    OpCode = 0x8D
	OpLdlen     OpCode = 0x8E
	OpLdelemRef OpCode = 0x9A
	OpStelemRef OpCode = 0xA2
	OpUnboxAny  OpCode = 0xA5
	OpLdtoken   OpCode = 0xD0
	OpInitobj   OpCode = 0xFE15
	OpSizeof    OpCode = 0xFE1C
)

// Exceptions
const (
	OpThrow      OpCode = 0x7A
	OpEndfinally OpCode = 0xDC
	OpEndfilter  OpCode = 0xFE11
	OpRethrow    OpCode = 0xFE1A
)

// Long-form variable access and prefixes
const (
	OpLdarg     OpCode = 0xFE09
	OpLdarga    OpCode = 0xFE0A
	OpStarg     OpCode = 0xFE0B
	OpLdloc     OpCode = 0xFE0C
	OpLdloca    OpCode = 0xFE0D
	OpStloc     OpCode = 0xFE0E
	OpUnaligned OpCode = 0xFE12 // uint8 operand
)

// ---------------------------------------------------------------------------
// Opcode metadata
// ---------------------------------------------------------------------------

// OperandType describes the operand an opcode carries.
type OperandType uint8

const (
	InlineNone OperandType = iota
	ShortInlineI
	InlineI
	InlineI8
	ShortInlineR
	InlineR
	InlineString
	InlineType
	InlineMethod
	InlineField
	InlineTok
	InlineSig
	InlineBrTarget
	ShortInlineBrTarget
	InlineSwitch
	InlineVar
	ShortInlineVar
	InlineArg
	ShortInlineArg
)

var operandTypeNames = [...]string{
	InlineNone:          "InlineNone",
	ShortInlineI:        "ShortInlineI",
	InlineI:             "InlineI",
	InlineI8:            "InlineI8",
	ShortInlineR:        "ShortInlineR",
	InlineR:             "InlineR",
	InlineString:        "InlineString",
	InlineType:          "InlineType",
	InlineMethod:        "InlineMethod",
	InlineField:         "InlineField",
	InlineTok:           "InlineTok",
	InlineSig:           "InlineSig",
	InlineBrTarget:      "InlineBrTarget",
	ShortInlineBrTarget: "ShortInlineBrTarget",
	InlineSwitch:        "InlineSwitch",
	InlineVar:           "InlineVar",
	ShortInlineVar:      "ShortInlineVar",
	InlineArg:           "InlineArg",
	ShortInlineArg:      "ShortInlineArg",
}

// String implements the Stringer interface.
func (t OperandType) String() string {
	if int(t) < len(operandTypeNames) {
		return operandTypeNames[t]
	}
	return fmt.Sprintf("OperandType(%d)", t)
}

// Size returns the encoded operand size in bytes. Switch operands are
// variable; Size reports only the 4-byte count.
func (t OperandType) Size() int {
	switch t {
	case InlineNone:
		return 0
	case ShortInlineI, ShortInlineBrTarget, ShortInlineVar, ShortInlineArg:
		return 1
	case InlineVar, InlineArg:
		return 2
	case InlineI8, InlineR:
		return 8
	default:
		return 4
	}
}

// FlowControl classifies how an opcode affects control flow.
type FlowControl uint8

const (
	FlowNext FlowControl = iota
	FlowBranch
	FlowCondBranch
	FlowCall
	FlowReturn
	FlowThrow
	FlowBreak
	FlowMeta
)

// String implements the Stringer interface.
func (f FlowControl) String() string {
	switch f {
	case FlowNext:
		return "next"
	case FlowBranch:
		return "branch"
	case FlowCondBranch:
		return "cond-branch"
	case FlowCall:
		return "call"
	case FlowReturn:
		return "return"
	case FlowThrow:
		return "throw"
	case FlowBreak:
		return "break"
	case FlowMeta:
		return "meta"
	default:
		return fmt.Sprintf("FlowControl(%d)", f)
	}
}

// OpCodeInfo holds metadata about an opcode.
type OpCodeInfo struct {
	Name        string      // ildasm mnemonic
	OperandType OperandType // operand shape
	Flow        FlowControl // control-flow class
}

// opcodeTable maps opcodes to their metadata.
var opcodeTable = map[OpCode]OpCodeInfo{
	// Base
	OpNop:     {"nop", InlineNone, FlowNext},
	OpBreak:   {"break", InlineNone, FlowBreak},
	OpLdarg0:  {"ldarg.0", InlineNone, FlowNext},
	OpLdarg1:  {"ldarg.1", InlineNone, FlowNext},
	OpLdarg2:  {"ldarg.2", InlineNone, FlowNext},
	OpLdarg3:  {"ldarg.3", InlineNone, FlowNext},
	OpLdloc0:  {"ldloc.0", InlineNone, FlowNext},
	OpLdloc1:  {"ldloc.1", InlineNone, FlowNext},
	OpLdloc2:  {"ldloc.2", InlineNone, FlowNext},
	OpLdloc3:  {"ldloc.3", InlineNone, FlowNext},
	OpStloc0:  {"stloc.0", InlineNone, FlowNext},
	OpStloc1:  {"stloc.1", InlineNone, FlowNext},
	OpStloc2:  {"stloc.2", InlineNone, FlowNext},
	OpStloc3:  {"stloc.3", InlineNone, FlowNext},
	OpLdargS:  {"ldarg.s", ShortInlineArg, FlowNext},
	OpLdargaS: {"ldarga.s", ShortInlineArg, FlowNext},
	OpStargS:  {"starg.s", ShortInlineArg, FlowNext},
	OpLdlocS:  {"ldloc.s", ShortInlineVar, FlowNext},
	OpLdlocaS: {"ldloca.s", ShortInlineVar, FlowNext},
	OpStlocS:  {"stloc.s", ShortInlineVar, FlowNext},
	OpLdnull:  {"ldnull", InlineNone, FlowNext},
	OpDup:     {"dup", InlineNone, FlowNext},
	OpPop:     {"pop", InlineNone, FlowNext},
	OpRet:     {"ret", InlineNone, FlowReturn},

	// Constants
	OpLdcI4M1: {"ldc.i4.m1", InlineNone, FlowNext},
	OpLdcI40:  {"ldc.i4.0", InlineNone, FlowNext},
	OpLdcI41:  {"ldc.i4.1", InlineNone, FlowNext},
	OpLdcI42:  {"ldc.i4.2", InlineNone, FlowNext},
	OpLdcI43:  {"ldc.i4.3", InlineNone, FlowNext},
	OpLdcI44:  {"ldc.i4.4", InlineNone, FlowNext},
	OpLdcI45:  {"ldc.i4.5", InlineNone, FlowNext},
	OpLdcI46:  {"ldc.i4.6", InlineNone, FlowNext},
	OpLdcI47:  {"ldc.i4.7", InlineNone, FlowNext},
	OpLdcI48:  {"ldc.i4.8", InlineNone, FlowNext},
	OpLdcI4S:  {"ldc.i4.s", ShortInlineI, FlowNext},
	OpLdcI4:   {"ldc.i4", InlineI, FlowNext},
	OpLdcI8:   {"ldc.i8", InlineI8, FlowNext},
	OpLdcR4:   {"ldc.r4", ShortInlineR, FlowNext},
	OpLdcR8:   {"ldc.r8", InlineR, FlowNext},
	OpLdstr:   {"ldstr", InlineString, FlowNext},

	// Calls
	OpJmp:      {"jmp", InlineMethod, FlowCall},
	OpCall:     {"call", InlineMethod, FlowCall},
	OpCalli:    {"calli", InlineSig, FlowCall},
	OpCallvirt: {"callvirt", InlineMethod, FlowCall},
	OpNewobj:   {"newobj", InlineMethod, FlowCall},
	OpLdftn:    {"ldftn", InlineMethod, FlowNext},

	// Control flow
	OpBrS:      {"br.s", ShortInlineBrTarget, FlowBranch},
	OpBrfalseS: {"brfalse.s", ShortInlineBrTarget, FlowCondBranch},
	OpBrtrueS:  {"brtrue.s", ShortInlineBrTarget, FlowCondBranch},
	OpBeqS:     {"beq.s", ShortInlineBrTarget, FlowCondBranch},
	OpBgeS:     {"bge.s", ShortInlineBrTarget, FlowCondBranch},
	OpBgtS:     {"bgt.s", ShortInlineBrTarget, FlowCondBranch},
	OpBleS:     {"ble.s", ShortInlineBrTarget, FlowCondBranch},
	OpBltS:     {"blt.s", ShortInlineBrTarget, FlowCondBranch},
	OpBneUnS:   {"bne.un.s", ShortInlineBrTarget, FlowCondBranch},
	OpBr:       {"br", InlineBrTarget, FlowBranch},
	OpBrfalse:  {"brfalse", InlineBrTarget, FlowCondBranch},
	OpBrtrue:   {"brtrue", InlineBrTarget, FlowCondBranch},
	OpBeq:      {"beq", InlineBrTarget, FlowCondBranch},
	OpBge:      {"bge", InlineBrTarget, FlowCondBranch},
	OpBgt:      {"bgt", InlineBrTarget, FlowCondBranch},
	OpBle:      {"ble", InlineBrTarget, FlowCondBranch},
	OpBlt:      {"blt", InlineBrTarget, FlowCondBranch},
	OpBneUn:    {"bne.un", InlineBrTarget, FlowCondBranch},
	OpSwitch:   {"switch", InlineSwitch, FlowCondBranch},
	OpLeave:    {"leave", InlineBrTarget, FlowBranch},
	OpLeaveS:   {"leave.s", ShortInlineBrTarget, FlowBranch},

	// Arithmetic and comparison
	OpAdd:    {"add", InlineNone, FlowNext},
	OpSub:    {"sub", InlineNone, FlowNext},
	OpMul:    {"mul", InlineNone, FlowNext},
	OpDiv:    {"div", InlineNone, FlowNext},
	OpRem:    {"rem", InlineNone, FlowNext},
	OpAnd:    {"and", InlineNone, FlowNext},
	OpOr:     {"or", InlineNone, FlowNext},
	OpXor:    {"xor", InlineNone, FlowNext},
	OpNeg:    {"neg", InlineNone, FlowNext},
	OpNot:    {"not", InlineNone, FlowNext},
	OpConvI4: {"conv.i4", InlineNone, FlowNext},
	OpConvI8: {"conv.i8", InlineNone, FlowNext},
	OpCeq:    {"ceq", InlineNone, FlowNext},
	OpCgt:    {"cgt", InlineNone, FlowNext},
	OpClt:    {"clt", InlineNone, FlowNext},

	// Objects, fields and arrays
	OpLdobj:     {"ldobj", InlineType, FlowNext},
	OpCastclass: {"castclass", InlineType, FlowNext},
	OpIsinst:    {"isinst", InlineType, FlowNext},
	OpUnbox:     {"unbox", InlineType, FlowNext},
	OpLdfld:     {"ldfld", InlineField, FlowNext},
	OpLdflda:    {"ldflda", InlineField, FlowNext},
	OpStfld:     {"stfld", InlineField, FlowNext},
	OpLdsfld:    {"ldsfld", InlineField, FlowNext},
	OpLdsflda:   {"ldsflda", InlineField, FlowNext},
	OpStsfld:    {"stsfld", InlineField, FlowNext},
	OpBox:       {"box", InlineType, FlowNext},
	OpNewarr:    {"newarr", InlineType, FlowNext},
	OpLdlen:     {"ldlen", InlineNone, FlowNext},
	OpLdelemRef: {"ldelem.ref", InlineNone, FlowNext},
	OpStelemRef: {"stelem.ref", InlineNone, FlowNext},
	OpUnboxAny:  {"unbox.any", InlineType, FlowNext},
	OpLdtoken:   {"ldtoken", InlineTok, FlowNext},
	OpInitobj:   {"initobj", InlineType, FlowNext},
	OpSizeof:    {"sizeof", InlineType, FlowNext},

	// Exceptions
	OpThrow:      {"throw", InlineNone, FlowThrow},
	OpEndfinally: {"endfinally", InlineNone, FlowReturn},
	OpEndfilter:  {"endfilter", InlineNone, FlowReturn},
	OpRethrow:    {"rethrow", InlineNone, FlowThrow},

	// Long-form variables and prefixes
	OpLdarg:     {"ldarg", InlineArg, FlowNext},
	OpLdarga:    {"ldarga", InlineArg, FlowNext},
	OpStarg:     {"starg", InlineArg, FlowNext},
	OpLdloc:     {"ldloc", InlineVar, FlowNext},
	OpLdloca:    {"ldloca", InlineVar, FlowNext},
	OpStloc:     {"stloc", InlineVar, FlowNext},
	OpUnaligned: {"unaligned.", ShortInlineI, FlowMeta},
}

// opcodesByName is the reverse of opcodeTable, built at init.
var opcodesByName map[string]OpCode

func init() {
	opcodesByName = make(map[string]OpCode, len(opcodeTable))
	for op, info := range opcodeTable {
		opcodesByName[info.Name] = op
	}
}

// Info returns the metadata for an opcode.
func (op OpCode) Info() OpCodeInfo {
	if info, ok := opcodeTable[op]; ok {
		return info
	}
	return OpCodeInfo{Name: fmt.Sprintf("UNKNOWN_%04X", uint16(op)), OperandType: InlineNone, Flow: FlowNext}
}

// Known reports whether op is in the opcode table.
func (op OpCode) Known() bool {
	_, ok := opcodeTable[op]
	return ok
}

// Name returns the ildasm mnemonic for an opcode.
func (op OpCode) Name() string {
	return op.Info().Name
}

// OperandType returns the operand shape of an opcode.
func (op OpCode) OperandType() OperandType {
	return op.Info().OperandType
}

// Flow returns the control-flow class of an opcode.
func (op OpCode) Flow() FlowControl {
	return op.Info().Flow
}

// Size returns the encoded opcode size in bytes (1 or 2).
func (op OpCode) Size() int {
	if op>>8 == 0xFE {
		return 2
	}
	return 1
}

// String implements the Stringer interface.
func (op OpCode) String() string {
	return op.Name()
}

// ParseOpCode looks up an opcode by mnemonic. Matching ignores case.
func ParseOpCode(name string) (OpCode, error) {
	if op, ok := opcodesByName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return op, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOpCode, name)
}
