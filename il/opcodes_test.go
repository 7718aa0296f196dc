package il

import (
	"errors"
	"strings"
	"testing"
)

func TestOpCodeInfo(t *testing.T) {
	tests := []struct {
		op          OpCode
		name        string
		operandType OperandType
		flow        FlowControl
		size        int
	}{
		{OpNop, "nop", InlineNone, FlowNext, 1},
		{OpLdcI4S, "ldc.i4.s", ShortInlineI, FlowNext, 1},
		{OpLdcI4, "ldc.i4", InlineI, FlowNext, 1},
		{OpLdcI8, "ldc.i8", InlineI8, FlowNext, 1},
		{OpLdcR4, "ldc.r4", ShortInlineR, FlowNext, 1},
		{OpLdcR8, "ldc.r8", InlineR, FlowNext, 1},
		{OpLdstr, "ldstr", InlineString, FlowNext, 1},
		{OpCall, "call", InlineMethod, FlowCall, 1},
		{OpCalli, "calli", InlineSig, FlowCall, 1},
		{OpBr, "br", InlineBrTarget, FlowBranch, 1},
		{OpBrtrueS, "brtrue.s", ShortInlineBrTarget, FlowCondBranch, 1},
		{OpSwitch, "switch", InlineSwitch, FlowCondBranch, 1},
		{OpLdfld, "ldfld", InlineField, FlowNext, 1},
		{OpLdtoken, "ldtoken", InlineTok, FlowNext, 1},
		{OpRet, "ret", InlineNone, FlowReturn, 1},
		{OpThrow, "throw", InlineNone, FlowThrow, 1},
		{OpCeq, "ceq", InlineNone, FlowNext, 2},
		{OpLdloc, "ldloc", InlineVar, FlowNext, 2},
		{OpLdarg, "ldarg", InlineArg, FlowNext, 2},
		{OpEndfilter, "endfilter", InlineNone, FlowReturn, 2},
	}

	for _, tt := range tests {
		info := tt.op.Info()
		if info.Name != tt.name {
			t.Errorf("%04X: Name = %q, want %q", uint16(tt.op), info.Name, tt.name)
		}
		if info.OperandType != tt.operandType {
			t.Errorf("%s: OperandType = %s, want %s", tt.op, info.OperandType, tt.operandType)
		}
		if info.Flow != tt.flow {
			t.Errorf("%s: Flow = %s, want %s", tt.op, info.Flow, tt.flow)
		}
		if tt.op.Size() != tt.size {
			t.Errorf("%s: Size = %d, want %d", tt.op, tt.op.Size(), tt.size)
		}
	}
}

func TestUnknownOpCode(t *testing.T) {
	op := OpCode(0x00FF)
	if op.Known() {
		t.Fatal("0xFF should not be a known opcode")
	}
	if !strings.HasPrefix(op.Name(), "UNKNOWN_") {
		t.Errorf("unknown opcode should have UNKNOWN_ prefix, got %q", op.Name())
	}
}

func TestParseOpCode(t *testing.T) {
	for op, info := range opcodeTable {
		got, err := ParseOpCode(info.Name)
		if err != nil {
			t.Errorf("ParseOpCode(%q): %v", info.Name, err)
			continue
		}
		if got != op {
			t.Errorf("ParseOpCode(%q) = %s, want %s", info.Name, got, op)
		}
	}

	if op, err := ParseOpCode("  LDSTR "); err != nil || op != OpLdstr {
		t.Errorf("ParseOpCode should ignore case and space, got %v, %v", op, err)
	}
	if _, err := ParseOpCode("frobnicate"); !errors.Is(err, ErrUnknownOpCode) {
		t.Errorf("ParseOpCode(frobnicate) error = %v, want ErrUnknownOpCode", err)
	}
}

func TestOperandTypeSize(t *testing.T) {
	tests := []struct {
		ot   OperandType
		size int
	}{
		{InlineNone, 0},
		{ShortInlineI, 1},
		{ShortInlineBrTarget, 1},
		{InlineVar, 2},
		{InlineArg, 2},
		{InlineI, 4},
		{InlineBrTarget, 4},
		{InlineSwitch, 4},
		{InlineI8, 8},
		{InlineR, 8},
	}
	for _, tt := range tests {
		if got := tt.ot.Size(); got != tt.size {
			t.Errorf("%s.Size() = %d, want %d", tt.ot, got, tt.size)
		}
	}
}
