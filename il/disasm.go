package il

import (
	"fmt"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Disassembly
// ---------------------------------------------------------------------------

// String renders the instruction as "IL_xxxx: op operand". Branch targets
// print their current Offset, so call MethodBody.ComputeOffsets first for
// meaningful labels.
func (i *Instruction) String() string {
	s := label(i) + ": " + i.OpCode.Name()
	if operand := FormatOperand(i.Operand); operand != "" {
		s += " " + operand
	}
	return s
}

// FormatOperand renders an operand the way ildasm does.
func FormatOperand(operand any) string {
	switch v := operand.(type) {
	case nil:
		return ""
	case string:
		return strconv.Quote(v)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case *Instruction:
		return label(v)
	case []*Instruction:
		labels := make([]string, len(v))
		for n, t := range v {
			labels[n] = label(t)
		}
		return "(" + strings.Join(labels, ", ") + ")"
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func label(i *Instruction) string {
	if i == nil {
		return "?"
	}
	return fmt.Sprintf("IL_%04x", i.Offset)
}

// DisassembleHandler renders a handler as an ildasm-style .try line.
func DisassembleHandler(h *ExceptionHandler) string {
	var b strings.Builder
	fmt.Fprintf(&b, ".try %s to %s ", label(h.TryStart), label(h.TryEnd))
	switch h.Type {
	case HandlerCatch:
		b.WriteString("catch ")
		if h.CatchType != nil {
			b.WriteString(h.CatchType.String())
			b.WriteByte(' ')
		}
	case HandlerFilter:
		fmt.Fprintf(&b, "filter %s ", label(h.FilterStart))
	default:
		b.WriteString(h.Type.String())
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "handler %s to %s", label(h.HandlerStart), label(h.HandlerEnd))
	return b.String()
}

// Disassemble returns a full listing of a body: locals, instructions, then
// exception handlers. Offsets are recomputed.
func Disassemble(body *MethodBody) string {
	body.ComputeOffsets()

	var lines []string
	if len(body.Variables) > 0 {
		locals := make([]string, len(body.Variables))
		for n, v := range body.Variables {
			locals[n] = fmt.Sprintf("[%d] %s %s", v.Index, FormatOperand(v.Type), v)
		}
		lines = append(lines, ".locals ("+strings.Join(locals, ", ")+")")
	}
	for i := body.Instructions.First(); i != nil; i = i.Next() {
		lines = append(lines, i.String())
	}
	for _, h := range body.ExceptionHandlers {
		lines = append(lines, DisassembleHandler(h))
	}
	return strings.Join(lines, "\n")
}
