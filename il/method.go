package il

import (
	"fmt"
	"strings"

	"github.com/chazu/weaver/meta"
)

// ---------------------------------------------------------------------------
// Exception handlers
// ---------------------------------------------------------------------------

// HandlerType is the kind of a structured exception-handler region.
type HandlerType uint8

const (
	HandlerCatch HandlerType = iota
	HandlerFilter
	HandlerFinally
	HandlerFault
)

// String implements the Stringer interface.
func (h HandlerType) String() string {
	switch h {
	case HandlerCatch:
		return "catch"
	case HandlerFilter:
		return "filter"
	case HandlerFinally:
		return "finally"
	case HandlerFault:
		return "fault"
	default:
		return fmt.Sprintf("HandlerType(%d)", h)
	}
}

// ParseHandlerType is the inverse of HandlerType.String.
func ParseHandlerType(s string) (HandlerType, error) {
	for h := HandlerCatch; h <= HandlerFault; h++ {
		if strings.EqualFold(s, h.String()) {
			return h, nil
		}
	}
	return 0, fmt.Errorf("il: unknown handler type %q", s)
}

// ExceptionHandler is a protected region with its handler. Each bound is an
// instruction pointer and may be nil. End bounds are inclusive: they point at
// the last instruction still inside the region.
type ExceptionHandler struct {
	Type HandlerType

	TryStart     *Instruction
	TryEnd       *Instruction
	FilterStart  *Instruction
	HandlerStart *Instruction
	HandlerEnd   *Instruction

	CatchType *meta.TypeRef // catch handlers only
}

// Bound names one of the five instruction-valued fields of a handler.
type Bound uint8

const (
	BoundTryStart Bound = iota
	BoundTryEnd
	BoundFilterStart
	BoundHandlerStart
	BoundHandlerEnd
)

// Bounds lists every bound in declaration order.
var Bounds = []Bound{BoundTryStart, BoundTryEnd, BoundFilterStart, BoundHandlerStart, BoundHandlerEnd}

// IsStart reports whether b opens a region. Start bounds follow a removed
// instruction forward; end bounds follow it backward.
func (b Bound) IsStart() bool {
	return b == BoundTryStart || b == BoundFilterStart || b == BoundHandlerStart
}

// String implements the Stringer interface.
func (b Bound) String() string {
	switch b {
	case BoundTryStart:
		return "try_start"
	case BoundTryEnd:
		return "try_end"
	case BoundFilterStart:
		return "filter_start"
	case BoundHandlerStart:
		return "handler_start"
	case BoundHandlerEnd:
		return "handler_end"
	default:
		return fmt.Sprintf("Bound(%d)", b)
	}
}

// Get returns the instruction at bound b.
func (h *ExceptionHandler) Get(b Bound) *Instruction {
	switch b {
	case BoundTryStart:
		return h.TryStart
	case BoundTryEnd:
		return h.TryEnd
	case BoundFilterStart:
		return h.FilterStart
	case BoundHandlerStart:
		return h.HandlerStart
	case BoundHandlerEnd:
		return h.HandlerEnd
	}
	return nil
}

// Set stores i at bound b.
func (h *ExceptionHandler) Set(b Bound, i *Instruction) {
	switch b {
	case BoundTryStart:
		h.TryStart = i
	case BoundTryEnd:
		h.TryEnd = i
	case BoundFilterStart:
		h.FilterStart = i
	case BoundHandlerStart:
		h.HandlerStart = i
	case BoundHandlerEnd:
		h.HandlerEnd = i
	}
}

// ---------------------------------------------------------------------------
// MethodBody and Method
// ---------------------------------------------------------------------------

// MethodBody holds the code of a method.
type MethodBody struct {
	Instructions      *InstructionList
	ExceptionHandlers []*ExceptionHandler
	Variables         []*Variable
	MaxStack          int
	InitLocals        bool
}

// NewMethodBody creates an empty body.
func NewMethodBody() *MethodBody {
	return &MethodBody{Instructions: &InstructionList{}, MaxStack: 8, InitLocals: true}
}

// AddVariable appends a local variable slot and returns it.
func (b *MethodBody) AddVariable(name string, t *meta.TypeRef) *Variable {
	v := &Variable{Index: len(b.Variables), Name: name, Type: t}
	b.Variables = append(b.Variables, v)
	return v
}

// AddHandler appends an exception handler and returns it.
func (b *MethodBody) AddHandler(h *ExceptionHandler) *ExceptionHandler {
	b.ExceptionHandlers = append(b.ExceptionHandlers, h)
	return h
}

// ComputeOffsets assigns each instruction its byte offset and returns the
// code size.
func (b *MethodBody) ComputeOffsets() int {
	offset := 0
	for i := b.Instructions.First(); i != nil; i = i.Next() {
		i.Offset = offset
		offset += i.Size()
	}
	return offset
}

// Method is a method definition with a body.
type Method struct {
	DeclaringType *meta.TypeRef
	Name          string
	ReturnType    *meta.TypeRef // nil for void
	Parameters    []*Parameter
	HasThis       bool
	Body          *MethodBody
}

// NewMethod creates a method with an empty body.
func NewMethod(declaringType *meta.TypeRef, name string, returnType *meta.TypeRef) *Method {
	return &Method{
		DeclaringType: declaringType,
		Name:          name,
		ReturnType:    returnType,
		Body:          NewMethodBody(),
	}
}

// Module returns the module the method belongs to.
func (m *Method) Module() *meta.Module {
	if m.DeclaringType == nil {
		return nil
	}
	return m.DeclaringType.Module
}

// AddParameter appends a parameter and returns it.
func (m *Method) AddParameter(name string, t *meta.TypeRef) *Parameter {
	p := &Parameter{Index: len(m.Parameters), Name: name, Type: t}
	m.Parameters = append(m.Parameters, p)
	return p
}

// FullName returns "Ret Decl::Name(P1,P2)".
func (m *Method) FullName() string {
	ref := &meta.MethodRef{
		DeclaringType: m.DeclaringType,
		Name:          m.Name,
		ReturnType:    m.ReturnType,
		HasThis:       m.HasThis,
	}
	for _, p := range m.Parameters {
		ref.Params = append(ref.Params, p.Type)
	}
	return ref.String()
}
