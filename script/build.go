package script

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chazu/weaver/il"
	"github.com/chazu/weaver/meta"
)

var (
	// ErrUnknownLabel is returned when a target, bound or step names a label
	// that no instruction carries.
	ErrUnknownLabel = errors.New("script: unknown label")

	// ErrOperandCount is returned when an instruction sets more than one
	// operand field.
	ErrOperandCount = errors.New("script: more than one operand")
)

// Build creates the method described by the script inside ts's module. The
// returned map holds the labelled instructions; Apply adds to it.
func (f *File) Build(ts *meta.TypeSystem) (*il.Method, map[string]*il.Instruction, error) {
	spec := f.Method
	m := il.NewMethod(f.ownType(ts, spec.Type), spec.Name, f.ownType(ts, spec.Returns))
	m.HasThis = spec.HasThis
	for _, p := range spec.Params {
		m.AddParameter(p.Name, f.ownType(ts, p.Type))
	}
	for _, l := range spec.Locals {
		m.Body.AddVariable(l.Name, f.ownType(ts, l.Type))
	}

	// Instructions are allocated before operands are resolved so that
	// forward branches find their targets.
	labels := make(map[string]*il.Instruction)
	instrs := make([]*il.Instruction, len(f.Body))
	for n, in := range f.Body {
		op, err := il.ParseOpCode(in.Op)
		if err != nil {
			return nil, nil, fmt.Errorf("body %d: %w", n, err)
		}
		instrs[n] = &il.Instruction{OpCode: op}
		if in.Label == "" {
			continue
		}
		if _, dup := labels[in.Label]; dup {
			return nil, nil, fmt.Errorf("body %d: duplicate label %q", n, in.Label)
		}
		labels[in.Label] = instrs[n]
	}

	r := &resolver{file: f, ts: ts, method: m, labels: labels}
	for n, in := range f.Body {
		v, err := r.operand(&in.Operand)
		if err != nil {
			return nil, nil, fmt.Errorf("body %d (%s): %w", n, in.Op, err)
		}
		i := instrs[n]
		i.Operand = importOperand(ts, v)
		if err := i.Validate(); err != nil {
			return nil, nil, fmt.Errorf("body %d: %w", n, err)
		}
		if err := m.Body.Instructions.PushBack(i); err != nil {
			return nil, nil, err
		}
	}

	for n, hs := range f.Handlers {
		h, err := r.handler(&hs)
		if err != nil {
			return nil, nil, fmt.Errorf("handler %d: %w", n, err)
		}
		m.Body.AddHandler(h)
	}
	log.Infof("built %s: %d instructions, %d handlers", m.FullName(), m.Body.Instructions.Len(), len(m.Body.ExceptionHandlers))
	return m, labels, nil
}

func importOperand(ts meta.Importer, v any) any {
	switch v := v.(type) {
	case *meta.TypeRef:
		return ts.ImportType(v)
	case *meta.MethodRef:
		return ts.ImportMethod(v)
	case *meta.FieldRef:
		return ts.ImportField(v)
	}
	return v
}

// module returns the module named name, creating it on first use. The empty
// name and the type system's own module name both mean the type system's
// module.
func (f *File) module(ts *meta.TypeSystem, name string) *meta.Module {
	if name == "" || name == ts.Module().Name {
		return ts.Module()
	}
	if f.modules == nil {
		f.modules = make(map[string]*meta.Module)
	}
	mod, ok := f.modules[name]
	if !ok {
		mod = meta.NewModule(name)
		f.modules[name] = mod
	}
	return mod
}

// ownType resolves a type name to a reference owned by ts's module. Empty
// and "void" mean no type.
func (f *File) ownType(ts *meta.TypeSystem, name string) *meta.TypeRef {
	if name == "" || name == "void" {
		return nil
	}
	scope, ns, n := meta.ParseTypeName(name)
	return ts.Type(f.module(ts, scope), ns, n)
}

// foreignType resolves a type name to a reference owned by owner. Types
// defined in owner itself are plain references; any other scope is kept as
// the defining module.
func (f *File) foreignType(ts *meta.TypeSystem, owner *meta.Module, name string) *meta.TypeRef {
	if owner == ts.Module() {
		return f.ownType(ts, name)
	}
	if name == "" || name == "void" {
		return nil
	}
	scope, ns, n := meta.ParseTypeName(name)
	return &meta.TypeRef{Module: owner, Scope: f.module(ts, scope), Namespace: ns, Name: n}
}

// resolver turns operand fields into operand values. Type, method and field
// references are returned owned by the module that defines them; callers
// import them.
type resolver struct {
	file    *File
	ts      *meta.TypeSystem
	method  *il.Method
	labels  map[string]*il.Instruction
	members map[string]any
}

func (r *resolver) label(name string) (*il.Instruction, error) {
	i, ok := r.labels[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownLabel, name)
	}
	return i, nil
}

func (r *resolver) operand(o *Operand) (any, error) {
	var (
		v   any
		set int
		err error
	)
	pick := func(ok bool, val func() (any, error)) {
		if !ok {
			return
		}
		set++
		if set == 1 {
			v, err = val()
		}
	}
	pick(o.I8 != nil, func() (any, error) { return *o.I8, nil })
	pick(o.U8 != nil, func() (any, error) { return *o.U8, nil })
	pick(o.I16 != nil, func() (any, error) { return *o.I16, nil })
	pick(o.U16 != nil, func() (any, error) { return *o.U16, nil })
	pick(o.I32 != nil, func() (any, error) { return *o.I32, nil })
	pick(o.I64 != nil, func() (any, error) { return *o.I64, nil })
	pick(o.R4 != nil, func() (any, error) { return *o.R4, nil })
	pick(o.R8 != nil, func() (any, error) { return *o.R8, nil })
	pick(o.Str != nil, func() (any, error) { return *o.Str, nil })
	pick(o.Target != "", func() (any, error) { return r.label(o.Target) })
	pick(o.Targets != nil, func() (any, error) {
		table := make([]*il.Instruction, len(o.Targets))
		for n, name := range o.Targets {
			i, err := r.label(name)
			if err != nil {
				return nil, err
			}
			table[n] = i
		}
		return table, nil
	})
	pick(o.Local != "", func() (any, error) { return r.local(o.Local) })
	pick(o.Arg != "", func() (any, error) { return r.arg(o.Arg) })
	pick(o.Type != "", func() (any, error) { return r.typeRef(o.Type), nil })
	pick(o.Method != nil, func() (any, error) { return r.methodRef(o.Method) })
	pick(o.Field != nil, func() (any, error) { return r.fieldRef(o.Field) })
	pick(o.Sig != nil, func() (any, error) { return r.callSite(o.Sig), nil })

	if set > 1 {
		return nil, fmt.Errorf("%w: %d fields set", ErrOperandCount, set)
	}
	return v, err
}

func (r *resolver) local(name string) (*il.Variable, error) {
	for _, v := range r.method.Body.Variables {
		if v.Name == name {
			return v, nil
		}
	}
	return nil, fmt.Errorf("unknown local %q", name)
}

func (r *resolver) arg(name string) (*il.Parameter, error) {
	for _, p := range r.method.Parameters {
		if p.Name == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("unknown parameter %q", name)
}

// owner is the module a reference to a member of typeName lives in: the
// module that defines the type.
func (r *resolver) owner(typeName string) *meta.Module {
	scope, _, _ := meta.ParseTypeName(typeName)
	return r.file.module(r.ts, scope)
}

func (r *resolver) typeRef(name string) *meta.TypeRef {
	return r.file.foreignType(r.ts, r.owner(name), name)
}

func (r *resolver) methodRef(s *MemberSpec) (*meta.MethodRef, error) {
	if s.Type == "" || s.Name == "" {
		return nil, errors.New("method needs a type and a name")
	}
	key := "method " + memberKey(s)
	if m, ok := r.members[key].(*meta.MethodRef); ok {
		return m, nil
	}
	owner := r.owner(s.Type)
	m := &meta.MethodRef{
		Module:        owner,
		DeclaringType: r.file.foreignType(r.ts, owner, s.Type),
		Name:          s.Name,
		ReturnType:    r.file.foreignType(r.ts, owner, s.Returns),
		HasThis:       s.Instance,
	}
	for _, p := range s.Params {
		m.Params = append(m.Params, r.file.foreignType(r.ts, owner, p))
	}
	r.remember(key, m)
	return m, nil
}

func (r *resolver) fieldRef(s *MemberSpec) (*meta.FieldRef, error) {
	if s.Type == "" || s.Name == "" {
		return nil, errors.New("field needs a type and a name")
	}
	if len(s.Params) > 0 || s.Instance {
		return nil, errors.New("field takes no params or instance flag")
	}
	key := "field " + memberKey(s)
	if f, ok := r.members[key].(*meta.FieldRef); ok {
		return f, nil
	}
	owner := r.owner(s.Type)
	f := &meta.FieldRef{
		Module:        owner,
		DeclaringType: r.file.foreignType(r.ts, owner, s.Type),
		Name:          s.Name,
		FieldType:     r.file.foreignType(r.ts, owner, s.Returns),
	}
	r.remember(key, f)
	return f, nil
}

// callSite types are carried verbatim, so they are resolved in the method's
// own module.
func (r *resolver) callSite(s *CallSiteSpec) *meta.CallSite {
	cs := &meta.CallSite{HasThis: s.Instance, ReturnType: r.file.ownType(r.ts, s.Returns)}
	for _, p := range s.Params {
		cs.Params = append(cs.Params, r.file.ownType(r.ts, p))
	}
	return cs
}

func (r *resolver) remember(key string, v any) {
	if r.members == nil {
		r.members = make(map[string]any)
	}
	r.members[key] = v
}

func memberKey(s *MemberSpec) string {
	return fmt.Sprintf("%t %s %s::%s(%s)", s.Instance, s.Returns, s.Type, s.Name, strings.Join(s.Params, ","))
}

func (r *resolver) handler(s *HandlerSpec) (*il.ExceptionHandler, error) {
	typ, err := il.ParseHandlerType(s.Type)
	if err != nil {
		return nil, err
	}
	h := &il.ExceptionHandler{Type: typ, CatchType: r.file.ownType(r.ts, s.Catch)}
	names := []string{s.TryStart, s.TryEnd, s.FilterStart, s.HandlerStart, s.HandlerEnd}
	for k, bound := range il.Bounds {
		if names[k] == "" {
			continue
		}
		i, err := r.label(names[k])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", bound, err)
		}
		h.Set(bound, i)
	}
	return h, nil
}
