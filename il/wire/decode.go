package wire

import (
	"fmt"

	"github.com/chazu/weaver/il"
	"github.com/chazu/weaver/il/hash"
	"github.com/chazu/weaver/meta"
)

// decoder materializes the arenas of one image. Arena entries are built
// once, so two operands that shared a reference before encoding share it
// again after decoding.
type decoder struct {
	img     *Image
	modules []*meta.Module
	types   []*meta.TypeRef
	methods []*meta.MethodRef
	fields  []*meta.FieldRef
	sites   []*meta.CallSite
}

func (def *MethodDef) decode(img *Image) (*il.Method, error) {
	if img.Version != ImageVersion {
		return nil, fmt.Errorf("%w: %d", ErrVersion, img.Version)
	}
	dec := &decoder{img: img}
	if err := dec.arenas(); err != nil {
		return nil, err
	}

	decl, err := dec.typeAt(def.DeclaringType)
	if err != nil {
		return nil, err
	}
	ret, err := dec.typeAt(def.ReturnType)
	if err != nil {
		return nil, err
	}
	m := il.NewMethod(decl, def.Name, ret)
	m.HasThis = def.HasThis
	for _, p := range def.Params {
		t, err := dec.typeAt(p.Type)
		if err != nil {
			return nil, err
		}
		m.AddParameter(p.Name, t)
	}
	if err := dec.body(m, &def.Body); err != nil {
		return nil, err
	}

	if got := hash.Method(m); got != img.Hash {
		return nil, fmt.Errorf("%w: %s", ErrHashMismatch, m.FullName())
	}
	return m, nil
}

func (dec *decoder) arenas() error {
	for _, r := range dec.img.Modules {
		dec.modules = append(dec.modules, &meta.Module{Name: r.Name, Mvid: r.Mvid})
	}
	// Types only reference modules, so one pass suffices.
	for n, r := range dec.img.Types {
		mod, err := dec.moduleAt(r.Module)
		if err != nil {
			return fmt.Errorf("type %d: %w", n, err)
		}
		scope, err := dec.moduleAt(r.Scope)
		if err != nil {
			return fmt.Errorf("type %d: %w", n, err)
		}
		dec.types = append(dec.types, &meta.TypeRef{
			Module: mod, Scope: scope, Namespace: r.Namespace, Name: r.Name, IsValueType: r.ValueType,
		})
	}
	for n, r := range dec.img.Methods {
		ref := &meta.MethodRef{Name: r.Name, HasThis: r.HasThis}
		var err error
		if ref.Module, err = dec.moduleAt(r.Module); err != nil {
			return fmt.Errorf("method %d: %w", n, err)
		}
		if ref.DeclaringType, err = dec.typeAt(r.DeclaringType); err != nil {
			return fmt.Errorf("method %d: %w", n, err)
		}
		if ref.ReturnType, err = dec.typeAt(r.ReturnType); err != nil {
			return fmt.Errorf("method %d: %w", n, err)
		}
		if ref.Params, err = dec.typeList(r.Params); err != nil {
			return fmt.Errorf("method %d: %w", n, err)
		}
		dec.methods = append(dec.methods, ref)
	}
	for n, r := range dec.img.Fields {
		ref := &meta.FieldRef{Name: r.Name}
		var err error
		if ref.Module, err = dec.moduleAt(r.Module); err != nil {
			return fmt.Errorf("field %d: %w", n, err)
		}
		if ref.DeclaringType, err = dec.typeAt(r.DeclaringType); err != nil {
			return fmt.Errorf("field %d: %w", n, err)
		}
		if ref.FieldType, err = dec.typeAt(r.FieldType); err != nil {
			return fmt.Errorf("field %d: %w", n, err)
		}
		dec.fields = append(dec.fields, ref)
	}
	for n, r := range dec.img.CallSites {
		cs := &meta.CallSite{HasThis: r.HasThis}
		var err error
		if cs.ReturnType, err = dec.typeAt(r.ReturnType); err != nil {
			return fmt.Errorf("callsite %d: %w", n, err)
		}
		if cs.Params, err = dec.typeList(r.Params); err != nil {
			return fmt.Errorf("callsite %d: %w", n, err)
		}
		dec.sites = append(dec.sites, cs)
	}
	return nil
}

// body decodes instructions in two passes: records first, then the
// references between them, so forward and self branches resolve.
func (dec *decoder) body(m *il.Method, rec *BodyRecord) error {
	b := m.Body
	b.MaxStack = rec.MaxStack
	b.InitLocals = rec.InitLocals
	for _, l := range rec.Locals {
		t, err := dec.typeAt(l.Type)
		if err != nil {
			return err
		}
		b.AddVariable(l.Name, t)
	}

	instrs := make([]*il.Instruction, len(rec.Instructions))
	for n := range rec.Instructions {
		instrs[n] = &il.Instruction{OpCode: il.OpCode(rec.Instructions[n].Op)}
	}
	target := func(ref int) (*il.Instruction, error) {
		if ref < 1 || ref > len(instrs) {
			return nil, fmt.Errorf("%w: instruction index %d out of range", ErrCorrupt, ref)
		}
		return instrs[ref-1], nil
	}

	for n, r := range rec.Instructions {
		i := instrs[n]
		var err error
		switch r.Kind {
		case KindNone:
		case KindInt8:
			i.Operand = int8(r.Int)
		case KindUint8:
			i.Operand = uint8(r.Int)
		case KindInt16:
			i.Operand = int16(r.Int)
		case KindUint16:
			i.Operand = uint16(r.Int)
		case KindInt32:
			i.Operand = int32(r.Int)
		case KindInt64:
			i.Operand = r.Int
		case KindFloat32:
			i.Operand = float32(r.Float)
		case KindFloat64:
			i.Operand = r.Float
		case KindString:
			i.Operand = r.Str
		case KindType:
			i.Operand, err = dec.typeAt(r.Ref)
		case KindMethod:
			i.Operand, err = dec.methodAt(r.Ref)
		case KindField:
			i.Operand, err = dec.fieldAt(r.Ref)
		case KindCallSite:
			i.Operand, err = dec.siteAt(r.Ref)
		case KindTarget:
			i.Operand, err = target(r.Ref)
		case KindSwitch:
			table := make([]*il.Instruction, len(r.Refs))
			for k, ref := range r.Refs {
				if table[k], err = target(ref); err != nil {
					break
				}
			}
			i.Operand = table
		case KindVariable:
			if r.Ref < 1 || r.Ref > len(b.Variables) {
				err = fmt.Errorf("%w: variable index %d out of range", ErrCorrupt, r.Ref)
			} else {
				i.Operand = b.Variables[r.Ref-1]
			}
		case KindParameter:
			if r.Ref < 1 || r.Ref > len(m.Parameters) {
				err = fmt.Errorf("%w: parameter index %d out of range", ErrCorrupt, r.Ref)
			} else {
				i.Operand = m.Parameters[r.Ref-1]
			}
		default:
			err = fmt.Errorf("%w: operand kind %d", ErrCorrupt, r.Kind)
		}
		if err == nil {
			err = i.Validate()
		}
		if err != nil {
			return fmt.Errorf("wire: decode instruction %d: %w", n, err)
		}
		if err := b.Instructions.PushBack(i); err != nil {
			return err
		}
	}

	for n, r := range rec.Handlers {
		h := &il.ExceptionHandler{Type: il.HandlerType(r.Type)}
		refs := []int{r.TryStart, r.TryEnd, r.FilterStart, r.HandlerStart, r.HandlerEnd}
		for k, bound := range il.Bounds {
			if refs[k] == 0 {
				continue
			}
			i, err := target(refs[k])
			if err != nil {
				return fmt.Errorf("wire: decode handler %d %s: %w", n, bound, err)
			}
			h.Set(bound, i)
		}
		var err error
		if h.CatchType, err = dec.typeAt(r.CatchType); err != nil {
			return err
		}
		b.AddHandler(h)
	}
	return nil
}

func (dec *decoder) moduleAt(ref int) (*meta.Module, error) {
	if ref == 0 {
		return nil, nil
	}
	if ref < 0 || ref > len(dec.modules) {
		return nil, fmt.Errorf("%w: module index %d out of range", ErrCorrupt, ref)
	}
	return dec.modules[ref-1], nil
}

func (dec *decoder) typeAt(ref int) (*meta.TypeRef, error) {
	if ref == 0 {
		return nil, nil
	}
	if ref < 0 || ref > len(dec.types) {
		return nil, fmt.Errorf("%w: type index %d out of range", ErrCorrupt, ref)
	}
	return dec.types[ref-1], nil
}

func (dec *decoder) typeList(refs []int) ([]*meta.TypeRef, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	out := make([]*meta.TypeRef, len(refs))
	for n, ref := range refs {
		t, err := dec.typeAt(ref)
		if err != nil {
			return nil, err
		}
		out[n] = t
	}
	return out, nil
}

func (dec *decoder) methodAt(ref int) (*meta.MethodRef, error) {
	if ref < 1 || ref > len(dec.methods) {
		return nil, fmt.Errorf("%w: method index %d out of range", ErrCorrupt, ref)
	}
	return dec.methods[ref-1], nil
}

func (dec *decoder) fieldAt(ref int) (*meta.FieldRef, error) {
	if ref < 1 || ref > len(dec.fields) {
		return nil, fmt.Errorf("%w: field index %d out of range", ErrCorrupt, ref)
	}
	return dec.fields[ref-1], nil
}

func (dec *decoder) siteAt(ref int) (*meta.CallSite, error) {
	if ref < 1 || ref > len(dec.sites) {
		return nil, fmt.Errorf("%w: callsite index %d out of range", ErrCorrupt, ref)
	}
	return dec.sites[ref-1], nil
}
