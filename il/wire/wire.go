package wire

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/weaver/il"
	"github.com/chazu/weaver/il/hash"
	"github.com/chazu/weaver/meta"
)

var (
	ErrVersion      = errors.New("wire: unsupported image version")
	ErrCorrupt      = errors.New("wire: corrupt image")
	ErrHashMismatch = errors.New("wire: image hash does not match its content")
	ErrUnencodable  = errors.New("wire: method cannot be encoded")
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("wire: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Encode serializes m to canonical CBOR. Every branch target and handler
// bound must be an instruction of m's body.
func Encode(m *il.Method) ([]byte, error) {
	img, err := NewImage(m)
	if err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(img)
}

// Decode deserializes a method image and verifies its content hash.
func Decode(data []byte) (*il.Method, error) {
	var img Image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("wire: unmarshal image: %w", err)
	}
	return img.Method.decode(&img)
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

type encoder struct {
	img     *Image
	modules map[*meta.Module]int
	types   map[*meta.TypeRef]int
	methods map[*meta.MethodRef]int
	fields  map[*meta.FieldRef]int
	sites   map[*meta.CallSite]int
	instrs  map[*il.Instruction]int
}

// NewImage builds the arena representation of m without serializing it.
func NewImage(m *il.Method) (*Image, error) {
	if m == nil || m.Body == nil {
		return nil, fmt.Errorf("%w: nil method or body", ErrUnencodable)
	}
	enc := &encoder{
		img:     &Image{Version: ImageVersion, Hash: hash.Method(m)},
		modules: map[*meta.Module]int{},
		types:   map[*meta.TypeRef]int{},
		methods: map[*meta.MethodRef]int{},
		fields:  map[*meta.FieldRef]int{},
		sites:   map[*meta.CallSite]int{},
		instrs:  map[*il.Instruction]int{},
	}

	def := &enc.img.Method
	def.DeclaringType = enc.typeRef(m.DeclaringType)
	def.Name = m.Name
	def.ReturnType = enc.typeRef(m.ReturnType)
	def.HasThis = m.HasThis
	for _, p := range m.Parameters {
		def.Params = append(def.Params, LocalRecord{Name: p.Name, Type: enc.typeRef(p.Type)})
	}
	if err := enc.body(m, &def.Body); err != nil {
		return nil, err
	}
	return enc.img, nil
}

func (enc *encoder) body(m *il.Method, out *BodyRecord) error {
	b := m.Body
	out.MaxStack = b.MaxStack
	out.InitLocals = b.InitLocals
	for _, v := range b.Variables {
		out.Locals = append(out.Locals, LocalRecord{Name: v.Name, Type: enc.typeRef(v.Type)})
	}

	k := 1
	for i := b.Instructions.First(); i != nil; i = i.Next() {
		enc.instrs[i] = k
		k++
	}
	for i := b.Instructions.First(); i != nil; i = i.Next() {
		rec, err := enc.instruction(m, i)
		if err != nil {
			return fmt.Errorf("wire: encode %s at %d: %w", i.OpCode, enc.instrs[i]-1, err)
		}
		out.Instructions = append(out.Instructions, rec)
	}

	for n, h := range b.ExceptionHandlers {
		rec := HandlerRecord{Type: uint8(h.Type), CatchType: enc.typeRef(h.CatchType)}
		bounds := []*int{&rec.TryStart, &rec.TryEnd, &rec.FilterStart, &rec.HandlerStart, &rec.HandlerEnd}
		for j, bound := range il.Bounds {
			ref, err := enc.instrRef(h.Get(bound), true)
			if err != nil {
				return fmt.Errorf("wire: encode handler %d %s: %w", n, bound, err)
			}
			*bounds[j] = ref
		}
		out.Handlers = append(out.Handlers, rec)
	}
	return nil
}

func (enc *encoder) instruction(m *il.Method, i *il.Instruction) (InstrRecord, error) {
	rec := InstrRecord{Op: uint16(i.OpCode)}
	var err error

	switch v := i.Operand.(type) {
	case nil:
		rec.Kind = KindNone
	case int8:
		rec.Kind, rec.Int = KindInt8, int64(v)
	case uint8:
		rec.Kind, rec.Int = KindUint8, int64(v)
	case int16:
		rec.Kind, rec.Int = KindInt16, int64(v)
	case uint16:
		rec.Kind, rec.Int = KindUint16, int64(v)
	case int32:
		rec.Kind, rec.Int = KindInt32, int64(v)
	case int64:
		rec.Kind, rec.Int = KindInt64, v
	case float32:
		rec.Kind, rec.Float = KindFloat32, float64(v)
	case float64:
		rec.Kind, rec.Float = KindFloat64, v
	case string:
		rec.Kind, rec.Str = KindString, v

	case *meta.TypeRef:
		rec.Kind, rec.Ref = KindType, enc.typeRef(v)
	case *meta.MethodRef:
		rec.Kind, rec.Ref = KindMethod, enc.methodRef(v)
	case *meta.FieldRef:
		rec.Kind, rec.Ref = KindField, enc.fieldRef(v)
	case *meta.CallSite:
		rec.Kind, rec.Ref = KindCallSite, enc.callSite(v)

	case *il.Instruction:
		rec.Kind = KindTarget
		rec.Ref, err = enc.instrRef(v, false)
	case []*il.Instruction:
		rec.Kind = KindSwitch
		rec.Refs = make([]int, len(v))
		for n, t := range v {
			if rec.Refs[n], err = enc.instrRef(t, false); err != nil {
				break
			}
		}
	case *il.Variable:
		rec.Kind = KindVariable
		if v.Index < 0 || v.Index >= len(m.Body.Variables) || m.Body.Variables[v.Index] != v {
			err = fmt.Errorf("%w: variable %s is not a local of the body", ErrUnencodable, v)
		}
		rec.Ref = v.Index + 1
	case *il.Parameter:
		rec.Kind = KindParameter
		if v.Index < 0 || v.Index >= len(m.Parameters) || m.Parameters[v.Index] != v {
			err = fmt.Errorf("%w: parameter %s is not a parameter of the method", ErrUnencodable, v)
		}
		rec.Ref = v.Index + 1
	default:
		err = fmt.Errorf("%w: operand type %T", ErrUnencodable, v)
	}
	return rec, err
}

func (enc *encoder) instrRef(i *il.Instruction, nilOK bool) (int, error) {
	if i == nil {
		if nilOK {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: nil target", ErrUnencodable)
	}
	k, ok := enc.instrs[i]
	if !ok {
		return 0, fmt.Errorf("%w: reference to an instruction outside the body", ErrUnencodable)
	}
	return k, nil
}

func (enc *encoder) module(m *meta.Module) int {
	if m == nil {
		return 0
	}
	if k, ok := enc.modules[m]; ok {
		return k
	}
	enc.img.Modules = append(enc.img.Modules, ModuleRecord{Name: m.Name, Mvid: m.Mvid})
	k := len(enc.img.Modules)
	enc.modules[m] = k
	return k
}

func (enc *encoder) typeRef(t *meta.TypeRef) int {
	if t == nil {
		return 0
	}
	if k, ok := enc.types[t]; ok {
		return k
	}
	rec := TypeRecord{
		Module:    enc.module(t.Module),
		Scope:     enc.module(t.Scope),
		Namespace: t.Namespace,
		Name:      t.Name,
		ValueType: t.IsValueType,
	}
	enc.img.Types = append(enc.img.Types, rec)
	k := len(enc.img.Types)
	enc.types[t] = k
	return k
}

func (enc *encoder) typeRefs(ts []*meta.TypeRef) []int {
	if len(ts) == 0 {
		return nil
	}
	out := make([]int, len(ts))
	for n, t := range ts {
		out[n] = enc.typeRef(t)
	}
	return out
}

func (enc *encoder) methodRef(m *meta.MethodRef) int {
	if m == nil {
		return 0
	}
	if k, ok := enc.methods[m]; ok {
		return k
	}
	rec := MethodRecord{
		Module:        enc.module(m.Module),
		DeclaringType: enc.typeRef(m.DeclaringType),
		Name:          m.Name,
		ReturnType:    enc.typeRef(m.ReturnType),
		Params:        enc.typeRefs(m.Params),
		HasThis:       m.HasThis,
	}
	enc.img.Methods = append(enc.img.Methods, rec)
	k := len(enc.img.Methods)
	enc.methods[m] = k
	return k
}

func (enc *encoder) fieldRef(f *meta.FieldRef) int {
	if f == nil {
		return 0
	}
	if k, ok := enc.fields[f]; ok {
		return k
	}
	rec := FieldRecord{
		Module:        enc.module(f.Module),
		DeclaringType: enc.typeRef(f.DeclaringType),
		Name:          f.Name,
		FieldType:     enc.typeRef(f.FieldType),
	}
	enc.img.Fields = append(enc.img.Fields, rec)
	k := len(enc.img.Fields)
	enc.fields[f] = k
	return k
}

func (enc *encoder) callSite(cs *meta.CallSite) int {
	if cs == nil {
		return 0
	}
	if k, ok := enc.sites[cs]; ok {
		return k
	}
	rec := CallSiteRecord{
		HasThis:    cs.HasThis,
		ReturnType: enc.typeRef(cs.ReturnType),
		Params:     enc.typeRefs(cs.Params),
	}
	enc.img.CallSites = append(enc.img.CallSites, rec)
	k := len(enc.img.CallSites)
	enc.sites[cs] = k
	return k
}
