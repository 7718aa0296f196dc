package hash

import (
	"encoding/binary"
	"math"

	"github.com/chazu/weaver/il"
	"github.com/chazu/weaver/meta"
)

// ---------------------------------------------------------------------------
// Deterministic binary serialization of a method body.
//
// Encoding conventions:
//   - First byte: HashVersion
//   - Integers: big-endian fixed-width
//   - Floats: IEEE 754 big-endian bits
//   - Strings: uint32 big-endian length + UTF-8 bytes
//   - Booleans: single byte (0/1)
//   - Instruction references: uint32 index into the body's list
//   - Metadata references: by name, never by pointer or module version id
//
// Two bodies with the same shape serialize identically even when every
// instruction is a distinct record.
// ---------------------------------------------------------------------------

// Serialize produces a deterministic byte serialization of body.
func Serialize(body *il.MethodBody) []byte {
	s := newSerializer(body)
	s.writeByte(HashVersion)
	s.serializeBody(body)
	return s.buf
}

// SerializeMethod serializes m's signature followed by its body.
func SerializeMethod(m *il.Method) []byte {
	s := newSerializer(m.Body)
	s.writeByte(HashVersion)
	s.writeByte(TagMethodDef)
	s.writeTypeRef(m.DeclaringType)
	s.writeString(m.Name)
	s.writeTypeRef(m.ReturnType)
	s.writeBool(m.HasThis)
	s.writeUint32(uint32(len(m.Parameters)))
	for _, p := range m.Parameters {
		s.writeTypeRef(p.Type)
	}
	if m.Body != nil {
		s.serializeBody(m.Body)
	}
	return s.buf
}

type serializer struct {
	buf   []byte
	index map[*il.Instruction]int
}

func newSerializer(body *il.MethodBody) *serializer {
	s := &serializer{buf: make([]byte, 0, 256), index: map[*il.Instruction]int{}}
	if body != nil && body.Instructions != nil {
		k := 0
		for i := body.Instructions.First(); i != nil; i = i.Next() {
			s.index[i] = k
			k++
		}
	}
	return s
}

func (s *serializer) writeByte(b byte) {
	s.buf = append(s.buf, b)
}

func (s *serializer) writeBool(v bool) {
	if v {
		s.writeByte(1)
	} else {
		s.writeByte(0)
	}
}

func (s *serializer) writeUint16(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	s.buf = append(s.buf, b[:]...)
}

func (s *serializer) writeString(v string) {
	s.writeUint32(uint32(len(v)))
	s.buf = append(s.buf, v...)
}

func (s *serializer) serializeBody(body *il.MethodBody) {
	s.writeByte(TagBody)
	s.writeUint32(uint32(body.Instructions.Len()))
	for i := body.Instructions.First(); i != nil; i = i.Next() {
		s.writeUint16(uint16(i.OpCode))
		s.serializeOperand(i.Operand)
	}

	s.writeUint32(uint32(len(body.ExceptionHandlers)))
	for _, h := range body.ExceptionHandlers {
		s.writeByte(TagHandler)
		s.writeByte(byte(h.Type))
		for _, b := range il.Bounds {
			s.writeInstrRef(h.Get(b))
		}
		s.writeTypeRef(h.CatchType)
	}

	s.writeByte(TagLocals)
	s.writeUint32(uint32(len(body.Variables)))
	for _, v := range body.Variables {
		s.writeTypeRef(v.Type)
	}
	s.writeUint32(uint32(body.MaxStack))
	s.writeBool(body.InitLocals)
}

func (s *serializer) serializeOperand(operand any) {
	switch v := operand.(type) {
	case nil:
		s.writeByte(TagNone)
	case int8:
		s.writeByte(TagInt8)
		s.writeByte(byte(v))
	case uint8:
		s.writeByte(TagUint8)
		s.writeByte(v)
	case int16:
		s.writeByte(TagInt16)
		s.writeUint16(uint16(v))
	case uint16:
		s.writeByte(TagUint16)
		s.writeUint16(v)
	case int32:
		s.writeByte(TagInt32)
		s.writeUint32(uint32(v))
	case int64:
		s.writeByte(TagInt64)
		s.writeUint64(uint64(v))
	case float32:
		s.writeByte(TagFloat32)
		s.writeUint32(math.Float32bits(v))
	case float64:
		s.writeByte(TagFloat64)
		s.writeUint64(math.Float64bits(v))
	case string:
		s.writeByte(TagString)
		s.writeString(v)

	case *meta.TypeRef:
		s.writeTypeRef(v)
	case *meta.MethodRef:
		s.writeMethodRef(v)
	case *meta.FieldRef:
		if v == nil {
			s.writeByte(TagNilRef)
			return
		}
		s.writeByte(TagField)
		s.writeTypeRef(v.DeclaringType)
		s.writeString(v.Name)
		s.writeTypeRef(v.FieldType)
	case *meta.CallSite:
		if v == nil {
			s.writeByte(TagNilRef)
			return
		}
		s.writeByte(TagCallSite)
		s.writeBool(v.HasThis)
		s.writeTypeRef(v.ReturnType)
		s.writeTypeList(v.Params)

	case *il.Instruction:
		s.writeInstrRef(v)
	case []*il.Instruction:
		s.writeByte(TagSwitch)
		s.writeUint32(uint32(len(v)))
		for _, t := range v {
			s.writeInstrRef(t)
		}
	case *il.Variable:
		s.writeByte(TagVariable)
		s.writeUint32(uint32(v.Index))
	case *il.Parameter:
		s.writeByte(TagParameter)
		s.writeUint32(uint32(v.Index))
	default:
		// Not produced by the il factories.
		s.writeByte(TagNilRef)
	}
}

// writeInstrRef writes an index, or TagDangling for an instruction that is
// not in the body. nil bounds are TagNilRef.
func (s *serializer) writeInstrRef(i *il.Instruction) {
	if i == nil {
		s.writeByte(TagNilRef)
		return
	}
	k, ok := s.index[i]
	if !ok {
		s.writeByte(TagDangling)
		return
	}
	s.writeByte(TagTarget)
	s.writeUint32(uint32(k))
}

func (s *serializer) writeTypeRef(t *meta.TypeRef) {
	if t == nil {
		s.writeByte(TagNilRef)
		return
	}
	s.writeByte(TagType)
	scope := ""
	if t.Scope != nil {
		scope = t.Scope.Name
	}
	s.writeString(scope)
	s.writeString(t.Namespace)
	s.writeString(t.Name)
	s.writeBool(t.IsValueType)
}

func (s *serializer) writeMethodRef(m *meta.MethodRef) {
	if m == nil {
		s.writeByte(TagNilRef)
		return
	}
	s.writeByte(TagMethod)
	s.writeBool(m.HasThis)
	s.writeTypeRef(m.DeclaringType)
	s.writeString(m.Name)
	s.writeTypeRef(m.ReturnType)
	s.writeTypeList(m.Params)
}

func (s *serializer) writeTypeList(ts []*meta.TypeRef) {
	s.writeUint32(uint32(len(ts)))
	for _, t := range ts {
		s.writeTypeRef(t)
	}
}
