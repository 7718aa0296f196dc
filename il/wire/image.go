// Package wire encodes methods as self-contained CBOR images.
//
// Instruction identity does not survive serialization, so every reference
// inside an image is an index into one of its arenas: branch targets,
// switch tables and handler bounds index the instruction list; metadata
// references index the module, type, method, field and call-site tables.
// Indices are 1-based and 0 means nil, which lets omitempty drop absent
// references.
package wire

import (
	"github.com/google/uuid"
)

// ImageVersion is the version of the image layout written by Encode.
const ImageVersion byte = 1

// OperandKind records the Go shape of an instruction operand so that
// decoding restores the exact width it was written with.
type OperandKind uint8

const (
	KindNone OperandKind = iota
	KindInt8
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindString
	KindType
	KindMethod
	KindField
	KindCallSite
	KindTarget
	KindSwitch
	KindVariable
	KindParameter
)

// Image is the top-level record of an encoded method.
type Image struct {
	Version   byte             `cbor:"1,keyasint"`
	Hash      [32]byte         `cbor:"2,keyasint"` // hash.Method of the encoded method
	Modules   []ModuleRecord   `cbor:"3,keyasint,omitempty"`
	Types     []TypeRecord     `cbor:"4,keyasint,omitempty"`
	Methods   []MethodRecord   `cbor:"5,keyasint,omitempty"`
	Fields    []FieldRecord    `cbor:"6,keyasint,omitempty"`
	CallSites []CallSiteRecord `cbor:"7,keyasint,omitempty"`
	Method    MethodDef        `cbor:"8,keyasint"`
}

// ModuleRecord is one entry of the module arena.
type ModuleRecord struct {
	Name string    `cbor:"1,keyasint"`
	Mvid uuid.UUID `cbor:"2,keyasint"`
}

// TypeRecord is one entry of the type arena.
type TypeRecord struct {
	Module    int    `cbor:"1,keyasint,omitempty"`
	Scope     int    `cbor:"2,keyasint,omitempty"`
	Namespace string `cbor:"3,keyasint,omitempty"`
	Name      string `cbor:"4,keyasint"`
	ValueType bool   `cbor:"5,keyasint,omitempty"`
}

// MethodRecord is one entry of the method reference arena.
type MethodRecord struct {
	Module        int    `cbor:"1,keyasint,omitempty"`
	DeclaringType int    `cbor:"2,keyasint,omitempty"`
	Name          string `cbor:"3,keyasint"`
	ReturnType    int    `cbor:"4,keyasint,omitempty"`
	Params        []int  `cbor:"5,keyasint,omitempty"`
	HasThis       bool   `cbor:"6,keyasint,omitempty"`
}

// FieldRecord is one entry of the field reference arena.
type FieldRecord struct {
	Module        int    `cbor:"1,keyasint,omitempty"`
	DeclaringType int    `cbor:"2,keyasint,omitempty"`
	Name          string `cbor:"3,keyasint"`
	FieldType     int    `cbor:"4,keyasint,omitempty"`
}

// CallSiteRecord is one entry of the call-site arena.
type CallSiteRecord struct {
	HasThis    bool  `cbor:"1,keyasint,omitempty"`
	ReturnType int   `cbor:"2,keyasint,omitempty"`
	Params     []int `cbor:"3,keyasint,omitempty"`
}

// MethodDef is the encoded method definition.
type MethodDef struct {
	DeclaringType int           `cbor:"1,keyasint,omitempty"`
	Name          string        `cbor:"2,keyasint"`
	ReturnType    int           `cbor:"3,keyasint,omitempty"`
	HasThis       bool          `cbor:"4,keyasint,omitempty"`
	Params        []LocalRecord `cbor:"5,keyasint,omitempty"`
	Body          BodyRecord    `cbor:"6,keyasint"`
}

// LocalRecord describes a parameter or a local variable.
type LocalRecord struct {
	Name string `cbor:"1,keyasint,omitempty"`
	Type int    `cbor:"2,keyasint,omitempty"`
}

// BodyRecord is the encoded method body.
type BodyRecord struct {
	Instructions []InstrRecord   `cbor:"1,keyasint,omitempty"`
	Handlers     []HandlerRecord `cbor:"2,keyasint,omitempty"`
	Locals       []LocalRecord   `cbor:"3,keyasint,omitempty"`
	MaxStack     int             `cbor:"4,keyasint"`
	InitLocals   bool            `cbor:"5,keyasint,omitempty"`
}

// InstrRecord is one instruction. Which operand field is used depends on
// Kind: integers in Int, floats in Float, strings in Str, single arena or
// instruction references in Ref, switch tables in Refs.
type InstrRecord struct {
	Op    uint16      `cbor:"1,keyasint"`
	Kind  OperandKind `cbor:"2,keyasint,omitempty"`
	Int   int64       `cbor:"3,keyasint,omitempty"`
	Float float64     `cbor:"4,keyasint,omitempty"`
	Str   string      `cbor:"5,keyasint,omitempty"`
	Ref   int         `cbor:"6,keyasint,omitempty"`
	Refs  []int       `cbor:"7,keyasint,omitempty"`
}

// HandlerRecord is one exception handler; bounds index the instruction list.
type HandlerRecord struct {
	Type         uint8 `cbor:"1,keyasint,omitempty"`
	TryStart     int   `cbor:"2,keyasint,omitempty"`
	TryEnd       int   `cbor:"3,keyasint,omitempty"`
	FilterStart  int   `cbor:"4,keyasint,omitempty"`
	HandlerStart int   `cbor:"5,keyasint,omitempty"`
	HandlerEnd   int   `cbor:"6,keyasint,omitempty"`
	CatchType    int   `cbor:"7,keyasint,omitempty"`
}
