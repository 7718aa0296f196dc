package hash

// ---------------------------------------------------------------------------
// Frozen tag bytes for the method body serialization format.
//
// Tags are FROZEN. Adding new tags is fine; changing the meaning of an
// existing one breaks every stored content hash.
// ---------------------------------------------------------------------------

// HashVersion is the version prefix for the serialization format.
// Bumping this invalidates all existing content hashes.
const HashVersion byte = 1

const (
	TagReservedZero byte = 0x00

	// Operand shapes. Integer widths are distinct so that ldc.i4.s 1 and
	// ldc.i4 1 never collide.
	TagNone    byte = 0x01
	TagInt8    byte = 0x02
	TagUint8   byte = 0x03
	TagInt16   byte = 0x04
	TagUint16  byte = 0x05
	TagInt32   byte = 0x06
	TagInt64   byte = 0x07
	TagFloat32 byte = 0x08
	TagFloat64 byte = 0x09
	TagString  byte = 0x0A

	// Metadata references
	TagType     byte = 0x10
	TagMethod   byte = 0x11
	TagField    byte = 0x12
	TagCallSite byte = 0x13
	TagNilRef   byte = 0x14

	// Identity references, written as list indices
	TagTarget    byte = 0x18
	TagSwitch    byte = 0x19
	TagDangling  byte = 0x1A
	TagVariable  byte = 0x1B
	TagParameter byte = 0x1C

	// Structure
	TagBody      byte = 0x20
	TagHandler   byte = 0x21
	TagLocals    byte = 0x22
	TagMethodDef byte = 0x23
)

// allTags lists every defined tag for uniqueness verification in tests.
var allTags = []byte{
	TagReservedZero,
	TagNone, TagInt8, TagUint8, TagInt16, TagUint16, TagInt32, TagInt64,
	TagFloat32, TagFloat64, TagString,
	TagType, TagMethod, TagField, TagCallSite, TagNilRef,
	TagTarget, TagSwitch, TagDangling, TagVariable, TagParameter,
	TagBody, TagHandler, TagLocals, TagMethodDef,
}
