// Package meta models the metadata references that instruction operands point
// at: modules, types, methods, fields and call-site signatures.
//
// References are plain pointers. Two references are the same reference only
// if they are the same pointer; the TypeSystem facade keeps that true for
// imported references by caching every import.
package meta

import (
	"strings"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Modules
// ---------------------------------------------------------------------------

// Module is a unit of compiled code (an assembly's main module). Every
// reference is owned by exactly one module; instructions may only carry
// references owned by the module of the method they belong to.
type Module struct {
	Name string
	Mvid uuid.UUID // module version id
}

// NewModule creates a module with a fresh version id.
func NewModule(name string) *Module {
	return &Module{Name: name, Mvid: uuid.New()}
}

// String returns the module name.
func (m *Module) String() string {
	if m == nil {
		return "<nil module>"
	}
	return m.Name
}

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// TypeRef references a type. Module is the module the reference lives in;
// Scope is the module that defines the type.
type TypeRef struct {
	Module      *Module
	Scope       *Module
	Namespace   string
	Name        string
	IsValueType bool
}

// NewTypeRef creates a reference to a type defined in scope, owned by scope.
func NewTypeRef(scope *Module, namespace, name string) *TypeRef {
	return &TypeRef{Module: scope, Scope: scope, Namespace: namespace, Name: name}
}

// FullName returns Namespace.Name.
func (t *TypeRef) FullName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// String returns the ildasm spelling, with the scope prefix when the type is
// defined outside the owning module.
func (t *TypeRef) String() string {
	if t == nil {
		return "<nil type>"
	}
	if t.Scope != nil && t.Scope != t.Module {
		return "[" + t.Scope.Name + "]" + t.FullName()
	}
	return t.FullName()
}

// ParseTypeName splits "[scope]Namespace.Name" into its parts. The scope
// and namespace may be empty.
func ParseTypeName(s string) (scope, namespace, name string) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") {
		if end := strings.IndexByte(s, ']'); end > 0 {
			scope = s[1:end]
			s = s[end+1:]
		}
	}
	if dot := strings.LastIndexByte(s, '.'); dot >= 0 {
		return scope, s[:dot], s[dot+1:]
	}
	return scope, "", s
}

// ---------------------------------------------------------------------------
// Members
// ---------------------------------------------------------------------------

// MethodRef references a method on a declaring type.
type MethodRef struct {
	Module        *Module
	DeclaringType *TypeRef
	Name          string
	ReturnType    *TypeRef
	Params        []*TypeRef
	HasThis       bool
}

// String returns "Ret Decl::Name(P1,P2)".
func (m *MethodRef) String() string {
	if m == nil {
		return "<nil method>"
	}
	var b strings.Builder
	if m.HasThis {
		b.WriteString("instance ")
	}
	b.WriteString(typeString(m.ReturnType))
	b.WriteByte(' ')
	b.WriteString(typeString(m.DeclaringType))
	b.WriteString("::")
	b.WriteString(m.Name)
	b.WriteString(paramString(m.Params))
	return b.String()
}

// FieldRef references a field on a declaring type.
type FieldRef struct {
	Module        *Module
	DeclaringType *TypeRef
	Name          string
	FieldType     *TypeRef
}

// String returns "Type Decl::Name".
func (f *FieldRef) String() string {
	if f == nil {
		return "<nil field>"
	}
	return typeString(f.FieldType) + " " + typeString(f.DeclaringType) + "::" + f.Name
}

// CallSite is a standalone signature used by calli. It is never imported:
// the types it names are carried verbatim.
type CallSite struct {
	HasThis    bool
	ReturnType *TypeRef
	Params     []*TypeRef
}

// String returns "method Ret *(P1,P2)".
func (c *CallSite) String() string {
	if c == nil {
		return "<nil callsite>"
	}
	return "method " + typeString(c.ReturnType) + " *" + paramString(c.Params)
}

func typeString(t *TypeRef) string {
	if t == nil {
		return "void"
	}
	return t.String()
}

func paramString(params []*TypeRef) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = typeString(p)
	}
	return "(" + strings.Join(names, ",") + ")"
}
