package meta

import (
	"sync"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("weaver.meta")

// Importer legalises references for use inside one module. Every foreign
// type, method or field must pass through it before an instruction can carry
// it as an operand.
type Importer interface {
	ImportType(t *TypeRef) *TypeRef
	ImportMethod(m *MethodRef) *MethodRef
	ImportField(f *FieldRef) *FieldRef
}

// ---------------------------------------------------------------------------
// TypeSystem: caching importer for a single module
// ---------------------------------------------------------------------------

// TypeSystem imports references into its module. References already owned by
// the module pass through unchanged; foreign references are re-expressed as
// references owned by the module, keeping their defining scope. Imports are
// cached, so importing the same foreign reference twice yields the same
// pointer.
type TypeSystem struct {
	module *Module

	mu      sync.Mutex
	types   map[typeKey]*TypeRef
	methods map[*MethodRef]*MethodRef
	fields  map[*FieldRef]*FieldRef
	count   int
}

type typeKey struct {
	scope     *Module
	namespace string
	name      string
}

// NewTypeSystem creates an importer targeting module.
func NewTypeSystem(module *Module) *TypeSystem {
	return &TypeSystem{
		module:  module,
		types:   make(map[typeKey]*TypeRef),
		methods: make(map[*MethodRef]*MethodRef),
		fields:  make(map[*FieldRef]*FieldRef),
	}
}

// Module returns the module references are imported into.
func (ts *TypeSystem) Module() *Module {
	return ts.module
}

// Imported returns how many foreign references have been re-expressed so far.
func (ts *TypeSystem) Imported() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.count
}

// Type returns the module's reference to namespace.name defined in scope,
// creating it on first use. A nil scope means the module itself.
func (ts *TypeSystem) Type(scope *Module, namespace, name string) *TypeRef {
	if scope == nil {
		scope = ts.module
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.internType(scope, namespace, name, false)
}

// ImportType implements Importer.
func (ts *TypeSystem) ImportType(t *TypeRef) *TypeRef {
	if t == nil || t.Module == ts.module {
		return t
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.importType(t)
}

// ImportMethod implements Importer.
func (ts *TypeSystem) ImportMethod(m *MethodRef) *MethodRef {
	if m == nil || m.Module == ts.module {
		return m
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if imp, ok := ts.methods[m]; ok {
		return imp
	}
	imp := &MethodRef{
		Module:        ts.module,
		DeclaringType: ts.importType(m.DeclaringType),
		Name:          m.Name,
		ReturnType:    ts.importType(m.ReturnType),
		HasThis:       m.HasThis,
	}
	if len(m.Params) > 0 {
		imp.Params = make([]*TypeRef, len(m.Params))
		for i, p := range m.Params {
			imp.Params[i] = ts.importType(p)
		}
	}
	ts.methods[m] = imp
	ts.count++
	log.Debugf("imported method %s into %s", imp, ts.module)
	return imp
}

// ImportField implements Importer.
func (ts *TypeSystem) ImportField(f *FieldRef) *FieldRef {
	if f == nil || f.Module == ts.module {
		return f
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if imp, ok := ts.fields[f]; ok {
		return imp
	}
	imp := &FieldRef{
		Module:        ts.module,
		DeclaringType: ts.importType(f.DeclaringType),
		Name:          f.Name,
		FieldType:     ts.importType(f.FieldType),
	}
	ts.fields[f] = imp
	ts.count++
	log.Debugf("imported field %s into %s", imp, ts.module)
	return imp
}

// importType requires ts.mu held.
func (ts *TypeSystem) importType(t *TypeRef) *TypeRef {
	if t == nil || t.Module == ts.module {
		return t
	}
	scope := t.Scope
	if scope == nil {
		scope = t.Module
	}
	return ts.internType(scope, t.Namespace, t.Name, t.IsValueType)
}

// internType requires ts.mu held.
func (ts *TypeSystem) internType(scope *Module, namespace, name string, valueType bool) *TypeRef {
	key := typeKey{scope: scope, namespace: namespace, name: name}
	if t, ok := ts.types[key]; ok {
		return t
	}
	t := &TypeRef{
		Module:      ts.module,
		Scope:       scope,
		Namespace:   namespace,
		Name:        name,
		IsValueType: valueType,
	}
	ts.types[key] = t
	if scope != ts.module {
		ts.count++
		log.Debugf("imported type %s into %s", t, ts.module)
	}
	return t
}
