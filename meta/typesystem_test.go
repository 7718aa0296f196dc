package meta

import (
	"sync"
	"testing"
)

func TestParseTypeName(t *testing.T) {
	tests := []struct {
		in                     string
		scope, namespace, name string
	}{
		{"[mscorlib]System.String", "mscorlib", "System", "String"},
		{"System.Collections.Generic.List`1", "", "System.Collections.Generic", "List`1"},
		{"Program", "", "", "Program"},
		{"[App]Program", "App", "", "Program"},
		{"  [x]A.B  ", "x", "A", "B"},
	}

	for _, tt := range tests {
		scope, ns, name := ParseTypeName(tt.in)
		if scope != tt.scope || ns != tt.namespace || name != tt.name {
			t.Errorf("ParseTypeName(%q) = (%q, %q, %q), want (%q, %q, %q)",
				tt.in, scope, ns, name, tt.scope, tt.namespace, tt.name)
		}
	}
}

func TestTypeRefString(t *testing.T) {
	app := NewModule("App")
	corlib := NewModule("mscorlib")

	local := NewTypeRef(app, "App", "Program")
	if got := local.String(); got != "App.Program" {
		t.Errorf("local String() = %q, want App.Program", got)
	}

	ts := NewTypeSystem(app)
	str := ts.ImportType(NewTypeRef(corlib, "System", "String"))
	if got := str.String(); got != "[mscorlib]System.String" {
		t.Errorf("imported String() = %q, want [mscorlib]System.String", got)
	}
}

func TestImportTypePassesThroughLocalReferences(t *testing.T) {
	app := NewModule("App")
	ts := NewTypeSystem(app)

	local := NewTypeRef(app, "App", "Program")
	if got := ts.ImportType(local); got != local {
		t.Errorf("ImportType(local) returned a new reference")
	}
	if ts.ImportType(nil) != nil {
		t.Errorf("ImportType(nil) should be nil")
	}
	if ts.Imported() != 0 {
		t.Errorf("Imported() = %d, want 0", ts.Imported())
	}
}

func TestImportTypeRehomesForeignReferences(t *testing.T) {
	app := NewModule("App")
	corlib := NewModule("mscorlib")
	ts := NewTypeSystem(app)

	foreign := NewTypeRef(corlib, "System", "Int32")
	foreign.IsValueType = true

	imp := ts.ImportType(foreign)
	if imp == foreign {
		t.Fatal("foreign type was not re-expressed")
	}
	if imp.Module != app {
		t.Errorf("imported Module = %v, want App", imp.Module)
	}
	if imp.Scope != corlib {
		t.Errorf("imported Scope = %v, want mscorlib", imp.Scope)
	}
	if !imp.IsValueType {
		t.Errorf("IsValueType lost on import")
	}

	// A second, distinct foreign reference to the same type resolves to
	// the same imported pointer.
	again := ts.ImportType(NewTypeRef(corlib, "System", "Int32"))
	if again != imp {
		t.Errorf("repeat import returned a different reference")
	}
	if ts.ImportType(imp) != imp {
		t.Errorf("importing an imported reference should be the identity")
	}
	if ts.Imported() != 1 {
		t.Errorf("Imported() = %d, want 1", ts.Imported())
	}
}

func TestImportMethodImportsSignature(t *testing.T) {
	app := NewModule("App")
	corlib := NewModule("mscorlib")
	ts := NewTypeSystem(app)

	console := NewTypeRef(corlib, "System", "Console")
	str := NewTypeRef(corlib, "System", "String")
	writeLine := &MethodRef{
		Module:        corlib,
		DeclaringType: console,
		Name:          "WriteLine",
		Params:        []*TypeRef{str},
	}

	imp := ts.ImportMethod(writeLine)
	if imp.Module != app {
		t.Fatalf("imported method Module = %v, want App", imp.Module)
	}
	if imp.DeclaringType.Module != app || imp.DeclaringType.Scope != corlib {
		t.Errorf("declaring type not imported: %+v", imp.DeclaringType)
	}
	if imp.Params[0].Module != app {
		t.Errorf("parameter type not imported")
	}
	if imp.ReturnType != nil {
		t.Errorf("void return should stay nil")
	}
	if ts.ImportMethod(writeLine) != imp {
		t.Errorf("repeat ImportMethod returned a different reference")
	}
	if got, want := imp.String(), "void [mscorlib]System.Console::WriteLine([mscorlib]System.String)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestImportField(t *testing.T) {
	app := NewModule("App")
	corlib := NewModule("mscorlib")
	ts := NewTypeSystem(app)

	field := &FieldRef{
		Module:        corlib,
		DeclaringType: NewTypeRef(corlib, "System", "String"),
		Name:          "Empty",
		FieldType:     NewTypeRef(corlib, "System", "String"),
	}
	imp := ts.ImportField(field)
	if imp.Module != app || imp.DeclaringType.Module != app || imp.FieldType.Module != app {
		t.Errorf("field not fully imported: %+v", imp)
	}
	// Declaring type and field type name the same type: one import.
	if imp.DeclaringType != imp.FieldType {
		t.Errorf("same foreign type imported twice")
	}
	if ts.ImportField(field) != imp {
		t.Errorf("repeat ImportField returned a different reference")
	}
}

func TestImportConcurrent(t *testing.T) {
	app := NewModule("App")
	corlib := NewModule("mscorlib")
	ts := NewTypeSystem(app)

	var wg sync.WaitGroup
	results := make([]*TypeRef, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = ts.ImportType(NewTypeRef(corlib, "System", "Object"))
		}(i)
	}
	wg.Wait()

	for i, r := range results {
		if r != results[0] {
			t.Errorf("result %d differs from result 0", i)
		}
	}
}
