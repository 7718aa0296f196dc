package cut

import (
	"testing"

	"github.com/chazu/weaver/il"
	"github.com/chazu/weaver/meta"
)

var (
	app    = meta.NewModule("App")
	corlib = meta.NewModule("mscorlib")
)

func nop() *il.Instruction { return il.MustCreate(il.OpNop) }

// newEditor opens an editor on a fresh method holding instrs.
func newEditor(t *testing.T, opts Options, instrs ...*il.Instruction) *Editor {
	t.Helper()
	m := il.NewMethod(meta.NewTypeRef(app, "App", "Program"), "Main", nil)
	for _, i := range instrs {
		if err := m.Body.Instructions.PushBack(i); err != nil {
			t.Fatal(err)
		}
	}
	e, err := NewEditor(m, nil, opts)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func at(t *testing.T, e *Editor, i *il.Instruction) Cut {
	t.Helper()
	c, err := e.At(i)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	return c
}

func assertBody(t *testing.T, e *Editor, want ...*il.Instruction) {
	t.Helper()
	got := e.Instructions().Slice()
	if len(got) != len(want) {
		t.Fatalf("body has %d instructions, want %d:\n%s", len(got), len(want), il.Disassemble(e.Body()))
	}
	for k := range want {
		if got[k] != want[k] {
			t.Fatalf("position %d holds the wrong instruction:\n%s", k, il.Disassemble(e.Body()))
		}
	}
}

func assertAt(t *testing.T, c Cut, want *il.Instruction) {
	t.Helper()
	if c.IsEndpoint() || c.Instruction() != want {
		t.Fatalf("cut is %s, want At(%s)", c, want.OpCode)
	}
}

// references reports whether anything in e's body still points at i.
func references(e *Editor, i *il.Instruction) bool {
	for x := e.Instructions().First(); x != nil; x = x.Next() {
		switch op := x.Operand.(type) {
		case *il.Instruction:
			if op == i {
				return true
			}
		case []*il.Instruction:
			for _, t := range op {
				if t == i {
					return true
				}
			}
		}
	}
	for _, h := range e.ExceptionHandlers() {
		for _, b := range il.Bounds {
			if h.Get(b) == i {
				return true
			}
		}
	}
	return false
}
