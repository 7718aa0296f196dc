package cut

import (
	"fmt"
	"strings"

	"github.com/chazu/weaver/il"
	"github.com/chazu/weaver/meta"
)

// ---------------------------------------------------------------------------
// Cut: a position in an instruction list
// ---------------------------------------------------------------------------

// Cut is a position in an editor's instruction list: Entry, Exit or
// At(instruction). The zero Cut is invalid.
//
// A Cut pinned to an instruction that has since been removed is stale.
// Navigation from a stale cut returns it unchanged; mutations report
// ErrStaleCut.
type Cut struct {
	editor *Editor
	entry  bool
	exit   bool
	ref    *il.Instruction
}

// NewEndpoint creates an entry and/or exit cut. If both are set, entry wins
// for Next and Write and exit wins for Prev.
func NewEndpoint(e *Editor, entry, exit bool) (Cut, error) {
	if e == nil {
		return Cut{}, ErrNilEditor
	}
	if !entry && !exit {
		return Cut{}, ErrInvalidCut
	}
	return Cut{editor: e, entry: entry, exit: exit}, nil
}

// At creates a cut pinned to i, which must be in e's body.
func At(e *Editor, i *il.Instruction) (Cut, error) {
	if e == nil {
		return Cut{}, ErrNilEditor
	}
	if i == nil {
		return Cut{}, ErrNilInstruction
	}
	if !e.Instructions().Contains(i) {
		return Cut{}, ErrStaleCut
	}
	return Cut{editor: e, ref: i}, nil
}

// at is At without checks, for positions derived from the live list.
func (c Cut) at(i *il.Instruction) Cut {
	return Cut{editor: c.editor, ref: i}
}

// IsEntry reports whether c is the entry cut.
func (c Cut) IsEntry() bool { return c.entry }

// IsExit reports whether c is the exit cut.
func (c Cut) IsExit() bool { return c.exit }

// IsEndpoint reports whether c has no pinned instruction.
func (c Cut) IsEndpoint() bool { return c.entry || c.exit }

// Instruction returns the pinned instruction, or nil for endpoints.
func (c Cut) Instruction() *il.Instruction { return c.ref }

// Editor returns the editor c belongs to.
func (c Cut) Editor() *Editor { return c.editor }

// Method returns the edited method.
func (c Cut) Method() *il.Method { return c.editor.Method() }

// TypeSystem returns the editor's importer.
func (c Cut) TypeSystem() meta.Importer { return c.editor.TypeSystem() }

// Valid reports whether c is a usable, non-stale cut.
func (c Cut) Valid() bool {
	if c.editor == nil {
		return false
	}
	if c.IsEndpoint() {
		return true
	}
	return c.editor.Instructions().Contains(c.ref)
}

// Equal reports whether c and o denote the same position.
func (c Cut) Equal(o Cut) bool {
	return c.editor == o.editor && c.entry == o.entry && c.exit == o.exit && c.ref == o.ref
}

// String describes the position for logs and test failures. Offsets are
// computed locally; the body's Offset fields are left as they are.
func (c Cut) String() string {
	switch {
	case c.editor == nil:
		return "<invalid cut>"
	case c.entry:
		return "<entry>"
	case c.exit:
		return "<exit>"
	case !c.Valid():
		return "<stale " + c.ref.OpCode.Name() + ">"
	default:
		return c.describe()
	}
}

// describe renders the pinned instruction like il.Instruction.String, with
// offsets taken from the current layout of the list.
func (c Cut) describe() string {
	offsets := make(map[*il.Instruction]int)
	off := 0
	for i := c.editor.Instructions().First(); i != nil; i = i.Next() {
		offsets[i] = off
		off += i.Size()
	}
	label := func(i *il.Instruction) string {
		if o, ok := offsets[i]; ok {
			return fmt.Sprintf("IL_%04x", o)
		}
		return "?"
	}

	s := label(c.ref) + ": " + c.ref.OpCode.Name()
	var operand string
	switch v := c.ref.Operand.(type) {
	case *il.Instruction:
		operand = label(v)
	case []*il.Instruction:
		labels := make([]string, len(v))
		for n, t := range v {
			labels[n] = label(t)
		}
		operand = "(" + strings.Join(labels, ", ") + ")"
	default:
		operand = il.FormatOperand(v)
	}
	if operand != "" {
		s += " " + operand
	}
	return s
}

// ---------------------------------------------------------------------------
// Navigation
// ---------------------------------------------------------------------------

// Next moves one position forward. Entry stays at entry: writes at the
// front keep inserting at the front. The last instruction moves to exit.
func (c Cut) Next() Cut {
	if c.entry || c.exit || !c.Valid() {
		return c
	}
	if c.ref == c.editor.Instructions().Last() {
		return c.editor.Exit()
	}
	return c.at(c.ref.Next())
}

// Prev moves one position backward. Exit stays at exit. The first
// instruction moves to entry.
func (c Cut) Prev() Cut {
	if c.exit || c.entry || !c.Valid() {
		return c
	}
	if c.ref == c.editor.Instructions().First() {
		return c.editor.Entry()
	}
	return c.at(c.ref.Previous())
}

// Here applies pc to c. A nil point-cut is the identity.
func (c Cut) Here(pc PointCut) Cut {
	if pc == nil {
		return c
	}
	return pc(c)
}
