// Package cut implements a positional cursor over the instruction list of a
// method body.
//
// A Cut denotes a position between instructions: before the first (entry),
// after the last (exit), or at a specific instruction. Cuts are values;
// navigation and mutation return fresh cuts. Every mutation keeps branch
// targets, switch tables and exception-handler bounds pointing at
// instructions that are still in the body, or fails without touching it.
//
// Weaving logic composes PointCuts, pure functions from Cut to Cut:
//
//	c := editor.Entry()
//	c, err := c.WriteOp(il.OpLdstr, "enter")
//	...
//	ret := editor.Entry().Here(cut.Find(cut.OpCodeIs(il.OpRet)))
package cut

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/weaver/il"
	"github.com/chazu/weaver/meta"
)

var log = commonlog.GetLogger("weaver.cut")

// ---------------------------------------------------------------------------
// Options
// ---------------------------------------------------------------------------

// EntryPromotion selects what a handler with a nil HandlerStart is bound to
// when an instruction is written at the entry cut.
type EntryPromotion uint8

const (
	// PromotePreviousFirst binds it to the instruction that was first before
	// the write. Nothing happens on an empty body.
	PromotePreviousFirst EntryPromotion = iota
	// PromoteNewFirst binds it to the instruction just written.
	PromoteNewFirst
	// PromoteNone leaves nil handler starts alone.
	PromoteNone
)

var entryPromotionNames = map[EntryPromotion]string{
	PromotePreviousFirst: "previous-first",
	PromoteNewFirst:      "new-first",
	PromoteNone:          "none",
}

// String implements the Stringer interface.
func (p EntryPromotion) String() string {
	if s, ok := entryPromotionNames[p]; ok {
		return s
	}
	return fmt.Sprintf("EntryPromotion(%d)", p)
}

// MarshalText implements encoding.TextMarshaler.
func (p EntryPromotion) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *EntryPromotion) UnmarshalText(text []byte) error {
	for k, name := range entryPromotionNames {
		if strings.EqualFold(string(text), name) {
			*p = k
			return nil
		}
	}
	return fmt.Errorf("cut: unknown entry promotion %q", text)
}

// Options tune the reference fix-up rules of an Editor.
type Options struct {
	EntryPromotion EntryPromotion `toml:"entry-promotion"`
	// RedirectSwitch extends redirection into switch tables.
	RedirectSwitch bool `toml:"redirect-switch"`
}

// DefaultOptions returns the options NewEditor callers normally want.
func DefaultOptions() Options {
	return Options{EntryPromotion: PromotePreviousFirst, RedirectSwitch: true}
}

// ---------------------------------------------------------------------------
// Editor
// ---------------------------------------------------------------------------

// Editor is a handle onto one mutable method body. The body and every cut
// derived from the editor form a single mutation domain; nothing here locks.
type Editor struct {
	id     uuid.UUID
	method *il.Method
	ts     meta.Importer
	opts   Options
}

// NewEditor creates an editor for m. A nil importer defaults to a
// meta.TypeSystem for m's module.
func NewEditor(m *il.Method, ts meta.Importer, opts Options) (*Editor, error) {
	if m == nil {
		return nil, fmt.Errorf("cut: new editor: nil method")
	}
	if m.Body == nil || m.Body.Instructions == nil {
		return nil, fmt.Errorf("cut: new editor: method %s has no body", m.Name)
	}
	if ts == nil {
		ts = meta.NewTypeSystem(m.Module())
	}
	e := &Editor{id: uuid.New(), method: m, ts: ts, opts: opts}
	log.Debugf("editor %s opened on %s", e.id, m.FullName())
	return e, nil
}

// ID identifies the editor in log output.
func (e *Editor) ID() uuid.UUID { return e.id }

// Method returns the edited method.
func (e *Editor) Method() *il.Method { return e.method }

// Body returns the edited body.
func (e *Editor) Body() *il.MethodBody { return e.method.Body }

// Instructions returns the body's instruction list.
func (e *Editor) Instructions() *il.InstructionList { return e.method.Body.Instructions }

// ExceptionHandlers returns the body's handler table.
func (e *Editor) ExceptionHandlers() []*il.ExceptionHandler { return e.method.Body.ExceptionHandlers }

// TypeSystem returns the importer used to legalise operands.
func (e *Editor) TypeSystem() meta.Importer { return e.ts }

// Options returns the editor's fix-up options.
func (e *Editor) Options() Options { return e.opts }

// Entry returns the cut before the first instruction.
func (e *Editor) Entry() Cut { return Cut{editor: e, entry: true} }

// Exit returns the cut after the last instruction.
func (e *Editor) Exit() Cut { return Cut{editor: e, exit: true} }

// At returns the cut pinned to i.
func (e *Editor) At(i *il.Instruction) (Cut, error) { return At(e, i) }
