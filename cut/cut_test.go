package cut

import (
	"errors"
	"strings"
	"testing"

	"github.com/chazu/weaver/il"
)

func TestNewEditor(t *testing.T) {
	if _, err := NewEditor(nil, nil, DefaultOptions()); err == nil {
		t.Error("nil method accepted")
	}
	m := &il.Method{Name: "Bare"}
	if _, err := NewEditor(m, nil, DefaultOptions()); err == nil {
		t.Error("method without body accepted")
	}

	e := newEditor(t, DefaultOptions())
	if e.TypeSystem() == nil {
		t.Error("nil importer not defaulted")
	}
	if e.Options() != DefaultOptions() {
		t.Errorf("Options = %+v", e.Options())
	}
	if e.Body() != e.Method().Body || e.Instructions() != e.Method().Body.Instructions {
		t.Error("accessors disagree with the method")
	}
}

func TestNewEndpoint(t *testing.T) {
	e := newEditor(t, DefaultOptions())

	tests := []struct {
		name        string
		editor      *Editor
		entry, exit bool
		wantErr     error
	}{
		{"entry", e, true, false, nil},
		{"exit", e, false, true, nil},
		{"both", e, true, true, nil},
		{"neither", e, false, false, ErrInvalidCut},
		{"nil editor", nil, true, false, ErrNilEditor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewEndpoint(tt.editor, tt.entry, tt.exit)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && (c.IsEntry() != tt.entry || c.IsExit() != tt.exit) {
				t.Errorf("cut = %s", c)
			}
		})
	}
}

func TestAt(t *testing.T) {
	a := nop()
	e := newEditor(t, DefaultOptions(), a)

	if _, err := At(nil, a); !errors.Is(err, ErrNilEditor) {
		t.Errorf("nil editor: %v", err)
	}
	if _, err := At(e, nil); !errors.Is(err, ErrNilInstruction) {
		t.Errorf("nil instruction: %v", err)
	}
	if _, err := At(e, nop()); !errors.Is(err, ErrStaleCut) {
		t.Errorf("foreign instruction: %v", err)
	}
	c := at(t, e, a)
	if c.Editor() != e || c.Instruction() != a || c.IsEndpoint() {
		t.Errorf("At(a) = %s", c)
	}
}

func TestEndpointsOnEmptyBody(t *testing.T) {
	e := newEditor(t, DefaultOptions())
	for _, c := range []Cut{e.Entry(), e.Exit()} {
		if !c.Valid() {
			t.Errorf("%s invalid on empty body", c)
		}
		if !c.Next().Equal(c) || !c.Prev().Equal(c) {
			t.Errorf("%s moved on an empty body", c)
		}
	}
}

func TestNavigation(t *testing.T) {
	a, b, c := nop(), nop(), nop()
	e := newEditor(t, DefaultOptions(), a, b, c)

	tests := []struct {
		name string
		got  Cut
		want Cut
	}{
		{"entry.next stays", e.Entry().Next(), e.Entry()},
		{"exit.prev stays", e.Exit().Prev(), e.Exit()},
		{"first.prev is entry", at(t, e, a).Prev(), e.Entry()},
		{"last.next is exit", at(t, e, c).Next(), e.Exit()},
		{"a.next is b", at(t, e, a).Next(), at(t, e, b)},
		{"c.prev is b", at(t, e, c).Prev(), at(t, e, b)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.got.Equal(tt.want) {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestPrevNextRoundTrip(t *testing.T) {
	n := []*il.Instruction{nop(), nop(), nop(), nop()}
	e := newEditor(t, DefaultOptions(), n...)

	// Entry.Next stays at entry, so the round trip holds away from the
	// first instruction for prev/next and away from the last for next/prev.
	for _, i := range n[1:] {
		c := at(t, e, i)
		if got := c.Prev().Next(); !got.Equal(c) {
			t.Errorf("prev().next() from %s = %s", c, got)
		}
	}
	for _, i := range n[:len(n)-1] {
		c := at(t, e, i)
		if got := c.Next().Prev(); !got.Equal(c) {
			t.Errorf("next().prev() from %s = %s", c, got)
		}
	}
}

func TestHereNil(t *testing.T) {
	a := nop()
	e := newEditor(t, DefaultOptions(), a)
	for _, c := range []Cut{e.Entry(), e.Exit(), at(t, e, a)} {
		if got := c.Here(nil); !got.Equal(c) {
			t.Errorf("Here(nil) from %s = %s", c, got)
		}
	}
}

func TestStaleCut(t *testing.T) {
	a, b, c := nop(), nop(), nop()
	e := newEditor(t, DefaultOptions(), a, b, c)

	pinned := at(t, e, b)
	if _, err := at(t, e, b).Remove(); err != nil {
		t.Fatal(err)
	}

	if pinned.Valid() {
		t.Error("cut on removed instruction still valid")
	}
	if !pinned.Next().Equal(pinned) || !pinned.Prev().Equal(pinned) {
		t.Error("stale cut navigated")
	}
	if !strings.Contains(pinned.String(), "stale") {
		t.Errorf("String() = %q", pinned.String())
	}
	if _, err := pinned.Write(nop()); !errors.Is(err, ErrStaleCut) {
		t.Errorf("Write on stale cut: %v", err)
	}
	if _, err := pinned.Replace(nop()); !errors.Is(err, ErrStaleCut) {
		t.Errorf("Replace on stale cut: %v", err)
	}
	if _, err := pinned.Remove(); !errors.Is(err, ErrStaleCut) {
		t.Errorf("Remove on stale cut: %v", err)
	}
	assertBody(t, e, a, c)
}

func TestZeroCut(t *testing.T) {
	var c Cut
	if c.Valid() {
		t.Error("zero cut valid")
	}
	if _, err := c.Write(nop()); !errors.Is(err, ErrInvalidCut) {
		t.Errorf("Write on zero cut: %v", err)
	}
	if got := c.Here(ToEntry); !got.Equal(c) {
		t.Errorf("ToEntry on zero cut = %s", got)
	}
}

func TestString(t *testing.T) {
	ld, _ := il.CreateString(il.OpLdstr, "hi")
	e := newEditor(t, DefaultOptions(), nop(), ld)

	if got := e.Entry().String(); got != "<entry>" {
		t.Errorf("entry = %q", got)
	}
	if got := e.Exit().String(); got != "<exit>" {
		t.Errorf("exit = %q", got)
	}
	if got := at(t, e, ld).String(); got != `IL_0001: ldstr "hi"` {
		t.Errorf("at = %q", got)
	}
}

func TestString_LeavesOffsetsAlone(t *testing.T) {
	ret := il.MustCreate(il.OpRet)
	br, _ := il.CreateBranch(il.OpBrS, ret)
	sw, _ := il.CreateSwitch(il.OpSwitch, []*il.Instruction{ret, br})
	e := newEditor(t, DefaultOptions(), nop(), br, sw, ret)
	for _, i := range e.Instructions().Slice() {
		i.Offset = 99
	}

	tests := []struct {
		pinned *il.Instruction
		want   string
	}{
		{br, "IL_0001: br.s IL_0010"},
		{sw, "IL_0003: switch (IL_0010, IL_0001)"},
		{ret, "IL_0010: ret"},
	}
	for _, tt := range tests {
		if got := at(t, e, tt.pinned).String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
	for k, i := range e.Instructions().Slice() {
		if i.Offset != 99 {
			t.Errorf("instruction %d offset = %d, String rewrote it", k, i.Offset)
		}
	}
}
