package il

import (
	"strings"
	"testing"

	"github.com/chazu/weaver/meta"
)

func TestDisassemble(t *testing.T) {
	app := meta.NewModule("App")
	corlib := meta.NewModule("mscorlib")
	ts := meta.NewTypeSystem(app)

	exception := ts.ImportType(meta.NewTypeRef(corlib, "System", "Exception"))
	writeLine := ts.ImportMethod(&meta.MethodRef{
		Module:        corlib,
		DeclaringType: meta.NewTypeRef(corlib, "System", "Console"),
		Name:          "WriteLine",
		Params:        []*meta.TypeRef{meta.NewTypeRef(corlib, "System", "String")},
	})

	body := NewMethodBody()
	ldstr, _ := CreateString(OpLdstr, "hello")
	call, _ := CreateMethod(OpCall, writeLine)
	ret := MustCreate(OpRet)
	leave, _ := CreateBranch(OpLeaveS, ret)
	pop := MustCreate(OpPop)
	leave2, _ := CreateBranch(OpLeaveS, ret)
	for _, i := range []*Instruction{ldstr, call, leave, pop, leave2, ret} {
		if err := body.Instructions.PushBack(i); err != nil {
			t.Fatal(err)
		}
	}
	body.AddVariable("", ts.ImportType(meta.NewTypeRef(corlib, "System", "Int32")))
	body.AddHandler(&ExceptionHandler{
		Type:         HandlerCatch,
		TryStart:     ldstr,
		TryEnd:       leave,
		HandlerStart: pop,
		HandlerEnd:   leave2,
		CatchType:    exception,
	})

	want := strings.Join([]string{
		".locals ([0] [mscorlib]System.Int32 V_0)",
		`IL_0000: ldstr "hello"`,
		"IL_0005: call void [mscorlib]System.Console::WriteLine([mscorlib]System.String)",
		"IL_000a: leave.s IL_000f",
		"IL_000c: pop",
		"IL_000d: leave.s IL_000f",
		"IL_000f: ret",
		".try IL_0000 to IL_000a catch [mscorlib]System.Exception handler IL_000c to IL_000d",
	}, "\n")

	if got := Disassemble(body); got != want {
		t.Errorf("Disassemble:\n%s\nwant:\n%s", got, want)
	}
}

func TestDisassembleSwitchAndFilter(t *testing.T) {
	body := NewMethodBody()
	a := MustCreate(OpNop)
	b := MustCreate(OpRet)
	sw, _ := CreateSwitch(OpSwitch, []*Instruction{a, b})
	for _, i := range []*Instruction{sw, a, b} {
		body.Instructions.PushBack(i)
	}
	body.AddHandler(&ExceptionHandler{Type: HandlerFilter, TryStart: sw, TryEnd: sw, FilterStart: a, HandlerStart: b})

	got := Disassemble(body)
	if !strings.Contains(got, "IL_0000: switch (IL_000d, IL_000e)") {
		t.Errorf("switch listing wrong:\n%s", got)
	}
	if !strings.Contains(got, ".try IL_0000 to IL_0000 filter IL_000d handler IL_000e to ?") {
		t.Errorf("filter listing wrong:\n%s", got)
	}
}
