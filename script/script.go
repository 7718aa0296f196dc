// Package script reads edit scripts: a TOML description of a method body
// followed by a list of cursor steps that rewrite it.
//
//	module = "App"
//
//	[method]
//	type = "App.Program"
//	name = "Main"
//
//	[[body]]
//	op = "ldstr"
//	str = "hello"
//
//	[[body]]
//	label = "ret"
//	op = "ret"
//
//	[[step]]
//	at = "ret"
//	move = -1
//	action = "write"
//	op = "pop"
package script

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/tliron/commonlog"

	"github.com/chazu/weaver/meta"
)

var log = commonlog.GetLogger("weaver.script")

// File is a parsed edit script.
type File struct {
	// Module is the module the method lives in. Empty means the caller's
	// default.
	Module   string        `toml:"module"`
	Method   MethodSpec    `toml:"method"`
	Body     []Instr       `toml:"body"`
	Handlers []HandlerSpec `toml:"handler"`
	Steps    []Step        `toml:"step"`

	// Path is the file the script was loaded from, if any.
	Path string `toml:"-"`

	modules map[string]*meta.Module
}

// MethodSpec describes the method being edited. Type names use the
// "[scope]Namespace.Name" form; an empty scope means the script's module.
type MethodSpec struct {
	Type    string     `toml:"type"`
	Name    string     `toml:"name"`
	Returns string     `toml:"returns"`
	HasThis bool       `toml:"instance"`
	Params  []SlotSpec `toml:"params"`
	Locals  []SlotSpec `toml:"locals"`
}

// SlotSpec names a parameter or local variable.
type SlotSpec struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

// Operand holds at most one operand. Integer fields keep their width.
type Operand struct {
	I8      *int8         `toml:"i8"`
	U8      *uint8        `toml:"u8"`
	I16     *int16        `toml:"i16"`
	U16     *uint16       `toml:"u16"`
	I32     *int32        `toml:"i32"`
	I64     *int64        `toml:"i64"`
	R4      *float32      `toml:"r4"`
	R8      *float64      `toml:"r8"`
	Str     *string       `toml:"str"`
	Target  string        `toml:"target"`
	Targets []string      `toml:"targets"`
	Local   string        `toml:"local"`
	Arg     string        `toml:"arg"`
	Type    string        `toml:"type"`
	Method  *MemberSpec   `toml:"method"`
	Field   *MemberSpec   `toml:"field"`
	Sig     *CallSiteSpec `toml:"sig"`
}

// MemberSpec references a method or a field on a declaring type.
type MemberSpec struct {
	Type     string   `toml:"type"`
	Name     string   `toml:"name"`
	Returns  string   `toml:"returns"` // methods: return type; fields: field type
	Params   []string `toml:"params"`
	Instance bool     `toml:"instance"`
}

// CallSiteSpec is a calli signature.
type CallSiteSpec struct {
	Returns  string   `toml:"returns"`
	Params   []string `toml:"params"`
	Instance bool     `toml:"instance"`
}

// Instr is one instruction of the initial body.
type Instr struct {
	Label string `toml:"label"`
	Op    string `toml:"op"`
	Operand
}

// HandlerSpec is an exception handler whose bounds are body labels.
type HandlerSpec struct {
	Type         string `toml:"type"`
	TryStart     string `toml:"try-start"`
	TryEnd       string `toml:"try-end"`
	FilterStart  string `toml:"filter-start"`
	HandlerStart string `toml:"handler-start"`
	HandlerEnd   string `toml:"handler-end"`
	Catch        string `toml:"catch"`
}

// Step positions the cursor and optionally edits there. Positioning runs in
// field order: at, move, find, find-back.
type Step struct {
	// At is "entry", "exit", a label, or empty to continue from the
	// previous step's cut.
	At string `toml:"at"`
	// Move is a signed count of Next (positive) or Prev (negative) moves.
	Move int `toml:"move"`
	// Find moves forward to the next instruction with this opcode.
	Find string `toml:"find"`
	// FindBack moves backward to the nearest instruction with this opcode.
	// From exit the search starts at the last instruction.
	FindBack string `toml:"find-back"`
	// Action is "write", "replace", "remove" or empty.
	Action string `toml:"action"`
	Op     string `toml:"op"`
	// Label names the written or replacing instruction for later steps.
	Label string `toml:"label"`
	Operand
}

// Load reads and parses the script at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Parse decodes a script. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for n, k := range undecoded {
			keys[n] = k.String()
		}
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	if f.Method.Name == "" {
		return nil, fmt.Errorf("method name is required")
	}
	log.Debugf("parsed script for %s: %d instructions, %d steps", f.Method.Name, len(f.Body), len(f.Steps))
	return &f, nil
}
