package script

import (
	"errors"
	"fmt"

	"github.com/chazu/weaver/cut"
	"github.com/chazu/weaver/il"
	"github.com/chazu/weaver/meta"
)

// ErrNoMatch is returned when a step's find reaches the end of the body.
var ErrNoMatch = errors.New("script: no matching instruction")

// Apply runs the script's steps against e. Labels resolve against labels,
// and instructions written by labelled steps are added to it. Step operands
// are imported by the editor's importer, whatever its type. Names are
// resolved with the editor's *meta.TypeSystem when it has one, so they share
// references with Build; otherwise with a type system for the method's
// module.
func (f *File) Apply(e *cut.Editor, labels map[string]*il.Instruction) error {
	ts, ok := e.TypeSystem().(*meta.TypeSystem)
	if !ok {
		mod := e.Method().Module()
		if mod == nil {
			return errors.New("script: method has no declaring type to resolve names in")
		}
		ts = meta.NewTypeSystem(mod)
	}
	if labels == nil {
		labels = make(map[string]*il.Instruction)
	}
	r := &resolver{file: f, ts: ts, method: e.Method(), labels: labels}

	c := e.Entry()
	for n, st := range f.Steps {
		var err error
		if c, err = r.step(e, c, &st); err != nil {
			return fmt.Errorf("step %d: %w", n+1, err)
		}
	}
	log.Infof("applied %d steps to %s", len(f.Steps), e.Method().FullName())
	return nil
}

func (r *resolver) step(e *cut.Editor, c cut.Cut, st *Step) (cut.Cut, error) {
	switch st.At {
	case "":
	case "entry":
		c = e.Entry()
	case "exit":
		c = e.Exit()
	default:
		i, err := r.label(st.At)
		if err != nil {
			return c, err
		}
		if c, err = e.At(i); err != nil {
			return c, fmt.Errorf("%s: %w", st.At, err)
		}
	}

	switch {
	case st.Move > 0:
		c = c.Here(cut.Forward(st.Move))
	case st.Move < 0:
		c = c.Here(cut.Back(-st.Move))
	}

	if st.Find != "" {
		var err error
		if c, err = find(c, st.Find, cut.Find, "after"); err != nil {
			return c, err
		}
	}
	if st.FindBack != "" {
		var err error
		if c, err = find(c, st.FindBack, cut.FindBack, "before"); err != nil {
			return c, err
		}
	}

	if st.Label != "" {
		if st.Action != "write" && st.Action != "replace" {
			return c, fmt.Errorf("label %q needs a write or replace", st.Label)
		}
		if _, dup := r.labels[st.Label]; dup {
			return c, fmt.Errorf("duplicate label %q", st.Label)
		}
	}

	var (
		x   *il.Instruction
		err error
	)
	switch st.Action {
	case "":
		return c, nil
	case "write", "replace":
		if x, err = r.emit(c, st); err != nil {
			return c, err
		}
		if st.Action == "write" {
			c, err = c.Write(x)
		} else {
			c, err = c.Replace(x)
		}
	case "remove":
		if st.Op != "" {
			return c, errors.New("remove takes no op")
		}
		c, err = c.Remove()
	default:
		return c, fmt.Errorf("unknown action %q", st.Action)
	}
	if err != nil {
		return c, err
	}
	log.Debugf("%s -> %s", st.Action, c)

	if st.Label != "" {
		r.labels[st.Label] = x
	}
	return c, nil
}

// find applies a search point-cut for the named opcode. The searches never
// match the cut they start from, so an unchanged cut means no match.
func find(c cut.Cut, name string, search func(cut.Matcher) cut.PointCut, dir string) (cut.Cut, error) {
	op, err := il.ParseOpCode(name)
	if err != nil {
		return c, err
	}
	found := c.Here(search(cut.OpCodeIs(op)))
	if found.Equal(c) {
		return c, fmt.Errorf("%w: %s %s %s", ErrNoMatch, op, dir, c)
	}
	return found, nil
}

// emit builds the step's instruction through the cut, so references are
// imported by the editor's type system.
func (r *resolver) emit(c cut.Cut, st *Step) (*il.Instruction, error) {
	if st.Op == "" {
		return nil, fmt.Errorf("%s needs an op", st.Action)
	}
	op, err := il.ParseOpCode(st.Op)
	if err != nil {
		return nil, err
	}
	v, err := r.operand(&st.Operand)
	if err != nil {
		return nil, err
	}
	return c.EmitOperand(op, v)
}
