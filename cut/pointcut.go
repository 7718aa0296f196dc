package cut

import (
	"slices"

	"github.com/chazu/weaver/il"
)

// PointCut is a pure transformation from one cut to another. Weaving code is
// built by composing point-cuts and applying them with Cut.Here.
type PointCut func(Cut) Cut

// Matcher selects instructions for Find and FindBack.
type Matcher func(*il.Instruction) bool

// Seq applies pcs left to right. Nil entries are skipped.
func Seq(pcs ...PointCut) PointCut {
	return func(c Cut) Cut {
		for _, pc := range pcs {
			c = c.Here(pc)
		}
		return c
	}
}

// Forward moves n positions with Next.
func Forward(n int) PointCut {
	return func(c Cut) Cut {
		for k := 0; k < n; k++ {
			c = c.Next()
		}
		return c
	}
}

// Back moves n positions with Prev.
func Back(n int) PointCut {
	return func(c Cut) Cut {
		for k := 0; k < n; k++ {
			c = c.Prev()
		}
		return c
	}
}

// ToEntry jumps to the entry cut.
func ToEntry(c Cut) Cut {
	if c.editor == nil {
		return c
	}
	return c.editor.Entry()
}

// ToExit jumps to the exit cut.
func ToExit(c Cut) Cut {
	if c.editor == nil {
		return c
	}
	return c.editor.Exit()
}

// Find moves to the first instruction after c that satisfies match. From
// entry the search starts at the first instruction. If nothing matches the
// cut is returned unchanged.
func Find(match Matcher) PointCut {
	return func(c Cut) Cut {
		if !c.Valid() || match == nil {
			return c
		}
		var i *il.Instruction
		switch {
		case c.entry:
			i = c.editor.Instructions().First()
		case c.exit:
			return c
		default:
			i = c.ref.Next()
		}
		for ; i != nil; i = i.Next() {
			if match(i) {
				return c.at(i)
			}
		}
		return c
	}
}

// FindBack moves to the nearest instruction before c that satisfies match,
// starting at the last instruction from exit.
func FindBack(match Matcher) PointCut {
	return func(c Cut) Cut {
		if !c.Valid() || match == nil {
			return c
		}
		var i *il.Instruction
		switch {
		case c.exit:
			i = c.editor.Instructions().Last()
		case c.entry:
			return c
		default:
			i = c.ref.Previous()
		}
		for ; i != nil; i = i.Previous() {
			if match(i) {
				return c.at(i)
			}
		}
		return c
	}
}

// OpCodeIs matches any of ops.
func OpCodeIs(ops ...il.OpCode) Matcher {
	return func(i *il.Instruction) bool {
		return slices.Contains(ops, i.OpCode)
	}
}

// FlowIs matches instructions whose opcode has one of the given flows.
func FlowIs(flows ...il.FlowControl) Matcher {
	return func(i *il.Instruction) bool {
		return slices.Contains(flows, i.OpCode.Flow())
	}
}
