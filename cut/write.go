package cut

import (
	"slices"

	"github.com/chazu/weaver/il"
)

// ---------------------------------------------------------------------------
// Write
// ---------------------------------------------------------------------------

// Write splices x into the list relative to c and returns At(x).
//
// At entry, x becomes the first instruction and handlers with a nil
// HandlerStart are promoted according to Options.EntryPromotion. At exit or
// at the last instruction, x is appended; only the latter binds nil
// HandlerEnd bounds to the previously last instruction. Anywhere else x is
// inserted after the pinned instruction.
func (c Cut) Write(x *il.Instruction) (Cut, error) {
	if err := c.check(); err != nil {
		return c, err
	}
	if x == nil {
		return c, ErrNilInstruction
	}
	if x.Linked() {
		return c, il.ErrAlreadyLinked
	}

	list := c.editor.Instructions()
	switch {
	case c.entry:
		prevFirst := list.First()
		if err := list.PushFront(x); err != nil {
			return c, err
		}
		c.promoteStarts(prevFirst, x)
		log.Debugf("editor %s: wrote %s at entry", c.editor.id, x.OpCode)

	case c.exit || c.ref == list.Last():
		last := c.ref
		if err := list.PushBack(x); err != nil {
			return c, err
		}
		if last != nil {
			for _, h := range c.editor.ExceptionHandlers() {
				if h.HandlerEnd == nil {
					h.HandlerEnd = last
				}
			}
		}
		log.Debugf("editor %s: appended %s", c.editor.id, x.OpCode)

	default:
		if err := list.InsertAfter(c.ref, x); err != nil {
			return c, err
		}
		log.Debugf("editor %s: wrote %s after %s", c.editor.id, x.OpCode, c.ref.OpCode)
	}
	return c.at(x), nil
}

func (c Cut) promoteStarts(prevFirst, written *il.Instruction) {
	var to *il.Instruction
	switch c.editor.opts.EntryPromotion {
	case PromotePreviousFirst:
		to = prevFirst
	case PromoteNewFirst:
		to = written
	}
	if to == nil {
		return
	}
	for _, h := range c.editor.ExceptionHandlers() {
		if h.HandlerStart == nil {
			h.HandlerStart = to
		}
	}
}

// ---------------------------------------------------------------------------
// Replace and Remove
// ---------------------------------------------------------------------------

// Replace substitutes x for the pinned instruction and returns At(x). Every
// reference to the old instruction, including operands of x itself, is
// moved to x first. On an endpoint Replace is Write.
func (c Cut) Replace(x *il.Instruction) (Cut, error) {
	if c.IsEndpoint() {
		return c.Write(x)
	}
	if err := c.check(); err != nil {
		return c, err
	}
	if x == nil {
		return c, ErrNilInstruction
	}
	if x.Linked() {
		return c, il.ErrAlreadyLinked
	}

	old := c.ref
	patches, err := c.redirect(old, x, x, x)
	if err != nil {
		return c, err
	}
	patches.apply()
	if err := c.editor.Instructions().Replace(old, x); err != nil {
		return c, err
	}
	log.Debugf("editor %s: replaced %s with %s (%d references moved)",
		c.editor.id, old.OpCode, x.OpCode, len(patches))
	return c.at(x), nil
}

// Remove unlinks the pinned instruction and returns the cut that preceded
// it. Start bounds and branch targets move to the following instruction,
// end bounds to the preceding one. If any of those is missing the body is
// left untouched and a *RedirectError is returned.
func (c Cut) Remove() (Cut, error) {
	if c.IsEndpoint() {
		return c, ErrEndpoint
	}
	if err := c.check(); err != nil {
		return c, err
	}

	prev := c.Prev()
	i := c.ref
	patches, err := c.redirect(i, i.Next(), i.Previous(), nil)
	if err != nil {
		return c, err
	}
	patches.apply()
	if len(patches) > 0 {
		c.warnInvertedRegions(i)
	}
	if err := c.editor.Instructions().Remove(i); err != nil {
		return c, err
	}
	log.Debugf("editor %s: removed %s (%d references moved)", c.editor.id, i.OpCode, len(patches))
	return prev, nil
}

// check rejects zero and stale cuts.
func (c Cut) check() error {
	if c.editor == nil {
		return ErrInvalidCut
	}
	if !c.IsEndpoint() && !c.editor.Instructions().Contains(c.ref) {
		return ErrStaleCut
	}
	return nil
}

// ---------------------------------------------------------------------------
// Reference redirection
// ---------------------------------------------------------------------------

type patchList []func()

func (p patchList) apply() {
	for _, f := range p {
		f()
	}
}

// redirect collects the edits that move every reference to s: operands and
// start bounds to `to`, end bounds to `from`. Nothing is mutated; a missing
// replacement yields a *RedirectError. extra is scanned alongside the list
// (the incoming instruction of a Replace). s itself is never scanned.
func (c Cut) redirect(s, to, from, extra *il.Instruction) (patchList, error) {
	var patches patchList

	scan := func(i *il.Instruction) error {
		switch op := i.Operand.(type) {
		case *il.Instruction:
			if op != s {
				return nil
			}
			if to == nil {
				return &RedirectError{Kind: RefOperand, Referrer: i, Instruction: s}
			}
			patches = append(patches, func() { i.Operand = to })

		case []*il.Instruction:
			if !c.editor.opts.RedirectSwitch || !slices.Contains(op, s) {
				return nil
			}
			if to == nil {
				return &RedirectError{Kind: RefSwitch, Referrer: i, Instruction: s}
			}
			table := slices.Clone(op)
			for k, target := range table {
				if target == s {
					table[k] = to
				}
			}
			patches = append(patches, func() { i.Operand = table })
		}
		return nil
	}

	for i := c.editor.Instructions().First(); i != nil; i = i.Next() {
		if i == s {
			continue
		}
		if err := scan(i); err != nil {
			return nil, err
		}
	}
	if extra != nil {
		if err := scan(extra); err != nil {
			return nil, err
		}
	}

	for _, h := range c.editor.ExceptionHandlers() {
		for _, b := range il.Bounds {
			if h.Get(b) != s {
				continue
			}
			repl := from
			if b.IsStart() {
				repl = to
			}
			if repl == nil {
				return nil, &RedirectError{Bound: b, Handler: h, Instruction: s}
			}
			patches = append(patches, func() { h.Set(b, repl) })
		}
	}

	return patches, nil
}

// warnInvertedRegions logs handlers whose start now follows their end, as
// happens when the only instruction of a region is removed. It runs before
// s is unlinked, so s itself is skipped.
func (c Cut) warnInvertedRegions(s *il.Instruction) {
	list := c.editor.Instructions()
	inverted := func(start, end *il.Instruction) bool {
		if start == nil || end == nil || start == s || end == s {
			return false
		}
		si, ei := list.IndexOf(start), list.IndexOf(end)
		return si >= 0 && ei >= 0 && si > ei
	}
	for _, h := range c.editor.ExceptionHandlers() {
		if inverted(h.TryStart, h.TryEnd) {
			log.Warningf("editor %s: %s handler try region starts after it ends", c.editor.id, h.Type)
		}
		if inverted(h.HandlerStart, h.HandlerEnd) {
			log.Warningf("editor %s: %s handler body starts after it ends", c.editor.id, h.Type)
		}
	}
}
