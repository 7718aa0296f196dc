package il

// ---------------------------------------------------------------------------
// InstructionList: doubly linked list with head/tail tracking
// ---------------------------------------------------------------------------

// InstructionList is the ordered instruction sequence of a method body.
// Navigation and end checks are O(1); index lookups walk the list.
//
// An instruction belongs to at most one list at a time.
type InstructionList struct {
	head, tail *Instruction
	count      int
}

// NewInstructionList creates a list holding instrs in order.
func NewInstructionList(instrs ...*Instruction) (*InstructionList, error) {
	l := &InstructionList{}
	for _, i := range instrs {
		if err := l.PushBack(i); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Len returns the number of instructions.
func (l *InstructionList) Len() int {
	return l.count
}

// First returns the first instruction, or nil if the list is empty.
func (l *InstructionList) First() *Instruction {
	return l.head
}

// Last returns the last instruction, or nil if the list is empty.
func (l *InstructionList) Last() *Instruction {
	return l.tail
}

// Contains reports whether i is linked into l.
func (l *InstructionList) Contains(i *Instruction) bool {
	return i != nil && i.list == l
}

// At returns the instruction at index, or nil if out of range.
func (l *InstructionList) At(index int) *Instruction {
	if index < 0 || index >= l.count {
		return nil
	}
	i := l.head
	for ; index > 0; index-- {
		i = i.next
	}
	return i
}

// IndexOf returns the position of i, or -1.
func (l *InstructionList) IndexOf(i *Instruction) int {
	if !l.Contains(i) {
		return -1
	}
	n := 0
	for cur := l.head; cur != i; cur = cur.next {
		n++
	}
	return n
}

// Slice returns the instructions in order. The slice is a copy.
func (l *InstructionList) Slice() []*Instruction {
	out := make([]*Instruction, 0, l.count)
	for i := l.head; i != nil; i = i.next {
		out = append(out, i)
	}
	return out
}

// PushFront inserts i before the first instruction.
func (l *InstructionList) PushFront(i *Instruction) error {
	if err := l.checkFree(i); err != nil {
		return err
	}
	l.link(i, nil, l.head)
	return nil
}

// PushBack appends i.
func (l *InstructionList) PushBack(i *Instruction) error {
	if err := l.checkFree(i); err != nil {
		return err
	}
	l.link(i, l.tail, nil)
	return nil
}

// InsertAfter inserts i immediately after mark.
func (l *InstructionList) InsertAfter(mark, i *Instruction) error {
	if !l.Contains(mark) {
		return ErrNotInList
	}
	if err := l.checkFree(i); err != nil {
		return err
	}
	l.link(i, mark, mark.next)
	return nil
}

// InsertBefore inserts i immediately before mark.
func (l *InstructionList) InsertBefore(mark, i *Instruction) error {
	if !l.Contains(mark) {
		return ErrNotInList
	}
	if err := l.checkFree(i); err != nil {
		return err
	}
	l.link(i, mark.prev, mark)
	return nil
}

// Insert places i at index; index == Len() appends.
func (l *InstructionList) Insert(index int, i *Instruction) error {
	if index < 0 || index > l.count {
		return ErrNotInList
	}
	if index == l.count {
		return l.PushBack(i)
	}
	return l.InsertBefore(l.At(index), i)
}

// Remove unlinks i. References to i held elsewhere are not touched.
func (l *InstructionList) Remove(i *Instruction) error {
	if !l.Contains(i) {
		return ErrNotInList
	}
	l.unlink(i)
	return nil
}

// Replace substitutes repl for old at the same position. old is unlinked.
func (l *InstructionList) Replace(old, repl *Instruction) error {
	if !l.Contains(old) {
		return ErrNotInList
	}
	if err := l.checkFree(repl); err != nil {
		return err
	}
	prev, next := old.prev, old.next
	l.unlink(old)
	l.link(repl, prev, next)
	return nil
}

func (l *InstructionList) checkFree(i *Instruction) error {
	if i == nil {
		return ErrNilOperand
	}
	if i.list != nil {
		return ErrAlreadyLinked
	}
	return nil
}

// link splices i between prev and next, which must be adjacent in l.
func (l *InstructionList) link(i, prev, next *Instruction) {
	i.list = l
	i.prev = prev
	i.next = next
	if prev == nil {
		l.head = i
	} else {
		prev.next = i
	}
	if next == nil {
		l.tail = i
	} else {
		next.prev = i
	}
	l.count++
}

func (l *InstructionList) unlink(i *Instruction) {
	if i.prev == nil {
		l.head = i.next
	} else {
		i.prev.next = i.next
	}
	if i.next == nil {
		l.tail = i.prev
	} else {
		i.next.prev = i.prev
	}
	i.list, i.prev, i.next = nil, nil, nil
	l.count--
}
