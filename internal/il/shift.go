package il

import "github.com/hashicorp/go-set/v2"

// Shift remaps every slot s in b to s+k, producing a fresh Block that
// consumes [k, k+n) where b consumed [0, n) (spec §8 property 5).
// Shift(b, 0) returns a Block equal to b.
func Shift(b *Block, k int) *Block {
	out := &Block{InputSlots: b.InputSlots + k, Entries: make([]Entry, len(b.Entries))}
	for i, e := range b.Entries {
		op := e.Op
		switch op.Kind {
		case Load, Store, IfType, Update:
			op.Slot += k
		case ForAll:
			op.Slot += k
			op.Modified = shiftSet(op.Modified, k)
		case Loop:
			op.Modified = shiftSet(op.Modified, k)
		}
		out.Entries[i] = Entry{Op: op, File: e.File, Line: e.Line, Column: e.Column, Comment: e.Comment}
	}
	return out
}

func shiftSet(s *set.Set[int], k int) *set.Set[int] {
	if s == nil {
		return nil
	}
	out := set.New[int](s.Size())
	for _, v := range s.Slice() {
		out.Insert(v + k)
	}
	return out
}
