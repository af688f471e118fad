package il

// Chain rewrites every Fail in b into Goto(target). Used when
// composing union-type constraints, where failure of one branch's
// constraint must not be fatal — control instead falls through to
// try the next branch.
func Chain(b *Block, target string) *Block {
	out := &Block{InputSlots: b.InputSlots, Entries: make([]Entry, len(b.Entries))}
	for i, e := range b.Entries {
		op := e.Op
		if op.Kind == Fail {
			op = Op{Kind: Goto, Label: target}
		}
		out.Entries[i] = Entry{Op: op, File: e.File, Line: e.Line, Column: e.Column, Comment: e.Comment}
	}
	return out
}
