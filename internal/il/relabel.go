package il

import "strconv"

// LabelGen hands out fresh label names, unique among the names the
// same generator produces, so that repeated embedding of the same
// constraint block through one generator cannot collide. Separate
// generators each start again at L1.
type LabelGen struct {
	n int
}

func NewLabelGen() *LabelGen { return &LabelGen{} }

func (g *LabelGen) Next() string {
	g.n++
	return "L" + strconv.Itoa(g.n)
}

// Relabel gives every label defined in b a fresh unique name and
// rewrites every reference to it, producing an isomorphic Block
// (spec §8 property 6: relabelling twice evaluates identically).
func Relabel(b *Block, gen *LabelGen) *Block {
	rename := map[string]string{}
	for _, e := range b.Entries {
		if e.Op.Kind == Label {
			if _, ok := rename[e.Op.Label]; !ok {
				rename[e.Op.Label] = gen.Next()
			}
		}
	}
	rn := func(s string) string {
		if r, ok := rename[s]; ok {
			return r
		}
		return s
	}

	out := &Block{InputSlots: b.InputSlots, Entries: make([]Entry, len(b.Entries))}
	for i, e := range b.Entries {
		op := e.Op
		switch op.Kind {
		case Label, Goto, IfGoto, IfType, End, Assert:
			op.Label = rn(op.Label)
		case Switch:
			op.Default = rn(op.Default)
			cs := make([]SwitchCase, len(op.Cases))
			for j, c := range op.Cases {
				cs[j] = SwitchCase{Value: c.Value, Label: rn(c.Label)}
			}
			op.Cases = cs
		case ForAll, Loop:
			op.EndLabel = rn(op.EndLabel)
		case TryCatch:
			op.EndLabel = rn(op.EndLabel)
			hs := make([]CatchHandler, len(op.Handlers))
			for j, h := range op.Handlers {
				hs[j] = CatchHandler{Type: h.Type, Label: rn(h.Label)}
			}
			op.Handlers = hs
		}
		out.Entries[i] = Entry{Op: op, File: e.File, Line: e.Line, Column: e.Column, Comment: e.Comment}
	}
	return out
}
