package il

import (
	"github.com/hashicorp/go-set/v2"

	"github.com/wyfront/corec/internal/source"
	"github.com/wyfront/corec/internal/types"
	"github.com/wyfront/corec/internal/value"
)

// Block is an ordered sequence of Entries plus the number of input
// slots it consumes. It is the unit the Lowerer and the Resolver's
// constraint-block synthesis both build up incrementally.
type Block struct {
	Entries    []Entry
	InputSlots int
}

func NewBlock(inputSlots int) *Block {
	return &Block{InputSlots: inputSlots}
}

func (b *Block) emit(op Op, attr source.Attribute, comment string) {
	b.Entries = append(b.Entries, Entry{Op: op, File: attr.File, Line: attr.Line, Column: attr.Column, Comment: comment})
}

func (b *Block) ensureSlots(slot int) {
	if slot+1 > b.InputSlots {
		b.InputSlots = slot + 1
	}
}

func (b *Block) LoadAt(attr source.Attribute, slot int) {
	b.ensureSlots(slot)
	b.emit(Op{Kind: Load, Slot: slot}, attr, "")
}

func (b *Block) StoreAt(attr source.Attribute, slot int) {
	b.ensureSlots(slot)
	b.emit(Op{Kind: Store, Slot: slot}, attr, "")
}

func (b *Block) ConstAt(attr source.Attribute, v value.Value) {
	b.emit(Op{Kind: Const, ConstVal: v}, attr, "")
}

func (b *Block) ConvertAt(attr source.Attribute, t types.Type) {
	b.emit(Op{Kind: Convert, Typ: t}, attr, "")
}

func (b *Block) DestructureAt(attr source.Attribute, n int) {
	b.emit(Op{Kind: Destructure, N: n}, attr, "")
}

func (b *Block) BinOpAt(attr source.Attribute, op BinOpKind) {
	b.emit(Op{Kind: BinOp, Bin: op}, attr, "")
}

func (b *Block) NewAggregateAt(attr source.Attribute, kind OpKind, n int) {
	b.emit(Op{Kind: kind, N: n}, attr, "")
}

func (b *Block) NewRecordAt(attr source.Attribute, t types.Type) {
	b.emit(Op{Kind: NewRecord, Typ: t}, attr, "")
}

func (b *Block) FieldLoadAt(attr source.Attribute, name string) {
	b.emit(Op{Kind: FieldLoad, Name: name}, attr, "")
}

func (b *Block) TupleLoadAt(attr source.Attribute, i int) {
	b.emit(Op{Kind: TupleLoad, N: i}, attr, "")
}

func (b *Block) SetOpAt(attr source.Attribute, kind OpKind, dir SetDir) {
	b.emit(Op{Kind: kind, Dir: dir}, attr, "")
}

func (b *Block) UpdateAt(attr source.Attribute, slot, depth int, fields []string) {
	b.ensureSlots(slot)
	b.emit(Op{Kind: Update, Slot: slot, Depth: depth, Fields: fields}, attr, "")
}

func (b *Block) LabelAt(attr source.Attribute, name string) {
	b.emit(Op{Kind: Label, Label: name}, attr, "")
}

func (b *Block) GotoAt(attr source.Attribute, target string) {
	b.emit(Op{Kind: Goto, Label: target}, attr, "")
}

func (b *Block) IfGotoAt(attr source.Attribute, cmp CmpOp, target string) {
	b.emit(Op{Kind: IfGoto, Cmp: cmp, Label: target}, attr, "")
}

func (b *Block) IfTypeAt(attr source.Attribute, slot int, t types.Type, target string) {
	b.ensureSlots(slot)
	b.emit(Op{Kind: IfType, Slot: slot, Typ: t, Label: target}, attr, "")
}

func (b *Block) SwitchAt(attr source.Attribute, def string, cases []SwitchCase) {
	b.emit(Op{Kind: Switch, Default: def, Cases: cases}, attr, "")
}

func (b *Block) ForAllAt(attr source.Attribute, slot int, end string, modified *set.Set[int]) {
	b.ensureSlots(slot)
	b.emit(Op{Kind: ForAll, Slot: slot, EndLabel: end, Modified: modified}, attr, "")
}

func (b *Block) LoopAt(attr source.Attribute, end string, modified *set.Set[int]) {
	b.emit(Op{Kind: Loop, EndLabel: end, Modified: modified}, attr, "")
}

func (b *Block) EndAt(attr source.Attribute, label string) {
	b.emit(Op{Kind: End, Label: label}, attr, "")
}

func (b *Block) AssertAt(attr source.Attribute, label string) {
	b.emit(Op{Kind: Assert, Label: label}, attr, "")
}

func (b *Block) FailAt(attr source.Attribute, msg string) {
	b.emit(Op{Kind: Fail, Msg: msg}, attr, "")
}

func (b *Block) InvokeAt(attr source.Attribute, name string, t types.Type, keepResult bool) {
	b.emit(Op{Kind: Invoke, Name: name, Typ: t, KeepResult: keepResult}, attr, "")
}

func (b *Block) IndirectInvokeAt(attr source.Attribute, t types.Type, keepResult bool) {
	b.emit(Op{Kind: IndirectInvoke, Typ: t, KeepResult: keepResult}, attr, "")
}

func (b *Block) SendAt(attr source.Attribute, name string, t types.Type, sync, keepResult bool) {
	b.emit(Op{Kind: Send, Name: name, Typ: t, Sync: sync, KeepResult: keepResult}, attr, "")
}

func (b *Block) IndirectSendAt(attr source.Attribute, t types.Type, sync, keepResult bool) {
	b.emit(Op{Kind: IndirectSend, Typ: t, Sync: sync, KeepResult: keepResult}, attr, "")
}

func (b *Block) ThrowAt(attr source.Attribute) {
	b.emit(Op{Kind: Throw}, attr, "")
}

func (b *Block) TryCatchAt(attr source.Attribute, end string, handlers []CatchHandler) {
	b.emit(Op{Kind: TryCatch, EndLabel: end, Handlers: handlers}, attr, "")
}

func (b *Block) ReturnAt(attr source.Attribute, t types.Type) {
	b.emit(Op{Kind: Return, Typ: t}, attr, "")
}

func (b *Block) SpawnAt(attr source.Attribute) {
	b.emit(Op{Kind: Spawn}, attr, "")
}

func (b *Block) ProcLoadAt(attr source.Attribute) {
	b.emit(Op{Kind: ProcLoad}, attr, "")
}

// Append concatenates other's entries onto b, widening InputSlots to
// cover whichever block declared more.
func (b *Block) Append(other *Block) {
	b.Entries = append(b.Entries, other.Entries...)
	if other.InputSlots > b.InputSlots {
		b.InputSlots = other.InputSlots
	}
}

// labelTargets lists every label name the block defines or targets,
// one element per occurrence (repeats included) — used by Verify to
// check invariant (i)/(ii).
func (b *Block) labelTargets() []string {
	var out []string
	add := func(s string) {
		if s != "" {
			out = append(out, s)
		}
	}
	for _, e := range b.Entries {
		switch e.Op.Kind {
		case Label, Goto, IfGoto, IfType, End, Assert:
			add(e.Op.Label)
		case Switch:
			add(e.Op.Default)
			for _, c := range e.Op.Cases {
				add(c.Label)
			}
		case ForAll, Loop:
			add(e.Op.EndLabel)
		case TryCatch:
			add(e.Op.EndLabel)
			for _, h := range e.Op.Handlers {
				add(h.Label)
			}
		}
	}
	return out
}

// Verify checks invariants (i) and (ii): every Label occurs at most
// once, and every jump targets a label actually defined in the block.
func (b *Block) Verify() []error {
	var errs []error
	defined := map[string]int{}
	for _, e := range b.Entries {
		if e.Op.Kind == Label {
			defined[e.Op.Label]++
		}
	}
	for name, count := range defined {
		if count > 1 {
			errs = append(errs, duplicateLabelError(name))
		}
	}
	for _, name := range b.labelTargets() {
		if defined[name] == 0 {
			errs = append(errs, undefinedLabelError(name))
		}
	}
	return errs
}
