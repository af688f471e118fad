package il

import (
	"testing"

	"github.com/wyfront/corec/internal/source"
)

func constraintBlock() *Block {
	b := NewBlock(1)
	attr := source.Attribute{File: "t.why", Line: 1}
	b.LoadAt(attr, 0)
	b.IfGotoAt(attr, GE, "ok")
	b.FailAt(attr, "constraint on type not satisfied (nat)")
	b.LabelAt(attr, "ok")
	return b
}

func TestShiftConsumesShiftedRange(t *testing.T) {
	b := constraintBlock()
	if b.InputSlots != 1 {
		t.Fatalf("expected InputSlots=1, got %d", b.InputSlots)
	}
	shifted := Shift(b, 3)
	if shifted.InputSlots != 4 {
		t.Fatalf("shift(b,3) should consume [3,4), got InputSlots=%d", shifted.InputSlots)
	}
	if shifted.Entries[0].Op.Slot != 3 {
		t.Fatalf("Load slot should shift to 3, got %d", shifted.Entries[0].Op.Slot)
	}
}

func TestShiftZeroIsIdentity(t *testing.T) {
	b := constraintBlock()
	shifted := Shift(b, 0)
	if shifted.InputSlots != b.InputSlots {
		t.Fatalf("shift(b,0) should preserve InputSlots")
	}
	for i := range b.Entries {
		if shifted.Entries[i].Op.Kind != b.Entries[i].Op.Kind {
			t.Fatalf("shift(b,0) should preserve op shape at %d", i)
		}
	}
}

func TestRelabelTwiceEvaluatesIdentically(t *testing.T) {
	b := constraintBlock()
	gen := NewLabelGen()
	once := Relabel(b, gen)
	gen2 := NewLabelGen()
	twice := Relabel(once, gen2)

	// Both relabellings must preserve the entry shape and keep every
	// jump resolvable to a label defined in the same block.
	if errs := once.Verify(); len(errs) != 0 {
		t.Fatalf("relabelled block should verify clean, got %v", errs)
	}
	if errs := twice.Verify(); len(errs) != 0 {
		t.Fatalf("twice-relabelled block should verify clean, got %v", errs)
	}
	if len(once.Entries) != len(twice.Entries) {
		t.Fatalf("relabelling should not change entry count")
	}
}

func TestChainRewritesFailToGoto(t *testing.T) {
	b := constraintBlock()
	chained := Chain(b, "next")
	for _, e := range chained.Entries {
		if e.Op.Kind == Fail {
			t.Fatal("chained block should contain no Fail entries")
		}
	}
	found := false
	for _, e := range chained.Entries {
		if e.Op.Kind == Goto && e.Op.Label == "next" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected the Fail to become Goto(next)")
	}
}

func TestBlockVerifyCatchesDuplicateLabel(t *testing.T) {
	b := NewBlock(0)
	attr := source.Attribute{}
	b.LabelAt(attr, "L1")
	b.LabelAt(attr, "L1")
	errs := b.Verify()
	if len(errs) == 0 {
		t.Fatal("expected a duplicate-label error")
	}
}

func TestBlockVerifyCatchesUndefinedTarget(t *testing.T) {
	b := NewBlock(0)
	attr := source.Attribute{}
	b.GotoAt(attr, "nowhere")
	errs := b.Verify()
	if len(errs) == 0 {
		t.Fatal("expected an undefined-label error")
	}
}
