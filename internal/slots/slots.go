// Package slots tracks the Lowerer's per-function Name->Slot mapping
// and its break/continue targets in a chain of nested scopes, keyed
// to IL slot indices and label strings rather than typed Symbols.
package slots

import "github.com/pkg/errors"

type Kind int

const (
	KindFunction Kind = iota
	KindBlock
	KindLoop
	KindSwitch
)

// Env is one lexical scope. Names declared in a scope stay visible to
// its children; Exit never discards slot allocations (IL slots are
// dense for the whole function, spec §3.2), only Name visibility.
type Env struct {
	parent *Env
	kind   Kind
	names  map[string]int

	// breakLabel/continueLabel are the Goto targets a Break/Continue
	// statement resolves to while lexically inside a Loop or Switch
	// scope; they are empty outside one.
	breakLabel    string
	continueLabel string

	next *int // shared counter across every Env in one function
}

// Builder owns the current scope pointer for one function body; the
// Lowerer calls EnterX before each nested construct and calls Exit
// explicitly once that construct is lowered.
type Builder struct {
	cur *Env
}

// NewFunction starts a fresh per-function environment with slots
// 0..len(params)-1 pre-bound to the parameter names, in order.
func NewFunction(params []string) (*Builder, int) {
	n := 0
	root := &Env{kind: KindFunction, names: make(map[string]int), next: &n}
	for _, p := range params {
		root.names[p] = *root.next
		*root.next++
	}
	return &Builder{cur: root}, len(params)
}

func (b *Builder) Current() *Env { return b.cur }

func (b *Builder) enter(kind Kind, breakLabel, continueLabel string) *Env {
	child := &Env{
		parent:        b.cur,
		kind:          kind,
		names:         make(map[string]int),
		breakLabel:    breakLabel,
		continueLabel: continueLabel,
		next:          b.cur.next,
	}
	b.cur = child
	return child
}

func (b *Builder) EnterBlock() *Env {
	return b.enter(KindBlock, b.cur.breakLabel, b.cur.continueLabel)
}

func (b *Builder) EnterLoop(breakLabel, continueLabel string) *Env {
	return b.enter(KindLoop, breakLabel, continueLabel)
}

func (b *Builder) EnterSwitch(breakLabel string) *Env {
	return b.enter(KindSwitch, breakLabel, b.cur.continueLabel)
}

// Exit pops back to the parent scope. It is a no-op (not a panic) at
// the function root, so a stray extra Exit from defer unwinding after
// an error return cannot crash the Lowerer.
func (b *Builder) Exit() {
	if b.cur.parent != nil {
		b.cur = b.cur.parent
	}
}

// Declare allocates a fresh slot for name in the current scope.
func (b *Builder) Declare(name string) int {
	slot := *b.cur.next
	*b.cur.next++
	b.cur.names[name] = slot
	return slot
}

// TotalSlots returns the number of slots allocated so far in this
// function, i.e. the Block's required slot-array length.
func (b *Builder) TotalSlots() int { return *b.cur.next }

// Lookup walks outward from the current scope to find name's slot.
func (b *Builder) Lookup(name string) (int, bool) {
	for e := b.cur; e != nil; e = e.parent {
		if slot, ok := e.names[name]; ok {
			return slot, true
		}
	}
	return 0, false
}

// BreakTarget returns the label a Break statement should Goto.
func (b *Builder) BreakTarget() (string, error) {
	for e := b.cur; e != nil; e = e.parent {
		if e.breakLabel != "" {
			return e.breakLabel, nil
		}
	}
	return "", errors.New("break outside loop or switch")
}

// ContinueTarget returns the label a Continue statement should Goto.
func (b *Builder) ContinueTarget() (string, error) {
	for e := b.cur; e != nil; e = e.parent {
		if e.continueLabel != "" {
			return e.continueLabel, nil
		}
	}
	return "", errors.New("continue outside loop")
}
