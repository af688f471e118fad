// Package il implements the three-address stack-plus-slot
// intermediate language: the Op/Entry/Block model, slot shifting,
// relabelling, and Fail-to-Goto chaining used to compose constraint
// blocks into larger ones.
package il

import (
	"github.com/hashicorp/go-set/v2"

	"github.com/wyfront/corec/internal/types"
	"github.com/wyfront/corec/internal/value"
)

// OpKind tags the variant an Op holds. As with the Type Graph, core
// dispatch is by Kind and an exhaustive switch rather than a grown
// interface per operation.
type OpKind int

const (
	// Data motion.
	Load OpKind = iota
	Store
	Const
	Convert
	Destructure

	// Arithmetic/logical.
	BinOp

	// Aggregates.
	NewList
	NewSet
	NewTuple
	NewDict
	NewRecord
	ListLoad
	ListLength
	SubList
	FieldLoad
	TupleLoad
	SetUnion
	SetIntersect

	// Compound update.
	Update

	// Control.
	Label
	Goto
	IfGoto
	IfType
	Switch
	ForAll
	Loop
	End
	Assert
	Fail

	// Invocation.
	Invoke
	IndirectInvoke
	Send
	IndirectSend
	Throw
	TryCatch
	Return

	// Reference.
	Spawn
	ProcLoad
)

// BinOpKind enumerates the arithmetic/logical binary operators.
type BinOpKind int

const (
	ADD BinOpKind = iota
	SUB
	MUL
	DIV
	REM
	RANGE
	AND
	OR
	XOR
	SHL
	SHR
)

// CmpOp enumerates the comparison operators IfGoto tests.
type CmpOp int

const (
	EQ CmpOp = iota
	NE
	LT
	LE
	GT
	GE
)

// SetDir distinguishes union/intersect's directionality when the
// operands aren't commutative in evaluation order (left popped first
// vs second).
type SetDir int

const (
	DirLeft SetDir = iota
	DirRight
)

// SwitchCase pairs a folded constant with the label to jump to when
// the scrutinee equals it.
type SwitchCase struct {
	Value value.Value
	Label string
}

// CatchHandler pairs an exception Type with the label its handler
// begins at.
type CatchHandler struct {
	Type  types.Type
	Label string
}

// Op is a tagged operation. Only the fields relevant to Kind are
// meaningful; this mirrors the Type Graph's Node shape.
type Op struct {
	Kind OpKind

	Slot  int // Load, Store, IfType, Update, ForAll element slot
	Depth int // Update

	ConstVal value.Value
	Typ      types.Type // Convert, IfType, NewRecord, signatures, TryCatch entry type

	Bin BinOpKind
	Cmp CmpOp

	N      int      // NewList/NewSet/NewTuple/NewDict count, TupleLoad index
	Name   string   // FieldLoad name, Invoke/Send callee name
	Fields []string // Update field path
	Dir    SetDir

	Label    string // Label, Goto, IfGoto, IfType, End, Assert target
	EndLabel string // ForAll, Loop, TryCatch end-of-region label
	Cases    []SwitchCase
	Default  string
	Handlers []CatchHandler

	Sync       bool // Send
	KeepResult bool // Invoke, IndirectInvoke, Send

	Msg string // Fail

	Modified *set.Set[int] // ForAll, Loop modified-set
}

// Entry bundles one operation with its positional attributes.
type Entry struct {
	Op      Op
	File    string
	Line    int
	Column  int
	Comment string
}
