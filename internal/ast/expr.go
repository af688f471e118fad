package ast

import "github.com/wyfront/corec/internal/value"

type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpRange
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpConcat
	OpSetUnion
	OpSetIntersect
	OpSetDiff
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpNot
	OpBitNot
)

type LogicalOp int

const (
	OpAnd LogicalOp = iota
	OpOr
	OpXor
)

type ComprehensionKind int

const (
	ComprehendList ComprehensionKind = iota
	ComprehendSet
)

type QuantifierKind int

const (
	QuantifySome QuantifierKind = iota
	QuantifyNone
)

type Ident struct {
	BaseNode
	Name string
}

// Literal wraps an already-evaluated constant. The AST does not model
// raw token text; nodes that would be produced by a lexer/parser are
// built directly with their folded Value.
type Literal struct {
	BaseNode
	Val value.Value
}

type ListExpr struct {
	BaseNode
	Elems []Expr
}

type SetExpr struct {
	BaseNode
	Elems []Expr
}

type TupleExpr struct {
	BaseNode
	Elems []Expr
}

type RecordExpr struct {
	BaseNode
	Fields map[string]Expr
}

type DictExpr struct {
	BaseNode
	Keys []Expr
	Vals []Expr
}

type Binary struct {
	BaseNode
	Op    BinaryOp
	Left  Expr
	Right Expr
}

type Unary struct {
	BaseNode
	Op      UnaryOp
	Operand Expr
}

type Logical struct {
	BaseNode
	Op    LogicalOp
	Left  Expr
	Right Expr
}

// IsType represents `e is T`. Equality against null is lowered by the
// Lowerer to the same IfType shape, not represented separately here.
type IsType struct {
	BaseNode
	Operand Expr
	Type    UnresolvedType
}

type Call struct {
	BaseNode
	Callee Expr
	Args   []Expr
}

type Index struct {
	BaseNode
	Base Expr
	Idx  Expr
}

type SubList struct {
	BaseNode
	Base Expr
	Low  Expr
	High Expr
}

type FieldAccess struct {
	BaseNode
	Base Expr
	Name string
}

type TupleAccess struct {
	BaseNode
	Base  Expr
	Index int
}

// Comprehension desugars to an accumulator initialised to NewList 0 /
// NewSet 0, iterated with a ForAll filtered by Condition (spec §4.5).
type Comprehension struct {
	BaseNode
	Kind      ComprehensionKind
	Var       string
	Source    Expr
	Condition Expr // nil if unfiltered
	Body      Expr
}

// Quantified compiles `some`/`none` to a pair of forward-branching
// labels materialising a boolean (spec §4.5).
type Quantified struct {
	BaseNode
	Kind      QuantifierKind
	Var       string
	Source    Expr
	Condition Expr
}

func (*Ident) exprNode()         {}
func (*Literal) exprNode()       {}
func (*ListExpr) exprNode()      {}
func (*SetExpr) exprNode()       {}
func (*TupleExpr) exprNode()     {}
func (*RecordExpr) exprNode()    {}
func (*DictExpr) exprNode()      {}
func (*Binary) exprNode()        {}
func (*Unary) exprNode()         {}
func (*Logical) exprNode()       {}
func (*IsType) exprNode()        {}
func (*Call) exprNode()          {}
func (*Index) exprNode()         {}
func (*SubList) exprNode()       {}
func (*FieldAccess) exprNode()   {}
func (*TupleAccess) exprNode()   {}
func (*Comprehension) exprNode() {}
func (*Quantified) exprNode()    {}

func (e *Ident) Accept(v Visitor) (interface{}, error)      { return v.VisitIdent(e) }
func (e *Literal) Accept(v Visitor) (interface{}, error)    { return v.VisitLiteral(e) }
func (e *ListExpr) Accept(v Visitor) (interface{}, error)   { return v.VisitListExpr(e) }
func (e *SetExpr) Accept(v Visitor) (interface{}, error)    { return v.VisitSetExpr(e) }
func (e *TupleExpr) Accept(v Visitor) (interface{}, error)  { return v.VisitTupleExpr(e) }
func (e *RecordExpr) Accept(v Visitor) (interface{}, error) { return v.VisitRecordExpr(e) }
func (e *DictExpr) Accept(v Visitor) (interface{}, error)   { return v.VisitDictExpr(e) }
func (e *Binary) Accept(v Visitor) (interface{}, error)     { return v.VisitBinary(e) }
func (e *Unary) Accept(v Visitor) (interface{}, error)      { return v.VisitUnary(e) }
func (e *Logical) Accept(v Visitor) (interface{}, error)    { return v.VisitLogical(e) }
func (e *IsType) Accept(v Visitor) (interface{}, error)     { return v.VisitIsType(e) }
func (e *Call) Accept(v Visitor) (interface{}, error)       { return v.VisitCall(e) }
func (e *Index) Accept(v Visitor) (interface{}, error)      { return v.VisitIndex(e) }
func (e *FieldAccess) Accept(v Visitor) (interface{}, error) {
	return v.VisitFieldAccess(e)
}
func (e *TupleAccess) Accept(v Visitor) (interface{}, error) {
	return v.VisitTupleAccess(e)
}
func (e *Comprehension) Accept(v Visitor) (interface{}, error) {
	return v.VisitComprehension(e)
}
func (e *Quantified) Accept(v Visitor) (interface{}, error) { return v.VisitQuantified(e) }
func (e *SubList) Accept(v Visitor) (interface{}, error)    { return v.VisitSubList(e) }
