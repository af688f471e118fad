// Package ast defines the AST this repository consumes: a hand-built
// tree standing in for the parser's output so the Constant Evaluator,
// Resolver, and Lowerer can be driven without writing a parser.
//
// Every node carries a source.Position pair, mirroring the external
// AST interface's "(file, line, column)" attribute. Dispatch here
// keeps the visitor shape the teacher used for its own AST, since
// this package models an out-of-scope parser's output rather than
// a piece of the core this repository redesigns.
package ast

import "github.com/wyfront/corec/internal/source"

type Node interface {
	Pos() source.Position
	End() source.Position
}

type Expr interface {
	Node
	Accept(v Visitor) (interface{}, error)
	exprNode()
}

type Stmt interface {
	Node
	Accept(v Visitor) error
	stmtNode()
}

type Decl interface {
	Node
	declNode()
}

// BaseNode supplies Pos/End to every concrete node via embedding.
type BaseNode struct {
	StartPos source.Position
	EndPos   source.Position
}

func (b *BaseNode) Pos() source.Position { return b.StartPos }
func (b *BaseNode) End() source.Position { return b.EndPos }

// File is the root of one compilation unit.
type File struct {
	Module string
	Decls  []Decl
}

// Visitor drives expression/statement traversal through Accept, for a
// caller that holds an Expr/Stmt through the interface. The Constant
// Evaluator, Resolver and Lowerer do not implement it: they dispatch
// with Go type switches on the concrete *ast.XxxExpr types.
type Visitor interface {
	VisitIdent(e *Ident) (interface{}, error)
	VisitLiteral(e *Literal) (interface{}, error)
	VisitListExpr(e *ListExpr) (interface{}, error)
	VisitSetExpr(e *SetExpr) (interface{}, error)
	VisitTupleExpr(e *TupleExpr) (interface{}, error)
	VisitRecordExpr(e *RecordExpr) (interface{}, error)
	VisitDictExpr(e *DictExpr) (interface{}, error)
	VisitBinary(e *Binary) (interface{}, error)
	VisitUnary(e *Unary) (interface{}, error)
	VisitLogical(e *Logical) (interface{}, error)
	VisitIsType(e *IsType) (interface{}, error)
	VisitCall(e *Call) (interface{}, error)
	VisitIndex(e *Index) (interface{}, error)
	VisitSubList(e *SubList) (interface{}, error)
	VisitFieldAccess(e *FieldAccess) (interface{}, error)
	VisitTupleAccess(e *TupleAccess) (interface{}, error)
	VisitComprehension(e *Comprehension) (interface{}, error)
	VisitQuantified(e *Quantified) (interface{}, error)

	VisitExprStmt(s *ExprStmt) error
	VisitBlockStmt(s *BlockStmt) error
	VisitVarDeclStmt(s *VarDeclStmt) error
	VisitAssignStmt(s *AssignStmt) error
	VisitIfStmt(s *IfStmt) error
	VisitWhileStmt(s *WhileStmt) error
	VisitDoWhileStmt(s *DoWhileStmt) error
	VisitForStmt(s *ForStmt) error
	VisitReturnStmt(s *ReturnStmt) error
	VisitBreakStmt(s *BreakStmt) error
	VisitContinueStmt(s *ContinueStmt) error
	VisitSwitchStmt(s *SwitchStmt) error
	VisitTryCatchStmt(s *TryCatchStmt) error
}
