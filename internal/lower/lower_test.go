package lower

import (
	"fmt"
	"testing"

	"github.com/wyfront/corec/internal/ast"
	"github.com/wyfront/corec/internal/module"
	"github.com/wyfront/corec/internal/resolver"
	"github.com/wyfront/corec/internal/value"
)

type noLoader struct{}

func (noLoader) LoadModule(path string) (*module.Module, error) {
	return nil, fmt.Errorf("no such module: %s", path)
}

func ident(name string) *ast.Ident { return &ast.Ident{Name: name} }

func intLit(n int64) *ast.Literal { return &ast.Literal{Val: value.NewIntFromInt64(n)} }

func newContext(t *testing.T, decls ...ast.Decl) *resolver.Context {
	t.Helper()
	file := &ast.File{Module: "m", Decls: decls}
	return resolver.NewContext("m", file, noLoader{})
}

func verifyAll(t *testing.T, fn module.FunctionDecl) {
	t.Helper()
	if errs := fn.Body.Verify(); len(errs) > 0 {
		t.Fatalf("%s body: unexpected verify errors: %v", fn.Name, errs)
	}
	for i, b := range fn.Pre {
		if errs := b.Verify(); len(errs) > 0 {
			t.Fatalf("%s requires[%d]: unexpected verify errors: %v", fn.Name, i, errs)
		}
	}
	for i, b := range fn.Post {
		if errs := b.Verify(); len(errs) > 0 {
			t.Fatalf("%s ensures[%d]: unexpected verify errors: %v", fn.Name, i, errs)
		}
	}
}

// TestLowerFuncSimpleReturn covers the plain-arithmetic body plus an
// ensures clause referencing the implicit "result" name.
func TestLowerFuncSimpleReturn(t *testing.T) {
	decl := &ast.FuncDecl{
		Name:   "double",
		Params: []ast.Param{{Name: "n", Type: &ast.PrimitiveType{Name: "int"}}},
		Return: &ast.PrimitiveType{Name: "int"},
		Post: []ast.Expr{
			&ast.Binary{Op: ast.OpGe, Left: ident("result"), Right: intLit(0)},
		},
		Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.Binary{Op: ast.OpAdd, Left: ident("n"), Right: ident("n")}},
		}},
	}
	ctx := newContext(t, decl)
	fn, err := New(ctx).LowerFunc(decl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fn.Post) != 1 {
		t.Fatalf("expected 1 ensures block, got %d", len(fn.Post))
	}
	verifyAll(t, fn)
}

// TestLowerFuncControlFlow exercises if/while/for/switch/try-catch
// together in one body, checking every emitted Block still satisfies
// Verify's label invariants.
func TestLowerFuncControlFlow(t *testing.T) {
	decl := &ast.FuncDecl{
		Name:   "walk",
		Params: []ast.Param{{Name: "xs", Type: &ast.ListType{Elem: &ast.PrimitiveType{Name: "int"}}}},
		Return: &ast.PrimitiveType{Name: "int"},
		Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.VarDeclStmt{Name: "total", Type: &ast.PrimitiveType{Name: "int"}, Value: intLit(0)},
			&ast.IfStmt{
				Cond: &ast.Binary{Op: ast.OpGt, Left: ident("total"), Right: intLit(0)},
				Then: &ast.BlockStmt{Stmts: []ast.Stmt{
					&ast.AssignStmt{
						Targets: []ast.LValue{{Root: "total"}},
						Value:   &ast.Binary{Op: ast.OpSub, Left: ident("total"), Right: intLit(1)},
					},
				}},
			},
			&ast.WhileStmt{
				Cond: &ast.Binary{Op: ast.OpLt, Left: ident("total"), Right: intLit(10)},
				Body: &ast.BlockStmt{Stmts: []ast.Stmt{
					&ast.AssignStmt{
						Targets: []ast.LValue{{Root: "total"}},
						Value:   &ast.Binary{Op: ast.OpAdd, Left: ident("total"), Right: intLit(1)},
					},
				}},
			},
			&ast.ForStmt{
				Var:    "x",
				Source: ident("xs"),
				Body: &ast.BlockStmt{Stmts: []ast.Stmt{
					&ast.AssignStmt{
						Targets: []ast.LValue{{Root: "total"}},
						Value:   &ast.Binary{Op: ast.OpAdd, Left: ident("total"), Right: ident("x")},
					},
				}},
			},
			&ast.SwitchStmt{
				Scrutinee: ident("total"),
				Cases: []ast.SwitchCaseClause{
					{Values: []ast.Expr{intLit(0)}, Body: []ast.Stmt{&ast.BreakStmt{}}},
					{IsDefault: true, Body: []ast.Stmt{&ast.BreakStmt{}}},
				},
			},
			&ast.TryCatchStmt{
				Try: &ast.BlockStmt{Stmts: []ast.Stmt{&ast.ExprStmt{X: ident("total")}}},
				Catches: []ast.CatchClause{
					{Type: &ast.PrimitiveType{Name: "any"}, Var: "e", Body: &ast.BlockStmt{}},
				},
			},
			&ast.ReturnStmt{Value: ident("total")},
		}},
	}
	ctx := newContext(t, decl)
	fn, err := New(ctx).LowerFunc(decl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	verifyAll(t, fn)
}

// TestLowerMethodReceiverFieldAccess covers a method reading its
// receiver's state through a field access.
func TestLowerMethodReceiverFieldAccess(t *testing.T) {
	counter := &ast.TypeDecl{
		Name: "Counter",
		Type: &ast.RecordType{Fields: []ast.RecordField{
			{Name: "count", Type: &ast.PrimitiveType{Name: "int"}},
		}},
	}
	decl := &ast.MethodDecl{
		Name:     "bump",
		Receiver: &ast.NamedType{Name: "Counter"},
		Params:   []ast.Param{{Name: "by", Type: &ast.PrimitiveType{Name: "int"}}},
		Return:   &ast.PrimitiveType{Name: "int"},
		Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.Binary{
				Op:    ast.OpAdd,
				Left:  &ast.FieldAccess{Base: ident("this"), Name: "count"},
				Right: ident("by"),
			}},
		}},
	}
	ctx := newContext(t, counter, decl)
	fn, err := New(ctx).LowerMethod(decl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	verifyAll(t, fn)
}

// TestLowerQuantifiedAndComprehension checks the loop-shaped
// expression forms (spec §4.5) that must each close their own
// ForAll/End label pair.
func TestLowerQuantifiedAndComprehension(t *testing.T) {
	decl := &ast.FuncDecl{
		Name:   "anyPositive",
		Params: []ast.Param{{Name: "xs", Type: &ast.ListType{Elem: &ast.PrimitiveType{Name: "int"}}}},
		Return: &ast.PrimitiveType{Name: "bool"},
		Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.VarDeclStmt{
				Name: "doubled",
				Value: &ast.Comprehension{
					Kind:   ast.ComprehendList,
					Var:    "x",
					Source: ident("xs"),
					Body:   &ast.Binary{Op: ast.OpAdd, Left: ident("x"), Right: ident("x")},
				},
			},
			&ast.ReturnStmt{Value: &ast.Quantified{
				Kind:      ast.QuantifySome,
				Var:       "x",
				Source:    ident("doubled"),
				Condition: &ast.Binary{Op: ast.OpGt, Left: ident("x"), Right: intLit(0)},
			}},
		}},
	}
	ctx := newContext(t, decl)
	fn, err := New(ctx).LowerFunc(decl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	verifyAll(t, fn)
}

// TestLowerAssignDestructure covers the multi-target `x, y = (1, 2)`
// destructuring scenario from spec §8, which takes the DestructureAt
// path in lowerAssign rather than the single-target lowerLValueAssign.
func TestLowerAssignDestructure(t *testing.T) {
	decl := &ast.FuncDecl{
		Name:   "swap",
		Params: nil,
		Return: &ast.PrimitiveType{Name: "int"},
		Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.VarDeclStmt{Name: "x", Type: &ast.PrimitiveType{Name: "int"}},
			&ast.VarDeclStmt{Name: "y", Type: &ast.PrimitiveType{Name: "int"}},
			&ast.AssignStmt{
				Targets: []ast.LValue{{Root: "x"}, {Root: "y"}},
				Value:   &ast.TupleExpr{Elems: []ast.Expr{intLit(1), intLit(2)}},
			},
			&ast.ReturnStmt{Value: &ast.Binary{Op: ast.OpAdd, Left: ident("x"), Right: ident("y")}},
		}},
	}
	ctx := newContext(t, decl)
	fn, err := New(ctx).LowerFunc(decl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	verifyAll(t, fn)
}

// TestLowerIsTypeCondition covers an `if e is [int]: ...` test in
// condition position (spec §8), the lowerCondition *ast.IsType path.
func TestLowerIsTypeCondition(t *testing.T) {
	decl := &ast.FuncDecl{
		Name:   "classify",
		Params: []ast.Param{{Name: "e", Type: &ast.PrimitiveType{Name: "any"}}},
		Return: &ast.PrimitiveType{Name: "int"},
		Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.IfStmt{
				Cond: &ast.IsType{Operand: ident("e"), Type: &ast.ListType{Elem: &ast.PrimitiveType{Name: "int"}}},
				Then: &ast.BlockStmt{Stmts: []ast.Stmt{&ast.ReturnStmt{Value: intLit(1)}}},
			},
			&ast.ReturnStmt{Value: intLit(0)},
		}},
	}
	ctx := newContext(t, decl)
	fn, err := New(ctx).LowerFunc(decl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	verifyAll(t, fn)
}

// TestLowerIsTypeValue covers `e is [int]` used directly as a value
// (e.g. `return e is [int]`), the lowerValue/materializeBool path.
func TestLowerIsTypeValue(t *testing.T) {
	decl := &ast.FuncDecl{
		Name:   "isIntList",
		Params: []ast.Param{{Name: "e", Type: &ast.PrimitiveType{Name: "any"}}},
		Return: &ast.PrimitiveType{Name: "bool"},
		Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.ReturnStmt{Value: &ast.IsType{Operand: ident("e"), Type: &ast.ListType{Elem: &ast.PrimitiveType{Name: "int"}}}},
		}},
	}
	ctx := newContext(t, decl)
	fn, err := New(ctx).LowerFunc(decl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	verifyAll(t, fn)
}

// TestLowerSwitchConstantFoldedCase checks that a case value need not
// be a literal: a named constant and a computed constant expression
// both fold through resolver.Context.Fold (spec §4.5).
func TestLowerSwitchConstantFoldedCase(t *testing.T) {
	limit := &ast.ConstDecl{Name: "Limit", Value: intLit(1)}
	decl := &ast.FuncDecl{
		Name:   "classify",
		Params: []ast.Param{{Name: "n", Type: &ast.PrimitiveType{Name: "int"}}},
		Return: &ast.PrimitiveType{Name: "int"},
		Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.SwitchStmt{
				Scrutinee: ident("n"),
				Cases: []ast.SwitchCaseClause{
					{Values: []ast.Expr{ident("Limit")}, Body: []ast.Stmt{&ast.ReturnStmt{Value: intLit(1)}}},
					{Values: []ast.Expr{&ast.Binary{Op: ast.OpAdd, Left: intLit(1), Right: intLit(1)}}, Body: []ast.Stmt{&ast.ReturnStmt{Value: intLit(2)}}},
					{IsDefault: true, Body: []ast.Stmt{&ast.ReturnStmt{Value: intLit(0)}}},
				},
			},
		}},
	}
	ctx := newContext(t, limit, decl)
	fn, err := New(ctx).LowerFunc(decl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	verifyAll(t, fn)
}

// TestLowerSwitchDuplicateCaseLabel checks the DuplicateCaseLabel
// diagnostic path from spec §8's end-to-end scenario list.
func TestLowerSwitchDuplicateCaseLabel(t *testing.T) {
	decl := &ast.FuncDecl{
		Name:   "classify",
		Params: []ast.Param{{Name: "n", Type: &ast.PrimitiveType{Name: "int"}}},
		Return: &ast.PrimitiveType{Name: "int"},
		Body: &ast.BlockStmt{Stmts: []ast.Stmt{
			&ast.SwitchStmt{
				Scrutinee: ident("n"),
				Cases: []ast.SwitchCaseClause{
					{Values: []ast.Expr{intLit(1)}, Body: []ast.Stmt{&ast.ReturnStmt{Value: intLit(1)}}},
					{Values: []ast.Expr{intLit(1)}, Body: []ast.Stmt{&ast.ReturnStmt{Value: intLit(2)}}},
				},
			},
			&ast.ReturnStmt{Value: intLit(0)},
		}},
	}
	ctx := newContext(t, decl)
	if _, err := New(ctx).LowerFunc(decl); err == nil {
		t.Fatalf("expected a DuplicateCaseLabel error, got nil")
	}
}
