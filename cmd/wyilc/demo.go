// The demo module below stands in for a parsed source file (spec
// §4.1's "AST interface (consumed)" is out of scope here) so the
// pipeline has something concrete to run: a refined "nat" type with
// a `where` predicate, a Point2D/Point3D union, a pure function whose
// body and ensures clause both exercise the Lowerer, and a method
// reading receiver state through a field access.
package main

import (
	"github.com/wyfront/corec/internal/ast"
	"github.com/wyfront/corec/internal/source"
	"github.com/wyfront/corec/internal/value"
)

func pos(line int) ast.BaseNode {
	p := source.Position{File: "demo.why", Line: line, Column: 1}
	return ast.BaseNode{StartPos: p, EndPos: p}
}

func ident(line int, name string) *ast.Ident {
	return &ast.Ident{BaseNode: pos(line), Name: name}
}

func intLit(line int, n int64) *ast.Literal {
	return &ast.Literal{BaseNode: pos(line), Val: value.NewIntFromInt64(n)}
}

func buildDemoFile() *ast.File {
	natDecl := &ast.TypeDecl{
		BaseNode: pos(1),
		Name:     "nat",
		Type:     &ast.PrimitiveType{Name: "int"},
		Var:      "n",
		Where: &ast.Binary{
			BaseNode: pos(1), Op: ast.OpGe,
			Left: ident(1, "n"), Right: intLit(1, 0),
		},
	}

	point2D := &ast.TypeDecl{
		BaseNode: pos(4),
		Name:     "Point2D",
		Type: &ast.RecordType{
			Fields: []ast.RecordField{
				{Name: "x", Type: &ast.PrimitiveType{Name: "int"}},
				{Name: "y", Type: &ast.PrimitiveType{Name: "int"}},
			},
		},
	}
	point3D := &ast.TypeDecl{
		BaseNode: pos(8),
		Name:     "Point3D",
		Type: &ast.RecordType{
			Fields: []ast.RecordField{
				{Name: "x", Type: &ast.PrimitiveType{Name: "int"}},
				{Name: "y", Type: &ast.PrimitiveType{Name: "int"}},
				{Name: "z", Type: &ast.PrimitiveType{Name: "int"}},
			},
		},
	}
	point := &ast.TypeDecl{
		BaseNode: pos(13),
		Name:     "Point",
		Type: &ast.UnionType{Branches: []ast.UnresolvedType{
			&ast.NamedType{Name: "Point2D"},
			&ast.NamedType{Name: "Point3D"},
		}},
	}

	counter := &ast.TypeDecl{
		BaseNode: pos(16),
		Name:     "Counter",
		Type: &ast.RecordType{
			Fields: []ast.RecordField{
				{Name: "count", Type: &ast.PrimitiveType{Name: "int"}},
			},
		},
	}

	limit := &ast.ConstDecl{
		BaseNode: pos(19),
		Name:     "Limit",
		Value:    intLit(19, 100),
	}

	// func double(n nat) -> nat
	//   ensures result >= 0
	// { return n + n; }
	double := &ast.FuncDecl{
		BaseNode: pos(22),
		Name:     "double",
		Params:   []ast.Param{{Name: "n", Type: &ast.NamedType{Name: "nat"}}},
		Return:   &ast.NamedType{Name: "nat"},
		Post: []ast.Expr{
			&ast.Binary{BaseNode: pos(22), Op: ast.OpGe, Left: ident(22, "result"), Right: intLit(22, 0)},
		},
		Body: &ast.BlockStmt{
			BaseNode: pos(23),
			Stmts: []ast.Stmt{
				&ast.ReturnStmt{
					BaseNode: pos(23),
					Value: &ast.Binary{
						BaseNode: pos(23), Op: ast.OpAdd,
						Left: ident(23, "n"), Right: ident(23, "n"),
					},
				},
			},
		},
	}

	// method bump(this Counter, by int) -> int { return this.count + by; }
	bump := &ast.MethodDecl{
		BaseNode: pos(26),
		Name:     "bump",
		Receiver: &ast.NamedType{Name: "Counter"},
		Params:   []ast.Param{{Name: "by", Type: &ast.PrimitiveType{Name: "int"}}},
		Return:   &ast.PrimitiveType{Name: "int"},
		Body: &ast.BlockStmt{
			BaseNode: pos(27),
			Stmts: []ast.Stmt{
				&ast.ReturnStmt{
					BaseNode: pos(27),
					Value: &ast.Binary{
						BaseNode: pos(27), Op: ast.OpAdd,
						Left:  &ast.FieldAccess{BaseNode: pos(27), Base: ident(27, "this"), Name: "count"},
						Right: ident(27, "by"),
					},
				},
			},
		},
	}

	return &ast.File{
		Module: "demo",
		Decls:  []ast.Decl{natDecl, point2D, point3D, point, counter, limit, double, bump},
	}
}
