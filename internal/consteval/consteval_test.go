package consteval

import (
	"math/big"
	"testing"

	"github.com/wyfront/corec/internal/ast"
	"github.com/wyfront/corec/internal/value"
)

type fakeDecls map[string]ast.Expr

func (d fakeDecls) LookupConst(module, name string) (ast.Expr, bool) {
	e, ok := d[name]
	return e, ok
}

func lit(v value.Value) *ast.Literal { return &ast.Literal{Val: v} }

func TestEvalArithmetic(t *testing.T) {
	c := NewContext(fakeDecls{}, "m")
	e := &ast.Binary{Op: ast.OpAdd,
		Left:  lit(value.NewIntFromInt64(2)),
		Right: lit(value.NewIntFromInt64(3)),
	}
	v, err := c.Eval(e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind() != value.Int || v.Int().Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("expected 5, got %v", v)
	}
}

func TestEvalDivisionByZero(t *testing.T) {
	c := NewContext(fakeDecls{}, "m")
	e := &ast.Binary{Op: ast.OpDiv,
		Left:  lit(value.NewIntFromInt64(1)),
		Right: lit(value.NewIntFromInt64(0)),
	}
	if _, err := c.Eval(e); err == nil {
		t.Fatal("expected division-by-zero error")
	}
}

func TestEvalCyclicConstant(t *testing.T) {
	decls := fakeDecls{
		"a": &ast.Ident{Name: "b"},
		"b": &ast.Ident{Name: "a"},
	}
	c := NewContext(decls, "m")
	if _, err := c.Eval(&ast.Ident{Name: "a"}); err == nil {
		t.Fatal("expected a cyclic constant error")
	}
}

func TestEvalNamedConstantMemoised(t *testing.T) {
	decls := fakeDecls{
		"a": lit(value.NewIntFromInt64(7)),
	}
	c := NewContext(decls, "m")
	v1, err := c.Eval(&ast.Ident{Name: "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v2, err := c.Eval(&ast.Ident{Name: "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !value.Equal(v1, v2) {
		t.Fatal("memoised lookup should yield an equal value")
	}
}

func TestEvalSetOperators(t *testing.T) {
	c := NewContext(fakeDecls{}, "m")
	s1 := lit(value.NewSet([]value.Value{value.NewIntFromInt64(1), value.NewIntFromInt64(2)}))
	s2 := lit(value.NewSet([]value.Value{value.NewIntFromInt64(2), value.NewIntFromInt64(3)}))

	union, err := c.Eval(&ast.Binary{Op: ast.OpSetUnion, Left: s1, Right: s2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(union.Elems()) != 3 {
		t.Fatalf("expected union of size 3, got %d", len(union.Elems()))
	}

	inter, err := c.Eval(&ast.Binary{Op: ast.OpSetIntersect, Left: s1, Right: s2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inter.Elems()) != 1 {
		t.Fatalf("expected intersection of size 1, got %d", len(inter.Elems()))
	}
}

func TestEvalTupleDestructuringAccess(t *testing.T) {
	c := NewContext(fakeDecls{}, "m")
	tup := lit(value.NewTuple([]value.Value{value.NewIntFromInt64(1), value.NewIntFromInt64(2)}))
	v, err := c.Eval(&ast.TupleAccess{Base: tup, Index: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Int().Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("expected 2, got %v", v)
	}
}

func TestEvalIntRealPromotion(t *testing.T) {
	c := NewContext(fakeDecls{}, "m")
	e := &ast.Binary{Op: ast.OpAdd,
		Left:  lit(value.NewIntFromInt64(1)),
		Right: lit(value.NewRational(big.NewRat(1, 2))),
	}
	v, err := c.Eval(e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind() != value.Rational {
		t.Fatalf("expected a Rational result from int+real, got %v", v.Kind())
	}
}
