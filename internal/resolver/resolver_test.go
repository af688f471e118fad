package resolver

import (
	"testing"

	"github.com/wyfront/corec/internal/ast"
	"github.com/wyfront/corec/internal/module"
	"github.com/wyfront/corec/internal/types"
	"github.com/wyfront/corec/internal/value"
)

type noLoader struct{}

func (noLoader) LoadModule(path string) (*module.Module, error) {
	return nil, errModuleNotFound(path)
}

type errModuleNotFound string

func (e errModuleNotFound) Error() string { return "no such module: " + string(e) }

func newCtx(decls ...ast.Decl) *Context {
	return NewContext("m", &ast.File{Module: "m", Decls: decls}, noLoader{})
}

func ident(name string) *ast.Ident { return &ast.Ident{Name: name} }

func intLit(n int64) *ast.Literal { return &ast.Literal{Val: value.NewIntFromInt64(n)} }

func TestExpandTypePrimitive(t *testing.T) {
	decl := &ast.TypeDecl{Name: "age", Type: &ast.PrimitiveType{Name: "int"}}
	ctx := newCtx(decl)
	typ, constraint, err := ctx.ExpandType("age")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if typ.Kind() != types.Int {
		t.Fatalf("expected INT, got %v", typ.Kind())
	}
	if constraint != nil {
		t.Fatalf("expected no constraint for an unconstrained alias")
	}
}

func TestExpandTypeNominalReference(t *testing.T) {
	inner := &ast.TypeDecl{Name: "age", Type: &ast.PrimitiveType{Name: "int"}}
	outer := &ast.TypeDecl{Name: "Person", Type: &ast.RecordType{Fields: []ast.RecordField{
		{Name: "age", Type: &ast.NamedType{Name: "age"}},
	}}}
	ctx := newCtx(inner, outer)
	typ, _, err := ctx.ExpandType("Person")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if typ.Kind() != types.Record {
		t.Fatalf("expected RECORD, got %v", typ.Kind())
	}
}

// TestExpandTypeRecursiveList checks that a self-referential type
// (through a union branch and a record field) closes into a recursive
// Type Graph rather than failing as an unguarded cycle, since the
// union and the record guard the reference.
func TestExpandTypeRecursiveList(t *testing.T) {
	decl := &ast.TypeDecl{
		Name: "LList",
		Type: &ast.UnionType{Branches: []ast.UnresolvedType{
			&ast.PrimitiveType{Name: "null"},
			&ast.RecordType{Fields: []ast.RecordField{
				{Name: "head", Type: &ast.PrimitiveType{Name: "int"}},
				{Name: "tail", Type: &ast.NamedType{Name: "LList"}},
			}},
		}},
	}
	ctx := newCtx(decl)
	typ, _, err := ctx.ExpandType("LList")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if typ.Kind() != types.UnionKind {
		t.Fatalf("expected UNION, got %v", typ.Kind())
	}
	if types.HasOpenLabel(typ) {
		t.Fatalf("expected the recursive reference to be closed, found an open label")
	}
}

// TestExpandTypeUnguardedCycleFails checks that a directly
// self-referential alias (no List/Set/Record/Tuple/UnionKind guard in
// between) is rejected as CyclicType.
func TestExpandTypeUnguardedCycleFails(t *testing.T) {
	decl := &ast.TypeDecl{Name: "Loop", Type: &ast.NamedType{Name: "Loop"}}
	ctx := newCtx(decl)
	if _, _, err := ctx.ExpandType("Loop"); err == nil {
		t.Fatalf("expected a CyclicType error, got nil")
	}
}

// TestExpandTypeWhereConstraint checks that a `where` predicate
// synthesises a constraint Block whose Verify passes.
func TestExpandTypeWhereConstraint(t *testing.T) {
	decl := &ast.TypeDecl{
		Name: "nat",
		Type: &ast.PrimitiveType{Name: "int"},
		Var:  "n",
		Where: &ast.Binary{
			Op: ast.OpGe, Left: ident("n"), Right: intLit(0),
		},
	}
	ctx := newCtx(decl)
	_, constraint, err := ctx.ExpandType("nat")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if constraint == nil {
		t.Fatalf("expected a synthesised constraint block")
	}
	if errs := constraint.Verify(); len(errs) > 0 {
		t.Fatalf("constraint block failed Verify: %v", errs)
	}
}

func TestResolveTypeUnion(t *testing.T) {
	a := &ast.TypeDecl{Name: "A", Type: &ast.RecordType{Fields: []ast.RecordField{
		{Name: "x", Type: &ast.PrimitiveType{Name: "int"}},
	}}}
	b := &ast.TypeDecl{Name: "B", Type: &ast.RecordType{Fields: []ast.RecordField{
		{Name: "y", Type: &ast.PrimitiveType{Name: "int"}},
	}}}
	ctx := newCtx(a, b)
	typ, err := ctx.ResolveType(&ast.UnionType{Branches: []ast.UnresolvedType{
		&ast.NamedType{Name: "A"},
		&ast.NamedType{Name: "B"},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if typ.Kind() != types.UnionKind {
		t.Fatalf("expected UNION, got %v", typ.Kind())
	}
}

func TestResolveConstantOwnModule(t *testing.T) {
	decl := &ast.ConstDecl{Name: "Limit", Value: intLit(100)}
	ctx := newCtx(decl)
	v, err := ctx.ResolveConstant("", "Limit", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Kind() != value.Int {
		t.Fatalf("expected an Int value, got %v", v.Kind())
	}
}
