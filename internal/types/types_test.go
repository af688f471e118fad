package types

import "testing"

func TestLeafString(t *testing.T) {
	tests := []struct {
		typ      Type
		expected string
	}{
		{TInt, "int"},
		{TBool, "bool"},
		{TVoid, "void"},
		{TAny, "any"},
		{TNull, "null"},
	}
	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.typ.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSubtypeReflexiveAndTransitive(t *testing.T) {
	nat, err := Intersection(TInt) // exercise the De Morgan path on a trivial single-branch intersection
	if err != nil {
		t.Fatal(err)
	}
	a := NewListType(TInt)
	b := NewListType(nat)
	if ok, err := Subtype(a, a); err != nil || !ok {
		t.Fatalf("a :> a should hold, got %v, %v", ok, err)
	}
	if ok, err := Subtype(b, b); err != nil || !ok {
		t.Fatalf("b :> b should hold, got %v, %v", ok, err)
	}
	c := NewListType(TReal)
	v := NewListType(TVoid)
	if ok, err := Subtype(c, a); err != nil || !ok {
		t.Fatalf("c :> a should hold, got %v, %v", ok, err)
	}
	if ok, err := Subtype(a, v); err != nil || !ok {
		t.Fatalf("a :> v should hold, got %v, %v", ok, err)
	}
	if ok, err := Subtype(c, v); err != nil || !ok {
		t.Fatalf("c :> v should hold by transitivity, got %v, %v", ok, err)
	}
}

func TestSubtypeIntReal(t *testing.T) {
	ok, err := Subtype(TReal, TInt)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("real should be a supertype of int")
	}
	ok, err = Subtype(TInt, TReal)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("int should not be a supertype of real")
	}
}

func TestSubtypeVoidAny(t *testing.T) {
	if ok, _ := Subtype(TInt, TVoid); !ok {
		t.Fatal("everything is a supertype of void")
	}
	if ok, _ := Subtype(TAny, TInt); !ok {
		t.Fatal("any is a supertype of everything")
	}
}

func TestUnionAlgebra(t *testing.T) {
	u, err := Union(TInt, TNull)
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := Subtype(u, TInt); !ok {
		t.Fatal("int|null should be a supertype of int")
	}
	if ok, _ := Subtype(u, TNull); !ok {
		t.Fatal("int|null should be a supertype of null")
	}
	// Union with a duplicate branch collapses to the single survivor.
	same, err := Union(TInt, TInt)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(same, TInt) {
		t.Fatalf("Union(int,int) should collapse to int, got %s", same.String())
	}
}

func TestLUBGLB(t *testing.T) {
	a := NewListType(TInt)
	b := NewListType(TReal)
	lub, err := LUB(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := Subtype(lub, a); !ok {
		t.Fatal("LUB(a,b) should be a supertype of a")
	}
	if ok, _ := Subtype(lub, b); !ok {
		t.Fatal("LUB(a,b) should be a supertype of b")
	}
	glb, err := GLB(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := Subtype(a, glb); !ok {
		t.Fatal("GLB(a,b) should be a subtype of a")
	}
	if ok, _ := Subtype(b, glb); !ok {
		t.Fatal("GLB(a,b) should be a subtype of b")
	}
}

func TestMinimiseIdempotent(t *testing.T) {
	u, err := Union(TInt, TNull, TBool)
	if err != nil {
		t.Fatal(err)
	}
	once, err := Minimise(u)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := Minimise(once)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(once, twice) {
		t.Fatalf("minimise should be idempotent: %s vs %s", once.String(), twice.String())
	}
}

func TestRecursiveClosing(t *testing.T) {
	label := NewLabel("X")
	next := NewRecord(map[string]Type{"data": TInt, "next": label}, false)
	open := NewUnionType(TNull, next)
	if !HasOpenLabel(open) {
		t.Fatal("the union should still carry its LABEL node before closing")
	}
	closed, err := Close(open, "X")
	if err != nil {
		t.Fatal(err)
	}
	if HasOpenLabel(closed) {
		t.Fatal("closed type should carry no LABEL nodes")
	}
	// Extracting the "next" field's type should be structurally equal
	// to the whole type again (spec §8 property 4).
	root := closed.nodes[0]
	var recordChild int
	found := false
	for _, c := range root.Children {
		if closed.nodes[c].Kind == Record {
			recordChild = c
			found = true
		}
	}
	if !found {
		t.Fatal("expected a record branch in the closed union")
	}
	nextIdx, _ := fieldIndex(closed.nodes[recordChild].Fields, "next")
	extracted := ExtractSubgraph(closed, nextIdx)
	if !Equal(extracted, closed) {
		t.Fatalf("extracting next's type should equal the whole recursive type:\n%s\nvs\n%s", extracted, closed)
	}
}

func TestRecordWidthSubtyping(t *testing.T) {
	point2D := NewRecord(map[string]Type{"x": TInt, "y": TInt}, false)
	point3D := NewRecord(map[string]Type{"x": TInt, "y": TInt, "z": TInt}, false)
	if ok, _ := Subtype(point2D, point3D); ok {
		t.Fatal("closed record should not admit extra fields on the subtype side")
	}
	openPoint := NewRecord(map[string]Type{"x": TInt, "y": TInt}, true)
	if ok, err := Subtype(openPoint, point3D); err != nil || !ok {
		t.Fatalf("open record should admit extra fields on the subtype side, got %v, %v", ok, err)
	}
}

func TestLeastDifference(t *testing.T) {
	u, err := Union(TInt, TNull)
	if err != nil {
		t.Fatal(err)
	}
	diff, err := LeastDifference(u, TNull)
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(diff, TInt) {
		t.Fatalf("(int|null) - null should be int, got %s", diff.String())
	}
}
