package types

import "github.com/benbjohnson/immutable"

// RecordField pairs a field name with the index of its type within
// the owning Type's node array. Fields are kept in lexicographic
// order (invariant 3d); Name collisions cannot occur in a canonical
// record.
type RecordField struct {
	Name  string
	Child int
}

// Node is a tagged pair (kind, payload). Which payload fields are
// meaningful is selected by Kind; the zero value of the others is
// simply unused, the same trade-off the Value wire form makes.
type Node struct {
	Kind Kind

	Child int // Set, List, Reference, Negation, Process

	Key int // Dictionary
	Val int // Dictionary

	Children []int // Union, Intersection, Tuple

	Receiver int // Function, Method (-1 if none)
	Return   int // Function, Method (element 0 conceptually; stored separately here)
	Params   []int

	Fields *immutable.SortedMap // Record: name -> child index, lexicographic
	Open   bool                 // Record

	Module string // Nominal
	Name   string // Nominal, Label
}

// Type is a Type Graph value: either a leaf Kind with no Nodes, or a
// compound Kind with a non-empty flat Nodes array, Nodes[0] the root.
//
// Types are immutable and freely shared by value; every operation
// that produces a new Type returns a canonical one.
type Type struct {
	kind  Kind
	nodes []Node // nil for leaves
}

func leafType(k Kind) Type { return Type{kind: k} }

var (
	TVoid   = leafType(Void)
	TAny    = leafType(Any)
	TNull   = leafType(Null)
	TBool   = leafType(Bool)
	TByte   = leafType(Byte)
	TChar   = leafType(Char)
	TInt    = leafType(Int)
	TReal   = leafType(Real)
	TString = leafType(StringK)
)

// Kind reports the node-0 kind for compounds, or the leaf kind.
func (t Type) Kind() Kind {
	if t.IsLeaf() {
		return t.kind
	}
	return t.nodes[0].Kind
}

func (t Type) IsLeaf() bool { return t.nodes == nil }

// Nodes exposes the flat node array of a compound Type. Callers must
// not mutate the returned slice; Types are immutable.
func (t Type) Nodes() []Node { return t.nodes }

func (t Type) Len() int { return len(t.nodes) }

// nodeAt fetches node i, or a synthetic leaf node when t is itself a
// leaf and i == 0 — lets algebra code address "the type" uniformly by
// (array, index) without branching on leaf-vs-compound everywhere.
func (t Type) nodeAt(i int) Node {
	if t.IsLeaf() {
		return Node{Kind: t.kind}
	}
	return t.nodes[i]
}

func sortedFieldNames(fields *immutable.SortedMap) []string {
	names := make([]string, 0, fields.Len())
	it := fields.Iterator()
	for !it.Done() {
		k, _ := it.Next()
		names = append(names, k.(string))
	}
	return names
}

func fieldsComparer() immutable.Comparer { return fieldNameComparer{} }

type fieldNameComparer struct{}

func (fieldNameComparer) Compare(a, b interface{}) int {
	sa, sb := a.(string), b.(string)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	default:
		return 0
	}
}
