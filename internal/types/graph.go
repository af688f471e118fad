package types

import "sort"

import "github.com/benbjohnson/immutable"

// builder accumulates a fresh node array for one construction
// operation. Index 0 is reserved for the node under construction;
// every spliced child is appended after it.
type builder struct {
	nodes []Node
}

func newBuilder() *builder {
	return &builder{nodes: []Node{{}}}
}

// splice copies t's node array (or a single synthetic leaf node) into
// b, shifting every internal edge by the offset at which it lands,
// and returns the index of t's root in b's array.
func (b *builder) splice(t Type) int {
	offset := len(b.nodes)
	if t.IsLeaf() {
		b.nodes = append(b.nodes, Node{Kind: t.kind})
		return offset
	}
	shift := func(i int) int { return i + offset }
	for _, n := range t.nodes {
		b.nodes = append(b.nodes, remapNodeFn(n, shift))
	}
	return offset
}

// newCompound builds a compound Type whose root (index 0) is produced
// by fn after fn has spliced in whatever children it needs.
func newCompound(kind Kind, fn func(b *builder) Node) Type {
	b := newBuilder()
	root := fn(b)
	root.Kind = kind
	b.nodes[0] = root
	return Type{kind: kind, nodes: b.nodes}
}

// remapNodeFn rewrites every index payload of n through f. Leaf-kind
// nodes carry no indices and pass through unchanged.
func remapNodeFn(n Node, f func(int) int) Node {
	if n.Kind.IsLeaf() {
		return n
	}
	out := n
	switch n.Kind {
	case Set, List, Reference, Negation, Process:
		out.Child = f(n.Child)
	case Dictionary:
		out.Key = f(n.Key)
		out.Val = f(n.Val)
	case UnionKind, IntersectionKind, Tuple:
		cs := make([]int, len(n.Children))
		for i, c := range n.Children {
			cs[i] = f(c)
		}
		out.Children = cs
	case Function, Method:
		out.Return = f(n.Return)
		if n.Receiver >= 0 {
			out.Receiver = f(n.Receiver)
		} else {
			out.Receiver = -1
		}
		ps := make([]int, len(n.Params))
		for i, p := range n.Params {
			ps[i] = f(p)
		}
		out.Params = ps
	case Record:
		fb := immutable.NewSortedMapBuilder(fieldsComparer())
		it := n.Fields.Iterator()
		for !it.Done() {
			k, v := it.Next()
			fb.Set(k, f(v.(int)))
		}
		out.Fields = fb.Map()
	case Nominal, Label:
		// no index payload
	}
	return out
}

// childIndices lists every index a node refers to, used by DFS
// traversals (subgraph extraction, reachability pruning).
func childIndices(n Node) []int {
	if n.Kind.IsLeaf() {
		return nil
	}
	switch n.Kind {
	case Set, List, Reference, Negation, Process:
		return []int{n.Child}
	case Dictionary:
		return []int{n.Key, n.Val}
	case UnionKind, IntersectionKind, Tuple:
		return append([]int(nil), n.Children...)
	case Function, Method:
		cs := []int{n.Return}
		if n.Receiver >= 0 {
			cs = append(cs, n.Receiver)
		}
		return append(cs, n.Params...)
	case Record:
		cs := make([]int, 0, n.Fields.Len())
		it := n.Fields.Iterator()
		for !it.Done() {
			_, v := it.Next()
			cs = append(cs, v.(int))
		}
		return cs
	default: // Nominal, Label
		return nil
	}
}

func NewSetType(elem Type) Type {
	return newCompound(Set, func(b *builder) Node { return Node{Child: b.splice(elem)} })
}

func NewListType(elem Type) Type {
	return newCompound(List, func(b *builder) Node { return Node{Child: b.splice(elem)} })
}

func NewReference(elem Type) Type {
	return newCompound(Reference, func(b *builder) Node { return Node{Child: b.splice(elem)} })
}

func NewProcess(elem Type) Type {
	return newCompound(Process, func(b *builder) Node { return Node{Child: b.splice(elem)} })
}

// negationRaw wraps t in a NEGATION node without applying any of the
// simplification rules; Negate (in algebra.go) is the public entry
// point that applies them before calling this.
func negationRaw(t Type) Type {
	return newCompound(Negation, func(b *builder) Node { return Node{Child: b.splice(t)} })
}

// NewNegationType builds a raw NEGATION node with no simplification,
// for use by callers (the Resolver's unresolved-type expansion) that
// construct a type shape before it is necessarily closed; Negate (in
// algebra.go) is the entry point once a closed Type is available.
func NewNegationType(t Type) Type { return negationRaw(t) }

// NewUnionType builds a raw UNION node with one level of nested-union
// inlining but no minimisation, for the same pre-closed construction
// need as NewNegationType.
func NewUnionType(branches ...Type) Type { return unionRaw(branches...) }

// NewIntersectionType builds a raw INTERSECTION node, mirroring
// NewUnionType/NewNegationType for pre-closed construction.
func NewIntersectionType(branches ...Type) Type { return intersectionRaw(branches...) }

func NewDictionaryType(key, val Type) Type {
	return newCompound(Dictionary, func(b *builder) Node {
		k := b.splice(key)
		v := b.splice(val)
		return Node{Key: k, Val: v}
	})
}

func NewTupleType(elems ...Type) Type {
	return newCompound(Tuple, func(b *builder) Node {
		cs := make([]int, len(elems))
		for i, e := range elems {
			cs[i] = b.splice(e)
		}
		return Node{Children: cs}
	})
}

// unionBranchesRaw splices t's own top-level branches if t is itself
// a UnionKind, else splices t whole — used to flatten nested unions one
// level, which the canonical-form invariant guarantees is enough
// since every input is already canonical.
func unionBranchesRaw(t Type) []Type {
	if t.Kind() != UnionKind {
		return []Type{t}
	}
	root := t.nodes[0]
	out := make([]Type, len(root.Children))
	for i, c := range root.Children {
		out[i] = ExtractSubgraph(t, c)
	}
	return out
}

// unionRaw builds an unminimised UNION node over branches, inlining
// one level of nested unions first. Used by Union (which minimises
// the result) and by NewUnionType, which returns the raw shape.
func unionRaw(branches ...Type) Type {
	var flat []Type
	for _, br := range branches {
		flat = append(flat, unionBranchesRaw(br)...)
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return newCompound(UnionKind, func(b *builder) Node {
		cs := make([]int, len(flat))
		for i, f := range flat {
			cs[i] = b.splice(f)
		}
		return Node{Children: cs}
	})
}

func intersectionRaw(branches ...Type) Type {
	return newCompound(IntersectionKind, func(b *builder) Node {
		cs := make([]int, len(branches))
		for i, br := range branches {
			cs[i] = b.splice(br)
		}
		return Node{Children: cs}
	})
}

func newFuncType(kind Kind, receiver *Type, ret Type, params []Type) Type {
	return newCompound(kind, func(b *builder) Node {
		recv := -1
		if receiver != nil {
			recv = b.splice(*receiver)
		}
		r := b.splice(ret)
		ps := make([]int, len(params))
		for i, p := range params {
			ps[i] = b.splice(p)
		}
		return Node{Receiver: recv, Return: r, Params: ps}
	})
}

func NewFunction(ret Type, params ...Type) Type {
	return newFuncType(Function, nil, ret, params)
}

func NewMethod(receiver Type, ret Type, params ...Type) Type {
	return newFuncType(Method, &receiver, ret, params)
}

// NewRecord lays out fields in lexicographic order by name (invariant
// 3d). open permits subtypes to carry additional fields beyond those
// listed (spec §4.2, §9: the record-width decision).
func NewRecord(fields map[string]Type, open bool) Type {
	names := make([]string, 0, len(fields))
	for n := range fields {
		names = append(names, n)
	}
	sort.Strings(names)
	return newCompound(Record, func(b *builder) Node {
		fb := immutable.NewSortedMapBuilder(fieldsComparer())
		for _, n := range names {
			fb.Set(n, b.splice(fields[n]))
		}
		return Node{Fields: fb.Map(), Open: open}
	})
}

func NewNominal(module, name string) Type {
	return newCompound(Nominal, func(b *builder) Node { return Node{Module: module, Name: name} })
}

// NewLabel builds a placeholder node carrying name, used only during
// construction of recursive types; Close must remove every LABEL node
// before the result can be treated as a closed, algebra-eligible Type.
func NewLabel(name string) Type {
	return newCompound(Label, func(b *builder) Node { return Node{Name: name} })
}

// HasOpenLabel reports whether t still contains an unresolved LABEL
// node, i.e. it is not yet a closed Type.
func HasOpenLabel(t Type) bool {
	if t.IsLeaf() {
		return false
	}
	for _, n := range t.nodes {
		if n.Kind == Label {
			return true
		}
	}
	return false
}

// Close implements recursive closing (§4.1): every LABEL node bearing
// name collapses onto the root (index 0); every other node shifts
// down by the number of matched labels preceding it, and every
// surviving edge is rewritten through that remap.
func Close(t Type, name string) (Type, error) {
	if t.IsLeaf() {
		return Type{}, noSuchLabel(name)
	}
	n := len(t.nodes)
	matched := make([]bool, n)
	count := 0
	for i, nd := range t.nodes {
		if nd.Kind == Label && nd.Name == name {
			matched[i] = true
			count++
		}
	}
	if count == 0 {
		return Type{}, noSuchLabel(name)
	}
	remap := make([]int, n)
	shift := 0
	for i := 0; i < n; i++ {
		if matched[i] {
			remap[i] = 0
			shift++
		} else {
			remap[i] = i - shift
		}
	}
	f := func(i int) int { return remap[i] }
	out := make([]Node, 0, n-count)
	for i, nd := range t.nodes {
		if matched[i] {
			continue
		}
		out = append(out, remapNodeFn(nd, f))
	}
	return Type{kind: out[0].Kind, nodes: out}, nil
}

// ExtractSubgraph performs a DFS from rootIdx within t's array,
// copying only the reachable nodes into a fresh array in visit order
// and remapping every edge through the resulting injective index map.
// It is used whenever a public accessor must hand back a Type rooted
// elsewhere than index 0 (e.g. "the element type of this set").
func ExtractSubgraph(t Type, rootIdx int) Type {
	if t.IsLeaf() {
		return t
	}
	visited := make(map[int]int)
	var order []int
	var visit func(i int)
	visit = func(i int) {
		if _, ok := visited[i]; ok {
			return
		}
		visited[i] = len(order)
		order = append(order, i)
		for _, c := range childIndices(t.nodes[i]) {
			visit(c)
		}
	}
	visit(rootIdx)
	f := func(i int) int { return visited[i] }
	out := make([]Node, len(order))
	for newIdx, oldIdx := range order {
		out[newIdx] = remapNodeFn(t.nodes[oldIdx], f)
	}
	if len(out) == 1 && out[0].Kind.IsLeaf() {
		return leafType(out[0].Kind)
	}
	return Type{kind: out[0].Kind, nodes: out}
}
