package types

import "github.com/benbjohnson/immutable"

func arrayOf(t Type) []Node {
	if t.IsLeaf() {
		return []Node{{Kind: t.kind}}
	}
	return t.nodes
}

// matrix holds the N x N boolean subtype relation S[i][j] = "node i
// is a supertype of node j" over a fixed combined node array.
type matrix struct {
	nodes []Node
	n     int
	bits  []bool
}

func (m *matrix) get(i, j int) bool { return m.bits[i*m.n+j] }
func (m *matrix) set(i, j int, v bool) {
	m.bits[i*m.n+j] = v
}

// buildMatrix runs the all-pairs monotonic fixed point (spec §4.2
// "Subtype decision" steps 1-2): initialise every cell true, then
// repeatedly refine with localCheck until nothing changes.
func buildMatrix(nodes []Node) *matrix {
	n := len(nodes)
	m := &matrix{nodes: nodes, n: n, bits: make([]bool, n*n)}
	for i := range m.bits {
		m.bits[i] = true
	}
	for changed := true; changed; {
		changed = false
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				v := localCheck(i, j, m)
				if v != m.get(i, j) {
					m.set(i, j, v)
					changed = true
				}
			}
		}
	}
	return m
}

// localCheck decides "is node i a supertype of node j" from the
// kinds of the two nodes, consulting m for substructure via m.get —
// which, mid-fixed-point, may still be conservative (true) until the
// iteration converges.
func localCheck(i, j int, m *matrix) bool {
	ni, nj := m.nodes[i], m.nodes[j]

	if nj.Kind == Void {
		return true
	}
	if ni.Kind == Any {
		return true
	}
	if ni.Kind == Real && nj.Kind == Int {
		return true
	}
	if ni.Kind == Label || nj.Kind == Label {
		return false
	}

	// UnionKind subtyping (spec §4.2): handle nj being a union first so
	// the union-vs-union case is covered by a single rule, then fall
	// back to ni being a union when nj is not.
	if nj.Kind == UnionKind {
		for _, bj := range nj.Children {
			if !m.get(i, bj) {
				return false
			}
		}
		return true
	}
	if ni.Kind == UnionKind {
		for _, bi := range ni.Children {
			if m.get(bi, j) {
				return true
			}
		}
		return false
	}

	if ni.Kind != nj.Kind {
		return false
	}

	switch ni.Kind {
	case Void, Any, Null, Bool, Byte, Char, Int, Real, StringK:
		return true
	case Set, List, Reference, Process:
		return m.get(ni.Child, nj.Child)
	case Negation:
		return m.get(nj.Child, ni.Child)
	case Dictionary:
		return m.get(ni.Key, nj.Key) && m.get(nj.Key, ni.Key) && m.get(ni.Val, nj.Val)
	case Tuple, IntersectionKind:
		if len(ni.Children) != len(nj.Children) {
			return false
		}
		for k := range ni.Children {
			if !m.get(ni.Children[k], nj.Children[k]) {
				return false
			}
		}
		return true
	case Function, Method:
		if len(ni.Params) != len(nj.Params) {
			return false
		}
		if !m.get(ni.Return, nj.Return) {
			return false
		}
		for k := range ni.Params {
			// Parameters are contravariant.
			if !m.get(nj.Params[k], ni.Params[k]) {
				return false
			}
		}
		if ni.Kind == Method {
			if (ni.Receiver < 0) != (nj.Receiver < 0) {
				return false
			}
			if ni.Receiver >= 0 && !(m.get(ni.Receiver, nj.Receiver) && m.get(nj.Receiver, ni.Receiver)) {
				return false
			}
		}
		return true
	case Record:
		return recordSubtype(ni, nj, m)
	case Nominal:
		return ni.Module == nj.Module && ni.Name == nj.Name
	default:
		return false
	}
}

func fieldIndex(fields *immutable.SortedMap, name string) (int, bool) {
	v, ok := fields.Get(name)
	if !ok {
		return 0, false
	}
	return v.(int), true
}

// recordSubtype implements the record-width decision from §9: closed
// records require an exact field set; open records (the supertype
// side here, ni) permit the subtype to carry extra fields.
func recordSubtype(ni, nj Node, m *matrix) bool {
	inames := sortedFieldNames(ni.Fields)
	for _, name := range inames {
		ic, _ := fieldIndex(ni.Fields, name)
		jc, ok := fieldIndex(nj.Fields, name)
		if !ok {
			return false
		}
		if !m.get(ic, jc) {
			return false
		}
	}
	if !ni.Open && nj.Fields.Len() != len(inames) {
		return false
	}
	return true
}

// Subtype decides t1 :> t2 by concatenating the two node arrays and
// running the fixed point over the whole thing (spec §4.2).
func Subtype(t1, t2 Type) (bool, error) {
	if HasOpenLabel(t1) || HasOpenLabel(t2) {
		return false, ErrOpenOnAlgebra
	}
	a1 := arrayOf(t1)
	a2 := arrayOf(t2)
	n1 := len(a1)
	combined := make([]Node, 0, n1+len(a2))
	combined = append(combined, a1...)
	shift := func(i int) int { return i + n1 }
	for _, nd := range a2 {
		combined = append(combined, remapNodeFn(nd, shift))
	}
	m := buildMatrix(combined)
	return m.get(0, n1), nil
}
