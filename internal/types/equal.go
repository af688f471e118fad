package types

// Equal decides structural equality, defined node-wise in array
// order (invariant 4). Canonical form ensures this coincides with
// graph isomorphism, so callers normally compare two Minimise'd Types.
func Equal(a, b Type) bool {
	if a.IsLeaf() != b.IsLeaf() {
		return false
	}
	if a.IsLeaf() {
		return a.kind == b.kind
	}
	if len(a.nodes) != len(b.nodes) {
		return false
	}
	for i := range a.nodes {
		if !nodeEqual(a.nodes[i], b.nodes[i]) {
			return false
		}
	}
	return true
}

func nodeEqual(a, b Node) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Set, List, Reference, Negation, Process:
		return a.Child == b.Child
	case Dictionary:
		return a.Key == b.Key && a.Val == b.Val
	case UnionKind, IntersectionKind, Tuple:
		if len(a.Children) != len(b.Children) {
			return false
		}
		for i := range a.Children {
			if a.Children[i] != b.Children[i] {
				return false
			}
		}
		return true
	case Function, Method:
		if a.Receiver != b.Receiver || a.Return != b.Return || len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if a.Params[i] != b.Params[i] {
				return false
			}
		}
		return true
	case Record:
		an, bn := sortedFieldNames(a.Fields), sortedFieldNames(b.Fields)
		if len(an) != len(bn) || a.Open != b.Open {
			return false
		}
		for i := range an {
			if an[i] != bn[i] {
				return false
			}
			ac, _ := fieldIndex(a.Fields, an[i])
			bc, _ := fieldIndex(b.Fields, bn[i])
			if ac != bc {
				return false
			}
		}
		return true
	case Nominal:
		return a.Module == b.Module && a.Name == b.Name
	case Label:
		return a.Name == b.Name
	default:
		return true
	}
}
