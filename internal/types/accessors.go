package types

// Elem returns the element Type of a SET, LIST, REFERENCE or PROCESS
// Type, rooted fresh via subgraph extraction.
func Elem(t Type) Type {
	return ExtractSubgraph(t, t.nodes[0].Child)
}

// Key and Val return a DICTIONARY Type's key and value Types.
func Key(t Type) Type { return ExtractSubgraph(t, t.nodes[0].Key) }
func Val(t Type) Type { return ExtractSubgraph(t, t.nodes[0].Val) }

// Elems returns the branch/element Types of a UNION, INTERSECTION or
// TUPLE Type in array order.
func Elems(t Type) []Type {
	cs := t.nodes[0].Children
	out := make([]Type, len(cs))
	for i, c := range cs {
		out[i] = ExtractSubgraph(t, c)
	}
	return out
}

// FieldNames returns a RECORD Type's field names in the lexicographic
// order the graph already stores them in.
func FieldNames(t Type) []string {
	return sortedFieldNames(t.nodes[0].Fields)
}

// Field returns the Type of a RECORD field by name.
func Field(t Type, name string) (Type, bool) {
	idx, ok := fieldIndex(t.nodes[0].Fields, name)
	if !ok {
		return Type{}, false
	}
	return ExtractSubgraph(t, idx), true
}

// IsOpenRecord reports whether a RECORD Type carries the "open" flag
// (invariant 3d: permits extra fields on the subtype side).
func IsOpenRecord(t Type) bool { return t.nodes[0].Open }

// NominalRef reports the (module, name) a NOMINAL Type points at.
func NominalRef(t Type) (module, name string, ok bool) {
	if t.IsLeaf() || t.nodes[0].Kind != Nominal {
		return "", "", false
	}
	return t.nodes[0].Module, t.nodes[0].Name, true
}

// Return, Params and Receiver expose a FUNCTION/METHOD Type's parts.
// Receiver's ok is false for a FUNCTION or a receiver-less METHOD.
func Return(t Type) Type { return ExtractSubgraph(t, t.nodes[0].Return) }

func Params(t Type) []Type {
	ps := t.nodes[0].Params
	out := make([]Type, len(ps))
	for i, p := range ps {
		out[i] = ExtractSubgraph(t, p)
	}
	return out
}

func Receiver(t Type) (Type, bool) {
	r := t.nodes[0].Receiver
	if r < 0 {
		return Type{}, false
	}
	return ExtractSubgraph(t, r), true
}
