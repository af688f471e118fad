package types

// Union builds the canonical union of branches: nested unions among
// the inputs are inlined one level (every input is assumed already
// canonical, so one level suffices) and the result is minimised.
func Union(branches ...Type) (Type, error) {
	for _, b := range branches {
		if HasOpenLabel(b) {
			return Type{}, ErrOpenOnAlgebra
		}
	}
	return Minimise(unionRaw(branches...))
}

// Negate wraps t in a NEGATION node, applying the documented
// simplifications (¬Any = Void, ¬Void = Any, ¬¬t = t) before falling
// back to a plain wrap-and-minimise.
func Negate(t Type) (Type, error) {
	if HasOpenLabel(t) {
		return Type{}, ErrOpenOnAlgebra
	}
	switch t.Kind() {
	case Any:
		return TVoid, nil
	case Void:
		return TAny, nil
	case Negation:
		root := t.nodes[0]
		return ExtractSubgraph(t, root.Child), nil
	}
	return Minimise(negationRaw(t))
}

// Intersection applies De Morgan: A ∩ B = ¬(¬A ∪ ¬B).
func Intersection(branches ...Type) (Type, error) {
	negated := make([]Type, len(branches))
	for i, b := range branches {
		n, err := Negate(b)
		if err != nil {
			return Type{}, err
		}
		negated[i] = n
	}
	u, err := Union(negated...)
	if err != nil {
		return Type{}, err
	}
	return Negate(u)
}

// LUB is Union followed by minimisation (Union already minimises).
func LUB(a, b Type) (Type, error) { return Union(a, b) }

// GLB is Intersection followed by minimisation (Intersection already
// minimises via its two Negate/Union legs).
func GLB(a, b Type) (Type, error) { return Intersection(a, b) }

// LeastDifference computes t1 − t2: the smallest canonical upper
// bound of the values of t1 not in t2. It is sound but not complete —
// a union branch of t1 entirely covered by t2 is dropped, but a
// branch only partially overlapping t2 is kept whole rather than
// split, which may over-approximate. Used for flow typing after a
// successful IfType test.
func LeastDifference(t1, t2 Type) (Type, error) {
	if HasOpenLabel(t1) || HasOpenLabel(t2) {
		return Type{}, ErrOpenOnAlgebra
	}
	branches := unionBranchesRaw(t1)
	var kept []Type
	for _, br := range branches {
		covered, err := Subtype(t2, br)
		if err != nil {
			return Type{}, err
		}
		if covered {
			continue
		}
		kept = append(kept, br)
	}
	switch len(kept) {
	case 0:
		return TVoid, nil
	case 1:
		return kept[0], nil
	default:
		return Union(kept...)
	}
}
