package types

import "github.com/benbjohnson/immutable"

// Minimise collapses a Type's node array into equivalence classes
// under mutual subtyping (spec §4.2 "Minimisation"). A DFS from node
// 0 emits each class exactly once; unions additionally drop branches
// subsumed by another branch, collapsing to their sole survivor when
// only one remains.
func Minimise(t Type) (Type, error) {
	if t.IsLeaf() {
		return t, nil
	}
	if HasOpenLabel(t) {
		return Type{}, ErrOpenOnAlgebra
	}
	nodes := t.nodes
	n := len(nodes)
	m := buildMatrix(nodes)

	allocated := make([]int, n) // 0 = unallocated, else newIndex+1
	var out []Node

	classOf := func(idx int) []int {
		var class []int
		for k := 0; k < n; k++ {
			if m.get(k, idx) && m.get(idx, k) {
				class = append(class, k)
			}
		}
		return class
	}

	var rebuild func(idx int) int
	rebuild = func(idx int) int {
		if allocated[idx] != 0 {
			return allocated[idx] - 1
		}
		newIdx := len(out)
		out = append(out, Node{})
		for _, k := range classOf(idx) {
			allocated[k] = newIdx + 1
		}

		nd := nodes[idx]
		switch nd.Kind {
		case UnionKind:
			survivors := pruneUnionBranches(nd.Children, m)
			if len(survivors) == 1 {
				out = out[:newIdx]
				for _, k := range classOf(idx) {
					allocated[k] = 0
				}
				r := rebuild(survivors[0])
				for _, k := range classOf(idx) {
					allocated[k] = r + 1
				}
				return r
			}
			cs := make([]int, len(survivors))
			for a, e := range survivors {
				cs[a] = rebuild(e)
			}
			out[newIdx] = Node{Kind: UnionKind, Children: cs}
		case Set, List, Reference, Process, Negation:
			out[newIdx] = Node{Kind: nd.Kind, Child: rebuild(nd.Child)}
		case Dictionary:
			out[newIdx] = Node{Kind: Dictionary, Key: rebuild(nd.Key), Val: rebuild(nd.Val)}
		case Tuple, IntersectionKind:
			cs := make([]int, len(nd.Children))
			for a, c := range nd.Children {
				cs[a] = rebuild(c)
			}
			out[newIdx] = Node{Kind: nd.Kind, Children: cs}
		case Function, Method:
			recv := -1
			if nd.Receiver >= 0 {
				recv = rebuild(nd.Receiver)
			}
			ret := rebuild(nd.Return)
			ps := make([]int, len(nd.Params))
			for a, p := range nd.Params {
				ps[a] = rebuild(p)
			}
			out[newIdx] = Node{Kind: nd.Kind, Receiver: recv, Return: ret, Params: ps}
		case Record:
			names := sortedFieldNames(nd.Fields)
			fb := immutable.NewSortedMapBuilder(fieldsComparer())
			for _, name := range names {
				c, _ := fieldIndex(nd.Fields, name)
				fb.Set(name, rebuild(c))
			}
			out[newIdx] = Node{Kind: Record, Fields: fb.Map(), Open: nd.Open}
		case Nominal:
			out[newIdx] = Node{Kind: Nominal, Module: nd.Module, Name: nd.Name}
		default:
			out[newIdx] = Node{Kind: nd.Kind}
		}
		return newIdx
	}

	rebuild(0)
	if len(out) == 1 && out[0].Kind.IsLeaf() {
		return leafType(out[0].Kind), nil
	}
	return Type{kind: out[0].Kind, nodes: out}, nil
}

// pruneUnionBranches drops any branch subsumed by another (b' :> b),
// tie-breaking mutually-equivalent branches by original index so the
// result is deterministic.
func pruneUnionBranches(children []int, m *matrix) []int {
	survive := make([]bool, len(children))
	for i := range survive {
		survive[i] = true
	}
	for a := range children {
		if !survive[a] {
			continue
		}
		for b := range children {
			if a == b || !survive[b] {
				continue
			}
			if !m.get(children[a], children[b]) {
				continue
			}
			if m.get(children[b], children[a]) {
				if children[a] < children[b] {
					survive[b] = false
				} else {
					survive[a] = false
				}
			} else {
				survive[b] = false
			}
		}
	}
	var kept []int
	for i, s := range survive {
		if s {
			kept = append(kept, children[i])
		}
	}
	return kept
}
