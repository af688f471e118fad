package types

import (
	"strconv"
	"strings"
)

// String renders t in Whiley surface syntax (int|null, {int x,int y})
// — used in diagnostics and test failure output, not parsed back. A
// LABEL node prints as its bare name; an edge back to a node that is
// still being printed (a closed recursive type) prints as X followed
// by that node's index, with no marker on the node it refers to.
func (t Type) String() string {
	if t.IsLeaf() {
		return t.kind.leafName()
	}
	var sb strings.Builder
	writeNode(&sb, t.nodes, 0, map[int]bool{})
	return sb.String()
}

func (k Kind) leafName() string {
	switch k {
	case Void:
		return "void"
	case Any:
		return "any"
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Byte:
		return "byte"
	case Char:
		return "char"
	case Int:
		return "int"
	case Real:
		return "real"
	case StringK:
		return "string"
	default:
		return "?"
	}
}

func writeNode(sb *strings.Builder, nodes []Node, idx int, inUnion map[int]bool) {
	n := nodes[idx]
	if n.Kind.IsLeaf() {
		sb.WriteString(n.Kind.leafName())
		return
	}
	// inUnion holds the nodes on the current print path, so a
	// recursive type's back-edge stops here instead of looping.
	if inUnion[idx] {
		sb.WriteString("X" + strconv.Itoa(idx))
		return
	}
	inUnion[idx] = true
	defer delete(inUnion, idx)
	switch n.Kind {
	case Set:
		sb.WriteByte('{')
		writeNode(sb, nodes, n.Child, inUnion)
		sb.WriteByte('}')
	case List:
		sb.WriteByte('[')
		writeNode(sb, nodes, n.Child, inUnion)
		sb.WriteByte(']')
	case Reference:
		sb.WriteByte('&')
		writeNode(sb, nodes, n.Child, inUnion)
	case Process:
		sb.WriteByte('*')
		writeNode(sb, nodes, n.Child, inUnion)
	case Negation:
		sb.WriteByte('!')
		writeNode(sb, nodes, n.Child, inUnion)
	case Dictionary:
		sb.WriteByte('[')
		writeNode(sb, nodes, n.Key, inUnion)
		sb.WriteString("->")
		writeNode(sb, nodes, n.Val, inUnion)
		sb.WriteByte(']')
	case UnionKind:
		for i, c := range n.Children {
			if i > 0 {
				sb.WriteByte('|')
			}
			writeNode(sb, nodes, c, inUnion)
		}
	case IntersectionKind:
		for i, c := range n.Children {
			if i > 0 {
				sb.WriteByte('&')
			}
			writeNode(sb, nodes, c, inUnion)
		}
	case Tuple:
		sb.WriteByte('(')
		for i, c := range n.Children {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeNode(sb, nodes, c, inUnion)
		}
		sb.WriteByte(')')
	case Record:
		sb.WriteByte('{')
		names := sortedFieldNames(n.Fields)
		for i, name := range names {
			if i > 0 {
				sb.WriteByte(',')
			}
			c, _ := fieldIndex(n.Fields, name)
			writeNode(sb, nodes, c, inUnion)
			sb.WriteByte(' ')
			sb.WriteString(name)
		}
		if n.Open {
			sb.WriteString(",...")
		}
		sb.WriteByte('}')
	case Function, Method:
		sb.WriteString("function(")
		for i, p := range n.Params {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeNode(sb, nodes, p, inUnion)
		}
		sb.WriteString(")->")
		writeNode(sb, nodes, n.Return, inUnion)
	case Nominal:
		if n.Module != "" {
			sb.WriteString(n.Module)
			sb.WriteByte('.')
		}
		sb.WriteString(n.Name)
	case Label:
		sb.WriteString(n.Name)
	default:
		sb.WriteString("?")
	}
}
