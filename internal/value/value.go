// Package value implements the wire-form literal described by the
// external Value interface: the representation shared by constant
// folding results and IL Const operands.
package value

import (
	"math/big"
	"sort"

	"github.com/benbjohnson/immutable"
)

// Kind tags the variant a Value holds. Dispatch throughout this
// package and its consumers (consteval, il) is by Kind and an
// exhaustive switch, not a grown interface hierarchy.
type Kind int

const (
	Bool Kind = iota
	Byte
	Char
	Int
	Rational
	String
	List
	Set
	Tuple
	Dict
	Record
	FuncRef
	Null
)

// NameID identifies a declaration by its fully-qualified name, the
// same identity the Type Graph's NOMINAL nodes and the resolver's
// tables key on.
type NameID struct {
	Module string
	Name   string
}

// Value is an immutable constant. Exactly one field group is
// meaningful, selected by Kind; Go has no sum types, so the unused
// fields are simply zero.
type Value struct {
	kind Kind

	boolVal byte
	intVal  *big.Int
	ratVal  *big.Rat
	strVal  string

	elems []Value // List, Set, Tuple

	dict *immutable.SortedMap // Dict: Value -> Value, keyed by ordinal string

	fields *immutable.SortedMap // Record: field name -> Value, lexicographic

	fn     NameID
	fnType any // *types.Type, left untyped here to avoid an import cycle with internal/types
}

func (v Value) Kind() Kind { return v.kind }

func NewBool(b bool) Value {
	n := byte(0)
	if b {
		n = 1
	}
	return Value{kind: Bool, boolVal: n}
}

func (v Value) Bool() bool { return v.boolVal != 0 }

func NewByte(b byte) Value {
	return Value{kind: Byte, boolVal: b}
}

func (v Value) Byte() byte { return v.boolVal }

func NewChar(r rune) Value {
	return Value{kind: Char, intVal: big.NewInt(int64(r))}
}

func (v Value) Char() rune { return rune(v.intVal.Int64()) }

func NewInt(n *big.Int) Value {
	return Value{kind: Int, intVal: new(big.Int).Set(n)}
}

func NewIntFromInt64(n int64) Value {
	return Value{kind: Int, intVal: big.NewInt(n)}
}

func (v Value) Int() *big.Int { return v.intVal }

// NewRational builds an exact rational constant. Whiley's numeric
// tower has Int as a subtype of Real (spec §4.2); folding keeps
// rationals exact via math/big rather than approximating with float64.
func NewRational(r *big.Rat) Value {
	return Value{kind: Rational, ratVal: new(big.Rat).Set(r)}
}

func (v Value) Rational() *big.Rat { return v.ratVal }

func NewString(s string) Value {
	return Value{kind: String, strVal: s}
}

// Str returns the payload of a String-kind Value.
func (v Value) Str() string { return v.strVal }

func NewList(elems []Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: List, elems: cp}
}

// NewSet de-duplicates its input by structural equality, matching the
// set-construction semantics the constant evaluator folds `∪`/`∩`/`\` with.
func NewSet(elems []Value) Value {
	out := make([]Value, 0, len(elems))
	for _, e := range elems {
		dup := false
		for _, o := range out {
			if Equal(e, o) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return Value{kind: Set, elems: out}
}

func NewTuple(elems []Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: Tuple, elems: cp}
}

func (v Value) Elems() []Value { return v.elems }

func NewDict(keys, vals []Value) Value {
	b := immutable.NewSortedMapBuilder(dictComparer{})
	for i := range keys {
		b.Set(keys[i], vals[i])
	}
	return Value{kind: Dict, dict: b.Map()}
}

func (v Value) DictGet(key Value) (Value, bool) {
	out, ok := v.dict.Get(key)
	if !ok {
		return Value{}, false
	}
	return out.(Value), true
}

func (v Value) DictIter() *immutable.SortedMapIterator {
	return v.dict.Iterator()
}

// NewRecord builds a record value with fields stored in an
// immutable.SortedMap so iteration order is always lexicographic by
// field name, matching the Type Graph's record field invariant.
func NewRecord(fields map[string]Value) Value {
	b := immutable.NewSortedMapBuilder(stringComparer{})
	for name, val := range fields {
		b.Set(name, val)
	}
	return Value{kind: Record, fields: b.Map()}
}

func (v Value) FieldGet(name string) (Value, bool) {
	out, ok := v.fields.Get(name)
	if !ok {
		return Value{}, false
	}
	return out.(Value), true
}

func (v Value) FieldNames() []string {
	names := make([]string, 0, v.fields.Len())
	it := v.fields.Iterator()
	for !it.Done() {
		k, _ := it.Next()
		names = append(names, k.(string))
	}
	return names
}

// NewFuncRef defers resolution of a function reference's precise type
// to the Resolver, per spec §4.3 ("Function references become
// deferred values paired with their declared type").
func NewFuncRef(name NameID, declaredType any) Value {
	return Value{kind: FuncRef, fn: name, fnType: declaredType}
}

func (v Value) FuncRef() (NameID, any) { return v.fn, v.fnType }

var Nil = Value{kind: Null}

type stringComparer struct{}

func (stringComparer) Compare(a, b interface{}) int {
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

// dictComparer orders dictionary keys by their canonicalKey form; Whiley dictionaries are unordered, but a deterministic
// traversal order makes folding and testing reproducible.
type dictComparer struct{}

func (dictComparer) Compare(a, b interface{}) int {
	sa, sb := a.(Value).canonicalKey(), b.(Value).canonicalKey()
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	default:
		return 0
	}
}

func (v Value) canonicalKey() string {
	switch v.kind {
	case Bool:
		if v.Bool() {
			return "b:1"
		}
		return "b:0"
	case Byte:
		return "y:" + big.NewInt(int64(v.boolVal)).String()
	case Char:
		return "c:" + v.intVal.String()
	case Int:
		return "i:" + v.intVal.String()
	case Rational:
		return "r:" + v.ratVal.String()
	case String:
		return "s:" + v.strVal
	case List, Tuple, Set:
		s := "l:"
		for _, e := range v.elems {
			s += e.canonicalKey() + ","
		}
		return s
	case Record:
		s := "r:"
		for _, n := range v.FieldNames() {
			fv, _ := v.FieldGet(n)
			s += n + "=" + fv.canonicalKey() + ";"
		}
		return s
	case Null:
		return "n:"
	default:
		return "x:" + v.fn.Module + "." + v.fn.Name
	}
}

func less(a, b Value) bool { return a.canonicalKey() < b.canonicalKey() }

// Equal decides structural equality between two Values.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case Bool:
		return a.Bool() == b.Bool()
	case Byte:
		return a.Byte() == b.Byte()
	case Char:
		return a.intVal.Cmp(b.intVal) == 0
	case Int:
		return a.intVal.Cmp(b.intVal) == 0
	case Rational:
		return a.ratVal.Cmp(b.ratVal) == 0
	case String:
		return a.strVal == b.strVal
	case List, Tuple:
		if len(a.elems) != len(b.elems) {
			return false
		}
		for i := range a.elems {
			if !Equal(a.elems[i], b.elems[i]) {
				return false
			}
		}
		return true
	case Set:
		if len(a.elems) != len(b.elems) {
			return false
		}
		for i := range a.elems {
			if !Equal(a.elems[i], b.elems[i]) {
				return false
			}
		}
		return true
	case Record:
		an, bn := a.FieldNames(), b.FieldNames()
		if len(an) != len(bn) {
			return false
		}
		for i := range an {
			if an[i] != bn[i] {
				return false
			}
			av, _ := a.FieldGet(an[i])
			bv, _ := b.FieldGet(bn[i])
			if !Equal(av, bv) {
				return false
			}
		}
		return true
	case FuncRef:
		return a.fn == b.fn
	case Null:
		return true
	default:
		return false
	}
}
