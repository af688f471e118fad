package ast

// UnresolvedType is the syntax-level type tree the Resolver's
// expandType walks. It mirrors the Type Graph's Kind shapes but
// refers to named types by string rather than by resolved Type.
type UnresolvedType interface {
	unresolvedTypeNode()
}

type PrimitiveType struct{ Name string } // "void","any","null","bool","byte","char","int","real","string"

type NamedType struct {
	Module string // "" means same module
	Name   string
}

type SetType struct{ Elem UnresolvedType }
type ListType struct{ Elem UnresolvedType }
type ReferenceType struct{ Elem UnresolvedType }
type ProcessType struct{ Elem UnresolvedType }
type NegationType struct{ Elem UnresolvedType }
type DictionaryType struct{ Key, Val UnresolvedType }
type UnionType struct{ Branches []UnresolvedType }
type IntersectionType struct{ Branches []UnresolvedType }
type TupleType struct{ Elems []UnresolvedType }

type RecordField struct {
	Name string
	Type UnresolvedType
}

type RecordType struct {
	Fields []RecordField
	Open   bool
}

type FunctionType struct {
	Params []UnresolvedType
	Return UnresolvedType
}

type MethodType struct {
	Receiver UnresolvedType
	Params   []UnresolvedType
	Return   UnresolvedType
}

func (*PrimitiveType) unresolvedTypeNode()    {}
func (*NamedType) unresolvedTypeNode()        {}
func (*SetType) unresolvedTypeNode()          {}
func (*ListType) unresolvedTypeNode()         {}
func (*ReferenceType) unresolvedTypeNode()    {}
func (*ProcessType) unresolvedTypeNode()      {}
func (*NegationType) unresolvedTypeNode()     {}
func (*DictionaryType) unresolvedTypeNode()   {}
func (*UnionType) unresolvedTypeNode()        {}
func (*IntersectionType) unresolvedTypeNode() {}
func (*TupleType) unresolvedTypeNode()        {}
func (*RecordType) unresolvedTypeNode()       {}
func (*FunctionType) unresolvedTypeNode()     {}
func (*MethodType) unresolvedTypeNode()       {}
