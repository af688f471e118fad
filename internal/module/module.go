// Package module defines the IL output container and the loader
// interface the Resolver calls into for cross-module references
// (spec §6). A Loader's results are treated as already fully resolved.
package module

import (
	"github.com/wyfront/corec/internal/il"
	"github.com/wyfront/corec/internal/types"
	"github.com/wyfront/corec/internal/value"
)

// TypeDecl is one named type's resolved form, with its synthesised
// `where`-predicate constraint Block if it had one.
type TypeDecl struct {
	Name       string
	Type       types.Type
	Constraint *il.Block
}

type ConstDecl struct {
	Name  string
	Value value.Value
}

// FunctionDecl carries a FUNCTION or METHOD signature Type plus the
// lowered pre/post condition blocks and body.
type FunctionDecl struct {
	Name      string
	Signature types.Type
	Pre       []*il.Block
	Post      []*il.Block
	Body      *il.Block
}

// Module is the compiled form of one compilation unit: a module path
// plus its declarations, ready to be consulted by another module's
// Resolver through Loader.
type Module struct {
	Path   string
	Types  []TypeDecl
	Consts []ConstDecl
	Funcs  []FunctionDecl
}

func (m *Module) Type(name string) (types.Type, *il.Block, bool) {
	for _, t := range m.Types {
		if t.Name == name {
			return t.Type, t.Constraint, true
		}
	}
	return types.Type{}, nil, false
}

func (m *Module) Constant(name string) (value.Value, bool) {
	for _, c := range m.Consts {
		if c.Name == name {
			return c.Value, true
		}
	}
	return value.Value{}, false
}

func (m *Module) Function(name string) (FunctionDecl, bool) {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f, true
		}
	}
	return FunctionDecl{}, false
}

// Loader resolves a module path to its compiled form. Implementations
// are expected to cache process-wide and publish entries only once
// fully built (spec §5's resource discipline).
type Loader interface {
	LoadModule(path string) (*Module, error)
}
