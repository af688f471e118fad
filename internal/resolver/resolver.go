// Package resolver implements expandType (spec §4.4): the
// cycle-tolerant walk from an UnresolvedType tree to a closed
// types.Type, constraint-block synthesis for `where` predicates, and
// the cross-module delegation to a module.Loader. One Context serves
// one compilation unit; there is no package-level state (spec §5,
// §9's "shared resolver state" design note).
package resolver

import (
	"fmt"

	"github.com/wyfront/corec/internal/ast"
	"github.com/wyfront/corec/internal/consteval"
	"github.com/wyfront/corec/internal/diag"
	"github.com/wyfront/corec/internal/il"
	"github.com/wyfront/corec/internal/module"
	"github.com/wyfront/corec/internal/source"
	"github.com/wyfront/corec/internal/types"
	"github.com/wyfront/corec/internal/value"
)

// THISSlot is the fixed slot a synthesised constraint Block reads its
// subject value from (spec §4.4 step 6).
const THISSlot = 0

type typeEntry struct {
	Typ        types.Type
	Constraint *il.Block
}

// Context is the per-compilation-unit Resolver state from spec §3.3:
// the module's declaration tables, the resolved type and constant
// caches, and the pending set used for cycle detection, threaded
// explicitly rather than held in globals.
type Context struct {
	module string
	loader module.Loader

	typeDecls  map[string]*ast.TypeDecl
	constDecls map[string]*ast.ConstDecl
	funcDecls  map[string]*ast.FuncDecl
	methDecls  map[string]*ast.MethodDecl

	typeCache  map[string]typeEntry
	constCache map[string]value.Value
	pending    map[string]bool
}

// NewContext builds a Context over one module's declarations. file is
// the ast.File produced for that module (stood in for a parser here).
func NewContext(modulePath string, file *ast.File, loader module.Loader) *Context {
	c := &Context{
		module:     modulePath,
		loader:     loader,
		typeDecls:  map[string]*ast.TypeDecl{},
		constDecls: map[string]*ast.ConstDecl{},
		funcDecls:  map[string]*ast.FuncDecl{},
		methDecls:  map[string]*ast.MethodDecl{},
		typeCache:  map[string]typeEntry{},
		constCache: map[string]value.Value{},
		pending:    map[string]bool{},
	}
	for _, d := range file.Decls {
		switch decl := d.(type) {
		case *ast.TypeDecl:
			c.typeDecls[decl.Name] = decl
		case *ast.ConstDecl:
			c.constDecls[decl.Name] = decl
		case *ast.FuncDecl:
			c.funcDecls[decl.Name] = decl
		case *ast.MethodDecl:
			c.methDecls[decl.Name] = decl
		}
	}
	return c
}

// LookupConst implements consteval.Decls for the Context's own module.
func (c *Context) LookupConst(module, name string) (ast.Expr, bool) {
	if module != c.module {
		return nil, false
	}
	decl, ok := c.constDecls[name]
	if !ok {
		return nil, false
	}
	return decl.Value, true
}

// ResolveConstant evaluates a named constant, possibly in another
// module, memoising the result (spec §4.3's "safe to share").
func (c *Context) ResolveConstant(targetModule, name string, at ast.Expr) (value.Value, error) {
	if targetModule == "" {
		targetModule = c.module
	}
	if targetModule != c.module {
		mod, err := c.loader.LoadModule(targetModule)
		if err != nil {
			return value.Value{}, diag.Wrap(err, diag.ResolveError, at.Pos(),
				fmt.Sprintf("loading module %q", targetModule))
		}
		v, ok := mod.Constant(name)
		if !ok {
			return value.Value{}, diag.New(diag.ResolveError, at.Pos(),
				"no such constant %s.%s", targetModule, name)
		}
		return v, nil
	}
	if v, ok := c.constCache[name]; ok {
		return v, nil
	}
	ce := consteval.NewContext(c, c.module)
	v, err := ce.Eval(&ast.Ident{Name: name})
	if err != nil {
		return value.Value{}, err
	}
	c.constCache[name] = v
	return v, nil
}

// Fold reduces an arbitrary constant-foldable expression to a Value —
// the general-purpose counterpart to ResolveConstant for expressions
// that are not themselves a bare named constant, e.g. a switch case
// value that names a constant or combines literals with an operator
// (spec §4.5: "constant-folded via the Constant Evaluator").
func (c *Context) Fold(e ast.Expr) (value.Value, error) {
	return consteval.NewContext(c, c.module).Eval(e)
}

// ExpandType performs the full six-step walk described in spec §4.4.
func (c *Context) ExpandType(name string) (types.Type, *il.Block, error) {
	if c.pending[name] {
		return types.NewLabel(name), nil, nil
	}
	if entry, ok := c.typeCache[name]; ok {
		return entry.Typ, entry.Constraint, nil
	}
	decl, ok := c.typeDecls[name]
	if !ok {
		if _, ok := c.constDecls[name]; ok {
			return types.Type{}, nil, diag.New(diag.InvalidConstantAsType, source.Position{}, "%s is a constant, not a type", name)
		}
		if _, ok := c.funcDecls[name]; ok {
			return types.Type{}, nil, diag.New(diag.InvalidFunctionAsType, source.Position{}, "%s is a function, not a type", name)
		}
		if _, ok := c.methDecls[name]; ok {
			return types.Type{}, nil, diag.New(diag.InvalidFunctionAsType, source.Position{}, "%s is a method, not a type", name)
		}
		return types.Type{}, nil, diag.New(diag.ResolveError, source.Position{}, "no such type %s.%s", c.module, name)
	}

	c.pending[name] = true
	expanded, err := c.expandUnresolved(decl.Type, name, false)
	delete(c.pending, name)
	if err != nil {
		return types.Type{}, nil, err
	}

	if types.HasOpenLabel(expanded) {
		closed, cerr := types.Close(expanded, name)
		if cerr != nil {
			return types.Type{}, nil, diag.Wrap(cerr, diag.CyclicType, decl.Pos(),
				fmt.Sprintf("closing recursive type %s", name))
		}
		expanded = closed
	}

	var constraint *il.Block
	if decl.Where != nil {
		constraint, err = c.synthesizeConstraint(decl, expanded)
		if err != nil {
			return types.Type{}, nil, err
		}
	}

	c.typeCache[name] = typeEntry{Typ: expanded, Constraint: constraint}
	return expanded, constraint, nil
}

// ModulePath returns the module path this Context resolves names
// against, for Lowerer components that need to qualify a direct call.
func (c *Context) ModulePath() string { return c.module }

// LookupFunc and LookupMethod expose the declaration tables built by
// NewContext, letting the Lowerer distinguish a direct-call target
// from a local variable or an unresolved name.
func (c *Context) LookupFunc(name string) (*ast.FuncDecl, bool) {
	d, ok := c.funcDecls[name]
	return d, ok
}

func (c *Context) LookupMethod(name string) (*ast.MethodDecl, bool) {
	d, ok := c.methDecls[name]
	return d, ok
}

// FuncSignature expands a FuncDecl's parameter and return types into a
// FUNCTION Type, memoising nothing beyond what ResolveType itself does.
func (c *Context) FuncSignature(decl *ast.FuncDecl) (types.Type, error) {
	params := make([]types.Type, len(decl.Params))
	for i, p := range decl.Params {
		t, err := c.ResolveType(p.Type)
		if err != nil {
			return types.Type{}, err
		}
		params[i] = t
	}
	ret, err := c.ResolveType(decl.Return)
	if err != nil {
		return types.Type{}, err
	}
	return types.NewFunction(ret, params...), nil
}

// MethodSignature expands a MethodDecl's receiver/parameter/return
// types into a METHOD Type, or a FUNCTION Type for a receiver-less
// method declared free-standing within an actor's module.
func (c *Context) MethodSignature(decl *ast.MethodDecl) (types.Type, error) {
	params := make([]types.Type, len(decl.Params))
	for i, p := range decl.Params {
		t, err := c.ResolveType(p.Type)
		if err != nil {
			return types.Type{}, err
		}
		params[i] = t
	}
	ret, err := c.ResolveType(decl.Return)
	if err != nil {
		return types.Type{}, err
	}
	if decl.Receiver == nil {
		return types.NewFunction(ret, params...), nil
	}
	recv, err := c.ResolveType(decl.Receiver)
	if err != nil {
		return types.Type{}, err
	}
	return types.NewMethod(recv, ret, params...), nil
}

// ResolveType expands a standalone UnresolvedType outside of any
// TypeDecl — a parameter, return, local variable or catch-clause
// annotation — into a closed types.Type. There is no self-reference to
// guard against here, so every constructor is treated as guarded.
func (c *Context) ResolveType(u ast.UnresolvedType) (types.Type, error) {
	return c.expandUnresolved(u, "", true)
}

// expandUnresolved structurally walks u. guarded is true once the walk
// has passed through at least one of REFERENCE/LIST/SET/DICTIONARY/
// RECORD/TUPLE/UNION since the top of the current ExpandType call,
// i.e. a self-reference encountered here is a legal recursive
// occurrence rather than an unguarded cycle (spec §4.4's CyclicType
// failure mode).
func (c *Context) expandUnresolved(u ast.UnresolvedType, selfName string, guarded bool) (types.Type, error) {
	switch t := u.(type) {
	case *ast.PrimitiveType:
		return primitiveType(t.Name)
	case *ast.NamedType:
		return c.expandNamed(t, selfName, guarded)
	case *ast.SetType:
		child, err := c.expandUnresolved(t.Elem, selfName, true)
		if err != nil {
			return types.Type{}, err
		}
		return types.NewSetType(child), nil
	case *ast.ListType:
		child, err := c.expandUnresolved(t.Elem, selfName, true)
		if err != nil {
			return types.Type{}, err
		}
		return types.NewListType(child), nil
	case *ast.ReferenceType:
		child, err := c.expandUnresolved(t.Elem, selfName, true)
		if err != nil {
			return types.Type{}, err
		}
		return types.NewReference(child), nil
	case *ast.ProcessType:
		child, err := c.expandUnresolved(t.Elem, selfName, true)
		if err != nil {
			return types.Type{}, err
		}
		return types.NewProcess(child), nil
	case *ast.NegationType:
		child, err := c.expandUnresolved(t.Elem, selfName, guarded)
		if err != nil {
			return types.Type{}, err
		}
		return types.NewNegationType(child), nil
	case *ast.DictionaryType:
		k, err := c.expandUnresolved(t.Key, selfName, true)
		if err != nil {
			return types.Type{}, err
		}
		v, err := c.expandUnresolved(t.Val, selfName, true)
		if err != nil {
			return types.Type{}, err
		}
		return types.NewDictionaryType(k, v), nil
	case *ast.UnionType:
		branches, err := c.expandAll(t.Branches, selfName, true)
		if err != nil {
			return types.Type{}, err
		}
		return types.NewUnionType(branches...), nil
	case *ast.IntersectionType:
		branches, err := c.expandAll(t.Branches, selfName, true)
		if err != nil {
			return types.Type{}, err
		}
		return types.NewIntersectionType(branches...), nil
	case *ast.TupleType:
		elems, err := c.expandAll(t.Elems, selfName, true)
		if err != nil {
			return types.Type{}, err
		}
		return types.NewTupleType(elems...), nil
	case *ast.RecordType:
		fields := make(map[string]types.Type, len(t.Fields))
		for _, f := range t.Fields {
			ft, err := c.expandUnresolved(f.Type, selfName, true)
			if err != nil {
				return types.Type{}, err
			}
			fields[f.Name] = ft
		}
		return types.NewRecord(fields, t.Open), nil
	case *ast.FunctionType:
		params, err := c.expandAll(t.Params, selfName, guarded)
		if err != nil {
			return types.Type{}, err
		}
		ret, err := c.expandUnresolved(t.Return, selfName, guarded)
		if err != nil {
			return types.Type{}, err
		}
		return types.NewFunction(ret, params...), nil
	case *ast.MethodType:
		params, err := c.expandAll(t.Params, selfName, guarded)
		if err != nil {
			return types.Type{}, err
		}
		ret, err := c.expandUnresolved(t.Return, selfName, guarded)
		if err != nil {
			return types.Type{}, err
		}
		recv, err := c.expandUnresolved(t.Receiver, selfName, guarded)
		if err != nil {
			return types.Type{}, err
		}
		return types.NewMethod(recv, ret, params...), nil
	default:
		return types.Type{}, diag.New(diag.InternalFailure, source.Position{}, "unhandled UnresolvedType %T", u)
	}
}

func (c *Context) expandAll(ts []ast.UnresolvedType, selfName string, guarded bool) ([]types.Type, error) {
	out := make([]types.Type, len(ts))
	for i, t := range ts {
		v, err := c.expandUnresolved(t, selfName, guarded)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c *Context) expandNamed(t *ast.NamedType, selfName string, guarded bool) (types.Type, error) {
	mod := t.Module
	if mod == "" {
		mod = c.module
	}
	if mod == c.module && t.Name == selfName {
		if !guarded {
			return types.Type{}, diag.New(diag.CyclicType, source.Position{},
				"unguarded recursive reference to %s", t.Name)
		}
		return types.NewLabel(t.Name), nil
	}
	if mod == c.module && c.pending[t.Name] {
		if !guarded {
			return types.Type{}, diag.New(diag.CyclicType, source.Position{},
				"unguarded mutually recursive reference to %s", t.Name)
		}
		return types.NewLabel(t.Name), nil
	}
	if mod == c.module {
		// Ensure the referenced declaration is itself resolved (and its
		// constraint, if any, cached) before substituting a Nominal node
		// for it: named types are genuinely nominal here, not transparent
		// aliases, so a reference to another declared type keeps its name
		// in the graph rather than inlining the target's structure. The
		// underlying structural Type and constraint Block stay reachable
		// through typeCache for callers (constraint composition, lowering)
		// that need to look through the name.
		if _, _, err := c.ExpandType(t.Name); err != nil {
			return types.Type{}, err
		}
		return types.NewNominal(mod, t.Name), nil
	}
	loaded, err := c.loader.LoadModule(mod)
	if err != nil {
		return types.Type{}, diag.Wrap(err, diag.ResolveError, source.Position{},
			fmt.Sprintf("loading module %q", mod))
	}
	if _, _, ok := loaded.Type(t.Name); !ok {
		return types.Type{}, diag.New(diag.ResolveError, source.Position{}, "no such type %s.%s", mod, t.Name)
	}
	return types.NewNominal(mod, t.Name), nil
}

func primitiveType(name string) (types.Type, error) {
	switch name {
	case "void":
		return types.TVoid, nil
	case "any":
		return types.TAny, nil
	case "null":
		return types.TNull, nil
	case "bool":
		return types.TBool, nil
	case "byte":
		return types.TByte, nil
	case "char":
		return types.TChar, nil
	case "int":
		return types.TInt, nil
	case "real":
		return types.TReal, nil
	case "string":
		return types.TString, nil
	default:
		return types.Type{}, diag.New(diag.ResolveError, source.Position{}, "unknown primitive type %q", name)
	}
}
