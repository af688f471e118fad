// Package lower implements the Lowerer (spec §4.5): compiling
// statements and expressions into IL Blocks over a slot environment
// built with internal/slots, delegating every type-name and constant
// lookup to a shared resolver.Context. As with the Type Graph and the
// constraint-synthesis machinery it sits alongside, dispatch on AST
// shape is a plain Go type switch on a tagged node, not a visitor.
package lower

import (
	"fmt"

	"github.com/wyfront/corec/internal/ast"
	"github.com/wyfront/corec/internal/il"
	"github.com/wyfront/corec/internal/module"
	"github.com/wyfront/corec/internal/resolver"
	"github.com/wyfront/corec/internal/slots"
	"github.com/wyfront/corec/internal/source"
	"github.com/wyfront/corec/internal/types"
)

// Lowerer compiles one module's function and method bodies. A single
// Lowerer is reused across every declaration in the module; it holds
// no per-function state itself — that lives in fn.
type Lowerer struct {
	ctx *resolver.Context
}

func New(ctx *resolver.Context) *Lowerer {
	return &Lowerer{ctx: ctx}
}

// fn is the per-function-body lowering state: the slot builder, a
// label generator scoped to this one body, and the resolved return
// type ReturnStmt needs to tag its IL Return op with.
type fn struct {
	l        *Lowerer
	b        *slots.Builder
	gen      *il.LabelGen
	retType  types.Type
	tmpCount int
}

// tempName mints a synthetic local name for a slot that is never
// looked up by identifier — e.g. a materialised sub-expression — using
// a prefix no source identifier can spell.
func (f *fn) tempName() string {
	f.tmpCount++
	return fmt.Sprintf("$t%d", f.tmpCount)
}

// LowerFunc compiles a pure function into its module form: signature,
// requires/ensures contract blocks, and body.
func (l *Lowerer) LowerFunc(decl *ast.FuncDecl) (module.FunctionDecl, error) {
	sig, err := l.ctx.FuncSignature(decl)
	if err != nil {
		return module.FunctionDecl{}, err
	}
	retType, err := l.ctx.ResolveType(decl.Return)
	if err != nil {
		return module.FunctionDecl{}, err
	}

	names := make([]string, len(decl.Params))
	for i, p := range decl.Params {
		names[i] = p.Name
	}
	b, n := slots.NewFunction(names)
	f := &fn{l: l, b: b, gen: il.NewLabelGen(), retType: retType}

	body := il.NewBlock(n)
	if decl.Body != nil {
		if err := f.lowerBlock(body, decl.Body); err != nil {
			return module.FunctionDecl{}, err
		}
	}

	pre, err := l.lowerClauses(false, decl.Params, nil, decl.Pre, "requires")
	if err != nil {
		return module.FunctionDecl{}, err
	}
	post, err := l.lowerClauses(false, decl.Params, decl.Return, decl.Post, "ensures")
	if err != nil {
		return module.FunctionDecl{}, err
	}

	return module.FunctionDecl{Name: decl.Name, Signature: sig, Pre: pre, Post: post, Body: body}, nil
}

// LowerMethod compiles a method, binding its receiver (if any) to the
// name "this" at slot 0 ahead of the parameters.
func (l *Lowerer) LowerMethod(decl *ast.MethodDecl) (module.FunctionDecl, error) {
	sig, err := l.ctx.MethodSignature(decl)
	if err != nil {
		return module.FunctionDecl{}, err
	}
	retType, err := l.ctx.ResolveType(decl.Return)
	if err != nil {
		return module.FunctionDecl{}, err
	}

	hasReceiver := decl.Receiver != nil
	names := paramNames(hasReceiver, decl.Params)
	b, n := slots.NewFunction(names)
	f := &fn{l: l, b: b, gen: il.NewLabelGen(), retType: retType}

	body := il.NewBlock(n)
	if decl.Body != nil {
		if err := f.lowerBlock(body, decl.Body); err != nil {
			return module.FunctionDecl{}, err
		}
	}

	pre, err := l.lowerClauses(hasReceiver, decl.Params, nil, decl.Pre, "requires")
	if err != nil {
		return module.FunctionDecl{}, err
	}
	post, err := l.lowerClauses(hasReceiver, decl.Params, decl.Return, decl.Post, "ensures")
	if err != nil {
		return module.FunctionDecl{}, err
	}

	return module.FunctionDecl{Name: decl.Name, Signature: sig, Pre: pre, Post: post, Body: body}, nil
}

func paramNames(receiver bool, params []ast.Param) []string {
	names := make([]string, 0, len(params)+1)
	if receiver {
		names = append(names, "this")
	}
	for _, p := range params {
		names = append(names, p.Name)
	}
	return names
}

// lowerClauses compiles a requires/ensures list into independent
// contract Blocks, one per clause, each falling through to a Fail
// when the clause evaluates false (the same idiom synthesizeConstraint
// uses for a `where` predicate). A clause in an ensures list may refer
// to the implicit "result" name, bound to the slot after the last
// parameter (the receiver, if any, comes first); retType is nil for a
// requires list.
func (l *Lowerer) lowerClauses(receiver bool, params []ast.Param, retType ast.UnresolvedType, clauses []ast.Expr, kind string) ([]*il.Block, error) {
	if len(clauses) == 0 {
		return nil, nil
	}
	names := paramNames(receiver, params)
	if retType != nil {
		names = append(names, "result")
	}
	blocks := make([]*il.Block, 0, len(clauses))
	for i, clause := range clauses {
		b, n := slots.NewFunction(names)
		f := &fn{l: l, b: b, gen: il.NewLabelGen()}
		block := il.NewBlock(n)
		attr := source.Of(clause.Pos())
		ok := f.gen.Next()
		if err := f.lowerCondition(block, clause, ok); err != nil {
			return nil, err
		}
		block.FailAt(attr, fmt.Sprintf("%s clause %d not satisfied", kind, i+1))
		block.LabelAt(attr, ok)
		blocks = append(blocks, block)
	}
	return blocks, nil
}
