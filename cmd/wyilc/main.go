// Package main drives the compiler pipeline this repository actually
// owns: Resolver, Lowerer, and IL verification, over a hand-built
// demo module (internal/ast stands in for a parser's output). It
// mirrors the teacher's cmd/compiler staged-pipeline driver — a
// "✓ ... successful" marker per stage, os.Exit(1) on the first
// failing one — adapted to this module's own stages in place of
// lex/parse/semantic-analysis/IR-build.
package main

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"

	"github.com/wyfront/corec/internal/ast"
	"github.com/wyfront/corec/internal/il"
	"github.com/wyfront/corec/internal/lower"
	"github.com/wyfront/corec/internal/module"
	"github.com/wyfront/corec/internal/resolver"
)

// noLoader rejects any cross-module reference; the demo module never
// makes one, so LoadModule is never actually called.
type noLoader struct{}

func (noLoader) LoadModule(path string) (*module.Module, error) {
	return nil, fmt.Errorf("no cross-module loader configured: %q", path)
}

func main() {
	file := buildDemoFile()
	ctx := resolver.NewContext(file.Module, file, noLoader{})
	low := lower.New(ctx)

	mod := &module.Module{Path: file.Module}

	for _, d := range file.Decls {
		switch decl := d.(type) {
		case *ast.TypeDecl:
			if err := addType(mod, ctx, decl); err != nil {
				fail("resolving type %s", decl.Name, err)
			}
		case *ast.ConstDecl:
			if err := addConst(mod, ctx, decl); err != nil {
				fail("resolving constant %s", decl.Name, err)
			}
		case *ast.FuncDecl:
			if err := addFunc(mod, low, decl); err != nil {
				fail("lowering function %s", decl.Name, err)
			}
		case *ast.MethodDecl:
			if err := addMethod(mod, low, decl); err != nil {
				fail("lowering method %s", decl.Name, err)
			}
		}
	}
	fmt.Printf("✓ resolution successful (%d types, %d constants)\n", len(mod.Types), len(mod.Consts))
	fmt.Printf("✓ lowering successful (%d functions)\n", len(mod.Funcs))

	if errs := verifyModule(mod); len(errs) > 0 {
		fmt.Fprintf(os.Stderr, "\nIL verification errors:\n")
		for _, err := range errs {
			fmt.Fprintf(os.Stderr, "  %v\n", err)
		}
		os.Exit(1)
	}
	fmt.Printf("✓ IL verification successful\n")

	fmt.Printf("\n=== Compilation Summary ===\n")
	fmt.Printf("Module: %s\n", mod.Path)
	for _, t := range mod.Types {
		fmt.Printf("  type %s: %s\n", t.Name, t.Type)
	}
	for _, c := range mod.Consts {
		fmt.Printf("  const %s = %s\n", c.Name, spew.Sdump(c.Value))
	}
	for _, fn := range mod.Funcs {
		fmt.Printf("  func %s: %s (%d body entries)\n", fn.Name, fn.Signature, len(fn.Body.Entries))
	}
}

func addType(mod *module.Module, ctx *resolver.Context, decl *ast.TypeDecl) error {
	typ, constraint, err := ctx.ExpandType(decl.Name)
	if err != nil {
		return err
	}
	mod.Types = append(mod.Types, module.TypeDecl{Name: decl.Name, Type: typ, Constraint: constraint})
	return nil
}

func addConst(mod *module.Module, ctx *resolver.Context, decl *ast.ConstDecl) error {
	v, err := ctx.ResolveConstant("", decl.Name, nil)
	if err != nil {
		return err
	}
	mod.Consts = append(mod.Consts, module.ConstDecl{Name: decl.Name, Value: v})
	return nil
}

func addFunc(mod *module.Module, low *lower.Lowerer, decl *ast.FuncDecl) error {
	fn, err := low.LowerFunc(decl)
	if err != nil {
		return err
	}
	mod.Funcs = append(mod.Funcs, fn)
	return nil
}

func addMethod(mod *module.Module, low *lower.Lowerer, decl *ast.MethodDecl) error {
	fn, err := low.LowerMethod(decl)
	if err != nil {
		return err
	}
	mod.Funcs = append(mod.Funcs, fn)
	return nil
}

// verifyModule runs il.Block.Verify over every block the module
// carries: each function's body plus its requires/ensures clauses,
// and every type's synthesised `where`-predicate constraint.
func verifyModule(mod *module.Module) []error {
	var errs []error
	check := func(label string, b *il.Block) {
		for _, err := range b.Verify() {
			errs = append(errs, fmt.Errorf("%s: %w", label, err))
		}
	}
	for _, t := range mod.Types {
		if t.Constraint != nil {
			check(fmt.Sprintf("type %s constraint", t.Name), t.Constraint)
		}
	}
	for _, fn := range mod.Funcs {
		check(fmt.Sprintf("func %s body", fn.Name), fn.Body)
		for i, b := range fn.Pre {
			check(fmt.Sprintf("func %s requires[%d]", fn.Name, i), b)
		}
		for i, b := range fn.Post {
			check(fmt.Sprintf("func %s ensures[%d]", fn.Name, i), b)
		}
	}
	return errs
}

func fail(format, name string, err error) {
	fmt.Fprintf(os.Stderr, "\nerror "+format+": %v\n", name, err)
	os.Exit(1)
}
