package resolver

import (
	"fmt"

	"github.com/wyfront/corec/internal/ast"
	"github.com/wyfront/corec/internal/diag"
	"github.com/wyfront/corec/internal/il"
	"github.com/wyfront/corec/internal/source"
	"github.com/wyfront/corec/internal/types"
	"github.com/wyfront/corec/internal/value"
)

// synthesizeConstraint builds decl's constraint Block (spec §4.4 step
// 6): its own `where` predicate, if any, over THISSlot, followed by
// the composed sub-constraints inherited from resolvedType's
// structure (named members that themselves carry a constraint).
// Returns nil if neither contributes anything to check. ExpandType
// calls it only for a declaration with a `where` predicate, so a type
// declared without one gets no constraint Block even when its members
// carry constraints.
func (c *Context) synthesizeConstraint(decl *ast.TypeDecl, resolvedType types.Type) (*il.Block, error) {
	attr := source.Of(decl.Pos())
	gen := il.NewLabelGen()
	block := il.NewBlock(1)

	if decl.Where != nil {
		trueLabel := gen.Next()
		env := map[string]int{decl.Var: THISSlot}
		nextSlot := 1
		if err := c.lowerCondition(block, decl.Where, env, &nextSlot, gen, trueLabel); err != nil {
			return nil, err
		}
		block.FailAt(attr, fmt.Sprintf("type constraint not satisfied (%s)", decl.Name))
		block.LabelAt(attr, trueLabel)
	}

	composed, err := c.composeSubConstraints(resolvedType, gen, decl.Name, map[string]bool{})
	if err != nil {
		return nil, err
	}
	if composed != nil {
		block.Append(composed)
	}

	if len(block.Entries) == 0 {
		return nil, nil
	}
	return block, nil
}

// lowerCondition compiles e into code appended to block that falls
// through when e is false and jumps to target when e is true (spec
// §4.5's lowerCondition shape, reused here for `where` predicates).
func (c *Context) lowerCondition(block *il.Block, e ast.Expr, env map[string]int, nextSlot *int, gen *il.LabelGen, target string) error {
	attr := source.Of(e.Pos())
	switch n := e.(type) {
	case *ast.Logical:
		switch n.Op {
		case ast.OpAnd:
			mid := gen.Next()
			after := gen.Next()
			if err := c.lowerCondition(block, n.Left, env, nextSlot, gen, mid); err != nil {
				return err
			}
			block.GotoAt(attr, after)
			block.LabelAt(attr, mid)
			if err := c.lowerCondition(block, n.Right, env, nextSlot, gen, target); err != nil {
				return err
			}
			block.LabelAt(attr, after)
			return nil
		case ast.OpOr:
			if err := c.lowerCondition(block, n.Left, env, nextSlot, gen, target); err != nil {
				return err
			}
			return c.lowerCondition(block, n.Right, env, nextSlot, gen, target)
		}
		// OpXor has no short-circuit shape; falls through to the
		// generic value-then-compare path below.
	case *ast.Unary:
		if n.Op == ast.OpNot {
			skip := gen.Next()
			if err := c.lowerCondition(block, n.Operand, env, nextSlot, gen, skip); err != nil {
				return err
			}
			block.GotoAt(attr, target)
			block.LabelAt(attr, skip)
			return nil
		}
	case *ast.IsType:
		t, err := c.expandUnresolved(n.Type, "", true)
		if err != nil {
			return err
		}
		slot, err := c.materializeToSlot(block, n.Operand, env, nextSlot, gen)
		if err != nil {
			return err
		}
		block.IfTypeAt(attr, slot, t, target)
		return nil
	case *ast.Binary:
		if cmp, ok := cmpOpFor(n.Op); ok {
			if _, other, isNullCmp := splitNullComparison(n); isNullCmp {
				slot, err := c.materializeToSlot(block, other, env, nextSlot, gen)
				if err != nil {
					return err
				}
				if n.Op == ast.OpEq {
					block.IfTypeAt(attr, slot, types.TNull, target)
				} else {
					notNull := gen.Next()
					block.IfTypeAt(attr, slot, types.TNull, notNull)
					block.GotoAt(attr, target)
					block.LabelAt(attr, notNull)
				}
				return nil
			}
			if err := c.lowerValue(block, n.Left, env, nextSlot, gen); err != nil {
				return err
			}
			if err := c.lowerValue(block, n.Right, env, nextSlot, gen); err != nil {
				return err
			}
			block.IfGotoAt(attr, cmp, target)
			return nil
		}
	}
	// Generic fallback: evaluate e as a boolean value and compare it
	// against the literal `true`.
	if err := c.lowerValue(block, e, env, nextSlot, gen); err != nil {
		return err
	}
	block.ConstAt(attr, value.NewBool(true))
	block.IfGotoAt(attr, il.EQ, target)
	return nil
}

// materializeToSlot returns a slot holding e's value: an identifier
// already bound in env yields its own slot with nothing emitted, any
// other expression is evaluated and stored into a freshly allocated
// slot — needed wherever an operand must be tested with IfType, which
// reads a slot rather than the stack.
func (c *Context) materializeToSlot(block *il.Block, e ast.Expr, env map[string]int, nextSlot *int, gen *il.LabelGen) (int, error) {
	if id, ok := e.(*ast.Ident); ok {
		if slot, ok := env[id.Name]; ok {
			return slot, nil
		}
	}
	if err := c.lowerValue(block, e, env, nextSlot, gen); err != nil {
		return 0, err
	}
	slot := *nextSlot
	*nextSlot++
	block.StoreAt(source.Of(e.Pos()), slot)
	return slot, nil
}

// lowerValue compiles e into code that pushes its value onto the
// stack (spec §4.5's expression lowering, reused here).
func (c *Context) lowerValue(block *il.Block, e ast.Expr, env map[string]int, nextSlot *int, gen *il.LabelGen) error {
	attr := source.Of(e.Pos())
	switch n := e.(type) {
	case *ast.Literal:
		block.ConstAt(attr, n.Val)
		return nil
	case *ast.Ident:
		if slot, ok := env[n.Name]; ok {
			block.LoadAt(attr, slot)
			return nil
		}
		v, err := c.ResolveConstant("", n.Name, n)
		if err != nil {
			return err
		}
		block.ConstAt(attr, v)
		return nil
	case *ast.Unary:
		switch n.Op {
		case ast.OpNeg:
			block.ConstAt(attr, value.NewIntFromInt64(0))
			if err := c.lowerValue(block, n.Operand, env, nextSlot, gen); err != nil {
				return err
			}
			block.BinOpAt(attr, il.SUB)
			return nil
		case ast.OpNot:
			return c.materializeBool(block, e, env, nextSlot, gen)
		default:
			return diag.New(diag.InvalidNumericExpression, n.Pos(), "bitwise not is not supported in a type constraint")
		}
	case *ast.Binary:
		if _, ok := cmpOpFor(n.Op); ok {
			return c.materializeBool(block, e, env, nextSlot, gen)
		}
		if err := c.lowerValue(block, n.Left, env, nextSlot, gen); err != nil {
			return err
		}
		if err := c.lowerValue(block, n.Right, env, nextSlot, gen); err != nil {
			return err
		}
		op, ok := binOpFor(n.Op)
		if !ok {
			return diag.New(diag.InvalidBinaryExpression, n.Pos(), "operator not valid in a type constraint")
		}
		block.BinOpAt(attr, op)
		return nil
	case *ast.Logical:
		if err := c.lowerValue(block, n.Left, env, nextSlot, gen); err != nil {
			return err
		}
		if err := c.lowerValue(block, n.Right, env, nextSlot, gen); err != nil {
			return err
		}
		switch n.Op {
		case ast.OpAnd:
			block.BinOpAt(attr, il.AND)
		case ast.OpOr:
			block.BinOpAt(attr, il.OR)
		case ast.OpXor:
			block.BinOpAt(attr, il.XOR)
		}
		return nil
	case *ast.IsType:
		return c.materializeBool(block, e, env, nextSlot, gen)
	case *ast.FieldAccess:
		if err := c.lowerValue(block, n.Base, env, nextSlot, gen); err != nil {
			return err
		}
		block.FieldLoadAt(attr, n.Name)
		return nil
	case *ast.TupleAccess:
		if err := c.lowerValue(block, n.Base, env, nextSlot, gen); err != nil {
			return err
		}
		block.TupleLoadAt(attr, n.Index)
		return nil
	case *ast.Index:
		if err := c.lowerValue(block, n.Base, env, nextSlot, gen); err != nil {
			return err
		}
		if err := c.lowerValue(block, n.Idx, env, nextSlot, gen); err != nil {
			return err
		}
		block.NewAggregateAt(attr, il.ListLoad, 0)
		return nil
	case *ast.SubList:
		if err := c.lowerValue(block, n.Base, env, nextSlot, gen); err != nil {
			return err
		}
		if err := c.lowerValue(block, n.Low, env, nextSlot, gen); err != nil {
			return err
		}
		if err := c.lowerValue(block, n.High, env, nextSlot, gen); err != nil {
			return err
		}
		block.NewAggregateAt(attr, il.SubList, 0)
		return nil
	case *ast.Quantified:
		return c.lowerQuantified(block, n, env, nextSlot, gen)
	default:
		return diag.New(diag.NonConstantExpression, e.Pos(), "expression form %T is not supported in a type constraint", e)
	}
}

// materializeBool compiles a condition-shaped expression into a
// pushed boolean by branching to a local true-label and constant-
// folding both outcomes — used where a value (not a branch) is
// required from an expression lowerCondition would otherwise handle
// by branching directly.
func (c *Context) materializeBool(block *il.Block, e ast.Expr, env map[string]int, nextSlot *int, gen *il.LabelGen) error {
	attr := source.Of(e.Pos())
	trueLabel := gen.Next()
	doneLabel := gen.Next()
	if err := c.lowerCondition(block, e, env, nextSlot, gen, trueLabel); err != nil {
		return err
	}
	block.ConstAt(attr, value.NewBool(false))
	block.GotoAt(attr, doneLabel)
	block.LabelAt(attr, trueLabel)
	block.ConstAt(attr, value.NewBool(true))
	block.LabelAt(attr, doneLabel)
	return nil
}

func cmpOpFor(op ast.BinaryOp) (il.CmpOp, bool) {
	switch op {
	case ast.OpEq:
		return il.EQ, true
	case ast.OpNe:
		return il.NE, true
	case ast.OpLt:
		return il.LT, true
	case ast.OpLe:
		return il.LE, true
	case ast.OpGt:
		return il.GT, true
	case ast.OpGe:
		return il.GE, true
	default:
		return 0, false
	}
}

func binOpFor(op ast.BinaryOp) (il.BinOpKind, bool) {
	switch op {
	case ast.OpAdd:
		return il.ADD, true
	case ast.OpSub:
		return il.SUB, true
	case ast.OpMul:
		return il.MUL, true
	case ast.OpDiv:
		return il.DIV, true
	case ast.OpRem:
		return il.REM, true
	case ast.OpRange:
		return il.RANGE, true
	case ast.OpBitAnd:
		return il.AND, true
	case ast.OpBitOr:
		return il.OR, true
	case ast.OpBitXor:
		return il.XOR, true
	case ast.OpShl:
		return il.SHL, true
	case ast.OpShr:
		return il.SHR, true
	default:
		return 0, false
	}
}

// splitNullComparison reports whether n is `x == null`/`x != null` in
// either operand order, returning the non-null side and confirming
// the shape.
func splitNullComparison(n *ast.Binary) (nullSide, other ast.Expr, ok bool) {
	if n.Op != ast.OpEq && n.Op != ast.OpNe {
		return nil, nil, false
	}
	if lit, isLit := n.Left.(*ast.Literal); isLit && lit.Val.Kind() == value.Null {
		return n.Left, n.Right, true
	}
	if lit, isLit := n.Right.(*ast.Literal); isLit && lit.Val.Kind() == value.Null {
		return n.Right, n.Left, true
	}
	return nil, nil, false
}

func (c *Context) lowerQuantified(block *il.Block, n *ast.Quantified, env map[string]int, nextSlot *int, gen *il.LabelGen) error {
	attr := source.Of(n.Pos())
	if err := c.lowerValue(block, n.Source, env, nextSlot, gen); err != nil {
		return err
	}
	elemSlot := *nextSlot
	*nextSlot++
	endLabel := gen.Next()
	foundLabel := gen.Next()
	doneLabel := gen.Next()

	block.ForAllAt(attr, elemSlot, endLabel, nil)
	inner := make(map[string]int, len(env)+1)
	for k, v := range env {
		inner[k] = v
	}
	inner[n.Var] = elemSlot
	if err := c.lowerCondition(block, n.Condition, inner, nextSlot, gen, foundLabel); err != nil {
		return err
	}
	block.EndAt(attr, endLabel)
	block.LabelAt(attr, endLabel)

	switch n.Kind {
	case ast.QuantifySome:
		block.ConstAt(attr, value.NewBool(false))
		block.GotoAt(attr, doneLabel)
		block.LabelAt(attr, foundLabel)
		block.ConstAt(attr, value.NewBool(true))
		block.LabelAt(attr, doneLabel)
	case ast.QuantifyNone:
		block.ConstAt(attr, value.NewBool(true))
		block.GotoAt(attr, doneLabel)
		block.LabelAt(attr, foundLabel)
		block.ConstAt(attr, value.NewBool(false))
		block.LabelAt(attr, doneLabel)
	}
	return nil
}

// constraintFor looks up the already-resolved constraint Block for a
// named type, same-module or foreign, without re-expanding it.
func (c *Context) constraintFor(module, name string) (*il.Block, error) {
	if module == "" || module == c.module {
		entry, ok := c.typeCache[name]
		if !ok {
			_, cons, err := c.ExpandType(name)
			return cons, err
		}
		return entry.Constraint, nil
	}
	loaded, err := c.loader.LoadModule(module)
	if err != nil {
		return nil, diag.Wrap(err, diag.ResolveError, source.Position{}, fmt.Sprintf("loading module %q", module))
	}
	_, cons, ok := loaded.Type(name)
	if !ok {
		return nil, diag.New(diag.ResolveError, source.Position{}, "no such type %s.%s", module, name)
	}
	return cons, nil
}

// composeSubConstraints implements the structural half of spec §4.4
// step 6: a compound type inherits the constraint of any named member
// that carries one. seen guards against unrolling a recursive type's
// self-reference forever; past the first repeat of an identical
// shape, composition stops for that branch, so a recursive type's
// inherited constraints are checked only down to that depth, not at
// every depth of the value.
func (c *Context) composeSubConstraints(t types.Type, gen *il.LabelGen, typeName string, seen map[string]bool) (*il.Block, error) {
	key := t.String()
	if seen[key] {
		return nil, nil
	}
	seen[key] = true

	switch t.Kind() {
	case types.Nominal:
		mod, name, _ := types.NominalRef(t)
		cons, err := c.constraintFor(mod, name)
		if err != nil || cons == nil {
			return nil, err
		}
		return il.Relabel(cons, gen), nil

	case types.List, types.Set:
		elemCons, err := c.composeSubConstraints(types.Elem(t), gen, typeName, seen)
		if err != nil || elemCons == nil {
			return nil, err
		}
		attr := source.Attribute{}
		elemSlot := 1
		shifted := il.Shift(il.Relabel(elemCons, gen), elemSlot)
		end := gen.Next()
		out := il.NewBlock(1)
		out.LoadAt(attr, THISSlot)
		out.ForAllAt(attr, elemSlot, end, nil)
		out.Append(shifted)
		out.EndAt(attr, end)
		out.LabelAt(attr, end)
		return out, nil

	case types.Tuple:
		attr := source.Attribute{}
		out := il.NewBlock(1)
		any := false
		for i, elemT := range types.Elems(t) {
			elemCons, err := c.composeSubConstraints(elemT, gen, typeName, seen)
			if err != nil {
				return nil, err
			}
			if elemCons == nil {
				continue
			}
			any = true
			elemSlot := 1 + i
			out.LoadAt(attr, THISSlot)
			out.TupleLoadAt(attr, i)
			out.StoreAt(attr, elemSlot)
			out.Append(il.Shift(il.Relabel(elemCons, gen), elemSlot))
		}
		if !any {
			return nil, nil
		}
		return out, nil

	case types.Record:
		attr := source.Attribute{}
		out := il.NewBlock(1)
		any := false
		for i, name := range types.FieldNames(t) {
			fieldT, _ := types.Field(t, name)
			fieldCons, err := c.composeSubConstraints(fieldT, gen, typeName, seen)
			if err != nil {
				return nil, err
			}
			if fieldCons == nil {
				continue
			}
			any = true
			fieldSlot := 1 + i
			out.LoadAt(attr, THISSlot)
			out.FieldLoadAt(attr, name)
			out.StoreAt(attr, fieldSlot)
			out.Append(il.Shift(il.Relabel(fieldCons, gen), fieldSlot))
		}
		if !any {
			return nil, nil
		}
		return out, nil

	case types.IntersectionKind:
		out := il.NewBlock(1)
		any := false
		for _, br := range types.Elems(t) {
			brCons, err := c.composeSubConstraints(br, gen, typeName, seen)
			if err != nil {
				return nil, err
			}
			if brCons == nil {
				continue
			}
			any = true
			out.Append(il.Relabel(brCons, gen))
		}
		if !any {
			return nil, nil
		}
		return out, nil

	case types.UnionKind:
		branches := types.Elems(t)
		conses := make([]*il.Block, len(branches))
		for i, br := range branches {
			cons, err := c.composeSubConstraints(br, gen, typeName, seen)
			if err != nil {
				return nil, err
			}
			conses[i] = cons
			if cons == nil {
				// An unconstrained branch always satisfies the union;
				// nothing to enforce.
				return nil, nil
			}
		}
		attr := source.Attribute{}
		out := il.NewBlock(1)
		end := gen.Next()
		for _, cons := range conses {
			next := gen.Next()
			chained := il.Chain(il.Relabel(cons, gen), next)
			out.Append(chained)
			out.GotoAt(attr, end)
			out.LabelAt(attr, next)
		}
		out.FailAt(attr, fmt.Sprintf("type constraint not satisfied (%s)", typeName))
		out.LabelAt(attr, end)
		return out, nil

	default:
		return nil, nil
	}
}
