package lower

import (
	"sort"

	"github.com/wyfront/corec/internal/ast"
	"github.com/wyfront/corec/internal/diag"
	"github.com/wyfront/corec/internal/il"
	"github.com/wyfront/corec/internal/source"
	"github.com/wyfront/corec/internal/types"
	"github.com/wyfront/corec/internal/value"
)

// lowerCondition compiles e into code that falls through on false and
// jumps to target on true (spec §4.5's lowerCondition shape).
func (f *fn) lowerCondition(block *il.Block, e ast.Expr, target string) error {
	attr := source.Of(e.Pos())
	switch n := e.(type) {
	case *ast.Logical:
		switch n.Op {
		case ast.OpAnd:
			mid := f.gen.Next()
			after := f.gen.Next()
			if err := f.lowerCondition(block, n.Left, mid); err != nil {
				return err
			}
			block.GotoAt(attr, after)
			block.LabelAt(attr, mid)
			if err := f.lowerCondition(block, n.Right, target); err != nil {
				return err
			}
			block.LabelAt(attr, after)
			return nil
		case ast.OpOr:
			if err := f.lowerCondition(block, n.Left, target); err != nil {
				return err
			}
			return f.lowerCondition(block, n.Right, target)
		}
	case *ast.Unary:
		if n.Op == ast.OpNot {
			skip := f.gen.Next()
			if err := f.lowerCondition(block, n.Operand, skip); err != nil {
				return err
			}
			block.GotoAt(attr, target)
			block.LabelAt(attr, skip)
			return nil
		}
	case *ast.IsType:
		t, err := f.l.ctx.ResolveType(n.Type)
		if err != nil {
			return err
		}
		slot, err := f.materializeToSlot(block, n.Operand)
		if err != nil {
			return err
		}
		block.IfTypeAt(attr, slot, t, target)
		return nil
	case *ast.Binary:
		if cmp, ok := cmpOpFor(n.Op); ok {
			if other, isNullCmp := nullComparisonOperand(n); isNullCmp {
				slot, err := f.materializeToSlot(block, other)
				if err != nil {
					return err
				}
				if n.Op == ast.OpEq {
					block.IfTypeAt(attr, slot, types.TNull, target)
				} else {
					notNull := f.gen.Next()
					block.IfTypeAt(attr, slot, types.TNull, notNull)
					block.GotoAt(attr, target)
					block.LabelAt(attr, notNull)
				}
				return nil
			}
			if err := f.lowerValue(block, n.Left); err != nil {
				return err
			}
			if err := f.lowerValue(block, n.Right); err != nil {
				return err
			}
			block.IfGotoAt(attr, cmp, target)
			return nil
		}
	}
	if err := f.lowerValue(block, e); err != nil {
		return err
	}
	block.ConstAt(attr, value.NewBool(true))
	block.IfGotoAt(attr, il.EQ, target)
	return nil
}

// materializeToSlot returns a bound local's own slot directly, else
// evaluates e and stores it into a freshly declared slot — needed
// wherever IfType must read a slot rather than the stack top.
func (f *fn) materializeToSlot(block *il.Block, e ast.Expr) (int, error) {
	if id, ok := e.(*ast.Ident); ok {
		if slot, ok := f.b.Lookup(id.Name); ok {
			return slot, nil
		}
	}
	if err := f.lowerValue(block, e); err != nil {
		return 0, err
	}
	slot := f.b.Declare(f.tempName())
	block.StoreAt(source.Of(e.Pos()), slot)
	return slot, nil
}

// materializeBool compiles a condition-shaped expression into a
// pushed boolean by branching to a local label and constant-folding
// both outcomes.
func (f *fn) materializeBool(block *il.Block, e ast.Expr) error {
	attr := source.Of(e.Pos())
	trueLabel := f.gen.Next()
	doneLabel := f.gen.Next()
	if err := f.lowerCondition(block, e, trueLabel); err != nil {
		return err
	}
	block.ConstAt(attr, value.NewBool(false))
	block.GotoAt(attr, doneLabel)
	block.LabelAt(attr, trueLabel)
	block.ConstAt(attr, value.NewBool(true))
	block.LabelAt(attr, doneLabel)
	return nil
}

// lowerValue compiles e into code that pushes its value onto the
// stack (spec §4.5's expression lowering).
func (f *fn) lowerValue(block *il.Block, e ast.Expr) error {
	attr := source.Of(e.Pos())
	switch n := e.(type) {
	case *ast.Literal:
		block.ConstAt(attr, n.Val)
		return nil

	case *ast.Ident:
		if slot, ok := f.b.Lookup(n.Name); ok {
			block.LoadAt(attr, slot)
			return nil
		}
		v, err := f.l.ctx.ResolveConstant("", n.Name, n)
		if err != nil {
			return err
		}
		block.ConstAt(attr, v)
		return nil

	case *ast.ListExpr:
		for _, el := range n.Elems {
			if err := f.lowerValue(block, el); err != nil {
				return err
			}
		}
		block.NewAggregateAt(attr, il.NewList, len(n.Elems))
		return nil

	case *ast.SetExpr:
		for _, el := range n.Elems {
			if err := f.lowerValue(block, el); err != nil {
				return err
			}
		}
		block.NewAggregateAt(attr, il.NewSet, len(n.Elems))
		return nil

	case *ast.TupleExpr:
		for _, el := range n.Elems {
			if err := f.lowerValue(block, el); err != nil {
				return err
			}
		}
		block.NewAggregateAt(attr, il.NewTuple, len(n.Elems))
		return nil

	case *ast.DictExpr:
		for i := range n.Keys {
			if err := f.lowerValue(block, n.Keys[i]); err != nil {
				return err
			}
			if err := f.lowerValue(block, n.Vals[i]); err != nil {
				return err
			}
		}
		block.NewAggregateAt(attr, il.NewDict, len(n.Keys))
		return nil

	case *ast.RecordExpr:
		names := make([]string, 0, len(n.Fields))
		for name := range n.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		fieldTypes := make(map[string]types.Type, len(names))
		for _, name := range names {
			if err := f.lowerValue(block, n.Fields[name]); err != nil {
				return err
			}
			fieldTypes[name] = types.TAny
		}
		block.NewRecordAt(attr, types.NewRecord(fieldTypes, false))
		return nil

	case *ast.Unary:
		switch n.Op {
		case ast.OpNeg:
			block.ConstAt(attr, value.NewIntFromInt64(0))
			if err := f.lowerValue(block, n.Operand); err != nil {
				return err
			}
			block.BinOpAt(attr, il.SUB)
			return nil
		case ast.OpNot:
			return f.materializeBool(block, e)
		default:
			return diag.New(diag.InvalidNumericExpression, n.Pos(), "bitwise not is not supported here")
		}

	case *ast.Binary:
		if _, ok := cmpOpFor(n.Op); ok {
			return f.materializeBool(block, e)
		}
		if err := f.lowerValue(block, n.Left); err != nil {
			return err
		}
		if err := f.lowerValue(block, n.Right); err != nil {
			return err
		}
		if kind, dir, ok := setOpFor(n.Op); ok {
			block.SetOpAt(attr, kind, dir)
			return nil
		}
		op, ok := binOpFor(n.Op)
		if !ok {
			return diag.New(diag.InvalidBinaryExpression, n.Pos(), "operator not valid here")
		}
		block.BinOpAt(attr, op)
		return nil

	case *ast.Logical:
		if err := f.lowerValue(block, n.Left); err != nil {
			return err
		}
		if err := f.lowerValue(block, n.Right); err != nil {
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
		return f.materializeBool(block, e)

	case *ast.Call:
		return f.lowerInvocation(block, n, true)

	case *ast.FieldAccess:
		if err := f.lowerValue(block, n.Base); err != nil {
			return err
		}
		block.FieldLoadAt(attr, n.Name)
		return nil

	case *ast.TupleAccess:
		if err := f.lowerValue(block, n.Base); err != nil {
			return err
		}
		block.TupleLoadAt(attr, n.Index)
		return nil

	case *ast.Index:
		if err := f.lowerValue(block, n.Base); err != nil {
			return err
		}
		if err := f.lowerValue(block, n.Idx); err != nil {
			return err
		}
		block.NewAggregateAt(attr, il.ListLoad, 0)
		return nil

	case *ast.SubList:
		if err := f.lowerValue(block, n.Base); err != nil {
			return err
		}
		if err := f.lowerValue(block, n.Low); err != nil {
			return err
		}
		if err := f.lowerValue(block, n.High); err != nil {
			return err
		}
		block.NewAggregateAt(attr, il.SubList, 0)
		return nil

	case *ast.Comprehension:
		return f.lowerComprehension(block, n)

	case *ast.Quantified:
		return f.lowerQuantified(block, n)

	default:
		return diag.New(diag.InternalFailure, e.Pos(), "unhandled expression form %T", e)
	}
}

// lowerComprehension desugars to a slot-allocated accumulator seeded
// with an empty List/Set, iterated with ForAll, unioning Body's value
// into the accumulator on each element that passes Condition.
func (f *fn) lowerComprehension(block *il.Block, n *ast.Comprehension) error {
	attr := source.Of(n.Pos())

	f.b.EnterBlock()
	accSlot := f.b.Declare(f.tempName())
	switch n.Kind {
	case ast.ComprehendList:
		block.NewAggregateAt(attr, il.NewList, 0)
	case ast.ComprehendSet:
		block.NewAggregateAt(attr, il.NewSet, 0)
	}
	block.StoreAt(attr, accSlot)

	if err := f.lowerValue(block, n.Source); err != nil {
		f.b.Exit()
		return err
	}
	elemSlot := f.b.Declare(n.Var)
	endLabel := f.gen.Next()
	block.ForAllAt(attr, elemSlot, endLabel, nil)

	unite := func() error {
		block.LoadAt(attr, accSlot)
		if err := f.lowerValue(block, n.Body); err != nil {
			return err
		}
		switch n.Kind {
		case ast.ComprehendList:
			block.NewAggregateAt(attr, il.NewList, 1)
		case ast.ComprehendSet:
			block.NewAggregateAt(attr, il.NewSet, 1)
		}
		block.SetOpAt(attr, il.SetUnion, il.DirLeft)
		block.StoreAt(attr, accSlot)
		return nil
	}

	if n.Condition != nil {
		pass := f.gen.Next()
		after := f.gen.Next()
		if err := f.lowerCondition(block, n.Condition, pass); err != nil {
			f.b.Exit()
			return err
		}
		block.GotoAt(attr, after)
		block.LabelAt(attr, pass)
		if err := unite(); err != nil {
			f.b.Exit()
			return err
		}
		block.LabelAt(attr, after)
	} else if err := unite(); err != nil {
		f.b.Exit()
		return err
	}

	block.EndAt(attr, endLabel)
	block.LabelAt(attr, endLabel)
	f.b.Exit()
	block.LoadAt(attr, accSlot)
	return nil
}

// lowerQuantified compiles `some`/`none` to a ForAll loop that
// materialises a boolean at a pair of forward-branching labels.
func (f *fn) lowerQuantified(block *il.Block, n *ast.Quantified) error {
	attr := source.Of(n.Pos())
	if err := f.lowerValue(block, n.Source); err != nil {
		return err
	}

	f.b.EnterBlock()
	elemSlot := f.b.Declare(n.Var)
	endLabel := f.gen.Next()
	foundLabel := f.gen.Next()
	doneLabel := f.gen.Next()

	block.ForAllAt(attr, elemSlot, endLabel, nil)
	if err := f.lowerCondition(block, n.Condition, foundLabel); err != nil {
		f.b.Exit()
		return err
	}
	block.EndAt(attr, endLabel)
	block.LabelAt(attr, endLabel)
	f.b.Exit()

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

// lowerInvocation selects the dispatch shape per spec §4.5: a local
// variable holding a callable is always indirect; a name matching a
// declared function or receiver-less method is a direct Invoke; a
// receiver method called bare resolves "this" from the enclosing
// method's own receiver slot; `base.name(...)` prefers a matching
// declared method (Send, since the receiver may be a process
// reference) and falls back to FieldLoad+IndirectInvoke for a record
// field holding a function value. Argument types are left Any; a
// later type-inference pass (out of scope here) would tighten them.
func (f *fn) lowerInvocation(block *il.Block, call *ast.Call, keepResult bool) error {
	attr := source.Of(call.Pos())

	pushArgs := func() error {
		for _, a := range call.Args {
			if err := f.lowerValue(block, a); err != nil {
				return err
			}
		}
		return nil
	}

	switch callee := call.Callee.(type) {
	case *ast.Ident:
		if slot, ok := f.b.Lookup(callee.Name); ok {
			block.LoadAt(attr, slot)
			if err := pushArgs(); err != nil {
				return err
			}
			block.IndirectInvokeAt(attr, types.TAny, keepResult)
			return nil
		}
		if decl, ok := f.l.ctx.LookupFunc(callee.Name); ok {
			sig, err := f.l.ctx.FuncSignature(decl)
			if err != nil {
				return err
			}
			if err := pushArgs(); err != nil {
				return err
			}
			block.InvokeAt(attr, callee.Name, sig, keepResult)
			return nil
		}
		if decl, ok := f.l.ctx.LookupMethod(callee.Name); ok {
			sig, err := f.l.ctx.MethodSignature(decl)
			if err != nil {
				return err
			}
			if decl.Receiver != nil {
				this, ok := f.b.Lookup("this")
				if !ok {
					return diag.New(diag.UnknownFunctionOrMethod, call.Pos(),
						"method %s called without a receiver in scope", callee.Name)
				}
				block.LoadAt(attr, this)
			}
			if err := pushArgs(); err != nil {
				return err
			}
			block.InvokeAt(attr, callee.Name, sig, keepResult)
			return nil
		}
		return diag.New(diag.UnknownFunctionOrMethod, call.Pos(), "no such function or method %s", callee.Name)

	case *ast.FieldAccess:
		if decl, ok := f.l.ctx.LookupMethod(callee.Name); ok {
			sig, err := f.l.ctx.MethodSignature(decl)
			if err != nil {
				return err
			}
			if err := f.lowerValue(block, callee.Base); err != nil {
				return err
			}
			if err := pushArgs(); err != nil {
				return err
			}
			block.SendAt(attr, callee.Name, sig, true, keepResult)
			return nil
		}
		if err := f.lowerValue(block, callee.Base); err != nil {
			return err
		}
		block.FieldLoadAt(attr, callee.Name)
		if err := pushArgs(); err != nil {
			return err
		}
		block.IndirectInvokeAt(attr, types.TAny, keepResult)
		return nil

	default:
		if err := f.lowerValue(block, call.Callee); err != nil {
			return err
		}
		if err := pushArgs(); err != nil {
			return err
		}
		block.IndirectInvokeAt(attr, types.TAny, keepResult)
		return nil
	}
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
	case ast.OpAdd, ast.OpConcat:
		// ADD is polymorphic at the Value level: numeric addition for
		// Int/Rational, concatenation for List/String.
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

// setOpFor maps the set/list operators that lower to SetUnion/
// SetIntersect directly rather than through BinOp; every other
// operator falls through to the generic BinOp path, where binOpFor
// lowers OpConcat as ADD and has no mapping for OpSetDiff.
func setOpFor(op ast.BinaryOp) (il.OpKind, il.SetDir, bool) {
	switch op {
	case ast.OpSetUnion:
		return il.SetUnion, il.DirLeft, true
	case ast.OpSetIntersect:
		return il.SetIntersect, il.DirLeft, true
	default:
		return 0, 0, false
	}
}

// nullComparisonOperand reports whether n is `x == null`/`x != null`
// in either operand order, returning the non-null side.
func nullComparisonOperand(n *ast.Binary) (other ast.Expr, ok bool) {
	if n.Op != ast.OpEq && n.Op != ast.OpNe {
		return nil, false
	}
	if lit, isLit := n.Left.(*ast.Literal); isLit && lit.Val.Kind() == value.Null {
		return n.Right, true
	}
	if lit, isLit := n.Right.(*ast.Literal); isLit && lit.Val.Kind() == value.Null {
		return n.Left, true
	}
	return nil, false
}
