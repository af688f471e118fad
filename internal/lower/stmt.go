package lower

import (
	"strconv"

	"github.com/wyfront/corec/internal/ast"
	"github.com/wyfront/corec/internal/diag"
	"github.com/wyfront/corec/internal/il"
	"github.com/wyfront/corec/internal/source"
	"github.com/wyfront/corec/internal/value"
)

func (f *fn) lowerBlock(block *il.Block, b *ast.BlockStmt) error {
	for _, s := range b.Stmts {
		if err := f.lowerStmt(block, s); err != nil {
			return err
		}
	}
	return nil
}

func (f *fn) lowerStmt(block *il.Block, s ast.Stmt) error {
	attr := source.Of(s.Pos())
	switch n := s.(type) {
	case *ast.ExprStmt:
		if call, ok := n.X.(*ast.Call); ok {
			return f.lowerInvocation(block, call, false)
		}
		return f.lowerValue(block, n.X)

	case *ast.BlockStmt:
		f.b.EnterBlock()
		defer f.b.Exit()
		return f.lowerBlock(block, n)

	case *ast.VarDeclStmt:
		slot := f.b.Declare(n.Name)
		if n.Value != nil {
			if err := f.lowerValue(block, n.Value); err != nil {
				return err
			}
			block.StoreAt(attr, slot)
		}
		return nil

	case *ast.AssignStmt:
		return f.lowerAssign(block, n)

	case *ast.IfStmt:
		return f.lowerIf(block, n)

	case *ast.WhileStmt:
		return f.lowerWhile(block, n)

	case *ast.DoWhileStmt:
		return f.lowerDoWhile(block, n)

	case *ast.ForStmt:
		return f.lowerFor(block, n)

	case *ast.ReturnStmt:
		if n.Value != nil {
			if err := f.lowerValue(block, n.Value); err != nil {
				return err
			}
		}
		block.ReturnAt(attr, f.retType)
		return nil

	case *ast.BreakStmt:
		target, err := f.b.BreakTarget()
		if err != nil {
			return diag.Wrap(err, diag.BreakOutsideLoop, n.Pos(), "break")
		}
		block.GotoAt(attr, target)
		return nil

	case *ast.ContinueStmt:
		target, err := f.b.ContinueTarget()
		if err != nil {
			return diag.Wrap(err, diag.BreakOutsideLoop, n.Pos(), "continue")
		}
		block.GotoAt(attr, target)
		return nil

	case *ast.SwitchStmt:
		return f.lowerSwitch(block, n)

	case *ast.TryCatchStmt:
		return f.lowerTryCatch(block, n)

	default:
		return diag.New(diag.InternalFailure, s.Pos(), "unhandled statement %T", s)
	}
}

// lowerIf emits `cond` so that it falls through to the else branch
// (or past the whole statement, if none) and jumps to the then branch
// on true — the mirror image of the fallthrough convention so that
// the common unconditional-then case needs no extra Goto.
func (f *fn) lowerIf(block *il.Block, n *ast.IfStmt) error {
	attr := source.Of(n.Pos())
	thenLabel := f.gen.Next()
	endLabel := f.gen.Next()

	if err := f.lowerCondition(block, n.Cond, thenLabel); err != nil {
		return err
	}
	if n.Else != nil {
		if err := f.lowerStmt(block, n.Else); err != nil {
			return err
		}
	}
	block.GotoAt(attr, endLabel)
	block.LabelAt(attr, thenLabel)
	if err := f.lowerStmt(block, n.Then); err != nil {
		return err
	}
	block.LabelAt(attr, endLabel)
	return nil
}

func (f *fn) lowerWhile(block *il.Block, n *ast.WhileStmt) error {
	attr := source.Of(n.Pos())
	condLabel := f.gen.Next()
	bodyLabel := f.gen.Next()
	endLabel := f.gen.Next()

	if n.Invariant != nil {
		if err := f.assertInvariant(block, n.Invariant); err != nil {
			return err
		}
	}
	block.GotoAt(attr, condLabel)
	block.LabelAt(attr, condLabel)
	if err := f.lowerCondition(block, n.Cond, bodyLabel); err != nil {
		return err
	}
	block.GotoAt(attr, endLabel)
	block.LabelAt(attr, bodyLabel)
	block.LoopAt(attr, endLabel, nil)

	f.b.EnterLoop(endLabel, condLabel)
	if err := f.lowerBlock(block, n.Body); err != nil {
		f.b.Exit()
		return err
	}
	f.b.Exit()

	if n.Invariant != nil {
		if err := f.assertInvariant(block, n.Invariant); err != nil {
			return err
		}
	}
	block.GotoAt(attr, condLabel)
	block.EndAt(attr, endLabel)
	block.LabelAt(attr, endLabel)
	return nil
}

func (f *fn) lowerDoWhile(block *il.Block, n *ast.DoWhileStmt) error {
	attr := source.Of(n.Pos())
	bodyLabel := f.gen.Next()
	condLabel := f.gen.Next()
	endLabel := f.gen.Next()

	block.LabelAt(attr, bodyLabel)
	block.LoopAt(attr, endLabel, nil)

	f.b.EnterLoop(endLabel, condLabel)
	if err := f.lowerBlock(block, n.Body); err != nil {
		f.b.Exit()
		return err
	}
	f.b.Exit()

	block.LabelAt(attr, condLabel)
	if n.Invariant != nil {
		if err := f.assertInvariant(block, n.Invariant); err != nil {
			return err
		}
	}
	if err := f.lowerCondition(block, n.Cond, bodyLabel); err != nil {
		return err
	}
	block.EndAt(attr, endLabel)
	block.LabelAt(attr, endLabel)
	return nil
}

// lowerFor iterates Source element-by-element with ForAll, binding Var
// to the per-iteration element slot; `continue` re-enters ForAll's own
// advance-or-exit test by jumping back to its label.
func (f *fn) lowerFor(block *il.Block, n *ast.ForStmt) error {
	attr := source.Of(n.Pos())
	if err := f.lowerValue(block, n.Source); err != nil {
		return err
	}

	f.b.EnterBlock()
	elemSlot := f.b.Declare(n.Var)
	forLabel := f.gen.Next()
	endLabel := f.gen.Next()

	block.LabelAt(attr, forLabel)
	block.ForAllAt(attr, elemSlot, endLabel, nil)

	if n.Invariant != nil {
		if err := f.assertInvariant(block, n.Invariant); err != nil {
			f.b.Exit()
			return err
		}
	}

	f.b.EnterLoop(endLabel, forLabel)
	if err := f.lowerBlock(block, n.Body); err != nil {
		f.b.Exit()
		f.b.Exit()
		return err
	}
	f.b.Exit()
	f.b.Exit()

	block.EndAt(attr, endLabel)
	block.LabelAt(attr, endLabel)
	return nil
}

// assertInvariant compiles cond as a branch to a pass label when it
// holds, falling through to a Fail otherwise; no Assert op is emitted.
func (f *fn) assertInvariant(block *il.Block, cond ast.Expr) error {
	attr := source.Of(cond.Pos())
	ok := f.gen.Next()
	if err := f.lowerCondition(block, cond, ok); err != nil {
		return err
	}
	block.FailAt(attr, "loop invariant not satisfied")
	block.LabelAt(attr, ok)
	return nil
}

// lowerAssign handles both a single (possibly nested) l-value
// assignment and tuple destructuring, per spec §4.5.
func (f *fn) lowerAssign(block *il.Block, n *ast.AssignStmt) error {
	attr := source.Of(n.Pos())
	if len(n.Targets) == 1 {
		return f.lowerLValueAssign(block, n.Targets[0], n.Value)
	}

	if err := f.lowerValue(block, n.Value); err != nil {
		return err
	}
	block.DestructureAt(attr, len(n.Targets))
	for i := len(n.Targets) - 1; i >= 0; i-- {
		t := n.Targets[i]
		if len(t.Path) != 0 {
			return diag.New(diag.InvalidTupleLVal, t.Pos(), "tuple-destructuring target %s must be a plain local", t.Root)
		}
		slot, ok := f.b.Lookup(t.Root)
		if !ok {
			return diag.New(diag.UnknownVariable, t.Pos(), "undefined variable %s", t.Root)
		}
		block.StoreAt(attr, slot)
	}
	return nil
}

// lowerLValueAssign walks t's access path, pushing each dynamic index
// as it goes and collecting a parallel field-path entry per step — ""
// marks a step whose value was pushed onto the stack (a list index),
// any other string names a static field/tuple-index step — then
// pushes the right-hand side last and emits a single Update.
func (f *fn) lowerLValueAssign(block *il.Block, t ast.LValue, rhs ast.Expr) error {
	attr := source.Of(t.Pos())
	slot, ok := f.b.Lookup(t.Root)
	if !ok {
		return diag.New(diag.UnknownVariable, t.Pos(), "undefined variable %s", t.Root)
	}
	if len(t.Path) == 0 {
		if err := f.lowerValue(block, rhs); err != nil {
			return err
		}
		block.StoreAt(attr, slot)
		return nil
	}

	fields := make([]string, len(t.Path))
	for i, step := range t.Path {
		switch step.Kind {
		case ast.StepIndex:
			if err := f.lowerValue(block, step.Index); err != nil {
				return err
			}
			fields[i] = ""
		case ast.StepField:
			fields[i] = step.Field
		case ast.StepTupleIndex:
			fields[i] = strconv.Itoa(step.Tuple)
		default:
			return diag.New(diag.InvalidLValExpression, t.Pos(), "unhandled l-value step")
		}
	}
	if err := f.lowerValue(block, rhs); err != nil {
		return err
	}
	block.UpdateAt(attr, slot, len(t.Path), fields)
	return nil
}

func (f *fn) lowerSwitch(block *il.Block, n *ast.SwitchStmt) error {
	attr := source.Of(n.Pos())
	if err := f.lowerValue(block, n.Scrutinee); err != nil {
		return err
	}

	type clauseLabel struct {
		clause *ast.SwitchCaseClause
		label  string
	}
	endLabel := f.gen.Next()
	defaultLabel := endLabel
	var clauses []clauseLabel
	sawDefault := false
	var cases []il.SwitchCase

	for i := range n.Cases {
		c := &n.Cases[i]
		lbl := f.gen.Next()
		if c.IsDefault {
			if sawDefault {
				return diag.New(diag.DuplicateDefaultLabel, n.Pos(), "duplicate default clause")
			}
			sawDefault = true
			defaultLabel = lbl
		}
		for _, v := range c.Values {
			fv, err := f.l.ctx.Fold(v)
			if err != nil {
				return err
			}
			if hasCaseValue(cases, fv) {
				return diag.New(diag.DuplicateCaseLabel, v.Pos(), "duplicate case label")
			}
			cases = append(cases, il.SwitchCase{Value: fv, Label: lbl})
		}
		clauses = append(clauses, clauseLabel{clause: c, label: lbl})
	}
	block.SwitchAt(attr, defaultLabel, cases)

	for _, cl := range clauses {
		block.LabelAt(attr, cl.label)
		f.b.EnterSwitch(endLabel)
		for _, st := range cl.clause.Body {
			if err := f.lowerStmt(block, st); err != nil {
				f.b.Exit()
				return err
			}
		}
		f.b.Exit()
		block.GotoAt(attr, endLabel)
	}
	block.LabelAt(attr, endLabel)
	return nil
}

// hasCaseValue reports whether v matches a case value already built for
// this switch, by constant value rather than by AST shape — so `case 1:`
// and `case 0+1:` collide, per spec §4.5.
func hasCaseValue(cases []il.SwitchCase, v value.Value) bool {
	for _, c := range cases {
		if value.Equal(c.Value, v) {
			return true
		}
	}
	return false
}

func (f *fn) lowerTryCatch(block *il.Block, n *ast.TryCatchStmt) error {
	attr := source.Of(n.Pos())
	endLabel := f.gen.Next()

	type handler struct {
		clause *ast.CatchClause
		label  string
	}
	handlers := make([]handler, len(n.Catches))
	ilHandlers := make([]il.CatchHandler, len(n.Catches))
	for i := range n.Catches {
		c := &n.Catches[i]
		t, err := f.l.ctx.ResolveType(c.Type)
		if err != nil {
			return err
		}
		lbl := f.gen.Next()
		handlers[i] = handler{clause: c, label: lbl}
		ilHandlers[i] = il.CatchHandler{Type: t, Label: lbl}
	}
	block.TryCatchAt(attr, endLabel, ilHandlers)

	f.b.EnterBlock()
	if err := f.lowerBlock(block, n.Try); err != nil {
		f.b.Exit()
		return err
	}
	f.b.Exit()
	block.GotoAt(attr, endLabel)

	for _, h := range handlers {
		block.LabelAt(attr, h.label)
		f.b.EnterBlock()
		exSlot := f.b.Declare(h.clause.Var)
		block.StoreAt(attr, exSlot)
		if err := f.lowerBlock(block, h.clause.Body); err != nil {
			f.b.Exit()
			return err
		}
		f.b.Exit()
		block.GotoAt(attr, endLabel)
	}
	block.LabelAt(attr, endLabel)
	return nil
}
