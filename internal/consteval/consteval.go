// Package consteval evaluates constant expressions to Values. It runs
// ahead of lowering, over the AST, with math/big exactness and cycle
// detection across named constant declarations (spec §4.3).
package consteval

import (
	"fmt"
	"math/big"

	"github.com/pkg/errors"

	"github.com/wyfront/corec/internal/ast"
	"github.com/wyfront/corec/internal/diag"
	"github.com/wyfront/corec/internal/value"
)

// Decls supplies the named constants visible to an evaluation; it is
// narrower than a full module so this package stays independent of
// internal/module.
type Decls interface {
	LookupConst(module, name string) (ast.Expr, bool)
}

// Context threads the in-progress evaluation stack needed to detect
// `const a = b; const b = a;` cycles, plus a memo of already-folded
// constants. No package-level state: each Context is independent, and
// its memo carries folded constants from one Eval call to the next.
type Context struct {
	decls    Decls
	module   string
	visiting map[value.NameID]bool
	memo     map[value.NameID]value.Value
}

func NewContext(decls Decls, module string) *Context {
	return &Context{
		decls:    decls,
		module:   module,
		visiting: make(map[value.NameID]bool),
		memo:     make(map[value.NameID]value.Value),
	}
}

// Eval reduces e to a Value or reports why it could not (spec's
// NonConstantExpression / CyclicConstant error kinds).
func (c *Context) Eval(e ast.Expr) (value.Value, error) {
	switch x := e.(type) {
	case *ast.Literal:
		return x.Val, nil
	case *ast.Ident:
		return c.evalNamed(c.module, x.Name, x)
	case *ast.ListExpr:
		return c.evalAggregate(x.Elems, value.NewList)
	case *ast.SetExpr:
		return c.evalAggregate(x.Elems, value.NewSet)
	case *ast.TupleExpr:
		return c.evalAggregate(x.Elems, value.NewTuple)
	case *ast.RecordExpr:
		return c.evalRecord(x)
	case *ast.DictExpr:
		return c.evalDict(x)
	case *ast.Unary:
		return c.evalUnary(x)
	case *ast.Binary:
		return c.evalBinary(x)
	case *ast.Logical:
		return c.evalLogical(x)
	case *ast.FieldAccess:
		return c.evalFieldAccess(x)
	case *ast.TupleAccess:
		return c.evalTupleAccess(x)
	case *ast.Index:
		return c.evalIndex(x)
	default:
		return value.Value{}, diag.New(diag.NonConstantExpression, e.Pos(),
			"not a constant expression")
	}
}

// EvalQualified evaluates a name reference to another module's constant,
// used by the Resolver when a NamedType or Call crosses a module boundary.
func (c *Context) EvalQualified(module, name string, at ast.Expr) (value.Value, error) {
	return c.evalNamed(module, name, at)
}

func (c *Context) evalNamed(module, name string, at ast.Expr) (value.Value, error) {
	id := value.NameID{Module: module, Name: name}
	if v, ok := c.memo[id]; ok {
		return v, nil
	}
	if c.visiting[id] {
		return value.Value{}, diag.New(diag.CyclicConstant, at.Pos(),
			fmt.Sprintf("constant %s.%s depends on itself", module, name))
	}
	expr, ok := c.decls.LookupConst(module, name)
	if !ok {
		return value.Value{}, diag.New(diag.NonConstantExpression, at.Pos(),
			fmt.Sprintf("%s.%s is not a constant", module, name))
	}
	c.visiting[id] = true
	defer delete(c.visiting, id)

	sub := *c
	sub.module = module
	v, err := sub.Eval(expr)
	if err != nil {
		return value.Value{}, err
	}
	c.memo[id] = v
	return v, nil
}

func (c *Context) evalAggregate(elems []ast.Expr, build func([]value.Value) value.Value) (value.Value, error) {
	vs := make([]value.Value, len(elems))
	for i, e := range elems {
		v, err := c.Eval(e)
		if err != nil {
			return value.Value{}, err
		}
		vs[i] = v
	}
	return build(vs), nil
}

func (c *Context) evalRecord(x *ast.RecordExpr) (value.Value, error) {
	fields := make(map[string]value.Value, len(x.Fields))
	for name, fe := range x.Fields {
		v, err := c.Eval(fe)
		if err != nil {
			return value.Value{}, err
		}
		fields[name] = v
	}
	return value.NewRecord(fields), nil
}

func (c *Context) evalDict(x *ast.DictExpr) (value.Value, error) {
	keys := make([]value.Value, len(x.Keys))
	vals := make([]value.Value, len(x.Vals))
	for i := range x.Keys {
		k, err := c.Eval(x.Keys[i])
		if err != nil {
			return value.Value{}, err
		}
		v, err := c.Eval(x.Vals[i])
		if err != nil {
			return value.Value{}, err
		}
		keys[i], vals[i] = k, v
	}
	return value.NewDict(keys, vals), nil
}

func (c *Context) evalFieldAccess(x *ast.FieldAccess) (value.Value, error) {
	base, err := c.Eval(x.Base)
	if err != nil {
		return value.Value{}, err
	}
	if base.Kind() != value.Record {
		return value.Value{}, diag.New(diag.NonConstantExpression, x.Pos(),
			"field access on a non-record constant")
	}
	v, ok := base.FieldGet(x.Name)
	if !ok {
		return value.Value{}, diag.New(diag.NonConstantExpression, x.Pos(),
			fmt.Sprintf("no such field %q", x.Name))
	}
	return v, nil
}

func (c *Context) evalTupleAccess(x *ast.TupleAccess) (value.Value, error) {
	base, err := c.Eval(x.Base)
	if err != nil {
		return value.Value{}, err
	}
	if base.Kind() != value.Tuple || x.Index < 0 || x.Index >= len(base.Elems()) {
		return value.Value{}, diag.New(diag.NonConstantExpression, x.Pos(),
			"tuple index out of range in constant expression")
	}
	return base.Elems()[x.Index], nil
}

func (c *Context) evalIndex(x *ast.Index) (value.Value, error) {
	base, err := c.Eval(x.Base)
	if err != nil {
		return value.Value{}, err
	}
	idx, err := c.Eval(x.Idx)
	if err != nil {
		return value.Value{}, err
	}
	switch base.Kind() {
	case value.List:
		if idx.Kind() != value.Int {
			return value.Value{}, diag.New(diag.NonConstantExpression, x.Pos(), "list index must be int")
		}
		i := idx.Int().Int64()
		elems := base.Elems()
		if i < 0 || i >= int64(len(elems)) {
			return value.Value{}, diag.New(diag.NonConstantExpression, x.Pos(), "list index out of range")
		}
		return elems[i], nil
	case value.Dict:
		v, ok := base.DictGet(idx)
		if !ok {
			return value.Value{}, diag.New(diag.NonConstantExpression, x.Pos(), "no such key in constant dictionary")
		}
		return v, nil
	default:
		return value.Value{}, diag.New(diag.NonConstantExpression, x.Pos(), "index of a non-indexable constant")
	}
}

func (c *Context) evalLogical(x *ast.Logical) (value.Value, error) {
	l, err := c.Eval(x.Left)
	if err != nil {
		return value.Value{}, err
	}
	r, err := c.Eval(x.Right)
	if err != nil {
		return value.Value{}, err
	}
	if l.Kind() != value.Bool || r.Kind() != value.Bool {
		return value.Value{}, diag.New(diag.InvalidBooleanExpression, x.Pos(), "logical operands must be bool")
	}
	switch x.Op {
	case ast.OpAnd:
		return value.NewBool(l.Bool() && r.Bool()), nil
	case ast.OpOr:
		return value.NewBool(l.Bool() || r.Bool()), nil
	case ast.OpXor:
		return value.NewBool(l.Bool() != r.Bool()), nil
	default:
		return value.Value{}, errors.Errorf("unknown logical operator %v", x.Op)
	}
}

func (c *Context) evalUnary(x *ast.Unary) (value.Value, error) {
	v, err := c.Eval(x.Operand)
	if err != nil {
		return value.Value{}, err
	}
	switch x.Op {
	case ast.OpNot:
		if v.Kind() != value.Bool {
			return value.Value{}, diag.New(diag.InvalidBooleanExpression, x.Pos(), "! requires a bool operand")
		}
		return value.NewBool(!v.Bool()), nil
	case ast.OpNeg:
		switch v.Kind() {
		case value.Int:
			return value.NewInt(new(big.Int).Neg(v.Int())), nil
		case value.Rational:
			return value.NewRational(new(big.Rat).Neg(v.Rational())), nil
		default:
			return value.Value{}, diag.New(diag.InvalidNumericExpression, x.Pos(), "- requires a numeric operand")
		}
	case ast.OpBitNot:
		if v.Kind() != value.Byte {
			return value.Value{}, diag.New(diag.InvalidNumericExpression, x.Pos(), "~ requires a byte operand")
		}
		return value.NewByte(^v.Byte()), nil
	default:
		return value.Value{}, errors.Errorf("unknown unary operator %v", x.Op)
	}
}

func (c *Context) evalBinary(x *ast.Binary) (value.Value, error) {
	l, err := c.Eval(x.Left)
	if err != nil {
		return value.Value{}, err
	}
	r, err := c.Eval(x.Right)
	if err != nil {
		return value.Value{}, err
	}
	switch x.Op {
	case ast.OpEq:
		return value.NewBool(value.Equal(l, r)), nil
	case ast.OpNe:
		return value.NewBool(!value.Equal(l, r)), nil
	case ast.OpConcat:
		return evalConcat(x, l, r)
	case ast.OpSetUnion, ast.OpSetIntersect, ast.OpSetDiff:
		return evalSetOp(x, l, r)
	}
	if isNumeric(l) && isNumeric(r) {
		return evalNumeric(x, l, r)
	}
	return value.Value{}, diag.New(diag.InvalidBinaryExpression, x.Pos(),
		"operands are not valid for this binary operator")
}

func isNumeric(v value.Value) bool { return v.Kind() == value.Int || v.Kind() == value.Rational }

func toRat(v value.Value) *big.Rat {
	if v.Kind() == value.Rational {
		return v.Rational()
	}
	return new(big.Rat).SetInt(v.Int())
}

// evalNumeric promotes Int/Rational mixes to Rational for comparison
// and arithmetic (Int ⊑ Real, spec §4.2), and keeps results in Int
// when both operands are Int and the operator preserves integrality.
func evalNumeric(x *ast.Binary, l, r value.Value) (value.Value, error) {
	bothInt := l.Kind() == value.Int && r.Kind() == value.Int

	switch x.Op {
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		cmp := toRat(l).Cmp(toRat(r))
		switch x.Op {
		case ast.OpLt:
			return value.NewBool(cmp < 0), nil
		case ast.OpLe:
			return value.NewBool(cmp <= 0), nil
		case ast.OpGt:
			return value.NewBool(cmp > 0), nil
		default:
			return value.NewBool(cmp >= 0), nil
		}
	case ast.OpRange:
		if !bothInt {
			return value.Value{}, diag.New(diag.InvalidNumericExpression, x.Pos(), ".. requires int bounds")
		}
		lo, hi := l.Int(), r.Int()
		var elems []value.Value
		for i := new(big.Int).Set(lo); i.Cmp(hi) < 0; i.Add(i, big.NewInt(1)) {
			elems = append(elems, value.NewInt(i))
		}
		return value.NewList(elems), nil
	}

	if bothInt {
		a, b := l.Int(), r.Int()
		switch x.Op {
		case ast.OpAdd:
			return value.NewInt(new(big.Int).Add(a, b)), nil
		case ast.OpSub:
			return value.NewInt(new(big.Int).Sub(a, b)), nil
		case ast.OpMul:
			return value.NewInt(new(big.Int).Mul(a, b)), nil
		case ast.OpDiv:
			if b.Sign() == 0 {
				return value.Value{}, diag.New(diag.InvalidNumericExpression, x.Pos(), "division by zero in constant expression")
			}
			q := new(big.Int)
			q.Quo(a, b)
			return value.NewInt(q), nil
		case ast.OpRem:
			if b.Sign() == 0 {
				return value.Value{}, diag.New(diag.InvalidNumericExpression, x.Pos(), "division by zero in constant expression")
			}
			m := new(big.Int)
			m.Rem(a, b)
			return value.NewInt(m), nil
		}
	}

	ar, br := toRat(l), toRat(r)
	switch x.Op {
	case ast.OpAdd:
		return value.NewRational(new(big.Rat).Add(ar, br)), nil
	case ast.OpSub:
		return value.NewRational(new(big.Rat).Sub(ar, br)), nil
	case ast.OpMul:
		return value.NewRational(new(big.Rat).Mul(ar, br)), nil
	case ast.OpDiv:
		if br.Sign() == 0 {
			return value.Value{}, diag.New(diag.InvalidNumericExpression, x.Pos(), "division by zero in constant expression")
		}
		return value.NewRational(new(big.Rat).Quo(ar, br)), nil
	default:
		return value.Value{}, diag.New(diag.InvalidNumericExpression, x.Pos(), "operator not valid on real constants")
	}
}

func evalConcat(x *ast.Binary, l, r value.Value) (value.Value, error) {
	if l.Kind() == value.String && r.Kind() == value.String {
		return value.NewString(l.Str() + r.Str()), nil
	}
	if l.Kind() == value.List && r.Kind() == value.List {
		return value.NewList(append(append([]value.Value{}, l.Elems()...), r.Elems()...)), nil
	}
	return value.Value{}, diag.New(diag.InvalidListExpression, x.Pos(), "++ requires two lists or two strings")
}

func evalSetOp(x *ast.Binary, l, r value.Value) (value.Value, error) {
	if l.Kind() != value.Set || r.Kind() != value.Set {
		return value.Value{}, diag.New(diag.InvalidSetExpression, x.Pos(), "set operator requires set operands")
	}
	switch x.Op {
	case ast.OpSetUnion:
		return value.NewSet(append(append([]value.Value{}, l.Elems()...), r.Elems()...)), nil
	case ast.OpSetIntersect:
		var out []value.Value
		for _, e := range l.Elems() {
			if containsValue(r.Elems(), e) {
				out = append(out, e)
			}
		}
		return value.NewSet(out), nil
	default: // OpSetDiff
		var out []value.Value
		for _, e := range l.Elems() {
			if !containsValue(r.Elems(), e) {
				out = append(out, e)
			}
		}
		return value.NewSet(out), nil
	}
}

func containsValue(elems []value.Value, v value.Value) bool {
	for _, e := range elems {
		if value.Equal(e, v) {
			return true
		}
	}
	return false
}
