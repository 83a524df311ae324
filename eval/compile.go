// Package eval lowers parsed expressions and statements to Go closures.
// Source text is parsed once; evaluation only runs the closures.
package eval

import (
	"errors"
	"strings"

	"loom/expr"
	"loom/types"
)

// Evaluator is a compiled expression
type Evaluator func(env *Environment) (types.Value, error)

// Compile lowers e to an Evaluator
func Compile(e expr.Expr) Evaluator {
	switch e := e.(type) {
	case *expr.LiteralExpr:
		v := e.Value
		return func(*Environment) (types.Value, error) { return v, nil }
	case *expr.IdentExpr:
		return compileIdent(e.Name)
	case *expr.TemplateExpr:
		return compileTemplate(e)
	case *expr.ArrayExpr:
		elems := compileElements(e.Elems)
		return func(env *Environment) (types.Value, error) {
			vals, err := elems(env)
			if err != nil {
				return nil, err
			}
			return types.NewList(vals), nil
		}
	case *expr.ObjectExpr:
		return compileObject(e)
	case *expr.MemberExpr, *expr.IndexExpr, *expr.CallExpr:
		return chainEnd(compileLink(e))
	case *expr.UnaryExpr:
		operand := Compile(e.Operand)
		op := e.Op
		return func(env *Environment) (types.Value, error) {
			v, err := operand(env)
			if err != nil {
				// typeof tolerates unresolvable names
				if op == "typeof" && isVarNotFound(err) {
					return types.NewStr("undefined"), nil
				}
				return nil, err
			}
			return evalUnary(op, v)
		}
	case *expr.BinaryExpr:
		return compileBinary(e)
	case *expr.ConditionalExpr:
		test, then, els := Compile(e.Test), Compile(e.Then), Compile(e.Else)
		return func(env *Environment) (types.Value, error) {
			t, err := test(env)
			if err != nil {
				return nil, err
			}
			if t.Truthy() {
				return then(env)
			}
			return els(env)
		}
	case *expr.ArrowExpr:
		return compileArrow(e)
	case *expr.AssignExpr:
		return compileAssign(e)
	case *expr.UpdateExpr:
		return compileUpdate(e)
	case *expr.SpreadExpr:
		return func(*Environment) (types.Value, error) {
			return nil, types.Errorf(types.E_INVARG, "spread is only allowed in array literals and calls")
		}
	}
	return func(*Environment) (types.Value, error) {
		return nil, types.Errorf(types.E_INVARG, "unsupported expression %T", e)
	}
}

// CompileString parses and compiles src in one step
func CompileString(src string) (Evaluator, error) {
	e, err := expr.ParseExpr(src)
	if err != nil {
		return nil, err
	}
	return Compile(e), nil
}

func isVarNotFound(err error) bool {
	te, ok := err.(*types.Error)
	return ok && te.Code == types.E_VARNF
}

func compileIdent(name string) Evaluator {
	return func(env *Environment) (types.Value, error) {
		if v, ok := env.Get(name); ok {
			return v, nil
		}
		if name == "this" {
			return types.Undefined, nil
		}
		return nil, types.Errorf(types.E_VARNF, "%s is not defined", name)
	}
}

func compileTemplate(e *expr.TemplateExpr) Evaluator {
	quasis := e.Quasis
	parts := make([]Evaluator, len(e.Exprs))
	for i, x := range e.Exprs {
		parts[i] = Compile(x)
	}
	return func(env *Environment) (types.Value, error) {
		var b strings.Builder
		for i, q := range quasis {
			b.WriteString(q)
			if i < len(parts) {
				v, err := parts[i](env)
				if err != nil {
					return nil, err
				}
				b.WriteString(types.ToString(v))
			}
		}
		return types.NewStr(b.String()), nil
	}
}

// compileElements lowers an array literal body or argument list, expanding spreads
func compileElements(elems []expr.Expr) func(env *Environment) ([]types.Value, error) {
	type part struct {
		eval   Evaluator
		spread bool
	}
	parts := make([]part, len(elems))
	for i, el := range elems {
		if s, ok := el.(*expr.SpreadExpr); ok {
			parts[i] = part{eval: Compile(s.Arg), spread: true}
		} else {
			parts[i] = part{eval: Compile(el)}
		}
	}
	return func(env *Environment) ([]types.Value, error) {
		out := make([]types.Value, 0, len(parts))
		for _, p := range parts {
			v, err := p.eval(env)
			if err != nil {
				return nil, err
			}
			if !p.spread {
				out = append(out, v)
				continue
			}
			list, ok := v.(types.ListValue)
			if !ok {
				return nil, types.Errorf(types.E_TYPE, "%s is not iterable", typeOf(v))
			}
			out = append(out, list.Elements()...)
		}
		return out, nil
	}
}

func compileObject(e *expr.ObjectExpr) Evaluator {
	keys := make([]string, len(e.Props))
	vals := make([]Evaluator, len(e.Props))
	for i, p := range e.Props {
		keys[i] = p.Key
		vals[i] = Compile(p.Value)
	}
	return func(env *Environment) (types.Value, error) {
		m := types.NewMap()
		for i, k := range keys {
			v, err := vals[i](env)
			if err != nil {
				return nil, err
			}
			m = m.Set(k, v)
		}
		return m, nil
	}
}

// errShortCircuit unwinds an optional chain whose guarded value is nullish
var errShortCircuit = errors.New("optional chain short-circuited")

// compileLink compiles one link of a member, index or call chain. A ?. that
// meets a nullish value skips every later link; chainEnd turns that into
// undefined once the whole chain has been unwound.
func compileLink(e expr.Expr) Evaluator {
	switch e := e.(type) {
	case *expr.MemberExpr:
		return compileMember(e)
	case *expr.IndexExpr:
		return compileIndex(e)
	case *expr.CallExpr:
		return compileCall(e)
	}
	return Compile(e)
}

func chainEnd(link Evaluator) Evaluator {
	return func(env *Environment) (types.Value, error) {
		v, err := link(env)
		if err == errShortCircuit {
			return types.Undefined, nil
		}
		return v, err
	}
}

func compileMember(e *expr.MemberExpr) Evaluator {
	object := compileLink(e.Object)
	name, optional := e.Name, e.Optional
	return func(env *Environment) (types.Value, error) {
		obj, err := object(env)
		if err != nil {
			return nil, err
		}
		if optional && types.IsNullish(obj) {
			return nil, errShortCircuit
		}
		return GetMember(obj, name)
	}
}

func compileIndex(e *expr.IndexExpr) Evaluator {
	object, index := compileLink(e.Object), Compile(e.Index)
	optional := e.Optional
	return func(env *Environment) (types.Value, error) {
		obj, err := object(env)
		if err != nil {
			return nil, err
		}
		if optional && types.IsNullish(obj) {
			return nil, errShortCircuit
		}
		idx, err := index(env)
		if err != nil {
			return nil, err
		}
		return GetIndex(obj, idx)
	}
}

func compileCall(e *expr.CallExpr) Evaluator {
	callee := compileLink(e.Callee)
	args := compileElements(e.Args)
	optional := e.Optional
	name := expr.String(e.Callee)
	return func(env *Environment) (types.Value, error) {
		fn, err := callee(env)
		if err != nil {
			return nil, err
		}
		if optional && types.IsNullish(fn) {
			return nil, errShortCircuit
		}
		f, ok := fn.(*types.FuncValue)
		if !ok {
			return nil, types.Errorf(types.E_CALL, "%s is not a function", name)
		}
		vals, err := args(env)
		if err != nil {
			return nil, err
		}
		return f.Call(vals)
	}
}

func compileBinary(e *expr.BinaryExpr) Evaluator {
	left, right := Compile(e.Left), Compile(e.Right)
	op := e.Op
	switch op {
	case "&&", "||", "??":
		return func(env *Environment) (types.Value, error) {
			l, err := left(env)
			if err != nil {
				return nil, err
			}
			if !shouldEvalRight(op, l) {
				return l, nil
			}
			return right(env)
		}
	}
	return func(env *Environment) (types.Value, error) {
		l, err := left(env)
		if err != nil {
			return nil, err
		}
		r, err := right(env)
		if err != nil {
			return nil, err
		}
		return evalBinary(op, l, r)
	}
}

// shouldEvalRight decides whether a short-circuit operator needs its right side
func shouldEvalRight(op string, left types.Value) bool {
	switch op {
	case "&&":
		return left.Truthy()
	case "||":
		return !left.Truthy()
	default: // ??
		return types.IsNullish(left)
	}
}

func compileArrow(e *expr.ArrowExpr) Evaluator {
	params := e.Params
	var body Program
	if e.Body != nil {
		value := Compile(e.Body)
		body = func(env *Environment) (types.Value, error) { return value(env) }
	} else {
		body = CompileStmts(e.Block)
	}
	return func(env *Environment) (types.Value, error) {
		return NewClosure("", params, body, env), nil
	}
}

// NewClosure binds body to env as a callable value. Missing arguments are
// undefined and extra arguments are ignored.
func NewClosure(name string, params []string, body Program, env *Environment) *types.FuncValue {
	return types.NewFunc(name, func(args []types.Value) (types.Value, error) {
		scope := NewNestedEnvironment(env)
		for i, p := range params {
			if i < len(args) {
				scope.Define(p, args[i])
			} else {
				scope.Define(p, types.Undefined)
			}
		}
		return body(scope)
	})
}
