package eval

import (
	"strings"

	"loom/expr"
	"loom/types"
)

// updater computes the new value of an assignment target from its old value
type updater func(old types.Value) (types.Value, error)

// lvalue is a compiled assignment target. Values are immutable, so writing
// obj.a.b rebuilds obj and reassigns the root binding.
type lvalue func(env *Environment, fn updater) error

func compileTarget(e expr.Expr) lvalue {
	switch t := e.(type) {
	case *expr.IdentExpr:
		name := t.Name
		return func(env *Environment, fn updater) error {
			old, ok := env.Get(name)
			if !ok {
				old = types.Undefined
			}
			nv, err := fn(old)
			if err != nil {
				return err
			}
			return env.Assign(name, nv)
		}
	case *expr.MemberExpr:
		parent := compileTarget(t.Object)
		name := t.Name
		return func(env *Environment, fn updater) error {
			return parent(env, func(obj types.Value) (types.Value, error) {
				return setMember(obj, name, fn)
			})
		}
	case *expr.IndexExpr:
		parent := compileTarget(t.Object)
		index := Compile(t.Index)
		return func(env *Environment, fn updater) error {
			idx, err := index(env)
			if err != nil {
				return err
			}
			return parent(env, func(obj types.Value) (types.Value, error) {
				return setIndex(obj, idx, fn)
			})
		}
	}
	src := expr.String(e)
	return func(*Environment, updater) error {
		return types.Errorf(types.E_INVARG, "cannot assign to %s", src)
	}
}

func compileAssign(e *expr.AssignExpr) Evaluator {
	target := compileTarget(e.Target)
	value := Compile(e.Value)
	op := e.Op

	switch op {
	case "=":
		return func(env *Environment) (types.Value, error) {
			v, err := value(env)
			if err != nil {
				return nil, err
			}
			if err := target(env, func(types.Value) (types.Value, error) { return v, nil }); err != nil {
				return nil, err
			}
			return v, nil
		}
	case "&&=", "||=", "??=":
		read := Compile(e.Target)
		short := strings.TrimSuffix(op, "=")
		return func(env *Environment) (types.Value, error) {
			cur, err := read(env)
			if err != nil {
				return nil, err
			}
			if !shouldEvalRight(short, cur) {
				return cur, nil
			}
			v, err := value(env)
			if err != nil {
				return nil, err
			}
			if err := target(env, func(types.Value) (types.Value, error) { return v, nil }); err != nil {
				return nil, err
			}
			return v, nil
		}
	}

	binop := strings.TrimSuffix(op, "=")
	return func(env *Environment) (types.Value, error) {
		var result types.Value
		err := target(env, func(old types.Value) (types.Value, error) {
			r, err := value(env)
			if err != nil {
				return nil, err
			}
			nv, err := evalBinary(binop, old, r)
			if err != nil {
				return nil, err
			}
			result = nv
			return nv, nil
		})
		if err != nil {
			return nil, err
		}
		return result, nil
	}
}

func compileUpdate(e *expr.UpdateExpr) Evaluator {
	target := compileTarget(e.Target)
	prefix := e.Prefix
	delta := int64(1)
	if e.Op == "--" {
		delta = -1
	}
	return func(env *Environment) (types.Value, error) {
		var before, after types.Value
		err := target(env, func(old types.Value) (types.Value, error) {
			if n, ok := old.(types.IntValue); ok {
				before, after = n, types.NewInt(n.Val+delta)
			} else {
				f := types.ToNumber(old)
				before, after = types.NewNumber(f), types.NewNumber(f+float64(delta))
			}
			return after, nil
		})
		if err != nil {
			return nil, err
		}
		if prefix {
			return after, nil
		}
		return before, nil
	}
}

// setMember returns a copy of obj with property name replaced by fn(old)
func setMember(obj types.Value, name string, fn updater) (types.Value, error) {
	switch o := obj.(type) {
	case types.MapValue:
		old, ok := o.Get(name)
		if !ok {
			old = types.Undefined
		}
		nv, err := fn(old)
		if err != nil {
			return nil, err
		}
		return o.Set(name, nv), nil
	case types.NullValue:
		return nil, types.Errorf(types.E_PROPNF, "cannot set property %s of %s", name, o)
	}
	return nil, types.Errorf(types.E_TYPE, "cannot set property %s on %s", name, typeOf(obj))
}

// setIndex returns a copy of obj with element idx replaced by fn(old)
func setIndex(obj types.Value, idx types.Value, fn updater) (types.Value, error) {
	switch o := obj.(type) {
	case types.ListValue:
		i, ok := toIndex(idx)
		if !ok {
			return nil, types.Errorf(types.E_RANGE, "invalid list index %s", types.ToString(idx))
		}
		nv, err := fn(o.Get(i))
		if err != nil {
			return nil, err
		}
		return o.Set(i, nv), nil
	case types.MapValue:
		return setMember(o, types.ToString(idx), fn)
	}
	return setMember(obj, types.ToString(idx), fn)
}

// toIndex converts a non-negative integral number to a list index
func toIndex(v types.Value) (int, bool) {
	switch n := v.(type) {
	case types.IntValue:
		return int(n.Val), n.Val >= 0
	case types.FloatValue:
		i := int(n.Val)
		return i, n.Val >= 0 && float64(i) == n.Val
	}
	return 0, false
}
