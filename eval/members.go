package eval

import (
	"unicode/utf8"

	"loom/types"
)

// GetMember implements obj.name. Unknown properties read as undefined;
// reading through null or undefined is an error.
func GetMember(obj types.Value, name string) (types.Value, error) {
	switch o := obj.(type) {
	case types.MapValue:
		if v, ok := o.Get(name); ok {
			return v, nil
		}
		return types.Undefined, nil
	case types.ListValue:
		if name == "length" {
			return types.NewInt(int64(o.Len())), nil
		}
		if m, ok := listMethods[name]; ok {
			return bind(name, func(args []types.Value) (types.Value, error) { return m(o, args) }), nil
		}
	case types.StrValue:
		if name == "length" {
			return types.NewInt(int64(utf8.RuneCountInString(o.Value()))), nil
		}
		if m, ok := stringMethods[name]; ok {
			return bind(name, func(args []types.Value) (types.Value, error) { return m(o.Value(), args) }), nil
		}
	case types.IntValue, types.FloatValue:
		if m, ok := numberMethods[name]; ok {
			return bind(name, func(args []types.Value) (types.Value, error) { return m(types.ToNumber(o), args) }), nil
		}
	case types.BoolValue:
		if name == "toString" {
			return bind(name, func([]types.Value) (types.Value, error) { return types.NewStr(o.String()), nil }), nil
		}
	case types.NullValue:
		return nil, types.Errorf(types.E_PROPNF, "cannot read properties of %s (reading '%s')", o, name)
	case *types.FuncValue:
		if name == "name" {
			return types.NewStr(o.Name), nil
		}
	}
	return types.Undefined, nil
}

// GetIndex implements obj[idx]
func GetIndex(obj types.Value, idx types.Value) (types.Value, error) {
	switch o := obj.(type) {
	case types.ListValue:
		if i, ok := toIndex(idx); ok {
			return o.Get(i), nil
		}
	case types.StrValue:
		if i, ok := toIndex(idx); ok {
			r := []rune(o.Value())
			if i < len(r) {
				return types.NewStr(string(r[i])), nil
			}
			return types.Undefined, nil
		}
	}
	return GetMember(obj, types.ToString(idx))
}

func bind(name string, fn types.NativeFunc) *types.FuncValue {
	return types.NewFunc(name, fn)
}
