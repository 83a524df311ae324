package eval

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"loom/types"
)

type (
	stringMethod func(s string, args []types.Value) (types.Value, error)
	listMethod   func(l types.ListValue, args []types.Value) (types.Value, error)
	numberMethod func(n float64, args []types.Value) (types.Value, error)
)

// arg returns args[i] or undefined
func arg(args []types.Value, i int) types.Value {
	if i < len(args) {
		return args[i]
	}
	return types.Undefined
}

// intArg returns args[i] truncated to an int, or def when absent
func intArg(args []types.Value, i int, def int) int {
	v := arg(args, i)
	if types.IsNullish(v) {
		return def
	}
	f := types.ToNumber(v)
	if math.IsNaN(f) {
		return 0
	}
	return int(f)
}

// funcArg returns args[i] as a callable or an E_TYPE error naming the method
func funcArg(method string, args []types.Value, i int) (*types.FuncValue, error) {
	if f, ok := arg(args, i).(*types.FuncValue); ok {
		return f, nil
	}
	return nil, types.Errorf(types.E_TYPE, "%s: callback is not a function", method)
}

// relIndex resolves a possibly negative position against length n
func relIndex(i, n int) int {
	if i < 0 {
		i += n
		if i < 0 {
			i = 0
		}
	}
	if i > n {
		i = n
	}
	return i
}

// ============================================================================
// STRING METHODS
// ============================================================================

var stringMethods = map[string]stringMethod{
	"toUpperCase": func(s string, _ []types.Value) (types.Value, error) { return types.NewStr(strings.ToUpper(s)), nil },
	"toLowerCase": func(s string, _ []types.Value) (types.Value, error) { return types.NewStr(strings.ToLower(s)), nil },
	"trim":        func(s string, _ []types.Value) (types.Value, error) { return types.NewStr(strings.TrimSpace(s)), nil },
	"trimStart": func(s string, _ []types.Value) (types.Value, error) {
		return types.NewStr(strings.TrimLeft(s, " \t\r\n")), nil
	},
	"trimEnd": func(s string, _ []types.Value) (types.Value, error) {
		return types.NewStr(strings.TrimRight(s, " \t\r\n")), nil
	},
	"toString": func(s string, _ []types.Value) (types.Value, error) { return types.NewStr(s), nil },
	"includes": func(s string, args []types.Value) (types.Value, error) {
		return types.NewBool(strings.Contains(s, types.ToString(arg(args, 0)))), nil
	},
	"startsWith": func(s string, args []types.Value) (types.Value, error) {
		return types.NewBool(strings.HasPrefix(s, types.ToString(arg(args, 0)))), nil
	},
	"endsWith": func(s string, args []types.Value) (types.Value, error) {
		return types.NewBool(strings.HasSuffix(s, types.ToString(arg(args, 0)))), nil
	},
	"indexOf": func(s string, args []types.Value) (types.Value, error) {
		i := strings.Index(s, types.ToString(arg(args, 0)))
		if i < 0 {
			return types.NewInt(-1), nil
		}
		return types.NewInt(int64(len([]rune(s[:i])))), nil
	},
	"split": func(s string, args []types.Value) (types.Value, error) {
		if types.IsNullish(arg(args, 0)) {
			return types.NewList([]types.Value{types.NewStr(s)}), nil
		}
		var parts []string
		if sep := types.ToString(args[0]); sep == "" {
			for _, r := range s {
				parts = append(parts, string(r))
			}
		} else {
			parts = strings.Split(s, sep)
		}
		out := make([]types.Value, len(parts))
		for i, p := range parts {
			out[i] = types.NewStr(p)
		}
		return types.NewList(out), nil
	},
	"slice": func(s string, args []types.Value) (types.Value, error) {
		r := []rune(s)
		start := relIndex(intArg(args, 0, 0), len(r))
		end := relIndex(intArg(args, 1, len(r)), len(r))
		if start >= end {
			return types.NewStr(""), nil
		}
		return types.NewStr(string(r[start:end])), nil
	},
	"charAt": func(s string, args []types.Value) (types.Value, error) {
		r := []rune(s)
		i := intArg(args, 0, 0)
		if i < 0 || i >= len(r) {
			return types.NewStr(""), nil
		}
		return types.NewStr(string(r[i])), nil
	},
	"replace": func(s string, args []types.Value) (types.Value, error) {
		return types.NewStr(strings.Replace(s, types.ToString(arg(args, 0)), types.ToString(arg(args, 1)), 1)), nil
	},
	"replaceAll": func(s string, args []types.Value) (types.Value, error) {
		return types.NewStr(strings.ReplaceAll(s, types.ToString(arg(args, 0)), types.ToString(arg(args, 1)))), nil
	},
	"repeat": func(s string, args []types.Value) (types.Value, error) {
		n := intArg(args, 0, 0)
		if n < 0 {
			return nil, types.Errorf(types.E_RANGE, "invalid count value: %d", n)
		}
		return types.NewStr(strings.Repeat(s, n)), nil
	},
	"padStart": func(s string, args []types.Value) (types.Value, error) {
		return types.NewStr(pad(s, args, true)), nil
	},
	"padEnd": func(s string, args []types.Value) (types.Value, error) {
		return types.NewStr(pad(s, args, false)), nil
	},
	"concat": func(s string, args []types.Value) (types.Value, error) {
		var b strings.Builder
		b.WriteString(s)
		for _, a := range args {
			b.WriteString(types.ToString(a))
		}
		return types.NewStr(b.String()), nil
	},
}

func pad(s string, args []types.Value, start bool) string {
	width := intArg(args, 0, 0)
	fill := " "
	if !types.IsNullish(arg(args, 1)) {
		fill = types.ToString(args[1])
	}
	n := width - len([]rune(s))
	if n <= 0 || fill == "" {
		return s
	}
	padding := []rune(strings.Repeat(fill, n/len([]rune(fill))+1))[:n]
	if start {
		return string(padding) + s
	}
	return s + string(padding)
}

// ============================================================================
// LIST METHODS
// ============================================================================

var listMethods = map[string]listMethod{
	"map": func(l types.ListValue, args []types.Value) (types.Value, error) {
		fn, err := funcArg("map", args, 0)
		if err != nil {
			return nil, err
		}
		out := make([]types.Value, l.Len())
		for i, e := range l.Elements() {
			if out[i], err = fn.Call([]types.Value{e, types.NewInt(int64(i))}); err != nil {
				return nil, err
			}
		}
		return types.NewList(out), nil
	},
	"filter": func(l types.ListValue, args []types.Value) (types.Value, error) {
		var out []types.Value
		err := eachMatch("filter", l, args, func(_ int, e types.Value) bool {
			out = append(out, e)
			return true
		})
		if err != nil {
			return nil, err
		}
		if out == nil {
			return types.NewEmptyList(), nil
		}
		return types.NewList(out), nil
	},
	"find": func(l types.ListValue, args []types.Value) (types.Value, error) {
		found := types.Value(types.Undefined)
		err := eachMatch("find", l, args, func(_ int, e types.Value) bool {
			found = e
			return false
		})
		return found, err
	},
	"findIndex": func(l types.ListValue, args []types.Value) (types.Value, error) {
		found := -1
		err := eachMatch("findIndex", l, args, func(i int, _ types.Value) bool {
			found = i
			return false
		})
		return types.NewInt(int64(found)), err
	},
	"some": func(l types.ListValue, args []types.Value) (types.Value, error) {
		hit := false
		err := eachMatch("some", l, args, func(int, types.Value) bool {
			hit = true
			return false
		})
		return types.NewBool(hit), err
	},
	"every": func(l types.ListValue, args []types.Value) (types.Value, error) {
		fn, err := funcArg("every", args, 0)
		if err != nil {
			return nil, err
		}
		for i, e := range l.Elements() {
			v, err := fn.Call([]types.Value{e, types.NewInt(int64(i))})
			if err != nil {
				return nil, err
			}
			if !v.Truthy() {
				return types.NewBool(false), nil
			}
		}
		return types.NewBool(true), nil
	},
	"forEach": func(l types.ListValue, args []types.Value) (types.Value, error) {
		fn, err := funcArg("forEach", args, 0)
		if err != nil {
			return nil, err
		}
		for i, e := range l.Elements() {
			if _, err := fn.Call([]types.Value{e, types.NewInt(int64(i))}); err != nil {
				return nil, err
			}
		}
		return types.Undefined, nil
	},
	"reduce": func(l types.ListValue, args []types.Value) (types.Value, error) {
		fn, err := funcArg("reduce", args, 0)
		if err != nil {
			return nil, err
		}
		elems := l.Elements()
		var acc types.Value
		start := 0
		if len(args) > 1 {
			acc = args[1]
		} else {
			if len(elems) == 0 {
				return nil, types.Errorf(types.E_TYPE, "reduce of empty array with no initial value")
			}
			acc, start = elems[0], 1
		}
		for i := start; i < len(elems); i++ {
			if acc, err = fn.Call([]types.Value{acc, elems[i], types.NewInt(int64(i))}); err != nil {
				return nil, err
			}
		}
		return acc, nil
	},
	"join": func(l types.ListValue, args []types.Value) (types.Value, error) {
		sep := ","
		if !types.IsNullish(arg(args, 0)) {
			sep = types.ToString(args[0])
		}
		parts := make([]string, l.Len())
		for i, e := range l.Elements() {
			if !types.IsNullish(e) {
				parts[i] = types.ToString(e)
			}
		}
		return types.NewStr(strings.Join(parts, sep)), nil
	},
	"includes": func(l types.ListValue, args []types.Value) (types.Value, error) {
		return types.NewBool(indexOf(l, arg(args, 0)) >= 0), nil
	},
	"indexOf": func(l types.ListValue, args []types.Value) (types.Value, error) {
		return types.NewInt(int64(indexOf(l, arg(args, 0)))), nil
	},
	"at": func(l types.ListValue, args []types.Value) (types.Value, error) {
		i := intArg(args, 0, 0)
		if i < 0 {
			i += l.Len()
		}
		return l.Get(i), nil
	},
	"slice": func(l types.ListValue, args []types.Value) (types.Value, error) {
		n := l.Len()
		start := relIndex(intArg(args, 0, 0), n)
		end := relIndex(intArg(args, 1, n), n)
		if start >= end {
			return types.NewEmptyList(), nil
		}
		out := make([]types.Value, end-start)
		copy(out, l.Elements()[start:end])
		return types.NewList(out), nil
	},
	"concat": func(l types.ListValue, args []types.Value) (types.Value, error) {
		out := l
		for _, a := range args {
			if other, ok := a.(types.ListValue); ok {
				out = out.Append(other.Elements()...)
			} else {
				out = out.Append(a)
			}
		}
		return out, nil
	},
	// reverse and sort return new lists; values are immutable
	"reverse": func(l types.ListValue, _ []types.Value) (types.Value, error) {
		elems := l.Elements()
		out := make([]types.Value, len(elems))
		for i, e := range elems {
			out[len(elems)-1-i] = e
		}
		return types.NewList(out), nil
	},
	"sort": func(l types.ListValue, args []types.Value) (types.Value, error) {
		out := make([]types.Value, l.Len())
		copy(out, l.Elements())
		var cmpErr error
		less := func(i, j int) bool {
			return types.ToString(out[i]) < types.ToString(out[j])
		}
		if fn, ok := arg(args, 0).(*types.FuncValue); ok {
			less = func(i, j int) bool {
				v, err := fn.Call([]types.Value{out[i], out[j]})
				if err != nil && cmpErr == nil {
					cmpErr = err
				}
				return types.ToNumber(v) < 0
			}
		}
		sort.SliceStable(out, less)
		if cmpErr != nil {
			return nil, cmpErr
		}
		return types.NewList(out), nil
	},
}

// eachMatch calls found for every element the predicate in args[0] accepts,
// stopping when found returns false
func eachMatch(method string, l types.ListValue, args []types.Value, found func(int, types.Value) bool) error {
	fn, err := funcArg(method, args, 0)
	if err != nil {
		return err
	}
	for i, e := range l.Elements() {
		v, err := fn.Call([]types.Value{e, types.NewInt(int64(i))})
		if err != nil {
			return err
		}
		if v.Truthy() && !found(i, e) {
			return nil
		}
	}
	return nil
}

func indexOf(l types.ListValue, v types.Value) int {
	for i, e := range l.Elements() {
		if strictEqual(e, v) {
			return i
		}
	}
	return -1
}

// ============================================================================
// NUMBER METHODS
// ============================================================================

var numberMethods = map[string]numberMethod{
	"toFixed": func(n float64, args []types.Value) (types.Value, error) {
		digits := intArg(args, 0, 0)
		if digits < 0 || digits > 100 {
			return nil, types.Errorf(types.E_RANGE, "toFixed() digits argument must be between 0 and 100")
		}
		return types.NewStr(strconv.FormatFloat(n, 'f', digits, 64)), nil
	},
	"toString": func(n float64, _ []types.Value) (types.Value, error) {
		return types.NewStr(types.ToString(types.NewNumber(n))), nil
	},
}
