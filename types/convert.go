package types

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ToString converts v the way string concatenation does
func ToString(v Value) string {
	switch x := v.(type) {
	case nil:
		return "undefined"
	case StrValue:
		return x.val
	case ListValue:
		parts := make([]string, len(x.elements))
		for i, e := range x.elements {
			if IsNullish(e) {
				continue
			}
			parts[i] = ToString(e)
		}
		return strings.Join(parts, ",")
	case MapValue:
		return "[object Object]"
	default:
		return v.String()
	}
}

// Display converts v to DOM text; null and undefined render as nothing
func Display(v Value) string {
	if IsNullish(v) {
		return ""
	}
	return ToString(v)
}

// ToNumber converts v to a float the way unary plus does
func ToNumber(v Value) float64 {
	switch x := v.(type) {
	case IntValue:
		return float64(x.Val)
	case FloatValue:
		return x.Val
	case BoolValue:
		if x.Val {
			return 1
		}
		return 0
	case NullValue:
		if x.Undefined {
			return math.NaN()
		}
		return 0
	case StrValue:
		s := strings.TrimSpace(x.val)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	return math.NaN()
}

// Equal compares two possibly-nil values
func Equal(a, b Value) bool {
	if a == nil {
		a = Undefined
	}
	if b == nil {
		b = Undefined
	}
	return a.Equal(b)
}

// FromGo converts decoded YAML/JSON data or plain Go values into a Value
func FromGo(x any) (Value, error) {
	switch v := x.(type) {
	case nil:
		return Null, nil
	case Value:
		return v, nil
	case bool:
		return NewBool(v), nil
	case int:
		return NewInt(int64(v)), nil
	case int64:
		return NewInt(v), nil
	case uint64:
		return NewInt(int64(v)), nil
	case float64:
		return NewNumber(v), nil
	case string:
		return NewStr(v), nil
	case []any:
		elems := make([]Value, len(v))
		for i, e := range v {
			ev, err := FromGo(e)
			if err != nil {
				return nil, err
			}
			elems[i] = ev
		}
		return NewList(elems), nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		vals := make([]Value, len(keys))
		for i, k := range keys {
			ev, err := FromGo(v[k])
			if err != nil {
				return nil, err
			}
			vals[i] = ev
		}
		return NewMapFromPairs(keys, vals), nil
	}
	return nil, fmt.Errorf("cannot convert %T to a template value", x)
}

// ToGo converts a Value back into plain Go data suitable for encoding
func ToGo(v Value) any {
	switch x := v.(type) {
	case nil, NullValue:
		return nil
	case BoolValue:
		return x.Val
	case IntValue:
		return x.Val
	case FloatValue:
		return x.Val
	case StrValue:
		return x.val
	case ListValue:
		out := make([]any, len(x.elements))
		for i, e := range x.elements {
			out[i] = ToGo(e)
		}
		return out
	case MapValue:
		out := make(map[string]any, len(x.keys))
		for _, k := range x.keys {
			out[k] = ToGo(x.vals[k])
		}
		return out
	}
	return v.String()
}
