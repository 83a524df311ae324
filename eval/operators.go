package eval

import (
	"math"
	"strings"

	"loom/types"
)

// ============================================================================
// UNARY OPERATORS
// ============================================================================

// evalUnary applies a prefix operator to an evaluated operand
func evalUnary(op string, operand types.Value) (types.Value, error) {
	switch op {
	case "!":
		return types.NewBool(!operand.Truthy()), nil
	case "-":
		switch v := operand.(type) {
		case types.IntValue:
			return types.NewInt(-v.Val), nil
		case types.FloatValue:
			return types.NewFloat(-v.Val), nil
		}
		return types.NewNumber(-types.ToNumber(operand)), nil
	case "+":
		return types.NewNumber(types.ToNumber(operand)), nil
	case "typeof":
		return types.NewStr(typeOf(operand)), nil
	}
	return nil, types.Errorf(types.E_INVARG, "unknown unary operator %s", op)
}

// typeOf mirrors the typeof operator: lists and null report "object"
func typeOf(v types.Value) string {
	switch v.Type() {
	case types.TYPE_NULL, types.TYPE_LIST:
		return "object"
	}
	return v.Type().String()
}

// ============================================================================
// ARITHMETIC OPERATORS
// ============================================================================

// evalAdd implements left + right.
// A string on either side concatenates; otherwise both sides are numbers.
// INT + INT stays INT, anything involving FLOAT promotes.
func evalAdd(left, right types.Value) (types.Value, error) {
	_, ls := left.(types.StrValue)
	_, rs := right.(types.StrValue)
	if ls || rs {
		return types.NewStr(types.ToString(left) + types.ToString(right)), nil
	}
	if l, ok := left.(types.IntValue); ok {
		if r, ok := right.(types.IntValue); ok {
			return types.NewInt(l.Val + r.Val), nil
		}
	}
	if isComposite(left) || isComposite(right) {
		return types.NewStr(types.ToString(left) + types.ToString(right)), nil
	}
	return types.NewNumber(types.ToNumber(left) + types.ToNumber(right)), nil
}

func isComposite(v types.Value) bool {
	switch v.Type() {
	case types.TYPE_LIST, types.TYPE_MAP, types.TYPE_FUNC:
		return true
	}
	return false
}

// evalArith implements - * / % **
func evalArith(op string, left, right types.Value) (types.Value, error) {
	l, lInt := left.(types.IntValue)
	r, rInt := right.(types.IntValue)
	if lInt && rInt {
		switch op {
		case "-":
			return types.NewInt(l.Val - r.Val), nil
		case "*":
			return types.NewInt(l.Val * r.Val), nil
		case "%":
			if r.Val == 0 {
				return nil, types.Errorf(types.E_DIV, "modulo by zero")
			}
			return types.NewInt(l.Val % r.Val), nil
		}
	}

	a, b := types.ToNumber(left), types.ToNumber(right)
	switch op {
	case "-":
		return types.NewNumber(a - b), nil
	case "*":
		return types.NewNumber(a * b), nil
	case "/":
		if b == 0 {
			return nil, types.Errorf(types.E_DIV, "division by zero")
		}
		return types.NewNumber(a / b), nil
	case "%":
		if b == 0 {
			return nil, types.Errorf(types.E_DIV, "modulo by zero")
		}
		return types.NewNumber(math.Mod(a, b)), nil
	case "**":
		return types.NewNumber(math.Pow(a, b)), nil
	}
	return nil, types.Errorf(types.E_INVARG, "unknown operator %s", op)
}

// ============================================================================
// COMPARISON OPERATORS
// ============================================================================

// strictEqual implements ===: same type family and equal value
func strictEqual(left, right types.Value) bool {
	if left.Type().IsNumeric() && right.Type().IsNumeric() {
		return types.ToNumber(left) == types.ToNumber(right)
	}
	if left.Type() != right.Type() {
		return false
	}
	// composite values are immutable, so structural equality stands in for identity
	return left.Equal(right)
}

// looseEqual implements ==: null and undefined match each other, and a
// number compared with a string or boolean compares numerically
func looseEqual(left, right types.Value) bool {
	if types.IsNullish(left) || types.IsNullish(right) {
		return types.IsNullish(left) && types.IsNullish(right)
	}
	if left.Type() == right.Type() {
		return strictEqual(left, right)
	}
	switch {
	case left.Type().IsNumeric() && right.Type().IsNumeric():
		return strictEqual(left, right)
	case isPrimitive(left) && isPrimitive(right):
		return types.ToNumber(left) == types.ToNumber(right)
	}
	return false
}

func isPrimitive(v types.Value) bool {
	switch v.Type() {
	case types.TYPE_BOOL, types.TYPE_INT, types.TYPE_FLOAT, types.TYPE_STR:
		return true
	}
	return false
}

// evalCompare implements < > <= >=.
// Two strings compare lexically, everything else numerically.
func evalCompare(op string, left, right types.Value) (types.Value, error) {
	ls, lok := left.(types.StrValue)
	rs, rok := right.(types.StrValue)
	var c int
	if lok && rok {
		c = strings.Compare(ls.Value(), rs.Value())
	} else {
		a, b := types.ToNumber(left), types.ToNumber(right)
		if math.IsNaN(a) || math.IsNaN(b) {
			return types.NewBool(false), nil
		}
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
	}
	switch op {
	case "<":
		return types.NewBool(c < 0), nil
	case ">":
		return types.NewBool(c > 0), nil
	case "<=":
		return types.NewBool(c <= 0), nil
	case ">=":
		return types.NewBool(c >= 0), nil
	}
	return nil, types.Errorf(types.E_INVARG, "unknown operator %s", op)
}

// ============================================================================
// DISPATCH
// ============================================================================

// evalBinary applies a non-short-circuit binary operator
func evalBinary(op string, left, right types.Value) (types.Value, error) {
	switch op {
	case "+":
		return evalAdd(left, right)
	case "-", "*", "/", "%", "**":
		return evalArith(op, left, right)
	case "===":
		return types.NewBool(strictEqual(left, right)), nil
	case "!==":
		return types.NewBool(!strictEqual(left, right)), nil
	case "==":
		return types.NewBool(looseEqual(left, right)), nil
	case "!=":
		return types.NewBool(!looseEqual(left, right)), nil
	case "<", ">", "<=", ">=":
		return evalCompare(op, left, right)
	}
	return nil, types.Errorf(types.E_INVARG, "unknown operator %s", op)
}
