package types

import (
	"math"
	"strconv"
)

// FloatValue represents a non-integral (or explicitly fractional) number
type FloatValue struct {
	Val float64
}

// Type returns the type code for floats
func (f FloatValue) Type() TypeCode {
	return TYPE_FLOAT
}

// String prints whole floats without a fraction, the way the DOM shows numbers
func (f FloatValue) String() string {
	switch {
	case math.IsNaN(f.Val):
		return "NaN"
	case math.IsInf(f.Val, 1):
		return "Infinity"
	case math.IsInf(f.Val, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f.Val, 'f', -1, 64)
}

// Equal compares numerically; NaN never equals anything
func (f FloatValue) Equal(other Value) bool {
	switch o := other.(type) {
	case FloatValue:
		return f.Val == o.Val
	case IntValue:
		return f.Val == float64(o.Val)
	}
	return false
}

// Truthy returns false for 0 and NaN
func (f FloatValue) Truthy() bool {
	return f.Val != 0 && !math.IsNaN(f.Val)
}

// NewFloat creates a new FloatValue
func NewFloat(val float64) FloatValue {
	return FloatValue{Val: val}
}

// NewNumber returns an IntValue when val is integral and fits, else a FloatValue
func NewNumber(val float64) Value {
	if val == math.Trunc(val) && !math.IsInf(val, 0) && math.Abs(val) < 1<<53 {
		return IntValue{Val: int64(val)}
	}
	return FloatValue{Val: val}
}
