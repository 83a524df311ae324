package types

import "strconv"

// IntValue represents an integral number
type IntValue struct {
	Val int64
}

// Type returns the type code for integers
func (i IntValue) Type() TypeCode {
	return TYPE_INT
}

// String returns the literal representation
func (i IntValue) String() string {
	return strconv.FormatInt(i.Val, 10)
}

// Equal compares numerically, so 3 equals 3.0
func (i IntValue) Equal(other Value) bool {
	switch o := other.(type) {
	case IntValue:
		return i.Val == o.Val
	case FloatValue:
		return float64(i.Val) == o.Val
	}
	return false
}

// Truthy returns false only for 0
func (i IntValue) Truthy() bool {
	return i.Val != 0
}

// NewInt creates a new IntValue
func NewInt(val int64) IntValue {
	return IntValue{Val: val}
}
