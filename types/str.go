package types

import "strconv"

// StrValue represents a string
type StrValue struct {
	val string
}

// NewStr creates a new string value
func NewStr(s string) StrValue {
	return StrValue{val: s}
}

// String returns the quoted literal representation
func (s StrValue) String() string {
	return strconv.Quote(s.val)
}

// Type returns the string type code
func (s StrValue) Type() TypeCode {
	return TYPE_STR
}

// Truthy returns false only for the empty string
func (s StrValue) Truthy() bool {
	return len(s.val) > 0
}

// Equal is case-sensitive
func (s StrValue) Equal(other Value) bool {
	if o, ok := other.(StrValue); ok {
		return s.val == o.val
	}
	return false
}

// Value returns the raw string
func (s StrValue) Value() string {
	return s.val
}
