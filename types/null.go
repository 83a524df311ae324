package types

// NullValue represents both null and undefined
type NullValue struct {
	Undefined bool
}

// Undefined is the value of missing keys and uninitialised slots
var Undefined = NullValue{Undefined: true}

// Null is the explicit null literal
var Null = NullValue{}

// Type returns TYPE_UNDEFINED or TYPE_NULL
func (n NullValue) Type() TypeCode {
	if n.Undefined {
		return TYPE_UNDEFINED
	}
	return TYPE_NULL
}

func (n NullValue) String() string {
	if n.Undefined {
		return "undefined"
	}
	return "null"
}

// Equal treats null and undefined as distinct values
func (n NullValue) Equal(other Value) bool {
	o, ok := other.(NullValue)
	return ok && o.Undefined == n.Undefined
}

// Truthy is always false
func (n NullValue) Truthy() bool {
	return false
}

// IsNullish reports whether v is null, undefined or a nil interface
func IsNullish(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(NullValue)
	return ok
}
