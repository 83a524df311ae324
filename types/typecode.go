package types

// TypeCode identifies the runtime type of a template value
type TypeCode int

const (
	TYPE_UNDEFINED TypeCode = iota
	TYPE_NULL
	TYPE_BOOL
	TYPE_INT
	TYPE_FLOAT
	TYPE_STR
	TYPE_LIST
	TYPE_MAP
	TYPE_FUNC
)

// String returns the string representation of the type code
func (t TypeCode) String() string {
	switch t {
	case TYPE_UNDEFINED:
		return "undefined"
	case TYPE_NULL:
		return "null"
	case TYPE_BOOL:
		return "boolean"
	case TYPE_INT, TYPE_FLOAT:
		return "number"
	case TYPE_STR:
		return "string"
	case TYPE_LIST:
		return "array"
	case TYPE_MAP:
		return "object"
	case TYPE_FUNC:
		return "function"
	default:
		return "unknown"
	}
}

// IsNumeric reports whether values of this type take part in arithmetic
func (t TypeCode) IsNumeric() bool {
	return t == TYPE_INT || t == TYPE_FLOAT
}
