package types

import "fmt"

// ErrorCode classifies a failure raised while evaluating an expression
type ErrorCode int

const (
	E_NONE   ErrorCode = 0
	E_TYPE   ErrorCode = 1
	E_DIV    ErrorCode = 2
	E_PERM   ErrorCode = 3
	E_VARNF  ErrorCode = 4
	E_PROPNF ErrorCode = 5
	E_RANGE  ErrorCode = 6
	E_ARGS   ErrorCode = 7
	E_CALL   ErrorCode = 8
	E_INVARG ErrorCode = 9
)

// String returns the symbolic name of an error code
func (e ErrorCode) String() string {
	switch e {
	case E_NONE:
		return "E_NONE"
	case E_TYPE:
		return "E_TYPE"
	case E_DIV:
		return "E_DIV"
	case E_PERM:
		return "E_PERM"
	case E_VARNF:
		return "E_VARNF"
	case E_PROPNF:
		return "E_PROPNF"
	case E_RANGE:
		return "E_RANGE"
	case E_ARGS:
		return "E_ARGS"
	case E_CALL:
		return "E_CALL"
	case E_INVARG:
		return "E_INVARG"
	default:
		return "E_UNKNOWN"
	}
}

// Message returns a human-readable message for an error code
func (e ErrorCode) Message() string {
	switch e {
	case E_NONE:
		return "No error"
	case E_TYPE:
		return "Type mismatch"
	case E_DIV:
		return "Division by zero"
	case E_PERM:
		return "Permission denied"
	case E_VARNF:
		return "Variable not found"
	case E_PROPNF:
		return "Property not found"
	case E_RANGE:
		return "Range error"
	case E_ARGS:
		return "Incorrect number of arguments"
	case E_CALL:
		return "Value is not callable"
	case E_INVARG:
		return "Invalid argument"
	default:
		return "Unknown error"
	}
}

// Error is an evaluation failure with a classifying code
type Error struct {
	Code ErrorCode
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Code.Message())
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Errorf builds an *Error with a formatted message
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// Value is the interface all template values implement
type Value interface {
	Type() TypeCode
	String() string   // literal representation
	Equal(Value) bool // deep equality
	Truthy() bool     // truthiness used by conditions and logical operators
}
