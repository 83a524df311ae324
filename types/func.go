package types

// NativeFunc is the Go signature every callable value wraps
type NativeFunc func(args []Value) (Value, error)

// FuncValue is a callable: a builtin, a component method or an arrow function
type FuncValue struct {
	Name string
	Fn   NativeFunc
}

// NewFunc wraps fn as a callable value
func NewFunc(name string, fn NativeFunc) *FuncValue {
	return &FuncValue{Name: name, Fn: fn}
}

// Type returns the function type code
func (f *FuncValue) Type() TypeCode {
	return TYPE_FUNC
}

func (f *FuncValue) String() string {
	if f.Name == "" {
		return "[function]"
	}
	return "[function " + f.Name + "]"
}

// Equal is identity
func (f *FuncValue) Equal(other Value) bool {
	o, ok := other.(*FuncValue)
	return ok && o == f
}

// Truthy is always true
func (f *FuncValue) Truthy() bool {
	return true
}

// Call invokes the function
func (f *FuncValue) Call(args []Value) (Value, error) {
	v, err := f.Fn(args)
	if err != nil {
		return Undefined, err
	}
	if v == nil {
		return Undefined, nil
	}
	return v, nil
}
