package types

import "strings"

// ListValue is an immutable ordered sequence; mutators return a new list
type ListValue struct {
	elements []Value
}

// NewList creates a new list value that owns elements
func NewList(elements []Value) ListValue {
	return ListValue{elements: elements}
}

// NewEmptyList creates an empty list
func NewEmptyList() ListValue {
	return ListValue{elements: []Value{}}
}

// Type returns the list type code
func (l ListValue) Type() TypeCode {
	return TYPE_LIST
}

// String returns the literal representation, e.g. [1, "a"]
func (l ListValue) String() string {
	parts := make([]string, len(l.elements))
	for i, e := range l.elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Equal compares element-wise
func (l ListValue) Equal(other Value) bool {
	o, ok := other.(ListValue)
	if !ok || len(o.elements) != len(l.elements) {
		return false
	}
	for i := range l.elements {
		if !l.elements[i].Equal(o.elements[i]) {
			return false
		}
	}
	return true
}

// Truthy is always true, even for an empty list
func (l ListValue) Truthy() bool {
	return true
}

// Len returns the number of elements
func (l ListValue) Len() int {
	return len(l.elements)
}

// Get returns the element at the 0-based index, or Undefined when out of range
func (l ListValue) Get(i int) Value {
	if i < 0 || i >= len(l.elements) {
		return Undefined
	}
	return l.elements[i]
}

// Set returns a copy with index i replaced; the list grows with Undefined holes
func (l ListValue) Set(i int, v Value) ListValue {
	n := len(l.elements)
	if i >= n {
		n = i + 1
	}
	elems := make([]Value, n)
	copy(elems, l.elements)
	for j := len(l.elements); j < n; j++ {
		elems[j] = Undefined
	}
	elems[i] = v
	return ListValue{elements: elems}
}

// Append returns a copy with vs appended
func (l ListValue) Append(vs ...Value) ListValue {
	elems := make([]Value, 0, len(l.elements)+len(vs))
	elems = append(elems, l.elements...)
	elems = append(elems, vs...)
	return ListValue{elements: elems}
}

// Elements exposes the backing slice for iteration; callers must not mutate it
func (l ListValue) Elements() []Value {
	return l.elements
}
