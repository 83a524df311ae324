package types

import (
	"strconv"
	"strings"
)

// MapValue is an immutable string-keyed record that remembers insertion order
type MapValue struct {
	keys []string
	vals map[string]Value
}

// NewMap creates an empty map
func NewMap() MapValue {
	return MapValue{vals: map[string]Value{}}
}

// NewMapFromPairs builds a map from parallel key/value slices; later keys win
func NewMapFromPairs(keys []string, vals []Value) MapValue {
	m := MapValue{vals: make(map[string]Value, len(keys))}
	for i, k := range keys {
		if _, seen := m.vals[k]; !seen {
			m.keys = append(m.keys, k)
		}
		m.vals[k] = vals[i]
	}
	return m
}

// Type returns the map type code
func (m MapValue) Type() TypeCode {
	return TYPE_MAP
}

// String returns the literal representation, e.g. {a: 1}
func (m MapValue) String() string {
	parts := make([]string, len(m.keys))
	for i, k := range m.keys {
		parts[i] = strconv.Quote(k) + ": " + m.vals[k].String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Equal compares key sets and values, ignoring order
func (m MapValue) Equal(other Value) bool {
	o, ok := other.(MapValue)
	if !ok || len(o.keys) != len(m.keys) {
		return false
	}
	for k, v := range m.vals {
		ov, ok := o.vals[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Truthy is always true
func (m MapValue) Truthy() bool {
	return true
}

// Len returns the number of keys
func (m MapValue) Len() int {
	return len(m.keys)
}

// Get looks up a key
func (m MapValue) Get(key string) (Value, bool) {
	v, ok := m.vals[key]
	return v, ok
}

// Set returns a copy with key bound to v
func (m MapValue) Set(key string, v Value) MapValue {
	out := MapValue{
		keys: make([]string, len(m.keys), len(m.keys)+1),
		vals: make(map[string]Value, len(m.vals)+1),
	}
	copy(out.keys, m.keys)
	for k, val := range m.vals {
		out.vals[k] = val
	}
	if _, ok := out.vals[key]; !ok {
		out.keys = append(out.keys, key)
	}
	out.vals[key] = v
	return out
}

// Keys returns keys in insertion order
func (m MapValue) Keys() []string {
	return m.keys
}
