package types

import (
	"math"
	"testing"
)

func TestErrorCodes(t *testing.T) {
	tests := []struct {
		code ErrorCode
		name string
	}{
		{E_NONE, "E_NONE"},
		{E_TYPE, "E_TYPE"},
		{E_DIV, "E_DIV"},
		{E_PERM, "E_PERM"},
		{E_VARNF, "E_VARNF"},
		{E_PROPNF, "E_PROPNF"},
		{E_RANGE, "E_RANGE"},
		{E_ARGS, "E_ARGS"},
		{E_CALL, "E_CALL"},
		{E_INVARG, "E_INVARG"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code.String() != tt.name {
				t.Errorf("String() = %q, want %q", tt.code.String(), tt.name)
			}
			if tt.code.Message() == "Unknown error" {
				t.Errorf("%s has no message", tt.name)
			}
		})
	}
}

func TestErrorf(t *testing.T) {
	err := Errorf(E_VARNF, "%s is not defined", "count")
	if err.Error() != "E_VARNF: count is not defined" {
		t.Errorf("Error() = %q", err.Error())
	}
	bare := &Error{Code: E_DIV}
	if bare.Error() != "E_DIV: Division by zero" {
		t.Errorf("Error() = %q", bare.Error())
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"undefined", Undefined, false},
		{"null", Null, false},
		{"zero", NewInt(0), false},
		{"one", NewInt(1), true},
		{"nan", NewFloat(math.NaN()), false},
		{"half", NewFloat(0.5), true},
		{"empty string", NewStr(""), false},
		{"string", NewStr("x"), true},
		{"false", NewBool(false), false},
		{"empty list", NewEmptyList(), true},
		{"empty map", NewMap(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Truthy(); got != tt.want {
				t.Errorf("Truthy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"int float", NewInt(3), NewFloat(3), true},
		{"str case", NewStr("A"), NewStr("a"), false},
		{"null undefined", Null, Undefined, false},
		{"nil undefined", nil, Undefined, true},
		{"lists", NewList([]Value{NewInt(1), NewStr("a")}), NewList([]Value{NewInt(1), NewStr("a")}), true},
		{"list length", NewList([]Value{NewInt(1)}), NewEmptyList(), false},
		{"maps", NewMap().Set("a", NewInt(1)).Set("b", NewInt(2)), NewMap().Set("b", NewInt(2)).Set("a", NewInt(1)), true},
		{"map value", NewMap().Set("a", NewInt(1)), NewMap().Set("a", NewInt(2)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestFuncIdentity(t *testing.T) {
	f := NewFunc("f", func(args []Value) (Value, error) { return NewInt(int64(len(args))), nil })
	g := NewFunc("f", f.Fn)
	if !f.Equal(f) || f.Equal(g) {
		t.Error("functions must compare by identity")
	}
	v, err := f.Call([]Value{Null, Null})
	if err != nil || !v.Equal(NewInt(2)) {
		t.Errorf("Call() = %v, %v", v, err)
	}
}
