// Package script turns the declarations of a component's <script> block into
// prop, variable, method and derived-value descriptors.
package script

import (
	"fmt"

	"loom/expr"
)

// Prop is a declared input. Default is nil when the declaration has no
// initializer.
type Prop struct {
	Name    string
	Default expr.Expr
}

// Var is a hoisted top-level variable
type Var struct {
	Name  string
	Kind  string // let, const or var
	Init  expr.Expr
	Const bool
}

// Method is a top-level function. Deps are the identifiers its body reads or
// writes from the enclosing component.
type Method struct {
	Name string
	Decl *expr.FuncDecl
	Deps []string
}

// Derived is a "$: name = expr" declaration
type Derived struct {
	Name string
	Expr expr.Expr
	Deps []string
}

// Info is everything an Analyzer found in one script block
type Info struct {
	Props   []Prop
	Vars    []Var
	Methods []Method
	Derived []Derived
}

// Analyzer inspects script text. exported names are treated as props even
// when the script declares them without "export".
type Analyzer interface {
	Analyze(source string, exported []string) (*Info, error)
}

// Error is a script problem located by byte offset into the script text
type Error struct {
	Offset int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("script error at offset %d: %s", e.Offset, e.Msg)
}

// Names returns every name Info declares, in declaration group order
func (info *Info) Names() []string {
	var names []string
	for _, p := range info.Props {
		names = append(names, p.Name)
	}
	for _, d := range info.Derived {
		names = append(names, d.Name)
	}
	for _, v := range info.Vars {
		names = append(names, v.Name)
	}
	for _, m := range info.Methods {
		names = append(names, m.Name)
	}
	return names
}
