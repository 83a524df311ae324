// Package runtime is the reactive shell around generated Blocks: it owns the
// component state, accumulates dirty bits, recomputes derived values in
// dependency order and flushes one patch per update.
package runtime

import (
	"fmt"
	"log"

	"loom/codegen"
	"loom/eval"
	"loom/expr"
	"loom/types"
)

// Prop is a declared input with an optional default
type Prop struct {
	Name    string
	Source  string // default expression, empty for none
	Default eval.Evaluator
}

// Var is a hoisted script-level variable
type Var struct {
	Name   string
	Source string
	Init   eval.Evaluator // nil leaves the variable undefined
	Const  bool
}

// Method is a script function callable from handlers and other methods
type Method struct {
	Name string
	Decl *expr.FuncDecl
	Deps []string
}

// Spec is everything NewDefinition needs to describe a component
type Spec struct {
	Tag          string
	Program      *codegen.Program
	Props        []Prop
	Vars         []Var
	Methods      []Method
	Derived      []Derived
	CSS          string
	Globals      *eval.Registry
	Logger       *log.Logger
	StrictCycles bool
}

// Definition is a compiled component, ready to instantiate
type Definition struct {
	Spec
	Keys      []string
	scheduler *Scheduler
	methods   map[string]func(env *eval.Environment) *types.FuncValue
	derived   map[string]bool
	consts    map[string]bool
	props     map[string]bool
}

// KeySpace orders the reactive keys: props, then derived values, then
// hoisted variables, each in declaration order, duplicates dropped
func KeySpace(props []Prop, derived []Derived, vars []Var) []string {
	seen := map[string]bool{}
	var keys []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			keys = append(keys, name)
		}
	}
	for _, p := range props {
		add(p.Name)
	}
	for _, d := range derived {
		add(d.Name)
	}
	for _, v := range vars {
		add(v.Name)
	}
	return keys
}

// NewDefinition validates spec and builds the derived scheduler. A derived
// cycle is logged unless StrictCycles is set, in which case it is returned
// as a *CycleError.
func NewDefinition(spec Spec) (*Definition, error) {
	if spec.Program == nil {
		return nil, fmt.Errorf("component %s has no program", spec.Tag)
	}
	if spec.Globals == nil {
		spec.Globals = eval.DefaultRegistry()
	}
	if spec.Logger == nil {
		spec.Logger = log.Default()
	}

	sched, err := NewScheduler(spec.Derived, spec.StrictCycles)
	if err != nil {
		return nil, fmt.Errorf("component %s: %w", spec.Tag, err)
	}
	if cycle := sched.Cycle(); len(cycle) > 0 {
		spec.Logger.Printf("%s: warning: derived values %v depend on each other and may be stale", spec.Tag, cycle)
	}

	d := &Definition{
		Spec:      spec,
		Keys:      KeySpace(spec.Props, spec.Derived, spec.Vars),
		scheduler: sched,
		methods:   make(map[string]func(env *eval.Environment) *types.FuncValue),
		derived:   make(map[string]bool),
		consts:    make(map[string]bool),
		props:     make(map[string]bool),
	}
	for _, m := range spec.Methods {
		d.methods[m.Name] = eval.CompileFunc(m.Decl)
	}
	for _, dv := range spec.Derived {
		d.derived[dv.Name] = true
	}
	for _, v := range spec.Vars {
		if v.Const {
			d.consts[v.Name] = true
		}
	}
	for _, p := range spec.Props {
		d.props[p.Name] = true
	}
	return d, nil
}

// Scheduler returns the derived-value scheduler
func (d *Definition) Scheduler() *Scheduler {
	return d.scheduler
}

// Bits returns the reactive key bit assignment
func (d *Definition) Bits() codegen.BitMap {
	return d.Program.Bits
}

// HasProp reports whether name is a declared prop
func (d *Definition) HasProp(name string) bool {
	return d.props[name]
}
