package eval

import "loom/types"

// Store is the reactive state a root environment reads through and writes to
type Store interface {
	Get(name string) (types.Value, bool)
	Set(name string, value types.Value) error
}

// Snapshot is a read-only Store over a plain map. Render-time evaluation
// runs against a snapshot, so assignments there are rejected.
type Snapshot map[string]types.Value

// Get looks up name in the snapshot
func (s Snapshot) Get(name string) (types.Value, bool) {
	v, ok := s[name]
	return v, ok
}

// Set always fails: snapshots are immutable
func (s Snapshot) Set(name string, value types.Value) error {
	return types.Errorf(types.E_PERM, "cannot assign to %s while rendering", name)
}

// Environment manages variable bindings with lexical scoping.
// The root scope falls back to a Store and then to the global registry.
type Environment struct {
	vars    map[string]types.Value
	consts  map[string]bool
	parent  *Environment
	store   Store
	globals *Registry
}

// NewEnvironment creates a root environment backed by store (may be nil) and
// globals (nil means the default registry)
func NewEnvironment(store Store, globals *Registry) *Environment {
	if globals == nil {
		globals = DefaultRegistry()
	}
	return &Environment{
		vars:    make(map[string]types.Value),
		store:   store,
		globals: globals,
	}
}

// NewNestedEnvironment creates a new environment with a parent scope
func NewNestedEnvironment(parent *Environment) *Environment {
	return &Environment{
		vars:   make(map[string]types.Value),
		parent: parent,
	}
}

// Get looks up a variable by name.
// Searches current scope, then parent scopes, then the store and globals.
func (e *Environment) Get(name string) (types.Value, bool) {
	if val, ok := e.vars[name]; ok {
		return val, true
	}
	if e.parent != nil {
		return e.parent.Get(name)
	}
	if e.store != nil {
		if val, ok := e.store.Get(name); ok {
			return val, true
		}
	}
	if e.globals != nil {
		return e.globals.Get(name)
	}
	return nil, false
}

// Define creates a new variable in the current scope
func (e *Environment) Define(name string, value types.Value) {
	e.vars[name] = value
	if e.consts != nil {
		delete(e.consts, name)
	}
}

// DefineConst creates a variable that Assign refuses to overwrite
func (e *Environment) DefineConst(name string, value types.Value) {
	e.vars[name] = value
	if e.consts == nil {
		e.consts = make(map[string]bool)
	}
	e.consts[name] = true
}

// Assign updates an existing binding: the nearest scope that defines name,
// else the root store
func (e *Environment) Assign(name string, value types.Value) error {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.vars[name]; ok {
			if env.consts[name] {
				return types.Errorf(types.E_PERM, "assignment to constant %s", name)
			}
			env.vars[name] = value
			return nil
		}
		if env.parent == nil && env.store != nil {
			if _, ok := env.store.Get(name); ok {
				return env.store.Set(name, value)
			}
		}
	}
	return types.Errorf(types.E_VARNF, "%s is not defined", name)
}
