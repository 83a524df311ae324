package runtime

import (
	"fmt"
	"log"
	"sort"

	"loom/codegen"
	"loom/dom"
	"loom/eval"
	"loom/trace"
	"loom/types"
)

// maxFlushPasses bounds the flushes one update may trigger
const maxFlushPasses = 16

// Component is one live instance of a Definition. It is not safe for
// concurrent use.
type Component struct {
	def      *Definition
	doc      *dom.Document
	state    map[string]types.Value
	methods  map[string]*types.FuncValue
	dirty    uint32
	changed  []string
	depth    int
	flushing bool
	host     *dom.Node
	root     codegen.Block
}

// New creates an instance with the given prop values. Props not given take
// their defaults, then hoisted variables are initialized in declaration
// order and every derived value is computed. doc may be nil.
func (d *Definition) New(doc *dom.Document, props map[string]types.Value) (*Component, error) {
	if doc == nil {
		doc = dom.NewDocument()
	}
	c := &Component{
		def:     d,
		doc:     doc,
		state:   make(map[string]types.Value, len(d.Keys)),
		methods: make(map[string]*types.FuncValue, len(d.methods)),
	}
	for _, key := range d.Keys {
		c.state[key] = types.Undefined
	}
	for name := range props {
		if !d.HasProp(name) {
			return nil, fmt.Errorf("%s: unknown prop %q", d.Tag, name)
		}
	}

	env := eval.NewEnvironment(c, d.Globals)
	for name, fn := range d.methods {
		c.methods[name] = fn(env)
	}
	for _, p := range d.Props {
		if v, ok := props[p.Name]; ok {
			c.state[p.Name] = v
			continue
		}
		if p.Default != nil {
			v, err := p.Default(env)
			if err != nil {
				return nil, fmt.Errorf("%s: default for prop %s: %w", d.Tag, p.Name, err)
			}
			c.state[p.Name] = v
		}
	}
	for _, v := range d.Vars {
		if v.Init == nil {
			continue
		}
		val, err := v.Init(env)
		if err != nil {
			return nil, fmt.Errorf("%s: initializing %s: %w", d.Tag, v.Name, err)
		}
		c.state[v.Name] = val
	}
	d.scheduler.Recompute(c.state, nil, c.readEnv, c)
	return c, nil
}

// ============================================================================
// codegen.Host
// ============================================================================

// Get reads a state key or a method
func (c *Component) Get(name string) (types.Value, bool) {
	if v, ok := c.state[name]; ok {
		return v, true
	}
	if m, ok := c.methods[name]; ok {
		return m, true
	}
	return nil, false
}

// Set writes a state key and marks it dirty. Derived values, constants and
// methods cannot be assigned. Writing an equal value is a no-op.
func (c *Component) Set(name string, value types.Value) error {
	switch {
	case c.def.derived[name]:
		return types.Errorf(types.E_PERM, "cannot assign to derived value %s", name)
	case c.def.consts[name]:
		return types.Errorf(types.E_PERM, "assignment to constant %s", name)
	}
	old, ok := c.state[name]
	if !ok {
		if _, isMethod := c.methods[name]; isMethod {
			return types.Errorf(types.E_PERM, "cannot reassign method %s", name)
		}
		return types.Errorf(types.E_VARNF, "%s is not defined", name)
	}
	if value == nil {
		value = types.Undefined
	}
	if types.Equal(old, value) {
		return nil
	}
	c.state[name] = value
	c.invalidate(name)
	return nil
}

// Tag returns the component's tag name
func (c *Component) Tag() string { return c.def.Tag }

// Document returns the document the component renders into
func (c *Component) Document() *dom.Document { return c.doc }

// Globals returns the global registry expressions resolve against
func (c *Component) Globals() *eval.Registry { return c.def.Globals }

// Logger returns the component logger
func (c *Component) Logger() *log.Logger { return c.def.Logger }

// Batch runs fn and flushes once after it returns, however many keys fn
// changed. Batches nest.
func (c *Component) Batch(fn func()) {
	c.depth++
	defer func() {
		c.depth--
		if c.depth == 0 {
			c.Flush()
		}
	}()
	fn()
}

// ============================================================================
// UPDATES
// ============================================================================

func (c *Component) invalidate(name string) {
	c.dirty |= c.def.Program.Bits[name]
	c.changed = append(c.changed, name)
	if c.depth == 0 {
		c.Flush()
	}
}

// readEnv is the environment derived values evaluate in: live state, no
// writes
func (c *Component) readEnv() *eval.Environment {
	return eval.NewEnvironment(readOnly{c}, c.def.Globals)
}

type readOnly struct {
	c *Component
}

func (r readOnly) Get(name string) (types.Value, bool) {
	return r.c.Get(name)
}

func (r readOnly) Set(name string, value types.Value) error {
	return types.Errorf(types.E_PERM, "cannot assign to %s from a derived value", name)
}

// Recomputed implements Reporter
func (c *Component) Recomputed(name string, value types.Value, changed bool) {
	trace.Derived(c.def.Tag, name, value, changed)
}

// Failed implements Reporter
func (c *Component) Failed(name string, err error) {
	c.def.Logger.Printf("%s: derived %s: %v", c.def.Tag, name, err)
}

// Flush recomputes the derived values affected by pending changes, then
// patches the Block tree once with the accumulated dirty mask
func (c *Component) Flush() {
	if c.flushing {
		return
	}
	c.flushing = true
	defer func() { c.flushing = false }()

	for pass := 0; len(c.changed) > 0; pass++ {
		if pass == maxFlushPasses {
			c.def.Logger.Printf("%s: updates did not settle after %d passes", c.def.Tag, pass)
			c.changed = nil
			c.dirty = 0
			return
		}
		changed := c.changed
		c.changed = nil
		for _, name := range c.def.scheduler.Recompute(c.state, changed, c.readEnv, c) {
			c.dirty |= c.def.Program.Bits[name]
		}
		dirty := c.dirty
		c.dirty = 0
		trace.Flush(c.def.Tag, dirty, c.def.Program.Bits.Names(dirty))
		if c.root != nil && dirty != 0 {
			c.root.Patch(dirty, c.Snapshot())
		}
	}
}

// ============================================================================
// PUBLIC API
// ============================================================================

// Snapshot copies the current state
func (c *Component) Snapshot() eval.Snapshot {
	snap := make(eval.Snapshot, len(c.state)+len(c.methods))
	for k, v := range c.methods {
		snap[k] = v
	}
	for k, v := range c.state {
		snap[k] = v
	}
	return snap
}

// State returns the current value of key
func (c *Component) State(key string) types.Value {
	if v, ok := c.state[key]; ok {
		return v
	}
	return types.Undefined
}

// Keys returns the reactive keys in key-space order
func (c *Component) Keys() []string {
	return c.def.Keys
}

// Methods returns the method names, sorted
func (c *Component) Methods() []string {
	names := make([]string, 0, len(c.methods))
	for name := range c.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetProp assigns a declared prop
func (c *Component) SetProp(name string, value types.Value) error {
	if !c.def.HasProp(name) {
		return fmt.Errorf("%s: unknown prop %q", c.def.Tag, name)
	}
	return c.Set(name, value)
}

// Call invokes a method inside a batch
func (c *Component) Call(name string, args ...types.Value) (types.Value, error) {
	m, ok := c.methods[name]
	if !ok {
		return nil, fmt.Errorf("%s: no method %q", c.def.Tag, name)
	}
	var (
		result types.Value
		err    error
	)
	c.Batch(func() { result, err = m.Call(args) })
	return result, err
}

// Host returns the host element, nil before Mount
func (c *Component) Host() *dom.Node {
	return c.host
}

// Mount creates the host element, renders the Block tree into it and
// inserts it under parent before anchor (nil appends)
func (c *Component) Mount(parent, anchor *dom.Node) {
	if c.host != nil {
		return
	}
	c.host = dom.CreateElement(c.def.Tag)
	if c.def.CSS != "" {
		style := dom.CreateElement("style")
		dom.Insert(style, dom.CreateText(c.def.CSS), nil)
		dom.Insert(c.host, style, nil)
	}
	c.root = c.def.Program.Root(codegen.NewFrame(c), c.Snapshot())
	c.root.Mount(c.host, nil)
	if parent != nil {
		dom.Insert(parent, c.host, anchor)
	}
}

// Destroy tears down the Block tree and detaches the host element
func (c *Component) Destroy() {
	if c.root != nil {
		c.root.Destroy()
		c.root = nil
	}
	if c.host != nil {
		dom.Detach(c.host)
	}
}

// HTML renders the host element
func (c *Component) HTML() string {
	if c.host == nil {
		return ""
	}
	return dom.OuterHTML(c.host)
}

// Dispatch fires an event on the n-th element with the given tag inside the
// host and reports whether a listener ran
func (c *Component) Dispatch(tag string, n int, event string, detail any) (bool, error) {
	if c.host == nil {
		return false, fmt.Errorf("%s: not mounted", c.def.Tag)
	}
	targets := dom.FindAll(c.host, tag)
	if n < 0 || n >= len(targets) {
		return false, fmt.Errorf("%s: no <%s> #%d (found %d)", c.def.Tag, tag, n, len(targets))
	}
	handled := c.doc.Dispatch(targets[n], &dom.Event{Type: event, Detail: detail})
	trace.Event(c.def.Tag, event, handled)
	return handled, nil
}
