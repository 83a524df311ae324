package codegen

import (
	"log"

	"loom/dom"
	"loom/eval"
	"loom/types"
)

// Block is the unit every template node compiles to. Mount runs once,
// Patch any number of times, Destroy once; a destroyed Block ignores
// further calls.
type Block interface {
	Mount(parent, anchor *dom.Node)
	Patch(dirty uint32, state eval.Snapshot)
	Destroy()
}

// Factory creates a Block for one frame. Mount renders against state.
type Factory func(f *Frame, state eval.Snapshot) Block

// Host is the component a Block tree belongs to. Event handlers read and
// write state through it and run inside Batch so their writes flush once.
type Host interface {
	eval.Store
	Tag() string
	Document() *dom.Document
	Globals() *eval.Registry
	Logger() *log.Logger
	Batch(fn func())
}

// Frame carries the host and the each-loop locals visible to a Block
type Frame struct {
	Host   Host
	parent *Frame
	locals map[string]types.Value
}

// NewFrame creates the root frame for host
func NewFrame(host Host) *Frame {
	return &Frame{Host: host}
}

// With returns a child frame adding locals
func (f *Frame) With(locals map[string]types.Value) *Frame {
	return &Frame{Host: f.Host, parent: f, locals: locals}
}

// Local looks up a loop local visible from f
func (f *Frame) Local(name string) (types.Value, bool) {
	for fr := f; fr != nil; fr = fr.parent {
		if v, ok := fr.locals[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Env builds an evaluation environment rooted at store with the frame's
// locals layered on top, outermost loop first
func (f *Frame) Env(store eval.Store) *eval.Environment {
	env := eval.NewEnvironment(store, f.Host.Globals())
	var chain []*Frame
	for fr := f; fr != nil; fr = fr.parent {
		if len(fr.locals) > 0 {
			chain = append(chain, fr)
		}
	}
	for i := len(chain) - 1; i >= 0; i-- {
		env = eval.NewNestedEnvironment(env)
		for name, v := range chain[i].locals {
			env.Define(name, v)
		}
	}
	return env
}

// evaluate runs ev against state. Failures are logged and read as undefined.
func (f *Frame) evaluate(ev eval.Evaluator, state eval.Snapshot, source string) types.Value {
	v, err := ev(f.Env(state))
	if err != nil {
		f.Host.Logger().Printf("%s: evaluating {%s}: %v", f.Host.Tag(), source, err)
		return types.Undefined
	}
	if v == nil {
		return types.Undefined
	}
	return v
}

func (f *Frame) logf(format string, args ...any) {
	f.Host.Logger().Printf("%s: "+format, append([]any{f.Host.Tag()}, args...)...)
}
