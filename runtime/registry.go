package runtime

import (
	"fmt"
	"sort"
	"sync"

	"loom/dom"
	"loom/types"
)

// Registry maps tag names to component definitions. It is safe for
// concurrent use.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Define registers def under its tag. A tag can be defined once.
func (r *Registry) Define(def *Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Tag]; exists {
		return fmt.Errorf("tag %q is already defined", def.Tag)
	}
	r.defs[def.Tag] = def
	return nil
}

// Lookup returns the definition registered under tag
func (r *Registry) Lookup(tag string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[tag]
	return def, ok
}

// Create instantiates the component registered under tag
func (r *Registry) Create(tag string, doc *dom.Document, props map[string]types.Value) (*Component, error) {
	def, ok := r.Lookup(tag)
	if !ok {
		return nil, fmt.Errorf("no component registered as %q", tag)
	}
	return def.New(doc, props)
}

// Tags returns the registered tag names, sorted
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]string, 0, len(r.defs))
	for tag := range r.defs {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
