package runtime

import (
	"fmt"
	"strings"

	"loom/eval"
	"loom/expr"
	"loom/types"
)

// Derived is a reactive key computed from other keys
type Derived struct {
	Name   string
	Source string
	Expr   expr.Expr
	Deps   []string // free identifiers of Expr
}

// CycleError reports derived values that depend on each other
type CycleError struct {
	Names []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("derived values form a cycle: %s", strings.Join(e.Names, ", "))
}

// Reporter receives the outcome of each derived recompute
type Reporter interface {
	Recomputed(name string, value types.Value, changed bool)
	Failed(name string, err error)
}

// Scheduler recomputes derived values in dependency order
type Scheduler struct {
	byName  map[string]*derivedNode
	readers map[string][]string // key -> derived names that read it
	order   []string
	cycle   []string
}

type derivedNode struct {
	Derived
	eval eval.Evaluator
}

// NewScheduler builds the dependency graph and fixes the evaluation order
// with Kahn's algorithm. Names left with unresolved dependencies form a
// cycle; they are ordered last, in declaration order, and may read stale
// values. With strict set the cycle is returned as a *CycleError instead.
func NewScheduler(derived []Derived, strict bool) (*Scheduler, error) {
	s := &Scheduler{
		byName:  make(map[string]*derivedNode, len(derived)),
		readers: make(map[string][]string),
	}
	var names []string
	for _, d := range derived {
		if _, dup := s.byName[d.Name]; dup {
			return nil, fmt.Errorf("derived value %s declared twice", d.Name)
		}
		s.byName[d.Name] = &derivedNode{Derived: d, eval: eval.Compile(d.Expr)}
		names = append(names, d.Name)
	}

	indegree := make(map[string]int, len(names))
	dependents := make(map[string][]string)
	for _, name := range names {
		seen := map[string]bool{}
		for _, dep := range s.byName[name].Deps {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			s.readers[dep] = append(s.readers[dep], name)
			if _, ok := s.byName[dep]; ok {
				indegree[name]++
				dependents[dep] = append(dependents[dep], name)
			}
		}
	}

	var queue []string
	for _, name := range names {
		if indegree[name] == 0 {
			queue = append(queue, name)
		}
	}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		s.order = append(s.order, name)
		for _, next := range dependents[name] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(s.order) < len(names) {
		for _, name := range names {
			if indegree[name] > 0 {
				s.cycle = append(s.cycle, name)
			}
		}
		if strict {
			return nil, &CycleError{Names: s.cycle}
		}
		s.order = append(s.order, s.cycle...)
	}
	return s, nil
}

// Order returns the evaluation order
func (s *Scheduler) Order() []string {
	return s.order
}

// Cycle returns the names caught in a dependency cycle, if any
func (s *Scheduler) Cycle() []string {
	return s.cycle
}

// Affected returns the derived names that read key directly
func (s *Scheduler) Affected(key string) []string {
	return s.readers[key]
}

// Recompute brings derived values in values up to date. seed lists the keys
// that changed; a nil seed recomputes every derived value. Only pending names
// are evaluated, and a name whose value changes marks its readers pending.
// A failing evaluator is reported and its value left as it was. The names
// whose values changed are returned in evaluation order.
func (s *Scheduler) Recompute(values map[string]types.Value, seed []string, env func() *eval.Environment, report Reporter) []string {
	pending := make(map[string]bool)
	if seed == nil {
		for _, name := range s.order {
			pending[name] = true
		}
	}
	for _, key := range seed {
		for _, name := range s.Affected(key) {
			pending[name] = true
		}
	}

	var changed []string
	for _, name := range s.order {
		if !pending[name] {
			continue
		}
		v, err := s.byName[name].eval(env())
		if err != nil {
			report.Failed(name, err)
			continue
		}
		if v == nil {
			v = types.Undefined
		}
		old, had := values[name]
		if had && types.Equal(old, v) {
			report.Recomputed(name, v, false)
			continue
		}
		values[name] = v
		changed = append(changed, name)
		report.Recomputed(name, v, true)
		for _, next := range s.Affected(name) {
			pending[next] = true
		}
	}
	return changed
}
