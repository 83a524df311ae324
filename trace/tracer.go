package trace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"loom/types"
)

// Tracer provides compile and update tracing for debugging
type Tracer struct {
	enabled bool
	filters []string
	writer  io.Writer
	mu      sync.Mutex
}

// Global tracer instance
var globalTracer *Tracer

// Init initializes the global tracer
func Init(enabled bool, filters []string, writer io.Writer) {
	if writer == nil {
		writer = os.Stderr
	}
	globalTracer = &Tracer{
		enabled: enabled,
		filters: filters,
		writer:  writer,
	}
}

// IsEnabled returns whether tracing is enabled
func IsEnabled() bool {
	if globalTracer == nil {
		return false
	}
	return globalTracer.enabled
}

// matchesFilter checks if a component tag matches any of the filter patterns
func (t *Tracer) matchesFilter(tag string) bool {
	if len(t.filters) == 0 {
		return true // No filters = trace everything
	}

	for _, pattern := range t.filters {
		if matched, _ := filepath.Match(pattern, tag); matched {
			return true
		}
	}
	return false
}

func (t *Tracer) printf(tag, format string, args ...any) {
	if !t.enabled || !t.matchesFilter(tag) {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.writer, "[TRACE] <%s> "+format+"\n", append([]any{tag}, args...)...)
}

// Phase logs one finished compiler phase
func (t *Tracer) Phase(tag, phase string, elapsed time.Duration, detail string) {
	t.printf(tag, "PHASE %s %s %s", phase, elapsed.Round(time.Microsecond), detail)
}

// Flush logs the start of an update pass
func (t *Tracer) Flush(tag string, dirty uint32, keys []string) {
	t.printf(tag, "FLUSH dirty=%#b keys=%v", dirty, keys)
}

// Derived logs a recomputed derived value
func (t *Tracer) Derived(tag, name string, value types.Value, changed bool) {
	shown := "undefined"
	if value != nil {
		shown = types.Display(value)
	}
	if len(shown) > 60 {
		shown = shown[:57] + "..."
	}
	t.printf(tag, "DERIVED %s => %s changed=%v", name, shown, changed)
}

// Patch logs a block patch that did work
func (t *Tracer) Patch(tag, block string, dirty uint32) {
	t.printf(tag, "PATCH %s dirty=%#b", block, dirty)
}

// Event logs a dispatched DOM event
func (t *Tracer) Event(tag, event string, handled bool) {
	t.printf(tag, "EVENT %s handled=%v", event, handled)
}

// Global convenience functions

// Phase logs a compiler phase using the global tracer
func Phase(tag, phase string, elapsed time.Duration, detail string) {
	if globalTracer != nil {
		globalTracer.Phase(tag, phase, elapsed, detail)
	}
}

// Flush logs an update pass using the global tracer
func Flush(tag string, dirty uint32, keys []string) {
	if globalTracer != nil {
		globalTracer.Flush(tag, dirty, keys)
	}
}

// Derived logs a derived recompute using the global tracer
func Derived(tag, name string, value types.Value, changed bool) {
	if globalTracer != nil {
		globalTracer.Derived(tag, name, value, changed)
	}
}

// Patch logs a block patch using the global tracer
func Patch(tag, block string, dirty uint32) {
	if globalTracer != nil {
		globalTracer.Patch(tag, block, dirty)
	}
}

// Event logs a dispatched event using the global tracer
func Event(tag, event string, handled bool) {
	if globalTracer != nil {
		globalTracer.Event(tag, event, handled)
	}
}
