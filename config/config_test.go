package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"loom/compiler"
)

const sample = `
dev: true
strict_cycles: true
trace:
  enabled: true
  filters: ["x-*"]
components:
  - input: src/counter.loom
    tag: x-counter
    props: [start]
    derived:
      - name: double
        expr: start * 2
  - input: src/todo.loom
    tag: todo-list
    out: dist/todo.js
    mode: module
`

func TestParse(t *testing.T) {
	p, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(p.Components) != 2 {
		t.Fatalf("Components = %+v", p.Components)
	}
	if p.Serve.Addr != "localhost:8080" {
		t.Errorf("Serve.Addr = %q", p.Serve.Addr)
	}
	if !p.Trace.Enabled || !reflect.DeepEqual(p.Trace.Filters, []string{"x-*"}) {
		t.Errorf("Trace = %+v", p.Trace)
	}

	opts := p.Options(p.Components[0])
	want := compiler.Options{
		Tag:          "x-counter",
		Props:        []string{"start"},
		Derived:      []compiler.DerivedOption{{Name: "double", Expr: "start * 2"}},
		Dev:          true,
		StrictCycles: true,
	}
	if !reflect.DeepEqual(opts, want) {
		t.Errorf("Options() = %+v, want %+v", opts, want)
	}
	if p.Components[1].Mode != compiler.ModeModule {
		t.Errorf("Mode = %q", p.Components[1].Mode)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"empty", "", "empty project file"},
		{"no components", "dev: true\n", "Components is required"},
		{"bad tag", "components:\n  - {input: a.loom, tag: Counter}\n", "not a valid custom element name"},
		{"missing input", "components:\n  - {tag: x-a}\n", "Input is required"},
		{"bad mode", "components:\n  - {input: a.loom, tag: x-a, mode: bundle}\n", "must be one of"},
		{"bad prop", "components:\n  - {input: a.loom, tag: x-a, props: [a-b]}\n", "is not an identifier"},
		{"unknown key", "componets: []\n", "not found"},
		{"duplicate tag", "components:\n  - {input: a.loom, tag: x-a}\n  - {input: b.loom, tag: x-a}\n", "listed twice"},
		{"bad addr", "serve: {addr: nope}\ncomponents:\n  - {input: a.loom, tag: x-a}\n", "Addr failed hostname_port"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Parse() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestLoadResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, DefaultFile)
	if err := os.WriteFile(file, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(file)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := p.Path("src/counter.loom"); got != filepath.Join(dir, "src", "counter.loom") {
		t.Errorf("Path() = %q", got)
	}
	if got := p.OutPath(p.Components[0]); got != filepath.Join(dir, "src", "counter.js") {
		t.Errorf("OutPath(counter) = %q", got)
	}
	if got := p.OutPath(p.Components[1]); got != filepath.Join(dir, "dist", "todo.js") {
		t.Errorf("OutPath(todo) = %q", got)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load() of a missing file succeeded")
	}
}
