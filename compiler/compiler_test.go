package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"testing"

	"loom/codegen"
	"loom/css"
	"loom/dom"
	"loom/parser"
	"loom/runtime"
	"loom/trace"
	"loom/types"
)

const counter = `<script>
export let count = 0
function inc() { count += 1 }
</script>
<button on:click={inc}>{count}</button>
`

func moduleOptions(tag string, logs *bytes.Buffer) Options {
	return Options{Tag: tag, Mode: ModeModule, Logger: log.New(logs, "", 0)}
}

func mount(t *testing.T, art *Artifact) *runtime.Component {
	t.Helper()
	c, err := art.Definition.New(nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	c.Mount(nil, nil)
	return c
}

func TestCompileCounter(t *testing.T) {
	var logs bytes.Buffer
	art, err := Compile(counter, moduleOptions("x-counter", &logs))
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	c := mount(t, art)
	if got := c.HTML(); got != "<x-counter><button>0</button></x-counter>" {
		t.Fatalf("HTML() = %q", got)
	}
	for i := 0; i < 2; i++ {
		if _, err := c.Dispatch("button", 0, "click", nil); err != nil {
			t.Fatal(err)
		}
	}
	if got := dom.TextContent(c.Host()); got != "2" {
		t.Errorf("text after two clicks = %q", got)
	}
	if art.Definition.Bits()["count"] != 1 {
		t.Errorf("count bit = %d", art.Definition.Bits()["count"])
	}
}

func TestCompileEndToEndPatch(t *testing.T) {
	var logs bytes.Buffer
	art, err := Compile("<p>{count}</p>", Options{
		Tag:    "x-p",
		Mode:   ModeModule,
		Props:  []string{"count"},
		Logger: log.New(&logs, "", 0),
	})
	if err != nil {
		t.Fatal(err)
	}
	c := mount(t, art)
	if err := c.SetProp("count", types.NewInt(5)); err != nil {
		t.Fatal(err)
	}
	if got := dom.TextContent(c.Host()); got != "5" {
		t.Errorf("text = %q, want 5", got)
	}
}

func TestCompileRegisters(t *testing.T) {
	var logs bytes.Buffer
	reg := runtime.NewRegistry()
	opts := Options{Tag: "x-counter", Registry: reg, Logger: log.New(&logs, "", 0)}

	art, err := Compile(counter, opts)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if art.Mode != ModeRegister {
		t.Errorf("Mode = %q", art.Mode)
	}
	if def, ok := reg.Lookup("x-counter"); !ok || def != art.Definition {
		t.Error("definition not registered")
	}
	if !strings.Contains(art.Code, `customElements.define("x-counter", XCounter);`) {
		t.Errorf("Code missing registration:\n%s", art.Code)
	}
	if _, err := Compile(counter, opts); err == nil {
		t.Error("registering the same tag twice succeeded")
	}
}

func TestModuleCode(t *testing.T) {
	var logs bytes.Buffer
	art, err := Compile(counter, moduleOptions("x-counter", &logs))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"export default XCounter;",
		"function create_root(ctx, state)",
		"static props = { count: () => 0 };",
		"inc() { count += 1 }",
	} {
		if !strings.Contains(art.Code, want) {
			t.Errorf("Code missing %q:\n%s", want, art.Code)
		}
	}
	if strings.Contains(art.Code, "customElements.define") {
		t.Error("module code registers itself")
	}
}

func TestOptionsValidation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want string
	}{
		{"missing tag", Options{}, "Tag is required"},
		{"no hyphen", Options{Tag: "counter"}, "not a valid custom element name"},
		{"uppercase", Options{Tag: "X-Counter"}, "not a valid custom element name"},
		{"reserved", Options{Tag: "font-face"}, "not a valid custom element name"},
		{"mode", Options{Tag: "x-a", Mode: "bundle"}, "must be one of"},
		{"prop name", Options{Tag: "x-a", Props: []string{"max-count"}}, "is not an identifier"},
		{"derived name", Options{Tag: "x-a", Derived: []DerivedOption{{Name: "", Expr: "1"}}}, "Name is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile("<p></p>", tt.opts)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Compile() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestIsCustomElementName(t *testing.T) {
	for tag, want := range map[string]bool{
		"x-a":            true,
		"todo-list":      true,
		"my-el.v2":       true,
		"todo":           false,
		"-todo":          false,
		"1-todo":         false,
		"Todo-list":      false,
		"annotation-xml": false,
	} {
		if got := IsCustomElementName(tag); got != want {
			t.Errorf("IsCustomElementName(%q) = %v, want %v", tag, got, want)
		}
	}
}

func TestCompileFailuresAreTotal(t *testing.T) {
	failing := css.BuilderFunc(func(ctx context.Context, in css.Input) (string, error) {
		return "", fmt.Errorf("tailwind exited 1")
	})

	tests := []struct {
		name   string
		source string
		cssB   css.Builder
		check  func(error) bool
	}{
		{"lex", "<p>{'open</p>", nil, func(err error) bool {
			var le *parser.LexError
			return errors.As(err, &le)
		}},
		{"parse", "<div><p></div>", nil, func(err error) bool {
			var pe *parser.ParseError
			return errors.As(err, &pe)
		}},
		{"script", "<script>let = 1</script><p></p>", nil, func(err error) bool {
			return strings.Contains(err.Error(), "script error")
		}},
		{"css builder", "<p class=\"a\">x</p>", failing, func(err error) bool {
			return strings.Contains(err.Error(), "tailwind exited 1")
		}},
		{"bad style", "<style>.a{</style><p></p>", nil, func(err error) bool {
			var ce *css.Error
			return errors.As(err, &ce)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			reg := runtime.NewRegistry()
			art, err := Compile(tt.source, Options{Tag: "x-fail", CSS: tt.cssB, Registry: reg, Logger: log.New(&logs, "", 0)})
			if err == nil || art != nil {
				t.Fatalf("Compile() = %v, %v; want only an error", art, err)
			}
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
			if len(reg.Tags()) != 0 {
				t.Errorf("failed compilation registered %v", reg.Tags())
			}
		})
	}
}

func TestDerivedOptions(t *testing.T) {
	var logs bytes.Buffer
	opts := moduleOptions("x-double", &logs)
	opts.Props = []string{"n"}
	opts.Derived = []DerivedOption{{Name: "double", Expr: "n * 2"}, {Name: "quad", Expr: "double * 2"}}

	art, err := Compile("<p>{quad}</p>", opts)
	if err != nil {
		t.Fatal(err)
	}
	c := mount(t, art)
	if err := c.SetProp("n", types.NewInt(3)); err != nil {
		t.Fatal(err)
	}
	if got := dom.TextContent(c.Host()); got != "12" {
		t.Errorf("quad = %q, want 12", got)
	}

	opts.Derived = []DerivedOption{{Name: "n", Expr: "1"}}
	if _, err := Compile("<p>{n}</p>", opts); err == nil {
		t.Error("derived option shadowing a prop compiled")
	}
	opts.Derived = []DerivedOption{{Name: "d", Expr: "1 +"}}
	if _, err := Compile("<p>{d}</p>", opts); err == nil {
		t.Error("malformed derived expression compiled")
	}
}

func TestStrictCycles(t *testing.T) {
	src := "<script>\n$: a = b + 1\n$: b = a + 1\n</script><p>{a}</p>"

	var logs bytes.Buffer
	opts := moduleOptions("x-cycle", &logs)
	if _, err := Compile(src, opts); err != nil {
		t.Fatalf("lenient Compile() error = %v", err)
	}
	if !strings.Contains(logs.String(), "depend on each other") {
		t.Errorf("cycle not logged: %q", logs.String())
	}

	opts.StrictCycles = true
	_, err := Compile(src, opts)
	var cycle *runtime.CycleError
	if !errors.As(err, &cycle) {
		t.Errorf("strict Compile() error = %v, want *runtime.CycleError", err)
	}
}

func TestDevWarnings(t *testing.T) {
	var logs bytes.Buffer
	opts := moduleOptions("x-dev", &logs)
	opts.Dev = true
	opts.Props = []string{"count"}

	art, err := Compile("<p title={Math.max(count, 1)}>{cuont}{cnt}</p>", opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(art.Warnings) != 2 {
		t.Fatalf("Warnings = %q", art.Warnings)
	}
	for _, w := range art.Warnings {
		if !strings.Contains(w, "did you mean count?") {
			t.Errorf("warning %q has no suggestion", w)
		}
	}
	if !strings.Contains(logs.String(), "warning: cuont is not declared") {
		t.Errorf("log = %q", logs.String())
	}

	props := make([]string, codegen.MaxKeys+1)
	for i := range props {
		props[i] = fmt.Sprintf("p%d", i)
	}
	opts.Props = props
	art, err = Compile("<p></p>", opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(art.Warnings) != 1 || !strings.Contains(art.Warnings[0], "[p31]") {
		t.Errorf("Warnings = %q", art.Warnings)
	}
}

func TestCSSIsPurgedAndEmbedded(t *testing.T) {
	var logs bytes.Buffer
	src := `<style>.a{color:red} .b{color:blue} .on{x:1}</style>
<p class="a" class:on={active}>x</p>`
	opts := moduleOptions("x-css", &logs)
	opts.Props = []string{"active"}
	art, err := Compile(src, opts)
	if err != nil {
		t.Fatal(err)
	}
	if art.CSS != ".a{color:red}\n.on{x:1}" {
		t.Errorf("CSS = %q", art.CSS)
	}
	c := mount(t, art)
	if style := dom.Find(c.Host(), "style"); style == nil || dom.TextContent(style) != art.CSS {
		t.Errorf("HTML() = %q", c.HTML())
	}
}

func TestContentHash(t *testing.T) {
	var logs bytes.Buffer
	a, err := Compile(counter, moduleOptions("x-counter", &logs))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compile(counter, moduleOptions("x-counter", &logs))
	if err != nil {
		t.Fatal(err)
	}
	c, err := Compile(counter, moduleOptions("x-other", &logs))
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Hash) != 64 || len(a.ID()) != 12 {
		t.Errorf("Hash = %q, ID = %q", a.Hash, a.ID())
	}
	if a.Hash != b.Hash {
		t.Error("same input hashed differently")
	}
	if a.Hash == c.Hash {
		t.Error("different tags hashed the same")
	}
}

func TestDebugAndTrace(t *testing.T) {
	var buf bytes.Buffer
	trace.Init(true, []string{"x-traced"}, &buf)
	defer trace.Init(false, nil, nil)

	var logs bytes.Buffer
	opts := moduleOptions("x-traced", &logs)
	opts.Debug = true
	if _, err := Compile(counter, opts); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(logs.String(), "generated program") {
		t.Errorf("debug log = %q", logs.String())
	}
	for _, phase := range []string{"tokenize", "parse", "ir", "script", "codegen", "css", "done"} {
		if !strings.Contains(buf.String(), "PHASE "+phase+" ") {
			t.Errorf("trace missing phase %s:\n%s", phase, buf.String())
		}
	}

	buf.Reset()
	if _, err := Compile(counter, moduleOptions("x-quiet", &logs)); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Errorf("filtered tag traced: %s", buf.String())
	}
}
