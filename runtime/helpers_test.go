package runtime

import (
	"bytes"
	"log"
	"testing"

	"loom/codegen"
	"loom/eval"
	"loom/expr"
	"loom/ir"
	"loom/parser"
	"loom/types"
)

type fixture struct {
	props   []Prop
	derived []Derived
	vars    []Var
	methods []Method
	css     string
	logs    bytes.Buffer
}

func (f *fixture) prop(t *testing.T, name, def string) *fixture {
	t.Helper()
	p := Prop{Name: name, Source: def}
	if def != "" {
		ev, err := eval.CompileString(def)
		if err != nil {
			t.Fatal(err)
		}
		p.Default = ev
	}
	f.props = append(f.props, p)
	return f
}

func (f *fixture) derive(t *testing.T, name, src string) *fixture {
	t.Helper()
	f.derived = append(f.derived, derivedOf(t, name, src))
	return f
}

func (f *fixture) variable(t *testing.T, name, init string) *fixture {
	t.Helper()
	ev, err := eval.CompileString(init)
	if err != nil {
		t.Fatal(err)
	}
	f.vars = append(f.vars, Var{Name: name, Source: init, Init: ev})
	return f
}

func (f *fixture) constant(t *testing.T, name, init string) *fixture {
	t.Helper()
	f.variable(t, name, init)
	f.vars[len(f.vars)-1].Const = true
	return f
}

func (f *fixture) method(t *testing.T, src string) *fixture {
	t.Helper()
	stmts, err := expr.ParseProgram(src)
	if err != nil {
		t.Fatal(err)
	}
	decl := stmts[0].(*expr.FuncDecl)
	f.methods = append(f.methods, Method{Name: decl.Name, Decl: decl, Deps: expr.FreeIdentifiersOf(decl.Body)})
	return f
}

func (f *fixture) define(t *testing.T, template string) *Definition {
	t.Helper()
	nodes, err := parser.ParseTemplate(template)
	if err != nil {
		t.Fatalf("ParseTemplate() error = %v", err)
	}
	res, err := ir.Build(nodes)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	keys := KeySpace(f.props, f.derived, f.vars)
	def, err := NewDefinition(Spec{
		Tag:     "x-test",
		Program: codegen.Generate(res.Nodes, codegen.BuildBitMap(keys)),
		Props:   f.props,
		Vars:    f.vars,
		Methods: f.methods,
		Derived: f.derived,
		CSS:     f.css,
		Logger:  log.New(&f.logs, "", 0),
	})
	if err != nil {
		t.Fatalf("NewDefinition() error = %v", err)
	}
	return def
}

func derivedOf(t *testing.T, name, src string) Derived {
	t.Helper()
	e, err := expr.ParseExpr(src)
	if err != nil {
		t.Fatal(err)
	}
	return Derived{Name: name, Source: src, Expr: e, Deps: expr.FreeIdentifiers(e)}
}

func mounted(t *testing.T, def *Definition, props map[string]types.Value) *Component {
	t.Helper()
	c, err := def.New(nil, props)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	c.Mount(nil, nil)
	return c
}

// recorder is a Reporter that keeps every outcome
type recorder struct {
	recomputed []string
	failed     []string
}

func (r *recorder) Recomputed(name string, value types.Value, changed bool) {
	r.recomputed = append(r.recomputed, name)
}

func (r *recorder) Failed(name string, err error) {
	r.failed = append(r.failed, name)
}
