package script

import (
	"errors"
	"reflect"
	"testing"

	"loom/expr"
)

func TestAnalyze(t *testing.T) {
	src := `
export let count = 0
export let label
let items = []
const limit = 10
$: total = count * limit
function add(item) {
  items = [...items, item]
  count += 1
}
`
	info, err := Default{}.Analyze(src, nil)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(info.Props) != 2 || info.Props[0].Name != "count" || info.Props[1].Name != "label" {
		t.Fatalf("Props = %+v", info.Props)
	}
	if got := expr.String(info.Props[0].Default); got != "0" {
		t.Errorf("count default = %q", got)
	}
	if info.Props[1].Default != nil {
		t.Errorf("label default = %v, want none", info.Props[1].Default)
	}

	if len(info.Vars) != 2 || info.Vars[0].Name != "items" || info.Vars[1].Name != "limit" || !info.Vars[1].Const {
		t.Errorf("Vars = %+v", info.Vars)
	}

	if len(info.Derived) != 1 || info.Derived[0].Name != "total" {
		t.Fatalf("Derived = %+v", info.Derived)
	}
	if !reflect.DeepEqual(info.Derived[0].Deps, []string{"count", "limit"}) {
		t.Errorf("total deps = %v", info.Derived[0].Deps)
	}

	if len(info.Methods) != 1 || info.Methods[0].Name != "add" {
		t.Fatalf("Methods = %+v", info.Methods)
	}
	if !reflect.DeepEqual(info.Methods[0].Deps, []string{"items", "count"}) {
		t.Errorf("add deps = %v", info.Methods[0].Deps)
	}

	want := []string{"count", "label", "total", "items", "limit", "add"}
	if !reflect.DeepEqual(info.Names(), want) {
		t.Errorf("Names() = %v, want %v", info.Names(), want)
	}
}

func TestAnalyzeExportedNames(t *testing.T) {
	info, err := Default{}.Analyze("let step = 2\nlet local = 1", []string{"step", "title"})
	if err != nil {
		t.Fatal(err)
	}
	var props []string
	for _, p := range info.Props {
		props = append(props, p.Name)
	}
	if !reflect.DeepEqual(props, []string{"step", "title"}) {
		t.Errorf("props = %v", props)
	}
	if len(info.Vars) != 1 || info.Vars[0].Name != "local" {
		t.Errorf("Vars = %+v", info.Vars)
	}
}

func TestAnalyzeEmpty(t *testing.T) {
	info, err := Default{}.Analyze("", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(info.Names()) != 0 {
		t.Errorf("Names() = %v", info.Names())
	}
}

func TestAnalyzeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", "let = 1"},
		{"duplicate", "let a = 1\nlet a = 2"},
		{"statement", "let a = 1\na += 1"},
		{"const prop", "export const a = 1"},
		{"bad label", "foo: x = 1"},
		{"reactive statement", "$: console.log(x)"},
		{"derived clashes with var", "let a = 1\n$: a = 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Default{}.Analyze(tt.src, nil)
			var se *Error
			if !errors.As(err, &se) {
				t.Errorf("Analyze(%q) error = %v, want *Error", tt.src, err)
			}
		})
	}
}
