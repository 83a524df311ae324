package expr

import (
	"strings"
	"testing"

	"loom/types"
)

func TestParseExprCanonical(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"a + b * c", "a + (b * c)"},
		{"(a + b) * c", "(a + b) * c"},
		{"a - b - c", "(a - b) - c"},
		{"2 ** 3 ** 2", "2 ** (3 ** 2)"},
		{"a ?? b || c", "a ?? (b || c)"},
		{"a && b || c", "(a && b) || c"},
		{"a ? b : c ? d : e", "a ? b : (c ? d : e)"},
		{"x.y?.z", "x.y?.z"},
		{"items[0].name", "items[0].name"},
		{"fn(a, ...rest)", "fn(a, ...rest)"},
		{"obj?.m?.(1)", "obj?.m?.(1)"},
		{"`hi ${name}!`", "`hi ${name}!`"},
		{"{a, b: 1, 'c-d': 2}", `{a, b: 1, "c-d": 2}`},
		{"[1, 'two', true, null]", `[1, "two", true, null]`},
		{"(x) => x * 2", "(x) => x * 2"},
		{"x => ({id: x})", "(x) => ({id: x})"},
		{"(a, b) => { return a + b }", "(a, b) => {\n  return a + b;\n}"},
		{"count += 1", "count += 1"},
		{"a = b = 3", "a = b = 3"},
		{"!done", "!done"},
		{"typeof x === 'string'", `(typeof x) === "string"`},
		{"i++", "i++"},
		{"--i", "--i"},
		{"1.5e3 + 0x10", "1500 + 16"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e, err := ParseExpr(tt.input)
			if err != nil {
				t.Fatalf("ParseExpr() error = %v", err)
			}
			if got := String(e); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseExprLiterals(t *testing.T) {
	tests := []struct {
		input string
		want  types.Value
	}{
		{"42", types.NewInt(42)},
		{"1_000", types.NewInt(1000)},
		{"0.25", types.NewFloat(0.25)},
		{"'s'", types.NewStr("s")},
		{"false", types.NewBool(false)},
		{"undefined", types.Undefined},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			e, err := ParseExpr(tt.input)
			if err != nil {
				t.Fatalf("ParseExpr() error = %v", err)
			}
			lit, ok := e.(*LiteralExpr)
			if !ok {
				t.Fatalf("ParseExpr() returned %T, want *LiteralExpr", e)
			}
			if !lit.Value.Equal(tt.want) || lit.Value.Type() != tt.want.Type() {
				t.Errorf("value = %s, want %s", lit.Value, tt.want)
			}
		})
	}
}

func TestParseExprPositions(t *testing.T) {
	e, err := ParseExpr("`a ${ b + }`")
	if err == nil {
		t.Fatalf("ParseExpr() = %v, want error", String(e))
	}
	se, ok := err.(*SyntaxError)
	if !ok {
		t.Fatalf("error type = %T, want *SyntaxError", err)
	}
	// the interpolation ends right after "+", at offset 10 of the outer source
	if se.Offset != 10 {
		t.Errorf("Offset = %d, want 10", se.Offset)
	}
}

func TestParseExprErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{"", "empty expression"},
		{"a +", "unexpected end of input"},
		{"1 = 2", "invalid assignment target"},
		{"a b", "unexpected 'b'"},
		{"(a", "expected ')'"},
		{"f(1,", "unexpected end of input"},
		{"{1: }", "unexpected '}'"},
		{"a.", "expected property name"},
		{"5++", "invalid update target"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseExpr(tt.input)
			if err == nil {
				t.Fatalf("ParseExpr(%q) succeeded, want error", tt.input)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error = %q, want it to contain %q", err, tt.msg)
			}
		})
	}
}

func TestParseProgram(t *testing.T) {
	src := "export let count = 0\n" +
		"let step = 1;\n" +
		"$: double = count * 2\n" +
		"function inc() { count += step }\n" +
		"export function reset(to) {\n  if (to) { count = to } else count = 0\n}"

	stmts, err := ParseProgram(src)
	if err != nil {
		t.Fatalf("ParseProgram() error = %v", err)
	}
	if len(stmts) != 5 {
		t.Fatalf("ParseProgram() returned %d statements, want 5", len(stmts))
	}

	decl, ok := stmts[0].(*DeclStmt)
	if !ok || !decl.Exported || decl.Name != "count" || decl.Kind != "let" {
		t.Errorf("stmt 0 = %#v", stmts[0])
	}
	if decl, ok := stmts[1].(*DeclStmt); !ok || decl.Exported || decl.Name != "step" {
		t.Errorf("stmt 1 = %#v", stmts[1])
	}
	label, ok := stmts[2].(*LabeledStmt)
	if !ok || label.Label != "$" {
		t.Fatalf("stmt 2 = %#v", stmts[2])
	}
	if got := String(label.Body); got != "double = count * 2;" {
		t.Errorf("derived body = %q", got)
	}
	fn, ok := stmts[3].(*FuncDecl)
	if !ok || fn.Name != "inc" || len(fn.Params) != 0 {
		t.Fatalf("stmt 3 = %#v", stmts[3])
	}
	if fn.Source != " count += step " {
		t.Errorf("Source = %q", fn.Source)
	}
	reset, ok := stmts[4].(*FuncDecl)
	if !ok || !reset.Exported || len(reset.Params) != 1 {
		t.Fatalf("stmt 4 = %#v", stmts[4])
	}
	ifs, ok := reset.Body[0].(*IfStmt)
	if !ok || len(ifs.Then) != 1 || len(ifs.Else) != 1 {
		t.Errorf("if statement = %#v", reset.Body[0])
	}
}

func TestParseProgramErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
	}{
		{"let = 1", "expected identifier after let"},
		{"const x", "missing initializer"},
		{"a b", "expected ';'"},
		{"function f( { }", "expected parameter name"},
		{"function f() { a", "unterminated block"},
		{"export a", "expected declaration after export"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseProgram(tt.input)
			if err == nil {
				t.Fatalf("ParseProgram(%q) succeeded, want error", tt.input)
			}
			if !strings.Contains(err.Error(), tt.msg) {
				t.Errorf("error = %q, want it to contain %q", err, tt.msg)
			}
		})
	}
}
