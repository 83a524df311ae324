package parser

import (
	"strings"
	"testing"
)

func tokenTypes(toks []Token) []TokenType {
	out := make([]TokenType, len(toks))
	for i, tok := range toks {
		out[i] = tok.Type
	}
	return out
}

func TestTokenizeStructure(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{"element", `<p class="a">hi</p>`, []TokenType{
			TOKEN_TAG_OPEN, TOKEN_NAME, TOKEN_NAME, TOKEN_EQUALS, TOKEN_STRING, TOKEN_TAG_END,
			TOKEN_TEXT,
			TOKEN_TAG_CLOSE_OPEN, TOKEN_NAME, TOKEN_TAG_END,
			TOKEN_EOF,
		}},
		{"self closing", `<br/><input disabled />`, []TokenType{
			TOKEN_TAG_OPEN, TOKEN_NAME, TOKEN_SELF_CLOSE,
			TOKEN_TAG_OPEN, TOKEN_NAME, TOKEN_NAME, TOKEN_SELF_CLOSE,
			TOKEN_EOF,
		}},
		{"dynamic attrs", "<a href={url} title=`t ${x}`>", []TokenType{
			TOKEN_TAG_OPEN, TOKEN_NAME, TOKEN_NAME, TOKEN_EQUALS, TOKEN_EXPR,
			TOKEN_NAME, TOKEN_EQUALS, TOKEN_TEMPLATE, TOKEN_TAG_END,
			TOKEN_EOF,
		}},
		{"blocks", "{#if a}x{:else if b}y{:else}z{/if}{#each l as i}{i}{/each}", []TokenType{
			TOKEN_IF, TOKEN_TEXT, TOKEN_ELSE_IF, TOKEN_TEXT, TOKEN_ELSE, TOKEN_TEXT, TOKEN_END_IF,
			TOKEN_EACH, TOKEN_EXPR, TOKEN_END_EACH,
			TOKEN_EOF,
		}},
		{"comment", "<!-- tw:safelist a b -->x", []TokenType{TOKEN_COMMENT, TOKEN_TEXT, TOKEN_EOF}},
		{"lone angle is text", "a < b", []TokenType{TOKEN_TEXT, TOKEN_TEXT, TOKEN_EOF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize() error = %v", err)
			}
			got := tokenTypes(toks)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTokenizeDirectiveValues(t *testing.T) {
	toks, err := Tokenize("{#if  count > 1 }{:else if ok}{#each items as item, i}{ total }")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	want := []struct {
		typ   TokenType
		value string
	}{
		{TOKEN_IF, "count > 1"},
		{TOKEN_ELSE_IF, "ok"},
		{TOKEN_EACH, "items as item, i"},
		{TOKEN_EXPR, "total"},
	}
	for i, w := range want {
		if toks[i].Type != w.typ || toks[i].Value != w.value {
			t.Errorf("token %d = %s %q, want %s %q", i, toks[i].Type, toks[i].Value, w.typ, w.value)
		}
	}
	// ValueOffset points at the value inside the source
	if toks[0].ValueOffset != 6 {
		t.Errorf("if ValueOffset = %d, want 6", toks[0].ValueOffset)
	}
}

func TestTokenizeWordBoundary(t *testing.T) {
	// "#iffy" is not the "#if" directive
	_, err := Tokenize("{#iffy}")
	if err == nil || !strings.Contains(err.Error(), "unknown block directive #iffy") {
		t.Errorf("Tokenize error = %v", err)
	}
	toks, err := Tokenize("{ifReady}")
	if err != nil || toks[0].Type != TOKEN_EXPR {
		t.Errorf("{ifReady} = %v, %v", toks, err)
	}
}

func TestTokenizeNestedBraces(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"{ {a: 1}.a }", "{a: 1}.a"},
		{"{`x ${ {b: '}'}.b } y`}", "`x ${ {b: '}'}.b } y`"},
		{`{"}" + '{'}`, `"}" + '{'`},
		{"{`${`${deep}`}`}", "`${`${deep}`}`"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			toks, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize() error = %v", err)
			}
			if toks[0].Type != TOKEN_EXPR || toks[0].Value != tt.want {
				t.Errorf("token = %s %q, want EXPR %q", toks[0].Type, toks[0].Value, tt.want)
			}
			if toks[1].Type != TOKEN_EOF {
				t.Errorf("expected a single expression token, next is %s", toks[1].Type)
			}
		})
	}
}

func TestTokenizeRawText(t *testing.T) {
	src := "<script>if (a < b) { x = `${c}` }</script><pre>{not an expr}</pre>"
	toks, err := Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	var raws []string
	for _, tok := range toks {
		if tok.Type == TOKEN_RAW {
			raws = append(raws, tok.Value)
		}
		if tok.Type == TOKEN_EXPR {
			t.Errorf("raw-text body produced an expression token %q", tok.Value)
		}
	}
	if len(raws) != 2 || raws[0] != "if (a < b) { x = `${c}` }" || raws[1] != "{not an expr}" {
		t.Errorf("raw bodies = %q", raws)
	}
}

func TestTokenizePositions(t *testing.T) {
	toks, err := Tokenize("<ul>\n  <li>{x}</li>\n</ul>")
	if err != nil {
		t.Fatalf("Tokenize() error = %v", err)
	}
	for _, tok := range toks {
		if tok.Type == TOKEN_EXPR {
			if tok.Position.Line != 2 || tok.Position.Column != 7 {
				t.Errorf("expr position = %s, want 2:7", tok.Position)
			}
			return
		}
	}
	t.Fatal("no expression token")
}

func TestTokenizeErrors(t *testing.T) {
	tests := []struct {
		input string
		msg   string
		line  int
		col   int
	}{
		{"<p>{count</p>", "unterminated expression", 1, 4},
		{"<p>\n{'abc}</p>", "unterminated string literal", 2, 2},
		{"{`a ${b}", "unterminated template literal", 1, 2},
		{"{`a ${b`}", "unterminated template literal", 1, 8},
		{`<a href="x>`, "unterminated attribute value", 1, 9},
		{"<!-- open", "unterminated comment", 1, 1},
		{"<script>let a", "unterminated <script> element", 1, 1},
		{"<div class", "unterminated tag", 1, 1},
		{"{:else nope}", `unexpected "nope" after {:else}`, 1, 8},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			le, ok := err.(*LexError)
			if !ok {
				t.Fatalf("Tokenize(%q) error = %v, want *LexError", tt.input, err)
			}
			if !strings.Contains(le.Msg, tt.msg) {
				t.Errorf("Msg = %q, want it to contain %q", le.Msg, tt.msg)
			}
			if le.Pos.Line != tt.line || le.Pos.Column != tt.col {
				t.Errorf("Pos = %s, want %d:%d", le.Pos, tt.line, tt.col)
			}
			if !strings.Contains(le.Frame, "^") {
				t.Errorf("Frame has no caret:\n%s", le.Frame)
			}
		})
	}
}
