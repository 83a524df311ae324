package parser

import (
	"strings"
	"testing"
)

func mustParse(t *testing.T, src string) []Node {
	t.Helper()
	nodes, err := ParseTemplate(src)
	if err != nil {
		t.Fatalf("ParseTemplate() error = %v", err)
	}
	return nodes
}

func TestParseElement(t *testing.T) {
	nodes := mustParse(t, `<button class="btn" disabled title={label} @click="inc">Hi {name}</button>`)
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
	el, ok := nodes[0].(*Element)
	if !ok || el.Tag != "button" {
		t.Fatalf("node = %#v", nodes[0])
	}

	wantAttrs := []struct {
		name  string
		kind  AttrKind
		value string
	}{
		{"class", ATTR_STATIC, "btn"},
		{"disabled", ATTR_BOOL, ""},
		{"title", ATTR_DYNAMIC, "label"},
		{"@click", ATTR_STATIC, "inc"},
	}
	if len(el.Attrs) != len(wantAttrs) {
		t.Fatalf("got %d attrs, want %d", len(el.Attrs), len(wantAttrs))
	}
	for i, w := range wantAttrs {
		a := el.Attrs[i]
		if a.Name != w.name || a.Kind != w.kind || a.Value != w.value {
			t.Errorf("attr %d = %s %s %q, want %s %s %q", i, a.Name, a.Kind, a.Value, w.name, w.kind, w.value)
		}
	}

	if len(el.Children) != 2 {
		t.Fatalf("got %d children, want 2", len(el.Children))
	}
	if txt, ok := el.Children[0].(*Text); !ok || txt.Value != "Hi " {
		t.Errorf("child 0 = %#v", el.Children[0])
	}
	if m, ok := el.Children[1].(*Mustache); !ok || m.Expr != "name" {
		t.Errorf("child 1 = %#v", el.Children[1])
	}
}

func TestParseTemplateLiteralAttr(t *testing.T) {
	nodes := mustParse(t, "<div class=`card ${active ? 'on' : ''}`></div>")
	a := nodes[0].(*Element).Attrs[0]
	if a.Kind != ATTR_DYNAMIC || a.Value != "`card ${active ? 'on' : ''}`" {
		t.Errorf("attr = %s %q", a.Kind, a.Value)
	}
}

func TestParseAttrShorthand(t *testing.T) {
	nodes := mustParse(t, "<input {value}>")
	a := nodes[0].(*Element).Attrs[0]
	if a.Name != "value" || a.Kind != ATTR_DYNAMIC || a.Value != "value" {
		t.Errorf("attr = %#v", a)
	}
}

func TestParseVoidAndSelfClosing(t *testing.T) {
	nodes := mustParse(t, "<p><img src=a.png><br><x-icon name=star /></p>")
	p := nodes[0].(*Element)
	if len(p.Children) != 3 {
		t.Fatalf("got %d children, want 3", len(p.Children))
	}
	if img := p.Children[0].(*Element); img.Attrs[0].Value != "a.png" {
		t.Errorf("unquoted value = %q", img.Attrs[0].Value)
	}
}

func TestParseRawText(t *testing.T) {
	nodes := mustParse(t, "<script>let a = {b: 1}; if (a) { go() }</script><style>.a{color:red}</style>")
	script := nodes[0].(*Element)
	if len(script.Children) != 1 {
		t.Fatalf("script children = %d", len(script.Children))
	}
	if txt := script.Children[0].(*Text); txt.Value != "let a = {b: 1}; if (a) { go() }" {
		t.Errorf("script body = %q", txt.Value)
	}
	style := nodes[1].(*Element)
	if txt := style.Children[0].(*Text); txt.Value != ".a{color:red}" {
		t.Errorf("style body = %q", txt.Value)
	}
}

func TestParseIfBranches(t *testing.T) {
	tests := []struct {
		src      string
		branches int
		hasElse  bool
	}{
		{"{#if a}A{/if}", 1, false},
		{"{#if a}A{:else}B{/if}", 1, true},
		{"{#if a}A{:else if b}B{/if}", 2, false},
		{"{#if a}A{:else if b}B{:else if c}C{:else}D{/if}", 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			nodes := mustParse(t, tt.src)
			block, ok := nodes[0].(*IfBlock)
			if !ok {
				t.Fatalf("node = %#v", nodes[0])
			}
			if len(block.Branches) != tt.branches {
				t.Errorf("branches = %d, want %d", len(block.Branches), tt.branches)
			}
			if (block.Else != nil) != tt.hasElse {
				t.Errorf("else present = %v, want %v", block.Else != nil, tt.hasElse)
			}
		})
	}
}

func TestParseIfConditions(t *testing.T) {
	nodes := mustParse(t, "{#if n > 10}big{:else if n > 5}mid{/if}")
	block := nodes[0].(*IfBlock)
	if block.Branches[0].Expr != "n > 10" || block.Branches[1].Expr != "n > 5" {
		t.Errorf("conditions = %q, %q", block.Branches[0].Expr, block.Branches[1].Expr)
	}
	if txt := block.Branches[1].Children[0].(*Text); txt.Value != "mid" {
		t.Errorf("second branch body = %q", txt.Value)
	}
}

func TestSplitEachHead(t *testing.T) {
	tests := []struct {
		head        string
		list        string
		listAt      int
		item, index string
		ok          bool
	}{
		{"items as item", "items", 0, "item", "", true},
		{"items as item, i", "items", 0, "item", "i", true},
		{"data.rows.filter(r => r.on) as row,idx", "data.rows.filter(r => r.on)", 0, "row", "idx", true},
		{"items  as\titem ,  i", "items", 0, "item", "i", true},
		{"  a  +  b as x", "a  +  b", 2, "x", "", true},
		{"rows.filter(r =>\n   r.on)\n as row", "rows.filter(r =>\n   r.on)", 0, "row", "", true},
		{"items", "", 0, "", "", false},
		{"items as", "", 0, "", "", false},
		{"items as {a, b}", "", 0, "", "", false},
		{"items as this", "", 0, "", "", false},
		{"items as item, undefined", "", 0, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.head, func(t *testing.T) {
			list, listAt, item, index, ok := SplitEachHead(tt.head)
			if ok != tt.ok || list != tt.list || listAt != tt.listAt || item != tt.item || index != tt.index {
				t.Errorf("SplitEachHead() = %q %d %q %q %v, want %q %d %q %q %v",
					list, listAt, item, index, ok, tt.list, tt.listAt, tt.item, tt.index, tt.ok)
			}
		})
	}
}

func TestParseEach(t *testing.T) {
	nodes := mustParse(t, "<ul>{#each todos as todo, i}<li>{i}: {todo.title}</li>{/each}</ul>")
	ul := nodes[0].(*Element)
	each, ok := ul.Children[0].(*EachBlock)
	if !ok {
		t.Fatalf("child = %#v", ul.Children[0])
	}
	if each.List != "todos" || each.Item != "todo" || each.Index != "i" {
		t.Errorf("each = %q %q %q", each.List, each.Item, each.Index)
	}
	if len(each.Children) != 1 {
		t.Errorf("each children = %d, want 1", len(each.Children))
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		src   string
		msg   string
		phase string
		line  int
		col   int
	}{
		{"<div><span></div>", "mismatched closing tag </div>, expected </span>", PHASE_CHILDREN, 1, 14},
		{"<div>", "unclosed <div>", PHASE_CHILDREN, 1, 1},
		{"{#if a}<p>x</p>", "unclosed {#if}", "", 1, 1},
		{"{#if a}{/each}", "expected {/if}, found {/each}", "", 1, 8},
		{"{#each xs as x}{/if}", "expected {/each}, found {/if}", "", 1, 16},
		{"</p>", "unexpected closing tag </p>", "", 1, 1},
		{"{:else}", "{:else} without matching {#if}", "", 1, 1},
		{"{/each}", "{/each} without matching {#each}", "", 1, 1},
		{"{#if}x{/if}", "missing condition in {#if}", PHASE_IF_HEAD, 1, 1},
		{"{#if a}{:else}{:else}{/if}", "duplicate {:else}", "", 1, 15},
		{"{#if a}{:else}{:else if b}{/if}", "{:else if} after {:else}", "", 1, 15},
		{"{#each items}{/each}", "invalid {#each} head", PHASE_EACH_HEAD, 1, 1},
		{"{#each a  +  as x}{/each}", "invalid expression", PHASE_EACH_HEAD, 1, 12},
		{"<p>\n  {a +}\n</p>", "invalid expression", PHASE_MUSTACHE, 2, 7},
		{"<b title={1 +}></b>", "invalid expression", PHASE_ATTRS, 1, 14},
		{"<b @click=\"go(\"></b>", "invalid expression", PHASE_ATTRS, 1, 15},
		{"<p>{}</p>", "empty expression", PHASE_MUSTACHE, 1, 4},
		{"<p class=></p>", "expected value for attribute class", PHASE_ATTRS, 1, 10},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			_, err := ParseTemplate(tt.src)
			pe, ok := err.(*ParseError)
			if !ok {
				t.Fatalf("ParseTemplate(%q) error = %v, want *ParseError", tt.src, err)
			}
			if !strings.Contains(pe.Msg, tt.msg) {
				t.Errorf("Msg = %q, want it to contain %q", pe.Msg, tt.msg)
			}
			if pe.Phase != tt.phase {
				t.Errorf("Phase = %q, want %q", pe.Phase, tt.phase)
			}
			if pe.Pos.Line != tt.line || pe.Pos.Column != tt.col {
				t.Errorf("Pos = %s, want %d:%d", pe.Pos, tt.line, tt.col)
			}
		})
	}
}

func TestParseErrorFrame(t *testing.T) {
	_, err := ParseTemplate("<ul>\n  <li>{#if}</li>\n</ul>")
	if err == nil {
		t.Fatal("expected error")
	}
	want := "1 | <ul>\n2 |   <li>{#if}</li>\n  |       ^"
	if pe := err.(*ParseError); pe.Frame != want {
		t.Errorf("Frame =\n%s\nwant\n%s", pe.Frame, want)
	}
}
