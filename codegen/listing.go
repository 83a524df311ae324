package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"loom/expr"
	"loom/ir"
)

// listing writes the generated program as JavaScript-shaped source. The
// Blocks themselves are Go closures; the listing is what `loom build`
// writes out and what Debug mode prints.
type listing struct {
	b strings.Builder
}

func newListing() *listing {
	return &listing{}
}

func (l *listing) String() string {
	return l.b.String()
}

func (l *listing) line(depth int, format string, args ...any) {
	l.b.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(&l.b, format, args...)
	l.b.WriteByte('\n')
}

func maskLiteral(mask uint32, bits BitMap) string {
	names := bits.Names(mask)
	if len(names) == 0 {
		return "0"
	}
	return fmt.Sprintf("0b%b /* %s */", mask, strings.Join(names, ", "))
}

func evalCall(e expr.Expr) string {
	return "ctx.eval(state, () => " + expr.String(e) + ")"
}

func (l *listing) open(name string) {
	l.line(0, "function %s(ctx, state) {", name)
}

func (l *listing) close() {
	l.line(1, "};")
	l.line(0, "}")
	l.b.WriteByte('\n')
}

func (l *listing) staticText(name, value string) {
	l.open(name)
	l.line(1, "let node;")
	l.line(1, "return {")
	l.line(2, "m(target, anchor) { node = text(%s); insert(target, node, anchor); },", strconv.Quote(value))
	l.line(2, "p() {},")
	l.line(2, "d() { detach(node); },")
	l.close()
}

func (l *listing) text(name string, mask uint32, bits BitMap, e expr.Expr) {
	l.open(name)
	l.line(1, "const mask = %s;", maskLiteral(mask, bits))
	l.line(1, "let node;")
	l.line(1, "return {")
	l.line(2, "m(target, anchor) { node = text(display(%s)); insert(target, node, anchor); },", evalCall(e))
	l.line(2, "p(dirty, state) { if (dirty & mask) set_data(node, display(%s)); },", evalCall(e))
	l.line(2, "d() { detach(node); },")
	l.close()
}

func (l *listing) elem(p *elemPlan, n *ir.Elem, children []string) {
	l.open(p.name)
	l.line(1, "let node, offs = [];")
	l.line(1, "const children = [%s];", calls(children))
	ai := 0
	for _, a := range n.Attrs {
		if a.Static {
			continue
		}
		l.line(1, "const attr_%d = { mask: %d, local: %v };", ai, p.attrs[ai].mask, p.attrs[ai].local)
		ai++
	}
	l.line(1, "return {")
	l.line(2, "m(target, anchor) {")
	l.line(3, "node = element(%s);", strconv.Quote(p.tag))
	for _, kv := range p.static {
		l.line(3, "attr(node, %s, %s);", strconv.Quote(kv[0]), strconv.Quote(kv[1]))
	}
	ai = 0
	for _, a := range n.Attrs {
		if a.Static {
			continue
		}
		l.line(3, "attr(node, %s, %s);", strconv.Quote(a.Name), evalCall(a.Binding.Expr))
		ai++
	}
	for _, c := range n.Classes {
		l.line(3, "toggle_class(node, %s, %s);", strconv.Quote(c.Class), evalCall(c.Expr))
	}
	for _, h := range n.On {
		l.line(3, "offs.push(listen(node, %s, (event) => %s));", strconv.Quote(h.Event), expr.String(h.Expr))
	}
	l.line(3, "for (const c of children) c.m(node, null);")
	l.line(3, "insert(target, node, anchor);")
	l.line(2, "},")
	l.line(2, "p(dirty, state) {")
	ai = 0
	for _, a := range n.Attrs {
		if a.Static {
			continue
		}
		bp := p.attrs[ai]
		switch {
		case bp.local:
			l.line(3, "attr(node, %s, %s);", strconv.Quote(a.Name), evalCall(a.Binding.Expr))
		case bp.mask != 0:
			l.line(3, "if (dirty & attr_%d.mask) attr(node, %s, %s);", ai, strconv.Quote(a.Name), evalCall(a.Binding.Expr))
		}
		ai++
	}
	for i, c := range n.Classes {
		bp := p.classes[i]
		switch {
		case bp.local:
			l.line(3, "toggle_class(node, %s, %s);", strconv.Quote(c.Class), evalCall(c.Expr))
		case bp.mask != 0:
			l.line(3, "if (dirty & %d) toggle_class(node, %s, %s);", bp.mask, strconv.Quote(c.Class), evalCall(c.Expr))
		}
	}
	l.line(3, "for (const c of children) c.p(dirty, state);")
	l.line(2, "},")
	l.line(2, "d() { for (const off of offs) off(); for (const c of children) c.d(); detach(node); },")
	l.close()
}

func (l *listing) fragment(name string, children []string) {
	l.open(name)
	l.line(1, "const anchor_node = anchor(), children = [%s];", calls(children))
	l.line(1, "return {")
	l.line(2, "m(target, before) { insert(target, anchor_node, before); for (const c of children) c.m(target, anchor_node); },")
	l.line(2, "p(dirty, state) { for (const c of children) c.p(dirty, state); },")
	l.line(2, "d() { for (const c of children) c.d(); detach(anchor_node); },")
	l.close()
}

func (l *listing) ifBlock(name string, mask uint32, bits BitMap, conds []expr.Expr, bodies []string) {
	l.open(name)
	l.line(1, "const mask = %s;", maskLiteral(mask, bits))
	l.line(1, "const branches = [%s];", strings.Join(bodies, ", "))
	l.line(1, "function select(state) {")
	for i, c := range conds {
		l.line(2, "if (%s) return %d;", evalCall(c), i)
	}
	if len(bodies) > len(conds) {
		l.line(2, "return %d;", len(conds))
	} else {
		l.line(2, "return -1;")
	}
	l.line(1, "}")
	l.line(1, "let anchor_node, key = -1, current = null;")
	l.line(1, "return {")
	l.line(2, "m(target, before) {")
	l.line(3, "anchor_node = anchor(); insert(target, anchor_node, before);")
	l.line(3, "key = select(state);")
	l.line(3, "if (key >= 0) { current = branches[key](ctx, state); current.m(target, anchor_node); }")
	l.line(2, "},")
	l.line(2, "p(dirty, state) {")
	l.line(3, "if (dirty & mask) {")
	l.line(4, "const next = select(state);")
	l.line(4, "if (next !== key) {")
	l.line(5, "if (current) current.d();")
	l.line(5, "key = next; current = key >= 0 ? branches[key](ctx, state) : null;")
	l.line(5, "if (current) current.m(anchor_node.parentNode, anchor_node);")
	l.line(5, "return;")
	l.line(4, "}")
	l.line(3, "}")
	l.line(3, "if (current) current.p(dirty, state);")
	l.line(2, "},")
	l.line(2, "d() { if (current) current.d(); detach(anchor_node); },")
	l.close()
}

func (l *listing) each(p *eachPlan, list expr.Expr, body string) {
	locals := p.item
	if p.index != "" {
		locals += ", " + p.index
	}
	l.open(p.name)
	l.line(1, "const mask = %d;", p.mask)
	l.line(1, "let anchor_node, children = [];")
	l.line(1, "function build(state) {")
	l.line(2, "(%s || []).forEach((%s) => {", evalCall(list), locals)
	l.line(3, "const child = %s(ctx.with({ %s }), state);", body, locals)
	l.line(3, "child.m(anchor_node.parentNode, anchor_node);")
	l.line(3, "children.push(child);")
	l.line(2, "});")
	l.line(1, "}")
	l.line(1, "return {")
	l.line(2, "m(target, before) { anchor_node = anchor(); insert(target, anchor_node, before); build(state); },")
	l.line(2, "p(dirty, state) {")
	l.line(3, "if (!(dirty & mask)) { for (const c of children) c.p(dirty, state); return; }")
	l.line(3, "for (const c of children) c.d();")
	l.line(3, "children = [];")
	l.line(3, "build(state);")
	l.line(2, "},")
	l.line(2, "d() { for (const c of children) c.d(); detach(anchor_node); },")
	l.close()
}

func (l *listing) root(names []string) {
	l.line(0, "function create_root(ctx, state) {")
	l.line(1, "const children = [%s];", calls(names))
	l.line(1, "return {")
	l.line(2, "m(target, anchor) { for (const c of children) c.m(target, anchor); },")
	l.line(2, "p(dirty, state) { for (const c of children) c.p(dirty, state); },")
	l.line(2, "d() { for (const c of children) c.d(); },")
	l.line(1, "};")
	l.line(0, "}")
}

func calls(names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n + "(ctx, state)"
	}
	return strings.Join(parts, ", ")
}
