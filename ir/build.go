package ir

import (
	"strings"

	"loom/expr"
	"loom/parser"
)

const safelistPrefix = "tw:safelist"

// context is the state of one Build call: the node id sequence and the
// stack of each-loop scopes
type context struct {
	seq      int
	scopes   []map[string]bool
	script   []string
	style    []string
	safelist []string
}

func (c *context) next() int {
	c.seq++
	return c.seq
}

func (c *context) beginScope(names ...string) {
	scope := make(map[string]bool, len(names))
	for _, n := range names {
		if n != "" {
			scope[n] = true
		}
	}
	c.scopes = append(c.scopes, scope)
}

func (c *context) endScope() {
	c.scopes = c.scopes[:len(c.scopes)-1]
}

func (c *context) inScope(name string) bool {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if c.scopes[i][name] {
			return true
		}
	}
	return false
}

// Build lowers a parsed template into IR
func Build(nodes []parser.Node) (*Result, error) {
	c := &context{}
	out, err := c.children(nodes)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Nodes:    out,
		Script:   strings.Join(c.script, "\n"),
		Style:    strings.Join(c.style, "\n"),
		Safelist: c.safelist,
	}
	res.Hints = CollectHints(out)
	return res, nil
}

// classify splits the free identifiers of e by scope membership. Names in
// skip are bound by the evaluation site and belong to neither set.
func (c *context) classify(src string, e expr.Expr, skip ...string) Binding {
	b := Binding{Source: src, Expr: e}
outer:
	for _, name := range expr.FreeIdentifiers(e) {
		for _, s := range skip {
			if name == s {
				continue outer
			}
		}
		if c.inScope(name) {
			b.LocalDeps = append(b.LocalDeps, name)
		} else {
			b.StateDeps = append(b.StateDeps, name)
		}
	}
	return b
}

func (c *context) bind(pos parser.Position, src string) (Binding, error) {
	e, err := expr.ParseExpr(src)
	if err != nil {
		return Binding{}, &Error{Pos: pos, Msg: err.Error()}
	}
	return c.classify(src, e), nil
}

func (c *context) children(nodes []parser.Node) ([]Node, error) {
	var out []Node
	for _, n := range nodes {
		built, err := c.node(n)
		if err != nil {
			return nil, err
		}
		if built == nil {
			continue
		}
		// merge with a preceding static run
		if st, ok := built.(*StaticText); ok && len(out) > 0 {
			if prev, ok := out[len(out)-1].(*StaticText); ok {
				prev.Value += st.Value
				continue
			}
		}
		out = append(out, built)
	}

	kept := out[:0]
	for _, n := range out {
		if st, ok := n.(*StaticText); ok && isLayoutWhitespace(st.Value) {
			continue
		}
		kept = append(kept, n)
	}
	return kept, nil
}

// isLayoutWhitespace reports whitespace-only text that spans lines
func isLayoutWhitespace(s string) bool {
	return strings.TrimSpace(s) == "" && strings.Contains(s, "\n")
}

func (c *context) node(n parser.Node) (Node, error) {
	switch n := n.(type) {
	case *parser.Text:
		return &StaticText{ID: c.next(), Value: n.Value}, nil
	case *parser.Comment:
		c.comment(n.Value)
		return nil, nil
	case *parser.Mustache:
		b, err := c.bind(n.Position, n.Expr)
		if err != nil {
			return nil, err
		}
		return &Text{ID: c.next(), Binding: b}, nil
	case *parser.Element:
		return c.element(n)
	case *parser.IfBlock:
		return c.ifBlock(n)
	case *parser.EachBlock:
		return c.each(n)
	}
	return nil, nil
}

func (c *context) comment(text string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, safelistPrefix) {
		return
	}
	rest := strings.TrimPrefix(text, safelistPrefix)
	for _, tok := range strings.FieldsFunc(rest, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	}) {
		c.safelist = append(c.safelist, tok)
	}
}

func rawBody(el *parser.Element) string {
	var b strings.Builder
	for _, ch := range el.Children {
		if t, ok := ch.(*parser.Text); ok {
			b.WriteString(t.Value)
		}
	}
	return b.String()
}

func (c *context) element(el *parser.Element) (Node, error) {
	tag := strings.ToLower(el.Tag)
	switch tag {
	case "script":
		c.script = append(c.script, rawBody(el))
		return nil, nil
	case "style":
		c.style = append(c.style, rawBody(el))
		return nil, nil
	}

	out := &Elem{ID: c.next(), Tag: el.Tag}
	for _, a := range el.Attrs {
		if err := c.attr(out, a); err != nil {
			return nil, err
		}
	}

	if parser.IsRawTextTag(tag) {
		if body := rawBody(el); body != "" {
			out.Children = []Node{&StaticText{ID: c.next(), Value: body}}
		}
		return out, nil
	}

	children, err := c.children(el.Children)
	if err != nil {
		return nil, err
	}
	out.Children = children
	return out, nil
}

func (c *context) attr(el *Elem, a parser.Attr) error {
	if event, ok := parser.EventName(a.Name); ok {
		e, err := expr.ParseExpr(a.Value)
		if err != nil {
			return &Error{Pos: a.Position, Msg: err.Error()}
		}
		b := c.classify(a.Value, expr.RewriteHandler(e), expr.EventParam, "$event")
		el.On = append(el.On, Handler{Event: event, Binding: b})
		return nil
	}

	if class, ok := strings.CutPrefix(a.Name, "class:"); ok && class != "" {
		src := a.Value
		if a.Kind == parser.ATTR_BOOL {
			if !expr.IsIdentifier(class) {
				return &Error{Pos: a.Position, Msg: "class:" + class + " needs a value, the class name is not an identifier"}
			}
			src = class
		}
		b, err := c.bind(a.Position, src)
		if err != nil {
			return err
		}
		el.Classes = append(el.Classes, ClassToggle{Class: class, Binding: b})
		return nil
	}

	switch a.Kind {
	case parser.ATTR_DYNAMIC:
		b, err := c.bind(a.Position, a.Value)
		if err != nil {
			return err
		}
		el.Attrs = append(el.Attrs, Attr{Name: a.Name, Binding: &b})
	default:
		el.Attrs = append(el.Attrs, Attr{Name: a.Name, Static: true, Value: a.Value})
	}
	return nil
}

// body wraps a child list as a single node, grouping multiple children
// in a fragment
func (c *context) body(nodes []parser.Node) (Node, error) {
	children, err := c.children(nodes)
	if err != nil {
		return nil, err
	}
	if len(children) == 1 {
		return children[0], nil
	}
	return &Fragment{ID: c.next(), Children: children}, nil
}

func (c *context) ifBlock(n *parser.IfBlock) (Node, error) {
	out := &If{ID: c.next()}
	for _, br := range n.Branches {
		b, err := c.bind(br.Position, br.Expr)
		if err != nil {
			return nil, err
		}
		body, err := c.body(br.Children)
		if err != nil {
			return nil, err
		}
		out.Branches = append(out.Branches, Branch{Binding: b, Node: body})
	}
	if n.Else != nil {
		body, err := c.body(n.Else.Children)
		if err != nil {
			return nil, err
		}
		out.Else = body
	}
	return out, nil
}

func (c *context) each(n *parser.EachBlock) (Node, error) {
	list, err := c.bind(n.Position, n.List)
	if err != nil {
		return nil, err
	}
	out := &Each{ID: c.next(), List: list, Item: n.Item, Index: n.Index}

	c.beginScope(n.Item, n.Index)
	body, err := c.body(n.Children)
	c.endScope()
	if err != nil {
		return nil, err
	}
	out.Node = body
	return out, nil
}
