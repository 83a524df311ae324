// Package codegen turns render IR into Block factories. Every expression is
// lowered to a native evaluator at generation time and every dependency set
// to a dirty mask, so patching is a bitwise test followed by a closure call.
package codegen

import (
	"fmt"

	"loom/eval"
	"loom/expr"
	"loom/ir"
)

// NamedFactory is one generated factory
type NamedFactory struct {
	Name   string
	Kind   ir.Kind
	Create Factory
}

// Program is the generated output for one template
type Program struct {
	Bits      BitMap
	Factories []NamedFactory
	root      *fragmentPlan
	listing   string
}

// Root creates the root composer, which mounts the top-level Blocks in
// order and fans patches out to them
func (p *Program) Root(f *Frame, state eval.Snapshot) Block {
	return p.root.create(f, state)
}

// Lookup returns a factory by name
func (p *Program) Lookup(name string) (Factory, bool) {
	for _, nf := range p.Factories {
		if nf.Name == name {
			return nf.Create, true
		}
	}
	return nil, false
}

// Listing returns the program as readable source
func (p *Program) Listing() string {
	return p.listing
}

// generator holds the state of one Generate call
type generator struct {
	bits      BitMap
	factories []NamedFactory
	out       *listing
}

// Generate emits one factory per IR node plus the root composer
func Generate(nodes []ir.Node, bits BitMap) *Program {
	g := &generator{bits: bits, out: newListing()}
	root := &fragmentPlan{}
	var names []string
	for _, n := range nodes {
		name, f := g.node(n)
		root.children = append(root.children, f)
		names = append(names, name)
	}
	g.out.root(names)
	return &Program{
		Bits:      bits,
		Factories: g.factories,
		root:      root,
		listing:   g.out.String(),
	}
}

func factoryName(n ir.Node) string {
	return fmt.Sprintf("create_%s_%d", n.Kind(), n.NodeID())
}

func (g *generator) register(n ir.Node, f Factory) (string, Factory) {
	name := factoryName(n)
	g.factories = append(g.factories, NamedFactory{Name: name, Kind: n.Kind(), Create: f})
	return name, f
}

func (g *generator) node(n ir.Node) (string, Factory) {
	switch n := n.(type) {
	case *ir.StaticText:
		g.out.staticText(factoryName(n), n.Value)
		return g.register(n, (&staticTextPlan{value: n.Value}).create)
	case *ir.Text:
		p := &textPlan{
			name:   factoryName(n),
			source: n.Source,
			eval:   eval.Compile(n.Expr),
			mask:   MaskOf(n.StateDeps, g.bits),
		}
		g.out.text(p.name, p.mask, g.bits, n.Expr)
		return g.register(n, p.create)
	case *ir.Elem:
		return g.elem(n)
	case *ir.If:
		return g.ifNode(n)
	case *ir.Each:
		return g.each(n)
	case *ir.Fragment:
		p := &fragmentPlan{anchored: true}
		var names []string
		for _, c := range n.Children {
			name, f := g.node(c)
			p.children = append(p.children, f)
			names = append(names, name)
		}
		g.out.fragment(factoryName(n), names)
		return g.register(n, p.create)
	}
	panic(fmt.Sprintf("codegen: unknown IR node %T", n))
}

func (g *generator) binding(name string, b *ir.Binding) bindingPlan {
	return bindingPlan{
		name:   name,
		source: b.Source,
		eval:   eval.Compile(b.Expr),
		mask:   MaskOf(b.StateDeps, g.bits),
		local:  len(b.LocalDeps) > 0,
	}
}

func (g *generator) elem(n *ir.Elem) (string, Factory) {
	p := &elemPlan{name: factoryName(n), tag: n.Tag}
	for _, a := range n.Attrs {
		if a.Static {
			p.static = append(p.static, [2]string{a.Name, a.Value})
			continue
		}
		p.attrs = append(p.attrs, g.binding(a.Name, a.Binding))
	}
	for i := range n.Classes {
		p.classes = append(p.classes, g.binding(n.Classes[i].Class, &n.Classes[i].Binding))
	}
	for _, h := range n.On {
		p.on = append(p.on, handlerPlan{event: h.Event, source: h.Source, eval: eval.Compile(h.Expr)})
	}
	var children []string
	for _, c := range n.Children {
		name, f := g.node(c)
		p.children = append(p.children, f)
		children = append(children, name)
	}
	g.out.elem(p, n, children)
	return g.register(n, p.create)
}

func (g *generator) ifNode(n *ir.If) (string, Factory) {
	p := &ifPlan{name: factoryName(n)}
	var conds []expr.Expr
	var bodies []string
	for i := range n.Branches {
		br := &n.Branches[i]
		p.sources = append(p.sources, br.Source)
		p.conds = append(p.conds, eval.Compile(br.Expr))
		p.mask |= MaskOf(br.StateDeps, g.bits)
		conds = append(conds, br.Expr)
		name, f := g.node(br.Node)
		p.branches = append(p.branches, f)
		bodies = append(bodies, name)
	}
	if n.Else != nil {
		name, f := g.node(n.Else)
		p.branches = append(p.branches, f)
		bodies = append(bodies, name)
	}
	g.out.ifBlock(p.name, p.mask, g.bits, conds, bodies)
	return g.register(n, p.create)
}

func (g *generator) each(n *ir.Each) (string, Factory) {
	p := &eachPlan{
		name:   factoryName(n),
		source: n.List.Source,
		list:   eval.Compile(n.List.Expr),
		mask:   MaskOf(n.List.StateDeps, g.bits),
		item:   n.Item,
		index:  n.Index,
	}
	body, f := g.node(n.Node)
	p.body = f
	g.out.each(p, n.List.Expr, body)
	return g.register(n, p.create)
}
