package ir

import (
	"regexp"
	"strings"

	"loom/expr"
)

// classToken matches utility-class shaped words, including variant and
// arbitrary-value forms such as md:px-4 or w-[3rem]
var classToken = regexp.MustCompile(`^-?[A-Za-z_][\w\-:/.\[\]%#()]*$`)

// CollectHints gathers class-like tokens from static attribute values, class
// toggles and the string fragments of every dynamic expression, handlers and
// each lists included. Every branch
// of every conditional is visited, so the list over-approximates what any
// single render can produce.
func CollectHints(nodes []Node) []string {
	h := &hints{seen: map[string]bool{}}
	for _, n := range nodes {
		Walk(n, h.visit)
	}
	return h.out
}

type hints struct {
	seen map[string]bool
	out  []string
}

func (h *hints) add(text string) {
	for _, tok := range strings.Fields(text) {
		if h.seen[tok] || !classToken.MatchString(tok) {
			continue
		}
		h.seen[tok] = true
		h.out = append(h.out, tok)
	}
}

func (h *hints) binding(b *Binding) {
	if b == nil || b.Expr == nil {
		return
	}
	for _, frag := range expr.StringFragments(b.Expr) {
		h.add(frag)
	}
}

func (h *hints) visit(n Node) bool {
	switch n := n.(type) {
	case *Text:
		h.binding(&n.Binding)
	case *Elem:
		for _, a := range n.Attrs {
			if a.Static {
				h.add(a.Value)
				continue
			}
			h.binding(a.Binding)
		}
		for i := range n.Classes {
			h.add(n.Classes[i].Class)
			h.binding(&n.Classes[i].Binding)
		}
		for i := range n.On {
			h.binding(&n.On[i].Binding)
		}
	case *Each:
		h.binding(&n.List)
	case *If:
		for i := range n.Branches {
			h.binding(&n.Branches[i].Binding)
		}
	}
	return true
}
