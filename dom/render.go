package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// OuterHTML renders n with anchors left out
func OuterHTML(n *Node) string {
	var b strings.Builder
	if c := withoutAnchors(n); c != nil {
		html.Render(&b, c)
	}
	return b.String()
}

// InnerHTML renders the children of n with anchors left out
func InnerHTML(n *Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if cc := withoutAnchors(c); cc != nil {
			html.Render(&b, cc)
		}
	}
	return b.String()
}

// TextContent concatenates the text nodes under n
func TextContent(n *Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(TextContent(c))
	}
	return b.String()
}

// Find returns the first element under n (n included) with the given tag
func Find(n *Node, tag string) *Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := Find(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every element under n with the given tag, in document order
func FindAll(n *Node, tag string) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(n *Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// withoutAnchors deep-copies n skipping anchor comments
func withoutAnchors(n *Node) *Node {
	if IsAnchor(n) {
		return nil
	}
	c := &Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
		Attr:      append([]html.Attribute(nil), n.Attr...),
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if cc := withoutAnchors(ch); cc != nil {
			c.AppendChild(cc)
		}
	}
	return c
}
