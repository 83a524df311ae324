package ir

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"loom/parser"
)

// Project renders the template AST as an HTML fragment for content
// scanning. Every if branch and each body is included once, mustaches
// become their source text and script/style bodies are left out.
func Project(nodes []parser.Node) *html.Node {
	root := &html.Node{Type: html.DocumentNode}
	projectInto(root, nodes)
	return root
}

// ProjectHTML renders Project(nodes) to a string
func ProjectHTML(nodes []parser.Node) (string, error) {
	var b strings.Builder
	root := Project(nodes)
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func projectInto(parent *html.Node, nodes []parser.Node) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *parser.Text:
			parent.AppendChild(&html.Node{Type: html.TextNode, Data: n.Value})
		case *parser.Comment:
			parent.AppendChild(&html.Node{Type: html.CommentNode, Data: n.Value})
		case *parser.Mustache:
			parent.AppendChild(&html.Node{Type: html.TextNode, Data: "{" + n.Expr + "}"})
		case *parser.Element:
			tag := strings.ToLower(n.Tag)
			if tag == "script" || tag == "style" {
				continue
			}
			el := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
			for _, a := range n.Attrs {
				el.Attr = append(el.Attr, html.Attribute{Key: a.Name, Val: a.Value})
			}
			parent.AppendChild(el)
			projectInto(el, n.Children)
		case *parser.IfBlock:
			for _, br := range n.Branches {
				projectInto(parent, br.Children)
			}
			if n.Else != nil {
				projectInto(parent, n.Else.Children)
			}
		case *parser.EachBlock:
			projectInto(parent, n.Children)
		}
	}
}
