// Package ir lowers the template AST into a render IR: every expression is
// parsed once and its identifiers are split into state and local
// dependencies relative to the enclosing each-loops.
package ir

import (
	"fmt"

	"loom/expr"
	"loom/parser"
)

// Kind identifies an IR node type
type Kind int

const (
	KIND_STATIC_TEXT Kind = iota
	KIND_TEXT
	KIND_ELEM
	KIND_IF
	KIND_EACH
	KIND_FRAGMENT
)

var kindNames = map[Kind]string{
	KIND_STATIC_TEXT: "staticText",
	KIND_TEXT:        "text",
	KIND_ELEM:        "elem",
	KIND_IF:          "if",
	KIND_EACH:        "each",
	KIND_FRAGMENT:    "fragment",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Node is an IR node. ID is unique within one Build call.
type Node interface {
	Kind() Kind
	NodeID() int
}

// Binding is one parsed template expression with its dependency split.
// StateDeps and LocalDeps are disjoint.
type Binding struct {
	Source    string
	Expr      expr.Expr
	StateDeps []string
	LocalDeps []string
}

// StaticText is text fixed at mount
type StaticText struct {
	ID    int
	Value string
}

// Text is an interpolated {expr}
type Text struct {
	ID int
	Binding
}

// Attr is an element attribute. Static attributes carry Value; dynamic ones
// carry a Binding.
type Attr struct {
	Name    string
	Static  bool
	Value   string
	Binding *Binding
}

// ClassToggle adds Class to the element while its binding is truthy
type ClassToggle struct {
	Class string
	Binding
}

// Handler is an event listener. Its expression has already been rewritten
// to receive the event.
type Handler struct {
	Event string
	Binding
}

// Elem is an element with its attributes, class toggles and listeners
type Elem struct {
	ID       int
	Tag      string
	Attrs    []Attr
	Classes  []ClassToggle
	On       []Handler
	Children []Node
}

// Branch is one conditional arm of an If
type Branch struct {
	Binding
	Node Node
}

// If renders the first branch whose condition is truthy, else Else (may be nil)
type If struct {
	ID       int
	Branches []Branch
	Else     Node
}

// Each renders Node once per list item with Item and Index in scope
type Each struct {
	ID    int
	List  Binding
	Item  string
	Index string
	Node  Node
}

// Fragment groups sibling nodes behind one anchor
type Fragment struct {
	ID       int
	Children []Node
}

func (n *StaticText) Kind() Kind { return KIND_STATIC_TEXT }
func (n *Text) Kind() Kind       { return KIND_TEXT }
func (n *Elem) Kind() Kind       { return KIND_ELEM }
func (n *If) Kind() Kind         { return KIND_IF }
func (n *Each) Kind() Kind       { return KIND_EACH }
func (n *Fragment) Kind() Kind   { return KIND_FRAGMENT }

func (n *StaticText) NodeID() int { return n.ID }
func (n *Text) NodeID() int       { return n.ID }
func (n *Elem) NodeID() int       { return n.ID }
func (n *If) NodeID() int         { return n.ID }
func (n *Each) NodeID() int       { return n.ID }
func (n *Fragment) NodeID() int   { return n.ID }

// Result is the output of Build
type Result struct {
	Nodes    []Node
	Script   string   // accumulated <script> bodies
	Style    string   // accumulated <style> bodies
	Hints    []string // class-like tokens for CSS content scanning
	Safelist []string // tokens from <!-- tw:safelist ... --> comments
}

// Error reports a template construct the IR builder cannot lower
type Error struct {
	Pos parser.Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ir error at %s: %s", e.Pos, e.Msg)
}

// Walk visits n and its descendants depth-first, every branch included.
// Returning false from f skips the node's children.
func Walk(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch n := n.(type) {
	case *Elem:
		for _, c := range n.Children {
			Walk(c, f)
		}
	case *If:
		for _, b := range n.Branches {
			Walk(b.Node, f)
		}
		Walk(n.Else, f)
	case *Each:
		Walk(n.Node, f)
	case *Fragment:
		for _, c := range n.Children {
			Walk(c, f)
		}
	}
}
