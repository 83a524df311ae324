// Package dom is the in-memory document generated Blocks mount into. Nodes
// are golang.org/x/net/html nodes; the Document adds event listeners.
package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Node is a document node
type Node = html.Node

// Event is delivered to listeners. Target is the node the event was
// dispatched on; Current is the node whose listener is running.
type Event struct {
	Type    string
	Detail  any
	Target  *Node
	Current *Node
	stopped bool
}

// StopPropagation keeps the event from bubbling past the current node
func (e *Event) StopPropagation() {
	e.stopped = true
}

type listener struct {
	event string
	fn    func(*Event)
}

// Document tracks listeners for the nodes created through it
type Document struct {
	listeners map[*Node][]*listener
}

// NewDocument creates an empty document
func NewDocument() *Document {
	return &Document{listeners: make(map[*Node][]*listener)}
}

// CreateElement returns a detached element
func CreateElement(tag string) *Node {
	lower := strings.ToLower(tag)
	return &Node{Type: html.ElementNode, Data: lower, DataAtom: atom.Lookup([]byte(lower))}
}

// CreateText returns a detached text node
func CreateText(text string) *Node {
	return &Node{Type: html.TextNode, Data: text}
}

// CreateAnchor returns an empty comment used as a stable insertion point
func CreateAnchor() *Node {
	return &Node{Type: html.CommentNode}
}

// IsAnchor reports whether n was made by CreateAnchor
func IsAnchor(n *Node) bool {
	return n.Type == html.CommentNode && n.Data == ""
}

// Insert places n under parent before anchor, or last when anchor is nil
func Insert(parent, n, anchor *Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
	if anchor == nil {
		parent.AppendChild(n)
		return
	}
	parent.InsertBefore(n, anchor)
}

// Detach removes n from its parent, if any
func Detach(n *Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// SetText replaces the content of a text node
func SetText(n *Node, text string) {
	n.Data = text
}

// GetAttr returns the value of attribute key
func GetAttr(n *Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets attribute key, keeping its position if present
func SetAttr(n *Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr deletes attribute key
func RemoveAttr(n *Node, key string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// ToggleClass adds or removes one class token
func ToggleClass(n *Node, class string, on bool) {
	current, _ := GetAttr(n, "class")
	tokens := strings.Fields(current)
	idx := -1
	for i, t := range tokens {
		if t == class {
			idx = i
			break
		}
	}
	switch {
	case on && idx < 0:
		tokens = append(tokens, class)
	case !on && idx >= 0:
		tokens = append(tokens[:idx], tokens[idx+1:]...)
	default:
		return
	}
	if len(tokens) == 0 {
		RemoveAttr(n, "class")
		return
	}
	SetAttr(n, "class", strings.Join(tokens, " "))
}

// Listen registers fn for events of the given type on n and returns the
// function that removes it
func (d *Document) Listen(n *Node, event string, fn func(*Event)) func() {
	l := &listener{event: event, fn: fn}
	d.listeners[n] = append(d.listeners[n], l)
	return func() {
		list := d.listeners[n]
		for i, cur := range list {
			if cur == l {
				list = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(list) == 0 {
			delete(d.listeners, n)
			return
		}
		d.listeners[n] = list
	}
}

// ListenerCount returns the number of registered listeners
func (d *Document) ListenerCount() int {
	total := 0
	for _, list := range d.listeners {
		total += len(list)
	}
	return total
}

// Dispatch delivers ev to target and bubbles it through its ancestors. It
// reports whether any listener ran.
func (d *Document) Dispatch(target *Node, ev *Event) bool {
	ev.Target = target
	handled := false
	for n := target; n != nil && !ev.stopped; n = n.Parent {
		list := append([]*listener(nil), d.listeners[n]...)
		for _, l := range list {
			if l.event != ev.Type {
				continue
			}
			ev.Current = n
			l.fn(ev)
			handled = true
		}
	}
	return handled
}
