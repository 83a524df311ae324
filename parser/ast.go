// Package parser turns component template markup into an AST: a tokenizer
// that tracks tag and data context, and a recursive-descent parser over
// its tokens.
package parser

// Node is the base interface for all template AST nodes
type Node interface {
	Pos() Position
	node()
}

// Text is literal character data
type Text struct {
	Position Position
	Value    string
}

// Comment is an HTML comment; safelist annotations live here
type Comment struct {
	Position Position
	Value    string
}

// Mustache is an {expr} interpolation
type Mustache struct {
	Position   Position
	Expr       string
	ExprOffset int
}

// AttrKind distinguishes the three attribute forms
type AttrKind int

const (
	ATTR_BOOL    AttrKind = iota // disabled
	ATTR_STATIC                  // class="card"
	ATTR_DYNAMIC                 // value={expr} or title=`a ${b}`
)

func (k AttrKind) String() string {
	switch k {
	case ATTR_BOOL:
		return "bool"
	case ATTR_STATIC:
		return "static"
	default:
		return "dynamic"
	}
}

// Attr is one attribute of an element. For dynamic attributes Value holds
// the expression text; a template literal is kept whole, backticks included.
type Attr struct {
	Position    Position
	Name        string
	Kind        AttrKind
	Value       string
	ValueOffset int
}

// Element is a tag with attributes and children
type Element struct {
	Position Position
	Tag      string
	Attrs    []Attr
	Children []Node
}

// IfBranch is the {#if} clause or one {:else if} clause
type IfBranch struct {
	Position   Position
	Expr       string
	ExprOffset int
	Children   []Node
}

// ElseBranch is the trailing {:else} clause
type ElseBranch struct {
	Position Position
	Children []Node
}

// IfBlock is {#if}...{:else if}...{:else}...{/if}
type IfBlock struct {
	Position Position
	Branches []IfBranch
	Else     *ElseBranch // nil without {:else}
}

// EachBlock is {#each List as Item[, Index]}...{/each}
type EachBlock struct {
	Position   Position
	List       string
	ListOffset int
	Item       string
	Index      string // "" when absent
	Children   []Node
}

func (n *Text) Pos() Position      { return n.Position }
func (n *Comment) Pos() Position   { return n.Position }
func (n *Mustache) Pos() Position  { return n.Position }
func (n *Element) Pos() Position   { return n.Position }
func (n *IfBlock) Pos() Position   { return n.Position }
func (n *EachBlock) Pos() Position { return n.Position }

func (n *Text) node()      {}
func (n *Comment) node()   {}
func (n *Mustache) node()  {}
func (n *Element) node()   {}
func (n *IfBlock) node()   {}
func (n *EachBlock) node() {}

// voidElements never have children or a closing tag
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// IsVoidElement reports whether tag is an HTML void element
func IsVoidElement(tag string) bool {
	return voidElements[tag]
}
