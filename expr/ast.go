// Package expr parses the expression and statement language used inside
// template interpolations, attribute values, event handlers and the
// component script, and scans it for free identifiers.
package expr

import "loom/types"

// Node is the base interface for all AST nodes
type Node interface {
	Position() int // byte offset into the parsed source
}

// Expr represents an expression node
type Expr interface {
	Node
	exprNode()
}

// Stmt represents a statement node
type Stmt interface {
	Node
	stmtNode()
}

// LiteralExpr wraps a constant value
type LiteralExpr struct {
	Pos   int
	Value types.Value
}

// IdentExpr is a variable reference
type IdentExpr struct {
	Pos  int
	Name string
}

// TemplateExpr is a template literal: Quasis[0] Exprs[0] Quasis[1] ...
type TemplateExpr struct {
	Pos    int
	Quasis []string
	Exprs  []Expr
}

// ArrayExpr is [a, b, ...c]
type ArrayExpr struct {
	Pos   int
	Elems []Expr
}

// Property is one entry of an object literal
type Property struct {
	Key       string
	Value     Expr
	Shorthand bool
}

// ObjectExpr is {key: value, name}
type ObjectExpr struct {
	Pos   int
	Props []Property
}

// SpreadExpr is ...expr inside an array literal or argument list
type SpreadExpr struct {
	Pos int
	Arg Expr
}

// MemberExpr is obj.name or obj?.name
type MemberExpr struct {
	Pos      int
	Object   Expr
	Name     string
	Optional bool
}

// IndexExpr is obj[index] or obj?.[index]
type IndexExpr struct {
	Pos      int
	Object   Expr
	Index    Expr
	Optional bool
}

// CallExpr is callee(args)
type CallExpr struct {
	Pos      int
	Callee   Expr
	Args     []Expr
	Optional bool
}

// UnaryExpr is a prefix operation: ! - + typeof
type UnaryExpr struct {
	Pos     int
	Op      string
	Operand Expr
}

// BinaryExpr covers arithmetic, comparison and the short-circuit operators
type BinaryExpr struct {
	Pos   int
	Op    string
	Left  Expr
	Right Expr
}

// ConditionalExpr is test ? then : else
type ConditionalExpr struct {
	Pos  int
	Test Expr
	Then Expr
	Else Expr
}

// ArrowExpr is (a, b) => expr or (a) => { stmts }
type ArrowExpr struct {
	Pos    int
	Params []string
	Body   Expr   // expression body, nil when Block is used
	Block  []Stmt // statement body
}

// AssignExpr is target op= value
type AssignExpr struct {
	Pos    int
	Op     string // "=", "+=", "-=", ...
	Target Expr   // IdentExpr, MemberExpr or IndexExpr
	Value  Expr
}

// UpdateExpr is ++x, x++, --x, x--
type UpdateExpr struct {
	Pos    int
	Op     string
	Prefix bool
	Target Expr
}

func (e *LiteralExpr) Position() int     { return e.Pos }
func (e *IdentExpr) Position() int       { return e.Pos }
func (e *TemplateExpr) Position() int    { return e.Pos }
func (e *ArrayExpr) Position() int       { return e.Pos }
func (e *ObjectExpr) Position() int      { return e.Pos }
func (e *SpreadExpr) Position() int      { return e.Pos }
func (e *MemberExpr) Position() int      { return e.Pos }
func (e *IndexExpr) Position() int       { return e.Pos }
func (e *CallExpr) Position() int        { return e.Pos }
func (e *UnaryExpr) Position() int       { return e.Pos }
func (e *BinaryExpr) Position() int      { return e.Pos }
func (e *ConditionalExpr) Position() int { return e.Pos }
func (e *ArrowExpr) Position() int       { return e.Pos }
func (e *AssignExpr) Position() int      { return e.Pos }
func (e *UpdateExpr) Position() int      { return e.Pos }

func (e *LiteralExpr) exprNode()     {}
func (e *IdentExpr) exprNode()       {}
func (e *TemplateExpr) exprNode()    {}
func (e *ArrayExpr) exprNode()       {}
func (e *ObjectExpr) exprNode()      {}
func (e *SpreadExpr) exprNode()      {}
func (e *MemberExpr) exprNode()      {}
func (e *IndexExpr) exprNode()       {}
func (e *CallExpr) exprNode()        {}
func (e *UnaryExpr) exprNode()       {}
func (e *BinaryExpr) exprNode()      {}
func (e *ConditionalExpr) exprNode() {}
func (e *ArrowExpr) exprNode()       {}
func (e *AssignExpr) exprNode()      {}
func (e *UpdateExpr) exprNode()      {}

// ExprStmt is an expression evaluated for its effect
type ExprStmt struct {
	Pos  int
	Expr Expr
}

// DeclStmt is let/const/var name = init
type DeclStmt struct {
	Pos      int
	Kind     string
	Name     string
	Init     Expr // nil when absent
	Exported bool
}

// IfStmt is if (cond) {...} else {...}
type IfStmt struct {
	Pos  int
	Cond Expr
	Then []Stmt
	Else []Stmt
}

// ReturnStmt is return [value]
type ReturnStmt struct {
	Pos   int
	Value Expr // nil for a bare return
}

// FuncDecl is function name(params) { body }
type FuncDecl struct {
	Pos      int
	Name     string
	Params   []string
	Body     []Stmt
	Source   string // body text between the braces
	Exported bool
}

// LabeledStmt is label: stmt; "$: x = expr" declares a derived value
type LabeledStmt struct {
	Pos   int
	Label string
	Body  Stmt
}

func (s *ExprStmt) Position() int    { return s.Pos }
func (s *DeclStmt) Position() int    { return s.Pos }
func (s *IfStmt) Position() int      { return s.Pos }
func (s *ReturnStmt) Position() int  { return s.Pos }
func (s *FuncDecl) Position() int    { return s.Pos }
func (s *LabeledStmt) Position() int { return s.Pos }

func (s *ExprStmt) stmtNode()    {}
func (s *DeclStmt) stmtNode()    {}
func (s *IfStmt) stmtNode()      {}
func (s *ReturnStmt) stmtNode()  {}
func (s *FuncDecl) stmtNode()    {}
func (s *LabeledStmt) stmtNode() {}
