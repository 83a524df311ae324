package expr

import "loom/types"

// reserved identifiers never count as dependencies
var reserved = map[string]bool{
	"true":      true,
	"false":     true,
	"null":      true,
	"undefined": true,
	"this":      true,
}

// IsReserved reports whether name is a reserved word that never names a value
func IsReserved(name string) bool {
	return reserved[name] || keywords[name]
}

// Inspect walks the tree rooted at n in depth-first order, calling f for each
// node. Children are skipped when f returns false.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch n := n.(type) {
	case *TemplateExpr:
		for _, e := range n.Exprs {
			Inspect(e, f)
		}
	case *ArrayExpr:
		for _, e := range n.Elems {
			Inspect(e, f)
		}
	case *ObjectExpr:
		for _, p := range n.Props {
			Inspect(p.Value, f)
		}
	case *SpreadExpr:
		Inspect(n.Arg, f)
	case *MemberExpr:
		Inspect(n.Object, f)
	case *IndexExpr:
		Inspect(n.Object, f)
		Inspect(n.Index, f)
	case *CallExpr:
		Inspect(n.Callee, f)
		for _, a := range n.Args {
			Inspect(a, f)
		}
	case *UnaryExpr:
		Inspect(n.Operand, f)
	case *BinaryExpr:
		Inspect(n.Left, f)
		Inspect(n.Right, f)
	case *ConditionalExpr:
		Inspect(n.Test, f)
		Inspect(n.Then, f)
		Inspect(n.Else, f)
	case *ArrowExpr:
		if n.Body != nil {
			Inspect(n.Body, f)
		}
		inspectStmts(n.Block, f)
	case *AssignExpr:
		Inspect(n.Target, f)
		Inspect(n.Value, f)
	case *UpdateExpr:
		Inspect(n.Target, f)
	case *ExprStmt:
		Inspect(n.Expr, f)
	case *DeclStmt:
		if n.Init != nil {
			Inspect(n.Init, f)
		}
	case *IfStmt:
		Inspect(n.Cond, f)
		inspectStmts(n.Then, f)
		inspectStmts(n.Else, f)
	case *ReturnStmt:
		if n.Value != nil {
			Inspect(n.Value, f)
		}
	case *FuncDecl:
		inspectStmts(n.Body, f)
	case *LabeledStmt:
		Inspect(n.Body, f)
	}
}

func inspectStmts(stmts []Stmt, f func(Node) bool) {
	for _, s := range stmts {
		Inspect(s, f)
	}
}

// scanner collects free identifiers while tracking names bound by arrow
// parameters and block-level declarations
type scanner struct {
	scopes []map[string]bool
	seen   map[string]bool
	names  []string
}

func (s *scanner) bound(name string) bool {
	for i := len(s.scopes) - 1; i >= 0; i-- {
		if s.scopes[i][name] {
			return true
		}
	}
	return false
}

func (s *scanner) push(names ...string) {
	scope := make(map[string]bool, len(names))
	for _, n := range names {
		scope[n] = true
	}
	s.scopes = append(s.scopes, scope)
}

func (s *scanner) pop() {
	s.scopes = s.scopes[:len(s.scopes)-1]
}

func (s *scanner) declare(name string) {
	if len(s.scopes) > 0 {
		s.scopes[len(s.scopes)-1][name] = true
	}
}

func (s *scanner) ref(name string) {
	if IsReserved(name) || s.bound(name) || s.seen[name] {
		return
	}
	s.seen[name] = true
	s.names = append(s.names, name)
}

// FreeIdentifiers returns the identifiers n reads or writes that are not bound
// inside n itself, in order of first occurrence. Member names, object keys and
// reserved words are never reported.
func FreeIdentifiers(n Node) []string {
	s := &scanner{seen: map[string]bool{}}
	s.node(n)
	return s.names
}

// FreeIdentifiersOf merges the free identifiers of several statements, letting
// earlier top-level declarations bind later references.
func FreeIdentifiersOf(stmts []Stmt) []string {
	s := &scanner{seen: map[string]bool{}}
	s.push()
	s.stmts(stmts)
	return s.names
}

func (s *scanner) stmts(stmts []Stmt) {
	for _, st := range stmts {
		s.node(st)
	}
}

func (s *scanner) node(n Node) {
	switch n := n.(type) {
	case nil:
	case *IdentExpr:
		s.ref(n.Name)
	case *ArrowExpr:
		s.push(n.Params...)
		if n.Body != nil {
			s.node(n.Body)
		}
		s.stmts(n.Block)
		s.pop()
	case *DeclStmt:
		if n.Init != nil {
			s.node(n.Init)
		}
		s.declare(n.Name)
	case *FuncDecl:
		s.declare(n.Name)
		s.push(n.Params...)
		s.stmts(n.Body)
		s.pop()
	case *IfStmt:
		s.node(n.Cond)
		s.push()
		s.stmts(n.Then)
		s.pop()
		s.push()
		s.stmts(n.Else)
		s.pop()
	default:
		// Delegate plain structural recursion to Inspect, one level deep.
		first := true
		Inspect(n, func(c Node) bool {
			if first {
				first = false
				return true
			}
			s.node(c)
			return false
		})
	}
}

// StringFragments returns the literal string parts of n: string literals and
// the static quasis of template literals, in source order.
func StringFragments(n Node) []string {
	var out []string
	Inspect(n, func(c Node) bool {
		switch c := c.(type) {
		case *LiteralExpr:
			if s, ok := c.Value.(types.StrValue); ok {
				out = append(out, s.Value())
			}
		case *TemplateExpr:
			out = append(out, c.Quasis...)
		}
		return true
	})
	return out
}
