package expr

import (
	"strconv"
	"strings"

	"loom/types"
)

// String renders n back to canonical source text. The output parses to an
// equivalent tree; spacing and parenthesisation are normalised.
func String(n Node) string {
	var b strings.Builder
	write(&b, n, 0)
	return b.String()
}

func writeStmts(b *strings.Builder, stmts []Stmt, indent int) {
	for _, s := range stmts {
		b.WriteString(strings.Repeat("  ", indent))
		write(b, s, indent)
		b.WriteString("\n")
	}
}

func writeBlock(b *strings.Builder, stmts []Stmt, indent int) {
	b.WriteString("{\n")
	writeStmts(b, stmts, indent+1)
	b.WriteString(strings.Repeat("  ", indent))
	b.WriteString("}")
}

func writeList(b *strings.Builder, exprs []Expr, indent int) {
	for i, e := range exprs {
		if i > 0 {
			b.WriteString(", ")
		}
		write(b, e, indent)
	}
}

// writeOperand parenthesises compound operands so precedence survives
func writeOperand(b *strings.Builder, e Expr, indent int) {
	switch e.(type) {
	case *BinaryExpr, *ConditionalExpr, *AssignExpr, *ArrowExpr, *UnaryExpr:
		b.WriteString("(")
		write(b, e, indent)
		b.WriteString(")")
	default:
		write(b, e, indent)
	}
}

func write(b *strings.Builder, n Node, indent int) {
	switch n := n.(type) {
	case *LiteralExpr:
		if s, ok := n.Value.(types.StrValue); ok {
			b.WriteString(strconv.Quote(s.Value()))
		} else {
			b.WriteString(n.Value.String())
		}
	case *IdentExpr:
		b.WriteString(n.Name)
	case *TemplateExpr:
		b.WriteString("`")
		for i, q := range n.Quasis {
			r := strings.NewReplacer("\\", "\\\\", "`", "\\`", "${", "\\${")
			b.WriteString(r.Replace(q))
			if i < len(n.Exprs) {
				b.WriteString("${")
				write(b, n.Exprs[i], indent)
				b.WriteString("}")
			}
		}
		b.WriteString("`")
	case *ArrayExpr:
		b.WriteString("[")
		writeList(b, n.Elems, indent)
		b.WriteString("]")
	case *ObjectExpr:
		b.WriteString("{")
		for i, p := range n.Props {
			if i > 0 {
				b.WriteString(", ")
			}
			if p.Shorthand {
				b.WriteString(p.Key)
				continue
			}
			if IsIdentifier(p.Key) {
				b.WriteString(p.Key)
			} else {
				b.WriteString(strconv.Quote(p.Key))
			}
			b.WriteString(": ")
			write(b, p.Value, indent)
		}
		b.WriteString("}")
	case *SpreadExpr:
		b.WriteString("...")
		writeOperand(b, n.Arg, indent)
	case *MemberExpr:
		writeOperand(b, n.Object, indent)
		if n.Optional {
			b.WriteString("?.")
		} else {
			b.WriteString(".")
		}
		b.WriteString(n.Name)
	case *IndexExpr:
		writeOperand(b, n.Object, indent)
		if n.Optional {
			b.WriteString("?.")
		}
		b.WriteString("[")
		write(b, n.Index, indent)
		b.WriteString("]")
	case *CallExpr:
		writeOperand(b, n.Callee, indent)
		if n.Optional {
			b.WriteString("?.")
		}
		b.WriteString("(")
		writeList(b, n.Args, indent)
		b.WriteString(")")
	case *UnaryExpr:
		b.WriteString(n.Op)
		if n.Op == "typeof" {
			b.WriteString(" ")
		}
		writeOperand(b, n.Operand, indent)
	case *BinaryExpr:
		writeOperand(b, n.Left, indent)
		b.WriteString(" " + n.Op + " ")
		writeOperand(b, n.Right, indent)
	case *ConditionalExpr:
		writeOperand(b, n.Test, indent)
		b.WriteString(" ? ")
		writeOperand(b, n.Then, indent)
		b.WriteString(" : ")
		writeOperand(b, n.Else, indent)
	case *ArrowExpr:
		b.WriteString("(" + strings.Join(n.Params, ", ") + ") => ")
		if n.Body != nil {
			if _, ok := n.Body.(*ObjectExpr); ok {
				b.WriteString("(")
				write(b, n.Body, indent)
				b.WriteString(")")
			} else {
				write(b, n.Body, indent)
			}
		} else {
			writeBlock(b, n.Block, indent)
		}
	case *AssignExpr:
		write(b, n.Target, indent)
		b.WriteString(" " + n.Op + " ")
		write(b, n.Value, indent)
	case *UpdateExpr:
		if n.Prefix {
			b.WriteString(n.Op)
			write(b, n.Target, indent)
		} else {
			write(b, n.Target, indent)
			b.WriteString(n.Op)
		}
	case *ExprStmt:
		write(b, n.Expr, indent)
		b.WriteString(";")
	case *DeclStmt:
		if n.Exported {
			b.WriteString("export ")
		}
		b.WriteString(n.Kind + " " + n.Name)
		if n.Init != nil {
			b.WriteString(" = ")
			write(b, n.Init, indent)
		}
		b.WriteString(";")
	case *IfStmt:
		b.WriteString("if (")
		write(b, n.Cond, indent)
		b.WriteString(") ")
		writeBlock(b, n.Then, indent)
		if len(n.Else) > 0 {
			b.WriteString(" else ")
			writeBlock(b, n.Else, indent)
		}
	case *ReturnStmt:
		b.WriteString("return")
		if n.Value != nil {
			b.WriteString(" ")
			write(b, n.Value, indent)
		}
		b.WriteString(";")
	case *FuncDecl:
		if n.Exported {
			b.WriteString("export ")
		}
		b.WriteString("function " + n.Name + "(" + strings.Join(n.Params, ", ") + ") ")
		writeBlock(b, n.Body, indent)
	case *LabeledStmt:
		b.WriteString(n.Label + ": ")
		write(b, n.Body, indent)
	}
}
