package expr

import (
	"fmt"
	"strconv"
	"strings"

	"loom/types"
)

// Operator precedence levels, lowest first
const (
	PREC_LOWEST = iota
	PREC_NULLISH
	PREC_OR
	PREC_AND
	PREC_EQUALITY
	PREC_RELATIONAL
	PREC_ADDITIVE
	PREC_MULTIPLICATIVE
	PREC_EXPONENT
)

var binaryPrec = map[string]int{
	"??":  PREC_NULLISH,
	"||":  PREC_OR,
	"&&":  PREC_AND,
	"==":  PREC_EQUALITY,
	"!=":  PREC_EQUALITY,
	"===": PREC_EQUALITY,
	"!==": PREC_EQUALITY,
	"<":   PREC_RELATIONAL,
	">":   PREC_RELATIONAL,
	"<=":  PREC_RELATIONAL,
	">=":  PREC_RELATIONAL,
	"+":   PREC_ADDITIVE,
	"-":   PREC_ADDITIVE,
	"*":   PREC_MULTIPLICATIVE,
	"/":   PREC_MULTIPLICATIVE,
	"%":   PREC_MULTIPLICATIVE,
	"**":  PREC_EXPONENT,
}

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"**=": true, "??=": true, "&&=": true, "||=": true,
}

// Parser is a Pratt parser over a pre-lexed token slice
type Parser struct {
	src  string
	base int // offset of src within the enclosing source
	toks []Token
	pos  int
}

func newParser(src string, base int) (*Parser, error) {
	toks, err := Tokenize(src)
	if err != nil {
		if se, ok := err.(*SyntaxError); ok {
			return nil, &SyntaxError{Offset: se.Offset + base, Msg: se.Msg}
		}
		return nil, err
	}
	for i := range toks {
		toks[i].Pos += base
		for j := range toks[i].ExprOffsets {
			toks[i].ExprOffsets[j] += base
		}
	}
	return &Parser{src: src, base: base, toks: toks}, nil
}

// ParseExpr parses src as exactly one expression
func ParseExpr(src string) (Expr, error) {
	return parseExprAt(src, 0)
}

func parseExprAt(src string, base int) (Expr, error) {
	p, err := newParser(src, base)
	if err != nil {
		return nil, err
	}
	if p.cur().Type == TOKEN_EOF {
		return nil, &SyntaxError{Offset: base, Msg: "empty expression"}
	}
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if tok := p.cur(); tok.Type != TOKEN_EOF {
		return nil, p.unexpected(tok)
	}
	return e, nil
}

// ParseProgram parses src as a sequence of statements
func ParseProgram(src string) ([]Stmt, error) {
	p, err := newParser(src, 0)
	if err != nil {
		return nil, err
	}
	return p.parseStatements(false)
}

func (p *Parser) cur() Token {
	return p.toks[p.pos]
}

func (p *Parser) peek(n int) Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) advance() Token {
	tok := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) isOp(v string) bool {
	tok := p.cur()
	return tok.Type == TOKEN_OP && tok.Value == v
}

func (p *Parser) isKeyword(v string) bool {
	tok := p.cur()
	return tok.Type == TOKEN_KEYWORD && tok.Value == v
}

func (p *Parser) expectOp(v string) (Token, error) {
	if !p.isOp(v) {
		return Token{}, p.errorf(p.cur(), "expected '%s', found %s", v, describe(p.cur()))
	}
	return p.advance(), nil
}

func (p *Parser) errorf(tok Token, format string, args ...any) error {
	return &SyntaxError{Offset: tok.Pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) unexpected(tok Token) error {
	return p.errorf(tok, "unexpected %s", describe(tok))
}

func describe(tok Token) string {
	switch tok.Type {
	case TOKEN_EOF:
		return "end of input"
	case TOKEN_STRING:
		return "string " + strconv.Quote(tok.Value)
	default:
		return "'" + tok.Value + "'"
	}
}

// parseExpression parses the lowest-precedence expression form
func (p *Parser) parseExpression() (Expr, error) {
	return p.parseAssignment()
}

func (p *Parser) parseAssignment() (Expr, error) {
	if p.isArrowAhead() {
		return p.parseArrow()
	}
	left, err := p.parseConditional()
	if err != nil {
		return nil, err
	}
	tok := p.cur()
	if tok.Type == TOKEN_OP && assignOps[tok.Value] {
		if !isAssignable(left) {
			return nil, p.errorf(tok, "invalid assignment target")
		}
		p.advance()
		right, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		return &AssignExpr{Pos: left.Position(), Op: tok.Value, Target: left, Value: right}, nil
	}
	return left, nil
}

func isAssignable(e Expr) bool {
	switch e.(type) {
	case *IdentExpr, *MemberExpr, *IndexExpr:
		return true
	}
	return false
}

func (p *Parser) parseConditional() (Expr, error) {
	test, err := p.parseBinary(PREC_NULLISH)
	if err != nil {
		return nil, err
	}
	if !p.isOp("?") {
		return test, nil
	}
	p.advance()
	then, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp(":"); err != nil {
		return nil, err
	}
	els, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	return &ConditionalExpr{Pos: test.Position(), Test: test, Then: then, Else: els}, nil
}

func (p *Parser) parseBinary(minPrec int) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.cur()
		if tok.Type != TOKEN_OP {
			return left, nil
		}
		prec, ok := binaryPrec[tok.Value]
		if !ok || prec < minPrec {
			return left, nil
		}
		p.advance()
		next := prec + 1
		if tok.Value == "**" {
			next = prec // right associative
		}
		right, err := p.parseBinary(next)
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Pos: left.Position(), Op: tok.Value, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() (Expr, error) {
	tok := p.cur()
	switch {
	case tok.Type == TOKEN_OP && (tok.Value == "!" || tok.Value == "-" || tok.Value == "+"),
		tok.Type == TOKEN_KEYWORD && tok.Value == "typeof":
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Pos: tok.Pos, Op: tok.Value, Operand: operand}, nil
	case tok.Type == TOKEN_OP && (tok.Value == "++" || tok.Value == "--"):
		p.advance()
		target, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if !isAssignable(target) {
			return nil, p.errorf(tok, "invalid update target")
		}
		return &UpdateExpr{Pos: tok.Pos, Op: tok.Value, Prefix: true, Target: target}, nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (Expr, error) {
	e, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok := p.cur()
		if tok.Type != TOKEN_OP {
			return e, nil
		}
		switch tok.Value {
		case ".":
			p.advance()
			name := p.cur()
			if name.Type != TOKEN_IDENT && name.Type != TOKEN_KEYWORD {
				return nil, p.errorf(name, "expected property name after '.'")
			}
			p.advance()
			e = &MemberExpr{Pos: e.Position(), Object: e, Name: name.Value}
		case "?.":
			p.advance()
			switch {
			case p.isOp("("):
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				e = &CallExpr{Pos: e.Position(), Callee: e, Args: args, Optional: true}
			case p.isOp("["):
				idx, err := p.parseIndex()
				if err != nil {
					return nil, err
				}
				e = &IndexExpr{Pos: e.Position(), Object: e, Index: idx, Optional: true}
			default:
				name := p.cur()
				if name.Type != TOKEN_IDENT && name.Type != TOKEN_KEYWORD {
					return nil, p.errorf(name, "expected property name after '?.'")
				}
				p.advance()
				e = &MemberExpr{Pos: e.Position(), Object: e, Name: name.Value, Optional: true}
			}
		case "[":
			idx, err := p.parseIndex()
			if err != nil {
				return nil, err
			}
			e = &IndexExpr{Pos: e.Position(), Object: e, Index: idx}
		case "(":
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			e = &CallExpr{Pos: e.Position(), Callee: e, Args: args}
		case "++", "--":
			if tok.NewLine {
				return e, nil
			}
			if !isAssignable(e) {
				return nil, p.errorf(tok, "invalid update target")
			}
			p.advance()
			return &UpdateExpr{Pos: e.Position(), Op: tok.Value, Target: e}, nil
		default:
			return e, nil
		}
	}
}

func (p *Parser) parseIndex() (Expr, error) {
	p.advance() // [
	idx, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp("]"); err != nil {
		return nil, err
	}
	return idx, nil
}

// parseArgs parses (a, b, ...c)
func (p *Parser) parseArgs() ([]Expr, error) {
	p.advance() // (
	var args []Expr
	for !p.isOp(")") {
		arg, err := p.parseElement()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.isOp(",") {
			break
		}
		p.advance()
	}
	if _, err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return args, nil
}

// parseElement parses an array element or call argument, allowing spread
func (p *Parser) parseElement() (Expr, error) {
	if p.isOp("...") {
		tok := p.advance()
		arg, err := p.parseAssignment()
		if err != nil {
			return nil, err
		}
		return &SpreadExpr{Pos: tok.Pos, Arg: arg}, nil
	}
	return p.parseAssignment()
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.cur()
	switch tok.Type {
	case TOKEN_NUMBER:
		p.advance()
		return parseNumber(tok)
	case TOKEN_STRING:
		p.advance()
		return &LiteralExpr{Pos: tok.Pos, Value: types.NewStr(tok.Value)}, nil
	case TOKEN_TEMPLATE:
		p.advance()
		return p.parseTemplate(tok)
	case TOKEN_IDENT:
		p.advance()
		return &IdentExpr{Pos: tok.Pos, Name: tok.Value}, nil
	case TOKEN_KEYWORD:
		switch tok.Value {
		case "true", "false":
			p.advance()
			return &LiteralExpr{Pos: tok.Pos, Value: types.NewBool(tok.Value == "true")}, nil
		case "null":
			p.advance()
			return &LiteralExpr{Pos: tok.Pos, Value: types.Null}, nil
		case "undefined":
			p.advance()
			return &LiteralExpr{Pos: tok.Pos, Value: types.Undefined}, nil
		}
	case TOKEN_OP:
		switch tok.Value {
		case "(":
			p.advance()
			e, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectOp(")"); err != nil {
				return nil, err
			}
			return e, nil
		case "[":
			return p.parseArray()
		case "{":
			return p.parseObject()
		}
	}
	return nil, p.unexpected(tok)
}

func parseNumber(tok Token) (Expr, error) {
	text := strings.ReplaceAll(tok.Value, "_", "")
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		n, err := strconv.ParseInt(text[2:], 16, 64)
		if err != nil {
			return nil, &SyntaxError{Offset: tok.Pos, Msg: "invalid number " + tok.Value}
		}
		return &LiteralExpr{Pos: tok.Pos, Value: types.NewInt(n)}, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, &SyntaxError{Offset: tok.Pos, Msg: "invalid number " + tok.Value}
	}
	return &LiteralExpr{Pos: tok.Pos, Value: types.NewNumber(f)}, nil
}

func (p *Parser) parseTemplate(tok Token) (Expr, error) {
	t := &TemplateExpr{Pos: tok.Pos, Quasis: tok.Quasis}
	for i, src := range tok.Exprs {
		e, err := parseExprAt(src, tok.ExprOffsets[i])
		if err != nil {
			return nil, err
		}
		t.Exprs = append(t.Exprs, e)
	}
	return t, nil
}

func (p *Parser) parseArray() (Expr, error) {
	open := p.advance()
	arr := &ArrayExpr{Pos: open.Pos}
	for !p.isOp("]") {
		el, err := p.parseElement()
		if err != nil {
			return nil, err
		}
		arr.Elems = append(arr.Elems, el)
		if !p.isOp(",") {
			break
		}
		p.advance()
	}
	if _, err := p.expectOp("]"); err != nil {
		return nil, err
	}
	return arr, nil
}

func (p *Parser) parseObject() (Expr, error) {
	open := p.advance()
	obj := &ObjectExpr{Pos: open.Pos}
	for !p.isOp("}") {
		key := p.cur()
		switch key.Type {
		case TOKEN_IDENT, TOKEN_KEYWORD, TOKEN_STRING, TOKEN_NUMBER:
			p.advance()
		default:
			return nil, p.errorf(key, "expected property name, found %s", describe(key))
		}
		if p.isOp(":") {
			p.advance()
			val, err := p.parseAssignment()
			if err != nil {
				return nil, err
			}
			obj.Props = append(obj.Props, Property{Key: key.Value, Value: val})
		} else {
			if key.Type != TOKEN_IDENT {
				return nil, p.errorf(key, "expected ':' after property name")
			}
			obj.Props = append(obj.Props, Property{
				Key:       key.Value,
				Value:     &IdentExpr{Pos: key.Pos, Name: key.Value},
				Shorthand: true,
			})
		}
		if !p.isOp(",") {
			break
		}
		p.advance()
	}
	if _, err := p.expectOp("}"); err != nil {
		return nil, err
	}
	return obj, nil
}

// isArrowAhead reports whether the tokens at the cursor start an arrow function
func (p *Parser) isArrowAhead() bool {
	tok := p.cur()
	if tok.Type == TOKEN_IDENT {
		next := p.peek(1)
		return next.Type == TOKEN_OP && next.Value == "=>"
	}
	if tok.Type != TOKEN_OP || tok.Value != "(" {
		return false
	}
	depth := 0
	for i := p.pos; i < len(p.toks); i++ {
		t := p.toks[i]
		if t.Type == TOKEN_EOF {
			return false
		}
		if t.Type != TOKEN_OP {
			continue
		}
		switch t.Value {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				next := p.peek(i - p.pos + 1)
				return next.Type == TOKEN_OP && next.Value == "=>"
			}
		}
	}
	return false
}

func (p *Parser) parseArrow() (Expr, error) {
	start := p.cur()
	arrow := &ArrowExpr{Pos: start.Pos}
	if start.Type == TOKEN_IDENT {
		p.advance()
		arrow.Params = []string{start.Value}
	} else {
		params, err := p.parseParams()
		if err != nil {
			return nil, err
		}
		arrow.Params = params
	}
	if _, err := p.expectOp("=>"); err != nil {
		return nil, err
	}
	if p.isOp("{") {
		body, _, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		arrow.Block = body
		return arrow, nil
	}
	body, err := p.parseAssignment()
	if err != nil {
		return nil, err
	}
	arrow.Body = body
	return arrow, nil
}

// parseParams parses (a, b) as a parameter name list
func (p *Parser) parseParams() ([]string, error) {
	if _, err := p.expectOp("("); err != nil {
		return nil, err
	}
	var params []string
	for !p.isOp(")") {
		tok := p.cur()
		if tok.Type != TOKEN_IDENT {
			return nil, p.errorf(tok, "expected parameter name, found %s", describe(tok))
		}
		p.advance()
		params = append(params, tok.Value)
		if !p.isOp(",") {
			break
		}
		p.advance()
	}
	if _, err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return params, nil
}
