package parser

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"loom/expr"
)

// Parser phases, reported by ParseError for diagnostics
const (
	PHASE_ELEMENT_OPEN = "element-open"
	PHASE_ATTRS        = "attrs"
	PHASE_CHILDREN     = "children"
	PHASE_RAWTEXT      = "rawtext"
	PHASE_MUSTACHE     = "mustache"
	PHASE_IF_HEAD      = "if-head"
	PHASE_EACH_HEAD    = "each-head"
)

// Parser is a recursive-descent parser over template tokens. The first
// error aborts the parse; there is no recovery.
type Parser struct {
	src    string
	lines  *lineIndex
	tokens []Token
	pos    int
	phases []string
}

// Parse builds the AST for a token stream produced by Tokenize(src)
func Parse(tokens []Token, src string) ([]Node, error) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != TOKEN_EOF {
		tokens = append(tokens, Token{Type: TOKEN_EOF, Position: newLineIndex(src).position(len(src))})
	}
	p := &Parser{src: src, lines: newLineIndex(src), tokens: tokens}
	nodes, err := p.parseNodes()
	if err != nil {
		return nil, err
	}
	if tok := p.cur(); tok.Type != TOKEN_EOF {
		return nil, p.strayCloser(tok)
	}
	return nodes, nil
}

// ParseTemplate tokenizes and parses src
func ParseTemplate(src string) ([]Node, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	return Parse(tokens, src)
}

func (p *Parser) cur() Token {
	return p.tokens[p.pos]
}

func (p *Parser) peek() Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) advance() Token {
	tok := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *Parser) push(phase string) {
	p.phases = append(p.phases, phase)
}

func (p *Parser) pop() {
	p.phases = p.phases[:len(p.phases)-1]
}

func (p *Parser) errorAt(pos Position, format string, args ...any) error {
	phase := ""
	if len(p.phases) > 0 {
		phase = p.phases[len(p.phases)-1]
	}
	return &ParseError{
		Pos:   pos,
		Phase: phase,
		Msg:   fmt.Sprintf(format, args...),
		Frame: renderFrame(p.src, pos),
	}
}

// checkExpr parses expression text so syntax errors surface as positioned
// parse errors
func (p *Parser) checkExpr(text string, offset int) error {
	if _, err := expr.ParseExpr(text); err != nil {
		if se, ok := err.(*expr.SyntaxError); ok {
			return p.errorAt(p.lines.position(offset+se.Offset), "invalid expression: %s", se.Msg)
		}
		return p.errorAt(p.lines.position(offset), "invalid expression: %v", err)
	}
	return nil
}

func describe(tok Token) string {
	switch tok.Type {
	case TOKEN_NAME:
		return fmt.Sprintf("name %q", tok.Value)
	case TOKEN_TEXT:
		return fmt.Sprintf("text %q", tok.Value)
	}
	return tok.Type.String()
}

// strayCloser reports a closing construct with no opener
func (p *Parser) strayCloser(tok Token) error {
	switch tok.Type {
	case TOKEN_TAG_CLOSE_OPEN:
		return p.errorAt(tok.Position, "unexpected closing tag </%s>", p.peek().Value)
	case TOKEN_ELSE_IF, TOKEN_ELSE, TOKEN_END_IF:
		return p.errorAt(tok.Position, "%s without matching {#if}", tok.Type)
	case TOKEN_END_EACH:
		return p.errorAt(tok.Position, "{/each} without matching {#each}")
	}
	return p.errorAt(tok.Position, "unexpected %s", describe(tok))
}

// parseNodes reads sibling nodes until a token that closes or continues an
// enclosing construct, which is left for the caller
func (p *Parser) parseNodes() ([]Node, error) {
	var nodes []Node
	for {
		tok := p.cur()
		switch tok.Type {
		case TOKEN_TEXT, TOKEN_RAW:
			p.advance()
			nodes = append(nodes, &Text{Position: tok.Position, Value: tok.Value})
		case TOKEN_COMMENT:
			p.advance()
			nodes = append(nodes, &Comment{Position: tok.Position, Value: tok.Value})
		case TOKEN_EXPR:
			n, err := p.parseMustache()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		case TOKEN_IF:
			n, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		case TOKEN_EACH:
			n, err := p.parseEach()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		case TOKEN_TAG_OPEN:
			n, err := p.parseElement()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		case TOKEN_EOF, TOKEN_TAG_CLOSE_OPEN, TOKEN_ELSE_IF, TOKEN_ELSE, TOKEN_END_IF, TOKEN_END_EACH:
			return nodes, nil
		default:
			return nil, p.errorAt(tok.Position, "unexpected %s", describe(tok))
		}
	}
}

func (p *Parser) parseChildren() ([]Node, error) {
	p.push(PHASE_CHILDREN)
	defer p.pop()
	return p.parseNodes()
}

func (p *Parser) parseMustache() (Node, error) {
	tok := p.advance()
	p.push(PHASE_MUSTACHE)
	defer p.pop()
	if tok.Value == "" {
		return nil, p.errorAt(tok.Position, "empty expression")
	}
	if err := p.checkExpr(tok.Value, tok.ValueOffset); err != nil {
		return nil, err
	}
	return &Mustache{Position: tok.Position, Expr: tok.Value, ExprOffset: tok.ValueOffset}, nil
}

// ============================================================================
// ELEMENTS
// ============================================================================

func (p *Parser) parseElement() (Node, error) {
	open := p.advance()

	p.push(PHASE_ELEMENT_OPEN)
	name := p.cur()
	if name.Type != TOKEN_NAME {
		err := p.errorAt(name.Position, "expected tag name, found %s", describe(name))
		p.pop()
		return nil, err
	}
	p.advance()
	p.pop()

	el := &Element{Position: open.Position, Tag: name.Value}
	selfClosed, err := p.parseAttrs(el)
	if err != nil {
		return nil, err
	}
	if selfClosed || IsVoidElement(strings.ToLower(el.Tag)) {
		return el, nil
	}

	if IsRawTextTag(el.Tag) {
		p.push(PHASE_RAWTEXT)
		defer p.pop()
		if tok := p.cur(); tok.Type == TOKEN_RAW {
			p.advance()
			el.Children = []Node{&Text{Position: tok.Position, Value: tok.Value}}
		}
		return el, p.expectClose(el)
	}

	p.push(PHASE_CHILDREN)
	defer p.pop()
	children, err := p.parseNodes()
	if err != nil {
		return nil, err
	}
	el.Children = children
	return el, p.expectClose(el)
}

// parseAttrs reads attributes up to '>' or '/>'; selfClosed reports '/>'
func (p *Parser) parseAttrs(el *Element) (selfClosed bool, err error) {
	p.push(PHASE_ATTRS)
	defer p.pop()
	for {
		tok := p.cur()
		switch tok.Type {
		case TOKEN_TAG_END:
			p.advance()
			return false, nil
		case TOKEN_SELF_CLOSE:
			p.advance()
			return true, nil
		case TOKEN_NAME:
			attr, err := p.parseAttr()
			if err != nil {
				return false, err
			}
			el.Attrs = append(el.Attrs, attr)
		case TOKEN_EXPR:
			// {name} shorthand for name={name}
			p.advance()
			if !expr.IsIdentifier(tok.Value) {
				return false, p.errorAt(tok.Position, "attribute shorthand must be a plain identifier, found {%s}", tok.Value)
			}
			el.Attrs = append(el.Attrs, Attr{
				Position:    tok.Position,
				Name:        tok.Value,
				Kind:        ATTR_DYNAMIC,
				Value:       tok.Value,
				ValueOffset: tok.ValueOffset,
			})
		default:
			return false, p.errorAt(tok.Position, "unexpected %s in <%s>", describe(tok), el.Tag)
		}
	}
}

func (p *Parser) parseAttr() (Attr, error) {
	name := p.advance()
	attr := Attr{Position: name.Position, Name: name.Value, Kind: ATTR_BOOL}
	if p.cur().Type != TOKEN_EQUALS {
		return attr, nil
	}
	p.advance()
	val := p.advance()
	attr.Value, attr.ValueOffset = val.Value, val.ValueOffset
	switch val.Type {
	case TOKEN_STRING:
		attr.Kind = ATTR_STATIC
		if _, ok := EventName(attr.Name); ok {
			if strings.TrimSpace(val.Value) == "" {
				return attr, p.errorAt(val.Position, "empty handler for %s", attr.Name)
			}
			if err := p.checkExpr(val.Value, val.ValueOffset); err != nil {
				return attr, err
			}
		}
	case TOKEN_EXPR, TOKEN_TEMPLATE:
		attr.Kind = ATTR_DYNAMIC
		if val.Value == "" {
			return attr, p.errorAt(val.Position, "empty expression for attribute %s", attr.Name)
		}
		if err := p.checkExpr(val.Value, val.ValueOffset); err != nil {
			return attr, err
		}
	default:
		return attr, p.errorAt(val.Position, "expected value for attribute %s, found %s", attr.Name, describe(val))
	}
	return attr, nil
}

// expectClose consumes </tag>
func (p *Parser) expectClose(el *Element) error {
	tok := p.cur()
	switch tok.Type {
	case TOKEN_EOF:
		return p.errorAt(el.Position, "unclosed <%s>", el.Tag)
	case TOKEN_TAG_CLOSE_OPEN:
	default:
		return p.errorAt(tok.Position, "expected </%s>, found %s", el.Tag, describe(tok))
	}
	p.advance()
	name := p.cur()
	if name.Type != TOKEN_NAME || !strings.EqualFold(name.Value, el.Tag) {
		return p.errorAt(name.Position, "mismatched closing tag </%s>, expected </%s>", name.Value, el.Tag)
	}
	p.advance()
	if end := p.cur(); end.Type != TOKEN_TAG_END {
		return p.errorAt(end.Position, "expected '>' to close </%s>, found %s", el.Tag, describe(end))
	}
	p.advance()
	return nil
}

// EventName reports whether an attribute binds an event (@name or on:name)
// and returns the event name
func EventName(attr string) (string, bool) {
	switch {
	case strings.HasPrefix(attr, "@") && len(attr) > 1:
		return attr[1:], true
	case strings.HasPrefix(attr, "on:") && len(attr) > 3:
		return attr[3:], true
	}
	return "", false
}

// ============================================================================
// BLOCKS
// ============================================================================

func (p *Parser) parseCondition(tok Token) error {
	p.push(PHASE_IF_HEAD)
	defer p.pop()
	if tok.Value == "" {
		return p.errorAt(tok.Position, "missing condition in %s", tok.Type)
	}
	return p.checkExpr(tok.Value, tok.ValueOffset)
}

func (p *Parser) parseIf() (Node, error) {
	open := p.advance()
	if err := p.parseCondition(open); err != nil {
		return nil, err
	}
	block := &IfBlock{Position: open.Position}
	first := IfBranch{Position: open.Position, Expr: open.Value, ExprOffset: open.ValueOffset}
	children, err := p.parseChildren()
	if err != nil {
		return nil, err
	}
	first.Children = children
	block.Branches = append(block.Branches, first)

	for {
		tok := p.cur()
		switch tok.Type {
		case TOKEN_ELSE_IF:
			if block.Else != nil {
				return nil, p.errorAt(tok.Position, "{:else if} after {:else}")
			}
			p.advance()
			if err := p.parseCondition(tok); err != nil {
				return nil, err
			}
			branch := IfBranch{Position: tok.Position, Expr: tok.Value, ExprOffset: tok.ValueOffset}
			if branch.Children, err = p.parseChildren(); err != nil {
				return nil, err
			}
			block.Branches = append(block.Branches, branch)
		case TOKEN_ELSE:
			if block.Else != nil {
				return nil, p.errorAt(tok.Position, "duplicate {:else} in {#if}")
			}
			p.advance()
			els := &ElseBranch{Position: tok.Position}
			if els.Children, err = p.parseChildren(); err != nil {
				return nil, err
			}
			block.Else = els
		case TOKEN_END_IF:
			p.advance()
			return block, nil
		case TOKEN_EOF:
			return nil, p.errorAt(open.Position, "unclosed {#if}, expected {/if}")
		default:
			return nil, p.errorAt(tok.Position, "expected {/if}, found %s", describe(tok))
		}
	}
}

var eachHeadPattern = regexp.MustCompile(`(?s)^\s*(.+?)\s+as\s+([A-Za-z_$][\w$]*)\s*(?:,\s*([A-Za-z_$][\w$]*))?\s*$`)

// SplitEachHead splits "LIST as ITEM[, INDEX]". listAt is the byte offset of
// list in head; list is the source text as written. When the fixed pattern
// does not match it falls back to splitting on the last "as" word.
func SplitEachHead(head string) (list string, listAt int, item, index string, ok bool) {
	if m := eachHeadPattern.FindStringSubmatchIndex(head); m != nil {
		if m[6] >= 0 {
			index = head[m[6]:m[7]]
		}
		item = head[m[4]:m[5]]
		if !validAlias(item) || (index != "" && !validAlias(index)) {
			return "", 0, "", "", false
		}
		return head[m[2]:m[3]], m[2], item, index, true
	}

	at := -1
	for i := 0; i+2 <= len(head); i++ {
		if head[i:i+2] == "as" && (i == 0 || isSpace(head[i-1])) && (i+2 == len(head) || isSpace(head[i+2])) {
			at = i
		}
	}
	if at < 0 {
		return "", 0, "", "", false
	}
	left := head[:at]
	list = strings.TrimSpace(left)
	if list == "" {
		return "", 0, "", "", false
	}
	listAt = len(left) - len(strings.TrimLeftFunc(left, unicode.IsSpace))
	aliases := strings.Split(strings.Join(strings.Fields(head[at+2:]), ""), ",")
	item = aliases[0]
	if len(aliases) > 1 {
		index = aliases[1]
	}
	if !validAlias(item) || (index != "" && !validAlias(index)) {
		return "", 0, "", "", false
	}
	return list, listAt, item, index, true
}

func validAlias(name string) bool {
	return expr.IsIdentifier(name) && !expr.IsReserved(name)
}

func (p *Parser) parseEach() (Node, error) {
	open := p.advance()

	p.push(PHASE_EACH_HEAD)
	list, listAt, item, index, ok := SplitEachHead(open.Value)
	if !ok {
		err := p.errorAt(open.Position, "invalid {#each} head %q, expected LIST as ITEM[, INDEX]", open.Value)
		p.pop()
		return nil, err
	}
	listOffset := open.ValueOffset + listAt
	if err := p.checkExpr(list, listOffset); err != nil {
		p.pop()
		return nil, err
	}
	p.pop()

	block := &EachBlock{
		Position:   open.Position,
		List:       list,
		ListOffset: listOffset,
		Item:       item,
		Index:      index,
	}
	children, err := p.parseChildren()
	if err != nil {
		return nil, err
	}
	block.Children = children

	switch tok := p.cur(); tok.Type {
	case TOKEN_END_EACH:
		p.advance()
		return block, nil
	case TOKEN_EOF:
		return nil, p.errorAt(open.Position, "unclosed {#each}, expected {/each}")
	default:
		return nil, p.errorAt(tok.Position, "expected {/each}, found %s", describe(tok))
	}
}
