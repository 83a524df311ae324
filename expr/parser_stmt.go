package expr

// parseStatements reads statements until EOF, or until the closing '}' when
// inBlock is set (the brace itself is left for the caller)
func (p *Parser) parseStatements(inBlock bool) ([]Stmt, error) {
	var stmts []Stmt
	for {
		tok := p.cur()
		if tok.Type == TOKEN_EOF {
			if inBlock {
				return nil, p.errorf(tok, "unterminated block")
			}
			return stmts, nil
		}
		if inBlock && p.isOp("}") {
			return stmts, nil
		}
		if p.isOp(";") {
			p.advance()
			continue
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
}

// parseBlock parses { stmts } and returns the statements together with the
// raw source between the braces
func (p *Parser) parseBlock() ([]Stmt, string, error) {
	open, err := p.expectOp("{")
	if err != nil {
		return nil, "", err
	}
	body, err := p.parseStatements(true)
	if err != nil {
		return nil, "", err
	}
	closing, err := p.expectOp("}")
	if err != nil {
		return nil, "", err
	}
	return body, p.src[open.Pos+1-p.base : closing.Pos-p.base], nil
}

// parseBody parses either a braced block or a single statement
func (p *Parser) parseBody() ([]Stmt, error) {
	if p.isOp("{") {
		body, _, err := p.parseBlock()
		return body, err
	}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return []Stmt{stmt}, nil
}

func (p *Parser) parseStatement() (Stmt, error) {
	tok := p.cur()
	if tok.Type == TOKEN_KEYWORD {
		switch tok.Value {
		case "let", "const", "var":
			return p.parseDecl(false)
		case "function":
			return p.parseFunc(false)
		case "export":
			p.advance()
			if p.isKeyword("function") {
				return p.parseFunc(true)
			}
			if p.isKeyword("let") || p.isKeyword("const") || p.isKeyword("var") {
				return p.parseDecl(true)
			}
			return nil, p.errorf(p.cur(), "expected declaration after export")
		case "if":
			return p.parseIf()
		case "return":
			return p.parseReturn()
		}
	}
	if tok.Type == TOKEN_IDENT {
		if next := p.peek(1); next.Type == TOKEN_OP && next.Value == ":" {
			p.advance()
			p.advance()
			body, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			return &LabeledStmt{Pos: tok.Pos, Label: tok.Value, Body: body}, nil
		}
	}
	e, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	return &ExprStmt{Pos: tok.Pos, Expr: e}, nil
}

// endStatement consumes a terminating ';' or accepts an implied one before a
// line break, a closing brace or end of input
func (p *Parser) endStatement() error {
	tok := p.cur()
	switch {
	case tok.Type == TOKEN_OP && tok.Value == ";":
		p.advance()
		return nil
	case tok.Type == TOKEN_EOF, tok.NewLine, tok.Type == TOKEN_OP && tok.Value == "}":
		return nil
	}
	return p.errorf(tok, "expected ';' before %s", describe(tok))
}

func (p *Parser) parseDecl(exported bool) (Stmt, error) {
	kw := p.advance()
	name := p.cur()
	if name.Type != TOKEN_IDENT {
		return nil, p.errorf(name, "expected identifier after %s", kw.Value)
	}
	p.advance()
	decl := &DeclStmt{Pos: kw.Pos, Kind: kw.Value, Name: name.Value, Exported: exported}
	if p.isOp("=") {
		p.advance()
		init, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		decl.Init = init
	} else if kw.Value == "const" {
		return nil, p.errorf(name, "missing initializer in const declaration")
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *Parser) parseFunc(exported bool) (Stmt, error) {
	kw := p.advance()
	name := p.cur()
	if name.Type != TOKEN_IDENT {
		return nil, p.errorf(name, "expected function name")
	}
	p.advance()
	params, err := p.parseParams()
	if err != nil {
		return nil, err
	}
	body, src, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &FuncDecl{
		Pos:      kw.Pos,
		Name:     name.Value,
		Params:   params,
		Body:     body,
		Source:   src,
		Exported: exported,
	}, nil
}

func (p *Parser) parseIf() (Stmt, error) {
	kw := p.advance()
	if _, err := p.expectOp("("); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp(")"); err != nil {
		return nil, err
	}
	then, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	stmt := &IfStmt{Pos: kw.Pos, Cond: cond, Then: then}
	if p.isKeyword("else") {
		p.advance()
		if p.isKeyword("if") {
			nested, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			stmt.Else = []Stmt{nested}
		} else {
			els, err := p.parseBody()
			if err != nil {
				return nil, err
			}
			stmt.Else = els
		}
	}
	return stmt, nil
}

func (p *Parser) parseReturn() (Stmt, error) {
	kw := p.advance()
	ret := &ReturnStmt{Pos: kw.Pos}
	tok := p.cur()
	if tok.Type == TOKEN_EOF || tok.NewLine || (tok.Type == TOKEN_OP && (tok.Value == ";" || tok.Value == "}")) {
		return ret, p.endStatement()
	}
	val, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	ret.Value = val
	return ret, p.endStatement()
}
