package expr

import (
	"strconv"
	"strings"
)

// readString reads a quoted string literal and returns its decoded value
func (l *Lexer) readString(quote byte) (string, error) {
	start := l.pos
	l.pos++ // opening quote
	var b strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case c == quote:
			l.pos++
			return b.String(), nil
		case c == '\n':
			return "", &SyntaxError{Offset: start, Msg: "unterminated string literal"}
		case c == '\\':
			if err := l.readEscape(&b); err != nil {
				return "", err
			}
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	return "", &SyntaxError{Offset: start, Msg: "unterminated string literal"}
}

// readEscape decodes one backslash escape; l.pos is at the backslash
func (l *Lexer) readEscape(b *strings.Builder) error {
	start := l.pos
	l.pos++
	if l.pos >= len(l.input) {
		return &SyntaxError{Offset: start, Msg: "unterminated escape sequence"}
	}
	c := l.input[l.pos]
	l.pos++
	switch c {
	case 'n':
		b.WriteByte('\n')
	case 't':
		b.WriteByte('\t')
	case 'r':
		b.WriteByte('\r')
	case '0':
		b.WriteByte(0)
	case 'u', 'x':
		n := 4
		if c == 'x' {
			n = 2
		}
		if l.pos+n > len(l.input) {
			return &SyntaxError{Offset: start, Msg: "invalid escape sequence"}
		}
		code, err := strconv.ParseUint(l.input[l.pos:l.pos+n], 16, 32)
		if err != nil {
			return &SyntaxError{Offset: start, Msg: "invalid escape sequence"}
		}
		b.WriteRune(rune(code))
		l.pos += n
	case '\n':
		// line continuation
	default:
		b.WriteByte(c)
	}
	return nil
}

// readTemplate reads a `...${expr}...` literal, splitting it into quasis and
// the source text of each interpolation
func (l *Lexer) readTemplate() (Token, error) {
	start := l.pos
	l.pos++ // opening backtick
	tok := Token{Type: TOKEN_TEMPLATE, Pos: start}
	var b strings.Builder
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case c == '`':
			l.pos++
			tok.Quasis = append(tok.Quasis, b.String())
			tok.Value = l.input[start:l.pos]
			return tok, nil
		case c == '\\':
			if err := l.readEscape(&b); err != nil {
				return Token{}, err
			}
		case c == '$' && l.peekAt(1) == '{':
			tok.Quasis = append(tok.Quasis, b.String())
			b.Reset()
			exprStart := l.pos + 2
			end, err := matchBrace(l.input, exprStart)
			if err != nil {
				return Token{}, err
			}
			tok.Exprs = append(tok.Exprs, l.input[exprStart:end])
			tok.ExprOffsets = append(tok.ExprOffsets, exprStart)
			l.pos = end + 1
		default:
			b.WriteByte(c)
			l.pos++
		}
	}
	return Token{}, &SyntaxError{Offset: start, Msg: "unterminated template literal"}
}

// matchBrace returns the index of the '}' closing a block whose body starts at
// pos, skipping braces inside strings and nested template literals
func matchBrace(input string, pos int) (int, error) {
	depth := 1
	for i := pos; i < len(input); i++ {
		switch c := input[i]; c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		case '"', '\'':
			sub := &Lexer{input: input, pos: i}
			if _, err := sub.readString(c); err != nil {
				return 0, err
			}
			i = sub.pos - 1
		case '`':
			sub := &Lexer{input: input, pos: i}
			if _, err := sub.readTemplate(); err != nil {
				return 0, err
			}
			i = sub.pos - 1
		}
	}
	return 0, &SyntaxError{Offset: pos - 2, Msg: "unterminated template interpolation"}
}
