package expr

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Lexer turns expression or script text into tokens
type Lexer struct {
	input   string
	pos     int
	newline bool
}

// NewLexer creates a new Lexer over input
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize lexes all of input, ending with a TOKEN_EOF
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	var toks []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == TOKEN_EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

// skipSpaceAndComments consumes whitespace, // and /* */ comments, noting line breaks
func (l *Lexer) skipSpaceAndComments() error {
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case c == '\n':
			l.newline = true
			l.pos++
		case c == ' ' || c == '\t' || c == '\r':
			l.pos++
		case c == '/' && l.peekAt(1) == '/':
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.peekAt(1) == '*':
			start := l.pos
			end := strings.Index(l.input[l.pos+2:], "*/")
			if end < 0 {
				return &SyntaxError{Offset: start, Msg: "unterminated comment"}
			}
			if strings.Contains(l.input[l.pos:l.pos+2+end], "\n") {
				l.newline = true
			}
			l.pos += end + 4
		default:
			return nil
		}
	}
	return nil
}

// Next returns the next token
func (l *Lexer) Next() (Token, error) {
	if err := l.skipSpaceAndComments(); err != nil {
		return Token{}, err
	}
	nl := l.newline
	l.newline = false
	tok, err := l.scan()
	tok.NewLine = nl
	return tok, err
}

func (l *Lexer) scan() (Token, error) {
	start := l.pos
	if l.pos >= len(l.input) {
		return Token{Type: TOKEN_EOF, Pos: start}, nil
	}
	c := l.input[l.pos]
	switch {
	case c == '"' || c == '\'':
		s, err := l.readString(c)
		if err != nil {
			return Token{}, err
		}
		return Token{Type: TOKEN_STRING, Value: s, Pos: start}, nil
	case c == '`':
		return l.readTemplate()
	case isDigit(c) || (c == '.' && isDigit(l.peekAt(1))):
		return l.readNumber(), nil
	case isIdentStart(l.runeAt(l.pos)):
		word := l.readIdent()
		if keywords[word] {
			return Token{Type: TOKEN_KEYWORD, Value: word, Pos: start}, nil
		}
		return Token{Type: TOKEN_IDENT, Value: word, Pos: start}, nil
	}
	for _, op := range operators {
		if strings.HasPrefix(l.input[l.pos:], op) {
			// "?." followed by a digit is a conditional, not optional chaining
			if op == "?." && isDigit(l.peekAt(2)) {
				continue
			}
			l.pos += len(op)
			return Token{Type: TOKEN_OP, Value: op, Pos: start}, nil
		}
	}
	r := l.runeAt(l.pos)
	return Token{}, &SyntaxError{Offset: start, Msg: "unexpected character " + string(r)}
}

func (l *Lexer) runeAt(i int) rune {
	r, _ := utf8.DecodeRuneInString(l.input[i:])
	return r
}

func (l *Lexer) readIdent() string {
	start := l.pos
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !isIdentPart(r) {
			break
		}
		l.pos += size
	}
	return l.input[start:l.pos]
}

func (l *Lexer) readNumber() Token {
	start := l.pos
	if l.input[l.pos] == '0' && (l.peekAt(1) == 'x' || l.peekAt(1) == 'X') {
		l.pos += 2
		for l.pos < len(l.input) && isHexDigit(l.input[l.pos]) {
			l.pos++
		}
		return Token{Type: TOKEN_NUMBER, Value: l.input[start:l.pos], Pos: start}
	}
	for l.pos < len(l.input) && (isDigit(l.input[l.pos]) || l.input[l.pos] == '_') {
		l.pos++
	}
	if l.pos < len(l.input) && l.input[l.pos] == '.' && isDigit(l.peekAt(1)) {
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		save := l.pos
		l.pos++
		if l.pos < len(l.input) && (l.input[l.pos] == '+' || l.input[l.pos] == '-') {
			l.pos++
		}
		if l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
				l.pos++
			}
		} else {
			l.pos = save
		}
	}
	return Token{Type: TOKEN_NUMBER, Value: l.input[start:l.pos], Pos: start}
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func isIdentStart(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}

// IsIdentifier reports whether s is a single valid identifier
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 && !isIdentStart(r) {
			return false
		}
		if !isIdentPart(r) {
			return false
		}
	}
	return !keywords[s]
}
