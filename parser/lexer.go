package parser

import (
	"fmt"
	"strings"
)

// rawTextTags hold literal content: their bodies never enter the directive
// or brace grammar
var rawTextTags = map[string]bool{
	"script": true,
	"style":  true,
	"code":   true,
	"pre":    true,
}

// IsRawTextTag reports whether the element's body is read as one raw token
func IsRawTextTag(name string) bool {
	return rawTextTags[strings.ToLower(name)]
}

// Lexer splits template source into tokens. One flag tracks whether the
// cursor is inside a tag: an unmatched '<' enters tag context and '>' or
// '/>' leaves it. Whitespace inside a tag produces no token.
type Lexer struct {
	input string
	pos   int
	lines *lineIndex

	inTag       bool
	tagStart    int
	tagName     string // first NAME of the current tag
	closing     bool   // current tag is </...>
	afterEquals bool   // next in-tag value is an attribute value
	rawTag      string // set after the '>' of a raw-text element opener
}

// NewLexer creates a lexer over input
func NewLexer(input string) *Lexer {
	return &Lexer{input: input, lines: newLineIndex(input)}
}

// Tokenize scans the whole source, ending with a TOKEN_EOF token
func Tokenize(src string) ([]Token, error) {
	l := NewLexer(src)
	var toks []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Type == TOKEN_EOF {
			return toks, nil
		}
	}
}

// NextToken returns the next token
func (l *Lexer) NextToken() (Token, error) {
	if l.rawTag != "" {
		tok, ok, err := l.readRaw()
		if err != nil {
			return Token{}, err
		}
		if ok {
			return tok, nil
		}
	}
	if l.inTag {
		return l.nextInTag()
	}
	return l.nextInData()
}

func (l *Lexer) token(t TokenType, start int, value string, valueOffset int) Token {
	return Token{Type: t, Value: value, Position: l.lines.position(start), ValueOffset: valueOffset}
}

func (l *Lexer) errorf(offset int, format string, args ...any) error {
	pos := l.lines.position(offset)
	return &LexError{Pos: pos, Msg: fmt.Sprintf(format, args...), Frame: renderFrame(l.input, pos)}
}

// readRaw consumes a raw-text element body up to its closing tag. ok is
// false when the body is empty.
func (l *Lexer) readRaw() (Token, bool, error) {
	tag := l.rawTag
	l.rawTag = ""
	start := l.pos
	end := indexClosingTag(l.input[start:], tag)
	if end < 0 {
		return Token{}, false, l.errorf(l.tagStart, "unterminated <%s> element", tag)
	}
	if end == 0 {
		return Token{}, false, nil
	}
	l.pos = start + end
	return l.token(TOKEN_RAW, start, l.input[start:l.pos], start), true, nil
}

// indexClosingTag finds "</tag" (any case) followed by a tag delimiter
func indexClosingTag(s, tag string) int {
	lower := strings.ToLower(s)
	needle := "</" + strings.ToLower(tag)
	for from := 0; ; {
		i := strings.Index(lower[from:], needle)
		if i < 0 {
			return -1
		}
		i += from
		after := i + len(needle)
		if after >= len(s) || s[after] == '>' || isSpace(s[after]) || s[after] == '/' {
			return i
		}
		from = after
	}
}

func (l *Lexer) nextInData() (Token, error) {
	start := l.pos
	if start >= len(l.input) {
		return l.token(TOKEN_EOF, start, "", start), nil
	}
	rest := l.input[start:]
	switch {
	case strings.HasPrefix(rest, "<!--"):
		end := strings.Index(rest[4:], "-->")
		if end < 0 {
			return Token{}, l.errorf(start, "unterminated comment")
		}
		l.pos = start + 4 + end + 3
		return l.token(TOKEN_COMMENT, start, rest[4:4+end], start+4), nil
	case strings.HasPrefix(rest, "</") && len(rest) > 2 && isNameStart(rest[2]):
		l.enterTag(start, true)
		l.pos += 2
		return l.token(TOKEN_TAG_CLOSE_OPEN, start, "</", start), nil
	case rest[0] == '<' && len(rest) > 1 && isNameStart(rest[1]):
		l.enterTag(start, false)
		l.pos++
		return l.token(TOKEN_TAG_OPEN, start, "<", start), nil
	case rest[0] == '{':
		return l.readBrace()
	}

	// Text runs to the next '<' or '{'; a '<' that starts no tag is text
	i := start + 1
	for i < len(l.input) && l.input[i] != '<' && l.input[i] != '{' {
		i++
	}
	l.pos = i
	return l.token(TOKEN_TEXT, start, l.input[start:i], start), nil
}

func (l *Lexer) enterTag(start int, closing bool) {
	l.inTag = true
	l.tagStart = start
	l.tagName = ""
	l.closing = closing
	l.afterEquals = false
}

// readBrace reads a {...} run in data context: a block directive or an
// interpolated expression
func (l *Lexer) readBrace() (Token, error) {
	start := l.pos
	end, err := l.scanBalanced(start)
	if err != nil {
		return Token{}, err
	}
	l.pos = end + 1
	inner := l.input[start+1 : end]
	body, off := trimOffset(inner, start+1)

	switch {
	case hasKeyword(body, "#if"):
		v, voff := trimOffset(body[3:], off+3)
		return l.token(TOKEN_IF, start, v, voff), nil
	case hasKeyword(body, "#each"):
		v, voff := trimOffset(body[5:], off+5)
		return l.token(TOKEN_EACH, start, v, voff), nil
	case hasKeyword(body, ":else"):
		rest, roff := trimOffset(body[5:], off+5)
		if hasKeyword(rest, "if") {
			v, voff := trimOffset(rest[2:], roff+2)
			return l.token(TOKEN_ELSE_IF, start, v, voff), nil
		}
		if rest != "" {
			return Token{}, l.errorf(roff, "unexpected %q after {:else}", rest)
		}
		return l.token(TOKEN_ELSE, start, "", roff), nil
	case hasKeyword(body, "/if"):
		if rest, roff := trimOffset(body[3:], off+3); rest != "" {
			return Token{}, l.errorf(roff, "unexpected %q in {/if}", rest)
		}
		return l.token(TOKEN_END_IF, start, "", off), nil
	case hasKeyword(body, "/each"):
		if rest, roff := trimOffset(body[5:], off+5); rest != "" {
			return Token{}, l.errorf(roff, "unexpected %q in {/each}", rest)
		}
		return l.token(TOKEN_END_EACH, start, "", off), nil
	case len(body) > 1 && strings.IndexByte("#:/", body[0]) >= 0 && isNameStart(body[1]):
		return Token{}, l.errorf(off, "unknown block directive %s", strings.Fields(body)[0])
	}
	return l.token(TOKEN_EXPR, start, body, off), nil
}

func (l *Lexer) nextInTag() (Token, error) {
	for l.pos < len(l.input) && isSpace(l.input[l.pos]) {
		l.pos++
	}
	start := l.pos
	if start >= len(l.input) {
		return Token{}, l.errorf(l.tagStart, "unterminated tag")
	}
	c := l.input[start]
	valuePending := l.afterEquals
	l.afterEquals = false

	switch {
	case c == '>':
		l.pos++
		l.inTag = false
		if !l.closing && IsRawTextTag(l.tagName) {
			l.rawTag = l.tagName
		}
		return l.token(TOKEN_TAG_END, start, ">", start), nil
	case c == '/' && l.peekAt(1) == '>':
		l.pos += 2
		l.inTag = false
		return l.token(TOKEN_SELF_CLOSE, start, "/>", start), nil
	case c == '=':
		l.pos++
		l.afterEquals = true
		return l.token(TOKEN_EQUALS, start, "=", start), nil
	case c == '"' || c == '\'':
		end := strings.IndexByte(l.input[start+1:], c)
		if end < 0 {
			return Token{}, l.errorf(start, "unterminated attribute value")
		}
		l.pos = start + 1 + end + 1
		return l.token(TOKEN_STRING, start, l.input[start+1:start+1+end], start+1), nil
	case c == '`':
		end, err := l.skipTemplate(start)
		if err != nil {
			return Token{}, err
		}
		l.pos = end
		return l.token(TOKEN_TEMPLATE, start, l.input[start:end], start), nil
	case c == '{':
		end, err := l.scanBalanced(start)
		if err != nil {
			return Token{}, err
		}
		l.pos = end + 1
		v, off := trimOffset(l.input[start+1:end], start+1)
		return l.token(TOKEN_EXPR, start, v, off), nil
	case c == '<':
		return Token{}, l.errorf(start, "unexpected '<' inside tag")
	}

	i := start
	if valuePending {
		// unquoted attribute value
		for i < len(l.input) && !isSpace(l.input[i]) && l.input[i] != '>' {
			i++
		}
		l.pos = i
		return l.token(TOKEN_STRING, start, l.input[start:i], start), nil
	}
	for i < len(l.input) && isNameByte(l.input[i]) && !strings.HasPrefix(l.input[i:], "/>") {
		i++
	}
	if i == start {
		return Token{}, l.errorf(start, "unexpected character %q inside tag", c)
	}
	l.pos = i
	name := l.input[start:i]
	if l.tagName == "" {
		l.tagName = name
	}
	return l.token(TOKEN_NAME, start, name, start), nil
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.input) {
		return 0
	}
	return l.input[l.pos+n]
}

// ============================================================================
// EXPRESSION SUB-READERS
// ============================================================================

// scanBalanced returns the index of the '}' matching the '{' at open.
// Strings and template literals are skipped by their own readers, so braces
// inside them, including ${...} interpolations, never close the run early.
func (l *Lexer) scanBalanced(open int) (int, error) {
	depth := 1
	for i := open + 1; i < len(l.input); {
		switch c := l.input[i]; c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		case '"', '\'':
			end, err := l.skipString(i)
			if err != nil {
				return 0, err
			}
			i = end
			continue
		case '`':
			end, err := l.skipTemplate(i)
			if err != nil {
				return 0, err
			}
			i = end
			continue
		}
		i++
	}
	return 0, l.errorf(open, "unterminated expression")
}

// skipString returns the index just past the string literal starting at i
func (l *Lexer) skipString(i int) (int, error) {
	quote := l.input[i]
	for k := i + 1; k < len(l.input); k++ {
		switch l.input[k] {
		case '\\':
			k++
		case quote:
			return k + 1, nil
		case '\n':
			return 0, l.errorf(i, "unterminated string literal")
		}
	}
	return 0, l.errorf(i, "unterminated string literal")
}

// skipTemplate returns the index just past the template literal starting at i
func (l *Lexer) skipTemplate(i int) (int, error) {
	for k := i + 1; k < len(l.input); {
		switch l.input[k] {
		case '\\':
			k += 2
			continue
		case '`':
			return k + 1, nil
		case '$':
			if k+1 < len(l.input) && l.input[k+1] == '{' {
				end, err := l.scanBalanced(k + 1)
				if err != nil {
					return 0, err
				}
				k = end + 1
				continue
			}
		}
		k++
	}
	return 0, l.errorf(i, "unterminated template literal")
}

// ============================================================================
// HELPERS
// ============================================================================

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isNameStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isNameByte(c byte) bool {
	switch c {
	case '=', '>', '"', '\'', '`', '{', '<':
		return false
	}
	return !isSpace(c)
}

func isWordByte(c byte) bool {
	return c == '_' || c == '$' || c >= '0' && c <= '9' || isNameStart(c)
}

// hasKeyword reports whether s starts with kw followed by a word boundary
func hasKeyword(s, kw string) bool {
	return strings.HasPrefix(s, kw) && (len(s) == len(kw) || !isWordByte(s[len(kw)]))
}

// trimOffset trims surrounding whitespace from s, which starts at byte
// offset off, and returns the new starting offset
func trimOffset(s string, off int) (string, int) {
	trimmed := strings.TrimLeft(s, " \t\r\n")
	off += len(s) - len(trimmed)
	return strings.TrimRight(trimmed, " \t\r\n"), off
}
