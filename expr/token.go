package expr

import "fmt"

// TokenType categorises expression tokens
type TokenType int

const (
	TOKEN_EOF TokenType = iota
	TOKEN_NUMBER
	TOKEN_STRING
	TOKEN_TEMPLATE
	TOKEN_IDENT
	TOKEN_KEYWORD
	TOKEN_OP
)

func (t TokenType) String() string {
	switch t {
	case TOKEN_EOF:
		return "EOF"
	case TOKEN_NUMBER:
		return "NUMBER"
	case TOKEN_STRING:
		return "STRING"
	case TOKEN_TEMPLATE:
		return "TEMPLATE"
	case TOKEN_IDENT:
		return "IDENT"
	case TOKEN_KEYWORD:
		return "KEYWORD"
	case TOKEN_OP:
		return "OP"
	default:
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
}

// Token is one lexical unit of an expression or script
type Token struct {
	Type    TokenType
	Value   string // source text; decoded text for strings
	Pos     int    // byte offset into the scanned source
	NewLine bool   // a line break separates this token from the previous one

	// Template literal parts: len(Quasis) == len(Exprs)+1
	Quasis      []string
	Exprs       []string
	ExprOffsets []int
}

// keywords are lexed as TOKEN_KEYWORD; everything else word-like is an IDENT
var keywords = map[string]bool{
	"true":      true,
	"false":     true,
	"null":      true,
	"undefined": true,
	"let":       true,
	"const":     true,
	"var":       true,
	"if":        true,
	"else":      true,
	"return":    true,
	"function":  true,
	"export":    true,
	"typeof":    true,
}

// operators lists punctuation longest-first so the lexer can match greedily
var operators = []string{
	"===", "!==", "...", "**=", "??=", "&&=", "||=",
	"==", "!=", "<=", ">=", "&&", "||", "??", "?.", "=>", "++", "--",
	"+=", "-=", "*=", "/=", "%=", "**",
	"+", "-", "*", "/", "%", "<", ">", "!", "=", "?", ":", ".", ",",
	"(", ")", "[", "]", "{", "}", ";",
}

// SyntaxError is a positioned failure to lex or parse expression text
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s (at offset %d)", e.Msg, e.Offset)
}
