package parser

import "fmt"

// TokenType represents different types of template tokens
type TokenType int

const (
	// Special tokens
	TOKEN_EOF TokenType = iota

	// Tag structure
	TOKEN_TAG_OPEN       // <
	TOKEN_TAG_CLOSE_OPEN // </
	TOKEN_TAG_END        // >
	TOKEN_SELF_CLOSE     // />
	TOKEN_EQUALS         // =

	// Tag content
	TOKEN_NAME     // tag or attribute name
	TOKEN_STRING   // quoted or bare attribute value, quotes removed
	TOKEN_TEMPLATE // `...` attribute value, backticks kept

	// Data content
	TOKEN_TEXT
	TOKEN_RAW     // body of a raw-text element
	TOKEN_COMMENT // <!-- ... -->, delimiters removed
	TOKEN_EXPR    // {expr}, braces removed

	// Block directives; Value holds the text after the keyword
	TOKEN_IF       // {#if cond}
	TOKEN_ELSE_IF  // {:else if cond}
	TOKEN_ELSE     // {:else}
	TOKEN_END_IF   // {/if}
	TOKEN_EACH     // {#each head}
	TOKEN_END_EACH // {/each}
)

var tokenNames = map[TokenType]string{
	TOKEN_EOF:            "end of input",
	TOKEN_TAG_OPEN:       "'<'",
	TOKEN_TAG_CLOSE_OPEN: "'</'",
	TOKEN_TAG_END:        "'>'",
	TOKEN_SELF_CLOSE:     "'/>'",
	TOKEN_EQUALS:         "'='",
	TOKEN_NAME:           "name",
	TOKEN_STRING:         "string",
	TOKEN_TEMPLATE:       "template literal",
	TOKEN_TEXT:           "text",
	TOKEN_RAW:            "raw text",
	TOKEN_COMMENT:        "comment",
	TOKEN_EXPR:           "expression",
	TOKEN_IF:             "{#if}",
	TOKEN_ELSE_IF:        "{:else if}",
	TOKEN_ELSE:           "{:else}",
	TOKEN_END_IF:         "{/if}",
	TOKEN_EACH:           "{#each}",
	TOKEN_END_EACH:       "{/each}",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token is one lexical unit of a template
type Token struct {
	Type     TokenType
	Value    string
	Position Position

	// ValueOffset is the byte offset of Value within the source, used to
	// position errors found later inside expression text
	ValueOffset int
}
