package parser

import (
	"fmt"
	"sort"
	"strings"
)

// Position locates a token or node in the template source
type Position struct {
	Line   int // 1-based
	Column int // 1-based, in bytes
	Offset int // 0-based byte offset
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// lineIndex maps byte offsets to line/column pairs
type lineIndex struct {
	starts []int
}

func newLineIndex(src string) *lineIndex {
	starts := []int{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{starts: starts}
}

func (li *lineIndex) position(offset int) Position {
	line := sort.Search(len(li.starts), func(i int) bool { return li.starts[i] > offset }) - 1
	if line < 0 {
		line = 0
	}
	return Position{Line: line + 1, Column: offset - li.starts[line] + 1, Offset: offset}
}

// renderFrame renders the source line containing pos with a caret under
// the offending column, preceded by one line of context
func renderFrame(src string, pos Position) string {
	lines := strings.Split(src, "\n")
	if pos.Line < 1 || pos.Line > len(lines) {
		return ""
	}
	width := len(fmt.Sprint(pos.Line))
	var b strings.Builder
	if pos.Line > 1 {
		fmt.Fprintf(&b, "%*d | %s\n", width, pos.Line-1, lines[pos.Line-2])
	}
	fmt.Fprintf(&b, "%*d | %s\n", width, pos.Line, lines[pos.Line-1])
	fmt.Fprintf(&b, "%s | %s^", strings.Repeat(" ", width), strings.Repeat(" ", pos.Column-1))
	return b.String()
}

// LexError reports malformed template text
type LexError struct {
	Pos   Position
	Msg   string
	Frame string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %s: %s\n%s", e.Pos, e.Msg, e.Frame)
}

// ParseError reports a well-formed token stream that does not form a valid
// template. Phase names what the parser was reading when it failed.
type ParseError struct {
	Pos   Position
	Phase string
	Msg   string
	Frame string
}

func (e *ParseError) Error() string {
	if e.Phase == "" {
		return fmt.Sprintf("parse error at %s: %s\n%s", e.Pos, e.Msg, e.Frame)
	}
	return fmt.Sprintf("parse error at %s (%s): %s\n%s", e.Pos, e.Phase, e.Msg, e.Frame)
}
