package css

import (
	"context"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	cssparse "github.com/tdewolff/parse/v2/css"
)

// Purge is the default Builder. It keeps the rules of the component style
// whose selectors only name used classes; selectors without classes are
// always kept. Classes inside attribute selectors and functional
// pseudo-classes such as :is() or :not() do not count. Grouping at-rules
// (@media, @supports, @layer) are filtered recursively and dropped when
// nothing inside survives. Other at-rules are kept verbatim.
type Purge struct {
	// Keep disables purging; the style is only normalised
	Keep bool
}

// Build implements Builder
func (p Purge) Build(ctx context.Context, in Input) (string, error) {
	if strings.TrimSpace(in.Style) == "" {
		return "", nil
	}
	names, err := UsedClasses(in)
	if err != nil {
		return "", err
	}
	used := make(map[string]bool, len(names))
	for _, n := range names {
		used[n] = true
	}

	toks, err := tokenize(in.Style)
	if err != nil {
		return "", err
	}
	rules, err := parseRules(toks)
	if err != nil {
		return "", err
	}
	var out []string
	for _, r := range rules {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if s := r.render(used, p.Keep); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n"), nil
}

// ============================================================================
// TOKENS
// ============================================================================

type token struct {
	tt   cssparse.TokenType
	data string
	off  int
}

// tokenize lexes src. Comments become whitespace so that neighbouring
// tokens stay apart.
func tokenize(src string) ([]token, error) {
	l := cssparse.NewLexer(parse.NewInputString(src))
	var toks []token
	off := 0
	for {
		tt, data := l.Next()
		switch tt {
		case cssparse.ErrorToken:
			if err := l.Err(); err != nil && err != io.EOF {
				return nil, &Error{Offset: off, Msg: err.Error()}
			}
			return toks, nil
		case cssparse.BadStringToken:
			return nil, &Error{Offset: off, Msg: "unterminated string"}
		case cssparse.BadURLToken:
			return nil, &Error{Offset: off, Msg: "malformed url()"}
		case cssparse.CommentToken:
			toks = append(toks, token{tt: cssparse.WhitespaceToken, data: " ", off: off})
		default:
			toks = append(toks, token{tt: tt, data: string(data), off: off})
		}
		off += len(data)
	}
}

// text joins toks back into source, collapsing whitespace runs
func text(toks []token) string {
	var b strings.Builder
	space := false
	for _, t := range toks {
		if t.tt == cssparse.WhitespaceToken {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteString(t.data)
	}
	return b.String()
}

// nesting reports how t changes the parenthesis and bracket depth
func nesting(t token) int {
	switch t.tt {
	case cssparse.FunctionToken, cssparse.LeftParenthesisToken, cssparse.LeftBracketToken:
		return 1
	case cssparse.RightParenthesisToken, cssparse.RightBracketToken:
		return -1
	}
	return 0
}

// ============================================================================
// RULE PARSING
// ============================================================================

type rule struct {
	prelude   string // selector list or at-rule head
	selectors []selector
	body      string // declarations
	nested    []rule // set for grouping at-rules
	group     bool
	block     bool // false for statement at-rules such as @import
}

type selector struct {
	text    string
	classes []string
}

func (r rule) render(used map[string]bool, keep bool) string {
	if r.group {
		var inner []string
		for _, n := range r.nested {
			if s := n.render(used, keep); s != "" {
				inner = append(inner, s)
			}
		}
		if len(inner) == 0 {
			return ""
		}
		return r.prelude + "{" + strings.Join(inner, "") + "}"
	}
	if strings.HasPrefix(r.prelude, "@") {
		if !r.block {
			return r.prelude + ";"
		}
		return r.prelude + "{" + r.body + "}"
	}

	var kept []string
	for _, sel := range r.selectors {
		if keep || sel.usedBy(used) {
			kept = append(kept, sel.text)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, ",") + "{" + r.body + "}"
}

func (s selector) usedBy(used map[string]bool) bool {
	for _, c := range s.classes {
		if !used[c] {
			return false
		}
	}
	return true
}

// parseRules splits toks into rules
func parseRules(toks []token) ([]rule, error) {
	var rules []rule
	pos := 0
	for {
		for pos < len(toks) && toks[pos].tt == cssparse.WhitespaceToken {
			pos++
		}
		if pos >= len(toks) {
			return rules, nil
		}
		start := pos
		for pos < len(toks) && !endsPrelude(toks[pos].tt) {
			pos++
		}
		prelude := text(toks[start:pos])
		if pos >= len(toks) {
			return nil, &Error{Offset: toks[start].off, Msg: "expected '{' after " + prelude}
		}
		switch toks[pos].tt {
		case cssparse.RightBraceToken:
			return nil, &Error{Offset: toks[pos].off, Msg: "unexpected '}'"}
		case cssparse.SemicolonToken:
			if !strings.HasPrefix(prelude, "@") {
				return nil, &Error{Offset: toks[start].off, Msg: "declaration outside a rule"}
			}
			rules = append(rules, rule{prelude: prelude})
			pos++
			continue
		}
		if prelude == "" {
			return nil, &Error{Offset: toks[pos].off, Msg: "rule without a selector"}
		}

		end, err := matchBrace(toks, pos)
		if err != nil {
			return nil, err
		}
		body := toks[pos+1 : end]
		switch {
		case isGrouping(prelude):
			nested, err := parseRules(body)
			if err != nil {
				return nil, err
			}
			rules = append(rules, rule{prelude: prelude, nested: nested, group: true, block: true})
		case strings.HasPrefix(prelude, "@"):
			rules = append(rules, rule{prelude: prelude, body: text(body), block: true})
		default:
			rules = append(rules, rule{
				prelude:   prelude,
				selectors: splitSelectors(toks[start:pos]),
				body:      text(body),
				block:     true,
			})
		}
		pos = end + 1
	}
}

func endsPrelude(tt cssparse.TokenType) bool {
	return tt == cssparse.LeftBraceToken || tt == cssparse.SemicolonToken || tt == cssparse.RightBraceToken
}

// matchBrace returns the index of the '}' closing the '{' at open
func matchBrace(toks []token, open int) (int, error) {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i].tt {
		case cssparse.LeftBraceToken:
			depth++
		case cssparse.RightBraceToken:
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, &Error{Offset: toks[open].off, Msg: "unclosed '{'"}
}

func isGrouping(prelude string) bool {
	for _, kw := range []string{"@media", "@supports", "@layer", "@container"} {
		if strings.HasPrefix(prelude, kw) {
			return true
		}
	}
	return false
}

// splitSelectors splits a selector list on its top-level commas
func splitSelectors(toks []token) []selector {
	var out []selector
	depth, start := 0, 0
	flush := func(end int) {
		if s := text(toks[start:end]); s != "" {
			out = append(out, selector{text: s, classes: requiredClasses(toks[start:end])})
		}
	}
	for i, t := range toks {
		depth += nesting(t)
		if t.tt == cssparse.CommaToken && depth == 0 {
			flush(i)
			start = i + 1
		}
	}
	flush(len(toks))
	return out
}

// requiredClasses lists the .class parts of a compound selector outside
// brackets and functional pseudo-classes
func requiredClasses(toks []token) []string {
	var names []string
	depth := 0
	for i, t := range toks {
		depth += nesting(t)
		if depth == 0 && t.tt == cssparse.DelimToken && t.data == "." &&
			i+1 < len(toks) && toks[i+1].tt == cssparse.IdentToken {
			names = append(names, unescape(toks[i+1].data))
		}
	}
	return names
}

func unescape(name string) string {
	if !strings.Contains(name, `\`) {
		return name
	}
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		if name[i] == '\\' && i+1 < len(name) {
			i++
		}
		b.WriteByte(name[i])
	}
	return b.String()
}
