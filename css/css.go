// Package css builds the stylesheet embedded in a compiled component. The
// default Builder purges component rules down to the classes the markup can
// produce.
package css

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Input is what the compiler hands a Builder
type Input struct {
	HTML     string   // all-branches projection of the template
	Safelist []string // classes from <!-- tw:safelist ... -->
	Hints    []string // class-like tokens from expressions
	Style    string   // the component's own <style> text
}

// Builder compiles the CSS for one component
type Builder interface {
	Build(ctx context.Context, in Input) (string, error)
}

// BuilderFunc adapts a function to Builder
type BuilderFunc func(ctx context.Context, in Input) (string, error)

// Build implements Builder
func (f BuilderFunc) Build(ctx context.Context, in Input) (string, error) {
	return f(ctx, in)
}

// Error is a stylesheet syntax problem
type Error struct {
	Offset int
	Msg    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("css error at offset %d: %s", e.Offset, e.Msg)
}

// UsedClasses collects the class names the projection, hints and safelist
// can put on an element, sorted
func UsedClasses(in Input) ([]string, error) {
	used := map[string]bool{}
	z := html.NewTokenizer(strings.NewReader(in.HTML))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); err != io.EOF {
				return nil, fmt.Errorf("scanning markup: %w", err)
			}
			break
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		for _, a := range z.Token().Attr {
			if a.Key != "class" {
				continue
			}
			for _, c := range strings.Fields(a.Val) {
				if !strings.ContainsAny(c, "{}") {
					used[c] = true
				}
			}
		}
	}
	for _, c := range in.Hints {
		used[c] = true
	}
	for _, c := range in.Safelist {
		used[c] = true
	}

	names := make([]string, 0, len(used))
	for c := range used {
		names = append(names, c)
	}
	sort.Strings(names)
	return names, nil
}
