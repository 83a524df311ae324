package compiler

import (
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"loom/codegen"
	"loom/eval"
	"loom/ir"
	"loom/script"
)

// devWarnings reports what compiles but probably is not what the author
// meant: more reactive keys than the dirty mask can hold, and free
// identifiers that are neither reactive keys, methods nor globals. The
// latter still compile as state dependencies and read as undefined.
func devWarnings(nodes []ir.Node, info *script.Info, keys []string, globals *eval.Registry) []string {
	var warnings []string
	if len(keys) > codegen.MaxKeys {
		warnings = append(warnings, fmt.Sprintf(
			"%d reactive keys exceed the %d-bit dirty mask; changes to %v are never patched",
			len(keys), codegen.MaxKeys, keys[codegen.MaxKeys:]))
	}

	known := map[string]bool{}
	var candidates []string
	for _, name := range info.Names() {
		known[name] = true
		candidates = append(candidates, name)
	}
	reported := map[string]bool{}
	check := func(where, source string, deps []string) {
		for _, name := range deps {
			if known[name] || reported[name] || globals.Has(name) {
				continue
			}
			reported[name] = true
			msg := fmt.Sprintf("%s is not declared (in %s {%s})", name, where, source)
			if s := suggest(name, candidates); s != "" {
				msg += fmt.Sprintf("; did you mean %s?", s)
			}
			warnings = append(warnings, msg)
		}
	}

	for _, n := range nodes {
		ir.Walk(n, func(n ir.Node) bool {
			switch n := n.(type) {
			case *ir.Text:
				check("text", n.Source, n.StateDeps)
			case *ir.Elem:
				for _, a := range n.Attrs {
					if a.Binding != nil {
						check("attribute "+a.Name, a.Binding.Source, a.Binding.StateDeps)
					}
				}
				for _, c := range n.Classes {
					check("class:"+c.Class, c.Source, c.StateDeps)
				}
				for _, h := range n.On {
					check("on:"+h.Event, h.Source, h.StateDeps)
				}
			case *ir.If:
				for _, b := range n.Branches {
					check("if", b.Source, b.StateDeps)
				}
			case *ir.Each:
				check("each", n.List.Source, n.List.StateDeps)
			}
			return true
		})
	}
	for _, d := range info.Derived {
		check("derived "+d.Name, d.Name, d.Deps)
	}
	for _, m := range info.Methods {
		check("function "+m.Name, m.Name, m.Deps)
	}
	return warnings
}

// suggest returns the closest candidate to name, or "" when nothing is
// close. Abbreviations (cnt for count) match as subsequences; typos match
// within an edit distance of two.
func suggest(name string, candidates []string) string {
	if ranks := fuzzy.RankFindFold(name, candidates); len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}
	best, bestDist := "", 3
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
