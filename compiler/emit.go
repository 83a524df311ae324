package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"loom/runtime"
)

// emit writes the artifact as one JavaScript-shaped unit: the program
// listing wrapped in a component shell that installs itself under the tag
func emit(art *Artifact, def *runtime.Definition) string {
	var b strings.Builder
	fmt.Fprintf(&b, "// <%s> compiled by loom (%s) %s\n\n", art.Tag, art.Mode, art.ID())
	fmt.Fprintf(&b, "const css = %s;\n\n", strconv.Quote(art.CSS))
	b.WriteString(art.Program.Listing())
	b.WriteString("\n")

	fmt.Fprintf(&b, "class %s extends LoomElement {\n", className(art.Tag))
	b.WriteString("  static keys = {")
	for i, key := range def.Keys {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, " %s: %#b", key, def.Bits()[key])
	}
	b.WriteString(" };\n")

	b.WriteString("  static props = {")
	for i, p := range def.Props {
		if i > 0 {
			b.WriteString(",")
		}
		value := "undefined"
		if p.Source != "" {
			value = p.Source
		}
		fmt.Fprintf(&b, " %s: () => %s", p.Name, value)
	}
	b.WriteString(" };\n")

	b.WriteString("  static derived = [\n")
	for _, name := range def.Scheduler().Order() {
		for _, d := range def.Derived {
			if d.Name == name {
				fmt.Fprintf(&b, "    [%s, (s) => %s, %s],\n", strconv.Quote(d.Name), d.Source, quoteList(d.Deps))
			}
		}
	}
	b.WriteString("  ];\n")

	if len(def.Vars) > 0 {
		b.WriteString("  init(s) {\n")
		for _, v := range def.Vars {
			init := "undefined"
			if v.Source != "" {
				init = v.Source
			}
			fmt.Fprintf(&b, "    s.%s = %s;\n", v.Name, init)
		}
		b.WriteString("  }\n")
	}
	for _, m := range def.Methods {
		fmt.Fprintf(&b, "  %s(%s) {%s}\n", m.Name, strings.Join(m.Decl.Params, ", "), m.Decl.Source)
	}
	b.WriteString("  create(ctx, state) { return create_root(ctx, state); }\n")
	b.WriteString("  static css = css;\n")
	b.WriteString("}\n\n")

	if art.Mode == ModeRegister {
		fmt.Fprintf(&b, "customElements.define(%s, %s);\n", strconv.Quote(art.Tag), className(art.Tag))
	} else {
		fmt.Fprintf(&b, "export default %s;\n", className(art.Tag))
	}
	return b.String()
}

// className turns todo-list into TodoList
func className(tag string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(tag, func(r rune) bool { return r == '-' || r == '.' || r == '_' }) {
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

func quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = strconv.Quote(n)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
