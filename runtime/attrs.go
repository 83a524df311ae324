package runtime

import (
	"strconv"
	"strings"

	"loom/dom"
	"loom/types"
)

// PropName maps an attribute name to its prop name: max-count -> maxCount
func PropName(attr string) string {
	parts := strings.Split(strings.ToLower(attr), "-")
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// SetAttribute reflects a host attribute change. Attributes naming a prop
// update it, coerced to the type of the prop's current value; any other
// attribute is only written to the host element.
func (c *Component) SetAttribute(attr, value string) error {
	if c.host != nil {
		dom.SetAttr(c.host, attr, value)
	}
	name := PropName(attr)
	if !c.def.HasProp(name) {
		return nil
	}
	return c.Set(name, coerceAttr(c.State(name), value))
}

// RemoveAttribute resets the matching prop to undefined
func (c *Component) RemoveAttribute(attr string) error {
	if c.host != nil {
		dom.RemoveAttr(c.host, attr)
	}
	name := PropName(attr)
	if !c.def.HasProp(name) {
		return nil
	}
	return c.Set(name, types.Undefined)
}

func coerceAttr(current types.Value, value string) types.Value {
	switch current.(type) {
	case types.IntValue, types.FloatValue:
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return types.NewNumber(f)
		}
	case types.BoolValue:
		return types.NewBool(value != "false")
	}
	return types.NewStr(value)
}
