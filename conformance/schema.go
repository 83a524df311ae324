package conformance

import "loom/compiler"

// TestSuite represents a complete YAML test file
type TestSuite struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Tests       []TestCase `yaml:"tests"`
}

// TestCase compiles one template, mounts it and checks the rendered host
// after mount and after every step
type TestCase struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Skip        interface{}    `yaml:"skip,omitempty"` // bool or string
	Template    string         `yaml:"template"`
	Options     CaseOptions    `yaml:"options,omitempty"`
	Props       map[string]any `yaml:"props,omitempty"` // values passed to New
	Expect      Expectation    `yaml:"expect"`
	Steps       []Step         `yaml:"steps,omitempty"`
}

// CaseOptions are the compiler options a case may set
type CaseOptions struct {
	Props        []string                 `yaml:"props,omitempty"`
	Derived      []compiler.DerivedOption `yaml:"derived,omitempty"`
	Dev          bool                     `yaml:"dev,omitempty"`
	StrictCycles bool                     `yaml:"strict_cycles,omitempty"`
}

// Step is one interaction with a mounted component. Exactly one action is
// expected per step.
type Step struct {
	Set    map[string]any    `yaml:"set,omitempty"`  // assigned in one batch
	Attr   map[string]string `yaml:"attr,omitempty"` // host attribute changes
	Call   string            `yaml:"call,omitempty"` // method name
	Args   []any             `yaml:"args,omitempty"`
	Event  *EventStep        `yaml:"event,omitempty"`
	Expect Expectation       `yaml:"expect"`
}

// EventStep dispatches an event on the Index-th Target element
type EventStep struct {
	Type   string `yaml:"type"`
	Target string `yaml:"target"`
	Index  int    `yaml:"index,omitempty"`
	Detail any    `yaml:"detail,omitempty"`
}

// Expectation defines what a case or step must produce
type Expectation struct {
	HTML     *string        `yaml:"html,omitempty"`     // host inner HTML
	Text     *string        `yaml:"text,omitempty"`     // host text content
	Contains []string       `yaml:"contains,omitempty"` // substrings of the inner HTML
	State    map[string]any `yaml:"state,omitempty"`    // component state values
	Error    string         `yaml:"error,omitempty"`    // LexError, ParseError, CycleError, an E_ code or a message substring
	Warnings []string       `yaml:"warnings,omitempty"` // each must appear in some dev warning
	Logs     []string       `yaml:"logs,omitempty"`     // substrings of the component log
}

// IsSkipped returns true if this test should be skipped
func (tc *TestCase) IsSkipped() (bool, string) {
	switch v := tc.Skip.(type) {
	case bool:
		if v {
			return true, "skipped"
		}
	case string:
		return true, v
	}
	return false, ""
}

// empty reports whether e checks nothing
func (e Expectation) empty() bool {
	return e.HTML == nil && e.Text == nil && len(e.Contains) == 0 && len(e.State) == 0 &&
		e.Error == "" && len(e.Warnings) == 0 && len(e.Logs) == 0
}
