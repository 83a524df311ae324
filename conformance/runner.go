package conformance

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"loom/compiler"
	"loom/dom"
	"loom/parser"
	"loom/runtime"
	"loom/types"
)

// CaseTag is the tag every case compiles under
const CaseTag = "x-case"

// TestResult represents the outcome of running a single test
type TestResult struct {
	Test       LoadedTest
	Passed     bool
	Skipped    bool
	SkipReason string
	Error      error
}

// Runner executes conformance tests
type Runner struct{}

// NewRunner creates a new test runner
func NewRunner() *Runner {
	return &Runner{}
}

// caseRun is the live state of one case
type caseRun struct {
	art  *compiler.Artifact
	comp *runtime.Component
	logs bytes.Buffer
}

// Run executes a single test case
func (r *Runner) Run(test LoadedTest) TestResult {
	if skipped, reason := test.Test.IsSkipped(); skipped {
		return TestResult{
			Test:       test,
			Skipped:    true,
			SkipReason: reason,
		}
	}
	err := r.run(test.Test)
	return TestResult{Test: test, Passed: err == nil, Error: err}
}

func (r *Runner) run(tc TestCase) error {
	cr := &caseRun{}
	opts := compiler.Options{
		Tag:          CaseTag,
		Mode:         compiler.ModeModule,
		Props:        tc.Options.Props,
		Derived:      tc.Options.Derived,
		Dev:          tc.Options.Dev,
		StrictCycles: tc.Options.StrictCycles,
		Logger:       log.New(&cr.logs, "", 0),
	}
	art, err := compiler.Compile(tc.Template, opts)
	if err != nil {
		return expectError(tc.Expect, err)
	}
	cr.art = art

	props := make(map[string]types.Value, len(tc.Props))
	for name, raw := range tc.Props {
		v, err := types.FromGo(raw)
		if err != nil {
			return fmt.Errorf("prop %s: %w", name, err)
		}
		props[name] = v
	}
	comp, err := art.Definition.New(nil, props)
	if err != nil {
		return expectError(tc.Expect, err)
	}
	comp.Mount(nil, nil)
	cr.comp = comp
	defer comp.Destroy()

	if tc.Expect.empty() && len(tc.Steps) == 0 {
		return fmt.Errorf("no expectation specified")
	}
	if tc.Expect.Error != "" {
		return fmt.Errorf("expected error %s, got none", tc.Expect.Error)
	}
	if err := cr.check(tc.Expect); err != nil {
		return fmt.Errorf("after mount: %w", err)
	}

	for i, step := range tc.Steps {
		if err := cr.step(step); err != nil {
			if err := expectError(step.Expect, err); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
			continue
		}
		if step.Expect.Error != "" {
			return fmt.Errorf("step %d: expected error %s, got none", i+1, step.Expect.Error)
		}
		if err := cr.check(step.Expect); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}

func (cr *caseRun) step(s Step) error {
	c := cr.comp
	switch {
	case s.Set != nil:
		names := make([]string, 0, len(s.Set))
		for name := range s.Set {
			names = append(names, name)
		}
		sort.Strings(names)
		var err error
		c.Batch(func() {
			for _, name := range names {
				var v types.Value
				if v, err = types.FromGo(s.Set[name]); err != nil {
					return
				}
				if err = c.Set(name, v); err != nil {
					return
				}
			}
		})
		return err

	case s.Attr != nil:
		names := make([]string, 0, len(s.Attr))
		for name := range s.Attr {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := c.SetAttribute(name, s.Attr[name]); err != nil {
				return err
			}
		}
		return nil

	case s.Call != "":
		args := make([]types.Value, len(s.Args))
		for i, raw := range s.Args {
			v, err := types.FromGo(raw)
			if err != nil {
				return err
			}
			args[i] = v
		}
		_, err := c.Call(s.Call, args...)
		return err

	case s.Event != nil:
		ev := s.Event
		handled, err := c.Dispatch(ev.Target, ev.Index, ev.Type, ev.Detail)
		if err != nil {
			return err
		}
		if !handled {
			return fmt.Errorf("no listener for %s on <%s>", ev.Type, ev.Target)
		}
		return nil
	}
	return fmt.Errorf("step has no action")
}

// check compares the mounted component against e
func (cr *caseRun) check(e Expectation) error {
	html := dom.InnerHTML(cr.comp.Host())
	if e.HTML != nil && html != *e.HTML {
		return fmt.Errorf("expected html %q, got %q", *e.HTML, html)
	}
	if e.Text != nil {
		if text := dom.TextContent(cr.comp.Host()); text != *e.Text {
			return fmt.Errorf("expected text %q, got %q", *e.Text, text)
		}
	}
	for _, want := range e.Contains {
		if !strings.Contains(html, want) {
			return fmt.Errorf("expected html to contain %q, got %q", want, html)
		}
	}
	for name, raw := range e.State {
		want, err := types.FromGo(raw)
		if err != nil {
			return fmt.Errorf("failed to convert expected value: %w", err)
		}
		if got := cr.comp.State(name); !types.Equal(got, want) {
			return fmt.Errorf("expected %s = %s, got %s", name, types.Display(want), types.Display(got))
		}
	}
	for _, want := range e.Warnings {
		if !containsAny(cr.art.Warnings, want) {
			return fmt.Errorf("expected a warning containing %q, got %q", want, cr.art.Warnings)
		}
	}
	for _, want := range e.Logs {
		if !strings.Contains(cr.logs.String(), want) {
			return fmt.Errorf("expected log containing %q, got %q", want, cr.logs.String())
		}
	}
	return nil
}

// expectError succeeds when e names err
func expectError(e Expectation, err error) error {
	if e.Error == "" {
		return fmt.Errorf("unexpected error: %w", err)
	}
	if !errorMatches(e.Error, err) {
		return fmt.Errorf("expected error %s, got %v", e.Error, err)
	}
	return nil
}

func errorMatches(want string, err error) bool {
	switch want {
	case "LexError":
		var le *parser.LexError
		return errors.As(err, &le)
	case "ParseError":
		var pe *parser.ParseError
		return errors.As(err, &pe)
	case "CycleError":
		var ce *runtime.CycleError
		return errors.As(err, &ce)
	}
	if strings.HasPrefix(want, "E_") {
		var te *types.Error
		return errors.As(err, &te) && te.Code.String() == want
	}
	return strings.Contains(err.Error(), want)
}

func containsAny(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// RunAll executes all loaded tests
func (r *Runner) RunAll(tests []LoadedTest) []TestResult {
	results := make([]TestResult, len(tests))
	for i, test := range tests {
		results[i] = r.Run(test)
	}
	return results
}

// SummaryStats computes statistics from test results
type SummaryStats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// ComputeStats generates statistics from test results
func ComputeStats(results []TestResult) SummaryStats {
	stats := SummaryStats{Total: len(results)}
	for _, r := range results {
		if r.Skipped {
			stats.Skipped++
		} else if r.Passed {
			stats.Passed++
		} else {
			stats.Failed++
		}
	}
	return stats
}

// FormatStats returns a human-readable summary
func FormatStats(stats SummaryStats) string {
	return fmt.Sprintf("%d passed, %d failed, %d skipped (%d total)",
		stats.Passed, stats.Failed, stats.Skipped, stats.Total)
}
