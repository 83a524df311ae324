// Package config loads loom.yaml, the project file `loom build --config`
// and `loom serve` read their component list from.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"loom/compiler"
)

// DefaultFile is the project file name looked up in the working directory
const DefaultFile = "loom.yaml"

// Project is the root of loom.yaml
type Project struct {
	Dev          bool        `yaml:"dev,omitempty"`
	Debug        bool        `yaml:"debug,omitempty"`
	StrictCycles bool        `yaml:"strict_cycles,omitempty"`
	CSS          CSS         `yaml:"css,omitempty"`
	Trace        Trace       `yaml:"trace,omitempty"`
	Serve        Serve       `yaml:"serve,omitempty"`
	Components   []Component `yaml:"components" validate:"required,min=1,dive"`

	dir string
}

// Component is one source file to compile
type Component struct {
	Input   string                   `yaml:"input" validate:"required"`
	Tag     string                   `yaml:"tag" validate:"required,customelement"`
	Out     string                   `yaml:"out,omitempty"`
	Mode    compiler.Mode            `yaml:"mode,omitempty" validate:"omitempty,oneof=register module"`
	Props   []string                 `yaml:"props,omitempty" validate:"dive,jsident"`
	Derived []compiler.DerivedOption `yaml:"derived,omitempty" validate:"dive"`
}

// CSS configures the default stylesheet builder
type CSS struct {
	Keep bool `yaml:"keep,omitempty"` // embed the style unpurged
}

// Trace mirrors the trace package switches
type Trace struct {
	Enabled bool     `yaml:"enabled,omitempty"`
	Filters []string `yaml:"filters,omitempty"`
}

// Serve configures `loom serve`
type Serve struct {
	Addr string `yaml:"addr,omitempty" validate:"omitempty,hostname_port"`
}

// Load reads and validates a project file. Relative component paths are
// resolved against the file's directory.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.dir = filepath.Dir(path)
	return p, nil
}

// Parse decodes and validates project YAML. Unknown keys are errors.
func Parse(data []byte) (*Project, error) {
	var p Project
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty project file")
		}
		return nil, err
	}
	if err := compiler.Validate(p); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	for _, c := range p.Components {
		if seen[c.Tag] {
			return nil, fmt.Errorf("tag %s is listed twice", c.Tag)
		}
		seen[c.Tag] = true
	}
	if p.Serve.Addr == "" {
		p.Serve.Addr = "localhost:8080"
	}
	return &p, nil
}

// Path resolves a component path relative to the project file
func (p *Project) Path(rel string) string {
	if rel == "" || filepath.IsAbs(rel) || p.dir == "" {
		return rel
	}
	return filepath.Join(p.dir, rel)
}

// Options builds the compiler options for c. Collaborators are left for the
// caller to fill in.
func (p *Project) Options(c Component) compiler.Options {
	return compiler.Options{
		Tag:          c.Tag,
		Mode:         c.Mode,
		Props:        c.Props,
		Derived:      c.Derived,
		Dev:          p.Dev,
		Debug:        p.Debug,
		StrictCycles: p.StrictCycles,
	}
}

// OutPath is where `loom build` writes c: Out if set, else the input with
// a .js extension
func (p *Project) OutPath(c Component) string {
	if c.Out != "" {
		return p.Path(c.Out)
	}
	in := p.Path(c.Input)
	return in[:len(in)-len(filepath.Ext(in))] + ".js"
}
