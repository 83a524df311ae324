// Package compiler drives the whole pipeline: template source in, a
// registered component definition and its generated listing out. A
// compilation either fully succeeds or fails with a located diagnostic.
package compiler

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"

	"loom/codegen"
	"loom/css"
	"loom/eval"
	"loom/expr"
	"loom/ir"
	"loom/parser"
	"loom/runtime"
	"loom/script"
	"loom/trace"
)

// Artifact is the output of one compilation
type Artifact struct {
	Tag        string
	Mode       Mode
	Definition *runtime.Definition
	Program    *codegen.Program
	Script     *script.Info
	CSS        string
	Hash       string // hex blake2b-256 of the source and options
	Code       string // generated component listing
	Warnings   []string
}

// ID returns a short form of the content hash, usable as a style scope
func (a *Artifact) ID() string {
	return a.Hash[:12]
}

// Compile compiles source with a background context
func Compile(source string, opts Options) (*Artifact, error) {
	return CompileContext(context.Background(), source, opts)
}

// CompileContext compiles source. ctx is handed to the CSS builder, the only
// collaborator that may do real work outside the process.
func CompileContext(ctx context.Context, source string, opts Options) (*Artifact, error) {
	if err := Validate(opts); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	tag := opts.Tag
	phase := phaseTimer(tag)

	tokens, err := parser.Tokenize(source)
	if err != nil {
		return nil, err
	}
	phase("tokenize", fmt.Sprintf("%d tokens", len(tokens)))

	ast, err := parser.Parse(tokens, source)
	if err != nil {
		return nil, err
	}
	phase("parse", fmt.Sprintf("%d nodes", len(ast)))

	res, err := ir.Build(ast)
	if err != nil {
		return nil, err
	}
	phase("ir", fmt.Sprintf("%d hints", len(res.Hints)))

	info, err := opts.Analyzer.Analyze(res.Script, opts.Props)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tag, err)
	}
	if err := mergeDerived(info, opts.Derived); err != nil {
		return nil, fmt.Errorf("%s: %w", tag, err)
	}
	spec := describe(info)
	phase("script", fmt.Sprintf("%d props, %d vars, %d methods, %d derived",
		len(spec.Props), len(spec.Vars), len(spec.Methods), len(spec.Derived)))

	keys := runtime.KeySpace(spec.Props, spec.Derived, spec.Vars)
	bits := codegen.BuildBitMap(keys)
	program := codegen.Generate(res.Nodes, bits)
	phase("codegen", fmt.Sprintf("%d keys, %d factories", len(keys), len(program.Factories)))

	projection, err := ir.ProjectHTML(ast)
	if err != nil {
		return nil, fmt.Errorf("%s: projecting markup: %w", tag, err)
	}
	sheet, err := opts.CSS.Build(ctx, css.Input{
		HTML:     projection,
		Safelist: res.Safelist,
		Hints:    res.Hints,
		Style:    res.Style,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: css: %w", tag, err)
	}
	phase("css", fmt.Sprintf("%d bytes", len(sheet)))

	spec.Tag = tag
	spec.Program = program
	spec.CSS = sheet
	spec.Globals = opts.Globals
	spec.Logger = opts.Logger
	spec.StrictCycles = opts.StrictCycles
	def, err := runtime.NewDefinition(spec)
	if err != nil {
		return nil, err
	}

	art := &Artifact{
		Tag:        tag,
		Mode:       opts.Mode,
		Definition: def,
		Program:    program,
		Script:     info,
		CSS:        sheet,
		Hash:       contentHash(source, opts),
	}
	if opts.Dev {
		art.Warnings = devWarnings(res.Nodes, info, keys, opts.Globals)
		for _, w := range art.Warnings {
			opts.Logger.Printf("%s: warning: %s", tag, w)
		}
	}
	art.Code = emit(art, def)
	if opts.Debug {
		opts.Logger.Printf("%s: generated program\n%s", tag, program.Listing())
	}

	if opts.Mode == ModeRegister {
		if err := opts.Registry.Define(def); err != nil {
			return nil, err
		}
	}
	phase("done", art.ID())
	return art, nil
}

func phaseTimer(tag string) func(name, detail string) {
	last := time.Now()
	return func(name, detail string) {
		now := time.Now()
		trace.Phase(tag, name, now.Sub(last), detail)
		last = now
	}
}

func contentHash(source string, opts Options) string {
	h, _ := blake2b.New256(nil)
	fmt.Fprintf(h, "%s\x00%s\x00%v\x00", opts.Tag, opts.Mode, opts.Props)
	for _, d := range opts.Derived {
		fmt.Fprintf(h, "%s=%s\x00", d.Name, d.Expr)
	}
	h.Write([]byte(source))
	return hex.EncodeToString(h.Sum(nil))
}

// mergeDerived appends the derived values declared through Options
func mergeDerived(info *script.Info, extra []DerivedOption) error {
	declared := map[string]bool{}
	for _, name := range info.Names() {
		declared[name] = true
	}
	for _, d := range extra {
		if declared[d.Name] {
			return fmt.Errorf("derived value %s is already declared", d.Name)
		}
		e, err := expr.ParseExpr(d.Expr)
		if err != nil {
			return fmt.Errorf("derived value %s: %w", d.Name, err)
		}
		declared[d.Name] = true
		info.Derived = append(info.Derived, script.Derived{Name: d.Name, Expr: e, Deps: expr.FreeIdentifiers(e)})
	}
	return nil
}

// describe lowers analyzer output to runtime descriptors
func describe(info *script.Info) runtime.Spec {
	var spec runtime.Spec
	for _, p := range info.Props {
		rp := runtime.Prop{Name: p.Name}
		if p.Default != nil {
			rp.Source = expr.String(p.Default)
			rp.Default = eval.Compile(p.Default)
		}
		spec.Props = append(spec.Props, rp)
	}
	for _, v := range info.Vars {
		rv := runtime.Var{Name: v.Name, Const: v.Const}
		if v.Init != nil {
			rv.Source = expr.String(v.Init)
			rv.Init = eval.Compile(v.Init)
		}
		spec.Vars = append(spec.Vars, rv)
	}
	for _, m := range info.Methods {
		spec.Methods = append(spec.Methods, runtime.Method{Name: m.Name, Decl: m.Decl, Deps: m.Deps})
	}
	for _, d := range info.Derived {
		spec.Derived = append(spec.Derived, runtime.Derived{
			Name:   d.Name,
			Source: expr.String(d.Expr),
			Expr:   d.Expr,
			Deps:   d.Deps,
		})
	}
	return spec
}
