package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"loom/compiler"
	"loom/config"
	"loom/conformance"
	"loom/css"
	"loom/trace"
)

const appName = "loom"

var errLiquid = errors.New("liquid output is not supported; use --mode wc")

func main() {
	log.SetFlags(0)
	log.SetPrefix(appName + ": ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	switch cmd {
	case "build":
		os.Exit(cmdBuild(os.Args[2:]))
	case "play":
		os.Exit(cmdPlay(os.Args[2:]))
	case "serve":
		os.Exit(cmdServe(os.Args[2:]))
	case "test":
		os.Exit(cmdTest(os.Args[2:]))
	case "-h", "--help", "help":
		usage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "%s: unknown command %q\n", appName, cmd)
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Printf(`Usage:
  %s build <input> --tag <tag> [--out <file>] [--mode wc|liquid]   Compile one component
  %s build --config loom.yaml                                      Compile every component in a project
  %s play <input> [--tag <tag>] [--props a,b]                      Mount a component and drive it interactively
  %s serve [--config loom.yaml | <input> --tag <tag>] [--addr]     Serve rendered previews over HTTP
  %s test [dir]                                                    Run YAML conformance suites

Every command accepts --trace and --trace-filter 'x-*,y-*'.
`, appName, appName, appName, appName, appName)
}

// commonFlags are shared by every subcommand
type commonFlags struct {
	config       string
	dev          bool
	debug        bool
	strictCycles bool
	keepCSS      bool
	trace        bool
	traceFilter  string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "config", "", "Project file (e.g. "+config.DefaultFile+")")
	fs.BoolVar(&c.dev, "dev", false, "Report dev warnings")
	fs.BoolVar(&c.debug, "debug", false, "Log the generated program")
	fs.BoolVar(&c.strictCycles, "strict-cycles", false, "Reject derived dependency cycles")
	fs.BoolVar(&c.keepCSS, "keep-css", false, "Embed <style> without purging unused rules")
	fs.BoolVar(&c.trace, "trace", false, "Enable compile and runtime tracing")
	fs.StringVar(&c.traceFilter, "trace-filter", "", "Trace filter pattern (glob over tags, e.g. 'x-*')")
}

// initTrace enables tracing from flags, falling back to the project's trace
// section
func (c *commonFlags) initTrace(p *config.Project) {
	enabled := c.trace
	var filters []string
	if c.traceFilter != "" {
		filters = strings.Split(c.traceFilter, ",")
	}
	if p != nil && p.Trace.Enabled {
		enabled = true
		if filters == nil {
			filters = p.Trace.Filters
		}
	}
	if enabled {
		trace.Init(true, filters, os.Stderr)
		if len(filters) > 0 {
			log.Printf("Tracing enabled with filters: %v", filters)
		}
	} else {
		trace.Init(false, nil, nil)
	}
}

// options merges flags into base
func (c *commonFlags) options(base compiler.Options, p *config.Project) compiler.Options {
	base.Dev = base.Dev || c.dev
	base.Debug = base.Debug || c.debug
	base.StrictCycles = base.StrictCycles || c.strictCycles
	keep := c.keepCSS || (p != nil && p.CSS.Keep)
	base.CSS = css.Purge{Keep: keep}
	return base
}

// parseArgs lets the positional input come before or after the flags
func parseArgs(fs *flag.FlagSet, args []string) (string, error) {
	var input string
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		input, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if input == "" && fs.NArg() > 0 {
		input = fs.Arg(0)
	}
	return input, nil
}

// compileFile reads input and compiles it
func compileFile(input string, opts compiler.Options) (*compiler.Artifact, error) {
	src, err := os.ReadFile(input)
	if err != nil {
		return nil, err
	}
	art, err := compiler.Compile(string(src), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}
	return art, nil
}

// -----------------------------------------------------------------------------
// build
// -----------------------------------------------------------------------------

func cmdBuild(args []string) int {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	out := fs.String("out", "", "Output file (default: input with .js)")
	tag := fs.String("tag", "", "Custom element tag, e.g. x-counter")
	mode := fs.String("mode", "wc", "Output mode: wc or liquid")
	emitLiquid := fs.String("emit-liquid", "", "Also write a Liquid section to this file")
	sectionName := fs.String("section-name", "", "Liquid section name")

	input, err := parseArgs(fs, args)
	if err != nil {
		return 2
	}
	if *mode == "liquid" || *emitLiquid != "" {
		log.Print(errLiquid)
		return 2
	}
	if *mode != "wc" {
		log.Printf("unknown mode %q", *mode)
		return 2
	}
	if *sectionName != "" {
		log.Printf("--section-name only applies to liquid output; ignored")
	}

	if common.config != "" {
		p, err := config.Load(common.config)
		if err != nil {
			log.Print(err)
			return 1
		}
		common.initTrace(p)
		return buildProject(p, &common)
	}

	common.initTrace(nil)
	if input == "" || *tag == "" {
		fmt.Fprintf(os.Stderr, "usage: %s build <input> --tag <tag> [--out <file>]\n", appName)
		return 2
	}
	dest := *out
	if dest == "" {
		dest = strings.TrimSuffix(input, filepath.Ext(input)) + ".js"
	}
	opts := common.options(compiler.Options{Tag: *tag, Mode: compiler.ModeRegister}, nil)
	if err := buildOne(input, dest, opts); err != nil {
		log.Print(err)
		return 1
	}
	return 0
}

func buildProject(p *config.Project, common *commonFlags) int {
	status := 0
	for _, c := range p.Components {
		opts := common.options(p.Options(c), p)
		if err := buildOne(p.Path(c.Input), p.OutPath(c), opts); err != nil {
			log.Print(err)
			status = 1
		}
	}
	return status
}

func buildOne(input, dest string, opts compiler.Options) error {
	art, err := compileFile(input, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dest, []byte(art.Code), 0o644); err != nil {
		return err
	}
	log.Printf("%s -> %s (<%s>, %d keys, %s)", input, dest, art.Tag, len(art.Definition.Keys), art.ID())
	return nil
}

// -----------------------------------------------------------------------------
// test
// -----------------------------------------------------------------------------

func cmdTest(args []string) int {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	verbose := fs.Bool("v", false, "List every case")

	dir, err := parseArgs(fs, args)
	if err != nil {
		return 2
	}
	if dir == "" {
		dir = "."
	}
	common.initTrace(nil)

	tests, err := conformance.LoadDir(dir)
	if err != nil {
		log.Print(err)
		return 1
	}
	if len(tests) == 0 {
		log.Printf("no suites under %s", dir)
		return 1
	}

	results := conformance.NewRunner().RunAll(tests)
	for _, r := range results {
		name := r.Test.File + "/" + r.Test.Test.Name
		switch {
		case r.Skipped:
			if *verbose {
				fmt.Printf("SKIP %s: %s\n", name, r.SkipReason)
			}
		case r.Passed:
			if *verbose {
				fmt.Printf("ok   %s\n", name)
			}
		default:
			fmt.Printf("FAIL %s: %v\n", name, r.Error)
		}
	}

	stats := conformance.ComputeStats(results)
	fmt.Println(conformance.FormatStats(stats))
	if stats.Failed > 0 {
		return 1
	}
	return 0
}
