package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"loom/compiler"
	"loom/eval"
	"loom/runtime"
	"loom/types"
)

const (
	historyFile = ".loom_history"
	promptMain  = "loom> "
)

const playHelp = `Commands:
  html                      Print the host element
  keys                      List reactive keys and their values
  methods                   List callable methods
  state <name>              Print one key
  set <name> <expr>         Assign a key; expr may read current state
  attr <name> <value>       Set a host attribute
  unattr <name>             Remove a host attribute
  call <method> [args...]   Call a method; args are comma-separated expressions
  fire <event> <tag> [n]    Dispatch an event on the n-th <tag>
  click <tag> [n]           Shorthand for fire click
  :help                     Show this text
  :quit                     Exit
`

func cmdPlay(args []string) int {
	fs := flag.NewFlagSet("play", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	tag := fs.String("tag", "x-play", "Custom element tag")
	props := fs.String("props", "", "Comma-separated prop names")

	input, err := parseArgs(fs, args)
	if err != nil {
		return 2
	}
	if input == "" {
		fmt.Fprintf(os.Stderr, "usage: %s play <input> [--tag <tag>] [--props a,b]\n", appName)
		return 2
	}
	common.initTrace(nil)

	opts := compiler.Options{Tag: *tag, Mode: compiler.ModeModule}
	if *props != "" {
		opts.Props = strings.Split(*props, ",")
	}
	art, err := compileFile(input, common.options(opts, nil))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	comp, err := art.Definition.New(nil, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	comp.Mount(nil, nil)
	defer comp.Destroy()

	fmt.Printf("<%s> mounted; keys %v. Type :help for commands.\n", art.Tag, comp.Keys())
	fmt.Println(comp.HTML())

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		line, err := ln.Prompt(promptMain)
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return 0
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		ln.AppendHistory(line)

		quit, err := playCommand(comp, line, os.Stdout)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		if quit {
			return 0
		}
	}
}

// playCommand runs one REPL line against c and reports whether the session
// should end
func playCommand(c *runtime.Component, line string, w io.Writer) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, rest := fields[0], strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))

	switch cmd {
	case ":quit", ":q":
		return true, nil
	case ":help":
		fmt.Fprint(w, playHelp)
		return false, nil

	case "html":
		fmt.Fprintln(w, c.HTML())
		return false, nil

	case "keys":
		for _, k := range c.Keys() {
			fmt.Fprintf(w, "%s = %s\n", k, types.Display(c.State(k)))
		}
		return false, nil

	case "methods":
		for _, m := range c.Methods() {
			fmt.Fprintln(w, m)
		}
		return false, nil

	case "state":
		if len(fields) != 2 {
			return false, errors.New("usage: state <name>")
		}
		fmt.Fprintln(w, types.Display(c.State(fields[1])))
		return false, nil

	case "set":
		if len(fields) < 3 {
			return false, errors.New("usage: set <name> <expr>")
		}
		name := fields[1]
		v, err := evalIn(c, strings.TrimSpace(strings.TrimPrefix(rest, name)))
		if err != nil {
			return false, err
		}
		if err := c.Set(name, v); err != nil {
			return false, err
		}
		fmt.Fprintln(w, c.HTML())
		return false, nil

	case "attr":
		if len(fields) < 2 {
			return false, errors.New("usage: attr <name> <value>")
		}
		name := fields[1]
		if err := c.SetAttribute(name, strings.TrimSpace(strings.TrimPrefix(rest, name))); err != nil {
			return false, err
		}
		fmt.Fprintln(w, c.HTML())
		return false, nil

	case "unattr":
		if len(fields) != 2 {
			return false, errors.New("usage: unattr <name>")
		}
		if err := c.RemoveAttribute(fields[1]); err != nil {
			return false, err
		}
		fmt.Fprintln(w, c.HTML())
		return false, nil

	case "call":
		if len(fields) < 2 {
			return false, errors.New("usage: call <method> [args...]")
		}
		name := fields[1]
		var args []types.Value
		if src := strings.TrimSpace(strings.TrimPrefix(rest, name)); src != "" {
			v, err := evalIn(c, "["+src+"]")
			if err != nil {
				return false, err
			}
			args = v.(types.ListValue).Elements()
		}
		result, err := c.Call(name, args...)
		if err != nil {
			return false, err
		}
		if result != nil && result != types.Undefined {
			fmt.Fprintf(w, "=> %s\n", types.Display(result))
		}
		fmt.Fprintln(w, c.HTML())
		return false, nil

	case "fire", "click":
		if cmd == "click" {
			fields = append([]string{"fire", "click"}, fields[1:]...)
		}
		if len(fields) < 3 || len(fields) > 4 {
			return false, errors.New("usage: fire <event> <tag> [n]")
		}
		n := 0
		if len(fields) == 4 {
			var err error
			if n, err = strconv.Atoi(fields[3]); err != nil {
				return false, fmt.Errorf("bad index %q", fields[3])
			}
		}
		handled, err := c.Dispatch(fields[2], n, fields[1], nil)
		if err != nil {
			return false, err
		}
		if !handled {
			fmt.Fprintf(w, "no %s listener on <%s>\n", fields[1], fields[2])
		}
		fmt.Fprintln(w, c.HTML())
		return false, nil
	}
	return false, fmt.Errorf("unknown command %q; type :help", cmd)
}

// evalIn evaluates src against a read-only view of c's state
func evalIn(c *runtime.Component, src string) (types.Value, error) {
	ev, err := eval.CompileString(src)
	if err != nil {
		return nil, err
	}
	return ev(eval.NewEnvironment(c.Snapshot(), c.Globals()))
}
