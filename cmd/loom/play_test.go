package main

import (
	"bytes"
	"flag"
	"io"
	"log"
	"strings"
	"testing"

	"loom/compiler"
	"loom/runtime"
)

const playCounter = `<script>
let count = 1
$: double = count * 2
function add(by) { count += by }
</script>
<button on:click={() => add(1)}>{count}/{double}</button>`

func mountPlay(t *testing.T, props ...string) *runtime.Component {
	t.Helper()
	art, err := compiler.Compile(playCounter, compiler.Options{
		Tag:    "x-play",
		Mode:   compiler.ModeModule,
		Props:  props,
		Logger: log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	comp, err := art.Definition.New(nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	comp.Mount(nil, nil)
	t.Cleanup(comp.Destroy)
	return comp
}

func TestPlayCommand(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		want    string
		wantErr string
	}{
		{"html", []string{"html"}, "<button>1/2</button>", ""},
		{"state", []string{"state double"}, "2", ""},
		{"set reads state", []string{"set count count + 4"}, "<button>5/10</button>", ""},
		{"call", []string{"call add 10"}, "<button>11/22</button>", ""},
		{"click", []string{"click button", "click button 0"}, "<button>3/6</button>", ""},
		{"keys", []string{"keys"}, "count = 1", ""},
		{"methods", []string{"methods"}, "add\n", ""},
		{"attr on prop", []string{"attr count 7"}, "<button>7/14</button>", ""},
		{"unattr resets prop", []string{"attr count 7", "unattr count", "keys"}, "count = \n", ""},
		{"unattr usage", []string{"unattr"}, "", "usage: unattr"},
		{"derived is read-only", []string{"set double 3"}, "", "E_PERM"},
		{"missing element", []string{"click a"}, "", "no <a>"},
		{"unknown", []string{"frob"}, "", "unknown command"},
		{"usage", []string{"set count"}, "", "usage: set"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			comp := mountPlay(t, "count")
			var out bytes.Buffer
			var err error
			for _, line := range tt.lines {
				if _, err = playCommand(comp, line, &out); err != nil {
					break
				}
			}
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output %q does not contain %q", out.String(), tt.want)
			}
		})
	}
}

func TestPlayQuit(t *testing.T) {
	comp := mountPlay(t)
	quit, err := playCommand(comp, ":quit", io.Discard)
	if err != nil || !quit {
		t.Fatalf("playCommand(:quit) = %v, %v", quit, err)
	}
}

func TestParseArgsInputFirst(t *testing.T) {
	tests := []struct {
		args  []string
		input string
		tag   string
	}{
		{[]string{"a.loom", "--tag", "x-a"}, "a.loom", "x-a"},
		{[]string{"--tag", "x-b", "b.loom"}, "b.loom", "x-b"},
		{[]string{"--tag", "x-c"}, "", "x-c"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			tag := fs.String("tag", "", "")
			input, err := parseArgs(fs, tt.args)
			if err != nil {
				t.Fatal(err)
			}
			if input != tt.input || *tag != tt.tag {
				t.Errorf("got (%q, %q), want (%q, %q)", input, *tag, tt.input, tt.tag)
			}
		})
	}
}
