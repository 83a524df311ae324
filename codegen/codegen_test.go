package codegen

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"testing"

	"loom/dom"
	"loom/eval"
	"loom/ir"
	"loom/parser"
	"loom/types"
)

type testHost struct {
	state   map[string]types.Value
	doc     *dom.Document
	globals *eval.Registry
	logs    bytes.Buffer
	logger  *log.Logger
	batches int
}

func newTestHost() *testHost {
	h := &testHost{
		state:   map[string]types.Value{},
		doc:     dom.NewDocument(),
		globals: eval.NewRegistry(),
	}
	h.logger = log.New(&h.logs, "", 0)
	return h
}

func (h *testHost) Get(name string) (types.Value, bool) {
	v, ok := h.state[name]
	return v, ok
}

func (h *testHost) Set(name string, v types.Value) error {
	h.state[name] = v
	return nil
}

func (h *testHost) Tag() string { return "x-test" }
func (h *testHost) Document() *dom.Document { return h.doc }
func (h *testHost) Globals() *eval.Registry { return h.globals }
func (h *testHost) Logger() *log.Logger { return h.logger }
func (h *testHost) Batch(fn func()) { fn(); h.batches++ }
func (h *testHost) snapshot() eval.Snapshot { return eval.Snapshot(h.state) }

func generate(t *testing.T, src string, keys ...string) *Program {
	t.Helper()
	nodes, err := parser.ParseTemplate(src)
	if err != nil {
		t.Fatalf("ParseTemplate() error = %v", err)
	}
	res, err := ir.Build(nodes)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return Generate(res.Nodes, BuildBitMap(keys))
}

func mount(p *Program, h *testHost) (*dom.Node, Block) {
	target := dom.CreateElement("div")
	root := p.Root(NewFrame(h), h.snapshot())
	root.Mount(target, nil)
	return target, root
}

func ints(vals ...int64) types.ListValue {
	out := make([]types.Value, len(vals))
	for i, v := range vals {
		out[i] = types.NewInt(v)
	}
	return types.NewList(out)
}

func TestBuildBitMap(t *testing.T) {
	bits := BuildBitMap([]string{"a", "b", "a", "c"})
	want := map[string]uint32{"a": 1, "b": 2, "c": 4}
	if len(bits) != len(want) {
		t.Fatalf("len = %d, want %d", len(bits), len(want))
	}
	for name, bit := range want {
		if bits[name] != bit {
			t.Errorf("bit(%s) = %d, want %d", name, bits[name], bit)
		}
	}
}

func TestBitMapCeiling(t *testing.T) {
	var names []string
	for i := 0; i < MaxKeys+2; i++ {
		names = append(names, fmt.Sprintf("k%d", i))
	}
	bits := BuildBitMap(names)
	if bits["k30"] != 1<<30 {
		t.Errorf("bit(k30) = %#b", bits["k30"])
	}
	if bits["k31"] != 0 || bits["k32"] != 0 {
		t.Errorf("keys past the ceiling got bits %#b, %#b", bits["k31"], bits["k32"])
	}
}

func TestMaskOf(t *testing.T) {
	bits := BuildBitMap([]string{"a", "b", "c", "d"})
	tests := []struct {
		names []string
		want  uint32
	}{
		{nil, 0},
		{[]string{"a"}, 1},
		{[]string{"a", "c"}, 5},
		{[]string{"d", "unknown"}, 8},
		{[]string{"Math", "console"}, 0},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.names, ","), func(t *testing.T) {
			if got := MaskOf(tt.names, bits); got != tt.want {
				t.Errorf("MaskOf() = %d, want %d", got, tt.want)
			}
		})
	}

	if MaskOf([]string{"a", "b"}, bits)&MaskOf([]string{"c", "d", "zz"}, bits) != 0 {
		t.Error("masks of disjoint sets overlap")
	}
	if got := bits.Names(0b1010); len(got) != 2 || got[0] != "b" || got[1] != "d" {
		t.Errorf("Names() = %v", got)
	}
}

func TestTextPatchHonoursMask(t *testing.T) {
	p := generate(t, "<p>{count}</p>", "count", "other")
	h := newTestHost()
	h.state["count"] = types.NewInt(0)
	target, root := mount(p, h)
	if got := dom.InnerHTML(target); got != "<p>0</p>" {
		t.Fatalf("mounted = %s", got)
	}

	h.state["count"] = types.NewInt(5)
	root.Patch(0b10, h.snapshot())
	if got := dom.InnerHTML(target); got != "<p>0</p>" {
		t.Errorf("after unrelated patch = %s, want unchanged", got)
	}
	root.Patch(0b01, h.snapshot())
	if got := dom.InnerHTML(target); got != "<p>5</p>" {
		t.Errorf("after count patch = %s", got)
	}
}

func TestIfSelectsFirstTruthyBranch(t *testing.T) {
	compile := func(src string) eval.Evaluator {
		ev, err := eval.CompileString(src)
		if err != nil {
			t.Fatal(err)
		}
		return ev
	}
	none := func(f *Frame, state eval.Snapshot) Block { return nil }

	tests := []struct {
		conds   []string
		hasElse bool
		want    int
	}{
		{[]string{"false", "true", "true"}, false, 1},
		{[]string{"true", "true"}, false, 0},
		{[]string{"false", "0", "''"}, true, 3},
		{[]string{"false", "null"}, false, noBranch},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.conds, ","), func(t *testing.T) {
			p := &ifPlan{}
			for _, c := range tt.conds {
				p.sources = append(p.sources, c)
				p.conds = append(p.conds, compile(c))
				p.branches = append(p.branches, none)
			}
			if tt.hasElse {
				p.branches = append(p.branches, none)
			}
			if got := p.selectBranch(NewFrame(newTestHost()), nil); got != tt.want {
				t.Errorf("selectBranch() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIfBranchSwap(t *testing.T) {
	p := generate(t, "{#if a}<b>A</b><i>a</i>{:else if b}B{:else}C{/if}", "a", "b", "other")
	h := newTestHost()
	h.state["a"] = types.NewBool(false)
	h.state["b"] = types.NewBool(true)
	target, root := mount(p, h)
	if got := dom.InnerHTML(target); got != "B" {
		t.Fatalf("mounted = %q", got)
	}

	h.state["a"] = types.NewBool(true)
	root.Patch(0b100, h.snapshot())
	if got := dom.InnerHTML(target); got != "B" {
		t.Errorf("patch without condition bits reselected: %q", got)
	}

	root.Patch(0b001, h.snapshot())
	if got := dom.InnerHTML(target); got != "<b>A</b><i>a</i>" {
		t.Errorf("after swap = %q", got)
	}

	h.state["a"] = types.NewBool(false)
	h.state["b"] = types.NewBool(false)
	root.Patch(0b011, h.snapshot())
	if got := dom.InnerHTML(target); got != "C" {
		t.Errorf("after swap to else = %q", got)
	}

	root.Destroy()
	if target.FirstChild != nil {
		t.Errorf("destroy left %q", dom.OuterHTML(target))
	}
}

// countingBlock records lifecycle calls for the each tests
type countingBlock struct {
	stats *lifecycle
}

type lifecycle struct {
	created, patched, destroyed int
}

func (b *countingBlock) Mount(parent, anchor *dom.Node) {}
func (b *countingBlock) Patch(dirty uint32, state eval.Snapshot) { b.stats.patched++ }
func (b *countingBlock) Destroy() { b.stats.destroyed++ }

func TestEachReuseAndRebuild(t *testing.T) {
	list, err := eval.CompileString("items")
	if err != nil {
		t.Fatal(err)
	}
	stats := &lifecycle{}
	p := &eachPlan{
		name:   "each",
		source: "items",
		list:   list,
		mask:   0b1,
		item:   "item",
		body: func(f *Frame, state eval.Snapshot) Block {
			stats.created++
			return &countingBlock{stats: stats}
		},
	}

	h := newTestHost()
	h.state["items"] = ints(1, 2, 3)
	b := p.create(NewFrame(h), h.snapshot())
	b.Mount(dom.CreateElement("ul"), nil)
	if stats.created != 3 {
		t.Fatalf("created = %d, want 3", stats.created)
	}

	b.Patch(0b10, h.snapshot())
	if stats.created != 3 || stats.destroyed != 0 || stats.patched != 3 {
		t.Errorf("unrelated patch: %+v, want 3 created, 3 patched, 0 destroyed", *stats)
	}

	h.state["items"] = ints(7, 8)
	b.Patch(0b1, h.snapshot())
	if stats.destroyed != 3 || stats.created != 5 || stats.patched != 3 {
		t.Errorf("list patch: %+v, want 3 destroyed, 5 created", *stats)
	}

	b.Destroy()
	b.Destroy()
	if stats.destroyed != 5 {
		t.Errorf("destroyed = %d, want 5", stats.destroyed)
	}
}

func TestEachRendersLocals(t *testing.T) {
	p := generate(t, "<ul>{#each items as item, i}<li>{i}:{item}</li>{/each}</ul>", "items")
	h := newTestHost()
	h.state["items"] = types.NewList([]types.Value{types.NewStr("a"), types.NewStr("b")})
	target, root := mount(p, h)
	if got := dom.InnerHTML(target); got != "<ul><li>0:a</li><li>1:b</li></ul>" {
		t.Fatalf("mounted = %s", got)
	}

	h.state["items"] = types.NewList([]types.Value{types.NewStr("c")})
	root.Patch(0b1, h.snapshot())
	if got := dom.InnerHTML(target); got != "<ul><li>0:c</li></ul>" {
		t.Errorf("after rebuild = %s", got)
	}

	h.state["items"] = types.Null
	root.Patch(0b1, h.snapshot())
	if got := dom.InnerHTML(target); got != "<ul></ul>" {
		t.Errorf("null list = %s", got)
	}
}

func TestEachRejectsNonList(t *testing.T) {
	p := generate(t, "{#each items as item}{item}{/each}", "items")
	h := newTestHost()
	h.state["items"] = types.NewInt(3)
	target, _ := mount(p, h)
	if target.FirstChild != nil && dom.InnerHTML(target) != "" {
		t.Errorf("rendered %q", dom.InnerHTML(target))
	}
	if !strings.Contains(h.logs.String(), "not iterable") {
		t.Errorf("log = %q", h.logs.String())
	}
}

func TestAttributePolicy(t *testing.T) {
	p := generate(t, "<b title={a}></b>", "a", "b")
	h := newTestHost()
	h.state["a"] = types.NewInt(1)
	target, root := mount(p, h)

	h.state["a"] = types.NewInt(2)
	root.Patch(0b10, h.snapshot())
	if got := dom.InnerHTML(target); got != `<b title="1"></b>` {
		t.Errorf("unrelated patch = %s", got)
	}
	root.Patch(0b01, h.snapshot())
	if got := dom.InnerHTML(target); got != `<b title="2"></b>` {
		t.Errorf("state patch = %s", got)
	}
}

func TestAttributeWithLocalsAlwaysRecomputes(t *testing.T) {
	p := generate(t, "{#each xs as x}<i title={x + a}></i>{/each}", "xs", "a")
	h := newTestHost()
	h.state["xs"] = ints(1)
	h.state["a"] = types.NewInt(10)
	target, root := mount(p, h)
	if got := dom.InnerHTML(target); got != `<i title="11"></i>` {
		t.Fatalf("mounted = %s", got)
	}

	h.state["a"] = types.NewInt(20)
	root.Patch(0, h.snapshot())
	if got := dom.InnerHTML(target); got != `<i title="21"></i>` {
		t.Errorf("patch = %s", got)
	}
}

func TestConstantAttributeComputedOnce(t *testing.T) {
	p := generate(t, "<i title={tick()}></i>", "a")
	h := newTestHost()
	calls := 0
	h.globals.RegisterFunc("tick", func(args []types.Value) (types.Value, error) {
		calls++
		return types.NewInt(int64(calls)), nil
	})
	target, root := mount(p, h)
	root.Patch(0xffffffff, h.snapshot())
	if calls != 1 {
		t.Errorf("tick called %d times, want 1", calls)
	}
	if got := dom.InnerHTML(target); got != `<i title="1"></i>` {
		t.Errorf("rendered %s", got)
	}
}

func TestBooleanAttributes(t *testing.T) {
	p := generate(t, "<input disabled={off} value={v}>", "off", "v")
	h := newTestHost()
	h.state["off"] = types.NewBool(true)
	h.state["v"] = types.Null
	target, root := mount(p, h)
	if got := dom.InnerHTML(target); got != `<input disabled=""/>` {
		t.Errorf("mounted = %s", got)
	}
	h.state["off"] = types.NewBool(false)
	h.state["v"] = types.NewStr("x")
	root.Patch(0b11, h.snapshot())
	if got := dom.InnerHTML(target); got != `<input value="x"/>` {
		t.Errorf("patched = %s", got)
	}
}

func TestClassToggle(t *testing.T) {
	p := generate(t, `<li class="item" class:done={done}></li>`, "done")
	h := newTestHost()
	h.state["done"] = types.NewBool(false)
	target, root := mount(p, h)
	if got := dom.InnerHTML(target); got != `<li class="item"></li>` {
		t.Errorf("mounted = %s", got)
	}
	h.state["done"] = types.NewBool(true)
	root.Patch(0b1, h.snapshot())
	if got := dom.InnerHTML(target); got != `<li class="item done"></li>` {
		t.Errorf("patched = %s", got)
	}
}

func TestHandlers(t *testing.T) {
	p := generate(t, `<button @click="count += 1">+</button>{#each xs as x}<a @click="picked = x">{x}</a>{/each}`, "count", "xs", "picked")
	h := newTestHost()
	h.state["count"] = types.NewInt(0)
	h.state["xs"] = ints(1, 2)
	h.state["picked"] = types.Null
	target, root := mount(p, h)

	if !h.doc.Dispatch(dom.Find(target, "button"), &dom.Event{Type: "click"}) {
		t.Fatal("no click listener on button")
	}
	if !h.state["count"].Equal(types.NewInt(1)) || h.batches != 1 {
		t.Errorf("count = %s, batches = %d", h.state["count"], h.batches)
	}

	links := dom.FindAll(target, "a")
	h.doc.Dispatch(links[1], &dom.Event{Type: "click"})
	if !h.state["picked"].Equal(types.NewInt(2)) {
		t.Errorf("picked = %s, want 2", h.state["picked"])
	}

	if h.doc.ListenerCount() != 3 {
		t.Errorf("ListenerCount() = %d, want 3", h.doc.ListenerCount())
	}
	root.Destroy()
	if h.doc.ListenerCount() != 0 {
		t.Errorf("listeners after destroy = %d", h.doc.ListenerCount())
	}
	if target.FirstChild != nil {
		t.Errorf("destroy left %s", dom.InnerHTML(target))
	}
}

func TestHandlerReceivesEvent(t *testing.T) {
	p := generate(t, `<button @click="save">go</button>`, "last")
	h := newTestHost()
	h.state["save"] = types.NewFunc("save", func(args []types.Value) (types.Value, error) {
		ev := args[0].(types.MapValue)
		typ, _ := ev.Get("type")
		h.state["last"] = typ
		return nil, nil
	})
	target, _ := mount(p, h)
	h.doc.Dispatch(dom.Find(target, "button"), &dom.Event{Type: "click"})
	if v, ok := h.state["last"]; !ok || !v.Equal(types.NewStr("click")) {
		t.Errorf("last = %v", v)
	}
}

func TestArrowHandlerIsCalled(t *testing.T) {
	p := generate(t, `{#each xs as x}<a on:click={() => picked = x * 10}>{x}</a>{/each}`, "xs", "picked")
	h := newTestHost()
	h.state["xs"] = ints(1, 2)
	h.state["picked"] = types.Null
	target, _ := mount(p, h)

	h.doc.Dispatch(dom.FindAll(target, "a")[0], &dom.Event{Type: "click"})
	if !h.state["picked"].Equal(types.NewInt(10)) {
		t.Errorf("picked = %s, want 10", h.state["picked"])
	}
}

func TestEvaluationErrorsRenderEmpty(t *testing.T) {
	p := generate(t, "<p>{user.name}</p>", "user")
	h := newTestHost()
	h.state["user"] = types.Null
	target, _ := mount(p, h)
	if got := dom.InnerHTML(target); got != "<p></p>" {
		t.Errorf("rendered %s", got)
	}
	if !strings.Contains(h.logs.String(), "user.name") {
		t.Errorf("log = %q", h.logs.String())
	}
}

func TestProgramFactoriesAndListing(t *testing.T) {
	p := generate(t, "<p>{count}</p>{#if count}x{/if}", "count")
	if len(p.Factories) != 4 {
		t.Errorf("factories = %d, want 4", len(p.Factories))
	}
	seen := map[string]bool{}
	for _, nf := range p.Factories {
		if seen[nf.Name] {
			t.Errorf("duplicate factory %s", nf.Name)
		}
		seen[nf.Name] = true
		if _, ok := p.Lookup(nf.Name); !ok {
			t.Errorf("Lookup(%s) failed", nf.Name)
		}
	}

	listing := p.Listing()
	for _, want := range []string{"function create_text_", "function create_if_", "function create_root(ctx, state)", "0b1 /* count */"} {
		if !strings.Contains(listing, want) {
			t.Errorf("listing lacks %q", want)
		}
	}
}
