package codegen

import (
	"loom/dom"
	"loom/eval"
	"loom/expr"
	"loom/trace"
	"loom/types"
)

// ============================================================================
// STATIC TEXT
// ============================================================================

type staticTextPlan struct {
	value string
}

type staticTextBlock struct {
	value string
	node  *dom.Node
	done  bool
}

func (p *staticTextPlan) create(f *Frame, state eval.Snapshot) Block {
	return &staticTextBlock{value: p.value}
}

func (b *staticTextBlock) Mount(parent, anchor *dom.Node) {
	if b.done || b.node != nil {
		return
	}
	b.node = dom.CreateText(b.value)
	dom.Insert(parent, b.node, anchor)
}

func (b *staticTextBlock) Patch(dirty uint32, state eval.Snapshot) {}

func (b *staticTextBlock) Destroy() {
	if b.done {
		return
	}
	b.done = true
	if b.node != nil {
		dom.Detach(b.node)
	}
}

// ============================================================================
// TEXT
// ============================================================================

type textPlan struct {
	name   string
	source string
	eval   eval.Evaluator
	mask   uint32
}

type textBlock struct {
	plan  *textPlan
	frame *Frame
	state eval.Snapshot
	node  *dom.Node
	done  bool
}

func (p *textPlan) create(f *Frame, state eval.Snapshot) Block {
	return &textBlock{plan: p, frame: f, state: state}
}

func (b *textBlock) render(state eval.Snapshot) string {
	return types.Display(b.frame.evaluate(b.plan.eval, state, b.plan.source))
}

func (b *textBlock) Mount(parent, anchor *dom.Node) {
	if b.done || b.node != nil {
		return
	}
	b.node = dom.CreateText(b.render(b.state))
	b.state = nil
	dom.Insert(parent, b.node, anchor)
}

func (b *textBlock) Patch(dirty uint32, state eval.Snapshot) {
	if b.done || b.node == nil || dirty&b.plan.mask == 0 {
		return
	}
	if text := b.render(state); text != b.node.Data {
		dom.SetText(b.node, text)
		trace.Patch(b.frame.Host.Tag(), b.plan.name, dirty)
	}
}

func (b *textBlock) Destroy() {
	if b.done {
		return
	}
	b.done = true
	if b.node != nil {
		dom.Detach(b.node)
	}
}

// ============================================================================
// ELEMENT
// ============================================================================

// bindingPlan is a dynamic attribute or class toggle. Bindings with loop
// locals are recomputed on every patch; bindings with neither state nor
// locals are computed once at mount.
type bindingPlan struct {
	name   string // attribute name or class token
	source string
	eval   eval.Evaluator
	mask   uint32
	local  bool
}

func (p *bindingPlan) stale(dirty uint32) bool {
	return p.local || dirty&p.mask != 0
}

type handlerPlan struct {
	event  string
	source string
	eval   eval.Evaluator
}

type elemPlan struct {
	name     string
	tag      string
	static   [][2]string
	attrs    []bindingPlan
	classes  []bindingPlan
	on       []handlerPlan
	children []Factory
}

type elemBlock struct {
	plan     *elemPlan
	frame    *Frame
	state    eval.Snapshot
	node     *dom.Node
	attrs    []types.Value
	classes  []bool
	offs     []func()
	children []Block
	done     bool
}

func (p *elemPlan) create(f *Frame, state eval.Snapshot) Block {
	b := &elemBlock{plan: p, frame: f, state: state}
	for _, child := range p.children {
		b.children = append(b.children, child(f, state))
	}
	return b
}

func (b *elemBlock) Mount(parent, anchor *dom.Node) {
	if b.done || b.node != nil {
		return
	}
	p := b.plan
	b.node = dom.CreateElement(p.tag)
	for _, kv := range p.static {
		dom.SetAttr(b.node, kv[0], kv[1])
	}

	b.attrs = make([]types.Value, len(p.attrs))
	for i := range p.attrs {
		b.attrs[i] = b.frame.evaluate(p.attrs[i].eval, b.state, p.attrs[i].source)
		applyAttr(b.node, p.attrs[i].name, b.attrs[i])
	}
	b.classes = make([]bool, len(p.classes))
	for i := range p.classes {
		b.classes[i] = b.frame.evaluate(p.classes[i].eval, b.state, p.classes[i].source).Truthy()
		if b.classes[i] {
			dom.ToggleClass(b.node, p.classes[i].name, true)
		}
	}
	for i := range p.on {
		b.offs = append(b.offs, b.listen(&p.on[i]))
	}
	b.state = nil

	for _, child := range b.children {
		child.Mount(b.node, nil)
	}
	dom.Insert(parent, b.node, anchor)
}

func (b *elemBlock) Patch(dirty uint32, state eval.Snapshot) {
	if b.done || b.node == nil {
		return
	}
	p := b.plan
	for i := range p.attrs {
		if !p.attrs[i].stale(dirty) {
			continue
		}
		v := b.frame.evaluate(p.attrs[i].eval, state, p.attrs[i].source)
		if types.Equal(v, b.attrs[i]) {
			continue
		}
		b.attrs[i] = v
		applyAttr(b.node, p.attrs[i].name, v)
		trace.Patch(b.frame.Host.Tag(), p.name, dirty)
	}
	for i := range p.classes {
		if !p.classes[i].stale(dirty) {
			continue
		}
		on := b.frame.evaluate(p.classes[i].eval, state, p.classes[i].source).Truthy()
		if on != b.classes[i] {
			b.classes[i] = on
			dom.ToggleClass(b.node, p.classes[i].name, on)
		}
	}
	for _, child := range b.children {
		child.Patch(dirty, state)
	}
}

func (b *elemBlock) Destroy() {
	if b.done {
		return
	}
	b.done = true
	for _, off := range b.offs {
		off()
	}
	b.offs = nil
	for _, child := range b.children {
		child.Destroy()
	}
	if b.node != nil {
		dom.Detach(b.node)
	}
}

// listen attaches one handler. The handler runs with the loop locals of its
// frame and the event bound as `event` and `$event`, writing state through
// the host.
func (b *elemBlock) listen(h *handlerPlan) func() {
	host := b.frame.Host
	return host.Document().Listen(b.node, h.event, func(ev *dom.Event) {
		host.Batch(func() {
			env := eval.NewNestedEnvironment(b.frame.Env(host))
			e := eventValue(ev)
			env.Define(expr.EventParam, e)
			env.Define("$event", e)
			v, err := h.eval(env)
			// An arrow or other function-valued handler is called with the event.
			if fn, ok := v.(*types.FuncValue); ok && err == nil {
				_, err = fn.Call([]types.Value{e})
			}
			if err != nil {
				b.frame.logf("%s handler %q: %v", h.event, h.source, err)
			}
		})
	})
}

func eventValue(ev *dom.Event) types.Value {
	detail, ok := ev.Detail.(types.Value)
	if !ok {
		var err error
		if detail, err = types.FromGo(ev.Detail); err != nil {
			detail = types.Undefined
		}
	}
	target := types.NewMap()
	if ev.Target != nil {
		target = target.Set("tagName", types.NewStr(ev.Target.Data))
		for _, a := range ev.Target.Attr {
			target = target.Set(a.Key, types.NewStr(a.Val))
		}
	}
	return types.NewMap().
		Set("type", types.NewStr(ev.Type)).
		Set("detail", detail).
		Set("target", target)
}

// applyAttr writes v as an attribute: false and nullish remove it, true
// sets it empty
func applyAttr(n *dom.Node, name string, v types.Value) {
	if b, ok := v.(types.BoolValue); ok {
		if b.Truthy() {
			dom.SetAttr(n, name, "")
		} else {
			dom.RemoveAttr(n, name)
		}
		return
	}
	if types.IsNullish(v) {
		dom.RemoveAttr(n, name)
		return
	}
	dom.SetAttr(n, name, types.ToString(v))
}

// ============================================================================
// IF
// ============================================================================

// noBranch is the selector result when no condition holds and there is no else
const noBranch = -1

type ifPlan struct {
	name     string
	sources  []string
	conds    []eval.Evaluator
	mask     uint32
	branches []Factory // one per condition, then the else body if any
}

// selectBranch returns the index of the first truthy condition, the else
// index when none holds, or noBranch
func (p *ifPlan) selectBranch(f *Frame, state eval.Snapshot) int {
	for i, cond := range p.conds {
		if f.evaluate(cond, state, p.sources[i]).Truthy() {
			return i
		}
	}
	if len(p.branches) > len(p.conds) {
		return len(p.conds)
	}
	return noBranch
}

type ifBlock struct {
	plan    *ifPlan
	frame   *Frame
	state   eval.Snapshot
	anchor  *dom.Node
	key     int
	current Block
	done    bool
}

func (p *ifPlan) create(f *Frame, state eval.Snapshot) Block {
	return &ifBlock{plan: p, frame: f, state: state, key: noBranch}
}

func (b *ifBlock) Mount(parent, anchor *dom.Node) {
	if b.done || b.anchor != nil {
		return
	}
	b.anchor = dom.CreateAnchor()
	dom.Insert(parent, b.anchor, anchor)
	b.swap(b.plan.selectBranch(b.frame, b.state), b.state)
	b.state = nil
}

// swap destroys the mounted branch and mounts branch key in its place
func (b *ifBlock) swap(key int, state eval.Snapshot) {
	if b.current != nil {
		b.current.Destroy()
		b.current = nil
	}
	b.key = key
	if key == noBranch {
		return
	}
	b.current = b.plan.branches[key](b.frame, state)
	b.current.Mount(b.anchor.Parent, b.anchor)
}

func (b *ifBlock) Patch(dirty uint32, state eval.Snapshot) {
	if b.done || b.anchor == nil {
		return
	}
	if dirty&b.plan.mask != 0 {
		if key := b.plan.selectBranch(b.frame, state); key != b.key {
			b.swap(key, state)
			trace.Patch(b.frame.Host.Tag(), b.plan.name, dirty)
			return
		}
	}
	if b.current != nil {
		b.current.Patch(dirty, state)
	}
}

func (b *ifBlock) Destroy() {
	if b.done {
		return
	}
	b.done = true
	if b.current != nil {
		b.current.Destroy()
		b.current = nil
	}
	if b.anchor != nil {
		dom.Detach(b.anchor)
	}
}

// ============================================================================
// EACH
// ============================================================================

type eachPlan struct {
	name   string
	source string
	list   eval.Evaluator
	mask   uint32
	item   string
	index  string
	body   Factory
}

type eachBlock struct {
	plan     *eachPlan
	frame    *Frame
	state    eval.Snapshot
	anchor   *dom.Node
	children []Block
	done     bool
}

func (p *eachPlan) create(f *Frame, state eval.Snapshot) Block {
	return &eachBlock{plan: p, frame: f, state: state}
}

// items evaluates the list expression. Nullish lists render nothing; other
// non-lists are logged and render nothing.
func (b *eachBlock) items(state eval.Snapshot) []types.Value {
	v := b.frame.evaluate(b.plan.list, state, b.plan.source)
	switch v := v.(type) {
	case types.ListValue:
		return v.Elements()
	case types.NullValue:
		return nil
	}
	b.frame.logf("{#each %s}: %s is not iterable", b.plan.source, v.Type())
	return nil
}

func (b *eachBlock) build(state eval.Snapshot) {
	for i, item := range b.items(state) {
		locals := map[string]types.Value{b.plan.item: item}
		if b.plan.index != "" {
			locals[b.plan.index] = types.NewInt(int64(i))
		}
		child := b.plan.body(b.frame.With(locals), state)
		child.Mount(b.anchor.Parent, b.anchor)
		b.children = append(b.children, child)
	}
}

func (b *eachBlock) Mount(parent, anchor *dom.Node) {
	if b.done || b.anchor != nil {
		return
	}
	b.anchor = dom.CreateAnchor()
	dom.Insert(parent, b.anchor, anchor)
	b.build(b.state)
	b.state = nil
}

func (b *eachBlock) Patch(dirty uint32, state eval.Snapshot) {
	if b.done || b.anchor == nil {
		return
	}
	if dirty&b.plan.mask == 0 {
		for _, child := range b.children {
			child.Patch(dirty, state)
		}
		return
	}
	for _, child := range b.children {
		child.Destroy()
	}
	b.children = nil
	b.build(state)
	trace.Patch(b.frame.Host.Tag(), b.plan.name, dirty)
}

func (b *eachBlock) Destroy() {
	if b.done {
		return
	}
	b.done = true
	for _, child := range b.children {
		child.Destroy()
	}
	b.children = nil
	if b.anchor != nil {
		dom.Detach(b.anchor)
	}
}

// ============================================================================
// FRAGMENT
// ============================================================================

type fragmentPlan struct {
	children []Factory
	anchored bool // false for the root composer, which mounts in place
}

type fragmentBlock struct {
	anchor   *dom.Node
	anchored bool
	children []Block
	mounted  bool
	done     bool
}

func (p *fragmentPlan) create(f *Frame, state eval.Snapshot) Block {
	b := &fragmentBlock{anchored: p.anchored}
	for _, child := range p.children {
		b.children = append(b.children, child(f, state))
	}
	return b
}

func (b *fragmentBlock) Mount(parent, anchor *dom.Node) {
	if b.done || b.mounted {
		return
	}
	b.mounted = true
	if b.anchored {
		b.anchor = dom.CreateAnchor()
		dom.Insert(parent, b.anchor, anchor)
		anchor = b.anchor
	}
	for _, child := range b.children {
		child.Mount(parent, anchor)
	}
}

func (b *fragmentBlock) Patch(dirty uint32, state eval.Snapshot) {
	if b.done || !b.mounted {
		return
	}
	for _, child := range b.children {
		child.Patch(dirty, state)
	}
}

func (b *fragmentBlock) Destroy() {
	if b.done {
		return
	}
	b.done = true
	for _, child := range b.children {
		child.Destroy()
	}
	if b.anchor != nil {
		dom.Detach(b.anchor)
	}
}
