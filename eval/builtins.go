package eval

import (
	"encoding/json"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"loom/types"
)

// Registry holds the global names every expression can see when neither
// a local nor the component state defines them
type Registry struct {
	values map[string]types.Value
}

// NewRegistry creates a registry with the standard globals installed
func NewRegistry() *Registry {
	r := &Registry{values: make(map[string]types.Value)}

	// Conversions
	r.RegisterFunc("String", builtinString)
	r.RegisterFunc("Number", builtinNumber)
	r.RegisterFunc("Boolean", builtinBoolean)
	r.RegisterFunc("parseInt", builtinParseInt)
	r.RegisterFunc("parseFloat", builtinParseFloat)
	r.RegisterFunc("isNaN", builtinIsNaN)

	// Namespaces
	r.Register("Math", mathNamespace())
	r.Register("JSON", namespace(map[string]types.NativeFunc{
		"stringify": builtinJSONStringify,
		"parse":     builtinJSONParse,
	}))
	r.Register("Array", namespace(map[string]types.NativeFunc{
		"isArray": builtinIsArray,
	}))
	r.Register("Object", namespace(map[string]types.NativeFunc{
		"keys":    builtinObjectKeys,
		"values":  builtinObjectValues,
		"entries": builtinObjectEntries,
		"assign":  builtinObjectAssign,
	}))
	r.Register("console", namespace(map[string]types.NativeFunc{
		"log": builtinConsoleLog,
	}))

	r.Register("NaN", types.NewFloat(math.NaN()))
	r.Register("Infinity", types.NewFloat(math.Inf(1)))
	return r
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the shared registry of standard globals.
// It must not be modified once compilation has started.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Register binds a global name to a value
func (r *Registry) Register(name string, v types.Value) {
	r.values[name] = v
}

// RegisterFunc binds a global name to a native function
func (r *Registry) RegisterFunc(name string, fn types.NativeFunc) {
	r.values[name] = types.NewFunc(name, fn)
}

// Get looks up a global by name
func (r *Registry) Get(name string) (types.Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Has reports whether name is a registered global
func (r *Registry) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Names returns all global names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.values))
	for name := range r.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func namespace(fns map[string]types.NativeFunc) types.MapValue {
	names := make([]string, 0, len(fns))
	for name := range fns {
		names = append(names, name)
	}
	sort.Strings(names)
	m := types.NewMap()
	for _, name := range names {
		m = m.Set(name, types.NewFunc(name, fns[name]))
	}
	return m
}

// ============================================================================
// CONVERSIONS
// ============================================================================

func builtinString(args []types.Value) (types.Value, error) {
	return types.NewStr(types.ToString(arg(args, 0))), nil
}

func builtinNumber(args []types.Value) (types.Value, error) {
	if len(args) == 0 {
		return types.NewInt(0), nil
	}
	return types.NewNumber(types.ToNumber(args[0])), nil
}

func builtinBoolean(args []types.Value) (types.Value, error) {
	return types.NewBool(arg(args, 0).Truthy()), nil
}

func builtinParseInt(args []types.Value) (types.Value, error) {
	s := strings.TrimSpace(types.ToString(arg(args, 0)))
	radix := intArg(args, 1, 10)
	if radix == 16 {
		s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	}
	end := 0
	for end < len(s) {
		c := s[end]
		if end == 0 && (c == '-' || c == '+') {
			end++
			continue
		}
		if _, err := strconv.ParseInt(string(c), radix, 64); err != nil {
			break
		}
		end++
	}
	n, err := strconv.ParseInt(s[:end], radix, 64)
	if err != nil {
		return types.NewFloat(math.NaN()), nil
	}
	return types.NewInt(n), nil
}

func builtinParseFloat(args []types.Value) (types.Value, error) {
	s := strings.TrimSpace(types.ToString(arg(args, 0)))
	for end := len(s); end > 0; end-- {
		if f, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return types.NewNumber(f), nil
		}
	}
	return types.NewFloat(math.NaN()), nil
}

func builtinIsNaN(args []types.Value) (types.Value, error) {
	return types.NewBool(math.IsNaN(types.ToNumber(arg(args, 0)))), nil
}

// ============================================================================
// MATH
// ============================================================================

func mathNamespace() types.MapValue {
	unary := func(f func(float64) float64) types.NativeFunc {
		return func(args []types.Value) (types.Value, error) {
			return types.NewNumber(f(types.ToNumber(arg(args, 0)))), nil
		}
	}
	m := namespace(map[string]types.NativeFunc{
		"abs":   unary(math.Abs),
		"ceil":  unary(math.Ceil),
		"floor": unary(math.Floor),
		"round": unary(func(x float64) float64 { return math.Floor(x + 0.5) }),
		"sqrt":  unary(math.Sqrt),
		"trunc": unary(math.Trunc),
		"sign": unary(func(x float64) float64 {
			switch {
			case x > 0:
				return 1
			case x < 0:
				return -1
			}
			return x
		}),
		"pow": func(args []types.Value) (types.Value, error) {
			return types.NewNumber(math.Pow(types.ToNumber(arg(args, 0)), types.ToNumber(arg(args, 1)))), nil
		},
		"min": func(args []types.Value) (types.Value, error) {
			return fold(args, math.Inf(1), math.Min), nil
		},
		"max": func(args []types.Value) (types.Value, error) {
			return fold(args, math.Inf(-1), math.Max), nil
		},
	})
	return m.Set("PI", types.NewFloat(math.Pi))
}

func fold(args []types.Value, init float64, f func(a, b float64) float64) types.Value {
	acc := init
	for _, a := range args {
		acc = f(acc, types.ToNumber(a))
	}
	return types.NewNumber(acc)
}

// ============================================================================
// JSON, ARRAY, OBJECT, CONSOLE
// ============================================================================

func builtinJSONStringify(args []types.Value) (types.Value, error) {
	v := arg(args, 0)
	if v.Type() == types.TYPE_UNDEFINED || v.Type() == types.TYPE_FUNC {
		return types.Undefined, nil
	}
	var (
		data []byte
		err  error
	)
	if indent := intArg(args, 2, 0); indent > 0 {
		data, err = json.MarshalIndent(types.ToGo(v), "", strings.Repeat(" ", indent))
	} else {
		data, err = json.Marshal(types.ToGo(v))
	}
	if err != nil {
		return nil, types.Errorf(types.E_INVARG, "JSON.stringify: %v", err)
	}
	return types.NewStr(string(data)), nil
}

func builtinJSONParse(args []types.Value) (types.Value, error) {
	var raw any
	if err := json.Unmarshal([]byte(types.ToString(arg(args, 0))), &raw); err != nil {
		return nil, types.Errorf(types.E_INVARG, "JSON.parse: %v", err)
	}
	return types.FromGo(raw)
}

func builtinIsArray(args []types.Value) (types.Value, error) {
	return types.NewBool(arg(args, 0).Type() == types.TYPE_LIST), nil
}

func objectArg(method string, args []types.Value) (types.MapValue, error) {
	m, ok := arg(args, 0).(types.MapValue)
	if !ok {
		return types.MapValue{}, types.Errorf(types.E_TYPE, "Object.%s: argument is not an object", method)
	}
	return m, nil
}

func builtinObjectKeys(args []types.Value) (types.Value, error) {
	m, err := objectArg("keys", args)
	if err != nil {
		return nil, err
	}
	out := make([]types.Value, 0, m.Len())
	for _, k := range m.Keys() {
		out = append(out, types.NewStr(k))
	}
	return types.NewList(out), nil
}

func builtinObjectValues(args []types.Value) (types.Value, error) {
	m, err := objectArg("values", args)
	if err != nil {
		return nil, err
	}
	out := make([]types.Value, 0, m.Len())
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		out = append(out, v)
	}
	return types.NewList(out), nil
}

func builtinObjectEntries(args []types.Value) (types.Value, error) {
	m, err := objectArg("entries", args)
	if err != nil {
		return nil, err
	}
	out := make([]types.Value, 0, m.Len())
	for _, k := range m.Keys() {
		v, _ := m.Get(k)
		out = append(out, types.NewList([]types.Value{types.NewStr(k), v}))
	}
	return types.NewList(out), nil
}

// builtinObjectAssign merges its arguments left to right into a new object
func builtinObjectAssign(args []types.Value) (types.Value, error) {
	out := types.NewMap()
	for _, a := range args {
		m, ok := a.(types.MapValue)
		if !ok {
			continue
		}
		for _, k := range m.Keys() {
			v, _ := m.Get(k)
			out = out.Set(k, v)
		}
	}
	return out, nil
}

func builtinConsoleLog(args []types.Value) (types.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = types.ToString(a)
	}
	log.Printf("console: %s", strings.Join(parts, " "))
	return types.Undefined, nil
}
