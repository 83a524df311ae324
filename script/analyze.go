package script

import (
	"errors"

	"loom/expr"
)

// Default is the Analyzer backed by the expr statement parser. It accepts
// top-level declarations only:
//
//	export let count = 0      prop with a default
//	let items = []            hoisted variable (const and var too)
//	$: total = price * qty    derived value
//	function add(item) {...}  method
type Default struct{}

// Analyze implements Analyzer
func (Default) Analyze(source string, exported []string) (*Info, error) {
	stmts, err := expr.ParseProgram(source)
	if err != nil {
		var se *expr.SyntaxError
		if errors.As(err, &se) {
			return nil, &Error{Offset: se.Offset, Msg: se.Msg}
		}
		return nil, err
	}

	isExported := make(map[string]bool, len(exported))
	for _, name := range exported {
		isExported[name] = true
	}
	declared := map[string]bool{}
	declare := func(pos int, name string) error {
		if declared[name] {
			return &Error{Offset: pos, Msg: "duplicate declaration of " + name}
		}
		declared[name] = true
		return nil
	}

	info := &Info{}
	for _, st := range stmts {
		switch st := st.(type) {
		case *expr.DeclStmt:
			if err := declare(st.Pos, st.Name); err != nil {
				return nil, err
			}
			if st.Exported || isExported[st.Name] {
				if st.Kind == "const" {
					return nil, &Error{Offset: st.Pos, Msg: "prop " + st.Name + " cannot be const"}
				}
				info.Props = append(info.Props, Prop{Name: st.Name, Default: st.Init})
				continue
			}
			info.Vars = append(info.Vars, Var{Name: st.Name, Kind: st.Kind, Init: st.Init, Const: st.Kind == "const"})

		case *expr.FuncDecl:
			if err := declare(st.Pos, st.Name); err != nil {
				return nil, err
			}
			info.Methods = append(info.Methods, Method{
				Name: st.Name,
				Decl: st,
				Deps: without(expr.FreeIdentifiers(st), st.Name),
			})

		case *expr.LabeledStmt:
			d, err := derived(st)
			if err != nil {
				return nil, err
			}
			if err := declare(st.Pos, d.Name); err != nil {
				return nil, err
			}
			info.Derived = append(info.Derived, d)

		default:
			return nil, &Error{Offset: st.Position(), Msg: "only declarations are allowed at the top level of a script"}
		}
	}

	// Exported names the script never declared are props without defaults.
	for _, name := range exported {
		if !declared[name] {
			declared[name] = true
			info.Props = append(info.Props, Prop{Name: name})
		}
	}
	return info, nil
}

func derived(st *expr.LabeledStmt) (Derived, error) {
	if st.Label != "$" {
		return Derived{}, &Error{Offset: st.Pos, Msg: "unknown label " + st.Label}
	}
	body, ok := st.Body.(*expr.ExprStmt)
	if ok {
		if assign, ok := body.Expr.(*expr.AssignExpr); ok && assign.Op == "=" {
			if target, ok := assign.Target.(*expr.IdentExpr); ok {
				return Derived{
					Name: target.Name,
					Expr: assign.Value,
					Deps: expr.FreeIdentifiers(assign.Value),
				}, nil
			}
		}
	}
	return Derived{}, &Error{Offset: st.Pos, Msg: "reactive declarations must have the form $: name = expr"}
}

func without(names []string, drop string) []string {
	out := names[:0:0]
	for _, n := range names {
		if n != drop {
			out = append(out, n)
		}
	}
	return out
}
