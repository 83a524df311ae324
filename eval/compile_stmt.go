package eval

import (
	"loom/expr"
	"loom/types"
)

// Program is a compiled statement list. Its value is the argument of the
// first return executed, or undefined.
type Program func(env *Environment) (types.Value, error)

type flow int

const (
	flowNext flow = iota
	flowReturn
)

type stmtFn func(env *Environment) (flow, types.Value, error)

// CompileStmts lowers a statement list to a Program
func CompileStmts(stmts []expr.Stmt) Program {
	body := compileBlock(stmts)
	return func(env *Environment) (types.Value, error) {
		_, v, err := body(env)
		if err != nil {
			return nil, err
		}
		if v == nil {
			v = types.Undefined
		}
		return v, nil
	}
}

// CompileFunc lowers a function declaration; the result binds it to an
// environment as a callable value
func CompileFunc(decl *expr.FuncDecl) func(env *Environment) *types.FuncValue {
	body := CompileStmts(decl.Body)
	name, params := decl.Name, decl.Params
	return func(env *Environment) *types.FuncValue {
		return NewClosure(name, params, body, env)
	}
}

// compileBlock runs statements in order. Function declarations are bound
// before the first statement runs.
func compileBlock(stmts []expr.Stmt) stmtFn {
	type hoisted struct {
		name string
		make func(env *Environment) *types.FuncValue
	}
	var funcs []hoisted
	var fns []stmtFn
	for _, s := range stmts {
		if decl, ok := s.(*expr.FuncDecl); ok {
			funcs = append(funcs, hoisted{decl.Name, CompileFunc(decl)})
			continue
		}
		fns = append(fns, compileStmt(s))
	}
	return func(env *Environment) (flow, types.Value, error) {
		for _, f := range funcs {
			env.Define(f.name, f.make(env))
		}
		for _, fn := range fns {
			fl, v, err := fn(env)
			if err != nil || fl == flowReturn {
				return fl, v, err
			}
		}
		return flowNext, nil, nil
	}
}

func compileStmt(s expr.Stmt) stmtFn {
	switch s := s.(type) {
	case *expr.ExprStmt:
		e := Compile(s.Expr)
		return func(env *Environment) (flow, types.Value, error) {
			_, err := e(env)
			return flowNext, nil, err
		}
	case *expr.DeclStmt:
		var init Evaluator
		if s.Init != nil {
			init = Compile(s.Init)
		}
		name, isConst := s.Name, s.Kind == "const"
		return func(env *Environment) (flow, types.Value, error) {
			v := types.Value(types.Undefined)
			if init != nil {
				var err error
				if v, err = init(env); err != nil {
					return flowNext, nil, err
				}
			}
			if isConst {
				env.DefineConst(name, v)
			} else {
				env.Define(name, v)
			}
			return flowNext, nil, nil
		}
	case *expr.IfStmt:
		cond := Compile(s.Cond)
		then, els := compileBlock(s.Then), compileBlock(s.Else)
		return func(env *Environment) (flow, types.Value, error) {
			c, err := cond(env)
			if err != nil {
				return flowNext, nil, err
			}
			if c.Truthy() {
				return then(NewNestedEnvironment(env))
			}
			return els(NewNestedEnvironment(env))
		}
	case *expr.ReturnStmt:
		if s.Value == nil {
			return func(*Environment) (flow, types.Value, error) {
				return flowReturn, types.Undefined, nil
			}
		}
		value := Compile(s.Value)
		return func(env *Environment) (flow, types.Value, error) {
			v, err := value(env)
			return flowReturn, v, err
		}
	case *expr.FuncDecl:
		mk := CompileFunc(s)
		name := s.Name
		return func(env *Environment) (flow, types.Value, error) {
			env.Define(name, mk(env))
			return flowNext, nil, nil
		}
	case *expr.LabeledStmt:
		return compileStmt(s.Body)
	}
	return func(*Environment) (flow, types.Value, error) {
		return flowNext, nil, types.Errorf(types.E_INVARG, "unsupported statement %T", s)
	}
}
