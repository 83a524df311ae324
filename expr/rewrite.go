package expr

// EventParam is the local name an event handler sees the triggering event under
const EventParam = "event"

// RewriteHandler turns handler text into an expression that runs with the
// event in scope. A bare reference (`save`, `item.toggle`) becomes a call
// that receives the event. A bare call whose arguments do not already
// mention the event gets it appended as the trailing argument. Anything
// else is returned unchanged and evaluated for its effect.
func RewriteHandler(e Expr) Expr {
	event := func(pos int) Expr { return &IdentExpr{Pos: pos, Name: EventParam} }
	switch e := e.(type) {
	case *IdentExpr, *MemberExpr:
		return &CallExpr{Pos: e.Position(), Callee: e, Args: []Expr{event(e.Position())}}
	case *CallExpr:
		if !isPlainCallee(e.Callee) || e.Optional {
			return e
		}
		for _, a := range e.Args {
			if _, spread := a.(*SpreadExpr); spread {
				return e
			}
		}
		for _, name := range FreeIdentifiers(e) {
			if name == EventParam || name == "$event" {
				return e
			}
		}
		args := append(append([]Expr{}, e.Args...), event(e.Position()))
		return &CallExpr{Pos: e.Pos, Callee: e.Callee, Args: args}
	}
	return e
}

func isPlainCallee(e Expr) bool {
	switch e := e.(type) {
	case *IdentExpr:
		return true
	case *MemberExpr:
		return !e.Optional && isPlainCallee(e.Object)
	}
	return false
}
