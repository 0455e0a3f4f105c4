package optimize

import (
	"github.com/l3aro/go-befunge-cfg/pkg/cfg"
)

// pruneDecisions replaces a decision whose condition has the same known value
// on every incoming edge by the branch it always takes.
func pruneDecisions(g *cfg.Graph, _ Options) (bool, error) {
	for _, id := range g.DFS() {
		v := g.Vertex(id)
		cond, body, ok := exprCondition(v.Instr)
		if !ok {
			continue
		}
		taken, ok := decide(g, v, cond, body)
		if !ok {
			continue
		}
		var rest cfg.Instr = cfg.Nop{}
		if len(body) > 0 {
			rest = cfg.Block{Body: append([]cfg.Instr(nil), body...)}
		}
		return true, g.ResolveDecision(id, taken, rest)
	}
	return false, nil
}

// exprCondition returns the branch condition of a decision that does not pop
// it from the stack, and the statements that run before the branch.
func exprCondition(i cfg.Instr) (cfg.Expr, []cfg.Instr, bool) {
	switch x := i.(type) {
	case cfg.ExprDecision:
		return x.Cond, nil, true
	case cfg.DecisionBlock:
		if c, ok := x.Cond.(cfg.ExprDecision); ok {
			return c.Cond, x.Body, true
		}
	}
	return nil, nil, false
}

// decide evaluates cond once per parent, with the variables that parent
// assigns constants to, and reports the branch when all parents agree.
func decide(g *cfg.Graph, v *cfg.Vertex, cond cfg.Expr, body []cfg.Instr) (bool, bool) {
	parents := v.Parents
	if len(parents) == 0 {
		parents = []cfg.VertexID{cfg.NoVertex}
	}

	var taken bool
	for n, p := range parents {
		known := make(map[cfg.VariableID]int64)
		if pv := g.Vertex(p); pv != nil {
			assign(known, pv.Instr)
		}
		for _, b := range body {
			assign(known, b)
		}
		val, ok := cfg.Eval(cond, func(id cfg.VariableID) (int64, bool) {
			c, ok := known[id]
			return c, ok
		})
		if !ok {
			return false, false
		}
		if n > 0 && (val != 0) != taken {
			return false, false
		}
		taken = val != 0
	}
	return taken, true
}

// assign tracks the constant values i leaves in variables.
func assign(known map[cfg.VariableID]int64, i cfg.Instr) {
	switch x := i.(type) {
	case cfg.VarSet:
		val, ok := cfg.Eval(x.Value, func(id cfg.VariableID) (int64, bool) {
			c, ok := known[id]
			return c, ok
		})
		if ok {
			known[x.Var] = val
			return
		}
		delete(known, x.Var)
	case cfg.Block:
		for _, b := range x.Body {
			assign(known, b)
		}
	case cfg.DecisionBlock:
		for _, b := range x.Body {
			assign(known, b)
		}
	default:
		for _, id := range cfg.WrittenVariables(i) {
			delete(known, id)
		}
	}
}
