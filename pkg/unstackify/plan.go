package unstackify

import (
	"github.com/l3aro/go-befunge-cfg/pkg/cfg"
)

// vertexPlan is the rewrite of one vertex under the current promotion set.
type vertexPlan struct {
	instrs  []cfg.Instr
	changed bool
	// score is the stack traffic saved per class: +1 for every access that
	// disappears, -1 for every access that needs an extra instruction.
	score map[int]int
	// failed lists promoted tokens whose operand position cannot be rebuilt.
	failed []int
}

func (p *vertexPlan) replace(instrs ...cfg.Instr) {
	p.instrs = instrs
	p.changed = true
}

// plan computes the replacement of vertex id. varOf names the variable of a
// promoted token.
func (a *Analysis) plan(id cfg.VertexID, varOf func(t int) cfg.VariableID) vertexPlan {
	p := vertexPlan{score: make(map[int]int)}
	s := a.w.sites[id]
	if s == nil || s.opaque {
		return p
	}
	on := func(t int) bool { return a.promoted[a.w.uf.find(t)] }
	credit := func(t, d int) { p.score[a.w.uf.find(t)] += d }
	read := func(t int) cfg.Expr { return cfg.Var{ID: varOf(t)} }

	switch x := a.w.g.Vertex(id).Instr.(type) {
	case cfg.Push:
		if on(s.out[0]) {
			credit(s.out[0], 1)
			p.replace(cfg.VarSet{Var: varOf(s.out[0]), Value: x.Value})
		}
	case cfg.Input:
		if on(s.out[0]) {
			credit(s.out[0], 1)
			p.replace(cfg.VarInput{Mode: x.Mode, Var: varOf(s.out[0])})
		}
	case cfg.Pop, cfg.Dup:
		if on(s.in[0]) {
			credit(s.in[0], 1)
			p.replace()
		}
	case cfg.Swap:
		// with either value off the stack the swap has nothing to exchange
		if on(s.in[0]) || on(s.in[1]) {
			for _, t := range s.in {
				if on(t) {
					credit(t, 1)
				}
			}
			p.replace()
		}
	case cfg.Decision:
		if on(s.in[0]) {
			credit(s.in[0], 1)
			p.replace(cfg.ExprDecision{Cond: read(s.in[0])})
		}
	case cfg.Output:
		if on(s.in[0]) {
			credit(s.in[0], 1)
			p.replace(cfg.ExprOutput{Mode: x.Mode, Value: read(s.in[0])})
		}
	case cfg.ExprPopSet:
		if on(s.in[0]) {
			credit(s.in[0], 1)
			p.replace(cfg.ExprSet{X: x.X, Y: x.Y, Value: read(s.in[0])})
		}
	case cfg.VarPopSet:
		if on(s.in[0]) {
			credit(s.in[0], 1)
			p.replace(cfg.VarSet{Var: x.Var, Value: read(s.in[0])})
		}
	case cfg.BinaryMath, cfg.Not, cfg.Get, cfg.Set:
		a.planOperator(&p, x, s, on, credit, read, varOf)
	}
	return p
}

// planOperator rewrites a vertex that pops operands and pushes at most one
// result. With every operand promoted it becomes an expression; otherwise
// the promoted operands are pushed back into place around the original
// operator.
func (a *Analysis) planOperator(p *vertexPlan, op cfg.Instr, s *site,
	on func(int) bool, credit func(int, int), read func(int) cfg.Expr, varOf func(int) cfg.VariableID) {

	all, some := true, false
	for _, t := range s.in {
		if on(t) {
			some = true
		} else {
			all = false
		}
	}
	outOn := len(s.out) == 1 && on(s.out[0])
	if !some && !outOn {
		return
	}

	if all {
		for _, t := range s.in {
			credit(t, 1)
		}
		var e cfg.Expr
		switch x := op.(type) {
		case cfg.BinaryMath:
			e = cfg.NewBinOp(x.Op, read(s.in[0]), read(s.in[1]))
		case cfg.Not:
			e = cfg.NewNot(read(s.in[0]))
		case cfg.Get:
			e = cfg.GridGet{X: read(s.in[0]), Y: read(s.in[1])}
		case cfg.Set:
			p.replace(cfg.ExprSet{X: read(s.in[1]), Y: read(s.in[2]), Value: read(s.in[0])})
			return
		}
		if outOn {
			credit(s.out[0], 1)
			p.replace(cfg.VarSet{Var: varOf(s.out[0]), Value: e})
		} else {
			p.replace(cfg.Push{Value: e})
		}
		return
	}

	if _, ok := op.(cfg.Set); ok && on(s.in[1]) && on(s.in[2]) {
		credit(s.in[1], 1)
		credit(s.in[2], 1)
		p.replace(cfg.ExprPopSet{X: read(s.in[1]), Y: read(s.in[2])})
		return
	}

	var seq []cfg.Instr
	for i, t := range s.in {
		if !on(t) {
			continue
		}
		credit(t, -1)
		above := 0
		for _, u := range s.in[i+1:] {
			if !on(u) {
				above++
			}
		}
		switch above {
		case 0:
			seq = append(seq, cfg.Push{Value: read(t)})
		case 1:
			seq = append(seq, cfg.Push{Value: read(t)}, cfg.Swap{})
		default:
			p.failed = append(p.failed, t)
		}
	}
	if len(p.failed) > 0 {
		return
	}
	seq = append(seq, op)
	if outOn {
		credit(s.out[0], -1)
		seq = append(seq, cfg.VarPopSet{Var: varOf(s.out[0])})
	}
	p.replace(seq...)
}
