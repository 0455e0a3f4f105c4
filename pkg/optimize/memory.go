package optimize

import (
	"fmt"

	"github.com/l3aro/go-befunge-cfg/pkg/cfg"
	"github.com/l3aro/go-befunge-cfg/pkg/grid"
)

// promoteConstantMemory turns every statically addressed grid cell into a
// user variable. It does nothing while any access computes its address at
// run time, since such an access may alias any cell.
func promoteConstantMemory(g *cfg.Graph, opts Options) (bool, error) {
	src := g.Source()
	if src == nil || len(g.DynamicAccesses()) > 0 {
		return false, nil
	}
	accesses := g.StaticAccesses()
	if len(accesses) == 0 {
		return false, nil
	}

	code := make(map[grid.Position]bool)
	for _, p := range g.SourcePositions() {
		code[p] = true
	}

	vars := make(map[grid.Position]cfg.VariableID)
	for _, a := range accesses {
		if _, ok := vars[a.Cell]; ok {
			continue
		}
		if !src.Contains(int64(a.Cell.X), int64(a.Cell.Y)) {
			continue
		}
		if code[a.Cell] {
			if !opts.AllowSelfModification {
				return false, &SelfModificationError{Pos: a.Cell}
			}
			continue
		}
		vars[a.Cell] = g.AddUserVariable(a.Cell, src.At(a.Cell)).ID
	}
	if len(vars) == 0 {
		return false, nil
	}

	for _, v := range g.Vertices() {
		in := promoteInstr(v.Instr, vars)
		if cfg.InstrEqual(in, v.Instr) {
			continue
		}
		if err := g.SetInstr(v.ID, in); err != nil {
			return false, fmt.Errorf("promoting accesses of #%d: %w", v.ID, err)
		}
	}
	return true, nil
}

func cellVar(vars map[grid.Position]cfg.VariableID, x, y cfg.Expr) (cfg.VariableID, bool) {
	cx, ok := x.(cfg.Const)
	if !ok {
		return 0, false
	}
	cy, ok := y.(cfg.Const)
	if !ok {
		return 0, false
	}
	id, ok := vars[grid.Position{X: int(cx.Value), Y: int(cy.Value)}]
	return id, ok
}

// promoteInstr rewrites the accesses of i to promoted cells into variable reads and writes.
func promoteInstr(i cfg.Instr, vars map[grid.Position]cfg.VariableID) cfg.Instr {
	switch x := i.(type) {
	case cfg.Block:
		return cfg.Block{Body: promoteBody(x.Body, vars)}
	case cfg.DecisionBlock:
		return cfg.DecisionBlock{Body: promoteBody(x.Body, vars), Cond: promoteInstr(x.Cond, vars)}
	}

	i = cfg.MapInstrExprs(i, func(e cfg.Expr) cfg.Expr {
		if gg, ok := e.(cfg.GridGet); ok {
			if id, ok := cellVar(vars, gg.X, gg.Y); ok {
				return cfg.Var{ID: id}
			}
		}
		return nil
	})
	switch x := i.(type) {
	case cfg.ExprSet:
		if id, ok := cellVar(vars, x.X, x.Y); ok {
			return cfg.VarSet{Var: id, Value: x.Value}
		}
	case cfg.ExprPopSet:
		if id, ok := cellVar(vars, x.X, x.Y); ok {
			return cfg.VarPopSet{Var: id}
		}
	}
	return i
}

func promoteBody(body []cfg.Instr, vars map[grid.Position]cfg.VariableID) []cfg.Instr {
	out := make([]cfg.Instr, len(body))
	for n, b := range body {
		out[n] = promoteInstr(b, vars)
	}
	return out
}
