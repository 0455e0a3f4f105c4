package optimize

import (
	"fmt"

	"github.com/l3aro/go-befunge-cfg/pkg/cfg"
	"github.com/l3aro/go-befunge-cfg/pkg/unstackify"
)

func unstackifyPass(g *cfg.Graph, _ Options) (bool, error) {
	return unstackify.Run(g)
}

// deadVariables removes one system variable that is never read. Its stores
// are dropped; stores that pop keep popping.
func deadVariables(g *cfg.Graph, _ Options) (bool, error) {
	read := make(map[cfg.VariableID]bool)
	for _, v := range g.Vertices() {
		for _, id := range cfg.ReadVariables(v.Instr) {
			read[id] = true
		}
	}

	for _, variable := range g.Variables() {
		if variable.User || read[variable.ID] {
			continue
		}
		for _, v := range g.Vertices() {
			repl, ok := dropWrites(v.Instr, variable.ID)
			if !ok {
				continue
			}
			if _, err := g.Splice([]cfg.VertexID{v.ID}, repl); err != nil {
				return false, fmt.Errorf("dropping stores to %s: %w", variable.Name(), err)
			}
		}
		g.RemoveVariable(variable.ID)
		return true, nil
	}
	return false, nil
}

// dropWrites returns the replacement of i without its stores to id.
func dropWrites(i cfg.Instr, id cfg.VariableID) ([]cfg.Instr, bool) {
	switch x := i.(type) {
	case cfg.VarSet:
		if x.Var == id {
			return nil, true
		}
	case cfg.VarPopSet:
		if x.Var == id {
			return []cfg.Instr{cfg.Pop{}}, true
		}
	case cfg.VarInput:
		if x.Var == id {
			return []cfg.Instr{cfg.Input{Mode: x.Mode}, cfg.Pop{}}, true
		}
	case cfg.Block:
		if body, ok := filterBody(x.Body, func(b cfg.Instr) ([]cfg.Instr, bool) { return dropWrites(b, id) }); ok {
			if len(body) == 0 {
				return nil, true
			}
			return []cfg.Instr{cfg.Block{Body: body}}, true
		}
	case cfg.DecisionBlock:
		if body, ok := filterBody(x.Body, func(b cfg.Instr) ([]cfg.Instr, bool) { return dropWrites(b, id) }); ok {
			return []cfg.Instr{cfg.DecisionBlock{Body: body, Cond: x.Cond}}, true
		}
	}
	return nil, false
}

// filterBody applies fn to every statement of a block body and reports
// whether any statement was replaced.
func filterBody(body []cfg.Instr, fn func(cfg.Instr) ([]cfg.Instr, bool)) ([]cfg.Instr, bool) {
	changed := false
	out := make([]cfg.Instr, 0, len(body))
	for _, b := range body {
		repl, ok := fn(b)
		if !ok {
			out = append(out, b)
			continue
		}
		changed = true
		out = append(out, repl...)
	}
	return out, changed
}

func isIdentity(i cfg.Instr) bool {
	x, ok := i.(cfg.VarSet)
	if !ok {
		return false
	}
	r, ok := x.Value.(cfg.Var)
	return ok && r.ID == x.Var
}

// identityAssignment removes one store of a variable into itself.
func identityAssignment(g *cfg.Graph, _ Options) (bool, error) {
	drop := func(i cfg.Instr) ([]cfg.Instr, bool) {
		if isIdentity(i) {
			return nil, true
		}
		return nil, false
	}

	for _, id := range g.DFS() {
		v := g.Vertex(id)
		var repl []cfg.Instr
		switch x := v.Instr.(type) {
		case cfg.VarSet:
			if !isIdentity(x) {
				continue
			}
		case cfg.Block:
			body, ok := filterBody(x.Body, drop)
			if !ok {
				continue
			}
			if len(body) > 0 {
				repl = []cfg.Instr{cfg.Block{Body: body}}
			}
		case cfg.DecisionBlock:
			body, ok := filterBody(x.Body, drop)
			if !ok {
				continue
			}
			repl = []cfg.Instr{cfg.DecisionBlock{Body: body, Cond: x.Cond}}
		default:
			continue
		}
		if _, err := g.Splice([]cfg.VertexID{id}, repl); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}
