package optimize

import (
	"fmt"

	"github.com/l3aro/go-befunge-cfg/pkg/cfg"
	"github.com/l3aro/go-befunge-cfg/pkg/rewrite"
)

func blockable(i cfg.Instr) bool {
	switch i.Kind() {
	case cfg.KindRandom, cfg.KindExit, cfg.KindBlock, cfg.KindDecisionBlock:
		return false
	}
	return !cfg.IsDecision(i)
}

func concatBodies(a, b []cfg.Instr) []cfg.Instr {
	out := make([]cfg.Instr, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

var formBlocks = &rewrite.Rule{
	Name:  "form-blocks",
	Slots: []rewrite.Predicate{rewrite.Where(blockable)},
	Generate: func(c []*cfg.Vertex) []cfg.Instr {
		return []cfg.Instr{cfg.Block{Body: []cfg.Instr{c[0].Instr}}}
	},
}

var mergeBlocks = &rewrite.Rule{
	Name:  "merge-blocks",
	Slots: []rewrite.Predicate{rewrite.Is[cfg.Block](), rewrite.Is[cfg.Block]()},
	Generate: func(c []*cfg.Vertex) []cfg.Instr {
		a, b := c[0].Instr.(cfg.Block), c[1].Instr.(cfg.Block)
		return []cfg.Instr{cfg.Block{Body: concatBodies(a.Body, b.Body)}}
	},
	NoExtract: true,
}

var foldDecisionBlock = &rewrite.Rule{
	Name: "fold-decision-block",
	Slots: []rewrite.Predicate{
		rewrite.Is[cfg.Block](),
		rewrite.Where(func(i cfg.Instr) bool {
			return i.Kind() == cfg.KindDecision || i.Kind() == cfg.KindExprDecision
		}),
	},
	Generate: func(c []*cfg.Vertex) []cfg.Instr {
		body := c[0].Instr.(cfg.Block).Body
		return []cfg.Instr{cfg.DecisionBlock{Body: concatBodies(body, nil), Cond: c[1].Instr}}
	},
	NoExtract: true,
}

var extendDecisionBlock = &rewrite.Rule{
	Name:  "extend-decision-block",
	Slots: []rewrite.Predicate{rewrite.Is[cfg.Block](), rewrite.Is[cfg.DecisionBlock]()},
	Generate: func(c []*cfg.Vertex) []cfg.Instr {
		a, d := c[0].Instr.(cfg.Block), c[1].Instr.(cfg.DecisionBlock)
		return []cfg.Instr{cfg.DecisionBlock{Body: concatBodies(a.Body, d.Body), Cond: d.Cond}}
	},
	NoExtract: true,
}

// dedupVertices merges one pair of vertices that have the same payload and
// the same successors. The later vertex is folded into the earlier one.
func dedupVertices(g *cfg.Graph, _ Options) (bool, error) {
	seen := make(map[string][]*cfg.Vertex)
	for _, v := range g.Vertices() {
		// the root must keep zero parents, so it never takes part
		if v.ID == g.RootID() {
			continue
		}
		key := fmt.Sprintf("%s|%v|%d|%d", cfg.Format(v.Instr), v.Children, v.EdgeTrue, v.EdgeFalse)
		for _, k := range seen[key] {
			if !cfg.InstrEqual(k.Instr, v.Instr) {
				continue
			}
			return true, g.MergeInto(v.ID, k.ID)
		}
		seen[key] = append(seen[key], v)
	}
	return false, nil
}
