package rewrite

import (
	"fmt"

	"github.com/l3aro/go-befunge-cfg/pkg/cfg"
)

// MatchAt tries to match the rule on the chain starting at start.
func (r *Rule) MatchAt(g *cfg.Graph, start cfg.VertexID) (*Match, bool) {
	v := g.Vertex(start)
	if v == nil || len(r.Slots) == 0 || !r.Slots[0](v) {
		return nil, false
	}

	m := &Match{Chain: []cfg.VertexID{start}, Slots: []int{0}}
	inChain := map[cfg.VertexID]bool{start: true}
	skipped := 0
	for i := 1; i < len(r.Slots); {
		next := g.Vertex(v.Next())
		if next == nil || inChain[next.ID] {
			return nil, false
		}
		inChain[next.ID] = true
		m.Chain = append(m.Chain, next.ID)
		v = next

		if r.Slots[i](next) {
			m.Slots = append(m.Slots, len(m.Chain)-1)
			i++
			continue
		}
		if skipped >= r.Filler || !r.fillerOK(next) {
			return nil, false
		}
		skipped++
	}

	chain := m.vertices(g)
	for _, cond := range r.Conditions {
		if !cond(chain) {
			return nil, false
		}
	}
	return m, true
}

func (r *Rule) fillerOK(v *cfg.Vertex) bool {
	if len(v.Children) != 1 || cfg.Effects(v.Instr)&cfg.Control != 0 {
		return false
	}
	return r.FillerOK == nil || r.FillerOK(v)
}

// Find returns the first match in depth-first preorder from the root.
func (r *Rule) Find(g *cfg.Graph) (*Match, bool) {
	for _, id := range g.DFS() {
		if m, ok := r.MatchAt(g, id); ok && r.applicable(g, m) {
			return m, true
		}
	}
	return nil, false
}

// Apply rewrites the first applicable match. It reports whether the graph
// changed.
func (r *Rule) Apply(g *cfg.Graph) (bool, error) {
	m, ok := r.Find(g)
	if !ok {
		return false, nil
	}
	if err := r.Rewrite(g, m); err != nil {
		return false, fmt.Errorf("rule %s: %w", r.Name, err)
	}
	return true, nil
}

// applicable reports whether m can be rewritten and would change the graph.
func (r *Rule) applicable(g *cfg.Graph, m *Match) bool {
	if r.NoExtract && sharedFrom(g, m.Chain) >= 0 {
		return false
	}
	if m.Fillers() > 0 {
		if _, ok := planReorder(g, m); !ok {
			return false
		}
	}

	chain := m.vertices(g)
	repl := r.Generate(chain)
	if sameInstrs(chain, repl) {
		return false
	}
	if len(repl) == 0 && len(chain) == 1 && chain[0].Instr.Kind() == cfg.KindNop &&
		m.Fillers() == 0 && g.NeedsPlaceholder(m.Chain) {
		return false
	}
	return true
}

// Rewrite applies the rule to a match returned by MatchAt or Find.
func (r *Rule) Rewrite(g *cfg.Graph, m *Match) error {
	repl := r.Generate(m.vertices(g))

	chain := m.Chain
	if k := sharedFrom(g, chain); k >= 0 {
		if r.NoExtract {
			return fmt.Errorf("%w: chain is shared at #%d", cfg.ErrInvariant, chain[k])
		}
		var err error
		if chain, err = g.CloneSuffix(chain, k); err != nil {
			return err
		}
	}

	slots := make([]cfg.VertexID, len(m.Slots))
	for i, s := range m.Slots {
		slots[i] = chain[s]
	}
	if m.Fillers() > 0 {
		plan, ok := planReorder(g, m)
		if !ok {
			return fmt.Errorf("%w: fillers cannot be moved", cfg.ErrInvariant)
		}
		if err := g.Permute(chain, plan.order); err != nil {
			return err
		}
		slots = chain[plan.slotStart : plan.slotStart+len(m.Slots)]
	}

	_, err := g.Splice(slots, repl)
	return err
}

// sharedFrom returns the first index past the chain head whose vertex has more
// than one parent, or -1.
func sharedFrom(g *cfg.Graph, chain []cfg.VertexID) int {
	for i := 1; i < len(chain); i++ {
		if len(g.Vertex(chain[i]).Parents) > 1 {
			return i
		}
	}
	return -1
}

func sameInstrs(chain []*cfg.Vertex, repl []cfg.Instr) bool {
	if len(chain) != len(repl) {
		return false
	}
	for i := range chain {
		if !cfg.InstrEqual(chain[i].Instr, repl[i]) {
			return false
		}
	}
	return true
}

type reorder struct {
	// order is the payload permutation handed to Graph.Permute.
	order []int
	// slotStart is where the contiguous slot run begins afterwards.
	slotStart int
}

// planReorder decides how to make the slot vertices of m contiguous. Fillers
// move in front of the slots when each commutes with every slot vertex it
// crosses; otherwise they move behind them under the same condition.
func planReorder(g *cfg.Graph, m *Match) (reorder, bool) {
	isSlot := make([]bool, len(m.Chain))
	for _, s := range m.Slots {
		isSlot[s] = true
	}
	effects := make([]cfg.Effect, len(m.Chain))
	for i, id := range m.Chain {
		effects[i] = cfg.Effects(g.Vertex(id).Instr)
	}

	var fillers, slots []int
	for i := range m.Chain {
		if isSlot[i] {
			slots = append(slots, i)
		} else {
			fillers = append(fillers, i)
		}
	}

	crossesCleanly := func(filler int, forward bool) bool {
		for _, s := range slots {
			if (forward && s < filler) || (!forward && s > filler) {
				if !cfg.CanSwap(effects[filler], effects[s]) {
					return false
				}
			}
		}
		return true
	}

	before := true
	for _, f := range fillers {
		if !crossesCleanly(f, true) {
			before = false
			break
		}
	}
	if before {
		return reorder{order: append(fillers, slots...), slotStart: len(fillers)}, true
	}

	last := m.Chain[len(m.Chain)-1]
	if effects[len(m.Chain)-1]&cfg.Control != 0 || len(g.Vertex(last).Children) != 1 {
		return reorder{}, false
	}
	for _, f := range fillers {
		if !crossesCleanly(f, false) {
			return reorder{}, false
		}
	}
	return reorder{order: append(slots, fillers...), slotStart: 0}, true
}
