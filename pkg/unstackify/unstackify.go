// Package unstackify proves which evaluation stack values behave like single
// scoped variables and rewrites their pushes, pops, duplications and swaps
// into variable reads and writes.
//
// The analysis walks the graph once, simulating an abstract stack of value
// tokens. Tokens reaching a join at the same depth are unified; a depth
// mismatch or stack traffic that cannot be attributed poisons every token
// involved. Unified tokens form classes. A class is promoted when doing so
// strictly reduces stack traffic, and promoted classes with disjoint scopes
// share one system variable.
package unstackify

import (
	"fmt"
	"sort"

	"github.com/l3aro/go-befunge-cfg/pkg/cfg"
)

// Class is a set of unified tokens that would live in one variable.
type Class struct {
	ID     int
	Tokens []int
	// Scope holds every vertex where a member token is live, plus its producer.
	Scope map[cfg.VertexID]struct{}
}

// Row is a group of promoted classes with pairwise disjoint scopes. Each row
// becomes one system variable.
type Row struct {
	Classes []*Class
	Scope   map[cfg.VertexID]struct{}
}

// Analysis is the outcome of the stack walk over one graph.
type Analysis struct {
	w        *walker
	classes  map[int]*Class
	promoted map[int]bool
	rows     []Row
	// rowOf maps a promoted class id to its row
	rowOf map[int]int
}

// Run analyses g and rewrites every promoted value. It reports whether any
// value was promoted.
func Run(g *cfg.Graph) (bool, error) {
	return Analyze(g).Apply()
}

// Analyze walks g and decides which classes to promote. g must not change
// between Analyze and Apply.
func Analyze(g *cfg.Graph) *Analysis {
	a := &Analysis{
		w:        walk(g),
		classes:  make(map[int]*Class),
		promoted: make(map[int]bool),
		rowOf:    make(map[int]int),
	}
	a.collectClasses()
	a.selectCandidates()
	a.demoteUnprofitable()
	a.assignRows()
	return a
}

// Rows returns the variable rows chosen for the promoted classes.
func (a *Analysis) Rows() []Row { return a.rows }

// Promoted returns the number of promoted classes.
func (a *Analysis) Promoted() int { return len(a.promoted) }

// Poisoned reports whether token t was excluded by a merge or an opaque vertex.
func (a *Analysis) Poisoned(t int) bool { return a.w.uf.isPoisoned(t) }

// Token returns the token produced by vertex v in output slot, if any.
func (a *Analysis) Token(v cfg.VertexID, slot int) (int, bool) {
	t, ok := a.w.tokens[tokenKey{vertex: v, slot: slot}]
	return t, ok
}

// collectClasses builds classes and their scopes and poisons classes whose
// distinct members are ever live at the same time.
func (a *Analysis) collectClasses() {
	uf := &a.w.uf
	class := func(t int) *Class {
		id := uf.find(t)
		c, ok := a.classes[id]
		if !ok {
			c = &Class{ID: id, Scope: make(map[cfg.VertexID]struct{})}
			a.classes[id] = c
		}
		return c
	}

	for t, v := range a.w.producer {
		c := class(t)
		c.Tokens = append(c.Tokens, t)
		c.Scope[v] = struct{}{}
	}
	for _, id := range a.w.order {
		s := a.w.sites[id]
		for _, t := range s.entry {
			class(t).Scope[id] = struct{}{}
		}
		a.poisonOverlaps(s.entry)
		a.poisonOverlaps(s.exit)
	}
}

// poisonOverlaps poisons a class when two different member tokens sit on the
// same stack, since one variable cannot hold both values.
func (a *Analysis) poisonOverlaps(stack []int) {
	seen := make(map[int]int, len(stack))
	for _, t := range stack {
		c := a.w.uf.find(t)
		if prev, ok := seen[c]; ok && prev != t {
			a.w.uf.poison(t)
		}
		seen[c] = t
	}
}

// selectCandidates marks every clean class for promotion, except values that
// travel from a producer straight into its only consumer, which expression
// folding handles without a variable.
func (a *Analysis) selectCandidates() {
	consumers := make(map[int][]cfg.VertexID)
	for _, id := range a.w.order {
		for _, t := range a.w.sites[id].in {
			c := a.w.uf.find(t)
			consumers[c] = append(consumers[c], id)
		}
	}

	for id, c := range a.classes {
		if a.w.uf.isPoisoned(id) {
			continue
		}
		if len(c.Tokens) == 1 && len(consumers[id]) == 1 {
			p := a.w.g.Vertex(a.w.producer[c.Tokens[0]])
			next := a.w.g.Vertex(consumers[id][0])
			if p.Next() == next.ID && len(next.Parents) == 1 {
				continue
			}
		}
		a.promoted[id] = true
	}
}

// demoteUnprofitable drops classes whose promotion would not reduce stack
// traffic or whose operands cannot be re-materialized, until nothing changes.
func (a *Analysis) demoteUnprofitable() {
	scratch := func(t int) cfg.VariableID { return cfg.VariableID(a.w.uf.find(t)) }
	for len(a.promoted) > 0 {
		score := make(map[int]int)
		failed := make(map[int]bool)
		for _, id := range a.w.order {
			p := a.plan(id, scratch)
			for c, d := range p.score {
				score[c] += d
			}
			for _, t := range p.failed {
				failed[a.w.uf.find(t)] = true
			}
		}

		demoted := false
		for c := range a.promoted {
			if failed[c] || score[c] <= 0 {
				delete(a.promoted, c)
				demoted = true
			}
		}
		if !demoted {
			return
		}
	}
}

// assignRows packs promoted classes first-fit into rows of disjoint scope.
func (a *Analysis) assignRows() {
	ids := make([]int, 0, len(a.promoted))
	for c := range a.promoted {
		ids = append(ids, c)
	}
	sort.Ints(ids)

	for _, id := range ids {
		c := a.classes[id]
		placed := false
		for r := range a.rows {
			if disjoint(a.rows[r].Scope, c.Scope) {
				a.rows[r].Classes = append(a.rows[r].Classes, c)
				for v := range c.Scope {
					a.rows[r].Scope[v] = struct{}{}
				}
				a.rowOf[id] = r
				placed = true
				break
			}
		}
		if !placed {
			scope := make(map[cfg.VertexID]struct{}, len(c.Scope))
			for v := range c.Scope {
				scope[v] = struct{}{}
			}
			a.rows = append(a.rows, Row{Classes: []*Class{c}, Scope: scope})
			a.rowOf[id] = len(a.rows) - 1
		}
	}
}

func disjoint(a, b map[cfg.VertexID]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for v := range a {
		if _, ok := b[v]; ok {
			return false
		}
	}
	return true
}

// Apply introduces one system variable per row and rewrites every vertex
// touching a promoted value. It reports whether anything was promoted.
func (a *Analysis) Apply() (bool, error) {
	if len(a.promoted) == 0 {
		return false, nil
	}
	g := a.w.g

	vars := make([]cfg.VariableID, len(a.rows))
	for r, row := range a.rows {
		scope := make(map[cfg.VertexID]struct{}, len(row.Scope))
		for v := range row.Scope {
			scope[v] = struct{}{}
		}
		vars[r] = g.AddSystemVariable(scope).ID
	}
	varOf := func(t int) cfg.VariableID {
		return vars[a.rowOf[a.w.uf.find(t)]]
	}

	for _, id := range a.w.order {
		p := a.plan(id, varOf)
		if !p.changed {
			continue
		}
		if _, err := g.Splice([]cfg.VertexID{id}, p.instrs); err != nil {
			return false, fmt.Errorf("rewriting #%d: %w", id, err)
		}
	}
	return true, nil
}
