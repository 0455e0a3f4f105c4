// Package rewrite implements chain rewriting over a cfg.Graph. A rule names
// a sequence of slot predicates; the engine finds the first chain in
// depth-first order whose vertices satisfy the slots, gives the chain a
// private copy when other paths enter it midway, moves interleaved filler
// vertices out of the way when their side effects commute, and splices the
// generated replacement in place of the slot vertices.
package rewrite

import (
	"github.com/l3aro/go-befunge-cfg/pkg/cfg"
)

// Predicate tests one vertex of a candidate chain.
type Predicate func(v *cfg.Vertex) bool

// Is matches vertices whose payload has type T and satisfies every guard.
func Is[T cfg.Instr](guards ...func(T) bool) Predicate {
	return func(v *cfg.Vertex) bool {
		in, ok := v.Instr.(T)
		if !ok {
			return false
		}
		for _, guard := range guards {
			if !guard(in) {
				return false
			}
		}
		return true
	}
}

// Any matches every vertex.
func Any() Predicate {
	return func(*cfg.Vertex) bool { return true }
}

// Where matches vertices whose payload satisfies fn.
func Where(fn func(cfg.Instr) bool) Predicate {
	return func(v *cfg.Vertex) bool { return fn(v.Instr) }
}

// Rule is one chain rewrite.
type Rule struct {
	Name  string
	Slots []Predicate
	// Conditions are checked against the matched slot vertices after every
	// slot predicate holds.
	Conditions []func(chain []*cfg.Vertex) bool
	// Generate returns the payloads replacing the slot vertices, in order.
	// An empty result removes the chain.
	Generate func(chain []*cfg.Vertex) []cfg.Instr
	// NoExtract rejects matches that run through a vertex entered by another
	// path, instead of duplicating the shared part.
	NoExtract bool
	// Filler is how many non-matching vertices may sit between slots in
	// total. They are moved before or after the slots when their effects
	// commute with the slot vertices they cross.
	Filler int
	// FillerOK restricts which vertices may be skipped as fillers.
	FillerOK Predicate
}

// Match is a chain found by a rule.
type Match struct {
	// Chain holds every vertex from the first slot to the last, fillers included.
	Chain []cfg.VertexID
	// Slots indexes the slot vertices within Chain.
	Slots []int
}

// Fillers returns the number of skipped vertices.
func (m *Match) Fillers() int {
	return len(m.Chain) - len(m.Slots)
}

func (m *Match) vertices(g *cfg.Graph) []*cfg.Vertex {
	out := make([]*cfg.Vertex, len(m.Slots))
	for i, s := range m.Slots {
		out[i] = g.Vertex(m.Chain[s])
	}
	return out
}
