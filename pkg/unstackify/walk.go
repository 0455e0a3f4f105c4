package unstackify

import (
	"container/list"

	"github.com/l3aro/go-befunge-cfg/pkg/cfg"
)

// tokenKey identifies the value a vertex produces in one output slot.
type tokenKey struct {
	vertex cfg.VertexID
	slot   int
}

// site records what the walk observed at one vertex.
type site struct {
	// entry is the abstract stack on first arrival, bottom first.
	entry []int
	// exit is the abstract stack handed to the children.
	exit []int
	// in holds the consumed tokens, bottom first.
	in []int
	// out holds the produced tokens, bottom first.
	out []int
	// opaque is set when the stack traffic could not be attributed to tokens.
	opaque bool
}

type walker struct {
	g      *cfg.Graph
	uf     unionFind
	tokens map[tokenKey]int
	// producer maps a token to the vertex that pushes it
	producer []cfg.VertexID
	sites    map[cfg.VertexID]*site
	// order lists vertices in the order they were first reached
	order []cfg.VertexID
}

type arrival struct {
	vertex cfg.VertexID
	stack  []int
}

// walk simulates the abstract stack along every path from the root. Each
// vertex is transferred once, on first arrival; later arrivals only merge
// their stack into the recorded one.
func walk(g *cfg.Graph) *walker {
	w := &walker{
		g:      g,
		tokens: make(map[tokenKey]int),
		sites:  make(map[cfg.VertexID]*site),
	}

	worklist := list.New()
	worklist.PushBack(arrival{vertex: g.RootID()})
	for worklist.Len() > 0 {
		a := worklist.Remove(worklist.Front()).(arrival)

		if s, ok := w.sites[a.vertex]; ok {
			w.join(s.entry, a.stack)
			continue
		}
		s := w.transfer(g.Vertex(a.vertex), a.stack)
		w.sites[a.vertex] = s
		w.order = append(w.order, a.vertex)

		for _, c := range g.Vertex(a.vertex).Children {
			worklist.PushBack(arrival{vertex: c, stack: s.exit})
		}
	}
	return w
}

// join merges a second arrival into a recorded stack. Equal depths unify the
// tokens slot by slot; different depths poison everything on both stacks.
func (w *walker) join(recorded, arriving []int) {
	if len(recorded) == len(arriving) {
		for i := range recorded {
			w.uf.union(recorded[i], arriving[i])
		}
		return
	}
	for _, t := range recorded {
		w.uf.poison(t)
	}
	for _, t := range arriving {
		w.uf.poison(t)
	}
}

func (w *walker) token(v cfg.VertexID, slot int) int {
	key := tokenKey{vertex: v, slot: slot}
	if t, ok := w.tokens[key]; ok {
		return t
	}
	t := w.uf.add()
	w.tokens[key] = t
	w.producer = append(w.producer, v)
	return t
}

// transfer applies the stack effect of v to the arriving stack.
func (w *walker) transfer(v *cfg.Vertex, stack []int) *site {
	s := &site{entry: stack}
	pops, pushes, modeled := cfg.StackSignature(v.Instr)

	if !modeled || len(stack) < pops {
		s.opaque = true
		consumed := len(stack) - pops
		if consumed < 0 {
			consumed = 0
		}
		s.in = append([]int(nil), stack[consumed:]...)
		for _, t := range s.in {
			w.uf.poison(t)
		}
		for slot := 0; slot < pushes; slot++ {
			t := w.token(v.ID, slot)
			w.uf.poison(t)
			s.out = append(s.out, t)
		}
		s.exit = concat(stack[:consumed], s.out)
		return s
	}

	base := stack[:len(stack)-pops]
	s.in = append([]int(nil), stack[len(stack)-pops:]...)
	switch v.Instr.(type) {
	case cfg.Dup:
		s.exit = concat(base, []int{s.in[0], s.in[0]})
	case cfg.Swap:
		s.exit = concat(base, []int{s.in[1], s.in[0]})
	default:
		for slot := 0; slot < pushes; slot++ {
			s.out = append(s.out, w.token(v.ID, slot))
		}
		s.exit = concat(base, s.out)
	}
	return s
}

func concat(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
