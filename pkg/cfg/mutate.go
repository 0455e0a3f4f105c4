package cfg

import (
	"github.com/l3aro/go-befunge-cfg/pkg/grid"
)

// All adjacency edits go through the functions in this file. Each public
// mutation leaves parents and children symmetric, drops vertices that became
// unreachable and, when verification is enabled, checks every invariant
// before returning.

// link appends c to p's children and records p as a parent of c.
func (g *Graph) link(p, c *Vertex) {
	p.Children = append(p.Children, c.ID)
	c.Parents = addID(c.Parents, p.ID)
}

// replaceChild points every reference p holds to old at repl, including
// decision edges. Parent lists are left to the caller.
func replaceChild(p *Vertex, old, repl VertexID) {
	for i, c := range p.Children {
		if c == old {
			p.Children[i] = repl
		}
	}
	if p.EdgeTrue == old {
		p.EdgeTrue = repl
	}
	if p.EdgeFalse == old {
		p.EdgeFalse = repl
	}
}

// finish prunes unreachable vertices and verifies the graph.
func (g *Graph) finish() error {
	g.RemoveUnreachable()
	return g.check()
}

// RemoveUnreachable deletes every vertex not reachable from the root and
// returns how many were removed. Deleted vertices are dropped from the parent
// lists of survivors and from variable scopes.
func (g *Graph) RemoveUnreachable() int {
	if g.Root() == nil {
		return 0
	}
	reached := make([]bool, len(g.vertices))
	for _, id := range g.DFS() {
		reached[id] = true
	}

	var removed []VertexID
	for id, v := range g.vertices {
		if v != nil && !reached[id] {
			removed = append(removed, VertexID(id))
		}
	}
	if len(removed) == 0 {
		return 0
	}
	for _, id := range removed {
		for _, c := range g.vertices[id].Children {
			if cv := g.Vertex(c); cv != nil && reached[c] {
				cv.Parents = removeID(cv.Parents, id)
			}
		}
	}
	for _, id := range removed {
		g.deleteVertex(id)
		for _, v := range g.vars {
			delete(v.Scope, id)
		}
	}
	return len(removed)
}

// RebuildParents recomputes every parent list from the child lists.
func (g *Graph) RebuildParents() {
	for _, v := range g.vertices {
		if v != nil {
			v.Parents = v.Parents[:0]
		}
	}
	for _, v := range g.vertices {
		if v == nil {
			continue
		}
		for _, c := range v.Children {
			if cv := g.Vertex(c); cv != nil {
				cv.Parents = addID(cv.Parents, v.ID)
			}
		}
	}
}

// UnionPositions returns the source positions of the given vertices without
// duplicates, in first-seen order.
func (g *Graph) UnionPositions(ids []VertexID) []grid.Position {
	seen := make(map[grid.Position]bool)
	var out []grid.Position
	for _, id := range ids {
		for _, p := range g.vertices[id].Positions {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// checkChain validates that ids form a straight chain: every vertex but the
// last has exactly one child, the next one, and every vertex but the first has
// exactly one parent, the previous one.
func (g *Graph) checkChain(ids []VertexID) error {
	if len(ids) == 0 {
		return invariantf("empty chain")
	}
	for i, id := range ids {
		v := g.Vertex(id)
		if v == nil {
			return invariantf("chain vertex #%d does not exist", id)
		}
		if i < len(ids)-1 {
			if len(v.Children) != 1 || v.Children[0] != ids[i+1] {
				return invariantf("chain vertex #%d does not lead to #%d", id, ids[i+1])
			}
		}
		if i > 0 && (len(v.Parents) != 1 || v.Parents[0] != ids[i-1]) {
			return invariantf("chain vertex #%d is shared by another path", id)
		}
	}
	return nil
}

// NeedsPlaceholder reports whether removing chain without a replacement would
// require a synthesized no-op to keep the graph well formed.
func (g *Graph) NeedsPlaceholder(chain []VertexID) bool {
	first := g.vertices[chain[0]]
	last := g.vertices[chain[len(chain)-1]]
	if len(last.Children) != 1 {
		return true
	}
	succ := g.vertices[last.Children[0]]
	if succ.ID == first.ID {
		return true
	}
	if first.ID == g.root && len(succ.Parents) > 1 {
		return true
	}
	return false
}

// Splice removes a straight chain and puts repl in its place. Predecessors of
// the chain are redirected to the first replacement vertex and successors of
// the chain's last vertex become successors of the last replacement vertex.
// An empty repl bypasses the chain, or leaves a position-carrying no-op
// behind when bypassing is not possible. It returns the ids of the inserted
// vertices.
func (g *Graph) Splice(chain []VertexID, repl []Instr) ([]VertexID, error) {
	if err := g.checkChain(chain); err != nil {
		return nil, err
	}
	if len(repl) == 0 {
		if g.NeedsPlaceholder(chain) {
			last := g.vertices[chain[len(chain)-1]]
			if len(last.Children) > 1 {
				return nil, invariantf("cannot remove branching vertex #%d without a replacement", last.ID)
			}
			repl = []Instr{Nop{}}
		} else {
			if err := g.bypass(chain); err != nil {
				return nil, err
			}
			return nil, g.finish()
		}
	}
	ids, err := g.insert(chain, repl)
	if err != nil {
		return nil, err
	}
	return ids, g.finish()
}

// bypass removes chain and connects its predecessors directly to its single
// successor.
func (g *Graph) bypass(chain []VertexID) error {
	first := g.vertices[chain[0]]
	last := g.vertices[chain[len(chain)-1]]
	succ := g.vertices[last.Children[0]]

	succ.Parents = removeID(succ.Parents, last.ID)
	for _, p := range first.Parents {
		pv := g.vertices[p]
		replaceChild(pv, first.ID, succ.ID)
		succ.Parents = addID(succ.Parents, p)
	}
	if first.ID == g.root {
		g.root = succ.ID
	}
	succ.Positions = appendPositions(succ.Positions, g.UnionPositions(chain))
	g.rescope(chain, nil)
	for _, id := range chain {
		g.deleteVertex(id)
	}
	return nil
}

// insert replaces chain with freshly allocated vertices holding repl.
func (g *Graph) insert(chain []VertexID, repl []Instr) ([]VertexID, error) {
	first := g.vertices[chain[0]]
	last := g.vertices[chain[len(chain)-1]]
	tail := repl[len(repl)-1]

	for _, in := range repl[:len(repl)-1] {
		if IsDecision(in) || in.Kind() == KindRandom || in.Kind() == KindExit {
			return nil, invariantf("replacement %s can only end a chain", in.Kind())
		}
	}
	switch {
	case last.IsDecision() != IsDecision(tail):
		return nil, invariantf("replacement %s does not fit the branching of #%d", tail.Kind(), last.ID)
	case len(last.Children) == 4 && tail.Kind() != KindRandom:
		return nil, invariantf("replacement %s cannot take over random #%d", tail.Kind(), last.ID)
	case len(last.Children) <= 1 && tail.Kind() == KindRandom:
		return nil, invariantf("replacement random needs four successors")
	case len(last.Children) != 0 && tail.Kind() == KindExit:
		return nil, invariantf("replacement exit cannot keep the successors of #%d", last.ID)
	}

	positions := g.UnionPositions(chain)
	out := make([]*Vertex, len(repl))
	ids := make([]VertexID, len(repl))
	for i, in := range repl {
		out[i] = g.newVertex(in, positions, first.Direction)
		ids[i] = out[i].ID
		if i > 0 {
			g.link(out[i-1], out[i])
		}
	}
	r0, rk := out[0], out[len(out)-1]

	mapID := func(id VertexID) VertexID {
		if id == first.ID {
			return r0.ID
		}
		return id
	}
	for _, c := range last.Children {
		rk.Children = append(rk.Children, mapID(c))
	}
	if last.IsDecision() {
		rk.EdgeTrue = mapID(last.EdgeTrue)
		rk.EdgeFalse = mapID(last.EdgeFalse)
	}
	for _, c := range uniqueIDs(last.Children) {
		if c == first.ID {
			r0.Parents = addID(r0.Parents, rk.ID)
			continue
		}
		cv := g.vertices[c]
		cv.Parents = addID(removeID(cv.Parents, last.ID), rk.ID)
	}

	for _, p := range first.Parents {
		if p == last.ID {
			continue
		}
		replaceChild(g.vertices[p], first.ID, r0.ID)
		r0.Parents = addID(r0.Parents, p)
	}
	if first.ID == g.root {
		g.root = r0.ID
	}
	g.rescope(chain, ids)
	for _, id := range chain {
		g.deleteVertex(id)
	}
	return ids, nil
}

// rescope replaces the removed vertices by their replacements in every
// system variable scope that covered any of them.
func (g *Graph) rescope(removed, added []VertexID) {
	for _, v := range g.vars {
		covered := false
		for _, id := range removed {
			if _, ok := v.Scope[id]; ok {
				covered = true
				delete(v.Scope, id)
			}
		}
		if covered {
			for _, id := range added {
				v.Scope[id] = struct{}{}
			}
		}
	}
}

// CloneSuffix gives the chain a private copy of its vertices from index from
// onward, so the path entering chain[0] no longer shares them with other
// predecessors. The original vertices stay in place for the other paths. It
// returns the chain with the suffix replaced by the clones.
func (g *Graph) CloneSuffix(chain []VertexID, from int) ([]VertexID, error) {
	if from < 1 || from >= len(chain) {
		return nil, invariantf("cannot extract chain from index %d", from)
	}
	for i := 0; i < len(chain)-1; i++ {
		v := g.Vertex(chain[i])
		if v == nil || len(v.Children) != 1 || v.Children[0] != chain[i+1] {
			return nil, invariantf("chain vertex #%d does not lead to #%d", chain[i], chain[i+1])
		}
	}

	out := append([]VertexID(nil), chain[:from]...)
	var prev *Vertex
	for i := from; i < len(chain); i++ {
		orig := g.vertices[chain[i]]
		c := g.newVertex(orig.Instr, orig.Positions, orig.Direction)
		for _, v := range g.vars {
			if _, ok := v.Scope[orig.ID]; ok {
				v.Scope[c.ID] = struct{}{}
			}
		}
		if prev != nil {
			g.link(prev, c)
		}
		out = append(out, c.ID)
		prev = c
	}

	origLast := g.vertices[chain[len(chain)-1]]
	cloneLast := prev
	cloneLast.Children = append([]VertexID(nil), origLast.Children...)
	cloneLast.EdgeTrue, cloneLast.EdgeFalse = origLast.EdgeTrue, origLast.EdgeFalse
	for _, c := range uniqueIDs(cloneLast.Children) {
		cv := g.vertices[c]
		cv.Parents = addID(cv.Parents, cloneLast.ID)
	}

	entry := g.vertices[chain[from-1]]
	shared := g.vertices[chain[from]]
	entry.Children[0] = out[from]
	shared.Parents = removeID(shared.Parents, entry.ID)
	g.vertices[out[from]].Parents = addID(g.vertices[out[from]].Parents, entry.ID)

	return out, g.finish()
}

// Permute reorders the payloads of a straight chain: after the call ids[i]
// holds what ids[order[i]] held before. Positions travel with their payload.
// Only non-branching payloads may move.
func (g *Graph) Permute(ids []VertexID, order []int) error {
	if len(ids) != len(order) {
		return invariantf("permutation of %d vertices has %d entries", len(ids), len(order))
	}
	if err := g.checkChain(ids); err != nil {
		return err
	}
	instrs := make([]Instr, len(ids))
	positions := make([][]grid.Position, len(ids))
	for i, id := range ids {
		instrs[i] = g.vertices[id].Instr
		positions[i] = g.vertices[id].Positions
	}
	for i, j := range order {
		if i != j && Effects(instrs[j])&Control != 0 {
			return invariantf("cannot move control payload %s", instrs[j].Kind())
		}
	}
	for i, j := range order {
		g.vertices[ids[i]].Instr = instrs[j]
		g.vertices[ids[i]].Positions = positions[j]
	}
	return g.check()
}

// SetInstr replaces the payload of a vertex in place. The new payload must
// branch the same way as the old one.
func (g *Graph) SetInstr(id VertexID, instr Instr) error {
	v := g.Vertex(id)
	if v == nil {
		return invariantf("vertex #%d does not exist", id)
	}
	if IsDecision(instr) != v.IsDecision() {
		return invariantf("payload %s does not fit the branching of #%d", instr.Kind(), id)
	}
	v.Instr = instr
	return g.check()
}

// RedirectEdge points every edge from one vertex to oldChild at newChild.
func (g *Graph) RedirectEdge(from, oldChild, newChild VertexID) error {
	v, oc, nc := g.Vertex(from), g.Vertex(oldChild), g.Vertex(newChild)
	if v == nil || oc == nil || nc == nil {
		return invariantf("redirect #%d: #%d -> #%d references a missing vertex", from, oldChild, newChild)
	}
	if !containsID(v.Children, oldChild) {
		return invariantf("#%d is not a child of #%d", oldChild, from)
	}
	if newChild == g.root {
		return invariantf("cannot redirect #%d into the root", from)
	}
	replaceChild(v, oldChild, newChild)
	oc.Parents = removeID(oc.Parents, from)
	nc.Parents = addID(nc.Parents, from)
	return g.finish()
}

// ResolveDecision turns a decision into a linear vertex with payload instr
// that always follows the chosen branch. Code only reachable through the
// other branch is deleted.
func (g *Graph) ResolveDecision(id VertexID, takeTrue bool, instr Instr) error {
	v := g.Vertex(id)
	if v == nil || !v.IsDecision() {
		return invariantf("#%d is not a decision", id)
	}
	if IsDecision(instr) || Effects(instr)&Control != 0 {
		return invariantf("resolved decision needs a linear payload, got %s", instr.Kind())
	}
	keep, drop := v.EdgeTrue, v.EdgeFalse
	if !takeTrue {
		keep, drop = drop, keep
	}
	if drop != keep {
		dv := g.vertices[drop]
		dv.Parents = removeID(dv.Parents, id)
	}
	v.Instr = instr
	v.Children = []VertexID{keep}
	v.EdgeTrue, v.EdgeFalse = NoVertex, NoVertex
	return g.finish()
}

// MergeInto moves every parent of dup onto keep and deletes dup. Both must
// have the same successors; dup must not be the root.
func (g *Graph) MergeInto(dup, keep VertexID) error {
	dv, kv := g.Vertex(dup), g.Vertex(keep)
	if dv == nil || kv == nil || dup == keep {
		return invariantf("cannot merge #%d into #%d", dup, keep)
	}
	if dup == g.root {
		return invariantf("cannot merge away the root #%d", dup)
	}
	for _, p := range append([]VertexID(nil), dv.Parents...) {
		pv := g.vertices[p]
		replaceChild(pv, dup, keep)
		kv.Parents = addID(kv.Parents, p)
	}
	dv.Parents = nil
	kv.Positions = appendPositions(kv.Positions, dv.Positions)
	g.rescope([]VertexID{dup}, []VertexID{keep})
	return g.finish()
}

// MovePositions appends the source positions of one vertex to another.
func (g *Graph) MovePositions(from, to VertexID) {
	fv, tv := g.Vertex(from), g.Vertex(to)
	if fv == nil || tv == nil || from == to {
		return
	}
	tv.Positions = appendPositions(tv.Positions, fv.Positions)
	fv.Positions = nil
}

func appendPositions(dst, src []grid.Position) []grid.Position {
	for _, p := range src {
		dup := false
		for _, q := range dst {
			if p == q {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, p)
		}
	}
	return dst
}
