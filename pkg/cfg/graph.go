package cfg

import (
	"sort"

	"github.com/l3aro/go-befunge-cfg/pkg/grid"
)

// Graph owns the vertex arena, the root and the variable table.
type Graph struct {
	vertices []*Vertex
	live     int
	root     VertexID
	vars     map[VariableID]*Variable
	nextVar  VariableID
	source   *grid.Grid
	verify   bool
}

// NewGraph creates an empty graph for the given source grid.
func NewGraph(source *grid.Grid) *Graph {
	return &Graph{
		root:   NoVertex,
		vars:   make(map[VariableID]*Variable),
		source: source,
	}
}

// Source returns the grid the graph was built from.
func (g *Graph) Source() *grid.Grid { return g.source }

// SetVerify enables invariant checks after every mutation.
func (g *Graph) SetVerify(enabled bool) { g.verify = enabled }

// Root returns the root vertex.
func (g *Graph) Root() *Vertex {
	return g.Vertex(g.root)
}

// RootID returns the root vertex id.
func (g *Graph) RootID() VertexID { return g.root }

// Vertex returns a live vertex or nil.
func (g *Graph) Vertex(id VertexID) *Vertex {
	if id < 0 || int(id) >= len(g.vertices) {
		return nil
	}
	return g.vertices[id]
}

// Vertices returns all live vertices ordered by id.
func (g *Graph) Vertices() []*Vertex {
	out := make([]*Vertex, 0, g.live)
	for _, v := range g.vertices {
		if v != nil {
			out = append(out, v)
		}
	}
	return out
}

// Len returns the number of live vertices.
func (g *Graph) Len() int { return g.live }

// newVertex allocates a vertex without linking it.
func (g *Graph) newVertex(instr Instr, positions []grid.Position, dir grid.Direction) *Vertex {
	v := &Vertex{
		ID:        VertexID(len(g.vertices)),
		Instr:     instr,
		Positions: append([]grid.Position(nil), positions...),
		Direction: dir,
		EdgeTrue:  NoVertex,
		EdgeFalse: NoVertex,
	}
	g.vertices = append(g.vertices, v)
	g.live++
	return v
}

func (g *Graph) deleteVertex(id VertexID) {
	if g.vertices[id] != nil {
		g.vertices[id] = nil
		g.live--
	}
}

// Variables returns the variable table ordered by id.
func (g *Graph) Variables() []*Variable {
	out := make([]*Variable, 0, len(g.vars))
	for _, v := range g.vars {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Variable returns a variable or nil.
func (g *Graph) Variable(id VariableID) *Variable {
	return g.vars[id]
}

// AddUserVariable introduces a variable standing for grid cell pos.
func (g *Graph) AddUserVariable(pos grid.Position, initial int64) *Variable {
	v := &Variable{ID: g.nextVar, Initial: initial, User: true, Cell: pos}
	g.vars[v.ID] = v
	g.nextVar++
	return v
}

// AddSystemVariable introduces a variable replacing stack values live across scope.
func (g *Graph) AddSystemVariable(scope map[VertexID]struct{}) *Variable {
	if scope == nil {
		scope = make(map[VertexID]struct{})
	}
	v := &Variable{ID: g.nextVar, Scope: scope}
	g.vars[v.ID] = v
	g.nextVar++
	return v
}

// RemoveVariable deletes a variable from the table.
func (g *Graph) RemoveVariable(id VariableID) {
	delete(g.vars, id)
}

// DFS returns live vertices in depth-first preorder from the root, children
// visited in order.
func (g *Graph) DFS() []VertexID {
	if g.Root() == nil {
		return nil
	}
	seen := make([]bool, len(g.vertices))
	order := make([]VertexID, 0, g.live)
	stack := []VertexID{g.root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		order = append(order, id)
		children := g.vertices[id].Children
		for i := len(children) - 1; i >= 0; i-- {
			if c := children[i]; g.Vertex(c) != nil && !seen[c] {
				stack = append(stack, c)
			}
		}
	}
	return order
}

// check runs Verify when verification is enabled.
func (g *Graph) check() error {
	if !g.verify {
		return nil
	}
	return g.Verify()
}

// Verify checks every structural invariant of the graph.
func (g *Graph) Verify() error {
	root := g.Root()
	if root == nil {
		return invariantf("root #%d is not a live vertex", g.root)
	}

	for _, v := range g.Vertices() {
		seenParent := make(map[VertexID]bool, len(v.Parents))
		for _, p := range v.Parents {
			pv := g.Vertex(p)
			if pv == nil {
				return invariantf("#%d has dangling parent #%d", v.ID, p)
			}
			if seenParent[p] {
				return invariantf("#%d lists parent #%d twice", v.ID, p)
			}
			seenParent[p] = true
			if !containsID(pv.Children, v.ID) {
				return invariantf("#%d lists parent #%d that does not list it as child", v.ID, p)
			}
		}
		for _, c := range v.Children {
			cv := g.Vertex(c)
			if cv == nil {
				return invariantf("#%d has dangling child #%d", v.ID, c)
			}
			if !containsID(cv.Parents, v.ID) {
				return invariantf("#%d lists child #%d that does not list it as parent", v.ID, c)
			}
		}

		if err := g.verifyShape(v); err != nil {
			return err
		}

		if len(v.Parents) == 0 && v.ID != g.root {
			return invariantf("#%d has no parents but is not the root", v.ID)
		}
	}
	if len(root.Parents) != 0 {
		return invariantf("root #%d has %d parents", root.ID, len(root.Parents))
	}

	if reached := len(g.DFS()); reached != g.live {
		return invariantf("%d of %d vertices reachable from root", reached, g.live)
	}

	for id, v := range g.vars {
		if v.ID != id {
			return invariantf("variable %d stored under id %d", v.ID, id)
		}
		if v.User && v.Scope != nil {
			return invariantf("user variable %d carries a scope", v.ID)
		}
		if !v.User && (v.Scope == nil || v.Initial != 0) {
			return invariantf("system variable %d needs a scope and no initial value", v.ID)
		}
	}
	return nil
}

// verifyShape checks that the child count and decision edges fit the payload.
func (g *Graph) verifyShape(v *Vertex) error {
	switch {
	case v.IsDecision():
		if len(v.Children) != 2 {
			return invariantf("decision #%d has %d children", v.ID, len(v.Children))
		}
		if !containsID(v.Children, v.EdgeTrue) || !containsID(v.Children, v.EdgeFalse) {
			return invariantf("decision #%d edges are not among its children", v.ID)
		}
		return nil
	case v.EdgeTrue != NoVertex || v.EdgeFalse != NoVertex:
		return invariantf("non-decision #%d carries decision edges", v.ID)
	}

	switch v.Instr.(type) {
	case Random:
		if len(v.Children) != 4 {
			return invariantf("random #%d has %d children", v.ID, len(v.Children))
		}
	case Exit:
		if len(v.Children) != 0 {
			return invariantf("exit #%d has children", v.ID)
		}
	default:
		if len(v.Children) > 1 {
			return invariantf("linear #%d has %d children", v.ID, len(v.Children))
		}
	}
	return nil
}

func containsID(ids []VertexID, id VertexID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func uniqueIDs(ids []VertexID) []VertexID {
	out := make([]VertexID, 0, len(ids))
	for _, id := range ids {
		if !containsID(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func removeID(ids []VertexID, id VertexID) []VertexID {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

func addID(ids []VertexID, id VertexID) []VertexID {
	if containsID(ids, id) {
		return ids
	}
	return append(ids, id)
}
