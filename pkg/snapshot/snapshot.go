// Package snapshot exports a finished graph in a plain, serializable form for
// code generators and other external consumers.
package snapshot

import (
	"sort"

	"github.com/l3aro/go-befunge-cfg/pkg/cfg"
	"github.com/l3aro/go-befunge-cfg/pkg/grid"
)

// Snapshot is a self-contained copy of a graph.
type Snapshot struct {
	Level     string          `json:"level,omitempty" msgpack:"level,omitempty"`
	Width     int             `json:"width" msgpack:"width"`
	Height    int             `json:"height" msgpack:"height"`
	Root      int32           `json:"root" msgpack:"root"`
	Vertices  []Vertex        `json:"vertices" msgpack:"vertices"`
	Variables []Variable      `json:"variables" msgpack:"variables"`
	Source    []grid.Position `json:"source_positions,omitempty" msgpack:"source_positions,omitempty"`
}

// Vertex is the exported form of one graph vertex.
type Vertex struct {
	ID        int32           `json:"id" msgpack:"id"`
	Text      string          `json:"text" msgpack:"text"`
	Instr     Instr           `json:"instr" msgpack:"instr"`
	Direction string          `json:"direction" msgpack:"direction"`
	Positions []grid.Position `json:"positions,omitempty" msgpack:"positions,omitempty"`
	Children  []int32         `json:"children,omitempty" msgpack:"children,omitempty"`
	True      *int32          `json:"true,omitempty" msgpack:"true,omitempty"`
	False     *int32          `json:"false,omitempty" msgpack:"false,omitempty"`
}

// Variable is the exported form of a variable table entry.
type Variable struct {
	ID      int32          `json:"id" msgpack:"id"`
	Name    string         `json:"name" msgpack:"name"`
	User    bool           `json:"user" msgpack:"user"`
	Cell    *grid.Position `json:"cell,omitempty" msgpack:"cell,omitempty"`
	Initial int64          `json:"initial" msgpack:"initial"`
	Scope   []int32        `json:"scope,omitempty" msgpack:"scope,omitempty"`
}

// Instr is a payload tree. Only the fields meaningful for Kind are set.
type Instr struct {
	Kind  string  `json:"kind" msgpack:"kind"`
	Mode  string  `json:"mode,omitempty" msgpack:"mode,omitempty"`
	Op    string  `json:"op,omitempty" msgpack:"op,omitempty"`
	Text  string  `json:"string,omitempty" msgpack:"string,omitempty"`
	Var   *int32  `json:"var,omitempty" msgpack:"var,omitempty"`
	Value *Expr   `json:"value,omitempty" msgpack:"value,omitempty"`
	X     *Expr   `json:"x,omitempty" msgpack:"x,omitempty"`
	Y     *Expr   `json:"y,omitempty" msgpack:"y,omitempty"`
	Body  []Instr `json:"body,omitempty" msgpack:"body,omitempty"`
	Cond  *Instr  `json:"cond,omitempty" msgpack:"cond,omitempty"`
}

// Expr is an expression tree.
type Expr struct {
	Kind  string `json:"kind" msgpack:"kind"`
	Value int64  `json:"value,omitempty" msgpack:"value,omitempty"`
	Op    string `json:"op,omitempty" msgpack:"op,omitempty"`
	Var   *int32 `json:"var,omitempty" msgpack:"var,omitempty"`
	Left  *Expr  `json:"left,omitempty" msgpack:"left,omitempty"`
	Right *Expr  `json:"right,omitempty" msgpack:"right,omitempty"`
	X     *Expr  `json:"x,omitempty" msgpack:"x,omitempty"`
	Y     *Expr  `json:"y,omitempty" msgpack:"y,omitempty"`
}

// Take copies g. Vertices are listed in depth-first preorder from the root.
func Take(g *cfg.Graph) (*Snapshot, error) {
	s := &Snapshot{
		Root:   int32(g.RootID()),
		Source: g.SourcePositions(),
	}
	if src := g.Source(); src != nil {
		s.Width, s.Height = src.Width(), src.Height()
	}

	for _, id := range g.DFS() {
		v := g.Vertex(id)
		in, err := exportInstr(v.Instr)
		if err != nil {
			return nil, err
		}
		out := Vertex{
			ID:        int32(v.ID),
			Text:      cfg.Format(v.Instr),
			Instr:     in,
			Direction: v.Direction.String(),
			Positions: append([]grid.Position(nil), v.Positions...),
			Children:  ids(v.Children),
		}
		if v.IsDecision() {
			out.True = ref(v.EdgeTrue)
			out.False = ref(v.EdgeFalse)
		}
		s.Vertices = append(s.Vertices, out)
	}

	for _, variable := range g.Variables() {
		out := Variable{
			ID:      int32(variable.ID),
			Name:    variable.Name(),
			User:    variable.User,
			Initial: variable.Initial,
		}
		if variable.User {
			cell := variable.Cell
			out.Cell = &cell
		}
		for id := range variable.Scope {
			out.Scope = append(out.Scope, int32(id))
		}
		sort.Slice(out.Scope, func(i, j int) bool { return out.Scope[i] < out.Scope[j] })
		s.Variables = append(s.Variables, out)
	}
	return s, nil
}

// Vertex returns the exported vertex with the given id, or nil.
func (s *Snapshot) Vertex(id int32) *Vertex {
	for i := range s.Vertices {
		if s.Vertices[i].ID == id {
			return &s.Vertices[i]
		}
	}
	return nil
}

func ids(in []cfg.VertexID) []int32 {
	if len(in) == 0 {
		return nil
	}
	out := make([]int32, len(in))
	for i, id := range in {
		out[i] = int32(id)
	}
	return out
}

func ref[T ~int32](id T) *int32 {
	v := int32(id)
	return &v
}
