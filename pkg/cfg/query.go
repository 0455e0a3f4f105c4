package cfg

import (
	"sort"

	"github.com/l3aro/go-befunge-cfg/pkg/grid"
)

// MemoryAccess is one grid read or write found in the graph.
type MemoryAccess struct {
	Vertex VertexID
	Write  bool
	// Cell is set for statically addressed accesses only.
	Cell grid.Position
	// X and Y are nil when the coordinates come from the stack.
	X, Y Expr
}

// Static reports whether both coordinates are compile-time constants.
func (a MemoryAccess) Static() bool {
	return IsConst(a.X) && IsConst(a.Y)
}

// MemoryAccesses lists every grid access of the graph in vertex order.
func (g *Graph) MemoryAccesses() []MemoryAccess {
	var out []MemoryAccess
	for _, v := range g.Vertices() {
		out = appendAccesses(out, v.ID, v.Instr)
	}
	return out
}

// StaticAccesses lists the accesses whose cell is known at compile time.
func (g *Graph) StaticAccesses() []MemoryAccess {
	var out []MemoryAccess
	for _, a := range g.MemoryAccesses() {
		if a.Static() {
			out = append(out, a)
		}
	}
	return out
}

// DynamicAccesses lists the accesses whose cell is computed at run time.
func (g *Graph) DynamicAccesses() []MemoryAccess {
	var out []MemoryAccess
	for _, a := range g.MemoryAccesses() {
		if !a.Static() {
			out = append(out, a)
		}
	}
	return out
}

func newAccess(id VertexID, x, y Expr, write bool) MemoryAccess {
	a := MemoryAccess{Vertex: id, Write: write, X: x, Y: y}
	if a.Static() {
		a.Cell = grid.Position{X: int(x.(Const).Value), Y: int(y.(Const).Value)}
	}
	return a
}

// appendAccesses adds the accesses of one payload: grid reads embedded in its
// expressions, then its own reads and writes, then those of block members.
func appendAccesses(out []MemoryAccess, id VertexID, i Instr) []MemoryAccess {
	for _, e := range InstrExprs(i) {
		WalkExpr(e, func(x Expr) {
			if gg, ok := x.(GridGet); ok {
				out = append(out, newAccess(id, gg.X, gg.Y, false))
			}
		})
	}
	return appendDirectAccesses(out, id, i)
}

// appendDirectAccesses adds accesses that are not embedded in expressions.
func appendDirectAccesses(out []MemoryAccess, id VertexID, i Instr) []MemoryAccess {
	switch x := i.(type) {
	case Get:
		out = append(out, newAccess(id, nil, nil, false))
	case Set:
		out = append(out, newAccess(id, nil, nil, true))
	case ExprSet:
		out = append(out, newAccess(id, x.X, x.Y, true))
	case ExprPopSet:
		out = append(out, newAccess(id, x.X, x.Y, true))
	case Block:
		for _, b := range x.Body {
			out = appendDirectAccesses(out, id, b)
		}
	case DecisionBlock:
		for _, b := range x.Body {
			out = appendDirectAccesses(out, id, b)
		}
	}
	return out
}

// SourcePositions returns every grid position still represented by a vertex,
// sorted by row then column.
func (g *Graph) SourcePositions() []grid.Position {
	seen := make(map[grid.Position]bool)
	var out []grid.Position
	for _, v := range g.Vertices() {
		for _, p := range v.Positions {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	return out
}
