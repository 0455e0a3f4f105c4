// Package cfg defines the control flow graph compiled from a Befunge grid:
// vertices with ordered adjacency, decision edges, the variable table, the
// invariants that every rewrite must preserve, and the graph builder.
package cfg

import (
	"errors"
	"fmt"

	"github.com/l3aro/go-befunge-cfg/pkg/grid"
)

// VertexID is a stable arena index.
type VertexID int32

// NoVertex marks an unset edge.
const NoVertex VertexID = -1

// VariableID identifies an entry of the variable table.
type VariableID int32

var (
	// ErrParse is returned for cell codes that are not instructions.
	ErrParse = errors.New("parse error")
	// ErrInvariant is returned when a mutation leaves the graph malformed.
	ErrInvariant = errors.New("graph invariant violated")
)

// ParseError reports an unknown cell code met during graph construction.
type ParseError struct {
	Pos  grid.Position
	Code int64
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unknown instruction %q (%d) at %s", rune(e.Code), e.Code, e.Pos)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// InvariantError describes the first broken structural invariant.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return ErrInvariant.Error() + ": " + e.Reason
}

func (e *InvariantError) Unwrap() error { return ErrInvariant }

func invariantf(format string, args ...interface{}) error {
	return &InvariantError{Reason: fmt.Sprintf(format, args...)}
}

// Vertex is one node of the graph.
type Vertex struct {
	ID        VertexID
	Instr     Instr
	Positions []grid.Position
	Direction grid.Direction
	Children  []VertexID
	Parents   []VertexID
	// EdgeTrue and EdgeFalse are set only for decision vertices and are always
	// members of Children.
	EdgeTrue  VertexID
	EdgeFalse VertexID
}

// IsDecision reports whether the vertex owns true/false edges.
func (v *Vertex) IsDecision() bool {
	return IsDecision(v.Instr)
}

// Next returns the only child of a vertex, or NoVertex.
func (v *Vertex) Next() VertexID {
	if len(v.Children) != 1 {
		return NoVertex
	}
	return v.Children[0]
}

func (v *Vertex) String() string {
	return fmt.Sprintf("#%d %s", v.ID, Format(v.Instr))
}

// Variable is an entry of the graph's variable table.
type Variable struct {
	ID      VariableID
	Initial int64
	// User variables stand for a statically addressed grid cell.
	User bool
	Cell grid.Position
	// Scope is the set of vertices a system variable is live across. Nil for user variables.
	Scope map[VertexID]struct{}
}

// Name returns a stable identifier for emitters.
func (v *Variable) Name() string {
	if v.User {
		return fmt.Sprintf("m_%d_%d", v.Cell.X, v.Cell.Y)
	}
	return fmt.Sprintf("t_%d", v.ID)
}
