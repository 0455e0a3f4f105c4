package cfg

import (
	"github.com/l3aro/go-befunge-cfg/pkg/grid"
)

// cell is the decoded meaning of one grid cell for a given arrival direction.
type cell struct {
	instr Instr
	// outs are the spatial directions execution leaves in, in child order.
	outs   []grid.Direction
	jump   bool
	toggle bool
}

type buildItem struct {
	parent VertexID
	slot   int
	pos    grid.Position
	dir    grid.Direction
}

type vertexKey struct {
	pos grid.Position
	dir grid.Direction
}

// Build walks src from its top-left cell and returns the raw graph with one
// vertex per reachable (position, arrival direction) pair. Revisited pairs
// share one vertex, so grid loops become graph cycles. When verify is set,
// every later mutation of the graph checks its invariants; the finished raw
// graph is always checked once.
func Build(src *grid.Grid, verify bool) (*Graph, error) {
	g := NewGraph(src)
	seen := make(map[vertexKey]VertexID)

	start := buildItem{parent: NoVertex, pos: grid.Position{}, dir: grid.FromLeft}
	stack := []buildItem{start}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		key := vertexKey{pos: it.pos, dir: it.dir}
		id, ok := seen[key]
		if !ok {
			c, err := decode(src.At(it.pos), it.pos, it.dir)
			if err != nil {
				return nil, err
			}
			v := g.newVertex(c.instr, []grid.Position{it.pos}, it.dir)
			id = v.ID
			seen[key] = id

			next := it.dir
			if c.toggle {
				next = next.ToggleStringMode()
			}
			v.Children = make([]VertexID, len(c.outs))
			for slot := len(c.outs) - 1; slot >= 0; slot-- {
				out := next.Turn(c.outs[slot])
				stack = append(stack, buildItem{
					parent: id,
					slot:   slot,
					pos:    src.Move(it.pos, out, c.jump),
					dir:    out,
				})
			}
		}
		if it.parent != NoVertex {
			g.vertices[it.parent].Children[it.slot] = id
		} else {
			g.root = id
		}
	}

	for _, v := range g.vertices {
		if v.IsDecision() {
			v.EdgeTrue, v.EdgeFalse = v.Children[0], v.Children[1]
		}
	}
	g.RebuildParents()

	if root := g.Root(); len(root.Parents) > 0 {
		entry := g.newVertex(Nop{}, nil, grid.FromLeft)
		g.link(entry, root)
		g.root = entry.ID
	}

	if err := g.Verify(); err != nil {
		return nil, err
	}
	g.verify = verify
	return g, nil
}

// decode maps a cell code to its instruction. In string mode every cell except
// the quote pushes its own code.
func decode(code int64, pos grid.Position, dir grid.Direction) (cell, error) {
	straight := []grid.Direction{dir.Spatial()}
	if dir.IsStringMode() {
		if code == '"' {
			return cell{instr: Nop{}, outs: straight, toggle: true}, nil
		}
		return cell{instr: Push{Value: Const{Value: code}}, outs: straight}, nil
	}

	linear := func(in Instr) (cell, error) {
		return cell{instr: in, outs: straight}, nil
	}
	turn := func(d grid.Direction) (cell, error) {
		return cell{instr: Nop{}, outs: []grid.Direction{d}}, nil
	}

	switch {
	case code >= '0' && code <= '9':
		return linear(Push{Value: Const{Value: code - '0'}})
	}
	switch code {
	case ' ':
		return linear(Nop{})
	case '+':
		return linear(BinaryMath{Op: OpAdd})
	case '-':
		return linear(BinaryMath{Op: OpSub})
	case '*':
		return linear(BinaryMath{Op: OpMul})
	case '/':
		return linear(BinaryMath{Op: OpDiv})
	case '%':
		return linear(BinaryMath{Op: OpMod})
	case '`':
		return linear(BinaryMath{Op: OpGT})
	case '!':
		return linear(Not{})
	case '>':
		return turn(grid.FromLeft)
	case '<':
		return turn(grid.FromRight)
	case 'v':
		return turn(grid.FromTop)
	case '^':
		return turn(grid.FromBottom)
	case '?':
		return cell{instr: Random{}, outs: []grid.Direction{
			grid.FromLeft, grid.FromTop, grid.FromRight, grid.FromBottom,
		}}, nil
	case '_':
		// nonzero goes left, zero goes right
		return cell{instr: Decision{}, outs: []grid.Direction{grid.FromRight, grid.FromLeft}}, nil
	case '|':
		// nonzero goes up, zero goes down
		return cell{instr: Decision{}, outs: []grid.Direction{grid.FromBottom, grid.FromTop}}, nil
	case '"':
		return cell{instr: Nop{}, outs: straight, toggle: true}, nil
	case ':':
		return linear(Dup{})
	case '\\':
		return linear(Swap{})
	case '$':
		return linear(Pop{})
	case '.':
		return linear(Output{Mode: ModeInt})
	case ',':
		return linear(Output{Mode: ModeChar})
	case '#':
		return cell{instr: Nop{}, outs: straight, jump: true}, nil
	case 'g':
		return linear(Get{})
	case 'p':
		return linear(Set{})
	case '&':
		return linear(Input{Mode: ModeInt})
	case '~':
		return linear(Input{Mode: ModeChar})
	case '@':
		return cell{instr: Exit{}}, nil
	}
	return cell{}, &ParseError{Pos: pos, Code: code}
}
