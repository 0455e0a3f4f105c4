// Package grid defines the toroidal program grid walked by the graph builder,
// together with positions and arrival directions.
package grid

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrEmptySource is returned when a source contains no cells.
var ErrEmptySource = errors.New("empty source grid")

// Position is a cell coordinate on the grid.
type Position struct {
	X int `json:"x" msgpack:"x"`
	Y int `json:"y" msgpack:"y"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Direction is the side a cell was entered from, combined with the string-mode flag.
type Direction uint8

const (
	FromLeft   Direction = iota // moving right
	FromTop                     // moving down
	FromRight                   // moving left
	FromBottom                  // moving up
	FromLeftString
	FromTopString
	FromRightString
	FromBottomString
)

const stringModeBit Direction = 4

// IsStringMode reports whether the direction is travelling inside a quoted literal.
func (d Direction) IsStringMode() bool {
	return d&stringModeBit != 0
}

// ToggleStringMode flips string mode without changing the spatial direction.
func (d Direction) ToggleStringMode() Direction {
	return d ^ stringModeBit
}

// Spatial returns the direction with string mode cleared.
func (d Direction) Spatial() Direction {
	return d &^ stringModeBit
}

// Turn returns the spatial direction s carrying over the string mode of d.
func (d Direction) Turn(s Direction) Direction {
	return s.Spatial() | (d & stringModeBit)
}

// Delta returns the step applied when moving in the direction.
func (d Direction) Delta() (dx, dy int) {
	switch d.Spatial() {
	case FromLeft:
		return 1, 0
	case FromTop:
		return 0, 1
	case FromRight:
		return -1, 0
	default:
		return 0, -1
	}
}

func (d Direction) String() string {
	var name string
	switch d.Spatial() {
	case FromLeft:
		name = "left"
	case FromTop:
		name = "top"
	case FromRight:
		name = "right"
	default:
		name = "bottom"
	}
	if d.IsStringMode() {
		return name + "+string"
	}
	return name
}

// Grid is a width×height matrix of cell codes. Lookups outside the grid return 0.
type Grid struct {
	width  int
	height int
	cells  []int64
}

// New creates a grid filled with spaces.
func New(width, height int) *Grid {
	g := &Grid{
		width:  width,
		height: height,
		cells:  make([]int64, width*height),
	}
	for i := range g.cells {
		g.cells[i] = ' '
	}
	return g
}

// Parse builds a grid from program text. Lines are padded with spaces to the
// length of the longest line.
func Parse(src string) (*Grid, error) {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	lines := strings.Split(src, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	width := 0
	rows := make([][]rune, len(lines))
	for i, line := range lines {
		rows[i] = []rune(line)
		if len(rows[i]) > width {
			width = len(rows[i])
		}
	}
	if width == 0 || len(rows) == 0 {
		return nil, ErrEmptySource
	}

	g := New(width, len(rows))
	for y, row := range rows {
		for x, r := range row {
			g.cells[y*width+x] = int64(r)
		}
	}
	return g, nil
}

// Load reads and parses a program file.
func Load(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source %s: %w", path, err)
	}
	g, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parsing source %s: %w", path, err)
	}
	return g, nil
}

// Width returns the number of columns.
func (g *Grid) Width() int { return g.width }

// Height returns the number of rows.
func (g *Grid) Height() int { return g.height }

// Contains reports whether (x, y) lies inside the declared bounds.
func (g *Grid) Contains(x, y int64) bool {
	return x >= 0 && y >= 0 && x < int64(g.width) && y < int64(g.height)
}

// Get returns the cell code at (x, y), or 0 outside the grid.
func (g *Grid) Get(x, y int64) int64 {
	if !g.Contains(x, y) {
		return 0
	}
	return g.cells[y*int64(g.width)+x]
}

// At is Get for a Position.
func (g *Grid) At(p Position) int64 {
	return g.Get(int64(p.X), int64(p.Y))
}

// Set stores a cell code. Writes outside the grid are ignored.
func (g *Grid) Set(x, y, v int64) {
	if !g.Contains(x, y) {
		return
	}
	g.cells[y*int64(g.width)+x] = v
}

// Move advances one cell (two when jump is set) in the direction, wrapping
// around the grid edges.
func (g *Grid) Move(p Position, d Direction, jump bool) Position {
	steps := 1
	if jump {
		steps = 2
	}
	dx, dy := d.Delta()
	return Position{
		X: wrap(p.X+dx*steps, g.width),
		Y: wrap(p.Y+dy*steps, g.height),
	}
}

func wrap(v, n int) int {
	return ((v % n) + n) % n
}

// String renders the grid back into program text.
func (g *Grid) String() string {
	var sb strings.Builder
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			sb.WriteRune(rune(g.cells[y*g.width+x]))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
