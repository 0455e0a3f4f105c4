package cfg

import "strings"

// Effect is a set of side-effect areas. Every area has a read bit and a write
// bit; the write bit is the read bit shifted left by one.
type Effect uint16

const (
	StackRead Effect = 1 << iota
	StackWrite
	GridRead
	GridWrite
	IORead
	IOWrite
	VarRead
	VarWrite
	// Control marks instructions that branch or terminate. They never move.
	Control
)

const (
	readMask  = StackRead | GridRead | IORead | VarRead
	writeMask = StackWrite | GridWrite | IOWrite | VarWrite
)

func (e Effect) reads() Effect  { return e & readMask }
func (e Effect) writes() Effect { return e & writeMask }

// Touches reports whether e reads or writes any area of area.
func (e Effect) Touches(area Effect) bool {
	return e&area != 0
}

// conflicts reports whether a writes an area that b reads or writes.
func conflicts(a, b Effect) bool {
	w := a.writes() >> 1
	return w&(b.reads()|b.writes()>>1) != 0
}

// CanSwap reports whether two instructions with effects a and b may execute in
// either order.
func CanSwap(a, b Effect) bool {
	if a&Control != 0 || b&Control != 0 {
		return false
	}
	return !conflicts(a, b) && !conflicts(b, a)
}

func (e Effect) String() string {
	if e == 0 {
		return "none"
	}
	names := []struct {
		bit  Effect
		name string
	}{
		{StackRead, "stack-r"}, {StackWrite, "stack-w"},
		{GridRead, "grid-r"}, {GridWrite, "grid-w"},
		{IORead, "io-r"}, {IOWrite, "io-w"},
		{VarRead, "var-r"}, {VarWrite, "var-w"},
		{Control, "control"},
	}
	var parts []string
	for _, n := range names {
		if e&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}
