package optimize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/l3aro/go-befunge-cfg/pkg/grid"
)

// Level is a stage of the optimizer pipeline. Levels run in increasing order.
type Level int

const (
	LevelMinimize Level = iota
	LevelSubstitute
	LevelFlatten
	LevelVariablize
	LevelUnstackify
	LevelNopify
	LevelCombine
	LevelReduce
)

var levelNames = [...]string{
	LevelMinimize:   "minimize",
	LevelSubstitute: "substitute",
	LevelFlatten:    "flatten",
	LevelVariablize: "variablize",
	LevelUnstackify: "unstackify",
	LevelNopify:     "nopify",
	LevelCombine:    "combine",
	LevelReduce:     "reduce",
}

var (
	// ErrUnknownLevel is returned by ParseLevel for names that are not a level.
	ErrUnknownLevel = errors.New("unknown optimization level")

	// ErrSelfModification is returned when memory promotion would hide a
	// write to, or a read of, a cell that still holds reachable code.
	ErrSelfModification = errors.New("program accesses its own code")
)

func (l Level) String() string {
	if l >= 0 && int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// Levels returns every level in pipeline order.
func Levels() []Level {
	out := make([]Level, len(levelNames))
	for i := range out {
		out[i] = Level(i)
	}
	return out
}

// ParseLevel accepts a level name or its number.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range levelNames {
		if s == name {
			return Level(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n < len(levelNames) {
		return Level(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// SelfModificationError reports the cell whose promotion was refused.
type SelfModificationError struct {
	Pos grid.Position
}

func (e *SelfModificationError) Error() string {
	return fmt.Sprintf("%v: cell %s holds live code", ErrSelfModification, e.Pos)
}

func (e *SelfModificationError) Unwrap() error { return ErrSelfModification }
