package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePadsRows(t *testing.T) {
	g, err := Parse("12+\n@\n")
	require.NoError(t, err)

	assert.Equal(t, 3, g.Width())
	assert.Equal(t, 2, g.Height())
	assert.Equal(t, int64('+'), g.Get(2, 0))
	assert.Equal(t, int64(' '), g.Get(2, 1))
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse("")
	assert.ErrorIs(t, err, ErrEmptySource)

	_, err = Parse("\n\n")
	assert.ErrorIs(t, err, ErrEmptySource)
}

func TestGetOutOfBoundsIsZero(t *testing.T) {
	g := New(2, 2)

	assert.Equal(t, int64(0), g.Get(-1, 0))
	assert.Equal(t, int64(0), g.Get(2, 0))
	assert.Equal(t, int64(0), g.Get(0, 5))
	assert.Equal(t, int64(' '), g.Get(1, 1))

	g.Set(9, 9, 'x')
	assert.Equal(t, int64(0), g.Get(9, 9))
}

func TestMoveWraps(t *testing.T) {
	g := New(4, 3)

	tests := []struct {
		name string
		from Position
		dir  Direction
		jump bool
		want Position
	}{
		{"right", Position{0, 0}, FromLeft, false, Position{1, 0}},
		{"right wraps", Position{3, 0}, FromLeft, false, Position{0, 0}},
		{"left wraps", Position{0, 1}, FromRight, false, Position{3, 1}},
		{"down wraps", Position{2, 2}, FromTop, false, Position{2, 0}},
		{"up wraps", Position{2, 0}, FromBottom, false, Position{2, 2}},
		{"jump right", Position{3, 0}, FromLeft, true, Position{1, 0}},
		{"string mode keeps spatial sense", Position{1, 1}, FromTopString, false, Position{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Move(tt.from, tt.dir, tt.jump))
		})
	}
}

func TestDirectionStringMode(t *testing.T) {
	for d := FromLeft; d <= FromBottom; d++ {
		s := d.ToggleStringMode()
		assert.True(t, s.IsStringMode())
		assert.False(t, d.IsStringMode())
		assert.Equal(t, d, s.ToggleStringMode())
		assert.Equal(t, d, s.Spatial())
	}

	assert.Equal(t, FromRightString, FromTopString.Turn(FromRight))
	assert.Equal(t, FromRight, FromTop.Turn(FromRightString))
}
