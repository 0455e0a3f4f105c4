package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-befunge-cfg/pkg/grid"
)

func TestMemoryAccesses_RawGraphIsDynamic(t *testing.T) {
	g := buildSource(t, "01g.11p@")

	assert.Empty(t, g.StaticAccesses())
	dyn := g.DynamicAccesses()
	require.Len(t, dyn, 2)
	assert.False(t, dyn[0].Write)
	assert.True(t, dyn[1].Write)
}

func TestMemoryAccesses_Expressions(t *testing.T) {
	d := newDiamond(t)
	d.g.SetVerify(false)
	d.a.Instr = Push{Value: GridGet{X: Const{Value: 3}, Y: Const{Value: 4}}}
	d.b.Instr = Block{Body: []Instr{
		ExprSet{X: Const{Value: 1}, Y: Const{Value: 0}, Value: GridGet{X: Var{ID: 0}, Y: Const{}}},
	}}

	static := d.g.StaticAccesses()
	require.Len(t, static, 2)
	assert.Equal(t, grid.Position{X: 3, Y: 4}, static[0].Cell)
	assert.Equal(t, d.a.ID, static[0].Vertex)
	assert.Equal(t, grid.Position{X: 1, Y: 0}, static[1].Cell)
	assert.True(t, static[1].Write)

	dyn := d.g.DynamicAccesses()
	require.Len(t, dyn, 1)
	assert.Equal(t, d.b.ID, dyn[0].Vertex)
	assert.Equal(t, Var{ID: 0}, dyn[0].X)
}

func TestSourcePositions(t *testing.T) {
	g := buildSource(t, "v\n>@")

	assert.Equal(t, []grid.Position{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}, g.SourcePositions())
}
