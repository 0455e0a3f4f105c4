package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-befunge-cfg/pkg/cfg"
	"github.com/l3aro/go-befunge-cfg/pkg/grid"
)

func build(t *testing.T, src string) *cfg.Graph {
	t.Helper()
	gr, err := grid.Parse(src)
	require.NoError(t, err)
	g, err := cfg.Build(gr, true)
	require.NoError(t, err)
	return g
}

func kinds(g *cfg.Graph) []cfg.Kind {
	var out []cfg.Kind
	seen := map[cfg.VertexID]bool{}
	for v := g.Root(); v != nil && !seen[v.ID]; v = g.Vertex(v.Next()) {
		seen[v.ID] = true
		out = append(out, v.Instr.Kind())
	}
	return out
}

func pushPop(filler int) *Rule {
	return &Rule{
		Name:     "push-pop",
		Slots:    []Predicate{Is[cfg.Push](), Is[cfg.Pop]()},
		Generate: func([]*cfg.Vertex) []cfg.Instr { return nil },
		Filler:   filler,
	}
}

func foldOutput(noExtract bool) *Rule {
	return &Rule{
		Name:  "nop-push-output",
		Slots: []Predicate{Is[cfg.Nop](), Is[cfg.Push](), Is[cfg.Output]()},
		Generate: func(chain []*cfg.Vertex) []cfg.Instr {
			out := chain[2].Instr.(cfg.Output)
			return []cfg.Instr{cfg.ExprOutput{Mode: out.Mode, Value: chain[1].Instr.(cfg.Push).Value}}
		},
		NoExtract: noExtract,
	}
}

func TestIs_Guards(t *testing.T) {
	v := &cfg.Vertex{Instr: cfg.Push{Value: cfg.Const{Value: 4}}}

	assert.True(t, Is[cfg.Push]()(v))
	assert.False(t, Is[cfg.Pop]()(v))
	assert.True(t, Is[cfg.Push](func(p cfg.Push) bool { return cfg.IsConst(p.Value) })(v))
	assert.False(t, Is[cfg.Push](func(p cfg.Push) bool { return false })(v))
	assert.True(t, Where(func(in cfg.Instr) bool { return in.Kind() == cfg.KindPush })(v))
	assert.True(t, Any()(v))
}

func TestApply_RemovesAdjacentChain(t *testing.T) {
	g := build(t, "1$@")

	changed, err := pushPop(0).Apply(g)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []cfg.Kind{cfg.KindExit}, kinds(g))

	changed, err = pushPop(0).Apply(g)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestMatchAt_FillerBudget(t *testing.T) {
	g := build(t, "1  $@")

	_, ok := pushPop(1).MatchAt(g, g.RootID())
	assert.False(t, ok)

	m, ok := pushPop(2).MatchAt(g, g.RootID())
	require.True(t, ok)
	assert.Len(t, m.Chain, 4)
	assert.Equal(t, []int{0, 3}, m.Slots)
	assert.Equal(t, 2, m.Fillers())
}

func TestApply_MovesFillersInFront(t *testing.T) {
	g := build(t, "1 $@")

	changed, err := pushPop(1).Apply(g)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []cfg.Kind{cfg.KindNop, cfg.KindExit}, kinds(g))
	assert.Equal(t, []grid.Position{{X: 1, Y: 0}}, g.Root().Positions)
}

func TestApply_FillerThatDoesNotCommute(t *testing.T) {
	g := build(t, "1.$@")

	changed, err := pushPop(1).Apply(g)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 4, g.Len())
}

func TestApply_MovesFillersBehind(t *testing.T) {
	g := build(t, "   @")
	ids := g.DFS()
	require.NoError(t, g.SetInstr(ids[0], cfg.OutputString{Text: "a"}))
	require.NoError(t, g.SetInstr(ids[1], cfg.ExprOutput{Value: cfg.Const{Value: 1}}))
	require.NoError(t, g.SetInstr(ids[2], cfg.Pop{}))

	rule := &Rule{
		Name:  "string-pop",
		Slots: []Predicate{Is[cfg.OutputString](), Is[cfg.Pop]()},
		Generate: func(chain []*cfg.Vertex) []cfg.Instr {
			return []cfg.Instr{cfg.OutputString{Text: chain[0].Instr.(cfg.OutputString).Text + "!"}}
		},
		Filler: 1,
	}
	changed, err := rule.Apply(g)
	require.NoError(t, err)
	require.True(t, changed)

	assert.Equal(t, []cfg.Kind{cfg.KindOutputString, cfg.KindExprOutput, cfg.KindExit}, kinds(g))
	assert.Equal(t, cfg.OutputString{Text: "a!"}, g.Root().Instr)
}

// sharedSource has two paths entering the "2" cell, one through each arrow
// vertex of (1,1).
const sharedSource = "1|\n >2.@\n ^"

func TestApply_ExtractsSharedSuffix(t *testing.T) {
	g := build(t, sharedSource)
	require.Equal(t, 8, g.Len())

	changed, err := foldOutput(false).Apply(g)
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, 8, g.Len())

	var folded, raw int
	for _, v := range g.Vertices() {
		switch v.Instr.(type) {
		case cfg.ExprOutput:
			folded++
		case cfg.Output:
			raw++
		}
	}
	assert.Equal(t, 1, folded)
	assert.Equal(t, 1, raw, "the other path keeps its own push/output")
}

func TestApply_NoExtractRejectsSharedChain(t *testing.T) {
	g := build(t, sharedSource)

	changed, err := foldOutput(true).Apply(g)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 8, g.Len())
}

func TestApply_KeepsDecisionEdges(t *testing.T) {
	g := build(t, "0_@")
	rule := &Rule{
		Name:  "fold-decision",
		Slots: []Predicate{Is[cfg.Push](), Is[cfg.Decision]()},
		Generate: func(chain []*cfg.Vertex) []cfg.Instr {
			return []cfg.Instr{cfg.ExprDecision{Cond: chain[0].Instr.(cfg.Push).Value}}
		},
	}

	changed, err := rule.Apply(g)
	require.NoError(t, err)
	require.True(t, changed)

	root := g.Root()
	assert.Equal(t, cfg.ExprDecision{Cond: cfg.Const{Value: 0}}, root.Instr)
	left := g.Vertex(root.EdgeTrue)
	assert.Equal(t, grid.FromRight, left.Direction)
	assert.Equal(t, []grid.Position{{X: 0, Y: 0}}, left.Positions)
	right := g.Vertex(root.EdgeFalse)
	assert.Equal(t, cfg.KindExit, right.Instr.Kind())
}

func TestApply_LoneNopPlaceholderIsNoChange(t *testing.T) {
	g := build(t, ">")
	rule := &Rule{
		Name:     "drop-nop",
		Slots:    []Predicate{Is[cfg.Nop]()},
		Generate: func([]*cfg.Vertex) []cfg.Instr { return nil },
	}

	changed, err := rule.Apply(g)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 2, g.Len())
}

func TestMatchAt_StopsOnCycle(t *testing.T) {
	g := build(t, ">")
	rule := &Rule{
		Name:     "three-nops",
		Slots:    []Predicate{Is[cfg.Nop](), Is[cfg.Nop](), Is[cfg.Nop]()},
		Generate: func([]*cfg.Vertex) []cfg.Instr { return []cfg.Instr{cfg.Nop{}} },
	}

	_, ok := rule.Find(g)
	assert.False(t, ok)
}

func TestApply_ConditionsFilterMatches(t *testing.T) {
	g := build(t, "1$2$@")
	rule := pushPop(0)
	rule.Conditions = []func([]*cfg.Vertex) bool{
		func(chain []*cfg.Vertex) bool {
			return cfg.ExprEqual(chain[0].Instr.(cfg.Push).Value, cfg.Const{Value: 2})
		},
	}

	changed, err := rule.Apply(g)
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, []cfg.Kind{cfg.KindPush, cfg.KindPop, cfg.KindExit}, kinds(g))
}
