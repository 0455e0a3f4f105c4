package optimize

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-befunge-cfg/internal/log"
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

func quiet() log.Logger {
	return log.New(log.LoggerConfig{Level: log.ErrorLevel, Stderr: io.Discard})
}

func runTo(t *testing.T, g *cfg.Graph, level Level, opts Options) {
	t.Helper()
	results, err := New(opts, nil, quiet()).Run(g, level)
	require.NoError(t, err)
	for _, r := range results {
		require.False(t, r.CapHit, "level %s hit the iteration cap", r.Level)
	}
}

// straight follows single successors from the root.
func straight(g *cfg.Graph) []cfg.Instr {
	var out []cfg.Instr
	seen := map[cfg.VertexID]bool{}
	for v := g.Root(); v != nil && !seen[v.ID]; v = g.Vertex(v.Next()) {
		seen[v.ID] = true
		out = append(out, v.Instr)
	}
	return out
}

func countKind(g *cfg.Graph, k cfg.Kind) int {
	n := 0
	for _, v := range g.Vertices() {
		if v.Instr.Kind() == k {
			n++
		}
	}
	return n
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"minimize", LevelMinimize},
		{"Flatten", LevelFlatten},
		{" reduce ", LevelReduce},
		{"4", LevelUnstackify},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"fast", "8", "-1"} {
		_, err := ParseLevel(bad)
		assert.ErrorIs(t, err, ErrUnknownLevel, bad)
	}
	assert.Equal(t, "variablize", LevelVariablize.String())
	assert.Equal(t, "level(9)", Level(9).String())
}

func TestDefaultCatalog(t *testing.T) {
	passes := DefaultCatalog()

	names := make(map[string]bool)
	for _, p := range passes {
		assert.False(t, names[p.Name], "duplicate pass %s", p.Name)
		names[p.Name] = true
		assert.LessOrEqual(t, p.From, p.To, p.Name)
		assert.NotNil(t, p.Apply, p.Name)
	}

	var atUnstackify []string
	for _, p := range passes {
		if p.RunsAt(LevelUnstackify) {
			atUnstackify = append(atUnstackify, p.Name)
		}
	}
	assert.Contains(t, atUnstackify, "unstackify")
	assert.NotContains(t, atUnstackify, "form-blocks")

	var atReduce []string
	for _, p := range passes {
		if p.RunsAt(LevelReduce) {
			atReduce = append(atReduce, p.Name)
		}
	}
	assert.Equal(t, []string{"prune-decisions", "form-blocks", "merge-blocks", "fold-decision-block", "dedup-vertices"}, atReduce)
}

func TestRun_FoldsConstantArithmetic(t *testing.T) {
	g := build(t, "12+@")

	runTo(t, g, LevelSubstitute, Options{})

	assert.Equal(t, []cfg.Instr{cfg.Push{Value: cfg.Const{Value: 3}}, cfg.Exit{}}, straight(g))
	assert.Equal(t, 2, g.Len())
}

func TestRun_PrunesAlwaysTakenBranch(t *testing.T) {
	g := build(t, "v\n1\n|\n>12p@")
	require.NotZero(t, countKind(g, cfg.KindExit))

	runTo(t, g, LevelVariablize, Options{})

	for _, v := range g.Vertices() {
		for _, p := range v.Positions {
			assert.NotEqual(t, 3, p.Y, "vertex %s still covers the dead branch", v)
		}
	}
	assert.Zero(t, countKind(g, cfg.KindExit))
	assert.Zero(t, countKind(g, cfg.KindExprDecision))
	assert.Zero(t, countKind(g, cfg.KindDecision))
}

func TestRun_UnstackifyDupAdd(t *testing.T) {
	// an input value cannot be folded away, so the duplicate must live in a variable
	g := build(t, "&:+.@")
	o := New(Options{}, nil, quiet())

	_, err := o.RunLevel(g, LevelMinimize)
	require.NoError(t, err)
	res, err := o.RunLevel(g, LevelUnstackify)
	require.NoError(t, err)
	require.True(t, res.Changed)
	_, err = o.RunLevel(g, LevelSubstitute)
	require.NoError(t, err)

	require.Len(t, g.Variables(), 1)
	variable := g.Variables()[0]
	assert.False(t, variable.User)

	for _, k := range []cfg.Kind{cfg.KindPush, cfg.KindPop, cfg.KindDup, cfg.KindInput} {
		assert.Zero(t, countKind(g, k), k.String())
	}
	reads := 0
	for _, v := range g.Vertices() {
		for _, id := range cfg.ReadVariables(v.Instr) {
			if id == variable.ID {
				reads++
			}
		}
	}
	assert.Equal(t, 2, reads)

	ref := cfg.Var{ID: variable.ID}
	assert.Equal(t, []cfg.Instr{
		cfg.VarInput{Mode: cfg.ModeInt, Var: variable.ID},
		cfg.ExprOutput{Mode: cfg.ModeInt, Value: cfg.BinOp{Op: cfg.OpAdd, Left: ref, Right: ref}},
		cfg.Exit{},
	}, straight(g))
}

func TestRun_PromotesStaticMemory(t *testing.T) {
	g := build(t, "01g.11g.@\nxy")

	runTo(t, g, LevelVariablize, Options{})

	vars := g.Variables()
	require.Len(t, vars, 2)
	assert.True(t, vars[0].User)
	assert.Equal(t, grid.Position{X: 0, Y: 1}, vars[0].Cell)
	assert.Equal(t, int64('x'), vars[0].Initial)
	assert.Equal(t, grid.Position{X: 1, Y: 1}, vars[1].Cell)
	assert.Equal(t, int64('y'), vars[1].Initial)

	assert.Equal(t, []cfg.Instr{
		cfg.ExprOutput{Mode: cfg.ModeInt, Value: cfg.Var{ID: vars[0].ID}},
		cfg.ExprOutput{Mode: cfg.ModeInt, Value: cfg.Var{ID: vars[1].ID}},
		cfg.Exit{},
	}, straight(g))
	assert.Empty(t, g.StaticAccesses())
}

func TestRun_OutOfBoundsAccessKeepsPromotion(t *testing.T) {
	g := build(t, "01g.99g.@\nx")

	runTo(t, g, LevelVariablize, Options{})

	vars := g.Variables()
	require.Len(t, vars, 1)
	assert.Equal(t, grid.Position{X: 0, Y: 1}, vars[0].Cell)
	// the cell outside the grid stays a plain grid read
	assert.Len(t, g.StaticAccesses(), 1)
}

func TestNew_DefaultCatalog(t *testing.T) {
	o := New(Options{}, nil, quiet())

	var names []string
	for _, p := range o.Passes() {
		names = append(names, p.Name)
	}
	var want []string
	for _, p := range DefaultCatalog() {
		want = append(want, p.Name)
	}
	assert.Equal(t, want, names)
}

func TestRun_DynamicAccessBlocksPromotion(t *testing.T) {
	g := build(t, "01g.&&g.@\nxy")

	runTo(t, g, LevelVariablize, Options{})

	assert.Empty(t, g.Variables())
	assert.NotEmpty(t, g.DynamicAccesses())
	assert.Len(t, g.StaticAccesses(), 1)
}

func TestRun_SelfModification(t *testing.T) {
	t.Run("refused", func(t *testing.T) {
		g := build(t, "10g.@")
		_, err := New(Options{}, nil, quiet()).Run(g, LevelVariablize)
		require.ErrorIs(t, err, ErrSelfModification)

		var sm *SelfModificationError
		require.True(t, errors.As(err, &sm))
		assert.Equal(t, grid.Position{X: 1, Y: 0}, sm.Pos)
		assert.Contains(t, err.Error(), "promote-constant-memory")
	})

	t.Run("tolerated", func(t *testing.T) {
		g := build(t, "10g.@")
		runTo(t, g, LevelVariablize, Options{AllowSelfModification: true})
		assert.Empty(t, g.Variables())
		assert.Len(t, g.StaticAccesses(), 1)
	})
}

func TestRun_MergesOutputStrings(t *testing.T) {
	g := build(t, `"!olleH",,,,,,@`)

	runTo(t, g, LevelFlatten, Options{})

	assert.Equal(t, []cfg.Instr{cfg.OutputString{Text: "Hello!"}, cfg.Exit{}}, straight(g))
}

func TestRun_FormsBlocks(t *testing.T) {
	g := build(t, "&.&.@")

	runTo(t, g, LevelReduce, Options{})

	assert.Equal(t, []cfg.Instr{
		cfg.Block{Body: []cfg.Instr{
			cfg.Input{Mode: cfg.ModeInt},
			cfg.Output{Mode: cfg.ModeInt},
			cfg.Input{Mode: cfg.ModeInt},
			cfg.Output{Mode: cfg.ModeInt},
		}},
		cfg.Exit{},
	}, straight(g))
}

func TestRun_FoldsDecisionIntoBlock(t *testing.T) {
	g := build(t, "v\n>&_@")

	runTo(t, g, LevelReduce, Options{})

	assert.Zero(t, countKind(g, cfg.KindDecision))
	require.Equal(t, 1, countKind(g, cfg.KindDecisionBlock))
	for _, v := range g.Vertices() {
		if db, ok := v.Instr.(cfg.DecisionBlock); ok {
			assert.Equal(t, []cfg.Instr{cfg.Input{Mode: cfg.ModeInt}}, db.Body)
			assert.Equal(t, cfg.Decision{}, db.Cond)
		}
	}
}

func TestRun_SaturatedLevelsAreIdempotent(t *testing.T) {
	sources := []string{
		"12+@",
		"5:+.@",
		"&:1-..@",
		"v\n1\n|\n>12p@",
		`"!olleH",,,,,,@`,
		"v   >:1-:v\n>25*^    _$@",
		"01g.11g.@\nxy",
		"v\n>&_@",
		"?1.@\n2\n.\n@",
	}
	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			g := build(t, src)
			o := New(Options{}, nil, quiet())
			for _, l := range Levels() {
				res, err := o.RunLevel(g, l)
				require.NoError(t, err)
				require.False(t, res.CapHit)

				changed, err := o.Optimize(g, l)
				require.NoError(t, err)
				assert.False(t, changed, "level %s changed after saturating", l)
				require.NoError(t, g.Verify())
			}
		})
	}
}

func TestRunLevel_IterationCap(t *testing.T) {
	g := build(t, "5:+.@")
	o := New(Options{MaxIterations: 1}, nil, quiet())

	res, err := o.RunLevel(g, LevelSubstitute)
	require.NoError(t, err)
	assert.True(t, res.CapHit)
	assert.Equal(t, 1, res.Rounds)
}

func TestOptimize_LogsFiredPasses(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(log.LoggerConfig{Level: log.DebugLevel, Stderr: &buf})
	g := build(t, "12+@")

	results, err := New(Options{}, nil, logger).Run(g, LevelSubstitute)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, LevelSubstitute, results[1].Level)
	assert.True(t, results[1].Changed)

	assert.Contains(t, buf.String(), "pass fired pass=fold-binary level=substitute round=1")
	assert.Contains(t, buf.String(), "level done level=substitute rounds=2 vertices=2 variables=0")
}

func TestOptimize_WrapsPassErrors(t *testing.T) {
	boom := errors.New("boom")
	catalog := []Pass{{
		Name: "explode",
		From: LevelMinimize,
		To:   LevelMinimize,
		Apply: func(*cfg.Graph, Options) (bool, error) {
			return false, boom
		},
	}}
	g := build(t, "@")

	_, err := New(Options{}, catalog, quiet()).Optimize(g, LevelMinimize)
	require.ErrorIs(t, err, boom)
	assert.EqualError(t, err, "pass explode: boom")

	changed, err := New(Options{}, catalog, quiet()).Optimize(g, LevelSubstitute)
	require.NoError(t, err)
	assert.False(t, changed)
}
