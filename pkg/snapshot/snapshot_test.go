package snapshot

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3aro/go-befunge-cfg/internal/log"
	"github.com/l3aro/go-befunge-cfg/pkg/cfg"
	"github.com/l3aro/go-befunge-cfg/pkg/grid"
	"github.com/l3aro/go-befunge-cfg/pkg/optimize"
)

func build(t *testing.T, src string) *cfg.Graph {
	t.Helper()
	gr, err := grid.Parse(src)
	require.NoError(t, err)
	g, err := cfg.Build(gr, true)
	require.NoError(t, err)
	return g
}

func optimized(t *testing.T, src string, level optimize.Level) *cfg.Graph {
	t.Helper()
	g := build(t, src)
	logger := log.New(log.LoggerConfig{Level: log.ErrorLevel, Stderr: io.Discard})
	_, err := optimize.New(optimize.Options{}, nil, logger).Run(g, level)
	require.NoError(t, err)
	return g
}

func TestTake_RawGraph(t *testing.T) {
	g := build(t, "&_@")

	s, err := Take(g)
	require.NoError(t, err)

	assert.Equal(t, 3, s.Width)
	assert.Equal(t, 1, s.Height)
	require.Len(t, s.Vertices, g.Len())
	assert.Equal(t, s.Root, s.Vertices[0].ID)
	assert.Equal(t, "input", s.Vertices[0].Instr.Kind)
	assert.Equal(t, "int", s.Vertices[0].Instr.Mode)

	var decisions int
	for _, v := range s.Vertices {
		if v.Instr.Kind != "decision" {
			assert.Nil(t, v.True)
			continue
		}
		decisions++
		require.NotNil(t, v.True)
		require.NotNil(t, v.False)
		assert.Contains(t, v.Children, *v.True)
		assert.Contains(t, v.Children, *v.False)
		assert.Equal(t, "left", s.Vertex(*v.False).Direction)
		assert.Equal(t, "right", s.Vertex(*v.True).Direction)
	}
	assert.Equal(t, 1, decisions)
	assert.Empty(t, s.Variables)
	assert.Len(t, s.Source, 3)
}

func TestTake_Variables(t *testing.T) {
	g := optimized(t, "01g.@\nx", optimize.LevelVariablize)

	s, err := Take(g)
	require.NoError(t, err)

	require.Len(t, s.Variables, 1)
	v := s.Variables[0]
	assert.True(t, v.User)
	assert.Equal(t, "m_0_1", v.Name)
	assert.Equal(t, int64('x'), v.Initial)
	require.NotNil(t, v.Cell)
	assert.Equal(t, grid.Position{X: 0, Y: 1}, *v.Cell)

	out := s.Vertex(s.Root)
	require.NotNil(t, out)
	assert.Equal(t, "expr-output", out.Instr.Kind)
	require.NotNil(t, out.Instr.Value)
	assert.Equal(t, "var", out.Instr.Value.Kind)
	assert.Equal(t, v.ID, *out.Instr.Value.Var)
}

func TestExportInstr_Trees(t *testing.T) {
	in := cfg.DecisionBlock{
		Body: []cfg.Instr{
			cfg.ExprSet{X: cfg.Const{Value: 1}, Y: cfg.Const{Value: 2}, Value: cfg.NotExpr{Value: cfg.Var{ID: 3}}},
			cfg.OutputString{Text: "hi"},
		},
		Cond: cfg.ExprDecision{Cond: cfg.BinOp{Op: cfg.OpGT, Left: cfg.GridGet{X: cfg.Const{Value: 0}, Y: cfg.Const{Value: 0}}, Right: cfg.Const{Value: 5}}},
	}

	got, err := exportInstr(in)
	require.NoError(t, err)

	assert.Equal(t, "decision-block", got.Kind)
	require.Len(t, got.Body, 2)
	set := got.Body[0]
	assert.Equal(t, "expr-set", set.Kind)
	assert.Equal(t, int64(1), set.X.Value)
	assert.Equal(t, int64(2), set.Y.Value)
	assert.Equal(t, "not", set.Value.Kind)
	assert.Equal(t, int32(3), *set.Value.Left.Var)
	assert.Equal(t, "hi", got.Body[1].Text)

	require.NotNil(t, got.Cond)
	cond := got.Cond.Value
	assert.Equal(t, "binop", cond.Kind)
	assert.Equal(t, ">", cond.Op)
	assert.Equal(t, "grid", cond.Left.Kind)
	assert.Equal(t, int64(5), cond.Right.Value)
}

func TestEncode_RoundTrip(t *testing.T) {
	sources := map[string]*cfg.Graph{
		"raw":       build(t, "&_@"),
		"optimized": optimized(t, "01g.&:+.@\nx", optimize.LevelReduce),
	}
	for name, g := range sources {
		s, err := Take(g)
		require.NoError(t, err)
		s.Level = name

		for _, format := range []Format{FormatJSON, FormatMsgpack} {
			t.Run(name+"/"+string(format), func(t *testing.T) {
				var buf bytes.Buffer
				require.NoError(t, Encode(&buf, s, format))

				got, err := Decode(&buf, format)
				require.NoError(t, err)
				assert.Equal(t, s, got)
			})
		}
	}
}

func TestWriteText(t *testing.T) {
	s, err := Take(build(t, "&_@"))
	require.NoError(t, err)
	s.Level = "minimize"

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, s, FormatText))

	out := buf.String()
	assert.Contains(t, out, "level: minimize\n")
	assert.Contains(t, out, "grid: 3x1, 5 vertices, 0 variables\n")
	assert.Contains(t, out, "> #0    input-int -> #1\n")
	assert.Contains(t, out, "  #1    decision ? #2 : #4\n")

	_, err = Decode(&buf, FormatText)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{" MsgPack ", FormatMsgpack, false},
		{"", FormatText, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
