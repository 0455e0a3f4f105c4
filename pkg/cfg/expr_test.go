package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinaryOp_Apply(t *testing.T) {
	tests := []struct {
		op          BinaryOp
		left, right int64
		want        int64
	}{
		{OpAdd, 2, 3, 5},
		{OpSub, 2, 3, -1},
		{OpMul, -4, 3, -12},
		{OpDiv, 7, 2, 3},
		{OpDiv, -7, 2, -3},
		{OpDiv, 7, 0, 0},
		{OpMod, 7, 3, 1},
		{OpMod, 7, 0, 0},
		{OpGT, 3, 2, 1},
		{OpGT, 2, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.op.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.op.Apply(tt.left, tt.right))
		})
	}
}

func TestNewBinOp_Folds(t *testing.T) {
	assert.Equal(t, Const{Value: 3}, NewBinOp(OpAdd, Const{Value: 1}, Const{Value: 2}))

	e := NewBinOp(OpAdd, Var{ID: 1}, Const{Value: 2})
	assert.Equal(t, BinOp{Op: OpAdd, Left: Var{ID: 1}, Right: Const{Value: 2}}, e)
}

func TestNewNot(t *testing.T) {
	assert.Equal(t, Const{Value: 1}, NewNot(Const{Value: 0}))
	assert.Equal(t, Const{Value: 0}, NewNot(Const{Value: 9}))

	cmp := BinOp{Op: OpGT, Left: Var{ID: 0}, Right: Const{Value: 1}}
	assert.Equal(t, cmp, NewNot(NewNot(cmp)))

	// !!x is 0 or 1, not x
	assert.Equal(t, NotExpr{Value: NotExpr{Value: Var{ID: 0}}}, NewNot(NewNot(Var{ID: 0})))
}

func TestEval(t *testing.T) {
	e := NewBinOp(OpMul, Var{ID: 2}, NewNot(Const{Value: 0}))
	lookup := func(id VariableID) (int64, bool) {
		if id == 2 {
			return 21, true
		}
		return 0, false
	}

	v, ok := Eval(e, lookup)
	require.True(t, ok)
	assert.Equal(t, int64(21), v)

	_, ok = Eval(e, nil)
	assert.False(t, ok)

	_, ok = Eval(GridGet{X: Const{}, Y: Const{}}, lookup)
	assert.False(t, ok)
}

func TestMapExpr_RefoldsAfterSubstitution(t *testing.T) {
	e := NewBinOp(OpAdd, Var{ID: 0}, NewBinOp(OpMul, Var{ID: 1}, Const{Value: 2}))

	got := MapExpr(e, func(x Expr) Expr {
		if v, ok := x.(Var); ok {
			return Const{Value: int64(v.ID) + 3}
		}
		return nil
	})
	assert.Equal(t, Const{Value: 11}, got)
}

func TestExprEffects(t *testing.T) {
	assert.Equal(t, Effect(0), ExprEffects(Const{Value: 1}))
	assert.Equal(t, GridRead|VarRead, ExprEffects(GridGet{X: Var{ID: 0}, Y: Const{}}))
}

func TestExprEqual(t *testing.T) {
	a := BinOp{Op: OpSub, Left: Var{ID: 1}, Right: GridGet{X: Const{Value: 1}, Y: Const{Value: 2}}}
	b := BinOp{Op: OpSub, Left: Var{ID: 1}, Right: GridGet{X: Const{Value: 1}, Y: Const{Value: 2}}}
	c := BinOp{Op: OpSub, Left: Var{ID: 1}, Right: GridGet{X: Const{Value: 2}, Y: Const{Value: 1}}}

	assert.True(t, ExprEqual(a, b))
	assert.False(t, ExprEqual(a, c))
	assert.False(t, ExprEqual(Var{ID: 1}, Const{Value: 1}))
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in   Instr
		want string
	}{
		{Push{Value: NewBinOp(OpAdd, Var{ID: 0}, Const{Value: 1})}, "push (v0 + 1)"},
		{ExprDecision{Cond: NotExpr{Value: Var{ID: 2}}}, "decision !v2"},
		{VarSet{Var: 1, Value: GridGet{X: Const{Value: 0}, Y: Const{Value: 3}}}, "v1 = grid[0, 3]"},
		{OutputString{Text: "hi\n"}, `output-string "hi\n"`},
		{Block{Body: []Instr{Pop{}, Output{Mode: ModeChar}}}, "block { pop; output-char }"},
		{DecisionBlock{Body: []Instr{Nop{}}, Cond: Decision{}}, "block { nop } then decision"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.in))
		})
	}
}

type bogusInstr struct{}

func (bogusInstr) Kind() Kind { return Kind(200) }

func TestAccept_UnknownInstruction(t *testing.T) {
	assert.Error(t, Accept(bogusInstr{}, &formatter{}))
	assert.Equal(t, "<cfg.bogusInstr>", Format(bogusInstr{}))
	assert.Equal(t, "unknown", bogusInstr{}.Kind().String())
}
