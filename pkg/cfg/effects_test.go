package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var sampleInstrs = []Instr{
	Nop{},
	Push{Value: Const{Value: 1}},
	Push{Value: Var{ID: 0}},
	Push{Value: GridGet{X: Const{Value: 0}, Y: Const{Value: 0}}},
	Pop{},
	Dup{},
	Swap{},
	BinaryMath{Op: OpAdd},
	Decision{},
	ExprDecision{Cond: Var{ID: 0}},
	Random{},
	Output{Mode: ModeChar},
	ExprOutput{Mode: ModeInt, Value: Const{Value: 7}},
	OutputString{Text: "hi"},
	Input{Mode: ModeInt},
	VarInput{Mode: ModeInt, Var: 1},
	Get{},
	Set{},
	ExprSet{X: Const{Value: 1}, Y: Const{Value: 1}, Value: Const{Value: 3}},
	ExprPopSet{X: Const{Value: 1}, Y: Const{Value: 1}},
	VarSet{Var: 0, Value: Const{Value: 2}},
	VarPopSet{Var: 1},
	Exit{},
	Block{Body: []Instr{Push{Value: Const{Value: 1}}, Pop{}}},
}

func TestCanSwap_Symmetric(t *testing.T) {
	for _, a := range sampleInstrs {
		for _, b := range sampleInstrs {
			ea, eb := Effects(a), Effects(b)
			assert.Equal(t, CanSwap(ea, eb), CanSwap(eb, ea), "%s vs %s", Format(a), Format(b))
		}
	}
}

func TestCanSwap(t *testing.T) {
	tests := []struct {
		name string
		a, b Instr
		want bool
	}{
		{"push and string output", Push{Value: Const{Value: 1}}, OutputString{Text: "x"}, true},
		{"push and pop", Push{Value: Const{Value: 1}}, Pop{}, false},
		{"two pushes", Push{Value: Const{Value: 1}}, Push{Value: Const{Value: 2}}, false},
		{"var write and var read", VarSet{Var: 0, Value: Const{Value: 1}}, Push{Value: Var{ID: 0}}, false},
		{"two outputs", ExprOutput{Value: Const{Value: 1}}, OutputString{Text: "x"}, false},
		{"output and input", OutputString{Text: "x"}, VarInput{Var: 2}, false},
		{"grid write and grid read", ExprSet{X: Const{}, Y: Const{}, Value: Const{}}, VarSet{Var: 0, Value: GridGet{X: Const{}, Y: Const{}}}, false},
		{"two grid reads", VarSet{Var: 0, Value: GridGet{X: Const{}, Y: Const{}}}, Push{Value: GridGet{X: Const{}, Y: Const{}}}, true},
		{"control never moves", Nop{}, Exit{}, false},
		{"nop and pop", Nop{}, Pop{}, true},
		{"var set and string output", VarSet{Var: 0, Value: Const{Value: 1}}, OutputString{Text: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanSwap(Effects(tt.a), Effects(tt.b)))
		})
	}
}

func TestStackSignature(t *testing.T) {
	tests := []struct {
		in           Instr
		pops, pushes int
		modeled      bool
	}{
		{Push{Value: Const{}}, 0, 1, true},
		{Dup{}, 1, 2, true},
		{Swap{}, 2, 2, true},
		{Set{}, 3, 0, true},
		{Get{}, 2, 1, true},
		{VarSet{Value: Const{}}, 0, 0, true},
		{Block{Body: []Instr{Push{Value: Const{}}, Pop{}}}, 0, 0, true},
		{Block{Body: []Instr{Pop{}, Push{Value: Const{}}, Push{Value: Const{}}}}, 1, 2, false},
	}
	for _, tt := range tests {
		t.Run(Format(tt.in), func(t *testing.T) {
			pops, pushes, modeled := StackSignature(tt.in)
			assert.Equal(t, tt.pops, pops)
			assert.Equal(t, tt.pushes, pushes)
			assert.Equal(t, tt.modeled, modeled)
		})
	}
}

func TestEffect_String(t *testing.T) {
	assert.Equal(t, "none", Effect(0).String())
	assert.Equal(t, "stack-r|stack-w|control", Effects(Decision{}).String())
}
