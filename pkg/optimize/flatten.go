package optimize

import (
	"strconv"

	"github.com/l3aro/go-befunge-cfg/pkg/cfg"
	"github.com/l3aro/go-befunge-cfg/pkg/rewrite"
)

var flattenGet = &rewrite.Rule{
	Name:  "flatten-get",
	Slots: []rewrite.Predicate{rewrite.Is[cfg.Push](), rewrite.Is[cfg.Push](), rewrite.Is[cfg.Get]()},
	Generate: func(c []*cfg.Vertex) []cfg.Instr {
		return []cfg.Instr{cfg.Push{Value: cfg.GridGet{X: pushed(c[0]), Y: pushed(c[1])}}}
	},
}

var flattenSet = &rewrite.Rule{
	Name:  "flatten-set",
	Slots: []rewrite.Predicate{rewrite.Is[cfg.Push](), rewrite.Is[cfg.Push](), rewrite.Is[cfg.Set]()},
	Generate: func(c []*cfg.Vertex) []cfg.Instr {
		return []cfg.Instr{cfg.ExprPopSet{X: pushed(c[0]), Y: pushed(c[1])}}
	},
}

var flattenSetValue = &rewrite.Rule{
	Name:  "flatten-set-value",
	Slots: []rewrite.Predicate{rewrite.Is[cfg.Push](), rewrite.Is[cfg.ExprPopSet]()},
	Generate: func(c []*cfg.Vertex) []cfg.Instr {
		set := c[1].Instr.(cfg.ExprPopSet)
		return []cfg.Instr{cfg.ExprSet{X: set.X, Y: set.Y, Value: pushed(c[0])}}
	},
}

// constText returns the text printed by an output whose value is known.
// Integers print with a trailing space.
func constText(i cfg.Instr) (string, bool) {
	switch x := i.(type) {
	case cfg.OutputString:
		return x.Text, true
	case cfg.ExprOutput:
		c, ok := x.Value.(cfg.Const)
		if !ok {
			return "", false
		}
		if x.Mode == cfg.ModeInt {
			return strconv.FormatInt(c.Value, 10) + " ", true
		}
		if c.Value < 0 || c.Value > 127 {
			return "", false
		}
		return string(rune(c.Value)), true
	}
	return "", false
}

func constOutput(i cfg.Instr) bool {
	_, ok := constText(i)
	return ok
}

var mergeOutputString = &rewrite.Rule{
	Name:  "merge-output-string",
	Slots: []rewrite.Predicate{rewrite.Where(constOutput), rewrite.Where(constOutput)},
	Generate: func(c []*cfg.Vertex) []cfg.Instr {
		a, _ := constText(c[0].Instr)
		b, _ := constText(c[1].Instr)
		return []cfg.Instr{cfg.OutputString{Text: a + b}}
	},
	Filler: 4,
	FillerOK: rewrite.Where(func(i cfg.Instr) bool {
		return !cfg.Effects(i).Touches(cfg.IORead | cfg.IOWrite)
	}),
}

var foldVarPopSet = &rewrite.Rule{
	Name:  "fold-var-pop-set",
	Slots: []rewrite.Predicate{rewrite.Is[cfg.Push](), rewrite.Is[cfg.VarPopSet]()},
	Generate: func(c []*cfg.Vertex) []cfg.Instr {
		v := c[1].Instr.(cfg.VarPopSet).Var
		return []cfg.Instr{cfg.VarSet{Var: v, Value: pushed(c[0])}}
	},
}
