package optimize

import (
	"github.com/l3aro/go-befunge-cfg/pkg/cfg"
	"github.com/l3aro/go-befunge-cfg/pkg/rewrite"
)

// linear matches vertices that fall through to exactly one successor.
func linear(v *cfg.Vertex) bool {
	return len(v.Children) == 1 && cfg.Effects(v.Instr)&cfg.Control == 0
}

func pushed(v *cfg.Vertex) cfg.Expr {
	return v.Instr.(cfg.Push).Value
}

func stackFree(i cfg.Instr) bool {
	return !cfg.Effects(i).Touches(cfg.StackRead | cfg.StackWrite)
}

var nopMergeForward = &rewrite.Rule{
	Name:  "nop-merge-forward",
	Slots: []rewrite.Predicate{rewrite.Is[cfg.Nop](), rewrite.Any()},
	Generate: func(c []*cfg.Vertex) []cfg.Instr {
		return []cfg.Instr{c[1].Instr}
	},
	NoExtract: true,
}

var nopMergeBackward = &rewrite.Rule{
	Name:  "nop-merge-backward",
	Slots: []rewrite.Predicate{linear, rewrite.Is[cfg.Nop]()},
	Generate: func(c []*cfg.Vertex) []cfg.Instr {
		return []cfg.Instr{c[0].Instr}
	},
	NoExtract: true,
}

// nopDecisionTarget points a branch that lands on a no-op straight at the
// no-op's successor.
func nopDecisionTarget(g *cfg.Graph, _ Options) (bool, error) {
	for _, id := range g.DFS() {
		v := g.Vertex(id)
		if len(v.Children) < 2 {
			continue
		}
		for _, c := range v.Children {
			t := g.Vertex(c)
			if t.Instr.Kind() != cfg.KindNop || len(t.Children) != 1 {
				continue
			}
			next := t.Children[0]
			if next == t.ID || next == g.RootID() {
				continue
			}
			if len(t.Parents) == 1 {
				g.MovePositions(t.ID, next)
			}
			return true, g.RedirectEdge(id, t.ID, next)
		}
	}
	return false, nil
}

// decisionSameBranches drops decisions whose two edges lead to the same vertex.
func decisionSameBranches(g *cfg.Graph, _ Options) (bool, error) {
	for _, id := range g.DFS() {
		v := g.Vertex(id)
		if !v.IsDecision() || v.EdgeTrue != v.EdgeFalse {
			continue
		}
		return true, g.ResolveDecision(id, true, discardCondition(v.Instr))
	}
	return false, nil
}

// discardCondition returns the straight-line remainder of a decision once its
// outcome no longer matters.
func discardCondition(i cfg.Instr) cfg.Instr {
	switch x := i.(type) {
	case cfg.Decision:
		return cfg.Pop{}
	case cfg.DecisionBlock:
		body := append([]cfg.Instr(nil), x.Body...)
		if _, ok := x.Cond.(cfg.Decision); ok {
			body = append(body, cfg.Pop{})
		}
		if len(body) == 0 {
			return cfg.Nop{}
		}
		return cfg.Block{Body: body}
	}
	return cfg.Nop{}
}

var foldBinary = &rewrite.Rule{
	Name:  "fold-binary",
	Slots: []rewrite.Predicate{rewrite.Is[cfg.Push](), rewrite.Is[cfg.Push](), rewrite.Is[cfg.BinaryMath]()},
	Generate: func(c []*cfg.Vertex) []cfg.Instr {
		op := c[2].Instr.(cfg.BinaryMath).Op
		return []cfg.Instr{cfg.Push{Value: cfg.NewBinOp(op, pushed(c[0]), pushed(c[1]))}}
	},
}

var foldNot = &rewrite.Rule{
	Name:  "fold-not",
	Slots: []rewrite.Predicate{rewrite.Is[cfg.Push](), rewrite.Is[cfg.Not]()},
	Generate: func(c []*cfg.Vertex) []cfg.Instr {
		return []cfg.Instr{cfg.Push{Value: cfg.NewNot(pushed(c[0]))}}
	},
}

var pushSwap = &rewrite.Rule{
	Name:  "push-swap",
	Slots: []rewrite.Predicate{rewrite.Is[cfg.Push](), rewrite.Is[cfg.Push](), rewrite.Is[cfg.Swap]()},
	Generate: func(c []*cfg.Vertex) []cfg.Instr {
		return []cfg.Instr{c[1].Instr, c[0].Instr}
	},
}

var pushDup = &rewrite.Rule{
	Name:  "push-dup",
	Slots: []rewrite.Predicate{rewrite.Is[cfg.Push](), rewrite.Is[cfg.Dup]()},
	Generate: func(c []*cfg.Vertex) []cfg.Instr {
		return []cfg.Instr{c[0].Instr, c[0].Instr}
	},
}

var pushPop = &rewrite.Rule{
	Name:     "push-pop",
	Slots:    []rewrite.Predicate{rewrite.Is[cfg.Push](), rewrite.Is[cfg.Pop]()},
	Generate: func([]*cfg.Vertex) []cfg.Instr { return nil },
	Filler:   4,
	FillerOK: rewrite.Where(stackFree),
}

var swapSwap = &rewrite.Rule{
	Name:     "swap-swap",
	Slots:    []rewrite.Predicate{rewrite.Is[cfg.Swap](), rewrite.Is[cfg.Swap]()},
	Generate: func([]*cfg.Vertex) []cfg.Instr { return nil },
}

var dupPop = &rewrite.Rule{
	Name:     "dup-pop",
	Slots:    []rewrite.Predicate{rewrite.Is[cfg.Dup](), rewrite.Is[cfg.Pop]()},
	Generate: func([]*cfg.Vertex) []cfg.Instr { return nil },
}

var foldDecision = &rewrite.Rule{
	Name:  "fold-decision",
	Slots: []rewrite.Predicate{rewrite.Is[cfg.Push](), rewrite.Is[cfg.Decision]()},
	Generate: func(c []*cfg.Vertex) []cfg.Instr {
		return []cfg.Instr{cfg.ExprDecision{Cond: pushed(c[0])}}
	},
}

var foldOutput = &rewrite.Rule{
	Name:  "fold-output",
	Slots: []rewrite.Predicate{rewrite.Is[cfg.Push](), rewrite.Is[cfg.Output]()},
	Generate: func(c []*cfg.Vertex) []cfg.Instr {
		mode := c[1].Instr.(cfg.Output).Mode
		return []cfg.Instr{cfg.ExprOutput{Mode: mode, Value: pushed(c[0])}}
	},
	Filler:   4,
	FillerOK: rewrite.Where(stackFree),
}
