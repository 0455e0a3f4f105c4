package snapshot

import (
	"github.com/l3aro/go-befunge-cfg/pkg/cfg"
)

// exporter converts payloads through the cfg visitor so every variant is
// handled in one place.
type exporter struct {
	out Instr
}

func exportInstr(i cfg.Instr) (Instr, error) {
	var e exporter
	if err := cfg.Accept(i, &e); err != nil {
		return Instr{}, err
	}
	return e.out, nil
}

func exportBody(body []cfg.Instr) ([]Instr, error) {
	out := make([]Instr, 0, len(body))
	for _, b := range body {
		in, err := exportInstr(b)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func (e *exporter) kind(k cfg.Kind) *Instr {
	e.out = Instr{Kind: k.String()}
	return &e.out
}

func (e *exporter) plain(k cfg.Kind) error {
	e.kind(k)
	return nil
}

func (e *exporter) VisitNop(x cfg.Nop) error           { return e.plain(x.Kind()) }
func (e *exporter) VisitPop(x cfg.Pop) error           { return e.plain(x.Kind()) }
func (e *exporter) VisitDup(x cfg.Dup) error           { return e.plain(x.Kind()) }
func (e *exporter) VisitSwap(x cfg.Swap) error         { return e.plain(x.Kind()) }
func (e *exporter) VisitNot(x cfg.Not) error           { return e.plain(x.Kind()) }
func (e *exporter) VisitDecision(x cfg.Decision) error { return e.plain(x.Kind()) }
func (e *exporter) VisitRandom(x cfg.Random) error     { return e.plain(x.Kind()) }
func (e *exporter) VisitGet(x cfg.Get) error           { return e.plain(x.Kind()) }
func (e *exporter) VisitSet(x cfg.Set) error           { return e.plain(x.Kind()) }
func (e *exporter) VisitExit(x cfg.Exit) error         { return e.plain(x.Kind()) }

func (e *exporter) VisitPush(x cfg.Push) error {
	out := e.kind(x.Kind())
	var err error
	out.Value, err = exportExpr(x.Value)
	return err
}

func (e *exporter) VisitBinaryMath(x cfg.BinaryMath) error {
	e.kind(x.Kind()).Op = x.Op.String()
	return nil
}

func (e *exporter) VisitExprDecision(x cfg.ExprDecision) error {
	out := e.kind(x.Kind())
	var err error
	out.Value, err = exportExpr(x.Cond)
	return err
}

func (e *exporter) VisitOutput(x cfg.Output) error {
	e.kind(x.Kind()).Mode = x.Mode.String()
	return nil
}

func (e *exporter) VisitExprOutput(x cfg.ExprOutput) error {
	out := e.kind(x.Kind())
	out.Mode = x.Mode.String()
	var err error
	out.Value, err = exportExpr(x.Value)
	return err
}

func (e *exporter) VisitOutputString(x cfg.OutputString) error {
	e.kind(x.Kind()).Text = x.Text
	return nil
}

func (e *exporter) VisitInput(x cfg.Input) error {
	e.kind(x.Kind()).Mode = x.Mode.String()
	return nil
}

func (e *exporter) VisitVarInput(x cfg.VarInput) error {
	out := e.kind(x.Kind())
	out.Mode = x.Mode.String()
	out.Var = ref(x.Var)
	return nil
}

func (e *exporter) VisitExprSet(x cfg.ExprSet) error {
	out := e.kind(x.Kind())
	var err error
	if out.X, err = exportExpr(x.X); err != nil {
		return err
	}
	if out.Y, err = exportExpr(x.Y); err != nil {
		return err
	}
	out.Value, err = exportExpr(x.Value)
	return err
}

func (e *exporter) VisitExprPopSet(x cfg.ExprPopSet) error {
	out := e.kind(x.Kind())
	var err error
	if out.X, err = exportExpr(x.X); err != nil {
		return err
	}
	out.Y, err = exportExpr(x.Y)
	return err
}

func (e *exporter) VisitVarSet(x cfg.VarSet) error {
	out := e.kind(x.Kind())
	out.Var = ref(x.Var)
	var err error
	out.Value, err = exportExpr(x.Value)
	return err
}

func (e *exporter) VisitVarPopSet(x cfg.VarPopSet) error {
	e.kind(x.Kind()).Var = ref(x.Var)
	return nil
}

func (e *exporter) VisitBlock(x cfg.Block) error {
	body, err := exportBody(x.Body)
	if err != nil {
		return err
	}
	e.kind(x.Kind()).Body = body
	return nil
}

func (e *exporter) VisitDecisionBlock(x cfg.DecisionBlock) error {
	body, err := exportBody(x.Body)
	if err != nil {
		return err
	}
	cond, err := exportInstr(x.Cond)
	if err != nil {
		return err
	}
	out := e.kind(x.Kind())
	out.Body = body
	out.Cond = &cond
	return nil
}

// exprExporter mirrors exporter for expressions.
type exprExporter struct {
	out *Expr
}

func exportExpr(x cfg.Expr) (*Expr, error) {
	var e exprExporter
	if err := cfg.AcceptExpr(x, &e); err != nil {
		return nil, err
	}
	return e.out, nil
}

func (e *exprExporter) VisitConst(x cfg.Const) error {
	e.out = &Expr{Kind: "const", Value: x.Value}
	return nil
}

func (e *exprExporter) VisitBinOp(x cfg.BinOp) error {
	left, err := exportExpr(x.Left)
	if err != nil {
		return err
	}
	right, err := exportExpr(x.Right)
	if err != nil {
		return err
	}
	e.out = &Expr{Kind: "binop", Op: x.Op.String(), Left: left, Right: right}
	return nil
}

func (e *exprExporter) VisitNotExpr(x cfg.NotExpr) error {
	inner, err := exportExpr(x.Value)
	if err != nil {
		return err
	}
	e.out = &Expr{Kind: "not", Left: inner}
	return nil
}

func (e *exprExporter) VisitGridGet(x cfg.GridGet) error {
	gx, err := exportExpr(x.X)
	if err != nil {
		return err
	}
	gy, err := exportExpr(x.Y)
	if err != nil {
		return err
	}
	e.out = &Expr{Kind: "grid", X: gx, Y: gy}
	return nil
}

func (e *exprExporter) VisitVar(x cfg.Var) error {
	e.out = &Expr{Kind: "var", Var: ref(x.ID)}
	return nil
}
