package cfg

import (
	"fmt"
	"strconv"
	"strings"
)

// Visitor handles every vertex payload variant. Code generators implement it
// to render a graph without type switches of their own.
type Visitor interface {
	VisitNop(Nop) error
	VisitPush(Push) error
	VisitPop(Pop) error
	VisitDup(Dup) error
	VisitSwap(Swap) error
	VisitBinaryMath(BinaryMath) error
	VisitNot(Not) error
	VisitDecision(Decision) error
	VisitExprDecision(ExprDecision) error
	VisitRandom(Random) error
	VisitOutput(Output) error
	VisitExprOutput(ExprOutput) error
	VisitOutputString(OutputString) error
	VisitInput(Input) error
	VisitVarInput(VarInput) error
	VisitGet(Get) error
	VisitSet(Set) error
	VisitExprSet(ExprSet) error
	VisitExprPopSet(ExprPopSet) error
	VisitVarSet(VarSet) error
	VisitVarPopSet(VarPopSet) error
	VisitExit(Exit) error
	VisitBlock(Block) error
	VisitDecisionBlock(DecisionBlock) error
}

// ExprVisitor handles every expression variant.
type ExprVisitor interface {
	VisitConst(Const) error
	VisitBinOp(BinOp) error
	VisitNotExpr(NotExpr) error
	VisitGridGet(GridGet) error
	VisitVar(Var) error
}

// Accept dispatches i to the matching Visitor method.
func Accept(i Instr, v Visitor) error {
	switch x := i.(type) {
	case Nop:
		return v.VisitNop(x)
	case Push:
		return v.VisitPush(x)
	case Pop:
		return v.VisitPop(x)
	case Dup:
		return v.VisitDup(x)
	case Swap:
		return v.VisitSwap(x)
	case BinaryMath:
		return v.VisitBinaryMath(x)
	case Not:
		return v.VisitNot(x)
	case Decision:
		return v.VisitDecision(x)
	case ExprDecision:
		return v.VisitExprDecision(x)
	case Random:
		return v.VisitRandom(x)
	case Output:
		return v.VisitOutput(x)
	case ExprOutput:
		return v.VisitExprOutput(x)
	case OutputString:
		return v.VisitOutputString(x)
	case Input:
		return v.VisitInput(x)
	case VarInput:
		return v.VisitVarInput(x)
	case Get:
		return v.VisitGet(x)
	case Set:
		return v.VisitSet(x)
	case ExprSet:
		return v.VisitExprSet(x)
	case ExprPopSet:
		return v.VisitExprPopSet(x)
	case VarSet:
		return v.VisitVarSet(x)
	case VarPopSet:
		return v.VisitVarPopSet(x)
	case Exit:
		return v.VisitExit(x)
	case Block:
		return v.VisitBlock(x)
	case DecisionBlock:
		return v.VisitDecisionBlock(x)
	}
	return fmt.Errorf("unsupported instruction %T", i)
}

// AcceptExpr dispatches e to the matching ExprVisitor method.
func AcceptExpr(e Expr, v ExprVisitor) error {
	switch x := e.(type) {
	case Const:
		return v.VisitConst(x)
	case BinOp:
		return v.VisitBinOp(x)
	case NotExpr:
		return v.VisitNotExpr(x)
	case GridGet:
		return v.VisitGridGet(x)
	case Var:
		return v.VisitVar(x)
	}
	return fmt.Errorf("unsupported expression %T", e)
}

// formatter renders payloads and expressions as one-line text.
type formatter struct {
	sb strings.Builder
}

// Format renders a payload for logs and text dumps.
func Format(i Instr) string {
	var f formatter
	if err := Accept(i, &f); err != nil {
		return fmt.Sprintf("<%T>", i)
	}
	return f.sb.String()
}

// FormatExpr renders an expression in infix notation.
func FormatExpr(e Expr) string {
	var f formatter
	f.expr(e)
	return f.sb.String()
}

func (f *formatter) expr(e Expr) {
	if err := AcceptExpr(e, f); err != nil {
		fmt.Fprintf(&f.sb, "<%T>", e)
	}
}

func (f *formatter) op(name string, exprs ...Expr) error {
	f.sb.WriteString(name)
	for _, e := range exprs {
		f.sb.WriteByte(' ')
		f.expr(e)
	}
	return nil
}

func (f *formatter) body(name string, body []Instr) {
	f.sb.WriteString(name)
	f.sb.WriteString(" {")
	for n, b := range body {
		if n > 0 {
			f.sb.WriteString(";")
		}
		f.sb.WriteByte(' ')
		_ = Accept(b, f)
	}
	f.sb.WriteString(" }")
}

func (f *formatter) VisitNop(Nop) error           { return f.op("nop") }
func (f *formatter) VisitPush(x Push) error       { return f.op("push", x.Value) }
func (f *formatter) VisitPop(Pop) error           { return f.op("pop") }
func (f *formatter) VisitDup(Dup) error           { return f.op("dup") }
func (f *formatter) VisitSwap(Swap) error         { return f.op("swap") }
func (f *formatter) VisitNot(Not) error           { return f.op("not") }
func (f *formatter) VisitDecision(Decision) error { return f.op("decision") }
func (f *formatter) VisitRandom(Random) error     { return f.op("random") }
func (f *formatter) VisitGet(Get) error           { return f.op("get") }
func (f *formatter) VisitSet(Set) error           { return f.op("set") }
func (f *formatter) VisitExit(Exit) error         { return f.op("exit") }

func (f *formatter) VisitBinaryMath(x BinaryMath) error {
	return f.op("binary-math " + x.Op.String())
}

func (f *formatter) VisitExprDecision(x ExprDecision) error {
	return f.op("decision", x.Cond)
}

func (f *formatter) VisitOutput(x Output) error {
	return f.op("output-" + x.Mode.String())
}

func (f *formatter) VisitExprOutput(x ExprOutput) error {
	return f.op("output-"+x.Mode.String(), x.Value)
}

func (f *formatter) VisitOutputString(x OutputString) error {
	return f.op("output-string " + strconv.Quote(x.Text))
}

func (f *formatter) VisitInput(x Input) error {
	return f.op("input-" + x.Mode.String())
}

func (f *formatter) VisitVarInput(x VarInput) error {
	return f.op("input-"+x.Mode.String(), Var{ID: x.Var})
}

func (f *formatter) VisitExprSet(x ExprSet) error {
	return f.op("set", x.X, x.Y, x.Value)
}

func (f *formatter) VisitExprPopSet(x ExprPopSet) error {
	return f.op("pop-set", x.X, x.Y)
}

func (f *formatter) VisitVarSet(x VarSet) error {
	f.expr(Var{ID: x.Var})
	f.sb.WriteString(" = ")
	f.expr(x.Value)
	return nil
}

func (f *formatter) VisitVarPopSet(x VarPopSet) error {
	return f.op("pop-into", Var{ID: x.Var})
}

func (f *formatter) VisitBlock(x Block) error {
	f.body("block", x.Body)
	return nil
}

func (f *formatter) VisitDecisionBlock(x DecisionBlock) error {
	f.body("block", x.Body)
	f.sb.WriteString(" then ")
	return Accept(x.Cond, f)
}

func (f *formatter) VisitConst(x Const) error {
	f.sb.WriteString(strconv.FormatInt(x.Value, 10))
	return nil
}

func (f *formatter) VisitBinOp(x BinOp) error {
	f.sb.WriteByte('(')
	f.expr(x.Left)
	f.sb.WriteString(" " + x.Op.String() + " ")
	f.expr(x.Right)
	f.sb.WriteByte(')')
	return nil
}

func (f *formatter) VisitNotExpr(x NotExpr) error {
	f.sb.WriteByte('!')
	f.expr(x.Value)
	return nil
}

func (f *formatter) VisitGridGet(x GridGet) error {
	f.sb.WriteString("grid[")
	f.expr(x.X)
	f.sb.WriteString(", ")
	f.expr(x.Y)
	f.sb.WriteByte(']')
	return nil
}

func (f *formatter) VisitVar(x Var) error {
	fmt.Fprintf(&f.sb, "v%d", x.ID)
	return nil
}
