package cfg

// BinaryOp is an arithmetic or comparison operator.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpGT
)

// Apply evaluates left op right. Division and modulo by zero yield 0.
func (op BinaryOp) Apply(left, right int64) int64 {
	switch op {
	case OpAdd:
		return left + right
	case OpSub:
		return left - right
	case OpMul:
		return left * right
	case OpDiv:
		if right == 0 {
			return 0
		}
		return left / right
	case OpMod:
		if right == 0 {
			return 0
		}
		return left % right
	case OpGT:
		if left > right {
			return 1
		}
		return 0
	}
	return 0
}

func (op BinaryOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpGT:
		return ">"
	}
	return "?"
}

// Expr is a side-effect free value computation. The set of implementations is closed.
type Expr interface {
	isExpr()
}

// Const is an integer literal.
type Const struct {
	Value int64
}

// BinOp combines two expressions with an operator.
type BinOp struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// NotExpr is logical negation: 1 if the operand is zero, else 0.
type NotExpr struct {
	Value Expr
}

// GridGet reads the grid cell at (X, Y).
type GridGet struct {
	X Expr
	Y Expr
}

// Var reads a variable.
type Var struct {
	ID VariableID
}

func (Const) isExpr()   {}
func (BinOp) isExpr()   {}
func (NotExpr) isExpr() {}
func (GridGet) isExpr() {}
func (Var) isExpr()     {}

// NewBinOp builds a binary expression, folding it when both sides are constant.
func NewBinOp(op BinaryOp, left, right Expr) Expr {
	l, lok := left.(Const)
	r, rok := right.(Const)
	if lok && rok {
		return Const{Value: op.Apply(l.Value, r.Value)}
	}
	return BinOp{Op: op, Left: left, Right: right}
}

// NewNot builds a negation, folding constants and double negation of comparisons.
func NewNot(e Expr) Expr {
	switch x := e.(type) {
	case Const:
		if x.Value == 0 {
			return Const{Value: 1}
		}
		return Const{Value: 0}
	case NotExpr:
		if isBoolean(x.Value) {
			return x.Value
		}
	}
	return NotExpr{Value: e}
}

func isBoolean(e Expr) bool {
	switch x := e.(type) {
	case NotExpr:
		return true
	case BinOp:
		return x.Op == OpGT
	case Const:
		return x.Value == 0 || x.Value == 1
	}
	return false
}

// ExprEffects returns the areas read while evaluating e.
func ExprEffects(e Expr) Effect {
	switch x := e.(type) {
	case Const:
		return 0
	case BinOp:
		return ExprEffects(x.Left) | ExprEffects(x.Right)
	case NotExpr:
		return ExprEffects(x.Value)
	case GridGet:
		return GridRead | ExprEffects(x.X) | ExprEffects(x.Y)
	case Var:
		return VarRead
	}
	return 0
}

// ExprEqual reports structural equality.
func ExprEqual(a, b Expr) bool {
	switch x := a.(type) {
	case Const:
		y, ok := b.(Const)
		return ok && x.Value == y.Value
	case BinOp:
		y, ok := b.(BinOp)
		return ok && x.Op == y.Op && ExprEqual(x.Left, y.Left) && ExprEqual(x.Right, y.Right)
	case NotExpr:
		y, ok := b.(NotExpr)
		return ok && ExprEqual(x.Value, y.Value)
	case GridGet:
		y, ok := b.(GridGet)
		return ok && ExprEqual(x.X, y.X) && ExprEqual(x.Y, y.Y)
	case Var:
		y, ok := b.(Var)
		return ok && x.ID == y.ID
	}
	return a == nil && b == nil
}

// IsConst reports whether e is a literal.
func IsConst(e Expr) bool {
	_, ok := e.(Const)
	return ok
}

// Eval folds e to a constant. lookup resolves variables; it may be nil, in
// which case any variable makes the expression non-constant. Grid reads are
// never constant.
func Eval(e Expr, lookup func(VariableID) (int64, bool)) (int64, bool) {
	switch x := e.(type) {
	case Const:
		return x.Value, true
	case BinOp:
		l, ok := Eval(x.Left, lookup)
		if !ok {
			return 0, false
		}
		r, ok := Eval(x.Right, lookup)
		if !ok {
			return 0, false
		}
		return x.Op.Apply(l, r), true
	case NotExpr:
		v, ok := Eval(x.Value, lookup)
		if !ok {
			return 0, false
		}
		if v == 0 {
			return 1, true
		}
		return 0, true
	case Var:
		if lookup == nil {
			return 0, false
		}
		return lookup(x.ID)
	}
	return 0, false
}

// MapExpr rebuilds e bottom-up, replacing every node for which fn returns a
// non-nil expression.
func MapExpr(e Expr, fn func(Expr) Expr) Expr {
	switch x := e.(type) {
	case BinOp:
		e = NewBinOp(x.Op, MapExpr(x.Left, fn), MapExpr(x.Right, fn))
	case NotExpr:
		e = NewNot(MapExpr(x.Value, fn))
	case GridGet:
		e = GridGet{X: MapExpr(x.X, fn), Y: MapExpr(x.Y, fn)}
	}
	if r := fn(e); r != nil {
		return r
	}
	return e
}

// WalkExpr calls fn for e and every sub-expression.
func WalkExpr(e Expr, fn func(Expr)) {
	fn(e)
	switch x := e.(type) {
	case BinOp:
		WalkExpr(x.Left, fn)
		WalkExpr(x.Right, fn)
	case NotExpr:
		WalkExpr(x.Value, fn)
	case GridGet:
		WalkExpr(x.X, fn)
		WalkExpr(x.Y, fn)
	}
}
