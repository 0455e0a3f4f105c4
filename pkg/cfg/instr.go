package cfg

// Kind identifies a vertex payload variant.
type Kind uint8

const (
	KindNop Kind = iota
	KindPush
	KindPop
	KindDup
	KindSwap
	KindBinaryMath
	KindNot
	KindDecision
	KindExprDecision
	KindRandom
	KindOutput
	KindExprOutput
	KindOutputString
	KindInput
	KindVarInput
	KindGet
	KindSet
	KindExprSet
	KindExprPopSet
	KindVarSet
	KindVarPopSet
	KindExit
	KindBlock
	KindDecisionBlock
)

var kindNames = [...]string{
	KindNop:           "nop",
	KindPush:          "push",
	KindPop:           "pop",
	KindDup:           "dup",
	KindSwap:          "swap",
	KindBinaryMath:    "binary-math",
	KindNot:           "not",
	KindDecision:      "decision",
	KindExprDecision:  "expr-decision",
	KindRandom:        "random",
	KindOutput:        "output",
	KindExprOutput:    "expr-output",
	KindOutputString:  "output-string",
	KindInput:         "input",
	KindVarInput:      "var-input",
	KindGet:           "get",
	KindSet:           "set",
	KindExprSet:       "expr-set",
	KindExprPopSet:    "expr-pop-set",
	KindVarSet:        "var-set",
	KindVarPopSet:     "var-pop-set",
	KindExit:          "exit",
	KindBlock:         "block",
	KindDecisionBlock: "decision-block",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IOMode selects numeric or character I/O.
type IOMode uint8

const (
	ModeInt IOMode = iota
	ModeChar
)

func (m IOMode) String() string {
	if m == ModeChar {
		return "char"
	}
	return "int"
}

// Instr is the payload of a vertex. The set of implementations is closed.
type Instr interface {
	Kind() Kind
}

type (
	// Nop does nothing.
	Nop struct{}
	// Push evaluates Value and pushes it.
	Push struct{ Value Expr }
	// Pop discards the top of the stack.
	Pop struct{}
	// Dup duplicates the top of the stack.
	Dup struct{}
	// Swap exchanges the two topmost values.
	Swap struct{}
	// BinaryMath pops a then b and pushes b Op a.
	BinaryMath struct{ Op BinaryOp }
	// Not replaces the top of the stack with its logical negation.
	Not struct{}
	// Decision pops a value and follows EdgeTrue when it is nonzero.
	Decision struct{}
	// ExprDecision follows EdgeTrue when Cond is nonzero.
	ExprDecision struct{ Cond Expr }
	// Random continues in one of its four children.
	Random struct{}
	// Output pops and prints a value.
	Output struct{ Mode IOMode }
	// ExprOutput prints Value.
	ExprOutput struct {
		Mode  IOMode
		Value Expr
	}
	// OutputString prints a constant string.
	OutputString struct{ Text string }
	// Input reads a value and pushes it.
	Input struct{ Mode IOMode }
	// VarInput reads a value into a variable.
	VarInput struct {
		Mode IOMode
		Var  VariableID
	}
	// Get pops y then x and pushes the grid cell at (x, y).
	Get struct{}
	// Set pops y, x, then v and stores v at (x, y).
	Set struct{}
	// ExprSet stores Value at (X, Y).
	ExprSet struct{ X, Y, Value Expr }
	// ExprPopSet pops a value and stores it at (X, Y).
	ExprPopSet struct{ X, Y Expr }
	// VarSet assigns Value to a variable.
	VarSet struct {
		Var   VariableID
		Value Expr
	}
	// VarPopSet pops a value into a variable.
	VarPopSet struct{ Var VariableID }
	// Exit terminates the program.
	Exit struct{}
	// Block runs Body in order.
	Block struct{ Body []Instr }
	// DecisionBlock runs Body and then branches on Cond, a Decision or ExprDecision.
	DecisionBlock struct {
		Body []Instr
		Cond Instr
	}
)

func (Nop) Kind() Kind           { return KindNop }
func (Push) Kind() Kind          { return KindPush }
func (Pop) Kind() Kind           { return KindPop }
func (Dup) Kind() Kind           { return KindDup }
func (Swap) Kind() Kind          { return KindSwap }
func (BinaryMath) Kind() Kind    { return KindBinaryMath }
func (Not) Kind() Kind           { return KindNot }
func (Decision) Kind() Kind      { return KindDecision }
func (ExprDecision) Kind() Kind  { return KindExprDecision }
func (Random) Kind() Kind        { return KindRandom }
func (Output) Kind() Kind        { return KindOutput }
func (ExprOutput) Kind() Kind    { return KindExprOutput }
func (OutputString) Kind() Kind  { return KindOutputString }
func (Input) Kind() Kind         { return KindInput }
func (VarInput) Kind() Kind      { return KindVarInput }
func (Get) Kind() Kind           { return KindGet }
func (Set) Kind() Kind           { return KindSet }
func (ExprSet) Kind() Kind       { return KindExprSet }
func (ExprPopSet) Kind() Kind    { return KindExprPopSet }
func (VarSet) Kind() Kind        { return KindVarSet }
func (VarPopSet) Kind() Kind     { return KindVarPopSet }
func (Exit) Kind() Kind          { return KindExit }
func (Block) Kind() Kind         { return KindBlock }
func (DecisionBlock) Kind() Kind { return KindDecisionBlock }

// IsDecision reports whether i branches on a condition and therefore owns
// EdgeTrue/EdgeFalse.
func IsDecision(i Instr) bool {
	switch i.(type) {
	case Decision, ExprDecision, DecisionBlock:
		return true
	}
	return false
}

// Effects returns the side-effect areas of an instruction.
func Effects(i Instr) Effect {
	const stack = StackRead | StackWrite
	switch x := i.(type) {
	case Nop:
		return 0
	case Push:
		return StackWrite | ExprEffects(x.Value)
	case Pop, Dup, Swap, BinaryMath, Not:
		return stack
	case Decision:
		return stack | Control
	case ExprDecision:
		return Control | ExprEffects(x.Cond)
	case Random, Exit:
		return Control
	case Output:
		return stack | IOWrite
	case ExprOutput:
		return IOWrite | ExprEffects(x.Value)
	case OutputString:
		return IOWrite
	case Input:
		return StackWrite | IORead | IOWrite
	case VarInput:
		return VarWrite | IORead | IOWrite
	case Get:
		return stack | GridRead
	case Set:
		return stack | GridWrite
	case ExprSet:
		return GridWrite | ExprEffects(x.X) | ExprEffects(x.Y) | ExprEffects(x.Value)
	case ExprPopSet:
		return stack | GridWrite | ExprEffects(x.X) | ExprEffects(x.Y)
	case VarSet:
		return VarWrite | ExprEffects(x.Value)
	case VarPopSet:
		return stack | VarWrite
	case Block:
		var e Effect
		for _, b := range x.Body {
			e |= Effects(b)
		}
		return e
	case DecisionBlock:
		e := Effects(x.Cond)
		for _, b := range x.Body {
			e |= Effects(b)
		}
		return e
	}
	return Control
}

// StackSignature returns how many values i pops and pushes. modeled is false
// for aggregates whose stack traffic cannot be attributed to single operands.
func StackSignature(i Instr) (pops, pushes int, modeled bool) {
	switch x := i.(type) {
	case Push, Input:
		return 0, 1, true
	case Pop, Decision, Output, ExprPopSet, VarPopSet:
		return 1, 0, true
	case Dup:
		return 1, 2, true
	case Swap:
		return 2, 2, true
	case BinaryMath, Get:
		return 2, 1, true
	case Not:
		return 1, 1, true
	case Set:
		return 3, 0, true
	case Block:
		pops, pushes = sequenceSignature(x.Body)
		return pops, pushes, pops == 0 && pushes == 0
	case DecisionBlock:
		pops, pushes = sequenceSignature(append(append([]Instr(nil), x.Body...), x.Cond))
		return pops, pushes, pops == 0 && pushes == 0
	}
	return 0, 0, true
}

// sequenceSignature folds the signatures of a straight-line sequence into one
// net pops/pushes pair.
func sequenceSignature(body []Instr) (pops, pushes int) {
	depth := 0
	for _, b := range body {
		p, q, _ := StackSignature(b)
		depth -= p
		if depth < 0 {
			pops += -depth
			depth = 0
		}
		depth += q
	}
	return pops, depth
}

// InstrEqual reports whether two payloads are identical.
func InstrEqual(a, b Instr) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Push:
		return ExprEqual(x.Value, b.(Push).Value)
	case BinaryMath:
		return x.Op == b.(BinaryMath).Op
	case ExprDecision:
		return ExprEqual(x.Cond, b.(ExprDecision).Cond)
	case Output:
		return x.Mode == b.(Output).Mode
	case ExprOutput:
		y := b.(ExprOutput)
		return x.Mode == y.Mode && ExprEqual(x.Value, y.Value)
	case OutputString:
		return x.Text == b.(OutputString).Text
	case Input:
		return x.Mode == b.(Input).Mode
	case VarInput:
		y := b.(VarInput)
		return x.Mode == y.Mode && x.Var == y.Var
	case ExprSet:
		y := b.(ExprSet)
		return ExprEqual(x.X, y.X) && ExprEqual(x.Y, y.Y) && ExprEqual(x.Value, y.Value)
	case ExprPopSet:
		y := b.(ExprPopSet)
		return ExprEqual(x.X, y.X) && ExprEqual(x.Y, y.Y)
	case VarSet:
		y := b.(VarSet)
		return x.Var == y.Var && ExprEqual(x.Value, y.Value)
	case VarPopSet:
		return x.Var == b.(VarPopSet).Var
	case Block:
		return bodyEqual(x.Body, b.(Block).Body)
	case DecisionBlock:
		y := b.(DecisionBlock)
		return InstrEqual(x.Cond, y.Cond) && bodyEqual(x.Body, y.Body)
	}
	return true
}

func bodyEqual(a, b []Instr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !InstrEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// InstrExprs returns the expressions embedded in i, including those of block bodies.
func InstrExprs(i Instr) []Expr {
	switch x := i.(type) {
	case Push:
		return []Expr{x.Value}
	case ExprDecision:
		return []Expr{x.Cond}
	case ExprOutput:
		return []Expr{x.Value}
	case ExprSet:
		return []Expr{x.X, x.Y, x.Value}
	case ExprPopSet:
		return []Expr{x.X, x.Y}
	case VarSet:
		return []Expr{x.Value}
	case Block:
		var out []Expr
		for _, b := range x.Body {
			out = append(out, InstrExprs(b)...)
		}
		return out
	case DecisionBlock:
		var out []Expr
		for _, b := range x.Body {
			out = append(out, InstrExprs(b)...)
		}
		return append(out, InstrExprs(x.Cond)...)
	}
	return nil
}

// MapInstrExprs rebuilds i with fn applied to every embedded expression.
func MapInstrExprs(i Instr, fn func(Expr) Expr) Instr {
	m := func(e Expr) Expr { return MapExpr(e, fn) }
	switch x := i.(type) {
	case Push:
		return Push{Value: m(x.Value)}
	case ExprDecision:
		return ExprDecision{Cond: m(x.Cond)}
	case ExprOutput:
		return ExprOutput{Mode: x.Mode, Value: m(x.Value)}
	case ExprSet:
		return ExprSet{X: m(x.X), Y: m(x.Y), Value: m(x.Value)}
	case ExprPopSet:
		return ExprPopSet{X: m(x.X), Y: m(x.Y)}
	case VarSet:
		return VarSet{Var: x.Var, Value: m(x.Value)}
	case Block:
		body := make([]Instr, len(x.Body))
		for n, b := range x.Body {
			body[n] = MapInstrExprs(b, fn)
		}
		return Block{Body: body}
	case DecisionBlock:
		body := make([]Instr, len(x.Body))
		for n, b := range x.Body {
			body[n] = MapInstrExprs(b, fn)
		}
		return DecisionBlock{Body: body, Cond: MapInstrExprs(x.Cond, fn)}
	}
	return i
}

// WrittenVariables returns the variables assigned by i.
func WrittenVariables(i Instr) []VariableID {
	switch x := i.(type) {
	case VarSet:
		return []VariableID{x.Var}
	case VarPopSet:
		return []VariableID{x.Var}
	case VarInput:
		return []VariableID{x.Var}
	case Block:
		var out []VariableID
		for _, b := range x.Body {
			out = append(out, WrittenVariables(b)...)
		}
		return out
	case DecisionBlock:
		var out []VariableID
		for _, b := range x.Body {
			out = append(out, WrittenVariables(b)...)
		}
		return out
	}
	return nil
}

// ReadVariables returns every variable read by i's expressions.
func ReadVariables(i Instr) []VariableID {
	var out []VariableID
	for _, e := range InstrExprs(i) {
		WalkExpr(e, func(x Expr) {
			if v, ok := x.(Var); ok {
				out = append(out, v.ID)
			}
		})
	}
	return out
}
