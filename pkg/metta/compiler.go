package metta

// compileContext tracks local-variable slot assignment for one Chunk
// being compiled, plus captured upvalues for a nested lambda body, per
// spec.md section 4.6: "compile context tracks local names → slot
// indices, lexical scope depth, and captured upvalues with {index,
// is_local_to_parent}. Nested functions get a child context; upvalue
// resolution walks parents."
type compileContext struct {
	parent    *compileContext
	locals    map[string]int
	numLocals int
	upvalues  []upvalue
	constants []Value
	constIdx  map[string]int
}

type upvalue struct {
	index         int
	isLocalParent bool
}

const (
	maxLocals    = 65535
	maxConstants = 65535
)

func newCompileContext(parent *compileContext) *compileContext {
	return &compileContext{parent: parent, locals: map[string]int{}, constIdx: map[string]int{}}
}

func (c *compileContext) declareLocal(name string) (int, error) {
	if slot, ok := c.locals[name]; ok {
		return slot, nil
	}
	if c.numLocals >= maxLocals {
		return 0, NewMettaError(CompileError, NewAtom(name), "too many locals in chunk (max %d)", maxLocals)
	}
	slot := c.numLocals
	c.locals[name] = slot
	c.numLocals++
	return slot, nil
}

func (c *compileContext) resolveLocal(name string) (int, bool) {
	slot, ok := c.locals[name]
	return slot, ok
}

// resolveUpvalue walks parent contexts to find name as an enclosing
// local, recording the capture chain so nested lambda bodies can load it
// via OpLoadLocal against a synthesized upvalue slot.
func (c *compileContext) resolveUpvalue(name string) (int, bool) {
	if c.parent == nil {
		return 0, false
	}
	if slot, ok := c.parent.resolveLocal(name); ok {
		return c.addUpvalue(slot, true), true
	}
	if idx, ok := c.parent.resolveUpvalue(name); ok {
		return c.addUpvalue(idx, false), true
	}
	return 0, false
}

func (c *compileContext) addUpvalue(index int, isLocalParent bool) int {
	for i, uv := range c.upvalues {
		if uv.index == index && uv.isLocalParent == isLocalParent {
			return i
		}
	}
	c.upvalues = append(c.upvalues, upvalue{index: index, isLocalParent: isLocalParent})
	return len(c.upvalues) - 1
}

func (c *compileContext) constant(v Value) (int, error) {
	key := v.String()
	if idx, ok := c.constIdx[key]; ok {
		return idx, nil
	}
	if len(c.constants) >= maxConstants {
		return 0, NewMettaError(CompileError, v, "too many constants in chunk (max %d)", maxConstants)
	}
	idx := len(c.constants)
	c.constants = append(c.constants, v)
	c.constIdx[key] = idx
	return idx, nil
}

// binaryOpcodes maps a grounded arithmetic/comparison symbol to the VM
// opcode that implements it directly on the operand stack, avoiding a
// round trip through OpCall for the hot path the JIT tier also targets.
var binaryOpcodes = map[string]Opcode{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv, "%": OpMod, "pow": OpPow,
	"==": OpEq, "<": OpLt, "<=": OpLe, ">": OpGt, ">=": OpGe,
	"and": OpAnd, "or": OpOr,
}

// Compile lowers a Value AST to a Chunk, per spec.md section 4.6.
// Arithmetic, comparison, logic, and `if` compile to straight-line
// opcodes operating on the VM's operand stack; a reference to a bound
// local compiles to LoadLocal. A rule-headed call, a grounded operation
// beyond the arithmetic/logic set, or any other special form compiles to
// OpMakeSExpr+OpDispatchRules: the callee and every argument are compiled
// (so locals/upvalues inside them still resolve to VM slots instead of
// being frozen as unresolved symbols), reassembled at runtime, and handed
// to the VM's own rule-lookup/unification dispatch rather than an opaque
// round trip through the trampoline evaluator. OpDispatchRules still
// falls back to Eval for a grounded operation's own semantics and for the
// final "this is plain data" case — this is the same "tier" relationship
// spec.md section 4.7 describes between the VM and the JIT: the VM
// fast-paths what it can represent as opcodes and defers the rest to the
// next tier down.
func Compile(v Value) (*Chunk, error) {
	ctx := newCompileContext(nil)
	var code []Instruction
	if err := compileExpr(v, ctx, &code); err != nil {
		return nil, err
	}
	code = append(code, Instruction{Op: OpReturn})
	code = peephole(code)
	return &Chunk{Code: code, Constants: ctx.constants, NumLocals: ctx.numLocals}, nil
}

// CompileWithLocals compiles v in a context where each name in params is
// pre-declared as a local slot (used for lambda/rule bodies whose
// parameters are bound by the caller before entry).
func CompileWithLocals(v Value, params []string) (*Chunk, error) {
	ctx := newCompileContext(nil)
	for _, p := range params {
		if _, err := ctx.declareLocal(p); err != nil {
			return nil, err
		}
	}
	var code []Instruction
	if err := compileExpr(v, ctx, &code); err != nil {
		return nil, err
	}
	code = append(code, Instruction{Op: OpReturn})
	code = peephole(code)
	return &Chunk{Code: code, Constants: ctx.constants, NumLocals: ctx.numLocals}, nil
}

func compileExpr(v Value, ctx *compileContext, code *[]Instruction) error {
	switch {
	case v.IsNil():
		*code = append(*code, Instruction{Op: OpPushNil})
		return nil
	case v.IsUnit():
		*code = append(*code, Instruction{Op: OpPushUnit})
		return nil
	case v.IsVar():
		if slot, ok := ctx.resolveLocal(v.Symbol()); ok {
			*code = append(*code, Instruction{Op: OpLoadLocal, A: slot})
			return nil
		}
		if idx, ok := ctx.resolveUpvalue(v.Symbol()); ok {
			*code = append(*code, Instruction{Op: OpLoadLocal, A: idx})
			return nil
		}
		idx, err := ctx.constant(v)
		if err != nil {
			return err
		}
		*code = append(*code, Instruction{Op: OpPushConst, A: idx})
		return nil
	case v.IsSExpr():
		return compileSExpr(v, ctx, code)
	default:
		idx, err := ctx.constant(v)
		if err != nil {
			return err
		}
		*code = append(*code, Instruction{Op: OpPushConst, A: idx})
		return nil
	}
}

func compileSExpr(v Value, ctx *compileContext, code *[]Instruction) error {
	if v.Len() == 0 {
		idx, err := ctx.constant(v)
		if err != nil {
			return err
		}
		*code = append(*code, Instruction{Op: OpPushConst, A: idx})
		return nil
	}
	head := v.Head()
	args := v.Items()[1:]

	if head.IsAtom() && head.Symbol() == "if" && len(args) == 3 {
		return compileIf(args[0], args[1], args[2], ctx, code)
	}
	if head.IsAtom() && head.Symbol() == "not" && len(args) == 1 {
		if args[0].IsBool() {
			return compileExpr(NewBool(!args[0].Bool()), ctx, code)
		}
		if err := compileExpr(args[0], ctx, code); err != nil {
			return err
		}
		*code = append(*code, Instruction{Op: OpNot})
		return nil
	}
	if head.IsAtom() {
		if op, ok := binaryOpcodes[head.Symbol()]; ok && len(args) == 2 {
			if folded, ok := foldIdentity(head.Symbol(), args[0], args[1]); ok {
				return compileExpr(folded, ctx, code)
			}
			if err := compileExpr(args[0], ctx, code); err != nil {
				return err
			}
			if err := compileExpr(args[1], ctx, code); err != nil {
				return err
			}
			*code = append(*code, Instruction{Op: op})
			return nil
		}
	}

	// General call: compile the callee and every argument like any other
	// sub-expression (so bound locals/upvalues inside args resolve to VM
	// slots rather than being frozen as unresolved symbols), rebuild the
	// call at runtime with OpMakeSExpr, and let OpDispatchRules perform the
	// grounded-operation lookup, rule unification, and nondeterministic
	// fan-out itself. This is always correct (it is exactly what the
	// trampoline would do for the same expression) even when it is not the
	// fastest path; the arithmetic/comparison/if fast paths above are the
	// ones the JIT tier further specializes.
	if err := compileExpr(head, ctx, code); err != nil {
		return err
	}
	for _, a := range args {
		if err := compileExpr(a, ctx, code); err != nil {
			return err
		}
	}
	*code = append(*code, Instruction{Op: OpMakeSExpr, A: len(args) + 1})
	*code = append(*code, Instruction{Op: OpDispatchRules})
	return nil
}

// foldIdentity applies the compile-time constant folds spec.md section
// 4.6 lists among its peephole rules (Push 0; Add and Push 1; Mul
// collapse to the other operand) — done here, before either operand is
// compiled, since the literal value is already in hand. The Push True;
// Not fold is not done here but by compileSExpr's `not` branch, which
// negates a Bool literal argument at compile time. peephole.go's post-pass handles the rules that
// don't need constant inspection (Dup;Pop, Swap;Swap, Not;Not).
func foldIdentity(sym string, a, b Value) (Value, bool) {
	switch sym {
	case "+":
		if a.IsLong() && a.Long() == 0 {
			return b, true
		}
		if b.IsLong() && b.Long() == 0 {
			return a, true
		}
	case "*":
		if a.IsLong() && a.Long() == 1 {
			return b, true
		}
		if b.IsLong() && b.Long() == 1 {
			return a, true
		}
	}
	return Value{}, false
}

func compileIf(cond, thenExpr, elseExpr Value, ctx *compileContext, code *[]Instruction) error {
	if err := compileExpr(cond, ctx, code); err != nil {
		return err
	}
	jumpToElse := len(*code)
	*code = append(*code, Instruction{Op: OpJumpIfFalse})
	if err := compileExpr(thenExpr, ctx, code); err != nil {
		return err
	}
	jumpToEnd := len(*code)
	*code = append(*code, Instruction{Op: OpJump})
	elseStart := len(*code)
	if err := compileExpr(elseExpr, ctx, code); err != nil {
		return err
	}
	end := len(*code)
	(*code)[jumpToElse].A = elseStart
	(*code)[jumpToEnd].A = end
	return nil
}
