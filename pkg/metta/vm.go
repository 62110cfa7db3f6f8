package metta

import "math"

// VM is the stack machine described in spec.md section 4.6: an operand
// stack, a local-variable slot array, a binding-frame stack (pushed and
// popped by OpPushBindingFrame/OpPopBindingFrame; OpUnify/OpMatch are not
// executed by this VM), a choice-point stack (OpFork's
// alternative instruction offsets, restored on OpBacktrack), and a
// cut-marker stack (OpCut discards choice points back to the nearest
// marker). Capacities are fixed and hard-error on overflow rather than
// growing unboundedly, per spec.md's "configurable capacities... hard
// error on overflow" requirement.
type VM struct {
	env *Environment

	stack    []Value
	locals   []Value
	frames   []*Frame
	choices  []choicePoint
	cuts     []int
	results  []Value

	maxStack    int
	maxChoices  int
	maxResults  int
	maxFrames   int
	maxCutMarks int
}

type choicePoint struct {
	pc        int
	stackLen  int
	localsCow []Value
}

const (
	defaultMaxStack    = 1024
	defaultMaxChoices  = 64
	defaultMaxResults  = 256
	defaultMaxFrames   = 32
	defaultMaxCutMarks = 16
)

// NewVM builds a VM with spec.md's default capacities, bound to env for
// OpCall/OpSpaceAdd/... dispatch back into grounded operations, rules,
// and the Space.
func NewVM(env *Environment) *VM {
	return &VM{
		env:         env,
		maxStack:    defaultMaxStack,
		maxChoices:  defaultMaxChoices,
		maxResults:  defaultMaxResults,
		maxFrames:   defaultMaxFrames,
		maxCutMarks: defaultMaxCutMarks,
	}
}

func (vm *VM) push(v Value) error {
	if len(vm.stack) >= vm.maxStack {
		return NewMettaError(RuntimeError, v, "VM operand stack overflow (max %d)", vm.maxStack)
	}
	vm.stack = append(vm.stack, v)
	return nil
}

func (vm *VM) pop() (Value, error) {
	if len(vm.stack) == 0 {
		return Value{}, NewMettaError(RuntimeError, NewNil(), "VM operand stack underflow")
	}
	v := vm.stack[len(vm.stack)-1]
	vm.stack = vm.stack[:len(vm.stack)-1]
	return v, nil
}

func (vm *VM) top() (Value, error) {
	if len(vm.stack) == 0 {
		return Value{}, NewMettaError(RuntimeError, NewNil(), "VM operand stack underflow")
	}
	return vm.stack[len(vm.stack)-1], nil
}

// Run executes chunk to completion, returning every result OpReturn or
// OpYield/OpCollect accumulated before OpHalt/falling off the end. A
// single OpReturn with no prior OpFork produces exactly one result, the
// deterministic common case; OpFork/OpBacktrack let a chunk enumerate a
// nondeterministic result set the same way evalLoop's multi-rule branch
// does, but at the bytecode tier.
func (vm *VM) Run(chunk *Chunk) ([]Value, error) {
	vm.locals = make([]Value, chunk.NumLocals)
	vm.stack = vm.stack[:0]
	vm.choices = vm.choices[:0]
	vm.cuts = vm.cuts[:0]
	vm.results = vm.results[:0]

	pc := 0
	for {
		if pc >= len(chunk.Code) {
			return vm.results, nil
		}
		inst := chunk.Code[pc]
		next := pc + 1

		switch inst.Op {
		case OpPushConst:
			if inst.A < 0 || inst.A >= len(chunk.Constants) {
				return nil, NewMettaError(RuntimeError, NewNil(), "PushConst: constant index %d out of range", inst.A)
			}
			if err := vm.push(chunk.Constants[inst.A]); err != nil {
				return nil, err
			}
		case OpPushNil:
			if err := vm.push(NewNil()); err != nil {
				return nil, err
			}
		case OpPushUnit:
			if err := vm.push(NewUnit()); err != nil {
				return nil, err
			}
		case OpPop:
			if _, err := vm.pop(); err != nil {
				return nil, err
			}
		case OpDup:
			v, err := vm.top()
			if err != nil {
				return nil, err
			}
			if err := vm.push(v); err != nil {
				return nil, err
			}
		case OpSwap:
			b, err := vm.pop()
			if err != nil {
				return nil, err
			}
			a, err := vm.pop()
			if err != nil {
				return nil, err
			}
			if err := vm.push(b); err != nil {
				return nil, err
			}
			if err := vm.push(a); err != nil {
				return nil, err
			}

		case OpLoadLocal:
			if inst.A < 0 || inst.A >= len(vm.locals) {
				return nil, NewMettaError(RuntimeError, NewNil(), "LoadLocal: slot %d out of range", inst.A)
			}
			if err := vm.push(vm.locals[inst.A]); err != nil {
				return nil, err
			}
		case OpStoreLocal:
			v, err := vm.pop()
			if err != nil {
				return nil, err
			}
			if inst.A < 0 || inst.A >= len(vm.locals) {
				return nil, NewMettaError(RuntimeError, v, "StoreLocal: slot %d out of range", inst.A)
			}
			vm.locals[inst.A] = v

		case OpPushBindingFrame:
			if len(vm.frames) >= vm.maxFrames {
				return nil, NewMettaError(RuntimeError, NewNil(), "VM binding-frame stack overflow (max %d)", vm.maxFrames)
			}
			parent := NewFrame()
			if len(vm.frames) > 0 {
				parent = vm.frames[len(vm.frames)-1]
			}
			vm.frames = append(vm.frames, parent)
		case OpPopBindingFrame:
			if len(vm.frames) == 0 {
				return nil, NewMettaError(RuntimeError, NewNil(), "VM binding-frame stack underflow")
			}
			vm.frames = vm.frames[:len(vm.frames)-1]

		case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpPow:
			if err := vm.binaryArith(inst.Op); err != nil {
				return nil, err
			}
		case OpEq, OpLt, OpLe, OpGt, OpGe:
			if err := vm.binaryCompare(inst.Op); err != nil {
				return nil, err
			}
		case OpNot:
			v, err := vm.pop()
			if err != nil {
				return nil, err
			}
			if !v.IsBool() {
				return nil, NewMettaError(RuntimeError, v, "not: expected Bool operand")
			}
			if err := vm.push(NewBool(!v.Bool())); err != nil {
				return nil, err
			}
		case OpAnd, OpOr:
			if err := vm.binaryLogic(inst.Op); err != nil {
				return nil, err
			}

		case OpJump:
			next = inst.A
		case OpJumpIfFalse:
			v, err := vm.pop()
			if err != nil {
				return nil, err
			}
			if v.IsBool() && !v.Bool() {
				next = inst.A
			}
		case OpJumpIfTrue:
			v, err := vm.pop()
			if err != nil {
				return nil, err
			}
			if v.IsBool() && v.Bool() {
				next = inst.A
			}

		case OpReturn:
			v, err := vm.pop()
			if err != nil {
				return nil, err
			}
			vm.results = append(vm.results, v)
			if len(vm.choices) == 0 {
				return vm.results, nil
			}
			pc = vm.backtrack()
			next = pc
			continue
		case OpHalt:
			return vm.results, nil

		case OpCall, OpTailCall:
			if err := vm.call(chunk, inst); err != nil {
				return nil, err
			}

		case OpFork:
			if len(vm.choices) >= vm.maxChoices {
				return nil, NewMettaError(RuntimeError, NewNil(), "VM choice-point stack overflow (max %d)", vm.maxChoices)
			}
			vm.choices = append(vm.choices, choicePoint{
				pc:        inst.A,
				stackLen:  len(vm.stack),
				localsCow: append([]Value(nil), vm.locals...),
			})
		case OpYield:
			v, err := vm.top()
			if err != nil {
				return nil, err
			}
			if len(vm.results) >= vm.maxResults {
				return nil, NewMettaError(RuntimeError, v, "VM result buffer overflow (max %d)", vm.maxResults)
			}
			vm.results = append(vm.results, v)
		case OpCollect:
			// no-op marker: results already accumulated by OpYield/OpReturn.
		case OpFail:
			if len(vm.choices) == 0 {
				return vm.results, nil
			}
			pc = vm.backtrack()
			next = pc
			continue
		case OpBacktrack:
			if len(vm.choices) == 0 {
				return vm.results, nil
			}
			pc = vm.backtrack()
			next = pc
			continue
		case OpCut:
			if len(vm.cuts) == 0 {
				vm.choices = vm.choices[:0]
			} else {
				mark := vm.cuts[len(vm.cuts)-1]
				if mark < len(vm.choices) {
					vm.choices = vm.choices[:mark]
				}
			}
		case OpCommit:
			if len(vm.cuts) >= vm.maxCutMarks {
				return nil, NewMettaError(RuntimeError, NewNil(), "VM cut-marker stack overflow (max %d)", vm.maxCutMarks)
			}
			vm.cuts = append(vm.cuts, len(vm.choices))

		case OpGetHead:
			v, err := vm.pop()
			if err != nil {
				return nil, err
			}
			if err := vm.push(v.Head()); err != nil {
				return nil, err
			}
		case OpGetTail:
			v, err := vm.pop()
			if err != nil {
				return nil, err
			}
			if err := vm.push(v.Tail()); err != nil {
				return nil, err
			}
		case OpGetArity:
			v, err := vm.pop()
			if err != nil {
				return nil, err
			}
			if err := vm.push(NewLong(int64(v.Arity()))); err != nil {
				return nil, err
			}

		case OpMakeSExpr:
			if inst.A < 0 || len(vm.stack) < inst.A {
				return nil, NewMettaError(RuntimeError, NewNil(), "MakeSExpr: not enough operands for arity %d", inst.A)
			}
			items := append([]Value(nil), vm.stack[len(vm.stack)-inst.A:]...)
			vm.stack = vm.stack[:len(vm.stack)-inst.A]
			if err := vm.push(NewSExpr(items...)); err != nil {
				return nil, err
			}

		case OpSpaceAdd:
			v, err := vm.pop()
			if err != nil {
				return nil, err
			}
			vm.env.AddFact(v)
			if err := vm.push(NewUnit()); err != nil {
				return nil, err
			}
		case OpSpaceRemove:
			v, err := vm.pop()
			if err != nil {
				return nil, err
			}
			if err := vm.push(NewBool(vm.env.RemoveFact(v))); err != nil {
				return nil, err
			}
		case OpSpaceMatch:
			template, err := vm.pop()
			if err != nil {
				return nil, err
			}
			pattern, err := vm.pop()
			if err != nil {
				return nil, err
			}
			matched := false
			for _, fact := range vm.env.Space().Iter() {
				if frame, ok := Unify(pattern, fact, NewFrame()); ok {
					if err := vm.push(frame.Resolve(template)); err != nil {
						return nil, err
					}
					matched = true
				}
			}
			if !matched {
				if err := vm.push(NewSExpr()); err != nil {
					return nil, err
				}
			}

		case OpLoadGlobal:
			if inst.A < 0 || inst.A >= len(chunk.Constants) {
				return nil, NewMettaError(RuntimeError, NewNil(), "LoadGlobal: constant index %d out of range", inst.A)
			}
			name := chunk.Constants[inst.A].Symbol()
			v, ok := vm.env.Lookup(name)
			if !ok {
				return nil, NewMettaError(RuntimeError, NewAtom(name), "unbound global: %s", name)
			}
			if err := vm.push(v); err != nil {
				return nil, err
			}
		case OpStoreGlobal:
			v, err := vm.pop()
			if err != nil {
				return nil, err
			}
			if inst.A < 0 || inst.A >= len(chunk.Constants) {
				return nil, NewMettaError(RuntimeError, v, "StoreGlobal: constant index %d out of range", inst.A)
			}
			vm.env.Bind(chunk.Constants[inst.A].Symbol(), v)

		case OpCollectN:
			if inst.A < 0 || len(vm.stack) < inst.A {
				return nil, NewMettaError(RuntimeError, NewNil(), "CollectN: not enough operands for count %d", inst.A)
			}
			items := append([]Value(nil), vm.stack[len(vm.stack)-inst.A:]...)
			vm.stack = vm.stack[:len(vm.stack)-inst.A]
			vm.results = append(vm.results, items...)
		case OpReturnMulti:
			return vm.results, nil

		case OpDispatchRules:
			v, err := vm.pop()
			if err != nil {
				return nil, err
			}
			if err := vm.dispatchRules(v); err != nil {
				return nil, err
			}

		case OpMatch, OpUnify, OpLookupRules, OpCallNative:
			return nil, NewMettaError(CompileError, NewNil(), "VM: %s is reserved for the JIT/hybrid tier and is not executed directly", inst.Op)

		default:
			return nil, NewMettaError(CompileError, NewNil(), "VM: unknown opcode %v", inst.Op)
		}

		pc = next
	}
}

// backtrack pops the most recent choice point, restores the operand
// stack length and locals snapshot it recorded, and resumes at its
// alternative instruction offset.
func (vm *VM) backtrack() int {
	cp := vm.choices[len(vm.choices)-1]
	vm.choices = vm.choices[:len(vm.choices)-1]
	if cp.stackLen <= len(vm.stack) {
		vm.stack = vm.stack[:cp.stackLen]
	}
	vm.locals = append([]Value(nil), cp.localsCow...)
	return cp.pc
}

func (vm *VM) binaryArith(op Opcode) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	af, aok := numeric(a)
	bf, bok := numeric(b)
	if !aok || !bok {
		return NewMettaError(RuntimeError, NewSExpr(a, b), "%s: expected numeric operands", op)
	}
	var f float64
	switch op {
	case OpAdd:
		f = af + bf
	case OpSub:
		f = af - bf
	case OpMul:
		f = af * bf
	case OpDiv:
		if bf == 0 {
			return NewMettaError(RuntimeError, b, "division by zero")
		}
		f = af / bf
	case OpMod:
		if bf == 0 {
			return NewMettaError(RuntimeError, b, "modulo by zero")
		}
		f = math.Mod(af, bf)
	case OpPow:
		f = math.Pow(af, bf)
	}
	return vm.push(resultFor(a, b, f))
}

func (vm *VM) binaryCompare(op Opcode) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	if op == OpEq {
		af, aok := numeric(a)
		bf, bok := numeric(b)
		if aok && bok {
			return vm.push(NewBool(af == bf))
		}
		return vm.push(NewBool(Equivalent(a, b)))
	}
	af, aok := numeric(a)
	bf, bok := numeric(b)
	if !aok || !bok {
		return NewMettaError(RuntimeError, NewSExpr(a, b), "%s: expected numeric operands", op)
	}
	var result bool
	switch op {
	case OpLt:
		result = af < bf
	case OpLe:
		result = af <= bf
	case OpGt:
		result = af > bf
	case OpGe:
		result = af >= bf
	}
	return vm.push(NewBool(result))
}

func (vm *VM) binaryLogic(op Opcode) error {
	b, err := vm.pop()
	if err != nil {
		return err
	}
	a, err := vm.pop()
	if err != nil {
		return err
	}
	if !a.IsBool() || !b.IsBool() {
		return NewMettaError(RuntimeError, NewSExpr(a, b), "%s: expected Bool operands", op)
	}
	var result bool
	if op == OpAnd {
		result = a.Bool() && b.Bool()
	} else {
		result = a.Bool() || b.Bool()
	}
	return vm.push(NewBool(result))
}

// call dispatches OpCall/OpTailCall back through the trampoline
// evaluator: the constant pool holds a full, uncompiled SExpr, so the VM
// simply re-evaluates it with Eval. No path in compiler.go emits OpCall
// or OpTailCall; general calls compile to OpDispatchRules instead. OpTailCall is semantically identical
// here — there is no separate VM call frame to reuse since Eval itself is
// already stack-safe for tail position per trampoline.go.
func (vm *VM) call(chunk *Chunk, inst Instruction) error {
	if inst.A < 0 || inst.A >= len(chunk.Constants) {
		return NewMettaError(RuntimeError, NewNil(), "Call: constant index %d out of range", inst.A)
	}
	return vm.pushEvalResults(chunk.Constants[inst.A])
}

// dispatchRules is OpDispatchRules' implementation: given a fully
// assembled call expression (callee plus already-evaluated-in-place
// arguments, built by the preceding OpMakeSExpr), it performs the same
// head-dispatch order evalLoop does — grounded lazy/TCO operation first,
// then rule lookup and unification against the Space, then plain data —
// except the rule-lookup/unification step runs here as real VM work
// (Space.IterRules, Unify) instead of being delegated wholesale. Only a
// matched grounded operation's own execution and a matched rule's RHS
// evaluation recurse into Eval, exactly where evalLoop itself would
// recurse for genuine nondeterminism or a nested call.
func (vm *VM) dispatchRules(v Value) error {
	if !v.IsSExpr() || v.Len() == 0 {
		return vm.push(v)
	}
	head := v.Head()
	if !head.IsAtom() || head.IsVar() {
		return vm.pushEvalResults(v)
	}
	args := v.Items()[1:]
	evalFn := func(arg Value, env *Environment) ([]Value, *Environment) {
		return Eval(arg, env)
	}

	if op, ok := vm.env.Registry().LookupLazy(head.Symbol()); ok {
		out, err := op.ExecuteRaw(args, vm.env, evalFn)
		if err == nil {
			return vm.pushResults(out)
		}
		if !IsNoReduce(err) {
			return err
		}
	} else if op, ok := vm.env.Registry().LookupTCO(head.Symbol()); ok {
		out, err := runTrampolineOperation(op, args, vm.env, evalFn)
		if err == nil {
			return vm.pushResults(out)
		}
		if !IsNoReduce(err) {
			return err
		}
	}

	headSym, ok := v.HeadSymbol()
	if !ok {
		return vm.pushEvalResults(v)
	}
	rules := vm.env.Space().IterRules(headSym)
	var candidates []Value
	for _, rule := range rules {
		if frame, ok := Unify(rule.LHS, v, NewFrame()); ok {
			candidates = append(candidates, frame.Resolve(rule.RHS))
		}
	}
	switch len(candidates) {
	case 0:
		// No grounded op and no rule matched: this is evalLoop's
		// reduceOnce/data-term fallback, which Eval already implements.
		return vm.pushEvalResults(v)
	case 1:
		return vm.pushEvalResults(candidates[0])
	default:
		var all []Value
		for _, c := range candidates {
			results, newEnv := Eval(c, vm.env)
			vm.env = newEnv
			all = append(all, results...)
		}
		return vm.pushResults(all)
	}
}

// pushEvalResults runs Eval(v, vm.env), threads the (possibly mutated)
// Environment back into the VM, and pushes/accumulates its results via
// pushResults.
func (vm *VM) pushEvalResults(v Value) error {
	results, newEnv := Eval(v, vm.env)
	vm.env = newEnv
	return vm.pushResults(results)
}

// pushResults pushes results[0] onto the operand stack (or Nil if results
// is empty) and appends any further results directly to vm.results, the
// same multi-result convention OpYield/OpCollectN use.
func (vm *VM) pushResults(results []Value) error {
	if len(results) == 0 {
		return vm.push(NewNil())
	}
	for _, r := range results[1:] {
		vm.results = append(vm.results, r)
	}
	return vm.push(results[0])
}
