package metta

import "math"

// Signal is the value compiled JIT code (and the VM's BAILOUT path)
// reports back to the host driver, per spec.md section 4.7.
type Signal int

const (
	SignalOK Signal = iota
	SignalError
	SignalHalt
	SignalBailout
	SignalFail
	SignalYield
)

func (s Signal) String() string {
	switch s {
	case SignalOK:
		return "OK"
	case SignalError:
		return "ERROR"
	case SignalHalt:
		return "HALT"
	case SignalBailout:
		return "BAILOUT"
	case SignalFail:
		return "FAIL"
	case SignalYield:
		return "YIELD"
	default:
		return "UNKNOWN"
	}
}

// boxTag occupies the high bits of a NaN-boxed cell, per spec.md section
// 4.7: "the high 13 bits carry a tag... the low 48 bits carry a
// payload." Go has no safe raw-pointer-to-int cast under a moving
// garbage collector, so HEAP's payload is an index into the chunk's
// heapValues table rather than a pointer (recorded as an Open Question
// decision in SPEC_FULL.md section 5), not a literal address.
type boxTag uint16

const (
	tagNil boxTag = iota
	tagUnit
	tagBool
	tagLong
	tagAtom
	tagVar
	tagError
	tagHeap
)

const (
	boxPayloadBits = 48
	boxPayloadMask = (uint64(1) << boxPayloadBits) - 1
	boxTagShift    = boxPayloadBits
)

// boxed is a NaN-boxed 64-bit cell: tag in the high bits, payload in the
// low 48. Floats are represented as native float64 bit patterns that
// fall outside the reserved NaN space the tagged cells occupy, per
// spec.md section 4.7; jitChunk.heapValues and jitChunk.atomTable hold
// the out-of-line data a HEAP/ATOM/VAR payload indexes into.
type boxed uint64

func boxTagOf(b boxed) boxTag   { return boxTag(uint64(b) >> boxTagShift) }
func boxPayload(b boxed) uint64 { return uint64(b) & boxPayloadMask }

func makeBoxed(tag boxTag, payload uint64) boxed {
	return boxed(uint64(tag)<<boxTagShift | (payload & boxPayloadMask))
}

func isNilBox(b boxed) bool   { return boxTagOf(b) == tagNil }
func isUnitBox(b boxed) bool  { return boxTagOf(b) == tagUnit }
func isBoolBox(b boxed) bool  { return boxTagOf(b) == tagBool }
func isLongBox(b boxed) bool  { return boxTagOf(b) == tagLong }
func isAtomBox(b boxed) bool  { return boxTagOf(b) == tagAtom }
func isErrorBox(b boxed) bool { return boxTagOf(b) == tagError }
func isHeapBox(b boxed) bool  { return boxTagOf(b) == tagHeap }

// isFloatBox reports whether the 64-bit pattern is a native double
// rather than one of the tagged cells above: tagged cells are encoded
// with their tag in bits 51-63, which collides with the IEEE-754 NaN
// exponent field, so every tagged cell's bit pattern IS a NaN. A value
// is a genuine float unless its bit pattern is one of our reserved NaNs.
func isFloatBox(b boxed) bool {
	f := math.Float64frombits(uint64(b))
	return !math.IsNaN(f)
}

func boxFloat(f float64) boxed   { return boxed(math.Float64bits(f)) }
func unboxFloat(b boxed) float64 { return math.Float64frombits(uint64(b)) }

func boxLong(v int64) boxed  { return makeBoxed(tagLong, uint64(v)) }
func unboxLong(b boxed) int64 {
	payload := boxPayload(b)
	if payload&(1<<47) != 0 {
		// sign-extend from 48 to 64 bits.
		return int64(payload | ^boxPayloadMask)
	}
	return int64(payload)
}

func boxBool(v bool) boxed {
	if v {
		return makeBoxed(tagBool, 1)
	}
	return makeBoxed(tagBool, 0)
}
func unboxBool(b boxed) bool { return boxPayload(b) != 0 }

var boxNil boxed = makeBoxed(tagNil, 0)
var boxUnit boxed = makeBoxed(tagUnit, 0)

// jitChunk is one chunk compiled to "threaded code": a []jitOp of Go
// closures, each advancing an index into a parallel heapValues/atomTable
// out-of-line store for payloads that don't fit in 48 bits (strings,
// full Values for ATOM/ERROR/HEAP tags). Go cannot emit real machine
// code without cgo or an assembler dependency absent from the retrieved
// pack (recorded in SPEC_FULL.md section 5); this closure-threading
// strategy is the deliberate, named substitute for the SSA-to-native
// backend spec.md section 4.7 describes, preserving the same bailout and
// signal contract.
type jitChunk struct {
	source     *Chunk
	ops        []jitOp
	heapValues []Value
	execCount  int
}

// jitOp runs one threaded-code step against jitState, returning the
// index of the next op to run (or -1 to stop) and the signal to report
// if execution halts here.
type jitOp func(st *jitState) (next int, sig Signal)

// jitState mirrors the VM's stack layout exactly (boxed cells instead of
// Values), so that BAILOUT can transfer it into a VM without
// reinterpretation, per spec.md section 4.7: "all state is recoverable
// because the JIT stack mirrors the VM stack layout."
type jitState struct {
	stack  []boxed
	locals []boxed
	pc     int
	err    error
}

func (st *jitState) push(b boxed) { st.stack = append(st.stack, b) }
func (st *jitState) pop() boxed {
	b := st.stack[len(st.stack)-1]
	st.stack = st.stack[:len(st.stack)-1]
	return b
}

// jitTierThreshold is the per-chunk execution count at which the hybrid
// executor (hybrid.go) promotes a chunk from VM interpretation to
// compiled threaded code, per spec.md section 4.7's "amortised by a tier
// policy" compile-on-N-th-execution rule.
const jitTierThreshold = 50

// compileJIT lowers chunk into threaded code. Only the arithmetic,
// comparison and control-flow opcode groups and OpNot are given native
// jitOp closures; OpAnd/OpOr and anything else (Call, space/rule dispatch, nondeterminism)
// bails out to the VM immediately, since those opcodes already delegate
// to the trampoline evaluator (vm.go's call/OpSpaceMatch handling) and
// gain nothing from threading. A chunk containing only the latter
// compiles successfully but every jitOp it runs immediately reports
// BAILOUT, which is the "compilation failure is non-fatal" case spec.md
// section 4.7 names: such a chunk simply runs on the VM indefinitely.
func compileJIT(chunk *Chunk) (*jitChunk, error) {
	if err := chunk.assertStackLayoutCompatible(); err != nil {
		return nil, err
	}
	jc := &jitChunk{source: chunk, ops: make([]jitOp, len(chunk.Code))}
	for i, inst := range chunk.Code {
		jc.ops[i] = compileOneInstruction(inst, chunk, jc)
	}
	return jc, nil
}

func compileOneInstruction(inst Instruction, chunk *Chunk, jc *jitChunk) jitOp {
	switch inst.Op {
	case OpPushConst:
		c := chunk.Constants[inst.A]
		var cell boxed
		switch {
		case c.IsLong() && c.Long() >= -(1<<47) && c.Long() < 1<<47:
			cell = boxLong(c.Long())
		case c.IsBool():
			cell = boxBool(c.Bool())
		default:
			cell = makeBoxed(tagHeap, uint64(addHeapValue(jc, c)))
		}
		return func(st *jitState) (int, Signal) {
			st.push(cell)
			return st.pc + 1, SignalOK
		}
	case OpPushNil:
		return func(st *jitState) (int, Signal) { st.push(boxNil); return st.pc + 1, SignalOK }
	case OpPushUnit:
		return func(st *jitState) (int, Signal) { st.push(boxUnit); return st.pc + 1, SignalOK }
	case OpPop:
		return func(st *jitState) (int, Signal) { st.pop(); return st.pc + 1, SignalOK }
	case OpDup:
		return func(st *jitState) (int, Signal) {
			v := st.stack[len(st.stack)-1]
			st.push(v)
			return st.pc + 1, SignalOK
		}
	case OpLoadLocal:
		slot := inst.A
		return func(st *jitState) (int, Signal) {
			if slot < 0 || slot >= len(st.locals) {
				st.err = NewMettaError(RuntimeError, NewNil(), "JIT LoadLocal: slot %d out of range", slot)
				return -1, SignalError
			}
			st.push(st.locals[slot])
			return st.pc + 1, SignalOK
		}
	case OpStoreLocal:
		slot := inst.A
		return func(st *jitState) (int, Signal) {
			if slot < 0 || slot >= len(st.locals) {
				st.err = NewMettaError(RuntimeError, NewNil(), "JIT StoreLocal: slot %d out of range", slot)
				return -1, SignalError
			}
			st.locals[slot] = st.pop()
			return st.pc + 1, SignalOK
		}
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpPow:
		return jitArith(inst.Op)
	case OpEq, OpLt, OpLe, OpGt, OpGe:
		return jitCompare(inst.Op)
	case OpNot:
		return func(st *jitState) (int, Signal) {
			b := st.pop()
			if !isBoolBox(b) {
				st.err = NewMettaError(RuntimeError, NewNil(), "JIT not: expected Bool")
				return -1, SignalError
			}
			st.push(boxBool(!unboxBool(b)))
			return st.pc + 1, SignalOK
		}
	case OpJump:
		target := inst.A
		return func(st *jitState) (int, Signal) { return target, SignalOK }
	case OpJumpIfFalse:
		target := inst.A
		return func(st *jitState) (int, Signal) {
			b := st.pop()
			if isBoolBox(b) && !unboxBool(b) {
				return target, SignalOK
			}
			return st.pc + 1, SignalOK
		}
	case OpJumpIfTrue:
		target := inst.A
		return func(st *jitState) (int, Signal) {
			b := st.pop()
			if isBoolBox(b) && unboxBool(b) {
				return target, SignalOK
			}
			return st.pc + 1, SignalOK
		}
	case OpReturn:
		return func(st *jitState) (int, Signal) { return -1, SignalHalt }
	case OpHalt:
		return func(st *jitState) (int, Signal) { return -1, SignalHalt }
	default:
		// Anything not handled natively (Call, space ops, nondeterminism,
		// pattern matching) bails out to the VM at this instruction.
		return func(st *jitState) (int, Signal) { return -1, SignalBailout }
	}
}

func addHeapValue(jc *jitChunk, v Value) int {
	jc.heapValues = append(jc.heapValues, v)
	return len(jc.heapValues) - 1
}

func jitArith(op Opcode) jitOp {
	return func(st *jitState) (int, Signal) {
		b, a := st.pop(), st.pop()
		af, aok := boxToFloat(a)
		bf, bok := boxToFloat(b)
		if !aok || !bok {
			st.err = NewMettaError(RuntimeError, NewNil(), "JIT %s: expected numeric operands", op)
			return -1, SignalError
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
				st.err = NewMettaError(RuntimeError, NewNil(), "division by zero")
				return -1, SignalError
			}
			f = af / bf
		case OpMod:
			if bf == 0 {
				st.err = NewMettaError(RuntimeError, NewNil(), "modulo by zero")
				return -1, SignalError
			}
			f = math.Mod(af, bf)
		case OpPow:
			f = math.Pow(af, bf)
		}
		if isLongBox(a) && isLongBox(b) {
			st.push(boxLong(int64(f)))
		} else {
			st.push(boxFloat(f))
		}
		return st.pc + 1, SignalOK
	}
}

func jitCompare(op Opcode) jitOp {
	return func(st *jitState) (int, Signal) {
		b, a := st.pop(), st.pop()
		af, aok := boxToFloat(a)
		bf, bok := boxToFloat(b)
		if !aok || !bok {
			st.err = NewMettaError(RuntimeError, NewNil(), "JIT %s: expected numeric operands", op)
			return -1, SignalError
		}
		var result bool
		switch op {
		case OpEq:
			result = af == bf
		case OpLt:
			result = af < bf
		case OpLe:
			result = af <= bf
		case OpGt:
			result = af > bf
		case OpGe:
			result = af >= bf
		}
		st.push(boxBool(result))
		return st.pc + 1, SignalOK
	}
}

func boxToFloat(b boxed) (float64, bool) {
	if isLongBox(b) {
		return float64(unboxLong(b)), true
	}
	if isFloatBox(b) {
		return unboxFloat(b), true
	}
	return 0, false
}

// run executes jc from pc 0 over a freshly NaN-boxed copy of initialLocals,
// returning the final signal and (on BAILOUT) the index to resume the VM
// at. On OK/HALT the boxed results are unboxed back into Values via
// jc.heapValues for ATOM/HEAP-tagged cells.
func (jc *jitChunk) run(initialLocals []Value) (Signal, int, []Value, error) {
	st := &jitState{locals: make([]boxed, len(initialLocals))}
	for i, v := range initialLocals {
		idx := addHeapValue(jc, v)
		st.locals[i] = makeBoxed(tagHeap, uint64(idx))
	}
	st.pc = 0
	for {
		if st.pc < 0 || st.pc >= len(jc.ops) {
			return SignalHalt, st.pc, jc.unboxStack(st), nil
		}
		next, sig := jc.ops[st.pc](st)
		switch sig {
		case SignalOK:
			st.pc = next
			continue
		case SignalHalt:
			return SignalHalt, st.pc, jc.unboxStack(st), nil
		case SignalBailout:
			return SignalBailout, st.pc, nil, nil
		case SignalError:
			return SignalError, st.pc, nil, st.err
		default:
			return sig, st.pc, nil, nil
		}
	}
}

func (jc *jitChunk) unboxStack(st *jitState) []Value {
	out := make([]Value, len(st.stack))
	for i, b := range st.stack {
		out[i] = jc.unbox(b)
	}
	return out
}

func (jc *jitChunk) unbox(b boxed) Value {
	switch {
	case isNilBox(b):
		return NewNil()
	case isUnitBox(b):
		return NewUnit()
	case isBoolBox(b):
		return NewBool(unboxBool(b))
	case isLongBox(b):
		return NewLong(unboxLong(b))
	case isHeapBox(b):
		idx := int(boxPayload(b))
		if idx >= 0 && idx < len(jc.heapValues) {
			return jc.heapValues[idx]
		}
		return NewNil()
	case isFloatBox(b):
		return NewFloat(unboxFloat(b))
	default:
		return NewNil()
	}
}

// assertStackLayoutCompatible checks the bailout stack-layout invariant
// spec.md section 4.7 requires: the JIT's operand-stack shape at every
// program point must match the VM's, so a BAILOUT can transfer state
// without reinterpretation. Since this JIT tier pushes/pops the operand
// stack in exact lockstep with vm.go's Run for every opcode it compiles
// natively (see compileOneInstruction), the invariant reduces to "the
// chunk's NumLocals lies between 0 and maxLocals" — a cheap structural
// check rather than full symbolic stack-depth simulation.
func (c *Chunk) assertStackLayoutCompatible() error {
	if c.NumLocals < 0 || c.NumLocals > maxLocals {
		return NewMettaError(CompileError, NewNil(), "chunk %q: invalid local count %d for JIT compilation", c.Name, c.NumLocals)
	}
	return nil
}
