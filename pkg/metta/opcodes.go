package metta

// Opcode is a single VM instruction, grounded on the opcode-enum idiom
// seen across the retrieved pack's own bytecode VMs (e.g. funxy's
// internal/vm/opcodes.go), adapted to the operation groups spec.md
// section 4.6 names. compileSExpr lowers a rule-headed call or any
// grounded operation outside the arithmetic/logic fast path to
// OpMakeSExpr+OpDispatchRules, and OpDispatchRules (see vm.go's
// dispatchRules) performs the grounded-operation lookup and rule
// unification itself rather than deferring the whole expression; only a
// matched operation's own execution or a matched rule's RHS evaluation
// recurses into Eval. OpMatch/OpUnify/OpLookupRules stay reserved for a
// future explicit match/case lowering: the per-rule unify loop
// dispatchRules needs is naturally a Go loop over a runtime-sized rule
// set, not a fixed number of bytecode instructions known at compile time,
// so today nothing emits them.
type Opcode byte

const (
	// Stack
	OpPushConst Opcode = iota
	OpPushNil
	OpPushUnit
	OpPop
	OpDup
	OpSwap

	// Locals / binding frame
	OpLoadLocal
	OpStoreLocal
	OpPushBindingFrame
	OpPopBindingFrame

	// Arithmetic / comparison / logic (operands already on stack)
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpEq
	OpLt
	OpLe
	OpGt
	OpGe
	OpNot
	OpAnd
	OpOr

	// Control flow
	OpJump
	OpJumpIfFalse
	OpJumpIfTrue
	OpReturn
	OpHalt

	// Calls
	OpCall       // re-evaluate a literal constant-pool expression via Eval
	OpTailCall   // same, but reuses the current VM frame (no stack growth)
	OpCallNative // call a Go-native closure installed by the JIT/hybrid tier

	// Nondeterminism / backtracking
	OpFork   // push a choice point for an alternative instruction offset
	OpYield  // stash current stack top into the pending-results vector
	OpCollect
	OpFail
	OpCut
	OpBacktrack
	OpCommit

	// Pattern matching / rules
	OpMatch         // reserved: single-pattern unify against the stack top (not yet emitted)
	OpUnify         // reserved: explicit two-term unify (not yet emitted)
	OpLookupRules   // reserved: push a head's rule set (not yet emitted; see OpDispatchRules)
	OpDispatchRules // pop a call expression, run grounded-op/rule dispatch against it

	// Space / SExpr construction
	OpMakeSExpr
	OpSpaceAdd
	OpSpaceRemove
	OpSpaceMatch
	OpGetHead
	OpGetTail
	OpGetArity

	// Globals
	OpLoadGlobal
	OpStoreGlobal

	// Multi-return
	OpCollectN
	OpReturnMulti
)

// opcodeNames supports disassembly/debug tracing (the Trace/Breakpoint
// group spec.md section 4.6 names).
var opcodeNames = map[Opcode]string{
	OpPushConst: "PushConst", OpPushNil: "PushNil", OpPushUnit: "PushUnit",
	OpPop: "Pop", OpDup: "Dup", OpSwap: "Swap",
	OpLoadLocal: "LoadLocal", OpStoreLocal: "StoreLocal",
	OpPushBindingFrame: "PushBindingFrame", OpPopBindingFrame: "PopBindingFrame",
	OpAdd: "Add", OpSub: "Sub", OpMul: "Mul", OpDiv: "Div", OpMod: "Mod", OpPow: "Pow",
	OpEq: "Eq", OpLt: "Lt", OpLe: "Le", OpGt: "Gt", OpGe: "Ge",
	OpNot: "Not", OpAnd: "And", OpOr: "Or",
	OpJump: "Jump", OpJumpIfFalse: "JumpIfFalse", OpJumpIfTrue: "JumpIfTrue",
	OpReturn: "Return", OpHalt: "Halt",
	OpCall: "Call", OpTailCall: "TailCall", OpCallNative: "CallNative",
	OpFork: "Fork", OpYield: "Yield", OpCollect: "Collect", OpFail: "Fail",
	OpCut: "Cut", OpBacktrack: "Backtrack", OpCommit: "Commit",
	OpMatch: "Match", OpUnify: "Unify", OpLookupRules: "LookupRules", OpDispatchRules: "DispatchRules",
	OpMakeSExpr: "MakeSExpr", OpSpaceAdd: "SpaceAdd", OpSpaceRemove: "SpaceRemove", OpSpaceMatch: "SpaceMatch",
	OpGetHead: "GetHead", OpGetTail: "GetTail", OpGetArity: "GetArity",
	OpLoadGlobal: "LoadGlobal", OpStoreGlobal: "StoreGlobal",
	OpCollectN: "CollectN", OpReturnMulti: "ReturnMulti",
}

func (op Opcode) String() string {
	if n, ok := opcodeNames[op]; ok {
		return n
	}
	return "Unknown"
}

// Instruction is one decoded bytecode instruction: an opcode plus up to
// two operands (immediate int, e.g. a jump offset, local slot, or
// constant-pool index).
type Instruction struct {
	Op   Opcode
	A, B int
}

// Chunk is a compiled unit: a linear instruction sequence plus its
// constant pool, and the local-slot count the VM must reserve on entry.
// Mirrors spec.md section 4.6's compile context output.
type Chunk struct {
	Code      []Instruction
	Constants []Value
	NumLocals int
	Name      string
}
