package metta

import "testing"

func TestVMArithmeticAndComparison(t *testing.T) {
	chunk := &Chunk{
		Code: []Instruction{
			{Op: OpPushConst, A: 0}, // 10
			{Op: OpPushConst, A: 1}, // 3
			{Op: OpSub},
			{Op: OpPushConst, A: 2}, // 7
			{Op: OpEq},
			{Op: OpReturn},
		},
		Constants: []Value{NewLong(10), NewLong(3), NewLong(7)},
	}
	vm := NewVM(NewEnvironment())
	results, err := vm.Run(chunk)
	if err != nil {
		t.Fatalf("VM run error: %v", err)
	}
	if len(results) != 1 || !Equal(results[0], NewBool(true)) {
		t.Fatalf("expected [True], got %v", results)
	}
}

func TestVMDivisionByZeroErrors(t *testing.T) {
	chunk := &Chunk{
		Code: []Instruction{
			{Op: OpPushConst, A: 0},
			{Op: OpPushConst, A: 1},
			{Op: OpDiv},
			{Op: OpReturn},
		},
		Constants: []Value{NewLong(1), NewLong(0)},
	}
	vm := NewVM(NewEnvironment())
	if _, err := vm.Run(chunk); err == nil {
		t.Fatalf("expected division-by-zero error, got none")
	}
}

func TestVMStackOverflowHardErrors(t *testing.T) {
	var code []Instruction
	for i := 0; i < defaultMaxStack+10; i++ {
		code = append(code, Instruction{Op: OpPushConst, A: 0})
	}
	code = append(code, Instruction{Op: OpReturn})
	chunk := &Chunk{Code: code, Constants: []Value{NewLong(1)}}

	vm := NewVM(NewEnvironment())
	if _, err := vm.Run(chunk); err == nil {
		t.Fatalf("expected stack overflow error, got none")
	}
}

func TestVMDispatchRulesAppliesMatchingRule(t *testing.T) {
	env := NewEnvironment()
	lhs := NewSExpr(NewAtom("square"), NewAtom("$x"))
	rhs := NewSExpr(NewAtom("*"), NewAtom("$x"), NewAtom("$x"))
	env.AddFact(NewSExpr(NewAtom("="), lhs, rhs))

	call := NewSExpr(NewAtom("square"), NewLong(5))
	chunk, err := Compile(call)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	foundDispatch := false
	for _, inst := range chunk.Code {
		if inst.Op == OpDispatchRules {
			foundDispatch = true
		}
	}
	if !foundDispatch {
		t.Fatalf("expected a rule-headed call to compile to OpDispatchRules, got %v", chunk.Code)
	}

	vm := NewVM(env)
	results, err := vm.Run(chunk)
	if err != nil {
		t.Fatalf("VM run error: %v", err)
	}
	if len(results) != 1 || !Equal(results[0], NewLong(25)) {
		t.Fatalf("expected [25], got %v", results)
	}
}

func TestVMDispatchRulesFansOutNondeterministicRules(t *testing.T) {
	env := NewEnvironment()
	head := NewSExpr(NewAtom("color"))
	for _, c := range []string{"Red", "Green", "Blue"} {
		env.AddFact(NewSExpr(NewAtom("="), head, NewAtom(c)))
	}

	chunk, err := Compile(head)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	vm := NewVM(env)
	results, err := vm.Run(chunk)
	if err != nil {
		t.Fatalf("VM run error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 nondeterministic results, got %v", results)
	}
	seen := map[string]bool{}
	for _, r := range results {
		seen[r.Symbol()] = true
	}
	for _, c := range []string{"Red", "Green", "Blue"} {
		if !seen[c] {
			t.Fatalf("expected result set to include %s, got %v", c, results)
		}
	}
}

func TestVMDispatchRulesUsesGroundedOperationBeforeRules(t *testing.T) {
	// "+" has a dedicated VM opcode for 2-arg calls, but an n-ary or
	// otherwise-shaped call to a grounded op still routes through
	// OpDispatchRules; it must still prefer the registry over rule lookup.
	env := NewEnvironment()
	call := NewSExpr(NewAtom("+"), NewLong(2), NewLong(3), NewLong(4))
	chunk, err := Compile(call)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	vm := NewVM(env)
	if _, err := vm.Run(chunk); err == nil {
		t.Fatalf("expected ternary + to report a grounded-operation arity error, not silently fall through")
	}
}

func TestVMDispatchRulesFallsBackToDataWhenNoRuleMatches(t *testing.T) {
	env := NewEnvironment()
	call := NewSExpr(NewAtom("undefined-head"), NewLong(1))
	chunk, err := Compile(call)
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	vm := NewVM(env)
	results, err := vm.Run(chunk)
	if err != nil {
		t.Fatalf("VM run error: %v", err)
	}
	if len(results) != 1 || !Equal(results[0], call) {
		t.Fatalf("expected the call to stay unreduced data, got %v", results)
	}
}

func TestVMForkAndBacktrack(t *testing.T) {
	// Fork to an alternative branch, fail the first, land on the second.
	chunk := &Chunk{
		Code: []Instruction{
			{Op: OpFork, A: 3},      // 0: alternative at 3
			{Op: OpPushConst, A: 0}, // 1: push "first"
			{Op: OpFail},            // 2: force backtrack
			{Op: OpPushConst, A: 1}, // 3: push "second"
			{Op: OpReturn},          // 4
		},
		Constants: []Value{NewAtom("first"), NewAtom("second")},
	}
	vm := NewVM(NewEnvironment())
	results, err := vm.Run(chunk)
	if err != nil {
		t.Fatalf("VM run error: %v", err)
	}
	if len(results) != 1 || !Equal(results[0], NewAtom("second")) {
		t.Fatalf("expected [second], got %v", results)
	}
}
