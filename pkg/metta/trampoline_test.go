package metta

import "testing"

func TestEvalDoubleRule(t *testing.T) {
	env := NewEnvironment()
	x := NewAtom("$x")
	lhs := NewSExpr(NewAtom("double"), x)
	rhs := NewSExpr(NewAtom("+"), x, x)
	env.AddFact(NewSExpr(NewAtom("="), lhs, rhs))

	call := NewSExpr(NewAtom("double"), NewLong(7))
	results, _ := Eval(call, env)

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d: %v", len(results), results)
	}
	if !Equal(results[0], NewLong(14)) {
		t.Fatalf("expected 14, got %v", results[0])
	}
}

func TestEvalNondeterministicRules(t *testing.T) {
	env := NewEnvironment()
	head := NewSExpr(NewAtom("pick"))
	for _, n := range []int64{1, 2} {
		env.AddFact(NewSExpr(NewAtom("="), head, NewLong(n)))
	}

	results, _ := Eval(head, env)
	if !MultisetEqual(results, []Value{NewLong(1), NewLong(2)}) {
		t.Fatalf("expected multiset {1, 2}, got %v", results)
	}
}

func TestEvalIfShortCircuits(t *testing.T) {
	env := NewEnvironment()
	expr := NewSExpr(NewAtom("if"), NewBool(true), NewLong(1), NewLong(2))
	results, _ := Eval(expr, env)
	if len(results) != 1 || !Equal(results[0], NewLong(1)) {
		t.Fatalf("expected [1], got %v", results)
	}

	expr = NewSExpr(NewAtom("if"), NewBool(false), NewLong(1), NewLong(2))
	results, _ = Eval(expr, env)
	if len(results) != 1 || !Equal(results[0], NewLong(2)) {
		t.Fatalf("expected [2], got %v", results)
	}
}

func TestEvalDeepTailRecursionDoesNotOverflow(t *testing.T) {
	env := NewEnvironment()
	// (count-down $n) = (if (== $n 0) done (count-down (- $n 1)))
	n := NewAtom("$n")
	lhs := NewSExpr(NewAtom("count-down"), n)
	rhs := NewSExpr(NewAtom("if"),
		NewSExpr(NewAtom("=="), n, NewLong(0)),
		NewAtom("done"),
		NewSExpr(NewAtom("count-down"), NewSExpr(NewAtom("-"), n, NewLong(1))))
	env.AddFact(NewSExpr(NewAtom("="), lhs, rhs))

	call := NewSExpr(NewAtom("count-down"), NewLong(90000))
	results, err := evalLoopDepthCheck(call, env)
	if err != nil {
		t.Fatalf("unexpected error on deep tail recursion: %v", err)
	}
	if len(results) != 1 || !Equal(results[0], NewAtom("done")) {
		t.Fatalf("expected [done], got %v", results)
	}
}

// evalLoopDepthCheck calls evalLoop directly so the test can assert on the
// error rather than Eval's value-carrying error fallback.
func evalLoopDepthCheck(v Value, env *Environment) ([]Value, error) {
	return evalLoop(v, env, 0)
}

func TestEvalCartesianProductOfMultiResultArguments(t *testing.T) {
	env := NewEnvironment()
	aHead := NewSExpr(NewAtom("a"))
	bHead := NewSExpr(NewAtom("b"))
	for _, n := range []int64{1, 2} {
		env.AddFact(NewSExpr(NewAtom("="), aHead, NewLong(n)))
	}
	for _, n := range []int64{10, 20} {
		env.AddFact(NewSExpr(NewAtom("="), bHead, NewLong(n)))
	}

	expr := NewSExpr(NewAtom("+"), aHead, bHead)
	results, _ := Eval(expr, env)
	expected := []Value{NewLong(11), NewLong(21), NewLong(12), NewLong(22)}
	if !MultisetEqual(results, expected) {
		t.Fatalf("expected multiset %v, got %v", expected, results)
	}
}

func TestEvalUnboundVariableReturnsItself(t *testing.T) {
	env := NewEnvironment()
	v := NewAtom("$unbound")
	results, _ := Eval(v, env)
	if len(results) != 1 || !Equal(results[0], v) {
		t.Fatalf("expected unbound variable to evaluate to itself, got %v", results)
	}
}
