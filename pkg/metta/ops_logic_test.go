package metta

import "testing"

func TestAndOrNotTruthTables(t *testing.T) {
	cases := []struct {
		expr Value
		want bool
	}{
		{NewSExpr(NewAtom("and"), NewBool(true), NewBool(true)), true},
		{NewSExpr(NewAtom("and"), NewBool(true), NewBool(false)), false},
		{NewSExpr(NewAtom("or"), NewBool(false), NewBool(true)), true},
		{NewSExpr(NewAtom("or"), NewBool(false), NewBool(false)), false},
		{NewSExpr(NewAtom("not"), NewBool(true)), false},
		{NewSExpr(NewAtom("not"), NewBool(false)), true},
	}
	for _, c := range cases {
		got := evalOne(t, c.expr)
		if !got.IsBool() || got.Bool() != c.want {
			t.Fatalf("%v: expected %v, got %v", c.expr, c.want, got)
		}
	}
}

func TestAndOrEvaluateBothSidesNonShortCircuit(t *testing.T) {
	env := NewEnvironment()
	env.AddFact(NewSExpr(NewAtom("="), NewSExpr(NewAtom("noisy")), NewBool(false)))
	expr := NewSExpr(NewAtom("and"), NewBool(false), NewSExpr(NewAtom("noisy")))
	results, _ := Eval(expr, env)
	if len(results) != 1 || !Equal(results[0], NewBool(false)) {
		t.Fatalf("expected and to still evaluate its right side and yield false, got %v", results)
	}
}

func TestNotOnNonBoolFailsToReduceAndStaysData(t *testing.T) {
	env := NewEnvironment()
	expr := NewSExpr(NewAtom("not"), NewLong(1))
	results, _ := Eval(expr, env)
	if len(results) != 1 || !Equal(results[0], expr) {
		t.Fatalf("expected the unreduced expression %v back, got %v", expr, results)
	}
}

func TestAndWrongArityErrors(t *testing.T) {
	env := NewEnvironment()
	results, _ := Eval(NewSExpr(NewAtom("and"), NewBool(true)), env)
	if len(results) != 1 || !results[0].IsError() {
		t.Fatalf("expected a single Error result for wrong arity, got %v", results)
	}
}
