package metta

import "testing"

func evalOne(t *testing.T, expr Value) Value {
	t.Helper()
	env := NewEnvironment()
	results, _ := Eval(expr, env)
	if len(results) != 1 {
		t.Fatalf("expected exactly one result for %v, got %v", expr, results)
	}
	return results[0]
}

func TestAddKeepsLongWhenBothOperandsAreLong(t *testing.T) {
	got := evalOne(t, NewSExpr(NewAtom("+"), NewLong(2), NewLong(3)))
	if !Equal(got, NewLong(5)) {
		t.Fatalf("expected 5, got %v", got)
	}
}

func TestAddPromotesToFloatWhenEitherOperandIsFloat(t *testing.T) {
	got := evalOne(t, NewSExpr(NewAtom("+"), NewLong(2), NewFloat(0.5)))
	if !got.IsFloat() || got.Float() != 2.5 {
		t.Fatalf("expected Float 2.5, got %v", got)
	}
}

func TestSubtractMultiplyDivide(t *testing.T) {
	if got := evalOne(t, NewSExpr(NewAtom("-"), NewLong(10), NewLong(4))); !Equal(got, NewLong(6)) {
		t.Fatalf("expected 6, got %v", got)
	}
	if got := evalOne(t, NewSExpr(NewAtom("*"), NewLong(3), NewLong(4))); !Equal(got, NewLong(12)) {
		t.Fatalf("expected 12, got %v", got)
	}
	if got := evalOne(t, NewSExpr(NewAtom("/"), NewLong(9), NewLong(3))); !Equal(got, NewLong(3)) {
		t.Fatalf("expected 3, got %v", got)
	}
}

func TestDivisionByZeroProducesError(t *testing.T) {
	env := NewEnvironment()
	results, _ := Eval(NewSExpr(NewAtom("/"), NewLong(1), NewLong(0)), env)
	if len(results) != 1 || !results[0].IsError() {
		t.Fatalf("expected a single Error result, got %v", results)
	}
}

func TestModuloByZeroProducesError(t *testing.T) {
	env := NewEnvironment()
	results, _ := Eval(NewSExpr(NewAtom("%"), NewLong(1), NewLong(0)), env)
	if len(results) != 1 || !results[0].IsError() {
		t.Fatalf("expected a single Error result, got %v", results)
	}
}

func TestPowComputesExponent(t *testing.T) {
	got := evalOne(t, NewSExpr(NewAtom("pow"), NewLong(2), NewLong(10)))
	if !Equal(got, NewLong(1024)) {
		t.Fatalf("expected Long 1024, got %v", got)
	}
}

func TestAddWrongArityErrors(t *testing.T) {
	env := NewEnvironment()
	results, _ := Eval(NewSExpr(NewAtom("+"), NewLong(1)), env)
	if len(results) != 1 || !results[0].IsError() {
		t.Fatalf("expected a single Error result for wrong arity, got %v", results)
	}
}
