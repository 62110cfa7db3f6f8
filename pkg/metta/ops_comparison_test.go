package metta

import "testing"

func TestNumericComparisons(t *testing.T) {
	cases := []struct {
		op   string
		a, b Value
		want bool
	}{
		{"==", NewLong(3), NewLong(3), true},
		{"==", NewLong(3), NewLong(4), false},
		{"<", NewLong(3), NewLong(4), true},
		{"<", NewLong(4), NewLong(3), false},
		{"<=", NewLong(3), NewLong(3), true},
		{">", NewLong(5), NewLong(3), true},
		{">=", NewLong(3), NewLong(3), true},
	}
	for _, c := range cases {
		got := evalOne(t, NewSExpr(NewAtom(c.op), c.a, c.b))
		if !got.IsBool() || got.Bool() != c.want {
			t.Fatalf("%s(%v, %v): expected %v, got %v", c.op, c.a, c.b, c.want, got)
		}
	}
}

func TestEqualityFallsBackToStructuralEquivalenceForNonNumericOperands(t *testing.T) {
	got := evalOne(t, NewSExpr(NewAtom("=="), NewAtom("foo"), NewAtom("foo")))
	if !got.IsBool() || !got.Bool() {
		t.Fatalf("expected true for structurally equal atoms, got %v", got)
	}
	got = evalOne(t, NewSExpr(NewAtom("=="), NewAtom("foo"), NewAtom("bar")))
	if !got.IsBool() || got.Bool() {
		t.Fatalf("expected false for distinct atoms, got %v", got)
	}
}

func TestLessThanOnNonNumericOperandsFailsToReduceAndStaysData(t *testing.T) {
	env := NewEnvironment()
	expr := NewSExpr(NewAtom("<"), NewAtom("foo"), NewLong(1))
	results, _ := Eval(expr, env)
	if len(results) != 1 || !Equal(results[0], expr) {
		t.Fatalf("expected the unreduced expression %v back, got %v", expr, results)
	}
}
