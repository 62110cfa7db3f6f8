package metta

import "testing"

func TestCarAtomAndCdrAtom(t *testing.T) {
	env := NewEnvironment()
	list := NewSExpr(NewAtom("car-atom"), NewSExpr(NewLong(1), NewLong(2), NewLong(3)))
	results, _ := Eval(list, env)
	if len(results) != 1 || !Equal(results[0], NewLong(1)) {
		t.Fatalf("expected [1], got %v", results)
	}

	cdr := NewSExpr(NewAtom("cdr-atom"), NewSExpr(NewLong(1), NewLong(2), NewLong(3)))
	results, _ = Eval(cdr, env)
	want := NewSExpr(NewLong(2), NewLong(3))
	if len(results) != 1 || !Equal(results[0], want) {
		t.Fatalf("expected [%v], got %v", want, results)
	}
}

func TestConsAtomPrepends(t *testing.T) {
	env := NewEnvironment()
	expr := NewSExpr(NewAtom("cons-atom"), NewLong(0), NewSExpr(NewLong(1), NewLong(2)))
	results, _ := Eval(expr, env)
	want := NewSExpr(NewLong(0), NewLong(1), NewLong(2))
	if len(results) != 1 || !Equal(results[0], want) {
		t.Fatalf("expected [%v], got %v", want, results)
	}
}

func TestSizeAtomCountsElements(t *testing.T) {
	env := NewEnvironment()
	expr := NewSExpr(NewAtom("size-atom"), NewSExpr(NewLong(1), NewLong(2), NewLong(3)))
	results, _ := Eval(expr, env)
	if len(results) != 1 || !Equal(results[0], NewLong(3)) {
		t.Fatalf("expected [3], got %v", results)
	}
}

func TestMaxAtomFindsLargest(t *testing.T) {
	env := NewEnvironment()
	expr := NewSExpr(NewAtom("max-atom"), NewSExpr(NewLong(3), NewLong(9), NewLong(2)))
	results, _ := Eval(expr, env)
	if len(results) != 1 || !Equal(results[0], NewLong(9)) {
		t.Fatalf("expected [9], got %v", results)
	}
}

func TestMapAtomAppliesFunctionElementwise(t *testing.T) {
	env := NewEnvironment()
	lhs := NewSExpr(NewAtom("inc"), NewAtom("$x"))
	rhs := NewSExpr(NewAtom("+"), NewAtom("$x"), NewLong(1))
	env.AddFact(NewSExpr(NewAtom("="), lhs, rhs))

	expr := NewSExpr(NewAtom("map-atom"), NewSExpr(NewLong(1), NewLong(2), NewLong(3)), NewAtom("inc"))
	results, _ := Eval(expr, env)
	want := NewSExpr(NewLong(2), NewLong(3), NewLong(4))
	if len(results) != 1 || !Equal(results[0], want) {
		t.Fatalf("expected [%v], got %v", want, results)
	}
}

func TestFilterAtomKeepsMatchingElements(t *testing.T) {
	env := NewEnvironment()
	lhs := NewSExpr(NewAtom("is-even"), NewAtom("$x"))
	rhs := NewSExpr(NewAtom("=="), NewSExpr(NewAtom("%"), NewAtom("$x"), NewLong(2)), NewLong(0))
	env.AddFact(NewSExpr(NewAtom("="), lhs, rhs))

	expr := NewSExpr(NewAtom("filter-atom"), NewSExpr(NewLong(1), NewLong(2), NewLong(3), NewLong(4)), NewAtom("is-even"))
	results, _ := Eval(expr, env)
	want := NewSExpr(NewLong(2), NewLong(4))
	if len(results) != 1 || !Equal(results[0], want) {
		t.Fatalf("expected [%v], got %v", want, results)
	}
}

func TestFoldlAtomAccumulatesLeftToRight(t *testing.T) {
	env := NewEnvironment()
	lhs := NewSExpr(NewAtom("add2"), NewAtom("$acc"), NewAtom("$item"))
	rhs := NewSExpr(NewAtom("+"), NewAtom("$acc"), NewAtom("$item"))
	env.AddFact(NewSExpr(NewAtom("="), lhs, rhs))

	expr := NewSExpr(NewAtom("foldl-atom"),
		NewSExpr(NewLong(1), NewLong(2), NewLong(3)),
		NewLong(0),
		NewAtom("add2"))
	results, _ := Eval(expr, env)
	if len(results) != 1 || !Equal(results[0], NewLong(6)) {
		t.Fatalf("expected [6], got %v", results)
	}
}
