package metta

import "testing"

func TestLetUnifiesAndEvaluatesBody(t *testing.T) {
	env := NewEnvironment()
	expr := NewSExpr(NewAtom("let"),
		NewSExpr(NewAtom("$x"), NewAtom("$y")),
		NewSExpr(NewLong(1), NewLong(2)),
		NewSExpr(NewAtom("+"), NewAtom("$x"), NewAtom("$y")))
	results, _ := Eval(expr, env)
	if len(results) != 1 || !Equal(results[0], NewLong(3)) {
		t.Fatalf("expected [3], got %v", results)
	}
}

func TestLetStarSequencesBindings(t *testing.T) {
	env := NewEnvironment()
	bindings := NewSExpr(
		NewSExpr(NewAtom("$x"), NewLong(2)),
		NewSExpr(NewAtom("$y"), NewSExpr(NewAtom("+"), NewAtom("$x"), NewLong(1))),
	)
	expr := NewSExpr(NewAtom("let*"), bindings, NewAtom("$y"))
	results, _ := Eval(expr, env)
	if len(results) != 1 || !Equal(results[0], NewLong(3)) {
		t.Fatalf("expected [3], got %v", results)
	}
}

func TestCaseMatchesFirstArmAndDefaultsToWildcard(t *testing.T) {
	env := NewEnvironment()
	arms := NewSExpr(
		NewSExpr(NewLong(1), NewAtom("one")),
		NewSExpr(NewAtom("_"), NewAtom("other")),
	)
	expr := NewSExpr(NewAtom("case"), NewLong(1), arms)
	results, _ := Eval(expr, env)
	if len(results) != 1 || !Equal(results[0], NewAtom("one")) {
		t.Fatalf("expected [one], got %v", results)
	}

	expr = NewSExpr(NewAtom("case"), NewLong(99), arms)
	results, _ = Eval(expr, env)
	if len(results) != 1 || !Equal(results[0], NewAtom("other")) {
		t.Fatalf("expected [other], got %v", results)
	}
}

func TestUnifyOpBranchesOnMatchSuccess(t *testing.T) {
	env := NewEnvironment()
	expr := NewSExpr(NewAtom("unify"), NewLong(1), NewLong(1), NewAtom("matched"), NewAtom("no-match"))
	results, _ := Eval(expr, env)
	if len(results) != 1 || !Equal(results[0], NewAtom("matched")) {
		t.Fatalf("expected [matched], got %v", results)
	}

	expr = NewSExpr(NewAtom("unify"), NewLong(1), NewLong(2), NewAtom("matched"), NewAtom("no-match"))
	results, _ = Eval(expr, env)
	if len(results) != 1 || !Equal(results[0], NewAtom("no-match")) {
		t.Fatalf("expected [no-match], got %v", results)
	}
}

func TestSuperposeInjectsListElementsAsAlternatives(t *testing.T) {
	env := NewEnvironment()
	expr := NewSExpr(NewAtom("superpose"), NewSExpr(NewAtom("Red"), NewAtom("Green"), NewAtom("Blue")))
	results, _ := Eval(expr, env)
	want := []Value{NewAtom("Red"), NewAtom("Green"), NewAtom("Blue")}
	if !MultisetEqual(results, want) {
		t.Fatalf("expected multiset %v, got %v", want, results)
	}
}

func TestChainBindsResultIntoTemplate(t *testing.T) {
	env := NewEnvironment()
	expr := NewSExpr(NewAtom("chain"),
		NewSExpr(NewAtom("+"), NewLong(2), NewLong(3)),
		NewAtom("$r"),
		NewSExpr(NewAtom("*"), NewAtom("$r"), NewLong(10)))
	results, _ := Eval(expr, env)
	if len(results) != 1 || !Equal(results[0], NewLong(50)) {
		t.Fatalf("expected [50], got %v", results)
	}
}

func TestPragmaReturnsUnit(t *testing.T) {
	env := NewEnvironment()
	expr := NewSExpr(NewAtom("pragma!"), NewAtom("vm-max-stack"), NewLong(2048))
	results, _ := Eval(expr, env)
	if len(results) != 1 || !results[0].IsUnit() {
		t.Fatalf("expected [Unit], got %v", results)
	}
}
