package metta

import "testing"

func TestQuoteSuppressesEvaluationExceptUnquote(t *testing.T) {
	env := NewEnvironment()
	expr := NewSExpr(NewAtom("quote"), NewSExpr(NewAtom("+"), NewLong(1), NewLong(2)))
	results, _ := Eval(expr, env)
	want := NewSExpr(NewAtom("+"), NewLong(1), NewLong(2))
	if len(results) != 1 || !Equal(results[0], want) {
		t.Fatalf("expected unevaluated [%v], got %v", want, results)
	}

	unquoted := NewSExpr(NewAtom("quote"),
		NewSExpr(NewAtom("unquote"), NewSExpr(NewAtom("+"), NewLong(1), NewLong(2))))
	results, _ = Eval(unquoted, env)
	if len(results) != 1 || !Equal(results[0], NewLong(3)) {
		t.Fatalf("expected unquote to splice in the evaluated value [3], got %v", results)
	}
}

func TestEvalForcesEvaluationOfQuotedCode(t *testing.T) {
	env := NewEnvironment()
	quoted := NewSExpr(NewAtom("quote"), NewSExpr(NewAtom("+"), NewLong(2), NewLong(2)))
	expr := NewSExpr(NewAtom("eval"), quoted)
	results, _ := Eval(expr, env)
	if len(results) != 1 || !Equal(results[0], NewLong(4)) {
		t.Fatalf("expected [4], got %v", results)
	}
}

func TestApplyBuildsAndEvaluatesCallExpression(t *testing.T) {
	env := NewEnvironment()
	expr := NewSExpr(NewAtom("apply"),
		NewAtom("+"),
		NewSExpr(NewAtom("quote"), NewSExpr(NewLong(3), NewLong(4))))
	results, _ := Eval(expr, env)
	if len(results) != 1 || !Equal(results[0], NewLong(7)) {
		t.Fatalf("expected [7], got %v", results)
	}
}

func TestFunctionUnwrapsReturn(t *testing.T) {
	env := NewEnvironment()
	expr := NewSExpr(NewAtom("function"),
		NewSExpr(NewAtom("quote"), NewSExpr(NewAtom("return"), NewLong(9))))
	results, _ := Eval(expr, env)
	if len(results) != 1 || !Equal(results[0], NewLong(9)) {
		t.Fatalf("expected [9], got %v", results)
	}
}

func TestLambdaConstructsClosureValue(t *testing.T) {
	env := NewEnvironment()
	expr := NewSExpr(NewAtom("lambda"),
		NewSExpr(NewAtom("$x")),
		NewSExpr(NewAtom("+"), NewAtom("$x"), NewLong(1)))
	results, _ := Eval(expr, env)
	if len(results) != 1 || !results[0].IsClosure() {
		t.Fatalf("expected a single Closure result, got %v", results)
	}
}

func TestBindInstallsTopLevelBinding(t *testing.T) {
	env := NewEnvironment()
	Eval(NewSExpr(NewAtom("bind!"), NewAtom("$greeting"), NewAtom("hello")), env)
	results, _ := Eval(NewAtom("$greeting"), env)
	if len(results) != 1 || !Equal(results[0], NewAtom("hello")) {
		t.Fatalf("expected [hello], got %v", results)
	}
}
