package metta

import "testing"

func TestGetMetatypeClassifiesValueKinds(t *testing.T) {
	env := NewEnvironment()
	cases := []struct {
		v    Value
		want string
	}{
		{NewAtom("$x"), "Variable"},
		{NewAtom("foo"), "Symbol"},
		{NewSExpr(NewAtom("a"), NewAtom("b")), "Expression"},
		{NewLong(5), "Grounded"},
	}
	for _, c := range cases {
		expr := NewSExpr(NewAtom("get-metatype"), NewSExpr(NewAtom("quote"), c.v))
		results, _ := Eval(expr, env)
		if len(results) != 1 || !Equal(results[0], NewAtom(c.want)) {
			t.Fatalf("get-metatype(%v): expected %s, got %v", c.v, c.want, results)
		}
	}
}

func TestGetTypeReturnsDeclaredTypeOrUndefined(t *testing.T) {
	env := NewEnvironment()
	env.AddFact(NewSExpr(NewAtom(":"), NewAtom("three"), NewAtom("Number")))

	expr := NewSExpr(NewAtom("get-type"), NewSExpr(NewAtom("quote"), NewAtom("three")))
	results, _ := Eval(expr, env)
	if len(results) != 1 || !Equal(results[0], NewAtom("Number")) {
		t.Fatalf("expected [Number], got %v", results)
	}

	expr = NewSExpr(NewAtom("get-type"), NewSExpr(NewAtom("quote"), NewAtom("unknown-thing")))
	results, _ = Eval(expr, env)
	if len(results) != 1 || !Equal(results[0], NewAtom("%Undefined%")) {
		t.Fatalf("expected [%%Undefined%%], got %v", results)
	}
}

func TestCheckTypeAndAssertType(t *testing.T) {
	env := NewEnvironment()
	env.AddFact(NewSExpr(NewAtom(":"), NewAtom("three"), NewAtom("Number")))

	checkExpr := NewSExpr(NewAtom("check-type"),
		NewSExpr(NewAtom("quote"), NewAtom("three")),
		NewSExpr(NewAtom("quote"), NewAtom("Number")))
	results, _ := Eval(checkExpr, env)
	if len(results) != 1 || !Equal(results[0], NewBool(true)) {
		t.Fatalf("expected [True], got %v", results)
	}

	assertExpr := NewSExpr(NewAtom("assert-type"),
		NewSExpr(NewAtom("quote"), NewAtom("three")),
		NewSExpr(NewAtom("quote"), NewAtom("Symbol")))
	results, _ = Eval(assertExpr, env)
	if len(results) != 1 || !results[0].IsError() {
		t.Fatalf("expected an Error result for a failed assert-type, got %v", results)
	}
}
