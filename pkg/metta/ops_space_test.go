package metta

import "testing"

func TestNewSpaceAddMatchAndRemoveAtom(t *testing.T) {
	env := NewEnvironment()
	newSpace := NewSExpr(NewAtom("new-space"))
	handles, _ := Eval(newSpace, env)
	if len(handles) != 1 || !handles[0].IsSpaceRef() {
		t.Fatalf("expected a single SpaceRef handle, got %v", handles)
	}
	handle := handles[0]

	addExpr := NewSExpr(NewAtom("add-atom"), handle, NewSExpr(NewAtom("point"), NewLong(1), NewLong(2)))
	if results, _ := Eval(addExpr, env); len(results) != 1 || results[0].IsError() {
		t.Fatalf("unexpected error result on add-atom: %v", results)
	}

	matchExpr := NewSExpr(NewAtom("match"), handle,
		NewSExpr(NewAtom("point"), NewAtom("$x"), NewAtom("$y")),
		NewAtom("$x"))
	results, _ := Eval(matchExpr, env)
	if len(results) != 1 || !Equal(results[0], NewLong(1)) {
		t.Fatalf("expected [1], got %v", results)
	}

	removeExpr := NewSExpr(NewAtom("remove-atom"), handle, NewSExpr(NewAtom("point"), NewLong(1), NewLong(2)))
	if results, _ := Eval(removeExpr, env); len(results) != 1 || results[0].IsError() {
		t.Fatalf("unexpected error result on remove-atom: %v", results)
	}
	results, _ = Eval(matchExpr, env)
	if len(results) != 0 {
		t.Fatalf("expected no matches after removal, got %v", results)
	}
}

func TestCollapseGathersNondeterministicResultsIntoOneList(t *testing.T) {
	env := NewEnvironment()
	head := NewSExpr(NewAtom("color"))
	for _, c := range []string{"Red", "Green"} {
		env.AddFact(NewSExpr(NewAtom("="), head, NewAtom(c)))
	}

	expr := NewSExpr(NewAtom("collapse"), head)
	results, _ := Eval(expr, env)
	if len(results) != 1 || !results[0].IsSExpr() || results[0].Len() != 2 {
		t.Fatalf("expected a single 2-element list result, got %v", results)
	}
}
