package metta

import "testing"

func TestNewStateGetStateChangeStateRoundTrip(t *testing.T) {
	env := NewEnvironment()
	newState := NewSExpr(NewAtom("new-state"), NewLong(1))
	handles, _ := Eval(newState, env)
	if len(handles) != 1 || !handles[0].IsStateRef() {
		t.Fatalf("expected a single StateRef handle, got %v", handles)
	}
	handle := handles[0]

	getExpr := NewSExpr(NewAtom("get-state"), handle)
	results, _ := Eval(getExpr, env)
	if len(results) != 1 || !Equal(results[0], NewLong(1)) {
		t.Fatalf("expected [1], got %v", results)
	}

	changeExpr := NewSExpr(NewAtom("change-state!"), handle, NewLong(2))
	results, _ = Eval(changeExpr, env)
	if len(results) != 1 || !Equal(results[0], NewLong(2)) {
		t.Fatalf("expected change-state! to return [2], got %v", results)
	}

	results, _ = Eval(getExpr, env)
	if len(results) != 1 || !Equal(results[0], NewLong(2)) {
		t.Fatalf("expected get-state to now return [2], got %v", results)
	}
}

func TestChangeStateUnknownHandleErrors(t *testing.T) {
	env := NewEnvironment()
	bogus := NewStateRef("nonexistent")
	expr := NewSExpr(NewAtom("change-state!"), bogus, NewLong(5))
	results, _ := Eval(expr, env)
	if len(results) != 1 || !results[0].IsError() {
		t.Fatalf("expected an Error result for an unknown state handle, got %v", results)
	}
}
