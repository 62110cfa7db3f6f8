package metta

import "testing"

func TestUnifyVariableBindsToSubject(t *testing.T) {
	frame, ok := Unify(NewAtom("$x"), NewLong(5), NewFrame())
	if !ok {
		t.Fatalf("expected unification to succeed")
	}
	v, bound := frame.Lookup("$x")
	if !bound || !Equal(v, NewLong(5)) {
		t.Fatalf("expected $x bound to 5, got %v, %v", v, bound)
	}
}

func TestUnifyWildcardMatchesAnythingAndBindsNothing(t *testing.T) {
	frame, ok := Unify(NewAtom("_"), NewSExpr(NewAtom("a"), NewLong(1)), NewFrame())
	if !ok {
		t.Fatalf("expected wildcard to match")
	}
	if frame.Depth() != 0 {
		t.Fatalf("expected wildcard to bind nothing, frame depth %d", frame.Depth())
	}
}

func TestUnifySExprRecursesPositionally(t *testing.T) {
	pattern := NewSExpr(NewAtom("point"), NewAtom("$x"), NewAtom("$y"))
	subject := NewSExpr(NewAtom("point"), NewLong(1), NewLong(2))
	frame, ok := Unify(pattern, subject, NewFrame())
	if !ok {
		t.Fatalf("expected structural match to succeed")
	}
	x, _ := frame.Lookup("$x")
	y, _ := frame.Lookup("$y")
	if !Equal(x, NewLong(1)) || !Equal(y, NewLong(2)) {
		t.Fatalf("expected $x=1 $y=2, got %v %v", x, y)
	}
}

func TestUnifyArityMismatchFails(t *testing.T) {
	pattern := NewSExpr(NewAtom("f"), NewAtom("$x"))
	subject := NewSExpr(NewAtom("f"), NewLong(1), NewLong(2))
	if _, ok := Unify(pattern, subject, NewFrame()); ok {
		t.Fatalf("expected arity mismatch to fail")
	}
}

func TestUnifyOccursCheckPreventsCyclicBinding(t *testing.T) {
	x := NewAtom("$x")
	cyclic := NewSExpr(NewAtom("wrap"), x)
	if _, ok := Unify(x, cyclic, NewFrame()); ok {
		t.Fatalf("expected occurs-check to reject binding $x to a term containing $x")
	}
}

func TestUnifyAlreadyBoundVariableRequiresStructuralEquality(t *testing.T) {
	frame := NewFrame().Push("$x", NewLong(1))
	if _, ok := Unify(NewAtom("$x"), NewLong(2), frame); ok {
		t.Fatalf("expected already-bound $x=1 to reject subject 2")
	}
	frame2, ok := Unify(NewAtom("$x"), NewLong(1), frame)
	if !ok {
		t.Fatalf("expected already-bound $x=1 to accept subject 1")
	}
	v, _ := frame2.Lookup("$x")
	if !Equal(v, NewLong(1)) {
		t.Fatalf("expected $x to remain 1, got %v", v)
	}
}

func TestUnifySameUnboundVariableWithItselfSucceeds(t *testing.T) {
	x := NewAtom("$x")
	frame, ok := Unify(x, x, NewFrame())
	if !ok {
		t.Fatalf("expected an unbound variable to unify with itself")
	}
	if frame.Depth() != 0 {
		t.Fatalf("expected no new binding from a self-unification, frame depth %d", frame.Depth())
	}
}

func TestUnifyDistinctAtomsFail(t *testing.T) {
	if _, ok := Unify(NewAtom("red"), NewAtom("blue"), NewFrame()); ok {
		t.Fatalf("expected distinct atoms to fail unification")
	}
}

func TestMatchIsSymmetricWithUnify(t *testing.T) {
	a := NewSExpr(NewAtom("f"), NewAtom("$x"))
	b := NewSExpr(NewAtom("f"), NewLong(7))
	frame, ok := Match(a, b, NewFrame())
	if !ok {
		t.Fatalf("expected Match to succeed")
	}
	v, _ := frame.Lookup("$x")
	if !Equal(v, NewLong(7)) {
		t.Fatalf("expected $x=7, got %v", v)
	}
}
