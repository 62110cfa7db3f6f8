package metta

import "testing"

func TestNewHandleIDIsNonEmptyAndUnique(t *testing.T) {
	a := newHandleID()
	b := newHandleID()
	if a == "" || b == "" {
		t.Fatalf("expected non-empty handle IDs")
	}
	if a == b {
		t.Fatalf("expected two successive handle IDs to differ, got %q twice", a)
	}
}
