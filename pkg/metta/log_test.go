package metta

import "testing"

func TestNopLoggerAcceptsAnyArgumentsWithoutPanicking(t *testing.T) {
	var l Logger = NopLogger{}
	l.Debugw("debug", "key", 1)
	l.Infow("info")
	l.Warnw("warn", "a", 1, "b", 2)
}

func TestNewZapLoggerBuildsUsableLogger(t *testing.T) {
	l, err := NewZapLogger(false)
	if err != nil {
		t.Fatalf("unexpected error building a production zap logger: %v", err)
	}
	if l == nil {
		t.Fatalf("expected a non-nil Logger")
	}
	l.Infow("built ok")

	debugL, err := NewZapLogger(true)
	if err != nil {
		t.Fatalf("unexpected error building a debug zap logger: %v", err)
	}
	if debugL == nil {
		t.Fatalf("expected a non-nil debug Logger")
	}
}
