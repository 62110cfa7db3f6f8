package metta

import (
	"bytes"
	"strings"
	"testing"
)

func TestCompileLoadsDefinitionsAndKeepsEvalQueryForms(t *testing.T) {
	forms := []TopLevelForm{
		{Kind: FormDefinition, Expr: NewSExpr(NewAtom("="),
			NewSExpr(NewAtom("double"), NewAtom("$x")),
			NewSExpr(NewAtom("+"), NewAtom("$x"), NewAtom("$x")))},
		{Kind: FormEval, Expr: NewSExpr(NewAtom("double"), NewLong(21))},
		{Kind: FormQuery, Expr: NewSExpr(NewAtom("double"), NewLong(2))},
	}
	state, err := Compile(nil, forms)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(state.SourceExpressions) != 2 {
		t.Fatalf("expected 2 pending forms (eval + query), got %d", len(state.SourceExpressions))
	}
	rules := state.Environment.Space().IterRules("double")
	if len(rules) != 1 {
		t.Fatalf("expected the definition to be loaded into the Environment's Space, got %d rules", len(rules))
	}
}

func TestRunStateEvaluatesFormsInOrderThreadingEnvironment(t *testing.T) {
	forms := []TopLevelForm{
		{Kind: FormEval, Expr: NewSExpr(NewAtom("bind!"), NewAtom("$n"), NewLong(10))},
		{Kind: FormEval, Expr: NewSExpr(NewAtom("+"), NewAtom("$n"), NewLong(5))},
	}
	state, err := Compile(nil, forms)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results, err := RunState(state, IOSink{Out: &bytes.Buffer{}, In: strings.NewReader("")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 RunResults, got %d", len(results))
	}
	last := results[1]
	if len(last.Results) != 1 || !Equal(last.Results[0], NewLong(15)) {
		t.Fatalf("expected the second form to see the $n bound by the first, got %v", last.Results)
	}
}

func TestDriverExitCodeMapsErrorKinds(t *testing.T) {
	cases := []struct {
		err  error
		want ExitCode
	}{
		{nil, ExitSuccess},
		{NewMettaError(CompileError, NewNil(), "bad"), ExitCompileError},
		{NewMettaError(ParseError, NewNil(), "bad"), ExitCompileError},
		{NewMettaError(RuntimeError, NewNil(), "bad"), ExitRuntimeError},
	}
	for _, c := range cases {
		if got := DriverExitCode(c.err); got != c.want {
			t.Fatalf("DriverExitCode(%v): expected %v, got %v", c.err, c.want, got)
		}
	}
}

func TestFormatResultsRendersZeroOneAndManyResults(t *testing.T) {
	if got := FormatResults(RunResult{Results: nil}); got != "()" {
		t.Fatalf("expected '()' for zero results, got %q", got)
	}
	if got := FormatResults(RunResult{Results: []Value{NewLong(7)}}); got != "7" {
		t.Fatalf("expected '7' for a single result, got %q", got)
	}
	got := FormatResults(RunResult{Results: []Value{NewLong(1), NewLong(2)}})
	if got != "[1 2]" {
		t.Fatalf("expected '[1 2]' for multiple results, got %q", got)
	}
}
