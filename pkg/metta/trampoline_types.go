package metta

// MaxEvalDepth bounds evalLoop's depth counter, which grows by one on
// every loop iteration and is carried into nested evaluations; crossing
// it returns a RuntimeError. It is a fixed constant: no option overrides
// it.
const MaxEvalDepth = 100000

// specialForms names every head symbol the trampoline dispatches to a
// dedicated combinator instead of treating as a plain grounded operation
// or rule lookup, per spec.md section 4.5 step 2a.
var specialForms = map[string]bool{
	"if": true, "let": true, "let*": true, "match": true, "case": true,
	"function": true, "lambda": true, "quote": true, "chain": true,
	"eval": true, "apply": true, "sealed": true, "superpose": true,
	"collapse": true, "unify": true, "memo": true, "memo-first": true,
	"new": true, "pragma": true, "bind!": true,
}

// workItem is one unit of pending work for an explicit work stack, per
// spec.md section 4.5. wkEvaluate is its only kind. evalLoop does not use
// this type: it keeps the current term in local variables and recurses
// for nondeterministic branches.
type workItem struct {
	kind  workKind
	value Value
	env   *Environment
	depth int
}

type workKind int

const (
	wkEvaluate workKind = iota
)

// evalState groups a pending work stack with an accumulated result
// multiset. Eval and evalLoop do not create one.
type evalState struct {
	maxDepth int
	stack    []workItem
	results  []Value
}
