package metta

import (
	"sync/atomic"
)

// ifOp implements MeTTa's short-circuiting conditional: only the
// selected branch is evaluated, per spec.md section 4.4 ("if is the one
// grounded operation that must not evaluate both branches").
type ifOp struct{}

func (ifOp) Name() string { return "if" }

func (ifOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 3 {
		return nil, NewMettaError(RuntimeError, NewNil(), "if requires 3 arguments")
	}
	conds, _ := eval(args[0], env)
	var out []Value
	for _, c := range conds {
		if !c.IsBool() {
			return nil, NewMettaError(RuntimeError, c, "if: condition did not reduce to Bool")
		}
		branch := args[2]
		if c.Bool() {
			branch = args[1]
		}
		results, _ := eval(branch, env)
		out = append(out, results...)
	}
	return out, nil
}

// letOp implements (let pattern value body): evaluate value, unify
// pattern against each result, and evaluate body with the resulting
// bindings substituted in, per spec.md section 4.4.
type letOp struct{}

func (letOp) Name() string { return "let" }

func (letOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 3 {
		return nil, NewMettaError(RuntimeError, NewNil(), "let requires 3 arguments")
	}
	pattern, valueExpr, body := args[0], args[1], args[2]
	values, _ := eval(valueExpr, env)

	var out []Value
	for _, v := range values {
		frame, ok := Unify(pattern, v, NewFrame())
		if !ok {
			continue
		}
		results, _ := eval(frame.Resolve(body), env)
		out = append(out, results...)
	}
	if out == nil {
		return nil, ErrNoReduce()
	}
	return out, nil
}

// letStarOp implements (let* ((p1 v1) (p2 v2) ...) body): sequential
// bindings, each visible to the value expressions that follow it.
type letStarOp struct{}

func (letStarOp) Name() string { return "let*" }

func (letStarOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 2 {
		return nil, NewMettaError(RuntimeError, NewNil(), "let* requires 2 arguments")
	}
	bindingsExpr, body := args[0], args[1]
	if !bindingsExpr.IsSExpr() {
		return nil, NewMettaError(RuntimeError, bindingsExpr, "let*: bindings must be a list of (pattern value) pairs")
	}

	return letStarStep(bindingsExpr.Items(), body, NewFrame(), env, eval)
}

func letStarStep(pairs []Value, body Value, frame *Frame, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(pairs) == 0 {
		return eval(frame.Resolve(body), env)
	}
	pair := pairs[0]
	if !pair.IsSExpr() || pair.Len() != 2 {
		return nil, NewMettaError(RuntimeError, pair, "let*: each binding must be a (pattern value) pair")
	}
	pattern, valueExpr := pair.Items()[0], pair.Items()[1]
	values, _ := eval(frame.Resolve(valueExpr), env)

	var out []Value
	for _, v := range values {
		next, ok := Unify(pattern, v, frame)
		if !ok {
			continue
		}
		results, err := letStarStep(pairs[1:], body, next, env, eval)
		if err != nil {
			return nil, err
		}
		out = append(out, results...)
	}
	if out == nil {
		return nil, ErrNoReduce()
	}
	return out, nil
}

// caseOp implements (case value ((pattern1 body1) (pattern2 body2) ...)):
// each value result is matched in order against the patterns, and the
// first matching arm's body is evaluated with its bindings. A %void% pattern (or
// wildcard) acts as the default arm.
type caseOp struct{}

func (caseOp) Name() string { return "case" }

func (caseOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 2 {
		return nil, NewMettaError(RuntimeError, NewNil(), "case requires 2 arguments")
	}
	valueExpr, armsExpr := args[0], args[1]
	if !armsExpr.IsSExpr() {
		return nil, NewMettaError(RuntimeError, armsExpr, "case: arms must be a list of (pattern body) pairs")
	}
	values, _ := eval(valueExpr, env)

	var out []Value
	for _, v := range values {
		matched := false
		for _, arm := range armsExpr.Items() {
			if !arm.IsSExpr() || arm.Len() != 2 {
				return nil, NewMettaError(RuntimeError, arm, "case: each arm must be a (pattern body) pair")
			}
			pattern, body := arm.Items()[0], arm.Items()[1]
			if pattern.IsWildcard() || (pattern.IsAtom() && pattern.Symbol() == "%void%") {
				results, _ := eval(body, env)
				out = append(out, results...)
				matched = true
				break
			}
			frame, ok := Unify(pattern, v, NewFrame())
			if !ok {
				continue
			}
			results, _ := eval(frame.Resolve(body), env)
			out = append(out, results...)
			matched = true
			break
		}
		if !matched {
			return nil, ErrNoReduce()
		}
	}
	return out, nil
}

// unifyOp implements (unify a b then else): unify a against b; if it
// succeeds, evaluate then with the bindings substituted in, otherwise
// evaluate else unmodified.
type unifyOp struct{}

func (unifyOp) Name() string { return "unify" }

func (unifyOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 4 {
		return nil, NewMettaError(RuntimeError, NewNil(), "unify requires 4 arguments")
	}
	a, b, then, elseExpr := args[0], args[1], args[2], args[3]
	frame, ok := Match(a, b, NewFrame())
	if !ok {
		return eval(elseExpr, env)
	}
	return eval(frame.Resolve(then), env)
}

var sealCounter int64

// sealedOp implements (sealed vars expr): alpha-renames every occurrence
// of the variables named in vars within expr to fresh names, then
// evaluates the result, preventing accidental capture when expr is
// substituted into an outer binding context (original_source's eval/
// trampoline handles sealed similarly as a scoping guard around lambda
// bodies).
type sealedOp struct{}

func (sealedOp) Name() string { return "sealed" }

func (sealedOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 2 {
		return nil, NewMettaError(RuntimeError, NewNil(), "sealed requires 2 arguments")
	}
	varsExpr, expr := args[0], args[1]
	names := map[string]string{}
	collectVarNames(varsExpr, names)
	renamed := renameVars(expr, names)
	return eval(renamed, env)
}

func collectVarNames(v Value, names map[string]string) {
	if v.IsVar() {
		if _, ok := names[v.Symbol()]; !ok {
			n := atomic.AddInt64(&sealCounter, 1)
			names[v.Symbol()] = v.Symbol() + "#seal" + itoa(n)
		}
		return
	}
	if v.IsSExpr() {
		for _, it := range v.Items() {
			collectVarNames(it, names)
		}
	}
}

func renameVars(v Value, names map[string]string) Value {
	if v.IsVar() {
		if fresh, ok := names[v.Symbol()]; ok {
			return NewAtom(fresh)
		}
		return v
	}
	if v.IsSExpr() {
		items := v.Items()
		out := make([]Value, len(items))
		for i, it := range items {
			out[i] = renameVars(it, names)
		}
		return NewSExpr(out...)
	}
	return v
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// chainOp implements (chain expr var template): evaluates expr, binds
// var to each result, and evaluates template with that binding
// substituted — the sequencing primitive original_source's trampoline
// uses to thread one sub-evaluation's result into the next expression.
type chainOp struct{}

func (chainOp) Name() string { return "chain" }

func (chainOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 3 {
		return nil, NewMettaError(RuntimeError, NewNil(), "chain requires 3 arguments")
	}
	expr, varExpr, template := args[0], args[1], args[2]
	if !varExpr.IsVar() {
		return nil, NewMettaError(RuntimeError, varExpr, "chain: second argument must be a variable")
	}
	values, _ := eval(expr, env)

	var out []Value
	for _, v := range values {
		frame := NewFrame().Push(varExpr.Symbol(), v)
		results, _ := eval(frame.Resolve(template), env)
		out = append(out, results...)
	}
	return out, nil
}

// superposeOp implements (superpose (v1 v2 ... vn)): injects a literal
// list's elements as n separate nondeterministic results, the inverse of
// collapse.
type superposeOp struct{}

func (superposeOp) Name() string { return "superpose" }

func (superposeOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 1 {
		return nil, NewMettaError(RuntimeError, NewNil(), "superpose requires 1 argument")
	}
	lists, _ := eval(args[0], env)
	var out []Value
	for _, list := range lists {
		if !list.IsSExpr() {
			out = append(out, list)
			continue
		}
		out = append(out, list.Items()...)
	}
	return out, nil
}

// pragmaOp implements (pragma! key value): it returns Unit and stores no
// setting; every key, known or not, is accepted and ignored rather than
// erroring, matching original_source's documented
// behaviour of pragma directives being non-fatal configuration hints.
type pragmaOp struct{}

func (pragmaOp) Name() string { return "pragma!" }

func (pragmaOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	return []Value{NewUnit()}, nil
}

func registerControlOps(r *Registry) {
	r.RegisterLazy(ifOp{})
	r.RegisterLazy(letOp{})
	r.RegisterLazy(letStarOp{})
	r.RegisterLazy(caseOp{})
	r.RegisterLazy(unifyOp{})
	r.RegisterLazy(sealedOp{})
	r.RegisterLazy(chainOp{})
	r.RegisterLazy(superposeOp{})
	r.RegisterLazy(pragmaOp{})
}
