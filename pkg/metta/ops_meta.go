package metta

// quoteOp implements (quote expr): returns expr without evaluating it,
// except that any (unquote sub) occurring within expr is itself
// evaluated and spliced in, per spec.md section 4.4's quote/unquote
// pair. Nested quote forms are not descended into, matching ordinary
// quasiquote semantics.
type quoteOp struct{}

func (quoteOp) Name() string { return "quote" }

func (quoteOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 1 {
		return nil, NewMettaError(RuntimeError, NewNil(), "quote requires 1 argument")
	}
	return []Value{expandUnquote(args[0], env, eval)}, nil
}

func expandUnquote(v Value, env *Environment, eval EvalFunc) Value {
	if v.IsSExpr() {
		items := v.Items()
		if len(items) == 2 && items[0].IsAtom() && items[0].Symbol() == "unquote" {
			results, _ := eval(items[1], env)
			if len(results) > 0 {
				return results[0]
			}
			return NewNil()
		}
		if len(items) >= 1 && items[0].IsAtom() && items[0].Symbol() == "quote" {
			return v
		}
		out := make([]Value, len(items))
		for i, it := range items {
			out[i] = expandUnquote(it, env, eval)
		}
		return NewSExpr(out...)
	}
	return v
}

// evalOp implements (eval expr): forces evaluation of a Value that may
// itself represent quoted code, e.g. one produced earlier by `quote`.
type evalOp struct{}

func (evalOp) Name() string { return "eval" }

func (evalOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 1 {
		return nil, NewMettaError(RuntimeError, NewNil(), "eval requires 1 argument")
	}
	quoted, _ := eval(args[0], env)
	var out []Value
	for _, q := range quoted {
		results, _ := eval(q, env)
		out = append(out, results...)
	}
	return out, nil
}

// applyOp implements (apply fn arglist): builds the application
// expression (fn a1 a2 ...) from arglist's elements and evaluates it.
type applyOp struct{}

func (applyOp) Name() string { return "apply" }

func (applyOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 2 {
		return nil, NewMettaError(RuntimeError, NewNil(), "apply requires 2 arguments")
	}
	fns, _ := eval(args[0], env)
	lists, _ := eval(args[1], env)
	var out []Value
	for _, fn := range fns {
		for _, list := range lists {
			if !list.IsSExpr() {
				return nil, ErrNoReduce()
			}
			call := NewSExpr(append([]Value{fn}, list.Items()...)...)
			results, _ := eval(call, env)
			out = append(out, results...)
		}
	}
	return out, nil
}

// functionOp implements (function body): evaluates body, unwrapping a
// (return v) result to just v, matching the control-flow sugar
// original_source layers over the trampoline's plain evaluation for
// early-exit bodies.
type functionOp struct{}

func (functionOp) Name() string { return "function" }

func (functionOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 1 {
		return nil, NewMettaError(RuntimeError, NewNil(), "function requires 1 argument")
	}
	results, _ := eval(args[0], env)
	out := make([]Value, 0, len(results))
	for _, r := range results {
		if r.IsSExpr() && r.Len() == 2 && r.Items()[0].IsAtom() && r.Items()[0].Symbol() == "return" {
			out = append(out, r.Items()[1])
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// lambdaOp implements (lambda (params...) body): constructs a first-class
// Closure Value. Application of a closure is handled by the trampoline
// (trampoline.go), not here, since it needs to bind parameters through
// the evaluator's own Frame/Unify machinery rather than this package's
// grounded-operation call convention.
type lambdaOp struct{}

func (lambdaOp) Name() string { return "lambda" }

func (lambdaOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 2 {
		return nil, NewMettaError(RuntimeError, NewNil(), "lambda requires 2 arguments")
	}
	paramsExpr, body := args[0], args[1]
	if !paramsExpr.IsSExpr() {
		return nil, NewMettaError(RuntimeError, paramsExpr, "lambda: parameter list must be an expression")
	}
	params := make([]string, 0, paramsExpr.Len())
	for _, p := range paramsExpr.Items() {
		if !p.IsVar() {
			return nil, NewMettaError(RuntimeError, p, "lambda: parameters must be variables")
		}
		params = append(params, p.Symbol())
	}
	return []Value{NewClosure(params, body, nil)}, nil
}

// bindOp implements (bind! name value): installs a top-level binding in
// the Environment. Unlike a named space or state cell, the binding is
// not globally shared: its effect is per-Environment (copy-on-write), per spec.md
// section 4.3's description of bind! as ordinary (COW) environment
// mutation rather than the shared-store state-cell pathway.
type bindOp struct{}

func (bindOp) Name() string { return "bind!" }

func (bindOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 2 {
		return nil, NewMettaError(RuntimeError, NewNil(), "bind! requires 2 arguments")
	}
	names, _ := eval(args[0], env)
	values, _ := eval(args[1], env)
	for _, n := range names {
		if !n.IsAtom() {
			return nil, NewMettaError(RuntimeError, n, "bind!: name must be a symbol")
		}
		for _, v := range values {
			env.Bind(n.Symbol(), v)
		}
	}
	return []Value{NewUnit()}, nil
}

func registerMetaOps(r *Registry) {
	r.RegisterLazy(quoteOp{})
	r.RegisterLazy(evalOp{})
	r.RegisterLazy(applyOp{})
	r.RegisterLazy(functionOp{})
	r.RegisterLazy(lambdaOp{})
	r.RegisterLazy(bindOp{})
}
