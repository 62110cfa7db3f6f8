package metta

// Eval is the trampoline evaluator's entry point: it reduces v in env to
// its ordered multiset of results, per the algorithm in spec.md section
// 4.5. The returned Environment reflects any Environment-level mutation
// performed along the way (bind!, add-atom, change-state!, ...); callers
// that need the post-evaluation Environment for a subsequent Eval should
// use it, not the one they passed in.
func Eval(v Value, env *Environment) ([]Value, *Environment) {
	results, err := evalLoop(v, env, 0)
	if err != nil {
		return []Value{errorToValue(err, v)}, env
	}
	return results, env
}

func errorToValue(err error, offending Value) Value {
	if me, ok := err.(*MettaError); ok {
		return me.ToValue()
	}
	return NewError(err.Error(), offending)
}

// evalLoop is the trampoline's work loop. Most of spec.md's explicit
// work-stack item kinds (Evaluate/Apply/Collect/Commit/Backtrack) are
// folded into this single Go loop plus ordinary recursive calls for
// genuinely nondeterministic branches: the loop variable v/env IS the
// "Evaluate(value, env)" work item, and replacing it in place without a
// new evalLoop call is exactly spec.md section 4.5 step 4's "tail
// position detection... the sub-evaluation replaces it (no frame
// growth)". A deterministic single-rule tail call, the canonical case a
// 100,000-deep MeTTa accumulator loop produces, never grows the Go call
// stack: it just assigns v and loops. Only genuine nondeterminism (more
// than one matching rule, or a grounded operation's Cartesian product
// over multi-result arguments) recurses, and that recursion is bounded by
// the branching structure of the program, not its tail-recursive depth.
func evalLoop(v Value, env *Environment, depth int) ([]Value, error) {
	for {
		depth++
		if depth > MaxEvalDepth {
			return nil, NewMettaError(RuntimeError, v, "maximum evaluation depth (%d) exceeded", MaxEvalDepth)
		}

		if v.IsVar() {
			if bound, ok := env.Lookup(v.Symbol()); ok {
				v = bound
				continue
			}
			return []Value{v}, nil
		}

		if !v.IsSExpr() {
			return []Value{v}, nil
		}
		if v.Len() == 0 {
			return []Value{v}, nil
		}

		head := v.Head()
		args := v.Items()[1:]

		if head.IsAtom() && !head.IsVar() {
			evalFn := makeEvalFunc(depth)

			if op, ok := env.Registry().LookupLazy(head.Symbol()); ok {
				out, err := op.ExecuteRaw(args, env, evalFn)
				if err == nil {
					return out, nil
				}
				if !IsNoReduce(err) {
					return nil, err
				}
				// NoReduce: fall through to rule lookup below.
			} else if op, ok := env.Registry().LookupTCO(head.Symbol()); ok {
				out, err := runTrampolineOperation(op, args, env, evalFn)
				if err == nil {
					return out, nil
				}
				if !IsNoReduce(err) {
					return nil, err
				}
			}

			if headSym, ok := v.HeadSymbol(); ok {
				rules := env.Space().IterRules(headSym)
				var rhsCandidates []Value
				for _, rule := range rules {
					if frame, ok := Unify(rule.LHS, v, NewFrame()); ok {
						rhsCandidates = append(rhsCandidates, frame.Resolve(rule.RHS))
					}
				}
				switch len(rhsCandidates) {
				case 0:
					// fall through to the reduce-once default below.
				case 1:
					v = rhsCandidates[0]
					continue
				default:
					var out []Value
					for _, c := range rhsCandidates {
						sub, err := evalLoop(c, env, depth+1)
						if err != nil {
							return nil, err
						}
						out = append(out, sub...)
					}
					return out, nil
				}
			}
		}

		// No special form, grounded op, or rule applied: evaluate each
		// sub-term once (outermost recursion) and retry; if nothing
		// changed, the expression is data and is returned as-is, per
		// spec.md section 4.5 step 2d.
		reduced, changed, err := reduceOnce(v, env, depth)
		if err != nil {
			return nil, err
		}
		if !changed {
			return []Value{v}, nil
		}
		v = reduced
	}
}

func makeEvalFunc(depth int) EvalFunc {
	return func(arg Value, env *Environment) ([]Value, *Environment) {
		out, err := evalLoop(arg, env, depth)
		if err != nil {
			return []Value{errorToValue(err, arg)}, env
		}
		return out, env
	}
}

// reduceOnce evaluates v's head and every argument exactly once, taking
// only the first result of each (a deliberate simplification of full
// nondeterminism for the data-term fallback path, documented in
// DESIGN.md: this path only matters once no special form, grounded op,
// or rule applies, at which point MeTTa's own nondeterminism story has
// already bottomed out into "this is plain data"). If the head evaluates
// to a Closure, the call is an application of a user lambda instead.
func reduceOnce(v Value, env *Environment, depth int) (Value, bool, error) {
	items := v.Items()
	out := make([]Value, len(items))
	changed := false
	for i, it := range items {
		results, err := evalLoop(it, env, depth)
		if err != nil {
			return Value{}, false, err
		}
		if len(results) == 0 {
			out[i] = it
			continue
		}
		out[i] = results[0]
		if !Equal(out[i], it) {
			changed = true
		}
	}
	if len(out) > 0 && out[0].IsClosure() {
		result, err := applyClosure(out[0], out[1:], env, depth)
		return result, true, err
	}
	if !changed {
		return v, false, nil
	}
	return NewSExpr(out...), true, nil
}

// applyClosure binds a Closure's parameters positionally to already-
// evaluated argument values and evaluates its body under those bindings.
func applyClosure(fnValue Value, args []Value, env *Environment, depth int) (Value, error) {
	fn := fnValue.ClosureValue()
	if len(fn.Params) != len(args) {
		return Value{}, NewMettaError(RuntimeError, fnValue,
			"lambda expects %d arguments, got %d", len(fn.Params), len(args))
	}
	frame := fn.Frame
	if frame == nil {
		frame = NewFrame()
	}
	for i, p := range fn.Params {
		frame = frame.Push(p, args[i])
	}
	body := frame.Resolve(fn.Body)
	results, err := evalLoop(body, env, depth)
	if err != nil {
		return Value{}, err
	}
	if len(results) == 0 {
		return NewNil(), nil
	}
	return results[0], nil
}

// runTrampolineOperation drives a TrampolineOperation's state machine to
// completion, evaluating whatever argument it requests at each step
// without growing the Go call stack for the operation's own
// steps — only the EvalArg sub-evaluations recurse, exactly mirroring
// original_source's trampoline/engine.rs driving loop for
// GroundedOperationTCO implementations.
func runTrampolineOperation(op TrampolineOperation, args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	state := NewGroundedState(args)
	for {
		work := op.ExecuteStep(state)
		if work.Err != nil {
			return nil, work.Err
		}
		if work.Done {
			return work.Values, nil
		}
		if work.ArgIdx < 0 || work.ArgIdx >= len(state.Args) {
			return nil, NewMettaError(RuntimeError, NewNil(), "%s: requested invalid argument index %d", op.Name(), work.ArgIdx)
		}
		results, _ := eval(state.Args[work.ArgIdx], env)
		state.Evaluated[work.ArgIdx] = results
		state.Step++
	}
}
