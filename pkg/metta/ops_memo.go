package metta

type newMemoOp struct{}

func (newMemoOp) Name() string { return "new-memo" }

func (newMemoOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 0 {
		return nil, NewMettaError(RuntimeError, NewNil(), "new-memo takes no arguments")
	}
	return []Value{env.NewMemo()}, nil
}

type memoFirstOp struct{}

func (memoFirstOp) Name() string { return "memo-first" }

// memo-first: (memo-first memo-handle expr) evaluates expr and caches
// only its first result, keyed by expr's printed form, per spec.md
// section 4.4's memoisation pair (new-memo/memo-first). Subsequent calls
// with a structurally identical expr return the cached value without
// re-evaluating — the mechanism behind memoised recursive definitions
// like Fibonacci.
func (memoFirstOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 2 {
		return nil, NewMettaError(RuntimeError, NewNil(), "memo-first requires 2 arguments")
	}
	handles, _ := eval(args[0], env)
	expr := args[1]

	var out []Value
	for _, h := range handles {
		if !h.IsStateRef() {
			return nil, NewMettaError(RuntimeError, h, "memo-first: not a memo handle")
		}
		v, err := env.MemoFirst(h.StateID(), expr.String(), func() (Value, error) {
			results, _ := eval(expr, env)
			if len(results) == 0 {
				return Value{}, ErrNoReduce()
			}
			return results[0], nil
		})
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func registerMemoOps(r *Registry) {
	r.RegisterLazy(newMemoOp{})
	r.RegisterLazy(memoFirstOp{})
	// "memo" is the special-form spelling spec.md section 4.5 dispatches
	// on; it is synonymous with new-memo.
	r.RegisterLazy(lazyAlias{aliasName: "memo", target: newMemoOp{}})
}
