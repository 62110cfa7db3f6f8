package metta

type newStateOp struct{}

func (newStateOp) Name() string { return "new-state" }

func (newStateOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 1 {
		return nil, NewMettaError(RuntimeError, NewNil(), "new-state requires 1 argument")
	}
	vals, _ := eval(args[0], env)
	out := make([]Value, 0, len(vals))
	for _, v := range vals {
		out = append(out, env.NewState(v))
	}
	return out, nil
}

type getStateOp struct{}

func (getStateOp) Name() string { return "get-state" }

func (getStateOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 1 {
		return nil, NewMettaError(RuntimeError, NewNil(), "get-state requires 1 argument")
	}
	vals, _ := eval(args[0], env)
	out := make([]Value, 0, len(vals))
	for _, v := range vals {
		if !v.IsStateRef() {
			return nil, NewMettaError(RuntimeError, v, "get-state: not a state handle")
		}
		cur, ok := env.GetState(v.StateID())
		if !ok {
			return nil, NewMettaError(RuntimeError, v, "get-state: unknown state handle")
		}
		out = append(out, cur)
	}
	return out, nil
}

type changeStateOp struct{}

func (changeStateOp) Name() string { return "change-state!" }

// change-state! mutates its state cell in place, globally visible to
// every Environment clone sharing the same store (Environment.ChangeState).
// It returns the new value, matching the original's convention that
// change-state! yields its own updated content.
func (changeStateOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 2 {
		return nil, NewMettaError(RuntimeError, NewNil(), "change-state! requires 2 arguments")
	}
	handles, _ := eval(args[0], env)
	newVals, _ := eval(args[1], env)
	var out []Value
	for _, h := range handles {
		if !h.IsStateRef() {
			return nil, NewMettaError(RuntimeError, h, "change-state!: not a state handle")
		}
		for _, nv := range newVals {
			if !env.ChangeState(h.StateID(), nv) {
				return nil, NewMettaError(RuntimeError, h, "change-state!: unknown state handle")
			}
			out = append(out, nv)
		}
	}
	return out, nil
}

func registerStateOps(r *Registry) {
	r.RegisterLazy(newStateOp{})
	r.RegisterLazy(getStateOp{})
	r.RegisterLazy(changeStateOp{})
}
