package metta

type newSpaceOp struct{}

func (newSpaceOp) Name() string { return "new-space" }

func (newSpaceOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) > 1 {
		return nil, NewMettaError(RuntimeError, NewNil(), "new-space takes at most 1 argument")
	}
	name := "space"
	if len(args) == 1 {
		vals, _ := eval(args[0], env)
		if len(vals) > 0 && vals[0].IsAtom() {
			name = vals[0].Symbol()
		}
	}
	return []Value{env.NewNamedSpace(name)}, nil
}

type addAtomOp struct{}

func (addAtomOp) Name() string { return "add-atom" }

func (addAtomOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 2 {
		return nil, NewMettaError(RuntimeError, NewNil(), "add-atom requires 2 arguments")
	}
	handles, _ := eval(args[0], env)
	atoms, _ := eval(args[1], env)
	for _, h := range handles {
		if !h.IsSpaceRef() {
			return nil, NewMettaError(RuntimeError, h, "add-atom: not a space handle")
		}
		for _, a := range atoms {
			if !env.NamedSpaceAdd(h.SpaceID(), a) {
				return nil, NewMettaError(RuntimeError, h, "add-atom: unknown space handle")
			}
		}
	}
	return []Value{NewUnit()}, nil
}

type removeAtomOp struct{}

func (removeAtomOp) Name() string { return "remove-atom" }

func (removeAtomOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 2 {
		return nil, NewMettaError(RuntimeError, NewNil(), "remove-atom requires 2 arguments")
	}
	handles, _ := eval(args[0], env)
	atoms, _ := eval(args[1], env)
	for _, h := range handles {
		if !h.IsSpaceRef() {
			return nil, NewMettaError(RuntimeError, h, "remove-atom: not a space handle")
		}
		for _, a := range atoms {
			env.NamedSpaceRemove(h.SpaceID(), a)
		}
	}
	return []Value{NewUnit()}, nil
}

type matchOp struct{}

func (matchOp) Name() string { return "match" }

// match: (match space pattern template) — for every binding produced by
// matching pattern against space's contents, instantiate template with
// those bindings, per spec.md section 4.4.
func (matchOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 3 {
		return nil, NewMettaError(RuntimeError, NewNil(), "match requires 3 arguments")
	}
	handles, _ := eval(args[0], env)
	pattern := args[1]
	template := args[2]

	var out []Value
	for _, h := range handles {
		if !h.IsSpaceRef() {
			return nil, NewMettaError(RuntimeError, h, "match: not a space handle")
		}
		sp, ok := env.SpaceByID(h.SpaceID())
		if !ok {
			return nil, NewMettaError(RuntimeError, h, "match: unknown space handle")
		}
		for _, frame := range sp.Match(pattern, NewFrame()) {
			out = append(out, frame.Resolve(template))
		}
	}
	return out, nil
}

type collapseOp struct{}

func (collapseOp) Name() string { return "collapse" }

// collapse: gathers every nondeterministic result of evaluating its
// argument into a single list Value, per spec.md section 4.4's
// "collapse the multiple results of expr into one list" operation.
func (collapseOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 1 {
		return nil, NewMettaError(RuntimeError, NewNil(), "collapse requires 1 argument")
	}
	vals, _ := eval(args[0], env)
	return []Value{NewSExpr(vals...)}, nil
}

func registerSpaceOps(r *Registry) {
	r.RegisterLazy(newSpaceOp{})
	r.RegisterLazy(addAtomOp{})
	r.RegisterLazy(removeAtomOp{})
	r.RegisterLazy(matchOp{})
	r.RegisterLazy(collapseOp{})
	// "new" is the special-form spelling spec.md section 4.5 dispatches
	// on; it is synonymous with new-space.
	r.RegisterLazy(lazyAlias{aliasName: "new", target: newSpaceOp{}})
}
