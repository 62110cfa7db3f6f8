package metta

// getMetatypeOp returns the Value's structural metatype, one of the fixed
// symbols spec.md section 4.4 names: Symbol, Variable, Expression, or
// Grounded (for anything with a host-side representation: Long, Float,
// Bool, String, SpaceRef, StateRef, Closure).
type getMetatypeOp struct{}

func (getMetatypeOp) Name() string { return "get-metatype" }

func (getMetatypeOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 1 {
		return nil, NewMettaError(RuntimeError, NewNil(), "get-metatype requires 1 argument")
	}
	vals, _ := eval(args[0], env)
	out := make([]Value, 0, len(vals))
	for _, v := range vals {
		out = append(out, NewAtom(metatypeOf(v)))
	}
	return out, nil
}

func metatypeOf(v Value) string {
	switch {
	case v.IsVar():
		return "Variable"
	case v.IsAtom():
		return "Symbol"
	case v.IsSExpr():
		return "Expression"
	default:
		return "Grounded"
	}
}

// undefinedType is the sentinel get-type returns when no (: atom Type)
// declaration is found for the queried atom.
var undefinedType = NewAtom("%Undefined%")

// lookupType finds a declared type for atom by scanning the Space for
// facts of the shape (: atom Type).
func lookupType(sp *Space, atom Value) (Value, bool) {
	typeVar := NewAtom("$__Type")
	pattern := NewSExpr(NewAtom(":"), atom, typeVar)
	for _, frame := range sp.Match(pattern, NewFrame()) {
		if v, ok := frame.Lookup("$__Type"); ok {
			return frame.Walk(v), true
		}
	}
	return Value{}, false
}

type getTypeOp struct{}

func (getTypeOp) Name() string { return "get-type" }

func (getTypeOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 1 {
		return nil, NewMettaError(RuntimeError, NewNil(), "get-type requires 1 argument")
	}
	vals, _ := eval(args[0], env)
	out := make([]Value, 0, len(vals))
	for _, v := range vals {
		if t, ok := lookupType(env.Space(), v); ok {
			out = append(out, t)
			continue
		}
		out = append(out, undefinedType)
	}
	return out, nil
}

type checkTypeOp struct{}

func (checkTypeOp) Name() string { return "check-type" }

func (checkTypeOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 2 {
		return nil, NewMettaError(RuntimeError, NewNil(), "check-type requires 2 arguments")
	}
	atoms, _ := eval(args[0], env)
	wants, _ := eval(args[1], env)
	var out []Value
	for _, a := range atoms {
		actual, ok := lookupType(env.Space(), a)
		for _, want := range wants {
			out = append(out, NewBool(ok && Equivalent(actual, want)))
		}
	}
	return out, nil
}

type assertTypeOp struct{}

func (assertTypeOp) Name() string { return "assert-type" }

func (assertTypeOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 2 {
		return nil, NewMettaError(RuntimeError, NewNil(), "assert-type requires 2 arguments")
	}
	atoms, _ := eval(args[0], env)
	wants, _ := eval(args[1], env)
	var out []Value
	for _, a := range atoms {
		actual, ok := lookupType(env.Space(), a)
		for _, want := range wants {
			if ok && Equivalent(actual, want) {
				out = append(out, a)
				continue
			}
			out = append(out, NewMettaError(RuntimeError, a, "assert-type: %s is not of type %s", a.String(), want.String()).ToValue())
		}
	}
	return out, nil
}

func registerIntrospectionOps(r *Registry) {
	r.RegisterLazy(getMetatypeOp{})
	r.RegisterLazy(getTypeOp{})
	r.RegisterLazy(checkTypeOp{})
	r.RegisterLazy(assertTypeOp{})
}
