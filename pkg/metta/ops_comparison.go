package metta

type comparisonOp struct {
	name string
	fn   func(a, b float64) bool
}

func (op comparisonOp) Name() string { return op.name }

func (op comparisonOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 2 {
		return nil, NewMettaError(RuntimeError, NewSExpr(append([]Value{NewAtom(op.name)}, args...)...),
			"%s requires 2 arguments, got %d", op.name, len(args))
	}
	aVals, _ := eval(args[0], env)
	bVals, _ := eval(args[1], env)

	var out []Value
	for _, a := range aVals {
		for _, b := range bVals {
			af, aok := numeric(a)
			bf, bok := numeric(b)
			if aok && bok {
				out = append(out, NewBool(op.fn(af, bf)))
				continue
			}
			if op.name == "==" {
				out = append(out, NewBool(Equivalent(a, b)))
				continue
			}
			return nil, ErrNoReduce()
		}
	}
	return out, nil
}

func registerComparison(r *Registry) {
	r.RegisterLazy(comparisonOp{"==", func(a, b float64) bool { return a == b }})
	r.RegisterLazy(comparisonOp{"<", func(a, b float64) bool { return a < b }})
	r.RegisterLazy(comparisonOp{"<=", func(a, b float64) bool { return a <= b }})
	r.RegisterLazy(comparisonOp{">", func(a, b float64) bool { return a > b }})
	r.RegisterLazy(comparisonOp{">=", func(a, b float64) bool { return a >= b }})
}
