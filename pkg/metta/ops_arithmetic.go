package metta

import "math"

// numeric reports whether v is a Long or Float and returns its float64
// value, so mixed-type arithmetic can be computed uniformly.
func numeric(v Value) (float64, bool) {
	switch {
	case v.IsLong():
		return float64(v.Long()), true
	case v.IsFloat():
		return v.Float(), true
	default:
		return 0, false
	}
}

// resultFor reconstructs a Long result if both operands were Long,
// otherwise a Float, per spec.md section 4.4's numeric-tower rule:
// "integer arithmetic stays integer unless an operand is a Float."
func resultFor(a, b Value, f float64) Value {
	if a.IsLong() && b.IsLong() {
		return NewLong(int64(f))
	}
	return NewFloat(f)
}

type binaryArithOp struct {
	name string
	fn   func(a, b float64) (float64, error)
}

func (op binaryArithOp) Name() string { return op.name }

func (op binaryArithOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 2 {
		return nil, NewMettaError(RuntimeError, NewSExpr(append([]Value{NewAtom(op.name)}, args...)...),
			"%s requires 2 arguments, got %d", op.name, len(args))
	}
	aVals, _ := eval(args[0], env)
	bVals, _ := eval(args[1], env)

	var out []Value
	for _, a := range aVals {
		af, aok := numeric(a)
		if !aok {
			return nil, ErrNoReduce()
		}
		for _, b := range bVals {
			bf, bok := numeric(b)
			if !bok {
				return nil, ErrNoReduce()
			}
			f, err := op.fn(af, bf)
			if err != nil {
				return nil, err
			}
			out = append(out, resultFor(a, b, f))
		}
	}
	return out, nil
}

// addOpTCO is "+" implemented via the trampoline/state-machine trait
// instead of the lazy trait, grounded directly on the worked example in
// original_source's grounded/traits.rs doc comment for
// GroundedOperationTCO: step 0 requests the left argument, step 1
// requests the right, step 2 computes the Cartesian product of their
// results. It is the only "+" in the registry: registerArithmetic
// registers no LazyOperation for "+", and the other arithmetic operators
// are binaryArithOp LazyOperations.
type addOpTCO struct{}

func (addOpTCO) Name() string { return "+" }

func (addOpTCO) ExecuteStep(state *GroundedState) GroundedWork {
	switch state.Step {
	case 0:
		if len(state.Args) != 2 {
			return GroundedWork{Err: NewMettaError(RuntimeError, NewNil(), "+ requires 2 arguments, got %d", len(state.Args))}
		}
		return GroundedWork{ArgIdx: 0}
	case 1:
		return GroundedWork{ArgIdx: 1}
	case 2:
		aVals, _ := state.GetArg(0)
		bVals, _ := state.GetArg(1)
		var out []Value
		for _, a := range aVals {
			af, aok := numeric(a)
			if !aok {
				return GroundedWork{Err: ErrNoReduce()}
			}
			for _, b := range bVals {
				bf, bok := numeric(b)
				if !bok {
					return GroundedWork{Err: ErrNoReduce()}
				}
				out = append(out, resultFor(a, b, af+bf))
			}
		}
		return GroundedWork{Done: true, Values: out}
	default:
		return GroundedWork{Err: NewMettaError(RuntimeError, NewNil(), "+: invalid step %d", state.Step)}
	}
}

func registerArithmetic(r *Registry) {
	r.RegisterTCO(addOpTCO{})
	r.RegisterLazy(binaryArithOp{"-", func(a, b float64) (float64, error) { return a - b, nil }})
	r.RegisterLazy(binaryArithOp{"*", func(a, b float64) (float64, error) { return a * b, nil }})
	r.RegisterLazy(binaryArithOp{"/", func(a, b float64) (float64, error) {
		if b == 0 {
			return 0, NewMettaError(RuntimeError, NewNil(), "division by zero")
		}
		return a / b, nil
	}})
	r.RegisterLazy(binaryArithOp{"%", func(a, b float64) (float64, error) {
		if b == 0 {
			return 0, NewMettaError(RuntimeError, NewNil(), "modulo by zero")
		}
		return math.Mod(a, b), nil
	}})
	r.RegisterLazy(binaryArithOp{"pow", func(a, b float64) (float64, error) { return math.Pow(a, b), nil }})
}
