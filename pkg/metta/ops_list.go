package metta

// list-oriented grounded operations treat an SExpr as a MeTTa list. They
// are grounded on spec.md section 4.4's list-operation table and on the
// teacher's own Items()/Head()/Tail() helpers on term structure
// (generalised here from gokanlogic's pair/cons terms to Value's SExpr).

type carAtomOp struct{}

func (carAtomOp) Name() string { return "car-atom" }

func (carAtomOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 1 {
		return nil, NewMettaError(RuntimeError, NewNil(), "car-atom requires 1 argument")
	}
	vals, _ := eval(args[0], env)
	out := make([]Value, 0, len(vals))
	for _, v := range vals {
		if !v.IsSExpr() || v.Len() == 0 {
			return nil, NewMettaError(RuntimeError, v, "car-atom: empty or non-list argument")
		}
		out = append(out, v.Head())
	}
	return out, nil
}

type cdrAtomOp struct{}

func (cdrAtomOp) Name() string { return "cdr-atom" }

func (cdrAtomOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 1 {
		return nil, NewMettaError(RuntimeError, NewNil(), "cdr-atom requires 1 argument")
	}
	vals, _ := eval(args[0], env)
	out := make([]Value, 0, len(vals))
	for _, v := range vals {
		if !v.IsSExpr() || v.Len() == 0 {
			return nil, NewMettaError(RuntimeError, v, "cdr-atom: empty or non-list argument")
		}
		out = append(out, NewSExpr(v.Tail()...))
	}
	return out, nil
}

type consAtomOp struct{}

func (consAtomOp) Name() string { return "cons-atom" }

func (consAtomOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 2 {
		return nil, NewMettaError(RuntimeError, NewNil(), "cons-atom requires 2 arguments")
	}
	heads, _ := eval(args[0], env)
	tails, _ := eval(args[1], env)
	var out []Value
	for _, h := range heads {
		for _, t := range tails {
			if !t.IsSExpr() {
				return nil, ErrNoReduce()
			}
			out = append(out, NewSExpr(append([]Value{h}, t.Items()...)...))
		}
	}
	return out, nil
}

type deconsAtomOp struct{}

func (deconsAtomOp) Name() string { return "decons-atom" }

func (deconsAtomOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 1 {
		return nil, NewMettaError(RuntimeError, NewNil(), "decons-atom requires 1 argument")
	}
	vals, _ := eval(args[0], env)
	out := make([]Value, 0, len(vals))
	for _, v := range vals {
		if !v.IsSExpr() || v.Len() == 0 {
			return nil, NewMettaError(RuntimeError, v, "decons-atom: empty or non-list argument")
		}
		out = append(out, NewSExpr(v.Head(), NewSExpr(v.Tail()...)))
	}
	return out, nil
}

type sizeAtomOp struct{}

func (sizeAtomOp) Name() string { return "size-atom" }

func (sizeAtomOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 1 {
		return nil, NewMettaError(RuntimeError, NewNil(), "size-atom requires 1 argument")
	}
	vals, _ := eval(args[0], env)
	out := make([]Value, 0, len(vals))
	for _, v := range vals {
		if !v.IsSExpr() {
			return nil, ErrNoReduce()
		}
		out = append(out, NewLong(int64(v.Len())))
	}
	return out, nil
}

type maxAtomOp struct{}

func (maxAtomOp) Name() string { return "max-atom" }

func (maxAtomOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 1 {
		return nil, NewMettaError(RuntimeError, NewNil(), "max-atom requires 1 argument")
	}
	vals, _ := eval(args[0], env)
	out := make([]Value, 0, len(vals))
	for _, v := range vals {
		if !v.IsSExpr() || v.Len() == 0 {
			return nil, NewMettaError(RuntimeError, v, "max-atom: empty or non-list argument")
		}
		items := v.Items()
		best := items[0]
		bestF, ok := numeric(best)
		if !ok {
			return nil, ErrNoReduce()
		}
		for _, it := range items[1:] {
			f, ok := numeric(it)
			if !ok {
				return nil, ErrNoReduce()
			}
			if f > bestF {
				best, bestF = it, f
			}
		}
		out = append(out, best)
	}
	return out, nil
}

// applyFirst evaluates (fn arg) and returns its first result only. Go's
// grounded list-traversal operations (map-atom/filter-atom/foldl-atom)
// apply their function argument once per element rather than computing
// the full Cartesian product across every element's nondeterministic
// results — a deliberate simplification over the fully nondeterministic
// semantics, documented in DESIGN.md, since the combinatorial blow-up of
// an N-way Cartesian product across a list traversal is rarely what a
// MeTTa program wants from map/filter/fold.
func applyFirst(fn, arg Value, env *Environment, eval EvalFunc) (Value, error) {
	results, _ := eval(NewSExpr(fn, arg), env)
	if len(results) == 0 {
		return Value{}, ErrNoReduce()
	}
	return results[0], nil
}

type mapAtomOp struct{}

func (mapAtomOp) Name() string { return "map-atom" }

func (mapAtomOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 2 {
		return nil, NewMettaError(RuntimeError, NewNil(), "map-atom requires 2 arguments")
	}
	lists, _ := eval(args[0], env)
	fn := args[1]
	var out []Value
	for _, list := range lists {
		if !list.IsSExpr() {
			return nil, ErrNoReduce()
		}
		mapped := make([]Value, 0, list.Len())
		for _, item := range list.Items() {
			r, err := applyFirst(fn, item, env, eval)
			if err != nil {
				return nil, err
			}
			mapped = append(mapped, r)
		}
		out = append(out, NewSExpr(mapped...))
	}
	return out, nil
}

type filterAtomOp struct{}

func (filterAtomOp) Name() string { return "filter-atom" }

func (filterAtomOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 2 {
		return nil, NewMettaError(RuntimeError, NewNil(), "filter-atom requires 2 arguments")
	}
	lists, _ := eval(args[0], env)
	pred := args[1]
	var out []Value
	for _, list := range lists {
		if !list.IsSExpr() {
			return nil, ErrNoReduce()
		}
		var kept []Value
		for _, item := range list.Items() {
			r, err := applyFirst(pred, item, env, eval)
			if err != nil {
				return nil, err
			}
			if r.IsBool() && r.Bool() {
				kept = append(kept, item)
			}
		}
		out = append(out, NewSExpr(kept...))
	}
	return out, nil
}

type foldlAtomOp struct{}

func (foldlAtomOp) Name() string { return "foldl-atom" }

// foldl-atom: (foldl-atom list init fn) folds fn over list left to right,
// fn applied as (fn acc item).
func (foldlAtomOp) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	if len(args) != 3 {
		return nil, NewMettaError(RuntimeError, NewNil(), "foldl-atom requires 3 arguments")
	}
	lists, _ := eval(args[0], env)
	inits, _ := eval(args[1], env)
	fn := args[2]
	var out []Value
	for _, list := range lists {
		if !list.IsSExpr() {
			return nil, ErrNoReduce()
		}
		for _, init := range inits {
			acc := init
			for _, item := range list.Items() {
				results, _ := eval(NewSExpr(fn, acc, item), env)
				if len(results) == 0 {
					return nil, ErrNoReduce()
				}
				acc = results[0]
			}
			out = append(out, acc)
		}
	}
	return out, nil
}

func registerListOps(r *Registry) {
	r.RegisterLazy(carAtomOp{})
	r.RegisterLazy(cdrAtomOp{})
	r.RegisterLazy(consAtomOp{})
	r.RegisterLazy(deconsAtomOp{})
	r.RegisterLazy(sizeAtomOp{})
	r.RegisterLazy(maxAtomOp{})
	r.RegisterLazy(mapAtomOp{})
	r.RegisterLazy(filterAtomOp{})
	r.RegisterLazy(foldlAtomOp{})
}
