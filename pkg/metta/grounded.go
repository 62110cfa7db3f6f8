package metta

import "sync"

// EvalFunc evaluates an unevaluated argument expression to its (possibly
// multiple) results plus the resulting Environment, for use by
// LazyOperation implementations that need a concrete value before they
// can proceed.
type EvalFunc func(arg Value, env *Environment) ([]Value, *Environment)

// LazyOperation is the "raw" grounded-operation trait: it receives
// unevaluated arguments plus an EvalFunc callback and evaluates whatever
// it needs internally. Grounded on original_source's grounded/traits.rs
// GroundedOperation trait — straightforward operations (arithmetic,
// comparison, list primitives) implement this one.
type LazyOperation interface {
	Name() string
	ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error)
}

// GroundedWork is what TrampolineOperation.ExecuteStep returns: either the
// operation is finished (Done), it needs one more argument evaluated
// before it can continue (EvalArg), or it failed (Err != nil).
// Mirrors original_source's GroundedWork enum (Done/EvalArg/Error).
type GroundedWork struct {
	Done   bool
	Values []Value // valid when Done
	ArgIdx int     // valid when !Done && Err == nil: which arg to evaluate next
	Err    error
}

// GroundedState is the mutable state threaded across ExecuteStep calls for
// a single invocation of a TrampolineOperation: the call's raw args, a
// step counter, and the evaluated results accumulated so far, keyed by
// argument index. Mirrors original_source's GroundedState struct.
type GroundedState struct {
	Args     []Value
	Step     int
	Evaluated map[int][]Value
}

// NewGroundedState starts a fresh state machine for args at step 0.
func NewGroundedState(args []Value) *GroundedState {
	return &GroundedState{Args: args, Evaluated: make(map[int][]Value)}
}

// GetArg returns the evaluated results for argument i, if already
// computed by a prior EvalArg round trip.
func (s *GroundedState) GetArg(i int) ([]Value, bool) {
	v, ok := s.Evaluated[i]
	return v, ok
}

// TrampolineOperation is the tail-call-optimized grounded-operation trait:
// it never calls back into the evaluator directly. Instead it returns
// GroundedWork.EvalArg to ask the trampoline to evaluate one argument and
// resume with the result, so that deeply nested grounded calls never grow
// the Go call stack. Mirrors original_source's GroundedOperationTCO trait.
// In this package only "+" (addOpTCO) implements it; every other builtin
// is a LazyOperation.
type TrampolineOperation interface {
	Name() string
	ExecuteStep(state *GroundedState) GroundedWork
}

// Registry is the shared, read-mostly table of grounded operations
// available to the evaluator, keyed by symbol name. It corresponds to
// original_source's environment/grounded_ops.rs registration table.
type Registry struct {
	mu     sync.RWMutex
	lazy   map[string]LazyOperation
	tco    map[string]TrampolineOperation
	names  []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{lazy: map[string]LazyOperation{}, tco: map[string]TrampolineOperation{}}
}

// RegisterLazy installs a LazyOperation under its own Name().
func (r *Registry) RegisterLazy(op LazyOperation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lazy[op.Name()] = op
	r.names = append(r.names, op.Name())
}

// RegisterTCO installs a TrampolineOperation under its own Name().
func (r *Registry) RegisterTCO(op TrampolineOperation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tco[op.Name()] = op
	r.names = append(r.names, op.Name())
}

// LookupLazy returns the LazyOperation registered for name, if any.
func (r *Registry) LookupLazy(name string) (LazyOperation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.lazy[name]
	return op, ok
}

// LookupTCO returns the TrampolineOperation registered for name, if any.
func (r *Registry) LookupTCO(name string) (TrampolineOperation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.tco[name]
	return op, ok
}

// IsGrounded reports whether name is registered under either trait.
func (r *Registry) IsGrounded(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.lazy[name]; ok {
		return true
	}
	_, ok := r.tco[name]
	return ok
}

// Names returns every registered operation name, for fuzzy-matcher seeding.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// lazyAlias registers an existing LazyOperation under an additional name,
// for special-form spellings that are synonyms of an already-implemented
// operation (e.g. "new" for "new-space", "memo" for "new-memo").
type lazyAlias struct {
	aliasName string
	target    LazyOperation
}

func (a lazyAlias) Name() string { return a.aliasName }

func (a lazyAlias) ExecuteRaw(args []Value, env *Environment, eval EvalFunc) ([]Value, error) {
	return a.target.ExecuteRaw(args, env, eval)
}

// DefaultRegistry builds the registry with every builtin grounded
// operation installed, per spec.md section 4.4's operation table.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	registerArithmetic(r)
	registerComparison(r)
	registerLogic(r)
	registerListOps(r)
	registerStateOps(r)
	registerSpaceOps(r)
	registerControlOps(r)
	registerIntrospectionOps(r)
	registerMemoOps(r)
	registerMetaOps(r)
	registerIOOps(r)
	return r
}
