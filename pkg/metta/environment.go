package metta

import (
	"os"
	"sync"
)

// namedSpace is one entry in the Environment's named-spaces table: an
// auxiliary Space plus its display name, addressed by handle (spec.md
// section 3: "a map of named spaces id → (name, Space)"). Each named
// space is a full Space — trie, bloom filter, and rule index — so that
// add-atom/remove-atom/match/collapse behave identically whether they
// target the Environment's root Space or an auxiliary one created by
// new-space.
type namedSpace struct {
	name  string
	space *Space
}

// sharedStore is a plain lock-guarded map shared, by the same pointer,
// across every clone of an Environment — never copy-on-write. State cells
// and named-space mutation are required to stay globally visible across
// all clones sharing the same underlying store: this is the one
// non-local mutation pathway, and implementing it as anything other than
// one map behind one lock would silently break that guarantee the first
// time an Environment clone diverged.
type sharedStore[V any] struct {
	mu   sync.RWMutex
	data map[string]V
}

func newSharedStore[V any]() *sharedStore[V] {
	return &sharedStore[V]{data: make(map[string]V)}
}

func (s *sharedStore[V]) get(id string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[id]
	return v, ok
}

func (s *sharedStore[V]) set(id string, v V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = v
}

func (s *sharedStore[V]) delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
}

// Environment owns the Space, the bind! table, named spaces, mutable state
// cells, a lexical scope tracker, a fuzzy matcher over known symbols, and
// the grounded-operation registry. Per spec.md sections 3 and 9:
//
//   - Space and the bind! table are copy-on-write: Clone() is O(1), and a
//     mutating call clones the affected sub-structure only if it is still
//     shared with another Environment.
//   - named spaces and state cells are a single shared map behind a lock,
//     deliberately bypassing copy-on-write, so that change-state! and
//     named-space mutation are observable across every clone — this
//     matches observed MeTTa semantics.
//   - the scope tracker is advisory (diagnostics only) and follows the
//     same copy-on-write discipline as bindings.
//   - the fuzzy matcher and grounded registry are built once and shared
//     by pointer across every clone, outside the copy-on-write and
//     shared-store bookkeeping. The registry is not modified after
//     construction; the fuzzy matcher is: Bind teaches it each bound
//     name, and that name is then known to every clone.
type Environment struct {
	space    cowBox[*Space]
	bindings cowBox[map[string]Value]
	scopes   cowBox[[]map[string]struct{}]

	namedSpaces *sharedStore[*namedSpace]
	states      *sharedStore[Value]
	memos       *sharedStore[*memoTable]

	fuzzy    *FuzzyMatcher
	registry *Registry
	logger   Logger
	ioSink   *IOSink
}

// memoTable backs a single new-memo handle: a cache from a call
// expression's printed form to its first evaluated result, per spec.md
// section 4.4's memoisation operations.
type memoTable struct {
	mu    sync.RWMutex
	cache map[string]Value
}

func newMemoTable() *memoTable {
	return &memoTable{cache: make(map[string]Value)}
}

func (t *memoTable) get(key string) (Value, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.cache[key]
	return v, ok
}

func (t *memoTable) set(key string, v Value) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache[key] = v
}

// NewEnvironment returns an empty Environment: an empty Space, no
// bindings, one empty scope frame, the standard grounded-operation
// registry, and a no-op logger.
func NewEnvironment() *Environment {
	registry := DefaultRegistry()
	fuzzy := NewFuzzyMatcher()
	fuzzy.LearnAll(registry.Names())
	return &Environment{
		space:       newCOWBox(NewSpace()),
		bindings:    newCOWBox(map[string]Value{}),
		scopes:      newCOWBox([]map[string]struct{}{{}}),
		namedSpaces: newSharedStore[*namedSpace](),
		states:      newSharedStore[Value](),
		memos:       newSharedStore[*memoTable](),
		fuzzy:       fuzzy,
		registry:    registry,
		logger:      NopLogger{},
		ioSink:      &IOSink{Out: os.Stdout, In: os.Stdin},
	}
}

// Clone returns a new Environment handle sharing Space, bindings, and
// scope data by copy-on-write (O(1)), and sharing the named-spaces and
// states maps directly (non-local mutation, by design).
func (e *Environment) Clone() *Environment {
	return &Environment{
		space:       e.space.clone(),
		bindings:    e.bindings.clone(),
		scopes:      e.scopes.clone(),
		namedSpaces: e.namedSpaces,
		states:      e.states,
		memos:       e.memos,
		fuzzy:       e.fuzzy,
		registry:    e.registry,
		logger:      e.logger,
		ioSink:      e.ioSink,
	}
}

// WithLogger returns a shallow copy of e using the given logger for
// internal diagnostics (no code in this package logs through it) — never
// for println!/print, which always goes through the injected I/O sink.
func (e *Environment) WithLogger(l Logger) *Environment {
	clone := *e
	clone.logger = l
	return &clone
}

// WithIOSink returns a shallow copy of e that routes println!/print/read
// through sink instead of the default stdout/stdin, per spec.md section
// 6's injected-I/O requirement.
func (e *Environment) WithIOSink(sink IOSink) *Environment {
	clone := *e
	clone.ioSink = &sink
	return &clone
}

func (e *Environment) IOSink() *IOSink { return e.ioSink }

func (e *Environment) Space() *Space { return e.space.get() }

// RootSpaceRef returns the SpaceRef handle denoting the Environment's own
// root Space.
func (e *Environment) RootSpaceRef() Value { return NewSpaceRef(RootSpaceID) }

func cloneSpace(s *Space) *Space { return s.Clone() }

// MutateRootSpace detaches the root Space from any Environment it is
// still shared with (copy-on-write) and applies fn to the now-uniquely-
// owned copy. Every write path that touches the root Space — add-atom,
// remove-atom, and any future mutating grounded op — must go through
// this, or through AddFact/RemoveFact below, never through Space()
// directly followed by a mutator.
func (e *Environment) MutateRootSpace(fn func(*Space)) {
	e.space.forWrite(cloneSpace)
	fn(e.space.get())
}

// AddFact inserts v into the root Space under copy-on-write.
func (e *Environment) AddFact(v Value) { e.MutateRootSpace(func(s *Space) { s.Add(v) }) }

// RemoveFact removes one structurally-equivalent occurrence of v from the
// root Space under copy-on-write.
func (e *Environment) RemoveFact(v Value) bool {
	removed := false
	e.MutateRootSpace(func(s *Space) { removed = s.Remove(v) })
	return removed
}

// Bind sets a top-level symbol→value binding (the `bind!` form).
func (e *Environment) Bind(name string, v Value) {
	e.bindings.forWrite(cloneBindings)
	m := e.bindings.get()
	m[name] = v
	e.fuzzy.Learn(name)
}

// Lookup resolves a top-level bound symbol.
func (e *Environment) Lookup(name string) (Value, bool) {
	v, ok := e.bindings.get()[name]
	return v, ok
}

func cloneBindings(m map[string]Value) map[string]Value {
	out := make(map[string]Value, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// PushScope pushes a new symbol set onto the lexical scope tracker — the
// advisory "visible symbols" stack described in spec.md section 4.3.
func (e *Environment) PushScope() {
	e.scopes.forWrite(cloneScopes)
	e.scopes.set(append(e.scopes.get(), map[string]struct{}{}))
}

// PopScope pops the innermost scope frame, if more than the root remains.
func (e *Environment) PopScope() {
	e.scopes.forWrite(cloneScopes)
	scopes := e.scopes.get()
	if len(scopes) > 1 {
		e.scopes.set(scopes[:len(scopes)-1])
	}
}

// DeclareVisible records name as visible in the innermost scope.
func (e *Environment) DeclareVisible(name string) {
	e.scopes.forWrite(cloneScopes)
	scopes := e.scopes.get()
	scopes[len(scopes)-1][name] = struct{}{}
}

// VisibleSymbols returns every symbol visible from the innermost scope
// outward, most-local first — used only for fuzzy-match diagnostics.
func (e *Environment) VisibleSymbols() []string {
	scopes := e.scopes.get()
	var out []string
	for i := len(scopes) - 1; i >= 0; i-- {
		for name := range scopes[i] {
			out = append(out, name)
		}
	}
	return out
}

func cloneScopes(scopes []map[string]struct{}) []map[string]struct{} {
	out := make([]map[string]struct{}, len(scopes))
	for i, s := range scopes {
		cp := make(map[string]struct{}, len(s))
		for k := range s {
			cp[k] = struct{}{}
		}
		out[i] = cp
	}
	return out
}

// NewNamedSpace allocates a fresh named Space, returning its handle
// Value. Named-space storage is globally shared (non-COW) per the type
// doc on sharedStore: every Environment clone sharing this store sees
// mutations to it immediately.
func (e *Environment) NewNamedSpace(name string) Value {
	id := newHandleID()
	e.namedSpaces.set(id, &namedSpace{name: name, space: NewSpace()})
	return NewSpaceRef(id)
}

// SpaceByID resolves a SpaceRef handle to its underlying Space. The root
// Space's own handle id is the empty string, matching the sentinel
// RootSpaceID used by Eval/driver code that needs to refer to "the"
// Space without an explicit new-space call.
func (e *Environment) SpaceByID(id string) (*Space, bool) {
	if id == RootSpaceID {
		return e.Space(), true
	}
	ns, ok := e.namedSpaces.get(id)
	if !ok {
		return nil, false
	}
	return ns.space, true
}

// NamedSpaceValues returns every value currently stored in a named space.
func (e *Environment) NamedSpaceValues(id string) ([]Value, bool) {
	sp, ok := e.SpaceByID(id)
	if !ok {
		return nil, false
	}
	return sp.Iter(), true
}

// NamedSpaceAdd appends a value to a space by handle. A named (auxiliary)
// space is globally shared: the mutation is visible immediately to every
// Environment clone sharing this store. The root space (RootSpaceID)
// instead goes through MutateRootSpace's copy-on-write detach, since the
// root Space is per-Environment state, not a shared store entry.
func (e *Environment) NamedSpaceAdd(id string, v Value) bool {
	if id == RootSpaceID {
		e.AddFact(v)
		return true
	}
	sp, ok := e.SpaceByID(id)
	if !ok {
		return false
	}
	sp.Add(v)
	return true
}

// NamedSpaceRemove removes at most one structurally-equivalent value from
// a space by handle, with the same root-vs-named distinction as
// NamedSpaceAdd.
func (e *Environment) NamedSpaceRemove(id string, v Value) bool {
	if id == RootSpaceID {
		return e.RemoveFact(v)
	}
	sp, ok := e.SpaceByID(id)
	if !ok {
		return false
	}
	return sp.Remove(v)
}

// RootSpaceID is the sentinel SpaceRef id denoting the Environment's own
// root Space, as opposed to an auxiliary space created by new-space.
const RootSpaceID = ""

// NewState allocates a mutable state cell initialised to v, returning its
// handle Value.
func (e *Environment) NewState(v Value) Value {
	id := newHandleID()
	e.states.set(id, v)
	return NewStateRef(id)
}

// GetState reads a state cell by handle.
func (e *Environment) GetState(id string) (Value, bool) {
	return e.states.get(id)
}

// ChangeState overwrites a state cell by handle, returning false if the
// handle is unknown. This mutation is globally visible across every
// Environment clone sharing this store, matching observed MeTTa semantics
// for change-state!.
func (e *Environment) ChangeState(id string, v Value) bool {
	if _, ok := e.states.get(id); !ok {
		return false
	}
	e.states.set(id, v)
	return true
}

// NewMemo allocates a fresh memoisation table, returning its handle
// Value (a StateRef, since both are opaque globally-shared handles).
func (e *Environment) NewMemo() Value {
	id := newHandleID()
	e.memos.set(id, newMemoTable())
	return NewStateRef(id)
}

// MemoFirst looks up call (by its printed form) in the memo table
// identified by id; if absent, it is computed by compute and cached.
func (e *Environment) MemoFirst(id, callKey string, compute func() (Value, error)) (Value, error) {
	table, ok := e.memos.get(id)
	if !ok {
		return Value{}, NewMettaError(RuntimeError, NewStateRef(id), "memo-first: unknown memo handle")
	}
	if v, ok := table.get(callKey); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		return Value{}, err
	}
	table.set(callKey, v)
	return v, nil
}

// Registry returns the shared grounded-operation registry.
func (e *Environment) Registry() *Registry { return e.registry }

// FuzzyMatcher returns the shared fuzzy matcher over known symbols.
func (e *Environment) FuzzyMatcher() *FuzzyMatcher { return e.fuzzy }

// Logger returns the Environment's diagnostic logger (never nil).
func (e *Environment) Logger() Logger { return e.logger }
