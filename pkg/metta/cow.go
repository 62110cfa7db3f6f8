package metta

import "sync/atomic"

// cowBox implements a copy-on-write sharing discipline for the
// Environment: wrap every mutable sub-structure in a reference-counted
// cell; before any write, if the refcount is > 1, clone and replace.
// Cloning an Environment is then O(1) (bump the refcount, share the
// pointer); the first mutating call after a clone pays for a private
// copy, and every call after that is free again until the next clone.
//
// This generalizes a family of per-type Clone() methods (Substitution.
// Clone, PLDB Database's persistent copy-on-write map in pkg/minikanren/
// pldb.go) into one reusable primitive, since MeTTa's Environment needs
// the same discipline applied uniformly to several different map types
// (bindings, scope tracker) rather than just one.
type cowBox[T any] struct {
	shared *int32
	data   T
}

// newCOWBox wraps an initial value as a freshly (uniquely) owned box.
func newCOWBox[T any](v T) cowBox[T] {
	shared := int32(1)
	return cowBox[T]{shared: &shared, data: v}
}

// clone returns a new handle sharing the same underlying data — O(1), no
// copy — and marks the data as (potentially) shared so the next write on
// either handle detaches.
func (b cowBox[T]) clone() cowBox[T] {
	atomic.AddInt32(b.shared, 1)
	return b
}

// forWrite must be called before mutating b.data in place. If the data is
// (potentially) shared with another handle, it detaches: this handle gets
// its own refcount and a private copy produced by cloneFn.
func (b *cowBox[T]) forWrite(cloneFn func(T) T) {
	if atomic.LoadInt32(b.shared) > 1 {
		atomic.AddInt32(b.shared, -1)
		fresh := int32(1)
		b.shared = &fresh
		b.data = cloneFn(b.data)
	}
}

// get returns the current value without regard to sharing — safe for
// reads, which never need to detach.
func (b cowBox[T]) get() T { return b.data }

// set replaces the box's value outright (used after forWrite has already
// guaranteed exclusive ownership).
func (b *cowBox[T]) set(v T) { b.data = v }
