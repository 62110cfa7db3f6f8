package metta

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Snapshot is the declared-only contract spec.md section 6 names:
// "content-addressed dump of a Space's trie into a memory-mapped file;
// loading is O(1) page-faulting." The memory-mapped, page-faulting
// loading strategy belongs to a persistence layer external to this
// package (see the package doc comment); what this file owns is the
// serialisable representation a future mmap-backed loader would read,
// encoded with CBOR (github.com/fxamacker/cbor/v2, already part of the
// dependency set) rather than a hand-rolled binary format, and a content
// address (FNV-1a over the encoded bytes) so identical Spaces produce
// byte-identical, identically-addressed snapshots.
type Snapshot struct {
	Facts     []snapshotValue `cbor:"facts"`
	Sequences []uint64        `cbor:"sequences"`
}

// snapshotValue is Value's wire representation: CBOR cannot encode an
// unexported-field struct with interior pointers (Closure, Error's
// offending-value pointer) directly, so each Value is flattened to its
// tag plus the few fields that tag uses, recursively for SExpr items.
// Closure's captured lexical Frame is not part of this representation:
// only top-level closures (Frame == nil, e.g. ones built by lambdaOp at
// the point Eval sees them) round-trip their behavior faithfully: a
// closure captured over local bindings loses that closure environment
// across a snapshot round trip, since a Frame is an arbitrary linked
// chain of bindings with no stable on-disk identity of its own.
type snapshotValue struct {
	Kind   Kind            `cbor:"k"`
	Atom   string          `cbor:"a,omitempty"`
	Long   int64           `cbor:"l,omitempty"`
	Float  float64         `cbor:"f,omitempty"`
	Bool   bool            `cbor:"b,omitempty"`
	Str    string          `cbor:"s,omitempty"`
	Items  []snapshotValue `cbor:"i,omitempty"`
	Params []string        `cbor:"p,omitempty"` // KindClosure
	Body   *snapshotValue  `cbor:"y,omitempty"`  // KindClosure
	ErrMsg string          `cbor:"e,omitempty"`  // KindError
}

func toSnapshotValue(v Value) snapshotValue {
	sv := snapshotValue{Kind: v.Kind()}
	switch v.Kind() {
	case KindAtom:
		sv.Atom = v.Symbol()
	case KindLong:
		sv.Long = v.Long()
	case KindFloat:
		sv.Float = v.Float()
	case KindBool:
		sv.Bool = v.Bool()
	case KindString:
		sv.Str = v.Str()
	case KindSExpr:
		items := v.Items()
		sv.Items = make([]snapshotValue, len(items))
		for i, it := range items {
			sv.Items[i] = toSnapshotValue(it)
		}
	case KindSpaceRef:
		sv.Atom = v.SpaceID()
	case KindStateRef:
		sv.Atom = v.StateID()
	case KindClosure:
		c := v.ClosureValue()
		sv.Params = append([]string(nil), c.Params...)
		body := toSnapshotValue(c.Body)
		sv.Body = &body
	case KindError:
		sv.ErrMsg = v.ErrorMessage()
		offending := toSnapshotValue(v.ErrorValue())
		sv.Body = &offending
	}
	return sv
}

func fromSnapshotValue(sv snapshotValue) Value {
	switch sv.Kind {
	case KindAtom:
		return NewAtom(sv.Atom)
	case KindLong:
		return NewLong(sv.Long)
	case KindFloat:
		return NewFloat(sv.Float)
	case KindBool:
		return NewBool(sv.Bool)
	case KindString:
		return NewString(sv.Str)
	case KindNil:
		return NewNil()
	case KindUnit:
		return NewUnit()
	case KindSExpr:
		items := make([]Value, len(sv.Items))
		for i, it := range sv.Items {
			items[i] = fromSnapshotValue(it)
		}
		return NewSExpr(items...)
	case KindSpaceRef:
		return NewSpaceRef(sv.Atom)
	case KindStateRef:
		return NewStateRef(sv.Atom)
	case KindClosure:
		var body Value
		if sv.Body != nil {
			body = fromSnapshotValue(*sv.Body)
		}
		return NewClosure(append([]string(nil), sv.Params...), body, nil)
	case KindError:
		var offending Value
		if sv.Body != nil {
			offending = fromSnapshotValue(*sv.Body)
		}
		return NewError(sv.ErrMsg, offending)
	default:
		return NewNil()
	}
}

// BuildSnapshot captures space's current fact set (Space.Iter's
// insertion-ordered values) as a Snapshot ready for CBOR encoding.
// Rules are already represented as `(= LHS RHS)` facts (Rule.AsFact), so
// a single fact list round-trips both.
func BuildSnapshot(space *Space) *Snapshot {
	facts := space.Iter()
	snap := &Snapshot{Facts: make([]snapshotValue, len(facts))}
	for i, f := range facts {
		snap.Facts[i] = toSnapshotValue(f)
	}
	return snap
}

// Encode serialises snap to CBOR bytes.
func (snap *Snapshot) Encode() ([]byte, error) {
	return cbor.Marshal(snap)
}

// DecodeSnapshot parses CBOR bytes produced by Encode back into a
// Snapshot.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Restore rebuilds a Space from snap, re-adding every fact in its
// original recorded order so Space.Iter on the restored Space matches
// the Space BuildSnapshot captured, and rule facts are re-indexed for
// dispatch exactly as Space.Add does for freshly-parsed input.
func (snap *Snapshot) Restore() *Space {
	sp := NewSpace()
	for _, sv := range snap.Facts {
		sp.Add(fromSnapshotValue(sv))
	}
	return sp
}

// ContentAddress returns the FNV-1a hash of snap's CBOR encoding, the
// content address spec.md section 6's snapshot contract implies ("
// content-addressed dump").
func (snap *Snapshot) ContentAddress() (string, error) {
	data, err := snap.Encode()
	if err != nil {
		return "", err
	}
	return fnv1a(data), nil
}

func fnv1a(data []byte) string {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	var h uint64 = offset64
	for _, b := range data {
		h ^= uint64(b)
		h *= prime64
	}
	return fmt.Sprintf("%016x", h)
}
