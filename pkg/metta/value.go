// Package metta implements the MeTTaTron evaluation core: the value model,
// the Space (fact/rule store), the pattern matcher, grounded operations, a
// trampolined tree-walking evaluator, a bytecode compiler/VM, an optional
// JIT tier, a fuzzy matcher, and the hybrid executor that ties them
// together. Source parsing, the REPL, persistence beyond the declared
// snapshot contract, and the CLI are external collaborators and are not
// part of this package.
package metta

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindAtom Kind = iota
	KindLong
	KindFloat
	KindBool
	KindString
	KindNil
	KindUnit
	KindSExpr
	KindError
	KindSpaceRef
	KindStateRef
	KindClosure
)

// Value is the tagged variant for every runtime term in MeTTa. Values are
// immutable once constructed; sharing a nested Value between parents is
// always safe. The zero Value is not meaningful — always construct through
// one of the New* constructors.
type Value struct {
	kind Kind

	atom   string  // KindAtom
	long   int64   // KindLong
	float  float64 // KindFloat
	boolv  bool    // KindBool
	str    string  // KindString
	items  []Value // KindSExpr
	errMsg string  // KindError
	errVal *Value  // KindError

	spaceID string // KindSpaceRef
	stateID string // KindStateRef

	closure *Closure // KindClosure
}

// Closure captures a lambda's parameter list, body, and the binding frame
// present at the point the lambda was formed.
type Closure struct {
	Params []string
	Body   Value
	Frame  *Frame
}

// Constructors -----------------------------------------------------------

// NewAtom interns an atom by its printed symbol. Variables are atoms whose
// symbol begins with "$"; wildcards begin with "_" or "$_".
func NewAtom(symbol string) Value { return Value{kind: KindAtom, atom: symbol} }

func NewLong(v int64) Value     { return Value{kind: KindLong, long: v} }
func NewFloat(v float64) Value  { return Value{kind: KindFloat, float: v} }
func NewBool(v bool) Value      { return Value{kind: KindBool, boolv: v} }
func NewString(v string) Value  { return Value{kind: KindString, str: v} }
func NewNil() Value             { return Value{kind: KindNil} }
func NewUnit() Value            { return Value{kind: KindUnit} }
func NewSpaceRef(id string) Value { return Value{kind: KindSpaceRef, spaceID: id} }
func NewStateRef(id string) Value { return Value{kind: KindStateRef, stateID: id} }

// NewSExpr builds a composite term from ordered sub-values. An empty SExpr
// is a distinct value from Nil, though "has-value" treats them as equal
// per spec.md section 3.
func NewSExpr(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindSExpr, items: cp}
}

// NewError wraps an offending value and message as a first-class failure
// carrier. Errors propagate like any other Value through structure.
func NewError(message string, offending Value) Value {
	v := offending
	return Value{kind: KindError, errMsg: message, errVal: &v}
}

// NewClosure builds a lambda/function closure value.
func NewClosure(params []string, body Value, frame *Frame) Value {
	return Value{kind: KindClosure, closure: &Closure{Params: params, Body: body, Frame: frame}}
}

// Accessors ----------------------------------------------------------------

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsAtom() bool  { return v.kind == KindAtom }
func (v Value) IsLong() bool  { return v.kind == KindLong }
func (v Value) IsFloat() bool { return v.kind == KindFloat }
func (v Value) IsBool() bool  { return v.kind == KindBool }
func (v Value) IsString() bool { return v.kind == KindString }
func (v Value) IsNil() bool   { return v.kind == KindNil }
func (v Value) IsUnit() bool  { return v.kind == KindUnit }
func (v Value) IsSExpr() bool { return v.kind == KindSExpr }
func (v Value) IsError() bool { return v.kind == KindError }
func (v Value) IsSpaceRef() bool { return v.kind == KindSpaceRef }
func (v Value) IsStateRef() bool { return v.kind == KindStateRef }
func (v Value) IsClosure() bool  { return v.kind == KindClosure }

// IsVar reports whether this Value is an atom whose printed form begins
// with "$" — a pattern variable in the unifier's sense.
func (v Value) IsVar() bool {
	return v.kind == KindAtom && strings.HasPrefix(v.atom, "$")
}

// IsWildcard reports whether this Value is an atom beginning with "_" or
// "$_" — matches anything, binds nothing.
func (v Value) IsWildcard() bool {
	if v.kind != KindAtom {
		return false
	}
	return strings.HasPrefix(v.atom, "_") || strings.HasPrefix(v.atom, "$_")
}

func (v Value) Symbol() string {
	if v.kind != KindAtom {
		return ""
	}
	return v.atom
}

func (v Value) Long() int64    { return v.long }
func (v Value) Float() float64 { return v.float }
func (v Value) Bool() bool     { return v.boolv }
func (v Value) Str() string    { return v.str }

// Items returns the sub-values of an SExpr. Returns nil for non-SExpr
// values. The returned slice must not be mutated.
func (v Value) Items() []Value {
	if v.kind != KindSExpr {
		return nil
	}
	return v.items
}

func (v Value) Len() int {
	if v.kind != KindSExpr {
		return 0
	}
	return len(v.items)
}

// Head returns the first element of an SExpr, or a zero Value if empty or
// not an SExpr.
func (v Value) Head() Value {
	if v.kind != KindSExpr || len(v.items) == 0 {
		return Value{}
	}
	return v.items[0]
}

// Tail returns the SExpr with its first element removed.
func (v Value) Tail() Value {
	if v.kind != KindSExpr || len(v.items) == 0 {
		return NewSExpr()
	}
	return NewSExpr(v.items[1:]...)
}

// HeadSymbol returns the symbol of a ground head atom and true, or ("",
// false) when the head is absent or itself a variable/compound.
func (v Value) HeadSymbol() (string, bool) {
	if v.kind != KindSExpr || len(v.items) == 0 {
		return "", false
	}
	h := v.items[0]
	if h.kind != KindAtom || h.IsVar() {
		return "", false
	}
	return h.atom, true
}

// Arity returns the number of arguments following the head (Len()-1 for a
// non-empty SExpr).
func (v Value) Arity() int {
	if v.kind != KindSExpr || len(v.items) == 0 {
		return 0
	}
	return len(v.items) - 1
}

func (v Value) ErrorMessage() string { return v.errMsg }
func (v Value) ErrorValue() Value {
	if v.errVal == nil {
		return Value{}
	}
	return *v.errVal
}

func (v Value) SpaceID() string { return v.spaceID }
func (v Value) StateID() string { return v.stateID }
func (v Value) ClosureValue() *Closure { return v.closure }

// HasValue implements the "has-value" predicate: every Value has a
// value except that Nil and the empty SExpr are defined equal under it.
func HasValue(v Value) bool { return true }

// Equivalence --------------------------------------------------------------

// Equal is strict structural equality: variable atoms must share the exact
// same name. Use Equivalent for alpha-insensitive comparison.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		// Nil and empty SExpr print differently but compare equal.
		if isEmptyOrNil(a) && isEmptyOrNil(b) {
			return true
		}
		return false
	}
	switch a.kind {
	case KindAtom:
		return a.atom == b.atom
	case KindLong:
		return a.long == b.long
	case KindFloat:
		return a.float == b.float
	case KindBool:
		return a.boolv == b.boolv
	case KindString:
		return a.str == b.str
	case KindNil, KindUnit:
		return true
	case KindSExpr:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindError:
		return a.errMsg == b.errMsg && Equal(a.ErrorValue(), b.ErrorValue())
	case KindSpaceRef:
		return a.spaceID == b.spaceID
	case KindStateRef:
		return a.stateID == b.stateID
	case KindClosure:
		return a.closure == b.closure
	}
	return false
}

func isEmptyOrNil(v Value) bool {
	if v.kind == KindNil {
		return true
	}
	if v.kind == KindSExpr && len(v.items) == 0 {
		return true
	}
	return false
}

// Equivalent is structural equivalence that disregards the specific names
// of pattern-variable atoms (alpha-equivalence). Two variables are
// equivalent at corresponding positions as long as the correspondence is
// consistent within the comparison.
func Equivalent(a, b Value) bool {
	return equivalentWith(a, b, map[string]string{}, map[string]string{})
}

func equivalentWith(a, b Value, ab, ba map[string]string) bool {
	if a.IsVar() && b.IsVar() {
		if mapped, ok := ab[a.atom]; ok {
			return mapped == b.atom
		}
		if mapped, ok := ba[b.atom]; ok {
			return mapped == a.atom
		}
		ab[a.atom] = b.atom
		ba[b.atom] = a.atom
		return true
	}
	if a.kind != b.kind {
		if isEmptyOrNil(a) && isEmptyOrNil(b) {
			return true
		}
		return false
	}
	switch a.kind {
	case KindAtom:
		return a.atom == b.atom
	case KindSExpr:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !equivalentWith(a.items[i], b.items[i], ab, ba) {
				return false
			}
		}
		return true
	default:
		return Equal(a, b)
	}
}

// Printing -------------------------------------------------------------

// String renders a Value in unambiguous, parser-round-trippable form for
// every non-opaque case (see spec.md section 3).
func (v Value) String() string {
	switch v.kind {
	case KindAtom:
		return v.atom
	case KindLong:
		return strconv.FormatInt(v.long, 10)
	case KindFloat:
		return formatFloat(v.float)
	case KindBool:
		if v.boolv {
			return "True"
		}
		return "False"
	case KindString:
		return strconv.Quote(v.str)
	case KindNil:
		return "Nil"
	case KindUnit:
		return "()"
	case KindSExpr:
		parts := make([]string, len(v.items))
		for i, it := range v.items {
			parts[i] = it.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	case KindError:
		return fmt.Sprintf("(Error %s %q)", v.ErrorValue().String(), v.errMsg)
	case KindSpaceRef:
		return "&" + v.spaceID
	case KindStateRef:
		return "&" + v.stateID
	case KindClosure:
		return fmt.Sprintf("(lambda (%s) %s)", strings.Join(v.closure.Params, " "), v.closure.Body.String())
	}
	return "<invalid>"
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// SortValues returns a new slice sorted by printed form — used to compare
// result multisets for equivalence in tests (spec.md section 8: "verifiable
// by equivalence of sorted multisets").
func SortValues(vs []Value) []Value {
	cp := make([]Value, len(vs))
	copy(cp, vs)
	sort.Slice(cp, func(i, j int) bool { return cp[i].String() < cp[j].String() })
	return cp
}

// MultisetEqual compares two result multisets ignoring order, per spec.md
// section 2's "results are verifiable by equivalence of sorted multisets."
func MultisetEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := SortValues(a), SortValues(b)
	for i := range sa {
		if !Equal(sa[i], sb[i]) {
			return false
		}
	}
	return true
}
