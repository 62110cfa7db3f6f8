package metta

import (
	"sync"
)

// Rule is a rewrite (= LHS RHS) stored in a Space. LHS is an SExpr whose
// head is the symbol being defined; rules are indexed by that head symbol
// (Space.rulesByHead), while their `(= LHS RHS)` fact form is keyed in the
// trie by its printed form. Duplicate rules are not removed.
type Rule struct {
	LHS Value
	RHS Value
}

// AsFact renders a Rule as the fact `(= LHS RHS)` it is equivalent to: a
// single Space holds both facts and rules, and rules are just facts of
// the form (= … …).
func (r Rule) AsFact() Value {
	return NewSExpr(NewAtom("="), r.LHS, r.RHS)
}

// Space is a multiset of Values backed by a head-prefix trie and a
// (head,arity) bloom filter, plus a head→rules dispatch index. It is the
// generalisation of pldb.Database (a copy-on-write relational store)
// from ground fact tuples to arbitrary rewritable S-expressions.
type Space struct {
	mu    sync.RWMutex
	trie  *prefixTrie
	bloom *headArityBloom
	seq   uint64

	rulesByHead map[string][]Rule
}

// NewSpace returns an empty Space.
func NewSpace() *Space {
	return &Space{
		trie:        newPrefixTrie(),
		bloom:       newHeadArityBloom(256),
		rulesByHead: make(map[string][]Rule),
	}
}

// serialize returns the byte key used for trie indexing: the value's
// printed form, per spec.md section 4.1 ("serialised byte-sequence").
func serialize(v Value) []byte { return []byte(v.String()) }

// headPrefixKey returns the byte prefix shared by every printed SExpr
// whose head is the given symbol, e.g. head "foo" -> "(foo ".
func headPrefixKey(head string) []byte {
	return []byte("(" + head + " ")
}

// headArityOf extracts (head, arity) from a ground SExpr value, if
// possible.
func headArityOf(v Value) (string, int, bool) {
	h, ok := v.HeadSymbol()
	if !ok {
		return "", 0, false
	}
	return h, v.Arity(), true
}

// Add inserts v into the Space. If v is a rule fact `(= LHS RHS)`, it is
// also indexed into the head→rules dispatch table, satisfying the
// invariant "every rule inserted is also discoverable as a fact."
func (s *Space) Add(v Value) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addLocked(v)
}

func (s *Space) addLocked(v Value) {
	s.seq++
	s.trie.insert(serialize(v), s.seq, v)
	if head, arity, ok := headArityOf(v); ok {
		s.bloom.insert(head, arity)
	}
	if rule, ok := ruleFromFact(v); ok {
		s.rulesByHead[rule.lhsHead()] = append(s.rulesByHead[rule.lhsHead()], rule)
	}
}

// AddRule inserts a rule by also inserting its fact form `(= LHS RHS)`,
// keeping the two views in lockstep.
func (s *Space) AddRule(r Rule) {
	s.Add(r.AsFact())
}

func ruleFromFact(v Value) (Rule, bool) {
	if !v.IsSExpr() || v.Len() != 3 {
		return Rule{}, false
	}
	items := v.Items()
	if !items[0].IsAtom() || items[0].Symbol() != "=" {
		return Rule{}, false
	}
	return Rule{LHS: items[1], RHS: items[2]}, true
}

func (r Rule) lhsHead() string {
	if h, ok := r.LHS.HeadSymbol(); ok {
		return h
	}
	return ""
}

// Remove deletes at most one occurrence of v (structural equivalence,
// alpha-insensitive). Returns true if something was removed.
func (s *Space) Remove(v Value) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := s.trie.removeOne(serialize(v), v)
	if removed {
		if _, _, ok := headArityOf(v); ok {
			s.bloom.noteDeletion()
		}
		if rule, ok := ruleFromFact(v); ok {
			s.removeRuleLocked(rule)
		}
		if s.bloom.needsRebuild() {
			s.rebuildBloomLocked()
		}
	}
	return removed
}

func (s *Space) removeRuleLocked(r Rule) {
	rules := s.rulesByHead[r.lhsHead()]
	for i, existing := range rules {
		if Equivalent(existing.LHS, r.LHS) && Equivalent(existing.RHS, r.RHS) {
			s.rulesByHead[r.lhsHead()] = append(rules[:i], rules[i+1:]...)
			return
		}
	}
}

func (s *Space) rebuildBloomLocked() {
	s.bloom.clear()
	for _, e := range s.trie.all() {
		if head, arity, ok := headArityOf(e.value); ok {
			s.bloom.insert(head, arity)
		}
	}
}

// Clone returns a deep, independent copy of the Space — the hook the
// Environment's copy-on-write box calls the first time a shared Space is
// mutated (spec.md section 9).
func (s *Space) Clone() *Space {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := NewSpace()
	for _, e := range s.trie.all() {
		out.seq++
		out.trie.insert(serialize(e.value), out.seq, e.value)
	}
	out.bloom = &headArityBloom{
		bits:       append([]uint64(nil), s.bloom.bits...),
		numBits:    s.bloom.numBits,
		insertions: s.bloom.insertions,
		deletions:  s.bloom.deletions,
	}
	for head, rules := range s.rulesByHead {
		cp := make([]Rule, len(rules))
		copy(cp, rules)
		out.rulesByHead[head] = cp
	}
	return out
}

// Iter returns every stored Value in insertion order.
func (s *Space) Iter() []Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.trie.all()
	return valuesInSeqOrder(entries)
}

// IterWithHeadPrefix restricts iteration to values whose head is the given
// symbol, using the trie's head-prefix slice (spec.md section 4.1).
func (s *Space) IterWithHeadPrefix(head string) []Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.trie.withPrefix(headPrefixKey(head))
	return valuesInSeqOrder(entries)
}

func valuesInSeqOrder(entries []trieEntry) []Value {
	// Trie traversal order is byte-lexicographic, not insertion order;
	// re-sort by sequence number since multiple-result generation must
	// follow insertion order in the Space.
	out := make([]Value, len(entries))
	idx := make([]int, len(entries))
	for i := range entries {
		idx[i] = i
	}
	// simple insertion sort: result sets are small in practice and this
	// keeps the trie itself free of an extra ordering index.
	for i := 1; i < len(idx); i++ {
		j := i
		for j > 0 && entries[idx[j-1]].seq > entries[idx[j]].seq {
			idx[j-1], idx[j] = idx[j], idx[j-1]
			j--
		}
	}
	for i, k := range idx {
		out[i] = entries[k].value
	}
	return out
}

// HasFact reports whether v is present in the Space under structural
// equivalence (alpha-insensitive).
func (s *Space) HasFact(v Value) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if head, arity, ok := headArityOf(v); ok && !s.bloom.mayContain(head, arity) {
		return false
	}
	for _, e := range s.trie.all() {
		if Equivalent(e.value, v) {
			return true
		}
	}
	return false
}

// MayContainHeadArity exposes the bloom filter's may_contain check
// directly, for the testable-property in spec.md section 8: "if has_fact
// returns true for a head h/arity a, may_contain(h,a) returns true."
func (s *Space) MayContainHeadArity(head string, arity int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bloom.mayContain(head, arity)
}

// IterRules returns every rule whose LHS head matches the given symbol, in
// insertion order — the rule dispatcher's lookup primitive (spec.md
// section 4.9).
func (s *Space) IterRules(head string) []Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rules := s.rulesByHead[head]
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Match runs the unifier against every candidate value whose head/arity
// could plausibly match pattern, per the algorithm in spec.md section 4.1:
//  1. consult the bloom filter when the pattern has a ground head/arity;
//  2. otherwise scan the head-prefix slice (or the whole Space if the
//     pattern's head is itself a variable);
//  3. unify against each candidate, yielding successful bindings.
//
// Results are returned eagerly as a slice rather than a lazy iterator,
// since Go has no free lazy-generator primitive as convenient as Rust's
// iterator adaptors; callers that need backpressure should use the
// trampoline's or VM's own suspension points instead.
func (s *Space) Match(pattern Value, frame *Frame) []*Frame {
	var candidates []Value
	if head, arity, ok := headArityOf(pattern); ok {
		if !s.MayContainHeadArity(head, arity) {
			return nil
		}
		candidates = s.IterWithHeadPrefix(head)
	} else {
		candidates = s.Iter()
	}

	var results []*Frame
	for _, cand := range candidates {
		if ext, ok := Unify(pattern, cand, frame); ok {
			results = append(results, ext)
		}
	}
	return results
}

// PartitionByHead groups every stored Value by its head symbol (values
// with no ground head symbol fall into the "" bucket), each group in
// Space insertion order. This is the path-prefix partitioning spec.md
// section 5 names as the basis for the parallel path-map: the trie
// already indexes values by their printed-form byte prefix, and a head
// symbol prefix ("(foo ") is exactly one such path prefix, so grouping by
// head gives disjoint, independently processable zippers without any
// further locking once the snapshot below is taken.
func (s *Space) PartitionByHead() map[string][]Value {
	s.mu.RLock()
	entries := s.trie.all()
	s.mu.RUnlock()
	ordered := valuesInSeqOrder(entries)
	groups := make(map[string][]Value)
	for _, v := range ordered {
		head, _ := v.HeadSymbol()
		groups[head] = append(groups[head], v)
	}
	return groups
}

// Count returns the number of stored entries (O(1) counter on the trie).
func (s *Space) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trie.size
}

