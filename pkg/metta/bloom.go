package metta

import "hash/fnv"

// headArityBloom is a bloom filter over (head_symbol, arity) pairs,
// enabling O(1) rejection in Space.Match when the pattern's (head, arity)
// definitely doesn't exist in the space. Ported from the original
// implementation's Kirsch-Mitzenmacher double-hashing scheme
// (environment/bloom.rs): k=3 hash functions, ~10 bits per entry, ~1%
// false-positive rate. False positives are allowed (the caller falls back
// to a real trie scan); false negatives are never allowed.
//
// Deletion isn't supported directly — bits can't be safely cleared without
// risking a false negative for another surviving entry that hashed to the
// same bit — so deletions are only counted, and the Space triggers a full
// rebuild once deletions exceed a quarter of insertions.
type headArityBloom struct {
	bits        []uint64
	numBits     int
	insertions  int
	deletions   int
}

func newHeadArityBloom(expectedEntries int) *headArityBloom {
	numBits := expectedEntries * 10
	if numBits < 1024 {
		numBits = 1024
	}
	numWords := (numBits + 63) / 64
	return &headArityBloom{
		bits:    make([]uint64, numWords),
		numBits: numBits,
	}
}

func (b *headArityBloom) hashPair(head string, arity int) (uint64, uint64) {
	h := fnv.New64a()
	h.Write([]byte(head))
	h.Write([]byte{byte(arity)})
	sum := h.Sum64()
	return sum, sum >> 32
}

func (b *headArityBloom) insert(head string, arity int) {
	h1, h2 := b.hashPair(head, arity)
	nb := uint64(b.numBits)
	for i := uint64(0); i < 3; i++ {
		idx := (h1 + i*h2) % nb
		b.bits[idx/64] |= 1 << (idx % 64)
	}
	b.insertions++
}

func (b *headArityBloom) mayContain(head string, arity int) bool {
	h1, h2 := b.hashPair(head, arity)
	nb := uint64(b.numBits)
	for i := uint64(0); i < 3; i++ {
		idx := (h1 + i*h2) % nb
		if b.bits[idx/64]&(1<<(idx%64)) == 0 {
			return false
		}
	}
	return true
}

// noteDeletion records a deletion for lazy-rebuild accounting without
// touching any bits (see type doc).
func (b *headArityBloom) noteDeletion() { b.deletions++ }

// needsRebuild reports whether accumulated deletions have crossed the
// quarter-of-insertions staleness threshold from spec.md section 4.1.
func (b *headArityBloom) needsRebuild() bool {
	return b.insertions > 0 && b.deletions > b.insertions/4
}

func (b *headArityBloom) clear() {
	for i := range b.bits {
		b.bits[i] = 0
	}
	b.insertions = 0
	b.deletions = 0
}
