package memo

import (
	"cmp"
	"encoding/json"
	"fmt"
	"hash/maphash"
	"sync/atomic"
)

// Memo wraps a value together with a lazily computed, cached 64-bit
// digest. Constructing a Memo never hashes; the first Sum64 call does,
// and every later call costs one atomic load. Equality, ordering,
// formatting and JSON all delegate to the wrapped value, so a memoized
// key behaves like the value it wraps — it just hashes faster.
//
// The cache assumes the wrapped value is immutable. Value types are safe
// by construction; if T is a pointer (or contains one), the pointee must
// not change after the memo is created, or a stale digest sticks.
//
// Memos are created by New/NewWith and passed by pointer: the cache cell
// is an atomic that must not be copied. Use Clone to duplicate a memo.
// The zero Memo wraps T's zero value under S's zero strategy; it is
// valid whenever S's zero value is (true for Comparable and XXH64),
// which is what lets json.Unmarshal target a fresh memo.
type Memo[T comparable, S Strategy[T]] struct {
	// strategy sits first so zero-size strategies add no footprint: a
	// zero-size field at the end of a struct would be padded to keep
	// past-the-end pointers valid.
	strategy S

	value T

	// sum is the cache cell. 0 means "not computed yet"; any other value
	// is the final digest (raw digests of 0 are remapped to 1, so 0 is
	// unambiguous). Once non-zero the cell never changes again.
	sum atomic.Uint64
}

// New wraps v with the default Comparable strategy.
func New[T comparable](v T) *Memo[T, Comparable[T]] {
	return &Memo[T, Comparable[T]]{value: v}
}

// NewWith wraps v with an explicit hashing strategy.
func NewWith[T comparable, S Strategy[T]](strategy S, v T) *Memo[T, S] {
	return &Memo[T, S]{strategy: strategy, value: v}
}

// Value returns the wrapped value.
func (m *Memo[T, S]) Value() T {
	return m.value
}

// Sum64 returns the value's digest, computing and caching it on first
// use.
//
// The fast path is a single atomic load. On first use, every goroutine
// that finds the cache empty computes the digest itself and offers it
// with one compare-and-swap; losers discard the swap and return their
// local result. Strategies are pure, so all racers compute the same
// digest and it does not matter whose swap lands — no locks, no retry
// loops, and nobody waits for anybody.
func (m *Memo[T, S]) Sum64() uint64 {
	if sum := m.sum.Load(); sum != 0 {
		return sum
	}
	sum := Digest(m.strategy, m.value)
	// Publish for later calls. A failed swap means an identical digest
	// is already there.
	m.sum.CompareAndSwap(0, sum)
	return sum
}

// Digest computes the digest a Memo with the same strategy would cache
// for v: the strategy's Sum64 with a raw digest of 0 remapped to 1,
// keeping 0 reserved as the "not computed" cache state. Use it to digest
// plain values for lookups against memoized keys.
func Digest[T any, S Strategy[T]](strategy S, v T) uint64 {
	sum := strategy.Sum64(v)
	if sum == 0 {
		// Values that genuinely hash to 0 share digest 1. One extra
		// collision on a single digest is harmless; a cached 0 would be
		// recomputed forever.
		return 1
	}
	return sum
}

// WriteHash mixes the memoized digest into h. Structures that contain
// memos can hash the cached digest instead of re-walking the wrapped
// value.
func (m *Memo[T, S]) WriteHash(h *maphash.Hash) {
	maphash.WriteComparable(h, m.Sum64())
}

// Equal reports whether m and other wrap equal values. Cache state is
// ignored: a memo that has computed its digest still equals one that
// has not.
func (m *Memo[T, S]) Equal(other *Memo[T, S]) bool {
	return m.value == other.value
}

// EqualValue reports whether m wraps a value equal to v.
func (m *Memo[T, S]) EqualValue(v T) bool {
	return m.value == v
}

// Compare orders two memos by their wrapped values, ignoring cache
// state. It is a free function rather than a method because ordering
// needs the stronger cmp.Ordered constraint on T.
func Compare[T cmp.Ordered, S Strategy[T]](a, b *Memo[T, S]) int {
	return cmp.Compare(a.value, b.value)
}

// Less reports whether a's value orders before b's. Handy with
// sort.Slice and slices.SortFunc.
func Less[T cmp.Ordered, S Strategy[T]](a, b *Memo[T, S]) bool {
	return a.value < b.value
}

// Clone returns a new memo wrapping the same value and carrying the
// current cache state, so the clone of an already-hashed memo never
// recomputes. Cloning before the first Sum64 copies the empty cache.
func (m *Memo[T, S]) Clone() *Memo[T, S] {
	c := &Memo[T, S]{strategy: m.strategy, value: m.value}
	c.sum.Store(m.sum.Load())
	return c
}

// String formats the wrapped value, keeping memos transparent in logs
// and fmt verbs.
func (m *Memo[T, S]) String() string {
	return fmt.Sprint(m.value)
}

// MarshalJSON encodes the wrapped value only. The digest cache is a
// process-local artifact (maphash seeds change every run) and is never
// serialized.
func (m *Memo[T, S]) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.value)
}

// UnmarshalJSON decodes into the wrapped value and clears the digest
// cache, re-initializing the memo as if freshly constructed around the
// decoded value. Do not unmarshal into a memo other goroutines can see.
func (m *Memo[T, S]) UnmarshalJSON(data []byte) error {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	m.value = v
	m.sum.Store(0)
	return nil
}

// Ensure transparency interfaces are implemented at compile time.
var (
	_ fmt.Stringer     = (*Memo[string, Comparable[string]])(nil)
	_ json.Marshaler   = (*Memo[string, Comparable[string]])(nil)
	_ json.Unmarshaler = (*Memo[string, Comparable[string]])(nil)
)
