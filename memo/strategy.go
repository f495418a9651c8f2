package memo

import (
	"hash"
	"hash/maphash"

	"github.com/cespare/xxhash/v2"
	"github.com/hashmemo/hashmemo/internal/util"
)

// A Strategy computes the 64-bit digest that a Memo caches.
//
// Implementations must be pure: Sum64 must return the same digest for a
// given value every time, from any goroutine. Racing first computations
// all run the strategy independently and publish whichever result lands
// first, so an impure strategy would make the cached digest depend on
// scheduling.
//
// A Strategy must also agree with equality: values that compare equal
// (==) must produce equal digests, or containers keyed by digests will
// miss entries that are present.
type Strategy[T any] interface {
	// Sum64 returns a 64-bit digest of v.
	Sum64(v T) uint64
}

// comparableSeed is the process-wide seed behind the Comparable strategy.
// Sharing one seed keeps every Comparable digest in the process mutually
// consistent, so independently created memos and maps agree on digests.
var comparableSeed = maphash.MakeSeed()

// Comparable hashes values with the runtime's native hash for comparable
// types (hash/maphash). It is the default strategy: the zero value is
// ready to use and occupies no space inside a Memo. The seed is random
// at startup, so digests are stable only within a single process and
// must never be persisted or sent over the wire.
type Comparable[T comparable] struct{}

// Sum64 returns the maphash digest of v under the process-wide seed.
func (Comparable[T]) Sum64(v T) uint64 {
	return maphash.Comparable(comparableSeed, v)
}

// Seeded is Comparable with a private seed. Strategies from separate
// NewSeeded calls produce unrelated digests for the same value; use it
// to keep digest domains isolated, e.g. independent containers that
// should not share collision patterns.
type Seeded[T comparable] struct {
	seed maphash.Seed
}

// NewSeeded returns a Seeded strategy with a fresh random seed.
func NewSeeded[T comparable]() Seeded[T] {
	return Seeded[T]{seed: maphash.MakeSeed()}
}

// Sum64 returns the maphash digest of v under the strategy's own seed.
func (s Seeded[T]) Sum64(v T) uint64 {
	return maphash.Comparable(s.seed, v)
}

// XXH64 hashes string-like values with xxHash (XXH64). Unlike the
// maphash strategies its digests are stable across processes and
// machines, which makes it the right choice when digests must match
// values hashed elsewhere. The zero value is ready to use.
type XXH64[T ~string] struct{}

// Sum64 returns the XXH64 digest of v.
func (XXH64[T]) Sum64(v T) uint64 {
	return xxhash.Sum64String(string(v))
}

// Streaming adapts any hash.Hash64 constructor (fnv.New64a, xxhash.New
// wrapped to Hash64, ...) to a Strategy by feeding the value's canonical
// byte encoding through a fresh state per call. New must return a
// zero-initialized state; states are never reused.
//
// The byte encoding comes from util.WriteValue and covers strings,
// booleans, byte arrays and all integer widths. Other types panic: pick
// an explicit encoding (see Func) rather than hash silently badly.
type Streaming[T comparable] struct {
	New func() hash.Hash64
}

// Sum64 runs v's bytes through a fresh hash state and returns its sum.
func (s Streaming[T]) Sum64(v T) uint64 {
	h := s.New()
	util.WriteValue(h, v)
	return h.Sum64()
}

// Func adapts a plain function to a Strategy. The function carries the
// same obligations as any strategy: pure, and consistent with equality.
type Func[T any] func(v T) uint64

// Sum64 invokes the adapted function.
func (f Func[T]) Sum64(v T) uint64 { return f(v) }

// Ensure the bundled strategies implement Strategy at compile time.
var (
	_ Strategy[string] = Comparable[string]{}
	_ Strategy[string] = Seeded[string]{}
	_ Strategy[string] = XXH64[string]{}
	_ Strategy[string] = Streaming[string]{}
	_ Strategy[string] = Func[string](nil)
)
