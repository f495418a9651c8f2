// Package memo provides a transparent wrapper that computes a value's
// 64-bit hash at most once and serves every later request from a cached
// copy, making repeated hashing of expensive keys (long strings, large
// structs) effectively free.
//
// Design
//
//   - Cache cell: each Memo carries the wrapped value plus a single
//     atomic uint64. Zero means "not computed yet"; any other value is
//     the final digest. Raw digests that come out as 0 are remapped to 1,
//     so the sentinel never collides with a real digest.
//
//   - Laziness: construction never hashes. The first Sum64 call computes
//     the digest via the configured Strategy and publishes it with one
//     compare-and-swap; every later call is a single atomic load.
//
//   - Races: goroutines that concurrently find the cache empty each
//     compute the digest and race the publish. Strategies are pure, so
//     all racers produce the same digest and losing swaps are simply
//     discarded. There are no locks, no retry loops, and no goroutine
//     ever waits for another.
//
//   - Transparency: Equal/EqualValue, Compare/Less, String, and JSON
//     encoding all delegate to the wrapped value and ignore cache state.
//     Wrapping a key changes how fast it hashes, not how it behaves.
//
//   - Strategies: hashing is pluggable via Strategy. Comparable (the
//     default) uses hash/maphash's native hash for comparable types and
//     adds no footprint to the memo. Seeded isolates digest domains,
//     XXH64 gives process-stable digests for string keys, Streaming
//     adapts any hash.Hash64 constructor, and Func adapts a function.
//
// Basic usage
//
//	k := memo.New(veryLongKey)
//	d1 := k.Sum64() // computed now
//	d2 := k.Sum64() // cached: one atomic load
//	_ = d1 == d2    // always true
//
// Choosing a strategy
//
//	// Process-stable digests for string keys (safe to compare across runs):
//	k := memo.NewWith(memo.XXH64[string]{}, "user:1234")
//
//	// Any hash.Hash64, fed the value's canonical bytes:
//	k2 := memo.NewWith(memo.Streaming[uint64]{New: fnv.New64a}, 42)
//
//	// Custom function:
//	k3 := memo.NewWith(memo.Func[string](func(s string) uint64 {
//	    return uint64(len(s)) // fast and terrible; illustrative only
//	}), "abc")
//
// Hashing composites
//
//	// Mix the cached digest into an outer maphash instead of re-walking
//	// the wrapped value:
//	var h maphash.Hash
//	h.SetSeed(seed)
//	k.WriteHash(&h)
//	sum := h.Sum64()
//
// Digest domains
//
// Digests from the Comparable strategy share one process-wide random
// seed: all Comparable memos in a process agree with each other and with
// memo.Digest, but not across processes or restarts. Never persist them.
// Use XXH64 (or a Streaming/Func strategy with a fixed algorithm) when
// stability across processes matters.
//
// Thread-safety & complexity
//
// All methods on Memo are safe for concurrent use. Sum64 is O(1) after
// the first call; the first call costs one strategy evaluation per
// racing goroutine. Mutating methods (UnmarshalJSON) are the exception:
// they re-initialize the memo and must not race other accessors.
//
// See package memomap for hash containers keyed by memoized digests.
package memo
