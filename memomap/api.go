package memomap

import "context"

// Key is what the map stores: anything that owns a value of type T and
// can digest it. *memo.Memo satisfies Key for every strategy, which is
// the intended use — keys hash once, then every map operation reuses
// the cached digest.
//
// All keys stored in one map must digest consistently with the map's
// Options.Strategy, or raw-value lookups will miss resident entries.
type Key[T comparable] interface {
	// Sum64 returns the key's (memoized) digest.
	Sum64() uint64
	// Value returns the underlying value.
	Value() T
}

// Map is a sharded, in-memory container keyed by memoized digests.
// All methods are safe for concurrent use by multiple goroutines.
//
// Typical complexity is amortized O(1): one bucket lookup by digest
// plus an equality scan over digest-mates (almost always length 1).
type Map[T comparable, V any] interface {
	// Add inserts k→v only if no entry with an equal value is present.
	// Returns false if the key already exists (no update is performed).
	Add(k Key[T], v V) bool

	// Set inserts or updates k→v. Updates keep the resident key and
	// replace only the value.
	Set(k Key[T], v V)

	// Get returns the value for k and a boolean flag indicating presence.
	Get(k Key[T]) (V, bool)

	// Remove deletes the entry equal to k if present and returns true
	// on success.
	Remove(k Key[T]) bool

	// AddValue, SetValue, GetValue and RemoveValue are the raw-value
	// forms of the operations above: the map digests key with its
	// configured Strategy, so plain values interoperate with memoized
	// keys without wrapping at every call site. AddValue and SetValue
	// wrap the value on insert; the resident key is always a Key.
	AddValue(key T, v V) bool
	SetValue(key T, v V)
	GetValue(key T) (V, bool)
	RemoveValue(key T) bool

	// Wrap returns key memoized under the map's strategy, ready to be
	// stored in this map or handed to code that hashes it repeatedly.
	Wrap(key T) Key[T]

	// Len returns the total number of resident entries across all shards.
	Len() int

	// Range calls fn for every entry until fn returns false. Iteration
	// is weakly consistent: it snapshots one shard at a time, so entries
	// added or removed concurrently may or may not be observed, and no
	// lock is held while fn runs.
	Range(fn func(k Key[T], v V) bool)

	// GetOrLoad returns the value for key, loading it via Options.Loader
	// on miss. Concurrent loads for the same digest are coalesced
	// (singleflight). If no Loader was configured, returns ErrNoLoader.
	GetOrLoad(ctx context.Context, key T) (V, error)
}
