// Package memomap provides a fast, generic, sharded in-memory map
// keyed by memoized digests: keys hash once (via package memo) and
// every map operation afterwards reuses the cached digest. Raw values
// interoperate with memoized keys, so lookups never require wrapping.
//
// Design
//
//   - Concurrency: the map is split into shards, each protected by an
//     RWMutex. The default shard count is chosen by a heuristic
//     (≈ 2*GOMAXPROCS) and is a power of two, so shard selection is a
//     mask over the digest. Reads take the lock shared: nothing is
//     promoted or expired on access, so readers never block each other.
//
//   - Storage: each shard keeps map[uint64][]entry — bucket slices
//     addressed by digest. Values that collide on a digest (including
//     raw digests of 0, which memo remaps to 1) share a bucket and are
//     told apart by value equality. Buckets are almost always length 1,
//     so operations stay O(1) expected.
//
//   - Keys: the map stores Key[T] — anything owning a value that can
//     digest it. *memo.Memo is the intended key; a key hashes once and
//     the digest rides along through every Set/Get/Remove. The built-in
//     Go map cannot do this (it always re-hashes the key), which is why
//     this container exists.
//
//   - Heterogeneous lookup: GetValue/SetValue/AddValue/RemoveValue take
//     raw T values and digest them with the map's Strategy. Stored keys
//     must digest consistently with that strategy; the default
//     (memo.Comparable) agrees with memo.New keys automatically because
//     both share one process-wide seed.
//
//   - GetOrLoad: coalesces concurrent loads for the same digest using a
//     digest-keyed singleflight. If Loader is nil, GetOrLoad returns
//     ErrNoLoader.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Load/Size signals.
//     By default NoopMetrics is used; plug a Prometheus adapter
//     (metrics/prom) to export metrics.
//
// Basic usage
//
//	m := memomap.New[string, int](memomap.Options[string, int]{})
//	k := memo.New("an expensive key")
//	m.Set(k, 1)          // hashes once
//	v, ok := m.Get(k)    // cached digest
//	v2, ok2 := m.GetValue("an expensive key") // raw lookup, same entry
//
// With a custom strategy
//
//	// Process-stable digests for string keys:
//	m := memomap.New[string, int](memomap.Options[string, int]{
//	    Strategy: memo.XXH64[string]{},
//	})
//	m.Set(m.Wrap("k"), 1) // wrap with the map's strategy
//
// With GetOrLoad (singleflight)
//
//	m := memomap.New[string, string](memomap.Options[string, string]{
//	    Loader: func(ctx context.Context, k string) (string, error) {
//	        // e.g. fetch from DB
//	        return "v:" + k, nil
//	    },
//	})
//	v, err := m.GetOrLoad(context.Background(), "key")
//
// Exporting metrics (example Prometheus adapter)
//
//	pm := prom.New(nil, "memomap", "demo", nil) // implements Metrics
//	m := memomap.New[string, []byte](memomap.Options[string, []byte]{
//	    Metrics: pm,
//	})
//
// Thread-safety & complexity
//
// All methods on Map are safe for concurrent use. Typical operation
// cost is O(1) expected: one shard pick, one bucket lookup, and an
// equality scan over digest-mates (bucket length is 1 in the absence
// of collisions). Range is weakly consistent: it snapshots one shard
// at a time and holds no lock while the callback runs.
//
// See package memo for the memoizing wrapper and its strategies.
package memomap
