package memomap

import (
	"context"
	"sync/atomic"

	"github.com/hashmemo/hashmemo/internal/singleflight"
	"github.com/hashmemo/hashmemo/internal/util"
	"github.com/hashmemo/hashmemo/memo"
)

// ErrNoLoader is returned by GetOrLoad when no Loader was configured in Options.
var ErrNoLoader = errorsNew("memomap: no Loader provided")

// lightweight local errors.New to avoid importing std 'errors' everywhere
func errorsNew(s string) error { return &strErr{s} }

type strErr struct{ s string }

func (e *strErr) Error() string { return e.s }

// hashmap is a sharded container addressed by memoized digests.
// All methods are safe for concurrent use by multiple goroutines.
type hashmap[T comparable, V any] struct {
	shards   []*shard[T, V]
	strategy memo.Strategy[T]

	// size tracks the global entry count for the Metrics.Size gauge;
	// shard-local counts alone would make the gauge bounce per shard.
	size atomic.Int64

	opt Options[T, V]

	// singleflight group for coalescing concurrent loads in GetOrLoad.
	sf singleflight.Group[V]
}

// New constructs a map with the provided Options.
// Defaults:
//   - nil Metrics  -> NoopMetrics
//   - nil Strategy -> memo.Comparable[T]
//   - Shards <= 0  -> auto, rounded up to the next power of two
func New[T comparable, V any](opt Options[T, V]) Map[T, V] {
	// default Metrics
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	// default Strategy: the runtime hash under the process-wide seed,
	// which agrees with keys built by memo.New.
	if opt.Strategy == nil {
		opt.Strategy = memo.Comparable[T]{}
	}

	// number of shards -> power of two
	sh := opt.Shards
	if sh <= 0 {
		sh = util.ReasonableShardCount()
	} else {
		sh = int(util.NextPow2(uint64(sh)))
	}

	cs := make([]*shard[T, V], sh)
	perShardCap := 0
	if opt.InitialCapacity > 0 {
		perShardCap = (opt.InitialCapacity + sh - 1) / sh // split evenly (ceil)
	}
	for i := 0; i < sh; i++ {
		cs[i] = newShard[T, V](perShardCap, opt.Metrics)
	}

	// return pointer-to-impl as the interface (avoids unexported-return lint)
	return &hashmap[T, V]{
		shards:   cs,
		strategy: opt.Strategy,
		opt:      opt,
	}
}

// ---- Map[T,V] implementation ----

// Add inserts k→v only if no entry with an equal value is present.
// Returns false if the key already exists (no update is performed).
func (m *hashmap[T, V]) Add(k Key[T], v V) bool {
	d := k.Sum64()
	if !m.shardFor(d).Add(d, k, v) {
		return false
	}
	m.opt.Metrics.Size(int(m.size.Add(1)))
	return true
}

// Set inserts or updates k→v. Updates keep the resident key.
func (m *hashmap[T, V]) Set(k Key[T], v V) {
	d := k.Sum64()
	if m.shardFor(d).Set(d, k, v) {
		m.opt.Metrics.Size(int(m.size.Add(1)))
	}
}

// Get returns the value for k and a presence flag.
func (m *hashmap[T, V]) Get(k Key[T]) (V, bool) {
	d := k.Sum64()
	return m.shardFor(d).Get(d, k.Value())
}

// Remove deletes the entry equal to k if present and returns true on success.
func (m *hashmap[T, V]) Remove(k Key[T]) bool {
	return m.removeByDigest(k.Sum64(), k.Value())
}

// AddValue is Add for a raw value: the key is wrapped under the map's
// strategy, so the resident entry keeps a memoized key.
func (m *hashmap[T, V]) AddValue(key T, v V) bool {
	return m.Add(m.Wrap(key), v)
}

// SetValue is Set for a raw value.
func (m *hashmap[T, V]) SetValue(key T, v V) {
	m.Set(m.Wrap(key), v)
}

// GetValue looks a raw value up without wrapping it: the value is
// digested with the map's strategy, which by contract agrees with the
// digests of the resident memoized keys.
func (m *hashmap[T, V]) GetValue(key T) (V, bool) {
	d := memo.Digest(m.strategy, key)
	return m.shardFor(d).Get(d, key)
}

// RemoveValue deletes by raw value and returns true if an entry existed.
func (m *hashmap[T, V]) RemoveValue(key T) bool {
	return m.removeByDigest(memo.Digest(m.strategy, key), key)
}

// Wrap returns key memoized under the map's strategy.
func (m *hashmap[T, V]) Wrap(key T) Key[T] {
	return memo.NewWith(m.strategy, key)
}

// Len returns the total number of resident entries across all shards.
func (m *hashmap[T, V]) Len() int {
	total := 0
	for _, s := range m.shards {
		total += s.Len()
	}
	return total
}

// Range calls fn for every entry until fn returns false, one shard
// snapshot at a time. No lock is held while fn runs.
func (m *hashmap[T, V]) Range(fn func(k Key[T], v V) bool) {
	var buf []entry[T, V]
	for _, s := range m.shards {
		buf = s.snapshot(buf[:0])
		for _, e := range buf {
			if !fn(e.key, e.val) {
				return
			}
		}
	}
}

// GetOrLoad returns the value for key; on miss it loads via
// Options.Loader, coalescing concurrent loads for the same digest
// (singleflight). If no Loader is configured, returns ErrNoLoader.
func (m *hashmap[T, V]) GetOrLoad(ctx context.Context, key T) (V, error) {
	d := memo.Digest(m.strategy, key)
	for {
		// fast path
		if v, ok := m.shardFor(d).Get(d, key); ok {
			return v, nil
		}
		if m.opt.Loader == nil {
			var zero V
			return zero, ErrNoLoader
		}

		// singleflight: one real load per digest at a time
		v, err, leader := m.sf.Do(ctx, d, func() (V, error) {
			// double-check after winning leadership
			if v, ok := m.shardFor(d).Get(d, key); ok {
				return v, nil
			}
			v, err := m.opt.Loader(ctx, key)
			m.opt.Metrics.Load(err == nil)
			if err == nil {
				m.storeLoaded(d, key, v)
			}
			return v, err
		})
		if leader || err != nil {
			// Our own load, or a failure shared with every waiter on
			// this digest (digest-mates share the flight's fate).
			return v, err
		}
		// Joined a digest-mate's successful flight. Almost always that
		// flight loaded exactly this key; re-check the map rather than
		// trust the value, and lead a flight ourselves if it didn't.
	}
}

// ---- helpers ----

// shardFor picks a shard from a digest. Shard count is a power of two,
// so this is a mask.
func (m *hashmap[T, V]) shardFor(digest uint64) *shard[T, V] {
	return m.shards[util.ShardIndex(digest, len(m.shards))]
}

func (m *hashmap[T, V]) removeByDigest(digest uint64, key T) bool {
	if !m.shardFor(digest).Remove(digest, key) {
		return false
	}
	m.opt.Metrics.Size(int(m.size.Add(-1)))
	return true
}

// storeLoaded inserts a loaded value under an already-computed digest.
// The wrapped key is stored cold (its own cache fills lazily if some
// later caller hashes it); the load path itself digests key only once.
func (m *hashmap[T, V]) storeLoaded(digest uint64, key T, v V) {
	k := memo.NewWith(m.strategy, key)
	if m.shardFor(digest).Set(digest, k, v) {
		m.opt.Metrics.Size(int(m.size.Add(1)))
	}
}
