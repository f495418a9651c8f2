package memomap

import (
	"sync"

	"github.com/hashmemo/hashmemo/internal/util"
)

// entry is a single key/value pair resident in a bucket. Entries whose
// digests collide share one bucket slice and are told apart by value
// equality.
type entry[T comparable, V any] struct {
	key Key[T]
	val V
}

// shard is an independent partition of the map with its own lock and
// digest-keyed buckets.
type shard[T comparable, V any] struct {
	// ---- guarded by mu ----
	mu      sync.RWMutex
	buckets map[uint64][]entry[T, V]
	len     int // number of resident entries

	metrics Metrics

	// ---- hot counters (separate cache lines to avoid false sharing) ----
	// Reads take the lock shared, so these must stay atomic.
	_      util.CacheLinePad
	hits   util.PaddedAtomicInt64
	misses util.PaddedAtomicInt64
}

// newShard initializes a shard with a per-shard capacity hint.
func newShard[T comparable, V any](capacity int, metrics Metrics) *shard[T, V] {
	return &shard[T, V]{
		buckets: make(map[uint64][]entry[T, V], capacity),
		metrics: metrics,
	}
}

// Add inserts a NEW entry. Returns false if a digest-mate with an equal
// value already exists (no update is performed).
func (s *shard[T, V]) Add(digest uint64, k Key[T], v V) bool {
	kv := k.Value()

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buckets[digest]
	for i := range b {
		if b[i].key.Value() == kv {
			return false
		}
	}
	s.buckets[digest] = append(b, entry[T, V]{key: k, val: v})
	s.len++
	return true
}

// Set inserts or updates an entry. Updates replace the value in place
// and keep the resident key. Reports whether a new entry was inserted.
func (s *shard[T, V]) Set(digest uint64, k Key[T], v V) (inserted bool) {
	kv := k.Value()

	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buckets[digest]
	for i := range b {
		if b[i].key.Value() == kv {
			b[i].val = v
			return false
		}
	}
	s.buckets[digest] = append(b, entry[T, V]{key: k, val: v})
	s.len++
	return true
}

// Get returns the value for the entry equal to key under digest.
// Lookups take the lock shared: nothing is promoted or expired, so
// readers never block each other.
func (s *shard[T, V]) Get(digest uint64, key T) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.buckets[digest] {
		if e.key.Value() == key {
			s.hits.Add(1)
			s.metrics.Hit()
			return e.val, true
		}
	}
	s.misses.Add(1)
	s.metrics.Miss()
	var zero V
	return zero, false
}

// Remove deletes the entry equal to key under digest. Returns true if
// the entry existed.
func (s *shard[T, V]) Remove(digest uint64, key T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buckets[digest]
	for i := range b {
		if b[i].key.Value() != key {
			continue
		}
		// Order inside a bucket carries no meaning: swap-remove, zero
		// the vacated slot so the key/value stop being retained.
		last := len(b) - 1
		b[i] = b[last]
		b[last] = entry[T, V]{}
		if last == 0 {
			delete(s.buckets, digest)
		} else {
			s.buckets[digest] = b[:last]
		}
		s.len--
		return true
	}
	return false
}

// Len returns the number of resident entries in this shard.
func (s *shard[T, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.len
}

// snapshot appends every resident entry to dst and returns it. Callers
// iterate the snapshot outside the lock, which is what makes Range
// weakly consistent instead of deadlock-prone.
func (s *shard[T, V]) snapshot(dst []entry[T, V]) []entry[T, V] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, b := range s.buckets {
		dst = append(dst, b...)
	}
	return dst
}
