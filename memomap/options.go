package memomap

import (
	"context"

	"github.com/hashmemo/hashmemo/memo"
)

// Metrics exposes map-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
// Implementations must be safe for concurrent use.
type Metrics interface {
	Hit()
	Miss()
	Load(ok bool)
	Size(entries int)
}

// Options configures the map behavior. Zero values are safe;
// sane defaults are applied in New():
//   - nil Strategy => memo.Comparable
//   - Shards <= 0  => auto (≈ 2*GOMAXPROCS, power of two)
//   - nil Metrics  => NoopMetrics
type Options[T comparable, V any] struct {
	// Shards defines the number of shards. If 0, an automatic value is
	// chosen (≈ 2*GOMAXPROCS) and rounded to the next power of two.
	Shards int

	// InitialCapacity pre-sizes the bucket maps for an expected number
	// of entries (split evenly across shards). 0 means unsized.
	InitialCapacity int

	// Strategy digests raw values for the *Value lookups, Wrap, and
	// GetOrLoad. Memoized keys stored in the map must agree with it:
	// storing keys built from a different strategy makes raw lookups
	// miss entries that are present. nil => memo.Comparable[T], which
	// agrees with keys from memo.New thanks to the shared process seed.
	Strategy memo.Strategy[T]

	// Loader fetches a value on map miss. Used by GetOrLoad.
	Loader func(ctx context.Context, key T) (V, error)

	// Metrics receives Hit/Miss/Load/Size signals. nil => NoopMetrics.
	Metrics Metrics
}
