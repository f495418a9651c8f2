package memomap

import (
	"context"
	"math/rand"
	"strconv"
	"sync/atomic"
	"testing"
)

// benchmarkMix exercises a read/write mix against a warm map with
// pre-wrapped keys, which is the intended usage: wrap once, operate
// many times on cached digests. RunParallel spawns GOMAXPROCS workers.
func benchmarkMix(b *testing.B, readsPct int) {
	const keyspace = 1 << 16

	m := New[string, string](Options[string, string]{InitialCapacity: keyspace})

	// Wrap the whole keyspace up front and preload half of it for a
	// realistic hit-rate. After this loop every digest is cached.
	keys := make([]Key[string], keyspace)
	for i := range keys {
		keys[i] = m.Wrap("k:" + strconv.Itoa(i))
	}
	for i := 0; i < keyspace/2; i++ {
		m.Set(keys[i], "v")
	}

	// Report per-op allocations for a rough idea where costs go.
	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	keyMask := keyspace - 1 // power of two for fast &-mask

	b.RunParallel(func(pb *testing.PB) {
		// Independent RNG stream for each worker.
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		i := 0
		for pb.Next() {
			k := keys[i&keyMask]
			if r.Intn(100) < readsPct {
				m.Get(k)
			} else {
				m.Set(k, "v")
			}
			i++
		}
	})
}

func BenchmarkMap_90r10w(b *testing.B) { benchmarkMix(b, 90) }
func BenchmarkMap_50r50w(b *testing.B) { benchmarkMix(b, 50) }

// benchmarkMixRaw is the same workload through the raw-value forms:
// every operation digests its key from scratch. The gap between this
// and benchmarkMix is what digest memoization buys.
func benchmarkMixRaw(b *testing.B, readsPct int) {
	const keyspace = 1 << 16

	m := New[string, string](Options[string, string]{InitialCapacity: keyspace})

	keys := make([]string, keyspace)
	for i := range keys {
		keys[i] = "k:" + strconv.Itoa(i)
	}
	for i := 0; i < keyspace/2; i++ {
		m.SetValue(keys[i], "v")
	}

	b.ReportAllocs()
	b.ResetTimer()

	var seed int64 = 1
	keyMask := keyspace - 1

	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(atomic.AddInt64(&seed, 1)))
		i := 0
		for pb.Next() {
			k := keys[i&keyMask]
			if r.Intn(100) < readsPct {
				m.GetValue(k)
			} else {
				m.SetValue(k, "v")
			}
			i++
		}
	})
}

func BenchmarkMap_RawValues_90r10w(b *testing.B) { benchmarkMixRaw(b, 90) }
func BenchmarkMap_RawValues_50r50w(b *testing.B) { benchmarkMixRaw(b, 50) }

// bigKey models a key that is genuinely expensive to hash: a name, a
// block of numeric data and a 1 KiB payload (~1.5 KiB walked per hash).
type bigKey struct {
	name    string
	data    [64]uint64
	payload [1024]byte
}

func makeBigKeys(n int) []bigKey {
	ks := make([]bigKey, n)
	for i := range ks {
		ks[i].name = "key-" + strconv.Itoa(i)
		for j := range ks[i].data {
			ks[i].data[j] = uint64(i*j) * 0x9e3779b97f4a7c15
		}
		for j := range ks[i].payload {
			ks[i].payload[j] = byte(i + j)
		}
	}
	return ks
}

// Churn: drain every entry from one map into another, swap, repeat.
// With memoized keys each move reuses cached digests; the builtin-map
// baseline below re-hashes the full key on every lookup, delete and
// insert.
func BenchmarkMap_Churn_MemoKeys(b *testing.B) {
	const n = 1024

	raw := makeBigKeys(n)
	src := New[bigKey, int](Options[bigKey, int]{InitialCapacity: n})
	dst := New[bigKey, int](Options[bigKey, int]{InitialCapacity: n})

	keys := make([]Key[bigKey], n)
	for i := range raw {
		keys[i] = src.Wrap(raw[i]) // digests cached here, once
		src.Set(keys[i], i)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, k := range keys {
			v, _ := src.Get(k)
			src.Remove(k)
			dst.Set(k, v)
		}
		src, dst = dst, src
	}
}

func BenchmarkMap_Churn_BuiltinMap(b *testing.B) {
	const n = 1024

	raw := makeBigKeys(n)
	src := make(map[bigKey]int, n)
	dst := make(map[bigKey]int, n)
	for i := range raw {
		src[raw[i]] = i
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := range raw {
			v := src[raw[j]]
			delete(src, raw[j])
			dst[raw[j]] = v
		}
		src, dst = dst, src
	}
}

// The same churn with cheap string keys bounds the overhead the wrapper
// and bucket scan add when hashing is not the bottleneck.
func BenchmarkMap_Churn_SmallStringKeys(b *testing.B) {
	const n = 1024

	src := New[string, int](Options[string, int]{InitialCapacity: n})
	dst := New[string, int](Options[string, int]{InitialCapacity: n})

	keys := make([]Key[string], n)
	for i := range keys {
		keys[i] = src.Wrap("word-" + strconv.Itoa(i))
		src.Set(keys[i], i)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, k := range keys {
			v, _ := src.Get(k)
			src.Remove(k)
			dst.Set(k, v)
		}
		src, dst = dst, src
	}
}

// GetOrLoad on a warm map: the steady-state cost is the fast path, not
// the flight machinery.
func BenchmarkMap_GetOrLoad_Warm(b *testing.B) {
	m := New[string, int](Options[string, int]{
		Loader: func(_ context.Context, k string) (int, error) { return len(k), nil },
	})
	ctx := context.Background()
	if _, err := m.GetOrLoad(ctx, "warm"); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := m.GetOrLoad(ctx, "warm"); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
