package memo

import (
	"hash/maphash"
	"strings"
	"testing"

	"github.com/cespare/xxhash/v2"
)

// sink defeats dead-code elimination of pure hash calls.
var sink uint64

// bigValue models a realistically expensive composite key: a name, a
// block of numeric data and a 1 KiB payload. Hashing it walks ~1.5 KiB.
type bigValue struct {
	name    string
	data    [64]uint64
	payload [1024]byte
}

func newBigValue() bigValue {
	v := bigValue{name: "some-name-that-is-not-short"}
	for i := range v.data {
		v.data[i] = uint64(i) * 0x9e3779b97f4a7c15
	}
	for i := range v.payload {
		v.payload[i] = byte(i)
	}
	return v
}

// Cached path: the digest exists, every call is one atomic load.
// Compare against the Raw benchmarks to see what memoization buys.
func BenchmarkMemo_CachedHash_String(b *testing.B) {
	m := New(strings.Repeat("k", 256))
	m.Sum64() // warm the cache

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			sink = m.Sum64()
		}
	})
}

// Raw baseline: hash the same string from scratch on every call.
func BenchmarkMemo_RawHash_String(b *testing.B) {
	seed := maphash.MakeSeed()
	v := strings.Repeat("k", 256)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			sink = maphash.Comparable(seed, v)
		}
	})
}

func BenchmarkMemo_CachedHash_BigValue(b *testing.B) {
	m := New(newBigValue())
	m.Sum64()

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			sink = m.Sum64()
		}
	})
}

func BenchmarkMemo_RawHash_BigValue(b *testing.B) {
	seed := maphash.MakeSeed()
	v := newBigValue()

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			sink = maphash.Comparable(seed, v)
		}
	})
}

// First call: construction plus one strategy evaluation. This is the
// cost a cold memo pays once; amortize it over the Cached numbers.
func BenchmarkMemo_FirstHash_String(b *testing.B) {
	v := strings.Repeat("k", 256)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := New(v)
		sink = m.Sum64()
	}
}

func BenchmarkMemo_FirstHash_BigValue(b *testing.B) {
	v := newBigValue()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m := New(v)
		sink = m.Sum64()
	}
}

// The win is strategy-independent: xxHash over a 1 KiB string, cached
// versus recomputed.
func BenchmarkMemo_CachedHash_XXH64(b *testing.B) {
	m := NewWith(XXH64[string]{}, strings.Repeat("p", 1024))
	m.Sum64()

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			sink = m.Sum64()
		}
	})
}

func BenchmarkMemo_RawHash_XXH64(b *testing.B) {
	v := strings.Repeat("p", 1024)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			sink = xxhash.Sum64String(v)
		}
	})
}
