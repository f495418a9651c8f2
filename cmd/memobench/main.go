// Command memobench runs a synthetic workload against a digest-keyed map
// and exposes optional pprof/Prometheus endpoints.
//
// Two workloads are provided:
//
//	mix:   a Zipf-distributed read/write mix over the keyspace
//	churn: drain every entry from one map into another and swap, which
//	       re-touches every key on every pass (worst case for re-hashing,
//	       best case for memoized digests)
//
// By default keys are wrapped once and operations reuse the cached
// digests; -raw switches to the raw-value operations that hash the key
// on every call, so a run with and without -raw shows what memoization
// buys for the same workload.
package main

import (
	"context"
	"flag"
	"fmt"
	"hash/fnv"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashmemo/hashmemo/internal/util"
	"github.com/hashmemo/hashmemo/memo"
	"github.com/hashmemo/hashmemo/memomap"
	pmet "github.com/hashmemo/hashmemo/metrics/prom"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// ---- Flags ----
	var (
		mode     = flag.String("mode", "mix", "workload: mix | churn")
		strategy = flag.String("strategy", "maphash", "hash strategy: maphash | xxh64 | fnv")
		raw      = flag.Bool("raw", false, "hash keys on every operation instead of reusing cached digests")
		shards   = flag.Int("shards", 0, "number of shards (0=auto)")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read percentage [0..100] (mix mode)")

		keys    = flag.Int("keys", 100_000, "keyspace size")
		keySize = flag.Int("keysize", 256, "key padding in bytes (raw hashing cost)")
		zipfS   = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew, mix mode)")
		zipfV   = flag.Float64("zipf_v", 1.0, "Zipf v (mix mode)")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "random seed")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Infow("pprof: serving", "addr", *pprofAddr)
			log.Warnw("pprof server stopped", "err", http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "hashmemo", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Infow("metrics: serving", "addr", *metricsAddr)
		log.Warnw("metrics server stopped", "err", http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Strategy ----
	var strat memo.Strategy[string]
	switch *strategy {
	case "maphash":
		// nil => memo.Comparable by default
	case "xxh64":
		strat = memo.XXH64[string]{}
	case "fnv":
		strat = memo.Streaming[string]{New: fnv.New64a}
	default:
		log.Fatalw("unknown strategy (use maphash, xxh64 or fnv)", "strategy", *strategy)
	}

	if *keys < 1 {
		log.Fatalw("keyspace must be at least 1", "keys", *keys)
	}

	// ---- Snapshot flags for goroutines ----
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}
	if workersN > *keys {
		workersN = *keys
	}
	readPctVal := *readPct
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV

	// ---- Keyspace: padded keys so raw hashing has a real cost ----
	pad := strings.Repeat("x", *keySize)
	rawKeys := make([]string, *keys)
	for i := range rawKeys {
		rawKeys[i] = "k:" + strconv.Itoa(i) + ":" + pad
	}

	log.Infow("starting workload",
		"mode", *mode, "strategy", *strategy, "raw", *raw, "shards", *shards,
		"workers", workersN, "keys", *keys, "keysize", *keySize,
		"duration", *duration, "seed", seedBase)

	runCtx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	switch *mode {
	case "mix":
		runMix(runCtx, metrics, strat, rawKeys, mixConfig{
			shards:   *shards,
			workers:  workersN,
			readPct:  readPctVal,
			zipfS:    zipfSVal,
			zipfV:    zipfVVal,
			seedBase: seedBase,
			raw:      *raw,
		})
	case "churn":
		runChurn(runCtx, strat, rawKeys, workersN, *raw)
	default:
		log.Fatalw("unknown mode (use mix or churn)", "mode", *mode)
	}
}

type mixConfig struct {
	shards   int
	workers  int
	readPct  int
	zipfS    float64
	zipfV    float64
	seedBase int64
	raw      bool
}

// runMix drives a Zipf read/write mix. With cached digests the keyspace
// is wrapped once up front and every operation rides the cache; with
// cfg.raw the raw-value operations re-hash the key every time.
func runMix(ctx context.Context, metrics memomap.Metrics, strat memo.Strategy[string], rawKeys []string, cfg mixConfig) {
	m := memomap.New[string, string](memomap.Options[string, string]{
		Shards:          cfg.shards,
		InitialCapacity: len(rawKeys),
		Strategy:        strat,
		Metrics:         metrics,
	})

	// Wrap the keyspace once (skipped for -raw) and preload half of it
	// for a realistic hit-rate.
	var keyspace []memomap.Key[string]
	if !cfg.raw {
		keyspace = make([]memomap.Key[string], len(rawKeys))
		for i, k := range rawKeys {
			keyspace[i] = m.Wrap(k)
		}
	}
	for i := 0; i < len(rawKeys)/2; i++ {
		if cfg.raw {
			m.SetValue(rawKeys[i], "v"+strconv.Itoa(i))
		} else {
			m.Set(keyspace[i], "v"+strconv.Itoa(i))
		}
	}

	// All workers hammer these; keep each counter on its own cache line.
	var stats struct {
		ops, reads, writes, hits, misses util.PaddedAtomicUint64
	}

	start := time.Now()
	var g errgroup.Group
	for w := 0; w < cfg.workers; w++ {
		id := w
		g.Go(func() error {
			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			r := rand.New(rand.NewSource(cfg.seedBase + int64(id)*9973))
			zipf := rand.NewZipf(r, cfg.zipfS, cfg.zipfV, uint64(len(rawKeys)-1))

			for {
				select {
				case <-ctx.Done():
					return nil
				default:
				}

				stats.ops.Add(1)
				idx := int(zipf.Uint64())
				if int(r.Int31n(100)) < cfg.readPct {
					stats.reads.Add(1)
					var ok bool
					if cfg.raw {
						_, ok = m.GetValue(rawKeys[idx])
					} else {
						_, ok = m.Get(keyspace[idx])
					}
					if ok {
						stats.hits.Add(1)
					} else {
						stats.misses.Add(1)
					}
				} else {
					stats.writes.Add(1)
					v := "v" + strconv.Itoa(r.Int())
					if cfg.raw {
						m.SetValue(rawKeys[idx], v)
					} else {
						m.Set(keyspace[idx], v)
					}
				}
			}
		})
	}
	_ = g.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	opsN := stats.ops.Load()
	readsN := stats.reads.Load()
	writesN := stats.writes.Load()
	hitsN := stats.hits.Load()
	missesN := stats.misses.Load()

	hitRate := 0.0
	if readsN > 0 {
		hitRate = float64(hitsN) / float64(readsN) * 100
	}

	fmt.Printf("ops=%s (%s ops/s)  reads=%s  writes=%s\n",
		humanize.Comma(int64(opsN)),
		humanize.CommafWithDigits(float64(opsN)/elapsed.Seconds(), 0),
		humanize.Comma(int64(readsN)), humanize.Comma(int64(writesN)))
	fmt.Printf("hits=%s  misses=%s  hit-rate=%.2f%%\n",
		humanize.Comma(int64(hitsN)), humanize.Comma(int64(missesN)), hitRate)
	fmt.Printf("Len()=%s  elapsed=%v\n", humanize.Comma(int64(m.Len())), elapsed)
}

// runChurn gives every worker its own pair of maps and drains one into
// the other over and over. Every pass re-touches every key, so cached
// digests pay off on each of the three operations per move; -raw
// re-hashes the key on all three instead. The per-worker maps keep the
// default NoopMetrics: one size gauge cannot track many unrelated maps.
func runChurn(ctx context.Context, strat memo.Strategy[string], rawKeys []string, workers int, raw bool) {
	perWorker := len(rawKeys) / workers

	var moves uint64

	start := time.Now()
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		part := rawKeys[w*perWorker : (w+1)*perWorker]
		g.Go(func() error {
			src := memomap.New[string, int](memomap.Options[string, int]{
				InitialCapacity: len(part),
				Strategy:        strat,
			})
			dst := memomap.New[string, int](memomap.Options[string, int]{
				InitialCapacity: len(part),
				Strategy:        strat,
			})

			var keys []memomap.Key[string]
			if raw {
				for i, k := range part {
					src.SetValue(k, i)
				}
			} else {
				keys = make([]memomap.Key[string], len(part))
				for i, k := range part {
					keys[i] = src.Wrap(k) // digests cached here, once
					src.Set(keys[i], i)
				}
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				default:
				}

				if raw {
					for _, k := range part {
						v, _ := src.GetValue(k)
						src.RemoveValue(k)
						dst.SetValue(k, v)
					}
				} else {
					for _, k := range keys {
						v, _ := src.Get(k)
						src.Remove(k)
						dst.Set(k, v)
					}
				}
				atomic.AddUint64(&moves, uint64(len(part)))
				src, dst = dst, src
			}
		})
	}
	_ = g.Wait()
	elapsed := time.Since(start)

	movesN := atomic.LoadUint64(&moves)
	perMove := time.Duration(0)
	if movesN > 0 {
		perMove = elapsed / time.Duration(movesN)
	}

	fmt.Printf("moves=%s (%s moves/s)  ns/move=%d  elapsed=%v\n",
		humanize.Comma(int64(movesN)),
		humanize.CommafWithDigits(float64(movesN)/elapsed.Seconds(), 0),
		perMove.Nanoseconds(), elapsed)
}
