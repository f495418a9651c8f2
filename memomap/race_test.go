package memomap

import (
	"context"
	"math/rand"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashmemo/hashmemo/memo"
)

// A mixed workload of concurrent Set/Get/Remove on random keys, through
// memoized keys and raw values alike. Should pass under `-race` without
// detector reports.
func TestRace_MixedMapOps(t *testing.T) {
	m := New[string, []byte](Options[string, []byte]{
		Shards:          32,
		InitialCapacity: 8_192,
	})

	workers := 4 * runtime.GOMAXPROCS(0)
	keyspace := 50_000
	deadline := time.Now().Add(2 * time.Second)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)*9973))
			for time.Now().Before(deadline) {
				k := "k:" + strconv.Itoa(r.Intn(keyspace))
				switch r.Intn(100) {
				case 0, 1, 2, 3, 4: // ~5% — Remove via memo key
					m.Remove(memo.New(k))
				case 5, 6, 7, 8, 9: // ~5% — RemoveValue
					m.RemoveValue(k)
				case 10, 11, 12, 13, 14: // ~5% — SetValue
					m.SetValue(k, []byte("x"))
				case 15, 16, 17, 18, 19: // ~5% — Set via memo key
					m.Set(memo.New(k), []byte("x"))
				case 20, 21, 22, 23, 24: // ~5% — Len
					m.Len()
				default: // ~75% — Get, half raw, half memoized
					if r.Intn(2) == 0 {
						m.GetValue(k)
					} else {
						m.Get(memo.New(k))
					}
				}
			}
		}(w)
	}
	wg.Wait()
}

// One hundred goroutines call GetOrLoad on the same key concurrently.
// The Loader should run at most once (singleflight coalescing).
func TestRace_GetOrLoad(t *testing.T) {
	var calls int64

	m := New[string, string](Options[string, string]{
		Loader: func(_ context.Context, k string) (string, error) {
			atomic.AddInt64(&calls, 1)
			time.Sleep(2 * time.Millisecond) // simulate I/O
			return "v:" + k, nil
		},
	})

	const goroutines = 100
	key := "same-key"

	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := m.GetOrLoad(context.Background(), key)
			if err != nil {
				t.Errorf("GetOrLoad error: %v", err)
				return
			}
			if v != "v:"+key {
				t.Errorf("unexpected value: %q", v)
			}
		}()
	}

	close(start)
	wg.Wait()

	if got := atomic.LoadInt64(&calls); got > 1 {
		t.Fatalf("loader should run at most once, got %d", got)
	}

	// Subsequent call should be a pure map hit.
	if v, err := m.GetOrLoad(context.Background(), key); err != nil || v != "v:"+key {
		t.Fatalf("second GetOrLoad failed: v=%q err=%v", v, err)
	}
}

// Range runs concurrently with writers. Entries it observes must be
// internally consistent (value matches its key), and the iteration must
// terminate without holding up the writers.
func TestRace_RangeDuringWrites(t *testing.T) {
	m := New[int, int](Options[int, int]{Shards: 16})
	for i := 0; i < 1_000; i++ {
		m.SetValue(i, i*2)
	}

	deadline := time.Now().Add(1 * time.Second)
	var wg sync.WaitGroup

	// Writers churn a window of keys.
	writers := runtime.GOMAXPROCS(0)
	wg.Add(writers)
	for w := 0; w < writers; w++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(int64(id)*7919 + 1))
			for time.Now().Before(deadline) {
				k := r.Intn(2_000)
				if r.Intn(2) == 0 {
					m.SetValue(k, k*2)
				} else {
					m.RemoveValue(k)
				}
			}
		}(w)
	}

	// Rangers validate whatever snapshot they see.
	rangers := 2
	wg.Add(rangers)
	for w := 0; w < rangers; w++ {
		go func() {
			defer wg.Done()
			for time.Now().Before(deadline) {
				m.Range(func(k Key[int], v int) bool {
					if v != k.Value()*2 {
						t.Errorf("entry %d carries value %d", k.Value(), v)
						return false
					}
					return true
				})
			}
		}()
	}

	wg.Wait()
}
