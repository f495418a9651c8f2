// Package singleflight coalesces concurrent loads keyed by 64-bit
// digests, so that at most one loader runs per digest at a time.
package singleflight

import (
	"context"
	"sync"
)

// Group coalesces concurrent function calls for the same digest so that
// the supplied fn is executed at most once. Other concurrent callers
// wait for the shared result.
//
// Keys are the memoized digests the surrounding container is organized
// by; two raw values that collide on a digest intentionally share a
// flight, mirroring the bucket they would land in.
//
// Concurrency notes:
//   - The first caller for a given digest becomes the leader and runs fn.
//   - Followers wait on c.done. Publishing (val, err) happens-before
//     close(c.done), so reads after <-done observe the final values.
//   - Cancelling ctx in a follower unblocks only that follower; it does
//     NOT cancel the leader's fn. If you need cancellation of the work,
//     pass ctx into fn and handle it there.
type Group[V any] struct {
	mu sync.Mutex
	m  map[uint64]*call[V]
}

type call[V any] struct {
	done chan struct{} // closed when val/err are published
	val  V
	err  error
}

// Do runs fn once for the given digest. Concurrent calls with the same
// digest wait for the shared result. If ctx is cancelled in a follower,
// that follower returns ctx.Err() while the leader continues to run fn.
//
// The trailing result reports leadership: true means this call executed
// fn itself, false means it joined another caller's flight (the result
// order mirrors x/sync/singleflight's Do). Callers that key flights by
// digest rather than by value use it to tell their own result from a
// digest-mate's.
//
// Important:
//   - ctx cancellation does not stop the leader's fn. If cancellation of
//     the underlying work is required, thread ctx into fn and handle it there.
func (g *Group[V]) Do(ctx context.Context, digest uint64, fn func() (V, error)) (v V, err error, leader bool) {
	// Fast path: an in-flight call exists — wait (respecting ctx).
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[uint64]*call[V])
	}
	if c, ok := g.m[digest]; ok {
		done := c.done
		g.mu.Unlock()

		select {
		case <-done:
			return c.val, c.err, false
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err(), false
		}
	}

	// We are the leader for this digest.
	c := &call[V]{done: make(chan struct{})}
	g.m[digest] = c
	g.mu.Unlock()

	// Execute fn outside the lock.
	v, err = fn()

	// Publish result and wake followers.
	c.val, c.err = v, err
	close(c.done)

	// Remove the in-flight marker.
	g.mu.Lock()
	delete(g.m, digest)
	g.mu.Unlock()

	return v, err, true
}
