package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jpillora/backoff"

	"github.com/coinpulse/coinpulse/internal/market"
)

// entry 一次成功拉取的结果
type entry[T any] struct {
	value     T
	expiresAt time.Time
	gen       uint64 // bumped on every successful fetch, drives snapshot invalidation
}

// call is one in-flight fetch shared by every waiter, so N concurrent cold
// readers cost exactly one upstream request.
type call[T any] struct {
	done chan struct{}
	val  T
	gen  uint64
	err  error
}

// resource guards one upstream value with a TTL, stale-while-revalidate,
// in-flight coalescing and failure back-off:
//
//   - fresh entry: served directly, no I/O
//   - stale entry: served immediately; a background refresh is started
//     unless one is running or a back-off window is active
//   - no entry: fail fast inside a back-off window, otherwise join (or
//     start) the single in-flight fetch
type resource[T any] struct {
	name  string
	ttl   time.Duration
	fetch func(ctx context.Context) (T, error)
	log   market.Logger
	now   func() time.Time // injectable for tests

	mu       sync.Mutex
	cur      *entry[T]
	inflight *call[T]
	retryAt  time.Time // zero when no back-off window is active
	boff     *backoff.Backoff
}

func newResource[T any](name string, ttl, backoffMin time.Duration, fetch func(ctx context.Context) (T, error), log market.Logger) *resource[T] {
	if log == nil {
		log = market.NopLogger{}
	}
	return &resource[T]{
		name:  name,
		ttl:   ttl,
		fetch: fetch,
		log:   log,
		now:   time.Now,
		boff: &backoff.Backoff{
			Min:    backoffMin,
			Max:    2 * time.Minute,
			Factor: 2,
		},
	}
}

// get returns the resource value and the generation it belongs to.
func (r *resource[T]) get(ctx context.Context) (T, uint64, error) {
	var zero T

	r.mu.Lock()
	now := r.now()

	if r.cur != nil && now.Before(r.cur.expiresAt) {
		v, g := r.cur.value, r.cur.gen
		r.mu.Unlock()
		return v, g, nil
	}

	if r.cur != nil {
		// Stale: serve the previous value, refresh off the caller's path.
		v, g := r.cur.value, r.cur.gen
		if r.inflight == nil && !now.Before(r.retryAt) {
			c := &call[T]{done: make(chan struct{})}
			r.inflight = c
			go r.run(c)
		}
		r.mu.Unlock()
		return v, g, nil
	}

	if r.inflight == nil {
		if now.Before(r.retryAt) {
			r.mu.Unlock()
			return zero, 0, &market.UpstreamError{
				Err: fmt.Errorf("%s: cold fetch suppressed until %s", r.name, r.retryAt.Format(time.RFC3339)),
			}
		}
		c := &call[T]{done: make(chan struct{})}
		r.inflight = c
		go r.run(c)
	}
	c := r.inflight
	r.mu.Unlock()

	select {
	case <-ctx.Done():
		return zero, 0, ctx.Err()
	case <-c.done:
	}
	if c.err != nil {
		return zero, 0, c.err
	}
	return c.val, c.gen, nil
}

// run executes one fetch. It is deliberately detached from any caller
// context: a caller that gives up must not cancel the fetch other waiters
// share, and the HTTP client enforces the request timeout.
func (r *resource[T]) run(c *call[T]) {
	finished := false
	defer func() {
		if rec := recover(); rec != nil {
			c.err = fmt.Errorf("%s: fetch panic: %v", r.name, rec)
			if !finished {
				r.finish(c)
			}
		}
	}()

	c.val, c.err = r.fetch(context.Background())
	finished = true
	r.finish(c)
}

func (r *resource[T]) finish(c *call[T]) {
	r.mu.Lock()
	if c.err == nil {
		gen := uint64(1)
		if r.cur != nil {
			gen = r.cur.gen + 1
		}
		r.cur = &entry[T]{value: c.val, expiresAt: r.now().Add(r.ttl), gen: gen}
		c.gen = gen
		r.retryAt = time.Time{}
		r.boff.Reset()
	} else {
		r.retryAt = r.now().Add(r.boff.Duration())
		r.log.Error("fetch failed", "resource", r.name, "error", c.err, "retry_at", r.retryAt)
	}
	r.inflight = nil
	r.mu.Unlock()
	close(c.done)
}

// expired reports whether the resource holds no usable value and is idle.
// Used when pruning per-key resources.
func (r *resource[T]) expired(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight == nil && (r.cur == nil || !now.Before(r.cur.expiresAt))
}
