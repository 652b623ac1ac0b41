package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type entry[V any] struct {
	value   V
	err     error
	expires time.Time
	forever bool
}

func (e entry[V]) fresh(now time.Time) bool {
	return e.forever || now.Before(e.expires)
}

// TTL memoizes the result of a keyed computation. Successful results live
// for ttl (forever when ttl is negative); failures live for failureTTL so a
// broken command is retried sooner than a good result expires. Concurrent
// callers with the same key share a single in-flight computation.
//
// Expired entries are recomputed on read, never evicted in the background.
type TTL[V any] struct {
	ttl        time.Duration
	failureTTL time.Duration
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]entry[V]
	group   singleflight.Group
}

// TTLOption customizes a TTL cache.
type TTLOption func(*ttlSettings)

type ttlSettings struct {
	now func() time.Time
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) TTLOption {
	return func(s *ttlSettings) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTTL creates an empty cache.
func NewTTL[V any](ttl, failureTTL time.Duration, opts ...TTLOption) *TTL[V] {
	settings := ttlSettings{now: time.Now}
	for _, opt := range opts {
		opt(&settings)
	}
	return &TTL[V]{
		ttl:        ttl,
		failureTTL: failureTTL,
		now:        settings.now,
		entries:    map[string]entry[V]{},
	}
}

// Get returns the cached result for key or runs fn to produce it. A cached
// failure is returned as the error it was, until it expires.
//
// fn is shared by every caller of the key, so it runs without ctx's
// cancellation and must bound itself. A caller whose ctx ends returns
// ctx.Err() at once; the computation carries on and its result is stored.
func (c *TTL[V]) Get(ctx context.Context, key string, fn func(context.Context) (V, error)) (V, error) {
	if e, ok := c.lookup(key); ok {
		return e.value, e.err
	}
	if err := ctx.Err(); err != nil {
		var zero V
		return zero, err
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		// A previous flight may have finished between the lookup above and
		// joining the group.
		if e, ok := c.lookup(key); ok {
			return e.value, e.err
		}
		value, err := fn(detached)
		c.store(key, value, err)
		return value, err
	})

	select {
	case res := <-ch:
		value, _ := res.Val.(V)
		return value, res.Err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Invalidate drops the entry for key. An in-flight computation is not
// interrupted and still stores its result.
func (c *TTL[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Purge drops every entry.
func (c *TTL[V]) Purge() {
	c.mu.Lock()
	c.entries = map[string]entry[V]{}
	c.mu.Unlock()
}

// Len reports the number of stored entries, fresh or not.
func (c *TTL[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *TTL[V]) lookup(key string) (entry[V], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.fresh(c.now()) {
		return entry[V]{}, false
	}
	return e, true
}

func (c *TTL[V]) store(key string, value V, err error) {
	lifetime := c.ttl
	if err != nil {
		lifetime = c.failureTTL
	}
	if err != nil && lifetime <= 0 {
		return
	}
	if err == nil && lifetime == 0 {
		return
	}

	e := entry[V]{value: value, err: err}
	if lifetime < 0 {
		e.forever = true
	} else {
		e.expires = c.now().Add(lifetime)
	}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}
