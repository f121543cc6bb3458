// Package cache memoizes expensive loads keyed by function identity and
// arguments, with optional expiry.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// NoExpiry keeps an entry until it is invalidated.
const NoExpiry time.Duration = 0

type entry struct {
	fn      string
	value   any
	expires time.Time // zero: never
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

// Cache maps (function, arguments) to a value and its expiry. Failed loads
// are never stored. Concurrent loads of the same key share one call.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	gen     map[string]uint64 // bumped on invalidation; stale loads are dropped
	group   singleflight.Group
	now     func() time.Time
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
		gen:     make(map[string]uint64),
		now:     time.Now,
	}
}

// Key returns the cache key for fn called with args.
func Key(fn string, args ...any) string {
	if len(args) == 0 {
		return fn
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%#v", a)
	}
	return fn + "(" + strings.Join(parts, ", ") + ")"
}

// GetOrLoad returns the cached value for (fn, args) or calls load to
// produce it. A ttl of NoExpiry keeps the value until invalidated.
// Uses double-checked reads around a singleflight load.
//
// The shared load ignores caller cancellation; each caller stops waiting
// when its own ctx is done.
func (c *Cache) GetOrLoad(ctx context.Context, fn string, ttl time.Duration, load func(context.Context) (any, error), args ...any) (any, error) {
	key := Key(fn, args...)

	c.mu.RLock()
	e, ok := c.entries[key]
	gen := c.gen[key]
	c.mu.RUnlock()
	if ok && !e.expired(c.now()) {
		return e.value, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		c.mu.RLock()
		if e, ok := c.entries[key]; ok && !e.expired(c.now()) {
			c.mu.RUnlock()
			return e.value, nil
		}
		c.mu.RUnlock()

		value, err := load(loadCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.gen[key] != gen {
			return value, nil
		}
		stored := entry{fn: fn, value: value}
		if ttl > 0 {
			stored.expires = c.now().Add(ttl)
		}
		c.entries[key] = stored
		return value, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

// Load is a typed wrapper around GetOrLoad.
func Load[T any](ctx context.Context, c *Cache, fn string, ttl time.Duration, load func(context.Context) (T, error), args ...any) (T, error) {
	v, err := c.GetOrLoad(ctx, fn, ttl, func(ctx context.Context) (any, error) {
		return load(ctx)
	}, args...)
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate drops the entry for (fn, args).
func (c *Cache) Invalidate(fn string, args ...any) {
	key := Key(fn, args...)
	c.mu.Lock()
	delete(c.entries, key)
	c.gen[key]++
	c.mu.Unlock()
	c.group.Forget(key)
}

// InvalidateFunc drops every entry stored for fn and returns how many
// were removed.
func (c *Cache) InvalidateFunc(fn string) int {
	c.mu.Lock()
	var keys []string
	for key, e := range c.entries {
		if e.fn == fn {
			keys = append(keys, key)
		}
	}
	for _, key := range keys {
		delete(c.entries, key)
		c.gen[key]++
	}
	c.mu.Unlock()

	for _, key := range keys {
		c.group.Forget(key)
	}
	return len(keys)
}

// Purge drops expired entries and returns how many were removed.
func (c *Cache) Purge() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
