// Package cache provides read-through caches whose entries expire after a
// fixed TTL. Concurrent misses share a single fetch.
package cache

import (
	"context"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Fetch loads a fresh value.
type Fetch[T any] func(context.Context) (T, error)

// Value caches a single value.
type Value[T any] struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	val       T
	fetchedAt time.Time
	valid     bool
	// gen changes on every Invalidate and forced read. It keys the shared
	// fetch, and a fetch from an older generation does not repopulate the cache.
	gen uint64

	group singleflight.Group
}

// NewValue returns an empty cache. A nil now uses time.Now.
func NewValue[T any](ttl time.Duration, now func() time.Time) *Value[T] {
	if now == nil {
		now = time.Now
	}
	return &Value[T]{ttl: ttl, now: now}
}

// Get returns the cached value while it is younger than the TTL, otherwise it
// calls fetch and caches the result. force skips the cache and supersedes any
// fetch already in flight. hit reports whether the value came from the cache.
//
// Concurrent callers of the same generation share one fetch. The fetch runs
// detached from the caller's cancellation; each caller stops waiting when its
// own ctx is done.
func (v *Value[T]) Get(ctx context.Context, force bool, fetch Fetch[T]) (val T, hit bool, err error) {
	v.mu.Lock()
	if !force && v.valid && v.now().Sub(v.fetchedAt) < v.ttl {
		val = v.val
		v.mu.Unlock()
		return val, true, nil
	}
	if force {
		v.gen++
	}
	gen := v.gen
	v.mu.Unlock()

	fetchCtx := context.WithoutCancel(ctx)
	ch := v.group.DoChan(strconv.FormatUint(gen, 10), func() (any, error) {
		fresh, err := fetch(fetchCtx)
		if err != nil {
			return nil, err
		}
		v.mu.Lock()
		if v.gen == gen {
			v.val, v.fetchedAt, v.valid = fresh, v.now(), true
		}
		v.mu.Unlock()
		return fresh, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, false, res.Err
		}
		return res.Val.(T), false, nil
	}
}

// Invalidate drops the cached value. Reads after it never share a fetch that
// started before it.
func (v *Value[T]) Invalidate() {
	v.mu.Lock()
	var zero T
	v.val, v.valid = zero, false
	v.gen++
	v.mu.Unlock()
}

// FetchedAt returns when the cached value was fetched, or false if there is none.
func (v *Value[T]) FetchedAt() (time.Time, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.fetchedAt, v.valid
}

// Keyed caches one value per key, each with its own timestamp.
type Keyed[K comparable, T any] struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[K]*Value[T]
}

// NewKeyed returns an empty keyed cache. A nil now uses time.Now.
func NewKeyed[K comparable, T any](ttl time.Duration, now func() time.Time) *Keyed[K, T] {
	if now == nil {
		now = time.Now
	}
	return &Keyed[K, T]{ttl: ttl, now: now, entries: make(map[K]*Value[T])}
}

func (k *Keyed[K, T]) entry(key K) *Value[T] {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.entries[key]
	if !ok {
		e = NewValue[T](k.ttl, k.now)
		k.entries[key] = e
	}
	return e
}

// Get is Value.Get for the entry at key.
func (k *Keyed[K, T]) Get(ctx context.Context, key K, force bool, fetch Fetch[T]) (T, bool, error) {
	return k.entry(key).Get(ctx, force, fetch)
}

// Invalidate drops the entry at key.
func (k *Keyed[K, T]) Invalidate(key K) {
	k.mu.Lock()
	e, ok := k.entries[key]
	k.mu.Unlock()
	if ok {
		e.Invalidate()
	}
}

// InvalidateAll drops every entry.
func (k *Keyed[K, T]) InvalidateAll() {
	k.mu.Lock()
	entries := make([]*Value[T], 0, len(k.entries))
	for _, e := range k.entries {
		entries = append(entries, e)
	}
	k.mu.Unlock()

	for _, e := range entries {
		e.Invalidate()
	}
}
