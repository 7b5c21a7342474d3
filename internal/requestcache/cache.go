// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package requestcache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/apex/log"
	"golang.org/x/sync/singleflight"

	"github.com/staranto/randuser/internal/fetcher"
	"github.com/staranto/randuser/internal/user"
)

// Store holds one result per user identifier. Implementations must be safe
// for concurrent use.
type Store interface {
	Get(key string) (fetcher.Result, bool)
	Set(key string, r fetcher.Result)
	Has(key string) bool
}

// MapStore is the default in-memory Store.
type MapStore struct {
	mu sync.RWMutex
	m  map[string]fetcher.Result
}

// NewMapStore returns an empty MapStore.
func NewMapStore() *MapStore {
	return &MapStore{m: make(map[string]fetcher.Result)}
}

func (s *MapStore) Get(key string) (fetcher.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.m[key]
	return r, ok
}

func (s *MapStore) Set(key string, r fetcher.Result) {
	s.mu.Lock()
	s.m[key] = r
	s.mu.Unlock()
}

func (s *MapStore) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.m[key]
	return ok
}

// Len returns the number of stored identifiers.
func (s *MapStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// FetchFunc performs the lookup for one identifier. *fetcher.Fetcher's Fetch
// method has this shape.
type FetchFunc func(ctx context.Context, id string) fetcher.Result

// Cache deduplicates and memoizes user lookups. The first caller for an
// identifier runs the fetch, concurrent callers share it, and every later
// caller gets the stored result. Entries are never evicted or refreshed, so
// a failed lookup stays failed for the life of the Cache.
type Cache struct {
	fetch    FetchFunc
	store    Store
	group    singleflight.Group
	observer Observer

	hits, misses, dedups atomic.Int64
}

// Option configures a Cache created by New.
type Option func(*Cache)

// WithStore replaces the default MapStore.
func WithStore(s Store) Option {
	return func(c *Cache) {
		c.store = s
	}
}

// WithObserver attaches an Observer that receives hit, miss, and dedup
// events for the lifetime of the cache.
func WithObserver(o Observer) Option {
	return func(c *Cache) {
		c.observer = o
	}
}

// New returns a Cache that resolves misses with fetch.
func New(fetch FetchFunc, opts ...Option) *Cache {
	c := &Cache{
		fetch:    fetch,
		store:    NewMapStore(),
		observer: LogObserver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the result for id, calling the fetch function at most once per
// identifier. Concurrent callers for the same id block and receive the same
// result. Get never panics.
func (c *Cache) Get(ctx context.Context, id string) (res fetcher.Result) {
	defer func() {
		if v := recover(); v != nil {
			log.Errorf("cache lookup for %q panicked: %v", id, v)
			res = fetcher.Result{ID: id, Kind: fetcher.KindTransportError, Err: fmt.Errorf("cache lookup for %q panicked: %v", id, v)}
		}
	}()

	// Fast path: already stored.
	if r, ok := c.store.Get(id); ok {
		c.emit(EventHit, id)
		return r
	}

	v, _, shared := c.group.Do(id, func() (any, error) {
		return c.load(ctx, id), nil
	})
	if shared {
		c.emit(EventDedup, id)
	}
	return v.(fetcher.Result) //nolint:forcetypeassert
}

// GetUser is the nullable form of Get.
func (c *Cache) GetUser(ctx context.Context, id string) *user.User {
	return c.Get(ctx, id).UserOrNil()
}

// Go starts (or joins) the lookup for id and returns a channel that yields
// its result exactly once.
func (c *Cache) Go(ctx context.Context, id string) <-chan fetcher.Result {
	out := make(chan fetcher.Result, 1)

	if r, ok := c.store.Get(id); ok {
		c.emit(EventHit, id)
		out <- r
		return out
	}

	ch := c.group.DoChan(id, func() (any, error) {
		return c.load(ctx, id), nil
	})
	go func() {
		r := <-ch
		if r.Shared {
			c.emit(EventDedup, id)
		}
		out <- r.Val.(fetcher.Result) //nolint:forcetypeassert
	}()
	return out
}

// load runs inside the singleflight call. The store is checked again since a
// previous flight may have finished between the fast path and here. The
// result is stored before waiters are released.
func (c *Cache) load(ctx context.Context, id string) (res fetcher.Result) {
	if r, ok := c.store.Get(id); ok {
		c.emit(EventHit, id)
		return r
	}

	c.emit(EventMiss, id)

	defer func() {
		if v := recover(); v != nil {
			log.Errorf("fetch for %q panicked: %v", id, v)
			res = fetcher.Result{ID: id, Kind: fetcher.KindTransportError, Err: fmt.Errorf("fetch for %q panicked: %v", id, v)}
		}
		c.store.Set(id, res)
	}()

	// The flight outlives any single caller, so it must not be cut short by
	// the first caller going away.
	return c.fetch(context.WithoutCancel(ctx), id)
}

// Has reports whether a result is stored for id.
func (c *Cache) Has(id string) bool {
	return c.store.Has(id)
}

// Len returns the number of stored identifiers, or -1 when the Store does
// not count its entries.
func (c *Cache) Len() int {
	if l, ok := c.store.(interface{ Len() int }); ok {
		return l.Len()
	}
	return -1
}

// Stats are running counters of cache events.
type Stats struct {
	Hits   int64
	Misses int64
	Dedups int64
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Dedups: c.dedups.Load(),
	}
}

func (c *Cache) emit(event Event, id string) {
	switch event {
	case EventHit:
		c.hits.Add(1)
	case EventMiss:
		c.misses.Add(1)
	case EventDedup:
		c.dedups.Add(1)
	}
	if c.observer == nil {
		return
	}
	c.observer.On(EventData{Event: event, ID: id})
}
