package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a resolved config is reused before the manifest is
// read again.
const DefaultTTL = 60 * time.Second

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Cache holds resolved configs per project root.
type Cache interface {
	Get(root string) (Config, bool)
	Put(root string, cfg Config)
	Delete(root string)
}

type cacheEntry struct {
	cfg     Config
	expires time.Time
}

type cacheSnapshot struct {
	entries map[string]cacheEntry
}

// TTLCache is safe for concurrent use. Readers load an immutable snapshot;
// writers build a new snapshot and swap it in, dropping expired entries.
type TTLCache struct {
	ttl   time.Duration
	clock Clock

	mu   sync.Mutex
	snap atomic.Pointer[cacheSnapshot]
}

// NewTTLCache returns a cache with the given TTL. A nil clock uses wall time.
func NewTTLCache(ttl time.Duration, clock Clock) *TTLCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = systemClock{}
	}
	c := &TTLCache{ttl: ttl, clock: clock}
	c.snap.Store(&cacheSnapshot{entries: map[string]cacheEntry{}})
	return c
}

func (c *TTLCache) Get(root string) (Config, bool) {
	entry, ok := c.snap.Load().entries[root]
	if !ok || !c.clock.Now().Before(entry.expires) {
		return Config{}, false
	}
	return entry.cfg, true
}

func (c *TTLCache) Put(root string, cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	old := c.snap.Load()
	next := &cacheSnapshot{entries: make(map[string]cacheEntry, len(old.entries)+1)}
	for k, e := range old.entries {
		if now.Before(e.expires) {
			next.entries[k] = e
		}
	}
	next.entries[root] = cacheEntry{cfg: cfg, expires: now.Add(c.ttl)}
	c.snap.Store(next)
}

// Delete drops root so the next Get misses.
func (c *TTLCache) Delete(root string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.snap.Load()
	if _, ok := old.entries[root]; !ok {
		return
	}
	next := &cacheSnapshot{entries: make(map[string]cacheEntry, len(old.entries))}
	for k, e := range old.entries {
		if k != root {
			next.entries[k] = e
		}
	}
	c.snap.Store(next)
}

// Resolver loads configs through a Cache, collapsing concurrent loads of the
// same root into one.
type Resolver struct {
	cache Cache
	load  func(root string) (Config, error)
	group singleflight.Group
}

func NewResolver(cache Cache) *Resolver {
	if cache == nil {
		cache = NewTTLCache(DefaultTTL, nil)
	}
	return &Resolver{cache: cache, load: Load}
}

func (r *Resolver) Resolve(ctx context.Context, root string) (Config, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Config{}, fmt.Errorf("resolve root %s: %w", root, err)
	}
	if cfg, ok := r.cache.Get(abs); ok {
		return cfg, nil
	}

	ch := r.group.DoChan(abs, func() (any, error) {
		cfg, err := r.load(abs)
		if err != nil {
			return Config{}, err
		}
		r.cache.Put(abs, cfg)
		return cfg, nil
	})
	select {
	case <-ctx.Done():
		return Config{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Config{}, res.Err
		}
		return res.Val.(Config), nil
	}
}

// Invalidate forgets the cached config for root, e.g. after its manifest
// changed on disk.
func (r *Resolver) Invalidate(root string) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return
	}
	r.cache.Delete(abs)
}
