// Package querycache is a process-wide read cache for catalog and review
// queries. Identical concurrent loads are collapsed into one call, stale
// entries are served while a refresh runs in the background, and writers
// invalidate entries by key prefix. The least recently used entries are
// evicted once MaxEntries is reached.
package querycache

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"golang.org/x/sync/singleflight"
)

// Key identifies a cached query: a resource kind plus its parameters.
type Key struct {
	Kind   string
	Params []string
}

func NewKey(kind string, params ...string) Key {
	return Key{Kind: kind, Params: params}
}

func (k Key) String() string {
	if len(k.Params) == 0 {
		return k.Kind
	}
	return k.Kind + "/" + strings.Join(k.Params, "/")
}

// HasPrefix reports whether k has the same kind as prefix and starts with
// all of its params.
func (k Key) HasPrefix(prefix Key) bool {
	if k.Kind != prefix.Kind || len(prefix.Params) > len(k.Params) {
		return false
	}
	for i, p := range prefix.Params {
		if k.Params[i] != p {
			return false
		}
	}
	return true
}

type State int

const (
	StateAbsent State = iota
	StateLoading
	StateFresh
	StateStale
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	case StateError:
		return "error"
	default:
		return "absent"
	}
}

// Loader produces the value for a key.
type Loader func(ctx context.Context) (any, error)

type entry struct {
	key      Key
	value    any
	hasValue bool
	err      error
	loadedAt time.Time
	loading  bool
	// gen changes on every invalidation. A load only writes back to the
	// entry generation it started on.
	gen         uint64
	invalidated bool
}

type Config struct {
	// FreshFor is how long a loaded value is served without revalidation.
	FreshFor time.Duration
	// LoadTimeout bounds a shared load, which outlives the caller that
	// started it.
	LoadTimeout time.Duration
	// MaxEntries caps the number of cached keys.
	MaxEntries int
}

const DefaultMaxEntries = 10000

type Stats struct {
	Hits          int64
	Misses        int64
	Loads         int64
	Revalidations int64
	Evictions     int64
}

type Cache struct {
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	entries *simplelru.LRU[string, *entry]
	nextGen uint64
	group   singleflight.Group
	bg      sync.WaitGroup

	hits, misses, loads, revalidations, evictions atomic.Int64
}

func New(cfg Config) *Cache {
	if cfg.FreshFor <= 0 {
		cfg.FreshFor = time.Minute
	}
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 15 * time.Second
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	c := &Cache{
		cfg: cfg,
		now: time.Now,
	}
	entries, err := simplelru.NewLRU[string, *entry](cfg.MaxEntries, func(string, *entry) {
		c.evictions.Add(1)
	})
	if err != nil {
		panic(fmt.Sprintf("querycache: %v", err))
	}
	c.entries = entries
	return c
}

// newGen must be called with mu held.
func (c *Cache) newGen() uint64 {
	c.nextGen++
	return c.nextGen
}

func flightID(id string, gen uint64) string {
	return fmt.Sprintf("%s#%d", id, gen)
}

// Get returns the cached value for key, loading it with loader when the
// entry is absent, failed or invalidated. Stale values are returned at once
// and refreshed in the background.
func (c *Cache) Get(ctx context.Context, key Key, loader Loader) (any, error) {
	id := key.String()

	c.mu.Lock()
	e, ok := c.entries.Get(id)
	if ok && e.hasValue && !e.invalidated {
		value := e.value
		gen := e.gen
		stale := c.now().Sub(e.loadedAt) >= c.cfg.FreshFor
		startRefresh := stale && !e.loading
		if startRefresh {
			e.loading = true
		}
		c.mu.Unlock()

		c.hits.Add(1)
		if startRefresh {
			c.revalidate(ctx, key, gen, loader)
		}
		return value, nil
	}
	if !ok {
		e = &entry{key: key, gen: c.newGen()}
		c.entries.Add(id, e)
	}
	e.loading = true
	gen := e.gen
	c.mu.Unlock()

	c.misses.Add(1)
	ch := c.group.DoChan(flightID(id, gen), c.loadFunc(ctx, id, gen, loader))
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Fetch is Get with the value asserted to T.
func Fetch[T any](ctx context.Context, c *Cache, key Key, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.Get(ctx, key, func(ctx context.Context) (any, error) {
		return load(ctx)
	})
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("querycache: %s holds %T", key, v)
	}
	return out, nil
}

// Invalidate marks every entry matching prefix so the next Get waits for a
// new load instead of serving the cached value. Loads already in flight
// still answer their own callers but no longer update the entry.
func (c *Cache) Invalidate(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, id := range c.entries.Keys() {
		e, ok := c.entries.Peek(id)
		if !ok || !e.key.HasPrefix(prefix) {
			continue
		}
		e.invalidated = true
		e.loading = false
		e.gen = c.newGen()
		n++
	}
	return n
}

// State reports the current state of key.
func (c *Cache) State(key Key) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries.Peek(key.String())
	switch {
	case !ok:
		return StateAbsent
	case e.loading && (!e.hasValue || e.invalidated):
		return StateLoading
	case e.err != nil && !e.hasValue:
		return StateError
	case !e.hasValue:
		return StateAbsent
	case e.invalidated || c.now().Sub(e.loadedAt) >= c.cfg.FreshFor:
		return StateStale
	default:
		return StateFresh
	}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.Len()
}

func (c *Cache) Stats() Stats {
	return Stats{
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Loads:         c.loads.Load(),
		Revalidations: c.revalidations.Load(),
		Evictions:     c.evictions.Load(),
	}
}

// Wait blocks until background revalidations have finished.
func (c *Cache) Wait() {
	c.bg.Wait()
}

func (c *Cache) revalidate(ctx context.Context, key Key, gen uint64, loader Loader) {
	id := key.String()
	c.revalidations.Add(1)
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()
		if _, err, _ := c.group.Do(flightID(id, gen), c.loadFunc(ctx, id, gen, loader)); err != nil {
			log.Printf("querycache revalidate failed key=%s error=%v", id, err)
		}
	}()
}

// loadFunc detaches the load from the caller's cancellation: other callers
// may be waiting on it, and the result is stored even if nobody is. A result
// is dropped when the entry was invalidated or evicted meanwhile.
func (c *Cache) loadFunc(parent context.Context, id string, gen uint64, loader Loader) func() (any, error) {
	return func() (any, error) {
		c.loads.Add(1)
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), c.cfg.LoadTimeout)
		defer cancel()

		value, err := loader(ctx)

		c.mu.Lock()
		defer c.mu.Unlock()
		e, ok := c.entries.Peek(id)
		if !ok || e.gen != gen {
			return value, err
		}
		e.loading = false
		if err != nil {
			e.err = err
			// a failed refresh of a valid entry keeps serving the old value
			if e.invalidated {
				e.hasValue = false
				e.value = nil
			}
			return nil, err
		}
		e.value = value
		e.hasValue = true
		e.err = nil
		e.loadedAt = c.now()
		e.invalidated = false
		return value, nil
	}
}
