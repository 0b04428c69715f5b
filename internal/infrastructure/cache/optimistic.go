package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is a key-value cache with per-key staleness. A stale key keeps
// serving its value but reports that callers should refetch from the source
// of truth before trusting it.
type MemoryCache struct {
	mu     sync.RWMutex
	values map[string]any
	stale  map[string]struct{}
}

// NewMemoryCache creates a new empty MemoryCache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		values: make(map[string]any),
		stale:  make(map[string]struct{}),
	}
}

// Get returns the cached value for key and whether it is present
func (c *MemoryCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Set stores a value and clears the key's staleness
func (c *MemoryCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	delete(c.stale, key)
}

// IsStale reports whether the key is marked for refetch
func (c *MemoryCache) IsStale(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, stale := c.stale[key]
	return stale
}

// MarkStale flags the key so the next reader refetches it
func (c *MemoryCache) MarkStale(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[key]; ok {
		c.stale[key] = struct{}{}
	}
}

// Delete removes a key entirely
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	delete(c.stale, key)
}

// Mutation is one speculative cache update in flight. It holds the snapshot
// taken before the update was applied, so the update can be undone exactly.
// Mutations on the same key unwind LIFO: roll back the most recent one first.
type Mutation struct {
	cache    *MemoryCache
	key      string
	snapshot any
	existed  bool
	settled  bool
}

// OptimisticMutator applies cache updates ahead of the durable write. The
// speculative value is visible immediately; once the write settles the value
// is either confirmed stale (success, forced refetch) or rolled back to the
// snapshot (failure). The speculative value is never treated as final.
type OptimisticMutator struct {
	cache *MemoryCache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewOptimisticMutator creates a mutator over the given cache
func NewOptimisticMutator(cache *MemoryCache) *OptimisticMutator {
	return &OptimisticMutator{
		cache: cache,
		locks: make(map[string]*sync.Mutex),
	}
}

// Cache returns the underlying cache
func (m *OptimisticMutator) Cache() *MemoryCache {
	return m.cache
}

// Begin snapshots the current value for key and applies the speculative
// update. apply receives the current value (nil when absent) and must return
// a new value rather than mutating the current one in place; the snapshot
// holds the old value by reference.
func (m *OptimisticMutator) Begin(key string, apply func(current any) any) *Mutation {
	current, existed := m.cache.Get(key)
	m.cache.Set(key, apply(current))

	return &Mutation{
		cache:    m.cache,
		key:      key,
		snapshot: current,
		existed:  existed,
	}
}

// Confirm settles the mutation after a successful durable write. The key is
// marked stale so the next reader refetches the authoritative value.
func (mu *Mutation) Confirm() {
	if mu.settled {
		return
	}
	mu.settled = true
	mu.cache.MarkStale(mu.key)
}

// Rollback settles the mutation after a failed durable write, restoring the
// exact snapshot taken at Begin.
func (mu *Mutation) Rollback() {
	if mu.settled {
		return
	}
	mu.settled = true
	if mu.existed {
		mu.cache.Set(mu.key, mu.snapshot)
	} else {
		mu.cache.Delete(mu.key)
	}
}

// Do runs one optimistic mutation end to end: apply the speculative value,
// run commit against the source of truth, then confirm or roll back.
// Same-key mutations serialize on a per-key lock; the commit error, or the
// context error on cancellation, propagates unchanged.
func (m *OptimisticMutator) Do(ctx context.Context, key string, apply func(current any) any, commit func(ctx context.Context) error) error {
	lock := m.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	mutation := m.Begin(key, apply)

	err := commit(ctx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		mutation.Rollback()
		return err
	}

	mutation.Confirm()
	return nil
}

// DoWithTimeout is Do with a deadline on the commit
func (m *OptimisticMutator) DoWithTimeout(ctx context.Context, timeout time.Duration, key string, apply func(current any) any, commit func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return m.Do(ctx, key, apply, commit)
}

func (m *OptimisticMutator) keyLock(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	return lock
}
