package session

import "sync"

// ClientCache is the second cache table: constructed client handles keyed
// by session id. Handles are process-local and never serialized.
//
// There is no atomicity between this table and the record Store. Two
// requests may both find no cached handle and both construct one; the last
// write wins and the extra construction is wasted, which is acceptable
// because construction has no side effects beyond the cache entry.
type ClientCache[T any] struct {
	mu sync.RWMutex
	m  map[string]T
}

// NewClientCache constructs an empty handle cache.
func NewClientCache[T any]() *ClientCache[T] {
	return &ClientCache[T]{m: make(map[string]T)}
}

// Get returns the cached handle for id, if any.
func (c *ClientCache[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[id]
	return v, ok
}

// Put upserts the handle for id.
func (c *ClientCache[T]) Put(id string, v T) {
	c.mu.Lock()
	c.m[id] = v
	c.mu.Unlock()
}

// Delete removes the handle for id. Idempotent.
func (c *ClientCache[T]) Delete(id string) {
	c.mu.Lock()
	delete(c.m, id)
	c.mu.Unlock()
}

// Len reports the number of cached handles.
func (c *ClientCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
