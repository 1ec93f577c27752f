// Package cache memoises ensemble results between calls. Entries are keyed by
// source text alone; the language pair and backend set are not part of the
// key, so one cache must serve a single translation direction.
package cache

import "sync"

// Cache stores values by source text.
type Cache[V any] interface {
	Get(text string) (V, bool)
	Set(text string, v V)
	Clear()
	Len() int
}

// MemoryCache is an in-process Cache.
type MemoryCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
}

func NewMemory[V any]() *MemoryCache[V] {
	return &MemoryCache[V]{entries: make(map[string]V)}
}

func (c *MemoryCache[V]) Get(text string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[text]
	return v, ok
}

func (c *MemoryCache[V]) Set(text string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[text] = v
}

func (c *MemoryCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]V)
}

func (c *MemoryCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Nop never stores anything.
type Nop[V any] struct{}

func (Nop[V]) Get(string) (V, bool) {
	var zero V
	return zero, false
}

func (Nop[V]) Set(string, V) {}

func (Nop[V]) Clear() {}

func (Nop[V]) Len() int { return 0 }
