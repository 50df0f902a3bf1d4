// Package cache keeps recent analysis results in memory, keyed by file or
// job id. Contents do not survive a restart.
package cache

import (
	"container/list"
	"sync"
)

type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
	MaxSize   int   `json:"max_size"`
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// LRU is a thread-safe least-recently-used cache. A MaxSize of 0 means
// unbounded.
type LRU[K comparable, V any] struct {
	mu      sync.Mutex
	maxSize int
	entries map[K]*list.Element
	order   *list.List
	stats   Stats
}

func NewLRU[K comparable, V any](maxSize int) *LRU[K, V] {
	if maxSize < 0 {
		maxSize = 0
	}
	return &LRU[K, V]{maxSize: maxSize, entries: make(map[K]*list.Element), order: list.New()}
}

// Save stores value under key, replacing any earlier value.
func (c *LRU[K, V]) Save(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*entry[K, V]).value = value
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(&entry[K, V]{key: key, value: value})
	if c.maxSize > 0 && c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*entry[K, V]).key)
		c.stats.Evictions++
	}
}

func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	c.stats.Hits++
	return el.Value.(*entry[K, V]).value, true
}

// Recent returns up to n values, most recently used first, without
// touching their recency.
func (c *LRU[K, V]) Recent(n int) []V {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]V, 0, min(n, c.order.Len()))
	for el := c.order.Front(); el != nil && len(out) < n; el = el.Next() {
		out = append(out, el.Value.(*entry[K, V]).value)
	}
	return out
}

func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.stats
	s.Size = c.order.Len()
	s.MaxSize = c.maxSize
	return s
}
