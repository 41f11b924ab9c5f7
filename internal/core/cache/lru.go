// Package cache holds small in-process caches shared by the engine.
package cache

import (
	"container/list"
	"sync"
)

type entry[V any] struct {
	key string
	val V
}

// LRU is a fixed-capacity least-recently-used map. Safe for concurrent use.
// The pattern compiler memoizes compiled regexes in one; completion sessions
// live in another.
type LRU[V any] struct {
	mu  sync.Mutex
	cap int
	ll  *list.List
	m   map[string]*list.Element
}

func NewLRU[V any](capacity int) *LRU[V] {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRU[V]{
		cap: capacity,
		ll:  list.New(),
		m:   map[string]*list.Element{},
	}
}

func (c *LRU[V]) Get(key string) (V, bool) {
	var zero V
	if c == nil {
		return zero, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.m[key]; ok {
		c.ll.MoveToFront(el)
		return el.Value.(*entry[V]).val, true
	}
	return zero, false
}

func (c *LRU[V]) Put(key string, val V) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.m[key]; ok {
		el.Value.(*entry[V]).val = val
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&entry[V]{key: key, val: val})
	c.m[key] = el

	for c.ll.Len() > c.cap {
		last := c.ll.Back()
		if last == nil {
			break
		}
		ent := last.Value.(*entry[V])
		delete(c.m, ent.key)
		c.ll.Remove(last)
	}
}

// Delete removes a key if present.
func (c *LRU[V]) Delete(key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.m[key]; ok {
		delete(c.m, key)
		c.ll.Remove(el)
	}
}

func (c *LRU[V]) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
