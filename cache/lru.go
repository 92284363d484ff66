package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/poster/resource"
)

// LRU implements a simple least-recently-used TextCache.
type LRU struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[Key]*list.Element
	evictList *list.List
	rc        *resource.Controller
	closed    bool

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	rejected  atomic.Int64
}

type entry struct {
	key   Key
	value string
}

var _ TextCache = (*LRU)(nil)

// NewLRU creates a new LRU cache with the given capacity in bytes.
// If rc is provided, it will be used to enforce the process memory budget.
func NewLRU(capacity int64, rc *resource.Controller) *LRU {
	return &LRU{
		capacity:  capacity,
		items:     make(map[Key]*list.Element),
		evictList: list.New(),
		rc:        rc,
	}
}

// Get returns a cached text.
func (c *LRU) Get(_ context.Context, key Key) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(ent)
		return ent.Value.(*entry).value, true
	}
	c.misses.Add(1)
	return "", false
}

// Set caches a text. A closed cache admits nothing.
func (c *LRU) Set(_ context.Context, key Key, s string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.rejected.Add(1)
		return false
	}

	newSize := int64(len(s))

	if ent, ok := c.items[key]; ok {
		// A rejected replacement must not leave the stale value behind.
		if newSize > c.capacity {
			c.removeElement(ent)
			c.rejected.Add(1)
			return false
		}
		c.evictList.MoveToFront(ent)
		oldSize := int64(len(ent.Value.(*entry).value))
		if newSize > oldSize && !c.rc.TryAcquireMemory(newSize-oldSize) {
			c.removeElement(ent)
			c.rejected.Add(1)
			return false
		}
		if newSize < oldSize {
			c.rc.ReleaseMemory(oldSize - newSize)
		}
		c.size += newSize - oldSize
		ent.Value.(*entry).value = s
		c.evict(ent)
		return true
	}

	if newSize > c.capacity {
		c.rejected.Add(1)
		return false
	}

	// Make room locally first; evictions hand memory back to rc.
	for c.size+newSize > c.capacity {
		back := c.evictList.Back()
		if back == nil {
			break
		}
		c.removeElement(back)
		c.evictions.Add(1)
	}

	// Global budget exhausted: give up our own oldest entries until the
	// reservation succeeds or nothing is left to give.
	for !c.rc.TryAcquireMemory(newSize) {
		back := c.evictList.Back()
		if back == nil {
			c.rejected.Add(1)
			return false
		}
		c.removeElement(back)
		c.evictions.Add(1)
	}

	c.items[key] = c.evictList.PushFront(&entry{key, s})
	c.size += newSize
	return true
}

// Delete removes key if present.
func (c *LRU) Delete(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.items[key]; ok {
		c.removeElement(ent)
	}
}

// Invalidate removes entries matching the predicate.
func (c *LRU) Invalidate(predicate func(key Key) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []*list.Element
	for key, element := range c.items {
		if predicate(key) {
			toRemove = append(toRemove, element)
		}
	}
	for _, e := range toRemove {
		c.removeElement(e)
	}
}

// evict trims the cache to capacity, never removing keep.
func (c *LRU) evict(keep *list.Element) {
	for c.size > c.capacity {
		back := c.evictList.Back()
		if back == nil || back == keep {
			return
		}
		c.removeElement(back)
		c.evictions.Add(1)
	}
}

// Close drops every entry and returns its memory to the controller.
// Later Set calls are rejected.
func (c *LRU) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true

	for c.evictList.Len() > 0 {
		c.removeElement(c.evictList.Back())
	}
	return nil
}

// Stats returns cache statistics.
func (c *LRU) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Rejected:  c.rejected.Load(),
	}
}

func (c *LRU) removeElement(e *list.Element) {
	c.evictList.Remove(e)
	kv := e.Value.(*entry)
	delete(c.items, kv.key)
	itemSize := int64(len(kv.value))
	c.size -= itemSize
	c.rc.ReleaseMemory(itemSize)
}

// Size returns the current size of the cache in bytes.
func (c *LRU) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Len returns the number of cached entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
