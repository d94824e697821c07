package llm

import (
	"container/list"
	"encoding/json"
	"sync"
)

// cacheKey identifies one structured invocation: result schema, prompt
// identifier, and a digest of the rendered prompt plus canonical variables.
type cacheKey struct {
	schemaName string
	promptID   string
	digest     string
}

type cacheEntry struct {
	key     cacheKey
	payload json.RawMessage
}

// resultCache is a fixed-capacity LRU over validated backend payloads. The
// mutex serialises map and recency-list access across concurrent turns; the
// backend call itself happens outside this lock.
type resultCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[cacheKey]*list.Element
	recency  *list.List // front = most recently used
}

func newResultCache(capacity int) *resultCache {
	if capacity <= 0 {
		capacity = 64
	}
	return &resultCache{
		capacity: capacity,
		entries:  map[cacheKey]*list.Element{},
		recency:  list.New(),
	}
}

// lookup returns the cached payload and touches its recency.
func (c *resultCache) lookup(key cacheKey) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.recency.MoveToFront(el)
	return el.Value.(*cacheEntry).payload, true
}

// store inserts or refreshes the payload, evicting the least recently used
// entry once the cache is at capacity. Eviction ties break by insertion order
// because untouched entries keep their arrival position in the list.
func (c *resultCache) store(key cacheKey, payload json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).payload = payload
		c.recency.MoveToFront(el)
		return
	}
	if c.recency.Len() >= c.capacity {
		oldest := c.recency.Back()
		if oldest != nil {
			c.recency.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
	c.entries[key] = c.recency.PushFront(&cacheEntry{key: key, payload: payload})
}

func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recency.Len()
}
