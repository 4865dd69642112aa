package ai

import (
	"container/list"
	"sync"
)

// EmbeddingCache memoizes embeddings per (provider identity, text) within one
// process lifetime, with LRU eviction once maxSize entries are held. Repeated
// queries then skip the remote embedding call entirely. The cache is never
// persisted across restarts.
type EmbeddingCache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List
	maxSize int
}

type cacheEntry struct {
	key    string
	vector []float32
}

// NewEmbeddingCache creates a cache bounded to maxSize entries.
func NewEmbeddingCache(maxSize int) *EmbeddingCache {
	if maxSize <= 0 {
		maxSize = 5000
	}
	return &EmbeddingCache{
		entries: make(map[string]*list.Element),
		lru:     list.New(),
		maxSize: maxSize,
	}
}

// Get returns the cached vector for the given provider identity and text.
func (c *EmbeddingCache) Get(identity, text string) ([]float32, bool) {
	key := cacheKey(identity, text)

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.lru.MoveToFront(elem)
	return elem.Value.(*cacheEntry).vector, true
}

// Put stores a vector, evicting the least recently used entry when full.
func (c *EmbeddingCache) Put(identity, text string, vector []float32) {
	key := cacheKey(identity, text)

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*cacheEntry).vector = vector
		c.lru.MoveToFront(elem)
		return
	}

	c.entries[key] = c.lru.PushFront(&cacheEntry{key: key, vector: vector})

	for c.lru.Len() > c.maxSize {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.lru.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

// Len returns the number of cached entries.
func (c *EmbeddingCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func cacheKey(identity, text string) string {
	return identity + "\x00" + text
}
