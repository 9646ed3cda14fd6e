package llm

import (
	"sync"

	"github.com/penfold-notes/penfold/internal/model"
)

// DefaultCacheCapacity bounds the classification cache. Repeated identical
// OCR text within a session is the only expected hit pattern, so a small
// FIFO is a deliberate simplicity/latency tradeoff over an LRU.
const DefaultCacheCapacity = 100

// Cache is a bounded, insertion-ordered map from trimmed note text to a
// prior classification result. When full, the oldest-inserted entry is
// evicted first, irrespective of access recency.
type Cache struct {
	entries  map[string]model.ClassificationResult
	order    []string
	capacity int
	mu       sync.Mutex
}

// NewCache creates a cache with the given capacity.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Cache{
		entries:  make(map[string]model.ClassificationResult, capacity),
		order:    make([]string, 0, capacity),
		capacity: capacity,
	}
}

// Get retrieves a prior result for the key.
func (c *Cache) Get(key string) (model.ClassificationResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result, ok := c.entries[key]
	return result, ok
}

// Put stores a result, evicting the oldest-inserted entry when full.
// Re-inserting an existing key overwrites the value without changing the
// key's position in the eviction order.
func (c *Cache) Put(key string, result model.ClassificationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = result
		return
	}

	if len(c.order) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = result
	c.order = append(c.order, key)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
