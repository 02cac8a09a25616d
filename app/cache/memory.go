package cache

import (
	"container/list"
	"sync"
	"time"
)

// MemoryCache is an in-process cache capped at a fixed number of entries.
// Insertion order is tracked and the oldest entries are evicted first;
// overwriting a key moves it to the back of the eviction queue.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List
	size    int
	stop    chan struct{}
	once    sync.Once
}

type memoryEntry struct {
	key   string
	value []byte
}

func NewMemoryCache(size int, lifespan time.Duration) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		size:    size,
		stop:    make(chan struct{}),
	}

	if lifespan > 0 {
		go c.autotrim(lifespan)
	}

	return c
}

func (c *MemoryCache) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

func (c *MemoryCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return elem.Value.(*memoryEntry).value, true
}

func (c *MemoryCache) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.order.Remove(elem)
	}
	c.entries[key] = c.order.PushBack(&memoryEntry{key: key, value: value})
	c.trim()
}

// Trim evicts the oldest entries until the cache fits its size cap.
func (c *MemoryCache) Trim() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trim()
}

func (c *MemoryCache) trim() {
	if c.size < 0 {
		return
	}

	for len(c.entries) > c.size {
		front := c.order.Front()
		if front == nil {
			break
		}
		c.order.Remove(front)
		delete(c.entries, front.Value.(*memoryEntry).key)
	}
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *MemoryCache) autotrim(lifespan time.Duration) {
	ticker := time.NewTicker(lifespan)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Trim()
		case <-c.stop:
			return
		}
	}
}

func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}
