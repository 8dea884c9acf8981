package vertex

import (
	"sync"
	"sync/atomic"
)

// Cache хранит вычисленные эмбеддинги по ключу vector.CacheKey(text).
type Cache interface {
	Get(key string) ([]float32, bool)
	Set(key string, vec []float32)
	Len() int
}

// MemoryCache — кэш в памяти процесса без вытеснения.
type MemoryCache struct {
	entries sync.Map
	size    atomic.Int64
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Get(key string) ([]float32, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}

	return v.([]float32), true
}

func (c *MemoryCache) Set(key string, vec []float32) {
	if _, loaded := c.entries.Swap(key, vec); !loaded {
		c.size.Add(1)
	}
}

func (c *MemoryCache) Len() int {
	return int(c.size.Load())
}
