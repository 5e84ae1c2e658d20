package service

import (
	"sync"
	"time"
)

// ttlCache holds one value for a fixed duration.
type ttlCache[T any] struct {
	mu       sync.RWMutex
	value    T
	valid    bool
	cachedAt time.Time
	ttl      time.Duration
}

func newTTLCache[T any](ttl time.Duration) *ttlCache[T] {
	return &ttlCache[T]{ttl: ttl}
}

func (c *ttlCache[T]) Get() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.valid || time.Since(c.cachedAt) > c.ttl {
		var zero T
		return zero, false
	}
	return c.value, true
}

func (c *ttlCache[T]) Set(value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	c.valid = true
	c.cachedAt = time.Now()
}

func (c *ttlCache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	c.value = zero
	c.valid = false
}
