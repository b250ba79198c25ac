package llm

import (
	"sync"
	"time"
)

// ttlValue holds a single value that goes stale after ttl.
type ttlValue[T any] struct {
	mu       sync.RWMutex
	value    T
	set      bool
	storedAt time.Time
	ttl      time.Duration
	now      func() time.Time
}

func newTTLValue[T any](ttl time.Duration) *ttlValue[T] {
	return &ttlValue[T]{ttl: ttl, now: time.Now}
}

func (c *ttlValue[T]) Get() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.set || c.now().Sub(c.storedAt) > c.ttl {
		var zero T
		return zero, false
	}
	return c.value, true
}

func (c *ttlValue[T]) Set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	c.set = true
	c.storedAt = c.now()
}
