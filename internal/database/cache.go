// File path: internal/database/cache.go
package database

import (
	"sync"
	"time"
)

// Clock supplies the current time. Tests inject a fake to exercise expiry
// without sleeping.
type Clock func() time.Time

type schemaCache struct {
	mu  sync.Mutex
	ttl time.Duration
	now Clock

	schema   Schema
	storedAt time.Time
	valid    bool
}

func newSchemaCache(ttl time.Duration, now Clock) *schemaCache {
	if now == nil {
		now = time.Now
	}
	return &schemaCache{ttl: ttl, now: now}
}

func (c *schemaCache) get() (Schema, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.valid {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(c.storedAt) >= c.ttl {
		c.schema = nil
		c.valid = false
		return nil, false
	}
	return c.schema, true
}

func (c *schemaCache) set(schema Schema) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.schema = schema
	c.storedAt = c.now()
	c.valid = true
}

func (c *schemaCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.schema = nil
	c.valid = false
}
