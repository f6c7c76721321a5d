package cache

import (
	"sync"
	"time"
)

// Entry is a cached response payload
type Entry struct {
	Payload   []byte
	FetchedAt time.Time
}

// TTLCache keeps response payloads keyed by request URL. Entries are only
// invalidated lazily, when read after their TTL has elapsed.
type TTLCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]Entry
}

type Option func(*TTLCache)

// WithClock overrides the time source, used by tests
func WithClock(now func() time.Time) Option {
	return func(c *TTLCache) {
		c.now = now
	}
}

// NewTTLCache creates a cache whose entries expire after ttl
func NewTTLCache(ttl time.Duration, opts ...Option) *TTLCache {
	c := &TTLCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the payload stored under key if it is younger than the TTL.
func (c *TTLCache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.FetchedAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}
	return e.Payload, true
}

// Set stores payload under key with the current time
func (c *TTLCache) Set(key string, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry{Payload: payload, FetchedAt: c.now()}
}

// Len returns the number of stored entries, expired ones included
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Purge drops every entry
func (c *TTLCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]Entry)
}
