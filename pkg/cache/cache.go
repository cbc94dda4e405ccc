// Package cache provides a short-lived in-memory result cache keyed by a rounded search area.
package cache

import (
	"math"
	"sync"
	"time"
)

// DefaultTTL is the lifetime of an entry when none is configured.
const DefaultTTL = 300 * time.Second

// keyPrecision rounds coordinates to 3 decimal places (~110 m grid).
const keyPrecision = 1000

// Key identifies a search area. Coordinates are rounded by NewKey.
type Key struct {
	Lat    float64
	Lon    float64
	Radius float64
}

// NewKey builds a key with the coordinates rounded to the cache grid.
func NewKey(lat, lon, radius float64) Key {
	return Key{
		Lat:    math.Round(lat*keyPrecision) / keyPrecision,
		Lon:    math.Round(lon*keyPrecision) / keyPrecision,
		Radius: radius,
	}
}

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// ResultCache is a TTL map. Expired entries are evicted lazily on Get.
type ResultCache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[Key]entry[V]
}

// Option configures a ResultCache.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a cache. A non-positive ttl selects DefaultTTL.
func New[V any](ttl time.Duration, opts ...Option) *ResultCache[V] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache[V]{
		ttl:     ttl,
		now:     o.now,
		entries: make(map[Key]entry[V]),
	}
}

// TTL returns the entry lifetime.
func (c *ResultCache[V]) TTL() time.Duration {
	return c.ttl
}

// Get returns the value for key if it is still fresh.
func (c *ResultCache[V]) Get(key Key) (V, bool) {
	key = NewKey(key.Lat, key.Lon, key.Radius)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, replacing any previous entry.
func (c *ResultCache[V]) Set(key Key, value V) {
	key = NewKey(key.Lat, key.Lon, key.Radius)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: value, storedAt: c.now()}
}

// RemoveExpired drops every stale entry and returns how many were removed.
func (c *ResultCache[V]) RemoveExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Clear empties the cache.
func (c *ResultCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Len returns the number of stored entries, fresh or not.
func (c *ResultCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
