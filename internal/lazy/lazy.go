// Package lazy provides per-instance memoization of derived values.
//
// A Cache belongs to exactly one owner (e.g. a challenge) and dies with it.
// Values never expire: an owner that needs fresh values must be rebuilt.
package lazy

import "sync"

// Cache holds computed values keyed by attribute name. The zero value is ready to use.
type Cache struct {
	mu     sync.Mutex
	values map[string]any
}

// Value returns the value stored under key, computing it with derive on first use.
// derive runs at most once per key for the lifetime of c.
func Value[T any](c *Cache, key string, derive func() T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.values[key]; ok {
		return v.(T)
	}
	v := derive()
	if c.values == nil {
		c.values = make(map[string]any)
	}
	c.values[key] = v
	return v
}
