package process

import (
	"strings"
	"sync"

	"procagent/internal/types"
)

// Context is the mutable key/value store threaded through one process execution.
// A Context is created per invocation and handed to the engine; it must not be
// reused afterwards.
//
// Paths use dots to reach into nested maps: "customer.address.city".
type Context struct {
	mu     sync.RWMutex
	values map[string]interface{}
}

// NewContext creates an empty context.
func NewContext() *Context {
	return &Context{values: make(map[string]interface{})}
}

// Set stores a top-level value.
func (c *Context) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Get returns a top-level value.
func (c *Context) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// Has reports whether a top-level key is present.
func (c *Context) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Lookup resolves a dotted path.
func (c *Context) Lookup(path string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	parts := strings.Split(path, ".")
	var cur interface{} = c.values
	for _, part := range parts {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// LookupString resolves a dotted path and renders the value as a string.
func (c *Context) LookupString(path string) (string, bool) {
	v, ok := c.Lookup(path)
	if !ok {
		return "", false
	}
	return types.ExtractString(v), true
}

// Assign writes a value at a dotted path, creating intermediate maps.
// A non-map value on the way is replaced.
func (c *Context) Assign(path string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	parts := strings.Split(path, ".")
	cur := c.values
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]interface{})
		if !ok {
			next = make(map[string]interface{})
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

// Keys returns the top-level keys in lexical order.
func (c *Context) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return types.SortedKeys(c.values)
}

// Len returns the number of top-level keys.
func (c *Context) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.values)
}

// Snapshot returns a shallow copy of the top-level values.
func (c *Context) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]interface{}, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}
