package workflow

import "sync"

// Context is the shared key-value store threaded through one workflow run.
// Each step may read any committed key; the engine writes a step's result
// under the step's own id once the step succeeds, so concurrent siblings
// never observe a half-written value. A Context belongs to exactly one run.
type Context struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewContext creates an empty run context.
func NewContext() *Context {
	return &Context{values: make(map[string]any)}
}

// Get returns the value committed under key.
func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// GetString returns the value under key if it is a string.
func (c *Context) GetString(key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Set commits a value under key.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

// Snapshot returns a copy of all committed values.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}
