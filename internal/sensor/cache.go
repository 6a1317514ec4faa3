package sensor

import (
	"sync"

	"github.com/ariporad/warmup-project/pkg/api"
)

// Cache holds the latest received value for each subscribed sensor channel.
//
// A channel's slot is absent until its first message arrives; once set it is
// only ever overwritten by later messages of the same channel, never cleared.
// The cache is goroutine-safe, though the harness mutates it only from the
// serialized event-dispatch path.
type Cache struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{
		values: make(map[string]any),
	}
}

// Set stores value for channel, unconditionally overwriting. Subsequent
// reads observe the new value.
func (c *Cache) Set(channel string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.values[channel] = value
}

// Get returns the cached value for channel, or a DataNotReady error if the
// channel has never received a value. The error is the designed "not yet"
// signal, not a failure: callers special-case it rather than report it.
func (c *Cache) Get(channel string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.values[channel]
	if !ok {
		return nil, api.NewDataNotReady(channel)
	}
	return v, nil
}

// Has reports whether channel has received at least one value.
func (c *Cache) Has(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.values[channel]
	return ok
}
