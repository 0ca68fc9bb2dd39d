package pipeline

import "github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"

// Cache holds compiled pipelines by key.
type Cache struct {
	entries map[Key]Pipeline
}

// NewCache creates an empty pipeline cache.
//
// Returns:
//   - *Cache: the cache
func NewCache() *Cache {
	return &Cache{entries: make(map[Key]Pipeline)}
}

// Get returns the pipeline for a key.
//
// Parameters:
//   - key: the pipeline key
//
// Returns:
//   - Pipeline: the cached pipeline
//   - bool: false if none is cached
func (c *Cache) Get(key Key) (Pipeline, bool) {
	p, ok := c.entries[key]
	return p, ok
}

// Add stores a pipeline, releasing any pipeline previously cached under the same key.
//
// Parameters:
//   - p: the pipeline to store
func (c *Cache) Add(p Pipeline) {
	if old, ok := c.entries[p.Key()]; ok && old != p {
		old.Release()
	}
	c.entries[p.Key()] = p
}

// EvictProgram releases every pipeline compiled from a program.
//
// Parameters:
//   - program: the program handle
//
// Returns:
//   - int: the number of pipelines released
func (c *Cache) EvictProgram(program backend.ProgramHandle) int {
	n := 0
	for k, p := range c.entries {
		if k.Program == program {
			p.Release()
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of cached pipelines.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Release frees every cached pipeline.
func (c *Cache) Release() {
	for k, p := range c.entries {
		p.Release()
		delete(c.entries, k)
	}
}
