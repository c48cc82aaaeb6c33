// Package rectcache remembers where each block was last drawn so hit-testing
// and snapping keep working for blocks that are not currently mounted.
package rectcache

import (
	"sync"

	"nestcanvas/internal/geometry"
)

// Element is a mounted visual for a block. Measure reports the element's
// current viewport rectangle, or false when it cannot be measured right now.
type Element interface {
	Measure() (geometry.Box, bool)
}

// ElementFunc adapts a function to Element.
type ElementFunc func() (geometry.Box, bool)

func (f ElementFunc) Measure() (geometry.Box, bool) { return f() }

type entry struct {
	rect     geometry.Box // environment coordinates
	measured bool
	element  Element
}

// Cache maps block ids to their last known environment rectangle. It is safe
// for concurrent use: measurement effects write while the reducer reads.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

func New() *Cache {
	return &Cache{entries: make(map[string]*entry)}
}

// SetElement mounts el as the live visual of block id.
func (c *Cache) SetElement(id string, el Element) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		e = &entry{}
		c.entries[id] = e
	}
	e.element = el
}

// DetachElement unmounts the visual of block id, keeping its last rectangle.
func (c *Cache) DetachElement(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[id]; ok {
		e.element = nil
	}
}

// Report records a measurement taken outside GetRect, in environment coordinates.
func (c *Cache) Report(id string, rect geometry.Box) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		e = &entry{}
		c.entries[id] = e
	}
	e.rect = rect
	e.measured = true
}

// Forget drops everything known about block id.
func (c *Cache) Forget(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
}

// Live reports whether block id has a mounted element.
func (c *Cache) Live(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	return ok && e.element != nil
}

// GetRect measures block id through its live element, converting to
// environment coordinates with the given camera, and falls back to the last
// cached rectangle. It returns false only for blocks never measured.
func (c *Cache) GetRect(id string, focus geometry.Vec2, scale float64) (geometry.Box, bool) {
	c.mu.RLock()
	e, ok := c.entries[id]
	if !ok {
		c.mu.RUnlock()
		return geometry.Box{}, false
	}
	el := e.element
	rect, measured := e.rect, e.measured
	c.mu.RUnlock()

	if el != nil {
		if vb, ok := el.Measure(); ok {
			rect = geometry.BoxToEnv(focus, scale, vb)
			c.Report(id, rect)
			return rect, true
		}
	}
	return rect, measured
}

// Peek returns the cached rectangle without measuring.
func (c *Cache) Peek(id string) (geometry.Box, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok || !e.measured {
		return geometry.Box{}, false
	}
	return e.rect, true
}

// Len returns the number of tracked blocks.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
