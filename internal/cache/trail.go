package cache

import "github.com/go-gl/mathgl/mgl64"

// TrailCache keeps the most recent render positions of every subject.
type TrailCache struct {
	limit  int
	trails map[string][]mgl64.Vec3
}

// NewTrailCache creates a TrailCache keeping up to limit points per subject.
// A limit of zero or less disables trails.
func NewTrailCache(limit int) *TrailCache {
	return &TrailCache{
		limit:  limit,
		trails: make(map[string][]mgl64.Vec3),
	}
}

// Push appends a point to a subject's trail, evicting the oldest point once
// the limit is reached. Repeating the last point is a no-op.
func (c *TrailCache) Push(id string, p mgl64.Vec3) {
	if c.limit <= 0 {
		return
	}
	t := c.trails[id]
	if n := len(t); n > 0 && t[n-1].ApproxEqual(p) {
		return
	}
	if len(t) >= c.limit {
		copy(t, t[1:])
		t = t[:len(t)-1]
	}
	c.trails[id] = append(t, p)
}

// Get returns a copy of a subject's trail, oldest point first.
func (c *TrailCache) Get(id string) []mgl64.Vec3 {
	t := c.trails[id]
	if len(t) == 0 {
		return nil
	}
	out := make([]mgl64.Vec3, len(t))
	copy(out, t)
	return out
}

// Clear drops a single subject's trail.
func (c *TrailCache) Clear(id string) {
	delete(c.trails, id)
}

// Reset drops every trail.
func (c *TrailCache) Reset() {
	c.trails = make(map[string][]mgl64.Vec3)
}
