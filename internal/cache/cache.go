package cache

import (
	"github.com/carnagereport/theater/pkg/core"
)

var (
	ColorRed  = core.Color{R: 0xE0, G: 0x3C, B: 0x31}
	ColorBlue = core.Color{R: 0x2F, G: 0x6F, B: 0xDE}

	// FFAPalette is handed out in first-appearance order to subjects
	// without a team. It wraps around once exhausted.
	FFAPalette = []core.Color{
		{R: 0xF5, G: 0xC2, B: 0x42},
		{R: 0x3C, G: 0xB4, B: 0x4B},
		{R: 0x91, G: 0x1E, B: 0xB4},
		{R: 0x46, G: 0xF0, B: 0xF0},
		{R: 0xF0, G: 0x32, B: 0xE6},
		{R: 0xF5, G: 0x82, B: 0x31},
		{R: 0xBC, G: 0xF6, B: 0x0C},
		{R: 0xFA, G: 0xBE, B: 0xBE},
	}
)

// Resolved is a subject's presentation state after the dead sentinel has
// been applied.
type Resolved struct {
	Position    core.Position3D
	HasPosition bool
	Dead        bool
}

type subjectEntry struct {
	subject   core.Subject
	lastValid core.Position3D
	hasValid  bool
}

// SubjectCache holds the derived identity of every subject of a replay and
// its last known live position, so a dead subject stays frozen where it
// died instead of jumping to the origin.
//
// It is owned by one session and mutated only from its tick.
type SubjectCache struct {
	order   []string
	entries map[string]*subjectEntry
	ffa     int
}

func NewSubjectCache() *SubjectCache {
	return &SubjectCache{
		entries: make(map[string]*subjectEntry),
	}
}

// Reset drops every subject, e.g. when a new replay is loaded.
func (c *SubjectCache) Reset() {
	c.order = nil
	c.entries = make(map[string]*subjectEntry)
	c.ffa = 0
}

// Register adds a subject and assigns its colour. Registering a known id
// returns the existing subject unchanged.
func (c *SubjectCache) Register(id string, team core.Team) core.Subject {
	if e, ok := c.entries[id]; ok {
		return e.subject
	}

	s := core.Subject{ID: id, Team: team}
	switch team {
	case core.TeamRed:
		s.Color = ColorRed
	case core.TeamBlue:
		s.Color = ColorBlue
	default:
		s.Color = FFAPalette[c.ffa%len(FFAPalette)]
		c.ffa++
	}

	c.entries[id] = &subjectEntry{subject: s}
	c.order = append(c.order, id)
	return s
}

// Get returns a registered subject.
func (c *SubjectCache) Get(id string) (core.Subject, bool) {
	if e, ok := c.entries[id]; ok {
		return e.subject, true
	}
	return core.Subject{}, false
}

// Subjects returns all registered subjects in registration order.
func (c *SubjectCache) Subjects() []core.Subject {
	out := make([]core.Subject, len(c.order))
	for i, id := range c.order {
		out[i] = c.entries[id].subject
	}
	return out
}

func (c *SubjectCache) Len() int {
	return len(c.order)
}

// Resolve applies one tick's pose to the cache. A live pose is remembered
// and returned as is; a non-live pose yields the last live position, or no
// position at all when the subject has never been seen alive.
func (c *SubjectCache) Resolve(id string, pose core.Pose, live bool) Resolved {
	e, ok := c.entries[id]
	if !ok {
		c.Register(id, core.TeamNone)
		e = c.entries[id]
	}

	if live {
		e.lastValid = pose.Position
		e.hasValid = true
		return Resolved{Position: pose.Position, HasPosition: true}
	}
	return Resolved{Position: e.lastValid, HasPosition: e.hasValid, Dead: true}
}

// Seed overwrites the last live position of a subject. The session uses it
// after a seek, when the cached value may belong to a different point of
// the timeline.
func (c *SubjectCache) Seed(id string, pos core.Position3D, ok bool) {
	if e, found := c.entries[id]; found {
		e.lastValid = pos
		e.hasValid = ok
	}
}

// LastValid returns the last live position seen for a subject.
func (c *SubjectCache) LastValid(id string) (core.Position3D, bool) {
	if e, ok := c.entries[id]; ok && e.hasValid {
		return e.lastValid, true
	}
	return core.Position3D{}, false
}
