// Package clock is the single source of "now" for a replay session.
package clock

import (
	"errors"
	"fmt"
	"math"

	"github.com/carnagereport/theater/pkg/core"
)

// AllowedSpeeds are the base playback multipliers a user may select, in
// ascending order.
var AllowedSpeeds = []float64{0.25, 0.5, 1, 2, 4, 8}

// ErrInvalidSpeed is returned when a base speed outside AllowedSpeeds is
// requested.
var ErrInvalidSpeed = errors.New("invalid playback speed")

// Clock tracks the playback position of a replay. It loops: advancing past
// the end jumps back to the start.
//
// Clock is not safe for concurrent use.
type Clock struct {
	current  float64
	start    int64
	duration int64

	playing   bool
	base      float64
	transient float64

	scrubbing  bool
	wasPlaying bool
}

// New creates a paused clock at startMs covering durationMs.
func New(startMs, durationMs int64) *Clock {
	if durationMs < 0 {
		durationMs = 0
	}
	return &Clock{
		current:   float64(startMs),
		start:     startMs,
		duration:  durationMs,
		base:      1,
		transient: 1,
	}
}

func (c *Clock) end() float64 {
	return float64(c.start + c.duration)
}

func (c *Clock) Play()  { c.playing = true }
func (c *Clock) Pause() { c.playing = false }

func (c *Clock) Toggle() {
	c.playing = !c.playing
}

func (c *Clock) Playing() bool      { return c.playing }
func (c *Clock) Current() float64   { return c.current }
func (c *Clock) Start() int64       { return c.start }
func (c *Clock) Duration() int64    { return c.duration }
func (c *Clock) BaseSpeed() float64 { return c.base }

// EffectiveSpeed is the base multiplier combined with any transient boost.
func (c *Clock) EffectiveSpeed() float64 {
	return c.base * c.transient
}

// Seek moves to an absolute time, clamped into the replay bounds.
func (c *Clock) Seek(timeMs float64) {
	if math.IsNaN(timeMs) {
		return
	}
	c.current = math.Max(float64(c.start), math.Min(c.end(), timeMs))
}

// Skip moves relative to the current time, clamped into the replay bounds.
func (c *Clock) Skip(deltaSeconds float64) {
	c.Seek(c.current + deltaSeconds*1000)
}

// SetBaseSpeed selects one of AllowedSpeeds. Any other value is rejected
// and leaves the clock unchanged.
func (c *Clock) SetBaseSpeed(multiplier float64) error {
	if speedIndex(multiplier) < 0 {
		return fmt.Errorf("%w: %v (allowed %v)", ErrInvalidSpeed, multiplier, AllowedSpeeds)
	}
	c.base = multiplier
	return nil
}

// StepSpeed moves the base speed to the neighbouring allowed value in the
// given direction, stopping at either end. It returns the new base speed.
func (c *Clock) StepSpeed(direction int) float64 {
	i := speedIndex(c.base)
	if i < 0 {
		i = speedIndex(1)
	}
	switch {
	case direction > 0 && i < len(AllowedSpeeds)-1:
		i++
	case direction < 0 && i > 0:
		i--
	}
	c.base = AllowedSpeeds[i]
	return c.base
}

// IsAllowedSpeed reports whether m is one of AllowedSpeeds.
func IsAllowedSpeed(m float64) bool {
	return speedIndex(m) >= 0
}

func speedIndex(m float64) int {
	for i, s := range AllowedSpeeds {
		if s == m {
			return i
		}
	}
	return -1
}

// SetTransientSpeed sets the held-input boost. Values below 1 (including a
// released trigger) reset it to 1.
func (c *Clock) SetTransientSpeed(multiplier float64) {
	if math.IsNaN(multiplier) || multiplier < 1 {
		multiplier = 1
	}
	c.transient = multiplier
}

// TransientSpeed returns the held-input boost, 1 when none is active.
func (c *Clock) TransientSpeed() float64 {
	return c.transient
}

// Tick advances playback by a real-time delta. Time moves while playing or
// while a transient boost is held, never during a scrub. It reports whether the clock wrapped
// around to the start.
func (c *Clock) Tick(realDeltaSeconds float64) (wrapped bool) {
	if realDeltaSeconds <= 0 || math.IsNaN(realDeltaSeconds) {
		return false
	}
	if c.scrubbing || (!c.playing && c.transient <= 1) {
		return false
	}
	if c.duration == 0 {
		return false
	}

	c.current += realDeltaSeconds * 1000 * c.EffectiveSpeed()
	if c.current >= c.end() {
		c.current = float64(c.start)
		return true
	}
	return false
}

// BeginScrub starts a timeline drag. Playback pauses and is resumed by
// EndScrub only if it was running when the drag began.
func (c *Clock) BeginScrub() {
	if c.scrubbing {
		return
	}
	c.scrubbing = true
	c.wasPlaying = c.playing
	c.playing = false
}

// ScrubTo seeks while a drag is in progress.
func (c *Clock) ScrubTo(timeMs float64) {
	c.Seek(timeMs)
}

// EndScrub commits a timeline drag.
func (c *Clock) EndScrub() {
	if !c.scrubbing {
		return
	}
	c.scrubbing = false
	if c.wasPlaying {
		c.playing = true
	}
	c.wasPlaying = false
}

func (c *Clock) Scrubbing() bool {
	return c.scrubbing
}

// Status snapshots the clock for a scrub bar.
func (c *Clock) Status() core.ClockStatus {
	return core.ClockStatus{
		CurrentTimeMs:  c.current,
		StartTimeMs:    c.start,
		DurationMs:     c.duration,
		Playing:        c.playing,
		BaseSpeed:      c.base,
		EffectiveSpeed: c.EffectiveSpeed(),
	}
}
