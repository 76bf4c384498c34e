// Package interp turns a sparse per-subject sample sequence into a pose at
// any query time.
package interp

import (
	"sort"

	"github.com/carnagereport/theater/pkg/core"
)

// SampleSource is the read side of a telemetry store.
type SampleSource interface {
	SamplesFor(subjectID string) []core.Sample
	Subjects() []string
}

// Option configures an Interpolator.
type Option func(*Interpolator)

// WithLiveness replaces the origin-sentinel liveness check, e.g. with one
// reading an explicit flag from a newer feed.
func WithLiveness(fn LivenessFunc) Option {
	return func(ip *Interpolator) {
		if fn != nil {
			ip.live = fn
		}
	}
}

// Interpolator resolves poses from a SampleSource.
type Interpolator struct {
	src  SampleSource
	live LivenessFunc
}

// New creates an Interpolator over src.
func New(src SampleSource, opts ...Option) *Interpolator {
	ip := &Interpolator{src: src, live: SentinelLiveness}
	for _, opt := range opts {
		opt(ip)
	}
	return ip
}

// PoseAt returns the pose of a subject at timeMs. ok is false only when the
// subject has no samples at all.
//
// Before the first sample the first sample is returned unchanged, after the
// last sample the last one. In between, position and pitch are blended
// linearly, yaw along the shorter arc, and discrete fields come from the
// earlier sample.
func (ip *Interpolator) PoseAt(subjectID string, timeMs float64) (pose core.Pose, ok bool) {
	samples := ip.src.SamplesFor(subjectID)
	if len(samples) == 0 {
		return core.Pose{}, false
	}

	before, after := bracket(samples, timeMs)

	switch {
	case before < 0:
		return core.PoseFromSample(samples[0]), true
	case after >= len(samples):
		return core.PoseFromSample(samples[before]), true
	}

	b, a := samples[before], samples[after]

	t := clamp01((timeMs - float64(b.TimeMs)) / float64(a.TimeMs-b.TimeMs))

	pose = core.PoseFromSample(b)
	pose.TimeMs = timeMs
	pose.Position = core.Position3D{
		X: Lerp(b.Position.X, a.Position.X, t),
		Y: Lerp(b.Position.Y, a.Position.Y, t),
		Z: Lerp(b.Position.Z, a.Position.Z, t),
	}
	pose.FacingYaw = LerpAngle(b.FacingYaw, a.FacingYaw, t)
	pose.FacingPitch = Lerp(b.FacingPitch, a.FacingPitch, t)
	return pose, true
}

// bracket returns the index of the first sample of the last run at or before
// timeMs (-1 if none) and the index of the first sample after it (len if
// none).
func bracket(samples []core.Sample, timeMs float64) (before, after int) {
	after = sort.Search(len(samples), func(i int) bool {
		return float64(samples[i].TimeMs) > timeMs
	})
	before = after - 1
	if before >= 0 {
		before = firstOfRun(samples, before)
	}
	return before, after
}

// firstOfRun walks back over samples sharing a timestamp so the first one
// recorded at that instant wins.
func firstOfRun(samples []core.Sample, i int) int {
	for i > 0 && samples[i-1].TimeMs == samples[i].TimeMs {
		i--
	}
	return i
}

// IsLive applies the configured liveness check.
func (ip *Interpolator) IsLive(p core.Pose) bool {
	return ip.live(p)
}

// SubjectPose pairs a subject id with its pose at some instant.
type SubjectPose struct {
	SubjectID string
	Pose      core.Pose
	OK        bool
}

// PoseAll resolves every subject at timeMs in first-appearance order.
func (ip *Interpolator) PoseAll(timeMs float64) []SubjectPose {
	ids := ip.src.Subjects()
	out := make([]SubjectPose, len(ids))
	for i, id := range ids {
		p, ok := ip.PoseAt(id, timeMs)
		out[i] = SubjectPose{SubjectID: id, Pose: p, OK: ok}
	}
	return out
}

// LastLiveAt returns the most recent recorded sample at or before timeMs
// whose pose passes the liveness check.
func (ip *Interpolator) LastLiveAt(subjectID string, timeMs float64) (core.Pose, bool) {
	samples := ip.src.SamplesFor(subjectID)
	_, i := bracket(samples, timeMs)
	for i--; i >= 0; i-- {
		p := core.PoseFromSample(samples[i])
		if ip.live(p) {
			return p, true
		}
	}
	return core.Pose{}, false
}

// ResolveAt is PoseAt for presentation. It never blends a live sample with
// a sentinel one: between a live sample and a sentinel the earlier pose is
// held, and between a sentinel and the next live sample the subject stays
// dead. live reports the liveness of the returned pose.
func (ip *Interpolator) ResolveAt(subjectID string, timeMs float64) (pose core.Pose, live, ok bool) {
	pose, ok = ip.PoseAt(subjectID, timeMs)
	if !ok {
		return pose, false, false
	}
	samples := ip.src.SamplesFor(subjectID)
	before, after := bracket(samples, timeMs)
	if before < 0 || after >= len(samples) {
		return pose, ip.live(pose), true
	}

	b := core.PoseFromSample(samples[before])
	bLive := ip.live(b)
	aLive := ip.live(core.PoseFromSample(samples[after]))
	switch {
	case bLive && aLive:
		return pose, true, true
	case bLive:
		b.TimeMs = timeMs
		return b, true, true
	default:
		b.TimeMs = timeMs
		return b, false, true
	}
}
