package interp

import (
	"math"

	"github.com/carnagereport/theater/pkg/core"
)

// SentinelEpsilon is how close to the origin a position must be to read as
// the "dead / respawning" sentinel.
const SentinelEpsilon = 0.1

// LivenessFunc decides whether a pose carries a real live position.
type LivenessFunc func(core.Pose) bool

// IsLivePosition reports whether p is a real position rather than the
// all-zero sentinel the recorder writes for dead or respawning players.
//
// A subject genuinely standing at the world origin is indistinguishable from
// a dead one; that ambiguity is part of the feed encoding.
func IsLivePosition(p core.Position3D) bool {
	return !(math.Abs(p.X) <= SentinelEpsilon &&
		math.Abs(p.Y) <= SentinelEpsilon &&
		math.Abs(p.Z) <= SentinelEpsilon)
}

// SentinelLiveness is the default LivenessFunc.
func SentinelLiveness(p core.Pose) bool {
	return IsLivePosition(p.Position)
}
