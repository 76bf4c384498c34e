// internal/storage/memory/synthetic.go
package memory

import (
	"fmt"
	"math"
	"time"

	"github.com/carnagereport/theater/internal/storage"
	"github.com/carnagereport/theater/internal/telemetry"
	"github.com/carnagereport/theater/pkg/core"
)

// SyntheticID is the replay id the demo feed is registered under.
const SyntheticID = "demo"

// SyntheticInterval is the spacing of generated samples.
const SyntheticInterval = 100 * time.Millisecond

// Synthetic generates a feed of n subjects running laps around the origin.
// Teams alternate red and blue, every fifth subject is free-for-all, and every
// third subject is dead for the middle fifth of the match.
func Synthetic(n int, duration time.Duration) telemetry.Feed {
	step := SyntheticInterval.Milliseconds()
	end := duration.Milliseconds()

	var samples []core.Sample
	for t := int64(0); t <= end; t += step {
		for i := 0; i < n; i++ {
			samples = append(samples, syntheticSample(i, t, end))
		}
	}
	return storage.FeedFromSamples(samples)
}

func syntheticSample(i int, t, end int64) core.Sample {
	s := core.Sample{
		SubjectID: fmt.Sprintf("player%02d", i+1),
		TimeMs:    t,
		Team:      syntheticTeam(i),
	}

	if i%3 == 2 && end > 0 && t > end*2/5 && t < end*3/5 {
		return s
	}

	radius := 20 + 8*float64(i)
	// one lap per 30s, alternating direction
	omega := 2 * math.Pi / 30000
	if i%2 == 1 {
		omega = -omega
	}
	phase := float64(i) * 2 * math.Pi / 7
	a := phase + omega*float64(t)

	s.Position = core.Position3D{
		X: radius * math.Cos(a),
		Y: radius * math.Sin(a),
		Z: 1.5 + math.Sin(a*3),
	}
	// facing along the direction of travel
	s.FacingYaw = math.Atan2(math.Cos(a)*omega, -math.Sin(a)*omega)
	s.FacingPitch = 0.1 * math.Sin(a*2)
	s.Crouching = (t/5000)%4 == int64(i%4)
	s.Airborne = s.Position.Z > 2.3
	s.Weapon = []string{"rifle", "smg", "sniper", "shotgun"}[i%4]
	return s
}

func syntheticTeam(i int) core.Team {
	switch {
	case i%5 == 4:
		return core.TeamNone
	case i%2 == 0:
		return core.TeamRed
	default:
		return core.TeamBlue
	}
}
