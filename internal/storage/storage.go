// internal/storage/storage.go
package storage

import (
	"context"
	"errors"
	"strconv"

	"github.com/carnagereport/theater/internal/telemetry"
	"github.com/carnagereport/theater/pkg/core"
)

// ErrReplayNotFound is returned by LoadFeed when the source has no replay
// with the requested id.
var ErrReplayNotFound = errors.New("replay not found")

// Source is the interface all telemetry sources must satisfy
type Source interface {
	// Lifecycle
	Open(ctx context.Context) error
	Close() error

	// LoadFeed returns the raw telemetry table of one replay. The feed is
	// parsed and validated by telemetry.Load.
	LoadFeed(ctx context.Context, replayID string) (telemetry.Feed, error)
}

// Lister is an optional interface for sources that can enumerate replays.
type Lister interface {
	ListReplays(ctx context.Context) ([]string, error)
}

// Importer is an optional interface for sources that can store a replay.
// Importing an id that already exists replaces its samples.
type Importer interface {
	Import(ctx context.Context, replayID, name string, samples []core.Sample) error
}

// Header is the column layout used by sources that build feeds from typed
// records rather than text tables.
var Header = []string{
	"PlayerName",
	"GameTimeMs",
	"X",
	"Y",
	"Z",
	"Team",
	"FacingYaw",
	"FacingPitch",
	"IsCrouching",
	"IsAirborne",
	"CurrentWeapon",
}

// Row renders a sample as a feed row matching Header.
func Row(s core.Sample) []string {
	return []string{
		s.SubjectID,
		strconv.FormatInt(s.TimeMs, 10),
		formatFloat(s.Position.X),
		formatFloat(s.Position.Y),
		formatFloat(s.Position.Z),
		string(s.Team),
		formatFloat(s.FacingYaw),
		formatFloat(s.FacingPitch),
		strconv.FormatBool(s.Crouching),
		strconv.FormatBool(s.Airborne),
		s.Weapon,
	}
}

// FeedFromSamples builds a feed from typed samples.
func FeedFromSamples(samples []core.Sample) telemetry.Feed {
	rows := make([][]string, 0, len(samples))
	for _, s := range samples {
		rows = append(rows, Row(s))
	}
	return telemetry.Feed{Header: append([]string(nil), Header...), Rows: rows}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
