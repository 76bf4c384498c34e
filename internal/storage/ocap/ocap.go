// Package ocap reads OCAP2 v1 recordings (JSON, optionally gzipped) as
// replay telemetry. Each unit becomes a subject; vehicles are skipped.
package ocap

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/carnagereport/theater/internal/interp"
	"github.com/carnagereport/theater/internal/storage"
	"github.com/carnagereport/theater/internal/telemetry"
	"github.com/carnagereport/theater/pkg/core"
)

// DefaultCaptureDelay is used when a recording does not carry one, in seconds.
const DefaultCaptureDelay = 1.0

var extensions = []string{".json.gz", ".json"}

// Source loads feeds from <dir>/<replayID>.json or .json.gz.
type Source struct {
	dir    string
	logger zerolog.Logger
}

var (
	_ storage.Source = (*Source)(nil)
	_ storage.Lister = (*Source)(nil)
)

// New creates an OCAP recording source rooted at dir.
func New(dir string, logger zerolog.Logger) *Source {
	return &Source{dir: dir, logger: logger}
}

// Open checks that the directory exists.
func (s *Source) Open(ctx context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("ocap source: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("ocap source: %s is not a directory", s.dir)
	}
	return nil
}

// Close is a no-op.
func (s *Source) Close() error { return nil }

// LoadFeed decodes the recording and converts its units into telemetry rows.
func (s *Source) LoadFeed(ctx context.Context, replayID string) (telemetry.Feed, error) {
	if replayID == "" || filepath.Base(replayID) != replayID || replayID == "." || replayID == ".." {
		return telemetry.Feed{}, fmt.Errorf("%w: invalid replay id %q", storage.ErrReplayNotFound, replayID)
	}

	path := ""
	for _, name := range s.candidates(replayID) {
		p := filepath.Join(s.dir, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			path = p
			break
		}
	}
	if path == "" {
		return telemetry.Feed{}, fmt.Errorf("%w: %s in %s", storage.ErrReplayNotFound, replayID, s.dir)
	}

	f, err := os.Open(path)
	if err != nil {
		return telemetry.Feed{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return telemetry.Feed{}, fmt.Errorf("opening gzip %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	export, err := ReadExport(r)
	if err != nil {
		return telemetry.Feed{}, fmt.Errorf("reading %s: %w", path, err)
	}

	feed, err := FeedFromExport(export)
	if err != nil {
		return telemetry.Feed{}, fmt.Errorf("converting %s: %w", path, err)
	}

	s.logger.Info().
		Str("path", path).
		Str("mission", export.MissionName).
		Str("world", export.WorldName).
		Int("rows", len(feed.Rows)).
		Msg("Loaded OCAP recording")
	return feed, nil
}

func (s *Source) candidates(replayID string) []string {
	lower := strings.ToLower(replayID)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, ext) {
			return []string{replayID}
		}
	}
	out := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		out = append(out, replayID+ext)
	}
	return out
}

// ListReplays returns recording ids, without extension, sorted.
func (s *Source) ListReplays(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		lower := strings.ToLower(e.Name())
		for _, ext := range extensions {
			if strings.HasSuffix(lower, ext) {
				ids = append(ids, e.Name()[:len(e.Name())-len(ext)])
				break
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// ReadExport decodes a v1 recording.
func ReadExport(r io.Reader) (Export, error) {
	var export Export
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return Export{}, fmt.Errorf("decoding ocap export: %w", err)
	}
	return export, nil
}

// FeedFromExport converts every unit's positions into samples. Dead frames
// are written at the origin so the liveness predicate hides them. Units that
// share a name are told apart by their entity id.
func FeedFromExport(export Export) (telemetry.Feed, error) {
	delay := export.CaptureDelay
	if delay <= 0 {
		delay = DefaultCaptureDelay
	}

	names := make(map[string]int)
	for _, e := range export.Entities {
		if e.Type == "unit" {
			names[e.Name]++
		}
	}

	var samples []core.Sample
	for _, e := range export.Entities {
		if e.Type != "unit" || len(e.Positions) == 0 {
			continue
		}

		id := e.Name
		if id == "" || names[e.Name] > 1 {
			id = fmt.Sprintf("%s#%d", e.Name, e.ID)
		}
		team := core.ParseTeam(e.Side)

		for i, pos := range e.Positions {
			frame := e.StartFrameNum + i
			sample, err := unitSample(pos)
			if err != nil {
				return telemetry.Feed{}, fmt.Errorf("entity %d frame %d: %w", e.ID, frame, err)
			}
			sample.SubjectID = id
			sample.Team = team
			sample.TimeMs = int64(math.Round(float64(frame) * delay * 1000))
			samples = append(samples, sample)
		}
	}

	return storage.FeedFromSamples(samples), nil
}

func unitSample(pos []any) (core.Sample, error) {
	var s core.Sample
	if len(pos) <= posLifestate {
		return s, fmt.Errorf("position has %d fields", len(pos))
	}

	coords, ok := pos[posCoords].([]any)
	if !ok || len(coords) < 2 {
		return s, fmt.Errorf("bad coordinates %v", pos[posCoords])
	}
	xyz := [3]float64{}
	for i := 0; i < len(coords) && i < 3; i++ {
		v, err := number(coords[i])
		if err != nil {
			return s, fmt.Errorf("coordinate %d: %w", i, err)
		}
		xyz[i] = v
	}

	bearing, err := number(pos[posBearing])
	if err != nil {
		return s, fmt.Errorf("bearing: %w", err)
	}
	lifestate, err := number(pos[posLifestate])
	if err != nil {
		return s, fmt.Errorf("lifestate: %w", err)
	}

	if int(lifestate) == LifestateDead {
		return s, nil
	}

	s.Position = core.Position3D{X: xyz[0], Y: xyz[1], Z: xyz[2]}
	s.FacingYaw = BearingToYaw(bearing)
	return s, nil
}

// BearingToYaw converts a compass bearing in degrees (0 north, clockwise)
// into a telemetry yaw in radians (0 along +X, counter-clockwise).
func BearingToYaw(bearing float64) float64 {
	return interp.NormalizeAngle((90 - bearing) * math.Pi / 180)
}

func number(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(n, 64)
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("not a number: %v", v)
	}
}
