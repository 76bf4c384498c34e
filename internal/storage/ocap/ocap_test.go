package ocap

import (
	"compress/gzip"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carnagereport/theater/internal/storage"
	"github.com/carnagereport/theater/internal/telemetry"
	"github.com/carnagereport/theater/pkg/core"
)

const recording = `{
  "missionName": "Op Test",
  "worldName": "Altis",
  "endFrame": 3,
  "captureDelay": 0.5,
  "entities": [
    {},
    {
      "id": 1, "name": "Alpha", "side": "WEST", "isPlayer": 1, "type": "unit",
      "startFrameNum": 1,
      "positions": [
        [[100, 200, 5], 90, 1, 0, "Alpha", 1, "Rifleman"],
        [[110, 200, 5], 0, 1, 0, "Alpha", 1, "Rifleman"],
        [[110, 200, 5], 0, 2, 0, "Alpha", 1, "Rifleman"]
      ]
    },
    {
      "id": 2, "name": "Bravo", "side": "EAST", "isPlayer": 1, "type": "unit",
      "startFrameNum": 0,
      "positions": [
        [[50, 60], 180, 1, 0, "Bravo", 1, ""]
      ]
    },
    {
      "id": 3, "name": "Truck", "side": "UNKNOWN", "type": "vehicle",
      "startFrameNum": 0,
      "positions": [[[0, 0, 0], 0, 1, []]]
    }
  ]
}`

func TestFeedFromExport(t *testing.T) {
	export, err := ReadExport(strings.NewReader(recording))
	require.NoError(t, err)
	assert.Equal(t, "Altis", export.WorldName)

	feed, err := FeedFromExport(export)
	require.NoError(t, err)

	store, err := telemetry.Load(feed)
	require.NoError(t, err)

	assert.Equal(t, []string{"Alpha", "Bravo"}, store.Subjects())
	assert.Equal(t, core.TeamBlue, store.Team("Alpha"))
	assert.Equal(t, core.TeamRed, store.Team("Bravo"))

	alpha := store.SamplesFor("Alpha")
	require.Len(t, alpha, 3)
	assert.Equal(t, []int64{500, 1000, 1500}, []int64{alpha[0].TimeMs, alpha[1].TimeMs, alpha[2].TimeMs})
	assert.Equal(t, core.Position3D{X: 100, Y: 200, Z: 5}, alpha[0].Position)
	assert.InDelta(t, 0, alpha[0].FacingYaw, 1e-9)
	assert.InDelta(t, math.Pi/2, alpha[1].FacingYaw, 1e-9)

	// dead frame sits on the origin sentinel
	assert.Equal(t, core.Position3D{}, alpha[2].Position)

	bravo := store.SamplesFor("Bravo")
	require.Len(t, bravo, 1)
	assert.Equal(t, int64(0), bravo[0].TimeMs)
	assert.Equal(t, core.Position3D{X: 50, Y: 60}, bravo[0].Position)
	assert.InDelta(t, -math.Pi/2, bravo[0].FacingYaw, 1e-9)
}

func TestFeedFromExport_DuplicateNames(t *testing.T) {
	export := Export{
		CaptureDelay: 1,
		Entities: []Entity{
			{ID: 4, Name: "Rifleman", Type: "unit", Positions: [][]any{{[]any{1.0, 1.0}, 0.0, 1.0}}},
			{ID: 7, Name: "Rifleman", Type: "unit", Positions: [][]any{{[]any{2.0, 2.0}, 0.0, 1.0}}},
		},
	}
	feed, err := FeedFromExport(export)
	require.NoError(t, err)

	store, err := telemetry.Load(feed)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rifleman#4", "Rifleman#7"}, store.Subjects())
}

func TestFeedFromExport_BadPosition(t *testing.T) {
	export := Export{
		Entities: []Entity{
			{ID: 1, Name: "A", Type: "unit", Positions: [][]any{{"nope", 0.0, 1.0}}},
		},
	}
	_, err := FeedFromExport(export)
	assert.Error(t, err)
}

func TestBearingToYaw(t *testing.T) {
	assert.InDelta(t, math.Pi/2, BearingToYaw(0), 1e-9)
	assert.InDelta(t, 0, BearingToYaw(90), 1e-9)
	assert.InDelta(t, -math.Pi/2, BearingToYaw(180), 1e-9)
	assert.InDelta(t, math.Pi, BearingToYaw(270), 1e-9)
	assert.InDelta(t, math.Pi/4, BearingToYaw(45), 1e-9)
}

func TestSource_LoadFeed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "op_test.json"), []byte(recording), 0o644))

	f, err := os.Create(filepath.Join(dir, "op_test_2.json.gz"))
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(recording))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	s := New(dir, zerolog.Nop())
	ctx := context.Background()
	require.NoError(t, s.Open(ctx))
	defer s.Close()

	for _, id := range []string{"op_test", "op_test_2", "op_test_2.json.gz"} {
		feed, err := s.LoadFeed(ctx, id)
		require.NoError(t, err, id)
		assert.Len(t, feed.Rows, 4, id)
	}

	_, err = s.LoadFeed(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrReplayNotFound)

	ids, err := s.ListReplays(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"op_test", "op_test_2"}, ids)
}
