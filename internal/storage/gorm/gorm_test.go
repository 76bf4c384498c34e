package gormstorage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/carnagereport/theater/internal/database"
	"github.com/carnagereport/theater/internal/storage"
	"github.com/carnagereport/theater/internal/telemetry"
	"github.com/carnagereport/theater/pkg/core"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	m := database.NewManager(zerolog.Nop())
	require.NoError(t, m.ConnectSqlite(filepath.Join(t.TempDir(), "replays.db")))
	t.Cleanup(func() { m.Close() })
	require.NoError(t, m.Migrate())

	require.NoError(t, m.DB.Create(&database.Replay{
		ID:       "match-1",
		Name:     "Final",
		Metadata: datatypes.JSON(`{"map":"dust"}`),
	}).Error)

	// inserted out of time order on purpose
	rows := []database.TelemetrySample{
		{ReplayID: "match-1", PlayerName: "Alice", GameTimeMs: 1000, X: 10, Team: "Red"},
		{ReplayID: "match-1", PlayerName: "Alice", GameTimeMs: 0, X: 0, Team: "Red", FacingYaw: 1.5},
		{ReplayID: "match-1", PlayerName: "Bob", GameTimeMs: 0, Y: 5, Team: "Blue", Crouching: true, Weapon: "smg"},
		{ReplayID: "match-2", PlayerName: "Carol", GameTimeMs: 0},
	}
	require.NoError(t, m.DB.Create(&rows).Error)

	return New(Dependencies{DB: m.DB, Logger: zerolog.Nop()})
}

func TestLoadFeed(t *testing.T) {
	b := newTestBackend(t)

	feed, err := b.LoadFeed(context.Background(), "match-1")
	require.NoError(t, err)
	require.Len(t, feed.Rows, 3)

	store, err := telemetry.Load(feed)
	require.NoError(t, err)

	alice := store.SamplesFor("Alice")
	require.Len(t, alice, 2)
	assert.Equal(t, int64(0), alice[0].TimeMs)
	assert.Equal(t, 1.5, alice[0].FacingYaw)
	assert.Equal(t, int64(1000), alice[1].TimeMs)

	bob := store.SamplesFor("Bob")
	require.Len(t, bob, 1)
	assert.True(t, bob[0].Crouching)
	assert.Equal(t, "smg", bob[0].Weapon)
	assert.Equal(t, core.TeamBlue, store.Team("Bob"))
}

func TestLoadFeed_NotFound(t *testing.T) {
	b := newTestBackend(t)

	_, err := b.LoadFeed(context.Background(), "nope")
	assert.ErrorIs(t, err, storage.ErrReplayNotFound)
}

func TestListReplays(t *testing.T) {
	b := newTestBackend(t)

	ids, err := b.ListReplays(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"match-1", "match-2"}, ids)
}

func TestReplay(t *testing.T) {
	b := newTestBackend(t)

	r, err := b.Replay(context.Background(), "match-1")
	require.NoError(t, err)
	assert.Equal(t, "Final", r.Name)
	assert.JSONEq(t, `{"map":"dust"}`, string(r.Metadata))

	_, err = b.Replay(context.Background(), "match-2")
	assert.ErrorIs(t, err, storage.ErrReplayNotFound)
}

func TestImport_ReplacesExistingReplay(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	samples := []core.Sample{
		{SubjectID: "Dave", TimeMs: 0, Team: core.TeamRed, Position: core.Position3D{X: 1, Y: 2, Z: 3}},
		{SubjectID: "Dave", TimeMs: 100, Team: core.TeamRed, Position: core.Position3D{X: 2, Y: 2, Z: 3}, Airborne: true},
		{SubjectID: "Erin", TimeMs: 0, Weapon: "rifle"},
	}
	require.NoError(t, b.Import(ctx, "match-1", "Rematch", samples))

	feed, err := b.LoadFeed(ctx, "match-1")
	require.NoError(t, err)
	store, err := telemetry.Load(feed)
	require.NoError(t, err)
	assert.Equal(t, []string{"Dave", "Erin"}, store.Subjects())
	assert.Empty(t, store.SamplesFor("Alice"))
	assert.True(t, store.SamplesFor("Dave")[1].Airborne)
	assert.Equal(t, "rifle", store.SamplesFor("Erin")[0].Weapon)

	r, err := b.Replay(ctx, "match-1")
	require.NoError(t, err)
	assert.Equal(t, "Rematch", r.Name)
	assert.JSONEq(t, `{"subjects":2,"samples":3}`, string(r.Metadata))

	// other replays are untouched
	other, err := b.LoadFeed(ctx, "match-2")
	require.NoError(t, err)
	assert.Len(t, other.Rows, 1)
}

func TestImport_NewReplay(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Import(ctx, "match-3", "", []core.Sample{{SubjectID: "Zed", TimeMs: 5}}))

	ids, err := b.ListReplays(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"match-1", "match-2", "match-3"}, ids)

	assert.Error(t, b.Import(ctx, "", "", nil))
}
