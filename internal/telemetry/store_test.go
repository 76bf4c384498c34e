package telemetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carnagereport/theater/pkg/core"
)

var fullHeader = []string{"PlayerName", "Team", "GameTimeMs", "X", "Y", "Z", "FacingYaw", "FacingPitch", "IsCrouching", "IsAirborne", "CurrentWeapon"}

func TestLoad_OrdersSubjectsByFirstAppearance(t *testing.T) {
	store, err := Load(Feed{
		Header: fullHeader,
		Rows: [][]string{
			{"Bob", "Blue", "1000", "1", "2", "3", "0.5", "0.1", "false", "false", "Battle Rifle"},
			{"Alice", "Red", "1000", "4", "5", "6", "0", "0", "true", "false", "SMG"},
			{"Bob", "Blue", "1500", "2", "2", "3", "0.6", "0.1", "0", "1", "Battle Rifle"},
			{"Alice", "Red", "2000", "5", "5", "6", "0", "0", "1", "0", "SMG"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"Bob", "Alice"}, store.Subjects())
	assert.Equal(t, []string{"Bob", "Alice"}, store.Subjects(), "order must be stable across calls")
	assert.Equal(t, 4, store.Len())
	assert.Equal(t, Bounds{MinTimeMs: 1000, MaxTimeMs: 2000}, store.Bounds())
	assert.Equal(t, int64(1000), store.Bounds().DurationMs())

	bob := store.SamplesFor("Bob")
	require.Len(t, bob, 2)
	assert.Equal(t, core.Sample{
		SubjectID:   "Bob",
		Team:        core.TeamBlue,
		TimeMs:      1500,
		Position:    core.Position3D{X: 2, Y: 2, Z: 3},
		FacingYaw:   0.6,
		FacingPitch: 0.1,
		Airborne:    true,
		Weapon:      "Battle Rifle",
	}, bob[1])
	assert.True(t, store.SamplesFor("Alice")[0].Crouching)
	assert.Equal(t, core.TeamRed, store.Team("Alice"))
}

func TestLoad_MinimalHeaderAndAliases(t *testing.T) {
	store, err := Load(Feed{
		Header: []string{"subjectid", "timems", "x", "y", "z"},
		Rows:   [][]string{{"A", "1000.0", "0", "0", "0"}},
	})
	require.NoError(t, err)
	require.True(t, store.Has("A"))
	assert.Equal(t, int64(1000), store.SamplesFor("A")[0].TimeMs)
	assert.Equal(t, core.TeamNone, store.Team("A"))
}

func TestLoad_MissingRequiredColumn(t *testing.T) {
	for _, missing := range []string{"PlayerName", "GameTimeMs", "X", "Y", "Z"} {
		t.Run(missing, func(t *testing.T) {
			var header []string
			for _, h := range []string{"PlayerName", "GameTimeMs", "X", "Y", "Z"} {
				if h != missing {
					header = append(header, h)
				}
			}

			store, err := Load(Feed{Header: header})
			require.Error(t, err)
			assert.Nil(t, store)
			assert.True(t, errors.Is(err, ErrFormat))

			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, missing, fe.Column)
			assert.Equal(t, 0, fe.Row)
		})
	}
}

func TestLoad_BadCellIsFatal(t *testing.T) {
	_, err := Load(Feed{
		Header: []string{"PlayerName", "GameTimeMs", "X", "Y", "Z"},
		Rows: [][]string{
			{"A", "1000", "0", "0", "0"},
			{"A", "2000", "north", "0", "0"},
		},
	})
	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "X", fe.Column)
	assert.Equal(t, 2, fe.Row)
	assert.Equal(t, "north", fe.Value)
}

func TestLoad_FractionalTimestampRejected(t *testing.T) {
	_, err := Load(Feed{
		Header: []string{"PlayerName", "GameTimeMs", "X", "Y", "Z"},
		Rows:   [][]string{{"A", "1000.5", "0", "0", "0"}},
	})
	assert.ErrorIs(t, err, ErrFormat)
}

func TestLoad_DecreasingTimestampRejected(t *testing.T) {
	_, err := Load(Feed{
		Header: []string{"PlayerName", "GameTimeMs", "X", "Y", "Z"},
		Rows: [][]string{
			{"A", "2000", "0", "0", "0"},
			{"B", "500", "0", "0", "0"},
			{"A", "1000", "0", "0", "0"},
		},
	})
	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 3, fe.Row)
}

func TestLoad_DuplicateTimestampsAllowed(t *testing.T) {
	store, err := Load(Feed{
		Header: []string{"PlayerName", "GameTimeMs", "X", "Y", "Z"},
		Rows: [][]string{
			{"A", "1000", "1", "0", "0"},
			{"A", "1000", "2", "0", "0"},
		},
	})
	require.NoError(t, err)
	assert.Len(t, store.SamplesFor("A"), 2)
}

func TestLoad_EmptyFeed(t *testing.T) {
	store, err := Load(Feed{Header: []string{"PlayerName", "GameTimeMs", "X", "Y", "Z"}})
	require.NoError(t, err)
	assert.Empty(t, store.Subjects())
	assert.Equal(t, Bounds{}, store.Bounds())
	assert.Nil(t, store.SamplesFor("nobody"))
	assert.False(t, store.Has("nobody"))
}

func TestParseBool(t *testing.T) {
	for in, want := range map[string]bool{"": false, "0": false, "FALSE": false, "no": false, "1": true, "True": true, "yes": true} {
		got, err := parseBool(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseBool("maybe")
	assert.Error(t, err)
}
