package monitor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/carnagereport/theater/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFrame() core.Frame {
	return core.Frame{
		Seq: 7,
		Clock: core.ClockStatus{
			CurrentTimeMs:  1500,
			StartTimeMs:    1000,
			DurationMs:     4000,
			Playing:        true,
			BaseSpeed:      2,
			EffectiveSpeed: 2,
		},
		Camera: core.CameraView{Mode: core.CameraFollow, FollowID: "alice"},
		Subjects: []core.SubjectFrame{
			{Subject: core.Subject{ID: "alice"}, HasData: true, HasPosition: true},
			{Subject: core.Subject{ID: "bob"}, HasData: true, Dead: true, HasPosition: true},
			{Subject: core.Subject{ID: "carol"}},
		},
	}
}

func TestObserve(t *testing.T) {
	s := NewService(Dependencies{
		SessionID: "sess",
		ReplayID:  "match-1",
		Dropped:   func() uint64 { return 3 },
	})

	s.Observe(testFrame())
	st := s.Status()

	assert.Equal(t, "sess", st.SessionID)
	assert.Equal(t, "match-1", st.ReplayID)
	assert.Equal(t, uint64(7), st.Seq)
	assert.Equal(t, core.CameraFollow, st.CameraMode)
	assert.Equal(t, "alice", st.FollowID)
	assert.Equal(t, 3, st.Subjects)
	assert.Equal(t, 1, st.Alive)
	assert.Equal(t, 1, st.Dead)
	assert.Equal(t, uint64(3), st.DroppedCommands)
	assert.False(t, st.Time.IsZero())
}

func TestGetProgramStatus(t *testing.T) {
	s := NewService(Dependencies{ReplayID: "match-1"})
	s.Observe(testFrame())

	lines, st := s.GetProgramStatus()
	require.Len(t, lines, 2)
	assert.Equal(t, "match-1 500/4000 ms x2 playing=true", lines[0])
	assert.Contains(t, lines[1], `"replayId": "match-1"`)
	assert.Equal(t, 1, st.Alive)
}

func TestStartRequiresOutputDir(t *testing.T) {
	s := NewService(Dependencies{})
	assert.Error(t, s.Start())
	assert.False(t, s.IsRunning())
}

func TestStartWritesStatusFile(t *testing.T) {
	dir := t.TempDir()
	s := NewService(Dependencies{
		ReplayID:  "match-1",
		OutputDir: dir,
		Interval:  10 * time.Millisecond,
	})
	s.Observe(testFrame())

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	// second start is a no-op
	require.NoError(t, s.Start())

	path := filepath.Join(dir, StatusFileName)
	assert.Eventually(t, func() bool {
		b, err := os.ReadFile(path)
		return err == nil && strings.Contains(string(b), "match-1 500/4000 ms")
	}, time.Second, 10*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
}
