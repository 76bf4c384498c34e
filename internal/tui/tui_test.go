package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carnagereport/theater/internal/input"
	"github.com/carnagereport/theater/pkg/core"
)

func newSimHost(t *testing.T, w, h int) (*Host, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(w, h)
	host := New(screen)
	t.Cleanup(host.Close)
	return host, screen
}

func cellAt(t *testing.T, screen tcell.SimulationScreen, x, y int) rune {
	t.Helper()
	cells, w, _ := screen.GetContents()
	c := cells[y*w+x]
	if len(c.Runes) == 0 {
		return ' '
	}
	return c.Runes[0]
}

func row(screen tcell.SimulationScreen, y int) string {
	cells, w, _ := screen.GetContents()
	var b strings.Builder
	for x := 0; x < w; x++ {
		c := cells[y*w+x]
		if len(c.Runes) == 0 {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(c.Runes[0])
	}
	return b.String()
}

func testFrame() core.Frame {
	return core.Frame{
		Clock: core.ClockStatus{
			CurrentTimeMs:  66000,
			StartTimeMs:    1000,
			DurationMs:     300000,
			Playing:        true,
			BaseSpeed:      2,
			EffectiveSpeed: 2,
		},
		Camera: core.CameraView{Mode: core.CameraFollow, FollowID: "alice"},
		Subjects: []core.SubjectFrame{
			{
				Subject:        core.Subject{ID: "alice", Color: core.Color{R: 255}},
				HasData:        true,
				HasPosition:    true,
				RenderPosition: mgl64.Vec3{0, 0, 0},
			},
			{
				Subject:        core.Subject{ID: "bob", Color: core.Color{B: 255}},
				HasData:        true,
				Dead:           true,
				HasPosition:    true,
				RenderPosition: mgl64.Vec3{100, 0, -100},
			},
			{Subject: core.Subject{ID: "carol"}},
		},
	}
}

func TestStatusLine(t *testing.T) {
	assert.Equal(t, "01:05 / 05:00  x2  playing  [follow]  following alice", StatusLine(testFrame()))

	f := testFrame()
	f.Clock.Playing = false
	f.Camera = core.CameraView{Mode: core.CameraTop}
	assert.Equal(t, "01:05 / 05:00  x2  paused  [top]", StatusLine(f))
}

func TestDraw_TopDownMap(t *testing.T) {
	host, screen := newSimHost(t, 40, 10)

	host.Draw(testFrame())

	// map rows 0..8, status on row 9; north (render -Z) is up
	assert.Equal(t, 'a', cellAt(t, screen, 0, 8))
	assert.Equal(t, 'x', cellAt(t, screen, 39, 0))
	assert.True(t, strings.HasPrefix(row(screen, 9), "01:05 / 05:00"))

	cells, w, _ := screen.GetContents()
	_, _, attrs := cells[8*w].Style.Decompose()
	assert.NotZero(t, attrs&tcell.AttrReverse, "followed subject is highlighted")
}

func TestDraw_SkipsSubjectsWithoutPosition(t *testing.T) {
	host, screen := newSimHost(t, 20, 5)

	f := testFrame()
	f.Subjects = f.Subjects[2:]
	host.Draw(f)

	for y := 0; y < 4; y++ {
		assert.Equal(t, strings.Repeat(" ", 20), row(screen, y))
	}
}

func TestPump_KeyHeldForOneTick(t *testing.T) {
	host, _ := newSimHost(t, 20, 5)
	r := input.NewRouter(input.DefaultConfig())

	host.pending = append(host.pending,
		tcell.NewEventKey(tcell.KeyRune, 'w', tcell.ModNone),
		tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone),
	)
	host.Pump(r)
	in := r.Poll(1.0 / 60)
	assert.InDelta(t, 1, in.Move.Z(), 1e-9)
	assert.True(t, in.TogglePlay)

	host.Pump(r)
	in = r.Poll(1.0 / 60)
	assert.Zero(t, in.Move.Len())
	assert.False(t, in.TogglePlay)
}

func TestPump_RepeatedKeyKeepsMoving(t *testing.T) {
	host, _ := newSimHost(t, 20, 5)
	r := input.NewRouter(input.DefaultConfig())

	for i := 0; i < 3; i++ {
		host.pending = append(host.pending, tcell.NewEventKey(tcell.KeyRune, 'd', tcell.ModNone))
		host.Pump(r)
		in := r.Poll(1.0 / 60)
		assert.InDelta(t, 1, in.Move.X(), 1e-9, "tick %d", i)
	}
}

func TestTranslateKey(t *testing.T) {
	tests := []struct {
		name string
		ev   *tcell.EventKey
		want []input.Key
	}{
		{"left", tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), []input.Key{input.KeyLeft}},
		{"tab", tcell.NewEventKey(tcell.KeyTab, 0, tcell.ModNone), []input.Key{input.KeyTab}},
		{"backtab", tcell.NewEventKey(tcell.KeyBacktab, 0, tcell.ModNone), []input.Key{input.KeyLeftShift, input.KeyTab}},
		{"sprint", tcell.NewEventKey(tcell.KeyRune, 'W', tcell.ModShift), []input.Key{input.KeyLeftShift, input.KeyW}},
		{"plus", tcell.NewEventKey(tcell.KeyRune, '+', tcell.ModNone), []input.Key{input.KeyEqual}},
		{"mode", tcell.NewEventKey(tcell.KeyRune, '3', tcell.ModNone), []input.Key{input.Key3}},
		{"overlay", tcell.NewEventKey(tcell.KeyRune, 'o', tcell.ModNone), []input.Key{input.KeyO}},
		{"unmapped", tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, translateKey(tt.ev))
		})
	}
}

func TestPump_MouseDragLooks(t *testing.T) {
	host, _ := newSimHost(t, 20, 5)
	cfg := input.DefaultConfig()
	r := input.NewRouter(cfg)

	host.pending = append(host.pending,
		tcell.NewEventMouse(5, 2, tcell.Button1, tcell.ModNone),
		tcell.NewEventMouse(7, 2, tcell.Button1, tcell.ModNone),
		tcell.NewEventMouse(7, 2, tcell.WheelUp, tcell.ModNone),
	)
	host.Pump(r)
	in := r.Poll(1.0 / 60)

	assert.InDelta(t, -2*cellPixels*cfg.MouseSensitivity, in.LookYaw, 1e-9)
	assert.Zero(t, in.LookPitch)
	assert.InDelta(t, cfg.ZoomStep, in.Zoom, 1e-9)
}

func TestRun_EscapeQuits(t *testing.T) {
	host, screen := newSimHost(t, 20, 5)
	go host.Run()

	screen.InjectKey(tcell.KeyEscape, 0, tcell.ModNone)

	select {
	case <-host.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("escape did not quit")
	}
}
