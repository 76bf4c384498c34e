// Package tui is a terminal host for a playback session. It draws frames as
// a top-down map and turns terminal key and mouse events into router input.
package tui

import (
	"fmt"
	"math"
	"sync"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/carnagereport/theater/internal/input"
	"github.com/carnagereport/theater/pkg/core"
)

// cellPixels converts a mouse drag in cells to the pixel deltas the router
// expects.
const cellPixels = 8

// Host owns a tcell screen. Draw and Pump are called from the tick
// goroutine; events are collected by a separate goroutine started by Run.
type Host struct {
	screen tcell.Screen

	mu      sync.Mutex
	pending []tcell.Event
	quit    chan struct{}
	once    sync.Once

	held      []input.Key
	dragging  bool
	lastMouse [2]int

	// world extent of the map, grown to fit every subject drawn so far
	minX, maxX, minZ, maxZ float64
	haveExtent             bool
}

// New wraps an initialised screen.
func New(screen tcell.Screen) *Host {
	screen.EnableMouse()
	screen.HideCursor()
	return &Host{
		screen: screen,
		quit:   make(chan struct{}),
	}
}

// NewTerminal creates and initialises a screen on the controlling terminal.
func NewTerminal() (*Host, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("initializing screen: %w", err)
	}
	return New(screen), nil
}

// Run polls screen events until the screen is finalised. It is meant to be
// started on its own goroutine.
func (h *Host) Run() {
	for {
		ev := h.screen.PollEvent()
		if ev == nil {
			h.stop()
			return
		}
		if k, ok := ev.(*tcell.EventKey); ok && isQuit(k) {
			h.stop()
			continue
		}
		h.mu.Lock()
		h.pending = append(h.pending, ev)
		h.mu.Unlock()
	}
}

// Done is closed when the user asks to quit.
func (h *Host) Done() <-chan struct{} {
	return h.quit
}

// Close restores the terminal.
func (h *Host) Close() {
	h.stop()
	h.screen.Fini()
}

func (h *Host) stop() {
	h.once.Do(func() { close(h.quit) })
}

func isQuit(k *tcell.EventKey) bool {
	return k.Key() == tcell.KeyCtrlC || k.Key() == tcell.KeyEscape
}

// Pump feeds the events collected since the last call into r. Keys pressed
// on the previous pump are released first, so each key event is held for
// exactly one tick.
func (h *Host) Pump(r *input.Router) {
	for _, k := range h.held {
		r.KeyUp(k)
	}
	h.held = h.held[:0]

	h.mu.Lock()
	events := h.pending
	h.pending = nil
	h.mu.Unlock()

	for _, ev := range events {
		switch ev := ev.(type) {
		case *tcell.EventKey:
			for _, k := range translateKey(ev) {
				r.KeyDown(k)
				h.held = append(h.held, k)
			}
		case *tcell.EventMouse:
			h.mouse(r, ev)
		case *tcell.EventResize:
			h.screen.Sync()
		}
	}
}

func (h *Host) mouse(r *input.Router, ev *tcell.EventMouse) {
	x, y := ev.Position()
	buttons := ev.Buttons()

	if buttons&tcell.WheelUp != 0 {
		r.Wheel(1)
	}
	if buttons&tcell.WheelDown != 0 {
		r.Wheel(-1)
	}

	if buttons&tcell.Button1 == 0 {
		h.dragging = false
		r.SetLookEnabled(false)
		return
	}
	if !h.dragging {
		h.dragging = true
		h.lastMouse = [2]int{x, y}
		r.SetLookEnabled(true)
		return
	}
	dx, dy := x-h.lastMouse[0], y-h.lastMouse[1]
	h.lastMouse = [2]int{x, y}
	r.MouseMove(float64(dx*cellPixels), float64(dy*cellPixels))
}

// translateKey maps a terminal key to router keys. Upper-case letters and
// back-tab carry shift.
func translateKey(ev *tcell.EventKey) []input.Key {
	switch ev.Key() {
	case tcell.KeyLeft:
		return []input.Key{input.KeyLeft}
	case tcell.KeyRight:
		return []input.Key{input.KeyRight}
	case tcell.KeyUp:
		return []input.Key{input.KeyUp}
	case tcell.KeyDown:
		return []input.Key{input.KeyDown}
	case tcell.KeyTab:
		return []input.Key{input.KeyTab}
	case tcell.KeyBacktab:
		return []input.Key{input.KeyLeftShift, input.KeyTab}
	case tcell.KeyRune:
	default:
		return nil
	}

	r := ev.Rune()
	switch r {
	case ' ':
		return []input.Key{input.KeySpace}
	case '+', '=':
		return []input.Key{input.KeyEqual}
	case '-', '_':
		return []input.Key{input.KeyMinus}
	case '1', '2', '3', '4':
		return []input.Key{input.Key(r)}
	}

	upper := unicode.ToUpper(r)
	switch input.Key(upper) {
	case input.KeyW, input.KeyA, input.KeyS, input.KeyD,
		input.KeyQ, input.KeyE, input.KeyF, input.KeyO:
		if unicode.IsUpper(r) {
			return []input.Key{input.KeyLeftShift, input.Key(upper)}
		}
		return []input.Key{input.Key(upper)}
	}
	return nil
}

// Draw renders one frame: subjects on a top-down map of render X/Z and a
// status line at the bottom.
func (h *Host) Draw(f core.Frame) {
	s := h.screen
	s.Clear()
	w, ht := s.Size()
	if w < 1 || ht < 2 {
		s.Show()
		return
	}
	mapH := ht - 1

	for _, sf := range f.Subjects {
		if sf.HasPosition {
			h.include(sf.RenderPosition.X(), sf.RenderPosition.Z())
		}
	}

	if f.Overlays {
		for _, sf := range f.Subjects {
			style := tcell.StyleDefault.Foreground(subjectColor(sf.Subject)).Dim(true)
			for _, p := range sf.Trail {
				if x, y, ok := h.project(p.X(), p.Z(), w, mapH); ok {
					s.SetContent(x, y, '.', nil, style)
				}
			}
		}
	}

	for _, sf := range f.Subjects {
		if !sf.HasPosition {
			continue
		}
		x, y, ok := h.project(sf.RenderPosition.X(), sf.RenderPosition.Z(), w, mapH)
		if !ok {
			continue
		}
		style := tcell.StyleDefault.Foreground(subjectColor(sf.Subject))
		if sf.Subject.ID == f.Camera.FollowID {
			style = style.Reverse(true).Bold(true)
		}
		s.SetContent(x, y, glyph(sf), nil, style)
	}

	drawText(s, 0, ht-1, w, StatusLine(f), tcell.StyleDefault.Reverse(true))
	s.Show()
}

func (h *Host) include(x, z float64) {
	if !h.haveExtent {
		h.minX, h.maxX, h.minZ, h.maxZ = x, x, z, z
		h.haveExtent = true
		return
	}
	h.minX = math.Min(h.minX, x)
	h.maxX = math.Max(h.maxX, x)
	h.minZ = math.Min(h.minZ, z)
	h.maxZ = math.Max(h.maxZ, z)
}

// project maps render X/Z to a cell. Render -Z is source +Y, so north is up.
func (h *Host) project(x, z float64, w, ht int) (int, int, bool) {
	if !h.haveExtent {
		return 0, 0, false
	}
	spanX := math.Max(h.maxX-h.minX, 1)
	spanZ := math.Max(h.maxZ-h.minZ, 1)
	cx := int(math.Round((x - h.minX) / spanX * float64(w-1)))
	cy := int(math.Round((z - h.minZ) / spanZ * float64(ht-1)))
	if cx < 0 || cx >= w || cy < 0 || cy >= ht {
		return 0, 0, false
	}
	return cx, cy, true
}

func glyph(sf core.SubjectFrame) rune {
	if sf.Dead {
		return 'x'
	}
	for _, r := range sf.Subject.ID {
		return r
	}
	return '?'
}

func subjectColor(s core.Subject) tcell.Color {
	return tcell.NewRGBColor(int32(s.Color.R), int32(s.Color.G), int32(s.Color.B))
}

// StatusLine summarises the clock and camera for the bottom row.
func StatusLine(f core.Frame) string {
	c := f.Clock
	state := "paused"
	if c.Playing {
		state = "playing"
	}
	line := fmt.Sprintf("%s / %s  x%g  %s  [%s]",
		formatMs(c.CurrentTimeMs-float64(c.StartTimeMs)),
		formatMs(float64(c.DurationMs)),
		c.EffectiveSpeed,
		state,
		f.Camera.Mode,
	)
	if f.Camera.FollowID != "" {
		line += "  following " + f.Camera.FollowID
	}
	return line
}

func formatMs(ms float64) string {
	total := int64(math.Max(ms, 0)) / 1000
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func drawText(s tcell.Screen, x, y, maxW int, text string, style tcell.Style) {
	col := x
	for _, r := range text {
		if col >= maxW {
			return
		}
		s.SetContent(col, y, r, nil, style)
		col++
	}
	for ; col < maxW; col++ {
		s.SetContent(col, y, ' ', nil, style)
	}
}
