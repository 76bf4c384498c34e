// Package input turns raw keyboard, pointer and gamepad state into one
// batch of intents per tick.
//
// Hosts push events into a Router as they arrive; Poll is called once at the
// start of every tick and returns everything that happened since the
// previous poll. Discrete intents fire on the press transition only.
package input

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/carnagereport/theater/pkg/core"
)

// Config holds the router tunables.
type Config struct {
	Deadzone         float64
	MouseSensitivity float64 // radians per pixel
	GamepadLookSpeed float64 // radians per second at full deflection
	SprintMultiplier float64
	FastForwardMax   float64
	SkipSeconds      float64
	ZoomStep         float64 // zoom per wheel notch
	// TriggerThreshold is where an analog button starts to count as pressed.
	TriggerThreshold float64
}

// DefaultConfig returns the tunables used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Deadzone:         0.15,
		MouseSensitivity: 0.003,
		GamepadLookSpeed: 2.5,
		SprintMultiplier: 3,
		FastForwardMax:   8,
		SkipSeconds:      5,
		ZoomStep:         1,
		TriggerThreshold: 0.5,
	}
}

// Intents is everything the input devices asked for during one tick.
type Intents struct {
	// Move is a local direction (X right, Y up, Z forward), length <= 1.
	Move mgl64.Vec3
	// Sprint is the move speed multiplier, at least 1.
	Sprint float64

	LookYaw   float64
	LookPitch float64
	Zoom      float64

	SkipSeconds  float64
	CycleSubject int
	SpeedStep    int

	TogglePlay     bool
	SetMode        *core.CameraMode
	CycleMode      bool
	ToggleOverlays bool

	// FastForward is the transient playback multiplier, 1 when released.
	FastForward float64
}

var modeKeys = map[Key]core.CameraMode{
	Key1: core.CameraFree,
	Key2: core.CameraFollow,
	Key3: core.CameraOrbit,
	Key4: core.CameraTop,
}

// Router accumulates device state between polls.
//
// Router is not safe for concurrent use; hosts feeding it from another
// goroutine hand events over through the session queue.
type Router struct {
	cfg Config

	held    map[Key]bool
	pressed []Key
	tapped  map[Key]bool

	lookEnabled bool
	mouseDX     float64
	mouseDY     float64
	wheel       float64

	pad         GamepadState
	prevButtons [ButtonCount]bool

	fastForwardLatched bool
}

func NewRouter(cfg Config) *Router {
	def := DefaultConfig()
	if cfg.SprintMultiplier < 1 {
		cfg.SprintMultiplier = def.SprintMultiplier
	}
	if cfg.FastForwardMax < 1 {
		cfg.FastForwardMax = def.FastForwardMax
	}
	if cfg.TriggerThreshold <= 0 || cfg.TriggerThreshold > 1 {
		cfg.TriggerThreshold = def.TriggerThreshold
	}
	return &Router{
		cfg:    cfg,
		held:   make(map[Key]bool),
		tapped: make(map[Key]bool),
	}
}

// KeyDown records a key press. Auto-repeat of a held key is ignored.
func (r *Router) KeyDown(k Key) {
	if r.held[k] {
		return
	}
	r.held[k] = true
	r.tapped[k] = true
	r.pressed = append(r.pressed, k)
}

func (r *Router) KeyUp(k Key) {
	delete(r.held, k)
}

// SetLookEnabled reports whether pointer motion should turn the camera,
// i.e. the pointer is captured or a mouse button is held.
func (r *Router) SetLookEnabled(enabled bool) {
	r.lookEnabled = enabled
}

// MouseMove accumulates a pointer delta in pixels.
func (r *Router) MouseMove(dx, dy float64) {
	if !r.lookEnabled {
		return
	}
	r.mouseDX += dx
	r.mouseDY += dy
}

// Wheel accumulates scroll notches; positive zooms in.
func (r *Router) Wheel(notches float64) {
	r.wheel += notches
}

// SetGamepad stores the latest gamepad poll.
func (r *Router) SetGamepad(s GamepadState) {
	r.pad = s
}

// Poll returns the intents for one tick of length dt seconds and resets the
// per-tick accumulators.
func (r *Router) Poll(dt float64) Intents {
	in := Intents{Sprint: 1, FastForward: 1}

	r.pollKeyboard(&in)
	r.pollGamepad(&in, dt)

	if l := in.Move.Len(); l > 1 {
		in.Move = in.Move.Mul(1 / l)
	}
	if r.fastForwardLatched {
		in.FastForward = r.cfg.FastForwardMax
	}

	r.pressed = r.pressed[:0]
	clear(r.tapped)
	r.mouseDX, r.mouseDY, r.wheel = 0, 0, 0
	return in
}

// active reports whether a key was down at any point since the last poll.
func (r *Router) active(k Key) bool {
	return r.held[k] || r.tapped[k]
}

func (r *Router) axis(pos, neg Key) float64 {
	var v float64
	if r.active(pos) {
		v++
	}
	if r.active(neg) {
		v--
	}
	return v
}

func (r *Router) pollKeyboard(in *Intents) {
	move := mgl64.Vec3{
		r.axis(KeyD, KeyA),
		r.axis(KeyE, KeyQ),
		r.axis(KeyW, KeyS),
	}
	if l := move.Len(); l > 0 {
		in.Move = move.Mul(1 / l)
	}
	shift := r.active(KeyLeftShift) || r.active(KeyRightShift)
	if shift {
		in.Sprint = r.cfg.SprintMultiplier
	}

	in.LookYaw = -r.mouseDX * r.cfg.MouseSensitivity
	in.LookPitch = -r.mouseDY * r.cfg.MouseSensitivity
	in.Zoom = r.wheel * r.cfg.ZoomStep

	for _, k := range r.pressed {
		switch k {
		case KeySpace:
			in.TogglePlay = !in.TogglePlay
		case KeyLeft:
			in.SkipSeconds -= r.cfg.SkipSeconds
		case KeyRight:
			in.SkipSeconds += r.cfg.SkipSeconds
		case KeyTab:
			if shift {
				in.CycleSubject--
			} else {
				in.CycleSubject++
			}
		case KeyEqual, KeyKPAdd:
			in.SpeedStep++
		case KeyMinus, KeyKPSubtract:
			in.SpeedStep--
		case KeyF:
			r.fastForwardLatched = !r.fastForwardLatched
		case KeyO:
			in.ToggleOverlays = !in.ToggleOverlays
		case Key1, Key2, Key3, Key4:
			m := modeKeys[k]
			in.SetMode = &m
		}
	}
}

func (r *Router) pollGamepad(in *Intents, dt float64) {
	if !r.pad.Connected {
		r.prevButtons = [ButtonCount]bool{}
		return
	}
	p := r.pad
	dz := r.cfg.Deadzone

	lx, ly := ApplyStickDeadzone(p.Axes[AxisLeftX], p.Axes[AxisLeftY], dz)
	rx, ry := ApplyStickDeadzone(p.Axes[AxisRightX], p.Axes[AxisRightY], dz)

	in.Move = in.Move.Add(mgl64.Vec3{lx, 0, -ly})
	in.LookYaw -= rx * r.cfg.GamepadLookSpeed * dt
	in.LookPitch -= ry * r.cfg.GamepadLookSpeed * dt

	lt := clampUnit(p.Buttons[ButtonLT])
	rt := clampUnit(p.Buttons[ButtonRT])
	in.Sprint = math.Max(in.Sprint, 1+(r.cfg.SprintMultiplier-1)*lt)
	in.FastForward = math.Max(in.FastForward, 1+(r.cfg.FastForwardMax-1)*rt)

	var now [ButtonCount]bool
	for i, v := range p.Buttons {
		now[i] = v >= r.cfg.TriggerThreshold
	}
	edge := func(b int) bool {
		return now[b] && !r.prevButtons[b]
	}

	if edge(ButtonA) {
		in.TogglePlay = !in.TogglePlay
	}
	if edge(ButtonRB) {
		in.CycleSubject++
	}
	if edge(ButtonLB) {
		in.CycleSubject--
	}
	if edge(ButtonDpadUp) {
		in.SpeedStep++
	}
	if edge(ButtonDpadDown) {
		in.SpeedStep--
	}
	if edge(ButtonDpadLeft) {
		in.SkipSeconds -= r.cfg.SkipSeconds
	}
	if edge(ButtonDpadRight) {
		in.SkipSeconds += r.cfg.SkipSeconds
	}
	if edge(ButtonY) {
		in.CycleMode = true
	}
	if edge(ButtonBack) {
		in.ToggleOverlays = !in.ToggleOverlays
	}

	r.prevButtons = now
}
