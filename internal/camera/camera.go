// Package camera is the replay camera state machine. It runs one of four
// update rules per tick, selected by the current mode, and owns the only
// camera state in a session.
package camera

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/carnagereport/theater/internal/geo"
	"github.com/carnagereport/theater/internal/interp"
	"github.com/carnagereport/theater/pkg/core"
)

var (
	ErrUnknownMode    = errors.New("unknown camera mode")
	ErrUnknownSubject = errors.New("unknown subject")
)

var worldUp = mgl64.Vec3{0, 1, 0}

// Config holds the camera tunables.
type Config struct {
	// FollowDistance is how far behind the subject the chase camera trails.
	FollowDistance float64
	// FollowHeight lifts the chase anchor above the subject's position.
	FollowHeight float64
	// Damping is the fraction of the remaining distance to the chase
	// target covered every 1/60 s.
	Damping float64

	MoveSpeed        float64 // units per second in free mode
	SprintMultiplier float64 // applied at full sprint

	TopHeight float64

	OrbitRadius    float64
	MinOrbitRadius float64
	MaxOrbitRadius float64
	ZoomSpeed      float64
}

// DefaultConfig returns the tunables used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		FollowDistance:   6,
		FollowHeight:     2,
		Damping:          0.1,
		MoveSpeed:        10,
		SprintMultiplier: 3,
		TopHeight:        150,
		OrbitRadius:      40,
		MinOrbitRadius:   5,
		MaxOrbitRadius:   500,
		ZoomSpeed:        5,
	}
}

const (
	minElevation = 0.05
	maxElevation = math.Pi/2 - 0.1
	maxPitch     = math.Pi / 2

	initialElevation = math.Pi / 6
)

// Motion is the part of one tick's input the camera consumes.
type Motion struct {
	// Move is a local direction: X strafes right, Y rises, Z goes forward.
	// Its length is at most 1.
	Move mgl64.Vec3
	// Sprint multiplies move speed; 1 means no sprint.
	Sprint float64
	// LookYaw and LookPitch are orientation deltas in radians.
	LookYaw   float64
	LookPitch float64
	Zoom      float64
}

// Target is where a followed subject is this tick.
type Target struct {
	Position core.Position3D
	Yaw      float64
}

// TargetFunc resolves the followed subject's live position for this tick.
// ok is false when the subject has no valid pose right now.
type TargetFunc func(subjectID string) (t Target, ok bool)

// Controller is the camera state machine.
//
// Controller is not safe for concurrent use.
type Controller struct {
	cfg Config

	mode     core.CameraMode
	position mgl64.Vec3
	yaw      float64
	pitch    float64

	subjects []string
	selected int
	followID string // set only while in follow mode

	anchor     mgl64.Vec3
	lastFollow mgl64.Vec3
	hasFollow  bool

	pivot     mgl64.Vec3
	radius    float64
	azimuth   float64
	elevation float64
}

// New creates a free camera looking down at anchor from above and behind.
// subjects is the selectable list in cycling order.
func New(cfg Config, subjects []string, anchor core.Position3D) *Controller {
	c := &Controller{
		cfg:       sanitize(cfg),
		mode:      core.CameraFree,
		subjects:  append([]string(nil), subjects...),
		anchor:    geo.ToRender(anchor),
		elevation: initialElevation,
	}
	c.radius = c.cfg.OrbitRadius
	c.position = c.anchor.Add(mgl64.Vec3{0, c.radius * 0.5, c.radius})
	c.lookAt(c.anchor)
	return c
}

func sanitize(cfg Config) Config {
	def := DefaultConfig()
	if cfg.MinOrbitRadius <= 0 {
		cfg.MinOrbitRadius = def.MinOrbitRadius
	}
	if cfg.MaxOrbitRadius < cfg.MinOrbitRadius {
		cfg.MaxOrbitRadius = max(def.MaxOrbitRadius, cfg.MinOrbitRadius)
	}
	cfg.OrbitRadius = mgl64.Clamp(cfg.OrbitRadius, cfg.MinOrbitRadius, cfg.MaxOrbitRadius)
	if cfg.Damping <= 0 || cfg.Damping > 1 {
		cfg.Damping = def.Damping
	}
	if cfg.SprintMultiplier < 1 {
		cfg.SprintMultiplier = 1
	}
	return cfg
}

func (c *Controller) Mode() core.CameraMode { return c.mode }
func (c *Controller) FollowID() string      { return c.followID }
func (c *Controller) Position() mgl64.Vec3  { return c.position }

// Selected returns the subject the cycling cursor points at, or "" when
// there are no subjects.
func (c *Controller) Selected() string {
	if len(c.subjects) == 0 {
		return ""
	}
	return c.subjects[c.selected]
}

// SetMode switches the update rule. Entering follow mode targets the
// selected subject; leaving it clears the follow target but keeps the
// selection.
func (c *Controller) SetMode(mode core.CameraMode) error {
	switch mode {
	case core.CameraFree:
	case core.CameraFollow:
		c.followID = c.Selected()
	case core.CameraOrbit:
		c.enterOrbit()
	case core.CameraTop:
		c.position = c.anchor.Add(mgl64.Vec3{0, c.cfg.TopHeight, 0})
		c.pitch = -maxPitch
		c.yaw = math.Pi / 2
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if mode != core.CameraFollow {
		c.followID = ""
	}
	c.mode = mode
	return nil
}

// CycleMode moves to the next mode in core.CameraModes.
func (c *Controller) CycleMode() {
	next := core.CameraModes[0]
	for i, m := range core.CameraModes {
		if m == c.mode {
			next = core.CameraModes[(i+1)%len(core.CameraModes)]
			break
		}
	}
	_ = c.SetMode(next)
}

// CycleSubject moves the selection by direction, wrapping at either end.
// In follow mode the camera retargets at once; otherwise the choice is only
// remembered for the next time follow mode is entered.
func (c *Controller) CycleSubject(direction int) {
	n := len(c.subjects)
	if n == 0 || direction == 0 {
		return
	}
	c.selected = ((c.selected+direction)%n + n) % n
	if c.mode == core.CameraFollow {
		c.followID = c.subjects[c.selected]
	}
}

// Follow targets a specific subject and switches to follow mode.
func (c *Controller) Follow(subjectID string) error {
	i := c.indexOf(subjectID)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownSubject, subjectID)
	}
	c.selected = i
	return c.SetMode(core.CameraFollow)
}

func (c *Controller) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, s := range c.subjects {
		if s == id {
			return i
		}
	}
	return -1
}

// Update runs the current mode's rule for one tick.
func (c *Controller) Update(dt float64, m Motion, target TargetFunc) {
	switch c.mode {
	case core.CameraFree:
		c.updateFree(dt, m)
	case core.CameraFollow:
		c.updateFollow(dt, target)
	case core.CameraOrbit:
		c.updateOrbit(m)
	case core.CameraTop:
	}
}

func (c *Controller) updateFree(dt float64, m Motion) {
	c.yaw = interp.NormalizeAngle(c.yaw + m.LookYaw)
	c.pitch = mgl64.Clamp(c.pitch+m.LookPitch, -maxPitch, maxPitch)

	if m.Move.Len() == 0 || dt <= 0 {
		return
	}
	sprint := mgl64.Clamp(m.Sprint, 1, c.cfg.SprintMultiplier)

	forward := geo.Heading(c.yaw, c.pitch)
	right := geo.Heading(c.yaw-math.Pi/2, 0)
	dir := right.Mul(m.Move.X()).
		Add(worldUp.Mul(m.Move.Y())).
		Add(forward.Mul(m.Move.Z()))
	if l := dir.Len(); l > 1 {
		dir = dir.Mul(1 / l)
	}
	c.position = c.position.Add(dir.Mul(c.cfg.MoveSpeed * sprint * dt))
}

func (c *Controller) updateFollow(dt float64, target TargetFunc) {
	if c.indexOf(c.followID) < 0 {
		if len(c.subjects) == 0 {
			return
		}
		c.selected = 0
		c.followID = c.subjects[0]
	}
	if target == nil {
		return
	}
	t, ok := target(c.followID)
	if !ok {
		return
	}

	subject := geo.ToRender(t.Position)
	anchor := subject.Add(mgl64.Vec3{0, c.cfg.FollowHeight, 0})
	behind := geo.Heading(t.Yaw, 0).Mul(-c.cfg.FollowDistance)
	desired := anchor.Add(behind)

	alpha := 1 - math.Pow(1-c.cfg.Damping, dt*60)
	c.position = c.position.Add(desired.Sub(c.position).Mul(mgl64.Clamp(alpha, 0, 1)))
	c.lookAt(anchor)

	c.lastFollow = subject
	c.hasFollow = true
}

func (c *Controller) enterOrbit() {
	c.pivot = c.anchor
	if c.hasFollow {
		c.pivot = c.lastFollow
	}
	// keep looking the same way: start behind the pivot along the current
	// horizontal heading
	f := geo.Heading(c.yaw, 0)
	c.azimuth = math.Atan2(-f.X(), -f.Z())
	c.elevation = mgl64.Clamp(c.elevation, minElevation, maxElevation)
	c.placeOrbit()
}

func (c *Controller) updateOrbit(m Motion) {
	c.azimuth = interp.NormalizeAngle(c.azimuth + m.LookYaw)
	c.elevation = mgl64.Clamp(c.elevation+m.LookPitch, minElevation, maxElevation)
	c.radius = mgl64.Clamp(c.radius-m.Zoom*c.cfg.ZoomSpeed, c.cfg.MinOrbitRadius, c.cfg.MaxOrbitRadius)
	c.placeOrbit()
}

// placeOrbit recomputes position from the spherical coordinates.
func (c *Controller) placeOrbit() {
	ce, se := math.Cos(c.elevation), math.Sin(c.elevation)
	ca, sa := math.Cos(c.azimuth), math.Sin(c.azimuth)
	c.position = c.pivot.Add(mgl64.Vec3{
		c.radius * ce * sa,
		c.radius * se,
		c.radius * ce * ca,
	})
	c.lookAt(c.pivot)
}

// lookAt points the camera from its position at p.
func (c *Controller) lookAt(p mgl64.Vec3) {
	d := geo.FromRender(p.Sub(c.position))
	if math.Abs(d.X) < 1e-9 && math.Abs(d.Y) < 1e-9 && math.Abs(d.Z) < 1e-9 {
		return
	}
	c.yaw = math.Atan2(d.Y, d.X)
	c.pitch = math.Atan2(d.Z, math.Hypot(d.X, d.Y))
}

// View snapshots the camera for the render adapter.
func (c *Controller) View() core.CameraView {
	v := core.CameraView{
		Mode:     c.mode,
		FollowID: c.followID,
		Position: c.position,
		Yaw:      c.yaw,
		Pitch:    c.pitch,
	}
	switch c.mode {
	case core.CameraOrbit:
		v.Target = c.pivot
	case core.CameraTop:
		v.Target = c.anchor
	default:
		v.Target = c.position.Add(geo.Heading(c.yaw, c.pitch))
	}
	return v
}
