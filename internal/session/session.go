// Package session wires the replay core together. A Session owns one loaded
// replay and advances it one tick at a time in a fixed order: poll input,
// advance the clock, resolve poses, update the camera, emit a frame.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/carnagereport/theater/internal/cache"
	"github.com/carnagereport/theater/internal/camera"
	"github.com/carnagereport/theater/internal/clock"
	"github.com/carnagereport/theater/internal/geo"
	"github.com/carnagereport/theater/internal/input"
	"github.com/carnagereport/theater/internal/interp"
	"github.com/carnagereport/theater/internal/queue"
	"github.com/carnagereport/theater/internal/telemetry"
	"github.com/carnagereport/theater/pkg/core"
)

// Options configures a Session.
type Options struct {
	Camera        camera.Config
	Input         input.Config
	TrailLength   int
	DefaultSpeed  float64
	Autoplay      bool
	Liveness      interp.LivenessFunc
	ReplayID      string
	CommandBuffer int
	Logger        *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

func WithCamera(cfg camera.Config) Option { return func(o *Options) { o.Camera = cfg } }
func WithInput(cfg input.Config) Option   { return func(o *Options) { o.Input = cfg } }
func WithTrailLength(n int) Option        { return func(o *Options) { o.TrailLength = n } }
func WithDefaultSpeed(m float64) Option   { return func(o *Options) { o.DefaultSpeed = m } }
func WithAutoplay(on bool) Option         { return func(o *Options) { o.Autoplay = on } }
func WithReplayID(id string) Option       { return func(o *Options) { o.ReplayID = id } }
func WithCommandBuffer(n int) Option      { return func(o *Options) { o.CommandBuffer = n } }
func WithLogger(l *slog.Logger) Option    { return func(o *Options) { o.Logger = l } }
func WithLiveness(fn interp.LivenessFunc) Option {
	return func(o *Options) { o.Liveness = fn }
}

func defaultOptions() Options {
	return Options{
		Camera:        camera.DefaultConfig(),
		Input:         input.DefaultConfig(),
		TrailLength:   32,
		DefaultSpeed:  1,
		CommandBuffer: 256,
	}
}

// Session is one replay being watched.
//
// Tick and the scrub methods must be called from a single goroutine.
// Enqueue, ID and LogAttrs are safe from any goroutine.
type Session struct {
	id       uuid.UUID
	replayID string
	logger   *slog.Logger

	store    *telemetry.Store
	ids      []string
	interp   *interp.Interpolator
	clock    *clock.Clock
	camera   *camera.Controller
	router   *input.Router
	subjects *cache.SubjectCache
	trails   *cache.TrailCache
	commands *queue.Queue[Command]

	overlays      bool
	discontinuity bool
	seq           uint64
	live          map[string]camera.Target

	nowBits atomic.Uint64
	metrics metrics
	attrs   metric.MeasurementOption
}

// New builds a session over a loaded store. The clock starts at the first
// sample and the camera free above the subjects' starting area.
func New(store *telemetry.Store, opts ...Option) (*Session, error) {
	if store == nil {
		return nil, errors.New("session: nil telemetry store")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	s := &Session{
		id:       uuid.New(),
		replayID: o.ReplayID,
		store:    store,
		subjects: cache.NewSubjectCache(),
		trails:   cache.NewTrailCache(o.TrailLength),
		commands: queue.New[Command](o.CommandBuffer),
		router:   input.NewRouter(o.Input),
		live:     make(map[string]camera.Target),
	}
	s.logger = o.Logger.With("session", s.id.String(), "replay", s.replayID)

	var ipOpts []interp.Option
	if o.Liveness != nil {
		ipOpts = append(ipOpts, interp.WithLiveness(o.Liveness))
	}
	s.interp = interp.New(store, ipOpts...)

	b := store.Bounds()
	s.clock = clock.New(b.MinTimeMs, b.DurationMs())
	if err := s.clock.SetBaseSpeed(o.DefaultSpeed); err != nil {
		return nil, fmt.Errorf("default speed: %w", err)
	}
	if o.Autoplay {
		s.clock.Play()
	}
	s.nowBits.Store(math.Float64bits(s.clock.Current()))

	ids := store.Subjects()
	s.ids = ids
	for _, id := range ids {
		s.subjects.Register(id, store.Team(id))
	}
	s.camera = camera.New(o.Camera, ids, s.overheadAnchor())

	m, err := newMetrics()
	if err != nil {
		return nil, fmt.Errorf("session metrics: %w", err)
	}
	s.metrics = m
	s.attrs = metric.WithAttributes(attribute.String("replay", s.replayID))

	s.logger.Info("session ready",
		"subjects", len(ids),
		"samples", store.Len(),
		"startMs", b.MinTimeMs,
		"durationMs", b.DurationMs())
	return s, nil
}

// overheadAnchor averages each subject's first live position, falling back
// to the centre of everything recorded.
func (s *Session) overheadAnchor() core.Position3D {
	var (
		initial []core.Position3D
		extent  geo.Extent
	)
	for _, id := range s.ids {
		found := false
		for _, smp := range s.store.SamplesFor(id) {
			p := core.PoseFromSample(smp)
			if !s.interp.IsLive(p) {
				continue
			}
			extent.Include(p.Position)
			if !found {
				initial = append(initial, p.Position)
				found = true
			}
		}
	}
	return geo.OverheadAnchor(initial, extent)
}

func (s *Session) ID() uuid.UUID            { return s.id }
func (s *Session) ReplayID() string         { return s.replayID }
func (s *Session) Router() *input.Router    { return s.router }
func (s *Session) Subjects() []core.Subject { return s.subjects.Subjects() }
func (s *Session) Status() core.ClockStatus { return s.clock.Status() }
func (s *Session) Camera() core.CameraView  { return s.camera.View() }
func (s *Session) Overlays() bool           { return s.overlays }
func (s *Session) Store() *telemetry.Store  { return s.store }
func (s *Session) DroppedCommands() uint64  { return s.commands.Dropped() }

// Now returns the current playback time. Safe from any goroutine.
func (s *Session) Now() float64 {
	return math.Float64frombits(s.nowBits.Load())
}

// LogAttrs returns attributes identifying this session for log records.
func (s *Session) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("session", s.id.String()),
		slog.String("replay", s.replayID),
		slog.Float64("playbackMs", s.Now()),
	}
}

// Enqueue schedules a command for the start of the next tick. Invalid
// commands are rejected here and never reach the tick.
func (s *Session) Enqueue(cmd Command) error {
	if err := s.validate(cmd); err != nil {
		return err
	}
	if s.commands.Push(cmd) == 0 {
		return ErrQueueFull
	}
	return nil
}

// BeginScrub starts a timeline drag, pausing playback.
func (s *Session) BeginScrub() {
	s.clock.BeginScrub()
}

// ScrubTo moves the playhead during a drag.
func (s *Session) ScrubTo(timeMs float64) {
	s.clock.ScrubTo(timeMs)
	s.discontinuity = true
}

// EndScrub commits a drag, resuming playback if it was running before.
func (s *Session) EndScrub() {
	s.clock.EndScrub()
}

// Tick advances the session by dt seconds of real time and returns the
// frame to draw.
func (s *Session) Tick(dt float64) core.Frame {
	started := time.Now()

	for _, cmd := range s.commands.Drain() {
		s.apply(cmd)
		s.metrics.commands.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("command", cmd.Kind.String())))
	}

	in := s.router.Poll(dt)

	s.applyClockIntents(in)
	if s.clock.Tick(dt) {
		s.discontinuity = true
	}
	now := s.clock.Current()
	s.nowBits.Store(math.Float64bits(now))

	subjects := s.resolve(now)

	s.applyCameraIntents(in)
	s.camera.Update(dt, camera.Motion{
		Move:      in.Move,
		Sprint:    in.Sprint,
		LookYaw:   in.LookYaw,
		LookPitch: in.LookPitch,
		Zoom:      in.Zoom,
	}, s.target)

	if in.ToggleOverlays {
		s.overlays = !s.overlays
	}

	s.seq++
	frame := core.Frame{
		Seq:      s.seq,
		Clock:    s.clock.Status(),
		Camera:   s.camera.View(),
		Subjects: subjects,
		Overlays: s.overlays,
	}

	ctx := context.Background()
	s.metrics.ticks.Add(ctx, 1, s.attrs)
	s.metrics.duration.Record(ctx, float64(time.Since(started).Microseconds())/1000, s.attrs)
	return frame
}

func (s *Session) applyClockIntents(in input.Intents) {
	if in.TogglePlay {
		s.clock.Toggle()
	}
	if in.SkipSeconds != 0 {
		s.clock.Skip(in.SkipSeconds)
		s.discontinuity = true
	}
	if in.SpeedStep != 0 {
		s.clock.StepSpeed(in.SpeedStep)
	}
	s.clock.SetTransientSpeed(in.FastForward)
}

func (s *Session) applyCameraIntents(in input.Intents) {
	if in.SetMode != nil {
		if err := s.camera.SetMode(*in.SetMode); err != nil {
			s.logger.Warn("mode rejected", "error", err)
		}
	}
	if in.CycleMode {
		s.camera.CycleMode()
	}
	if in.CycleSubject != 0 {
		s.camera.CycleSubject(in.CycleSubject)
	}
}

// resolve computes every subject's state at now. Subjects without a live
// position keep their last live one and are flagged dead.
func (s *Session) resolve(now float64) []core.SubjectFrame {
	jumped := s.discontinuity
	s.discontinuity = false
	if jumped {
		s.trails.Reset()
	}
	clear(s.live)

	out := make([]core.SubjectFrame, 0, len(s.ids))
	for _, id := range s.ids {
		subject, _ := s.subjects.Get(id)
		sf := core.SubjectFrame{Subject: subject}

		pose, live, ok := s.interp.ResolveAt(id, now)
		if !ok {
			s.trails.Clear(id)
			out = append(out, sf)
			continue
		}
		if !live {
			// A fast tick can step over the last live sample entirely, so the
			// cached position is taken from the recording, not from earlier ticks.
			last, found := s.interp.LastLiveAt(id, now)
			s.subjects.Seed(id, last.Position, found)
		}

		r := s.subjects.Resolve(id, pose, live)

		p := pose
		sf.Pose = &p
		sf.HasData = true
		sf.Dead = r.Dead
		sf.HasPosition = r.HasPosition
		if r.HasPosition {
			sf.RenderPosition = geo.ToRender(r.Position)
		}
		if live {
			s.live[id] = camera.Target{Position: pose.Position, Yaw: pose.FacingYaw}
			s.trails.Push(id, sf.RenderPosition)
		} else {
			s.trails.Clear(id)
		}
		sf.Trail = s.trails.Get(id)
		out = append(out, sf)
	}
	return out
}

// target feeds the camera this tick's live poses.
func (s *Session) target(id string) (camera.Target, bool) {
	t, ok := s.live[id]
	return t, ok
}
