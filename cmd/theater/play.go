package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/carnagereport/theater/internal/api"
	"github.com/carnagereport/theater/internal/config"
	"github.com/carnagereport/theater/internal/dispatcher"
	"github.com/carnagereport/theater/internal/influx"
	"github.com/carnagereport/theater/internal/logging"
	"github.com/carnagereport/theater/internal/monitor"
	"github.com/carnagereport/theater/internal/session"
	"github.com/carnagereport/theater/internal/storage"
	"github.com/carnagereport/theater/internal/storage/csvfile"
	"github.com/carnagereport/theater/internal/storage/ocap"
	"github.com/carnagereport/theater/internal/stream"
	"github.com/carnagereport/theater/internal/telemetry"
	"github.com/carnagereport/theater/internal/tui"
	"github.com/carnagereport/theater/pkg/core"
	"github.com/carnagereport/theater/pkg/streaming"
)

// errCannotReplay prefixes every failure to turn a replay into a session.
const errCannotReplay = "cannot replay this match"

// openSession loads a replay from src and builds a session over it with the
// configured playback, camera, input and render settings.
func openSession(ctx context.Context, src storage.Source, replayID string) (*session.Session, error) {
	feed, err := src.LoadFeed(ctx, replayID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCannotReplay, err)
	}
	store, err := telemetry.Load(feed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCannotReplay, err)
	}

	pb := config.GetPlaybackConfig()
	sess, err := session.New(store,
		session.WithReplayID(replayID),
		session.WithCamera(config.GetCameraConfig()),
		session.WithInput(config.GetInputConfig()),
		session.WithTrailLength(config.GetRenderConfig().TrailLength),
		session.WithDefaultSpeed(pb.DefaultSpeed),
		session.WithAutoplay(pb.Autoplay),
		session.WithLogger(SlogManager.BaseLogger()),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCannotReplay, err)
	}
	return sess, nil
}

func playFromSource(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger, replayID string, headless bool) error {
	src, err := createSource(cfg, log)
	if err != nil {
		return err
	}
	if err := src.Open(ctx); err != nil {
		return fmt.Errorf("%s: opening %s source: %w", errCannotReplay, cfg.Type, err)
	}
	defer src.Close()

	sess, err := openSession(ctx, src, replayID)
	if err != nil {
		return err
	}
	activeSession.Store(sess)
	defer activeSession.Store(nil)

	p := &player{sess: sess}
	if err := p.setup(ctx, headless); err != nil {
		p.teardown()
		return err
	}
	defer p.teardown()

	return p.loop(ctx, config.GetPlaybackConfig().FPS)
}

// player owns everything attached to a running session.
type player struct {
	sess     *session.Session
	monitor  *monitor.Service
	dispatch *dispatcher.Dispatcher
	host     *tui.Host
	pub      *stream.Publisher
	metrics  *influx.Manager
	sink     *influx.Sink

	lines  chan string
	done   chan struct{}
	remote <-chan string
	out    io.Writer
}

func (p *player) setup(ctx context.Context, headless bool) error {
	sessionID := p.sess.ID().String()
	replayID := p.sess.ReplayID()

	p.monitor = monitor.NewService(monitor.Dependencies{
		Logger:    Logger,
		SessionID: sessionID,
		ReplayID:  replayID,
		OutputDir: viper.GetString("logsDir"),
		Dropped:   p.sess.DroppedCommands,
	})
	if err := p.monitor.Start(); err != nil {
		Logger.Warn("Status monitor not started", "error", err)
	}

	d, err := dispatcher.New(logging.NewCommandLogger(
		logging.NewZerolog(zerologOutput(), viper.GetString("logLevel"), "dispatcher")))
	if err != nil {
		return err
	}
	dispatcher.RegisterConsole(d, p.sess, p.monitor.Status)
	p.dispatch = d

	if sc := config.GetStreamConfig(); sc.Enabled {
		checkServerStatus(ctx, sc)
		p.pub = stream.New(stream.Config{URL: sc.URL, Secret: sc.Secret, Every: sc.Every}, Logger)
		if err := p.pub.Connect(); err != nil {
			Logger.Warn("Frame stream unavailable", "url", sc.URL, "error", err)
			p.pub = nil
		} else {
			b := p.sess.Store().Bounds()
			err := p.pub.StartReplay(streaming.StartReplayPayload{
				SessionID:   sessionID,
				ReplayID:    replayID,
				StartTimeMs: b.MinTimeMs,
				DurationMs:  b.DurationMs(),
				Subjects:    p.sess.Subjects(),
			})
			if err != nil {
				Logger.Warn("Render adapter did not acknowledge start_replay", "error", err)
			}
			p.remote = p.pub.Commands()
		}
	}

	if ic := config.GetInfluxConfig(); ic.Enabled {
		ilog := logging.NewZerolog(zerologOutput(), viper.GetString("logLevel"), "influx")
		backup := filepath.Join(viper.GetString("logsDir"), influx.BackupFileName)
		p.metrics = influx.NewManager(ic, ilog, backup)
		if err := p.metrics.Connect(ctx); err != nil {
			Logger.Warn("Playback metrics disabled", "error", err)
			p.metrics = nil
		} else {
			p.sink = influx.NewSink(p.metrics, sessionID, replayID, ic.Every, ilog)
		}
	}

	p.lines = make(chan string, 16)
	if headless {
		p.out = os.Stdout
		p.done = make(chan struct{})
		go readLines(p.done, os.Stdin, p.lines)
		return nil
	}

	host, err := tui.NewTerminal()
	if err != nil {
		return fmt.Errorf("starting terminal host: %w", err)
	}
	p.host = host
	go host.Run()
	return nil
}

// checkServerStatus logs whether the render adapter's server answers its
// health check. Streaming is attempted either way.
func checkServerStatus(ctx context.Context, sc config.StreamConfig) {
	base, err := api.BaseURLFromWebSocket(sc.URL)
	if err != nil {
		Logger.Warn("Cannot derive server address from stream url", "url", sc.URL, "error", err)
		return
	}
	if err := api.New(base, sc.Secret).Healthcheck(ctx); err != nil {
		Logger.Warn("Render adapter server is not healthy", "url", base, "error", err)
		return
	}
	Logger.Info("Render adapter server is healthy", "url", base)
}

func (p *player) teardown() {
	if p.done != nil {
		close(p.done)
		p.done = nil
	}
	if p.host != nil {
		p.host.Close()
	}
	if p.pub != nil {
		if err := p.pub.EndReplay(); err != nil {
			Logger.Warn("Render adapter did not acknowledge end_replay", "error", err)
		}
		_ = p.pub.Close()
	}
	if p.metrics != nil {
		if err := p.metrics.Close(); err != nil {
			Logger.Warn("Failed to close playback metrics", "error", err)
		}
	}
	if p.monitor != nil {
		p.monitor.Stop()
	}
}

// loop ticks the session at fps until the context ends or the user quits.
func (p *player) loop(ctx context.Context, fps int) error {
	if fps <= 0 {
		fps = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	var quit <-chan struct{}
	if p.host != nil {
		quit = p.host.Done()
	}

	Logger.Info("Playback started", "fps", fps)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			Logger.Info("Playback interrupted")
			return nil
		case <-quit:
			Logger.Info("Playback closed by user")
			return nil
		case line, ok := <-p.lines:
			if !ok {
				p.lines = nil
				continue
			}
			p.console(line)
		case line := <-p.remote:
			p.console(line)
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			p.tick(dt)
		}
	}
}

func (p *player) tick(dt float64) {
	if p.host != nil {
		p.host.Pump(p.sess.Router())
	}
	frame := p.sess.Tick(dt)
	p.present(frame)
}

// present hands a frame to every consumer attached to the session.
func (p *player) present(frame core.Frame) {
	p.monitor.Observe(frame)
	if p.host != nil {
		p.host.Draw(frame)
	}
	if p.pub != nil {
		if _, err := p.pub.Publish(frame); err != nil {
			Logger.Warn("Failed to publish frame", "seq", frame.Seq, "error", err)
		}
	}
	if p.sink != nil {
		p.sink.Observe(frame)
	}
}

// console runs a console line. Results are printed in headless mode and
// logged otherwise.
func (p *player) console(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	result, err := p.dispatch.DispatchLine(line)
	if err != nil {
		Logger.Warn("Console command failed", "line", line, "error", err)
		if p.out != nil {
			fmt.Fprintln(p.out, "error:", err)
		}
		return
	}
	if p.out == nil {
		return
	}
	switch v := result.(type) {
	case string:
		fmt.Fprintln(p.out, v)
	default:
		raw, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			fmt.Fprintln(p.out, v)
			return
		}
		fmt.Fprintln(p.out, string(raw))
	}
}

// readLines forwards lines from r until EOF or until done is closed, then
// closes out.
func readLines(done <-chan struct{}, r io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case out <- scanner.Text():
		case <-done:
			return
		}
	}
}

// importReplay copies a replay file into the configured database source.
func importReplay(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger, path, replayID string, out io.Writer) error {
	if replayID == "" {
		replayID = replayIDFromPath(path)
	}

	var reader storage.Source
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".json"), strings.HasSuffix(lower, ".json.gz"):
		reader = ocap.New(filepath.Dir(path), log)
	default:
		reader = csvfile.New(filepath.Dir(path), log)
	}
	if err := reader.Open(ctx); err != nil {
		return err
	}
	defer reader.Close()

	feed, err := reader.LoadFeed(ctx, filepath.Base(path))
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	store, err := telemetry.Load(feed)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	dst, err := createSource(cfg, log)
	if err != nil {
		return err
	}
	importer, ok := dst.(storage.Importer)
	if !ok {
		return fmt.Errorf("%s source cannot store replays", cfg.Type)
	}
	if err := dst.Open(ctx); err != nil {
		return fmt.Errorf("opening %s source: %w", cfg.Type, err)
	}
	defer dst.Close()

	var samples []core.Sample
	for _, id := range store.Subjects() {
		samples = append(samples, store.SamplesFor(id)...)
	}
	if err := importer.Import(ctx, replayID, filepath.Base(path), samples); err != nil {
		return err
	}

	fmt.Fprintf(out, "imported %s: %d subjects, %d samples\n", replayID, len(store.Subjects()), len(samples))
	return nil
}
