package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"

	"github.com/carnagereport/theater/internal/config"
	"github.com/carnagereport/theater/pkg/core"
)

// Measurement is the measurement every playback point is written to.
const Measurement = "playback"

// BackupFileName is the gzip line-protocol file used when the server is down.
const BackupFileName = "playback_metrics.lp.gz"

// Manager handles the InfluxDB connection and playback point writes.
type Manager struct {
	Client       influxdb2.Client
	Writer       influxdb2_api.WriteAPI
	BackupWriter *gzip.Writer
	IsValid      bool
	Logger       zerolog.Logger
	BackupPath   string

	cfg        config.InfluxConfig
	backupFile io.Closer
	mu         sync.Mutex
}

// NewManager creates a new InfluxDB manager.
func NewManager(cfg config.InfluxConfig, log zerolog.Logger, backupPath string) *Manager {
	return &Manager{
		IsValid:    false,
		Logger:     log,
		BackupPath: backupPath,
		cfg:        cfg,
	}
}

// Connect establishes a connection to InfluxDB. When the server does not
// answer a ping, points go to the gzip backup file instead.
func (m *Manager) Connect(ctx context.Context) error {
	if !m.cfg.Enabled {
		return errors.New("influx.enabled is false")
	}

	m.Client = influxdb2.NewClientWithOptions(
		fmt.Sprintf("%s://%s:%s", m.cfg.Protocol, m.cfg.Host, m.cfg.Port),
		m.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	// validate client connection health
	running, err := m.Client.Ping(ctx)

	if err != nil || !running {
		m.IsValid = false
		if err := m.openBackup(); err != nil {
			return err
		}
		m.Logger.Warn().Str("backupPath", m.BackupPath).
			Msg("InfluxDB client failed to initialize, using backup writer")
		return nil
	}

	m.IsValid = true
	if err := m.setupOrganizationAndBucket(ctx); err != nil {
		return err
	}
	m.createWriter()
	m.Logger.Info().Str("bucket", m.cfg.Bucket).Msg("InfluxDB client initialized")
	return nil
}

func (m *Manager) openBackup() error {
	if m.BackupWriter != nil {
		return nil
	}
	if m.BackupPath == "" {
		return errors.New("influxdb unreachable and no backup path set")
	}
	file, err := os.OpenFile(m.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error creating backup file: %w", err)
	}
	m.backupFile = file
	m.BackupWriter = gzip.NewWriter(file)
	return nil
}

func (m *Manager) setupOrganizationAndBucket(ctx context.Context) error {
	orgName := m.cfg.Org

	// ensure org exists
	influxOrg, err := m.Client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		m.Logger.Info().Str("org", orgName).Msg("Organization not found, creating")
		influxOrg, err = m.Client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			m.Logger.Error().Err(err).Str("org", orgName).Msg("Error creating organization")
			return err
		}
	}

	// ensure bucket exists with 30 day retention
	if _, err := m.Client.BucketsAPI().FindBucketByName(ctx, m.cfg.Bucket); err != nil {
		m.Logger.Info().Str("bucket", m.cfg.Bucket).Msg("Bucket not found, creating")

		rule := domain.RetentionRuleTypeExpire
		_, err = m.Client.BucketsAPI().CreateBucketWithName(ctx, influxOrg, m.cfg.Bucket, domain.RetentionRule{
			Type:         &rule,
			EverySeconds: 60 * 60 * 24 * 30,
		})
		if err != nil {
			m.Logger.Error().Err(err).Str("bucket", m.cfg.Bucket).Msg("Error creating bucket")
			return err
		}
	}

	return nil
}

func (m *Manager) createWriter() {
	m.Writer = m.Client.WriteAPI(m.cfg.Org, m.cfg.Bucket)

	errorsCh := m.Writer.Errors()
	go func() {
		for writeErr := range errorsCh {
			m.Logger.Error().Err(writeErr).Str("bucket", m.cfg.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}()
}

// WritePoint writes a point to InfluxDB or the backup file.
func (m *Manager) WritePoint(point *influxdb2_write.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.IsValid {
		if m.Writer == nil {
			return fmt.Errorf("influxDB bucket '%s' not registered", m.cfg.Bucket)
		}
		m.Writer.WritePoint(point)
		return nil
	}

	if m.BackupWriter == nil {
		return fmt.Errorf("influxDB client not initialized and backup writer not available")
	}
	lineProtocol := influxdb2_write.PointToLineProtocol(point, time.Nanosecond)
	if _, err := m.BackupWriter.Write([]byte(lineProtocol + "\n")); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// Close flushes pending writes and releases the client and backup file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Writer != nil {
		m.Writer.Flush()
	}
	if m.Client != nil {
		m.Client.Close()
	}
	var err error
	if m.BackupWriter != nil {
		err = m.BackupWriter.Close()
		m.BackupWriter = nil
	}
	if m.backupFile != nil {
		if cerr := m.backupFile.Close(); err == nil {
			err = cerr
		}
		m.backupFile = nil
	}
	return err
}

// PlaybackPoint builds the point describing one frame of a session.
func PlaybackPoint(sessionID, replayID string, f core.Frame, at time.Time) *influxdb2_write.Point {
	var alive, dead int
	for _, sf := range f.Subjects {
		switch {
		case sf.Dead:
			dead++
		case sf.HasPosition:
			alive++
		}
	}

	p := influxdb2_write.NewPointWithMeasurement(Measurement).
		AddTag("session", sessionID).
		AddTag("replay", replayID).
		AddTag("cameraMode", string(f.Camera.Mode)).
		AddField("seq", int64(f.Seq)).
		AddField("playbackMs", f.Clock.CurrentTimeMs-float64(f.Clock.StartTimeMs)).
		AddField("durationMs", f.Clock.DurationMs).
		AddField("speed", f.Clock.EffectiveSpeed).
		AddField("playing", f.Clock.Playing).
		AddField("subjects", len(f.Subjects)).
		AddField("alive", alive).
		AddField("dead", dead).
		SetTime(at)
	if f.Camera.FollowID != "" {
		p.AddTag("follow", f.Camera.FollowID)
	}
	return p
}

// PointWriter is the part of Manager the sink needs.
type PointWriter interface {
	WritePoint(point *influxdb2_write.Point) error
}

// Sink writes one playback point out of every Every frames.
type Sink struct {
	w         PointWriter
	sessionID string
	replayID  string
	every     uint64
	frames    uint64
	logger    zerolog.Logger
	now       func() time.Time
}

// NewSink creates a sink for one session. every below 1 writes every frame.
func NewSink(w PointWriter, sessionID, replayID string, every int, log zerolog.Logger) *Sink {
	if every < 1 {
		every = 1
	}
	return &Sink{
		w:         w,
		sessionID: sessionID,
		replayID:  replayID,
		every:     uint64(every),
		logger:    log,
		now:       time.Now,
	}
}

// Observe counts a frame and writes a point when it is due. It reports
// whether a point was written.
func (s *Sink) Observe(f core.Frame) bool {
	s.frames++
	if (s.frames-1)%s.every != 0 {
		return false
	}
	if err := s.w.WritePoint(PlaybackPoint(s.sessionID, s.replayID, f, s.now())); err != nil {
		s.logger.Warn().Err(err).Uint64("seq", f.Seq).Msg("Failed to write playback point")
		return false
	}
	return true
}
