package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/carnagereport/theater/pkg/core"
)

// StatusFileName is written into Dependencies.OutputDir while the monitor runs.
const StatusFileName = "status.txt"

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Logger    *slog.Logger
	SessionID string
	ReplayID  string
	OutputDir string
	Interval  time.Duration
	// Dropped reports commands the session refused because its queue was full.
	Dropped func() uint64
}

// Status is a point-in-time summary of playback
type Status struct {
	Time            time.Time        `json:"time"`
	SessionID       string           `json:"sessionId"`
	ReplayID        string           `json:"replayId"`
	Seq             uint64           `json:"seq"`
	Clock           core.ClockStatus `json:"clock"`
	CameraMode      core.CameraMode  `json:"cameraMode"`
	FollowID        string           `json:"followId,omitempty"`
	Subjects        int              `json:"subjects"`
	Alive           int              `json:"alive"`
	Dead            int              `json:"dead"`
	DroppedCommands uint64           `json:"droppedCommands"`
}

// Service keeps the latest frame summary for the console and the status file
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	status    Status
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
		status: Status{
			SessionID: deps.SessionID,
			ReplayID:  deps.ReplayID,
		},
	}
}

// Observe records the summary of a rendered frame.
func (s *Service) Observe(f core.Frame) {
	st := Status{
		Time:       time.Now(),
		SessionID:  s.deps.SessionID,
		ReplayID:   s.deps.ReplayID,
		Seq:        f.Seq,
		Clock:      f.Clock,
		CameraMode: f.Camera.Mode,
		FollowID:   f.Camera.FollowID,
		Subjects:   len(f.Subjects),
	}
	for _, sf := range f.Subjects {
		switch {
		case sf.Dead:
			st.Dead++
		case sf.HasPosition:
			st.Alive++
		}
	}
	if s.deps.Dropped != nil {
		st.DroppedCommands = s.deps.Dropped()
	}

	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

// Status returns the last observed summary.
func (s *Service) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetProgramStatus returns the current status as printable lines
func (s *Service) GetProgramStatus() (output []string, st Status) {
	st = s.Status()

	output = append(output, fmt.Sprintf("%s %.0f/%d ms x%g playing=%t",
		st.ReplayID, st.Clock.CurrentTimeMs-float64(st.Clock.StartTimeMs), st.Clock.DurationMs,
		st.Clock.EffectiveSpeed, st.Clock.Playing))

	raw, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		raw = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
	}
	output = append(output, string(raw))

	return output, st
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if s.deps.OutputDir == "" {
		s.mu.Unlock()
		return fmt.Errorf("monitor: no output directory")
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	stop := s.stopChan
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.Logger
		logger.Debug("Starting status monitor goroutine", "function", "startStatusMonitor")

		statusFile, err := os.Create(filepath.Join(s.deps.OutputDir, StatusFileName))
		if err != nil {
			logger.Error("Error creating status file", "error", err)
			return
		}
		defer statusFile.Close()

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				lines, _ := s.GetProgramStatus()
				if err := writeStatus(statusFile, lines); err != nil {
					logger.Error("Error writing status file", "error", err)
				}
			}
		}
	}()

	return nil
}

func writeStatus(f *os.File, lines []string) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Stop stops the status monitor
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		close(s.stopChan)
		s.isRunning = false
	}
}
