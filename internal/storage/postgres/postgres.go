// Package postgres reads replays from a PostgreSQL database through the GORM
// source.
package postgres

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/carnagereport/theater/internal/config"
	"github.com/carnagereport/theater/internal/database"
	"github.com/carnagereport/theater/internal/storage"
	gormstorage "github.com/carnagereport/theater/internal/storage/gorm"
	"github.com/carnagereport/theater/internal/telemetry"
	"github.com/carnagereport/theater/pkg/core"
)

// Source connects on Open and reads through gormstorage.
type Source struct {
	cfg     config.DBConfig
	manager *database.Manager
	backend *gormstorage.Backend
	logger  zerolog.Logger
}

var (
	_ storage.Source   = (*Source)(nil)
	_ storage.Lister   = (*Source)(nil)
	_ storage.Importer = (*Source)(nil)
)

// New creates a new Postgres source.
func New(cfg config.DBConfig, logger zerolog.Logger) *Source {
	return &Source{
		cfg:     cfg,
		manager: database.NewManager(logger),
		logger:  logger,
	}
}

// Open connects to the server.
func (s *Source) Open(ctx context.Context) error {
	if s.cfg.Host == "" || s.cfg.Database == "" {
		return fmt.Errorf("postgres source: host and database are required")
	}
	if err := s.manager.ConnectPostgres(s.cfg); err != nil {
		return err
	}
	s.backend = gormstorage.New(gormstorage.Dependencies{DB: s.manager.DB, Logger: s.logger})
	return nil
}

// Close closes the connection pool.
func (s *Source) Close() error {
	s.backend = nil
	return s.manager.Close()
}

// LoadFeed reads a replay's samples.
func (s *Source) LoadFeed(ctx context.Context, replayID string) (telemetry.Feed, error) {
	if s.backend == nil {
		return telemetry.Feed{}, fmt.Errorf("postgres source not open")
	}
	return s.backend.LoadFeed(ctx, replayID)
}

// ListReplays lists replays that have samples.
func (s *Source) ListReplays(ctx context.Context) ([]string, error) {
	if s.backend == nil {
		return nil, fmt.Errorf("postgres source not open")
	}
	return s.backend.ListReplays(ctx)
}

// Import stores a replay's samples, creating the tables if needed.
func (s *Source) Import(ctx context.Context, replayID, name string, samples []core.Sample) error {
	if s.backend == nil {
		return fmt.Errorf("postgres source not open")
	}
	if err := s.manager.Migrate(); err != nil {
		return err
	}
	return s.backend.Import(ctx, replayID, name, samples)
}
