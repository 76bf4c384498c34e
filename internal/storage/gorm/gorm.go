// Package gormstorage reads and writes replay telemetry in the telemetry_samples table
// through GORM. The sqlite and postgres sources wrap it and only differ in how
// they connect.
package gormstorage

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/carnagereport/theater/internal/database"
	"github.com/carnagereport/theater/internal/storage"
	"github.com/carnagereport/theater/internal/telemetry"
	"github.com/carnagereport/theater/pkg/core"
)

// Dependencies holds all dependencies for the GORM source.
type Dependencies struct {
	DB     *gorm.DB
	Logger zerolog.Logger
}

// Backend loads feeds from a connected database.
type Backend struct {
	deps Dependencies
}

// New creates a new GORM source backend.
func New(deps Dependencies) *Backend {
	return &Backend{deps: deps}
}

// LoadFeed reads all samples of a replay ordered by time and insertion.
func (b *Backend) LoadFeed(ctx context.Context, replayID string) (telemetry.Feed, error) {
	var rows []database.TelemetrySample
	err := b.deps.DB.WithContext(ctx).
		Where("replay_id = ?", replayID).
		Order("game_time_ms, id").
		Find(&rows).Error
	if err != nil {
		return telemetry.Feed{}, fmt.Errorf("querying samples for %s: %w", replayID, err)
	}
	if len(rows) == 0 {
		return telemetry.Feed{}, fmt.Errorf("%w: %s", storage.ErrReplayNotFound, replayID)
	}

	samples := make([]core.Sample, 0, len(rows))
	for _, row := range rows {
		samples = append(samples, toSample(row))
	}

	b.deps.Logger.Info().Str("replay", replayID).Int("rows", len(samples)).Msg("Loaded feed from database")
	return storage.FeedFromSamples(samples), nil
}

// ListReplays returns the ids of replays that have samples.
func (b *Backend) ListReplays(ctx context.Context) ([]string, error) {
	var ids []string
	err := b.deps.DB.WithContext(ctx).
		Model(&database.TelemetrySample{}).
		Distinct("replay_id").
		Order("replay_id").
		Pluck("replay_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("listing replays: %w", err)
	}
	return ids, nil
}

// Replay returns the replays row for id.
func (b *Backend) Replay(ctx context.Context, id string) (database.Replay, error) {
	var r database.Replay
	err := b.deps.DB.WithContext(ctx).First(&r, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r, fmt.Errorf("%w: %s", storage.ErrReplayNotFound, id)
	}
	return r, err
}

// importBatchSize is the number of sample rows per INSERT.
const importBatchSize = 1000

// Import stores samples under replayID in one transaction, replacing any
// earlier copy of the replay.
func (b *Backend) Import(ctx context.Context, replayID, name string, samples []core.Sample) error {
	if replayID == "" {
		return errors.New("import: empty replay id")
	}

	subjects := make(map[string]struct{})
	rows := make([]database.TelemetrySample, 0, len(samples))
	for _, s := range samples {
		subjects[s.SubjectID] = struct{}{}
		rows = append(rows, toRow(replayID, s))
	}

	replay := database.Replay{
		ID:       replayID,
		Name:     name,
		Metadata: datatypes.JSON(fmt.Sprintf(`{"subjects":%d,"samples":%d}`, len(subjects), len(rows))),
	}

	err := b.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("replay_id = ?", replayID).Delete(&database.TelemetrySample{}).Error; err != nil {
			return fmt.Errorf("clearing samples: %w", err)
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "metadata"}),
		}).Create(&replay).Error
		if err != nil {
			return fmt.Errorf("saving replay: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(rows, importBatchSize).Error; err != nil {
			return fmt.Errorf("saving samples: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("importing %s: %w", replayID, err)
	}

	b.deps.Logger.Info().Str("replay", replayID).Int("rows", len(rows)).
		Int("subjects", len(subjects)).Msg("Imported replay")
	return nil
}

func toRow(replayID string, s core.Sample) database.TelemetrySample {
	return database.TelemetrySample{
		ReplayID:    replayID,
		PlayerName:  s.SubjectID,
		GameTimeMs:  s.TimeMs,
		X:           s.Position.X,
		Y:           s.Position.Y,
		Z:           s.Position.Z,
		Team:        string(s.Team),
		FacingYaw:   s.FacingYaw,
		FacingPitch: s.FacingPitch,
		Crouching:   s.Crouching,
		Airborne:    s.Airborne,
		Weapon:      s.Weapon,
	}
}

func toSample(row database.TelemetrySample) core.Sample {
	return core.Sample{
		SubjectID:   row.PlayerName,
		Team:        core.ParseTeam(row.Team),
		TimeMs:      row.GameTimeMs,
		Position:    core.Position3D{X: row.X, Y: row.Y, Z: row.Z},
		FacingYaw:   row.FacingYaw,
		FacingPitch: row.FacingPitch,
		Crouching:   row.Crouching,
		Airborne:    row.Airborne,
		Weapon:      row.Weapon,
	}
}
