package database

import (
	"time"

	"gorm.io/datatypes"
)

// Replay describes one recorded match.
type Replay struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string
	MapName   string
	PlayedAt  time.Time
	Metadata  datatypes.JSON
	CreatedAt time.Time
}

func (Replay) TableName() string { return "replays" }

// TelemetrySample is one row of a replay's telemetry. Column names match the
// CSV feed header so rows convert one to one.
type TelemetrySample struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	ReplayID    string `gorm:"index:idx_replay_time,priority:1;size:64"`
	PlayerName  string
	GameTimeMs  int64 `gorm:"index:idx_replay_time,priority:2"`
	X           float64
	Y           float64
	Z           float64
	Team        string
	FacingYaw   float64
	FacingPitch float64
	Crouching   bool
	Airborne    bool
	Weapon      string
}

func (TelemetrySample) TableName() string { return "telemetry_samples" }

// Models lists every table Migrate creates.
var Models = []any{&Replay{}, &TelemetrySample{}}
