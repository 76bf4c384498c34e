package main

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/carnagereport/theater/internal/config"
	"github.com/carnagereport/theater/internal/storage"
	"github.com/carnagereport/theater/internal/storage/csvfile"
	"github.com/carnagereport/theater/internal/storage/memory"
	"github.com/carnagereport/theater/internal/storage/ocap"
	pgstorage "github.com/carnagereport/theater/internal/storage/postgres"
	sqlitestorage "github.com/carnagereport/theater/internal/storage/sqlite"
)

// createSource picks the telemetry source named by storage.type.
func createSource(storageCfg config.StorageConfig, log zerolog.Logger) (storage.Source, error) {
	switch storageCfg.Type {
	case "csv", "":
		return csvfile.New(storageCfg.CSV.Dir, log), nil

	case "ocap":
		return ocap.New(storageCfg.OCAP.Dir, log), nil

	case "sqlite":
		return sqlitestorage.New(sqlitestorage.Config{
			Path: storageCfg.SQLite.Path,
		}, log), nil

	case "postgres":
		return pgstorage.New(storageCfg.Postgres, log), nil

	case "memory":
		return demoSource(storageCfg.Memory), nil

	default:
		return nil, fmt.Errorf("unknown storage type %q", storageCfg.Type)
	}
}

// demoSource is a memory source holding the synthetic match.
func demoSource(cfg config.MemoryConfig) *memory.Source {
	src := memory.New()
	src.Add(memory.SyntheticID, memory.Synthetic(cfg.Subjects, cfg.Duration))
	return src
}
