package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/carnagereport/theater/internal/camera"
	"github.com/carnagereport/theater/internal/input"
)

// FileName is the config file looked up in the config directory.
const FileName = "theater.cfg.json"

// PlaybackConfig holds playback clock settings
type PlaybackConfig struct {
	DefaultSpeed float64 `json:"defaultSpeed" mapstructure:"defaultSpeed"`
	FPS          int     `json:"fps" mapstructure:"fps"`
	Autoplay     bool    `json:"autoplay" mapstructure:"autoplay"`
}

// RenderConfig holds settings for what is handed to the render adapter
type RenderConfig struct {
	TrailLength int `json:"trailLength" mapstructure:"trailLength"`
}

// CSVConfig holds CSV telemetry source settings
type CSVConfig struct {
	Dir string `json:"dir" mapstructure:"dir"`
}

// OCAPConfig holds OCAP recording source settings
type OCAPConfig struct {
	Dir string `json:"dir" mapstructure:"dir"`
}

// SQLiteConfig holds SQLite source settings
type SQLiteConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// MemoryConfig holds settings for the synthetic in-memory demo feed
type MemoryConfig struct {
	Subjects int           `json:"subjects" mapstructure:"subjects"`
	Duration time.Duration `json:"duration" mapstructure:"duration"`
}

// DBConfig holds Postgres connection settings
type DBConfig struct {
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	Database string `json:"database" mapstructure:"database"`
	SSLMode  string `json:"sslmode" mapstructure:"sslmode"`
}

// StorageConfig selects and configures the telemetry source
type StorageConfig struct {
	Type     string       `json:"type" mapstructure:"type"`
	CSV      CSVConfig    `json:"csv" mapstructure:"csv"`
	OCAP     OCAPConfig   `json:"ocap" mapstructure:"ocap"`
	SQLite   SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
	Memory   MemoryConfig `json:"memory" mapstructure:"memory"`
	Postgres DBConfig     `json:"db" mapstructure:"db"`
}

// StreamConfig holds frame stream settings
type StreamConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	URL     string `json:"url" mapstructure:"url"`
	Secret  string `json:"secret" mapstructure:"secret"`
	// Every sends one frame out of every N ticks.
	Every int `json:"every" mapstructure:"every"`
}

// InfluxConfig holds InfluxDB playback metrics settings
type InfluxConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Host     string `json:"host" mapstructure:"host"`
	Port     string `json:"port" mapstructure:"port"`
	Protocol string `json:"protocol" mapstructure:"protocol"`
	Token    string `json:"token" mapstructure:"token"`
	Org      string `json:"org" mapstructure:"org"`
	Bucket   string `json:"bucket" mapstructure:"bucket"`
	// Every writes one point out of every N ticks.
	Every int `json:"every" mapstructure:"every"`
}

// GraylogConfig holds GELF log sink settings
type GraylogConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Address string `json:"address" mapstructure:"address"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./theaterlogs")

	viper.SetDefault("playback.defaultSpeed", 1.0)
	viper.SetDefault("playback.fps", 60)
	viper.SetDefault("playback.autoplay", true)

	cam := camera.DefaultConfig()
	viper.SetDefault("camera.followDistance", cam.FollowDistance)
	viper.SetDefault("camera.followHeight", cam.FollowHeight)
	viper.SetDefault("camera.damping", cam.Damping)
	viper.SetDefault("camera.moveSpeed", cam.MoveSpeed)
	viper.SetDefault("camera.sprintMultiplier", cam.SprintMultiplier)
	viper.SetDefault("camera.topHeight", cam.TopHeight)
	viper.SetDefault("camera.orbitRadius", cam.OrbitRadius)
	viper.SetDefault("camera.minOrbitRadius", cam.MinOrbitRadius)
	viper.SetDefault("camera.maxOrbitRadius", cam.MaxOrbitRadius)
	viper.SetDefault("camera.zoomSpeed", cam.ZoomSpeed)

	in := input.DefaultConfig()
	viper.SetDefault("input.deadzone", in.Deadzone)
	viper.SetDefault("input.mouseSensitivity", in.MouseSensitivity)
	viper.SetDefault("input.gamepadLookSpeed", in.GamepadLookSpeed)
	viper.SetDefault("input.fastForwardMax", in.FastForwardMax)
	viper.SetDefault("input.skipSeconds", in.SkipSeconds)

	viper.SetDefault("render.trailLength", 32)

	viper.SetDefault("storage.type", "csv")
	viper.SetDefault("storage.csv.dir", "./replays")
	viper.SetDefault("storage.ocap.dir", "./recordings")
	viper.SetDefault("storage.sqlite.path", "./theater.db")
	viper.SetDefault("storage.memory.subjects", 8)
	viper.SetDefault("storage.memory.duration", "5m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "theater")
	viper.SetDefault("db.sslmode", "disable")

	viper.SetDefault("stream.enabled", false)
	viper.SetDefault("stream.url", "ws://localhost:5000/api/v1/theater/ws")
	viper.SetDefault("stream.secret", "")
	viper.SetDefault("stream.every", 2)

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "theater-metrics")
	viper.SetDefault("influx.bucket", "playback")
	viper.SetDefault("influx.every", 60)

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "theater")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// LoadDefaults sets default values without reading a file, for running
// without a config directory.
func LoadDefaults() {
	setDefaults()
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetPlaybackConfig returns the playback clock configuration.
func GetPlaybackConfig() PlaybackConfig {
	return PlaybackConfig{
		DefaultSpeed: viper.GetFloat64("playback.defaultSpeed"),
		FPS:          viper.GetInt("playback.fps"),
		Autoplay:     viper.GetBool("playback.autoplay"),
	}
}

// GetCameraConfig returns the camera tunables.
func GetCameraConfig() camera.Config {
	return camera.Config{
		FollowDistance:   viper.GetFloat64("camera.followDistance"),
		FollowHeight:     viper.GetFloat64("camera.followHeight"),
		Damping:          viper.GetFloat64("camera.damping"),
		MoveSpeed:        viper.GetFloat64("camera.moveSpeed"),
		SprintMultiplier: viper.GetFloat64("camera.sprintMultiplier"),
		TopHeight:        viper.GetFloat64("camera.topHeight"),
		OrbitRadius:      viper.GetFloat64("camera.orbitRadius"),
		MinOrbitRadius:   viper.GetFloat64("camera.minOrbitRadius"),
		MaxOrbitRadius:   viper.GetFloat64("camera.maxOrbitRadius"),
		ZoomSpeed:        viper.GetFloat64("camera.zoomSpeed"),
	}
}

// GetInputConfig returns the input router tunables. Sprint shares the
// camera setting so keyboard and trigger sprint agree.
func GetInputConfig() input.Config {
	cfg := input.DefaultConfig()
	cfg.Deadzone = viper.GetFloat64("input.deadzone")
	cfg.MouseSensitivity = viper.GetFloat64("input.mouseSensitivity")
	cfg.GamepadLookSpeed = viper.GetFloat64("input.gamepadLookSpeed")
	cfg.FastForwardMax = viper.GetFloat64("input.fastForwardMax")
	cfg.SkipSeconds = viper.GetFloat64("input.skipSeconds")
	cfg.SprintMultiplier = viper.GetFloat64("camera.sprintMultiplier")
	return cfg
}

// GetRenderConfig returns the render hand-off configuration.
func GetRenderConfig() RenderConfig {
	return RenderConfig{
		TrailLength: viper.GetInt("render.trailLength"),
	}
}

// GetStorageConfig returns the telemetry source configuration.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: viper.GetString("storage.type"),
		CSV: CSVConfig{
			Dir: viper.GetString("storage.csv.dir"),
		},
		OCAP: OCAPConfig{
			Dir: viper.GetString("storage.ocap.dir"),
		},
		SQLite: SQLiteConfig{
			Path: viper.GetString("storage.sqlite.path"),
		},
		Memory: MemoryConfig{
			Subjects: viper.GetInt("storage.memory.subjects"),
			Duration: viper.GetDuration("storage.memory.duration"),
		},
		Postgres: GetDBConfig(),
	}
}

// GetDBConfig returns the Postgres connection configuration.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:     viper.GetString("db.host"),
		Port:     viper.GetString("db.port"),
		Username: viper.GetString("db.username"),
		Password: viper.GetString("db.password"),
		Database: viper.GetString("db.database"),
		SSLMode:  viper.GetString("db.sslmode"),
	}
}

// GetStreamConfig returns the frame stream configuration.
func GetStreamConfig() StreamConfig {
	return StreamConfig{
		Enabled: viper.GetBool("stream.enabled"),
		URL:     viper.GetString("stream.url"),
		Secret:  viper.GetString("stream.secret"),
		Every:   viper.GetInt("stream.every"),
	}
}

// GetInfluxConfig returns the InfluxDB metrics configuration.
func GetInfluxConfig() InfluxConfig {
	return InfluxConfig{
		Enabled:  viper.GetBool("influx.enabled"),
		Host:     viper.GetString("influx.host"),
		Port:     viper.GetString("influx.port"),
		Protocol: viper.GetString("influx.protocol"),
		Token:    viper.GetString("influx.token"),
		Org:      viper.GetString("influx.org"),
		Bucket:   viper.GetString("influx.bucket"),
		Every:    viper.GetInt("influx.every"),
	}
}

// GetGraylogConfig returns the GELF sink configuration.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}

// GetOTelConfig returns the OpenTelemetry configuration.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}
