package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
	return dir
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := writeConfig(t, `{
		"logLevel": "debug",
		"storage": { "type": "ocap" },
		"db": { "host": "10.0.0.1", "port": "5433" }
	}`)

	require.NoError(t, Load(dir))

	assert.Equal(t, "debug", viper.GetString("logLevel"))
	assert.Equal(t, "ocap", viper.GetString("storage.type"))
	assert.Equal(t, "10.0.0.1", viper.GetString("db.host"))
	assert.Equal(t, "5433", viper.GetString("db.port"))
}

func TestLoad_DefaultValues(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	assert.Equal(t, "info", viper.GetString("logLevel"))
	assert.Equal(t, "./theaterlogs", viper.GetString("logsDir"))
	assert.Equal(t, 60, viper.GetInt("playback.fps"))
	assert.Equal(t, 32, viper.GetInt("render.trailLength"))
	assert.Equal(t, "csv", viper.GetString("storage.type"))
	assert.Equal(t, "./replays", viper.GetString("storage.csv.dir"))
	assert.Equal(t, false, viper.GetBool("graylog.enabled"))
	assert.Equal(t, "localhost:12201", viper.GetString("graylog.address"))
	assert.Equal(t, false, viper.GetBool("stream.enabled"))
	assert.Equal(t, false, viper.GetBool("influx.enabled"))
}

func TestLoad_MissingFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	err := Load("/nonexistent/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestLoadDefaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	LoadDefaults()
	assert.Equal(t, 1.0, GetPlaybackConfig().DefaultSpeed)
}

func TestGetters(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Set("testKey", "testValue")
	viper.Set("testInt", 42)
	viper.Set("testBool", true)

	assert.Equal(t, "testValue", GetString("testKey"))
	assert.Equal(t, 42, GetInt("testInt"))
	assert.Equal(t, true, GetBool("testBool"))
}

func TestGetPlaybackConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{
		"playback": { "defaultSpeed": 2, "fps": 30, "autoplay": false }
	}`)))

	pc := GetPlaybackConfig()
	assert.Equal(t, 2.0, pc.DefaultSpeed)
	assert.Equal(t, 30, pc.FPS)
	assert.False(t, pc.Autoplay)
}

func TestGetCameraConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	cc := GetCameraConfig()
	assert.Equal(t, 6.0, cc.FollowDistance)
	assert.Equal(t, 2.0, cc.FollowHeight)
	assert.Equal(t, 0.1, cc.Damping)
	assert.Equal(t, 150.0, cc.TopHeight)
	assert.Equal(t, 40.0, cc.OrbitRadius)
}

func TestGetInputConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{
		"input": { "deadzone": 0.25, "skipSeconds": 10 },
		"camera": { "sprintMultiplier": 4 }
	}`)))

	ic := GetInputConfig()
	assert.Equal(t, 0.25, ic.Deadzone)
	assert.Equal(t, 10.0, ic.SkipSeconds)
	assert.Equal(t, 4.0, ic.SprintMultiplier)
	assert.Equal(t, 8.0, ic.FastForwardMax)
}

func TestGetStorageConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	sc := GetStorageConfig()
	assert.Equal(t, "csv", sc.Type)
	assert.Equal(t, "./replays", sc.CSV.Dir)
	assert.Equal(t, "./recordings", sc.OCAP.Dir)
	assert.Equal(t, "./theater.db", sc.SQLite.Path)
	assert.Equal(t, 8, sc.Memory.Subjects)
	assert.Equal(t, 5*time.Minute, sc.Memory.Duration)
	assert.Equal(t, "theater", sc.Postgres.Database)
	assert.Equal(t, "disable", sc.Postgres.SSLMode)
}

func TestGetStorageConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{
		"storage": {
			"type": "sqlite",
			"sqlite": { "path": "/tmp/matches.db" }
		},
		"db": { "database": "stats" }
	}`)))

	sc := GetStorageConfig()
	assert.Equal(t, "sqlite", sc.Type)
	assert.Equal(t, "/tmp/matches.db", sc.SQLite.Path)
	assert.Equal(t, "stats", sc.Postgres.Database)
}

func TestGetStreamConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{
		"stream": { "enabled": true, "url": "ws://example:9000/ws", "secret": "s3cret", "every": 4 }
	}`)))

	sc := GetStreamConfig()
	assert.True(t, sc.Enabled)
	assert.Equal(t, "ws://example:9000/ws", sc.URL)
	assert.Equal(t, "s3cret", sc.Secret)
	assert.Equal(t, 4, sc.Every)
}

func TestGetInfluxConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	ic := GetInfluxConfig()
	assert.False(t, ic.Enabled)
	assert.Equal(t, "8086", ic.Port)
	assert.Equal(t, "playback", ic.Bucket)
	assert.Equal(t, 60, ic.Every)
}

func TestGetOTelConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{}`)))

	cfg := GetOTelConfig()
	assert.Equal(t, false, cfg.Enabled)
	assert.Equal(t, "theater", cfg.ServiceName)
	assert.Equal(t, 5*time.Second, cfg.BatchTimeout)
	assert.Equal(t, "", cfg.Endpoint)
	assert.Equal(t, true, cfg.Insecure)
}

func TestGetOTelConfig_Override(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(writeConfig(t, `{
		"otel": {
			"enabled": true,
			"serviceName": "my-service",
			"batchTimeout": "30s",
			"endpoint": "localhost:4317",
			"insecure": false
		}
	}`)))

	oc := GetOTelConfig()
	assert.Equal(t, true, oc.Enabled)
	assert.Equal(t, "my-service", oc.ServiceName)
	assert.Equal(t, 30*time.Second, oc.BatchTimeout)
	assert.Equal(t, "localhost:4317", oc.Endpoint)
	assert.Equal(t, false, oc.Insecure)
}
