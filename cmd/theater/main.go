package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"github.com/carnagereport/theater/internal/config"
	"github.com/carnagereport/theater/internal/logging"
	intOtel "github.com/carnagereport/theater/internal/otel"
	"github.com/carnagereport/theater/internal/session"
	"github.com/carnagereport/theater/internal/storage"
	"github.com/carnagereport/theater/internal/storage/memory"
)

// BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "theater"
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// OTelProvider handles OpenTelemetry
	OTelProvider *intOtel.Provider

	LogFilePath string
	LogFile     *os.File

	graylogWriter io.Closer

	SessionStartTime time.Time = time.Now()

	// activeSession feeds the log context provider
	activeSession atomic.Pointer[session.Session]
)

const usageText = `usage: theater [flags] <command> [args]

commands:
  play <replay>          watch a replay from the configured source
  demo                   watch a synthetic match
  list                   list replays in the configured source
  import <file> [id]     copy a .csv or OCAP .json(.gz) replay into the sqlite/postgres source
  version                print the version

flags:
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet(AppName, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usageText)
		fs.PrintDefaults()
	}
	configDir := fs.String("config", ".", "directory containing "+config.FileName)
	storageType := fs.String("storage", "", "override storage.type (csv, ocap, sqlite, postgres, memory)")
	headless := fs.Bool("headless", false, "read console commands from stdin instead of drawing the map")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return 2
	}

	command := strings.ToLower(rest[0])
	if command == "version" {
		fmt.Printf("%s %s (%s)\n", AppName, CurrentVersion, BuildDate)
		return 0
	}

	logReplay, toFile := logFileReplay(command, rest)
	setupLogging(*configDir, logReplay, toFile)
	defer shutdown()

	if *storageType != "" {
		viper.Set("storage.type", *storageType)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storageCfg := config.GetStorageConfig()
	storageLog := logging.NewZerolog(zerologOutput(), viper.GetString("logLevel"), "storage")

	var err error
	switch command {
	case "play":
		if len(rest) < 2 {
			fmt.Fprintln(os.Stderr, "play: missing replay id")
			return 2
		}
		err = playFromSource(ctx, storageCfg, storageLog, rest[1], *headless)

	case "demo":
		storageCfg.Type = "memory"
		err = playFromSource(ctx, storageCfg, storageLog, memory.SyntheticID, *headless)

	case "list":
		err = listReplays(ctx, storageCfg, storageLog, os.Stdout)

	case "import":
		if len(rest) < 2 {
			fmt.Fprintln(os.Stderr, "import: missing file")
			return 2
		}
		id := ""
		if len(rest) > 2 {
			id = rest[2]
		}
		err = importReplay(ctx, storageCfg, storageLog, rest[1], id, os.Stdout)

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", rest[0])
		fs.Usage()
		return 2
	}

	if err != nil {
		Logger.Error("Command failed", "command", command, "error", err)
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// logFileReplay reports whether a command logs to a file, and for which
// replay. Only the viewing commands do.
func logFileReplay(command string, rest []string) (replayID string, toFile bool) {
	switch command {
	case "play":
		if len(rest) > 1 {
			return rest[1], true
		}
		return "", true
	case "demo":
		return memory.SyntheticID, true
	}
	return "", false
}

// setupLogging loads config and moves logging from stdout to the session log
// file. When toFile is false (list, import) records stay on stdout.
func setupLogging(configDir, replayID string, toFile bool) {
	// Initialize slog manager with initial config
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(configDir); err != nil {
		config.LoadDefaults()
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config", "dir", configDir)
	}

	var file io.Writer
	if toFile {
		file = openLogFile(replayID)
	}

	// Initialize OTel provider if enabled (after log file is created)
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		var err error
		OTelProvider, err = intOtel.New(intOtel.Config{
			Enabled:      otelCfg.Enabled,
			ServiceName:  otelCfg.ServiceName,
			Version:      CurrentVersion,
			BatchTimeout: otelCfg.BatchTimeout,
			LogWriter:    file,
			Endpoint:     otelCfg.Endpoint,
			Insecure:     otelCfg.Insecure,
		})
		if err != nil {
			Logger.Error("Failed to initialize OTel provider", "error", err)
		} else {
			Logger.Info("OTel provider initialized", "endpoint", otelCfg.Endpoint)
		}
	}

	serviceName := otelCfg.ServiceName
	if OTelProvider != nil {
		serviceName = OTelProvider.ServiceName()
	}
	opts := []logging.SetupOption{
		logging.WithServiceName(serviceName),
		logging.WithContext(func() []slog.Attr {
			if s := activeSession.Load(); s != nil {
				return s.LogAttrs()
			}
			return nil
		}),
	}

	if gl := config.GetGraylogConfig(); gl.Enabled {
		w, err := logging.NewGraylogWriter(gl.Address, AppName)
		if err != nil {
			Logger.Warn("Failed to connect to Graylog", "error", err)
		} else {
			graylogWriter = w
			opts = append(opts, logging.WithGraylog(w))
		}
	}

	// Re-setup logging with file output and optional OTel
	var otelLogProvider *sdklog.LoggerProvider
	if OTelProvider != nil {
		otelLogProvider = OTelProvider.LoggerProvider()
	}
	SlogManager.Setup(file, viper.GetString("logLevel"), otelLogProvider, opts...)
	Logger = SlogManager.Logger()
	if LogFile != nil {
		Logger.Info("Logging to file", "path", LogFilePath)
	}
}

// openLogFile creates the session log file, moving an earlier file with the
// same name aside. It returns nil when the file cannot be created.
func openLogFile(replayID string) io.Writer {
	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		Logger.Error("Failed to create logs directory", "error", err, "path", logsDir)
		return nil
	}

	LogFilePath = logging.LogFilePath(logsDir, AppName, replayID, SessionStartTime)
	if _, err := os.Stat(LogFilePath); err == nil {
		_ = os.Rename(LogFilePath, LogFilePath+".old")
	}

	f, err := os.OpenFile(LogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", LogFilePath)
		return nil
	}
	LogFile = f
	Logger.Info("Begin logging in logs directory", "path", LogFilePath)
	return f
}

// zerologOutput is where the zerolog based layers write.
func zerologOutput() io.Writer {
	if LogFile != nil {
		return LogFile
	}
	return os.Stderr
}

func shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if OTelProvider != nil {
		if err := OTelProvider.Shutdown(ctx); err != nil {
			Logger.Warn("Failed to shut down OTel provider", "error", err)
		}
	}
	if graylogWriter != nil {
		_ = graylogWriter.Close()
	}
	if LogFile != nil {
		_ = LogFile.Close()
	}
}

// listReplays prints the replay ids of the configured source.
func listReplays(ctx context.Context, cfg config.StorageConfig, log zerolog.Logger, out io.Writer) error {
	src, err := createSource(cfg, log)
	if err != nil {
		return err
	}
	if err := src.Open(ctx); err != nil {
		return fmt.Errorf("opening %s source: %w", cfg.Type, err)
	}
	defer src.Close()

	lister, ok := src.(storage.Lister)
	if !ok {
		return fmt.Errorf("%s source cannot list replays", cfg.Type)
	}
	ids, err := lister.ListReplays(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	return nil
}

// replayIDFromPath strips directories and the replay file extensions.
func replayIDFromPath(path string) string {
	name := filepath.Base(path)
	for _, ext := range []string{".gz", ".csv", ".json"} {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}
