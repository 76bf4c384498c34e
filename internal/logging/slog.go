package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// DefaultServiceName is the otelslog instrumentation scope when none is set.
const DefaultServiceName = "theater"

// swapped by tests
var (
	osStdout io.Writer = os.Stdout
	osPipe             = os.Pipe
)

// SetupOption adds an optional sink or decoration to Setup.
type SetupOption func(*setupConfig)

type setupConfig struct {
	serviceName string
	graylog     io.Writer
	context     ContextProvider
}

// WithServiceName sets the otelslog instrumentation scope.
func WithServiceName(name string) SetupOption {
	return func(c *setupConfig) { c.serviceName = name }
}

// WithGraylog adds a JSON handler writing to a GELF writer.
func WithGraylog(w io.Writer) SetupOption {
	return func(c *setupConfig) { c.graylog = w }
}

// WithContext injects the provider's attributes into every record.
func WithContext(p ContextProvider) SetupOption {
	return func(c *setupConfig) { c.context = p }
}

// SlogManager manages slog-based logging with optional OTel integration.
type SlogManager struct {
	logger *slog.Logger
	base   *slog.Logger

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the logging system. Records go to file when one is
// given and to stdout otherwise, since the terminal host owns the screen.
// If provider is nil, OTel logging is disabled.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider, opts ...SetupOption) {
	cfg := setupConfig{serviceName: DefaultServiceName}
	for _, opt := range opts {
		opt(&cfg)
	}

	lvl := parseLevel(level)
	m.logProvider = provider

	// Common handler options with RFC3339 time formatting
	handlerOpts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}

	var handlers []slog.Handler

	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, handlerOpts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(osStdout, handlerOpts))
	}

	if cfg.graylog != nil {
		handlers = append(handlers, slog.NewJSONHandler(cfg.graylog, handlerOpts))
	}

	if provider != nil {
		otelHandler := otelslog.NewHandler(cfg.serviceName, otelslog.WithLoggerProvider(provider))
		handlers = append(handlers, otelHandler)
	}

	multi := NewMultiHandler(handlers...)
	m.base = slog.New(multi)

	var handler slog.Handler = multi
	if cfg.context != nil {
		handler = NewContextHandler(handler, cfg.context)
	}

	m.logger = slog.New(handler)
	m.logger.Info("Logging initialized", "level", level)
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		// Return a default logger if Setup hasn't been called
		return slog.Default()
	}
	return m.logger
}

// BaseLogger returns the configured logger without the context provider,
// for components that attach the same attributes themselves.
func (m *SlogManager) BaseLogger() *slog.Logger {
	if m.base == nil {
		return m.Logger()
	}
	return m.base
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}

// WriteLog writes a log entry with the specified function name, data, and level.
func (m *SlogManager) WriteLog(functionName, data, level string) {
	if m.logger == nil {
		return
	}

	m.logger.Log(context.Background(), parseLevel(level), data, "function", functionName)
}
