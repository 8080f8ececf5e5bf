package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Log logs the resolved settings in a granular way, skipping irrelevant ones
func Log(s *Settings) {
	LogWithLogger(s, slog.Default())
}

// LogWithLogger logs the resolved settings using the provided logger.
// Settings are logged at debug level so normal runs only show progress.
func LogWithLogger(s *Settings, logger *slog.Logger) {
	ctx := context.Background()
	logger.DebugContext(ctx, "Config: log_level", "value", s.LogLevel)
	logger.DebugContext(ctx, "Config: discover.extensions", "value", s.Discover.Extensions)
	if len(s.Discover.Exclude) > 0 {
		logger.DebugContext(ctx, "Config: discover.exclude", "value", s.Discover.Exclude)
	}

	logger.DebugContext(ctx, "Config: convert.quality", "value", s.Convert.Quality)
	logger.DebugContext(ctx, "Config: convert.widths", "value", s.Convert.Widths)
	logger.DebugContext(ctx, "Config: convert.concurrency", "value", s.Convert.Concurrency)

	logger.DebugContext(ctx, "Config: rewrite.prefix", "value", s.Rewrite.Prefix)
	if s.Rewrite.DestPrefix != "" {
		logger.DebugContext(ctx, "Config: rewrite.dest_prefix", "value", s.Rewrite.DestPrefix)
	}
	logger.DebugContext(ctx, "Config: rewrite.source_extensions", "value", s.Rewrite.SourceExtensions)
	if s.Rewrite.DryRun {
		logger.DebugContext(ctx, "Config: rewrite.dry_run", "value", true)
	}

	logger.DebugContext(ctx, "Config: catalog.dir", "value", s.Catalog.Dir)
}

// SettingsLogValue returns a slog.Value for Settings
func SettingsLogValue(s Settings) slog.Value {
	return slog.GroupValue(
		slog.String("log_level", s.LogLevel),
		slog.String("log_format", s.LogFormat),
		slog.Group("convert",
			slog.Int("quality", s.Convert.Quality),
			slog.Any("widths", s.Convert.Widths),
			slog.Int("concurrency", s.Convert.Concurrency),
		),
		slog.Group("rewrite",
			slog.String("prefix", s.Rewrite.Prefix),
			slog.String("dest_prefix", s.Rewrite.DestPrefix),
			slog.Bool("dry_run", s.Rewrite.DryRun),
		),
		slog.String("catalog_dir", s.Catalog.Dir),
	)
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log-level must be one of debug, info, warn, error, got: %s", name)
	}
}

// NewLogger creates a logger writing to w in the configured format and level.
// Unknown levels fall back to info.
func NewLogger(w io.Writer, s *Settings) *slog.Logger {
	level, _ := ParseLevel(s.LogLevel)
	opts := &slog.HandlerOptions{Level: level}
	if s.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
