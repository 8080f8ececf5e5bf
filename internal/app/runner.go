package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/kiddos-intellect/imgpipe/internal/assets"
	"github.com/kiddos-intellect/imgpipe/internal/config"
	"github.com/kiddos-intellect/imgpipe/internal/fsutil"
	"github.com/kiddos-intellect/imgpipe/internal/webp"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/pflag"
)

// RunParams contains dependencies for the run functions
type RunParams struct {
	LoadSettings      func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings     func(*config.Settings) error
	NewEncoder        func() assets.Encoder
	Stdout            io.Writer     // Optional: defaults to os.Stdout
	CustomIOTransport mcp.Transport // Optional: for testing serve with custom IO
}

// DefaultRunParams returns production dependencies
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:  config.LoadSettingsWithFlags,
		ValidSettings: config.ValidateSettings,
		NewEncoder:    func() assets.Encoder { return webp.NewEncoder() },
		Stdout:        os.Stdout,
	}
}

func (p RunParams) stdout() io.Writer {
	if p.Stdout == nil {
		return os.Stdout
	}
	return p.Stdout
}

// setup loads and validates settings and configures logging.
func setup(params RunParams, flags *pflag.FlagSet) (*config.Settings, error) {
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	if err := params.ValidSettings(settings); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Always log to stderr so stdout stays machine readable
	slog.SetDefault(config.NewLogger(os.Stderr, settings))
	config.Log(settings)

	return settings, nil
}

// acquireTreeLock takes the run lock for root. The returned release func is never nil.
func acquireTreeLock(root string) (func(), error) {
	lock, err := fsutil.NewTreeLock(root)
	if err != nil {
		return func() {}, err
	}
	if err := lock.TryLock(); err != nil {
		return func() {}, fmt.Errorf("failed to lock %s: %w", root, err)
	}
	slog.Debug("Acquired run lock", "root", root, "lock", lock.Path())
	return func() {
		if err := lock.Unlock(); err != nil {
			slog.Warn("Failed to release run lock", "lock", lock.Path(), "error", err)
		}
	}, nil
}

// imageFilter builds the discovery filter from settings. Only user excludes apply.
func imageFilter(s *config.Settings) *assets.FileFilter {
	return assets.NewImageFilter(s.Discover.Extensions, s.Discover.Exclude)
}

// sourceFilter builds the source file filter used by rewrite and catalog commands.
// Dependency and build output directories are always skipped.
func sourceFilter(s *config.Settings) *assets.FileFilter {
	patterns := append(slices.Clone(assets.DefaultExcludePatterns), s.Discover.Exclude...)
	return assets.NewFileFilterWithPatterns(s.Rewrite.SourceExtensions, patterns)
}
