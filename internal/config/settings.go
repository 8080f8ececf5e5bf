package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Log format constants
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// DiscoverSettings configuration for image discovery
type DiscoverSettings struct {
	Extensions []string `mapstructure:"extensions"`
	Exclude    []string `mapstructure:"exclude"`
}

// ConvertSettings configuration for conversion and responsive generation
type ConvertSettings struct {
	Quality     int    `mapstructure:"quality"`
	Widths      []int  `mapstructure:"widths"`
	Concurrency int    `mapstructure:"concurrency"`
	ReportPath  string `mapstructure:"report_path"`
}

// RewriteSettings configuration for source reference rewriting
type RewriteSettings struct {
	Prefix           string   `mapstructure:"prefix"`
	DestPrefix       string   `mapstructure:"dest_prefix"` // empty derives "/<base of asset root>/"
	SourceExtensions []string `mapstructure:"source_extensions"`
	TargetExtension  string   `mapstructure:"target_extension"`
	ReportPath       string   `mapstructure:"report_path"`
	DryRun           bool     `mapstructure:"dry_run"`
	Concurrency      int      `mapstructure:"concurrency"`
}

// StatusSettings configuration for the asset status report
type StatusSettings struct {
	ReportPath string `mapstructure:"report_path"`
}

// CatalogSettings configuration for the reference catalog
type CatalogSettings struct {
	Dir        string `mapstructure:"dir"`
	MaxResults int    `mapstructure:"max_results"`
}

// WatchSettings configuration for watch mode
type WatchSettings struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// Settings application settings
type Settings struct {
	LogLevel  string           `mapstructure:"log_level"`
	LogFormat string           `mapstructure:"log_format"`
	Discover  DiscoverSettings `mapstructure:"discover"`
	Convert   ConvertSettings  `mapstructure:"convert"`
	Rewrite   RewriteSettings  `mapstructure:"rewrite"`
	Status    StatusSettings   `mapstructure:"status"`
	Catalog   CatalogSettings  `mapstructure:"catalog"`
	Watch     WatchSettings    `mapstructure:"watch"`
}

// LoadSettings loads settings from environment variables and optional .env file
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > .env file > defaults.
// If flags is nil, only env vars and defaults are used.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	// Default values
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", LogFormatText)

	v.SetDefault("discover.extensions", []string{".png", ".jpg", ".jpeg"})
	v.SetDefault("discover.exclude", []string{})

	v.SetDefault("convert.quality", 85)
	v.SetDefault("convert.widths", []int{400, 800, 1200, 1920})
	v.SetDefault("convert.concurrency", 4)
	v.SetDefault("convert.report_path", "")

	v.SetDefault("rewrite.prefix", "/images/")
	v.SetDefault("rewrite.dest_prefix", "")
	v.SetDefault("rewrite.source_extensions", []string{".js", ".jsx", ".ts", ".tsx", ".css", ".scss", ".html"})
	v.SetDefault("rewrite.target_extension", ".webp")
	v.SetDefault("rewrite.report_path", "webp-migration-report.json")
	v.SetDefault("rewrite.dry_run", false)
	v.SetDefault("rewrite.concurrency", 4)

	v.SetDefault("status.report_path", "")

	v.SetDefault("catalog.dir", defaultCatalogDir())
	v.SetDefault("catalog.max_results", 20)

	v.SetDefault("watch.debounce", 500*time.Millisecond)

	// Environment variables
	v.SetEnvPrefix("IMGPIPE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific env vars for nested config
	_ = v.BindEnv("discover.extensions", "IMGPIPE_DISCOVER_EXTENSIONS")
	_ = v.BindEnv("discover.exclude", "IMGPIPE_DISCOVER_EXCLUDE")
	_ = v.BindEnv("convert.quality", "IMGPIPE_CONVERT_QUALITY")
	_ = v.BindEnv("convert.widths", "IMGPIPE_CONVERT_WIDTHS")
	_ = v.BindEnv("convert.concurrency", "IMGPIPE_CONVERT_CONCURRENCY")
	_ = v.BindEnv("convert.report_path", "IMGPIPE_CONVERT_REPORT_PATH")
	_ = v.BindEnv("rewrite.prefix", "IMGPIPE_REWRITE_PREFIX")
	_ = v.BindEnv("rewrite.dest_prefix", "IMGPIPE_REWRITE_DEST_PREFIX")
	_ = v.BindEnv("rewrite.source_extensions", "IMGPIPE_REWRITE_SOURCE_EXTENSIONS")
	_ = v.BindEnv("rewrite.target_extension", "IMGPIPE_REWRITE_TARGET_EXTENSION")
	_ = v.BindEnv("rewrite.report_path", "IMGPIPE_REWRITE_REPORT_PATH")
	_ = v.BindEnv("rewrite.dry_run", "IMGPIPE_REWRITE_DRY_RUN")
	_ = v.BindEnv("rewrite.concurrency", "IMGPIPE_REWRITE_CONCURRENCY")
	_ = v.BindEnv("status.report_path", "IMGPIPE_STATUS_REPORT_PATH")
	_ = v.BindEnv("catalog.dir", "IMGPIPE_CATALOG_DIR")
	_ = v.BindEnv("catalog.max_results", "IMGPIPE_CATALOG_MAX_RESULTS")
	_ = v.BindEnv("watch.debounce", "IMGPIPE_WATCH_DEBOUNCE")

	// Bind CLI flags if provided (highest priority).
	// Flags not registered on the running command look up nil and are ignored.
	if flags != nil {
		_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
		_ = v.BindPFlag("log_format", flags.Lookup("log-format"))

		_ = v.BindPFlag("discover.extensions", flags.Lookup("extensions"))
		_ = v.BindPFlag("discover.exclude", flags.Lookup("exclude"))

		_ = v.BindPFlag("convert.quality", flags.Lookup("quality"))
		_ = v.BindPFlag("convert.widths", flags.Lookup("widths"))
		_ = v.BindPFlag("convert.concurrency", flags.Lookup("concurrency"))
		_ = v.BindPFlag("convert.report_path", flags.Lookup("report"))

		_ = v.BindPFlag("rewrite.prefix", flags.Lookup("prefix"))
		_ = v.BindPFlag("rewrite.dest_prefix", flags.Lookup("dest-prefix"))
		_ = v.BindPFlag("rewrite.source_extensions", flags.Lookup("source-extensions"))
		_ = v.BindPFlag("rewrite.report_path", flags.Lookup("report"))
		_ = v.BindPFlag("rewrite.dry_run", flags.Lookup("dry-run"))
		_ = v.BindPFlag("rewrite.concurrency", flags.Lookup("concurrency"))

		_ = v.BindPFlag("status.report_path", flags.Lookup("report"))

		_ = v.BindPFlag("catalog.dir", flags.Lookup("catalog-dir"))
		_ = v.BindPFlag("catalog.max_results", flags.Lookup("max-results"))

		_ = v.BindPFlag("watch.debounce", flags.Lookup("debounce"))
	}

	// Helper to look for .env file
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	// Comma-separated lists from env vars
	overrideList(&settings.Discover.Extensions, "IMGPIPE_DISCOVER_EXTENSIONS")
	overrideList(&settings.Discover.Exclude, "IMGPIPE_DISCOVER_EXCLUDE")
	overrideList(&settings.Rewrite.SourceExtensions, "IMGPIPE_REWRITE_SOURCE_EXTENSIONS")
	if widths := os.Getenv("IMGPIPE_CONVERT_WIDTHS"); widths != "" && (flags == nil || !flagChanged(flags, "widths")) {
		parsed, err := parseWidths(widths)
		if err != nil {
			return nil, err
		}
		settings.Convert.Widths = parsed
	}

	settings.Discover.Extensions = filterEmptyStrings(trimAll(settings.Discover.Extensions))
	settings.Discover.Exclude = filterEmptyStrings(trimAll(settings.Discover.Exclude))
	settings.Rewrite.SourceExtensions = filterEmptyStrings(trimAll(settings.Rewrite.SourceExtensions))

	// Expand home directory in catalog dir
	settings.Catalog.Dir = expandHomeDir(settings.Catalog.Dir)

	return &settings, nil
}

// overrideList splits a comma-separated env var into dst when viper left a single joined value.
func overrideList(dst *[]string, env string) {
	raw := os.Getenv(env)
	if raw == "" {
		return
	}
	if len(*dst) == 0 || (len(*dst) == 1 && strings.Contains((*dst)[0], ",")) {
		*dst = strings.Split(raw, ",")
	}
}

func flagChanged(flags *pflag.FlagSet, name string) bool {
	f := flags.Lookup(name)
	return f != nil && f.Changed
}

// parseWidths parses "400,800,1200" into pixel widths.
func parseWidths(raw string) ([]int, error) {
	var widths []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		w, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid width %q: %w", part, err)
		}
		widths = append(widths, w)
	}
	return widths, nil
}

// defaultCatalogDir returns the default location of the reference catalog
func defaultCatalogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".imgpipe", "catalog")
	}
	return filepath.Join(home, ".imgpipe", "catalog")
}

// expandHomeDir expands ~ to the user's home directory
func expandHomeDir(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}

func trimAll(s []string) []string {
	for i := range s {
		s[i] = strings.TrimSpace(s[i])
	}
	return s
}

// filterEmptyStrings removes empty strings from a slice
func filterEmptyStrings(s []string) []string {
	var result []string
	for _, str := range s {
		if str != "" {
			result = append(result, str)
		}
	}
	return result
}

// ValidateSettings checks for out-of-range or incomplete configuration.
func ValidateSettings(s *Settings) error {
	if _, err := ParseLevel(s.LogLevel); err != nil {
		return err
	}
	switch s.LogFormat {
	case LogFormatText, LogFormatJSON:
		// valid
	default:
		return errors.New("log-format must be 'text' or 'json', got: " + s.LogFormat)
	}

	if len(s.Discover.Extensions) == 0 {
		return errors.New("extensions cannot be empty")
	}
	for _, ext := range s.Discover.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return errors.New("extensions must start with '.', got: " + ext)
		}
	}

	if err := validateConvertSettings(&s.Convert); err != nil {
		return err
	}
	if err := validateRewriteSettings(&s.Rewrite); err != nil {
		return err
	}

	if s.Catalog.MaxResults <= 0 {
		return errors.New("max-results must be positive")
	}
	if s.Catalog.Dir == "" {
		return errors.New("catalog-dir cannot be empty")
	}

	if s.Watch.Debounce < 0 {
		return errors.New("debounce cannot be negative")
	}

	return nil
}

// validateConvertSettings validates the conversion configuration
func validateConvertSettings(c *ConvertSettings) error {
	if c.Quality < 0 || c.Quality > 100 {
		return fmt.Errorf("quality must be between 0 and 100, got: %d", c.Quality)
	}
	if c.Concurrency <= 0 {
		return errors.New("concurrency must be positive")
	}
	for _, w := range c.Widths {
		if w <= 0 {
			return fmt.Errorf("widths must be positive, got: %d", w)
		}
	}
	return nil
}

// validateRewriteSettings validates the rewrite configuration
func validateRewriteSettings(r *RewriteSettings) error {
	if r.Prefix == "" {
		return errors.New("prefix cannot be empty")
	}
	if !strings.HasPrefix(r.TargetExtension, ".") {
		return errors.New("target extension must start with '.', got: " + r.TargetExtension)
	}
	if len(r.SourceExtensions) == 0 {
		return errors.New("source-extensions cannot be empty")
	}
	if r.Concurrency <= 0 {
		return errors.New("concurrency must be positive")
	}
	return nil
}
