package app

import (
	"github.com/kiddos-intellect/imgpipe/internal/assets"
	"github.com/spf13/pflag"
)

// RegisterGlobalFlags registers flags shared by every command
func RegisterGlobalFlags(flags *pflag.FlagSet) {
	flags.String("log-level", "info", "Log level: debug, info, warn, or error")
	flags.String("log-format", "text", "Log format: text or json")
}

// RegisterDiscoverFlags registers image discovery flags
func RegisterDiscoverFlags(flags *pflag.FlagSet) {
	flags.StringSliceP("extensions", "e", assets.DefaultImageExtensions, "Image extensions to pick up (comma-separated)")
	flags.StringSliceP("exclude", "x", nil, "Additional glob patterns to exclude, relative to the root (comma-separated)")
}

// RegisterConvertFlags registers flags for the convert command
func RegisterConvertFlags(flags *pflag.FlagSet) {
	RegisterDiscoverFlags(flags)
	flags.IntP("quality", "q", 85, "Output quality (0-100)")
	flags.IntP("concurrency", "c", assets.DefaultConcurrency, "Number of parallel conversions")
	flags.StringP("report", "r", "", "Write a JSON status report to this path")
}

// RegisterResponsiveFlags registers flags for the generate-responsive command
func RegisterResponsiveFlags(flags *pflag.FlagSet) {
	RegisterConvertFlags(flags)
	flags.IntSliceP("widths", "w", []int{400, 800, 1200, 1920}, "Output widths in pixels (comma-separated)")
}

// RegisterRewriteFlags registers flags for the rewrite-refs command
func RegisterRewriteFlags(flags *pflag.FlagSet) {
	RegisterDiscoverFlags(flags)
	flags.StringP("prefix", "p", "/images/", "Path prefix of original image references")
	flags.StringP("dest-prefix", "d", "", "Path prefix of rewritten references (default \"/<asset root name>/\")")
	flags.StringSliceP("source-extensions", "s", nil, "Source file extensions to scan (comma-separated)")
	flags.StringP("report", "r", "webp-migration-report.json", "Migration report path (empty to skip)")
	flags.BoolP("dry-run", "n", false, "Compute the report without writing any source file")
	flags.IntP("concurrency", "c", 4, "Number of files processed in parallel")
}

// RegisterStatusFlags registers flags for the status command
func RegisterStatusFlags(flags *pflag.FlagSet) {
	RegisterDiscoverFlags(flags)
	flags.StringP("report", "r", "", "Write the JSON status report to this path")
}

// RegisterIndexFlags registers flags for the index-refs command
func RegisterIndexFlags(flags *pflag.FlagSet) {
	RegisterCatalogFlags(flags)
	flags.StringSliceP("exclude", "x", nil, "Additional glob patterns to exclude, relative to the root (comma-separated)")
	flags.StringP("prefix", "p", "/images/", "Path prefix of image references")
	flags.StringSliceP("source-extensions", "s", nil, "Source file extensions to scan (comma-separated)")
}

// RegisterSearchFlags registers flags for the search-refs command
func RegisterSearchFlags(flags *pflag.FlagSet) {
	RegisterCatalogFlags(flags)
	flags.IntP("max-results", "m", 20, "Maximum number of references to print")
	flags.String("extension", "", "Filter by image extension (e.g. png)")
	flags.String("style", "", "Filter by reference style: quoted or css-url")
	flags.String("file", "", "Filter by source file path")
}

// RegisterCatalogFlags registers the catalog location flag
func RegisterCatalogFlags(flags *pflag.FlagSet) {
	flags.String("catalog-dir", "", "Reference catalog directory (default ~/.imgpipe/catalog)")
}

// RegisterWatchFlags registers flags for the watch command
func RegisterWatchFlags(flags *pflag.FlagSet) {
	RegisterDiscoverFlags(flags)
	flags.IntP("quality", "q", 85, "Output quality (0-100)")
	flags.Duration("debounce", assets.DefaultDebounce, "Quiet period before a changed image is converted")
}

// RegisterServeFlags registers flags for the serve command
func RegisterServeFlags(flags *pflag.FlagSet) {
	RegisterDiscoverFlags(flags)
	RegisterCatalogFlags(flags)
	flags.IntP("max-results", "m", 20, "Maximum number of references per search")
}
