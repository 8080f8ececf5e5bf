package assets

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultImageExtensions are the raster formats picked up for conversion.
var DefaultImageExtensions = []string{".png", ".jpg", ".jpeg"}

// DefaultExcludePatterns skips dependency and build output directories in source scans.
var DefaultExcludePatterns = []string{
	"node_modules/**", "**/node_modules/**",
	".git/**", "**/.git/**",
	"build/**", "dist/**", ".next/**", "coverage/**",
}

// FileFilter determines which files a walk should yield.
type FileFilter struct {
	extensions []string
	patterns   []string
}

// NewFileFilter creates a source-scan filter for the given extensions and default exclusion patterns.
func NewFileFilter(extensions []string) *FileFilter {
	return NewFileFilterWithPatterns(extensions, DefaultExcludePatterns)
}

// NewImageFilter creates a filter for image trees. Only the given exclusion
// patterns apply, so images under directories such as build/ or dist/ are kept.
func NewImageFilter(extensions, exclude []string) *FileFilter {
	return NewFileFilterWithPatterns(extensions, slices.Clone(exclude))
}

// NewFileFilterWithPatterns creates a filter with custom exclusion patterns.
// Extensions are matched case-insensitively, with or without a leading dot.
func NewFileFilterWithPatterns(extensions, patterns []string) *FileFilter {
	return &FileFilter{
		extensions: NormalizeExtensions(extensions),
		patterns:   patterns,
	}
}

// Matches returns true if the file name carries one of the configured extensions.
func (f *FileFilter) Matches(name string) bool {
	return slices.Contains(f.extensions, strings.ToLower(filepath.Ext(name)))
}

// ShouldExclude returns true if the slash-normalized relative path matches any exclusion pattern.
func (f *FileFilter) ShouldExclude(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, pattern := range f.patterns {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
	}
	return false
}

// ShouldSkipDir returns true if no file below the directory can pass the exclusion patterns.
func (f *FileFilter) ShouldSkipDir(relDir string) bool {
	relDir = filepath.ToSlash(relDir)
	return f.ShouldExclude(relDir + "/_")
}

// Extensions returns the normalized extension set.
func (f *FileFilter) Extensions() []string {
	return f.extensions
}

// NormalizeExtensions lowercases extensions, adds a leading dot and drops blanks and duplicates.
func NormalizeExtensions(exts []string) []string {
	result := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !slices.Contains(result, ext) {
			result = append(result, ext)
		}
	}
	return result
}
