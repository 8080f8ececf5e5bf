package assets

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrRootNotFound indicates the walk root does not exist or is not a directory.
var ErrRootNotFound = errors.New("root directory not found")

// Discoverer walks a directory tree and yields files accepted by its filter.
type Discoverer struct {
	filter *FileFilter
}

// NewDiscoverer creates a discoverer using the given filter.
func NewDiscoverer(filter *FileFilter) *Discoverer {
	return &Discoverer{filter: filter}
}

// Discover validates root and returns a lazy, depth-first sequence of absolute
// paths of matching files. Directories are never yielded. Unreadable entries
// below the root are logged and skipped; a missing or unreadable root is an error.
func (d *Discoverer) Discover(root string) (iter.Seq[string], error) {
	absRoot, err := CheckRoot(root)
	if err != nil {
		return nil, err
	}

	seq := func(yield func(string) bool) {
		_ = filepath.WalkDir(absRoot, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				if path == absRoot {
					slog.Error("Failed to read root directory", "root", absRoot, "error", err)
					return err
				}
				slog.Warn("Skipping unreadable path", "path", path, "error", err)
				return nil
			}

			relPath, err := filepath.Rel(absRoot, path)
			if err != nil {
				return nil
			}

			if entry.IsDir() {
				if relPath != "." && d.filter.ShouldSkipDir(relPath) {
					return filepath.SkipDir
				}
				return nil
			}

			if !entry.Type().IsRegular() && entry.Type()&fs.ModeSymlink == 0 {
				return nil
			}
			if !d.filter.Matches(entry.Name()) || d.filter.ShouldExclude(relPath) {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}

	return seq, nil
}

// Collect drains Discover into a slice.
func (d *Discoverer) Collect(root string) ([]string, error) {
	seq, err := d.Discover(root)
	if err != nil {
		return nil, err
	}
	var paths []string
	for path := range seq {
		paths = append(paths, path)
	}
	return paths, nil
}

// CheckRoot resolves root to an absolute path and verifies it is a readable directory.
func CheckRoot(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", root, err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrRootNotFound, absRoot)
		}
		return "", fmt.Errorf("failed to stat %s: %w", absRoot, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrRootNotFound, absRoot)
	}

	dir, err := os.Open(absRoot)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", absRoot, err)
	}
	defer func() { _ = dir.Close() }()
	if _, err := dir.ReadDir(1); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read %s: %w", absRoot, err)
	}

	return absRoot, nil
}
