package rewrite

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kiddos-intellect/imgpipe/internal/assets"
	"github.com/kiddos-intellect/imgpipe/internal/domain"
	"github.com/kiddos-intellect/imgpipe/internal/fsutil"
)

// DefaultSourceExtensions are the front-end source files scanned for image references.
var DefaultSourceExtensions = []string{".js", ".jsx", ".ts", ".tsx", ".css", ".scss", ".html"}

// Options configures a Rewriter.
type Options struct {
	// SourceRoot is the directory tree of source files to rewrite.
	SourceRoot string

	// Prefix is the root-relative marker original image paths start with, e.g. "/images/".
	Prefix string

	// DestPrefix replaces Prefix in rewritten references, e.g. "/images-webp/".
	DestPrefix string

	// TargetExtension replaces the raster extension, e.g. ".webp".
	TargetExtension string

	// ImageExtensions are the raster extensions a reference must end in.
	ImageExtensions []string

	// Filter selects which source files are scanned.
	Filter *assets.FileFilter

	// DryRun computes the report without writing any file.
	DryRun bool

	// Concurrency bounds parallel file processing. Values below 1 mean sequential.
	Concurrency int
}

// Rewriter points image references in source files at converted assets.
type Rewriter struct {
	opts    Options
	pattern *Pattern
	index   *assets.ReferenceIndex
}

// New creates a rewriter resolving references against index.
func New(opts Options, index *assets.ReferenceIndex) (*Rewriter, error) {
	if index == nil {
		return nil, fmt.Errorf("reference index cannot be nil")
	}
	if opts.Filter == nil {
		opts.Filter = assets.NewFileFilter(DefaultSourceExtensions)
	}
	if len(opts.ImageExtensions) == 0 {
		opts.ImageExtensions = assets.DefaultImageExtensions
	}
	if opts.TargetExtension == "" {
		return nil, fmt.Errorf("target extension cannot be empty")
	}
	if opts.DestPrefix == "" {
		return nil, fmt.Errorf("destination prefix cannot be empty")
	}
	opts.Prefix = withTrailingSlash(opts.Prefix)
	opts.DestPrefix = withTrailingSlash(opts.DestPrefix)
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}

	pattern, err := NewPattern(opts.Prefix, opts.ImageExtensions)
	if err != nil {
		return nil, err
	}

	return &Rewriter{opts: opts, pattern: pattern, index: index}, nil
}

// Pattern returns the compiled reference pattern.
func (r *Rewriter) Pattern() *Pattern {
	return r.pattern
}

// Rewrite returns content with every indexed reference pointed at its converted asset,
// the number of replacements made, and the references left untouched.
func (r *Rewriter) Rewrite(file, content string) (string, int, []domain.SourceReference) {
	refs := r.pattern.References(file, content)
	matches := r.pattern.FindAll(content)

	var sb strings.Builder
	var broken []domain.SourceReference
	replaced := 0
	last := 0

	for i, m := range matches {
		ref := refs[i]
		if ref.Asset == "" || !r.index.Has(ref.Asset) {
			broken = append(broken, ref)
			continue
		}

		sb.WriteString(content[last:m.PathStart])
		sb.WriteString(r.opts.DestPrefix + ref.Asset.String() + r.opts.TargetExtension)
		last = m.PathEnd
		replaced++
	}

	if replaced == 0 {
		return content, 0, broken
	}
	sb.WriteString(content[last:])
	return sb.String(), replaced, broken
}

// fileResult is the outcome of processing one source file.
type fileResult struct {
	rel      string
	updated  bool
	replaced int
	broken   []domain.SourceReference
	err      error
}

// Run scans every source file and rewrites references in place.
// Per-file failures are logged and counted; they never abort the run.
// Cancellation is honored between files; the partial report is still returned.
func (r *Rewriter) Run(ctx context.Context) (*Report, error) {
	d := assets.NewDiscoverer(r.opts.Filter)
	seq, err := d.Discover(r.opts.SourceRoot)
	if err != nil {
		return nil, err
	}
	root, err := filepath.Abs(r.opts.SourceRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source root: %w", err)
	}

	report := NewReport(root, r.index.Root(), r.opts.DryRun)
	var mu sync.Mutex

	sem := make(chan struct{}, r.opts.Concurrency)
	var wg sync.WaitGroup

	for path := range seq {
		if ctx.Err() != nil {
			break
		}

		select {
		case sem <- struct{}{}: // Acquire
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			defer func() { <-sem }() // Release

			res := r.processFile(root, path)

			mu.Lock()
			report.add(res)
			mu.Unlock()
		}(path)
	}

	wg.Wait()
	report.finalize()

	if err := ctx.Err(); err != nil {
		report.Interrupted = true
		return report, err
	}
	return report, nil
}

func (r *Rewriter) processFile(root, path string) fileResult {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	res := fileResult{rel: filepath.ToSlash(rel)}

	info, err := os.Stat(path)
	if err != nil {
		slog.Warn("Skipping unreadable file", "file", path, "error", err)
		res.err = err
		return res
	}

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("Skipping unreadable file", "file", path, "error", err)
		res.err = err
		return res
	}

	original := string(data)
	updated, replaced, broken := r.Rewrite(res.rel, original)
	res.broken = broken

	if updated == original {
		return res
	}

	if !r.opts.DryRun {
		if err := fsutil.WriteFileAtomic(path, []byte(updated), info.Mode().Perm()); err != nil {
			slog.Warn("Failed to write file", "file", path, "error", err)
			res.err = err
			return res
		}
	}

	res.updated = true
	res.replaced = replaced
	slog.Debug("Rewrote references", "file", res.rel, "replacements", replaced, "dry_run", r.opts.DryRun)
	return res
}

func withTrailingSlash(s string) string {
	if s == "" || strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
