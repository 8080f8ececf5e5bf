package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/disintegration/imaging"
	"github.com/kiddos-intellect/imgpipe/internal/domain"
	"github.com/kiddos-intellect/imgpipe/internal/fsutil"
)

// DefaultConcurrency is the default number of parallel conversions.
const DefaultConcurrency = 4

// Encoder writes an image in the target format.
type Encoder interface {
	// Encode writes img to w at the given quality (0-100).
	Encode(w io.Writer, img image.Image, quality int) error

	// Extension returns the output file extension including the dot, e.g. ".webp".
	Extension() string
}

// ConverterOptions configures a Converter.
type ConverterOptions struct {
	SrcRoot     string
	DstRoot     string
	Quality     int
	Widths      []int
	Concurrency int
}

// Summary aggregates conversion statistics for operator visibility.
type Summary struct {
	Converted      int64 `json:"converted"`
	Failed         int64 `json:"failed"`
	Skipped        int64 `json:"skipped"`
	Outputs        int64 `json:"outputs"`
	OriginalBytes  int64 `json:"original_bytes"`
	ConvertedBytes int64 `json:"converted_bytes"`
}

// SavingsPercent returns the size reduction of converted outputs relative to originals.
func (s Summary) SavingsPercent() float64 {
	if s.OriginalBytes == 0 {
		return 0
	}
	return float64(s.OriginalBytes-s.ConvertedBytes) / float64(s.OriginalBytes) * 100
}

// ConversionResult is the outcome of one Converter run.
type ConversionResult struct {
	Records []domain.ConversionRecord `json:"records"`
	Summary Summary                   `json:"summary"`
}

// stats is the concurrency-safe accumulator behind Summary.
type stats struct {
	converted      atomic.Int64
	failed         atomic.Int64
	skipped        atomic.Int64
	outputs        atomic.Int64
	originalBytes  atomic.Int64
	convertedBytes atomic.Int64
}

func (s *stats) summary() Summary {
	return Summary{
		Converted:      s.converted.Load(),
		Failed:         s.failed.Load(),
		Skipped:        s.skipped.Load(),
		Outputs:        s.outputs.Load(),
		OriginalBytes:  s.originalBytes.Load(),
		ConvertedBytes: s.convertedBytes.Load(),
	}
}

// Converter turns raster images into the encoder's format under a mirrored destination tree.
type Converter struct {
	opts    ConverterOptions
	encoder Encoder
}

// NewConverter creates a converter. Roots are resolved to absolute paths.
func NewConverter(opts ConverterOptions, encoder Encoder) (*Converter, error) {
	if encoder == nil {
		return nil, fmt.Errorf("encoder cannot be nil")
	}
	if opts.Quality < 0 || opts.Quality > 100 {
		return nil, fmt.Errorf("quality must be between 0 and 100, got %d", opts.Quality)
	}
	for _, w := range opts.Widths {
		if w <= 0 {
			return nil, fmt.Errorf("widths must be positive, got %d", w)
		}
	}

	srcRoot, err := filepath.Abs(opts.SrcRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source root: %w", err)
	}
	dstRoot, err := filepath.Abs(opts.DstRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve destination root: %w", err)
	}
	opts.SrcRoot = srcRoot
	opts.DstRoot = dstRoot
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}

	return &Converter{opts: opts, encoder: encoder}, nil
}

// Options returns the resolved options.
func (c *Converter) Options() ConverterOptions {
	return c.opts
}

// Run converts every source in the sequence with bounded parallelism.
// Per-file failures are logged and recorded but never abort the run.
// Sources mapping to outputs already claimed by an earlier source in the
// sequence (hero.jpeg and hero.png both yield hero.webp) are skipped.
// Cancellation stops dispatching new files; in-flight conversions finish
// and the context error is returned with the partial result.
func (c *Converter) Run(ctx context.Context, sources iter.Seq[string]) (*ConversionResult, error) {
	var st stats
	var mu sync.Mutex
	var records []domain.ConversionRecord
	claimed := make(map[string]string)

	sem := make(chan struct{}, c.opts.Concurrency)
	var wg sync.WaitGroup

	for source := range sources {
		if ctx.Err() != nil {
			break
		}

		if owner, ok := c.claim(claimed, source); !ok {
			rec := c.duplicate(source, owner)
			st.record(rec)
			mu.Lock()
			records = append(records, rec)
			mu.Unlock()
			continue
		}

		select {
		case sem <- struct{}{}: // Acquire
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func(source string) {
			defer wg.Done()
			defer func() { <-sem }() // Release

			rec := c.ConvertFile(source)
			st.record(rec)

			mu.Lock()
			records = append(records, rec)
			mu.Unlock()
		}(source)
	}

	wg.Wait()

	slices.SortFunc(records, func(a, b domain.ConversionRecord) int {
		return strings.Compare(a.Source, b.Source)
	})

	result := &ConversionResult{Records: records, Summary: st.summary()}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// claim reserves the outputs of source. It reports false with the owning
// source when another source already reserved them.
func (c *Converter) claim(claimed map[string]string, source string) (string, bool) {
	outputs, err := OutputPaths(c.opts.SrcRoot, c.opts.DstRoot, source, c.encoder.Extension(), c.opts.Widths)
	if err != nil {
		// ConvertFile reports the error
		return "", true
	}
	if owner, ok := claimed[outputs[0]]; ok {
		return owner, false
	}
	claimed[outputs[0]] = source
	return "", true
}

func (c *Converter) duplicate(source, owner string) domain.ConversionRecord {
	slog.Warn("Skipping image, outputs already produced by another source",
		"source", source, "owner", owner)
	rec := domain.ConversionRecord{Source: source, DuplicateOf: owner}
	if asset, err := AssetPathOf(c.opts.SrcRoot, source); err == nil {
		rec.Asset = asset
	}
	return rec
}

func (s *stats) record(rec domain.ConversionRecord) {
	if rec.DuplicateOf != "" {
		s.skipped.Add(1)
		return
	}
	if rec.Error != "" {
		s.failed.Add(1)
		return
	}
	s.converted.Add(1)
	s.outputs.Add(int64(len(rec.Outputs)))
	s.originalBytes.Add(rec.OriginalSize)
	s.convertedBytes.Add(rec.ConvertedSize)
}

// ConvertFile converts a single source image and returns its record.
// Failures are logged and reported through the record's Error field.
func (c *Converter) ConvertFile(source string) domain.ConversionRecord {
	rec := domain.ConversionRecord{Source: source}

	asset, err := AssetPathOf(c.opts.SrcRoot, source)
	if err == nil {
		rec.Asset = asset
	}

	if err := c.convert(&rec); err != nil {
		slog.Warn("Skipping image", "source", source, "error", err)
		removeOutputs(rec.Outputs)
		rec.Error = err.Error()
		rec.Outputs = nil
		rec.ConvertedSize = 0
		return rec
	}

	slog.Debug("Converted image", "source", source, "outputs", len(rec.Outputs),
		"original_bytes", rec.OriginalSize, "converted_bytes", rec.ConvertedSize)
	return rec
}

func (c *Converter) convert(rec *domain.ConversionRecord) error {
	info, err := os.Stat(rec.Source)
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}
	rec.OriginalSize = info.Size()

	outputs, err := OutputPaths(c.opts.SrcRoot, c.opts.DstRoot, rec.Source, c.encoder.Extension(), c.opts.Widths)
	if err != nil {
		return err
	}

	img, err := imaging.Open(rec.Source, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("failed to decode: %w", err)
	}

	if len(c.opts.Widths) == 0 {
		size, err := c.write(outputs[0], img)
		if err != nil {
			return err
		}
		rec.Outputs = append(rec.Outputs, outputs[0])
		rec.ConvertedSize += size
		return nil
	}

	for i, width := range c.opts.Widths {
		size, err := c.write(outputs[i], Resize(img, width))
		if err != nil {
			return err
		}
		rec.Outputs = append(rec.Outputs, outputs[i])
		rec.ConvertedSize += size
	}
	return nil
}

// removeOutputs deletes the widths already written for a source whose
// conversion failed part way, so no output outlives its record.
func removeOutputs(paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Failed to remove partial output", "path", p, "error", err)
		}
	}
}

func (c *Converter) write(path string, img image.Image) (int64, error) {
	var buf bytes.Buffer
	if err := c.encoder.Encode(&buf, img, c.opts.Quality); err != nil {
		return 0, fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := fsutil.WriteFileAtomic(path, buf.Bytes(), 0644); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return int64(buf.Len()), nil
}

// Resize scales img to the given width keeping its aspect ratio.
// Images already at or below the width are returned unchanged.
func Resize(img image.Image, width int) image.Image {
	if img.Bounds().Dx() <= width {
		return img
	}
	return imaging.Resize(img, width, 0, imaging.Lanczos)
}
