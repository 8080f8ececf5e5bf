package assets

import (
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"time"

	"github.com/kiddos-intellect/imgpipe/internal/domain"
	"github.com/kiddos-intellect/imgpipe/internal/fsutil"
)

// StatusItem pairs an original image with its converted counterpart.
// For responsive outputs Converted is the first width variant and Variants lists all of them.
type StatusItem struct {
	Original  string           `json:"original"`
	Converted string           `json:"converted"`
	Variants  []string         `json:"variants,omitempty"`
	Asset     domain.AssetPath `json:"asset"`
}

// StatusReport lists which originals have a converted counterpart on disk.
type StatusReport struct {
	GeneratedAt    time.Time    `json:"generated_at"`
	SourceRoot     string       `json:"source_root"`
	DestRoot       string       `json:"dest_root"`
	TotalImages    int          `json:"total_images"`
	ConvertedCount int          `json:"converted_count"`
	MissingCount   int          `json:"missing_count"`
	ConversionRate float64      `json:"conversion_rate"`
	Converted      []StatusItem `json:"converted"`
	Missing        []string     `json:"missing"`
}

// BuildStatusReport checks each original in sources against the reference index.
// With widths set, an original counts as converted only when every width variant exists.
// Paths in the report are relative to their roots.
func BuildStatusReport(srcRoot, dstRoot string, sources iter.Seq[string], index *ReferenceIndex, ext string, widths []int) (*StatusReport, error) {
	srcRoot, err := filepath.Abs(srcRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve source root: %w", err)
	}
	dstRoot, err = filepath.Abs(dstRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve destination root: %w", err)
	}

	report := &StatusReport{
		GeneratedAt: time.Now().UTC(),
		SourceRoot:  srcRoot,
		DestRoot:    dstRoot,
		Converted:   []StatusItem{},
		Missing:     []string{},
	}

	for source := range sources {
		asset, err := AssetPathOf(srcRoot, source)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve asset path for %s: %w", source, err)
		}
		original := relOrSelf(srcRoot, source)
		report.TotalImages++

		if item, ok := statusItem(index, asset, original, ext, widths); ok {
			report.Converted = append(report.Converted, item)
			continue
		}
		report.Missing = append(report.Missing, original)
	}

	report.ConvertedCount = len(report.Converted)
	report.MissingCount = len(report.Missing)
	if report.TotalImages > 0 {
		report.ConversionRate = float64(report.ConvertedCount) / float64(report.TotalImages) * 100
	}
	return report, nil
}

func statusItem(index *ReferenceIndex, asset domain.AssetPath, original, ext string, widths []int) (StatusItem, bool) {
	if len(widths) == 0 {
		if !index.Has(asset) {
			return StatusItem{}, false
		}
		return StatusItem{Original: original, Converted: asset.String() + ext, Asset: asset}, true
	}

	variants := make([]string, 0, len(widths))
	for _, w := range widths {
		variant := WidthAsset(asset, w)
		if !index.Has(variant) {
			return StatusItem{}, false
		}
		variants = append(variants, variant.String()+ext)
	}
	return StatusItem{Original: original, Converted: variants[0], Variants: variants, Asset: asset}, true
}

// Save writes the report as indented JSON, atomically.
func (r *StatusReport) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status report: %w", err)
	}
	return fsutil.WriteFileAtomic(path, data, 0644)
}

// LoadStatusReport reads a report written by Save.
func LoadStatusReport(path string) (*StatusReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read status report: %w", err)
	}
	var report StatusReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse status report: %w", err)
	}
	return &report, nil
}
