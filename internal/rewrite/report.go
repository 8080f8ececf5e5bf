package rewrite

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/kiddos-intellect/imgpipe/internal/domain"
	"github.com/kiddos-intellect/imgpipe/internal/fsutil"
)

// Report summarizes one rewrite run. It is the run's only persisted artifact.
type Report struct {
	GeneratedAt      time.Time                `json:"generated_at"`
	SourceRoot       string                   `json:"source_root"`
	AssetRoot        string                   `json:"asset_root"`
	DryRun           bool                     `json:"dry_run"`
	Interrupted      bool                     `json:"interrupted,omitempty"`
	FilesScanned     int                      `json:"files_scanned"`
	FilesUpdated     int                      `json:"files_updated"`
	FilesFailed      int                      `json:"files_failed"`
	Replacements     int                      `json:"replacements"`
	BrokenReferences []domain.BrokenReference `json:"broken_references"`

	broken map[string]*domain.BrokenReference
}

// NewReport creates an empty report.
func NewReport(sourceRoot, assetRoot string, dryRun bool) *Report {
	return &Report{
		GeneratedAt:      time.Now().UTC(),
		SourceRoot:       sourceRoot,
		AssetRoot:        assetRoot,
		DryRun:           dryRun,
		BrokenReferences: []domain.BrokenReference{},
		broken:           make(map[string]*domain.BrokenReference),
	}
}

func (r *Report) add(res fileResult) {
	r.FilesScanned++
	if res.err != nil {
		r.FilesFailed++
	}
	if res.updated {
		r.FilesUpdated++
		r.Replacements += res.replaced
	}
	for _, ref := range res.broken {
		r.addBroken(ref)
	}
}

// addBroken records an unresolved reference. Entries are keyed by path literal,
// so a path appears once however many files contain it.
func (r *Report) addBroken(ref domain.SourceReference) {
	entry, ok := r.broken[ref.Path]
	if !ok {
		entry = &domain.BrokenReference{
			Path:  ref.Path,
			Asset: ref.Asset,
			Style: ref.Style,
		}
		r.broken[ref.Path] = entry
	}
	if !slices.Contains(entry.Files, ref.File) {
		entry.Files = append(entry.Files, ref.File)
	}
}

// finalize flattens broken references into a stable, sorted list.
func (r *Report) finalize() {
	r.BrokenReferences = make([]domain.BrokenReference, 0, len(r.broken))
	for _, entry := range r.broken {
		slices.Sort(entry.Files)
		r.BrokenReferences = append(r.BrokenReferences, *entry)
	}
	slices.SortFunc(r.BrokenReferences, func(a, b domain.BrokenReference) int {
		return strings.Compare(a.Path, b.Path)
	})
}

// Save writes the report as indented JSON, atomically.
func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return fsutil.WriteFileAtomic(path, data, 0644)
}

// LoadReport reads a report written by Save.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}
