// Package catalog keeps a searchable index of image references found in source files.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/kiddos-intellect/imgpipe/internal/assets"
	"github.com/kiddos-intellect/imgpipe/internal/domain"
	"github.com/kiddos-intellect/imgpipe/internal/rewrite"
)

// MaxBatchSize is the maximum number of documents per batch
const MaxBatchSize = 500

// Catalog wraps a Bleve index of ReferenceDocuments.
type Catalog struct {
	index bleve.Index
	dir   string
}

// CreateIndexMapping creates the Bleve index mapping for reference documents.
func CreateIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	// Asset - analyzed so "hero" finds "books/hero"
	assetField := bleve.NewTextFieldMapping()
	assetField.Analyzer = standard.Name
	assetField.Store = true
	docMapping.AddFieldMappingsAt(domain.RefFieldAsset, assetField)

	for _, name := range []string{domain.RefFieldPath, domain.RefFieldFile, domain.RefFieldExtension, domain.RefFieldStyle} {
		field := bleve.NewTextFieldMapping()
		field.Analyzer = keyword.Name
		field.Store = true
		docMapping.AddFieldMappingsAt(name, field)
	}

	lineField := bleve.NewNumericFieldMapping()
	lineField.Store = true
	docMapping.AddFieldMappingsAt(domain.RefFieldLine, lineField)

	idField := bleve.NewTextFieldMapping()
	idField.Index = false
	idField.Store = true
	docMapping.AddFieldMappingsAt(domain.RefFieldID, idField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = standard.Name
	return indexMapping
}

// indexMetaFile marks a directory as a bleve index.
const indexMetaFile = "index_meta.json"

// Create builds an empty catalog at dir, replacing any previous one.
// An empty dir creates an in-memory catalog. A non-empty dir that is not
// a catalog is left untouched and reported as an error.
func Create(dir string) (*Catalog, error) {
	if dir == "" {
		index, err := bleve.NewMemOnly(CreateIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory catalog: %w", err)
		}
		return &Catalog{index: index}, nil
	}

	if err := checkReplaceable(dir); err != nil {
		return nil, err
	}
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("failed to remove previous catalog: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}
	index, err := bleve.New(dir, CreateIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog: %w", err)
	}
	return &Catalog{index: index, dir: dir}, nil
}

// Open opens an existing catalog.
func Open(dir string) (*Catalog, error) {
	index, err := bleve.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return &Catalog{index: index, dir: dir}, nil
}

// Exists reports whether a catalog has been built at dir.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, indexMetaFile))
	return err == nil
}

// checkReplaceable allows dir to be absent, empty, or an existing catalog.
func checkReplaceable(dir string) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to inspect catalog directory: %w", err)
	}
	if len(entries) == 0 || Exists(dir) {
		return nil
	}
	return fmt.Errorf("%s is not a reference catalog; refusing to replace it", dir)
}

// Dir returns the on-disk location, empty for in-memory catalogs.
func (c *Catalog) Dir() string {
	return c.dir
}

// Close releases the index.
func (c *Catalog) Close() error {
	return c.index.Close()
}

// Count returns the number of indexed references.
func (c *Catalog) Count() (uint64, error) {
	return c.index.DocCount()
}

// Add indexes references in batches.
func (c *Catalog) Add(refs []domain.SourceReference) (int, error) {
	batch := c.index.NewBatch()
	total := 0

	for _, ref := range refs {
		doc := NewDocument(ref)
		if err := batch.Index(doc.ID, doc); err != nil {
			return total, fmt.Errorf("failed to index %s: %w", doc.ID, err)
		}
		if batch.Size() >= MaxBatchSize {
			if err := c.index.Batch(batch); err != nil {
				return total, fmt.Errorf("batch index failed: %w", err)
			}
			total += batch.Size()
			batch = c.index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		n := batch.Size()
		if err := c.index.Batch(batch); err != nil {
			return total, fmt.Errorf("final batch index failed: %w", err)
		}
		total += n
	}
	return total, nil
}

// IndexTree scans source files under root and indexes every reference the pattern finds.
// Unreadable files are logged and skipped. Returns the number of references indexed.
func (c *Catalog) IndexTree(ctx context.Context, root string, filter *assets.FileFilter, pattern *rewrite.Pattern) (int, error) {
	absRoot, err := assets.CheckRoot(root)
	if err != nil {
		return 0, err
	}
	seq, err := assets.NewDiscoverer(filter).Discover(absRoot)
	if err != nil {
		return 0, err
	}

	var refs []domain.SourceReference
	for path := range seq {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("Skipping unreadable file", "file", path, "error", err)
			continue
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			continue
		}
		refs = append(refs, pattern.References(filepath.ToSlash(rel), string(data))...)
	}

	return c.Add(refs)
}

// NewDocument converts a source reference into its catalog document.
func NewDocument(ref domain.SourceReference) domain.ReferenceDocument {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(ref.Path), "."))
	return domain.ReferenceDocument{
		ID:        ref.File + ":" + strconv.Itoa(ref.Line) + ":" + ref.Path,
		File:      ref.File,
		Path:      ref.Path,
		Asset:     ref.Asset.String(),
		Extension: ext,
		Style:     string(ref.Style),
		Line:      ref.Line,
	}
}
