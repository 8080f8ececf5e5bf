package assets

import (
	"maps"
	"slices"

	"github.com/kiddos-intellect/imgpipe/internal/domain"
)

// ReferenceIndex is the immutable set of assets that have a converted output on disk.
// It is built fresh for every run and never updated.
type ReferenceIndex struct {
	root   string
	assets map[domain.AssetPath]struct{}
}

// BuildReferenceIndex walks dstRoot for files with the given extensions and
// records each one's asset path relative to dstRoot.
func BuildReferenceIndex(dstRoot string, extensions []string) (*ReferenceIndex, error) {
	absRoot, err := CheckRoot(dstRoot)
	if err != nil {
		return nil, err
	}

	d := NewDiscoverer(NewFileFilterWithPatterns(extensions, nil))
	seq, err := d.Discover(absRoot)
	if err != nil {
		return nil, err
	}

	assets := make(map[domain.AssetPath]struct{})
	for path := range seq {
		asset, err := AssetPathOf(absRoot, path)
		if err != nil || asset == "" {
			continue
		}
		assets[asset] = struct{}{}
	}

	return &ReferenceIndex{root: absRoot, assets: assets}, nil
}

// NewReferenceIndex builds an index from explicit asset paths.
func NewReferenceIndex(root string, paths ...domain.AssetPath) *ReferenceIndex {
	assets := make(map[domain.AssetPath]struct{}, len(paths))
	for _, p := range paths {
		assets[p] = struct{}{}
	}
	return &ReferenceIndex{root: root, assets: assets}
}

// Has reports whether the asset has a converted counterpart.
func (r *ReferenceIndex) Has(asset domain.AssetPath) bool {
	_, ok := r.assets[asset]
	return ok
}

// Len returns the number of indexed assets.
func (r *ReferenceIndex) Len() int {
	return len(r.assets)
}

// Root returns the absolute destination root the index was built from.
func (r *ReferenceIndex) Root() string {
	return r.root
}

// Paths returns the indexed assets in sorted order.
func (r *ReferenceIndex) Paths() []domain.AssetPath {
	return slices.Sorted(maps.Keys(r.assets))
}
