package assets

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kiddos-intellect/imgpipe/internal/domain"
)

// OutputPaths maps a source file under srcRoot to its converted outputs under dstRoot.
// The relative directory structure is kept and the extension replaced by ext.
// With no widths a single path is returned; otherwise one "<name>-<width>w<ext>" path per width.
func OutputPaths(srcRoot, dstRoot, source, ext string, widths []int) ([]string, error) {
	rel, err := filepath.Rel(srcRoot, source)
	if err != nil {
		return nil, fmt.Errorf("failed to relativize %s: %w", source, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, fmt.Errorf("%s is outside %s", source, srcRoot)
	}

	base := filepath.Join(dstRoot, strings.TrimSuffix(rel, filepath.Ext(rel)))
	if len(widths) == 0 {
		return []string{base + ext}, nil
	}

	paths := make([]string, 0, len(widths))
	for _, w := range widths {
		paths = append(paths, base+widthSuffix(w)+ext)
	}
	return paths, nil
}

// WidthAsset returns the asset identifier of the width variant of asset.
func WidthAsset(asset domain.AssetPath, width int) domain.AssetPath {
	return domain.AssetPath(asset.String() + widthSuffix(width))
}

func widthSuffix(width int) string {
	return "-" + strconv.Itoa(width) + "w"
}

// AssetPathOf returns the logical asset identifier of path relative to root.
func AssetPathOf(root, path string) (domain.AssetPath, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", err
	}
	return domain.NewAssetPath(rel), nil
}

func relOrSelf(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
