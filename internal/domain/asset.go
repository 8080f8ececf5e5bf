package domain

import (
	"path"
	"path/filepath"
	"strings"
)

// AssetPath identifies one logical image regardless of its format.
// It is slash-separated, relative, and carries no extension.
// Example: "books/cover-01"
type AssetPath string

// NewAssetPath normalizes a path relative to an asset root into an AssetPath.
// OS separators become slashes, leading slashes are dropped, and the
// extension of the final element is stripped.
func NewAssetPath(rel string) AssetPath {
	p := filepath.ToSlash(rel)
	p = strings.TrimLeft(p, "/")
	if p == "" {
		return ""
	}
	p = path.Clean(p)
	p = strings.TrimSuffix(p, path.Ext(p))
	return AssetPath(p)
}

// String returns the path as a plain string.
func (a AssetPath) String() string {
	return string(a)
}

// ConversionRecord pairs an original image with the outputs produced from it.
type ConversionRecord struct {
	// Source is the absolute path of the original image.
	Source string `json:"source"`

	// Asset is the logical asset identifier of Source relative to the source root.
	Asset AssetPath `json:"asset"`

	// Outputs are the absolute paths written for this source, one per width.
	// Empty when the conversion failed.
	Outputs []string `json:"outputs"`

	// OriginalSize is the size of Source in bytes.
	OriginalSize int64 `json:"original_size"`

	// ConvertedSize is the sum of the sizes of Outputs in bytes.
	ConvertedSize int64 `json:"converted_size"`

	// Error holds the failure message when the conversion was skipped.
	Error string `json:"error,omitempty"`

	// DuplicateOf names the source that already claimed the same outputs,
	// e.g. hero.png when hero.jpeg would also produce hero.webp.
	DuplicateOf string `json:"duplicate_of,omitempty"`
}

// ReferenceStyle is the syntactic form an image reference takes in source text.
type ReferenceStyle string

const (
	// StyleQuoted is a plain quoted literal, e.g. "/images/a.png".
	StyleQuoted ReferenceStyle = "quoted"

	// StyleCSSURL is a CSS url() wrapper, e.g. url('/images/a.png').
	StyleCSSURL ReferenceStyle = "css-url"
)

// SourceReference is one occurrence of an image path literal in a source file.
type SourceReference struct {
	// File is the path of the containing file.
	File string `json:"file"`

	// Match is the exact matched substring, wrapper and quotes included.
	Match string `json:"match"`

	// Path is the image path literal inside Match, e.g. "/images/a/b.png".
	Path string `json:"path"`

	// Asset is Path with the configured prefix and extension removed.
	Asset AssetPath `json:"asset"`

	// Style records whether the literal was quoted or wrapped in url().
	Style ReferenceStyle `json:"style"`

	// Quote is the quote character used, empty for a bare url() argument.
	Quote string `json:"quote,omitempty"`

	// Line is the 1-based line number of the match.
	Line int `json:"line"`
}

// BrokenReference is a referenced image path that has no converted counterpart.
// One entry exists per distinct path, however many files contain it.
type BrokenReference struct {
	Path  string         `json:"path"`
	Asset AssetPath      `json:"asset"`
	Style ReferenceStyle `json:"style"`
	Files []string       `json:"files"`
}

// ReferenceDocument is a source reference as stored in the reference catalog.
type ReferenceDocument struct {
	// ID combines file, line and path: "src/App.jsx:12:/images/hero.png".
	ID string `json:"id"`

	// File is the source file path relative to the scanned root.
	File string `json:"file"`

	// Path is the referenced image path literal.
	Path string `json:"path"`

	// Asset is the logical asset identifier.
	Asset string `json:"asset"`

	// Extension is the image extension without the leading dot.
	Extension string `json:"extension"`

	// Style is the reference style.
	Style string `json:"style"`

	// Line is the 1-based line number.
	Line int `json:"line"`
}

// Bleve field name constants for consistent field references in queries and mappings.
const (
	RefFieldID        = "id"
	RefFieldFile      = "file"
	RefFieldPath      = "path"
	RefFieldAsset     = "asset"
	RefFieldExtension = "extension"
	RefFieldStyle     = "style"
	RefFieldLine      = "line"
)
