package assets

import (
	"path/filepath"
	"slices"
	"testing"
)

func TestOutputPaths(t *testing.T) {
	src := filepath.FromSlash("/site/images")
	dst := filepath.FromSlash("/site/images-webp")

	tests := []struct {
		name   string
		source string
		widths []int
		want   []string
	}{
		{
			name:   "single",
			source: "/site/images/hero.png",
			want:   []string{"/site/images-webp/hero.webp"},
		},
		{
			name:   "nested",
			source: "/site/images/books/a/cover.jpeg",
			want:   []string{"/site/images-webp/books/a/cover.webp"},
		},
		{
			name:   "widths",
			source: "/site/images/books/cover.jpg",
			widths: []int{400, 800},
			want: []string{
				"/site/images-webp/books/cover-400w.webp",
				"/site/images-webp/books/cover-800w.webp",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := OutputPaths(src, dst, filepath.FromSlash(tt.source), ".webp", tt.widths)
			if err != nil {
				t.Fatalf("OutputPaths failed: %v", err)
			}
			want := make([]string, len(tt.want))
			for i, w := range tt.want {
				want[i] = filepath.FromSlash(w)
			}
			if !slices.Equal(got, want) {
				t.Errorf("OutputPaths() = %v, want %v", got, want)
			}
		})
	}
}

func TestOutputPaths_OutsideRoot(t *testing.T) {
	_, err := OutputPaths(filepath.FromSlash("/site/images"), filepath.FromSlash("/site/out"),
		filepath.FromSlash("/elsewhere/hero.png"), ".webp", nil)
	if err == nil {
		t.Error("Expected error for source outside the source root")
	}
}

func TestAssetPathOf(t *testing.T) {
	got, err := AssetPathOf(filepath.FromSlash("/out"), filepath.FromSlash("/out/a/b/name.webp"))
	if err != nil {
		t.Fatalf("AssetPathOf failed: %v", err)
	}
	if got != "a/b/name" {
		t.Errorf("AssetPathOf() = %q, want a/b/name", got)
	}
}
