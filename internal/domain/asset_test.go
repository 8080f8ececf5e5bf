package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNewAssetPath(t *testing.T) {
	tests := []struct {
		in   string
		want AssetPath
	}{
		{"a/b/name.png", "a/b/name"},
		{"/a/b/name.webp", "a/b/name"},
		{"hero.jpg", "hero"},
		{"dir/file.name.jpeg", "dir/file.name"},
		{"./x/../y/z.png", "y/z"},
		{"noext", "noext"},
		{"", ""},
		{"/", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NewAssetPath(tt.in); got != tt.want {
				t.Errorf("NewAssetPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewAssetPath_FormatIndependent(t *testing.T) {
	if NewAssetPath("books/cover.png") != NewAssetPath("books/cover.webp") {
		t.Error("Expected the same asset path for png and webp variants")
	}
}

func TestBrokenReference_JSONFieldNames(t *testing.T) {
	ref := BrokenReference{
		Path:  "/images/unused.jpg",
		Asset: "unused",
		Style: StyleCSSURL,
		Files: []string{"src/App.css"},
	}

	data, err := json.Marshal(ref)
	if err != nil {
		t.Fatalf("Failed to marshal BrokenReference: %v", err)
	}

	for _, field := range []string{`"path"`, `"asset"`, `"style":"css-url"`, `"files"`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("Expected %s in %s", field, data)
		}
	}
}
