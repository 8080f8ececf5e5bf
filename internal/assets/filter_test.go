package assets

import (
	"slices"
	"testing"
)

func TestNormalizeExtensions(t *testing.T) {
	got := NormalizeExtensions([]string{"PNG", ".jpg", " .JPEG ", "", "png"})
	want := []string{".png", ".jpg", ".jpeg"}
	if !slices.Equal(got, want) {
		t.Errorf("NormalizeExtensions() = %v, want %v", got, want)
	}
}

func TestFileFilter_Matches(t *testing.T) {
	filter := NewFileFilter(DefaultImageExtensions)

	tests := []struct {
		name  string
		match bool
	}{
		{"hero.png", true},
		{"hero.PNG", true},
		{"photo.jpg", true},
		{"photo.jpeg", true},
		{"hero.webp", false},
		{"logo.svg", false},
		{"png", false},
		{"archive.png.zip", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filter.Matches(tt.name); got != tt.match {
				t.Errorf("Matches(%q) = %v, want %v", tt.name, got, tt.match)
			}
		})
	}
}

func TestFileFilter_ShouldExclude(t *testing.T) {
	filter := NewFileFilter(DefaultImageExtensions)

	tests := []struct {
		path    string
		exclude bool
	}{
		{"node_modules/pkg/img.png", true},
		{"src/node_modules/pkg/img.png", true},
		{".git/objects/x.png", true},
		{"build/static/hero.png", true},
		{"dist/hero.png", true},
		{"images/hero.png", false},
		{"src/build.png", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := filter.ShouldExclude(tt.path); got != tt.exclude {
				t.Errorf("ShouldExclude(%q) = %v, want %v", tt.path, got, tt.exclude)
			}
		})
	}
}

func TestFileFilter_ShouldSkipDir(t *testing.T) {
	filter := NewFileFilter(DefaultImageExtensions)

	if !filter.ShouldSkipDir("node_modules") {
		t.Error("Expected node_modules to be skipped")
	}
	if !filter.ShouldSkipDir("src/node_modules") {
		t.Error("Expected nested node_modules to be skipped")
	}
	if filter.ShouldSkipDir("images") {
		t.Error("Expected images not to be skipped")
	}
}

func TestFileFilter_CustomPatterns(t *testing.T) {
	filter := NewFileFilterWithPatterns([]string{".png"}, []string{"**/drafts/**", "*.tmp.png"})

	if !filter.ShouldExclude("books/drafts/cover.png") {
		t.Error("Expected drafts to be excluded")
	}
	if !filter.ShouldExclude("cover.tmp.png") {
		t.Error("Expected *.tmp.png to be excluded")
	}
	if filter.ShouldExclude("node_modules/a.png") {
		t.Error("Custom patterns should replace the defaults")
	}
}
