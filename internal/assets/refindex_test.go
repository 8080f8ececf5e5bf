package assets

import (
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/kiddos-intellect/imgpipe/internal/domain"
)

func TestBuildReferenceIndex(t *testing.T) {
	dst := t.TempDir()
	writeFile(t, filepath.Join(dst, "a", "b", "name.webp"), "x")
	writeFile(t, filepath.Join(dst, "hero.webp"), "x")
	writeFile(t, filepath.Join(dst, "hero.png"), "x")
	writeFile(t, filepath.Join(dst, "notes.txt"), "x")

	index, err := BuildReferenceIndex(dst, []string{".webp"})
	if err != nil {
		t.Fatalf("BuildReferenceIndex failed: %v", err)
	}

	want := []domain.AssetPath{"a/b/name", "hero"}
	if got := index.Paths(); !slices.Equal(got, want) {
		t.Errorf("Paths() = %v, want %v", got, want)
	}
	if !index.Has("a/b/name") {
		t.Error("Expected a/b/name in index")
	}
	if index.Has("a/b/name.webp") || index.Has("notes") {
		t.Error("Unexpected entries in index")
	}
	if index.Len() != 2 {
		t.Errorf("Len() = %d, want 2", index.Len())
	}
}

func TestBuildReferenceIndex_Idempotent(t *testing.T) {
	dst := t.TempDir()
	writeFile(t, filepath.Join(dst, "x", "y.webp"), "x")
	writeFile(t, filepath.Join(dst, "z.webp"), "x")

	first, err := BuildReferenceIndex(dst, []string{".webp"})
	if err != nil {
		t.Fatalf("first build failed: %v", err)
	}
	second, err := BuildReferenceIndex(dst, []string{".webp"})
	if err != nil {
		t.Fatalf("second build failed: %v", err)
	}

	if !slices.Equal(first.Paths(), second.Paths()) {
		t.Errorf("Index differs between scans: %v vs %v", first.Paths(), second.Paths())
	}
}

func TestBuildReferenceIndex_MissingRoot(t *testing.T) {
	_, err := BuildReferenceIndex(filepath.Join(t.TempDir(), "missing"), []string{".webp"})
	if !errors.Is(err, ErrRootNotFound) {
		t.Errorf("Expected ErrRootNotFound, got: %v", err)
	}
}

func TestNewReferenceIndex(t *testing.T) {
	index := NewReferenceIndex("/out", "hero", "books/cover")
	if !index.Has("hero") || !index.Has("books/cover") {
		t.Error("Expected explicit paths to be indexed")
	}
	if index.Root() != "/out" {
		t.Errorf("Root() = %q", index.Root())
	}
}
