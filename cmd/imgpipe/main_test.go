package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kiddos-intellect/imgpipe/internal/app"
	"github.com/kiddos-intellect/imgpipe/internal/assets"
)

// pngEncoder writes PNG bytes under a .webp name so tests run without libwebp.
type pngEncoder struct{}

func (pngEncoder) Encode(w io.Writer, img image.Image, _ int) error { return png.Encode(w, img) }
func (pngEncoder) Extension() string                                { return ".webp" }

func testParams(out io.Writer) app.RunParams {
	params := app.DefaultRunParams()
	params.NewEncoder = func() assets.Encoder { return pngEncoder{} }
	params.Stdout = out
	return params
}

func TestExecute_Version(t *testing.T) {
	err := Execute("1.0.0", "abc123", "imgpipe", []string{"--version"})
	if err != nil {
		t.Errorf("Expected no error for --version, got: %v", err)
	}
}

func TestExecute_Help(t *testing.T) {
	err := Execute("1.0.0", "abc123", "imgpipe", []string{"--help"})
	if err != nil {
		t.Errorf("Expected no error for --help, got: %v", err)
	}
}

func TestExecute_InvalidFlag(t *testing.T) {
	err := Execute("1.0.0", "abc123", "imgpipe", []string{"discover", "--invalid-flag", "."})
	if err == nil {
		t.Error("Expected error for invalid flag")
	}
}

func TestExecute_MissingArgs(t *testing.T) {
	err := Execute("1.0.0", "abc123", "imgpipe", []string{"convert", "only-one"})
	if err == nil {
		t.Error("Expected error for missing destination root")
	}
}

func TestExecute_MissingRoot(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	err := Execute("1.0.0", "abc123", "imgpipe", []string{"discover", missing})
	if err == nil {
		t.Fatal("Expected error for missing root")
	}
}

func TestExecute_InvalidQuality(t *testing.T) {
	dir := t.TempDir()
	err := Execute("1.0.0", "abc123", "imgpipe", []string{"convert", "--quality", "150", dir, filepath.Join(dir, "out")})
	if err == nil {
		t.Fatal("Expected error for out-of-range quality")
	}
	if !strings.Contains(err.Error(), "quality") {
		t.Errorf("Expected error about quality, got: %v", err)
	}
}

func TestExecute_Discover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.JPG", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	var out bytes.Buffer
	err := executeWithParams(testParams(&out), "1.0.0", "imgpipe", []string{"discover", dir})
	if err != nil {
		t.Fatalf("discover failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 images, got %v", lines)
	}
}

func TestExecute_ConvertWithFlags(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "images")
	dst := filepath.Join(dir, "images-webp")
	writeTestPNG(t, filepath.Join(src, "hero.png"))

	var out bytes.Buffer
	err := executeWithParams(testParams(&out), "1.0.0", "imgpipe",
		[]string{"convert", "--quality", "70", "--concurrency", "2", src, dst})
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dst, "hero.webp")); err != nil {
		t.Errorf("Expected hero.webp: %v", err)
	}
	if !strings.Contains(out.String(), "Converted: 1") {
		t.Errorf("Unexpected output: %s", out.String())
	}
}

func TestExecute_GenerateResponsiveWidths(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "images")
	dst := filepath.Join(dir, "images-webp")
	writeTestPNG(t, filepath.Join(src, "hero.png"))

	var out bytes.Buffer
	err := executeWithParams(testParams(&out), "1.0.0", "imgpipe",
		[]string{"generate-responsive", "--widths", "8,16", src, dst})
	if err != nil {
		t.Fatalf("generate-responsive failed: %v", err)
	}

	for _, name := range []string{"hero-8w.webp", "hero-16w.webp"} {
		if _, err := os.Stat(filepath.Join(dst, name)); err != nil {
			t.Errorf("Expected %s: %v", name, err)
		}
	}
}

func TestRunMain_Success(t *testing.T) {
	exitCode := -1
	mockExit := func(code int) {
		exitCode = code
	}

	// --help should succeed
	runMain([]string{"imgpipe", "--help"}, mockExit)

	if exitCode != -1 {
		t.Errorf("Expected no exit call for --help, got exit code: %d", exitCode)
	}
}

func TestRunMain_Failure(t *testing.T) {
	exitCode := -1
	mockExit := func(code int) {
		exitCode = code
	}

	runMain([]string{"imgpipe", "--invalid"}, mockExit)

	if exitCode != 1 {
		t.Errorf("Expected exit code 1 for invalid flag, got: %d", exitCode)
	}
}

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	img := image.NewNRGBA(image.Rect(0, 0, 32, 16))
	for y := range 16 {
		for x := range 32 {
			img.Set(x, y, color.NRGBA{R: uint8(x * 8), G: uint8(y * 16), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode failed: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

