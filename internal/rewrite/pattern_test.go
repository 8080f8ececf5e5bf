package rewrite

import (
	"testing"

	"github.com/kiddos-intellect/imgpipe/internal/assets"
	"github.com/kiddos-intellect/imgpipe/internal/domain"
)

func mustPattern(t *testing.T) *Pattern {
	t.Helper()
	p, err := NewPattern("/images/", assets.DefaultImageExtensions)
	if err != nil {
		t.Fatalf("NewPattern failed: %v", err)
	}
	return p
}

func TestNewPattern_Validation(t *testing.T) {
	if _, err := NewPattern("", []string{".png"}); err == nil {
		t.Error("Expected error for empty prefix")
	}
	if _, err := NewPattern("/images/", nil); err == nil {
		t.Error("Expected error for empty extensions")
	}
}

func TestPattern_FindAll(t *testing.T) {
	p := mustPattern(t)

	tests := []struct {
		name    string
		content string
		path    string
		style   domain.ReferenceStyle
		quote   string
	}{
		{"double quoted", `<img src="/images/a/b.png" />`, "/images/a/b.png", domain.StyleQuoted, `"`},
		{"single quoted", `import hero from '/images/hero.jpg';`, "/images/hero.jpg", domain.StyleQuoted, `'`},
		{"backtick", "const x = `/images/x.jpeg`;", "/images/x.jpeg", domain.StyleQuoted, "`"},
		{"css url single", `background: url('/images/bg.png');`, "/images/bg.png", domain.StyleCSSURL, `'`},
		{"css url double", `background: url("/images/bg.png");`, "/images/bg.png", domain.StyleCSSURL, `"`},
		{"css url bare", `background: url(/images/bg.png);`, "/images/bg.png", domain.StyleCSSURL, ""},
		{"css url spaced", `background: url( '/images/bg.png' );`, "/images/bg.png", domain.StyleCSSURL, `'`},
		{"uppercase ext", `src="/images/LOGO.PNG"`, "/images/LOGO.PNG", domain.StyleQuoted, `"`},
		{"url in js string", `style="background-image: url('/images/bg.jpg')"`, "/images/bg.jpg", domain.StyleCSSURL, `'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			matches := p.FindAll(tt.content)
			if len(matches) != 1 {
				t.Fatalf("Expected 1 match, got %d", len(matches))
			}
			m := matches[0]
			if got := m.Path(tt.content); got != tt.path {
				t.Errorf("Path = %q, want %q", got, tt.path)
			}
			if m.Style != tt.style {
				t.Errorf("Style = %q, want %q", m.Style, tt.style)
			}
			if m.Quote != tt.quote {
				t.Errorf("Quote = %q, want %q", m.Quote, tt.quote)
			}
		})
	}
}

func TestPattern_NoMatch(t *testing.T) {
	p := mustPattern(t)

	for _, content := range []string{
		`src="/images-webp/hero.webp"`,
		`src="/images/hero.webp"`,
		`src="/img/hero.png"`,
		`src="images/hero.png"`,
		`src="/images/hero.png?v=2"`,
		`src={"/images/" + name + ".png"}`,
		"src={`/images/${name}.png`}",
		`src="/images/hero.png'`,
	} {
		if matches := p.FindAll(content); len(matches) != 0 {
			t.Errorf("Expected no match in %s, got %d", content, len(matches))
		}
	}
}

func TestPattern_MultipleMatches(t *testing.T) {
	p := mustPattern(t)
	content := `a="/images/a.png"; b='/images/b.jpg'; c: url(/images/c.jpeg)`

	matches := p.FindAll(content)
	if len(matches) != 3 {
		t.Fatalf("Expected 3 matches, got %d", len(matches))
	}
	want := []string{"/images/a.png", "/images/b.jpg", "/images/c.jpeg"}
	for i, m := range matches {
		if m.Path(content) != want[i] {
			t.Errorf("match %d = %q, want %q", i, m.Path(content), want[i])
		}
	}
}

func TestPattern_References(t *testing.T) {
	p := mustPattern(t)
	content := "line one\nconst a = \"/images/books/a.png\";\n\n.hero { background: url('/images/hero.jpg') }\n"

	refs := p.References("src/App.jsx", content)
	if len(refs) != 2 {
		t.Fatalf("Expected 2 references, got %d", len(refs))
	}

	if refs[0].Line != 2 || refs[0].Asset != "books/a" || refs[0].Match != `"/images/books/a.png"` {
		t.Errorf("Unexpected first reference: %+v", refs[0])
	}
	if refs[1].Line != 4 || refs[1].Asset != "hero" || refs[1].Match != `url('/images/hero.jpg')` {
		t.Errorf("Unexpected second reference: %+v", refs[1])
	}
	if refs[0].File != "src/App.jsx" {
		t.Errorf("File = %q", refs[0].File)
	}
}

func TestPattern_AssetOf(t *testing.T) {
	p := mustPattern(t)
	if got := p.AssetOf("/images/a/b/name.png"); got != "a/b/name" {
		t.Errorf("AssetOf() = %q, want a/b/name", got)
	}
}
