package rewrite

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kiddos-intellect/imgpipe/internal/assets"
	"github.com/kiddos-intellect/imgpipe/internal/domain"
)

// Match is one image reference located in source text. Offsets are byte offsets.
type Match struct {
	Start     int
	End       int
	PathStart int
	PathEnd   int
	Style     domain.ReferenceStyle
	Quote     string
}

// Text returns the full matched substring.
func (m Match) Text(content string) string {
	return content[m.Start:m.End]
}

// Path returns the image path literal inside the match.
func (m Match) Path(content string) string {
	return content[m.PathStart:m.PathEnd]
}

// groupStyles maps regexp submatch groups to the reference form they capture.
var groupStyles = []struct {
	style domain.ReferenceStyle
	quote string
}{
	{domain.StyleCSSURL, `"`},
	{domain.StyleCSSURL, `'`},
	{domain.StyleCSSURL, ""},
	{domain.StyleQuoted, `"`},
	{domain.StyleQuoted, `'`},
	{domain.StyleQuoted, "`"},
}

// Pattern finds image path literals under a root-relative prefix.
// Matching is textual: it does not parse the host language.
type Pattern struct {
	prefix string
	re     *regexp.Regexp
}

// NewPattern compiles a pattern for paths starting with prefix and ending in one of extensions.
func NewPattern(prefix string, extensions []string) (*Pattern, error) {
	if prefix == "" {
		return nil, fmt.Errorf("prefix cannot be empty")
	}
	exts := assets.NormalizeExtensions(extensions)
	if len(exts) == 0 {
		return nil, fmt.Errorf("at least one image extension is required")
	}

	alts := make([]string, len(exts))
	for i, ext := range exts {
		alts[i] = regexp.QuoteMeta(strings.TrimPrefix(ext, "."))
	}
	path := regexp.QuoteMeta(prefix) + "[^\"'`\\s()<>${}]*\\.(?i:" + strings.Join(alts, "|") + ")"

	expr := `url\(\s*(?:"(` + path + `)"|'(` + path + `)'|(` + path + `))\s*\)` +
		`|"(` + path + `)"` +
		`|'(` + path + `)'` +
		"|`(" + path + ")`"

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to compile reference pattern: %w", err)
	}
	return &Pattern{prefix: prefix, re: re}, nil
}

// Prefix returns the path prefix the pattern matches.
func (p *Pattern) Prefix() string {
	return p.prefix
}

// FindAll returns every non-overlapping reference in content, in order.
func (p *Pattern) FindAll(content string) []Match {
	var matches []Match
	for _, loc := range p.re.FindAllStringSubmatchIndex(content, -1) {
		for g, gs := range groupStyles {
			start, end := loc[2+2*g], loc[3+2*g]
			if start < 0 {
				continue
			}
			matches = append(matches, Match{
				Start:     loc[0],
				End:       loc[1],
				PathStart: start,
				PathEnd:   end,
				Style:     gs.style,
				Quote:     gs.quote,
			})
			break
		}
	}
	return matches
}

// AssetOf strips the prefix and extension from an image path literal.
func (p *Pattern) AssetOf(path string) domain.AssetPath {
	return domain.NewAssetPath(strings.TrimPrefix(path, p.prefix))
}

// References returns the source references found in content, with 1-based line numbers.
func (p *Pattern) References(file, content string) []domain.SourceReference {
	matches := p.FindAll(content)
	refs := make([]domain.SourceReference, 0, len(matches))

	line, offset := 1, 0
	for _, m := range matches {
		line += strings.Count(content[offset:m.Start], "\n")
		offset = m.Start

		path := m.Path(content)
		refs = append(refs, domain.SourceReference{
			File:  file,
			Match: m.Text(content),
			Path:  path,
			Asset: p.AssetOf(path),
			Style: m.Style,
			Quote: m.Quote,
			Line:  line,
		})
	}
	return refs
}
