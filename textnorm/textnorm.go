// Package textnorm canonicalises scraped text and configured keywords into a
// comparable ASCII form so that fuzzy matching operates on a stable alphabet
// regardless of source language or markup quirks.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldASCII = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
	runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
)

// Normalize produces the canonical comparable form of text: Unicode
// decomposition with diacritics stripped, lowercased, non-breaking and
// zero-width spaces collapsed, hyphens and punctuation treated as word
// separators, whitespace collapsed, trimmed.
//
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	folded, _, err := transform.String(foldASCII, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	space := false
	for _, r := range folded {
		switch {
		case r == ' ' || r == '​' || unicode.IsSpace(r) || r == '-':
			space = true
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			// punctuation separates words
			space = true
		}
	}
	return b.String()
}

// Loose applies the lighter canonicalisation used when preparing config
// keywords and URL path segments: ASCII fold, lowercase, hyphens to spaces,
// trim. Punctuation is kept.
func Loose(s string) string {
	folded, _, err := transform.String(foldASCII, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	folded = strings.ReplaceAll(folded, "-", " ")
	return strings.TrimSpace(folded)
}

// SanitizeFilename reduces a clinic name to a filesystem-safe form: only
// letters, digits, spaces, underscores and hyphens survive, trailing spaces
// are trimmed.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), " ")
}
