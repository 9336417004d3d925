// Package crawl extracts, filters and deduplicates in-domain hyperlinks from
// a rendered page. It is not a general crawler: one page in, a bounded,
// cleaned candidate list out.
package crawl

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/vetmap/fuzzy"
	"github.com/hazyhaar/vetmap/keywords"
	"github.com/hazyhaar/vetmap/textnorm"
)

// DefaultMaxLinks bounds the candidates collected from a single page.
const DefaultMaxLinks = 50

// nonHTMLExtensions lists resource suffixes that can never be team pages.
var nonHTMLExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp",
	".pdf", ".doc", ".docx", ".xls", ".xlsx",
	".zip", ".rar", ".mp4", ".mp3", ".avi", ".mov",
}

// IsProbablyHTML reports whether a URL does not point at a known binary or
// media resource.
func IsProbablyHTML(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, ext := range nonHTMLExtensions {
		if strings.HasSuffix(lower, ext) {
			return false
		}
	}
	return true
}

// Candidate is a team-page candidate link: its path or anchor text contains
// a team keyword and it survived every filter.
type Candidate struct {
	// URL is absolute, fragment-stripped.
	URL string
	// NormPath is the canonicalised URL path used for deduplication and
	// keyword containment.
	NormPath string
	// AnchorText is the normalised link text.
	AnchorText string
	// IsPreferred marks a final path segment starting with a preferred
	// path prefix.
	IsPreferred bool
}

// Collector filters links against a team configuration.
type Collector struct {
	matcher  *fuzzy.Matcher
	maxLinks int
}

// NewCollector builds a Collector; zero maxLinks means DefaultMaxLinks and a
// nil matcher gets the default threshold.
func NewCollector(m *fuzzy.Matcher, maxLinks int) *Collector {
	if m == nil {
		m = fuzzy.New(0)
	}
	if maxLinks <= 0 {
		maxLinks = DefaultMaxLinks
	}
	return &Collector{matcher: m, maxLinks: maxLinks}
}

// Collect parses the rendered HTML of scopeURL and returns its team-page
// candidates in document order. Fragment-only links, foreign schemes,
// cross-domain targets, non-HTML resources, duplicate paths, excluded
// sections and links without a team keyword in path or anchor are dropped;
// the result is capped at the collector's limit.
func (c *Collector) Collect(html, scopeURL, baseDomain string, cfg *keywords.TeamConfig) ([]Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(scopeURL)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []Candidate

	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return true
		}

		resolved := Resolve(base, href)
		if resolved == nil {
			return true
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return true
		}
		if resolved.Host != baseDomain {
			return true
		}
		if !IsProbablyHTML(resolved.String()) {
			return true
		}

		normPath := NormalizePath(resolved.Path)
		if seen[normPath] {
			return true
		}
		seen[normPath] = true

		if c.Excluded(normPath, cfg.ExcludeKeywords) {
			return true
		}

		anchor := textnorm.Normalize(s.Text())
		if !containsAny(normPath, cfg.TeamKeywords) && !containsAny(anchor, cfg.TeamKeywords) {
			return true
		}

		out = append(out, Candidate{
			URL:         resolved.String(),
			NormPath:    normPath,
			AnchorText:  anchor,
			IsPreferred: IsPreferredPath(resolved.Path, cfg.PreferredPaths),
		})
		return len(out) < c.maxLinks
	})

	return out, nil
}

// Excluded reports whether a normalised path fuzzily matches any exclude
// keyword at the matcher's threshold.
func (c *Collector) Excluded(normPath string, exclude []string) bool {
	for _, bad := range exclude {
		if fuzzy.PartialRatio(bad, normPath) >= c.matcher.Threshold() {
			return true
		}
	}
	return false
}

// Resolve joins href against base and strips the fragment. Returns nil for
// unparseable hrefs.
func Resolve(base *url.URL, href string) *url.URL {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		href = href[:i]
	}
	ref, err := url.Parse(href)
	if err != nil {
		return nil
	}
	return base.ResolveReference(ref)
}

// NormalizePath canonicalises a URL path: trailing slash stripped, then the
// same fold as all other comparable text.
func NormalizePath(path string) string {
	return textnorm.Normalize(strings.TrimRight(path, "/"))
}

// IsPreferredPath reports whether the final path segment starts with any
// preferred prefix.
func IsPreferredPath(path string, preferred []string) bool {
	segs := strings.Split(strings.Trim(path, "/"), "/")
	last := textnorm.Normalize(segs[len(segs)-1])
	for _, pref := range preferred {
		if pref != "" && strings.HasPrefix(last, pref) {
			return true
		}
	}
	return false
}

func containsAny(text string, kws []string) bool {
	for _, kw := range kws {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
