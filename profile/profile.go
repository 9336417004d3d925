// Package profile expands a located team page into individual staff profile
// pages and merges everything into one combined document for classification
// and person extraction.
package profile

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/vetmap/crawl"
	"github.com/hazyhaar/vetmap/fuzzy"
	"github.com/hazyhaar/vetmap/textnorm"
)

const (
	// DefaultMaxProfiles bounds how many profile links one team page may
	// contribute.
	DefaultMaxProfiles = 50

	// DuplicateThreshold drops a profile whose text is mostly contained in
	// the team page text already.
	DuplicateThreshold = 0.85
)

// trapPathTokens mark link paths that lead out of the content area entirely.
var trapPathTokens = []string{"download", "install"}

// TextFetcher loads a URL fully rendered and returns its flattened text.
type TextFetcher interface {
	FetchText(ctx context.Context, pageURL string) (text string, err error)
}

// Aggregator discovers and merges profile pages. One Aggregator is shared
// across sites.
type Aggregator struct {
	matcher     *fuzzy.Matcher
	maxProfiles int
	logger      *slog.Logger
}

// NewAggregator builds an Aggregator; a nil matcher gets the default
// threshold and a zero cap means DefaultMaxProfiles.
func NewAggregator(m *fuzzy.Matcher, maxProfiles int, logger *slog.Logger) *Aggregator {
	if m == nil {
		m = fuzzy.New(0)
	}
	if maxProfiles <= 0 {
		maxProfiles = DefaultMaxProfiles
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{matcher: m, maxProfiles: maxProfiles, logger: logger}
}

// Discover returns the in-domain links strictly below the team page path,
// sorted and capped. Links equal to the team page, outside its path, to
// non-HTML resources, to download or install traps, or into excluded site
// sections are dropped.
func (a *Aggregator) Discover(html, teamURL, baseDomain string, exclude []string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("profile: parse team page: %w", err)
	}
	base, err := url.Parse(teamURL)
	if err != nil {
		return nil, fmt.Errorf("profile: parse team url %q: %w", teamURL, err)
	}
	teamPath := pathKey(base.Path)

	// Some page builders mark each staff card with a dedicated thumbnail
	// link class; when present those links are the profile list and the
	// rest of the page is navigation.
	links := doc.Find("a.elementor-post__thumbnail__link")
	if links.Length() == 0 {
		links = doc.Find("a[href]")
	}

	seen := make(map[string]bool)
	var profiles []string
	links.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return true
		}
		resolved := crawl.Resolve(base, href)
		if resolved == nil {
			return true
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return true
		}
		if resolved.Host != baseDomain {
			return true
		}
		if !crawl.IsProbablyHTML(resolved.String()) {
			return true
		}
		lowerPath := strings.ToLower(resolved.Path)
		for _, tok := range trapPathTokens {
			if strings.Contains(lowerPath, tok) {
				return true
			}
		}
		if strings.Contains(resolved.RawQuery, "os=") {
			return true
		}

		key := pathKey(resolved.Path)
		if seen[key] {
			return true
		}
		seen[key] = true

		if key == teamPath || !strings.HasPrefix(key, teamPath) {
			return true
		}
		if a.excluded(key, exclude) {
			return true
		}

		profiles = append(profiles, resolved.String())
		return len(profiles) < a.maxProfiles
	})

	sort.Strings(profiles)
	return profiles, nil
}

// Aggregate fetches every profile page and merges the surviving texts under
// labeled separator headers, the team page first. Profiles that fail to
// load, come back empty, or mostly repeat the team page text are dropped.
// The team text alone is a valid result.
func (a *Aggregator) Aggregate(ctx context.Context, f TextFetcher, teamURL, teamText string, profileURLs []string) string {
	sep := strings.Repeat("=", 79)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nMAIN TEAM PAGE: %s\n%s\n%s\n", sep, teamURL, sep, teamText)

	kept := 0
	for i, u := range profileURLs {
		if ctx.Err() != nil {
			break
		}
		text, err := f.FetchText(ctx, u)
		if err != nil {
			a.logger.Debug("profile: fetch failed", "url", u, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		if fuzzy.AsymmetricSimilarity(text, teamText) >= DuplicateThreshold {
			a.logger.Debug("profile: dropped near-duplicate", "url", u)
			continue
		}
		kept++
		fmt.Fprintf(&b, "\n%s\nPROFILE %d: %s\n%s\n%s\n", sep, i+1, u, sep, text)
	}
	a.logger.Debug("profile: aggregated", "team_url", teamURL, "discovered", len(profileURLs), "kept", kept)
	return b.String()
}

func (a *Aggregator) excluded(pathKey string, exclude []string) bool {
	for _, bad := range exclude {
		if fuzzy.PartialRatio(bad, pathKey) >= a.matcher.Threshold() {
			return true
		}
	}
	return false
}

// pathKey canonicalises a URL path for containment checks: ASCII-folded and
// lowercased with exactly one trailing slash, so /team is the prefix of
// /team/dr-x but not of /teamwork and /équipe contains /equipe/dr-x however
// the site spells it.
func pathKey(path string) string {
	return textnorm.Loose(strings.TrimRight(path, "/")) + "/"
}
