package teampage

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/hazyhaar/vetmap/crawl"
	"github.com/hazyhaar/vetmap/extract"
	"github.com/hazyhaar/vetmap/keywords"
	"github.com/hazyhaar/vetmap/textnorm"
)

const (
	// DefaultKeywordWeight applies to team keywords without an explicit
	// weight in the config.
	DefaultKeywordWeight = 3

	// pathBonus is added once per team keyword found in the URL path.
	pathBonus = 25

	// rootPenalty is subtracted for a root-path page whose text carries no
	// strong keyword. Homepages mention the team in passing; a genuine team
	// page lives on its own path or leads with a strong keyword.
	rootPenalty = 15

	// strongWeight is the configured weight at which a keyword counts as
	// strong for the root-path penalty.
	strongWeight = 20
)

// ScoreContent rates how much a page looks like a team page. The main
// content container is isolated and normalised, then every team keyword
// occurrence adds its configured weight. Keywords appearing in the URL path
// add a flat bonus each; a root-path page without a strong keyword in its
// text is penalised. Pages whose cleaned text is too short to classify
// score zero regardless.
func ScoreContent(html, pageURL string, cfg *keywords.TeamConfig) int {
	text := textnorm.Normalize(extract.CleanMainContent(html))
	if utf8.RuneCountInString(text) <= extract.MinContentLength {
		return 0
	}

	score := 0
	padded := " " + text + " "
	for _, kw := range cfg.TeamKeywords {
		weight := DefaultKeywordWeight
		if w, ok := cfg.KeywordWeights[kw]; ok {
			weight = w
		}
		score += weight * strings.Count(padded, " "+kw+" ")
	}

	var normPath string
	if u, err := url.Parse(pageURL); err == nil {
		normPath = crawl.NormalizePath(u.Path)
	}
	for _, kw := range cfg.TeamKeywords {
		if strings.Contains(normPath, kw) {
			score += pathBonus
		}
	}

	if normPath == "" && !containsStrong(text, cfg) {
		score -= rootPenalty
	}
	return score
}

func containsStrong(text string, cfg *keywords.TeamConfig) bool {
	for kw, w := range cfg.KeywordWeights {
		if w >= strongWeight && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
