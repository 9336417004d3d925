// Package fuzzy wraps approximate string comparison for multilingual keyword
// matching. Scores are on the 0-100 scale; the default threshold of 85
// balances false positives against false negatives for short keyword phrases
// and is carried by the Matcher so callers never hardcode it.
package fuzzy

import (
	"strings"

	fuzzywuzzy "github.com/paul-mannino/go-fuzzywuzzy"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/hazyhaar/vetmap/textnorm"
)

// DefaultThreshold is the similarity cutoff (0-100) used when a Matcher is
// constructed without an explicit threshold.
const DefaultThreshold = 85

// Scorer computes a 0-100 similarity score between two strings.
type Scorer func(a, b string) int

// Ratio is the plain Levenshtein-based similarity.
func Ratio(a, b string) int { return fuzzywuzzy.Ratio(a, b) }

// PartialRatio scores the best matching substring, suited to short keywords
// against long text.
func PartialRatio(a, b string) int { return fuzzywuzzy.PartialRatio(a, b) }

// TokenSortRatio compares with word order neutralised.
func TokenSortRatio(a, b string) int { return fuzzywuzzy.TokenSortRatio(a, b, true, true) }

// Matcher bundles a similarity threshold with the matching operations.
// The zero value is not usable; construct with New.
type Matcher struct {
	threshold int
}

// New returns a Matcher with the given threshold, or DefaultThreshold when
// threshold <= 0.
func New(threshold int) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Matcher{threshold: threshold}
}

// Threshold reports the configured cutoff.
func (m *Matcher) Threshold() int { return m.threshold }

// ContainsKeyword reports whether any keyword reaches the threshold as a
// partial match against text. Text is normalised before comparison; keywords
// are assumed already normalised at config load.
func (m *Matcher) ContainsKeyword(text string, keywords []string) bool {
	text = textnorm.Normalize(text)
	if text == "" {
		return false
	}
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if fuzzywuzzy.PartialRatio(kw, text) >= m.threshold {
			return true
		}
	}
	return false
}

// MatchesAny reports whether candidate matches any keyword either as a
// literal substring or by full-ratio similarity at the threshold. Used for
// short element texts (cookie buttons) where partial matching is too eager.
func (m *Matcher) MatchesAny(candidate string, keywords []string) bool {
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(candidate, kw) || fuzzywuzzy.Ratio(kw, candidate) >= m.threshold {
			return true
		}
	}
	return false
}

// BestMatch returns the highest-scoring element of haystack per scorer, or
// ok=false when nothing reaches cutoff.
func BestMatch(needle string, haystack []string, scorer Scorer, cutoff int) (best string, score int, ok bool) {
	score = cutoff - 1
	for _, h := range haystack {
		if s := scorer(needle, h); s > score {
			best, score, ok = h, s, true
		}
	}
	if !ok {
		return "", 0, false
	}
	return best, score, true
}

// AsymmetricSimilarity measures how much of a is covered by matching runs
// shared with b: the summed matching-block length divided by len(a). A
// profile page whose text is ≥0.85 covered by the team page text is
// boilerplate, not a distinct profile.
func AsymmetricSimilarity(a, b string) float64 {
	if len(a) == 0 {
		return 0
	}
	sm := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	matched := 0
	for _, blk := range sm.GetMatchingBlocks() {
		matched += blk.Size
	}
	return float64(matched) / float64(len(strings.Split(a, "")))
}
