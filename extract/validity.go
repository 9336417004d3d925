package extract

import (
	"regexp"
	"strings"
)

// MinContentLength is the shortest text accepted as a usable page: anything
// below it is an empty shell, a redirect stub or an error page.
const MinContentLength = 200

// errorPatterns recognise not-found pages across the corpus's languages.
var errorPatterns = []string{
	"error scraping content",
	"no content saving",
	"no content",
	"<!doctype html>",
	"404 not found",
	"page not found",
	"document not found",
	"the resource requested could not be found",
	"diese seite wurde nicht gefunden",
	"seite nicht gefunden",
	"page introuvable",
}

// botBlockPatterns recognise bot-protection interstitials.
var botBlockPatterns = []string{
	"verifying you are human",
	"enable javascript and cookies",
	"cloudflare",
	`waiting for .* to respond`,
	"performance & security by cloudflare",
	"ray id",
}

var invalidContent = func() *regexp.Regexp {
	parts := make([]string, 0, len(errorPatterns)+len(botBlockPatterns))
	for _, p := range errorPatterns {
		parts = append(parts, regexp.QuoteMeta(p))
	}
	// Bot-block entries may carry regex syntax.
	for _, p := range botBlockPatterns {
		if p == `waiting for .* to respond` {
			parts = append(parts, p)
			continue
		}
		parts = append(parts, regexp.QuoteMeta(p))
	}
	return regexp.MustCompile("(?i)" + strings.Join(parts, "|"))
}()

// IsValidContent reports whether extracted text carries a real textual
// signal: long enough and free of error-page and bot-block signatures.
// Invalid content routes the orchestrator to the screenshot fallback.
func IsValidContent(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return false
	}
	if invalidContent.MatchString(lower) {
		return false
	}
	return len(lower) >= MinContentLength
}

var waitingFor = regexp.MustCompile(`(?i)waiting for .* to respond`)

// IsBotBlocked reports whether text looks like a bot-protection interstitial
// specifically; the pipeline counts consecutive hits to trigger its global
// fallback strategy switch.
func IsBotBlocked(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range botBlockPatterns {
		if p == `waiting for .* to respond` {
			if waitingFor.MatchString(lower) {
				return true
			}
			continue
		}
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
