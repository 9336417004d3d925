// Package teampage finds the page of a clinic website that presents its
// staff. Discovery is a two-phase crawl: links scoped under the given start
// URL first, the homepage root as fallback, with preferred-path
// short-circuits, per-language override tokens and content scoring deciding
// between candidates. When nothing matches, the start URL itself is the
// answer; discovery never fails a site.
package teampage

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/hazyhaar/vetmap/crawl"
	"github.com/hazyhaar/vetmap/extract"
	"github.com/hazyhaar/vetmap/keywords"
	"github.com/hazyhaar/vetmap/language"
	"github.com/hazyhaar/vetmap/textnorm"
)

// Fetcher loads a URL and returns its rendered HTML.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (html string, err error)
}

// overrideTokens short-circuit candidate scoring per language: a candidate
// whose last path segment starts with one of these wins outright.
var overrideTokens = map[string][]string{
	"fr": {"equipe"},
	"it": {"il nostro team"},
	"de": {"team"},
}

// Result carries what the locator learned about a site.
type Result struct {
	// TeamURL is the located team page, or the start URL when no candidate
	// survived.
	TeamURL string
	// Language is the detected homepage language code.
	Language string
	// Config is the team configuration resolved for that language.
	Config *keywords.TeamConfig
}

// Locator discovers team pages. One Locator is shared across sites.
type Locator struct {
	configs   keywords.TeamConfigs
	collector *crawl.Collector
	logger    *slog.Logger
}

// NewLocator builds a Locator over the given per-language configs.
func NewLocator(configs keywords.TeamConfigs, collector *crawl.Collector, logger *slog.Logger) *Locator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Locator{configs: configs, collector: collector, logger: logger}
}

// Locate detects the homepage language, resolves the language's team
// configuration and runs both discovery phases. The returned TeamURL is the
// start URL when discovery comes up empty; the only error condition is a
// start URL that cannot be parsed or a language with no resolvable config.
func (l *Locator) Locate(ctx context.Context, f Fetcher, baseURL string) (Result, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return Result{}, fmt.Errorf("teampage: parse base url %q: %w", baseURL, err)
	}
	baseDomain := base.Host
	homeURL := base.Scheme + "://" + baseDomain + "/"

	lang := language.Fallback
	if html, err := f.Fetch(ctx, homeURL); err == nil {
		lang = language.Detect(extract.HTMLToText(html))
	} else {
		l.logger.Debug("teampage: homepage fetch failed", "url", homeURL, "error", err)
	}

	cfg, err := l.configs.Lookup(lang)
	if err != nil {
		return Result{}, err
	}
	res := Result{TeamURL: baseURL, Language: lang, Config: cfg}

	if found, ok := l.phase(ctx, f, baseURL, baseDomain, lang, cfg); ok {
		res.TeamURL = found
		return res, nil
	}
	if strings.TrimRight(homeURL, "/") != strings.TrimRight(baseURL, "/") {
		if found, ok := l.phase(ctx, f, homeURL, baseDomain, lang, cfg); ok {
			res.TeamURL = found
			return res, nil
		}
	}
	l.logger.Debug("teampage: no candidate found, keeping start url", "url", baseURL)
	return res, nil
}

// phase crawls one scope URL and tries, in order: a single preferred
// candidate, a language override token, content scoring of the preferred
// candidates, content scoring of all candidates.
func (l *Locator) phase(ctx context.Context, f Fetcher, scopeURL, baseDomain, lang string, cfg *keywords.TeamConfig) (string, bool) {
	html, err := f.Fetch(ctx, scopeURL)
	if err != nil {
		l.logger.Debug("teampage: scope fetch failed", "url", scopeURL, "error", err)
		return "", false
	}
	cands, err := l.collector.Collect(html, scopeURL, baseDomain, cfg)
	if err != nil || len(cands) == 0 {
		return "", false
	}

	var preferred []string
	for _, c := range cands {
		if c.IsPreferred {
			preferred = append(preferred, c.URL)
		}
	}

	if len(preferred) == 1 {
		return preferred[0], true
	}
	if len(preferred) > 1 {
		if u, ok := overrideMatch(lang, cands); ok {
			l.logger.Debug("teampage: language override", "url", u, "lang", lang)
			return u, true
		}
		if u, ok := l.scoreURLs(ctx, f, preferred, lang, cfg); ok {
			return u, true
		}
	}

	all := make([]string, len(cands))
	for i, c := range cands {
		all[i] = c.URL
	}
	return l.scoreURLs(ctx, f, all, lang, cfg)
}

// overrideMatch checks preferred candidates first, then all of them, for a
// last path segment starting with a language override token.
func overrideMatch(lang string, cands []crawl.Candidate) (string, bool) {
	tokens := overrideTokens[lang]
	if len(tokens) == 0 {
		return "", false
	}
	for _, preferredOnly := range []bool{true, false} {
		for _, c := range cands {
			if preferredOnly && !c.IsPreferred {
				continue
			}
			last := lastSegment(c.URL)
			for _, tok := range tokens {
				if strings.HasPrefix(last, tok) {
					return c.URL, true
				}
			}
		}
	}
	return "", false
}

// scoreURLs fetches every candidate, drops pages whose language disagrees
// with the homepage, and keeps the highest content score. Any scored page
// wins over none; ties go to the earlier candidate.
func (l *Locator) scoreURLs(ctx context.Context, f Fetcher, urls []string, lang string, cfg *keywords.TeamConfig) (string, bool) {
	best, bestScore := "", -1
	for _, u := range urls {
		if ctx.Err() != nil {
			break
		}
		html, err := f.Fetch(ctx, u)
		if err != nil {
			l.logger.Debug("teampage: candidate fetch failed", "url", u, "error", err)
			continue
		}
		if language.Detect(extract.HTMLToText(html)) != lang {
			continue
		}
		if score := ScoreContent(html, u, cfg); score > bestScore {
			best, bestScore = u, score
		}
	}
	return best, best != ""
}

func lastSegment(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	return textnorm.Normalize(segs[len(segs)-1])
}
