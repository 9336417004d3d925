package pipeline

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/hazyhaar/vetmap/browser"
	"github.com/hazyhaar/vetmap/crawl"
	"github.com/hazyhaar/vetmap/extract"
	"github.com/hazyhaar/vetmap/keywords"
	"github.com/hazyhaar/vetmap/overlay"
)

const (
	fetchCacheSize  = 32
	maxScrolls      = 20
	maxLoadMore     = 10
	maxServiceLinks = 10
)

// siteFetcher drives one browser session through a single site visit. Every
// navigation dismisses consent overlays before the DOM is read; rendered
// pages are cached so the locator and the service-link expansion do not
// refetch the homepage.
type siteFetcher struct {
	session        *browser.Session
	dismisser      *overlay.Dismisser
	cookieKeywords []string
	cache          map[string]string
}

func newSiteFetcher(session *browser.Session, dismisser *overlay.Dismisser) *siteFetcher {
	return &siteFetcher{
		session:        session,
		dismisser:      dismisser,
		cookieKeywords: keywords.CookieButtonKeywords("en"),
		cache:          make(map[string]string),
	}
}

// setLanguage swaps the cookie-button keywords once the site language is
// known.
func (f *siteFetcher) setLanguage(lang string) {
	f.cookieKeywords = keywords.CookieButtonKeywords(lang)
}

// Fetch loads a page and returns its rendered DOM.
func (f *siteFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	if html, ok := f.cache[pageURL]; ok {
		return html, nil
	}
	if err := f.session.Navigate(ctx, pageURL); err != nil {
		return "", err
	}
	f.dismisser.Dismiss(ctx, f.session.Page(), f.cookieKeywords)
	html, err := f.session.HTML(ctx)
	if err != nil {
		return "", err
	}
	if len(f.cache) < fetchCacheSize {
		f.cache[pageURL] = html
	}
	return html, nil
}

// FetchPage loads a page fully: overlays dismissed, lazy content scrolled
// in, load-more buttons pressed. It returns the expanded DOM alongside its
// flattened text; staff cards behind lazy loading only exist in the
// expanded DOM.
func (f *siteFetcher) FetchPage(ctx context.Context, pageURL string) (html, text string, err error) {
	if err := f.session.Navigate(ctx, pageURL); err != nil {
		return "", "", err
	}
	f.dismisser.Dismiss(ctx, f.session.Page(), f.cookieKeywords)
	f.session.ScrollToBottom(ctx, maxScrolls)
	f.session.ClickLoadMore(ctx, maxLoadMore)
	html, err = f.session.HTML(ctx)
	if err != nil {
		return "", "", err
	}
	return html, extract.HTMLToText(html), nil
}

// FetchText is FetchPage for callers that only need the text.
func (f *siteFetcher) FetchText(ctx context.Context, pageURL string) (string, error) {
	_, text, err := f.FetchPage(ctx, pageURL)
	return text, err
}

// VisiblyNonEmpty reports whether the current page renders visible content.
func (f *siteFetcher) VisiblyNonEmpty(ctx context.Context) bool {
	return f.session.VisiblyNonEmpty(ctx)
}

// Screenshot captures the current page.
func (f *siteFetcher) Screenshot(ctx context.Context) ([]byte, error) {
	return f.session.Screenshot(ctx)
}

// serviceLinks collects in-domain links whose anchor text mentions a
// service-page keyword, deduplicated and capped. They widen the text base
// for the specialization scan.
func serviceLinks(html, baseURL string, kws []string) []string {
	if len(kws) == 0 {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		anchor := strings.ToLower(strings.TrimSpace(s.Text()))
		if anchor == "" {
			return true
		}
		match := false
		for _, kw := range kws {
			if strings.Contains(anchor, kw) {
				match = true
				break
			}
		}
		if !match {
			return true
		}
		href, _ := s.Attr("href")
		resolved := crawl.Resolve(base, strings.TrimSpace(href))
		if resolved == nil || resolved.Host != base.Host {
			return true
		}
		if !crawl.IsProbablyHTML(resolved.String()) {
			return true
		}
		u := resolved.String()
		if seen[u] {
			return true
		}
		seen[u] = true
		out = append(out, u)
		return len(out) < maxServiceLinks
	})
	return out
}
