package extract

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// cookieBannerNames are matched exactly against class tokens and ids; the
// substring markers used for scored content are too aggressive here, where
// the goal is a faithful full-page document.
var cookieBannerNames = []string{
	"cookie-banner", "cookie-consent", "gdpr-consent", "eu-cookie", "cc-banner",
}

var (
	blankLines = regexp.MustCompile(`\n\s*\n+`)
	spaceRuns  = regexp.MustCompile(` +`)
	sanitizer  = bluemonday.UGCPolicy()
)

// HTMLToText flattens a full rendered page into readable plain text. Layout
// chrome is removed conservatively: header/footer/nav/aside only when short
// and unstructured, cookie banners only on exact class/id match.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	doc.Find("script, style, noscript").Remove()

	doc.Find("header, footer, nav, aside").Each(func(_ int, s *goquery.Selection) {
		if len(strings.TrimSpace(s.Text())) < 80 {
			s.Remove()
		}
	})

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		id := strings.ToLower(firstAttr(s, "id"))
		tokens := strings.Fields(strings.ToLower(class))
		for _, name := range cookieBannerNames {
			if id == name || containsToken(tokens, name) {
				s.Remove()
				return
			}
		}
	})

	body, err := doc.Find("body").First().Html()
	if err != nil || strings.TrimSpace(body) == "" {
		body, _ = doc.Html()
	}

	md, err := htmltomarkdown.ConvertString(sanitizer.Sanitize(body))
	if err != nil {
		// Markdown conversion is best-effort; fall back to raw text.
		md = doc.Text()
	}
	return tidy(md)
}

func firstAttr(s *goquery.Selection, name string) string {
	v, _ := s.Attr(name)
	return v
}

func containsToken(tokens []string, want string) bool {
	for _, tok := range tokens {
		if tok == want {
			return true
		}
	}
	return false
}

// tidy normalises whitespace in the flattened text.
func tidy(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankLines.ReplaceAllString(s, "\n\n")
	s = spaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
