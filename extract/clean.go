// Package extract turns rendered page HTML into clean plain text: main-content
// selection for scoring, full-page flattening for classification, and a
// validity gate that rejects error pages and bot-block interstitials.
package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// mainContentSelectors is the prioritised list of containers likely to hold
// the page's primary content. The first match wins; body is the fallback.
var mainContentSelectors = []string{
	"div#main", "main", "div#content", "div.site-main", "div.page-content", "div#primary",
}

// consentMarkers tag elements removed from scored content regardless of tag.
var consentMarkers = []string{"cookie", "consent", "gdpr"}

// CleanMainContent extracts the text of the page's main content container:
// script/style stripped, trivially short header/footer/nav/aside blocks
// removed, and cookie/consent/gdpr-tagged elements dropped.
func CleanMainContent(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var main *goquery.Selection
	for _, sel := range mainContentSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			main = s
			break
		}
	}
	if main == nil {
		main = doc.Find("body").First()
	}
	if main.Length() == 0 {
		return ""
	}

	prune(main, 50)
	return collapse(main.Text())
}

// prune removes layout and consent noise below root. Chrome blocks shorter
// than minChromeLen keep their place; longer ones may carry real content
// (some sites put the staff list in a footer) and survive.
func prune(root *goquery.Selection, minChromeLen int) {
	root.Find("script, style, noscript").Remove()

	root.Find("header, footer, nav, aside").Each(func(_ int, s *goquery.Selection) {
		if len(strings.TrimSpace(s.Text())) < minChromeLen {
			s.Remove()
		}
	})

	root.Find("*").Each(func(_ int, s *goquery.Selection) {
		class, _ := s.Attr("class")
		id, _ := s.Attr("id")
		tag := strings.ToLower(class + " " + id)
		for _, marker := range consentMarkers {
			if strings.Contains(tag, marker) {
				s.Remove()
				return
			}
		}
	})
}

// collapse flattens whitespace runs into single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
