package crawl

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/hazyhaar/vetmap/fuzzy"
	"github.com/hazyhaar/vetmap/keywords"
)

func testConfig() *keywords.TeamConfig {
	cfgs := keywords.DefaultTeamConfigs()
	return cfgs["de"]
}

const homepageHTML = `<html><body>
<a href="/unser-team">Unser Team</a>
<a href="/leistungen">Leistungen</a>
<a href="/kontakt">Kontakt</a>
<a href="https://facebook.com/praxis">Facebook</a>
<a href="mailto:info@praxis.ch">Mail</a>
<a href="tel:+41441234567">Anrufen</a>
<a href="#top">Nach oben</a>
<a href="/bilder/praxis.jpg">Foto</a>
<a href="/flyer.pdf">Flyer</a>
<a href="/unser-team/">Team (duplicate)</a>
<a href="/ueber-uns">Über uns</a>
</body></html>`

func TestCollectFilters(t *testing.T) {
	c := NewCollector(fuzzy.New(0), 0)
	cands, err := c.Collect(homepageHTML, "https://praxis.ch/", "praxis.ch", testConfig())
	if err != nil {
		t.Fatal(err)
	}

	for _, cand := range cands {
		u, err := url.Parse(cand.URL)
		if err != nil {
			t.Fatalf("unparseable candidate %q", cand.URL)
		}
		if u.Host != "praxis.ch" {
			t.Errorf("cross-domain candidate survived: %q", cand.URL)
		}
		if !IsProbablyHTML(cand.URL) {
			t.Errorf("non-HTML candidate survived: %q", cand.URL)
		}
		if u.Scheme != "https" && u.Scheme != "http" {
			t.Errorf("bad scheme survived: %q", cand.URL)
		}
	}

	byPath := map[string]Candidate{}
	for _, cand := range cands {
		if _, dup := byPath[cand.NormPath]; dup {
			t.Errorf("duplicate normalised path %q", cand.NormPath)
		}
		byPath[cand.NormPath] = cand
	}

	team, ok := byPath["unser team"]
	if !ok {
		t.Fatalf("team link missing from %v", byPath)
	}
	if !team.IsPreferred {
		t.Errorf("team link flags = %+v, want preferred", team)
	}

	// Exclude keywords drop the contact and services sections.
	if _, ok := byPath["kontakt"]; ok {
		t.Error("excluded section kontakt survived")
	}
	if _, ok := byPath["leistungen"]; ok {
		t.Error("excluded section leistungen survived")
	}

	// Über uns resolves as a team candidate via anchor text and path.
	if _, ok := byPath["ueber uns"]; !ok {
		t.Fatal("ueber-uns link missing")
	}
}

func TestCollectCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 80; i++ {
		fmt.Fprintf(&b, `<a href="/team-%d">Team %d</a>`, i, i)
	}
	b.WriteString("</body></html>")

	c := NewCollector(fuzzy.New(0), 10)
	cands, err := c.Collect(b.String(), "https://praxis.ch/", "praxis.ch", testConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) > 10 {
		t.Errorf("cap not applied: %d candidates", len(cands))
	}
}

func TestIsPreferredPath(t *testing.T) {
	preferred := []string{"team", "ueber uns"}
	if !IsPreferredPath("/de/unser/team-und-praxis", preferred) {
		t.Error("segment starting with team should be preferred")
	}
	if IsPreferredPath("/de/kontakt", preferred) {
		t.Error("kontakt should not be preferred")
	}
}

func TestIsProbablyHTML(t *testing.T) {
	if IsProbablyHTML("https://x.ch/a.PDF") {
		t.Error("pdf accepted")
	}
	if !IsProbablyHTML("https://x.ch/team") {
		t.Error("html path rejected")
	}
}
