package teampage

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/hazyhaar/vetmap/crawl"
	"github.com/hazyhaar/vetmap/fuzzy"
	"github.com/hazyhaar/vetmap/keywords"
)

// fakeFetcher serves canned HTML per URL and errors on anything else.
type fakeFetcher struct {
	pages   map[string]string
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, pageURL string) (string, error) {
	f.fetched = append(f.fetched, pageURL)
	html, ok := f.pages[pageURL]
	if !ok {
		return "", fmt.Errorf("no page for %s", pageURL)
	}
	return html, nil
}

const germanHome = `<html><body><main>
<p>Willkommen in unserer Tierarztpraxis. Wir behandeln Hunde, Katzen und
Pferde mit langjähriger Erfahrung. Unsere Praxis liegt mitten in der Stadt
und ist für Sie und Ihre Tiere jederzeit gut erreichbar. Vereinbaren Sie
einen Termin mit uns, wir freuen uns auf Ihren Besuch.</p>
%s
</main></body></html>`

const germanTeamPage = `<html><body><main>
<p>Unser Team betreut Hunde, Katzen und Pferde in der ganzen Region.
Das Team besteht aus erfahrenen Tierärztinnen und Tierärzten. Jedes Mitglied
im Team bildet sich laufend weiter, damit Ihre Tiere die beste Behandlung
bekommen. Lernen Sie das Team unserer Praxis kennen.</p>
</main></body></html>`

func newTestLocator() *Locator {
	collector := crawl.NewCollector(fuzzy.New(0), 0)
	return NewLocator(keywords.DefaultTeamConfigs(), collector, nil)
}

func TestLocateSinglePreferredShortCircuit(t *testing.T) {
	home := fmt.Sprintf(germanHome, `<a href="/team">Unser Team</a><a href="/notdienst">Notdienst</a>`)
	f := &fakeFetcher{pages: map[string]string{
		"https://praxis.ch/": home,
		"https://praxis.ch":  home,
	}}

	res, err := newTestLocator().Locate(context.Background(), f, "https://praxis.ch")
	if err != nil {
		t.Fatal(err)
	}
	if res.TeamURL != "https://praxis.ch/team" {
		t.Errorf("TeamURL = %q, want the single preferred candidate", res.TeamURL)
	}
	if res.Config == nil {
		t.Error("Config not resolved")
	}

	// The single-preferred short-circuit must not fetch candidate pages.
	for _, u := range f.fetched {
		if u == "https://praxis.ch/team" {
			t.Error("candidate page was fetched despite short-circuit")
		}
	}
}

func TestLocateKeepsStartURLWithoutCandidates(t *testing.T) {
	home := fmt.Sprintf(germanHome, `<a href="/notdienst">Notdienst</a><a href="/oeffnungszeiten">Öffnungszeiten</a>`)
	f := &fakeFetcher{pages: map[string]string{
		"https://praxis.ch/": home,
		"https://praxis.ch":  home,
	}}

	res, err := newTestLocator().Locate(context.Background(), f, "https://praxis.ch")
	if err != nil {
		t.Fatal(err)
	}
	if res.TeamURL != "https://praxis.ch" {
		t.Errorf("TeamURL = %q, want the unchanged start URL", res.TeamURL)
	}
}

func TestLocatePicksBestAmongPreferred(t *testing.T) {
	home := fmt.Sprintf(germanHome,
		`<a href="/mitarbeiter-archiv">Mitarbeiter Archiv</a><a href="/team">Unser Team</a>`)
	f := &fakeFetcher{pages: map[string]string{
		"https://praxis.ch/":     home,
		"https://praxis.ch":      home,
		"https://praxis.ch/team": germanTeamPage,
	}}

	res, err := newTestLocator().Locate(context.Background(), f, "https://praxis.ch")
	if err != nil {
		t.Fatal(err)
	}
	if res.TeamURL != "https://praxis.ch/team" {
		t.Errorf("TeamURL = %q, want /team", res.TeamURL)
	}
}

func TestLocateInvalidBaseURL(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{}}
	if _, err := newTestLocator().Locate(context.Background(), f, "not a url"); err == nil {
		t.Fatal("expected an error for an unparseable start URL")
	}
}

func scoringConfig() *keywords.TeamConfig {
	return &keywords.TeamConfig{
		TeamKeywords:   []string{"team"},
		KeywordWeights: map[string]int{"team": 20},
	}
}

func longText(sentence string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = sentence
	}
	return strings.Join(parts, " ")
}

func TestScoreContentWeightsAndPathBonus(t *testing.T) {
	cfg := scoringConfig()
	sentence := "unser team betreut hunde katzen und pferde in der ganzen region mit grosser erfahrung"
	html := "<html><body><main><p>" + longText(sentence, 5) + "</p></main></body></html>"

	onPath := ScoreContent(html, "https://praxis.ch/unser-team", cfg)
	if want := 5*20 + 25; onPath != want {
		t.Errorf("score with path bonus = %d, want %d", onPath, want)
	}

	atRoot := ScoreContent(html, "https://praxis.ch/", cfg)
	if want := 5 * 20; atRoot != want {
		t.Errorf("score at root with strong keyword = %d, want %d", atRoot, want)
	}
}

func TestScoreContentRootPenalty(t *testing.T) {
	cfg := scoringConfig()
	sentence := "die praxis betreut hunde katzen und pferde in der ganzen region mit grosser erfahrung"
	html := "<html><body><main><p>" + longText(sentence, 5) + "</p></main></body></html>"

	if got := ScoreContent(html, "https://praxis.ch/", cfg); got != -rootPenalty {
		t.Errorf("root page without strong keyword = %d, want %d", got, -rootPenalty)
	}
	if got := ScoreContent(html, "https://praxis.ch/ueber", cfg); got != 0 {
		t.Errorf("non-root page without keywords = %d, want 0", got)
	}
}

func TestScoreContentShortTextIsZero(t *testing.T) {
	cfg := scoringConfig()
	html := "<html><body><main><p>team team team</p></main></body></html>"
	if got := ScoreContent(html, "https://praxis.ch/team", cfg); got != 0 {
		t.Errorf("short page = %d, want 0", got)
	}
}
