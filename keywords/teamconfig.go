package keywords

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/vetmap/textnorm"
)

// TeamConfig holds the per-language settings driving team-page discovery.
// All fields are normalised at load time.
type TeamConfig struct {
	// TeamKeywords flag a link path or anchor text as a team-page candidate.
	TeamKeywords []string `yaml:"team_keywords"`

	// PreferredPaths mark a candidate as preferred when its last path
	// segment starts with one of them.
	PreferredPaths []string `yaml:"preferred_paths"`

	// ExcludeKeywords drop irrelevant site sections (careers, legal,
	// pricing) from the crawl.
	ExcludeKeywords []string `yaml:"exclude_keywords"`

	// CookieButtonKeywords match consent-banner accept buttons.
	CookieButtonKeywords []string `yaml:"cookie_button_keywords"`

	// KeywordWeights override the default per-occurrence scoring weight.
	KeywordWeights map[string]int `yaml:"keyword_weights"`
}

// TeamConfigs maps language code to its team-page configuration.
type TeamConfigs map[string]*TeamConfig

// Lookup resolves a language's team configuration: requested language, then
// English, then an error. Callers must treat a Lookup error as fatal: there
// is no meaningful discovery without keywords.
func (tc TeamConfigs) Lookup(lang string) (*TeamConfig, error) {
	if cfg, ok := tc[lang]; ok {
		return cfg, nil
	}
	if cfg, ok := tc[FallbackLang]; ok {
		return cfg, nil
	}
	return nil, fmt.Errorf("keywords: no team config for language %q and no %q fallback", lang, FallbackLang)
}

// normalize canonicalises every keyword field in place.
func (c *TeamConfig) normalize() {
	norm := func(ss []string) []string {
		out := ss[:0]
		for _, s := range ss {
			if n := textnorm.Normalize(s); n != "" {
				out = append(out, n)
			}
		}
		return out
	}
	c.TeamKeywords = norm(c.TeamKeywords)
	c.PreferredPaths = norm(c.PreferredPaths)
	c.ExcludeKeywords = norm(c.ExcludeKeywords)
	c.CookieButtonKeywords = norm(c.CookieButtonKeywords)

	weights := make(map[string]int, len(c.KeywordWeights))
	for kw, w := range c.KeywordWeights {
		weights[textnorm.Normalize(kw)] = w
	}
	c.KeywordWeights = weights
}

// LoadTeamConfigs reads a YAML override file and merges it over the built-in
// defaults: languages present in the file replace the default entry wholesale.
// An empty path returns the defaults.
func LoadTeamConfigs(path string) (TeamConfigs, error) {
	cfgs := DefaultTeamConfigs()
	if path == "" {
		return cfgs, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keywords: read team config %s: %w", path, err)
	}
	var override map[string]*TeamConfig
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("keywords: parse team config %s: %w", path, err)
	}
	for lang, cfg := range override {
		cfg.normalize()
		cfgs[lang] = cfg
	}
	if _, ok := cfgs[FallbackLang]; !ok {
		return nil, fmt.Errorf("keywords: team config must cover fallback language %q", FallbackLang)
	}
	return cfgs, nil
}
