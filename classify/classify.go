// Package classify turns merged page text into structured labels: the
// tri-state clinic status and the set of animal-specialization categories.
// Both classifiers are pure functions of the normalised text, the keyword
// tables and the detected language.
package classify

import (
	"strings"

	"github.com/hazyhaar/vetmap/fuzzy"
	"github.com/hazyhaar/vetmap/keywords"
)

// Status is the tri-state clinic classification.
type Status string

const (
	StatusYes       Status = "yes"
	StatusNo        Status = "no"
	StatusUncertain Status = "uncertain"
)

// Animal specialization categories. Keyword tables address categories by
// these exact names.
const (
	CategorySmallAnimals = "small animals"
	CategoryLargeAnimals = "large animals"
	CategoryHorses       = "horses"
)

// Categories is the fixed evaluation order for specialization.
var Categories = []string{CategorySmallAnimals, CategoryLargeAnimals, CategoryHorses}

// Reason codes attached to a specialization result.
const (
	ReasonMatch          = "match"
	ReasonNoSpeciesMatch = "no_species_match"
	ReasonSkipped        = "skipped"
)

// Flags are the per-category booleans. They are always derived from the
// specialization string, never stored independently, so the two can never
// disagree.
type Flags struct {
	SmallAnimals bool
	LargeAnimals bool
	Horses       bool
}

// Result is the outcome of a specialization classification.
type Result struct {
	// Specialization is the comma-joined list of matched categories, empty
	// when nothing matched.
	Specialization string
	// Reason is one of the Reason* codes.
	Reason string
}

// Flags derives the category booleans from the specialization string.
func (r Result) Flags() Flags { return DeriveFlags(r.Specialization) }

// DeriveFlags recomputes the per-category booleans from a specialization
// string.
func DeriveFlags(specialization string) Flags {
	s := strings.ToLower(specialization)
	return Flags{
		SmallAnimals: strings.Contains(s, CategorySmallAnimals),
		LargeAnimals: strings.Contains(s, CategoryLargeAnimals),
		Horses:       strings.Contains(s, CategoryHorses),
	}
}

// Classifier applies the keyword tables with a shared fuzzy matcher.
type Classifier struct {
	matcher   *fuzzy.Matcher
	clinic    keywords.BinaryTable
	nonClinic keywords.BinaryTable
	animals   keywords.Table
}

// New builds a Classifier. A nil matcher gets the default threshold.
func New(m *fuzzy.Matcher, clinic, nonClinic keywords.BinaryTable, animals keywords.Table) *Classifier {
	if m == nil {
		m = fuzzy.New(0)
	}
	return &Classifier{matcher: m, clinic: clinic, nonClinic: nonClinic, animals: animals}
}

// ClinicStatus decides whether text belongs to an actual veterinary clinic.
// The detected language's keywords are unioned with English for both
// categories. Tie-break: a simultaneous clinic and non-clinic match is "yes".
func (c *Classifier) ClinicStatus(text, lang string) Status {
	foundClinic := c.matcher.ContainsKeyword(text, c.clinic.Union(lang))
	foundNonClinic := c.matcher.ContainsKeyword(text, c.nonClinic.Union(lang))

	switch {
	case foundClinic:
		return StatusYes
	case foundNonClinic:
		return StatusNo
	default:
		return StatusUncertain
	}
}

// Specialization tests each animal category independently; categories are
// not mutually exclusive. An empty outcome carries ReasonNoSpeciesMatch so
// the orchestrator can run its bounded retry instead of silently defaulting.
func (c *Classifier) Specialization(text, lang string) Result {
	sets := c.animals.ForLanguage(lang)

	var matched []string
	for _, cat := range Categories {
		kws, ok := sets[cat]
		if !ok {
			continue
		}
		if c.matcher.ContainsKeyword(text, kws) {
			matched = append(matched, cat)
		}
	}

	if len(matched) == 0 {
		return Result{Reason: ReasonNoSpeciesMatch}
	}
	return Result{Specialization: strings.Join(matched, ", "), Reason: ReasonMatch}
}
