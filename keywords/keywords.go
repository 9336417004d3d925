// Package keywords loads and serves the multilingual keyword configuration:
// animal-specialization categories, clinic/non-clinic markers, cookie-button
// phrases and the per-language team-page settings. Tables are loaded once at
// startup, normalised, and treated as immutable; they are shared read-only
// across concurrent site visits.
//
// Every lookup follows the same fallback order: requested language, then
// English, then an error. Missing required columns are a startup failure, not
// a silent degradation.
package keywords

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/hazyhaar/vetmap/textnorm"
)

// FallbackLang terminates every lookup chain.
const FallbackLang = "en"

// Table maps language code -> category -> normalised keywords.
type Table map[string]map[string][]string

// BinaryTable maps language code -> normalised keywords, for single-category
// tables such as clinic and non-clinic markers.
type BinaryTable map[string][]string

// LoadCategoryCSV reads a Language,Category,Keyword table. The three columns
// are required; their absence is fatal.
func LoadCategoryCSV(path string) (Table, error) {
	rows, idx, err := readCSV(path, "Language", "Category", "Keyword")
	if err != nil {
		return nil, err
	}

	t := make(Table)
	for _, row := range rows {
		lang := strings.ToLower(strings.TrimSpace(row[idx["Language"]]))
		cat := strings.ToLower(strings.TrimSpace(row[idx["Category"]]))
		kw := textnorm.Normalize(row[idx["Keyword"]])
		if lang == "" || cat == "" || kw == "" {
			continue
		}
		if t[lang] == nil {
			t[lang] = make(map[string][]string)
		}
		t[lang][cat] = appendUnique(t[lang][cat], kw)
	}
	return t, nil
}

// LoadBinaryCSV reads a Language,Keyword table.
func LoadBinaryCSV(path string) (BinaryTable, error) {
	rows, idx, err := readCSV(path, "Language", "Keyword")
	if err != nil {
		return nil, err
	}

	b := make(BinaryTable)
	for _, row := range rows {
		lang := strings.ToLower(strings.TrimSpace(row[idx["Language"]]))
		kw := textnorm.Normalize(row[idx["Keyword"]])
		if lang == "" || kw == "" {
			continue
		}
		b[lang] = appendUnique(b[lang], kw)
	}
	return b, nil
}

// Categories lists the categories covered for a language, or for English if
// the language is absent.
func (t Table) Categories(lang string) []string {
	m, ok := t[lang]
	if !ok {
		m = t[FallbackLang]
	}
	cats := make([]string, 0, len(m))
	for c := range m {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// ForLanguage returns category keyword sets as the union of the requested
// language and English. An uncovered language yields the English sets alone.
func (t Table) ForLanguage(lang string) map[string][]string {
	en := t[FallbackLang]
	specific, ok := t[lang]
	if !ok {
		return en
	}
	out := make(map[string][]string, len(specific)+len(en))
	for cat, kws := range specific {
		out[cat] = append([]string(nil), kws...)
	}
	for cat, kws := range en {
		for _, kw := range kws {
			out[cat] = appendUnique(out[cat], kw)
		}
	}
	return out
}

// Union returns the requested language's keywords merged with English.
func (b BinaryTable) Union(lang string) []string {
	out := append([]string(nil), b[lang]...)
	if lang != FallbackLang {
		for _, kw := range b[FallbackLang] {
			out = appendUnique(out, kw)
		}
	}
	return out
}

func appendUnique(dst []string, s string) []string {
	for _, have := range dst {
		if have == s {
			return dst
		}
	}
	return append(dst, s)
}

func readCSV(path string, required ...string) ([][]string, map[string]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("keywords: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("keywords: read header %s: %w", path, err)
	}
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.TrimSpace(col)] = i
	}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, nil, fmt.Errorf("keywords: %s: missing required column %q", path, col)
		}
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("keywords: read %s: %w", path, err)
		}
		if len(row) < len(header) {
			continue
		}
		rows = append(rows, row)
	}
	return rows, idx, nil
}
