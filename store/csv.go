package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hazyhaar/vetmap/classify"
	"github.com/hazyhaar/vetmap/fuzzy"
)

// headerMatchCutoff accepts case, spacing and word-order variants of a
// column name but rejects genuinely different headers.
const headerMatchCutoff = 90

// columnIndex resolves a canonical column name against the header row:
// exact match first, then the best word-order-insensitive fuzzy match.
// Exported clinic lists come back with headers like "NAME " or "Website:".
func columnIndex(header []string, name string) (int, bool) {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i, true
		}
	}
	cells := make([]string, len(header))
	for i, h := range header {
		cells[i] = strings.ToLower(strings.TrimSpace(h))
	}
	best, _, ok := fuzzy.BestMatch(strings.ToLower(name), cells, fuzzy.TokenSortRatio, headerMatchCutoff)
	if !ok {
		return 0, false
	}
	for i, c := range cells {
		if c == best {
			return i, true
		}
	}
	return 0, false
}

// LoadClinicsCSV reads the input clinic list. Name and Website columns are
// required and their absence is an error; Clinic and Specialization columns
// from an earlier partial run are picked up when present. Rows without a
// name are dropped.
func LoadClinicsCSV(path string) ([]Clinic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store: open clinic csv %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("store: read clinic csv header: %w", err)
	}
	col := make(map[string]int, 4)
	for _, name := range []string{"Name", "Website", "Clinic", "Specialization"} {
		if i, ok := columnIndex(header, name); ok {
			col[name] = i
		}
	}
	for _, required := range []string{"Name", "Website"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("store: clinic csv %s: missing required column %q", path, required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var out []Clinic
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("store: read clinic csv row: %w", err)
		}
		name := field(record, "Name")
		if name == "" {
			continue
		}
		out = append(out, Clinic{
			Name:           name,
			Website:        field(record, "Website"),
			ClinicStatus:   classify.Status(strings.ToLower(field(record, "Clinic"))),
			Specialization: field(record, "Specialization"),
		})
	}
	return out, nil
}
