// Package people turns the combined team text of a clinic into a structured
// list of named individuals and staff counts, using a language-model
// extraction endpoint.
package people

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Person is one named individual from a team page.
type Person struct {
	// Name as written on the page.
	Name string `json:"Name"`
	// Gender is "Female" or "Male".
	Gender string `json:"Gender"`
	// Role is "Doctor" or "Non-Doctor".
	Role string `json:"Role"`
	// Uncertain marks a best-guess gender or role.
	Uncertain bool `json:"Uncertain"`
}

// Counts tallies a team by role and gender.
type Counts struct {
	FemaleDoctors    int
	MaleDoctors      int
	FemaleNonDoctors int
	MaleNonDoctors   int
}

// Extractor extracts the named individuals from a combined team text.
type Extractor interface {
	ExtractPeople(ctx context.Context, text string) ([]Person, error)
}

// ErrNoJSONList means the model reply carries no recognisable JSON list.
var ErrNoJSONList = errors.New("people: no JSON list in reply")

// ParseError wraps a reply that could not be parsed; Raw is kept so the
// caller can persist it for later inspection.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string { return e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// ParsePeople decodes a model reply into people. Replies wrapped in
// commentary are recovered by taking the outermost JSON list; a reply
// without any list fails with a ParseError carrying the raw text.
func ParsePeople(raw string) ([]Person, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end < 0 || end < start {
		return nil, &ParseError{Raw: raw, Err: ErrNoJSONList}
	}
	listText := raw[start : end+1]

	var out []Person
	if err := json.Unmarshal([]byte(listText), &out); err != nil {
		return nil, &ParseError{Raw: raw, Err: fmt.Errorf("people: decode reply: %w", err)}
	}
	return out, nil
}

// Count tallies people into the four staff columns. Unknown roles and
// genders are ignored rather than guessed.
func Count(people []Person) Counts {
	var c Counts
	for _, p := range people {
		role := strings.ToLower(strings.TrimSpace(p.Role))
		gender := strings.ToLower(strings.TrimSpace(p.Gender))
		switch role {
		case "doctor":
			switch gender {
			case "female":
				c.FemaleDoctors++
			case "male":
				c.MaleDoctors++
			}
		case "non-doctor":
			switch gender {
			case "female":
				c.FemaleNonDoctors++
			case "male":
				c.MaleNonDoctors++
			}
		}
	}
	return c
}
