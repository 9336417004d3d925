// Package language identifies the language of scraped page text. Detection
// is restricted to the languages the keyword configuration covers; anything
// else degrades to English so the classifier's fallback order stays simple.
package language

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// Fallback is the language every lookup chain ends on.
const Fallback = "en"

var (
	once     sync.Once
	detector lingua.LanguageDetector
)

// candidate languages mirror the keyword tables: the big western-European
// set the clinic corpus actually contains.
var candidates = []lingua.Language{
	lingua.English,
	lingua.German,
	lingua.French,
	lingua.Italian,
	lingua.Spanish,
	lingua.Portuguese,
	lingua.Dutch,
	lingua.Polish,
	lingua.Czech,
	lingua.Romanian,
}

func get() lingua.LanguageDetector {
	once.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(candidates...).
			Build()
	})
	return detector
}

// Detect returns the ISO-639-1 code of the dominant language in text, or
// Fallback when text is empty or no candidate language is confident.
func Detect(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return Fallback
	}
	lang, ok := get().DetectLanguageOf(text)
	if !ok {
		return Fallback
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}
